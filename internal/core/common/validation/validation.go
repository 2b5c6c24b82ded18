package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	errors "github.com/frahmantamala/gogotime/internal"
)

var (
	once     sync.Once
	validate *validator.Validate

	identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
			return identifierPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Struct runs the `validate` tags of v and converts failures into a field
// level validation AppError. JSON field names are reported.
func Struct(v interface{}) *errors.AppError {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.NewValidationError(err.Error(), errors.ErrCodeValidationFailed)
	}
	out := make([]errors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, errors.ValidationError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
			Code:    string(errors.ErrCodeValidationFailed),
		})
	}
	return errors.NewValidationErrors(out)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "uuid", "uuid4":
		return field + " must be a valid UUID"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be formatted as %s", field, fe.Param())
	case "identifier":
		return field + " must be lowercase letters, digits or underscores and start with a letter"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

// ValidationBuilder collects rules that struct tags cannot express, such as
// relations between two fields.
type ValidationBuilder struct {
	errors []errors.ValidationError
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{errors: make([]errors.ValidationError, 0)}
}

// Struct merges the tag validation results of v into the builder.
func (v *ValidationBuilder) Struct(value interface{}) *ValidationBuilder {
	if appErr := Struct(value); appErr != nil {
		if details, ok := appErr.Details.(errors.ValidationErrors); ok {
			v.errors = append(v.errors, details.Errors...)
		} else {
			v.errors = append(v.errors, errors.ValidationError{Message: appErr.Message, Code: string(appErr.Code)})
		}
	}
	return v
}

// Check records a field error when ok is false.
func (v *ValidationBuilder) Check(ok bool, field, message string, code errors.ErrorCode) *ValidationBuilder {
	if !ok {
		v.errors = append(v.errors, errors.ValidationError{Field: field, Message: message, Code: string(code)})
	}
	return v
}

func (v *ValidationBuilder) Validate() *errors.AppError {
	if len(v.errors) == 0 {
		return nil
	}
	return errors.NewValidationErrors(v.errors)
}
