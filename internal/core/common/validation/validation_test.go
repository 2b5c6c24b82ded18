package validation_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/core/common/validation"
)

type sample struct {
	Name  string `json:"name" validate:"required,identifier"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Hours int    `json:"hours" validate:"gt=0"`
	Note  string `json:"note" validate:"max=5"`
	Kind  string `json:"kind" validate:"omitempty,oneof=work leave"`
	Ref   string `validate:"omitempty,min=2"`
}

func validSample() sample {
	return sample{Name: "dev_ops", Hours: 1}
}

func fieldErrors(appErr *internal.AppError) []internal.ValidationError {
	Expect(appErr).NotTo(BeNil())
	Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
	details, ok := appErr.Details.(internal.ValidationErrors)
	Expect(ok).To(BeTrue())
	return details.Errors
}

var _ = Describe("Struct", func() {
	It("accepts a valid value", func() {
		Expect(validation.Struct(validSample())).To(BeNil())
	})

	DescribeTable("reports the JSON field name and a readable message",
		func(mutate func(*sample), field, message string) {
			s := validSample()
			mutate(&s)
			errs := fieldErrors(validation.Struct(s))
			Expect(errs).To(HaveLen(1))
			Expect(errs[0].Field).To(Equal(field))
			Expect(errs[0].Message).To(Equal(message))
			Expect(errs[0].Code).To(Equal(string(internal.ErrCodeValidationFailed)))
		},
		Entry("required", func(s *sample) { s.Name = "" }, "name", "name is required"),
		Entry("identifier with capitals", func(s *sample) { s.Name = "DevOps" }, "name",
			"name must be lowercase letters, digits or underscores and start with a letter"),
		Entry("identifier with a leading digit", func(s *sample) { s.Name = "1st_line" }, "name",
			"name must be lowercase letters, digits or underscores and start with a letter"),
		Entry("email", func(s *sample) { s.Email = "not-an-email" }, "email", "email must be a valid email"),
		Entry("gt", func(s *sample) { s.Hours = 0 }, "hours", "hours must be greater than 0"),
		Entry("max", func(s *sample) { s.Note = "too long" }, "note", "note must be at most 5"),
		Entry("oneof", func(s *sample) { s.Kind = "travel" }, "kind", "kind must be one of: work leave"),
		Entry("untagged field keeps its Go name", func(s *sample) { s.Ref = "x" }, "Ref", "Ref must be at least 2"),
	)

	DescribeTable("identifier",
		func(name string, valid bool) {
			s := validSample()
			s.Name = name
			Expect(validation.Struct(s) == nil).To(Equal(valid))
		},
		Entry("single letter", "a", true),
		Entry("letters digits underscores", "time_off2", true),
		Entry("hyphen", "time-off", false),
		Entry("leading underscore", "_draft", false),
		Entry("space", "time off", false),
	)

	It("reports every failing field", func() {
		errs := fieldErrors(validation.Struct(sample{Hours: -1, Note: "much too long"}))
		fields := make([]string, 0, len(errs))
		for _, e := range errs {
			fields = append(fields, e.Field)
		}
		Expect(fields).To(ConsistOf("name", "hours", "note"))
	})

	It("rejects values that are not structs", func() {
		appErr := validation.Struct(42)
		Expect(appErr).NotTo(BeNil())
		Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
	})
})

var _ = Describe("ValidationBuilder", func() {
	It("returns nil when every rule holds", func() {
		appErr := validation.NewValidator().
			Struct(validSample()).
			Check(true, "period_end", "period_end must not be before period_start", internal.ErrCodeValidationFailed).
			Validate()
		Expect(appErr).To(BeNil())
	})

	It("merges tag failures with failed checks", func() {
		s := validSample()
		s.Hours = 0
		errs := fieldErrors(validation.NewValidator().
			Struct(s).
			Check(false, "period_end", "period_end must not be before period_start", internal.ErrCodeValidationFailed).
			Check(true, "note", "unused", internal.ErrCodeValidationFailed).
			Validate())

		Expect(errs).To(HaveLen(2))
		Expect(errs[0].Field).To(Equal("hours"))
		Expect(errs[1]).To(Equal(internal.ValidationError{
			Field:   "period_end",
			Message: "period_end must not be before period_start",
			Code:    string(internal.ErrCodeValidationFailed),
		}))
	})
})
