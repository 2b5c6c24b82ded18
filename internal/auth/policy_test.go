package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/gogotime/internal"
)

// mockGrantRepository maps user -> role and role -> permission names
type mockGrantRepository struct {
	companyID uuid.UUID
	roles     map[uuid.UUID]uuid.UUID
	grants    map[uuid.UUID][]string
	fail      error
}

func (m *mockGrantRepository) RoleOf(_ context.Context, companyID, userID uuid.UUID) (*uuid.UUID, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	if companyID != m.companyID {
		return nil, nil
	}
	roleID, ok := m.roles[userID]
	if !ok {
		return nil, nil
	}
	return &roleID, nil
}

func (m *mockGrantRepository) RoleHasPermission(_ context.Context, companyID, roleID uuid.UUID, permission string) (bool, error) {
	if companyID != m.companyID {
		return false, nil
	}
	for _, name := range m.grants[roleID] {
		if name == permission {
			return true, nil
		}
	}
	return false, nil
}

var _ = ginkgo.Describe("Authorization", func() {
	var (
		ctx        context.Context
		repo       *mockGrantRepository
		authorizer *Authorizer
		manager    *Principal
		employee   *Principal
		roleless   *Principal
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		companyID := uuid.New()
		managerRole, employeeRole := uuid.New(), uuid.New()

		manager = &Principal{ID: uuid.New(), CompanyID: companyID}
		employee = &Principal{ID: uuid.New(), CompanyID: companyID}
		roleless = &Principal{ID: uuid.New(), CompanyID: companyID}

		repo = &mockGrantRepository{
			companyID: companyID,
			roles:     map[uuid.UUID]uuid.UUID{manager.ID: managerRole, employee.ID: employeeRole},
			grants: map[uuid.UUID][]string{
				managerRole:  {PermApproveTimesheetEntry, PermViewOtherTimesheetEntry},
				employeeRole: {},
			},
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		authorizer = NewAuthorizer(NewRolePermissionService(repo, logger), logger)
	})

	ginkgo.Describe("CheckPermission", func() {
		ginkgo.It("grants permissions carried by the user's role", func() {
			ok, err := authorizer.checker.CheckPermission(ctx, manager, PermApproveTimesheetEntry)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())
		})

		ginkgo.It("denies users without a role", func() {
			ok, err := authorizer.checker.CheckPermission(ctx, roleless, PermApproveTimesheetEntry)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("denies a principal presenting another company", func() {
			foreign := &Principal{ID: manager.ID, CompanyID: uuid.New()}
			ok, err := authorizer.checker.CheckPermission(ctx, foreign, PermApproveTimesheetEntry)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("surfaces storage errors", func() {
			repo.fail = errors.New("connection reset")
			ok, err := authorizer.checker.CheckPermission(ctx, manager, PermApproveTimesheetEntry)
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("Authorize", func() {
		ginkgo.It("lets owners through without consulting grants", func() {
			repo.fail = errors.New("must not be called")
			gomega.Expect(authorizer.Authorize(ctx, employee, employee.ID, PermUpdateOtherTimesheetEntry)).To(gomega.Succeed())
		})

		ginkgo.It("requires the override permission for non owners", func() {
			err := authorizer.Authorize(ctx, employee, manager.ID, PermViewOtherTimesheetEntry)
			gomega.Expect(errors.Is(err, internal.ErrForbidden)).To(gomega.BeTrue())

			gomega.Expect(authorizer.Authorize(ctx, manager, employee.ID, PermViewOtherTimesheetEntry)).To(gomega.Succeed())
		})

		ginkgo.It("turns checker failures into internal errors", func() {
			repo.fail = errors.New("connection reset")
			err := authorizer.Require(ctx, manager, PermApproveTimesheetEntry)
			gomega.Expect(internal.ErrorTypeOf(err)).To(gomega.Equal(internal.ErrorTypeInternal))
		})

		ginkgo.It("rejects a missing principal as unauthenticated", func() {
			err := authorizer.Authorize(ctx, nil, uuid.New(), PermViewOtherTimesheetEntry)
			gomega.Expect(internal.ErrorTypeOf(err)).To(gomega.Equal(internal.ErrorTypeUnauthorized))
		})
	})
})
