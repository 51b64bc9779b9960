package user

import (
	"log/slog"
	"os"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
)

func TestUser(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "User Suite")
}

// Mock repository for testing
type mockUserRepository struct {
	usersByID    map[string]*userDatamodel.User
	updatedRoles map[string]userDatamodel.Role
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		usersByID:    make(map[string]*userDatamodel.User),
		updatedRoles: make(map[string]userDatamodel.Role),
	}
}

func (m *mockUserRepository) GetByID(id string) (*userDatamodel.User, error) {
	u, exists := m.usersByID[id]
	if !exists {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *mockUserRepository) GetByEmail(email string) (*userDatamodel.User, error) {
	for _, u := range m.usersByID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockUserRepository) List(limit, offset int) ([]*userDatamodel.User, error) {
	var out []*userDatamodel.User
	for _, u := range m.usersByID {
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

func (m *mockUserRepository) ListByRoles(roles []userDatamodel.Role) ([]*userDatamodel.User, error) {
	var out []*userDatamodel.User
	for _, u := range m.usersByID {
		for _, r := range roles {
			if u.Role == r {
				clone := *u
				out = append(out, &clone)
				break
			}
		}
	}
	return out, nil
}

func (m *mockUserRepository) UpdateRole(id string, role userDatamodel.Role) error {
	u, exists := m.usersByID[id]
	if !exists {
		return ErrNotFound
	}
	u.Role = role
	u.SyncFlags()
	m.updatedRoles[id] = role
	return nil
}

var _ = ginkgo.Describe("UserService", func() {
	var (
		service  *Service
		mockRepo *mockUserRepository
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockUserRepository()
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		service = NewService(mockRepo, logger)

		mockRepo.usersByID["u1"] = &userDatamodel.User{
			ID:    "u1",
			Name:  "Riyan",
			Email: "riyan1@gmail.com",
			Role:  userDatamodel.RoleUser,
		}
	})

	ginkgo.Describe("CanAssign", func() {
		ginkgo.It("should let super-admins assign every role", func() {
			for _, target := range []userDatamodel.Role{
				userDatamodel.RoleUser,
				userDatamodel.RoleAdmin,
				userDatamodel.RoleSubAdmin,
				userDatamodel.RoleSuperAdmin,
			} {
				gomega.Expect(CanAssign(userDatamodel.RoleSuperAdmin, target)).To(gomega.BeTrue())
			}
		})

		ginkgo.It("should cap sub-admins at the admin tier", func() {
			gomega.Expect(CanAssign(userDatamodel.RoleSubAdmin, userDatamodel.RoleUser)).To(gomega.BeTrue())
			gomega.Expect(CanAssign(userDatamodel.RoleSubAdmin, userDatamodel.RoleAdmin)).To(gomega.BeTrue())
			gomega.Expect(CanAssign(userDatamodel.RoleSubAdmin, userDatamodel.RoleSubAdmin)).To(gomega.BeFalse())
			gomega.Expect(CanAssign(userDatamodel.RoleSubAdmin, userDatamodel.RoleSuperAdmin)).To(gomega.BeFalse())
		})

		ginkgo.It("should give admins and students no assignment rights", func() {
			gomega.Expect(CanAssign(userDatamodel.RoleAdmin, userDatamodel.RoleUser)).To(gomega.BeFalse())
			gomega.Expect(CanAssign(userDatamodel.RoleUser, userDatamodel.RoleUser)).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("UpdateRole", func() {
		ginkgo.It("should update the role and the flag mirror together", func() {
			updated, err := service.UpdateRole("u1", userDatamodel.RoleAdmin, userDatamodel.RoleSuperAdmin)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.Role).To(gomega.Equal(userDatamodel.RoleAdmin))
			gomega.Expect(mockRepo.updatedRoles["u1"]).To(gomega.Equal(userDatamodel.RoleAdmin))
			gomega.Expect(mockRepo.usersByID["u1"].IsAdmin).To(gomega.BeTrue())
			gomega.Expect(mockRepo.usersByID["u1"].IsSubAdmin).To(gomega.BeFalse())
		})

		ginkgo.It("should refuse a role the actor may not assign", func() {
			_, err := service.UpdateRole("u1", userDatamodel.RoleSuperAdmin, userDatamodel.RoleSubAdmin)

			gomega.Expect(err).To(gomega.Equal(ErrRoleNotAssignable))
			gomega.Expect(mockRepo.updatedRoles).To(gomega.BeEmpty())
		})

		ginkgo.It("should refuse an unknown role value", func() {
			_, err := service.UpdateRole("u1", userDatamodel.Role("owner"), userDatamodel.RoleSuperAdmin)

			gomega.Expect(err).To(gomega.HaveOccurred())
			var verr ValidationError
			gomega.Expect(err).To(gomega.BeAssignableToTypeOf(verr))
		})

		ginkgo.It("should surface a missing target", func() {
			_, err := service.UpdateRole("missing", userDatamodel.RoleAdmin, userDatamodel.RoleSuperAdmin)

			gomega.Expect(err).To(gomega.Equal(ErrNotFound))
		})
	})
})
