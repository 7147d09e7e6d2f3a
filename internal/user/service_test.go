package user_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/authz"
	"github.com/frahmantamala/report-management/internal/user"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

func appCode(err error) internal.ErrorCode {
	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

type mockUserRepository struct {
	users        map[int64]*user.User
	reportOwners map[int64]bool
	deleted      []int64
	nextID       int64
	statsResult  *user.Stats
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:        make(map[int64]*user.User),
		reportOwners: make(map[int64]bool),
		nextID:       100,
	}
}

func (m *mockUserRepository) Create(ctx context.Context, u *user.User) error {
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return internal.ErrUserExists
		}
	}
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, int64, error) {
	var out []*user.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (m *mockUserRepository) Update(ctx context.Context, u *user.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return internal.ErrUserNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return internal.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepository) HasDependentReports(ctx context.Context, id int64) (bool, error) {
	return m.reportOwners[id], nil
}

func (m *mockUserRepository) DeleteCascade(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return internal.ErrUserNotFound
	}
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserRepository) Stats(ctx context.Context) (*user.Stats, error) {
	return m.statsResult, nil
}

type noopRecorder struct{}

func (noopRecorder) RecordAsync(ctx context.Context, action string, actorID int64, details string, metadata map[string]any) {
}

var _ = Describe("UserService", func() {
	var (
		service *user.Service
		repo    *mockUserRepository

		admin = &authz.Actor{ID: 1, Role: authz.RoleAdmin}
		hr    = &authz.Actor{ID: 2, Role: authz.RoleHR}
		staff = &authz.Actor{ID: 3, Role: authz.RoleStaff}
	)

	BeforeEach(func() {
		repo = newMockUserRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(repo, noopRecorder{}, bcrypt.MinCost, time.Second, logger)
	})

	seed := func(username string, role authz.Role) *user.User {
		u := &user.User{
			Name:         username,
			Username:     username,
			Email:        username + "@mail.com",
			PasswordHash: "hash",
			Role:         role,
			IsActive:     true,
		}
		Expect(repo.Create(context.Background(), u)).To(Succeed())
		return u
	}

	Describe("Create", func() {
		It("should hash the password and persist the user", func() {
			created, err := service.Create(context.Background(), admin, user.CreateUserDTO{
				Name:     "New Staff",
				Username: "newstaff",
				Email:    "newstaff@mail.com",
				Password: "password123",
				Role:     "STAFF",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(created.ID).To(BeNumerically(">", 0))
			Expect(created.PasswordHash).ToNot(Equal("password123"))
			Expect(bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("password123"))).To(Succeed())
		})

		It("should return Conflict for a taken username", func() {
			seed("taken", authz.RoleStaff)

			_, err := service.Create(context.Background(), admin, user.CreateUserDTO{
				Name:     "Other",
				Username: "taken",
				Email:    "other@mail.com",
				Password: "password123",
				Role:     "STAFF",
			})

			Expect(err).To(MatchError(internal.ErrUserExists))
		})

		It("should reject a short password", func() {
			_, err := service.Create(context.Background(), admin, user.CreateUserDTO{
				Name:     "Short",
				Username: "short",
				Email:    "short@mail.com",
				Password: "short",
				Role:     "STAFF",
			})

			Expect(err).To(HaveOccurred())
			Expect(appCode(err)).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("should deny creation by staff", func() {
			_, err := service.Create(context.Background(), staff, user.CreateUserDTO{
				Name:     "New",
				Username: "new",
				Email:    "new@mail.com",
				Password: "password123",
				Role:     "STAFF",
			})

			Expect(appCode(err)).To(Equal(internal.ErrCodeForbidden))
		})
	})

	Describe("Delete", func() {
		It("should refuse while the user still owns reports", func() {
			target := seed("owner", authz.RoleStaff)
			repo.reportOwners[target.ID] = true

			err := service.Delete(context.Background(), admin, target.ID)

			Expect(err).To(MatchError(internal.ErrHasDependentReports))
			Expect(repo.deleted).To(BeEmpty())
		})

		It("should cascade for a user without reports", func() {
			target := seed("noreports", authz.RoleStaff)

			err := service.Delete(context.Background(), admin, target.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.deleted).To(Equal([]int64{target.ID}))
			_, err = repo.GetByID(context.Background(), target.ID)
			Expect(err).To(MatchError(internal.ErrUserNotFound))
		})

		It("should reject self-deletion even for an admin", func() {
			u := seed("selfadmin", authz.RoleAdmin)
			self := &authz.Actor{ID: u.ID, Role: authz.RoleAdmin}

			err := service.Delete(context.Background(), self, u.ID)

			Expect(err).To(HaveOccurred())
			Expect(repo.deleted).To(BeEmpty())
		})

		It("should deny deletion by HR", func() {
			target := seed("victim", authz.RoleStaff)

			err := service.Delete(context.Background(), hr, target.ID)

			Expect(appCode(err)).To(Equal(internal.ErrCodeForbidden))
		})
	})

	Describe("ResetPassword", func() {
		It("should replace the stored hash", func() {
			target := seed("resetme", authz.RoleStaff)
			before := target.PasswordHash

			err := service.ResetPassword(context.Background(), hr, target.ID, user.ResetPasswordDTO{NewPassword: "brandnewpass"})

			Expect(err).ToNot(HaveOccurred())
			after, _ := repo.GetByID(context.Background(), target.ID)
			Expect(after.PasswordHash).ToNot(Equal(before))
			Expect(bcrypt.CompareHashAndPassword([]byte(after.PasswordHash), []byte("brandnewpass"))).To(Succeed())
		})

		It("should reject a short password", func() {
			target := seed("resetme2", authz.RoleStaff)

			err := service.ResetPassword(context.Background(), hr, target.ID, user.ResetPasswordDTO{NewPassword: "tiny"})

			Expect(appCode(err)).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("Update", func() {
		It("should apply only the provided fields", func() {
			target := seed("patchme", authz.RoleStaff)
			newName := "Renamed"
			inactive := false

			updated, err := service.Update(context.Background(), admin, target.ID, user.UpdateUserDTO{
				Name:     &newName,
				IsActive: &inactive,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Name).To(Equal("Renamed"))
			Expect(updated.IsActive).To(BeFalse())
			Expect(updated.Username).To(Equal(target.Username))
		})
	})

	Describe("Overview", func() {
		It("should return counters for admins", func() {
			repo.statsResult = &user.Stats{TotalUsers: 5, ActiveUsers: 4}

			stats, err := service.Overview(context.Background(), admin)

			Expect(err).ToNot(HaveOccurred())
			Expect(stats.TotalUsers).To(Equal(int64(5)))
		})

		It("should deny everyone else", func() {
			_, err := service.Overview(context.Background(), hr)
			Expect(appCode(err)).To(Equal(internal.ErrCodeForbidden))
		})
	})
})
