package auth_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/expenseops/expense-approval/internal"
	"github.com/expenseops/expense-approval/internal/auth"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

type mockAuthRepository struct {
	users  map[int64]*auth.User
	hashes map[string]string
	ids    map[string]int64
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		users:  make(map[int64]*auth.User),
		hashes: make(map[string]string),
		ids:    make(map[string]int64),
	}
}

func (m *mockAuthRepository) addUser(u *auth.User, password string) {
	hash, _ := auth.HashPassword(password, 10)
	m.users[u.ID] = u
	m.hashes[u.Email] = hash
	m.ids[u.Email] = u.ID
}

func (m *mockAuthRepository) GetCredentialsByEmail(email string) (string, int64, error) {
	hash, exists := m.hashes[email]
	if !exists {
		return "", 0, errors.New("not found")
	}
	return hash, m.ids[email], nil
}

func (m *mockAuthRepository) GetUserByID(userID int64) (*auth.User, error) {
	u, exists := m.users[userID]
	if !exists {
		return nil, errors.New("not found")
	}
	return u, nil
}

var _ = Describe("AuthService", func() {
	var (
		service  *auth.Service
		mockRepo *mockAuthRepository
	)

	BeforeEach(func() {
		mockRepo = newMockAuthRepository()
		mockRepo.addUser(&auth.User{ID: 1, Email: "finance@expenseops.dev", Role: auth.RoleFinance, IsActive: true}, "correct-password")
		mockRepo.addUser(&auth.User{ID: 2, Email: "gone@expenseops.dev", Role: auth.RoleStaff, IsActive: false}, "correct-password")

		tokenGen := auth.NewJWTTokenGenerator(
			"test-access-secret-with-enough-length",
			"test-refresh-secret-with-enough-len",
			15*time.Minute,
			24*time.Hour,
		)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = auth.NewService(mockRepo, tokenGen, logger)
	})

	Describe("Authenticate", func() {
		It("returns a token pair for valid credentials", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{
				Email:    "finance@expenseops.dev",
				Password: "correct-password",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(tokens.AccessToken).ToNot(BeEmpty())
			Expect(tokens.RefreshToken).ToNot(BeEmpty())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).ToNot(HaveOccurred())
			Expect(claims.UserID).To(Equal(int64(1)))
			Expect(claims.Role).To(Equal(string(auth.RoleFinance)))
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(auth.LoginDTO{
				Email:    "finance@expenseops.dev",
				Password: "wrong-password",
			})
			Expect(err).To(Equal(internal.ErrInvalidCredentials))
		})

		It("rejects an unknown email", func() {
			_, err := service.Authenticate(auth.LoginDTO{
				Email:    "nobody@expenseops.dev",
				Password: "correct-password",
			})
			Expect(err).To(Equal(internal.ErrInvalidCredentials))
		})

		It("rejects a deactivated account", func() {
			_, err := service.Authenticate(auth.LoginDTO{
				Email:    "gone@expenseops.dev",
				Password: "correct-password",
			})
			Expect(err).To(Equal(internal.ErrUserInactive))
		})
	})

	Describe("RefreshTokens", func() {
		It("rotates the pair from a valid refresh token", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{
				Email:    "finance@expenseops.dev",
				Password: "correct-password",
			})
			Expect(err).ToNot(HaveOccurred())

			rotated, err := service.RefreshTokens(tokens.RefreshToken)
			Expect(err).ToNot(HaveOccurred())
			Expect(rotated.AccessToken).ToNot(BeEmpty())
		})

		It("rejects garbage tokens", func() {
			_, err := service.RefreshTokens("not.a.token")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetActiveUser", func() {
		It("returns the user for an active account", func() {
			u, err := service.GetActiveUser(1)
			Expect(err).ToNot(HaveOccurred())
			Expect(u.Role).To(Equal(auth.RoleFinance))
		})

		It("rejects deactivated accounts", func() {
			_, err := service.GetActiveUser(2)
			Expect(err).To(Equal(internal.ErrUserInactive))
		})
	})
})

var _ = Describe("Capability table", func() {
	It("grants staff own-scoped reimbursement access only", func() {
		Expect(auth.Can(auth.RoleStaff, auth.ResourceReimbursement, auth.ActionCreate)).To(Equal(auth.ScopeOwn))
		Expect(auth.Can(auth.RoleStaff, auth.ResourceReimbursement, auth.ActionReview)).To(Equal(auth.ScopeNone))
		Expect(auth.Can(auth.RoleStaff, auth.ResourceReimbursement, auth.ActionPay)).To(Equal(auth.ScopeNone))
	})

	It("keeps reviewing with finance and approving with admin", func() {
		Expect(auth.Can(auth.RoleFinance, auth.ResourceReimbursement, auth.ActionReview)).To(Equal(auth.ScopeAll))
		Expect(auth.Can(auth.RoleFinance, auth.ResourceReimbursement, auth.ActionApprove)).To(Equal(auth.ScopeNone))
		Expect(auth.Can(auth.RoleAdmin, auth.ResourceReimbursement, auth.ActionApprove)).To(Equal(auth.ScopeAll))
		Expect(auth.Can(auth.RoleAdmin, auth.ResourceReimbursement, auth.ActionReview)).To(Equal(auth.ScopeNone))
	})

	It("binds each rejection stage to its own role", func() {
		Expect(auth.Can(auth.RoleFinance, auth.ResourceReimbursement, auth.ActionRejectReview)).To(Equal(auth.ScopeAll))
		Expect(auth.Can(auth.RoleFinance, auth.ResourceReimbursement, auth.ActionRejectApproval)).To(Equal(auth.ScopeNone))
		Expect(auth.Can(auth.RoleAdmin, auth.ResourceReimbursement, auth.ActionRejectApproval)).To(Equal(auth.ScopeAll))
		Expect(auth.Can(auth.RoleAdmin, auth.ResourceReimbursement, auth.ActionRejectReview)).To(Equal(auth.ScopeNone))
	})

	It("keeps direct expense creation and payment with finance", func() {
		Expect(auth.Can(auth.RoleFinance, auth.ResourceDirectExpense, auth.ActionCreate)).To(Equal(auth.ScopeAll))
		Expect(auth.Can(auth.RoleFinance, auth.ResourceDirectExpense, auth.ActionPay)).To(Equal(auth.ScopeAll))
		Expect(auth.Can(auth.RoleAdmin, auth.ResourceDirectExpense, auth.ActionPay)).To(Equal(auth.ScopeNone))
		Expect(auth.Can(auth.RoleStaff, auth.ResourceDirectExpense, auth.ActionCreate)).To(Equal(auth.ScopeNone))
	})

	It("resolves own-scoped access against the owner", func() {
		staff := &auth.User{ID: 10, Role: auth.RoleStaff}
		Expect(auth.CanAccess(staff, auth.ResourceReimbursement, auth.ActionRead, 10)).To(BeTrue())
		Expect(auth.CanAccess(staff, auth.ResourceReimbursement, auth.ActionRead, 11)).To(BeFalse())

		finance := &auth.User{ID: 20, Role: auth.RoleFinance}
		Expect(auth.CanAccess(finance, auth.ResourceReimbursement, auth.ActionRead, 11)).To(BeTrue())
	})
})
