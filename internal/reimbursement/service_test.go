package reimbursement_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/expenseops/expense-approval/internal"
	"github.com/expenseops/expense-approval/internal/auth"
	"github.com/expenseops/expense-approval/internal/ledger"
	"github.com/expenseops/expense-approval/internal/project"
	"github.com/expenseops/expense-approval/internal/reimbursement"
)

func TestReimbursementService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Reimbursement Service Suite")
}

type mockReimbursementRepository struct {
	claims      map[int64]*reimbursement.Reimbursement
	expenses    []*ledger.Expense
	createError error
	nextID      int64
}

func newMockReimbursementRepository() *mockReimbursementRepository {
	return &mockReimbursementRepository{
		claims: make(map[int64]*reimbursement.Reimbursement),
		nextID: 1,
	}
}

func (m *mockReimbursementRepository) Create(r *reimbursement.Reimbursement) error {
	if m.createError != nil {
		return m.createError
	}
	r.ID = m.nextID
	m.nextID++
	m.claims[r.ID] = r
	return nil
}

func (m *mockReimbursementRepository) GetByID(id int64) (*reimbursement.Reimbursement, error) {
	r, exists := m.claims[id]
	if !exists {
		return nil, nil
	}
	copied := *r
	return &copied, nil
}

func (m *mockReimbursementRepository) GetAll(limit, offset int) ([]*reimbursement.Reimbursement, error) {
	all := make([]*reimbursement.Reimbursement, 0, len(m.claims))
	for _, r := range m.claims {
		all = append(all, r)
	}
	return all, nil
}

func (m *mockReimbursementRepository) GetByUser(userID int64, limit, offset int) ([]*reimbursement.Reimbursement, error) {
	own := make([]*reimbursement.Reimbursement, 0)
	for _, r := range m.claims {
		if r.UserID == userID {
			own = append(own, r)
		}
	}
	return own, nil
}

func (m *mockReimbursementRepository) MarkReviewed(id, reviewerID int64, notes string, at time.Time) (bool, error) {
	r, exists := m.claims[id]
	if !exists || r.Status != reimbursement.StatusPending {
		return false, nil
	}
	r.Status = reimbursement.StatusReviewed
	r.ReviewedBy = &reviewerID
	r.ReviewedAt = &at
	r.ReviewNotes = notes
	return true, nil
}

func (m *mockReimbursementRepository) MarkApproved(id, adminID int64, notes string, at time.Time) (bool, error) {
	r, exists := m.claims[id]
	if !exists || r.Status != reimbursement.StatusReviewed {
		return false, nil
	}
	r.Status = reimbursement.StatusApproved
	r.ApprovedBy = &adminID
	r.ApprovedAt = &at
	r.ApprovalNotes = notes
	return true, nil
}

func (m *mockReimbursementRepository) MarkRejected(id int64, from reimbursement.Status, rejectedBy int64, reason string, at time.Time) (bool, error) {
	r, exists := m.claims[id]
	if !exists || r.Status != from {
		return false, nil
	}
	r.Status = reimbursement.StatusRejected
	r.RejectedBy = &rejectedBy
	r.RejectedAt = &at
	r.RejectionReason = reason
	return true, nil
}

func (m *mockReimbursementRepository) MarkPaid(id, paidBy int64, proofURL, notes string, at time.Time, expense *ledger.Expense) (bool, error) {
	r, exists := m.claims[id]
	if !exists || r.Status != reimbursement.StatusApproved {
		return false, nil
	}
	r.Status = reimbursement.StatusPaid
	r.PaidBy = &paidBy
	r.PaidAt = &at
	r.PaymentProofURL = proofURL
	r.PaymentNotes = notes
	m.expenses = append(m.expenses, expense)
	return true, nil
}

type mockProjectReader struct {
	projects map[int64]*project.Project
}

func (m *mockProjectReader) GetByID(id int64) (*project.Project, error) {
	p, exists := m.projects[id]
	if !exists {
		return nil, project.ErrProjectNotFound
	}
	return p, nil
}

type mockCategoryResolver struct {
	categoryID int64
	err        error
}

func (m *mockCategoryResolver) EnsureCategory(name string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.categoryID, nil
}

var _ = Describe("ReimbursementService", func() {
	var (
		service    *reimbursement.Service
		mockRepo   *mockReimbursementRepository
		projects   *mockProjectReader
		categories *mockCategoryResolver

		staff        *auth.User
		otherStaff   *auth.User
		finance      *auth.User
		otherFinance *auth.User
		admin        *auth.User
	)

	BeforeEach(func() {
		mockRepo = newMockReimbursementRepository()
		projects = &mockProjectReader{projects: map[int64]*project.Project{
			1: {ID: 1, Name: "Website Revamp", Status: project.StatusActive},
			2: {ID: 2, Name: "Closed Project", Status: project.StatusCompleted},
		}}
		categories = &mockCategoryResolver{categoryID: 7}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = reimbursement.NewService(mockRepo, projects, categories, nil, logger)

		staff = &auth.User{ID: 10, Role: auth.RoleStaff, IsActive: true}
		otherStaff = &auth.User{ID: 11, Role: auth.RoleStaff, IsActive: true}
		finance = &auth.User{ID: 20, Role: auth.RoleFinance, IsActive: true}
		otherFinance = &auth.User{ID: 21, Role: auth.RoleFinance, IsActive: true}
		admin = &auth.User{ID: 30, Role: auth.RoleAdmin, IsActive: true}
	})

	submitClaim := func() *reimbursement.Reimbursement {
		claim, err := service.Submit(reimbursement.SubmitReimbursementDTO{
			ProjectID:   1,
			Amount:      1_500_000,
			Description: "Client visit transport",
			ExpenseDate: time.Now().Add(-24 * time.Hour),
			ReceiptURL:  "https://files.example.com/receipt-1.jpg",
		}, staff)
		Expect(err).ToNot(HaveOccurred())
		return claim
	}

	Describe("Submit", func() {
		It("creates a pending claim owned by the submitter", func() {
			claim := submitClaim()

			Expect(claim.Status).To(Equal(reimbursement.StatusPending))
			Expect(claim.UserID).To(Equal(staff.ID))
			Expect(claim.Amount).To(Equal(int64(1_500_000)))
		})

		It("rejects a non-positive amount", func() {
			_, err := service.Submit(reimbursement.SubmitReimbursementDTO{
				ProjectID:   1,
				Amount:      0,
				Description: "broken",
				ExpenseDate: time.Now(),
				ReceiptURL:  "https://files.example.com/r.jpg",
			}, staff)

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("rejects an expense date in the future", func() {
			_, err := service.Submit(reimbursement.SubmitReimbursementDTO{
				ProjectID:   1,
				Amount:      50_000,
				Description: "time travel",
				ExpenseDate: time.Now().Add(48 * time.Hour),
				ReceiptURL:  "https://files.example.com/r.jpg",
			}, staff)

			Expect(err).To(HaveOccurred())
		})

		It("rejects a claim against a non-active project", func() {
			_, err := service.Submit(reimbursement.SubmitReimbursementDTO{
				ProjectID:   2,
				Amount:      50_000,
				Description: "late claim",
				ExpenseDate: time.Now(),
				ReceiptURL:  "https://files.example.com/r.jpg",
			}, staff)

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeProjectNotActive))
		})

		It("refuses submissions from finance users", func() {
			_, err := service.Submit(reimbursement.SubmitReimbursementDTO{
				ProjectID:   1,
				Amount:      50_000,
				Description: "not my claim",
				ExpenseDate: time.Now(),
				ReceiptURL:  "https://files.example.com/r.jpg",
			}, finance)

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(403))
		})
	})

	Describe("GetReimbursement", func() {
		It("lets the owner read their own claim", func() {
			claim := submitClaim()

			got, err := service.GetReimbursement(claim.ID, staff)
			Expect(err).ToNot(HaveOccurred())
			Expect(got.ID).To(Equal(claim.ID))
		})

		It("hides the claim from other staff", func() {
			claim := submitClaim()

			_, err := service.GetReimbursement(claim.ID, otherStaff)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(403))
		})

		It("lets finance read any claim", func() {
			claim := submitClaim()

			got, err := service.GetReimbursement(claim.ID, finance)
			Expect(err).ToNot(HaveOccurred())
			Expect(got.ID).To(Equal(claim.ID))
		})
	})

	Describe("Review", func() {
		It("moves a pending claim to reviewed and stamps the reviewer", func() {
			claim := submitClaim()

			reviewed, err := service.Review(claim.ID, reimbursement.ReviewDTO{Notes: "receipts check out"}, finance)
			Expect(err).ToNot(HaveOccurred())
			Expect(reviewed.Status).To(Equal(reimbursement.StatusReviewed))
			Expect(*reviewed.ReviewedBy).To(Equal(finance.ID))
			Expect(reviewed.ReviewedAt).ToNot(BeNil())
		})

		It("fails with an invalid state error when the claim is already reviewed", func() {
			claim := submitClaim()
			_, err := service.Review(claim.ID, reimbursement.ReviewDTO{}, finance)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Review(claim.ID, reimbursement.ReviewDTO{}, otherFinance)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(409))
			Expect(appErr.Message).To(ContainSubstring("pending"))
			Expect(appErr.Message).To(ContainSubstring("reviewed"))
		})

		It("refuses staff reviewers", func() {
			claim := submitClaim()

			_, err := service.Review(claim.ID, reimbursement.ReviewDTO{}, staff)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(403))
		})
	})

	Describe("Approve", func() {
		It("moves a reviewed claim to approved", func() {
			claim := submitClaim()
			_, err := service.Review(claim.ID, reimbursement.ReviewDTO{}, finance)
			Expect(err).ToNot(HaveOccurred())

			approved, err := service.Approve(claim.ID, reimbursement.ApproveDTO{Notes: "ok"}, admin)
			Expect(err).ToNot(HaveOccurred())
			Expect(approved.Status).To(Equal(reimbursement.StatusApproved))
			Expect(*approved.ApprovedBy).To(Equal(admin.ID))
		})

		It("cannot approve a claim that skipped review", func() {
			claim := submitClaim()

			_, err := service.Approve(claim.ID, reimbursement.ApproveDTO{}, admin)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(409))
		})
	})

	Describe("Reject", func() {
		It("finance can reject a pending claim with a reason", func() {
			claim := submitClaim()

			rejected, err := service.RejectByFinance(claim.ID, reimbursement.RejectDTO{Reason: "receipt is unreadable"}, finance)
			Expect(err).ToNot(HaveOccurred())
			Expect(rejected.Status).To(Equal(reimbursement.StatusRejected))
			Expect(rejected.RejectionReason).To(Equal("receipt is unreadable"))
		})

		It("leaves the claim untouched when the reason is too short", func() {
			claim := submitClaim()

			_, err := service.RejectByFinance(claim.ID, reimbursement.RejectDTO{Reason: "no"}, finance)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))

			current, _ := service.GetReimbursement(claim.ID, finance)
			Expect(current.Status).To(Equal(reimbursement.StatusPending))
		})

		It("admin can reject a reviewed claim", func() {
			claim := submitClaim()
			_, err := service.Review(claim.ID, reimbursement.ReviewDTO{}, finance)
			Expect(err).ToNot(HaveOccurred())

			rejected, err := service.RejectByAdmin(claim.ID, reimbursement.RejectDTO{Reason: "outside project budget"}, admin)
			Expect(err).ToNot(HaveOccurred())
			Expect(rejected.Status).To(Equal(reimbursement.StatusRejected))
		})

		It("admin cannot reject a claim still pending finance review", func() {
			claim := submitClaim()

			_, err := service.RejectByAdmin(claim.ID, reimbursement.RejectDTO{Reason: "outside project budget"}, admin)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(409))
		})

		It("admin cannot perform the review-stage rejection", func() {
			claim := submitClaim()

			_, err := service.RejectByFinance(claim.ID, reimbursement.RejectDTO{Reason: "outside project budget"}, admin)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(403))

			current, _ := service.GetReimbursement(claim.ID, finance)
			Expect(current.Status).To(Equal(reimbursement.StatusPending))
		})

		It("finance cannot perform the approval-stage rejection", func() {
			claim := submitClaim()
			_, err := service.Review(claim.ID, reimbursement.ReviewDTO{}, finance)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.RejectByAdmin(claim.ID, reimbursement.RejectDTO{Reason: "outside project budget"}, finance)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(403))

			current, _ := service.GetReimbursement(claim.ID, finance)
			Expect(current.Status).To(Equal(reimbursement.StatusReviewed))
		})
	})

	Describe("MarkPaid", func() {
		approveClaim := func() *reimbursement.Reimbursement {
			claim := submitClaim()
			_, err := service.Review(claim.ID, reimbursement.ReviewDTO{}, finance)
			Expect(err).ToNot(HaveOccurred())
			approved, err := service.Approve(claim.ID, reimbursement.ApproveDTO{}, admin)
			Expect(err).ToNot(HaveOccurred())
			return approved
		}

		It("pays an approved claim and writes exactly one ledger expense", func() {
			claim := approveClaim()

			paid, err := service.MarkPaid(claim.ID, reimbursement.MarkPaidDTO{
				PaymentProofURL: "https://files.example.com/proof-1.pdf",
			}, finance)
			Expect(err).ToNot(HaveOccurred())
			Expect(paid.Status).To(Equal(reimbursement.StatusPaid))
			Expect(*paid.PaidBy).To(Equal(finance.ID))

			Expect(mockRepo.expenses).To(HaveLen(1))
			expense := mockRepo.expenses[0]
			Expect(expense.SourceType).To(Equal(ledger.SourceReimbursement))
			Expect(expense.SourceID).To(Equal(claim.ID))
			Expect(expense.Amount).To(Equal(int64(1_500_000)))
			Expect(expense.CategoryID).To(Equal(categories.categoryID))
		})

		It("refuses payment from a finance user who did not review the claim", func() {
			claim := approveClaim()

			_, err := service.MarkPaid(claim.ID, reimbursement.MarkPaidDTO{
				PaymentProofURL: "https://files.example.com/proof-1.pdf",
			}, otherFinance)

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeNotReviewer))
			Expect(appErr.StatusCode).To(Equal(403))

			current, _ := service.GetReimbursement(claim.ID, finance)
			Expect(current.Status).To(Equal(reimbursement.StatusApproved))
			Expect(mockRepo.expenses).To(BeEmpty())
		})

		It("cannot pay a claim that is not approved", func() {
			claim := submitClaim()

			_, err := service.MarkPaid(claim.ID, reimbursement.MarkPaidDTO{
				PaymentProofURL: "https://files.example.com/proof-1.pdf",
			}, finance)

			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(409))
		})

		It("requires a payment proof", func() {
			claim := approveClaim()

			_, err := service.MarkPaid(claim.ID, reimbursement.MarkPaidDTO{}, finance)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("paid claims can never transition again", func() {
			claim := approveClaim()
			_, err := service.MarkPaid(claim.ID, reimbursement.MarkPaidDTO{
				PaymentProofURL: "https://files.example.com/proof-1.pdf",
			}, finance)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.RejectByAdmin(claim.ID, reimbursement.RejectDTO{Reason: "changed my mind here"}, admin)
			Expect(err).To(HaveOccurred())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(409))
		})
	})
})
