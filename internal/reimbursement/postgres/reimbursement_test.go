package postgres_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/expenseops/expense-approval/internal/ledger"
	"github.com/expenseops/expense-approval/internal/reimbursement"
	reimbursementPostgres "github.com/expenseops/expense-approval/internal/reimbursement/postgres"
)

func TestReimbursementRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Reimbursement Repository Suite")
}

// SQLite-compatible models for testing; production schema comes from the
// goose migrations.
type sqliteReimbursement struct {
	ID              int64 `gorm:"primaryKey"`
	UserID          int64
	ProjectID       int64
	Amount          int64
	Description     string
	ExpenseDate     time.Time
	ReceiptURL      string
	Status          string
	ReviewedBy      *int64
	ReviewedAt      *time.Time
	ReviewNotes     string
	ApprovedBy      *int64
	ApprovedAt      *time.Time
	ApprovalNotes   string
	PaidBy          *int64
	PaidAt          *time.Time
	PaymentProofURL string
	PaymentNotes    string
	RejectedBy      *int64
	RejectedAt      *time.Time
	RejectionReason string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (sqliteReimbursement) TableName() string { return "reimbursements" }

type sqliteExpense struct {
	ID              int64  `gorm:"primaryKey"`
	SourceType      string `gorm:"uniqueIndex:idx_expense_source"`
	SourceID        int64  `gorm:"uniqueIndex:idx_expense_source"`
	ProjectID       *int64
	CategoryID      int64
	Amount          int64
	Description     string
	ExpenseDate     time.Time
	ReceiptURL      string
	PaymentProofURL string
	PaidBy          int64
	PaidAt          time.Time
	CreatedAt       time.Time
}

func (sqliteExpense) TableName() string { return "expenses" }

var _ = Describe("Reimbursement Repository", func() {
	var (
		db   *gorm.DB
		repo reimbursement.RepositoryAPI
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&sqliteReimbursement{}, &sqliteExpense{})
		Expect(err).NotTo(HaveOccurred())

		repo = reimbursementPostgres.NewReimbursementRepository(db)
	})

	createPending := func() *reimbursement.Reimbursement {
		claim := &reimbursement.Reimbursement{
			UserID:      10,
			ProjectID:   1,
			Amount:      1_500_000,
			Description: "Client visit transport",
			ExpenseDate: time.Now().Add(-24 * time.Hour),
			ReceiptURL:  "https://files.example.com/receipt-1.jpg",
			Status:      reimbursement.StatusPending,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		Expect(repo.Create(claim)).To(Succeed())
		return claim
	}

	Describe("MarkReviewed", func() {
		It("transitions exactly once under competing reviewers", func() {
			claim := createPending()

			first, err := repo.MarkReviewed(claim.ID, 20, "looks fine", time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(BeTrue())

			second, err := repo.MarkReviewed(claim.ID, 21, "me too", time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(BeFalse())

			got, err := repo.GetByID(claim.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(reimbursement.StatusReviewed))
			Expect(*got.ReviewedBy).To(Equal(int64(20)))
		})
	})

	Describe("MarkPaid", func() {
		approve := func(claim *reimbursement.Reimbursement) {
			ok, err := repo.MarkReviewed(claim.ID, 20, "", time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			ok, err = repo.MarkApproved(claim.ID, 30, "", time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		}

		buildExpense := func(claim *reimbursement.Reimbursement) *ledger.Expense {
			projectID := claim.ProjectID
			return &ledger.Expense{
				SourceType:      ledger.SourceReimbursement,
				SourceID:        claim.ID,
				ProjectID:       &projectID,
				CategoryID:      7,
				Amount:          claim.Amount,
				Description:     claim.Description,
				ExpenseDate:     claim.ExpenseDate,
				ReceiptURL:      claim.ReceiptURL,
				PaymentProofURL: "https://files.example.com/proof-1.pdf",
				PaidBy:          20,
				PaidAt:          time.Now(),
				CreatedAt:       time.Now(),
			}
		}

		It("writes the payment stamp and the ledger row together", func() {
			claim := createPending()
			approve(claim)

			ok, err := repo.MarkPaid(claim.ID, 20, "https://files.example.com/proof-1.pdf", "", time.Now(), buildExpense(claim))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			got, err := repo.GetByID(claim.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(reimbursement.StatusPaid))

			var count int64
			Expect(db.Table("expenses").Where("source_type = ? AND source_id = ?", "reimbursement", claim.ID).Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(1)))
		})

		It("writes no ledger row when the claim is not approved", func() {
			claim := createPending()

			ok, err := repo.MarkPaid(claim.ID, 20, "https://files.example.com/proof-1.pdf", "", time.Now(), buildExpense(claim))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())

			var count int64
			Expect(db.Table("expenses").Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())

			got, err := repo.GetByID(claim.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(reimbursement.StatusPending))
		})

		It("pays exactly once under competing payers", func() {
			claim := createPending()
			approve(claim)

			first, err := repo.MarkPaid(claim.ID, 20, "proof-a", "", time.Now(), buildExpense(claim))
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(BeTrue())

			second, err := repo.MarkPaid(claim.ID, 20, "proof-b", "", time.Now(), buildExpense(claim))
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(BeFalse())

			var count int64
			Expect(db.Table("expenses").Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(1)))
		})
	})

	Describe("MarkRejected", func() {
		It("rejects from the expected status only", func() {
			claim := createPending()

			ok, err := repo.MarkRejected(claim.ID, reimbursement.StatusReviewed, 30, "wrong stage entirely", time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())

			ok, err = repo.MarkRejected(claim.ID, reimbursement.StatusPending, 20, "receipt is unreadable", time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			got, err := repo.GetByID(claim.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(reimbursement.StatusRejected))
			Expect(got.RejectionReason).To(Equal("receipt is unreadable"))
		})
	})

	Describe("GetByUser", func() {
		It("returns only the user's claims", func() {
			createPending()
			other := &reimbursement.Reimbursement{
				UserID: 11, ProjectID: 1, Amount: 100, Status: reimbursement.StatusPending,
				ExpenseDate: time.Now(), CreatedAt: time.Now(), UpdatedAt: time.Now(),
			}
			Expect(repo.Create(other)).To(Succeed())

			own, err := repo.GetByUser(10, 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(own).To(HaveLen(1))
			Expect(own[0].UserID).To(Equal(int64(10)))
		})
	})
})
