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
	ledgerPostgres "github.com/expenseops/expense-approval/internal/ledger/postgres"
)

func TestLedgerRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ledger Repository Suite")
}

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

type sqliteCategory struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func (sqliteCategory) TableName() string { return "expense_categories" }

var _ = Describe("Ledger Repository", func() {
	var (
		db   *gorm.DB
		repo ledger.RepositoryAPI
	)

	paidAt := func(month time.Month, day int) time.Time {
		return time.Date(2026, month, day, 10, 0, 0, 0, time.UTC)
	}

	insert := func(sourceID, categoryID, amount int64, at time.Time) {
		projectID := int64(1)
		e := &ledger.Expense{
			SourceType:  ledger.SourceReimbursement,
			SourceID:    sourceID,
			ProjectID:   &projectID,
			CategoryID:  categoryID,
			Amount:      amount,
			Description: "entry",
			ExpenseDate: at,
			PaidBy:      20,
			PaidAt:      at,
			CreatedAt:   at,
		}
		Expect(db.Create(e).Error).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&sqliteExpense{}, &sqliteCategory{})
		Expect(err).NotTo(HaveOccurred())

		Expect(db.Create(&sqliteCategory{ID: 1, Name: "Reimbursement"}).Error).To(Succeed())
		Expect(db.Create(&sqliteCategory{ID: 2, Name: "Travel"}).Error).To(Succeed())

		repo = ledgerPostgres.NewLedgerRepository(db)
	})

	Describe("GetAll", func() {
		It("filters by category and payment window", func() {
			insert(1, 1, 500_000, paidAt(time.March, 3))
			insert(2, 2, 750_000, paidAt(time.March, 10))
			insert(3, 1, 250_000, paidAt(time.June, 1))

			got, err := repo.GetAll(ledger.Filter{
				CategoryID: 1,
				From:       paidAt(time.January, 1),
				To:         paidAt(time.April, 1),
			}, 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].SourceID).To(Equal(int64(1)))
		})
	})

	Describe("MonthlyTotals", func() {
		It("groups the year's entries by calendar month in order", func() {
			insert(1, 1, 500_000, paidAt(time.March, 3))
			insert(2, 2, 750_000, paidAt(time.March, 10))
			insert(3, 1, 250_000, paidAt(time.June, 1))
			// outside the requested year
			insert(4, 1, 999_000, time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC))

			totals, err := repo.MonthlyTotals(2026)
			Expect(err).NotTo(HaveOccurred())
			Expect(totals).To(HaveLen(2))

			Expect(totals[0].Month).To(Equal(3))
			Expect(totals[0].Count).To(Equal(int64(2)))
			Expect(totals[0].Total).To(Equal(int64(1_250_000)))

			Expect(totals[1].Month).To(Equal(6))
			Expect(totals[1].Total).To(Equal(int64(250_000)))
		})

		It("returns no rows for an empty year", func() {
			totals, err := repo.MonthlyTotals(2020)
			Expect(err).NotTo(HaveOccurred())
			Expect(totals).To(BeEmpty())
		})
	})

	Describe("CategoryBreakdown", func() {
		It("sums per category ordered by total spend", func() {
			insert(1, 1, 500_000, paidAt(time.March, 3))
			insert(2, 1, 300_000, paidAt(time.April, 3))
			insert(3, 2, 900_000, paidAt(time.May, 3))

			totals, err := repo.CategoryBreakdown(paidAt(time.January, 1), paidAt(time.December, 31))
			Expect(err).NotTo(HaveOccurred())
			Expect(totals).To(HaveLen(2))

			Expect(totals[0].CategoryName).To(Equal("Travel"))
			Expect(totals[0].Total).To(Equal(int64(900_000)))
			Expect(totals[1].CategoryName).To(Equal("Reimbursement"))
			Expect(totals[1].Count).To(Equal(int64(2)))
		})
	})
})
