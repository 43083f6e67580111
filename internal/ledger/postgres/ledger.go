package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/expenseops/expense-approval/internal/ledger"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) ledger.RepositoryAPI {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) GetAll(filter ledger.Filter, limit, offset int) ([]*ledger.Expense, error) {
	q := r.db.Model(&ledger.Expense{})
	if filter.SourceType != "" {
		q = q.Where("source_type = ?", filter.SourceType)
	}
	if filter.ProjectID > 0 {
		q = q.Where("project_id = ?", filter.ProjectID)
	}
	if filter.CategoryID > 0 {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if !filter.From.IsZero() {
		q = q.Where("paid_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("paid_at < ?", filter.To)
	}

	var expenses []*ledger.Expense
	err := q.Order("paid_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&expenses).Error
	return expenses, err
}

func (r *LedgerRepository) GetByID(id int64) (*ledger.Expense, error) {
	var e ledger.Expense
	err := r.db.Where("id = ?", id).First(&e).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// MonthlyTotals groups the year's ledger rows by calendar month. Grouping
// happens in Go so the query stays portable between postgres and the sqlite
// test database.
func (r *LedgerRepository) MonthlyTotals(year int) ([]ledger.MonthlyTotal, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	type row struct {
		PaidAt time.Time
		Amount int64
	}
	var rows []row
	err := r.db.Model(&ledger.Expense{}).
		Select("paid_at, amount").
		Where("paid_at >= ? AND paid_at < ?", from, to).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byMonth := make(map[int]*ledger.MonthlyTotal)
	for _, rw := range rows {
		m := int(rw.PaidAt.Month())
		t, ok := byMonth[m]
		if !ok {
			t = &ledger.MonthlyTotal{Year: year, Month: m}
			byMonth[m] = t
		}
		t.Count++
		t.Total += rw.Amount
	}

	totals := make([]ledger.MonthlyTotal, 0, len(byMonth))
	for m := 1; m <= 12; m++ {
		if t, ok := byMonth[m]; ok {
			totals = append(totals, *t)
		}
	}
	return totals, nil
}

func (r *LedgerRepository) CategoryBreakdown(from, to time.Time) ([]ledger.CategoryTotal, error) {
	var totals []ledger.CategoryTotal
	err := r.db.Table("expenses").
		Select("expenses.category_id AS category_id, expense_categories.name AS category_name, COUNT(*) AS count, SUM(expenses.amount) AS total").
		Joins("JOIN expense_categories ON expense_categories.id = expenses.category_id").
		Where("expenses.paid_at >= ? AND expenses.paid_at < ?", from, to).
		Group("expenses.category_id, expense_categories.name").
		Order("total DESC").
		Scan(&totals).Error
	return totals, err
}
