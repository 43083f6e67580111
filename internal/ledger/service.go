package ledger

import (
	"log/slog"
	"time"

	errors "github.com/expenseops/expense-approval/internal"
	"github.com/expenseops/expense-approval/internal/auth"
)

// Filter narrows ledger queries. Zero values mean no constraint.
type Filter struct {
	SourceType SourceType
	ProjectID  int64
	CategoryID int64
	From       time.Time
	To         time.Time
}

// MonthlyTotal is one row of the monthly spending report.
type MonthlyTotal struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Count int64 `json:"count"`
	Total int64 `json:"total"`
}

// CategoryTotal is one row of the per-category breakdown.
type CategoryTotal struct {
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	Count        int64  `json:"count"`
	Total        int64  `json:"total"`
}

type RepositoryAPI interface {
	GetAll(filter Filter, limit, offset int) ([]*Expense, error)
	GetByID(id int64) (*Expense, error)
	MonthlyTotals(year int) ([]MonthlyTotal, error)
	CategoryBreakdown(from, to time.Time) ([]CategoryTotal, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

var ErrExpenseNotFound = errors.NewNotFoundError("Expense not found", errors.ErrCodeExpenseNotFound)

// ListExpenses returns ledger rows matching the filter. The ledger is
// read-only through this service; rows are only ever written by the payment
// transactions.
func (s *Service) ListExpenses(filter Filter, limit, offset int, actor *auth.User) ([]*Expense, error) {
	if !auth.Can(actor.Role, auth.ResourceExpense, auth.ActionRead).Allows() {
		return nil, errors.NewForbiddenError("not allowed to view the expense ledger", errors.ErrCodeUnauthorizedAccess)
	}
	return s.repo.GetAll(filter, limit, offset)
}

func (s *Service) GetExpense(id int64, actor *auth.User) (*Expense, error) {
	if !auth.Can(actor.Role, auth.ResourceExpense, auth.ActionRead).Allows() {
		return nil, errors.NewForbiddenError("not allowed to view the expense ledger", errors.ErrCodeUnauthorizedAccess)
	}

	e, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrExpenseNotFound
	}
	return e, nil
}

// MonthlyReport aggregates paid expenses per calendar month of the given
// year.
func (s *Service) MonthlyReport(year int, actor *auth.User) ([]MonthlyTotal, error) {
	if !auth.Can(actor.Role, auth.ResourceReport, auth.ActionRead).Allows() {
		return nil, errors.NewForbiddenError("not allowed to view reports", errors.ErrCodeUnauthorizedAccess)
	}
	if year == 0 {
		year = time.Now().Year()
	}
	return s.repo.MonthlyTotals(year)
}

// CategoryReport aggregates paid expenses per category within [from, to).
// A zero range defaults to the current calendar year.
func (s *Service) CategoryReport(from, to time.Time, actor *auth.User) ([]CategoryTotal, error) {
	if !auth.Can(actor.Role, auth.ResourceReport, auth.ActionRead).Allows() {
		return nil, errors.NewForbiddenError("not allowed to view reports", errors.ErrCodeUnauthorizedAccess)
	}
	if from.IsZero() || to.IsZero() {
		now := time.Now()
		from = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(1, 0, 0)
	}
	return s.repo.CategoryBreakdown(from, to)
}
