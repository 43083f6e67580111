package directexpense

import (
	"context"
	"log/slog"
	"time"

	errors "github.com/expenseops/expense-approval/internal"
	"github.com/expenseops/expense-approval/internal/auth"
	"github.com/expenseops/expense-approval/internal/category"
	"github.com/expenseops/expense-approval/internal/core/events"
	"github.com/expenseops/expense-approval/internal/ledger"
	"github.com/expenseops/expense-approval/internal/project"
)

type RepositoryAPI interface {
	Create(d *DirectExpenseRequest) error
	GetByID(id int64) (*DirectExpenseRequest, error)
	GetAll(limit, offset int) ([]*DirectExpenseRequest, error)
	MarkApproved(id, adminID int64, notes string, at time.Time) (bool, error)
	MarkRejected(id, rejectedBy int64, reason string, at time.Time) (bool, error)
	MarkPaid(id, paidBy int64, proofURL, notes string, at time.Time, expense *ledger.Expense) (bool, error)
}

type ProjectReader interface {
	GetByID(id int64) (*project.Project, error)
}

type CategoryReader interface {
	GetCategory(id int64) (*category.Category, error)
}

type Service struct {
	repo       RepositoryAPI
	projects   ProjectReader
	categories CategoryReader
	eventBus   *events.EventBus
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, projects ProjectReader, categories CategoryReader, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		projects:   projects,
		categories: categories,
		eventBus:   eventBus,
		logger:     logger,
	}
}

var (
	ErrDirectExpenseNotFound = errors.NewNotFoundError("Direct expense request not found", errors.ErrCodeDirectExpenseNotFound)
	ErrCategoryInactive      = errors.NewValidationError("category is not active", errors.ErrCodeCategoryInactive)
)

// Create raises a pending direct expense request. The category is mandatory
// and must be active; the project link is optional.
func (s *Service) Create(dto CreateDirectExpenseDTO, actor *auth.User) (*DirectExpenseRequest, error) {
	if !auth.Can(actor.Role, auth.ResourceDirectExpense, auth.ActionCreate).Allows() {
		return nil, errors.NewForbiddenError("not allowed to create direct expense requests", errors.ErrCodeUnauthorizedAccess)
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	cat, err := s.categories.GetCategory(dto.CategoryID)
	if err != nil {
		return nil, err
	}
	if !cat.IsActiveCategory() {
		return nil, ErrCategoryInactive
	}

	if dto.ProjectID != nil {
		if _, err := s.projects.GetByID(*dto.ProjectID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	d := &DirectExpenseRequest{
		CreatedBy:   actor.ID,
		ProjectID:   dto.ProjectID,
		CategoryID:  dto.CategoryID,
		Amount:      dto.Amount,
		Description: dto.Description,
		ExpenseDate: dto.ExpenseDate,
		InvoiceURL:  dto.InvoiceURL,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(d); err != nil {
		s.logger.Error("failed to create direct expense request", "error", err, "created_by", actor.ID)
		return nil, err
	}

	s.logger.Info("direct expense request created",
		"request_id", d.ID,
		"created_by", actor.ID,
		"category_id", d.CategoryID,
		"amount", d.Amount)
	return d, nil
}

func (s *Service) GetRequest(id int64, actor *auth.User) (*DirectExpenseRequest, error) {
	if !auth.Can(actor.Role, auth.ResourceDirectExpense, auth.ActionRead).Allows() {
		return nil, errors.NewForbiddenError("not allowed to view direct expense requests", errors.ErrCodeUnauthorizedAccess)
	}

	d, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDirectExpenseNotFound
	}
	return d, nil
}

func (s *Service) ListAll(actor *auth.User, limit, offset int) ([]*DirectExpenseRequest, error) {
	if !auth.Can(actor.Role, auth.ResourceDirectExpense, auth.ActionRead).Allows() {
		return nil, errors.NewForbiddenError("not allowed to list direct expense requests", errors.ErrCodeUnauthorizedAccess)
	}
	return s.repo.GetAll(limit, offset)
}

// Approve moves a pending request to approved.
func (s *Service) Approve(id int64, dto ApproveDTO, actor *auth.User) (*DirectExpenseRequest, error) {
	if !auth.Can(actor.Role, auth.ResourceDirectExpense, auth.ActionApprove).Allows() {
		return nil, errors.NewForbiddenError("not allowed to approve direct expense requests", errors.ErrCodeUnauthorizedAccess)
	}

	d, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDirectExpenseNotFound
	}
	if !d.IsPending() {
		return nil, errors.NewInvalidTransitionError(string(d.Status), string(StatusPending))
	}

	ok, err := s.repo.MarkApproved(id, actor.ID, dto.Notes, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionConflict(id, StatusPending)
	}

	s.logger.Info("direct expense approved", "request_id", id, "approved_by", actor.ID)
	return s.repo.GetByID(id)
}

// Reject rejects a pending request. Approved requests cannot be rejected;
// they can only proceed to payment.
func (s *Service) Reject(id int64, dto RejectDTO, actor *auth.User) (*DirectExpenseRequest, error) {
	if !auth.Can(actor.Role, auth.ResourceDirectExpense, auth.ActionReject).Allows() {
		return nil, errors.NewForbiddenError("not allowed to reject direct expense requests", errors.ErrCodeUnauthorizedAccess)
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	d, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDirectExpenseNotFound
	}
	if !d.IsPending() {
		return nil, errors.NewInvalidTransitionError(string(d.Status), string(StatusPending))
	}

	ok, err := s.repo.MarkRejected(id, actor.ID, dto.Reason, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionConflict(id, StatusPending)
	}

	s.logger.Info("direct expense rejected", "request_id", id, "rejected_by", actor.ID)
	s.publish(events.NewDirectExpenseRejectedEvent(id, actor.ID, d.Amount, dto.Reason))
	return s.repo.GetByID(id)
}

// MarkPaid settles an approved request. Any finance user may pay; the status
// flip and the ledger expense insert commit atomically.
func (s *Service) MarkPaid(id int64, dto MarkPaidDTO, actor *auth.User) (*DirectExpenseRequest, error) {
	if !auth.Can(actor.Role, auth.ResourceDirectExpense, auth.ActionPay).Allows() {
		return nil, errors.NewForbiddenError("not allowed to pay direct expense requests", errors.ErrCodeUnauthorizedAccess)
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	d, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDirectExpenseNotFound
	}
	if !d.IsApproved() {
		return nil, errors.NewInvalidTransitionError(string(d.Status), string(StatusApproved))
	}

	now := time.Now()
	expense := &ledger.Expense{
		SourceType:      ledger.SourceDirectExpense,
		SourceID:        d.ID,
		ProjectID:       d.ProjectID,
		CategoryID:      d.CategoryID,
		Amount:          d.Amount,
		Description:     d.Description,
		ExpenseDate:     d.ExpenseDate,
		ReceiptURL:      d.InvoiceURL,
		PaymentProofURL: dto.PaymentProofURL,
		PaidBy:          actor.ID,
		PaidAt:          now,
		CreatedAt:       now,
	}

	ok, err := s.repo.MarkPaid(id, actor.ID, dto.PaymentProofURL, dto.Notes, now, expense)
	if err != nil {
		s.logger.Error("failed to mark direct expense paid", "error", err, "request_id", id)
		return nil, err
	}
	if !ok {
		return nil, s.transitionConflict(id, StatusApproved)
	}

	s.logger.Info("direct expense paid",
		"request_id", id,
		"paid_by", actor.ID,
		"amount", d.Amount)
	s.publish(events.NewDirectExpensePaidEvent(id, actor.ID, d.Amount))
	return s.repo.GetByID(id)
}

func (s *Service) transitionConflict(id int64, required Status) error {
	current := "unknown"
	if fresh, err := s.repo.GetByID(id); err == nil && fresh != nil {
		current = string(fresh.Status)
	}
	return errors.NewInvalidTransitionError(current, string(required))
}

func (s *Service) publish(event events.Event) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(context.Background(), event); err != nil {
		s.logger.Warn("failed to publish workflow event", "event_type", event.EventType(), "error", err)
	}
}
