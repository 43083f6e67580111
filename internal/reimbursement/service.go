package reimbursement

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
	Create(r *Reimbursement) error
	GetByID(id int64) (*Reimbursement, error)
	GetAll(limit, offset int) ([]*Reimbursement, error)
	GetByUser(userID int64, limit, offset int) ([]*Reimbursement, error)
	// The Mark* methods perform conditional updates guarded on the expected
	// current status and report whether a row was actually transitioned.
	MarkReviewed(id, reviewerID int64, notes string, at time.Time) (bool, error)
	MarkApproved(id, adminID int64, notes string, at time.Time) (bool, error)
	MarkRejected(id int64, from Status, rejectedBy int64, reason string, at time.Time) (bool, error)
	// MarkPaid transitions approved -> paid and inserts the ledger expense in
	// the same transaction.
	MarkPaid(id, paidBy int64, proofURL, notes string, at time.Time, expense *ledger.Expense) (bool, error)
}

// ProjectReader is the slice of the project repository the submit flow needs.
type ProjectReader interface {
	GetByID(id int64) (*project.Project, error)
}

// CategoryResolver resolves the implicit ledger category for paid claims.
type CategoryResolver interface {
	EnsureCategory(name string) (int64, error)
}

type Service struct {
	repo       RepositoryAPI
	projects   ProjectReader
	categories CategoryResolver
	eventBus   *events.EventBus
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, projects ProjectReader, categories CategoryResolver, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		projects:   projects,
		categories: categories,
		eventBus:   eventBus,
		logger:     logger,
	}
}

var (
	ErrReimbursementNotFound = errors.NewNotFoundError("Reimbursement not found", errors.ErrCodeReimbursementNotFound)
	ErrProjectNotActive      = errors.NewValidationError("project is not active", errors.ErrCodeProjectNotActive)
	ErrNotReviewer           = errors.NewForbiddenError("only the reviewing finance user can mark this reimbursement paid", errors.ErrCodeNotReviewer)
)

// Submit creates a pending reimbursement owned by the acting staff user.
func (s *Service) Submit(dto SubmitReimbursementDTO, actor *auth.User) (*Reimbursement, error) {
	if !auth.Can(actor.Role, auth.ResourceReimbursement, auth.ActionCreate).Allows() {
		return nil, errors.NewForbiddenError("not allowed to submit reimbursements", errors.ErrCodeUnauthorizedAccess)
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	proj, err := s.projects.GetByID(dto.ProjectID)
	if err != nil {
		return nil, err
	}
	if !proj.IsActive() {
		return nil, ErrProjectNotActive
	}

	now := time.Now()
	r := &Reimbursement{
		UserID:      actor.ID,
		ProjectID:   dto.ProjectID,
		Amount:      dto.Amount,
		Description: dto.Description,
		ExpenseDate: dto.ExpenseDate,
		ReceiptURL:  dto.ReceiptURL,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(r); err != nil {
		s.logger.Error("failed to create reimbursement", "error", err, "user_id", actor.ID)
		return nil, err
	}

	s.logger.Info("reimbursement submitted",
		"reimbursement_id", r.ID,
		"user_id", actor.ID,
		"project_id", r.ProjectID,
		"amount", r.Amount)
	return r, nil
}

// GetReimbursement returns a single claim, restricted to the owner for
// own-scoped roles.
func (s *Service) GetReimbursement(id int64, actor *auth.User) (*Reimbursement, error) {
	r, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrReimbursementNotFound
	}

	if !auth.CanAccess(actor, auth.ResourceReimbursement, auth.ActionRead, r.UserID) {
		return nil, errors.NewForbiddenError("not allowed to view this reimbursement", errors.ErrCodeUnauthorizedAccess)
	}
	return r, nil
}

// ListOwn returns the acting staff user's claims.
func (s *Service) ListOwn(actor *auth.User, limit, offset int) ([]*Reimbursement, error) {
	if auth.Can(actor.Role, auth.ResourceReimbursement, auth.ActionRead) == auth.ScopeNone {
		return nil, errors.NewForbiddenError("not allowed to list reimbursements", errors.ErrCodeUnauthorizedAccess)
	}
	return s.repo.GetByUser(actor.ID, limit, offset)
}

// ListAll returns every claim for finance and admin review queues.
func (s *Service) ListAll(actor *auth.User, limit, offset int) ([]*Reimbursement, error) {
	if auth.Can(actor.Role, auth.ResourceReimbursement, auth.ActionRead) != auth.ScopeAll {
		return nil, errors.NewForbiddenError("not allowed to list all reimbursements", errors.ErrCodeUnauthorizedAccess)
	}
	return s.repo.GetAll(limit, offset)
}

// Review moves a pending claim to reviewed and records the reviewer. The
// reviewer identity matters later: only that finance user may pay the claim.
func (s *Service) Review(id int64, dto ReviewDTO, actor *auth.User) (*Reimbursement, error) {
	if !auth.Can(actor.Role, auth.ResourceReimbursement, auth.ActionReview).Allows() {
		return nil, errors.NewForbiddenError("not allowed to review reimbursements", errors.ErrCodeUnauthorizedAccess)
	}

	r, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrReimbursementNotFound
	}
	if !r.IsPending() {
		return nil, errors.NewInvalidTransitionError(string(r.Status), string(StatusPending))
	}

	ok, err := s.repo.MarkReviewed(id, actor.ID, dto.Notes, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race against a concurrent transition.
		return nil, s.transitionConflict(id, StatusPending)
	}

	s.logger.Info("reimbursement reviewed", "reimbursement_id", id, "reviewed_by", actor.ID)
	return s.repo.GetByID(id)
}

// Approve moves a reviewed claim to approved.
func (s *Service) Approve(id int64, dto ApproveDTO, actor *auth.User) (*Reimbursement, error) {
	if !auth.Can(actor.Role, auth.ResourceReimbursement, auth.ActionApprove).Allows() {
		return nil, errors.NewForbiddenError("not allowed to approve reimbursements", errors.ErrCodeUnauthorizedAccess)
	}

	r, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrReimbursementNotFound
	}
	if !r.IsReviewed() {
		return nil, errors.NewInvalidTransitionError(string(r.Status), string(StatusReviewed))
	}

	ok, err := s.repo.MarkApproved(id, actor.ID, dto.Notes, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionConflict(id, StatusReviewed)
	}

	s.logger.Info("reimbursement approved", "reimbursement_id", id, "approved_by", actor.ID)
	return s.repo.GetByID(id)
}

// RejectByFinance rejects a pending claim during finance review.
func (s *Service) RejectByFinance(id int64, dto RejectDTO, actor *auth.User) (*Reimbursement, error) {
	return s.reject(id, dto, actor, StatusPending, auth.ActionRejectReview)
}

// RejectByAdmin rejects a reviewed claim during admin approval.
func (s *Service) RejectByAdmin(id int64, dto RejectDTO, actor *auth.User) (*Reimbursement, error) {
	return s.reject(id, dto, actor, StatusReviewed, auth.ActionRejectApproval)
}

func (s *Service) reject(id int64, dto RejectDTO, actor *auth.User, from Status, action auth.Action) (*Reimbursement, error) {
	if !auth.Can(actor.Role, auth.ResourceReimbursement, action).Allows() {
		return nil, errors.NewForbiddenError("not allowed to reject reimbursements at this stage", errors.ErrCodeUnauthorizedAccess)
	}

	// The reason is validated before any state is touched so a rejection
	// with a missing justification leaves the claim where it was.
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	r, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrReimbursementNotFound
	}
	if r.Status != from {
		return nil, errors.NewInvalidTransitionError(string(r.Status), string(from))
	}

	ok, err := s.repo.MarkRejected(id, from, actor.ID, dto.Reason, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.transitionConflict(id, from)
	}

	s.logger.Info("reimbursement rejected",
		"reimbursement_id", id,
		"rejected_by", actor.ID,
		"from_status", from)
	s.publish(events.NewReimbursementRejectedEvent(id, actor.ID, r.Amount, dto.Reason))
	return s.repo.GetByID(id)
}

// MarkPaid settles an approved claim. Only the finance user who reviewed the
// claim may pay it, and the status flip plus the ledger expense insert commit
// together or not at all.
func (s *Service) MarkPaid(id int64, dto MarkPaidDTO, actor *auth.User) (*Reimbursement, error) {
	if !auth.Can(actor.Role, auth.ResourceReimbursement, auth.ActionPay).Allows() {
		return nil, errors.NewForbiddenError("not allowed to pay reimbursements", errors.ErrCodeUnauthorizedAccess)
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	r, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrReimbursementNotFound
	}
	if !r.IsApproved() {
		return nil, errors.NewInvalidTransitionError(string(r.Status), string(StatusApproved))
	}
	if r.ReviewedBy == nil || *r.ReviewedBy != actor.ID {
		return nil, ErrNotReviewer
	}

	categoryID, err := s.categories.EnsureCategory(category.ReimbursementCategoryName)
	if err != nil {
		s.logger.Error("failed to resolve reimbursement category", "error", err)
		return nil, err
	}

	now := time.Now()
	projectID := r.ProjectID
	expense := &ledger.Expense{
		SourceType:      ledger.SourceReimbursement,
		SourceID:        r.ID,
		ProjectID:       &projectID,
		CategoryID:      categoryID,
		Amount:          r.Amount,
		Description:     r.Description,
		ExpenseDate:     r.ExpenseDate,
		ReceiptURL:      r.ReceiptURL,
		PaymentProofURL: dto.PaymentProofURL,
		PaidBy:          actor.ID,
		PaidAt:          now,
		CreatedAt:       now,
	}

	ok, err := s.repo.MarkPaid(id, actor.ID, dto.PaymentProofURL, dto.Notes, now, expense)
	if err != nil {
		s.logger.Error("failed to mark reimbursement paid", "error", err, "reimbursement_id", id)
		return nil, err
	}
	if !ok {
		return nil, s.transitionConflict(id, StatusApproved)
	}

	s.logger.Info("reimbursement paid",
		"reimbursement_id", id,
		"paid_by", actor.ID,
		"amount", r.Amount)
	s.publish(events.NewReimbursementPaidEvent(id, actor.ID, r.Amount))
	return s.repo.GetByID(id)
}

// transitionConflict reports the status actually observed after a
// conditional update matched no row.
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
