package project

import (
	"log/slog"
	"time"

	errors "github.com/expenseops/expense-approval/internal"
	"github.com/expenseops/expense-approval/internal/auth"
)

// Repository defines the data access methods for projects
type Repository interface {
	Create(project *Project) error
	GetByID(id int64) (*Project, error)
	GetAll(limit, offset int) ([]*Project, error)
	UpdateStatus(id int64, from, to Status) (bool, error)
	// ApplyValueChange must write the revision row and the new value in one
	// transaction.
	ApplyValueChange(projectID int64, newValue int64, revision *Revision) error
	GetRevisions(projectID int64) ([]*Revision, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

var ErrProjectNotFound = errors.NewNotFoundError("Project not found", errors.ErrCodeProjectNotFound)

func (s *Service) CreateProject(dto CreateProjectDTO, actor *auth.User) (*Project, error) {
	if !auth.Can(actor.Role, auth.ResourceProject, auth.ActionCreate).Allows() {
		return nil, errors.NewForbiddenError("not allowed to create projects", errors.ErrCodeUnauthorizedAccess)
	}

	if err := dto.Validate(); err != nil {
		s.logger.Error("project validation failed", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	now := time.Now()
	project := &Project{
		Name:        dto.Name,
		Client:      dto.Client,
		Value:       dto.Value,
		Deadline:    dto.Deadline,
		Status:      StatusActive,
		Description: dto.Description,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(project); err != nil {
		s.logger.Error("failed to create project", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	s.logger.Info("project created", "project_id", project.ID, "actor_id", actor.ID, "value", project.Value)
	return project, nil
}

func (s *Service) GetProject(id int64, actor *auth.User) (*Project, error) {
	if !auth.Can(actor.Role, auth.ResourceProject, auth.ActionRead).Allows() {
		return nil, errors.NewForbiddenError("not allowed to view projects", errors.ErrCodeUnauthorizedAccess)
	}
	return s.repo.GetByID(id)
}

func (s *Service) GetProjects(limit, offset int, actor *auth.User) ([]*Project, error) {
	if !auth.Can(actor.Role, auth.ResourceProject, auth.ActionRead).Allows() {
		return nil, errors.NewForbiddenError("not allowed to view projects", errors.ErrCodeUnauthorizedAccess)
	}
	return s.repo.GetAll(limit, offset)
}

// UpdateStatus applies a lifecycle transition. Terminal states never leave.
func (s *Service) UpdateStatus(id int64, next Status, actor *auth.User) (*Project, error) {
	if !auth.Can(actor.Role, auth.ResourceProject, auth.ActionUpdate).Allows() {
		return nil, errors.NewForbiddenError("not allowed to update projects", errors.ErrCodeUnauthorizedAccess)
	}

	project, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if !project.Status.CanTransitionTo(next) {
		s.logger.Warn("illegal project status transition",
			"project_id", id,
			"current_status", project.Status,
			"requested_status", next)
		return nil, errors.NewInvalidStateError(
			"project cannot move from "+string(project.Status)+" to "+string(next),
			errors.ErrCodeInvalidTransition,
		)
	}

	updated, err := s.repo.UpdateStatus(id, project.Status, next)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Lost a race with another writer; the guard re-read gives the caller
		// an accurate error.
		return nil, errors.NewInvalidStateError(
			"project status changed concurrently, retry",
			errors.ErrCodeInvalidTransition,
		)
	}

	s.logger.Info("project status updated",
		"project_id", id,
		"from", project.Status,
		"to", next,
		"actor_id", actor.ID)

	return s.repo.GetByID(id)
}

// UpdateValue changes the project's monetary value, recording an immutable
// revision row alongside. No-op changes are rejected so the revision history
// stays meaningful.
func (s *Service) UpdateValue(id int64, dto UpdateValueDTO, actor *auth.User) (*Project, error) {
	if !auth.Can(actor.Role, auth.ResourceProject, auth.ActionUpdate).Allows() {
		return nil, errors.NewForbiddenError("not allowed to update projects", errors.ErrCodeUnauthorizedAccess)
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	project, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if dto.NewValue == project.Value {
		return nil, errors.NewValidationError("new value equals current value", errors.ErrCodeValueUnchanged)
	}

	revision := &Revision{
		ProjectID: id,
		OldValue:  project.Value,
		NewValue:  dto.NewValue,
		Reason:    dto.Reason,
		ChangedBy: actor.ID,
		CreatedAt: time.Now(),
	}

	if err := s.repo.ApplyValueChange(id, dto.NewValue, revision); err != nil {
		s.logger.Error("failed to apply project value change", "error", err, "project_id", id)
		return nil, err
	}

	s.logger.Info("project value revised",
		"project_id", id,
		"old_value", project.Value,
		"new_value", dto.NewValue,
		"actor_id", actor.ID)

	return s.repo.GetByID(id)
}

func (s *Service) GetRevisions(projectID int64, actor *auth.User) ([]*Revision, error) {
	if !auth.Can(actor.Role, auth.ResourceProject, auth.ActionRead).Allows() {
		return nil, errors.NewForbiddenError("not allowed to view projects", errors.ErrCodeUnauthorizedAccess)
	}

	if _, err := s.repo.GetByID(projectID); err != nil {
		return nil, err
	}
	return s.repo.GetRevisions(projectID)
}
