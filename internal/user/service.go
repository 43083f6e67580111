package user

import (
	"log/slog"
	"time"

	errors "github.com/expenseops/expense-approval/internal"
	"github.com/expenseops/expense-approval/internal/auth"
)

type RepositoryAPI interface {
	Create(u *User) error
	GetByID(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	GetAll(limit, offset int) ([]*User, error)
	Deactivate(id int64) (bool, error)
}

type Service struct {
	repo       RepositoryAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

var (
	ErrUserNotFound   = errors.NewNotFoundError("User not found", errors.ErrCodeUserNotFound)
	ErrDuplicateEmail = errors.NewConflictError("a user with this email already exists", errors.ErrCodeDuplicateEmail)
)

func (s *Service) CreateUser(dto CreateUserDTO, actor *auth.User) (*User, error) {
	if !auth.Can(actor.Role, auth.ResourceUser, auth.ActionCreate).Allows() {
		return nil, errors.NewForbiddenError("not allowed to create users", errors.ErrCodeUnauthorizedAccess)
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(dto.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, errors.NewInternalError("failed to create user", err)
	}

	now := time.Now()
	u := &User{
		Name:              dto.Name,
		Email:             dto.Email,
		PasswordHash:      hash,
		Role:              dto.Role,
		BankName:          dto.BankName,
		BankAccountNumber: dto.BankAccountNumber,
		BankAccountName:   dto.BankAccountName,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(u); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, err
	}

	s.logger.Info("user created", "user_id", u.ID, "role", u.Role, "actor_id", actor.ID)
	return u, nil
}

func (s *Service) GetUser(id int64, actor *auth.User) (*User, error) {
	if !auth.Can(actor.Role, auth.ResourceUser, auth.ActionRead).Allows() {
		return nil, errors.NewForbiddenError("not allowed to view users", errors.ErrCodeUnauthorizedAccess)
	}

	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) ListUsers(actor *auth.User, limit, offset int) ([]*User, error) {
	if !auth.Can(actor.Role, auth.ResourceUser, auth.ActionRead).Allows() {
		return nil, errors.NewForbiddenError("not allowed to list users", errors.ErrCodeUnauthorizedAccess)
	}
	return s.repo.GetAll(limit, offset)
}

// DeactivateUser blocks further logins without deleting history. Records
// created by the user keep their author reference.
func (s *Service) DeactivateUser(id int64, actor *auth.User) error {
	if !auth.Can(actor.Role, auth.ResourceUser, auth.ActionDeactivate).Allows() {
		return errors.NewForbiddenError("not allowed to deactivate users", errors.ErrCodeUnauthorizedAccess)
	}
	if id == actor.ID {
		return errors.NewValidationError("cannot deactivate your own account", errors.ErrCodeValidationFailed)
	}

	ok, err := s.repo.Deactivate(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}

	s.logger.Info("user deactivated", "user_id", id, "actor_id", actor.ID)
	return nil
}
