package category

import (
	"log/slog"
	"time"

	errors "github.com/expenseops/expense-approval/internal"
	"github.com/expenseops/expense-approval/internal/auth"
)

type RepositoryAPI interface {
	GetAll() ([]*Category, error)
	GetByID(id int64) (*Category, error)
	GetByName(name string) (*Category, error)
	Create(category *Category) error
	Update(category *Category) error
	Deactivate(id int64) error
	// UsageCount reports how many ledger expenses and direct expense
	// requests reference the category.
	UsageCount(id int64) (int64, error)
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

var (
	ErrCategoryNotFound = errors.NewNotFoundError("Category not found", errors.ErrCodeCategoryNotFound)
	ErrCategoryInUse    = errors.NewConflictError("category is referenced by expense records and cannot be deactivated", errors.ErrCodeCategoryInUse)
	ErrDuplicateName    = errors.NewConflictError("a category with this name already exists", errors.ErrCodeDuplicateCategory)
)

// GetActiveCategories returns all active categories for pickers.
func (s *Service) GetActiveCategories() (CategoriesResponse, error) {
	categories, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to get categories", "error", err)
		return CategoriesResponse{}, err
	}

	resp := CategoriesResponse{Categories: make([]CategoryResponse, 0, len(categories))}
	for _, c := range categories {
		if c.IsActiveCategory() {
			resp.Categories = append(resp.Categories, c.ToResponse())
		}
	}
	return resp, nil
}

func (s *Service) GetCategory(id int64) (*Category, error) {
	cat, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, ErrCategoryNotFound
	}
	return cat, nil
}

func (s *Service) CreateCategory(dto CreateCategoryDTO, actor *auth.User) (*Category, error) {
	if !auth.Can(actor.Role, auth.ResourceCategory, auth.ActionCreate).Allows() {
		return nil, errors.NewForbiddenError("not allowed to create categories", errors.ErrCodeUnauthorizedAccess)
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByName(dto.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateName
	}

	cat := NewCategory(dto.Name, dto.Description, actor.ID)
	if err := s.repo.Create(cat); err != nil {
		s.logger.Error("failed to create category", "error", err, "name", dto.Name)
		return nil, err
	}

	s.logger.Info("category created", "category_id", cat.ID, "name", cat.Name, "actor_id", actor.ID)
	return cat, nil
}

func (s *Service) UpdateCategory(id int64, dto UpdateCategoryDTO, actor *auth.User) (*Category, error) {
	if !auth.Can(actor.Role, auth.ResourceCategory, auth.ActionUpdate).Allows() {
		return nil, errors.NewForbiddenError("not allowed to update categories", errors.ErrCodeUnauthorizedAccess)
	}

	cat, err := s.GetCategory(id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil && *dto.Name != cat.Name {
		existing, err := s.repo.GetByName(*dto.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrDuplicateName
		}
		cat.Name = *dto.Name
	}
	if dto.Description != nil {
		cat.Description = *dto.Description
	}
	cat.UpdatedAt = time.Now()

	if err := s.repo.Update(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// DeactivateCategory hides a category from new records. Categories still
// referenced by ledger expenses or direct expense requests stay visible so
// historical reports keep resolving.
func (s *Service) DeactivateCategory(id int64, actor *auth.User) error {
	if !auth.Can(actor.Role, auth.ResourceCategory, auth.ActionDeactivate).Allows() {
		return errors.NewForbiddenError("not allowed to deactivate categories", errors.ErrCodeUnauthorizedAccess)
	}

	cat, err := s.GetCategory(id)
	if err != nil {
		return err
	}

	usage, err := s.repo.UsageCount(id)
	if err != nil {
		s.logger.Error("failed to count category usage", "error", err, "category_id", id)
		return err
	}
	if usage > 0 {
		s.logger.Warn("category deactivation blocked: in use", "category_id", id, "usage_count", usage)
		return ErrCategoryInUse
	}

	if err := s.repo.Deactivate(cat.ID); err != nil {
		return err
	}

	s.logger.Info("category deactivated", "category_id", id, "actor_id", actor.ID)
	return nil
}

// EnsureCategory returns the id of the named category, creating it when it
// does not exist yet. Used for the implicit "Reimbursement" ledger category.
func (s *Service) EnsureCategory(name string) (int64, error) {
	existing, err := s.repo.GetByName(name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	cat := NewCategory(name, "Automatically created", 0)
	if err := s.repo.Create(cat); err != nil {
		return 0, err
	}
	s.logger.Info("category auto-created", "name", name, "category_id", cat.ID)
	return cat.ID, nil
}
