package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/expenseops/expense-approval/internal/category"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) category.RepositoryAPI {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) GetAll() ([]*category.Category, error) {
	var categories []*category.Category
	err := r.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) GetByID(id int64) (*category.Category, error) {
	var c category.Category
	err := r.db.Where("id = ?", id).First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) GetByName(name string) (*category.Category, error) {
	var c category.Category
	err := r.db.Where("name = ?", name).First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) Create(c *category.Category) error {
	return r.db.Create(c).Error
}

func (r *CategoryRepository) Update(c *category.Category) error {
	return r.db.Save(c).Error
}

func (r *CategoryRepository) Deactivate(id int64) error {
	return r.db.Model(&category.Category{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		}).Error
}

// UsageCount counts ledger expenses plus direct expense requests that
// reference the category. A category with any usage must stay resolvable.
func (r *CategoryRepository) UsageCount(id int64) (int64, error) {
	var expenseCount int64
	if err := r.db.Table("expenses").
		Where("category_id = ?", id).
		Count(&expenseCount).Error; err != nil {
		return 0, err
	}

	var directCount int64
	if err := r.db.Table("direct_expense_requests").
		Where("category_id = ?", id).
		Count(&directCount).Error; err != nil {
		return 0, err
	}

	return expenseCount + directCount, nil
}
