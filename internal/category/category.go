package category

import (
	"time"
)

type Category struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedBy   int64     `json:"created_by" gorm:"column:created_by"`
	CreatedAt   time.Time `json:"created_at" gorm:"default:now()"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"default:now()"`
}

func (Category) TableName() string {
	return "expense_categories"
}

func (c *Category) IsActiveCategory() bool {
	return c.IsActive
}

func (c *Category) Deactivate() {
	c.IsActive = false
	c.UpdatedAt = time.Now()
}

func NewCategory(name, description string, createdBy int64) *Category {
	now := time.Now()
	return &Category{
		Name:        name,
		Description: description,
		IsActive:    true,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ReimbursementCategoryName is the fallback category under which paid
// reimbursements are recorded in the ledger.
const ReimbursementCategoryName = "Reimbursement"
