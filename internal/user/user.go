package user

import (
	"time"

	"github.com/expenseops/expense-approval/internal/auth"
)

// User is the full account record including payout bank details. The auth
// package carries a slimmer view for request contexts; this one backs admin
// user management.
type User struct {
	ID                int64     `json:"id" gorm:"primaryKey"`
	Name              string    `json:"name" gorm:"not null"`
	Email             string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash      string    `json:"-" gorm:"column:password_hash;not null"`
	Role              auth.Role `json:"role" gorm:"not null"`
	BankName          string    `json:"bank_name,omitempty" gorm:"column:bank_name"`
	BankAccountNumber string    `json:"bank_account_number,omitempty" gorm:"column:bank_account_number"`
	BankAccountName   string    `json:"bank_account_name,omitempty" gorm:"column:bank_account_name"`
	IsActive          bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt         time.Time `json:"created_at" gorm:"default:now()"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"default:now()"`
}

func (User) TableName() string {
	return "users"
}
