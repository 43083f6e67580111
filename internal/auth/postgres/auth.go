package postgres

import (
	"gorm.io/gorm"

	"github.com/expenseops/expense-approval/internal"
	"github.com/expenseops/expense-approval/internal/auth"
)

type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) auth.RepositoryAPI {
	return &AuthRepository{db: db}
}

type userRow struct {
	ID           int64
	Email        string
	Name         string
	Role         string
	PasswordHash string
	IsActive     bool
}

func (userRow) TableName() string {
	return "users"
}

func (r *AuthRepository) GetCredentialsByEmail(email string) (string, int64, error) {
	var row userRow
	err := r.db.Where("email = ?", email).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", 0, internal.ErrInvalidCredentials
		}
		return "", 0, err
	}
	return row.PasswordHash, row.ID, nil
}

func (r *AuthRepository) GetUserByID(userID int64) (*auth.User, error) {
	var row userRow
	err := r.db.Where("id = ?", userID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
		}
		return nil, err
	}

	return &auth.User{
		ID:       row.ID,
		Email:    row.Email,
		Name:     row.Name,
		Role:     auth.Role(row.Role),
		IsActive: row.IsActive,
	}, nil
}
