package user

import (
	errors "github.com/expenseops/expense-approval/internal"
	"github.com/expenseops/expense-approval/internal/auth"
	"github.com/expenseops/expense-approval/internal/core/common/validation"
)

type CreateUserDTO struct {
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Password          string    `json:"password"`
	Role              auth.Role `json:"role"`
	BankName          string    `json:"bank_name,omitempty"`
	BankAccountNumber string    `json:"bank_account_number,omitempty"`
	BankAccountName   string    `json:"bank_account_name,omitempty"`
}

func (dto CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(100)
	v.Field("email", dto.Email).Required().MaxLength(255)
	v.Field("password", dto.Password).Required().MinLength(8)
	v.Field("role", string(dto.Role)).Required().Custom(func(value interface{}) *errors.AppError {
		role, _ := value.(string)
		switch auth.Role(role) {
		case auth.RoleAdmin, auth.RoleFinance, auth.RoleStaff:
			return nil
		}
		return errors.NewValidationFieldError("role", "role must be one of ADMIN, FINANCE, STAFF", errors.ErrCodeValidationFailed)
	})
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
