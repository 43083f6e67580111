package project

import (
	"time"

	errors "github.com/expenseops/expense-approval/internal"
	"github.com/expenseops/expense-approval/internal/core/common/validation"
)

type CreateProjectDTO struct {
	Name        string    `json:"name"`
	Client      string    `json:"client"`
	Value       int64     `json:"value"`
	Deadline    time.Time `json:"deadline"`
	Description string    `json:"description"`
}

func (dto CreateProjectDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(255)
	v.Field("client", dto.Client).Required().MaxLength(255)
	v.Field("value", dto.Value).Required().Positive(errors.ErrCodeInvalidAmount)
	v.Field("deadline", dto.Deadline).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateValueDTO struct {
	NewValue int64  `json:"new_value"`
	Reason   string `json:"reason"`
}

func (dto UpdateValueDTO) Validate() error {
	if dto.NewValue <= 0 {
		return errors.NewValidationFieldError("new_value", "new_value must be greater than 0", errors.ErrCodeInvalidAmount)
	}
	if err := validation.ValidateReason("reason", dto.Reason); err != nil {
		return err
	}
	return nil
}

type UpdateStatusDTO struct {
	Status Status `json:"status"`
}

func (dto UpdateStatusDTO) Validate() error {
	if !dto.Status.Valid() {
		return errors.NewValidationFieldError("status", "status must be one of ACTIVE, COMPLETED, CANCELLED, ON_HOLD", errors.ErrCodeValidationFailed)
	}
	return nil
}
