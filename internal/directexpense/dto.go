package directexpense

import (
	"time"

	errors "github.com/expenseops/expense-approval/internal"
	"github.com/expenseops/expense-approval/internal/core/common/validation"
)

type CreateDirectExpenseDTO struct {
	ProjectID   *int64    `json:"project_id,omitempty"`
	CategoryID  int64     `json:"category_id"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	ExpenseDate time.Time `json:"expense_date"`
	InvoiceURL  string    `json:"invoice_url"`
}

func (dto CreateDirectExpenseDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("category_id", dto.CategoryID).Required()
	v.Field("amount", dto.Amount).Required().Positive(errors.ErrCodeInvalidAmount)
	v.Field("description", dto.Description).Required().MaxLength(500)
	v.Field("expense_date", dto.ExpenseDate).Required().NotFuture()
	v.Field("invoice_url", dto.InvoiceURL).MaxLength(1000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ApproveDTO struct {
	Notes string `json:"notes,omitempty"`
}

type RejectDTO struct {
	Reason string `json:"reason"`
}

func (dto RejectDTO) Validate() error {
	if err := validation.ValidateReason("reason", dto.Reason); err != nil {
		return err
	}
	return nil
}

type MarkPaidDTO struct {
	PaymentProofURL string `json:"payment_proof_url"`
	Notes           string `json:"notes,omitempty"`
}

func (dto MarkPaidDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("payment_proof_url", dto.PaymentProofURL).Required().MaxLength(1000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
