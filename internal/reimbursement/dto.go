package reimbursement

import (
	"time"

	errors "github.com/expenseops/expense-approval/internal"
	"github.com/expenseops/expense-approval/internal/core/common/validation"
)

type SubmitReimbursementDTO struct {
	ProjectID   int64     `json:"project_id"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	ExpenseDate time.Time `json:"expense_date"`
	ReceiptURL  string    `json:"receipt_url"`
}

func (dto SubmitReimbursementDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("project_id", dto.ProjectID).Required()
	v.Field("amount", dto.Amount).Required().Positive(errors.ErrCodeInvalidAmount)
	v.Field("description", dto.Description).Required().MaxLength(500)
	v.Field("expense_date", dto.ExpenseDate).Required().NotFuture()
	v.Field("receipt_url", dto.ReceiptURL).Required().MaxLength(1000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ReviewDTO struct {
	Notes string `json:"notes,omitempty"`
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
