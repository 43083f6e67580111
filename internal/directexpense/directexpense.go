package directexpense

import (
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
	StatusRejected Status = "rejected"
)

// DirectExpenseRequest is a company expense raised directly by finance, for
// example a vendor invoice. Unlike reimbursements there is no review stage:
// pending -> approved -> paid, with rejection only from pending. Any finance
// user may execute the payment.
type DirectExpenseRequest struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	CreatedBy   int64     `json:"created_by" gorm:"column:created_by;not null"`
	ProjectID   *int64    `json:"project_id,omitempty" gorm:"column:project_id"`
	CategoryID  int64     `json:"category_id" gorm:"column:category_id;not null"`
	Amount      int64     `json:"amount" gorm:"not null"`
	Description string    `json:"description"`
	ExpenseDate time.Time `json:"expense_date" gorm:"column:expense_date"`
	InvoiceURL  string    `json:"invoice_url" gorm:"column:invoice_url"`
	Status      Status    `json:"status" gorm:"default:pending"`

	ApprovedBy    *int64     `json:"approved_by,omitempty" gorm:"column:approved_by"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty" gorm:"column:approved_at"`
	ApprovalNotes string     `json:"approval_notes,omitempty" gorm:"column:approval_notes"`

	PaidBy          *int64     `json:"paid_by,omitempty" gorm:"column:paid_by"`
	PaidAt          *time.Time `json:"paid_at,omitempty" gorm:"column:paid_at"`
	PaymentProofURL string     `json:"payment_proof_url,omitempty" gorm:"column:payment_proof_url"`
	PaymentNotes    string     `json:"payment_notes,omitempty" gorm:"column:payment_notes"`

	RejectedBy      *int64     `json:"rejected_by,omitempty" gorm:"column:rejected_by"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty" gorm:"column:rejected_at"`
	RejectionReason string     `json:"rejection_reason,omitempty" gorm:"column:rejection_reason"`

	CreatedAt time.Time `json:"created_at" gorm:"default:now()"`
	UpdatedAt time.Time `json:"updated_at" gorm:"default:now()"`
}

func (DirectExpenseRequest) TableName() string {
	return "direct_expense_requests"
}

func (d *DirectExpenseRequest) IsPending() bool  { return d.Status == StatusPending }
func (d *DirectExpenseRequest) IsApproved() bool { return d.Status == StatusApproved }
