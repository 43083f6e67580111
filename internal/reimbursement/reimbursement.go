package reimbursement

import (
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusReviewed Status = "reviewed"
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
	StatusRejected Status = "rejected"
)

// Reimbursement is a staff-submitted out-of-pocket expense claim. It moves
// pending -> reviewed -> approved -> paid, with rejection possible from
// pending (finance) or reviewed (admin). Every transition stamps who acted
// and when; paid claims additionally materialize a ledger expense.
type Reimbursement struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	UserID      int64     `json:"user_id" gorm:"column:user_id;not null"`
	ProjectID   int64     `json:"project_id" gorm:"column:project_id;not null"`
	Amount      int64     `json:"amount" gorm:"not null"`
	Description string    `json:"description"`
	ExpenseDate time.Time `json:"expense_date" gorm:"column:expense_date"`
	ReceiptURL  string    `json:"receipt_url" gorm:"column:receipt_url"`
	Status      Status    `json:"status" gorm:"default:pending"`

	ReviewedBy  *int64     `json:"reviewed_by,omitempty" gorm:"column:reviewed_by"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty" gorm:"column:reviewed_at"`
	ReviewNotes string     `json:"review_notes,omitempty" gorm:"column:review_notes"`

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

func (Reimbursement) TableName() string {
	return "reimbursements"
}

func (r *Reimbursement) IsPending() bool  { return r.Status == StatusPending }
func (r *Reimbursement) IsReviewed() bool { return r.Status == StatusReviewed }
func (r *Reimbursement) IsApproved() bool { return r.Status == StatusApproved }
func (r *Reimbursement) IsTerminal() bool {
	return r.Status == StatusPaid || r.Status == StatusRejected
}
