package ledger

import (
	"time"
)

// SourceType identifies which workflow produced a ledger row.
type SourceType string

const (
	SourceReimbursement SourceType = "reimbursement"
	SourceDirectExpense SourceType = "direct_expense"
)

// Expense is the immutable ledger record written when a reimbursement or
// direct expense request is paid. Rows are append-only; corrections happen
// upstream, never here.
type Expense struct {
	ID              int64      `json:"id" gorm:"primaryKey"`
	SourceType      SourceType `json:"source_type" gorm:"column:source_type;uniqueIndex:idx_expense_source;not null"`
	SourceID        int64      `json:"source_id" gorm:"column:source_id;uniqueIndex:idx_expense_source;not null"`
	ProjectID       *int64     `json:"project_id,omitempty" gorm:"column:project_id"`
	CategoryID      int64      `json:"category_id" gorm:"column:category_id;not null"`
	Amount          int64      `json:"amount" gorm:"not null"`
	Description     string     `json:"description"`
	ExpenseDate     time.Time  `json:"expense_date" gorm:"column:expense_date"`
	ReceiptURL      string     `json:"receipt_url,omitempty" gorm:"column:receipt_url"`
	PaymentProofURL string     `json:"payment_proof_url" gorm:"column:payment_proof_url"`
	PaidBy          int64      `json:"paid_by" gorm:"column:paid_by"`
	PaidAt          time.Time  `json:"paid_at" gorm:"column:paid_at"`
	CreatedAt       time.Time  `json:"created_at" gorm:"default:now()"`
}

func (Expense) TableName() string {
	return "expenses"
}
