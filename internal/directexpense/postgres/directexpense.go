package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/expenseops/expense-approval/internal/directexpense"
	"github.com/expenseops/expense-approval/internal/ledger"
)

type DirectExpenseRepository struct {
	db *gorm.DB
}

func NewDirectExpenseRepository(db *gorm.DB) directexpense.RepositoryAPI {
	return &DirectExpenseRepository{db: db}
}

func (r *DirectExpenseRepository) Create(d *directexpense.DirectExpenseRequest) error {
	return r.db.Create(d).Error
}

func (r *DirectExpenseRepository) GetByID(id int64) (*directexpense.DirectExpenseRequest, error) {
	var d directexpense.DirectExpenseRequest
	err := r.db.Where("id = ?", id).First(&d).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DirectExpenseRepository) GetAll(limit, offset int) ([]*directexpense.DirectExpenseRequest, error) {
	var requests []*directexpense.DirectExpenseRequest
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error
	return requests, err
}

func (r *DirectExpenseRepository) MarkApproved(id, adminID int64, notes string, at time.Time) (bool, error) {
	result := r.db.Model(&directexpense.DirectExpenseRequest{}).
		Where("id = ? AND status = ?", id, directexpense.StatusPending).
		Updates(map[string]interface{}{
			"status":         directexpense.StatusApproved,
			"approved_by":    adminID,
			"approved_at":    at,
			"approval_notes": notes,
			"updated_at":     at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *DirectExpenseRepository) MarkRejected(id, rejectedBy int64, reason string, at time.Time) (bool, error) {
	result := r.db.Model(&directexpense.DirectExpenseRequest{}).
		Where("id = ? AND status = ?", id, directexpense.StatusPending).
		Updates(map[string]interface{}{
			"status":           directexpense.StatusRejected,
			"rejected_by":      rejectedBy,
			"rejected_at":      at,
			"rejection_reason": reason,
			"updated_at":       at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkPaid flips approved -> paid and writes the ledger expense in one
// transaction. A stale status rolls back without touching the ledger.
func (r *DirectExpenseRepository) MarkPaid(id, paidBy int64, proofURL, notes string, at time.Time, expense *ledger.Expense) (bool, error) {
	var transitioned bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&directexpense.DirectExpenseRequest{}).
			Where("id = ? AND status = ?", id, directexpense.StatusApproved).
			Updates(map[string]interface{}{
				"status":            directexpense.StatusPaid,
				"paid_by":           paidBy,
				"paid_at":           at,
				"payment_proof_url": proofURL,
				"payment_notes":     notes,
				"updated_at":        at,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		transitioned = true
		return tx.Create(expense).Error
	})
	if err != nil {
		return false, err
	}
	return transitioned, nil
}
