package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/expenseops/expense-approval/internal/ledger"
	"github.com/expenseops/expense-approval/internal/reimbursement"
)

type ReimbursementRepository struct {
	db *gorm.DB
}

func NewReimbursementRepository(db *gorm.DB) reimbursement.RepositoryAPI {
	return &ReimbursementRepository{db: db}
}

func (r *ReimbursementRepository) Create(rb *reimbursement.Reimbursement) error {
	return r.db.Create(rb).Error
}

func (r *ReimbursementRepository) GetByID(id int64) (*reimbursement.Reimbursement, error) {
	var rb reimbursement.Reimbursement
	err := r.db.Where("id = ?", id).First(&rb).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rb, nil
}

func (r *ReimbursementRepository) GetAll(limit, offset int) ([]*reimbursement.Reimbursement, error) {
	var claims []*reimbursement.Reimbursement
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&claims).Error
	return claims, err
}

func (r *ReimbursementRepository) GetByUser(userID int64, limit, offset int) ([]*reimbursement.Reimbursement, error) {
	var claims []*reimbursement.Reimbursement
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&claims).Error
	return claims, err
}

// MarkReviewed flips pending -> reviewed. The status predicate in the WHERE
// clause serializes concurrent reviewers; only one update matches.
func (r *ReimbursementRepository) MarkReviewed(id, reviewerID int64, notes string, at time.Time) (bool, error) {
	result := r.db.Model(&reimbursement.Reimbursement{}).
		Where("id = ? AND status = ?", id, reimbursement.StatusPending).
		Updates(map[string]interface{}{
			"status":       reimbursement.StatusReviewed,
			"reviewed_by":  reviewerID,
			"reviewed_at":  at,
			"review_notes": notes,
			"updated_at":   at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ReimbursementRepository) MarkApproved(id, adminID int64, notes string, at time.Time) (bool, error) {
	result := r.db.Model(&reimbursement.Reimbursement{}).
		Where("id = ? AND status = ?", id, reimbursement.StatusReviewed).
		Updates(map[string]interface{}{
			"status":         reimbursement.StatusApproved,
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

func (r *ReimbursementRepository) MarkRejected(id int64, from reimbursement.Status, rejectedBy int64, reason string, at time.Time) (bool, error) {
	result := r.db.Model(&reimbursement.Reimbursement{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":           reimbursement.StatusRejected,
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

// MarkPaid commits the payment stamp and the ledger expense together. If the
// conditional update matches no row the transaction rolls back without
// writing the expense.
func (r *ReimbursementRepository) MarkPaid(id, paidBy int64, proofURL, notes string, at time.Time, expense *ledger.Expense) (bool, error) {
	var transitioned bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&reimbursement.Reimbursement{}).
			Where("id = ? AND status = ?", id, reimbursement.StatusApproved).
			Updates(map[string]interface{}{
				"status":            reimbursement.StatusPaid,
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
