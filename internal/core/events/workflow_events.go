package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeReimbursementPaid     = "reimbursement.paid"
	EventTypeReimbursementRejected = "reimbursement.rejected"
	EventTypeDirectExpensePaid     = "direct_expense.paid"
	EventTypeDirectExpenseRejected = "direct_expense.rejected"
)

// WorkflowEvent is emitted whenever a reimbursement or direct expense
// request reaches a terminal stage of its workflow.
type WorkflowEvent struct {
	BaseEvent
	SourceID int64  `json:"source_id"`
	ActorID  int64  `json:"actor_id"`
	Amount   int64  `json:"amount"`
	Reason   string `json:"reason,omitempty"`
}

func newWorkflowEvent(eventType string, sourceID, actorID, amount int64, reason string) *WorkflowEvent {
	return &WorkflowEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"source_id": sourceID,
				"actor_id":  actorID,
				"amount":    amount,
				"reason":    reason,
			},
		},
		SourceID: sourceID,
		ActorID:  actorID,
		Amount:   amount,
		Reason:   reason,
	}
}

func NewReimbursementPaidEvent(reimbursementID, paidBy, amount int64) *WorkflowEvent {
	return newWorkflowEvent(EventTypeReimbursementPaid, reimbursementID, paidBy, amount, "")
}

func NewReimbursementRejectedEvent(reimbursementID, rejectedBy, amount int64, reason string) *WorkflowEvent {
	return newWorkflowEvent(EventTypeReimbursementRejected, reimbursementID, rejectedBy, amount, reason)
}

func NewDirectExpensePaidEvent(requestID, paidBy, amount int64) *WorkflowEvent {
	return newWorkflowEvent(EventTypeDirectExpensePaid, requestID, paidBy, amount, "")
}

func NewDirectExpenseRejectedEvent(requestID, rejectedBy, amount int64, reason string) *WorkflowEvent {
	return newWorkflowEvent(EventTypeDirectExpenseRejected, requestID, rejectedBy, amount, reason)
}
