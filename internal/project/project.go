package project

import (
	"time"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusOnHold    Status = "ON_HOLD"
)

// allowedTransitions encodes the project lifecycle: a project can be paused
// and resumed, and closed from ACTIVE. COMPLETED and CANCELLED are terminal.
var allowedTransitions = map[Status][]Status{
	StatusActive: {StatusOnHold, StatusCompleted, StatusCancelled},
	StatusOnHold: {StatusActive},
}

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled, StatusOnHold:
		return true
	}
	return false
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Project struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Client      string    `json:"client"`
	Value       int64     `json:"value" gorm:"not null"`
	Deadline    time.Time `json:"deadline" gorm:"type:date"`
	Status      Status    `json:"status" gorm:"default:ACTIVE"`
	Description string    `json:"description"`
	CreatedBy   int64     `json:"created_by" gorm:"column:created_by;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"default:now()"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"default:now()"`
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) IsActive() bool {
	return p.Status == StatusActive
}

// Revision is an append-only record of a project value change. Rows are
// written once and never updated.
type Revision struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	ProjectID int64     `json:"project_id" gorm:"column:project_id;not null"`
	OldValue  int64     `json:"old_value" gorm:"column:old_value;not null"`
	NewValue  int64     `json:"new_value" gorm:"column:new_value;not null"`
	Reason    string    `json:"reason" gorm:"not null"`
	ChangedBy int64     `json:"changed_by" gorm:"column:changed_by;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"default:now()"`
}

func (Revision) TableName() string {
	return "project_revisions"
}
