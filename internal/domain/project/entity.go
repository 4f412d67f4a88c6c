package project

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPlanning   Status = "planning"
	StatusInProgress Status = "in_progress"
	StatusOnHold     Status = "on_hold"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type Project struct {
	ID          string
	BusinessID  string
	Name        string
	Status      Status
	ActualCost  decimal.NullDecimal
	AssignedTo  *string // worker email, used for commission attribution
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
