package subcontractor

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssignmentStatus enum. Transitions up to completed belong to the project workflow.
type AssignmentStatus string

const (
	AssignmentStatusAssigned   AssignmentStatus = "assigned"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
)

// Assignment - a subcontractor engaged on a project
type Assignment struct {
	ID                       string
	BusinessID               string
	ProjectID                string
	SubcontractorName        string
	SubcontractorEmail       *string
	Status                   AssignmentStatus
	FinalAmount              decimal.Decimal
	DailyDelayPenalties      decimal.Decimal
	CompletionDelayPenalties decimal.Decimal
	CompletionVerified       bool
	VerifiedBy               *string
	VerifiedAt               *time.Time
	HoldbackReleased         bool
	HoldbackReleasedAt       *time.Time
	PaymentProcessed         bool
	PaymentProcessedAt       *time.Time
	NetPaymentAmount         decimal.NullDecimal
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Settlement is the net payment breakdown of an assignment.
type Settlement struct {
	FinalAmount        decimal.Decimal
	TotalPenalties     decimal.Decimal
	HoldbackPercentage decimal.Decimal
	HoldbackAmount     decimal.Decimal
	NetPayment         decimal.Decimal
}
