package subcontractor

import "github.com/shopspring/decimal"

type SettlementResponse struct {
	AssignmentID             string           `json:"assignment_id"`
	ProjectID                string           `json:"project_id"`
	SubcontractorName        string           `json:"subcontractor_name"`
	Status                   string           `json:"status"`
	FinalAmount              decimal.Decimal  `json:"final_amount"`
	DailyDelayPenalties      decimal.Decimal  `json:"daily_delay_penalties"`
	CompletionDelayPenalties decimal.Decimal  `json:"completion_delay_penalties"`
	TotalPenalties           decimal.Decimal  `json:"total_penalties"`
	HoldbackPercentage       decimal.Decimal  `json:"holdback_percentage"`
	HoldbackAmount           decimal.Decimal  `json:"holdback_amount"`
	NetPayment               decimal.Decimal  `json:"net_payment"`
	CompletionVerified       bool             `json:"completion_verified"`
	VerifiedBy               *string          `json:"verified_by,omitempty"`
	VerifiedAt               *string          `json:"verified_at,omitempty"`
	HoldbackReleased         bool             `json:"holdback_released"`
	PaymentProcessed         bool             `json:"payment_processed"`
	PaymentProcessedAt       *string          `json:"payment_processed_at,omitempty"`
	PaidAmount               *decimal.Decimal `json:"paid_amount,omitempty"`
}
