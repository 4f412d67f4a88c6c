package subcontractor

import (
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/subcontractor"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculateNetPayment computes the payable amount of a completed assignment:
// final minus both penalties minus the holdback, floored at zero.
// The holdback is taken from the final amount, not from the penalized amount.
func CalculateNetPayment(finalAmount, dailyPenalties, completionPenalties, holdbackPercentage decimal.Decimal) subcontractor.Settlement {
	totalPenalties := dailyPenalties.Add(completionPenalties)
	holdback := finalAmount.Mul(holdbackPercentage).Div(hundred).Round(2)

	net := finalAmount.Sub(totalPenalties).Sub(holdback)
	if net.IsNegative() {
		net = decimal.Zero
	}

	return subcontractor.Settlement{
		FinalAmount:        finalAmount,
		TotalPenalties:     totalPenalties,
		HoldbackPercentage: holdbackPercentage,
		HoldbackAmount:     holdback,
		NetPayment:         net.Round(2),
	}
}
