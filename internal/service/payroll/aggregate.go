package payroll

import (
	"strings"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/project"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/worklog"
	"github.com/shopspring/decimal"
)

// WorkAggregate - hours and mileage a worker logged in a period
type WorkAggregate struct {
	TotalHours   decimal.Decimal
	TotalMileage decimal.Decimal
	EntryCount   int
	OpenEntries  int
}

// RevenueAggregate - completed project revenue attributed to a worker
type RevenueAggregate struct {
	Revenue      decimal.Decimal
	ProjectCount int
}

// AggregateWorkLogs sums the entries of email whose start time falls in period.
// Open entries contribute mileage but no hours.
func AggregateWorkLogs(email string, period payroll.Period, entries []worklog.Entry) WorkAggregate {
	agg := WorkAggregate{
		TotalHours:   decimal.Zero,
		TotalMileage: decimal.Zero,
	}

	for _, e := range entries {
		if !sameIdentity(e.WorkerEmail, email) || !period.Contains(e.StartTime) {
			continue
		}
		agg.EntryCount++
		agg.TotalMileage = agg.TotalMileage.Add(e.TotalMileage)

		hours := e.DurationHours()
		if hours == nil {
			agg.OpenEntries++
			continue
		}
		agg.TotalHours = agg.TotalHours.Add(*hours)
	}

	return agg
}

// AggregateRevenue sums actual cost of completed projects assigned to email
// whose completion falls in period. A missing actual cost counts as zero.
func AggregateRevenue(email string, period payroll.Period, projects []project.Project) RevenueAggregate {
	agg := RevenueAggregate{Revenue: decimal.Zero}

	for _, p := range projects {
		if p.Status != project.StatusCompleted || p.AssignedTo == nil || p.CompletedAt == nil {
			continue
		}
		if !sameIdentity(*p.AssignedTo, email) || !period.Contains(*p.CompletedAt) {
			continue
		}
		agg.ProjectCount++
		if p.ActualCost.Valid {
			agg.Revenue = agg.Revenue.Add(p.ActualCost.Decimal)
		}
	}

	return agg
}

func sameIdentity(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
