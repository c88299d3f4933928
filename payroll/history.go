/*
history.go - Payroll run snapshots

PURPOSE:
  A payroll run can be frozen into a HistoryRecord: the period, the totals,
  and the full per-staff breakdown serialized as JSON. Stored records are
  what actually got paid out; recomputing the same period later against a
  mutated database is free to disagree with them.
*/
package payroll

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HistoryStatusGenerated marks a freshly frozen run. Downstream payout
// tooling moves records to its own statuses; the engine only ever writes
// this one.
const HistoryStatusGenerated = "generated"

// HistoryRecord is one frozen payroll run.
type HistoryRecord struct {
	ID          uuid.UUID `json:"id"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	PeriodType  string    `json:"periodType"`

	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalTips     decimal.Decimal `json:"totalTips"`
	TotalEarnings decimal.Decimal `json:"totalEarnings"`
	StaffCount    int             `json:"staffCount"`

	// EarningsBreakdown is the full []StaffSummary of the run, serialized so
	// the record stays readable after staff or services change.
	EarningsBreakdown json.RawMessage `json:"earningsBreakdown"`

	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// BuildHistory freezes a computed run into a record. periodType is the
// keyword the run was requested with ("month", "custom", ...).
func BuildHistory(summaries []StaffSummary, window DateRange, periodType string, now time.Time) (HistoryRecord, error) {
	breakdown, err := json.Marshal(summaries)
	if err != nil {
		return HistoryRecord{}, err
	}

	rec := HistoryRecord{
		ID:                uuid.New(),
		PeriodStart:       window.Start,
		PeriodEnd:         window.End,
		PeriodType:        periodType,
		TotalRevenue:      decimal.Zero,
		TotalTips:         decimal.Zero,
		TotalEarnings:     decimal.Zero,
		StaffCount:        len(summaries),
		EarningsBreakdown: breakdown,
		Status:            HistoryStatusGenerated,
		CreatedAt:         now,
	}
	for _, s := range summaries {
		rec.TotalRevenue = rec.TotalRevenue.Add(s.TotalRevenue)
		rec.TotalTips = rec.TotalTips.Add(s.TotalTips)
		rec.TotalEarnings = rec.TotalEarnings.Add(s.TotalEarnings)
	}
	return rec, nil
}
