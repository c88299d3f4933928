package payroll_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/glohq/payroll-engine/payroll"
)

func TestBuildHistory_FreezesRunTotalsAndBreakdown(t *testing.T) {
	// GIVEN: A computed run with two staff
	// WHEN: Freezing it into a history record
	// THEN: Totals sum across staff and the breakdown round-trips as JSON

	snap := baseSnapshot()
	snap.Staff = append(snap.Staff,
		payroll.StaffMember{ID: 2, UserID: 20, CommissionType: "fixed", FixedRate: dec("45")})
	snap.Appointments = []payroll.Appointment{
		doneAppointment(1000, 1, 100, 20, jan(10, 14)),
		doneAppointment(1001, 2, 100, 10, jan(11, 14)),
	}
	snap.Payments = []payroll.Payment{
		paidPayment(1, 1000, "88", "8", jan(10, 15)),
		paidPayment(2, 1001, "60", "0", jan(11, 15)),
	}

	window := january2024()
	summaries := summarize(t, snap, window)
	now := time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC)

	rec, err := payroll.BuildHistory(summaries, window, payroll.PeriodMonth, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.StaffCount != 2 {
		t.Errorf("expected 2 staff, got %d", rec.StaffCount)
	}
	wantDec(t, "total revenue", rec.TotalRevenue, dec("140"))
	wantDec(t, "total tips", rec.TotalTips, dec("8"))
	// 16+8 commission staff, 45+0 fixed staff
	wantDec(t, "total earnings", rec.TotalEarnings, dec("69"))
	if rec.Status != payroll.HistoryStatusGenerated {
		t.Errorf("expected generated status, got %q", rec.Status)
	}
	if !rec.PeriodStart.Equal(window.Start) || !rec.PeriodEnd.Equal(window.End) {
		t.Errorf("expected period bounds preserved")
	}

	var breakdown []payroll.StaffSummary
	if err := json.Unmarshal(rec.EarningsBreakdown, &breakdown); err != nil {
		t.Fatalf("breakdown does not decode: %v", err)
	}
	if len(breakdown) != 2 {
		t.Errorf("expected 2 breakdown entries, got %d", len(breakdown))
	}
}
