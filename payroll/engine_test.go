package payroll_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/glohq/payroll-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// january2024 is an inclusive window over all of January 2024 UTC.
func january2024() payroll.DateRange {
	return payroll.DateRange{
		Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.January, 31, 23, 59, 59, 999_000_000, time.UTC),
	}
}

func jan(day, hour int) time.Time {
	return time.Date(2024, time.January, day, hour, 0, 0, 0, time.UTC)
}

// paidPayment is a completed appointment payment with the given totals.
func paidPayment(id payroll.PaymentID, appt payroll.AppointmentID, total, tip string, at time.Time) payroll.Payment {
	return payroll.Payment{
		ID:            id,
		AppointmentID: appt,
		Status:        "completed",
		Type:          "appointment",
		TotalAmount:   dec(total),
		TipAmount:     dec(tip),
		PaidAt:        at,
	}
}

func doneAppointment(id payroll.AppointmentID, staff payroll.StaffID, svc payroll.ServiceID, client payroll.ClientID, at time.Time) payroll.Appointment {
	return payroll.Appointment{
		ID:            id,
		StaffID:       staff,
		ServiceID:     svc,
		ClientID:      client,
		StartTime:     at,
		Status:        "completed",
		PaymentStatus: "paid",
	}
}

// baseSnapshot is one commission stylist (20%), one 60-minute haircut
// service, no appointments or payments yet.
func baseSnapshot() payroll.Snapshot {
	return payroll.Snapshot{
		Staff: []payroll.StaffMember{
			{ID: 1, UserID: 10, Title: "Stylist", CommissionType: "commission", CommissionRate: dec("0.20")},
		},
		Users: []payroll.User{
			{ID: 10, FirstName: "Ana", LastName: "Reyes"},
			{ID: 20, FirstName: "Ben", LastName: "Cole"},
		},
		Services: []payroll.Service{
			{ID: 100, Name: "Haircut", Category: "Hair", Price: dec("80"), DurationMinutes: 60},
		},
		Appointments:  []payroll.Appointment{},
		Payments:      []payroll.Payment{},
		RateOverrides: []payroll.RateOverride{},
	}
}

func summarize(t *testing.T, snap payroll.Snapshot, window payroll.DateRange) []payroll.StaffSummary {
	t.Helper()
	summaries, err := payroll.Summarize(snap, window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return summaries
}

func soleSummary(t *testing.T, snap payroll.Snapshot, window payroll.DateRange) payroll.StaffSummary {
	t.Helper()
	summaries := summarize(t, snap, window)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	return summaries[0]
}

func wantDec(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s: expected %v, got %v", name, want, got)
	}
}

// =============================================================================
// COMPENSATION MODEL TESTS
// =============================================================================

func TestSummarize_CommissionStaff_EarnsFractionOfCollectedRevenue(t *testing.T) {
	// GIVEN: 20% commission stylist, one appointment, payment of $88 ($8 tip)
	// WHEN: Summarizing January
	// THEN: Revenue $80, commission $16, earnings $24 with the tip

	snap := baseSnapshot()
	snap.Appointments = []payroll.Appointment{doneAppointment(1000, 1, 100, 20, jan(10, 14))}
	snap.Payments = []payroll.Payment{paidPayment(1, 1000, "88", "8", jan(10, 15))}

	s := soleSummary(t, snap, january2024())

	wantDec(t, "revenue", s.TotalRevenue, dec("80"))
	wantDec(t, "commission", s.TotalCommission, dec("16"))
	wantDec(t, "tips", s.TotalTips, dec("8"))
	wantDec(t, "earnings", s.TotalEarnings, dec("24"))
}

func TestSummarize_HourlyStaff_PaidForBookedDuration(t *testing.T) {
	// GIVEN: $20/hr staff, one 90-minute service, payment of $50
	// WHEN: Summarizing January
	// THEN: 1.5 hours, $30 hourly pay; earnings are hourly pay + tips,
	//       independent of the $50 collected

	snap := baseSnapshot()
	snap.Staff = []payroll.StaffMember{
		{ID: 1, UserID: 10, Title: "Assistant", CommissionType: "hourly", HourlyRate: dec("20")},
	}
	snap.Services = []payroll.Service{
		{ID: 100, Name: "Color", Category: "Hair", Price: dec("120"), DurationMinutes: 90},
	}
	snap.Appointments = []payroll.Appointment{doneAppointment(1000, 1, 100, 20, jan(10, 14))}
	snap.Payments = []payroll.Payment{paidPayment(1, 1000, "55", "5", jan(10, 16))}

	s := soleSummary(t, snap, january2024())

	wantDec(t, "hours", s.TotalHours, dec("1.5"))
	wantDec(t, "hourly pay", s.TotalHourlyPay, dec("30"))
	wantDec(t, "revenue", s.TotalRevenue, dec("50"))
	wantDec(t, "earnings", s.TotalEarnings, dec("35"))
}

func TestSummarize_FixedStaff_FlatAmountPerAppointment(t *testing.T) {
	// GIVEN: $45-per-appointment staff with two paid appointments
	// WHEN: Summarizing January
	// THEN: Earnings are 2 x $45 plus tips

	snap := baseSnapshot()
	snap.Staff = []payroll.StaffMember{
		{ID: 1, UserID: 10, Title: "Barber", CommissionType: "fixed", FixedRate: dec("45")},
	}
	snap.Appointments = []payroll.Appointment{
		doneAppointment(1000, 1, 100, 20, jan(5, 10)),
		doneAppointment(1001, 1, 100, 20, jan(12, 10)),
	}
	snap.Payments = []payroll.Payment{
		paidPayment(1, 1000, "80", "0", jan(5, 11)),
		paidPayment(2, 1001, "95", "10", jan(12, 11)),
	}

	s := soleSummary(t, snap, january2024())

	wantDec(t, "commission", s.TotalCommission, dec("90"))
	wantDec(t, "earnings", s.TotalEarnings, dec("100"))
}

func TestSummarize_HourlyPlusCommission_BothComponents(t *testing.T) {
	// GIVEN: $10/hr + 10% staff, 60-minute service, $100 collected ($0 tip)
	// WHEN: Summarizing January
	// THEN: $10 hourly + $10 commission; earnings $20, hourly portion not
	//       counted twice

	snap := baseSnapshot()
	snap.Staff = []payroll.StaffMember{
		{ID: 1, UserID: 10, Title: "Stylist", CommissionType: "hourly_plus_commission",
			CommissionRate: dec("0.10"), HourlyRate: dec("10")},
	}
	snap.Appointments = []payroll.Appointment{doneAppointment(1000, 1, 100, 20, jan(10, 14))}
	snap.Payments = []payroll.Payment{paidPayment(1, 1000, "100", "0", jan(10, 15))}

	s := soleSummary(t, snap, january2024())

	wantDec(t, "hours", s.TotalHours, dec("1"))
	wantDec(t, "hourly pay", s.TotalHourlyPay, dec("10"))
	wantDec(t, "commission", s.TotalCommission, dec("20"))
	wantDec(t, "earnings", s.TotalEarnings, dec("20"))
}

func TestSummarize_UnknownModel_RevenueCountedEarningsZero(t *testing.T) {
	// GIVEN: Staff with a model string the engine does not know
	// WHEN: Summarizing January
	// THEN: The run succeeds; revenue and tips are reported, earnings are
	//       the tips alone

	snap := baseSnapshot()
	snap.Staff = []payroll.StaffMember{
		{ID: 1, UserID: 10, CommissionType: "equity_points", CommissionRate: dec("0.20")},
	}
	snap.Appointments = []payroll.Appointment{doneAppointment(1000, 1, 100, 20, jan(10, 14))}
	snap.Payments = []payroll.Payment{paidPayment(1, 1000, "88", "8", jan(10, 15))}

	s := soleSummary(t, snap, january2024())

	wantDec(t, "revenue", s.TotalRevenue, dec("80"))
	wantDec(t, "commission", s.TotalCommission, dec("0"))
	wantDec(t, "earnings", s.TotalEarnings, dec("8"))
}

// =============================================================================
// PAYMENT-AS-GROUND-TRUTH TESTS
// =============================================================================

func TestSummarize_PaidFlagWithoutPayment_ContributesNothing(t *testing.T) {
	// GIVEN: Appointment marked completed+paid but no payment row exists
	// WHEN: Summarizing January
	// THEN: The staff member has no qualifying activity and is omitted

	snap := baseSnapshot()
	snap.Appointments = []payroll.Appointment{doneAppointment(1000, 1, 100, 20, jan(10, 14))}

	summaries := summarize(t, snap, january2024())
	if len(summaries) != 0 {
		t.Errorf("expected no summaries, got %d", len(summaries))
	}
}

func TestSummarize_SplitCheckout_SummedNotDoubleCounted(t *testing.T) {
	// GIVEN: One appointment settled in two partial payments
	// WHEN: Summarizing January
	// THEN: One appointment counted, revenue is the sum of both payments

	snap := baseSnapshot()
	snap.Appointments = []payroll.Appointment{doneAppointment(1000, 1, 100, 20, jan(10, 14))}
	snap.Payments = []payroll.Payment{
		paidPayment(1, 1000, "50", "0", jan(10, 15)),
		paidPayment(2, 1000, "38", "8", jan(10, 15)),
	}

	s := soleSummary(t, snap, january2024())

	if s.TotalAppointments != 1 {
		t.Errorf("expected 1 appointment, got %d", s.TotalAppointments)
	}
	wantDec(t, "revenue", s.TotalRevenue, dec("80"))
	wantDec(t, "commission", s.TotalCommission, dec("16"))
}

func TestSummarize_NonQualifyingPayments_Dropped(t *testing.T) {
	// GIVEN: Refunded, product-sale, orphaned and tip-only payments alongside
	//        one real checkout
	// WHEN: Summarizing January
	// THEN: Only the real checkout's money appears

	snap := baseSnapshot()
	snap.Appointments = []payroll.Appointment{
		doneAppointment(1000, 1, 100, 20, jan(10, 14)),
		doneAppointment(1001, 1, 100, 20, jan(11, 14)),
		doneAppointment(1002, 1, 100, 20, jan(12, 14)),
	}
	refunded := paidPayment(2, 1001, "80", "0", jan(11, 15))
	refunded.Status = "refunded"
	product := paidPayment(3, 1001, "35", "0", jan(11, 15))
	product.Type = "product_sale"
	orphan := paidPayment(4, 0, "80", "0", jan(11, 15))
	tipOnly := paidPayment(5, 1002, "15", "15", jan(12, 15))
	snap.Payments = []payroll.Payment{
		paidPayment(1, 1000, "88", "8", jan(10, 15)),
		refunded, product, orphan, tipOnly,
	}

	s := soleSummary(t, snap, january2024())

	if s.TotalAppointments != 1 {
		t.Errorf("expected 1 appointment, got %d", s.TotalAppointments)
	}
	wantDec(t, "revenue", s.TotalRevenue, dec("80"))
	wantDec(t, "tips", s.TotalTips, dec("8"))
}

func TestSummarize_ExplicitBaseAmount_PreferredOverDerived(t *testing.T) {
	// GIVEN: Payment feed provides the tip-exclusive base amount directly
	// WHEN: Summarizing January
	// THEN: The explicit base is used, not total minus tip

	snap := baseSnapshot()
	snap.Appointments = []payroll.Appointment{doneAppointment(1000, 1, 100, 20, jan(10, 14))}
	p := paidPayment(1, 1000, "90", "10", jan(10, 15))
	p.Amount = decp("75")
	snap.Payments = []payroll.Payment{p}

	s := soleSummary(t, snap, january2024())

	wantDec(t, "revenue", s.TotalRevenue, dec("75"))
	wantDec(t, "tips", s.TotalTips, dec("10"))
}

// =============================================================================
// WINDOW TESTS
// =============================================================================

func TestSummarize_PaymentAtWindowEnd_Included(t *testing.T) {
	// GIVEN: Payment timestamped exactly at the inclusive end instant
	// WHEN: Summarizing January
	// THEN: It counts

	snap := baseSnapshot()
	window := january2024()
	snap.Appointments = []payroll.Appointment{doneAppointment(1000, 1, 100, 20, jan(31, 10))}
	snap.Payments = []payroll.Payment{paidPayment(1, 1000, "80", "0", window.End)}

	s := soleSummary(t, snap, window)
	wantDec(t, "revenue", s.TotalRevenue, dec("80"))
}

func TestSummarize_PaymentOutsideWindow_Excluded(t *testing.T) {
	// GIVEN: Appointment in January but its payment settled February 1st
	// WHEN: Summarizing January
	// THEN: Nothing counts; the money belongs to February's run

	snap := baseSnapshot()
	snap.Appointments = []payroll.Appointment{doneAppointment(1000, 1, 100, 20, jan(31, 14))}
	snap.Payments = []payroll.Payment{
		paidPayment(1, 1000, "80", "0", time.Date(2024, time.February, 1, 0, 5, 0, 0, time.UTC)),
	}

	summaries := summarize(t, snap, january2024())
	if len(summaries) != 0 {
		t.Errorf("expected no summaries, got %d", len(summaries))
	}
}

// =============================================================================
// OVERRIDE AND AGGREGATION TESTS
// =============================================================================

func TestSummarize_RateOverride_AppliesToItsServiceOnly(t *testing.T) {
	// GIVEN: 20% base rate, a 40 (percent-encoded) override on service 100,
	//        and a second service without an override
	// WHEN: Summarizing January
	// THEN: Service 100 pays 40%, service 200 pays the base 20%

	snap := baseSnapshot()
	snap.Services = append(snap.Services,
		payroll.Service{ID: 200, Name: "Blowout", Category: "Hair", Price: dec("50"), DurationMinutes: 30})
	snap.RateOverrides = []payroll.RateOverride{
		{StaffID: 1, ServiceID: 100, CustomCommissionRate: decp("40")},
	}
	snap.Appointments = []payroll.Appointment{
		doneAppointment(1000, 1, 100, 20, jan(10, 14)),
		doneAppointment(1001, 1, 200, 20, jan(11, 14)),
	}
	snap.Payments = []payroll.Payment{
		paidPayment(1, 1000, "100", "0", jan(10, 15)),
		paidPayment(2, 1001, "50", "0", jan(11, 15)),
	}

	s := soleSummary(t, snap, january2024())

	// 100 * 0.40 + 50 * 0.20
	wantDec(t, "commission", s.TotalCommission, dec("50"))
}

func TestSummarize_UniqueClients_CountedOverQualifyingAppointmentsOnly(t *testing.T) {
	// GIVEN: Two qualifying appointments from one client, plus an unpaid
	//        appointment from a second client
	// WHEN: Summarizing January
	// THEN: One unique client

	snap := baseSnapshot()
	snap.Users = append(snap.Users, payroll.User{ID: 30, FirstName: "Cara"})
	snap.Appointments = []payroll.Appointment{
		doneAppointment(1000, 1, 100, 20, jan(10, 14)),
		doneAppointment(1001, 1, 100, 20, jan(17, 14)),
		doneAppointment(1002, 1, 100, 30, jan(18, 14)),
	}
	snap.Payments = []payroll.Payment{
		paidPayment(1, 1000, "80", "0", jan(10, 15)),
		paidPayment(2, 1001, "80", "0", jan(17, 15)),
	}

	s := soleSummary(t, snap, january2024())

	if s.UniqueClients != 1 {
		t.Errorf("expected 1 unique client, got %d", s.UniqueClients)
	}
	if s.TotalAppointments != 2 {
		t.Errorf("expected 2 appointments, got %d", s.TotalAppointments)
	}
}

func TestSummarize_LineEarningsSumToSummary(t *testing.T) {
	// GIVEN: Several appointments across two services
	// WHEN: Comparing Detail line items against the summary
	// THEN: Per-line revenue, tips and earnings sum exactly to the totals

	snap := baseSnapshot()
	snap.Services = append(snap.Services,
		payroll.Service{ID: 200, Name: "Blowout", Category: "Hair", Price: dec("50"), DurationMinutes: 30})
	snap.Appointments = []payroll.Appointment{
		doneAppointment(1000, 1, 100, 20, jan(3, 9)),
		doneAppointment(1001, 1, 200, 20, jan(9, 9)),
		doneAppointment(1002, 1, 100, 20, jan(21, 9)),
	}
	snap.Payments = []payroll.Payment{
		paidPayment(1, 1000, "88", "8", jan(3, 10)),
		paidPayment(2, 1001, "55", "5", jan(9, 10)),
		paidPayment(3, 1002, "80", "0", jan(21, 10)),
	}

	detail, err := payroll.Detail(snap, january2024(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	revenue, tips, earnings := decimal.Zero, decimal.Zero, decimal.Zero
	for _, line := range detail.Lines {
		revenue = revenue.Add(line.Revenue)
		tips = tips.Add(line.Tips)
		earnings = earnings.Add(line.Earnings)
	}

	wantDec(t, "revenue conservation", revenue, detail.Summary.TotalRevenue)
	wantDec(t, "tips conservation", tips, detail.Summary.TotalTips)
	wantDec(t, "earnings conservation", earnings, detail.Summary.TotalCommission)
}

func TestSummarize_Idempotent(t *testing.T) {
	// GIVEN: A mixed snapshot
	// WHEN: Summarizing twice
	// THEN: The results are identical, ordering included

	snap := baseSnapshot()
	snap.Staff = append(snap.Staff,
		payroll.StaffMember{ID: 2, UserID: 20, CommissionType: "hourly", HourlyRate: dec("18")})
	snap.Appointments = []payroll.Appointment{
		doneAppointment(1000, 1, 100, 20, jan(10, 14)),
		doneAppointment(1001, 2, 100, 10, jan(11, 14)),
	}
	snap.Payments = []payroll.Payment{
		paidPayment(1, 1000, "88", "8", jan(10, 15)),
		paidPayment(2, 1001, "60", "0", jan(11, 15)),
	}

	first := summarize(t, snap, january2024())
	second := summarize(t, snap, january2024())

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results across runs\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

// =============================================================================
// ERROR PATH TESTS
// =============================================================================

func TestSummarize_MissingCollection_Rejected(t *testing.T) {
	// GIVEN: Snapshot whose payments collection was never fetched
	// WHEN: Summarizing
	// THEN: ErrMissingCollection names the gap

	snap := baseSnapshot()
	snap.Payments = nil

	_, err := payroll.Summarize(snap, january2024())
	if !errors.Is(err, payroll.ErrMissingCollection) {
		t.Fatalf("expected ErrMissingCollection, got %v", err)
	}
	var missing *payroll.MissingCollectionError
	if !errors.As(err, &missing) || missing.Collection != "payments" {
		t.Errorf("expected payments named in error, got %v", err)
	}
}

func TestDetail_UnknownStaff_Rejected(t *testing.T) {
	// GIVEN: An empty roster
	// WHEN: Requesting staff 99's detail
	// THEN: ErrStaffNotFound

	_, err := payroll.Detail(baseSnapshot(), january2024(), 99)
	if !errors.Is(err, payroll.ErrStaffNotFound) {
		t.Fatalf("expected ErrStaffNotFound, got %v", err)
	}
}

func TestDetail_ZeroActivityStaff_StillReturned(t *testing.T) {
	// GIVEN: Staff with no qualifying activity
	// WHEN: Requesting their detail
	// THEN: A zero summary and no lines, not an error

	detail, err := payroll.Detail(baseSnapshot(), january2024(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(detail.Lines) != 0 {
		t.Errorf("expected no lines, got %d", len(detail.Lines))
	}
	wantDec(t, "earnings", detail.Summary.TotalEarnings, dec("0"))
	if detail.Summary.StaffName != "Ana Reyes" {
		t.Errorf("expected resolved staff name, got %q", detail.Summary.StaffName)
	}
}
