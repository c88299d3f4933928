/*
revenue.go - Appointment revenue mapping

PURPOSE:
  Decides whether an appointment earns anything at all, and if so how much
  revenue and tip money it collected across all of its valid payments
  (split and repeated checkouts are summed, never double counted).

WHY THE PAYMENT GATE:
  Calendars can mark an appointment completed+paid with no money behind it:
  data skew, races between checkout and booking, manual overrides. The
  appointment flags are a necessary gate but the Payment rows are ground
  truth - no valid payment, no payroll contribution.
*/
package payroll

import "github.com/shopspring/decimal"

// AppointmentRevenue is the money an appointment actually collected.
type AppointmentRevenue struct {
	Revenue decimal.Decimal // tip-exclusive, summed across valid payments
	Tips    decimal.Decimal
}

// MapRevenue returns the appointment's collected revenue and whether it is
// eligible for payroll. Eligibility requires the calendar flags
// (completed + paid) AND at least one valid payment with a positive summed
// base amount.
func MapRevenue(appt Appointment, valid []Payment) (AppointmentRevenue, bool) {
	if appt.Status != AppointmentCompleted || appt.PaymentStatus != PaymentStatusPaid {
		return AppointmentRevenue{}, false
	}
	if len(valid) == 0 {
		return AppointmentRevenue{}, false
	}

	revenue := decimal.Zero
	tips := decimal.Zero
	for _, p := range valid {
		revenue = revenue.Add(p.BaseAmount())
		tips = tips.Add(p.TipAmount)
	}

	if !revenue.IsPositive() {
		return AppointmentRevenue{}, false
	}
	return AppointmentRevenue{Revenue: revenue, Tips: tips}, true
}
