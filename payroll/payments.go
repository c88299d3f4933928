/*
payments.go - Payment validation

PURPOSE:
  Filters the raw payment feed down to rows that represent real, collected
  appointment money inside the requested window, and groups them by
  appointment. Everything downstream (revenue, commission, tips) is computed
  from this map, never from calendar flags or list prices.

A payment is valid for payroll iff ALL of:
  - status is "completed" (pending, refunded, failed all drop out)
  - type is empty or an appointment-payment marker (POS/product sales drop out)
  - it references a concrete appointment
  - its tip-exclusive base amount is strictly positive
  - its timestamp is a real instant inside [start, end]

Rows failing any predicate are silently dropped. Partial or dirty data must
never abort a payroll run.
*/
package payroll

import "github.com/shopspring/decimal"

// BaseAmount returns the tip-exclusive portion of the payment: the explicit
// base amount when the feed provides one, otherwise total minus tip, floored
// at zero.
func (p Payment) BaseAmount() decimal.Decimal {
	if p.Amount != nil {
		return *p.Amount
	}
	base := p.TotalAmount.Sub(p.TipAmount)
	if base.IsNegative() {
		return decimal.Zero
	}
	return base
}

// appointmentPayment reports whether the payment's type marks it as money
// taken against an appointment (as opposed to a product/POS sale). An unset
// type is treated as an appointment payment; historical checkouts predate
// the type column.
func appointmentPayment(t string) bool {
	return t == "" || t == PaymentTypeAppointment || t == PaymentTypeAppointmentPayment
}

// ValidPayments returns the payments valid for payroll in the window,
// grouped by appointment. Feed order is preserved within each appointment
// for audit display.
func ValidPayments(payments []Payment, window DateRange) map[AppointmentID][]Payment {
	byAppointment := make(map[AppointmentID][]Payment)
	for _, p := range payments {
		if p.Status != PaymentCompleted {
			continue
		}
		if !appointmentPayment(p.Type) {
			continue
		}
		if p.AppointmentID == 0 {
			continue
		}
		if !p.BaseAmount().IsPositive() {
			continue
		}
		if p.PaidAt.IsZero() || !window.Contains(p.PaidAt) {
			continue
		}
		byAppointment[p.AppointmentID] = append(byAppointment[p.AppointmentID], p)
	}
	return byAppointment
}
