/*
plan.go - Compensation plans as a closed sum type

PURPOSE:
  The four compensation models are concrete variants behind a sealed
  interface. The calculator dispatches through the interface, so "unknown
  model" cannot reach the math: the only place a raw model string is
  interpreted is PlanFor, and an unrecognized string yields no plan there
  (the staff member computes zero earnings, never a crash).

VARIANTS:
  CommissionPlan            revenue x rate
  HourlyPlan                hourly rate x service duration
  FixedPlan                 flat amount per appointment
  HourlyPlusCommissionPlan  hourly portion + revenue x rate

Tips are not a plan concern: every model receives tips on top, tracked
separately by the aggregator.
*/
package payroll

import "github.com/shopspring/decimal"

var minutesPerHour = decimal.NewFromInt(60)

// Earnings is one appointment's computed pay under a plan, tips excluded.
// Hours and HourlyPay are zero for plans without an hourly component;
// Total always carries the full model earnings (including any hourly
// portion).
type Earnings struct {
	Hours     decimal.Decimal
	HourlyPay decimal.Decimal
	Total     decimal.Decimal
}

// CompensationPlan is the sealed set of pay models. apply computes one
// appointment's earnings from its collected revenue and the service
// duration.
type CompensationPlan interface {
	apply(revenue decimal.Decimal, durationMinutes int) Earnings
}

// CommissionPlan pays a fraction of collected revenue.
type CommissionPlan struct {
	Rate decimal.Decimal
}

func (p CommissionPlan) apply(revenue decimal.Decimal, _ int) Earnings {
	return Earnings{Total: revenue.Mul(p.Rate)}
}

// HourlyPlan pays for the service's booked duration regardless of what the
// appointment collected (collection still gates eligibility upstream).
type HourlyPlan struct {
	HourlyRate decimal.Decimal
}

func (p HourlyPlan) apply(_ decimal.Decimal, durationMinutes int) Earnings {
	hours := decimal.NewFromInt(int64(durationMinutes)).Div(minutesPerHour)
	pay := p.HourlyRate.Mul(hours)
	return Earnings{Hours: hours, HourlyPay: pay, Total: pay}
}

// FixedPlan pays a flat amount per qualifying appointment.
type FixedPlan struct {
	Amount decimal.Decimal
}

func (p FixedPlan) apply(decimal.Decimal, int) Earnings {
	return Earnings{Total: p.Amount}
}

// HourlyPlusCommissionPlan pays an hourly portion plus commission on
// revenue. Only the hourly portion accrues into the hours/hourly-pay
// buckets.
type HourlyPlusCommissionPlan struct {
	HourlyRate decimal.Decimal
	Rate       decimal.Decimal
}

func (p HourlyPlusCommissionPlan) apply(revenue decimal.Decimal, durationMinutes int) Earnings {
	hours := decimal.NewFromInt(int64(durationMinutes)).Div(minutesPerHour)
	hourly := p.HourlyRate.Mul(hours)
	return Earnings{
		Hours:     hours,
		HourlyPay: hourly,
		Total:     hourly.Add(revenue.Mul(p.Rate)),
	}
}

// PlanFor builds the staff member's plan for one service, with the
// (staff, service) effective rates already resolved. A model string the
// roster feed invented returns (nil, false); the caller books zero earnings
// for the appointment rather than failing the run.
func PlanFor(staff StaffMember, rates EffectiveRates) (CompensationPlan, bool) {
	switch staff.CommissionType {
	case ModelCommission:
		return CommissionPlan{Rate: rates.Commission}, true
	case ModelHourly:
		return HourlyPlan{HourlyRate: rates.Hourly}, true
	case ModelFixed:
		return FixedPlan{Amount: rates.Fixed}, true
	case ModelHourlyPlusCommission:
		return HourlyPlusCommissionPlan{HourlyRate: rates.Hourly, Rate: rates.Commission}, true
	}
	return nil, false
}
