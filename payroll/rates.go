/*
rates.go - Effective rate resolution

PURPOSE:
  One function, one precedence order: a (staff, service) override beats the
  staff member's base rates, absence falls back to the base. The
  "prefer override, else base" chain lives here and nowhere else.

RATE ENCODING:
  Override commission rates arrive in two encodings: a fraction (0.4) or a
  whole-number percentage (40). NormalizeRate folds both to a fraction.
  The heuristic is ambiguous for values in (1, 2) meant as sub-2%
  percentages; preserved as-is because stored data relies on it.
*/
package payroll

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// NormalizeRate folds a commission rate to a 0-1 fraction: any value above 1
// is read as a whole-number percentage and divided by 100.
func NormalizeRate(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(one) {
		return rate.Div(hundred)
	}
	return rate
}

// EffectiveRates are the rates in force for one (staff, service) pairing.
type EffectiveRates struct {
	Commission decimal.Decimal // fraction 0-1
	Hourly     decimal.Decimal // dollars per hour
	Fixed      decimal.Decimal // dollars per appointment
}

// ResolveRates applies the override precedence. The override's custom flat
// rate stands in for both the hourly and the fixed rate; its custom
// commission rate is normalized, while the staff base rate is trusted to
// already be a fraction.
func ResolveRates(staff StaffMember, override *RateOverride) EffectiveRates {
	rates := EffectiveRates{
		Commission: staff.CommissionRate,
		Hourly:     staff.HourlyRate,
		Fixed:      staff.FixedRate,
	}
	if override == nil {
		return rates
	}
	if override.CustomCommissionRate != nil {
		rates.Commission = NormalizeRate(*override.CustomCommissionRate)
	}
	if override.CustomRate != nil {
		rates.Hourly = *override.CustomRate
		rates.Fixed = *override.CustomRate
	}
	return rates
}

// overrideKey indexes rate overrides by their (staff, service) pair.
type overrideKey struct {
	staff   StaffID
	service ServiceID
}

// indexOverrides builds the lookup map. Later rows win on duplicates, which
// matches how the console edits overrides in place.
func indexOverrides(overrides []RateOverride) map[overrideKey]*RateOverride {
	idx := make(map[overrideKey]*RateOverride, len(overrides))
	for i := range overrides {
		ov := &overrides[i]
		idx[overrideKey{staff: ov.StaffID, service: ov.ServiceID}] = ov
	}
	return idx
}
