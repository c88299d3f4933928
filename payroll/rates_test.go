package payroll_test

import (
	"testing"

	"github.com/glohq/payroll-engine/payroll"
)

func TestNormalizeRate_FoldsPercentagesToFractions(t *testing.T) {
	// GIVEN: Rates in both encodings
	// WHEN: Normalizing
	// THEN: 40 and 0.40 both become 0.40; 1 and below pass through

	cases := []struct {
		in   string
		want string
	}{
		{"0.40", "0.40"},
		{"40", "0.40"},
		{"1", "1"},
		{"100", "1"},
		{"0", "0"},
		{"1.5", "0.015"},
	}
	for _, tc := range cases {
		got := payroll.NormalizeRate(dec(tc.in))
		if !got.Equal(dec(tc.want)) {
			t.Errorf("NormalizeRate(%s): expected %s, got %s", tc.in, tc.want, got)
		}
	}
}

func TestResolveRates_OverridePrecedence(t *testing.T) {
	// GIVEN: Staff base rates and a full override
	// WHEN: Resolving with and without the override
	// THEN: Override wins where set; the custom flat rate replaces both the
	//       hourly and the fixed rate

	staff := payroll.StaffMember{
		ID:             1,
		CommissionType: "commission",
		CommissionRate: dec("0.20"),
		HourlyRate:     dec("18"),
		FixedRate:      dec("45"),
	}

	base := payroll.ResolveRates(staff, nil)
	if !base.Commission.Equal(dec("0.20")) || !base.Hourly.Equal(dec("18")) || !base.Fixed.Equal(dec("45")) {
		t.Errorf("expected base rates to pass through, got %+v", base)
	}

	ov := &payroll.RateOverride{
		StaffID:              1,
		ServiceID:            100,
		CustomRate:           decp("60"),
		CustomCommissionRate: decp("35"),
	}
	got := payroll.ResolveRates(staff, ov)
	if !got.Commission.Equal(dec("0.35")) {
		t.Errorf("expected normalized override commission 0.35, got %s", got.Commission)
	}
	if !got.Hourly.Equal(dec("60")) || !got.Fixed.Equal(dec("60")) {
		t.Errorf("expected custom rate 60 for hourly and fixed, got %+v", got)
	}
}

func TestResolveRates_PartialOverride_KeepsBaseForRest(t *testing.T) {
	// GIVEN: Override setting only the commission rate
	// WHEN: Resolving
	// THEN: Hourly and fixed stay at the staff base

	staff := payroll.StaffMember{
		ID:             1,
		CommissionRate: dec("0.20"),
		HourlyRate:     dec("18"),
		FixedRate:      dec("45"),
	}
	ov := &payroll.RateOverride{StaffID: 1, ServiceID: 100, CustomCommissionRate: decp("0.5")}

	got := payroll.ResolveRates(staff, ov)
	if !got.Commission.Equal(dec("0.5")) {
		t.Errorf("expected commission 0.5, got %s", got.Commission)
	}
	if !got.Hourly.Equal(dec("18")) || !got.Fixed.Equal(dec("45")) {
		t.Errorf("expected base hourly/fixed preserved, got %+v", got)
	}
}
