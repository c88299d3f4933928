package payroll_test

import (
	"errors"
	"testing"
	"time"

	"github.com/glohq/payroll-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// newYorkResolver is pinned to mid-March 2024 Eastern time.
func newYorkResolver(t *testing.T) *payroll.RangeResolver {
	t.Helper()
	fixed := func() time.Time {
		return time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	}
	r, err := payroll.NewRangeResolverAt("America/New_York", fixed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func wantLocalBound(t *testing.T, name string, got time.Time, year int, month time.Month, day, hour, min, sec int) {
	t.Helper()
	want := time.Date(year, month, day, hour, min, sec, 0, got.Location())
	if sec == 59 {
		want = want.Add(999 * time.Millisecond)
	}
	if !got.Equal(want) {
		t.Errorf("%s: expected %v, got %v", name, want, got)
	}
}

// =============================================================================
// KEYWORD TESTS
// =============================================================================

func TestResolve_Day_CoversLocalToday(t *testing.T) {
	// GIVEN: Clock at 2024-03-15 10:30 UTC, business in America/New_York
	// WHEN: Resolving "day"
	// THEN: Local midnight through local 23:59:59.999 of March 15

	rng := newYorkResolver(t).Resolve(payroll.RangeRequest{Period: payroll.PeriodDay})

	wantLocalBound(t, "start", rng.Start, 2024, time.March, 15, 0, 0, 0)
	wantLocalBound(t, "end", rng.End, 2024, time.March, 15, 23, 59, 59)
	if rng.Defaulted {
		t.Error("expected Defaulted=false")
	}
}

func TestResolve_Week_SevenDaysInclusive(t *testing.T) {
	// GIVEN: Today is March 15
	// WHEN: Resolving "week"
	// THEN: March 9 through March 15, seven calendar days

	rng := newYorkResolver(t).Resolve(payroll.RangeRequest{Period: payroll.PeriodWeek})

	wantLocalBound(t, "start", rng.Start, 2024, time.March, 9, 0, 0, 0)
	wantLocalBound(t, "end", rng.End, 2024, time.March, 15, 23, 59, 59)
}

func TestResolve_Month_ReferenceMonthAnchored(t *testing.T) {
	// GIVEN: Reference month pointing at February 2024
	// WHEN: Resolving "month"
	// THEN: February 1 through February 29 (leap year)

	rng := newYorkResolver(t).Resolve(payroll.RangeRequest{
		Period:         payroll.PeriodMonth,
		ReferenceMonth: time.Date(2024, time.February, 10, 12, 0, 0, 0, time.UTC),
	})

	wantLocalBound(t, "start", rng.Start, 2024, time.February, 1, 0, 0, 0)
	wantLocalBound(t, "end", rng.End, 2024, time.February, 29, 23, 59, 59)
}

func TestResolve_Quarter_RollingThreeMonths(t *testing.T) {
	// GIVEN: Today is March 15
	// WHEN: Resolving "quarter"
	// THEN: December 15 through today, not a calendar quarter

	rng := newYorkResolver(t).Resolve(payroll.RangeRequest{Period: payroll.PeriodQuarter})

	wantLocalBound(t, "start", rng.Start, 2023, time.December, 15, 0, 0, 0)
	wantLocalBound(t, "end", rng.End, 2024, time.March, 15, 23, 59, 59)
}

// =============================================================================
// CUSTOM RANGE AND TIMEZONE TESTS
// =============================================================================

func TestResolve_Custom_BusinessLocalBounds(t *testing.T) {
	// GIVEN: Custom range 2024-01-01..2024-01-31 for a New York business
	// WHEN: Testing instants near the end bound
	// THEN: 23:30 Eastern on Jan 31 is inside, 00:05 Eastern on Feb 1 is not

	rng := newYorkResolver(t).Resolve(payroll.RangeRequest{
		Period:      payroll.PeriodCustom,
		CustomStart: "2024-01-01",
		CustomEnd:   "2024-01-31",
	})

	eastern := rng.Start.Location()
	inside := time.Date(2024, time.January, 31, 23, 30, 0, 0, eastern)
	outside := time.Date(2024, time.February, 1, 0, 5, 0, 0, eastern)

	if !rng.Contains(inside) {
		t.Errorf("expected %v inside the window", inside)
	}
	if rng.Contains(outside) {
		t.Errorf("expected %v outside the window", outside)
	}
}

func TestResolve_CustomMissingBound_DefaultsToCurrentMonth(t *testing.T) {
	// GIVEN: Custom request with no end date
	// WHEN: Resolving
	// THEN: Current month with Defaulted=true, never an error

	rng := newYorkResolver(t).Resolve(payroll.RangeRequest{
		Period:      payroll.PeriodCustom,
		CustomStart: "2024-01-01",
	})

	if !rng.Defaulted {
		t.Fatal("expected Defaulted=true")
	}
	wantLocalBound(t, "start", rng.Start, 2024, time.March, 1, 0, 0, 0)
	wantLocalBound(t, "end", rng.End, 2024, time.March, 31, 23, 59, 59)
}

func TestResolve_UnknownKeyword_DefaultsToCurrentMonth(t *testing.T) {
	// GIVEN: A keyword the resolver does not know
	// WHEN: Resolving
	// THEN: Current month with Defaulted=true

	rng := newYorkResolver(t).Resolve(payroll.RangeRequest{Period: "fortnight"})

	if !rng.Defaulted {
		t.Fatal("expected Defaulted=true")
	}
	wantLocalBound(t, "start", rng.Start, 2024, time.March, 1, 0, 0, 0)
}

func TestNewRangeResolver_UnknownZone_Rejected(t *testing.T) {
	// GIVEN: A garbage IANA zone name
	// WHEN: Building the resolver
	// THEN: ErrUnknownTimezone, with the zone recoverable from the error

	_, err := payroll.NewRangeResolver("Mars/Olympus_Mons")
	if !errors.Is(err, payroll.ErrUnknownTimezone) {
		t.Fatalf("expected ErrUnknownTimezone, got %v", err)
	}
	var tz *payroll.UnknownTimezoneError
	if !errors.As(err, &tz) || tz.Zone != "Mars/Olympus_Mons" {
		t.Errorf("expected zone preserved in error, got %v", err)
	}
}
