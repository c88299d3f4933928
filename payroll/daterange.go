/*
daterange.go - Period keyword to instant-pair resolution

PURPOSE:
  Converts a requested period keyword (day/week/month/...) plus the business
  timezone into an inclusive [start, end] pair of absolute instants. Start is
  local midnight of the first day, end is local 23:59:59.999 of the last day.

KEYWORDS:
  day        today only
  yesterday  the previous calendar day
  week       the 7 days ending today, inclusive
  month      the calendar month of ReferenceMonth (default: current month)
  quarter    rolling 3-month lookback ending today (not calendar-aligned)
  year       rolling 12-month lookback ending today (not calendar-aligned)
  custom     CustomStart..CustomEnd, parsed as business-local calendar dates

SOFT DEFAULT:
  An unknown keyword, or a custom request with missing/unparsable bounds,
  resolves to the current calendar month instead of failing. The returned
  range carries Defaulted=true so callers can surface it. Report availability
  wins over strict window validation here; revisit if callers start relying
  on the fallback.

PURITY:
  Every range is built from fresh time.Date calls. Nothing is mutated in
  place, so resolution order can never corrupt a bound.
*/
package payroll

import (
	"time"
)

// Period keywords accepted by Resolve.
const (
	PeriodDay       = "day"
	PeriodYesterday = "yesterday"
	PeriodWeek      = "week"
	PeriodMonth     = "month"
	PeriodQuarter   = "quarter"
	PeriodYear      = "year"
	PeriodCustom    = "custom"
)

// DateRange is an inclusive window of absolute instants.
type DateRange struct {
	Start time.Time
	End   time.Time

	// Defaulted is true when the request was malformed and the resolver
	// fell back to the current calendar month.
	Defaulted bool
}

// Contains reports whether t falls inside the window, inclusive at both
// bounds.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// RangeRequest describes the period a caller wants.
type RangeRequest struct {
	Period      string
	CustomStart string // YYYY-MM-DD, business-local; custom only
	CustomEnd   string // YYYY-MM-DD, business-local; custom only

	// ReferenceMonth anchors the "month" keyword. Zero means the current
	// month.
	ReferenceMonth time.Time
}

// =============================================================================
// RESOLVER
// =============================================================================

// RangeResolver resolves range requests in a fixed business timezone.
type RangeResolver struct {
	loc *time.Location
	now func() time.Time
}

// NewRangeResolver builds a resolver for the given IANA timezone. An empty
// string falls back to the system timezone (the business never configured
// one). An unloadable zone is a reportable error, not a soft default.
func NewRangeResolver(tz string) (*RangeResolver, error) {
	if tz == "" {
		return &RangeResolver{loc: time.Local, now: time.Now}, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, &UnknownTimezoneError{Zone: tz, Err: err}
	}
	return &RangeResolver{loc: loc, now: time.Now}, nil
}

// NewRangeResolverAt is NewRangeResolver with a fixed clock, for tests and
// for recomputing historical reports as-of a known instant.
func NewRangeResolverAt(tz string, now func() time.Time) (*RangeResolver, error) {
	r, err := NewRangeResolver(tz)
	if err != nil {
		return nil, err
	}
	r.now = now
	return r, nil
}

// Location returns the resolver's business timezone.
func (r *RangeResolver) Location() *time.Location { return r.loc }

// Resolve turns a request into an inclusive instant window.
func (r *RangeResolver) Resolve(req RangeRequest) DateRange {
	today := r.now().In(r.loc)

	switch req.Period {
	case PeriodDay:
		return r.dayRange(today, today)

	case PeriodYesterday:
		y := today.AddDate(0, 0, -1)
		return r.dayRange(y, y)

	case PeriodWeek:
		return r.dayRange(today.AddDate(0, 0, -6), today)

	case PeriodMonth:
		ref := req.ReferenceMonth
		if ref.IsZero() {
			ref = today
		}
		// The reference carries a calendar month, not an instant; read its
		// own wall date rather than converting it into the business zone.
		return r.monthRange(ref)

	case PeriodQuarter:
		return r.dayRange(r.startOfDay(today).AddDate(0, -3, 0), today)

	case PeriodYear:
		return r.dayRange(r.startOfDay(today).AddDate(-1, 0, 0), today)

	case PeriodCustom:
		start, okStart := r.parseLocalDate(req.CustomStart)
		end, okEnd := r.parseLocalDate(req.CustomEnd)
		if !okStart || !okEnd {
			return r.defaulted(today)
		}
		return r.dayRange(start, end)

	default:
		return r.defaulted(today)
	}
}

// =============================================================================
// INTERVAL CONSTRUCTION - Pure, no in-place mutation
// =============================================================================

func (r *RangeResolver) dayRange(first, last time.Time) DateRange {
	return DateRange{Start: r.startOfDay(first), End: r.endOfDay(last)}
}

func (r *RangeResolver) monthRange(ref time.Time) DateRange {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, r.loc)
	last := first.AddDate(0, 1, -1)
	return DateRange{Start: first, End: r.endOfDay(last)}
}

func (r *RangeResolver) defaulted(today time.Time) DateRange {
	rng := r.monthRange(today)
	rng.Defaulted = true
	return rng
}

func (r *RangeResolver) startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.loc)
}

func (r *RangeResolver) endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, r.loc)
}

// parseLocalDate parses a YYYY-MM-DD string as a business-local date.
// Parsing in the business zone, not UTC, is what keeps a custom range from
// shifting off by one day for businesses west of Greenwich.
func (r *RangeResolver) parseLocalDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", s, r.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
