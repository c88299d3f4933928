/*
engine.go - Per-staff aggregation

PURPOSE:
  The top of the pipeline. Validates the snapshot, maps valid payments to
  appointments once, then walks the roster computing line items and rolling
  them into per-staff summaries.

CONTROL FLOW:
  ValidPayments (window-scoped, once per run)
    -> MapRevenue (per appointment)
    -> ResolveRates + PlanFor + apply (per eligible appointment)
    -> summary rollup (per staff)

DETERMINISM:
  Staff are processed in roster order and a staff member's appointments in
  (start time, id) order, so identical snapshots always produce identical
  output. There is no caching and no shared state; concurrent runs over
  different requests are safe.

WINDOW MEMBERSHIP:
  An appointment's window membership rides entirely on its payments: valid
  payments are already window-scoped, and an appointment with none of them
  contributes nothing even when its own start time is inside the window.
*/
package payroll

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Summarize computes one summary per staff member with qualifying activity
// in the window. Staff whose revenue, tips and commission are all zero are
// omitted; use Detail to inspect them anyway.
func Summarize(snap Snapshot, window DateRange) ([]StaffSummary, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	c := newComputation(snap, window)
	summaries := make([]StaffSummary, 0, len(snap.Staff))
	for _, staff := range snap.Staff {
		summary, _ := c.staffResult(staff)
		if summary.TotalRevenue.IsZero() && summary.TotalTips.IsZero() && summary.TotalCommission.IsZero() {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Detail computes the audit view for one staff member: the summary plus its
// line items, including the payments each line counted. Unlike Summarize it
// returns staff with zero qualifying activity.
func Detail(snap Snapshot, window DateRange, staffID StaffID) (*StaffDetail, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	c := newComputation(snap, window)
	for _, staff := range snap.Staff {
		if staff.ID != staffID {
			continue
		}
		summary, lines := c.staffResult(staff)
		return &StaffDetail{Summary: summary, Lines: lines}, nil
	}
	return nil, fmt.Errorf("staff %d: %w", staffID, ErrStaffNotFound)
}

// =============================================================================
// COMPUTATION STATE - Built once per run, read-only afterwards
// =============================================================================

type computation struct {
	users         map[UserID]User
	services      map[ServiceID]Service
	overrides     map[overrideKey]*RateOverride
	byAppointment map[AppointmentID][]Payment
	staffAppts    map[StaffID][]Appointment
}

func newComputation(snap Snapshot, window DateRange) *computation {
	c := &computation{
		users:         make(map[UserID]User, len(snap.Users)),
		services:      make(map[ServiceID]Service, len(snap.Services)),
		overrides:     indexOverrides(snap.RateOverrides),
		byAppointment: ValidPayments(snap.Payments, window),
		staffAppts:    make(map[StaffID][]Appointment),
	}
	for _, u := range snap.Users {
		c.users[u.ID] = u
	}
	for _, s := range snap.Services {
		c.services[s.ID] = s
	}
	for _, a := range snap.Appointments {
		c.staffAppts[a.StaffID] = append(c.staffAppts[a.StaffID], a)
	}
	for _, appts := range c.staffAppts {
		sort.Slice(appts, func(i, j int) bool {
			if !appts[i].StartTime.Equal(appts[j].StartTime) {
				return appts[i].StartTime.Before(appts[j].StartTime)
			}
			return appts[i].ID < appts[j].ID
		})
	}
	return c
}

// staffResult computes one staff member's summary and line items.
func (c *computation) staffResult(staff StaffMember) (StaffSummary, []LineItem) {
	summary := StaffSummary{
		StaffID:            staff.ID,
		StaffName:          c.staffName(staff),
		Title:              staff.Title,
		CommissionType:     staff.CommissionType,
		BaseCommissionRate: staff.CommissionRate,
		HourlyRate:         staff.HourlyRate,
		TotalRevenue:       decimal.Zero,
		TotalCommission:    decimal.Zero,
		TotalHours:         decimal.Zero,
		TotalHourlyPay:     decimal.Zero,
		TotalTips:          decimal.Zero,
		TotalEarnings:      decimal.Zero,
	}

	var lines []LineItem
	clients := make(map[ClientID]struct{})

	for _, appt := range c.staffAppts[staff.ID] {
		valid := c.byAppointment[appt.ID]
		rev, ok := MapRevenue(appt, valid)
		if !ok {
			continue
		}

		// Cannot price an appointment against a deleted service; skip it
		// entirely rather than book zero-priced earnings.
		svc, ok := c.services[appt.ServiceID]
		if !ok {
			continue
		}

		rates := ResolveRates(staff, c.overrides[overrideKey{staff: staff.ID, service: svc.ID}])

		var earned Earnings
		if plan, ok := PlanFor(staff, rates); ok {
			earned = plan.apply(rev.Revenue, svc.DurationMinutes)
		}

		lines = append(lines, LineItem{
			AppointmentID:   appt.ID,
			Date:            appt.StartTime,
			ClientID:        appt.ClientID,
			ClientName:      c.clientName(appt.ClientID),
			ServiceName:     svc.Name,
			DurationMinutes: svc.DurationMinutes,
			Revenue:         rev.Revenue,
			Tips:            rev.Tips,
			EffectiveRate:   rates.Commission,
			Hours:           earned.Hours,
			HourlyPay:       earned.HourlyPay,
			Earnings:        earned.Total,
			Payments:        valid,
		})

		clients[appt.ClientID] = struct{}{}

		summary.TotalRevenue = summary.TotalRevenue.Add(rev.Revenue)
		summary.TotalTips = summary.TotalTips.Add(rev.Tips)
		summary.TotalCommission = summary.TotalCommission.Add(earned.Total)
		summary.TotalHours = summary.TotalHours.Add(earned.Hours)
		summary.TotalHourlyPay = summary.TotalHourlyPay.Add(earned.HourlyPay)
	}

	summary.TotalAppointments = len(lines)
	summary.UniqueClients = len(clients)

	summary.TotalEarnings = summary.TotalCommission.Add(summary.TotalTips)
	if staff.CommissionType == ModelHourly {
		summary.TotalEarnings = summary.TotalHourlyPay.Add(summary.TotalTips)
	}

	return summary, lines
}

func (c *computation) staffName(staff StaffMember) string {
	if u, ok := c.users[staff.UserID]; ok {
		if name := u.FullName(); name != "" {
			return name
		}
	}
	return fmt.Sprintf("Staff %d", staff.ID)
}

func (c *computation) clientName(id ClientID) string {
	if u, ok := c.users[UserID(id)]; ok {
		if name := u.FullName(); name != "" {
			return name
		}
	}
	return "Unknown"
}
