/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	salon data for testing and demos. Each scenario creates staff, services,
	appointments and payments that demonstrate specific engine behavior.

AVAILABLE SCENARIOS:

	full-salon: All four compensation models with a clean month of checkouts
	dirty-feed: Split checkouts, orphaned paid flags, refunds, bad timestamps

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Seed users, staff, services and rate overrides
 3. Seed appointments and payments in the current month
 4. Set the business timezone

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "full-salon"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Report handlers the scenarios feed
  - payroll/engine.go: The behavior each scenario demonstrates
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/glohq/payroll-engine/payroll"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "full-salon",
		Name:        "Full Salon",
		Description: "All four compensation models with a clean month of checkouts",
	},
	{
		ID:          "dirty-feed",
		Name:        "Dirty Feed",
		Description: "Split checkouts, orphaned paid flags, refunds and a per-service rate override",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "full-salon":
		err = h.loadFullSalonScenario(ctx)
	case "dirty-feed":
		err = h.loadDirtyFeedScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "scenario": req.ScenarioID})
}

// ResetDatabase wipes all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seed is the shared scaffolding both scenarios start from: a timezone,
// a directory, and a service catalog.
func (h *Handler) seedSalonBasics(ctx context.Context) error {
	if err := h.Store.SetSetting(ctx, SettingTimezone, "America/New_York"); err != nil {
		return err
	}

	users := []payroll.User{
		{ID: 10, FirstName: "Ana", LastName: "Reyes"},
		{ID: 11, FirstName: "Marcus", LastName: "Webb"},
		{ID: 12, FirstName: "Dina", LastName: "Okafor"},
		{ID: 13, FirstName: "Leo", LastName: "Tanaka"},
		{ID: 20, FirstName: "Ben", LastName: "Cole"},
		{ID: 21, FirstName: "Cara", LastName: "Ibanez"},
		{ID: 22, FirstName: "Tom", LastName: "Hale"},
	}
	for _, u := range users {
		if err := h.Store.SaveUser(ctx, u); err != nil {
			return err
		}
	}

	services := []payroll.Service{
		{ID: 100, Name: "Haircut", Category: "Hair", Price: decimal.NewFromInt(80), DurationMinutes: 60},
		{ID: 101, Name: "Color", Category: "Hair", Price: decimal.NewFromInt(150), DurationMinutes: 120},
		{ID: 102, Name: "Blowout", Category: "Hair", Price: decimal.NewFromInt(50), DurationMinutes: 30},
		{ID: 103, Name: "Manicure", Category: "Nails", Price: decimal.NewFromInt(45), DurationMinutes: 45},
	}
	for _, svc := range services {
		if err := h.Store.SaveService(ctx, svc); err != nil {
			return err
		}
	}
	return nil
}

// thisMonth returns a timestamp on the given day of the current month so a
// default report immediately shows the scenario.
func thisMonth(day, hour int) time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), day, hour, 0, 0, 0, time.UTC)
}

// loadFullSalonScenario seeds one staff member per compensation model with
// clean, fully settled appointments.
func (h *Handler) loadFullSalonScenario(ctx context.Context) error {
	if err := h.seedSalonBasics(ctx); err != nil {
		return err
	}

	staff := []payroll.StaffMember{
		{ID: 1, UserID: 10, Title: "Senior Stylist", CommissionType: payroll.ModelCommission,
			CommissionRate: decimal.NewFromFloat(0.45)},
		{ID: 2, UserID: 11, Title: "Assistant", CommissionType: payroll.ModelHourly,
			HourlyRate: decimal.NewFromInt(22)},
		{ID: 3, UserID: 12, Title: "Barber", CommissionType: payroll.ModelFixed,
			FixedRate: decimal.NewFromInt(40)},
		{ID: 4, UserID: 13, Title: "Stylist", CommissionType: payroll.ModelHourlyPlusCommission,
			HourlyRate: decimal.NewFromInt(15), CommissionRate: decimal.NewFromFloat(0.15)},
	}
	for _, m := range staff {
		if err := h.Store.SaveStaff(ctx, m); err != nil {
			return err
		}
	}

	type booking struct {
		appt    payroll.AppointmentID
		staff   payroll.StaffID
		service payroll.ServiceID
		client  payroll.ClientID
		day     int
		total   int64
		tip     int64
	}
	bookings := []booking{
		{1000, 1, 100, 20, 3, 88, 8},
		{1001, 1, 101, 21, 5, 165, 15},
		{1002, 2, 102, 22, 6, 55, 5},
		{1003, 3, 100, 20, 8, 90, 10},
		{1004, 3, 100, 22, 9, 80, 0},
		{1005, 4, 101, 21, 10, 160, 10},
	}

	for i, b := range bookings {
		appt := payroll.Appointment{
			ID:            b.appt,
			StaffID:       b.staff,
			ServiceID:     b.service,
			ClientID:      b.client,
			StartTime:     thisMonth(b.day, 10),
			Status:        payroll.AppointmentCompleted,
			PaymentStatus: payroll.PaymentStatusPaid,
		}
		if err := h.Store.SaveAppointment(ctx, appt); err != nil {
			return err
		}

		payment := payroll.Payment{
			ID:            payroll.PaymentID(i + 1),
			AppointmentID: b.appt,
			Status:        payroll.PaymentCompleted,
			Type:          payroll.PaymentTypeAppointment,
			TotalAmount:   decimal.NewFromInt(b.total),
			TipAmount:     decimal.NewFromInt(b.tip),
			PaidAt:        thisMonth(b.day, 11),
		}
		if err := h.Store.SavePayment(ctx, payment); err != nil {
			return err
		}
	}

	return nil
}

// loadDirtyFeedScenario seeds the edge cases the engine exists for: a split
// checkout, a paid flag with no money behind it, a refund, a product sale
// and a rate override.
func (h *Handler) loadDirtyFeedScenario(ctx context.Context) error {
	if err := h.seedSalonBasics(ctx); err != nil {
		return err
	}

	staff := []payroll.StaffMember{
		{ID: 1, UserID: 10, Title: "Senior Stylist", CommissionType: payroll.ModelCommission,
			CommissionRate: decimal.NewFromFloat(0.40)},
		{ID: 2, UserID: 11, Title: "Stylist", CommissionType: payroll.ModelCommission,
			CommissionRate: decimal.NewFromFloat(0.35)},
	}
	for _, m := range staff {
		if err := h.Store.SaveStaff(ctx, m); err != nil {
			return err
		}
	}

	// Override stored percent-encoded, the way the console writes it.
	fifty := decimal.NewFromInt(50)
	if err := h.Store.SaveRateOverride(ctx, payroll.RateOverride{
		StaffID: 1, ServiceID: 101, CustomCommissionRate: &fifty,
	}); err != nil {
		return err
	}

	appointments := []payroll.Appointment{
		// Split checkout: settled in two payments
		{ID: 2000, StaffID: 1, ServiceID: 101, ClientID: 20, StartTime: thisMonth(4, 9),
			Status: payroll.AppointmentCompleted, PaymentStatus: payroll.PaymentStatusPaid},
		// Paid flag with no payment row behind it
		{ID: 2001, StaffID: 1, ServiceID: 100, ClientID: 21, StartTime: thisMonth(6, 9),
			Status: payroll.AppointmentCompleted, PaymentStatus: payroll.PaymentStatusPaid},
		// Refunded checkout
		{ID: 2002, StaffID: 2, ServiceID: 100, ClientID: 22, StartTime: thisMonth(7, 9),
			Status: payroll.AppointmentCompleted, PaymentStatus: payroll.PaymentStatusPaid},
		// Clean checkout for the second stylist
		{ID: 2003, StaffID: 2, ServiceID: 102, ClientID: 21, StartTime: thisMonth(8, 9),
			Status: payroll.AppointmentCompleted, PaymentStatus: payroll.PaymentStatusPaid},
	}
	for _, a := range appointments {
		if err := h.Store.SaveAppointment(ctx, a); err != nil {
			return err
		}
	}

	payments := []payroll.Payment{
		{ID: 1, AppointmentID: 2000, Status: payroll.PaymentCompleted,
			Type: payroll.PaymentTypeAppointment, TotalAmount: decimal.NewFromInt(100),
			TipAmount: decimal.Zero, PaidAt: thisMonth(4, 10)},
		{ID: 2, AppointmentID: 2000, Status: payroll.PaymentCompleted,
			Type: payroll.PaymentTypeAppointment, TotalAmount: decimal.NewFromInt(65),
			TipAmount: decimal.NewFromInt(15), PaidAt: thisMonth(4, 10)},
		{ID: 3, AppointmentID: 2002, Status: "refunded",
			Type: payroll.PaymentTypeAppointment, TotalAmount: decimal.NewFromInt(80),
			TipAmount: decimal.Zero, PaidAt: thisMonth(7, 10)},
		// Product sale, never payroll money
		{ID: 4, AppointmentID: 2003, Status: payroll.PaymentCompleted,
			Type: "product_sale", TotalAmount: decimal.NewFromInt(35),
			TipAmount: decimal.Zero, PaidAt: thisMonth(8, 10)},
		{ID: 5, AppointmentID: 2003, Status: payroll.PaymentCompleted,
			Type: payroll.PaymentTypeAppointment, TotalAmount: decimal.NewFromInt(55),
			TipAmount: decimal.NewFromInt(5), PaidAt: thisMonth(8, 10)},
	}
	for _, p := range payments {
		if err := h.Store.SavePayment(ctx, p); err != nil {
			return err
		}
	}

	return nil
}
