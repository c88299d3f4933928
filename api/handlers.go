/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payroll reconciliation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Reports:
    GET    /api/payroll/report             Period payroll report
    GET    /api/payroll/report/staff/{id}  Per-staff audit detail

  History:
    GET    /api/payroll/history            List frozen payroll runs
    POST   /api/payroll/history            Compute and freeze a run

  Ingest (bulk upsert, one feed per endpoint):
    POST   /api/staff /api/users /api/services
    POST   /api/appointments /api/payments /api/rates

  Settings:
    GET    /api/settings                   Business settings
    PUT    /api/settings                   Update business settings

  Scenarios:
    GET    /api/scenarios                  List demo scenarios
    POST   /api/scenarios/load             Load a demo scenario
    POST   /api/scenarios/reset            Wipe the database

REQUEST FLOW:
  1. Parse HTTP request
  2. Load the input snapshot from the store
  3. Call the engine (pure computation)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Staff member not found
  - 500: Storage or engine failures

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/glohq/payroll-engine/payroll"
)

// SettingTimezone is the business_settings key holding the IANA timezone.
const SettingTimezone = "timezone"

// =============================================================================
// STORAGE DEPENDENCY
// =============================================================================

// Store is the persistence surface the handlers need. Both store/sqlite and
// store/postgres satisfy it.
type Store interface {
	SaveStaff(ctx context.Context, m payroll.StaffMember) error
	ListStaff(ctx context.Context) ([]payroll.StaffMember, error)
	SaveUser(ctx context.Context, u payroll.User) error
	ListUsers(ctx context.Context) ([]payroll.User, error)
	SaveService(ctx context.Context, svc payroll.Service) error
	ListServices(ctx context.Context) ([]payroll.Service, error)
	SaveAppointment(ctx context.Context, a payroll.Appointment) error
	ListAppointments(ctx context.Context) ([]payroll.Appointment, error)
	SavePayment(ctx context.Context, p payroll.Payment) error
	ListPayments(ctx context.Context) ([]payroll.Payment, error)
	SaveRateOverride(ctx context.Context, o payroll.RateOverride) error
	ListRateOverrides(ctx context.Context) ([]payroll.RateOverride, error)

	LoadSnapshot(ctx context.Context) (payroll.Snapshot, error)

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	SaveHistory(ctx context.Context, rec payroll.HistoryRecord) error
	ListHistory(ctx context.Context) ([]payroll.HistoryRecord, error)

	Reset(ctx context.Context) error
}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store Store

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store) *Handler {
	return &Handler{Store: store}
}

// resolver builds a range resolver in the business timezone. An unset
// timezone setting means the server's local zone.
func (h *Handler) resolver(ctx context.Context) (*payroll.RangeResolver, error) {
	tz, err := h.Store.GetSetting(ctx, SettingTimezone)
	if err != nil {
		return nil, err
	}
	return payroll.NewRangeResolver(tz)
}

// rangeRequest maps report query parameters onto the resolver's request.
func rangeRequest(r *http.Request) payroll.RangeRequest {
	q := r.URL.Query()
	req := payroll.RangeRequest{
		Period:      q.Get("period"),
		CustomStart: q.Get("start_date"),
		CustomEnd:   q.Get("end_date"),
	}
	if month := q.Get("month"); month != "" {
		if t, err := time.Parse("2006-01", month); err == nil {
			req.ReferenceMonth = t
		}
	}
	return req
}

func (h *Handler) periodDTO(window payroll.DateRange, loc *time.Location) PeriodDTO {
	return PeriodDTO{
		Start:     window.Start.Format(time.RFC3339),
		End:       window.End.Format(time.RFC3339),
		Timezone:  loc.String(),
		Defaulted: window.Defaulted,
	}
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetReport computes the payroll report for the requested period.
// GET /api/payroll/report?period=month&month=2024-01
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resolver, err := h.resolver(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Invalid business timezone", err)
		return
	}
	window := resolver.Resolve(rangeRequest(r))

	snap, err := h.Store.LoadSnapshot(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load payroll data", err)
		return
	}

	summaries, err := payroll.Summarize(snap, window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute report", err)
		return
	}

	dtos := make([]StaffSummaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = toSummaryDTO(s)
	}

	writeJSON(w, http.StatusOK, ReportResponse{
		Period: h.periodDTO(window, resolver.Location()),
		Staff:  dtos,
	})
}

// GetStaffDetail computes the audit view for one staff member.
// GET /api/payroll/report/staff/{id}?period=month
func (h *Handler) GetStaffDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid staff id", err)
		return
	}

	resolver, err := h.resolver(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Invalid business timezone", err)
		return
	}
	window := resolver.Resolve(rangeRequest(r))

	snap, err := h.Store.LoadSnapshot(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load payroll data", err)
		return
	}

	detail, err := payroll.Detail(snap, window, payroll.StaffID(id))
	if errors.Is(err, payroll.ErrStaffNotFound) {
		writeError(w, http.StatusNotFound, "Staff member not found", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute detail", err)
		return
	}

	lines := make([]LineItemDTO, len(detail.Lines))
	for i, line := range detail.Lines {
		lines[i] = toLineItemDTO(line)
	}

	writeJSON(w, http.StatusOK, DetailResponse{
		Period:  h.periodDTO(window, resolver.Location()),
		Summary: toSummaryDTO(detail.Summary),
		Lines:   lines,
	})
}

// =============================================================================
// HISTORY HANDLERS
// =============================================================================

// ListHistory returns frozen payroll runs, newest first.
// GET /api/payroll/history
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListHistory(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payroll history", err)
		return
	}

	dtos := make([]HistoryDTO, len(records))
	for i, rec := range records {
		dtos[i] = toHistoryDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GenerateHistory computes the report for a period and freezes it.
// POST /api/payroll/history
func (h *Handler) GenerateHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req GenerateHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resolver, err := h.resolver(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Invalid business timezone", err)
		return
	}

	rangeReq := payroll.RangeRequest{
		Period:      req.Period,
		CustomStart: req.StartDate,
		CustomEnd:   req.EndDate,
	}
	if req.Month != "" {
		if t, err := time.Parse("2006-01", req.Month); err == nil {
			rangeReq.ReferenceMonth = t
		}
	}
	window := resolver.Resolve(rangeReq)

	snap, err := h.Store.LoadSnapshot(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load payroll data", err)
		return
	}

	summaries, err := payroll.Summarize(snap, window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute report", err)
		return
	}

	periodType := req.Period
	if window.Defaulted {
		periodType = payroll.PeriodMonth
	}
	rec, err := payroll.BuildHistory(summaries, window, periodType, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to freeze payroll run", err)
		return
	}

	if err := h.Store.SaveHistory(ctx, rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save payroll run", err)
		return
	}

	writeJSON(w, http.StatusCreated, toHistoryDTO(rec))
}

// =============================================================================
// INGEST HANDLERS
// =============================================================================

// ingest decodes a JSON array and upserts each element through save.
func ingest[T any](w http.ResponseWriter, r *http.Request, save func(context.Context, T) error) {
	var inputs []T
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	for _, in := range inputs {
		if err := save(r.Context(), in); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save record", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]int{"saved": len(inputs)})
}

// IngestStaff bulk-upserts roster rows.
// POST /api/staff
func (h *Handler) IngestStaff(w http.ResponseWriter, r *http.Request) {
	ingest(w, r, func(ctx context.Context, in StaffInput) error {
		return h.Store.SaveStaff(ctx, payroll.StaffMember{
			ID:             payroll.StaffID(in.ID),
			UserID:         payroll.UserID(in.UserID),
			Title:          in.Title,
			CommissionType: in.CommissionType,
			CommissionRate: decimal.NewFromFloat(in.CommissionRate),
			HourlyRate:     decimal.NewFromFloat(in.HourlyRate),
			FixedRate:      decimal.NewFromFloat(in.FixedRate),
		})
	})
}

// IngestUsers bulk-upserts directory entries.
// POST /api/users
func (h *Handler) IngestUsers(w http.ResponseWriter, r *http.Request) {
	ingest(w, r, func(ctx context.Context, in UserInput) error {
		return h.Store.SaveUser(ctx, payroll.User{
			ID:        payroll.UserID(in.ID),
			FirstName: in.FirstName,
			LastName:  in.LastName,
		})
	})
}

// IngestServices bulk-upserts catalog entries.
// POST /api/services
func (h *Handler) IngestServices(w http.ResponseWriter, r *http.Request) {
	ingest(w, r, func(ctx context.Context, in ServiceInput) error {
		return h.Store.SaveService(ctx, payroll.Service{
			ID:              payroll.ServiceID(in.ID),
			Name:            in.Name,
			Category:        in.Category,
			Price:           decimal.NewFromFloat(in.Price),
			DurationMinutes: in.DurationMinutes,
		})
	})
}

// IngestAppointments bulk-upserts calendar rows.
// POST /api/appointments
func (h *Handler) IngestAppointments(w http.ResponseWriter, r *http.Request) {
	ingest(w, r, func(ctx context.Context, in AppointmentInput) error {
		start, _ := time.Parse(time.RFC3339, in.StartTime)
		return h.Store.SaveAppointment(ctx, payroll.Appointment{
			ID:            payroll.AppointmentID(in.ID),
			StaffID:       payroll.StaffID(in.StaffID),
			ServiceID:     payroll.ServiceID(in.ServiceID),
			ClientID:      payroll.ClientID(in.ClientID),
			StartTime:     start,
			Status:        in.Status,
			PaymentStatus: in.PaymentStatus,
		})
	})
}

// IngestPayments bulk-upserts checkout rows. An unparsable paid_at is kept
// as unknown; validation drops it from reports rather than rejecting the
// whole batch.
// POST /api/payments
func (h *Handler) IngestPayments(w http.ResponseWriter, r *http.Request) {
	ingest(w, r, func(ctx context.Context, in PaymentInput) error {
		paidAt, _ := time.Parse(time.RFC3339, in.PaidAt)
		p := payroll.Payment{
			ID:            payroll.PaymentID(in.ID),
			AppointmentID: payroll.AppointmentID(in.AppointmentID),
			Status:        in.Status,
			Type:          in.Type,
			TotalAmount:   decimal.NewFromFloat(in.TotalAmount),
			TipAmount:     decimal.NewFromFloat(in.TipAmount),
			PaidAt:        paidAt,
		}
		if in.Amount != nil {
			v := decimal.NewFromFloat(*in.Amount)
			p.Amount = &v
		}
		return h.Store.SavePayment(ctx, p)
	})
}

// IngestRateOverrides bulk-upserts rate exceptions.
// POST /api/rates
func (h *Handler) IngestRateOverrides(w http.ResponseWriter, r *http.Request) {
	ingest(w, r, func(ctx context.Context, in RateOverrideInput) error {
		o := payroll.RateOverride{
			StaffID:   payroll.StaffID(in.StaffID),
			ServiceID: payroll.ServiceID(in.ServiceID),
		}
		if in.CustomRate != nil {
			v := decimal.NewFromFloat(*in.CustomRate)
			o.CustomRate = &v
		}
		if in.CustomCommissionRate != nil {
			v := decimal.NewFromFloat(*in.CustomCommissionRate)
			o.CustomCommissionRate = &v
		}
		return h.Store.SaveRateOverride(ctx, o)
	})
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns the business settings.
// GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	tz, err := h.Store.GetSetting(r.Context(), SettingTimezone)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsDTO{Timezone: tz})
}

// UpdateSettings updates the business settings. The timezone must resolve
// as an IANA zone before it is accepted.
// PUT /api/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if _, err := payroll.NewRangeResolver(req.Timezone); err != nil {
		writeError(w, http.StatusBadRequest, "Unknown timezone", err)
		return
	}

	if err := h.Store.SetSetting(r.Context(), SettingTimezone, req.Timezone); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
