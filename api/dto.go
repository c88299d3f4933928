/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Input: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Internally everything is decimal.Decimal. DTOs expose float64 because
  the report UI consumes plain JSON numbers; rounding happens exactly once,
  at this boundary.

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/types.go: The domain records behind them
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/glohq/payroll-engine/payroll"
)

// =============================================================================
// REPORT RESPONSES
// =============================================================================

// PeriodDTO describes the resolved reporting window.
type PeriodDTO struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Timezone  string `json:"timezone"`
	Defaulted bool   `json:"defaulted,omitempty"`
}

// StaffSummaryDTO is one staff member's rollup in the report response.
type StaffSummaryDTO struct {
	StaffID           int64   `json:"staff_id"`
	StaffName         string  `json:"staff_name"`
	Title             string  `json:"title,omitempty"`
	CommissionType    string  `json:"commission_type"`
	CommissionRate    float64 `json:"commission_rate"`
	HourlyRate        float64 `json:"hourly_rate"`
	TotalAppointments int     `json:"total_appointments"`
	UniqueClients     int     `json:"unique_clients"`
	TotalRevenue      float64 `json:"total_revenue"`
	TotalCommission   float64 `json:"total_commission"`
	TotalHours        float64 `json:"total_hours"`
	TotalHourlyPay    float64 `json:"total_hourly_pay"`
	TotalTips         float64 `json:"total_tips"`
	TotalEarnings     float64 `json:"total_earnings"`
}

// ReportResponse is the period payroll report.
type ReportResponse struct {
	Period PeriodDTO         `json:"period"`
	Staff  []StaffSummaryDTO `json:"staff"`
}

// PaymentDTO is one counted payment row in the detail view.
type PaymentDTO struct {
	ID     int64   `json:"id"`
	Amount float64 `json:"amount"`
	Tip    float64 `json:"tip"`
	PaidAt string  `json:"paid_at"`
}

// LineItemDTO is one appointment's contribution in the detail view.
type LineItemDTO struct {
	AppointmentID   int64        `json:"appointment_id"`
	Date            string       `json:"date"`
	ClientName      string       `json:"client_name"`
	ServiceName     string       `json:"service_name"`
	DurationMinutes int          `json:"duration_minutes"`
	Revenue         float64      `json:"revenue"`
	Tips            float64      `json:"tips"`
	EffectiveRate   float64      `json:"effective_rate"`
	Hours           float64      `json:"hours"`
	HourlyPay       float64      `json:"hourly_pay"`
	Earnings        float64      `json:"earnings"`
	Payments        []PaymentDTO `json:"payments"`
}

// DetailResponse is the audit view for one staff member.
type DetailResponse struct {
	Period  PeriodDTO       `json:"period"`
	Summary StaffSummaryDTO `json:"summary"`
	Lines   []LineItemDTO   `json:"lines"`
}

// HistoryDTO is one frozen payroll run.
type HistoryDTO struct {
	ID            string  `json:"id"`
	PeriodStart   string  `json:"period_start"`
	PeriodEnd     string  `json:"period_end"`
	PeriodType    string  `json:"period_type"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalTips     float64 `json:"total_tips"`
	TotalEarnings float64 `json:"total_earnings"`
	StaffCount    int     `json:"staff_count"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
}

// =============================================================================
// INGEST INPUTS
// =============================================================================

// StaffInput is one roster row from an upstream feed.
type StaffInput struct {
	ID             int64   `json:"id"`
	UserID         int64   `json:"user_id"`
	Title          string  `json:"title"`
	CommissionType string  `json:"commission_type"`
	CommissionRate float64 `json:"commission_rate"`
	HourlyRate     float64 `json:"hourly_rate"`
	FixedRate      float64 `json:"fixed_rate"`
}

// UserInput is one directory entry.
type UserInput struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ServiceInput is one catalog entry.
type ServiceInput struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
}

// AppointmentInput is one calendar row. StartTime is RFC3339.
type AppointmentInput struct {
	ID            int64  `json:"id"`
	StaffID       int64  `json:"staff_id"`
	ServiceID     int64  `json:"service_id"`
	ClientID      int64  `json:"client_id"`
	StartTime     string `json:"start_time"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

// PaymentInput is one checkout row. PaidAt is RFC3339; an unparsable value
// is stored as unknown rather than rejected, and payment validation drops
// the row from reports.
type PaymentInput struct {
	ID            int64    `json:"id"`
	AppointmentID int64    `json:"appointment_id"`
	Status        string   `json:"status"`
	Type          string   `json:"type"`
	Amount        *float64 `json:"amount,omitempty"`
	TotalAmount   float64  `json:"total_amount"`
	TipAmount     float64  `json:"tip_amount"`
	PaidAt        string   `json:"paid_at"`
}

// RateOverrideInput is one (staff, service) rate exception.
type RateOverrideInput struct {
	StaffID              int64    `json:"staff_id"`
	ServiceID            int64    `json:"service_id"`
	CustomRate           *float64 `json:"custom_rate,omitempty"`
	CustomCommissionRate *float64 `json:"custom_commission_rate,omitempty"`
}

// =============================================================================
// SETTINGS AND SCENARIOS
// =============================================================================

// SettingsDTO carries the business settings the engine reads.
type SettingsDTO struct {
	Timezone string `json:"timezone"`
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// GenerateHistoryRequest freezes the current report for a period.
type GenerateHistoryRequest struct {
	Period    string `json:"period"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Month     string `json:"month,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toSummaryDTO(s payroll.StaffSummary) StaffSummaryDTO {
	return StaffSummaryDTO{
		StaffID:           int64(s.StaffID),
		StaffName:         s.StaffName,
		Title:             s.Title,
		CommissionType:    s.CommissionType,
		CommissionRate:    s.BaseCommissionRate.InexactFloat64(),
		HourlyRate:        s.HourlyRate.InexactFloat64(),
		TotalAppointments: s.TotalAppointments,
		UniqueClients:     s.UniqueClients,
		TotalRevenue:      money(s.TotalRevenue),
		TotalCommission:   money(s.TotalCommission),
		TotalHours:        round2(s.TotalHours),
		TotalHourlyPay:    money(s.TotalHourlyPay),
		TotalTips:         money(s.TotalTips),
		TotalEarnings:     money(s.TotalEarnings),
	}
}

func toLineItemDTO(line payroll.LineItem) LineItemDTO {
	payments := make([]PaymentDTO, len(line.Payments))
	for i, p := range line.Payments {
		payments[i] = PaymentDTO{
			ID:     int64(p.ID),
			Amount: money(p.BaseAmount()),
			Tip:    money(p.TipAmount),
			PaidAt: p.PaidAt.Format(time.RFC3339),
		}
	}
	return LineItemDTO{
		AppointmentID:   int64(line.AppointmentID),
		Date:            line.Date.Format(time.RFC3339),
		ClientName:      line.ClientName,
		ServiceName:     line.ServiceName,
		DurationMinutes: line.DurationMinutes,
		Revenue:         money(line.Revenue),
		Tips:            money(line.Tips),
		EffectiveRate:   line.EffectiveRate.InexactFloat64(),
		Hours:           round2(line.Hours),
		HourlyPay:       money(line.HourlyPay),
		Earnings:        money(line.Earnings),
		Payments:        payments,
	}
}

func toHistoryDTO(rec payroll.HistoryRecord) HistoryDTO {
	return HistoryDTO{
		ID:            rec.ID.String(),
		PeriodStart:   rec.PeriodStart.Format(time.RFC3339),
		PeriodEnd:     rec.PeriodEnd.Format(time.RFC3339),
		PeriodType:    rec.PeriodType,
		TotalRevenue:  money(rec.TotalRevenue),
		TotalTips:     money(rec.TotalTips),
		TotalEarnings: money(rec.TotalEarnings),
		StaffCount:    rec.StaffCount,
		Status:        rec.Status,
		CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
	}
}

// money rounds to cents for display.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
