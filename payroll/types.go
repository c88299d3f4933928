/*
Package payroll derives staff earnings from raw appointment and payment
records for an arbitrary date range.

PURPOSE:
  This package contains the reconciliation engine behind the payroll report:
  given a snapshot of the business's staff roster, service catalog,
  appointment feed and payment feed, it computes what each staff member
  actually earned in a period under their compensation plan.

KEY CONCEPTS IN THIS FILE (types.go):
  - Snapshot: The immutable bundle of input collections, fetched per request
  - StaffMember / Service / Appointment / Payment: Read-only input records
  - RateOverride: Per (staff, service) exception to a staff member's rates
  - StaffSummary / LineItem: Derived outputs, never persisted by the engine

DESIGN PRINCIPLES:
  1. Payments are ground truth: an appointment earns only what its verified
     completed payments collected, never its service list price
  2. Precision: Uses decimal.Decimal to avoid floating-point errors in money
  3. Purity: No I/O, no shared state; identical inputs yield identical outputs
  4. Fail soft per record: bad rows are dropped, they never abort a run

USAGE:
  resolver, _ := payroll.NewRangeResolver("America/New_York")
  window := resolver.Resolve(payroll.RangeRequest{Period: payroll.PeriodMonth})
  summaries, err := payroll.Summarize(snapshot, window)

SEE ALSO:
  - daterange.go: Period keyword to instant-pair resolution
  - payments.go:  Payment validation
  - engine.go:    Per-staff aggregation
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type StaffID int64
type UserID int64
type ServiceID int64
type AppointmentID int64
type ClientID int64
type PaymentID int64

// =============================================================================
// INPUT RECORDS - Read-only snapshots owned by other subsystems
// =============================================================================

// Compensation model strings as they appear in the staff roster feed.
const (
	ModelCommission           = "commission"
	ModelHourly               = "hourly"
	ModelFixed                = "fixed"
	ModelHourlyPlusCommission = "hourly_plus_commission"
)

// StaffMember is one row of the staff roster. CommissionRate is a 0-1
// fraction; HourlyRate and FixedRate are dollar amounts.
type StaffMember struct {
	ID             StaffID
	UserID         UserID
	Title          string
	CommissionType string
	CommissionRate decimal.Decimal
	HourlyRate     decimal.Decimal
	FixedRate      decimal.Decimal
}

// User is a directory entry used only for display names.
type User struct {
	ID        UserID
	FirstName string
	LastName  string
}

// FullName joins first and last name, tolerating either being empty.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Service is a catalog entry. Price is the list price, which the engine
// deliberately ignores for revenue; DurationMinutes drives hourly pay.
type Service struct {
	ID              ServiceID
	Name            string
	Category        string
	Price           decimal.Decimal
	DurationMinutes int
}

// Appointment lifecycle and payment status values the engine cares about.
const (
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"

	PaymentStatusPaid = "paid"
)

// Appointment is one row of the appointment feed. Status and PaymentStatus
// are calendar-side flags; the engine treats them as a gate, not as proof
// of money collected.
type Appointment struct {
	ID            AppointmentID
	StaffID       StaffID
	ServiceID     ServiceID
	ClientID      ClientID
	StartTime     time.Time
	Status        string
	PaymentStatus string
}

// Payment statuses and types. Only completed appointment payments count.
const (
	PaymentCompleted = "completed"

	PaymentTypeAppointment        = "appointment"
	PaymentTypeAppointmentPayment = "appointment_payment"
)

// Payment is one row of the payment feed. Amount is the tip-exclusive base
// when the feed provides it; otherwise BaseAmount falls back to
// TotalAmount - TipAmount. A zero PaidAt means the feed's timestamp failed
// to parse upstream.
type Payment struct {
	ID            PaymentID
	AppointmentID AppointmentID
	Status        string
	Type          string
	Amount        *decimal.Decimal
	TotalAmount   decimal.Decimal
	TipAmount     decimal.Decimal
	PaidAt        time.Time
}

// RateOverride is an optional per (staff, service) rate exception.
// CustomCommissionRate may arrive as a fraction (0.4) or a whole-number
// percentage (40); see NormalizeRate.
type RateOverride struct {
	StaffID              StaffID
	ServiceID            ServiceID
	CustomRate           *decimal.Decimal
	CustomCommissionRate *decimal.Decimal
}

// =============================================================================
// SNAPSHOT - The full input bundle for one computation
// =============================================================================

// Snapshot carries every collection the engine reads. Callers fetch it fresh
// per request; the engine never mutates it.
type Snapshot struct {
	Staff         []StaffMember
	Users         []User
	Services      []Service
	Appointments  []Appointment
	Payments      []Payment
	RateOverrides []RateOverride
}

// Validate rejects a snapshot with missing collections. Empty collections are
// fine (a quiet month); nil ones indicate the caller never fetched them.
func (s Snapshot) Validate() error {
	switch {
	case s.Staff == nil:
		return &MissingCollectionError{Collection: "staff"}
	case s.Users == nil:
		return &MissingCollectionError{Collection: "users"}
	case s.Services == nil:
		return &MissingCollectionError{Collection: "services"}
	case s.Appointments == nil:
		return &MissingCollectionError{Collection: "appointments"}
	case s.Payments == nil:
		return &MissingCollectionError{Collection: "payments"}
	case s.RateOverrides == nil:
		return &MissingCollectionError{Collection: "rate_overrides"}
	}
	return nil
}

// =============================================================================
// DERIVED OUTPUTS - Exist only for the duration of one computation
// =============================================================================

// LineItem is one appointment's computed earnings contribution, the atomic
// unit of the detail/audit view. Payments lists the exact rows counted so
// disputes can be traced to source records.
type LineItem struct {
	AppointmentID   AppointmentID
	Date            time.Time
	ClientID        ClientID
	ClientName      string
	ServiceName     string
	DurationMinutes int
	Revenue         decimal.Decimal
	Tips            decimal.Decimal
	EffectiveRate   decimal.Decimal
	Hours           decimal.Decimal
	HourlyPay       decimal.Decimal
	Earnings        decimal.Decimal
	Payments        []Payment
}

// StaffSummary is the per-staff rollup for the period view.
//
// TotalEarnings is TotalCommission + TotalTips in general, and
// TotalHourlyPay + TotalTips for a pure hourly plan. The hourly portion of
// hourly_plus_commission is already folded into TotalCommission, so the two
// buckets never double count.
type StaffSummary struct {
	StaffID            StaffID
	StaffName          string
	Title              string
	CommissionType     string
	BaseCommissionRate decimal.Decimal
	HourlyRate         decimal.Decimal
	TotalAppointments  int
	UniqueClients      int
	TotalRevenue       decimal.Decimal
	TotalCommission    decimal.Decimal
	TotalHours         decimal.Decimal
	TotalHourlyPay     decimal.Decimal
	TotalTips          decimal.Decimal
	TotalEarnings      decimal.Decimal
}

// StaffDetail is the audit view for one staff member: the summary plus the
// individual line items behind it. Computable even for staff with zero
// qualifying activity.
type StaffDetail struct {
	Summary StaffSummary
	Lines   []LineItem
}
