/*
Package sqlite provides a SQLite-backed implementation of payroll storage.

PURPOSE:
  Persists the input feeds the payroll engine reconciles (staff, users,
  services, appointments, payments, rate overrides), the business settings,
  and the frozen payroll history. The engine itself never touches SQL; it
  consumes a Snapshot loaded here.

KEY TABLES:
  staff:               Roster with compensation model and base rates
  users:               Directory, staff accounts and clients alike
  services:            Catalog with list price and booked duration
  appointments:        Calendar feed (status flags, not money)
  payments:            Checkout feed, the engine's ground truth
  staff_service_rates: Per (staff, service) rate overrides
  business_settings:   Key/value settings (timezone lives here)
  payroll_history:     Frozen payroll runs

MONEY AND TIME ENCODING:
  Decimals are stored as TEXT via decimal.String() and re-parsed on load;
  REAL columns would reintroduce the float drift the engine exists to avoid.
  Timestamps are RFC3339 TEXT. A timestamp that fails to parse on load
  becomes the zero time, which payment validation then drops; a dirty row
  must never abort a report.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  snap, err := store.LoadSnapshot(ctx)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - payroll/types.go: Snapshot and record definitions
  - store/postgres:   The PostgreSQL twin of this package
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/glohq/payroll-engine/payroll"
)

// Store implements payroll storage using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS staff (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		commission_type TEXT NOT NULL,
		commission_rate TEXT NOT NULL DEFAULT '0',
		hourly_rate TEXT NOT NULL DEFAULT '0',
		fixed_rate TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS services (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		price TEXT NOT NULL DEFAULT '0',
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS appointments (
		id INTEGER PRIMARY KEY,
		staff_id INTEGER NOT NULL,
		service_id INTEGER NOT NULL,
		client_id INTEGER NOT NULL,
		start_time TEXT NOT NULL,
		status TEXT NOT NULL,
		payment_status TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_appointments_staff
		ON appointments(staff_id, start_time);

	CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY,
		appointment_id INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		amount TEXT,
		total_amount TEXT NOT NULL DEFAULT '0',
		tip_amount TEXT NOT NULL DEFAULT '0',
		paid_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Hot path: the engine scans payments by settlement time every report
	CREATE INDEX IF NOT EXISTS idx_payments_paid_at
		ON payments(paid_at);
	CREATE INDEX IF NOT EXISTS idx_payments_appointment
		ON payments(appointment_id);

	CREATE TABLE IF NOT EXISTS staff_service_rates (
		staff_id INTEGER NOT NULL,
		service_id INTEGER NOT NULL,
		custom_rate TEXT,
		custom_commission_rate TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (staff_id, service_id)
	);

	CREATE TABLE IF NOT EXISTS business_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payroll_history (
		id TEXT PRIMARY KEY,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		period_type TEXT NOT NULL,
		total_revenue TEXT NOT NULL,
		total_tips TEXT NOT NULL,
		total_earnings TEXT NOT NULL,
		staff_count INTEGER NOT NULL,
		earnings_breakdown TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_period
		ON payroll_history(period_start, period_end);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// INPUT FEEDS
// =============================================================================

// SaveStaff upserts a staff roster row.
func (s *Store) SaveStaff(ctx context.Context, m payroll.StaffMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO staff (id, user_id, title, commission_type, commission_rate, hourly_rate, fixed_rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			title = excluded.title,
			commission_type = excluded.commission_type,
			commission_rate = excluded.commission_rate,
			hourly_rate = excluded.hourly_rate,
			fixed_rate = excluded.fixed_rate
	`

	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.UserID, m.Title, m.CommissionType,
		m.CommissionRate.String(), m.HourlyRate.String(), m.FixedRate.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListStaff returns the roster in id order.
func (s *Store) ListStaff(ctx context.Context) ([]payroll.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, title, commission_type, commission_rate, hourly_rate, fixed_rate FROM staff ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	staff := []payroll.StaffMember{}
	for rows.Next() {
		var m payroll.StaffMember
		var commission, hourly, fixed string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.CommissionType, &commission, &hourly, &fixed); err != nil {
			return nil, err
		}
		m.CommissionRate = parseDecimal(commission)
		m.HourlyRate = parseDecimal(hourly)
		m.FixedRate = parseDecimal(fixed)
		staff = append(staff, m)
	}
	return staff, rows.Err()
}

// SaveUser upserts a directory entry.
func (s *Store) SaveUser(ctx context.Context, u payroll.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO users (id, first_name, last_name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name
	`

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.FirstName, u.LastName, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListUsers returns the directory in id order.
func (s *Store) ListUsers(ctx context.Context) ([]payroll.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, first_name, last_name FROM users ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []payroll.User{}
	for rows.Next() {
		var u payroll.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SaveService upserts a catalog entry.
func (s *Store) SaveService(ctx context.Context, svc payroll.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO services (id, name, category, price, duration_minutes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			price = excluded.price,
			duration_minutes = excluded.duration_minutes
	`

	_, err := s.db.ExecContext(ctx, query,
		svc.ID, svc.Name, svc.Category, svc.Price.String(), svc.DurationMinutes,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListServices returns the catalog in id order.
func (s *Store) ListServices(ctx context.Context) ([]payroll.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, category, price, duration_minutes FROM services ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := []payroll.Service{}
	for rows.Next() {
		var svc payroll.Service
		var price string
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Category, &price, &svc.DurationMinutes); err != nil {
			return nil, err
		}
		svc.Price = parseDecimal(price)
		services = append(services, svc)
	}
	return services, rows.Err()
}

// SaveAppointment upserts a calendar row.
func (s *Store) SaveAppointment(ctx context.Context, a payroll.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO appointments (id, staff_id, service_id, client_id, start_time, status, payment_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			staff_id = excluded.staff_id,
			service_id = excluded.service_id,
			client_id = excluded.client_id,
			start_time = excluded.start_time,
			status = excluded.status,
			payment_status = excluded.payment_status
	`

	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.StaffID, a.ServiceID, a.ClientID,
		a.StartTime.Format(time.RFC3339), a.Status, a.PaymentStatus,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListAppointments returns the calendar feed in start-time order.
func (s *Store) ListAppointments(ctx context.Context) ([]payroll.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, staff_id, service_id, client_id, start_time, status, payment_status FROM appointments ORDER BY start_time, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := []payroll.Appointment{}
	for rows.Next() {
		var a payroll.Appointment
		var start string
		if err := rows.Scan(&a.ID, &a.StaffID, &a.ServiceID, &a.ClientID, &start, &a.Status, &a.PaymentStatus); err != nil {
			return nil, err
		}
		a.StartTime = parseTime(start)
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

// SavePayment upserts a checkout row.
func (s *Store) SavePayment(ctx context.Context, p payroll.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var amount *string
	if p.Amount != nil {
		v := p.Amount.String()
		amount = &v
	}
	paidAt := ""
	if !p.PaidAt.IsZero() {
		paidAt = p.PaidAt.Format(time.RFC3339)
	}

	query := `
		INSERT INTO payments (id, appointment_id, status, type, amount, total_amount, tip_amount, paid_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			appointment_id = excluded.appointment_id,
			status = excluded.status,
			type = excluded.type,
			amount = excluded.amount,
			total_amount = excluded.total_amount,
			tip_amount = excluded.tip_amount,
			paid_at = excluded.paid_at
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.AppointmentID, p.Status, p.Type,
		amount, p.TotalAmount.String(), p.TipAmount.String(), paidAt,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListPayments returns the checkout feed in settlement order.
func (s *Store) ListPayments(ctx context.Context) ([]payroll.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, appointment_id, status, type, amount, total_amount, tip_amount, paid_at FROM payments ORDER BY paid_at, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []payroll.Payment{}
	for rows.Next() {
		var p payroll.Payment
		var amount sql.NullString
		var total, tip, paidAt string
		if err := rows.Scan(&p.ID, &p.AppointmentID, &p.Status, &p.Type, &amount, &total, &tip, &paidAt); err != nil {
			return nil, err
		}
		if amount.Valid {
			v := parseDecimal(amount.String)
			p.Amount = &v
		}
		p.TotalAmount = parseDecimal(total)
		p.TipAmount = parseDecimal(tip)
		p.PaidAt = parseTime(paidAt)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// SaveRateOverride upserts a (staff, service) rate exception.
func (s *Store) SaveRateOverride(ctx context.Context, o payroll.RateOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var custom, commission *string
	if o.CustomRate != nil {
		v := o.CustomRate.String()
		custom = &v
	}
	if o.CustomCommissionRate != nil {
		v := o.CustomCommissionRate.String()
		commission = &v
	}

	query := `
		INSERT INTO staff_service_rates (staff_id, service_id, custom_rate, custom_commission_rate, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(staff_id, service_id) DO UPDATE SET
			custom_rate = excluded.custom_rate,
			custom_commission_rate = excluded.custom_commission_rate
	`

	_, err := s.db.ExecContext(ctx, query,
		o.StaffID, o.ServiceID, custom, commission,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListRateOverrides returns all rate exceptions.
func (s *Store) ListRateOverrides(ctx context.Context) ([]payroll.RateOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT staff_id, service_id, custom_rate, custom_commission_rate FROM staff_service_rates ORDER BY staff_id, service_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := []payroll.RateOverride{}
	for rows.Next() {
		var o payroll.RateOverride
		var custom, commission sql.NullString
		if err := rows.Scan(&o.StaffID, &o.ServiceID, &custom, &commission); err != nil {
			return nil, err
		}
		if custom.Valid {
			v := parseDecimal(custom.String)
			o.CustomRate = &v
		}
		if commission.Valid {
			v := parseDecimal(commission.String)
			o.CustomCommissionRate = &v
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// LoadSnapshot fetches every input feed in one shot. Collections come back
// non-nil even when empty, so a fresh database yields a valid (quiet)
// snapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (payroll.Snapshot, error) {
	var snap payroll.Snapshot
	var err error

	if snap.Staff, err = s.ListStaff(ctx); err != nil {
		return snap, fmt.Errorf("load staff: %w", err)
	}
	if snap.Users, err = s.ListUsers(ctx); err != nil {
		return snap, fmt.Errorf("load users: %w", err)
	}
	if snap.Services, err = s.ListServices(ctx); err != nil {
		return snap, fmt.Errorf("load services: %w", err)
	}
	if snap.Appointments, err = s.ListAppointments(ctx); err != nil {
		return snap, fmt.Errorf("load appointments: %w", err)
	}
	if snap.Payments, err = s.ListPayments(ctx); err != nil {
		return snap, fmt.Errorf("load payments: %w", err)
	}
	if snap.RateOverrides, err = s.ListRateOverrides(ctx); err != nil {
		return snap, fmt.Errorf("load rate overrides: %w", err)
	}
	return snap, nil
}

// =============================================================================
// BUSINESS SETTINGS
// =============================================================================

// SetSetting upserts a settings key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO business_settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetSetting returns a settings value, or "" when the key was never set.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM business_settings WHERE key = ?", key,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// =============================================================================
// PAYROLL HISTORY
// =============================================================================

// SaveHistory appends a frozen payroll run. Runs are never updated in place.
func (s *Store) SaveHistory(ctx context.Context, rec payroll.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO payroll_history
		(id, period_start, period_end, period_type, total_revenue, total_tips, total_earnings,
		 staff_count, earnings_breakdown, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID.String(),
		rec.PeriodStart.Format(time.RFC3339),
		rec.PeriodEnd.Format(time.RFC3339),
		rec.PeriodType,
		rec.TotalRevenue.String(),
		rec.TotalTips.String(),
		rec.TotalEarnings.String(),
		rec.StaffCount,
		string(rec.EarningsBreakdown),
		rec.Status,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ListHistory returns frozen runs, newest first.
func (s *Store) ListHistory(ctx context.Context) ([]payroll.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period_start, period_end, period_type, total_revenue, total_tips,
		       total_earnings, staff_count, earnings_breakdown, status, created_at
		FROM payroll_history
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []payroll.HistoryRecord{}
	for rows.Next() {
		var rec payroll.HistoryRecord
		var id, start, end, revenue, tips, earnings, breakdown, createdAt string
		if err := rows.Scan(&id, &start, &end, &rec.PeriodType, &revenue, &tips,
			&earnings, &rec.StaffCount, &breakdown, &rec.Status, &createdAt); err != nil {
			return nil, err
		}
		rec.ID, _ = uuid.Parse(id)
		rec.PeriodStart = parseTime(start)
		rec.PeriodEnd = parseTime(end)
		rec.TotalRevenue = parseDecimal(revenue)
		rec.TotalTips = parseDecimal(tips)
		rec.TotalEarnings = parseDecimal(earnings)
		rec.EarningsBreakdown = []byte(breakdown)
		rec.CreatedAt = parseTime(createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"payroll_history", "staff_service_rates", "payments",
		"appointments", "services", "users", "staff", "business_settings",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// parseDecimal parses a stored decimal, treating garbage as zero.
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseTime parses a stored RFC3339 timestamp. Garbage becomes the zero
// time, which downstream validation drops.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
