/*
Package postgres provides a PostgreSQL-backed implementation of payroll
storage.

PURPOSE:
  The production twin of store/sqlite: same tables, same method surface,
  backed by a pgx connection pool instead of an embedded file. The pool
  handles concurrency, so there is no mutex here.

SEE ALSO:
  - store/sqlite: Schema and encoding rationale (shared with this package)
*/
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/glohq/payroll-engine/payroll"
)

// Store implements payroll storage using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database at connString and auto-migrates the schema.
func New(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS staff (
		id BIGINT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		commission_type TEXT NOT NULL,
		commission_rate NUMERIC NOT NULL DEFAULT 0,
		hourly_rate NUMERIC NOT NULL DEFAULT 0,
		fixed_rate NUMERIC NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS services (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		price NUMERIC NOT NULL DEFAULT 0,
		duration_minutes INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS appointments (
		id BIGINT PRIMARY KEY,
		staff_id BIGINT NOT NULL,
		service_id BIGINT NOT NULL,
		client_id BIGINT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		payment_status TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_appointments_staff
		ON appointments(staff_id, start_time);

	CREATE TABLE IF NOT EXISTS payments (
		id BIGINT PRIMARY KEY,
		appointment_id BIGINT NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		amount NUMERIC,
		total_amount NUMERIC NOT NULL DEFAULT 0,
		tip_amount NUMERIC NOT NULL DEFAULT 0,
		paid_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_paid_at
		ON payments(paid_at);
	CREATE INDEX IF NOT EXISTS idx_payments_appointment
		ON payments(appointment_id);

	CREATE TABLE IF NOT EXISTS staff_service_rates (
		staff_id BIGINT NOT NULL,
		service_id BIGINT NOT NULL,
		custom_rate NUMERIC,
		custom_commission_rate NUMERIC,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (staff_id, service_id)
	);

	CREATE TABLE IF NOT EXISTS business_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payroll_history (
		id UUID PRIMARY KEY,
		period_start TIMESTAMPTZ NOT NULL,
		period_end TIMESTAMPTZ NOT NULL,
		period_type TEXT NOT NULL,
		total_revenue NUMERIC NOT NULL,
		total_tips NUMERIC NOT NULL,
		total_earnings NUMERIC NOT NULL,
		staff_count INT NOT NULL,
		earnings_breakdown JSONB NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_period
		ON payroll_history(period_start, period_end);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// =============================================================================
// INPUT FEEDS
// =============================================================================

// SaveStaff upserts a staff roster row.
func (s *Store) SaveStaff(ctx context.Context, m payroll.StaffMember) error {
	query := `
		INSERT INTO staff (id, user_id, title, commission_type, commission_rate, hourly_rate, fixed_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			title = EXCLUDED.title,
			commission_type = EXCLUDED.commission_type,
			commission_rate = EXCLUDED.commission_rate,
			hourly_rate = EXCLUDED.hourly_rate,
			fixed_rate = EXCLUDED.fixed_rate
	`

	_, err := s.pool.Exec(ctx, query,
		m.ID, m.UserID, m.Title, m.CommissionType,
		m.CommissionRate, m.HourlyRate, m.FixedRate, time.Now().UTC(),
	)
	return err
}

// ListStaff returns the roster in id order.
func (s *Store) ListStaff(ctx context.Context) ([]payroll.StaffMember, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, user_id, title, commission_type, commission_rate, hourly_rate, fixed_rate FROM staff ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	staff := []payroll.StaffMember{}
	for rows.Next() {
		var m payroll.StaffMember
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.CommissionType,
			&m.CommissionRate, &m.HourlyRate, &m.FixedRate); err != nil {
			return nil, err
		}
		staff = append(staff, m)
	}
	return staff, rows.Err()
}

// SaveUser upserts a directory entry.
func (s *Store) SaveUser(ctx context.Context, u payroll.User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name
	`

	_, err := s.pool.Exec(ctx, query, u.ID, u.FirstName, u.LastName, time.Now().UTC())
	return err
}

// ListUsers returns the directory in id order.
func (s *Store) ListUsers(ctx context.Context) ([]payroll.User, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, first_name, last_name FROM users ORDER BY id")
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
	query := `
		INSERT INTO services (id, name, category, price, duration_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			duration_minutes = EXCLUDED.duration_minutes
	`

	_, err := s.pool.Exec(ctx, query,
		svc.ID, svc.Name, svc.Category, svc.Price, svc.DurationMinutes, time.Now().UTC(),
	)
	return err
}

// ListServices returns the catalog in id order.
func (s *Store) ListServices(ctx context.Context) ([]payroll.Service, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, name, category, price, duration_minutes FROM services ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := []payroll.Service{}
	for rows.Next() {
		var svc payroll.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Category, &svc.Price, &svc.DurationMinutes); err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

// SaveAppointment upserts a calendar row.
func (s *Store) SaveAppointment(ctx context.Context, a payroll.Appointment) error {
	query := `
		INSERT INTO appointments (id, staff_id, service_id, client_id, start_time, status, payment_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			staff_id = EXCLUDED.staff_id,
			service_id = EXCLUDED.service_id,
			client_id = EXCLUDED.client_id,
			start_time = EXCLUDED.start_time,
			status = EXCLUDED.status,
			payment_status = EXCLUDED.payment_status
	`

	_, err := s.pool.Exec(ctx, query,
		a.ID, a.StaffID, a.ServiceID, a.ClientID,
		a.StartTime, a.Status, a.PaymentStatus, time.Now().UTC(),
	)
	return err
}

// ListAppointments returns the calendar feed in start-time order.
func (s *Store) ListAppointments(ctx context.Context) ([]payroll.Appointment, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, staff_id, service_id, client_id, start_time, status, payment_status FROM appointments ORDER BY start_time, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := []payroll.Appointment{}
	for rows.Next() {
		var a payroll.Appointment
		if err := rows.Scan(&a.ID, &a.StaffID, &a.ServiceID, &a.ClientID,
			&a.StartTime, &a.Status, &a.PaymentStatus); err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

// SavePayment upserts a checkout row.
func (s *Store) SavePayment(ctx context.Context, p payroll.Payment) error {
	var paidAt *time.Time
	if !p.PaidAt.IsZero() {
		paidAt = &p.PaidAt
	}

	query := `
		INSERT INTO payments (id, appointment_id, status, type, amount, total_amount, tip_amount, paid_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			appointment_id = EXCLUDED.appointment_id,
			status = EXCLUDED.status,
			type = EXCLUDED.type,
			amount = EXCLUDED.amount,
			total_amount = EXCLUDED.total_amount,
			tip_amount = EXCLUDED.tip_amount,
			paid_at = EXCLUDED.paid_at
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.AppointmentID, p.Status, p.Type,
		p.Amount, p.TotalAmount, p.TipAmount, paidAt, time.Now().UTC(),
	)
	return err
}

// ListPayments returns the checkout feed in settlement order.
func (s *Store) ListPayments(ctx context.Context) ([]payroll.Payment, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, appointment_id, status, type, amount, total_amount, tip_amount, paid_at FROM payments ORDER BY paid_at NULLS FIRST, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []payroll.Payment{}
	for rows.Next() {
		var p payroll.Payment
		var amount decimal.NullDecimal
		var paidAt *time.Time
		if err := rows.Scan(&p.ID, &p.AppointmentID, &p.Status, &p.Type,
			&amount, &p.TotalAmount, &p.TipAmount, &paidAt); err != nil {
			return nil, err
		}
		if amount.Valid {
			v := amount.Decimal
			p.Amount = &v
		}
		if paidAt != nil {
			p.PaidAt = *paidAt
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// SaveRateOverride upserts a (staff, service) rate exception.
func (s *Store) SaveRateOverride(ctx context.Context, o payroll.RateOverride) error {
	query := `
		INSERT INTO staff_service_rates (staff_id, service_id, custom_rate, custom_commission_rate, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (staff_id, service_id) DO UPDATE SET
			custom_rate = EXCLUDED.custom_rate,
			custom_commission_rate = EXCLUDED.custom_commission_rate
	`

	_, err := s.pool.Exec(ctx, query,
		o.StaffID, o.ServiceID, o.CustomRate, o.CustomCommissionRate, time.Now().UTC(),
	)
	return err
}

// ListRateOverrides returns all rate exceptions.
func (s *Store) ListRateOverrides(ctx context.Context) ([]payroll.RateOverride, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT staff_id, service_id, custom_rate, custom_commission_rate FROM staff_service_rates ORDER BY staff_id, service_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := []payroll.RateOverride{}
	for rows.Next() {
		var o payroll.RateOverride
		var custom, commission decimal.NullDecimal
		if err := rows.Scan(&o.StaffID, &o.ServiceID, &custom, &commission); err != nil {
			return nil, err
		}
		if custom.Valid {
			v := custom.Decimal
			o.CustomRate = &v
		}
		if commission.Valid {
			v := commission.Decimal
			o.CustomCommissionRate = &v
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// LoadSnapshot fetches every input feed in one shot. Collections come back
// non-nil even when empty.
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
	query := `
		INSERT INTO business_settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query, key, value, time.Now().UTC())
	return err
}

// GetSetting returns a settings value, or "" when the key was never set.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		"SELECT value FROM business_settings WHERE key = $1", key,
	).Scan(&value)

	if errors.Is(err, pgx.ErrNoRows) {
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
	query := `
		INSERT INTO payroll_history
		(id, period_start, period_end, period_type, total_revenue, total_tips, total_earnings,
		 staff_count, earnings_breakdown, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.PeriodStart, rec.PeriodEnd, rec.PeriodType,
		rec.TotalRevenue, rec.TotalTips, rec.TotalEarnings,
		rec.StaffCount, string(rec.EarningsBreakdown), rec.Status, rec.CreatedAt.UTC(),
	)
	return err
}

// ListHistory returns frozen runs, newest first.
func (s *Store) ListHistory(ctx context.Context) ([]payroll.HistoryRecord, error) {
	rows, err := s.pool.Query(ctx, `
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
		var id uuid.UUID
		var breakdown []byte
		if err := rows.Scan(&id, &rec.PeriodStart, &rec.PeriodEnd, &rec.PeriodType,
			&rec.TotalRevenue, &rec.TotalTips, &rec.TotalEarnings,
			&rec.StaffCount, &breakdown, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.ID = id
		rec.EarningsBreakdown = breakdown
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{
		"payroll_history", "staff_service_rates", "payments",
		"appointments", "services", "users", "staff", "business_settings",
	}
	for _, table := range tables {
		if _, err := s.pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
