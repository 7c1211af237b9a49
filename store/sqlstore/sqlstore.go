/*
Package sqlstore implements payroll.Store on database/sql via sqlx.

PURPOSE:
  One implementation of every payroll persistence interface, shared by the
  SQLite and PostgreSQL backends. Queries are written with ? placeholders and
  rebound for the driver by sqlx, so the dialect packages only open the
  connection and classify driver errors.

KEY TABLES:
  employees:              Employee registry snapshot
  leave_records:          Leave bookings (inclusive dates)
  deductions:             Deduction ledger entries
  deduction_installments: Applied installments, UNIQUE(entry_id, month)
  payroll_records:        Payroll ledger, UNIQUE(employee_id, month)
  payroll_runs:           Save audit trail

UPSERT:
  UpsertRecord uses ON CONFLICT(employee_id, month) DO UPDATE ... WHERE the
  existing row is not paid. Zero affected rows means the row is paid and
  the write is reported as payroll.ErrRecordLocked.

INSTALLMENTS:
  ApplyInstallment inserts the installment row first. The unique index makes
  a second application fail before the entry is touched, and the entry
  update commits in the same transaction.

CONCURRENCY:
  Lock-free by default: PostgreSQL relies on its connection pool and the
  unique constraints. WithSerializedAccess adds an in-process RWMutex for
  SQLite, whose single connection would otherwise return SQLITE_BUSY on
  overlapping write transactions.

SEE ALSO:
  - payroll/store.go: Interface definitions
  - store/sqlite, store/postgres: Dialect openers
  - store/memory: In-memory implementation for tests
*/
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/payroll"
)

// Store implements payroll.Store over any sqlx-supported driver.
type Store struct {
	db *sqlx.DB
	mu rwLocker

	isUniqueViolation func(error) bool
}

// Option configures a Store.
type Option func(*Store)

// WithUniqueViolation sets the driver-specific unique constraint detector.
func WithUniqueViolation(fn func(error) bool) Option {
	return func(s *Store) { s.isUniqueViolation = fn }
}

// WithSerializedAccess guards every query with one in-process RWMutex.
func WithSerializedAccess() Option {
	return func(s *Store) { s.mu = &sync.RWMutex{} }
}

type rwLocker interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

// noLock leaves concurrency to the database.
type noLock struct{}

func (noLock) Lock()    {}
func (noLock) Unlock()  {}
func (noLock) RLock()   {}
func (noLock) RUnlock() {}

// New wraps db. Call Migrate before use.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db, mu: noLock{}, isUniqueViolation: isUniqueConstraintError}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying handle.
func (s *Store) DB() *sqlx.DB { return s.db }

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stripComments(stmt)) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type employeeRow struct {
	ID               string `db:"id"`
	Name             string `db:"name"`
	NationalID       string `db:"national_id"`
	Nationality      string `db:"nationality"`
	BasicSalary      string `db:"basic_salary"`
	HousingAllowance string `db:"housing_allowance"`
	OtherAllowance   string `db:"other_allowance"`
	Currency         string `db:"currency"`
	IBAN             string `db:"iban"`
	Status           string `db:"status"`
	CreatedAt        string `db:"created_at"`
}

func (r employeeRow) decode() (payroll.Employee, error) {
	var d decoder
	emp := payroll.Employee{
		ID:               r.ID,
		Name:             r.Name,
		NationalID:       r.NationalID,
		Nationality:      r.Nationality,
		BasicSalary:      d.amount(r.BasicSalary, r.Currency),
		HousingAllowance: d.amount(r.HousingAllowance, r.Currency),
		OtherAllowance:   d.amount(r.OtherAllowance, r.Currency),
		IBAN:             r.IBAN,
		Status:           payroll.EmployeeStatus(r.Status),
		CreatedAt:        d.timestamp(r.CreatedAt),
	}
	return emp, d.wrap("employee", r.ID)
}

const employeeColumns = `id, name, national_id, nationality, basic_salary, housing_allowance,
	other_allowance, currency, iban, status, created_at`

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.db.Rebind(`
		INSERT INTO employees (` + employeeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			national_id = excluded.national_id,
			nationality = excluded.nationality,
			basic_salary = excluded.basic_salary,
			housing_allowance = excluded.housing_allowance,
			other_allowance = excluded.other_allowance,
			currency = excluded.currency,
			iban = excluded.iban,
			status = excluded.status
	`)
	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.NationalID, emp.Nationality,
		emp.BasicSalary.Value.String(),
		emp.HousingAllowance.Value.String(),
		emp.OtherAllowance.Value.String(),
		string(emp.BasicSalary.Currency),
		emp.IBAN, string(emp.Status),
		formatTime(emp.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee returns nil, nil when absent.
func (s *Store) GetEmployee(ctx context.Context, id string) (*payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var row employeeRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind("SELECT "+employeeColumns+" FROM employees WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	emp, err := row.decode()
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	return s.queryEmployees(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY id")
}

func (s *Store) ListActiveEmployees(ctx context.Context) ([]payroll.Employee, error) {
	return s.queryEmployees(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE status = ? ORDER BY id",
		string(payroll.EmployeeActive))
}

func (s *Store) queryEmployees(ctx context.Context, query string, args ...any) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []employeeRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	out := make([]payroll.Employee, 0, len(rows))
	for _, r := range rows {
		emp, err := r.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, nil
}

// =============================================================================
// LEAVE
// =============================================================================

type leaveRow struct {
	ID              string `db:"id"`
	EmployeeID      string `db:"employee_id"`
	Type            string `db:"leave_type"`
	StartDate       string `db:"start_date"`
	EndDate         string `db:"end_date"`
	Status          string `db:"status"`
	ExitReentryVisa bool   `db:"exit_reentry_visa"`
	Reason          string `db:"reason"`
}

func (r leaveRow) decode() (leave.Record, error) {
	var d decoder
	rec := leave.Record{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		Type:            leave.Type(r.Type),
		Start:           d.date(r.StartDate),
		End:             d.date(r.EndDate),
		Status:          leave.Status(r.Status),
		ExitReentryVisa: r.ExitReentryVisa,
		Reason:          r.Reason,
	}
	return rec, d.wrap("leave", r.ID)
}

const leaveColumns = `id, employee_id, leave_type, start_date, end_date, status, exit_reentry_visa, reason`

func (s *Store) SaveLeave(ctx context.Context, rec leave.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.db.Rebind(`
		INSERT INTO leave_records (` + leaveColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			leave_type = excluded.leave_type,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status,
			exit_reentry_visa = excluded.exit_reentry_visa,
			reason = excluded.reason
	`)
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.EmployeeID, string(rec.Type),
		rec.Start.String(), rec.End.String(),
		string(rec.Status), rec.ExitReentryVisa, rec.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to save leave: %w", err)
	}
	return nil
}

func (s *Store) ListEmployeeLeaves(ctx context.Context, employeeID string) ([]leave.Record, error) {
	return s.queryLeaves(ctx,
		"SELECT "+leaveColumns+" FROM leave_records WHERE employee_id = ? ORDER BY start_date, id",
		employeeID)
}

// ListQualifyingLeaves returns approved/completed leave intersecting window.
func (s *Store) ListQualifyingLeaves(ctx context.Context, window generic.Period) ([]leave.Record, error) {
	return s.queryLeaves(ctx, `
		SELECT `+leaveColumns+` FROM leave_records
		WHERE status IN (?, ?) AND start_date <= ? AND end_date >= ?
		ORDER BY employee_id, start_date, id`,
		string(leave.StatusApproved), string(leave.StatusCompleted),
		window.End.String(), window.Start.String())
}

func (s *Store) queryLeaves(ctx context.Context, query string, args ...any) ([]leave.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []leaveRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list leave: %w", err)
	}
	out := make([]leave.Record, 0, len(rows))
	for _, r := range rows {
		rec, err := r.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// =============================================================================
// DEDUCTION LEDGER
// =============================================================================

type deductionRow struct {
	ID                 string         `db:"id"`
	EmployeeID         string         `db:"employee_id"`
	Type               string         `db:"deduction_type"`
	Description        string         `db:"description"`
	TotalAmount        string         `db:"total_amount"`
	DeductedAmount     string         `db:"deducted_amount"`
	MonthlyInstallment sql.NullString `db:"monthly_installment"`
	RemainingAmount    sql.NullString `db:"remaining_amount"`
	Currency           string         `db:"currency"`
	StartMonth         string         `db:"start_month"`
	EndMonth           sql.NullString `db:"end_month"`
	Recurring          bool           `db:"recurring"`
	Status             string         `db:"status"`
	CreatedAt          string         `db:"created_at"`
}

func (r deductionRow) decode() (payroll.DeductionEntry, error) {
	var d decoder
	entry := payroll.DeductionEntry{
		ID:                 r.ID,
		EmployeeID:         r.EmployeeID,
		Type:               payroll.DeductionType(r.Type),
		Description:        r.Description,
		TotalAmount:        d.amount(r.TotalAmount, r.Currency),
		DeductedAmount:     d.amount(r.DeductedAmount, r.Currency),
		MonthlyInstallment: d.optionalAmount(r.MonthlyInstallment, r.Currency),
		RemainingAmount:    d.optionalAmount(r.RemainingAmount, r.Currency),
		StartMonth:         d.month(r.StartMonth),
		Recurring:          r.Recurring,
		Status:             payroll.DeductionStatus(r.Status),
		CreatedAt:          d.timestamp(r.CreatedAt),
	}
	if r.EndMonth.Valid {
		end := d.month(r.EndMonth.String)
		entry.EndMonth = &end
	}
	return entry, d.wrap("deduction", r.ID)
}

const deductionColumns = `id, employee_id, deduction_type, description, total_amount, deducted_amount,
	monthly_installment, remaining_amount, currency, start_month, end_month, recurring, status, created_at`

func (s *Store) SaveDeduction(ctx context.Context, entry payroll.DeductionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveDeduction(ctx, s.db, entry)
}

func (s *Store) saveDeduction(ctx context.Context, db sqlx.ExecerContext, entry payroll.DeductionEntry) error {
	query := s.db.Rebind(`
		INSERT INTO deductions (` + deductionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			deduction_type = excluded.deduction_type,
			description = excluded.description,
			total_amount = excluded.total_amount,
			deducted_amount = excluded.deducted_amount,
			monthly_installment = excluded.monthly_installment,
			remaining_amount = excluded.remaining_amount,
			currency = excluded.currency,
			start_month = excluded.start_month,
			end_month = excluded.end_month,
			recurring = excluded.recurring,
			status = excluded.status
	`)
	var endMonth sql.NullString
	if entry.EndMonth != nil {
		endMonth = nullString(entry.EndMonth.String())
	}
	_, err := db.ExecContext(ctx, query,
		entry.ID, entry.EmployeeID, string(entry.Type), entry.Description,
		entry.TotalAmount.Value.String(),
		entry.DeductedAmount.Value.String(),
		optionalAmount(entry.MonthlyInstallment),
		optionalAmount(entry.RemainingAmount),
		string(entry.TotalAmount.Currency),
		entry.StartMonth.String(), endMonth,
		entry.Recurring, string(entry.Status),
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save deduction: %w", err)
	}
	return nil
}

// GetDeduction returns nil, nil when absent.
func (s *Store) GetDeduction(ctx context.Context, id string) (*payroll.DeductionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getDeduction(ctx, s.db, id)
}

func (s *Store) getDeduction(ctx context.Context, db sqlx.QueryerContext, id string) (*payroll.DeductionEntry, error) {
	var row deductionRow
	err := sqlx.GetContext(ctx, db, &row, s.db.Rebind("SELECT "+deductionColumns+" FROM deductions WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deduction: %w", err)
	}
	entry, err := row.decode()
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Store) ListDeductions(ctx context.Context, employeeID string) ([]payroll.DeductionEntry, error) {
	return s.queryDeductions(ctx,
		"SELECT "+deductionColumns+" FROM deductions WHERE employee_id = ? ORDER BY created_at, id",
		employeeID)
}

// ActiveDeductions is the deduction ledger reader: status active and
// start_month <= month <= end_month, with end_month optional.
func (s *Store) ActiveDeductions(ctx context.Context, employeeID string, month generic.Month) ([]payroll.DeductionEntry, error) {
	m := month.String()
	return s.queryDeductions(ctx, `
		SELECT `+deductionColumns+` FROM deductions
		WHERE employee_id = ? AND status = ? AND start_month <= ?
			AND (end_month IS NULL OR end_month >= ?)
		ORDER BY created_at, id`,
		employeeID, string(payroll.DeductionActive), m, m)
}

func (s *Store) queryDeductions(ctx context.Context, query string, args ...any) ([]payroll.DeductionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []deductionRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list deductions: %w", err)
	}
	out := make([]payroll.DeductionEntry, 0, len(rows))
	for _, r := range rows {
		entry, err := r.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// ApplyInstallment records inst and advances its entry atomically.
func (s *Store) ApplyInstallment(ctx context.Context, inst payroll.Installment) (payroll.DeductionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return payroll.DeductionEntry{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	entry, err := s.getDeduction(ctx, tx, inst.EntryID)
	if err != nil {
		return payroll.DeductionEntry{}, err
	}
	if entry == nil {
		return payroll.DeductionEntry{}, fmt.Errorf("%s: %w", inst.EntryID, payroll.ErrDeductionNotFound)
	}

	_, err = tx.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO deduction_installments (id, entry_id, employee_id, month, amount, currency, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		inst.ID, inst.EntryID, inst.EmployeeID, inst.Month.String(),
		inst.Amount.Value.String(), string(inst.Amount.Currency),
		formatTime(inst.AppliedAt),
	)
	if err != nil {
		if s.isUniqueViolation(err) {
			return payroll.DeductionEntry{}, generic.ErrDuplicateIdempotencyKey
		}
		return payroll.DeductionEntry{}, fmt.Errorf("failed to insert installment: %w", err)
	}

	updated := entry.Apply(inst.Amount, inst.Month)
	if err := s.saveDeduction(ctx, tx, updated); err != nil {
		return payroll.DeductionEntry{}, err
	}
	if err := tx.Commit(); err != nil {
		return payroll.DeductionEntry{}, fmt.Errorf("failed to commit installment: %w", err)
	}
	return updated, nil
}

// =============================================================================
// PAYROLL LEDGER
// =============================================================================

type recordRow struct {
	ID               string `db:"id"`
	EmployeeID       string `db:"employee_id"`
	EmployeeName     string `db:"employee_name"`
	Month            string `db:"month"`
	SalaryBasic      string `db:"salary_basic"`
	HousingAllowance string `db:"housing_allowance"`
	OtherAllowance   string `db:"other_allowance"`
	Deductions       string `db:"deductions"`
	WorkingDays      int    `db:"working_days"`
	LeaveDays        int    `db:"leave_days"`
	FinalSalary      string `db:"final_salary"`
	Currency         string `db:"currency"`
	Status           string `db:"status"`
	ItemsJSON        string `db:"items_json"`
	CreatedAt        string `db:"created_at"`
	UpdatedAt        string `db:"updated_at"`
}

func (r recordRow) decode() (payroll.Record, error) {
	var d decoder
	rec := payroll.Record{
		ID:               r.ID,
		EmployeeID:       r.EmployeeID,
		EmployeeName:     r.EmployeeName,
		Month:            d.month(r.Month),
		SalaryBasic:      d.amount(r.SalaryBasic, r.Currency),
		HousingAllowance: d.amount(r.HousingAllowance, r.Currency),
		OtherAllowance:   d.amount(r.OtherAllowance, r.Currency),
		Deductions:       d.amount(r.Deductions, r.Currency),
		WorkingDays:      r.WorkingDays,
		LeaveDays:        r.LeaveDays,
		FinalSalary:      d.amount(r.FinalSalary, r.Currency),
		Status:           payroll.RecordStatus(r.Status),
		CreatedAt:        d.timestamp(r.CreatedAt),
		UpdatedAt:        d.timestamp(r.UpdatedAt),
	}
	if d.err == nil {
		rec.Items, d.err = payroll.UnmarshalItems(r.ItemsJSON)
	}
	return rec, d.wrap("payroll record", r.ID)
}

const recordColumns = `id, employee_id, employee_name, month, salary_basic, housing_allowance,
	other_allowance, deductions, working_days, leave_days, final_salary, currency, status,
	items_json, created_at, updated_at`

// UpsertRecord writes rec keyed on (employee_id, month). A paid row is
// left untouched and reported as payroll.ErrRecordLocked.
func (s *Store) UpsertRecord(ctx context.Context, rec payroll.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := payroll.MarshalItems(rec.Items)
	if err != nil {
		return fmt.Errorf("failed to encode line items: %w", err)
	}

	query := s.db.Rebind(`
		INSERT INTO payroll_records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, month) DO UPDATE SET
			employee_name = excluded.employee_name,
			salary_basic = excluded.salary_basic,
			housing_allowance = excluded.housing_allowance,
			other_allowance = excluded.other_allowance,
			deductions = excluded.deductions,
			working_days = excluded.working_days,
			leave_days = excluded.leave_days,
			final_salary = excluded.final_salary,
			currency = excluded.currency,
			status = excluded.status,
			items_json = excluded.items_json,
			updated_at = excluded.updated_at
		WHERE payroll_records.status <> 'paid'
	`)
	result, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.EmployeeID, rec.EmployeeName, rec.Month.String(),
		rec.SalaryBasic.Value.String(),
		rec.HousingAllowance.Value.String(),
		rec.OtherAllowance.Value.String(),
		rec.Deductions.Value.String(),
		rec.WorkingDays, rec.LeaveDays,
		rec.FinalSalary.Value.String(),
		string(rec.SalaryBasic.Currency),
		string(rec.Status), items,
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert payroll record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to upsert payroll record: %w", err)
	}
	if affected == 0 {
		return &payroll.LockedRecordError{EmployeeID: rec.EmployeeID, Month: rec.Month}
	}
	return nil
}

func (s *Store) GetRecord(ctx context.Context, employeeID string, month generic.Month) (payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var row recordRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind("SELECT "+recordColumns+" FROM payroll_records WHERE employee_id = ? AND month = ?"),
		employeeID, month.String())
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Record{}, fmt.Errorf("%s/%s: %w", employeeID, month, generic.ErrRecordNotFound)
	}
	if err != nil {
		return payroll.Record{}, fmt.Errorf("failed to get payroll record: %w", err)
	}
	return row.decode()
}

func (s *Store) ListRecords(ctx context.Context, month generic.Month) ([]payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []recordRow
	err := s.db.SelectContext(ctx, &rows,
		s.db.Rebind("SELECT "+recordColumns+" FROM payroll_records WHERE month = ? ORDER BY employee_id"),
		month.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll records: %w", err)
	}
	out := make([]payroll.Record, 0, len(rows))
	for _, r := range rows {
		rec, err := r.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// =============================================================================
// RUNS
// =============================================================================

type runRow struct {
	ID            string         `db:"id"`
	Month         string         `db:"month"`
	Status        string         `db:"status"`
	EmployeeCount int            `db:"employee_count"`
	TotalNet      string         `db:"total_net"`
	Currency      string         `db:"currency"`
	Error         string         `db:"error"`
	StartedAt     string         `db:"started_at"`
	CompletedAt   sql.NullString `db:"completed_at"`
}

func (r runRow) decode() (payroll.Run, error) {
	var d decoder
	run := payroll.Run{
		ID:            r.ID,
		Month:         d.month(r.Month),
		Status:        payroll.RunStatus(r.Status),
		EmployeeCount: r.EmployeeCount,
		TotalNet:      d.amount(r.TotalNet, r.Currency),
		Error:         r.Error,
		StartedAt:     d.timestamp(r.StartedAt),
	}
	if r.CompletedAt.Valid {
		t := d.timestamp(r.CompletedAt.String)
		run.CompletedAt = &t
	}
	return run, d.wrap("payroll run", r.ID)
}

const runColumns = `id, month, status, employee_count, total_net, currency, error, started_at, completed_at`

func (s *Store) SaveRun(ctx context.Context, run payroll.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.db.Rebind(`
		INSERT INTO payroll_runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			employee_count = excluded.employee_count,
			total_net = excluded.total_net,
			currency = excluded.currency,
			error = excluded.error,
			completed_at = excluded.completed_at
	`)
	var completedAt sql.NullString
	if run.CompletedAt != nil {
		completedAt = nullString(formatTime(*run.CompletedAt))
	}
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Month.String(), string(run.Status), run.EmployeeCount,
		run.TotalNet.Value.String(), string(run.TotalNet.Currency), run.Error,
		formatTime(run.StartedAt), completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context) ([]payroll.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT "+runColumns+" FROM payroll_runs ORDER BY started_at DESC, id"); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	out := make([]payroll.Run, 0, len(rows))
	for _, r := range rows {
		run, err := r.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

// IsRunComplete checks if a completed run exists for month.
func (s *Store) IsRunComplete(ctx context.Context, month generic.Month) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.GetContext(ctx, &count,
		s.db.Rebind("SELECT COUNT(*) FROM payroll_runs WHERE month = ? AND status = ?"),
		month.String(), string(payroll.RunCompleted))
	if err != nil {
		return false, fmt.Errorf("failed to check run: %w", err)
	}
	return count > 0, nil
}

var _ payroll.Store = (*Store)(nil)
