package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/postgres"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var feb2026 = generic.NewMonth(2026, time.February)

var deductionColumns = []string{
	"id", "employee_id", "deduction_type", "description", "total_amount", "deducted_amount",
	"monthly_installment", "remaining_amount", "currency", "start_month", "end_month",
	"recurring", "status", "created_at",
}

func newStore(t *testing.T) (*postgres.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.New(sqlx.NewDb(db, "pgx")), mock
}

func loanRow() *sqlmock.Rows {
	return sqlmock.NewRows(deductionColumns).AddRow(
		"d-1", "emp-1", "loan", "Car loan", "3000", "1000",
		"1000", "2000", "SAR", "2026-01", nil,
		false, "active", "2026-01-01T00:00:00Z",
	)
}

// =============================================================================
// DEDUCTION LEDGER READER
// =============================================================================

func TestActiveDeductions_BindsDollarPlaceholders(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE employee_id = $1 AND status = $2 AND start_month <= $3 AND (end_month IS NULL OR end_month >= $4)",
	)).
		WithArgs("emp-1", "active", "2026-02", "2026-02").
		WillReturnRows(loanRow())

	entries, err := store.ActiveDeductions(context.Background(), "emp-1", feb2026)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, payroll.DeductionLoan, e.Type)
	assert.Equal(t, "1000.00", e.MonthlyInstallment.Fixed())
	assert.Equal(t, "2000.00", e.RemainingAmount.Fixed())
	assert.Nil(t, e.EndMonth)
	assert.Equal(t, generic.NewMonth(2026, time.January), e.StartMonth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveDeductions_ReadFailureSurfaces(t *testing.T) {
	// GIVEN: The database drops the connection
	store, mock := newStore(t)
	boom := errors.New("connection reset by peer")
	mock.ExpectQuery("FROM deductions").WillReturnError(boom)

	// WHEN: Reading the ledger
	entries, err := store.ActiveDeductions(context.Background(), "emp-1", feb2026)

	// THEN: The failure is returned, not an empty list
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, entries)
}

func TestActiveDeductions_CorruptAmount(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery("FROM deductions").WillReturnRows(
		sqlmock.NewRows(deductionColumns).AddRow(
			"d-1", "emp-1", "loan", "", "abc", "0", nil, nil, "SAR", "2026-01", nil, false, "active", "",
		))

	_, err := store.ActiveDeductions(context.Background(), "emp-1", feb2026)

	assert.ErrorIs(t, err, generic.ErrInvalidAmount)
}

// =============================================================================
// PAYROLL LEDGER
// =============================================================================

func TestUpsertRecord_ConflictTargetAndLock(t *testing.T) {
	store, mock := newStore(t)
	rec := payroll.Record{
		ID: "r-1", EmployeeID: "emp-1", EmployeeName: "E", Month: feb2026,
		SalaryBasic: generic.SAR(9000), HousingAllowance: generic.SAR(0), OtherAllowance: generic.SAR(0),
		Deductions: generic.SAR(1800), WorkingDays: 24, LeaveDays: 6, FinalSalary: generic.SAR(7200),
		Status: payroll.RecordSaved,
	}
	upsert := regexp.QuoteMeta("ON CONFLICT(employee_id, month) DO UPDATE SET") + ".*" +
		regexp.QuoteMeta("WHERE payroll_records.status <> 'paid'")

	mock.ExpectExec(upsert).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.UpsertRecord(context.Background(), rec))

	mock.ExpectExec(upsert).WillReturnResult(sqlmock.NewResult(0, 0))
	err := store.UpsertRecord(context.Background(), rec)

	assert.ErrorIs(t, err, payroll.ErrRecordLocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRunComplete(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM payroll_runs WHERE month = $1 AND status = $2")).
		WithArgs("2026-02", "completed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	done, err := store.IsRunComplete(context.Background(), feb2026)

	require.NoError(t, err)
	assert.True(t, done)
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

func TestApplyInstallment_Commits(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM deductions WHERE id = \\$1").WithArgs("d-1").WillReturnRows(loanRow())
	mock.ExpectExec("INSERT INTO deduction_installments").
		WithArgs("i-1", "d-1", "emp-1", "2026-02", "1000", "SAR", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO deductions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry, err := store.ApplyInstallment(context.Background(), payroll.Installment{
		ID: "i-1", EntryID: "d-1", EmployeeID: "emp-1", Month: feb2026, Amount: generic.SAR(1000),
	})

	require.NoError(t, err)
	assert.Equal(t, "2000.00", entry.DeductedAmount.Fixed())
	assert.Equal(t, "1000.00", entry.RemainingAmount.Fixed())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyInstallment_DuplicateRollsBack(t *testing.T) {
	// GIVEN: The installment for (d-1, 2026-02) already exists
	store, mock := newStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM deductions WHERE id = \\$1").WillReturnRows(loanRow())
	mock.ExpectExec("INSERT INTO deduction_installments").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	// WHEN: Applying it again
	_, err := store.ApplyInstallment(context.Background(), payroll.Installment{
		ID: "i-2", EntryID: "d-1", EmployeeID: "emp-1", Month: feb2026, Amount: generic.SAR(1000),
	})

	// THEN: Reported as a duplicate and the entry is not updated
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}
