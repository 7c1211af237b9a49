package sqlstore

// schema is portable between SQLite (3.24+) and PostgreSQL: text columns for
// ids, dates (YYYY-MM-DD), months (YYYY-MM), timestamps (RFC3339) and decimal
// amounts, so lexical comparison matches chronological order.
const schema = `
	-- Employee registry (read-only to payroll)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		national_id TEXT NOT NULL DEFAULT '',
		nationality TEXT NOT NULL DEFAULT '',
		basic_salary TEXT NOT NULL,
		housing_allowance TEXT NOT NULL,
		other_allowance TEXT NOT NULL,
		currency TEXT NOT NULL,
		iban TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_status
		ON employees(status);

	-- Leave records
	CREATE TABLE IF NOT EXISTS leave_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		exit_reentry_visa BOOLEAN NOT NULL DEFAULT FALSE,
		reason TEXT NOT NULL DEFAULT '',
		CHECK (start_date <= end_date)
	);

	CREATE INDEX IF NOT EXISTS idx_leave_employee
		ON leave_records(employee_id, start_date);

	-- Hot path: qualifying leave intersecting a payroll month
	CREATE INDEX IF NOT EXISTS idx_leave_status_window
		ON leave_records(status, start_date, end_date);

	-- Deduction ledger
	CREATE TABLE IF NOT EXISTS deductions (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		deduction_type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		total_amount TEXT NOT NULL,
		deducted_amount TEXT NOT NULL,
		monthly_installment TEXT,
		remaining_amount TEXT,
		currency TEXT NOT NULL,
		start_month TEXT NOT NULL,
		end_month TEXT,
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deductions_active
		ON deductions(employee_id, status, start_month);

	-- One installment per entry per month
	CREATE TABLE IF NOT EXISTS deduction_installments (
		id TEXT PRIMARY KEY,
		entry_id TEXT NOT NULL REFERENCES deductions(id),
		employee_id TEXT NOT NULL,
		month TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		applied_at TEXT NOT NULL,
		UNIQUE (entry_id, month)
	);

	-- Payroll ledger: at most one record per (employee, month)
	CREATE TABLE IF NOT EXISTS payroll_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		employee_name TEXT NOT NULL,
		month TEXT NOT NULL,
		salary_basic TEXT NOT NULL,
		housing_allowance TEXT NOT NULL,
		other_allowance TEXT NOT NULL,
		deductions TEXT NOT NULL,
		working_days INTEGER NOT NULL,
		leave_days INTEGER NOT NULL,
		final_salary TEXT NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		items_json TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (employee_id, month),
		CHECK (working_days BETWEEN 0 AND 30)
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_records_month
		ON payroll_records(month);

	-- Run audit trail
	CREATE TABLE IF NOT EXISTS payroll_runs (
		id TEXT PRIMARY KEY,
		month TEXT NOT NULL,
		status TEXT NOT NULL,
		employee_count INTEGER NOT NULL DEFAULT 0,
		total_net TEXT NOT NULL DEFAULT '0',
		currency TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_runs_month
		ON payroll_runs(month, status);
`

// tables in dependency order, children first.
var tables = []string{
	"deduction_installments",
	"payroll_records",
	"payroll_runs",
	"deductions",
	"leave_records",
	"employees",
}
