package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
)

// =============================================================================
// SERVICE - Record lifecycle over a Store
// =============================================================================

// Service ties the generator to persistence: draft -> saved -> paid.
type Service struct {
	store     Store
	rules     Rules
	calc      *Calculator
	generator *Generator
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(store Store, rules Rules, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	calc := NewCalculator(store, rules)
	return &Service{
		store:     store,
		rules:     rules,
		calc:      calc,
		generator: NewGenerator(store, store, calc, logger),
		logger:    logger.Named("payroll.service"),
		now:       time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Rules() Rules { return s.rules }

// Generate returns draft records; nothing is persisted.
func (s *Service) Generate(ctx context.Context, month generic.Month) ([]Record, error) {
	return s.generator.Generate(ctx, month)
}

// SaveResult describes one Save call.
type SaveResult struct {
	Run    Run
	Saved  []Record
	Locked []string // employees whose paid record was left untouched
}

// Save generates the month and upserts every record on (employee, month).
// Paid records are skipped and reported in Locked. Any other failure marks
// the run failed and is returned.
func (s *Service) Save(ctx context.Context, month generic.Month) (SaveResult, error) {
	run := Run{
		ID:        uuid.NewString(),
		Month:     month,
		Status:    RunRunning,
		StartedAt: s.now().UTC(),
	}
	if err := s.store.SaveRun(ctx, run); err != nil {
		return SaveResult{}, fmt.Errorf("start run: %w", err)
	}

	result, err := s.save(ctx, month)
	completed := s.now().UTC()
	run.CompletedAt = &completed
	if err != nil {
		run.Status = RunFailed
		run.Error = err.Error()
		if saveErr := s.store.SaveRun(ctx, run); saveErr != nil {
			s.logger.Error("record failed run", zap.String("run_id", run.ID), zap.Error(saveErr))
		}
		s.logger.Error("payroll save failed", zap.String("month", month.String()), zap.Error(err))
		return SaveResult{Run: run}, err
	}

	run.Status = RunCompleted
	run.EmployeeCount = len(result.Saved)
	run.TotalNet = TotalNet(result.Saved)
	if err := s.store.SaveRun(ctx, run); err != nil {
		return SaveResult{}, fmt.Errorf("complete run: %w", err)
	}
	result.Run = run

	s.logger.Info("payroll saved",
		zap.String("month", month.String()),
		zap.String("run_id", run.ID),
		zap.Int("saved", len(result.Saved)),
		zap.Int("locked", len(result.Locked)))
	return result, nil
}

func (s *Service) save(ctx context.Context, month generic.Month) (SaveResult, error) {
	drafts, err := s.generator.Generate(ctx, month)
	if err != nil {
		return SaveResult{}, err
	}

	var result SaveResult
	now := s.now().UTC()
	for _, rec := range drafts {
		rec.ID = uuid.NewString()
		rec.Status = RecordSaved
		rec.CreatedAt = now
		rec.UpdatedAt = now
		err := s.store.UpsertRecord(ctx, rec)
		switch {
		case errors.Is(err, ErrRecordLocked):
			result.Locked = append(result.Locked, rec.EmployeeID)
			continue
		case err != nil:
			return SaveResult{}, fmt.Errorf("save record %s: %w", rec.Key(), err)
		}
		saved, err := s.store.GetRecord(ctx, rec.EmployeeID, month)
		if err != nil {
			return SaveResult{}, fmt.Errorf("reload record %s: %w", rec.Key(), err)
		}
		saved.Cap = rec.Cap
		result.Saved = append(result.Saved, saved)
	}
	return result, nil
}

// MarkPaid moves saved records to paid and applies their ledger line items
// as installments. An empty employeeIDs marks every saved record of month.
// Already-paid records are returned unchanged; drafts cannot be paid.
func (s *Service) MarkPaid(ctx context.Context, month generic.Month, employeeIDs []string) ([]Record, error) {
	if len(employeeIDs) == 0 {
		records, err := s.store.ListRecords(ctx, month)
		if err != nil {
			return nil, fmt.Errorf("list records for %s: %w", month, err)
		}
		for _, r := range records {
			if r.Status == RecordSaved {
				employeeIDs = append(employeeIDs, r.EmployeeID)
			}
		}
	}

	paid := make([]Record, 0, len(employeeIDs))
	for _, id := range employeeIDs {
		rec, err := s.store.GetRecord(ctx, id, month)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", id, err)
		}
		switch rec.Status {
		case RecordPaid:
			paid = append(paid, rec)
			continue
		case RecordSaved:
		default:
			return nil, fmt.Errorf("employee %s: %s -> %s: %w", id, rec.Status, RecordPaid, ErrInvalidStatusTransition)
		}

		if err := s.applyInstallments(ctx, rec); err != nil {
			return nil, err
		}
		rec.Status = RecordPaid
		rec.UpdatedAt = s.now().UTC()
		if err := s.store.UpsertRecord(ctx, rec); err != nil {
			return nil, fmt.Errorf("mark %s paid: %w", rec.Key(), err)
		}
		paid = append(paid, rec)
	}

	s.logger.Info("payroll marked paid", zap.String("month", month.String()), zap.Int("records", len(paid)))
	return paid, nil
}

func (s *Service) applyInstallments(ctx context.Context, rec Record) error {
	for _, item := range rec.Items {
		if item.EntryID == "" {
			continue
		}
		_, err := s.store.ApplyInstallment(ctx, Installment{
			ID:         uuid.NewString(),
			EntryID:    item.EntryID,
			EmployeeID: rec.EmployeeID,
			Month:      rec.Month,
			Amount:     item.Amount,
			AppliedAt:  s.now().UTC(),
		})
		if errors.Is(err, generic.ErrDuplicateIdempotencyKey) {
			s.logger.Debug("installment already applied",
				zap.String("entry_id", item.EntryID), zap.String("month", rec.Month.String()))
			continue
		}
		if err != nil {
			return fmt.Errorf("apply installment %s for %s: %w", item.EntryID, rec.Month, err)
		}
	}
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Breakdown computes the deduction breakdown for one employee. When
// leaveDays is nil it is derived from the employee's leave records.
func (s *Service) Breakdown(ctx context.Context, employeeID string, month generic.Month, leaveDays *int) (Breakdown, error) {
	emp, err := s.Employee(ctx, employeeID)
	if err != nil {
		return Breakdown{}, err
	}
	days := 0
	if leaveDays != nil {
		days = *leaveDays
	} else {
		records, err := s.store.ListEmployeeLeaves(ctx, employeeID)
		if err != nil {
			return Breakdown{}, fmt.Errorf("list leave for %s: %w", employeeID, err)
		}
		if days, err = leave.OverlapDays(month.Period(), records); err != nil {
			return Breakdown{}, err
		}
	}
	return s.calc.Calculate(ctx, emp, days, month)
}

// ValidateCap checks deductions against the configured cap.
func (s *Service) ValidateCap(basic, totalDeductions generic.Amount) CapResult {
	return s.rules.ValidateCap(basic, totalDeductions)
}

func (s *Service) Records(ctx context.Context, month generic.Month) ([]Record, error) {
	return s.store.ListRecords(ctx, month)
}

func (s *Service) Record(ctx context.Context, employeeID string, month generic.Month) (Record, error) {
	return s.store.GetRecord(ctx, employeeID, month)
}

func (s *Service) Runs(ctx context.Context) ([]Run, error) {
	return s.store.ListRuns(ctx)
}

// IsRunComplete reports whether month already has a completed run.
func (s *Service) IsRunComplete(ctx context.Context, month generic.Month) (bool, error) {
	return s.store.IsRunComplete(ctx, month)
}

// =============================================================================
// REGISTRY - Employees, leave and deduction entries
// =============================================================================

func (s *Service) Employee(ctx context.Context, id string) (Employee, error) {
	emp, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, fmt.Errorf("get employee %s: %w", id, err)
	}
	if emp == nil {
		return Employee{}, fmt.Errorf("%s: %w", id, generic.ErrEmployeeNotFound)
	}
	return *emp, nil
}

func (s *Service) Employees(ctx context.Context) ([]Employee, error) {
	return s.store.ListEmployees(ctx)
}

// RegisterEmployee validates and stores emp, assigning an ID when empty.
func (s *Service) RegisterEmployee(ctx context.Context, emp Employee) (Employee, error) {
	if strings.TrimSpace(emp.Name) == "" {
		return Employee{}, &generic.InvalidInputError{Field: "name", Err: ErrInvalidEmployee}
	}
	for field, amount := range map[string]generic.Amount{
		"basic_salary":      emp.BasicSalary,
		"housing_allowance": emp.HousingAllowance,
		"other_allowance":   emp.OtherAllowance,
	} {
		if amount.IsNegative() || !amount.Value.Equal(amount.Value.Round(2)) {
			return Employee{}, &generic.InvalidInputError{Field: field, Value: amount.Value.String(), Err: generic.ErrInvalidAmount}
		}
	}
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	if emp.Status == "" {
		emp.Status = EmployeeActive
	}
	if !emp.Status.Valid() {
		return Employee{}, &generic.InvalidInputError{Field: "status", Value: string(emp.Status), Err: ErrInvalidEmployee}
	}
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = s.now().UTC()
	}
	if err := s.store.SaveEmployee(ctx, emp); err != nil {
		return Employee{}, fmt.Errorf("save employee: %w", err)
	}
	return emp, nil
}

func (s *Service) Leaves(ctx context.Context, employeeID string) ([]leave.Record, error) {
	if _, err := s.Employee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.store.ListEmployeeLeaves(ctx, employeeID)
}

// RegisterLeave stores a leave record for an existing employee.
func (s *Service) RegisterLeave(ctx context.Context, rec leave.Record) (leave.Record, error) {
	if _, err := s.Employee(ctx, rec.EmployeeID); err != nil {
		return leave.Record{}, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = leave.StatusPending
	}
	if rec.Type == "" {
		rec.Type = leave.TypeAnnual
	}
	if err := rec.Validate(); err != nil {
		return leave.Record{}, err
	}
	if err := s.store.SaveLeave(ctx, rec); err != nil {
		return leave.Record{}, fmt.Errorf("save leave: %w", err)
	}
	return rec, nil
}

func (s *Service) Deductions(ctx context.Context, employeeID string) ([]DeductionEntry, error) {
	if _, err := s.Employee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.store.ListDeductions(ctx, employeeID)
}

// RegisterDeduction normalizes and validates entry before storing it. An
// entry with neither installment nor remaining amount is rejected here so
// it can never be skipped silently at payroll time.
func (s *Service) RegisterDeduction(ctx context.Context, entry DeductionEntry) (DeductionEntry, error) {
	if _, err := s.Employee(ctx, entry.EmployeeID); err != nil {
		return DeductionEntry{}, err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	entry = entry.Normalize()
	if err := entry.Validate(); err != nil {
		return DeductionEntry{}, err
	}
	if err := s.store.SaveDeduction(ctx, entry); err != nil {
		return DeductionEntry{}, fmt.Errorf("save deduction: %w", err)
	}
	return entry, nil
}
