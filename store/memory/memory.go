// Package memory provides an in-memory payroll.Store for tests and dev.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu           sync.RWMutex
	employees    map[string]payroll.Employee
	leaves       map[string]leave.Record
	deductions   map[string]payroll.DeductionEntry
	installments map[string]payroll.Installment // by IdempotencyKey
	records      map[recordKey]payroll.Record
	runs         map[string]payroll.Run

	// FailReads makes every read return this error. Used to exercise
	// read-failure propagation.
	FailReads error
}

type recordKey struct {
	EmployeeID string
	Month      generic.Month
}

func New() *Store {
	s := &Store{}
	s.clear()
	return s
}

// Reset drops all data.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	return nil
}

func (s *Store) clear() {
	s.employees = make(map[string]payroll.Employee)
	s.leaves = make(map[string]leave.Record)
	s.deductions = make(map[string]payroll.DeductionEntry)
	s.installments = make(map[string]payroll.Installment)
	s.records = make(map[recordKey]payroll.Record)
	s.runs = make(map[string]payroll.Run)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(_ context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[emp.ID] = emp
	return nil
}

func (s *Store) GetEmployee(_ context.Context, id string) (*payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	emp, ok := s.employees[id]
	if !ok {
		return nil, nil
	}
	return &emp, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]payroll.Employee, error) {
	return s.listEmployees(func(payroll.Employee) bool { return true })
}

func (s *Store) ListActiveEmployees(_ context.Context) ([]payroll.Employee, error) {
	return s.listEmployees(func(e payroll.Employee) bool { return e.Status == payroll.EmployeeActive })
}

func (s *Store) listEmployees(keep func(payroll.Employee) bool) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	var out []payroll.Employee
	for _, e := range s.employees {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// LEAVE
// =============================================================================

func (s *Store) SaveLeave(_ context.Context, rec leave.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaves[rec.ID] = rec
	return nil
}

func (s *Store) ListEmployeeLeaves(_ context.Context, employeeID string) ([]leave.Record, error) {
	return s.listLeaves(func(r leave.Record) bool { return r.EmployeeID == employeeID })
}

func (s *Store) ListQualifyingLeaves(_ context.Context, window generic.Period) ([]leave.Record, error) {
	return s.listLeaves(func(r leave.Record) bool {
		if !r.Status.Qualifies() {
			return false
		}
		_, ok := r.Period().Intersect(window)
		return ok
	})
}

func (s *Store) listLeaves(keep func(leave.Record) bool) ([]leave.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	var out []leave.Record
	for _, r := range s.leaves {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// =============================================================================
// DEDUCTION LEDGER
// =============================================================================

func (s *Store) SaveDeduction(_ context.Context, entry payroll.DeductionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deductions[entry.ID] = entry
	return nil
}

func (s *Store) GetDeduction(_ context.Context, id string) (*payroll.DeductionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	entry, ok := s.deductions[id]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *Store) ListDeductions(_ context.Context, employeeID string) ([]payroll.DeductionEntry, error) {
	return s.listDeductions(func(e payroll.DeductionEntry) bool { return e.EmployeeID == employeeID })
}

func (s *Store) ActiveDeductions(_ context.Context, employeeID string, month generic.Month) ([]payroll.DeductionEntry, error) {
	return s.listDeductions(func(e payroll.DeductionEntry) bool {
		return e.EmployeeID == employeeID && e.ActiveIn(month)
	})
}

func (s *Store) listDeductions(keep func(payroll.DeductionEntry) bool) ([]payroll.DeductionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	var out []payroll.DeductionEntry
	for _, e := range s.deductions {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ApplyInstallment checks and writes under one lock, which makes it atomic.
func (s *Store) ApplyInstallment(_ context.Context, inst payroll.Installment) (payroll.DeductionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.installments[inst.IdempotencyKey()]; dup {
		return payroll.DeductionEntry{}, generic.ErrDuplicateIdempotencyKey
	}
	entry, ok := s.deductions[inst.EntryID]
	if !ok {
		return payroll.DeductionEntry{}, payroll.ErrDeductionNotFound
	}
	entry = entry.Apply(inst.Amount, inst.Month)
	s.deductions[entry.ID] = entry
	s.installments[inst.IdempotencyKey()] = inst
	return entry, nil
}

// =============================================================================
// PAYROLL LEDGER
// =============================================================================

func (s *Store) UpsertRecord(_ context.Context, rec payroll.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := recordKey{EmployeeID: rec.EmployeeID, Month: rec.Month}
	if existing, ok := s.records[k]; ok {
		if existing.Status == payroll.RecordPaid {
			return &payroll.LockedRecordError{EmployeeID: rec.EmployeeID, Month: rec.Month}
		}
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	}
	rec.Items = append([]payroll.LineItem(nil), rec.Items...)
	rec.Cap = payroll.CapResult{}
	s.records[k] = rec
	return nil
}

func (s *Store) GetRecord(_ context.Context, employeeID string, month generic.Month) (payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return payroll.Record{}, s.FailReads
	}
	rec, ok := s.records[recordKey{EmployeeID: employeeID, Month: month}]
	if !ok {
		return payroll.Record{}, generic.ErrRecordNotFound
	}
	return rec, nil
}

func (s *Store) ListRecords(_ context.Context, month generic.Month) ([]payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	var out []payroll.Record
	for k, r := range s.records {
		if k.Month == month {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (s *Store) SaveRun(_ context.Context, run payroll.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(_ context.Context) ([]payroll.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return nil, s.FailReads
	}
	out := make([]payroll.Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) IsRunComplete(_ context.Context, month generic.Month) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads != nil {
		return false, s.FailReads
	}
	for _, r := range s.runs {
		if r.Month == month && r.Status == payroll.RunCompleted {
			return true, nil
		}
	}
	return false, nil
}

var _ payroll.Store = (*Store)(nil)
