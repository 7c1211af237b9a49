package payroll_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
)

func newService(t *testing.T) (*payroll.Service, *memory.Store) {
	t.Helper()
	s := memory.New()
	clock := time.Date(2026, time.February, 25, 9, 0, 0, 0, time.UTC)
	svc := payroll.NewService(s, payroll.DefaultRules(), nil).WithClock(func() time.Time { return clock })
	return svc, s
}

// =============================================================================
// SAVE (UPSERT)
// =============================================================================

func TestSave_UpsertsOnEmployeeMonth(t *testing.T) {
	// GIVEN: A saved February payroll
	ctx := context.Background()
	svc, s := newService(t)
	seedEmployee(t, s, employee("emp-1", 9000, "India"))
	first, err := svc.Save(ctx, feb2026)
	require.NoError(t, err)
	require.Len(t, first.Saved, 1)

	// WHEN: Leave is approved and February is saved again
	seedLeave(t, s, "l-1", "emp-1", feb(10), feb(15), leave.StatusApproved)
	second, err := svc.Save(ctx, feb2026)
	require.NoError(t, err)

	// THEN: Exactly one record, carrying the second run's values
	records, err := svc.Records(ctx, feb2026)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "7200.00", records[0].FinalSalary.Fixed())
	assert.Equal(t, 24, records[0].WorkingDays)
	assert.Equal(t, payroll.RecordSaved, records[0].Status)
	assert.Equal(t, first.Saved[0].ID, records[0].ID, "upsert keeps the original row")
	assert.Equal(t, payroll.RunCompleted, second.Run.Status)
	assert.Equal(t, "7200.00", second.Run.TotalNet.Fixed())
}

func TestSave_RecordsRuns(t *testing.T) {
	ctx := context.Background()
	svc, s := newService(t)
	seedEmployee(t, s, employee("emp-1", 9000, "India"))
	seedEmployee(t, s, employee("emp-2", 6000, "India"))

	result, err := svc.Save(ctx, feb2026)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Run.EmployeeCount)
	assert.Equal(t, "15000.00", result.Run.TotalNet.Fixed())
	require.NotNil(t, result.Run.CompletedAt)

	done, err := svc.IsRunComplete(ctx, feb2026)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = svc.IsRunComplete(ctx, mar2026)
	require.NoError(t, err)
	assert.False(t, done)

	runs, err := svc.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}

func TestSave_FailedRunIsRecorded(t *testing.T) {
	ctx := context.Background()
	svc, s := newService(t)
	seedEmployee(t, s, employee("emp-1", 9000, "India"))
	bad := loan("d-1", 1000, 100)
	bad.Type = "bonus"
	require.NoError(t, s.SaveDeduction(ctx, bad))

	result, err := svc.Save(ctx, feb2026)

	require.Error(t, err)
	assert.Equal(t, payroll.RunFailed, result.Run.Status)
	assert.NotEmpty(t, result.Run.Error)
	records, err := svc.Records(ctx, feb2026)
	require.NoError(t, err)
	assert.Empty(t, records)
}

// =============================================================================
// MARK PAID
// =============================================================================

func TestMarkPaid_AppliesInstallmentsOnce(t *testing.T) {
	// GIVEN: A saved February payroll with a 2,000 loan at 1,000/month
	ctx := context.Background()
	svc, s := newService(t)
	seedEmployee(t, s, employee("emp-1", 9000, "India"))
	entry, err := svc.RegisterDeduction(ctx, loan("", 2000, 1000))
	require.NoError(t, err)
	_, err = svc.Save(ctx, feb2026)
	require.NoError(t, err)

	// WHEN: Marking February paid twice
	paid, err := svc.MarkPaid(ctx, feb2026, nil)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	_, err = svc.MarkPaid(ctx, feb2026, []string{"emp-1"})
	require.NoError(t, err)

	// THEN: The record is paid and the loan advanced by exactly one installment
	rec, err := svc.Record(ctx, "emp-1", feb2026)
	require.NoError(t, err)
	assert.Equal(t, payroll.RecordPaid, rec.Status)

	got, err := s.GetDeduction(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1000.00", got.DeductedAmount.Fixed())
	assert.Equal(t, "1000.00", got.RemainingAmount.Fixed())
	assert.Equal(t, payroll.DeductionActive, got.Status)
}

func TestMarkPaid_CompletesLoanAcrossMonths(t *testing.T) {
	ctx := context.Background()
	svc, s := newService(t)
	seedEmployee(t, s, employee("emp-1", 9000, "India"))
	entry, err := svc.RegisterDeduction(ctx, loan("", 2000, 1000))
	require.NoError(t, err)

	for _, month := range []generic.Month{feb2026, mar2026} {
		_, err := svc.Save(ctx, month)
		require.NoError(t, err)
		_, err = svc.MarkPaid(ctx, month, nil)
		require.NoError(t, err)
	}

	got, err := s.GetDeduction(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.DeductionCompleted, got.Status)
	assert.Equal(t, mar2026, *got.EndMonth)

	// April no longer deducts the loan
	records, err := svc.Generate(ctx, mar2026.Next())
	require.NoError(t, err)
	assert.Equal(t, "9000.00", records[0].FinalSalary.Fixed())
}

func TestSave_PaidRecordIsLocked(t *testing.T) {
	// GIVEN: A paid February record
	ctx := context.Background()
	svc, s := newService(t)
	seedEmployee(t, s, employee("emp-1", 9000, "India"))
	seedEmployee(t, s, employee("emp-2", 6000, "India"))
	_, err := svc.Save(ctx, feb2026)
	require.NoError(t, err)
	_, err = svc.MarkPaid(ctx, feb2026, []string{"emp-1"})
	require.NoError(t, err)

	// WHEN: February is saved again after new leave
	seedLeave(t, s, "l-1", "emp-1", feb(10), feb(15), leave.StatusApproved)
	result, err := svc.Save(ctx, feb2026)

	// THEN: The paid record is untouched and reported as locked
	require.NoError(t, err)
	assert.Equal(t, []string{"emp-1"}, result.Locked)
	require.Len(t, result.Saved, 1)
	assert.Equal(t, "emp-2", result.Saved[0].EmployeeID)

	rec, err := svc.Record(ctx, "emp-1", feb2026)
	require.NoError(t, err)
	assert.Equal(t, "9000.00", rec.FinalSalary.Fixed())
	assert.Equal(t, payroll.RecordPaid, rec.Status)
}

func TestMarkPaid_UnknownRecord(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.MarkPaid(context.Background(), feb2026, []string{"ghost"})

	assert.ErrorIs(t, err, generic.ErrRecordNotFound)
	assert.True(t, generic.IsNotFound(err))
}

// =============================================================================
// BREAKDOWN & REGISTRY
// =============================================================================

func TestBreakdown_DerivesLeaveDaysFromStore(t *testing.T) {
	ctx := context.Background()
	svc, s := newService(t)
	seedEmployee(t, s, employee("emp-1", 3000, "India"))
	seedLeave(t, s, "l-1", "emp-1", feb(1), feb(5), leave.StatusApproved)

	b, err := svc.Breakdown(ctx, "emp-1", feb2026, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, b.LeaveDays)
	assert.Equal(t, "500.00", b.LeaveDeduction.Fixed())

	override := 2
	b, err = svc.Breakdown(ctx, "emp-1", feb2026, &override)
	require.NoError(t, err)
	assert.Equal(t, "200.00", b.LeaveDeduction.Fixed())
}

func TestBreakdown_UnknownEmployee(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Breakdown(context.Background(), "ghost", feb2026, nil)

	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)
}

func TestRegisterDeduction_RejectsUnpayable(t *testing.T) {
	ctx := context.Background()
	svc, s := newService(t)
	seedEmployee(t, s, employee("emp-1", 3000, "India"))

	_, err := svc.RegisterDeduction(ctx, payroll.DeductionEntry{
		EmployeeID: "emp-1",
		Type:       payroll.DeductionInsurance,
		StartMonth: feb2026,
		Recurring:  true,
	})

	assert.ErrorIs(t, err, payroll.ErrUnpayableDeduction)
	entries, err := svc.Deductions(ctx, "emp-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRegisterEmployee_Defaults(t *testing.T) {
	svc, _ := newService(t)

	emp, err := svc.RegisterEmployee(context.Background(), payroll.Employee{
		Name:        "Fatimah",
		Nationality: "Saudi",
		BasicSalary: generic.SAR(12000),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, emp.ID)
	assert.Equal(t, payroll.EmployeeActive, emp.Status)
	assert.False(t, emp.CreatedAt.IsZero())
}

func TestRegisterEmployee_RejectsNegativeSalary(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.RegisterEmployee(context.Background(), payroll.Employee{
		Name:        "X",
		BasicSalary: generic.SAR(-1),
	})

	assert.ErrorIs(t, err, generic.ErrInvalidAmount)
}

func TestRegisterEmployee_RejectsSubHalalaAmounts(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.RegisterEmployee(context.Background(), payroll.Employee{
		Name:             "X",
		BasicSalary:      generic.SAR(3000),
		HousingAllowance: generic.SAR(500.005),
	})

	var input *generic.InvalidInputError
	require.ErrorAs(t, err, &input)
	assert.Equal(t, "housing_allowance", input.Field)
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)
}

func TestRegisterLeave_RejectsInvertedDates(t *testing.T) {
	ctx := context.Background()
	svc, s := newService(t)
	seedEmployee(t, s, employee("emp-1", 3000, "India"))

	_, err := svc.RegisterLeave(ctx, leave.Record{
		EmployeeID: "emp-1",
		Start:      feb(10),
		End:        feb(5),
		Status:     leave.StatusApproved,
	})

	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
}
