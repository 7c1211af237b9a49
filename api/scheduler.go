/*
scheduler.go - Automated monthly payroll scheduler

PURPOSE:
  Periodically checks whether the current month's payroll should be saved
  and, once the configured run day is reached, saves it and archives the
  Mudad export.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Acts only from RunDay onwards within the month
  - Skips months that already have a completed run
  - Every save is recorded as a payroll run for audit and UI display

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - RunDay: First day of the month the save may happen (default: 25)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewPayrollScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Save endpoint (manual save)
  - payroll/service.go: Service.Save
*/
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/payroll-engine/generic"
)

// PayrollScheduler saves the current month's payroll once per month.
type PayrollScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	RunDay        int
	Enabled       bool

	logger *zap.Logger
	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPayrollScheduler creates a new scheduler.
func NewPayrollScheduler(handler *Handler) *PayrollScheduler {
	return &PayrollScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		RunDay:        25,
		Enabled:       true,
		logger:        handler.logger.Named("scheduler"),
		now:           time.Now,
	}
}

// Start begins the scheduler.
func (ps *PayrollScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled {
		ps.logger.Info("disabled, not starting")
		return
	}
	if ps.ticker != nil {
		return
	}

	ps.stop = make(chan struct{})
	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.wg.Add(1)

	go ps.run()

	ps.logger.Info("started",
		zap.Duration("interval", ps.CheckInterval),
		zap.Int("run_day", ps.RunDay))
}

// Stop stops the scheduler and waits for an in-flight check.
func (ps *PayrollScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker != nil {
		ps.ticker.Stop()
		close(ps.stop)
		ps.wg.Wait()
		ps.ticker = nil
		ps.logger.Info("stopped")
	}
}

func (ps *PayrollScheduler) run() {
	defer ps.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-ps.stop
		cancel()
	}()

	// Run immediately on start
	ps.checkAndProcess(ctx)

	for {
		select {
		case <-ps.ticker.C:
			ps.checkAndProcess(ctx)
		case <-ps.stop:
			return
		}
	}
}

func (ps *PayrollScheduler) checkAndProcess(ctx context.Context) {
	saved, err := ps.CheckAndProcess(ctx)
	if err != nil {
		ps.logger.Error("scheduled payroll failed", zap.Error(err))
		return
	}
	if saved {
		ps.logger.Info("scheduled payroll saved")
	}
}

// CheckAndProcess saves the current month when due. It reports whether a
// save happened.
func (ps *PayrollScheduler) CheckAndProcess(ctx context.Context) (bool, error) {
	now := ps.now()
	month := generic.MonthOf(generic.FromTime(now))
	if now.Day() < ps.RunDay {
		ps.logger.Debug("before run day", zap.String("month", month.String()))
		return false, nil
	}

	done, err := ps.Handler.Service.IsRunComplete(ctx, month)
	if err != nil {
		return false, err
	}
	if done {
		ps.logger.Debug("already saved", zap.String("month", month.String()))
		return false, nil
	}

	result, err := ps.Handler.Service.Save(ctx, month)
	if err != nil {
		return false, err
	}
	ps.logger.Info("payroll run completed",
		zap.String("month", month.String()),
		zap.String("run_id", result.Run.ID),
		zap.Int("employees", result.Run.EmployeeCount),
		zap.String("total_net", result.Run.TotalNet.Fixed()))

	if len(result.Saved) > 0 {
		if _, err := ps.Handler.archiveExport(ctx, month); err != nil && !errors.Is(err, ErrArchiveDisabled) {
			ps.logger.Warn("archive export failed", zap.String("month", month.String()), zap.Error(err))
		}
	}
	return true, nil
}
