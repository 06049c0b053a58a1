package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrSyncInProgress is returned by RunOnce while another run is active
var ErrSyncInProgress = errors.New("sync already in progress")

// Step is one named unit of a sync run
type Step struct {
	Name string
	Run  func(ctx context.Context) error

	// Optional steps log their failure and let the run continue
	Optional bool
}

// SyncStatus reports the most recent run
type SyncStatus struct {
	Schedule string    `json:"schedule"`
	Runs     int       `json:"runs"`
	LastRun  time.Time `json:"last_run"`
	LastErr  string    `json:"last_error,omitempty"`
	Running  bool      `json:"running"`
}

// SyncWorker periodically re-reads the case-record source on a cron schedule
type SyncWorker struct {
	schedule string
	steps    []Step
	logger   *zap.Logger

	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool

	mu     sync.Mutex
	status SyncStatus
}

// NewSyncWorker creates a sync worker. schedule is a standard five-field cron
// expression or a descriptor such as "@every 15m".
func NewSyncWorker(schedule string, logger *zap.Logger, steps ...Step) (*SyncWorker, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}
	if len(steps) == 0 {
		return nil, errors.New("sync worker needs at least one step")
	}
	return &SyncWorker{
		schedule: schedule,
		steps:    steps,
		logger:   logger,
		status:   SyncStatus{Schedule: schedule},
	}, nil
}

// Name implements Worker
func (w *SyncWorker) Name() string {
	return "case-sync"
}

// Start implements Worker
func (w *SyncWorker) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	logger := cronLogger{w.logger.Sugar()}
	w.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(logger),
		cron.Recover(logger),
	), cron.WithLogger(logger))

	entryID, err := w.cron.AddFunc(w.schedule, func() {
		if err := w.RunOnce(w.ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
			w.logger.Error("Scheduled sync failed", zap.Error(err))
		}
	})
	if err != nil {
		w.cancel()
		return fmt.Errorf("failed to schedule sync: %w", err)
	}

	w.cron.Start()
	w.logger.Info("Sync worker started",
		zap.String("schedule", w.schedule),
		zap.Int("entry_id", int(entryID)),
		zap.Time("next_run", w.cron.Entry(entryID).Next))
	return nil
}

// Stop implements Worker. It waits for a running sync to finish.
func (w *SyncWorker) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
	return nil
}

// RunOnce runs every step in order. A failing required step ends the run.
func (w *SyncWorker) RunOnce(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	defer w.running.Store(false)

	start := time.Now()
	err := w.runSteps(ctx)

	w.mu.Lock()
	w.status.Runs++
	w.status.LastRun = start
	w.status.LastErr = ""
	if err != nil {
		w.status.LastErr = err.Error()
	}
	w.mu.Unlock()

	w.logger.Info("Sync run finished",
		zap.Duration("duration", time.Since(start)),
		zap.Bool("success", err == nil))
	return err
}

func (w *SyncWorker) runSteps(ctx context.Context) error {
	for _, step := range w.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.Run(ctx); err != nil {
			if step.Optional {
				w.logger.Error("Optional sync step failed",
					zap.String("step", step.Name),
					zap.Error(err))
				continue
			}
			return fmt.Errorf("sync step %s: %w", step.Name, err)
		}
	}
	return nil
}

// Status returns the most recent run summary
func (w *SyncWorker) Status() SyncStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.status
	s.Running = w.running.Load()
	return s
}

// cronLogger adapts zap to the cron logger interface
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

var (
	_ Worker      = (*SyncWorker)(nil)
	_ cron.Logger = cronLogger{}
)
