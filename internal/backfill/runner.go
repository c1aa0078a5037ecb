package backfill

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Trigger names what started a backfill run.
type Trigger string

const (
	TriggerStartup   Trigger = "startup"
	TriggerScheduled Trigger = "scheduled"
	TriggerOnDemand  Trigger = "on_demand"
	TriggerManual    Trigger = "manual"
)

// rechecks reports whether the run should wait and look again after the first
// empty batch, to pick up trades activated while it was draining.
func (t Trigger) rechecks() bool {
	return t == TriggerStartup || t == TriggerScheduled
}

// State of the runner.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

const (
	DefaultIdleWait   = 60 * time.Second
	DefaultMaxBatches = 1000
)

// ErrBatchLimit is returned when a run stops at the batch cap with work left.
var ErrBatchLimit = errors.New("backfill stopped at batch limit")

// Report summarizes one run.
type Report struct {
	Trigger    Trigger   `json:"trigger"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Batches    int       `json:"batches"`
	Inserted   int       `json:"inserted"`
	Coalesced  bool      `json:"coalesced"`
	Error      string    `json:"error,omitempty"`
}

// Runner drives an engine until no work is left. At most one run is active at a
// time: a trigger that arrives meanwhile is folded into the active run, which
// takes one more pass before finishing.
type Runner struct {
	engine     BatchRunner
	idleWait   time.Duration
	maxBatches int
	log        zerolog.Logger

	// sleep and beforeIdle are swapped in tests.
	sleep      func(ctx context.Context, d time.Duration) error
	beforeIdle func()

	mu      sync.Mutex
	running bool
	pending bool
	last    *Report
}

func NewRunner(engine BatchRunner, idleWait time.Duration, maxBatches int, log zerolog.Logger) *Runner {
	if idleWait <= 0 {
		idleWait = DefaultIdleWait
	}
	if maxBatches <= 0 {
		maxBatches = DefaultMaxBatches
	}
	return &Runner{
		engine:     engine,
		idleWait:   idleWait,
		maxBatches: maxBatches,
		log:        log.With().Str("component", "backfill_runner").Logger(),
		sleep:      sleepCtx,
	}
}

// Run executes a backfill run for trigger, or returns a Coalesced report at once
// when another run is active.
func (r *Runner) Run(ctx context.Context, trigger Trigger) (Report, error) {
	report := Report{Trigger: trigger, StartedAt: time.Now().UTC()}

	r.mu.Lock()
	if r.running {
		r.pending = true
		r.mu.Unlock()
		report.Coalesced = true
		report.FinishedAt = report.StartedAt
		r.log.Info().Str("trigger", string(trigger)).Msg("backfill already running, trigger coalesced")
		return report, nil
	}
	r.running = true
	r.pending = false
	r.mu.Unlock()

	r.log.Info().Str("trigger", string(trigger)).Msg("backfill run started")

	var err error
	for {
		err = r.drain(ctx, trigger, &report)
		if r.beforeIdle != nil {
			r.beforeIdle()
		}

		// A trigger coalesced after drain's last pending check must still get
		// its pass, so the check and the switch to idle share one lock.
		r.mu.Lock()
		if err == nil && r.pending {
			r.pending = false
			r.mu.Unlock()
			r.log.Debug().Str("trigger", string(trigger)).Msg("trigger arrived while finishing, draining again")
			continue
		}
		report.FinishedAt = time.Now().UTC()
		if err != nil {
			report.Error = err.Error()
		}
		r.running = false
		r.pending = false
		r.last = &report
		r.mu.Unlock()
		break
	}

	evt := r.log.Info()
	if err != nil {
		evt = r.log.Error().Err(err)
	}
	evt.Str("trigger", string(trigger)).
		Int("batches", report.Batches).
		Int("inserted", report.Inserted).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("backfill run finished")

	return report, err
}

func (r *Runner) drain(ctx context.Context, trigger Trigger, report *Report) error {
	emptyStreak := 0
	for calls := 0; calls < r.maxBatches; calls++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := r.engine.RunOnce(ctx)
		if err != nil {
			return err
		}
		if res.HasMoreWork {
			report.Batches++
			report.Inserted += res.Inserted
			emptyStreak = 0
			continue
		}

		if r.takePending() {
			continue
		}
		emptyStreak++
		if !trigger.rechecks() || emptyStreak >= 2 {
			return nil
		}
		if err := r.sleep(ctx, r.idleWait); err != nil {
			return err
		}
	}
	return ErrBatchLimit
}

func (r *Runner) takePending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.pending
	r.pending = false
	return p
}

// State reports whether a run is active.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return StateRunning
	}
	return StateIdle
}

// LastReport returns the report of the last completed run, if any.
func (r *Runner) LastReport() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil
	}
	cp := *r.last
	return &cp
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
