package backfill

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ddjj/internal/apperr"
	"ddjj/internal/model"
	"ddjj/internal/period"
	"ddjj/internal/repository"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// monthlySchedule fires once a month on the deadline day, clamped to the
// month length, at hour:minute in loc.
type monthlySchedule struct {
	day    int
	hour   int
	minute int
	loc    *time.Location
}

func (s monthlySchedule) Next(t time.Time) time.Time {
	t = t.In(s.loc)
	for i := 0; i < 2; i++ {
		first := time.Date(t.Year(), t.Month()+time.Month(i), 1, 0, 0, 0, 0, s.loc)
		at := period.DeadlineIn(first, s.day, s.loc).Add(time.Duration(s.hour)*time.Hour + time.Duration(s.minute)*time.Minute)
		if at.After(t) {
			return at
		}
	}
	// unreachable: next month's slot is always after t
	return time.Time{}
}

// Status is the scheduler snapshot exposed to operators.
type Status struct {
	State       State     `json:"state"`
	DeadlineDay int       `json:"deadline_day"`
	NextRun     time.Time `json:"next_run,omitempty"`
	LastRun     *Report   `json:"last_run,omitempty"`
}

// Scheduler decides when the Runner executes: once at process start if the
// deadline already passed, every month on the deadline day, and on demand.
type Scheduler struct {
	cron       *cron.Cron
	runner     *Runner
	configRepo repository.ConfigurationRepository
	clock      period.Clock
	runHour    int
	runMinute  int
	log        zerolog.Logger

	mu          sync.Mutex
	ctx         context.Context
	entryID     cron.EntryID
	deadlineDay int
}

func NewScheduler(
	runner *Runner,
	configRepo repository.ConfigurationRepository,
	clock period.Clock,
	runHour, runMinute int,
	log zerolog.Logger,
) *Scheduler {
	log = log.With().Str("component", "backfill_scheduler").Logger()
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(clock.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner:     runner,
		configRepo: configRepo,
		clock:      clock,
		runHour:    runHour,
		runMinute:  runMinute,
		log:        log,
		ctx:        context.Background(),
	}
}

// Start registers the monthly job and, in the background, performs the startup
// check. Scheduled runs use ctx and stop when it is cancelled. A missing
// configuration is logged and leaves only the on-demand path active until the
// configuration is saved.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	cfg, err := s.configRepo.Get(ctx)
	switch {
	case err == nil:
		s.register(cfg.DeadlineDay)
	case repository.IsNotFound(err):
		s.log.Error().Msg("configuration row missing: monthly backfill not scheduled, seed or save the configuration")
	default:
		s.log.Error().Err(err).Msg("failed to load configuration, monthly backfill not scheduled")
	}

	s.cron.Start()

	go func() {
		if _, _, err := s.RunIfDue(ctx, TriggerStartup); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error().Err(err).Msg("startup backfill failed")
		}
	}()
}

// Stop halts the cron loop. The returned context is done once a scheduled job
// in flight has returned; cancelling Start's ctx makes that prompt.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// ConfigurationChanged re-registers the monthly job when the deadline moved.
func (s *Scheduler) ConfigurationChanged(cfg model.Configuration) {
	s.mu.Lock()
	same := s.entryID != 0 && s.deadlineDay == cfg.DeadlineDay
	s.mu.Unlock()
	if same {
		return
	}
	s.register(cfg.DeadlineDay)
}

func (s *Scheduler) register(day int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}
	sched := monthlySchedule{day: day, hour: s.runHour, minute: s.runMinute, loc: s.clock.Location}
	s.entryID = s.cron.Schedule(sched, cron.FuncJob(s.runScheduled))
	s.deadlineDay = day

	s.log.Info().
		Int("deadline_day", day).
		Time("next_run", sched.Next(s.clock.Now())).
		Msg("monthly backfill scheduled")
}

func (s *Scheduler) runScheduled() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if _, err := s.runner.Run(ctx, TriggerScheduled); err != nil {
		s.log.Error().Err(err).Msg("scheduled backfill failed")
	}
}

// RunIfDue runs the backfill when the current month's deadline has passed. ran
// is false when the deadline is still ahead.
func (s *Scheduler) RunIfDue(ctx context.Context, trigger Trigger) (report Report, ran bool, err error) {
	cfg, err := s.configRepo.Get(ctx)
	if err != nil {
		if repository.IsNotFound(err) {
			return Report{}, false, fmt.Errorf("%w: cannot evaluate backfill deadline", apperr.ErrConfigurationMissing)
		}
		return Report{}, false, apperr.Persistence("load configuration", err)
	}
	if !period.DeadlinePassed(s.clock.Now(), cfg.DeadlineDay, s.clock.Location) {
		return Report{}, false, nil
	}
	report, err = s.runner.Run(ctx, trigger)
	return report, true, err
}

// Run starts a backfill run unconditionally.
func (s *Scheduler) Run(ctx context.Context, trigger Trigger) (Report, error) {
	return s.runner.Run(ctx, trigger)
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	st := Status{DeadlineDay: s.deadlineDay}
	if s.entryID != 0 {
		st.NextRun = s.cron.Entry(s.entryID).Schedule.Next(s.clock.Now())
	}
	s.mu.Unlock()

	st.State = s.runner.State()
	st.LastRun = s.runner.LastReport()
	return st
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
