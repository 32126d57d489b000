// Package reminder runs the scheduled sweep that warns assignees about
// tasks that are due soon or overdue.
package reminder

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sadopc/taskflow/internal/config"
	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/logx"
	"github.com/sadopc/taskflow/internal/store"
)

// Result counts what one sweep did.
type Result struct {
	DueSoon int
	Overdue int
	Skipped int
}

type Service struct {
	store *store.Store
	log   logx.Logger
	now   func() time.Time

	mu  sync.Mutex
	cfg config.ReminderConfig
	c   *cron.Cron

	// sweepMu keeps scheduled and manual sweeps from overlapping.
	sweepMu sync.Mutex
}

func New(st *store.Store, cfg config.ReminderConfig, log logx.Logger) *Service {
	return &Service{
		store: st,
		log:   log.With(logx.String("comp", "reminder")),
		now:   time.Now,
		cfg:   cfg,
	}
}

// Start schedules the sweep. It is a no-op when reminders are disabled or
// the scheduler is already running.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx)
}

func (s *Service) startLocked(ctx context.Context) error {
	if s.c != nil || !s.cfg.Enabled {
		return nil
	}
	loc, err := s.cfg.Location()
	if err != nil {
		return fmt.Errorf("reminder timezone: %w", err)
	}
	c := cron.New(cron.WithParser(config.CronParser), cron.WithLocation(loc))
	_, err = c.AddFunc(s.cfg.Schedule, func() { s.run(ctx) })
	if err != nil {
		return fmt.Errorf("reminder schedule %q: %w", s.cfg.Schedule, err)
	}
	c.Start()
	s.c = c
	s.log.Info("reminders scheduled", logx.String("schedule", s.cfg.Schedule), logx.String("tz", loc.String()))
	return nil
}

// Stop halts the scheduler and waits for a running sweep, up to ctx.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(ctx)
}

func (s *Service) stopLocked(ctx context.Context) {
	if s.c == nil {
		return
	}
	done := s.c.Stop()
	s.c = nil
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("reminder stop timed out")
	}
}

// Apply swaps the configuration, rescheduling when anything changed.
func (s *Service) Apply(ctx context.Context, cfg config.ReminderConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg == s.cfg {
		return nil
	}
	running := s.c != nil
	s.cfg = cfg
	if running {
		s.stopLocked(ctx)
	}
	return s.startLocked(ctx)
}

func (s *Service) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("reminder sweep panic", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
	}()
	res, err := s.Sweep(ctx)
	if err != nil {
		s.log.Error("reminder sweep failed", logx.Err(err))
		return
	}
	s.log.Info("reminder sweep done",
		logx.Int("due_soon", res.DueSoon),
		logx.Int("overdue", res.Overdue),
		logx.Int("skipped", res.Skipped),
	)
}

// Sweep notifies the assignees of every open task due within the configured
// number of days. Each user gets at most one notification of each kind per
// task per day.
func (s *Service) Sweep(ctx context.Context) (Result, error) {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	loc, err := cfg.Location()
	if err != nil {
		return Result{}, fmt.Errorf("reminder timezone: %w", err)
	}
	y, m, d := s.now().In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)

	tasks, err := s.store.OpenTasksDueBy(today.AddDate(0, 0, cfg.DueWithinDays))
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		typ := store.NotifyDueSoon
		msg := fmt.Sprintf("Task %q is due %s", t.Description, labor.FormatDate(t.CompletionDate))
		if t.CompletionDate.Before(today) {
			typ = store.NotifyOverdue
			msg = fmt.Sprintf("Task %q is overdue since %s", t.Description, labor.FormatDate(t.CompletionDate))
		}
		for _, a := range t.Assignees {
			sent, err := s.store.HasNotificationSince(t.ID, a.UserID, typ, dayStart)
			if err != nil {
				return res, err
			}
			if sent {
				res.Skipped++
				continue
			}
			if _, err := s.store.CreateNotification(&t.ID, nil, a.UserID, typ, msg); err != nil {
				return res, err
			}
			if typ == store.NotifyOverdue {
				res.Overdue++
			} else {
				res.DueSoon++
			}
		}
	}
	return res, nil
}
