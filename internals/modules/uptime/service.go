// Package uptime is the façade the rest of the platform talks to. It owns
// the subsystem lifecycle and translates monitor CRUD notifications into
// schedule and cache operations.
package uptime

import (
	"context"
	"errors"
	"sync"
	"time"
	"watchtower/internals/modules/monitor"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type state int

const (
	stateUninitialized state = iota
	stateInitializing
	stateInitialized
	stateShuttingDown
)

var ErrShuttingDown = errors.New("uptime core is shutting down")

type MonitorSource interface {
	LoadMonitor(ctx context.Context, monitorID uuid.UUID) (*monitor.Monitor, error)
	InvalidateCache(ctx context.Context, monitorID uuid.UUID)
}

type ScheduleSeeder interface {
	ListEnabledSchedules(ctx context.Context) ([]monitor.ScheduleSeed, error)
}

type Sched interface {
	ScheduleMonitor(ctx context.Context, monitorID uuid.UUID, nextRun time.Time) error
	EnsureScheduled(ctx context.Context, monitorID uuid.UUID, nextRun time.Time) error
	UpdateMonitorSchedule(ctx context.Context, monitorID uuid.UUID, nextRun time.Time) error
	RemoveMonitorSchedule(ctx context.Context, monitorID uuid.UUID) error
	TriggerImmediateCheck(ctx context.Context, monitorID uuid.UUID) error
}

// Service guards every entry point behind a single initialization. Concurrent
// callers during startup share one in-flight init instead of racing their
// own; after a failed init the hooks degrade to warn-and-skip rather than
// erroring the caller.
type Service struct {
	mu       sync.Mutex
	state    state
	initDone chan struct{}
	initErr  error

	monitorSvc   MonitorSource
	seeder       ScheduleSeeder
	schedulerSvc Sched
	logger       *zerolog.Logger
}

func NewService(monitorSvc MonitorSource, seeder ScheduleSeeder, schedulerSvc Sched, logger *zerolog.Logger) *Service {
	return &Service{
		monitorSvc:   monitorSvc,
		seeder:       seeder,
		schedulerSvc: schedulerSvc,
		logger:       logger,
	}
}

// Initialize reconciles the schedule queue with the database. Safe to call
// from any number of goroutines; exactly one runs the work, the rest wait on
// the same outcome.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()

	switch s.state {
	case stateInitialized:
		err := s.initErr
		s.mu.Unlock()
		return err

	case stateShuttingDown:
		s.mu.Unlock()
		return ErrShuttingDown

	case stateInitializing:
		done := s.initDone
		s.mu.Unlock()

		select {
		case <-done:
			return s.initErr
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.state = stateInitializing
	s.initDone = make(chan struct{})
	s.mu.Unlock()

	err := s.bootstrap(ctx)

	s.mu.Lock()
	s.initErr = err
	s.state = stateInitialized
	close(s.initDone)
	s.mu.Unlock()

	return err
}

// bootstrap re-queues every enabled monitor that lost its schedule entry,
// without touching entries that survived the restart.
func (s *Service) bootstrap(ctx context.Context) error {
	seeds, err := s.seeder.ListEnabledSchedules(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, seed := range seeds {
		interval := time.Duration(seed.IntervalSec) * time.Second
		if err := s.schedulerSvc.EnsureScheduled(ctx, seed.ID, now.Add(interval)); err != nil {
			return err
		}
	}

	s.logger.Info().Int("monitors", len(seeds)).Msg("schedule reconciled")
	return nil
}

// Shutdown flips the lifecycle so late hook calls are refused. Queue state
// lives in Redis and survives the process, nothing to flush here.
func (s *Service) Shutdown() {
	s.mu.Lock()
	s.state = stateShuttingDown
	s.mu.Unlock()
}

// awaitInit gates every hook: a hook racing an in-progress init waits for
// its outcome instead of acting on a half-built subsystem. Returns false when
// the hook must degrade to a no-op.
func (s *Service) awaitInit(ctx context.Context) bool {
	s.mu.Lock()

	switch s.state {
	case stateInitialized:
		ok := s.initErr == nil
		s.mu.Unlock()
		return ok

	case stateInitializing:
		done := s.initDone
		s.mu.Unlock()
		select {
		case <-done:
			s.mu.Lock()
			ok := s.initErr == nil
			s.mu.Unlock()
			return ok
		case <-ctx.Done():
			return false
		}
	}

	s.mu.Unlock()
	return false
}

// OnMonitorCreated queues the first recurring run one interval out and fires
// an immediate ad-hoc check so the monitor gets a status right away.
func (s *Service) OnMonitorCreated(ctx context.Context, monitorID uuid.UUID) error {
	if !s.awaitInit(ctx) {
		s.logger.Warn().Str("monitor_id", monitorID.String()).Msg("create hook skipped, core not initialized")
		return nil
	}

	m, err := s.monitorSvc.LoadMonitor(ctx, monitorID)
	if err != nil {
		return err
	}
	if !m.Enabled {
		return nil
	}

	if err := s.schedulerSvc.ScheduleMonitor(ctx, monitorID, time.Now().Add(m.Interval())); err != nil {
		return err
	}
	return s.schedulerSvc.TriggerImmediateCheck(ctx, monitorID)
}

// OnMonitorUpdated drops the cached config and re-anchors the schedule under
// the (possibly changed) interval. A disable removes the entry entirely.
func (s *Service) OnMonitorUpdated(ctx context.Context, monitorID uuid.UUID) error {
	if !s.awaitInit(ctx) {
		s.logger.Warn().Str("monitor_id", monitorID.String()).Msg("update hook skipped, core not initialized")
		return nil
	}

	s.monitorSvc.InvalidateCache(ctx, monitorID)

	m, err := s.monitorSvc.LoadMonitor(ctx, monitorID)
	if err != nil {
		return err
	}
	if !m.Enabled {
		return s.schedulerSvc.RemoveMonitorSchedule(ctx, monitorID)
	}

	return s.schedulerSvc.UpdateMonitorSchedule(ctx, monitorID, time.Now().Add(m.Interval()))
}

// OnMonitorDeleted removes all schedule entries and the cached config.
// Historical events and the status row stay for audit.
func (s *Service) OnMonitorDeleted(ctx context.Context, monitorID uuid.UUID) error {
	if !s.awaitInit(ctx) {
		s.logger.Warn().Str("monitor_id", monitorID.String()).Msg("delete hook skipped, core not initialized")
		return nil
	}

	s.monitorSvc.InvalidateCache(ctx, monitorID)
	return s.schedulerSvc.RemoveMonitorSchedule(ctx, monitorID)
}

// TriggerCheck queues a one-off run due now, leaving the recurring entry
// untouched.
func (s *Service) TriggerCheck(ctx context.Context, monitorID uuid.UUID) error {
	if !s.awaitInit(ctx) {
		s.logger.Warn().Str("monitor_id", monitorID.String()).Msg("check trigger skipped, core not initialized")
		return nil
	}

	return s.schedulerSvc.TriggerImmediateCheck(ctx, monitorID)
}
