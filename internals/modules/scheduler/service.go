package scheduler

import (
	"context"
	"time"
	"watchtower/pkg/apperror"
	"watchtower/pkg/redisstore"

	"github.com/google/uuid"
)

// Service owns every write to the schedule queue. The claim loop and the
// executor go through it so key naming and member encoding stay in one place.
type Service struct {
	redisSvc *redisstore.Client
}

func NewService(redisSvc *redisstore.Client) *Service {
	return &Service{redisSvc: redisSvc}
}

// ScheduleMonitor inserts (or replaces) the recurring entry for a monitor.
// Idempotent: the sorted set keys by member, so a second call just moves
// the due time.
func (s *Service) ScheduleMonitor(ctx context.Context, monitorID uuid.UUID, nextRun time.Time) error {
	err := s.redisSvc.Schedule(ctx, MemberFor(monitorID), nextRun)
	if err != nil {
		return apperror.New(apperror.Dependency, "service.scheduler.schedule_monitor", err)
	}
	return nil
}

// EnsureScheduled queues a monitor only when it has no entry yet. Startup
// reconciliation goes through this so restarts never reset live due times.
func (s *Service) EnsureScheduled(ctx context.Context, monitorID uuid.UUID, nextRun time.Time) error {
	err := s.redisSvc.ScheduleIfAbsent(ctx, MemberFor(monitorID), nextRun)
	if err != nil {
		return apperror.New(apperror.Dependency, "service.scheduler.ensure_scheduled", err)
	}
	return nil
}

// UpdateMonitorSchedule re-anchors the recurring entry after an interval or
// enable change. Same ZADD upsert as ScheduleMonitor, kept separate so call
// sites read as intent.
func (s *Service) UpdateMonitorSchedule(ctx context.Context, monitorID uuid.UUID, nextRun time.Time) error {
	err := s.redisSvc.Schedule(ctx, MemberFor(monitorID), nextRun)
	if err != nil {
		return apperror.New(apperror.Dependency, "service.scheduler.update_monitor_schedule", err)
	}
	return nil
}

// RemoveMonitorSchedule drops both the recurring and any pending ad-hoc
// entry for a monitor.
func (s *Service) RemoveMonitorSchedule(ctx context.Context, monitorID uuid.UUID) error {
	err := s.redisSvc.DelSchedule(ctx, MemberFor(monitorID), OnceMemberFor(monitorID))
	if err != nil {
		return apperror.New(apperror.Dependency, "service.scheduler.remove_monitor_schedule", err)
	}
	return nil
}

// TriggerImmediateCheck enqueues an ad-hoc run due now, without touching the
// recurring entry.
func (s *Service) TriggerImmediateCheck(ctx context.Context, monitorID uuid.UUID) error {
	err := s.redisSvc.Schedule(ctx, OnceMemberFor(monitorID), time.Now())
	if err != nil {
		return apperror.New(apperror.Dependency, "service.scheduler.trigger_immediate_check", err)
	}
	return nil
}

// RescheduleAt puts a claimed recurring job back with a new due time and
// acks its inflight entry. Called by the executor after each run.
func (s *Service) RescheduleAt(ctx context.Context, job JobPayload, nextRun time.Time) error {
	if !job.OneOff {
		if err := s.redisSvc.Schedule(ctx, job.Member, nextRun); err != nil {
			return apperror.New(apperror.Dependency, "service.scheduler.reschedule_at", err)
		}
	}
	return s.Ack(ctx, job)
}

// Ack removes the job's inflight entry so the reclaimer will not replay it.
func (s *Service) Ack(ctx context.Context, job JobPayload) error {
	if err := s.redisSvc.AckJob(ctx, job.Member); err != nil {
		return apperror.New(apperror.Dependency, "service.scheduler.ack", err)
	}
	return nil
}
