package executor

import (
	"context"
	"encoding/json"
	"sync"
	"time"
	"watchtower/config"
	"watchtower/internals/modules/agentwire"
	"watchtower/internals/modules/event"
	"watchtower/internals/modules/monitor"
	"watchtower/internals/modules/probe"
	"watchtower/internals/modules/region"
	"watchtower/internals/modules/rules"
	"watchtower/internals/modules/scheduler"
	"watchtower/internals/modules/status"
	"watchtower/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type MonitorService interface {
	LoadMonitor(ctx context.Context, monitorID uuid.UUID) (*monitor.Monitor, error)
}

type RegionStore interface {
	ListEnabled(ctx context.Context) ([]region.Region, error)
}

type SchedulerOps interface {
	RescheduleAt(ctx context.Context, job scheduler.JobPayload, nextRun time.Time) error
	Ack(ctx context.Context, job scheduler.JobPayload) error
	RemoveMonitorSchedule(ctx context.Context, monitorID uuid.UUID) error
}

type EventStore interface {
	BulkInsert(ctx context.Context, events []event.Event) error
}

type StatusStore interface {
	Apply(ctx context.Context, monitorID uuid.UUID, success bool, checkedAt, nextCheckAt time.Time) (status.MonitorStatus, bool, error)
}

type AgentCaller interface {
	Execute(ctx context.Context, endpointURL string, req agentwire.ExecuteRequest) (agentwire.ExecuteResponse, error)
}

// Executor runs the check pipeline: workers pull jobs off jobChan, load the
// monitor, fan out to the selected execution locations, evaluate rules,
// persist the event and status rows and put the job back on the schedule.
type Executor struct {
	ctx         context.Context
	workerCount int
	jobChan     chan scheduler.JobPayload

	monitorSvc   MonitorService
	regionStore  RegionStore
	schedulerSvc SchedulerOps
	eventStore   EventStore
	statusStore  StatusStore
	agentClient  AgentCaller
	probeEngine  *probe.Engine

	maxTimeout    time.Duration
	flapThreshold int32

	wg     sync.WaitGroup
	logger *zerolog.Logger
}

func NewExecutor(
	ctx context.Context,
	executorConfig *config.ExecutorConfig,
	jobChan chan scheduler.JobPayload,
	monitorSvc MonitorService,
	regionStore RegionStore,
	schedulerSvc SchedulerOps,
	eventStore EventStore,
	statusStore StatusStore,
	agentClient AgentCaller,
	probeEngine *probe.Engine,
	logger *zerolog.Logger,
) *Executor {

	return &Executor{
		ctx:           ctx,
		workerCount:   executorConfig.WorkerCount,
		jobChan:       jobChan,
		monitorSvc:    monitorSvc,
		regionStore:   regionStore,
		schedulerSvc:  schedulerSvc,
		eventStore:    eventStore,
		statusStore:   statusStore,
		agentClient:   agentClient,
		probeEngine:   probeEngine,
		maxTimeout:    executorConfig.MaxTimeout,
		flapThreshold: int32(executorConfig.FlapThreshold),
		logger:        logger,
	}
}

func (ew *Executor) StartWorkers() {
	for range ew.workerCount {
		ew.wg.Add(1)
		go ew.startWork()
	}
}

// Wait blocks until every worker has exited. Workers stop when the root
// context is cancelled; unfinished jobs stay inflight and the reclaimer
// replays them on the next run.
func (ew *Executor) Wait() {
	ew.wg.Wait()
}

func (ew *Executor) startWork() {
	defer ew.wg.Done()

	for {
		select {
		case <-ew.ctx.Done():
			return
		case job := <-ew.jobChan:
			ew.safeProcess(job)
		}
	}
}

// safeProcess is the per-job panic boundary. A panicking check must not take
// a worker down; the inflight entry stays put and the reclaimer replays the
// job after the visibility timeout.
func (ew *Executor) safeProcess(job scheduler.JobPayload) {
	defer func() {
		if rec := recover(); rec != nil {
			ew.logger.Error().
				Interface("panic", rec).
				Str("monitor_id", job.MonitorID.String()).
				Msg("check pipeline panicked")
		}
	}()

	ew.process(job)
}

func (ew *Executor) process(job scheduler.JobPayload) {
	m, err := ew.monitorSvc.LoadMonitor(ew.ctx, job.MonitorID)
	if err != nil {
		if apperror.IsKind(err, apperror.NotFound) {
			// deleted between scheduling and firing, drop the schedule too
			_ = ew.schedulerSvc.RemoveMonitorSchedule(ew.ctx, job.MonitorID)
			_ = ew.schedulerSvc.Ack(ew.ctx, job)
			return
		}
		// transient load failure, leave the inflight entry for the reclaimer
		ew.logger.Error().Err(err).Str("monitor_id", job.MonitorID.String()).Msg("failed to load monitor")
		return
	}

	if !m.Enabled {
		_ = ew.schedulerSvc.Ack(ew.ctx, job)
		return
	}

	checkedAt := time.Now().UTC()
	results := ew.executeAll(m)

	success := true
	for _, tr := range results {
		if !tr.Success() {
			success = false
			break
		}
	}

	nextRun := nextRunAfter(job.DueAt, m.Interval(), checkedAt)

	var persistWg sync.WaitGroup
	persistWg.Add(2)

	go func() {
		defer persistWg.Done()
		if err := ew.eventStore.BulkInsert(ew.ctx, ew.buildEvents(m.ID, checkedAt, results)); err != nil {
			ew.logger.Error().Err(err).Str("monitor_id", m.ID.String()).Msg("failed to persist check events")
		}
	}()

	go func() {
		defer persistWg.Done()
		st, applied, err := ew.statusStore.Apply(ew.ctx, m.ID, success, checkedAt, nextRun)
		if err != nil {
			ew.logger.Error().Err(err).Str("monitor_id", m.ID.String()).Msg("failed to apply check status")
			return
		}
		if applied {
			ew.logTransition(m.ID, st)
		}
	}()

	persistWg.Wait()

	if job.OneOff {
		if err := ew.schedulerSvc.Ack(ew.ctx, job); err != nil {
			ew.logger.Error().Err(err).Str("monitor_id", m.ID.String()).Msg("failed to ack one-off job")
		}
		return
	}

	if err := ew.schedulerSvc.RescheduleAt(ew.ctx, job, nextRun); err != nil {
		// reclaimer will replay from inflight after the visibility timeout
		ew.logger.Error().Err(err).Str("monitor_id", m.ID.String()).Msg("failed to reschedule monitor")
	}
}

// executeAll fans the check out to every selected execution location and
// waits for all of them. Each remote target gets its own goroutine; one slow
// region does not serialize the rest.
func (ew *Executor) executeAll(m *monitor.Monitor) []TargetResult {

	var regions []region.Region
	endpoints := map[string]string{}

	if m.Mode == monitor.ModeGlobal && len(m.Regions) > 0 {
		listed, err := ew.regionStore.ListEnabled(ew.ctx)
		if err != nil {
			// routing degrades to a local run rather than skipping the check
			ew.logger.Warn().Err(err).Msg("failed to list regions, running locally")
		} else {
			regions = listed
			for _, r := range listed {
				endpoints[r.Code] = r.EndpointURL
			}
		}
	}

	targets := region.SelectTargets(m.Mode == monitor.ModeGlobal, m.Regions, regions)

	results := make([]TargetResult, len(targets))
	var wg sync.WaitGroup

	for i, t := range targets {
		wg.Add(1)
		go func(i int, t region.Target) {
			defer wg.Done()
			if t.Region == region.LocalCode {
				results[i] = ew.executeLocal(m, t)
			} else {
				results[i] = ew.executeRemote(m, t, endpoints[t.Region])
			}
		}(i, t)
	}

	wg.Wait()
	return results
}

func (ew *Executor) executeLocal(m *monitor.Monitor, t region.Target) TargetResult {
	timeout := ew.checkTimeout(m)

	var res probe.Result
	switch m.Type {
	case monitor.TypeTCP:
		res = ew.probeEngine.ExecuteTCP(ew.ctx, m.TCP, timeout)
	default:
		res = ew.probeEngine.ExecuteHTTP(ew.ctx, m.HTTP, timeout)
	}

	violations := rules.Evaluate(m.Rules, res)
	if len(violations) > 0 && res.Status == probe.StatusSuccess {
		res.Status = probe.StatusFailure
	}

	return TargetResult{
		Region:     t.Region,
		Degraded:   t.Degraded,
		Result:     res,
		Violations: violations,
	}
}

func (ew *Executor) executeRemote(m *monitor.Monitor, t region.Target, endpointURL string) TargetResult {
	timeout := ew.checkTimeout(m)

	var rawCfg json.RawMessage
	if m.Type == monitor.TypeTCP {
		rawCfg, _ = json.Marshal(m.TCP)
	} else {
		rawCfg, _ = json.Marshal(m.HTTP)
	}

	req := agentwire.ExecuteRequest{
		JobID:           uuid.New(),
		MonitorID:       m.ID,
		MonitorType:     string(m.Type),
		Config:          rawCfg,
		ValidationRules: m.Rules,
		TimeoutMs:       timeout.Milliseconds(),
	}

	// the agent enforces the check timeout itself; the slack covers the hop
	callCtx, cancel := context.WithTimeout(ew.ctx, timeout+5*time.Second)
	defer cancel()

	resp, err := ew.agentClient.Execute(callCtx, endpointURL, req)
	if err != nil {
		ew.logger.Warn().Err(err).Str("region", t.Region).Str("monitor_id", m.ID.String()).Msg("agent call failed")
		return TargetResult{
			Region: t.Region,
			Result: probe.Result{
				Status: probe.StatusFailure,
				Err:    &probe.CheckError{Type: agentwire.ErrAgentUnreachable, Message: err.Error()},
			},
		}
	}

	return TargetResult{
		Region:     t.Region,
		Result:     agentwire.ToProbeResult(resp),
		Violations: resp.ValidationErrors,
	}
}

func (ew *Executor) checkTimeout(m *monitor.Monitor) time.Duration {
	timeout := m.Timeout()
	if timeout <= 0 || timeout > ew.maxTimeout {
		timeout = ew.maxTimeout
	}
	return timeout
}

func (ew *Executor) buildEvents(monitorID uuid.UUID, checkedAt time.Time, results []TargetResult) []event.Event {
	events := make([]event.Event, 0, len(results))

	for _, tr := range results {
		e := event.Event{
			ID:                uuid.New(),
			MonitorID:         monitorID,
			Region:            tr.Region,
			CheckedAt:         checkedAt,
			Status:            tr.Result.Status,
			StatusCode:        int32(tr.Result.StatusCode),
			Timing:            tr.Result.Timing,
			ResponseSizeBytes: tr.Result.BodySizeBytes,
			Violations:        tr.Violations,
			Degraded:          tr.Degraded,
		}
		if tr.Result.Err != nil {
			e.ErrorType = tr.Result.Err.Type
			e.ErrorMessage = tr.Result.Err.Message
		}
		events = append(events, e)
	}

	return events
}

// logTransition announces up/down flips. The flap threshold suppresses the
// announcement until the new state has held for N consecutive checks.
func (ew *Executor) logTransition(monitorID uuid.UUID, st status.MonitorStatus) {
	switch {
	case st.CurrentStatus == status.Up && st.ConsecutiveSuccesses == ew.flapThreshold:
		ew.logger.Info().Str("monitor_id", monitorID.String()).Msg("monitor is up")
	case st.CurrentStatus == status.Down && st.ConsecutiveFailures == ew.flapThreshold:
		ew.logger.Warn().Str("monitor_id", monitorID.String()).Msg("monitor is down")
	}
}

// nextRunAfter anchors the next firing on the due time, not on completion,
// so schedules do not drift. When the job fired late enough that the next
// slot already passed, the interval rolls forward past now.
func nextRunAfter(dueAt time.Time, interval time.Duration, now time.Time) time.Time {
	if interval <= 0 {
		return now
	}

	next := dueAt.Add(interval)
	if next.After(now) {
		return next
	}

	missed := now.Sub(next) / interval
	return next.Add((missed + 1) * interval)
}
