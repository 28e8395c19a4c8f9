package executor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
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

type fakeMonitorSvc struct {
	m   *monitor.Monitor
	err error
}

func (f *fakeMonitorSvc) LoadMonitor(ctx context.Context, id uuid.UUID) (*monitor.Monitor, error) {
	return f.m, f.err
}

type fakeRegionStore struct {
	regions []region.Region
	err     error
}

func (f *fakeRegionStore) ListEnabled(ctx context.Context) ([]region.Region, error) {
	return f.regions, f.err
}

type fakeSchedOps struct {
	mu          sync.Mutex
	rescheduled []time.Time
	acked       int
	removed     int
}

func (f *fakeSchedOps) RescheduleAt(ctx context.Context, job scheduler.JobPayload, nextRun time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rescheduled = append(f.rescheduled, nextRun)
	return nil
}

func (f *fakeSchedOps) Ack(ctx context.Context, job scheduler.JobPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked++
	return nil
}

func (f *fakeSchedOps) RemoveMonitorSchedule(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed++
	return nil
}

type fakeEventStore struct {
	mu     sync.Mutex
	events []event.Event
}

func (f *fakeEventStore) BulkInsert(ctx context.Context, events []event.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
	return nil
}

type fakeStatusStore struct {
	mu      sync.Mutex
	applied []bool
	next    []time.Time
}

func (f *fakeStatusStore) Apply(ctx context.Context, id uuid.UUID, success bool, checkedAt, nextCheckAt time.Time) (status.MonitorStatus, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, success)
	f.next = append(f.next, nextCheckAt)
	st := status.MonitorStatus{MonitorID: id, CurrentStatus: status.Down, ConsecutiveFailures: 1}
	if success {
		st = status.MonitorStatus{MonitorID: id, CurrentStatus: status.Up, ConsecutiveSuccesses: 1}
	}
	return st, true, nil
}

type fakeAgent struct {
	resp agentwire.ExecuteResponse
	err  error
	got  []string // endpoint URLs called
	mu   sync.Mutex
}

func (f *fakeAgent) Execute(ctx context.Context, endpointURL string, req agentwire.ExecuteRequest) (agentwire.ExecuteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, endpointURL)
	return f.resp, f.err
}

func newTestExecutor(monitorSvc MonitorService, regionStore RegionStore, sched *fakeSchedOps, events *fakeEventStore, statuses *fakeStatusStore, agent AgentCaller) *Executor {
	logger := zerolog.Nop()
	return NewExecutor(
		context.Background(),
		&config.ExecutorConfig{WorkerCount: 1, JobChannelSize: 1, MaxTimeout: 5 * time.Second, FlapThreshold: 1},
		make(chan scheduler.JobPayload),
		monitorSvc, regionStore, sched, events, statuses, agent,
		probe.NewEngine(),
		&logger,
	)
}

func localHTTPMonitor(url string) *monitor.Monitor {
	return &monitor.Monitor{
		ID:          uuid.New(),
		Type:        monitor.TypeHTTP,
		IntervalSec: 60,
		TimeoutSec:  5,
		Enabled:     true,
		Mode:        monitor.ModeLocal,
		HTTP:        &probe.HTTPConfig{URL: url},
	}
}

func TestProcessLocalSuccessPersistsAndReschedules(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	m := localHTTPMonitor(srv.URL)
	sched := &fakeSchedOps{}
	events := &fakeEventStore{}
	statuses := &fakeStatusStore{}

	ew := newTestExecutor(&fakeMonitorSvc{m: m}, &fakeRegionStore{}, sched, events, statuses, &fakeAgent{})

	dueAt := time.Now()
	ew.process(scheduler.JobPayload{MonitorID: m.ID, DueAt: dueAt, Member: m.ID.String()})

	if len(events.events) != 1 {
		t.Fatalf("want 1 event, got %d", len(events.events))
	}
	e := events.events[0]
	if e.Status != probe.StatusSuccess || e.Region != region.LocalCode || e.Degraded {
		t.Fatalf("unexpected event %+v", e)
	}
	if len(statuses.applied) != 1 || !statuses.applied[0] {
		t.Fatalf("status should record success, got %v", statuses.applied)
	}
	if len(sched.rescheduled) != 1 {
		t.Fatalf("recurring job must be rescheduled, got %d", len(sched.rescheduled))
	}
	want := dueAt.Add(m.Interval())
	if !sched.rescheduled[0].Equal(want) {
		t.Fatalf("next run must anchor on due time: want %v, got %v", want, sched.rescheduled[0])
	}
	if statuses.next[0] != sched.rescheduled[0] {
		t.Fatal("status row and schedule must agree on the next check time")
	}
}

func TestProcessRuleViolationIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	m := localHTTPMonitor(srv.URL)
	v := int64(200)
	m.Rules = []rules.Rule{{Type: rules.TypeStatusCode, Operator: rules.OpEquals, Value: &v}}

	sched := &fakeSchedOps{}
	events := &fakeEventStore{}
	statuses := &fakeStatusStore{}
	ew := newTestExecutor(&fakeMonitorSvc{m: m}, &fakeRegionStore{}, sched, events, statuses, &fakeAgent{})

	ew.process(scheduler.JobPayload{MonitorID: m.ID, DueAt: time.Now(), Member: m.ID.String()})

	if len(statuses.applied) != 1 || statuses.applied[0] {
		t.Fatal("a reachable endpoint failing its rules is still a failed check")
	}
	if len(events.events) != 1 || len(events.events[0].Violations) != 1 {
		t.Fatalf("event should carry the violation, got %+v", events.events)
	}
	if events.events[0].Status != probe.StatusFailure {
		t.Fatal("violations force the event status to failure")
	}
}

func TestProcessOneOffAcksWithoutReschedule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	m := localHTTPMonitor(srv.URL)
	sched := &fakeSchedOps{}
	ew := newTestExecutor(&fakeMonitorSvc{m: m}, &fakeRegionStore{}, sched, &fakeEventStore{}, &fakeStatusStore{}, &fakeAgent{})

	ew.process(scheduler.JobPayload{MonitorID: m.ID, DueAt: time.Now(), OneOff: true, Member: "once:" + m.ID.String()})

	if len(sched.rescheduled) != 0 {
		t.Fatal("one-off jobs never create a recurring entry")
	}
	if sched.acked != 1 {
		t.Fatalf("one-off job must be acked, got %d acks", sched.acked)
	}
}

func TestProcessDeletedMonitorDropsSchedule(t *testing.T) {
	sched := &fakeSchedOps{}
	notFound := apperror.New(apperror.NotFound, "repo.monitor.get_by_id", errors.New("no rows"))
	ew := newTestExecutor(&fakeMonitorSvc{err: notFound}, &fakeRegionStore{}, sched, &fakeEventStore{}, &fakeStatusStore{}, &fakeAgent{})

	ew.process(scheduler.JobPayload{MonitorID: uuid.New(), DueAt: time.Now(), Member: uuid.New().String()})

	if sched.removed != 1 {
		t.Fatal("a deleted monitor's schedule entry must be removed")
	}
	if sched.acked != 1 {
		t.Fatal("the claimed job must still be acked")
	}
}

func TestProcessDisabledMonitorAcksOnly(t *testing.T) {
	m := localHTTPMonitor("http://example.com")
	m.Enabled = false

	sched := &fakeSchedOps{}
	events := &fakeEventStore{}
	ew := newTestExecutor(&fakeMonitorSvc{m: m}, &fakeRegionStore{}, sched, events, &fakeStatusStore{}, &fakeAgent{})

	ew.process(scheduler.JobPayload{MonitorID: m.ID, DueAt: time.Now(), Member: m.ID.String()})

	if len(events.events) != 0 {
		t.Fatal("disabled monitors must not execute")
	}
	if sched.acked != 1 || len(sched.rescheduled) != 0 {
		t.Fatal("disabled monitor jobs are acked and not rescheduled")
	}
}

func TestProcessGlobalModeDispatchesToRegions(t *testing.T) {
	m := localHTTPMonitor("http://example.com")
	m.Mode = monitor.ModeGlobal
	m.Regions = []string{"eu-west", "us-east"}

	regions := &fakeRegionStore{regions: []region.Region{
		{Code: "eu-west", EndpointURL: "http://eu.internal", Enabled: true, Healthy: true},
		{Code: "us-east", EndpointURL: "http://us.internal", Enabled: true, Healthy: true},
	}}

	code := 200
	agent := &fakeAgent{resp: agentwire.ExecuteResponse{
		Status:         string(probe.StatusSuccess),
		ResponseTimeMs: 12,
		StatusCode:     &code,
	}}

	sched := &fakeSchedOps{}
	events := &fakeEventStore{}
	statuses := &fakeStatusStore{}
	ew := newTestExecutor(&fakeMonitorSvc{m: m}, regions, sched, events, statuses, agent)

	ew.process(scheduler.JobPayload{MonitorID: m.ID, DueAt: time.Now(), Member: m.ID.String()})

	if len(agent.got) != 2 {
		t.Fatalf("both healthy regions should be called, got %v", agent.got)
	}
	if len(events.events) != 2 {
		t.Fatalf("one event per region, got %d", len(events.events))
	}
	if len(statuses.applied) != 1 || !statuses.applied[0] {
		t.Fatal("all regions succeeded, the job is a success")
	}
}

func TestProcessGlobalModeUnreachableAgentFailsJob(t *testing.T) {
	m := localHTTPMonitor("http://example.com")
	m.Mode = monitor.ModeGlobal
	m.Regions = []string{"eu-west"}

	regions := &fakeRegionStore{regions: []region.Region{
		{Code: "eu-west", EndpointURL: "http://eu.internal", Enabled: true, Healthy: true},
	}}
	agent := &fakeAgent{err: errors.New("connect: connection refused")}

	statuses := &fakeStatusStore{}
	events := &fakeEventStore{}
	ew := newTestExecutor(&fakeMonitorSvc{m: m}, regions, &fakeSchedOps{}, events, statuses, agent)

	ew.process(scheduler.JobPayload{MonitorID: m.ID, DueAt: time.Now(), Member: m.ID.String()})

	if len(statuses.applied) != 1 || statuses.applied[0] {
		t.Fatal("an unreachable agent fails the job")
	}
	if len(events.events) != 1 || events.events[0].ErrorType != agentwire.ErrAgentUnreachable {
		t.Fatalf("event should classify the agent failure, got %+v", events.events)
	}
}

func TestSafeProcessRecoversPanic(t *testing.T) {
	// nil monitor with nil error makes process dereference nil
	ew := newTestExecutor(&fakeMonitorSvc{}, &fakeRegionStore{}, &fakeSchedOps{}, &fakeEventStore{}, &fakeStatusStore{}, &fakeAgent{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		ew.safeProcess(scheduler.JobPayload{MonitorID: uuid.New(), DueAt: time.Now()})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("safeProcess must swallow the panic and return")
	}
}

func TestNextRunAfter(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	interval := time.Minute

	tests := []struct {
		name  string
		dueAt time.Time
		now   time.Time
		want  time.Time
	}{
		{
			name:  "on time",
			dueAt: base,
			now:   base.Add(2 * time.Second),
			want:  base.Add(interval),
		},
		{
			name:  "slightly late keeps the grid",
			dueAt: base,
			now:   base.Add(30 * time.Second),
			want:  base.Add(interval),
		},
		{
			name:  "one slot missed rolls forward",
			dueAt: base,
			now:   base.Add(90 * time.Second),
			want:  base.Add(2 * interval),
		},
		{
			name:  "long outage rolls past every missed slot",
			dueAt: base,
			now:   base.Add(10*interval + 5*time.Second),
			want:  base.Add(11 * interval),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextRunAfter(tt.dueAt, interval, tt.now)
			if !got.Equal(tt.want) {
				t.Fatalf("want %v, got %v", tt.want, got)
			}
			if !got.After(tt.now) {
				t.Fatal("next run must be in the future")
			}
		})
	}
}
