package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/garyjia/calaim-taskhub/internal/application/prioritizer"
	"github.com/garyjia/calaim-taskhub/internal/application/processor"
	"github.com/garyjia/calaim-taskhub/internal/application/taskstate"
	"github.com/garyjia/calaim-taskhub/internal/application/workflow"
	"github.com/garyjia/calaim-taskhub/internal/clock"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	"github.com/garyjia/calaim-taskhub/internal/domain/event"
)

// Wednesday
var testNow = time.Date(2024, 6, 12, 14, 30, 0, 0, time.UTC)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type staticSource struct {
	records []entity.RawRecord
	err     error
}

func (s *staticSource) FetchCaseRecords(ctx context.Context) ([]entity.RawRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]entity.RawRecord, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (p *recordingPublisher) DispatchAsync(_ context.Context, evt *event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) ofType(t event.Type) []*event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*event.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type memOverlays struct {
	saved   []entity.TaskOverlay
	listErr error
}

func (m *memOverlays) Save(ctx context.Context, o entity.TaskOverlay) error {
	m.saved = append(m.saved, o)
	return nil
}

func (m *memOverlays) List(ctx context.Context) ([]entity.TaskOverlay, error) {
	return m.saved, m.listErr
}

func (m *memOverlays) Delete(ctx context.Context, taskID string) error {
	return nil
}

type memHistory struct {
	records []*entity.StatusHistory
	delays  map[string]int
	err     error
}

func (m *memHistory) Record(ctx context.Context, h *entity.StatusHistory) error {
	if m.err != nil {
		return m.err
	}
	h.ID = int64(len(m.records) + 1)
	m.records = append(m.records, h)
	return nil
}

func (m *memHistory) ListByTask(ctx context.Context, taskID string) ([]*entity.StatusHistory, error) {
	var out []*entity.StatusHistory
	for _, h := range m.records {
		if h.TaskID == taskID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memHistory) DelayCounts(ctx context.Context) (map[string]int, error) {
	return m.delays, nil
}

// passthroughTx runs fn directly and counts invocations
type passthroughTx struct {
	calls int
}

func (t *passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

var errSourceDown = errors.New("connection refused")

func kaiserRecord(id, status, due string) entity.RawRecord {
	return entity.RawRecord{
		"id":              id,
		"clientId":        "C-" + id,
		"memberFirstName": "Ana",
		"memberLastName":  "Lopez",
		"healthPlan":      "Kaiser",
		"kaiserStatus":    status,
		"nextStepsDate":   due,
		"lastUpdated":     "2024-06-01T10:00:00Z",
		"assignedStaff":   "maria@example.org",
	}
}

func healthNetRecord(id, status, due string) entity.RawRecord {
	return entity.RawRecord{
		"id":              id,
		"clientId":        "C-" + id,
		"memberFirstName": "Ben",
		"memberLastName":  "Ng",
		"healthPlan":      "Health Net",
		"healthNetStatus": status,
		"nextStepsDate":   due,
		"lastUpdated":     "2024-06-10T10:00:00Z",
		"assignedStaff":   "jo@example.org",
	}
}

type fixture struct {
	service   TaskService
	store     taskstate.Store
	engine    workflow.Engine
	source    *staticSource
	publisher *recordingPublisher
	overlays  *memOverlays
	history   *memHistory
	tx        *passthroughTx
}

func newFixture(t *testing.T, records ...entity.RawRecord) *fixture {
	t.Helper()
	fixed := clock.Fixed(testNow)
	engine := workflow.NewDefaultEngine(workflow.WithClock(fixed))
	hub, err := prioritizer.NewHub(engine, prioritizer.DefaultConfig(), prioritizer.WithClock(fixed))
	require.NoError(t, err)
	p := processor.NewProcessor(engine, hub, processor.WithClock(fixed))

	f := &fixture{
		engine:    engine,
		source:    &staticSource{records: records},
		publisher: &recordingPublisher{},
		overlays:  &memOverlays{},
		history:   &memHistory{},
		tx:        &passthroughTx{},
	}
	f.store = taskstate.NewStore(taskstate.NewReducer(p, engine, hub),
		taskstate.WithPublisher(f.publisher),
		taskstate.WithClock(fixed))
	f.service = NewTaskService(f.store, p, engine, hub, f.source, nopLogger{},
		WithPersistence(f.tx, f.overlays, f.history),
		WithServiceClock(fixed))
	return f
}

func (f *fixture) load(t *testing.T) {
	t.Helper()
	require.NoError(t, f.service.Load(context.Background()))
}

func strPtr(s string) *string { return &s }
