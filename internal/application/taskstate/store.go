package taskstate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/garyjia/calaim-taskhub/internal/clock"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	"github.com/garyjia/calaim-taskhub/internal/domain/event"
)

// LoadFunc fetches and normalizes the task list from the case-record source
type LoadFunc func(ctx context.Context) ([]entity.Task, error)

// Publisher receives the events produced by dispatches
type Publisher interface {
	DispatchAsync(ctx context.Context, evt *event.Event)
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Store owns the current state and serializes every transition
type Store interface {
	// State returns the current state. Callers must treat it as read-only.
	State() State

	// Dispatch applies action and publishes the resulting events
	Dispatch(ctx context.Context, action Action) (State, Outcome, error)

	// Load runs fetch with the loading flag set. On failure the error is recorded
	// in state and the previous task list is kept.
	Load(ctx context.Context, fetch LoadFunc) error
}

type storeImpl struct {
	mu        sync.Mutex
	state     State
	reducer   *Reducer
	publisher Publisher
	clock     clock.Clock
	logger    Logger
	loading   atomic.Bool
}

// StoreOption configures the store
type StoreOption func(*storeImpl)

// WithPublisher sets where domain events are sent
func WithPublisher(p Publisher) StoreOption {
	return func(s *storeImpl) {
		s.publisher = p
	}
}

// WithLogger sets a logger for the store
func WithLogger(logger Logger) StoreOption {
	return func(s *storeImpl) {
		s.logger = logger
	}
}

// WithClock sets the clock used to stamp actions
func WithClock(c clock.Clock) StoreOption {
	return func(s *storeImpl) {
		s.clock = clock.OrReal(c)
	}
}

// WithAutomation sets the initial automation settings
func WithAutomation(settings AutomationSettings) StoreOption {
	return func(s *storeImpl) {
		s.state = s.reducer.Initial(settings)
	}
}

// NewStore creates a store with an empty task list
func NewStore(reducer *Reducer, opts ...StoreOption) Store {
	s := &storeImpl{
		reducer: reducer,
		state:   reducer.Initial(DefaultAutomationSettings()),
		clock:   clock.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *storeImpl) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *storeImpl) Dispatch(ctx context.Context, action Action) (State, Outcome, error) {
	if action.At.IsZero() {
		action.At = s.clock.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, outcome, err := s.reducer.Reduce(s.state, action)
	if err != nil {
		s.logError("Action rejected", "action", action.Type, "task_id", action.TaskID, "error", err)
		return s.state, outcome, err
	}
	s.state = next
	s.publish(ctx, action, outcome)
	return next, outcome, nil
}

func (s *storeImpl) Load(ctx context.Context, fetch LoadFunc) error {
	if !s.loading.CompareAndSwap(false, true) {
		return ErrLoadInProgress
	}
	defer s.loading.Store(false)

	if _, _, err := s.Dispatch(ctx, SetLoading(true)); err != nil {
		return err
	}

	tasks, err := fetch(ctx)
	if err != nil {
		_, _, _ = s.Dispatch(ctx, SetError(err.Error()))
		return fmt.Errorf("load tasks: %w", err)
	}

	_, _, err = s.Dispatch(ctx, SetTasks(tasks))
	return err
}

// publish must be called with mu held so events leave in dispatch order
func (s *storeImpl) publish(ctx context.Context, action Action, outcome Outcome) {
	if s.publisher == nil {
		return
	}

	correlationID := uuid.NewString()
	emit := func(t event.Type, taskID string, payload map[string]interface{}) {
		s.publisher.DispatchAsync(ctx, event.NewEventWithCorrelation(t, taskID, payload, correlationID))
	}

	switch action.Type {
	case ActionSetTasks:
		emit(event.TypeTasksLoaded, "", map[string]interface{}{event.KeyCount: len(s.state.Tasks)})
	case ActionSetError:
		emit(event.TypeTasksLoadFailed, "", map[string]interface{}{event.KeyError: action.Error})
	case ActionUpdateTask:
		emit(event.TypeTaskUpdated, action.TaskID, nil)
	case ActionBulkUpdateTasks:
		emit(event.TypeTasksBulkUpdated, "", map[string]interface{}{event.KeyCount: len(action.TaskIDs)})
	}

	for _, c := range outcome.Changes {
		payload := map[string]interface{}{
			event.KeyFromStatus: c.From,
			event.KeyToStatus:   c.To,
			event.KeyAssignee:   c.Assignee,
			event.KeyMember:     c.Member,
			event.KeyHealthPlan: string(c.HealthPlan),
			event.KeyWasOverdue: c.WasOverdue,
			event.KeyNotify:     s.state.Automation.Notifications,
		}
		if t, ok := s.state.Task(c.TaskID); ok && t.DueDate != nil {
			payload[event.KeyDueDate] = *t.DueDate
		}
		emit(event.TypeStatusChanged, c.TaskID, payload)
	}
}

func (s *storeImpl) logError(msg string, kv ...interface{}) {
	if s.logger != nil {
		s.logger.Error(msg, kv...)
	}
}
