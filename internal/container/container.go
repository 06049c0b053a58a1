package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/calaim-taskhub/internal/application/dispatcher"
	"github.com/garyjia/calaim-taskhub/internal/application/port"
	"github.com/garyjia/calaim-taskhub/internal/application/service"
	"github.com/garyjia/calaim-taskhub/internal/clock"
	"github.com/garyjia/calaim-taskhub/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/calaim-taskhub/internal/infrastructure/worker"
	"github.com/garyjia/calaim-taskhub/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// It follows Clean Architecture principles with ordered initialization
// and reverse-order teardown.
type Container struct {
	config *Config
	logger *zap.Logger
	clock  clock.Clock

	// Infrastructure - Data
	database     *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle
	source       port.CaseRecordSource

	// Infrastructure - External
	messenger port.MessageSender

	// Infrastructure - Storage
	fileStorage port.FileStorage

	// Application
	core     *CoreBundle
	services *ServiceBundle

	// Workers
	workers *worker.WorkerManager

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	CaseRecords  port.CaseRecordRepository
	Overlays     port.TaskOverlayRepository
	History      port.StatusHistoryRepository
	Notification port.NotificationRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Tasks        service.TaskService
	Automation   service.AutomationService
	Notification service.NotificationService
	Report       service.ReportService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// Option configures the container
type Option func(*Container)

// WithClock overrides the clock handed to every component
func WithClock(c clock.Clock) Option {
	return func(ct *Container) {
		ct.clock = clock.OrReal(c)
	}
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Container{
		config: cfg,
		logger: logger,
		clock:  clock.RealClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start initializes all components. Workers are created but not started;
// call StartWorkers or run them through Workers().Run.
// Components are initialized in dependency order:
// 1. Database and repositories
// 2. Case record source
// 3. External clients (Lark)
// 4. Storage
// 5. Task engine, store and dispatcher
// 6. Application services
// 7. Workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database and repositories
	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	// Step 2: Select the case record source
	src, err := ProvideSource(&c.config.Source, c.repositories, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize source: %w", err)
	}
	c.source = src
	c.logger.Info("Case record source selected", zap.String("kind", c.config.Source.Kind))

	// Step 3: Initialize external clients
	c.messenger = ProvideMessenger(&c.config.Lark, c.logger)

	// Step 4: Initialize storage
	fs, err := ProvideStorage(&c.config.Report, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.fileStorage = fs
	c.logger.Info("Storage initialized")

	// Step 5: Initialize engine, hub, store and dispatcher
	core, err := ProvideCore(c.config, c.clock, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize task engine: %w", err)
	}
	c.core = core
	c.logger.Info("Task engine initialized",
		zap.Int("workflows", len(core.Engine.Workflows())),
		zap.Int("rules", len(core.Engine.Rules())))

	// Step 6: Initialize application services
	services, err := ProvideServices(&ServiceDeps{
		Config:    c.config,
		Core:      c.core,
		Repos:     c.repositories,
		TxManager: c.db,
		Source:    c.source,
		Messenger: c.messenger,
		Storage:   c.fileStorage,
		Clock:     c.clock,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.services = services
	c.logger.Info("Application services initialized")

	// Step 7: Initialize workers
	workers, err := ProvideWorkers(c.config, c.services, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize workers: %w", err)
	}
	c.workers = workers
	c.logger.Info("Workers initialized", zap.Int("count", workers.GetWorkerCount()))

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Cancel context to signal all goroutines
	if c.cancel != nil {
		c.cancel()
	}

	// Step 1: Stop workers
	if c.workers != nil && c.workers.IsRunning() {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		} else {
			c.logger.Info("Workers stopped")
		}
	}

	// Step 2: Close dispatcher, waiting for in-flight notifications
	if c.core != nil && c.core.Dispatcher != nil {
		if err := c.core.Dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 3: Close database
	if c.database != nil {
		if err := c.database.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	// Check database
	if c.database != nil {
		if err := c.database.Health(ctx); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["database"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Check task state; a failed load keeps serving the previous list
	if c.services != nil {
		state := c.services.Tasks.State()
		health := ComponentHealth{
			Healthy: state.Error == "",
			Message: fmt.Sprintf("tasks: %d", len(state.Tasks)),
		}
		if state.Error != "" {
			health.Message = state.Error
			status.Overall = false
		}
		status.Components["tasks"] = health
	} else {
		status.Components["tasks"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Workers are optional; report but do not fail on them
	if c.workers != nil {
		status.Components["workers"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("worker count: %d, running: %t", c.workers.GetWorkerCount(), c.workers.IsRunning()),
		}
	}

	status.Components["lark"] = ComponentHealth{
		Healthy: true,
		Message: fmt.Sprintf("enabled: %t", c.messenger != nil),
	}

	return status
}

// initDatabase initializes the database and all repositories using providers.
func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(c.ctx, &c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.database = dbBundle.DB
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.db, c.logger)
	if err != nil {
		c.database.Close()
		return err
	}

	c.repositories = repos
	return nil
}

// Getters for accessing container components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Messenger returns the Lark message sender, or nil when Lark is disabled.
func (c *Container) Messenger() port.MessageSender {
	return c.messenger
}

// FileStorage returns the file storage.
func (c *Container) FileStorage() port.FileStorage {
	return c.fileStorage
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	if c.core == nil {
		return nil
	}
	return c.core.Dispatcher
}

// Core returns the task engine bundle.
func (c *Container) Core() *CoreBundle {
	return c.core
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.WorkerManager {
	return c.workers
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
