package container

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/calaim-taskhub/internal/application/dispatcher"
	"github.com/garyjia/calaim-taskhub/internal/application/port"
	"github.com/garyjia/calaim-taskhub/internal/application/prioritizer"
	"github.com/garyjia/calaim-taskhub/internal/application/processor"
	"github.com/garyjia/calaim-taskhub/internal/application/service"
	"github.com/garyjia/calaim-taskhub/internal/application/taskstate"
	"github.com/garyjia/calaim-taskhub/internal/application/workflow"
	"github.com/garyjia/calaim-taskhub/internal/clock"
	domainwf "github.com/garyjia/calaim-taskhub/internal/domain/workflow"
	infraLark "github.com/garyjia/calaim-taskhub/internal/infrastructure/external/lark"
	"github.com/garyjia/calaim-taskhub/internal/infrastructure/persistence/repository"
	"github.com/garyjia/calaim-taskhub/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/calaim-taskhub/internal/infrastructure/source"
	"github.com/garyjia/calaim-taskhub/internal/infrastructure/storage"
	"github.com/garyjia/calaim-taskhub/internal/infrastructure/worker"
	"github.com/garyjia/calaim-taskhub/pkg/database"
	"github.com/garyjia/calaim-taskhub/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// CoreBundle holds the task engine and its collaborators.
type CoreBundle struct {
	Engine     workflow.Engine
	Hub        prioritizer.Hub
	Processor  processor.Processor
	Store      taskstate.Store
	Dispatcher dispatcher.Dispatcher
}

// ProvideDatabase opens the database and runs any pending migrations.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(ctx, database.Migrations()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories over one transaction-aware connection.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		CaseRecords:  repository.NewCaseRecordRepository(db, logger),
		Overlays:     repository.NewOverlayRepository(db, logger),
		History:      repository.NewHistoryRepository(db, logger),
		Notification: repository.NewNotificationRepository(db, logger),
	}, nil
}

// ProvideSource selects the case record source.
func ProvideSource(cfg *SourceConfig, repos *RepositoryBundle, logger *zap.Logger) (port.CaseRecordSource, error) {
	switch cfg.Kind {
	case SourceSQLite, "":
		return repos.CaseRecords, nil
	case SourceFile:
		return source.NewFileSource(cfg.Path, logger), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

// ProvideMessenger creates the Lark message sender. It returns nil when Lark is disabled.
func ProvideMessenger(cfg *LarkConfig, logger *zap.Logger) port.MessageSender {
	if !cfg.Enabled {
		logger.Info("Lark notifications disabled")
		return nil
	}
	sdk := infraLark.NewSDKClient(infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
	}, logger)
	return infraLark.NewMessenger(sdk, logger)
}

// ProvideStorage creates file storage for archived workbooks.
func ProvideStorage(cfg *ReportConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("report output dir is required")
	}
	return storage.NewLocalFileStorage(cfg.OutputDir, logger), nil
}

// ProvideEngine builds the workflow engine from YAML overrides or the built-in definitions.
func ProvideEngine(cfg *WorkflowConfig, c clock.Clock) (workflow.Engine, error) {
	defs := domainwf.DefaultDefinitions()
	if cfg.DefinitionsPath != "" {
		loaded, err := domainwf.LoadDefinitions(cfg.DefinitionsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow definitions: %w", err)
		}
		defs = loaded
	}

	opts := []workflow.EngineOption{workflow.WithClock(c)}
	if cfg.RulesPath != "" {
		rules, err := domainwf.LoadRules(cfg.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load automation rules: %w", err)
		}
		opts = append(opts, workflow.WithRules(rules))
	}

	return workflow.NewEngine(defs, opts...)
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewSugaredAdapter(logger.Named("dispatcher"))),
	), nil
}

// ProvideCore wires the engine, hub, processor and task store.
func ProvideCore(cfg *Config, c clock.Clock, logger *zap.Logger) (*CoreBundle, error) {
	engine, err := ProvideEngine(&cfg.Workflow, c)
	if err != nil {
		return nil, err
	}

	hub, err := prioritizer.NewHub(engine, cfg.Priority, prioritizer.WithClock(c))
	if err != nil {
		return nil, err
	}

	disp, err := ProvideDispatcher(logger)
	if err != nil {
		return nil, err
	}

	p := processor.NewProcessor(engine, hub, processor.WithClock(c))
	settings := taskstate.DefaultAutomationSettings()
	settings.Enabled = cfg.Automation.Enabled
	settings.Notifications = cfg.Automation.Notifications

	store := taskstate.NewStore(taskstate.NewReducer(p, engine, hub),
		taskstate.WithPublisher(disp),
		taskstate.WithLogger(utils.NewSugaredAdapter(logger.Named("taskstate"))),
		taskstate.WithClock(c),
		taskstate.WithAutomation(settings))

	return &CoreBundle{
		Engine:     engine,
		Hub:        hub,
		Processor:  p,
		Store:      store,
		Dispatcher: disp,
	}, nil
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Config    *Config
	Core      *CoreBundle
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Source    port.CaseRecordSource
	Messenger port.MessageSender
	Storage   port.FileStorage
	Clock     clock.Clock
	Logger    *zap.Logger
}

// ProvideServices creates all application services and subscribes the notifier.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps.Core == nil || deps.Repos == nil {
		return nil, fmt.Errorf("core and repositories are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := utils.NewSugaredAdapter(deps.Logger.Named("service"))
	core := deps.Core

	tasks := service.NewTaskService(core.Store, core.Processor, core.Engine, core.Hub, deps.Source, serviceLogger,
		service.WithPersistence(deps.TxManager, deps.Repos.Overlays, deps.Repos.History),
		service.WithServiceClock(deps.Clock))

	notification := service.NewNotificationService(service.NotificationConfig{
		Enabled:       deps.Config.Lark.Enabled,
		ReceiveIDType: deps.Config.Lark.ReceiveIDType,
		Recipients:    deps.Config.Lark.Recipients,
	}, deps.Messenger, deps.Repos.Notification, deps.Clock, serviceLogger)
	notification.Register(core.Dispatcher)

	return &ServiceBundle{
		Tasks:        tasks,
		Automation:   service.NewAutomationService(tasks, core.Engine, core.Dispatcher, deps.Clock, serviceLogger),
		Notification: notification,
		Report: service.NewReportService(tasks, deps.Storage, deps.Clock, serviceLogger,
			service.WithRetention(deps.Config.Report.Retention)),
	}, nil
}

// ProvideWorkers creates the worker manager and registers the sync worker when scheduled.
func ProvideWorkers(cfg *Config, services *ServiceBundle, logger *zap.Logger) (*worker.WorkerManager, error) {
	manager := worker.NewWorkerManager(logger)
	if cfg.Sync.Schedule == "" {
		logger.Info("Sync worker disabled")
		return manager, nil
	}

	sync, err := worker.NewSyncWorker(cfg.Sync.Schedule, logger.Named("sync"), SyncSteps(cfg, services)...)
	if err != nil {
		return nil, err
	}
	manager.Register(sync)
	return manager, nil
}

// SyncSteps lists what one sync run does: reload, then optionally run automation and archive.
func SyncSteps(cfg *Config, services *ServiceBundle) []worker.Step {
	steps := []worker.Step{{Name: "load", Run: services.Tasks.Load}}

	if cfg.Automation.RunOnSync {
		steps = append(steps, worker.Step{
			Name:     "automation",
			Optional: true,
			Run: func(ctx context.Context) error {
				_, err := services.Automation.Run(ctx, nil)
				if errors.Is(err, service.ErrAutomationDisabled) {
					return nil
				}
				return err
			},
		})
	}

	if cfg.Report.ArchiveOnSync {
		steps = append(steps, worker.Step{
			Name:     "archive",
			Optional: true,
			Run: func(ctx context.Context) error {
				_, err := services.Report.Archive(ctx)
				return err
			},
		})
	}
	return steps
}
