package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"taskplanner/internal/config"
	"taskplanner/internal/logging"
	"taskplanner/internal/notify"
	"taskplanner/internal/repository"
	"taskplanner/internal/service"
	"taskplanner/internal/suggest"
)

// app holds every service of one process. The notifier starts as the log
// sink; serve swaps in the bot once it exists.
type app struct {
	cfg    config.Config
	logger *log.Logger
	db     *gorm.DB
	relay  *notify.Relay

	tasks       *service.TaskService
	categories  *service.CategoryService
	reminders   *service.ReminderService
	calendar    *service.CalendarService
	blocks      *service.TimeBlockService
	backup      *service.BackupService
	suggestions *service.SuggestionService
	scheduler   *service.SchedulerService
}

type rootOptions struct {
	database string
	logLevel string
}

func newApp(opts rootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if opts.database != "" {
		cfg.DatabaseURL = opts.database
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Prefix: "taskplanner"})
	std := logger.StandardLog(log.StandardLogOptions{ForceLevel: log.WarnLevel})

	db, err := repository.NewDB(cfg.DatabaseURL, std)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	store := repository.NewStore(db)
	taskRepo := repository.NewTaskRepository(store)
	categoryRepo := repository.NewCategoryRepository(store)
	projectRepo := repository.NewProjectRepository(store)
	blockRepo := repository.NewTimeBlockRepository(store)
	eventRepo := repository.NewCalendarEventRepository(store)

	a := &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		relay:  notify.NewRelay(notify.NewLogNotifier(logger.WithPrefix("reminder"))),
	}
	a.tasks = service.NewTaskService(taskRepo, time.Now)
	a.categories = service.NewCategoryService(categoryRepo, projectRepo, a.tasks)
	a.reminders = service.NewReminderService(a.tasks, a.categories, a.relay, cfg.Thresholds, time.Now, logger)
	a.calendar = service.NewCalendarService(eventRepo, blockRepo, a.tasks, logger)
	a.blocks = service.NewTimeBlockService(blockRepo)
	a.backup = service.NewBackupService(store, a.tasks, categoryRepo, projectRepo, time.Now)
	a.scheduler = service.NewSchedulerService(time.Local, cron.PrintfLogger(std))

	if cfg.OpenAIKey != "" {
		client := suggest.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		a.suggestions = service.NewSuggestionService(a.tasks, client, logger)
	}

	return a, nil
}

func (a *app) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
