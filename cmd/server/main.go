package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"focusboard/backend/internal/companion"
	"focusboard/backend/internal/config"
	"focusboard/backend/internal/db"
	"focusboard/backend/internal/handler"
	"focusboard/backend/internal/logging"
	"focusboard/backend/internal/notify"
	"focusboard/backend/internal/persistence"
	"focusboard/backend/internal/repository"
	"focusboard/backend/internal/router"
	"focusboard/backend/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)
	kvRepo := repository.NewKVRepository(database)

	sounds := notify.NewSoundLibrary(cfg.SoundsDir, logger)
	go func() {
		if err := sounds.Watch(ctx); err != nil {
			logger.Warn("sound library not watched", "dir", cfg.SoundsDir, "error", err)
		}
	}()

	authService := service.NewAuthService(userRepo, settingsRepo, cfg.JWTSecret, cfg.TokenTTL)
	timerService := service.NewTimerService(service.TimerServiceOptions{
		Tasks:     taskRepo,
		Sessions:  sessionRepo,
		Settings:  settingsRepo,
		Persist:   persistence.NewManager(kvRepo, nil, logger),
		Notifiers: notify.NewDispatcher(notificationRepo, sounds, logger),
		Logger:    logger,
		Debug:     cfg.DebugEndpoints,
	})

	if cfg.CompanionURL != "" {
		client := companion.NewClient(cfg.CompanionURL, cfg.CompanionTimeout)
		titles := func(ctx context.Context, userID, taskID string) string {
			task, err := taskRepo.GetByID(ctx, userID, taskID)
			if err != nil {
				return ""
			}
			return task.Title
		}
		syncer := companion.NewSyncer(client, titles, cfg.CompanionRetry, logger.With("component", "companion"))
		timerService.Observe(syncer.Observe)
		go syncer.Run(ctx)
		logger.Info("companion sync enabled", "url", cfg.CompanionURL)
	}

	recovered, err := timerService.RecoverAll(ctx)
	if err != nil {
		logger.Warn("timer recovery failed", "error", err)
	}
	logger.Info("timers recovered", "count", recovered)
	go timerService.Run(ctx, cfg.TickInterval)

	engine := router.New(authService, router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Timer:         handler.NewTimerHandler(timerService),
		Tasks:         handler.NewTaskHandler(service.NewTaskService(taskRepo, timerService)),
		Settings:      handler.NewSettingsHandler(service.NewSettingsService(settingsRepo)),
		Notifications: handler.NewNotificationHandler(service.NewNotificationService(notificationRepo)),
	}, cfg.CORSOrigins, logger)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: engine}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("backend listening", "port", cfg.Port, "debug_endpoints", cfg.DebugEndpoints)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if err := timerService.Shutdown(shutdownCtx); err != nil {
		logger.Warn("flush timer state", "error", err)
	}
	return nil
}
