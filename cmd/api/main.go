package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"

	"github.com/Tomlord1122/todo-api/internal/config"
	"github.com/Tomlord1122/todo-api/internal/database"
	"github.com/Tomlord1122/todo-api/internal/logging"
	"github.com/Tomlord1122/todo-api/internal/repository"
	"github.com/Tomlord1122/todo-api/internal/server"
	"github.com/Tomlord1122/todo-api/internal/service"
)

// app is the fully wired service, ready to listen.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	db     database.Service
	server *http.Server
}

// newApp resolves the profile, opens the store and makes sure the schema
// exists. Any error here must abort startup.
func newApp(profile string, logOutput io.Writer) (*app, error) {
	cfg, err := config.Load(profile)
	if err != nil {
		return nil, fmt.Errorf("load %s config: %w", config.ParseProfile(profile), err)
	}

	logger := logging.New(logOutput, cfg)
	logger.Info("configuration loaded", "profile", cfg.Profile, "debug", cfg.Debug, "driver", cfg.Driver())
	if cfg.Profile == config.Production && cfg.UsesDefaultSecret() {
		logger.Warn("SECRET_KEY is not set; using the built-in development secret")
	}

	dbService, err := database.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(context.Background(), dbService.DB()); err != nil {
		_ = dbService.Close()
		return nil, err
	}
	logger.Info("database schema ready")

	todoRepo := repository.NewGormTodoRepository(dbService.DB())
	todoService := service.NewTodoService(todoRepo)

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     dbService,
		server: server.NewServer(cfg, todoService, dbService, logger),
	}, nil
}

func gracefulShutdown(a *app, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	a.logger.Info("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	ctxTimeout, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctxTimeout); err != nil {
		a.logger.Error("server forced to shutdown", "err", err)
	}

	if err := a.db.Close(); err != nil {
		a.logger.Error("closing database connection pool", "err", err)
	}

	a.logger.Info("server exiting")
	done <- true
}

func main() {
	a, err := newApp(os.Getenv("APP_ENV"), os.Stderr)
	if err != nil {
		log.Fatal("startup failed", "err", err)
	}

	done := make(chan bool, 1)
	go gracefulShutdown(a, done)

	a.logger.Info("starting server", "addr", a.server.Addr)
	err = a.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Fatal("HTTP server ListenAndServe error", "err", err)
	}

	<-done
	a.logger.Info("graceful shutdown complete")
}
