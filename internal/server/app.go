// Package server wires configuration, storage, services and the HTTP API
// together and runs them until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sidhlee/task-manager-api/internal/logging"
	"github.com/sidhlee/task-manager-api/internal/server/avatars"
	"github.com/sidhlee/task-manager-api/internal/server/config"
	"github.com/sidhlee/task-manager-api/internal/server/httpapi"
	"github.com/sidhlee/task-manager-api/internal/server/mailer"
	"github.com/sidhlee/task-manager-api/internal/server/repositories/repomanager"
	"github.com/sidhlee/task-manager-api/internal/server/services"
)

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *services.TokenService
	users       *services.UserService
	tasks       *services.TaskService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}

	switch c.Storage {
	case config.StorageMemory:
		app.repomanager = repomanager.NewMemoryRepositoryManager()
	default:
		db, err := openDB(c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.db = db
		app.repomanager = repomanager.NewPostgresRepositoryManager(db)
	}

	if err := app.repomanager.RunMigrations(ctx); err != nil {
		app.closeDB()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	avatarStore, err := app.newAvatarStore(ctx)
	if err != nil {
		app.closeDB()
		return nil, err
	}

	app.tokens = services.NewTokenService(app.repomanager, c)
	app.users = services.NewUserService(app.repomanager, app.tokens, mailer.New(c, logger), avatarStore, logger, c)
	app.tasks = services.NewTaskService(app.repomanager)

	return app, nil
}

func (app *App) newAvatarStore(ctx context.Context) (services.AvatarStore, error) {
	if app.config.AvatarStorage == config.AvatarStorageS3 {
		s, err := avatars.NewS3Store(ctx, app.config)
		if err != nil {
			return nil, fmt.Errorf("avatar store init error: %w", err)
		}
		return s, nil
	}
	return avatars.NewDBStore(app.repomanager), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.config.CORSOrigins, app.logger, app.tokens, app.users, app.tasks)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) closeDB() {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "error closing db", "error", err)
	}
}

// Run serves until ctx is cancelled or a termination signal arrives. Pending
// notification mail is flushed before the database is closed.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.users.Wait()
	app.closeDB()
	app.logger.Info(context.Background(), "App stopped")
}
