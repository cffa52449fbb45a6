package taskflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/RealZimboGuy/taskflow/internal/config"
	"github.com/RealZimboGuy/taskflow/internal/controllers"
	"github.com/RealZimboGuy/taskflow/internal/engine"
	"github.com/RealZimboGuy/taskflow/internal/repository"
	"github.com/RealZimboGuy/taskflow/pkg/taskflow/core"

	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"
)

// App is a fully initialized engine over one key-value store.
type App struct {
	Store     engine.KeyValueStore
	Workflows *engine.WorkflowStore
	Binder    *engine.Binder
	Tasks     *engine.TaskService
}

// NewApp loads (or seeds) the state held in kv.
func NewApp(ctx context.Context, kv engine.KeyValueStore, clock core.Clock) (*App, error) {
	workflows := engine.NewWorkflowStore(kv, clock)
	if err := workflows.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize workflows: %w", err)
	}
	binder := engine.NewBinder(workflows, clock)
	tasks := engine.NewTaskService(kv, workflows, binder, clock)
	if err := tasks.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize tasks: %w", err)
	}
	return &App{Store: kv, Workflows: workflows, Binder: binder, Tasks: tasks}, nil
}

// Open opens the configured storage and builds an App on top of it.
func Open(ctx context.Context) (*App, error) {
	kv, err := OpenStorage(ctx)
	if err != nil {
		return nil, err
	}
	app, err := NewApp(ctx, kv, nil)
	if err != nil {
		kv.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}

// RegisterRoutes mounts the JSON API on mux.
func (a *App) RegisterRoutes(mux *http.ServeMux) {
	auth := *controllers.NewAuthController(config.GetSystemSettingString(config.API_PASSWORD_HASH))
	if auth.PasswordHash == "" {
		slog.Warn("API authentication disabled; set " + config.API_PASSWORD_HASH + " to enable it")
	}
	controllers.NewWorkflowsController(a.Workflows, a.Tasks, auth).RegisterRoutes(mux)
	controllers.NewTasksController(a.Tasks, auth).RegisterRoutes(mux)
}

// OpenStorage returns the key-value store selected by TASKFLOW_STORAGE_TYPE.
func OpenStorage(ctx context.Context) (engine.KeyValueStore, error) {
	storageType := strings.ToUpper(config.GetSystemSettingString(config.STORAGE_TYPE))
	switch storageType {
	case config.STORAGE_TYPE_MEMORY:
		slog.Warn("Using in-memory storage; state is lost on exit")
		return repository.NewMemoryKeyValueStore(), nil
	case config.STORAGE_TYPE_REDIS:
		addr := config.GetSystemSettingString(config.REDIS_ADDR)
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.GetSystemSettingString(config.REDIS_PASSWORD),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", addr, err)
		}
		slog.Info("Using Redis storage", "addr", addr)
		return repository.NewRedisKeyValueStore(client, repository.WithPrefix(config.GetSystemSettingString(config.REDIS_PREFIX))), nil
	case config.STORAGE_TYPE_SQLITE:
		return openSQL(repository.DialectSQLite, config.GetSystemSettingString(config.DATABASE_SQLITE_FILE_NAME))
	case config.STORAGE_TYPE_POSTGRES:
		return openSQL(repository.DialectPostgres, config.GetSystemSettingString(config.DATABASE_URL))
	case config.STORAGE_TYPE_MYSQL:
		return openSQL(repository.DialectMySQL, config.GetSystemSettingString(config.DATABASE_URL))
	}
	return nil, fmt.Errorf("%s must be one of SQLITE, POSTGRES, MYSQL, REDIS, MEMORY; got %q", config.STORAGE_TYPE, storageType)
}

func openSQL(dialect repository.Dialect, dsn string) (engine.KeyValueStore, error) {
	db, err := repository.OpenDatabase(dialect, dsn)
	if err != nil {
		return nil, err
	}
	return repository.NewSQLKeyValueStore(db, dialect, nil), nil
}

// Start opens storage, mounts the API and serves HTTP until ctx is cancelled.
// A nil mux gets a fresh ServeMux.
func Start(ctx context.Context, mux *http.ServeMux) error {
	app, err := Open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if mux == nil {
		mux = http.NewServeMux()
	}
	app.RegisterRoutes(mux)

	addr := ":" + config.GetSystemSettingString(config.SERVER_WEB_PORT)
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		addr = v
	}
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		slog.Error("HTTP server failed", "error", err)
		return err
	case <-ctx.Done():
		slog.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// SetupLogger installs a tint handler on the default slog logger. Unknown
// levels fall back to info.
func SetupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      lvl,
			TimeFormat: time.RFC3339Nano,
		}),
	))
}
