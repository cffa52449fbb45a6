package taskflow

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/RealZimboGuy/taskflow/internal/config"
	"github.com/RealZimboGuy/taskflow/internal/engine"
	"github.com/RealZimboGuy/taskflow/internal/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStorage_Backends(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		t.Setenv(config.STORAGE_TYPE, "memory")
		kv, err := OpenStorage(ctx)
		require.NoError(t, err)
		assert.IsType(t, &repository.MemoryKeyValueStore{}, kv)
	})

	t.Run("sqlite", func(t *testing.T) {
		t.Setenv(config.STORAGE_TYPE, config.STORAGE_TYPE_SQLITE)
		t.Setenv(config.DATABASE_SQLITE_FILE_NAME, filepath.Join(t.TempDir(), "tf.db"))
		kv, err := OpenStorage(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { kv.Close() })
		assert.IsType(t, &repository.SQLKeyValueStore{}, kv)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		t.Setenv(config.STORAGE_TYPE, config.STORAGE_TYPE_REDIS)
		t.Setenv(config.REDIS_ADDR, mr.Addr())
		kv, err := OpenStorage(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { kv.Close() })

		_, err = NewApp(ctx, kv, nil)
		require.NoError(t, err)
		assert.True(t, mr.Exists("taskflow:"+engine.KeyWorkflows))
	})

	t.Run("unknown", func(t *testing.T) {
		t.Setenv(config.STORAGE_TYPE, "floppy")
		_, err := OpenStorage(ctx)
		assert.ErrorContains(t, err, "FLOPPY")
	})
}

func TestApp_ServesAPI(t *testing.T) {
	t.Setenv(config.API_PASSWORD_HASH, "")
	app, err := NewApp(context.Background(), repository.NewMemoryKeyValueStore(), nil)
	require.NoError(t, err)
	mux := http.NewServeMux()
	app.RegisterRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/workflows/active", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"default"`)
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	SetupLogger("debug")
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	SetupLogger("nonsense")
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
}
