package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSystemSettingString_Defaults(t *testing.T) {
	ResetConfigFile()
	t.Setenv(STORAGE_TYPE, "")

	assert.Equal(t, STORAGE_TYPE_SQLITE, GetSystemSettingString(STORAGE_TYPE))
	assert.Equal(t, "taskflow:", GetSystemSettingString(REDIS_PREFIX))
	assert.Equal(t, 8080, GetSystemSettingInteger(SERVER_WEB_PORT))
	assert.Empty(t, GetSystemSettingString(API_PASSWORD_HASH))
}

func TestLoadConfigFile_Precedence(t *testing.T) {
	t.Cleanup(ResetConfigFile)
	path := filepath.Join(t.TempDir(), "taskflow.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[storage]
type = "redis"
redis_addr = "cache:6379"

[server]
port = 9090

[log]
level = "debug"
`), 0o600))

	require.NoError(t, LoadConfigFile(path))

	assert.Equal(t, STORAGE_TYPE_REDIS, GetSystemSettingString(STORAGE_TYPE))
	assert.Equal(t, "cache:6379", GetSystemSettingString(REDIS_ADDR))
	assert.Equal(t, 9090, GetSystemSettingInteger(SERVER_WEB_PORT))
	assert.Equal(t, "./taskflow.db", GetSystemSettingString(DATABASE_SQLITE_FILE_NAME))

	t.Setenv(LOG_LEVEL, "warn")
	assert.Equal(t, "warn", GetSystemSettingString(LOG_LEVEL))
}

func TestLoadConfigFile_FromEnvironment(t *testing.T) {
	t.Cleanup(ResetConfigFile)
	path := filepath.Join(t.TempDir(), "taskflow.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 7000\n"), 0o600))
	t.Setenv(CONFIG_FILE, path)

	require.NoError(t, LoadConfigFile(""))
	assert.Equal(t, "7000", GetSystemSettingString(SERVER_WEB_PORT))
}

func TestLoadConfigFile_Errors(t *testing.T) {
	t.Cleanup(ResetConfigFile)
	t.Setenv(CONFIG_FILE, "")
	require.NoError(t, LoadConfigFile(""))

	assert.Error(t, LoadConfigFile(filepath.Join(t.TempDir(), "missing.toml")))

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[storage\n"), 0o600))
	assert.Error(t, LoadConfigFile(bad))
}
