package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

const STORAGE_TYPE = "TASKFLOW_STORAGE_TYPE"
const DATABASE_URL = "TASKFLOW_DATABASE_URL"
const DATABASE_SQLITE_FILE_NAME = "TASKFLOW_DATABASE_SQLITE_FILE_NAME"
const REDIS_ADDR = "TASKFLOW_REDIS_ADDR"
const REDIS_PASSWORD = "TASKFLOW_REDIS_PASSWORD"
const REDIS_PREFIX = "TASKFLOW_REDIS_PREFIX"
const SERVER_WEB_PORT = "TASKFLOW_SERVER_WEB_PORT"
const LOG_LEVEL = "TASKFLOW_LOG_LEVEL"
const API_PASSWORD_HASH = "TASKFLOW_API_PASSWORD_HASH" //bcrypt hash, empty disables auth
const CONFIG_FILE = "TASKFLOW_CONFIG_FILE"

const STORAGE_TYPE_SQLITE = "SQLITE"
const STORAGE_TYPE_POSTGRES = "POSTGRES"
const STORAGE_TYPE_MYSQL = "MYSQL"
const STORAGE_TYPE_REDIS = "REDIS"
const STORAGE_TYPE_MEMORY = "MEMORY"

var defaults = map[string]string{
	STORAGE_TYPE:              STORAGE_TYPE_SQLITE,
	DATABASE_SQLITE_FILE_NAME: "./taskflow.db",
	REDIS_ADDR:                "localhost:6379",
	REDIS_PREFIX:              "taskflow:",
	SERVER_WEB_PORT:           "8080",
	LOG_LEVEL:                 "info",
}

// fileSettings holds the values read from the TOML config file.
var (
	fileMu       sync.RWMutex
	fileSettings = map[string]string{}
)

// FileConfig is the layout of the optional TOML config file.
//
//	[storage]
//	type = "POSTGRES"
//	database_url = "postgres://..."
//
//	[server]
//	port = 9090
type FileConfig struct {
	Storage struct {
		Type           string `toml:"type"`
		DatabaseURL    string `toml:"database_url"`
		SqliteFileName string `toml:"sqlite_file_name"`
		RedisAddr      string `toml:"redis_addr"`
		RedisPassword  string `toml:"redis_password"`
		RedisPrefix    string `toml:"redis_prefix"`
	} `toml:"storage"`
	Server struct {
		Port            int    `toml:"port"`
		APIPasswordHash string `toml:"api_password_hash"`
	} `toml:"server"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// LoadConfigFile reads a TOML file whose values sit between the environment
// and the built-in defaults. An empty path falls back to TASKFLOW_CONFIG_FILE;
// if neither is set nothing is loaded.
func LoadConfigFile(path string) error {
	if path == "" {
		path = os.Getenv(CONFIG_FILE)
	}
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc FileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	settings := map[string]string{
		STORAGE_TYPE:              strings.ToUpper(fc.Storage.Type),
		DATABASE_URL:              fc.Storage.DatabaseURL,
		DATABASE_SQLITE_FILE_NAME: fc.Storage.SqliteFileName,
		REDIS_ADDR:                fc.Storage.RedisAddr,
		REDIS_PASSWORD:            fc.Storage.RedisPassword,
		REDIS_PREFIX:              fc.Storage.RedisPrefix,
		API_PASSWORD_HASH:         fc.Server.APIPasswordHash,
		LOG_LEVEL:                 fc.Log.Level,
	}
	if fc.Server.Port != 0 {
		settings[SERVER_WEB_PORT] = strconv.Itoa(fc.Server.Port)
	}

	fileMu.Lock()
	defer fileMu.Unlock()
	fileSettings = map[string]string{}
	for k, v := range settings {
		if v != "" {
			fileSettings[k] = v
		}
	}
	return nil
}

// ResetConfigFile forgets any values loaded by LoadConfigFile.
func ResetConfigFile() {
	fileMu.Lock()
	defer fileMu.Unlock()
	fileSettings = map[string]string{}
}

func GetSystemSettingInteger(settingKey string) int {
	val := GetSystemSettingString(settingKey)
	if val != "" {
		intValue, _ := strconv.Atoi(val)
		return intValue
	}
	return 0
}

func GetSystemSettingString(settingKey string) string {
	if val := os.Getenv(settingKey); val != "" {
		return val
	}
	fileMu.RLock()
	val, ok := fileSettings[settingKey]
	fileMu.RUnlock()
	if ok {
		return val
	}
	return defaults[settingKey]
}
