package main

import (
	"context"
	"strings"

	"github.com/RealZimboGuy/taskflow/internal/config"
	"github.com/RealZimboGuy/taskflow/pkg/taskflow"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, logLevelFlag: logLevelFlag}
}

// setup loads the config file and installs the logger. The --log-level flag
// wins over every other source.
func (c *commandContext) setup() error {
	if err := config.LoadConfigFile(strings.TrimSpace(*c.configFlag)); err != nil {
		return err
	}
	level := strings.TrimSpace(*c.logLevelFlag)
	if level == "" {
		level = config.GetSystemSettingString(config.LOG_LEVEL)
	}
	taskflow.SetupLogger(level)
	return nil
}

// withApp opens the configured storage for the duration of fn.
func (c *commandContext) withApp(ctx context.Context, fn func(*taskflow.App) error) error {
	app, err := taskflow.Open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
