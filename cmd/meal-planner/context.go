package main

import (
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"macro-meal-planner/internal/app"
	"macro-meal-planner/internal/config"
	"macro-meal-planner/internal/ingest"
	"macro-meal-planner/internal/logging"
)

type commandContext struct {
	envFileFlag *string
	debugFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	logger *zap.Logger
}

func newCommandContext(envFileFlag *string, debugFlag *bool) *commandContext {
	return &commandContext{
		envFileFlag: envFileFlag,
		debugFlag:   debugFlag,
	}
}

// ensureConfig loads the env file, then the environment. The default .env
// may be absent; an explicitly named one may not.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		required := cmd != nil && cmd.Flags().Changed("env-file")
		if err := config.LoadDotEnv(*c.envFileFlag, required); err != nil {
			c.configErr = err
			return
		}
		cfg, err := config.NewFromEnv()
		if err != nil {
			c.configErr = err
			return
		}
		if *c.debugFlag {
			cfg.Debug = true
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger(debug bool) *zap.Logger {
	if c.logger == nil {
		c.logger = logging.NewOrNop(debug)
	}
	return c.logger
}

// withApp runs fn against an App built from cfg and closes it afterwards.
func (c *commandContext) withApp(cfg *config.Config, filter ingest.Filter, fn func(*app.App) error) error {
	a, err := app.New(cfg, filter, c.ensureLogger(cfg.Debug))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func (c *commandContext) close() {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}
