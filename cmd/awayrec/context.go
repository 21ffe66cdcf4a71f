package main

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/nguyentantai21042004/awayrec/internal/config"
	"github.com/nguyentantai21042004/awayrec/internal/logger"
)

const defaultConfigPath = "config.yaml"

type commandContext struct {
	configFlag     *string
	explicitConfig bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	log        logger.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil || strings.TrimSpace(*c.configFlag) == "" {
		return defaultConfigPath
	}
	return strings.TrimSpace(*c.configFlag)
}

// ensureConfig loads the config file. When --config was not given and the
// default file is absent, built-in defaults are used.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := c.configPath()
		if !c.explicitConfig {
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				c.config, c.configErr = config.Default()
				return
			}
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() logger.Logger {
	c.loggerOnce.Do(func() {
		opts := logger.Options{Level: "info", Output: os.Stderr}
		if c.config != nil {
			opts.Level = c.config.Logging.Level
			opts.Format = c.config.Logging.Format
		}
		c.log = logger.NewWithOptions(opts)
	})
	return c.log
}
