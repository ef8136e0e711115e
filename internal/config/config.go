// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"strings"
	"time"

	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"
	"github.com/spf13/viper"

	"github.com/teensy-tools/teensyctl/internal/loader"
	"github.com/teensy-tools/teensyctl/internal/udev"
)

// Config holds the global configuration for the application.
type Config struct {
	Log        logx.LoggingConfig `yaml:"log" json:"log"`
	Loader     LoaderConfig       `yaml:"loader" json:"loader"`
	Udev       UdevConfig         `yaml:"udev" json:"udev"`
	ReportsDir string             `yaml:"reportsDir" json:"reportsDir"` // where workflow reports are written
}

// LoaderConfig represents the `loader` configuration block.
type LoaderConfig struct {
	Binary string `yaml:"binary" json:"binary"` // uploader executable, resolved via PATH if not absolute
}

// UdevConfig represents the `udev` configuration block.
type UdevConfig struct {
	RulesURL        string        `yaml:"rulesUrl" json:"rulesUrl"`
	RulesPath       string        `yaml:"rulesPath" json:"rulesPath"`
	PreflightDelay  time.Duration `yaml:"preflightDelay" json:"preflightDelay"`
	DownloadTimeout time.Duration `yaml:"downloadTimeout" json:"downloadTimeout"`
}

// Validate validates all configuration fields.
func (c Config) Validate() error {
	if c.Loader.Binary == "" {
		return errorx.IllegalArgument.New("loader binary must not be empty")
	}

	if c.Udev.RulesURL != "" && !strings.Contains(c.Udev.RulesURL, "://") {
		return errorx.IllegalArgument.New("invalid udev rules URL: %s", c.Udev.RulesURL)
	}

	if c.Udev.PreflightDelay < 0 {
		return errorx.IllegalArgument.New("udev preflight delay must not be negative")
	}

	if c.Udev.DownloadTimeout < 0 {
		return errorx.IllegalArgument.New("udev download timeout must not be negative")
	}

	return nil
}

var defaultConfig = Config{
	Log: logx.LoggingConfig{
		Level:          "Debug",
		ConsoleLogging: true,
		FileLogging:    false,
	},
	Loader: LoaderConfig{
		Binary: loader.DefaultBinary,
	},
	Udev: UdevConfig{
		RulesURL:        udev.DefaultRulesURL,
		RulesPath:       udev.DefaultRulesPath,
		PreflightDelay:  udev.DefaultPreflightDelay,
		DownloadTimeout: udev.DefaultDownloadTimeout,
	},
	ReportsDir: os.TempDir(),
}

var globalConfig = defaultConfig

// Initialize loads the configuration from the specified file.
// An empty path leaves the built-in defaults in place. Values absent from
// the file keep their defaults.
func Initialize(path string) error {
	if path != "" {
		globalConfig = defaultConfig
		viper.Reset()
		viper.SetConfigFile(path)
		viper.SetEnvPrefix("TEENSYCTL")
		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		err := viper.ReadInConfig()
		if err != nil {
			return NotFoundError.Wrap(err, "failed to read config file: %s", path).
				WithProperty(errorx.PropertyPayload(), path)
		}

		if err := viper.Unmarshal(&globalConfig); err != nil {
			return errorx.IllegalFormat.Wrap(err, "failed to parse configuration").
				WithProperty(errorx.PropertyPayload(), path)
		}

		if err := globalConfig.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Get returns the loaded configuration.
func Get() Config {
	return globalConfig
}

func Set(c *Config) error {
	globalConfig = *c
	return nil
}

// OverrideLoaderConfig updates the loader configuration with provided overrides.
// Empty string values are ignored (not applied).
func OverrideLoaderConfig(overrides LoaderConfig) {
	if overrides.Binary != "" {
		globalConfig.Loader.Binary = overrides.Binary
	}
}

// OverrideUdevConfig updates the udev configuration with provided overrides.
// Zero values are ignored (not applied).
func OverrideUdevConfig(overrides UdevConfig) {
	if overrides.RulesURL != "" {
		globalConfig.Udev.RulesURL = overrides.RulesURL
	}
	if overrides.RulesPath != "" {
		globalConfig.Udev.RulesPath = overrides.RulesPath
	}
	if overrides.PreflightDelay > 0 {
		globalConfig.Udev.PreflightDelay = overrides.PreflightDelay
	}
	if overrides.DownloadTimeout > 0 {
		globalConfig.Udev.DownloadTimeout = overrides.DownloadTimeout
	}
}
