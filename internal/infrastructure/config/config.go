// Package config provides configuration loading for verhdr.
// Settings are layered: built-in defaults, an optional YAML file, VERHDR_*
// environment variables, then command-line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Environment variable names.
const (
	// EnvPrefix prefixes every verhdr environment variable (VERHDR_GIT_PATH, ...).
	EnvPrefix = "VERHDR"

	// EnvClangFormat names the clang-format binary, as understood by other tools.
	EnvClangFormat = "CLANG_FORMAT"

	// EnvLogLevel is the log level (debug, info, warn, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogAppName is the application name for log context.
	EnvLogAppName = "LOG_APP_NAME"
)

// Default values.
const (
	DefaultConfigFile = ".verhdr.yaml"
	DefaultGitPath    = "git"
	DefaultBackend    = BackendExec
	DefaultRepository = "."
	DefaultOutput     = "version.h"
	DefaultFormatter  = "clang-format"
	DefaultLogLevel   = "info"
	DefaultLogAppName = "verhdr"
)

// Inspector backends.
const (
	BackendExec  = "exec"
	BackendGoGit = "gogit"
)

// Configuration errors.
var (
	// ErrConfigFileInvalid indicates the config file could not be read or parsed.
	ErrConfigFileInvalid = errors.New("configuration file is invalid")

	// ErrConfigInvalid indicates the merged configuration failed validation.
	ErrConfigInvalid = errors.New("configuration is invalid")
)

// validate is the shared validator instance.
var validate = validator.New()

// Config holds all application configuration.
type Config struct {
	Git        GitConfig       `mapstructure:"git"`
	Repository string          `mapstructure:"repository" validate:"required"`
	Output     string          `mapstructure:"output" validate:"required"`
	Formatter  FormatterConfig `mapstructure:"formatter"`
	LogLevel   string          `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogAppName string          `mapstructure:"log_app_name" validate:"required"`
}

// GitConfig selects how the repository is inspected.
type GitConfig struct {
	Path    string `mapstructure:"path" validate:"required"`
	Backend string `mapstructure:"backend" validate:"oneof=exec gogit"`
}

// FormatterConfig controls the optional clang-format pass.
type FormatterConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Path    string   `mapstructure:"path" validate:"required_if=Enabled true"`
	Args    []string `mapstructure:"args"`
}

// Validate checks the configuration for errors using struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	return nil
}

// Options customizes Load.
type Options struct {
	// File is an explicit config file. When empty, DefaultConfigFile inside
	// SearchDir is used if it exists.
	File string

	// SearchDir is where DefaultConfigFile is looked up.
	SearchDir string

	// Overrides are applied last, keyed by dotted config key
	// (for example "git.path" or "formatter.enabled").
	Overrides map[string]any
}

// Load builds the configuration from defaults, file, environment and overrides.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("formatter.path", EnvPrefix+"_FORMATTER_PATH", EnvClangFormat); err != nil {
		return nil, fmt.Errorf("bind %s: %w", EnvClangFormat, err)
	}
	if err := v.BindEnv("log_level", EnvPrefix+"_LOG_LEVEL", EnvLogLevel); err != nil {
		return nil, fmt.Errorf("bind %s: %w", EnvLogLevel, err)
	}
	if err := v.BindEnv("log_app_name", EnvPrefix+"_LOG_APP_NAME", EnvLogAppName); err != nil {
		return nil, fmt.Errorf("bind %s: %w", EnvLogAppName, err)
	}

	if file := configFile(opts); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrConfigFileInvalid, file, err)
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("git.path", DefaultGitPath)
	v.SetDefault("git.backend", DefaultBackend)
	v.SetDefault("repository", DefaultRepository)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("formatter.enabled", true)
	v.SetDefault("formatter.path", DefaultFormatter)
	v.SetDefault("formatter.args", []string{})
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_app_name", DefaultLogAppName)
}

// configFile returns the file to read, or "" when there is none.
func configFile(opts Options) string {
	if opts.File != "" {
		return opts.File
	}

	dir := opts.SearchDir
	if dir == "" {
		dir = DefaultRepository
	}
	candidate := filepath.Join(dir, DefaultConfigFile)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}
