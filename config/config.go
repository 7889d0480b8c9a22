// Package config loads the application configuration: built-in defaults, then
// an optional YAML file, then FEEDBACK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alem-hub/feedback-helper/internal/domain/assignment"
	"github.com/alem-hub/feedback-helper/pkg/logger"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FEEDBACK_"

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	App           AppConfig           `yaml:"app"`
	Style         StyleConfig         `yaml:"style"`
	Save          SaveConfig          `yaml:"save"`
	Export        ExportConfig        `yaml:"export"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string      `yaml:"name"`
	Environment Environment `yaml:"environment"`
	Debug       bool        `yaml:"debug"`
}

// StyleConfig holds the export style used for new assignments.
type StyleConfig struct {
	HeadingPrefix string `yaml:"heading_prefix"`
	Underline     string `yaml:"underline"`
	BlankLines    int    `yaml:"blank_lines"`
	LineMarker    string `yaml:"line_marker"`
}

// SaveConfig holds snapshot write settings.
type SaveConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// ExportConfig holds export settings.
type ExportConfig struct {
	// Concurrency bounds parallel file writes.
	Concurrency int `yaml:"concurrency"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // json, text
}

// Default returns the built-in configuration.
func Default() *Config {
	style := assignment.DefaultExportStyle()
	return &Config{
		App: AppConfig{
			Name:        "feedback-helper",
			Environment: EnvDevelopment,
		},
		Style: StyleConfig{
			HeadingPrefix: style.HeadingPrefix,
			Underline:     style.UnderlineString(),
			BlankLines:    style.BlankLines,
			LineMarker:    style.LineMarker,
		},
		Save: SaveConfig{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     2 * time.Second,
		},
		Export: ExportConfig{
			Concurrency: 4,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "text",
		},
	}
}

// Load builds the configuration. path may be empty; a missing file is not an
// error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.App.Name = getEnv("APP_NAME", c.App.Name)
	c.App.Environment = Environment(getEnv("APP_ENV", string(c.App.Environment)))
	c.App.Debug = getEnvBool("APP_DEBUG", c.App.Debug)

	c.Style.HeadingPrefix = getEnvRaw("STYLE_HEADING_PREFIX", c.Style.HeadingPrefix)
	c.Style.Underline = getEnvRaw("STYLE_UNDERLINE", c.Style.Underline)
	c.Style.BlankLines = getEnvInt("STYLE_BLANK_LINES", c.Style.BlankLines)
	c.Style.LineMarker = getEnvRaw("STYLE_LINE_MARKER", c.Style.LineMarker)

	c.Save.MaxAttempts = getEnvInt("SAVE_MAX_ATTEMPTS", c.Save.MaxAttempts)
	c.Save.InitialDelay = getEnvDuration("SAVE_INITIAL_DELAY", c.Save.InitialDelay)
	c.Save.MaxDelay = getEnvDuration("SAVE_MAX_DELAY", c.Save.MaxDelay)

	c.Export.Concurrency = getEnvInt("EXPORT_CONCURRENCY", c.Export.Concurrency)

	c.Observability.LogLevel = getEnv("LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = getEnv("LOG_FORMAT", c.Observability.LogFormat)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if _, err := c.ExportStyle(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Save.MaxAttempts < 1 {
		errs = append(errs, "save.max_attempts must be at least 1")
	}
	if c.Save.InitialDelay < 0 || c.Save.MaxDelay < 0 {
		errs = append(errs, "save delays cannot be negative")
	}
	if c.Export.Concurrency < 1 {
		errs = append(errs, "export.concurrency must be at least 1")
	}
	switch strings.ToLower(c.Observability.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("observability.log_format %q must be json or text", c.Observability.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExportStyle returns the validated export style.
func (c *Config) ExportStyle() (assignment.ExportStyle, error) {
	return assignment.NewExportStyle(c.Style.HeadingPrefix, c.Style.Underline, c.Style.BlankLines, c.Style.LineMarker)
}

// LoggerOptions returns the logger options for this configuration. Debug
// forces the debug level.
func (c *Config) LoggerOptions() logger.Options {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(c.Observability.LogLevel)
	if c.App.Debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	opts.Format = logger.ParseFormat(c.Observability.LogFormat)
	return opts
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(EnvPrefix + key)); val != "" {
		return val
	}
	return defaultVal
}

// getEnvRaw keeps surrounding whitespace and accepts an empty value when the
// variable is set.
func getEnvRaw(key, defaultVal string) string {
	if val, ok := os.LookupEnv(EnvPrefix + key); ok {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := getEnv(key, "")
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := getEnv(key, "")
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := getEnv(key, "")
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
