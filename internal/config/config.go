package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/incremental/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "incremental.json"

	// YAMLFileName is the name of the YAML configuration file.
	YAMLFileName = "incremental.yaml"

	// DefaultPort is the default inspector port.
	DefaultPort = 7070

	// DefaultHost is the default inspector host.
	DefaultHost = "localhost"

	// DefaultHistory is the default number of pass reports kept.
	DefaultHistory = 256

	// DefaultExportTarget is the default journal export target.
	DefaultExportTarget = "journal.json"
)

// Config represents the complete configuration.
type Config struct {
	// Log contains logging configuration.
	Log LogConfig `json:"log" yaml:"log"`

	// Runtime contains state manager settings.
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`

	// Demo contains settings of the demo loop.
	Demo DemoConfig `json:"demo" yaml:"demo"`

	// Inspect contains inspector server settings.
	Inspect InspectConfig `json:"inspect" yaml:"inspect"`

	// Export contains journal export settings.
	Export ExportConfig `json:"export" yaml:"export"`

	// Tracing contains OpenTelemetry settings.
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty" env:"INCREMENTAL_LOG_LEVEL"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty" env:"INCREMENTAL_LOG_FORMAT"`
}

// RuntimeConfig contains state manager settings.
type RuntimeConfig struct {
	// CallbackBudget limits deferred callbacks per frame. 0 disables it.
	CallbackBudget int `json:"callbackBudget,omitempty" yaml:"callbackBudget,omitempty" env:"INCREMENTAL_CALLBACK_BUDGET"`
}

// DemoConfig contains settings of the demo loop.
type DemoConfig struct {
	// Frames is the number of update passes to run.
	Frames int `json:"frames,omitempty" yaml:"frames,omitempty"`

	// Step is added to the demo counter on every frame.
	Step int `json:"step,omitempty" yaml:"step,omitempty"`

	// Interval is the delay between frames (e.g., "250ms").
	Interval string `json:"interval,omitempty" yaml:"interval,omitempty"`
}

// InspectConfig contains inspector server settings.
type InspectConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty" env:"INCREMENTAL_INSPECT_HOST"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty" env:"INCREMENTAL_INSPECT_PORT"`

	// History is the number of pass reports kept for /api/passes.
	History int `json:"history,omitempty" yaml:"history,omitempty"`
}

// ExportConfig contains journal export settings.
type ExportConfig struct {
	// Target is a file path or an s3://bucket/key URL.
	Target string `json:"target,omitempty" yaml:"target,omitempty" env:"INCREMENTAL_EXPORT_TARGET"`

	// Region is the AWS region used for s3 targets.
	Region string `json:"region,omitempty" yaml:"region,omitempty" env:"INCREMENTAL_EXPORT_REGION"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled turns on span export to stdout.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty" env:"INCREMENTAL_TRACING"`

	// ServiceName is the tracer name.
	ServiceName string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Runtime: RuntimeConfig{
			CallbackBudget: 64,
		},
		Demo: DemoConfig{
			Frames:   8,
			Step:     10,
			Interval: "250ms",
		},
		Inspect: InspectConfig{
			Host:    DefaultHost,
			Port:    DefaultPort,
			History: DefaultHistory,
		},
		Export: ExportConfig{
			Target: DefaultExportTarget,
		},
		Tracing: TracingConfig{
			ServiceName: "incremental",
		},
	}
}

// Load reads configuration from dir. It prefers incremental.json over
// incremental.yaml and uses defaults when neither exists. Environment
// overrides are applied last.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, YAMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	cfg := New()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from the specified file path. The format
// follows the file extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("C001").Wrap(err)
	}

	cfg := New()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("C001").
			WithReason("%s", filepath.Base(path)).
			Wrap(err).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from INCREMENTAL_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return errors.New("C003").Wrap(fmt.Errorf("parse env: %w", err))
	}
	return nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("C001").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C001").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Demo.Frames == 0 {
		c.Demo.Frames = d.Demo.Frames
	}
	if c.Demo.Step == 0 {
		c.Demo.Step = d.Demo.Step
	}
	if c.Demo.Interval == "" {
		c.Demo.Interval = d.Demo.Interval
	}
	if c.Inspect.Host == "" {
		c.Inspect.Host = DefaultHost
	}
	if c.Inspect.Port == 0 {
		c.Inspect.Port = DefaultPort
	}
	if c.Inspect.History == 0 {
		c.Inspect.History = DefaultHistory
	}
	if c.Export.Target == "" {
		c.Export.Target = DefaultExportTarget
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = d.Tracing.ServiceName
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.New("C002").WithReason(format, args...)
	}
	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		return invalid("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format %q is not text or json", c.Log.Format)
	}
	if c.Runtime.CallbackBudget < 0 {
		return invalid("runtime.callbackBudget must not be negative")
	}
	if c.Demo.Frames < 0 {
		return invalid("demo.frames must not be negative")
	}
	if _, err := c.FrameInterval(); err != nil {
		return invalid("demo.interval %q: %v", c.Demo.Interval, err)
	}
	if c.Inspect.Port < 0 || c.Inspect.Port > 65535 {
		return invalid("inspect.port must be between 0 and 65535")
	}
	if c.Inspect.History <= 0 {
		return invalid("inspect.history must be positive")
	}
	return nil
}

// FrameInterval returns the parsed demo interval.
func (c *Config) FrameInterval() (time.Duration, error) {
	if c.Demo.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Demo.Interval)
	if err == nil && d < 0 {
		err = fmt.Errorf("negative duration")
	}
	return d, err
}

// InspectAddress returns the listen address of the inspector.
func (c *Config) InspectAddress() string {
	return c.Inspect.Host + ":" + strconv.Itoa(c.Inspect.Port)
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Logger builds the logger described by the log settings.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levels[strings.ToLower(c.Log.Level)]}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{ConfigFileName, YAMLFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
