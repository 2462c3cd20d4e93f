// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/fibertrace/lib/bridge"
	"github.com/bureau-foundation/fibertrace/lib/recording"
	"github.com/bureau-foundation/fibertrace/lib/supervisor"
	"github.com/bureau-foundation/fibertrace/lib/tracing"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "FIBERTRACE_CONFIG"

// Config is the complete fibertrace configuration.
type Config struct {
	// LogLevel is the minimum slog level: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// Bridge configures how traced programs are spawned and read.
	Bridge BridgeConfig `yaml:"bridge"`

	// Tracer configures how traced programs emit events.
	Tracer TracerConfig `yaml:"tracer"`

	// Recording configures recording files.
	Recording RecordingConfig `yaml:"recording"`

	// View configures terminal rendering.
	View ViewConfig `yaml:"view"`
}

// BridgeConfig configures the host side of the line protocol.
type BridgeConfig struct {
	// GracePeriod is how long output is drained after the traced
	// program exits before the session is torn down.
	// Default: 150ms
	GracePeriod time.Duration `yaml:"grace_period"`

	// MaxLineBytes bounds one line of program output. Longer lines are
	// discarded.
	// Default: 1048576
	MaxLineBytes int `yaml:"max_line_bytes"`

	// MaxConcurrentHosts is the number of traced programs that may run
	// at the same time.
	// Default: 1
	MaxConcurrentHosts int `yaml:"max_concurrent_hosts"`
}

// TracerConfig configures event emission inside traced programs.
type TracerConfig struct {
	// Mode selects manual, fibers or spans instrumentation.
	// Default: fibers
	Mode string `yaml:"mode"`

	// IDPrefix prefixes generated effect ids ("effect-1", ...).
	// Default: effect
	IDPrefix string `yaml:"id_prefix"`
}

// RecordingConfig configures recording files.
type RecordingConfig struct {
	// Compression is none, zstd or lz4.
	// Default: zstd
	Compression string `yaml:"compression"`

	// Directory is where relative --record paths are placed. Empty
	// means the working directory.
	Directory string `yaml:"directory"`
}

// ViewConfig configures rendering.
type ViewConfig struct {
	// ShowRawOutput prints the program's non-trace output under the
	// rendered tree.
	ShowRawOutput bool `yaml:"show_raw_output"`
}

// Default returns the configuration used when no file is given, and the
// base that a loaded file is merged over.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Bridge: BridgeConfig{
			GracePeriod:        bridge.DefaultGracePeriod,
			MaxLineBytes:       bridge.DefaultMaxLineBytes,
			MaxConcurrentHosts: 1,
		},
		Tracer: TracerConfig{
			Mode:     string(supervisor.ModeFibers),
			IDPrefix: tracing.DefaultIDPrefix,
		},
		Recording: RecordingConfig{
			Compression: recording.CompressionZstd.String(),
		},
	}
}

// Load loads configuration from the file named by FIBERTRACE_CONFIG.
// It fails if the variable is unset; use [Resolve] when a default is
// acceptable.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your fibertrace.yaml, or use --config", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path, merged over Default, and
// validates it.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.Recording.Directory = expandVars(cfg.Recording.Directory, map[string]string{
		"HOME": os.Getenv("HOME"),
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve picks the configuration for a command: the explicit path if
// given, else FIBERTRACE_CONFIG if set, else Default.
func Resolve(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return LoadFile(explicitPath)
	}
	if os.Getenv(EnvironmentVariable) != "" {
		return Load()
	}
	return Default(), nil
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}, consulting vars
// before the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name := parts[1]
		defaultValue := parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Bridge.GracePeriod <= 0 {
		errs = append(errs, fmt.Errorf("bridge.grace_period must be positive, got %s", c.Bridge.GracePeriod))
	}
	if c.Bridge.MaxLineBytes < 1024 {
		errs = append(errs, fmt.Errorf("bridge.max_line_bytes must be at least 1024, got %d", c.Bridge.MaxLineBytes))
	}
	if c.Bridge.MaxConcurrentHosts < 1 {
		errs = append(errs, fmt.Errorf("bridge.max_concurrent_hosts must be at least 1, got %d", c.Bridge.MaxConcurrentHosts))
	}
	if _, err := c.TracerMode(); err != nil {
		errs = append(errs, fmt.Errorf("tracer.mode: %w", err))
	}
	if c.Tracer.IDPrefix == "" {
		errs = append(errs, errors.New("tracer.id_prefix is required"))
	}
	if _, err := c.RecordingCompression(); err != nil {
		errs = append(errs, fmt.Errorf("recording.compression: %w", err))
	}

	return errors.Join(errs...)
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q must be one of debug, info, warn, error", c.LogLevel)
	}
	return level, nil
}

// TracerMode parses Tracer.Mode.
func (c *Config) TracerMode() (supervisor.Mode, error) {
	return supervisor.ParseMode(c.Tracer.Mode)
}

// RecordingCompression parses Recording.Compression.
func (c *Config) RecordingCompression() (recording.Compression, error) {
	return recording.ParseCompression(c.Recording.Compression)
}

// RecordingPath resolves a --record argument: absolute paths are kept,
// relative ones are placed under Recording.Directory.
func (c *Config) RecordingPath(name string) string {
	if filepath.IsAbs(name) || c.Recording.Directory == "" {
		return name
	}
	return filepath.Join(c.Recording.Directory, name)
}
