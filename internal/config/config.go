// Package config handles configuration loading, validation, and management for keyscribed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Source configuration for key event capture.
	Source SourceConfig `toml:"source" json:"source" yaml:"source"`

	// Sinks configuration for transcript output.
	Sinks SinksConfig `toml:"sinks" json:"sinks" yaml:"sinks"`

	// Translate configuration for the key-to-text engine.
	Translate TranslateConfig `toml:"translate" json:"translate" yaml:"translate"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Audit configuration for the capture audit trail.
	Audit AuditConfig `toml:"audit" json:"audit" yaml:"audit"`

	// Observe configuration for the local health/metrics endpoint.
	Observe ObserveConfig `toml:"observe" json:"observe" yaml:"observe"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// SourceConfig selects and tunes the capture backend.
type SourceConfig struct {
	// Backend is the capture backend name: "auto", "evdev", "x11",
	// "ibus", "hook", "terminal", or "replay". "auto" picks the first
	// available backend for the platform.
	Backend string `toml:"backend" json:"backend" yaml:"backend"`

	// Devices pins the evdev backend to specific event nodes.
	// Empty means discover all keyboards.
	Devices []string `toml:"devices" json:"devices" yaml:"devices"`

	// Hotplug lets the evdev backend attach keyboards that appear
	// while the daemon is running.
	Hotplug bool `toml:"hotplug" json:"hotplug" yaml:"hotplug"`

	// PollIntervalMs is the x11 backend's keymap polling interval in
	// milliseconds. Zero uses the backend default.
	PollIntervalMs int `toml:"poll_interval_ms" json:"poll_interval_ms" yaml:"poll_interval_ms"`
}

// SinksConfig enables and tunes the transcript sinks.
type SinksConfig struct {
	// Console writes fragments to standard output.
	Console ConsoleSinkConfig `toml:"console" json:"console" yaml:"console"`

	// File appends fragments to a rotating transcript file.
	File FileSinkConfig `toml:"file" json:"file" yaml:"file"`

	// SQLite records sessions and fragments in a database.
	SQLite SQLiteSinkConfig `toml:"sqlite" json:"sqlite" yaml:"sqlite"`
}

// ConsoleSinkConfig holds console sink settings.
type ConsoleSinkConfig struct {
	// Enabled determines whether the console sink is active.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
}

// FileSinkConfig holds file sink settings.
type FileSinkConfig struct {
	// Enabled determines whether the file sink is active.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Path is the transcript file path.
	Path string `toml:"path" json:"path" yaml:"path"`

	// MaxSizeMB is the maximum transcript size in megabytes before rotation.
	MaxSizeMB int64 `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the maximum number of rotated transcripts to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is how long to keep rotated transcripts.
	MaxAgeDays int `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`

	// Compress determines whether rotated transcripts are gzipped.
	Compress bool `toml:"compress" json:"compress" yaml:"compress"`
}

// SQLiteSinkConfig holds SQLite sink settings.
type SQLiteSinkConfig struct {
	// Enabled determines whether the SQLite sink is active.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Path is the path to the transcript database file.
	Path string `toml:"path" json:"path" yaml:"path"`
}

// TranslateConfig holds translation engine settings.
type TranslateConfig struct {
	// LayoutPath is the path to an optional layout overlay JSON file.
	// Empty uses the built-in US layout.
	LayoutPath string `toml:"layout_path" json:"layout_path" yaml:"layout_path"`
}

// LoggingConfig holds daemon logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log output format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is where logs go: "stdout", "stderr", "file", or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file path when output includes "file".
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int64 `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the maximum number of rotated log files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is how long to keep rotated log files.
	MaxAgeDays int `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`

	// Compress determines whether rotated logs are gzipped.
	Compress bool `toml:"compress" json:"compress" yaml:"compress"`
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	// Enabled determines whether the audit trail is written.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// FilePath is the audit log path. Empty uses the default location.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`
}

// ObserveConfig holds health/metrics endpoint settings.
type ObserveConfig struct {
	// Enabled determines whether the HTTP endpoint is served.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Addr is the listen address. Must bind a loopback interface.
	Addr string `toml:"addr" json:"addr" yaml:"addr"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := KeyscribeDir()

	return &Config{
		Version: Version,
		Source: SourceConfig{
			Backend:        "auto",
			Devices:        []string{},
			Hotplug:        true,
			PollIntervalMs: 10,
		},
		Sinks: SinksConfig{
			Console: ConsoleSinkConfig{
				Enabled: true,
			},
			File: FileSinkConfig{
				Enabled:    false,
				Path:       filepath.Join(dir, "transcript.txt"),
				MaxSizeMB:  64,
				MaxBackups: 5,
				MaxAgeDays: 30,
				Compress:   true,
			},
			SQLite: SQLiteSinkConfig{
				Enabled: true,
				Path:    filepath.Join(dir, "transcripts.db"),
			},
		},
		Translate: TranslateConfig{
			LayoutPath: "",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "file",
			FilePath:   filepath.Join(dir, "keyscribed.log"),
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Audit: AuditConfig{
			Enabled:  true,
			FilePath: filepath.Join(dir, "audit.log"),
		},
		Observe: ObserveConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9537",
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(KeyscribeDir(), "config.toml")
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns default configuration.
// Supports TOML, JSON, and YAML formats based on file extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	cfg.ApplyEnvOverrides()

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates all necessary directories for the daemon.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Sinks.File.Path),
		filepath.Dir(c.Sinks.SQLite.Path),
		filepath.Dir(c.Logging.FilePath),
		filepath.Dir(c.Audit.FilePath),
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// KeyscribeDir returns the base keyscribe data directory.
// Uses platform-specific paths or the KEYSCRIBE_DATA_DIR environment override.
func KeyscribeDir() string {
	if envDir := os.Getenv("KEYSCRIBE_DATA_DIR"); envDir != "" {
		return envDir
	}
	return PlatformDataDir()
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with KEYSCRIBE_ and use underscores.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Source overrides
	if v := os.Getenv("KEYSCRIBE_SOURCE"); v != "" {
		c.Source.Backend = v
	}

	// Sink overrides
	if v := os.Getenv("KEYSCRIBE_TRANSCRIPT_DB"); v != "" {
		c.Sinks.SQLite.Path = v
	}
	if v := os.Getenv("KEYSCRIBE_TRANSCRIPT_FILE"); v != "" {
		c.Sinks.File.Path = v
	}

	// Translation overrides
	if v := os.Getenv("KEYSCRIBE_LAYOUT"); v != "" {
		c.Translate.LayoutPath = v
	}

	// Logging overrides
	if v := os.Getenv("KEYSCRIBE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("KEYSCRIBE_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}

	// Audit overrides
	if v := os.Getenv("KEYSCRIBE_AUDIT_PATH"); v != "" {
		c.Audit.FilePath = v
	}

	// Observe overrides
	if v := os.Getenv("KEYSCRIBE_OBSERVE_ADDR"); v != "" {
		c.Observe.Addr = v
	}
}

// PollInterval returns the x11 polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Source.PollIntervalMs) * time.Millisecond
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Copy the sections individually so the clone starts with a fresh,
	// unlocked mutex rather than a copy of c's lock state.
	clone := Config{
		Version:   c.Version,
		Source:    c.Source,
		Sinks:     c.Sinks,
		Translate: c.Translate,
		Logging:   c.Logging,
		Audit:     c.Audit,
		Observe:   c.Observe,
	}

	// Deep copy slices
	clone.Source.Devices = append([]string{}, c.Source.Devices...)

	return &clone
}
