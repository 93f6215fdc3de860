// Package config handles configuration loading and validation for keyscribed.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// validBackends lists every backend name accepted in config files.
// The set is the cross-platform union; opening a backend the current
// build does not carry fails at startup instead.
var validBackends = []string{"auto", "evdev", "x11", "ibus", "hook", "terminal", "replay"}

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	// Validate version
	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	// Validate source configuration
	if sourceErrs := validateSource(&c.Source); len(sourceErrs) > 0 {
		errs = append(errs, sourceErrs...)
	}

	// Validate sinks configuration
	if sinkErrs := validateSinks(&c.Sinks); len(sinkErrs) > 0 {
		errs = append(errs, sinkErrs...)
	}

	// Validate logging configuration
	if loggingErrs := validateLogging(&c.Logging); len(loggingErrs) > 0 {
		errs = append(errs, loggingErrs...)
	}

	// Validate audit configuration
	if auditErrs := validateAudit(&c.Audit); len(auditErrs) > 0 {
		errs = append(errs, auditErrs...)
	}

	// Validate observe configuration
	if observeErrs := validateObserve(&c.Observe); len(observeErrs) > 0 {
		errs = append(errs, observeErrs...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateSource(s *SourceConfig) ValidationErrors {
	var errs ValidationErrors

	valid := false
	for _, name := range validBackends {
		if s.Backend == name {
			valid = true
			break
		}
	}
	if !valid {
		errs = append(errs, ValidationError{
			Field:   "source.backend",
			Message: fmt.Sprintf("invalid backend: %s (valid: %s)", s.Backend, strings.Join(validBackends, ", ")),
		})
	}

	// Device entries must be non-empty; whether the node exists is a
	// runtime question, keyboards come and go.
	for i, dev := range s.Devices {
		if expandPath(dev) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("source.devices[%d]", i),
				Message: "device path cannot be empty",
			})
		}
	}

	if s.PollIntervalMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "source.poll_interval_ms",
			Message: "poll interval cannot be negative",
		})
	}
	if s.PollIntervalMs > 1000 {
		errs = append(errs, ValidationError{
			Field:   "source.poll_interval_ms",
			Message: "poll interval cannot exceed 1000ms",
		})
	}

	return errs
}

func validateSinks(s *SinksConfig) ValidationErrors {
	var errs ValidationErrors

	if !s.Console.Enabled && !s.File.Enabled && !s.SQLite.Enabled {
		errs = append(errs, ValidationError{
			Field:   "sinks",
			Message: "at least one sink must be enabled",
		})
	}

	if s.File.Enabled {
		if s.File.Path == "" {
			errs = append(errs, ValidationError{
				Field:   "sinks.file.path",
				Message: "transcript path is required when the file sink is enabled",
			})
		}
		if s.File.MaxSizeMB < 1 {
			errs = append(errs, ValidationError{
				Field:   "sinks.file.max_size_mb",
				Message: "max size must be at least 1 MB",
			})
		}
		if s.File.MaxBackups < 0 {
			errs = append(errs, ValidationError{
				Field:   "sinks.file.max_backups",
				Message: "max backups cannot be negative",
			})
		}
		if s.File.MaxAgeDays < 0 {
			errs = append(errs, ValidationError{
				Field:   "sinks.file.max_age_days",
				Message: "max age cannot be negative",
			})
		}
	}

	if s.SQLite.Enabled {
		if s.SQLite.Path == "" {
			errs = append(errs, ValidationError{
				Field:   "sinks.sqlite.path",
				Message: "database path is required when the sqlite sink is enabled",
			})
		}

		// Check parent directory exists or can be created
		dir := filepath.Dir(expandPath(s.SQLite.Path))
		if dir != "" && dir != "." {
			if info, err := os.Stat(dir); err != nil {
				if !os.IsNotExist(err) {
					errs = append(errs, ValidationError{
						Field:   "sinks.sqlite.path",
						Message: fmt.Sprintf("cannot access directory: %v", err),
					})
				}
				// Directory doesn't exist yet - that's OK, it will be created
			} else if !info.IsDir() {
				errs = append(errs, ValidationError{
					Field:   "sinks.sqlite.path",
					Message: fmt.Sprintf("parent path is not a directory: %s", dir),
				})
			}
		}
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
		// Valid formats
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
		// Valid outputs
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: fmt.Sprintf("file path is required when output is %q", l.Output),
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %s (valid: stdout, stderr, file, both)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}

	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}

	if l.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_age_days",
			Message: "max age cannot be negative",
		})
	}

	return errs
}

func validateAudit(a *AuditConfig) ValidationErrors {
	var errs ValidationErrors

	if !a.Enabled {
		return errs
	}

	if a.FilePath == "" {
		errs = append(errs, ValidationError{
			Field:   "audit.file_path",
			Message: "file path is required when the audit trail is enabled",
		})
	}

	return errs
}

func validateObserve(o *ObserveConfig) ValidationErrors {
	var errs ValidationErrors

	if !o.Enabled {
		return errs
	}

	if o.Addr == "" {
		errs = append(errs, ValidationError{
			Field:   "observe.addr",
			Message: "listen address is required when observe is enabled",
		})
		return errs
	}

	host, _, err := net.SplitHostPort(o.Addr)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   "observe.addr",
			Message: fmt.Sprintf("invalid listen address: %v", err),
		})
		return errs
	}

	// The endpoint exposes capture liveness, never off the host.
	if !isLoopbackHost(host) {
		errs = append(errs, ValidationError{
			Field:   "observe.addr",
			Message: fmt.Sprintf("listen address must bind loopback, got %s", host),
		})
	}

	return errs
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// IsWarning returns true if this is a non-fatal validation issue.
func (e *ValidationError) IsWarning() bool {
	// Some fields are warnings, not errors
	warningFields := []string{
		"source.devices", // Devices might not be plugged in yet
	}
	for _, f := range warningFields {
		if strings.HasPrefix(e.Field, f) {
			return true
		}
	}
	return false
}

// Warnings returns only warning-level validation errors.
func (e ValidationErrors) Warnings() ValidationErrors {
	var warnings ValidationErrors
	for _, err := range e {
		if err.IsWarning() {
			warnings = append(warnings, err)
		}
	}
	return warnings
}

// Errors returns only error-level validation errors.
func (e ValidationErrors) Errors() ValidationErrors {
	var errs ValidationErrors
	for _, err := range e {
		if !err.IsWarning() {
			errs = append(errs, err)
		}
	}
	return errs
}

// HasErrors returns true if there are any non-warning errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e.Errors()) > 0
}

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")
