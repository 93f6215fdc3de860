package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// AuditEventType represents the type of audit event.
type AuditEventType string

// Audit event types. The audit trail records the lifecycle of capture
// sessions, never their content.
const (
	AuditEventStartup       AuditEventType = "startup"
	AuditEventShutdown      AuditEventType = "shutdown"
	AuditEventSessionStart  AuditEventType = "session_start"
	AuditEventSessionEnd    AuditEventType = "session_end"
	AuditEventSourceAttach  AuditEventType = "source_attach"
	AuditEventSourceDetach  AuditEventType = "source_detach"
	AuditEventConfigChange  AuditEventType = "config_change"
	AuditEventLayoutApplied AuditEventType = "layout_applied"
	AuditEventError         AuditEventType = "error"
)

// AuditEvent represents one entry in the audit trail.
type AuditEvent struct {
	Timestamp  time.Time              `json:"timestamp"`
	EventType  AuditEventType         `json:"event_type"`
	Component  string                 `json:"component"`
	SessionID  string                 `json:"session_id,omitempty"`
	Backend    string                 `json:"backend,omitempty"`
	Action     string                 `json:"action"`
	Resource   string                 `json:"resource,omitempty"`
	Result     string                 `json:"result"` // "success", "failure"
	Details    map[string]interface{} `json:"details,omitempty"`
	SourceFile string                 `json:"source_file,omitempty"`
	SourceLine int                    `json:"source_line,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// AuditLoggerConfig holds configuration for the audit logger.
type AuditLoggerConfig struct {
	// FilePath is the path to the audit log file.
	FilePath string

	// MaxSize is the maximum size in MB before rotation.
	MaxSize int64

	// MaxAge is the maximum age in days before deletion.
	MaxAge int

	// MaxBackups is the maximum number of rotated files to keep.
	MaxBackups int

	// Compress determines if rotated logs should be compressed.
	Compress bool

	// Component is the component name for audit events.
	Component string
}

// DefaultAuditConfig returns default audit logger configuration.
func DefaultAuditConfig() *AuditLoggerConfig {
	return &AuditLoggerConfig{
		FilePath:   defaultAuditLogPath(),
		MaxSize:    50, // 50 MB
		MaxAge:     90, // 90 days
		MaxBackups: 10,
		Compress:   true,
		Component:  "keyscribed",
	}
}

// defaultAuditLogPath returns the platform-specific default audit log path.
func defaultAuditLogPath() string {
	switch runtime.GOOS {
	case "darwin":
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "Library", "Logs", "keyscribe", "audit.log")
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		return filepath.Join(appData, "keyscribe", "logs", "audit.log")
	default:
		stateHome := os.Getenv("XDG_STATE_HOME")
		if stateHome == "" {
			homeDir, _ := os.UserHomeDir()
			stateHome = filepath.Join(homeDir, ".local", "state")
		}
		return filepath.Join(stateHome, "keyscribe", "audit.log")
	}
}

// AuditLogger writes the session audit trail as JSON lines.
type AuditLogger struct {
	config    *AuditLoggerConfig
	rotator   *FileRotator
	logger    *slog.Logger
	mu        sync.Mutex
	sessionID string
}

var (
	defaultAuditLogger *AuditLogger
	auditLoggerOnce    sync.Once
)

// DefaultAuditLogger returns the default global audit logger.
func DefaultAuditLogger() *AuditLogger {
	auditLoggerOnce.Do(func() {
		var err error
		defaultAuditLogger, err = NewAuditLogger(DefaultAuditConfig())
		if err != nil {
			// Create a fallback that writes to stderr
			defaultAuditLogger = &AuditLogger{
				config: DefaultAuditConfig(),
				logger: slog.Default(),
			}
		}
	})
	return defaultAuditLogger
}

// SetDefaultAuditLogger sets the default global audit logger.
func SetDefaultAuditLogger(l *AuditLogger) {
	defaultAuditLogger = l
}

// NewAuditLogger creates a new AuditLogger.
func NewAuditLogger(cfg *AuditLoggerConfig) (*AuditLogger, error) {
	if cfg == nil {
		cfg = DefaultAuditConfig()
	}

	rotator, err := NewFileRotator(RotateOptions{
		Path:       cfg.FilePath,
		MaxSizeMB:  cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAge,
		Compress:   cfg.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("create audit rotator: %w", err)
	}

	handler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: LevelInfo})

	return &AuditLogger{
		config:  cfg,
		rotator: rotator,
		logger:  slog.New(handler),
	}, nil
}

// SetSessionID sets the current session ID for audit events.
func (a *AuditLogger) SetSessionID(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessionID = sessionID
}

// Log writes an audit event.
func (a *AuditLogger) Log(event AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Component == "" {
		event.Component = a.config.Component
	}
	if event.SessionID == "" {
		event.SessionID = a.sessionID
	}

	if event.SourceFile == "" {
		_, file, line, ok := runtime.Caller(1)
		if ok {
			event.SourceFile = file
			event.SourceLine = line
		}
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	data = append(data, '\n')
	if _, err := a.rotator.Write(data); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}

	return nil
}

// LogStartup logs a daemon startup event.
func (a *AuditLogger) LogStartup(version string, details map[string]interface{}) error {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["version"] = version
	return a.Log(AuditEvent{
		EventType: AuditEventStartup,
		Action:    "daemon_started",
		Result:    "success",
		Details:   details,
	})
}

// LogShutdown logs a daemon shutdown event.
func (a *AuditLogger) LogShutdown(reason string) error {
	return a.Log(AuditEvent{
		EventType: AuditEventShutdown,
		Action:    "daemon_stopped",
		Result:    "success",
		Details: map[string]interface{}{
			"reason": reason,
		},
	})
}

// LogSessionStart logs the start of a capture session.
func (a *AuditLogger) LogSessionStart(sessionID, backend string) error {
	a.SetSessionID(sessionID)
	return a.Log(AuditEvent{
		EventType: AuditEventSessionStart,
		Action:    "session_started",
		Result:    "success",
		SessionID: sessionID,
		Backend:   backend,
	})
}

// LogSessionEnd logs the end of a capture session.
func (a *AuditLogger) LogSessionEnd(details map[string]interface{}) error {
	event := AuditEvent{
		EventType: AuditEventSessionEnd,
		Action:    "session_ended",
		Result:    "success",
		Details:   details,
	}
	err := a.Log(event)
	a.SetSessionID("")
	return err
}

// LogSourceAttach logs a capture device or backend coming online.
func (a *AuditLogger) LogSourceAttach(backend, device string) error {
	return a.Log(AuditEvent{
		EventType: AuditEventSourceAttach,
		Action:    "source_attached",
		Backend:   backend,
		Resource:  device,
		Result:    "success",
	})
}

// LogSourceDetach logs a capture device or backend going away.
func (a *AuditLogger) LogSourceDetach(backend, device string) error {
	return a.Log(AuditEvent{
		EventType: AuditEventSourceDetach,
		Action:    "source_detached",
		Backend:   backend,
		Resource:  device,
		Result:    "success",
	})
}

// LogConfigChange logs a configuration change.
func (a *AuditLogger) LogConfigChange(setting, oldValue, newValue string) error {
	return a.Log(AuditEvent{
		EventType: AuditEventConfigChange,
		Action:    "config_changed",
		Resource:  setting,
		Result:    "success",
		Details: map[string]interface{}{
			"old_value": oldValue,
			"new_value": newValue,
		},
	})
}

// LogLayoutApplied logs a layout overlay being applied.
func (a *AuditLogger) LogLayoutApplied(name string, keys int) error {
	return a.Log(AuditEvent{
		EventType: AuditEventLayoutApplied,
		Action:    "layout_applied",
		Resource:  name,
		Result:    "success",
		Details: map[string]interface{}{
			"keys": keys,
		},
	})
}

// LogError logs an error event.
func (a *AuditLogger) LogError(operation string, err error, details map[string]interface{}) error {
	if details == nil {
		details = make(map[string]interface{})
	}
	return a.Log(AuditEvent{
		EventType: AuditEventError,
		Action:    operation,
		Result:    "failure",
		Error:     err.Error(),
		Details:   details,
	})
}

// Close closes the audit logger.
func (a *AuditLogger) Close() error {
	if a.rotator != nil {
		return a.rotator.Close()
	}
	return nil
}

// Sync flushes any buffered audit events.
func (a *AuditLogger) Sync() error {
	if a.rotator != nil {
		return a.rotator.Sync()
	}
	return nil
}
