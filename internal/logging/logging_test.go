package logging

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"INFO", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"ERROR", LevelError, false},
		{"invalid", LevelInfo, true},
		{"", LevelInfo, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := ParseLevel(test.input)
			if test.hasError && err == nil {
				t.Error("expected error, got nil")
			}
			if !test.hasError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !test.hasError && level != test.expected {
				t.Errorf("expected %v, got %v", test.expected, level)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := LevelString(test.level)
			if result != test.expected {
				t.Errorf("expected %q, got %q", test.expected, result)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if f, err := ParseFormat("text"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(text) = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("expected default level Info, got %v", cfg.Level)
	}
	if cfg.Format != FormatText {
		t.Errorf("expected default format Text, got %v", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected default output stderr, got %s", cfg.Output)
	}
	if cfg.MaxSize <= 0 {
		t.Errorf("expected positive MaxSize, got %d", cfg.MaxSize)
	}
	if cfg.MaxAge <= 0 {
		t.Errorf("expected positive MaxAge, got %d", cfg.MaxAge)
	}
	if cfg.MaxBackups <= 0 {
		t.Errorf("expected positive MaxBackups, got %d", cfg.MaxBackups)
	}
	if cfg.Component != "keyscribed" {
		t.Errorf("expected component keyscribed, got %s", cfg.Component)
	}
}

func TestLoggerNew(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "stderr"

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Close()

	if logger.Logger == nil {
		t.Error("logger.Logger is nil")
	}
}

func TestLoggerWithComponent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = "stderr"

	logger, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Close()

	childLogger := logger.WithComponent("test-component")
	if childLogger == nil {
		t.Error("WithComponent returned nil")
	}
}

func TestShouldRedact(t *testing.T) {
	tests := []struct {
		key      string
		expected bool
	}{
		{"password", true},
		{"PASSWORD", true},
		{"user_password", true},
		{"secret", true},
		{"token", true},
		{"auth_token", true},
		{"credential", true},
		{"private_key", true},
		{"cookie", true},
		{"fragment", true},
		{"transcript", true},
		{"typed_text", true},
		// Key codes and names are diagnostics, not content.
		{"key_code", false},
		{"key_name", false},
		{"backend", false},
		{"device", false},
		{"session_id", false},
		{"timestamp", false},
	}

	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			result := shouldRedact(test.key)
			if result != test.expected {
				t.Errorf("shouldRedact(%q) = %v, expected %v", test.key, result, test.expected)
			}
		})
	}
}

func TestFileRotator(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	rotator, err := NewFileRotator(RotateOptions{
		Path:       logPath,
		MaxSizeMB:  1,
		MaxAgeDays: 7,
		MaxBackups: 3,
		Compress:   false, // Disable for faster tests
	})
	if err != nil {
		t.Fatalf("failed to create rotator: %v", err)
	}
	defer rotator.Close()

	testData := []byte("test log line\n")
	n, err := rotator.Write(testData)
	if err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if n != len(testData) {
		t.Errorf("expected to write %d bytes, wrote %d", len(testData), n)
	}

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("log file was not created")
	}

	if err := rotator.Sync(); err != nil {
		t.Errorf("sync failed: %v", err)
	}
}

func TestFileRotatorFiles(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	rotator, err := NewFileRotator(RotateOptions{
		Path:       logPath,
		MaxSizeMB:  1,
		MaxAgeDays: 7,
		MaxBackups: 3,
	})
	if err != nil {
		t.Fatalf("failed to create rotator: %v", err)
	}
	defer rotator.Close()

	for i := 0; i < 100; i++ {
		rotator.Write([]byte("test log line " + string(rune('A'+i%26)) + "\n"))
	}

	files, err := rotator.Files()
	if err != nil {
		t.Fatalf("failed to get files: %v", err)
	}

	if len(files) == 0 {
		t.Error("no files found")
	}
}

func TestAuditLogger(t *testing.T) {
	tmpDir := t.TempDir()
	auditPath := filepath.Join(tmpDir, "audit.log")

	cfg := &AuditLoggerConfig{
		FilePath:   auditPath,
		MaxSize:    10,
		MaxAge:     7,
		MaxBackups: 3,
		Compress:   false,
		Component:  "test",
	}

	auditLogger, err := NewAuditLogger(cfg)
	if err != nil {
		t.Fatalf("failed to create audit logger: %v", err)
	}
	defer auditLogger.Close()

	if err := auditLogger.LogStartup("1.0.0", nil); err != nil {
		t.Errorf("LogStartup failed: %v", err)
	}
	if err := auditLogger.LogSessionStart("session-123", "replay"); err != nil {
		t.Errorf("LogSessionStart failed: %v", err)
	}
	if err := auditLogger.LogSourceAttach("evdev", "/dev/input/event3"); err != nil {
		t.Errorf("LogSourceAttach failed: %v", err)
	}
	if err := auditLogger.LogConfigChange("log_level", "info", "debug"); err != nil {
		t.Errorf("LogConfigChange failed: %v", err)
	}
	if err := auditLogger.LogLayoutApplied("qwertz-swap", 2); err != nil {
		t.Errorf("LogLayoutApplied failed: %v", err)
	}
	if err := auditLogger.LogError("test_operation", io.EOF, nil); err != nil {
		t.Errorf("LogError failed: %v", err)
	}
	if err := auditLogger.LogSessionEnd(nil); err != nil {
		t.Errorf("LogSessionEnd failed: %v", err)
	}
	if err := auditLogger.LogShutdown("signal"); err != nil {
		t.Errorf("LogShutdown failed: %v", err)
	}

	auditLogger.Sync()

	data, err := os.ReadFile(auditPath)
	if err != nil {
		t.Fatalf("failed to read audit log: %v", err)
	}

	if len(data) == 0 {
		t.Error("audit log is empty")
	}

	// Verify it's valid JSON lines
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	for i, line := range lines {
		var event map[string]interface{}
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i+1, err)
		}
	}
}

func TestAuditSessionIDCarries(t *testing.T) {
	tmpDir := t.TempDir()
	auditPath := filepath.Join(tmpDir, "audit.log")

	auditLogger, err := NewAuditLogger(&AuditLoggerConfig{
		FilePath:  auditPath,
		MaxSize:   10,
		Component: "test",
	})
	if err != nil {
		t.Fatalf("failed to create audit logger: %v", err)
	}
	defer auditLogger.Close()

	auditLogger.LogSessionStart("session-abc", "replay")
	auditLogger.LogSourceAttach("evdev", "/dev/input/event0")
	auditLogger.Sync()

	data, _ := os.ReadFile(auditPath)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 audit lines, got %d", len(lines))
	}

	var attach map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &attach); err != nil {
		t.Fatalf("parse attach line: %v", err)
	}
	if attach["session_id"] != "session-abc" {
		t.Errorf("attach event should carry session id, got %v", attach["session_id"])
	}
}

func TestCrashHandler(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := &CrashHandlerConfig{
		CrashDir:  tmpDir,
		Version:   "1.0.0",
		Component: "test",
	}

	handler := NewCrashHandler(cfg)

	handler.HandlePanic("test panic value", map[string]interface{}{
		"test_key": "test_value",
	})

	reports, err := handler.GetCrashReports()
	if err != nil {
		t.Fatalf("failed to get crash reports: %v", err)
	}

	if len(reports) == 0 {
		t.Error("no crash report was created")
	}

	if len(reports) > 0 {
		report := reports[0]
		if report.PanicValue != "test panic value" {
			t.Errorf("expected panic value 'test panic value', got %q", report.PanicValue)
		}
		if report.Version != "1.0.0" {
			t.Errorf("expected version '1.0.0', got %q", report.Version)
		}
		if report.Component != "test" {
			t.Errorf("expected component 'test', got %q", report.Component)
		}
	}

	err = handler.ClearCrashReports()
	if err != nil {
		t.Errorf("ClearCrashReports failed: %v", err)
	}

	reports, _ = handler.GetCrashReports()
	if len(reports) != 0 {
		t.Error("crash reports were not cleared")
	}
}

func TestCrashHandlerRecovery(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := &CrashHandlerConfig{
		CrashDir:  tmpDir,
		Version:   "1.0.0",
		Component: "test",
	}

	handler := NewCrashHandler(cfg)

	panicked := false
	handler.Recover(func() {
		panicked = true
		panic("intentional test panic")
	})

	if !panicked {
		t.Error("function did not run")
	}

	reports, _ := handler.GetCrashReports()
	if len(reports) == 0 {
		t.Error("crash report was not created for recovered panic")
	}
}

func TestCrashHandlerCleanupOld(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := &CrashHandlerConfig{
		CrashDir:  tmpDir,
		Version:   "1.0.0",
		Component: "test",
	}

	handler := NewCrashHandler(cfg)

	for i := 0; i < 3; i++ {
		handler.HandlePanic("test panic", nil)
		time.Sleep(10 * time.Millisecond) // Ensure different timestamps
	}

	reports, _ := handler.GetCrashReports()
	if len(reports) == 0 {
		t.Error("expected crash reports to exist")
	}

	if err := handler.CleanupOldCrashReports(1 * time.Millisecond); err != nil {
		t.Errorf("CleanupOldCrashReports failed: %v", err)
	}
}
