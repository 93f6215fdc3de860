package sink

import (
	"fmt"

	"keyscribe/internal/logging"
)

// FileConfig configures a transcript file sink.
type FileConfig struct {
	Path       string
	MaxSizeMB  int64
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// FileSink appends fragments to a transcript file on disk. Rotation,
// compression and backup cleanup ride on the same rotator the daemon
// log uses.
type FileSink struct {
	rot *logging.FileRotator
}

// NewFile opens (or creates) the transcript file at cfg.Path.
func NewFile(cfg FileConfig) (*FileSink, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file sink: path is required")
	}

	rot, err := logging.NewFileRotator(logging.RotateOptions{
		Path:       cfg.Path,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("file sink: %w", err)
	}

	return &FileSink{rot: rot}, nil
}

// Write appends a fragment verbatim. No separator is added: fragments
// carry their own line breaks (the Return label ends in CRLF).
func (f *FileSink) Write(fragment string) error {
	if _, err := f.rot.Write([]byte(fragment)); err != nil {
		return fmt.Errorf("file sink: %w", err)
	}
	return nil
}

// Sync flushes buffered fragments to disk.
func (f *FileSink) Sync() error {
	return f.rot.Sync()
}

// Close flushes and closes the transcript file.
func (f *FileSink) Close() error {
	return f.rot.Close()
}
