package sink

import (
	"io"
	"os"
	"sync"
)

// ConsoleSink writes fragments straight to a writer, os.Stdout by
// default. Writes are unbuffered so a watcher sees keys as they land.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole returns a sink over standard output.
func NewConsole() *ConsoleSink {
	return &ConsoleSink{w: os.Stdout}
}

// NewConsoleTo returns a sink over an arbitrary writer.
func NewConsoleTo(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

// Write emits the fragment.
func (c *ConsoleSink) Write(fragment string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.w, fragment)
	return err
}

// Close is a no-op; the sink does not own the writer.
func (c *ConsoleSink) Close() error {
	return nil
}
