// Package source captures raw keyboard events from the operating system.
//
// A Source watches one input backend and emits KeyEvents on a channel in
// arrival order. Which backends exist depends on the platform:
//   - Linux: evdev (/dev/input), x11 (keymap polling), ibus (input method)
//   - Windows: hook (low-level keyboard hook)
//   - everywhere: terminal (attached TTY), replay (scripted, for tests)
//
// Sources emit key codes and directions only. Translation to text happens
// downstream, so a source never needs to know about modifier state or
// layouts.
package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"keyscribe/internal/translate"
)

// Source produces keyboard events from one input backend.
type Source interface {
	// Start begins capturing. The events channel is live after Start
	// returns and is closed when capture ends.
	Start(ctx context.Context) error

	// Events returns the capture channel. Events arrive in the order
	// the backend observed them.
	Events() <-chan translate.KeyEvent

	// Stop ends capture and waits for the read loop to exit.
	Stop() error

	// Available reports whether this backend can run here, with a
	// human-readable reason.
	Available() (bool, string)
}

// ErrNotAvailable is returned when a backend cannot run on this system.
var ErrNotAvailable = errors.New("keyboard capture not available on this platform")

// ErrPermissionDenied is returned when permissions are insufficient.
var ErrPermissionDenied = errors.New("insufficient permissions for keyboard capture")

// ErrAlreadyRunning is returned when Start is called while already running.
var ErrAlreadyRunning = errors.New("source already running")

// BaseSource provides the channel and lifecycle plumbing shared by all
// backends.
type BaseSource struct {
	mu      sync.RWMutex
	running bool
	events  chan translate.KeyEvent
}

// Events returns the capture channel.
func (b *BaseSource) Events() <-chan translate.KeyEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.events
}

// ResetEvents allocates a fresh capture channel before a run.
func (b *BaseSource) ResetEvents(buffer int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = make(chan translate.KeyEvent, buffer)
}

// CloseEvents closes the capture channel after the read loop exits.
func (b *BaseSource) CloseEvents() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.events != nil {
		close(b.events)
		b.events = nil
	}
}

// Emit delivers one event, giving up if the context ends first. The
// read lock is held across the send so CloseEvents cannot close the
// channel under an in-flight delivery; cancel the context before
// closing.
func (b *BaseSource) Emit(ctx context.Context, ev translate.KeyEvent) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.events == nil {
		return false
	}
	select {
	case b.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// TryEmit delivers an event without blocking, dropping it if the
// channel is full. Callbacks that run under OS deadlines use this
// instead of Emit.
func (b *BaseSource) TryEmit(ev translate.KeyEvent) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.events == nil {
		return false
	}
	select {
	case b.events <- ev:
		return true
	default:
		return false
	}
}

// SetRunning sets the running state.
func (b *BaseSource) SetRunning(running bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = running
}

// IsRunning returns the running state.
func (b *BaseSource) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

// Options carries backend settings. Backends read what applies to
// them and ignore the rest.
type Options struct {
	// Devices pins the evdev backend to specific event nodes.
	Devices []string

	// Hotplug lets the evdev backend attach keyboards that appear
	// while running.
	Hotplug bool

	// PollInterval sets the x11 backend's keymap polling rate.
	PollInterval time.Duration
}

// Open creates the named backend. The name "auto" picks the first
// available platform backend, falling back to the terminal.
func Open(name string, opts Options) (Source, error) {
	switch name {
	case "auto":
		return openAuto(opts)
	case "terminal":
		return NewTerminal(), nil
	case "replay":
		return NewReplay(nil), nil
	default:
		return openPlatform(name, opts)
	}
}

// Names lists every backend this build knows about, "auto" first.
func Names() []string {
	names := []string{"auto"}
	names = append(names, platformNames()...)
	return append(names, "terminal", "replay")
}

func openAuto(opts Options) (Source, error) {
	for _, name := range platformNames() {
		src, err := openPlatform(name, opts)
		if err != nil {
			continue
		}
		if ok, _ := src.Available(); ok {
			return src, nil
		}
	}

	term := NewTerminal()
	if ok, reason := term.Available(); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAvailable, reason)
	}
	return term, nil
}
