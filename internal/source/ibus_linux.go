//go:build linux

package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"keyscribe/internal/keycode"
	"keyscribe/internal/translate"
)

// IBus D-Bus constants.
const (
	ibusEngineInterface  = "org.freedesktop.IBus.Engine"
	ibusFactoryInterface = "org.freedesktop.IBus.Factory"

	ibusBusName    = "dev.keyscribe.IBus"
	ibusEngineName = "keyscribe"
)

// IBusReleaseMask marks key release events in the IBus state word.
const IBusReleaseMask uint32 = 1 << 30

// IBusSource registers as an IBus input method engine and receives key
// events over D-Bus. Every event is passed through to the application
// untouched; the engine only observes.
type IBusSource struct {
	BaseSource

	mu     sync.Mutex
	conn   *dbus.Conn
	ctx    context.Context
	cancel context.CancelFunc

	enginePath dbus.ObjectPath
}

// NewIBus creates an IBus engine source.
func NewIBus() *IBusSource {
	return &IBusSource{}
}

// Available checks for a reachable session bus.
func (e *IBusSource) Available() (bool, string) {
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" && os.Getenv("XDG_RUNTIME_DIR") == "" {
		return false, "no D-Bus session bus address"
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return false, fmt.Sprintf("cannot connect to session bus: %v", err)
	}
	conn.Close()

	return true, "D-Bus session bus reachable"
}

// Start connects to the session bus and exports the engine. IBus
// must be configured to route input through the keyscribe engine for
// events to arrive.
func (e *IBusSource) Start(ctx context.Context) error {
	if e.IsRunning() {
		return ErrAlreadyRunning
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connecting to session bus: %w", err)
	}

	reply, err := conn.RequestName(ibusBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("requesting bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return errors.New("bus name already taken (another keyscribe engine running?)")
	}

	e.mu.Lock()
	e.conn = conn
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.mu.Unlock()

	factory := &ibusFactory{source: e}
	conn.Export(factory, "/org/freedesktop/IBus/Factory", ibusFactoryInterface)

	e.enginePath = "/org/freedesktop/IBus/Engine/keyscribe"
	conn.Export(e, e.enginePath, ibusEngineInterface)

	e.ResetEvents(256)
	e.SetRunning(true)

	return nil
}

// ProcessKeyEvent receives one key event from IBus. The keycode
// parameter carries the X11 hardware keycode; keyval (the resolved
// keysym) is ignored because translation happens downstream. Returning
// false passes the key through to the application.
func (e *IBusSource) ProcessKeyEvent(keyval, kc, state uint32) (bool, *dbus.Error) {
	if !e.IsRunning() {
		return false, nil
	}

	code, ok := keycode.FromX11(kc)
	if !ok {
		return false, nil
	}

	dir := translate.Down
	if state&IBusReleaseMask != 0 {
		dir = translate.Up
	}

	e.mu.Lock()
	ctx := e.ctx
	e.mu.Unlock()
	if ctx != nil {
		e.Emit(ctx, translate.KeyEvent{Code: code, Direction: dir, Time: time.Now()})
	}

	return false, nil
}

// FocusIn is called when the engine gains input focus.
func (e *IBusSource) FocusIn() *dbus.Error { return nil }

// FocusOut is called when the engine loses input focus.
func (e *IBusSource) FocusOut() *dbus.Error { return nil }

// Enable is called when the engine is enabled.
func (e *IBusSource) Enable() *dbus.Error { return nil }

// Disable is called when the engine is disabled.
func (e *IBusSource) Disable() *dbus.Error { return nil }

// Reset is called when the input context resets.
func (e *IBusSource) Reset() *dbus.Error { return nil }

// SetCapabilities informs about client capabilities.
func (e *IBusSource) SetCapabilities(caps uint32) *dbus.Error { return nil }

// SetCursorLocation informs about cursor position.
func (e *IBusSource) SetCursorLocation(x, y, w, h int32) *dbus.Error { return nil }

// Stop releases the bus name and closes the connection.
func (e *IBusSource) Stop() error {
	if !e.IsRunning() {
		return nil
	}

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	conn := e.conn
	e.conn = nil
	e.mu.Unlock()

	if conn != nil {
		conn.ReleaseName(ibusBusName)
		conn.Close()
	}

	e.CloseEvents()
	e.SetRunning(false)
	return nil
}

// ibusFactory implements the IBus Factory interface.
type ibusFactory struct {
	source   *IBusSource
	engineID uint32
}

// CreateEngine hands IBus an engine object path.
func (f *ibusFactory) CreateEngine(engineName string) (dbus.ObjectPath, *dbus.Error) {
	if engineName != ibusEngineName {
		return "", dbus.NewError("org.freedesktop.IBus.NoEngine",
			[]interface{}{"unknown engine: " + engineName})
	}

	f.engineID++
	path := dbus.ObjectPath(fmt.Sprintf("/org/freedesktop/IBus/Engine/%d", f.engineID))

	f.source.mu.Lock()
	conn := f.source.conn
	f.source.mu.Unlock()
	if conn != nil {
		conn.Export(f.source, path, ibusEngineInterface)
	}

	return path, nil
}
