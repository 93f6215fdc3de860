//go:build linux

package source

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"keyscribe/internal/keycode"
	"keyscribe/internal/translate"
)

// inputEvent matches the kernel's struct input_event.
type inputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

const (
	evKey = 1

	// Event values for EV_KEY.
	valueRelease = 0
	valuePress   = 1
	valueRepeat  = 2
)

// EvdevSource reads raw key events from /dev/input event nodes. It
// attaches every discovered keyboard and, when hotplug is enabled,
// keyboards that appear while running.
type EvdevSource struct {
	BaseSource
	devices []string // explicit device paths; empty means discover
	hotplug bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	attachMu sync.Mutex
	attached map[string]bool
}

// EvdevOptions configures an evdev source.
type EvdevOptions struct {
	// Devices pins capture to specific event nodes. Empty discovers
	// all keyboards.
	Devices []string

	// Hotplug attaches keyboards that appear after Start.
	Hotplug bool
}

// NewEvdev creates an evdev source.
func NewEvdev(opts EvdevOptions) *EvdevSource {
	return &EvdevSource{
		devices:  opts.Devices,
		hotplug:  opts.Hotplug,
		attached: make(map[string]bool),
	}
}

// Available checks whether at least one keyboard device is readable.
func (e *EvdevSource) Available() (bool, string) {
	devices := e.devices
	if len(devices) == 0 {
		found, err := findKeyboardDevices()
		if err != nil {
			return false, fmt.Sprintf("cannot find keyboard devices: %v", err)
		}
		devices = found
	}
	if len(devices) == 0 {
		return false, "no keyboard devices found"
	}

	for _, dev := range devices {
		f, err := os.OpenFile(dev, os.O_RDONLY, 0)
		if err == nil {
			f.Close()
			return true, fmt.Sprintf("found keyboard device: %s", dev)
		}
	}

	return false, "cannot read keyboard devices (need to be in 'input' group or run as root)"
}

// Start opens every keyboard device and begins reading.
func (e *EvdevSource) Start(ctx context.Context) error {
	if e.IsRunning() {
		return ErrAlreadyRunning
	}

	devices := e.devices
	if len(devices) == 0 {
		found, err := findKeyboardDevices()
		if err != nil {
			return fmt.Errorf("discovering keyboards: %w", err)
		}
		devices = found
	}
	if len(devices) == 0 {
		return ErrNotAvailable
	}

	e.ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	e.ResetEvents(256)
	e.SetRunning(true)

	attached := 0
	for _, dev := range devices {
		if e.attach(dev) {
			attached++
		}
	}
	if attached == 0 {
		e.cancel()
		e.CloseEvents()
		e.SetRunning(false)
		return ErrPermissionDenied
	}

	if e.hotplug {
		e.wg.Add(1)
		go e.watchHotplug()
	}

	// Close the channel once every reader has exited.
	go func() {
		e.wg.Wait()
		e.CloseEvents()
		close(e.done)
	}()

	return nil
}

// attach opens one device and starts its read loop. Returns false if
// the device cannot be opened or is already attached.
func (e *EvdevSource) attach(dev string) bool {
	e.attachMu.Lock()
	if e.attached[dev] {
		e.attachMu.Unlock()
		return false
	}
	e.attached[dev] = true
	e.attachMu.Unlock()

	f, err := os.OpenFile(dev, os.O_RDONLY, 0)
	if err != nil {
		e.detach(dev)
		return false
	}

	e.wg.Add(1)
	go e.readLoop(f, dev)
	return true
}

func (e *EvdevSource) detach(dev string) {
	e.attachMu.Lock()
	delete(e.attached, dev)
	e.attachMu.Unlock()
}

// readLoop parses input_event records from one device until the
// context ends or the device goes away.
func (e *EvdevSource) readLoop(f *os.File, dev string) {
	defer e.wg.Done()
	defer e.detach(dev)
	defer f.Close()

	// Unblock the Read when the context ends. Closing the fd is the
	// only reliable way out of a blocked device read.
	readerDone := make(chan struct{})
	defer close(readerDone)
	go func() {
		select {
		case <-e.ctx.Done():
			f.SetReadDeadline(time.Now())
			f.Close()
		case <-readerDone:
		}
	}()

	eventSize := binary.Size(inputEvent{})
	buf := make([]byte, eventSize)

	for {
		n, err := f.Read(buf)
		if err != nil {
			// Unplugged device or shutdown.
			return
		}
		if n < eventSize {
			continue
		}

		var ev inputEvent
		ev.Type = binary.LittleEndian.Uint16(buf[16:18])
		ev.Code = binary.LittleEndian.Uint16(buf[18:20])
		ev.Value = int32(binary.LittleEndian.Uint32(buf[20:24]))

		if ev.Type != evKey {
			continue
		}

		code, ok := keycode.FromEvdev(ev.Code)
		if !ok {
			continue
		}

		dir := translate.Down
		switch ev.Value {
		case valueRelease:
			dir = translate.Up
		case valuePress:
			dir = translate.Down
		case valueRepeat:
			// Autorepeat retranslates like a fresh press.
			dir = translate.Down
		default:
			continue
		}

		if !e.Emit(e.ctx, translate.KeyEvent{Code: code, Direction: dir, Time: time.Now()}) {
			return
		}
	}
}

// watchHotplug attaches keyboards that show up under /dev/input while
// running.
func (e *EvdevSource) watchHotplug() {
	defer e.wg.Done()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return
	}
	defer watcher.Close()

	if err := watcher.Add("/dev/input"); err != nil {
		return
	}

	for {
		select {
		case <-e.ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.HasPrefix(filepath.Base(event.Name), "event") {
				continue
			}
			// Give udev a moment to settle permissions, then attach
			// only if the new node really is a keyboard.
			time.Sleep(200 * time.Millisecond)
			keyboards, err := findKeyboardDevices()
			if err != nil {
				continue
			}
			for _, dev := range keyboards {
				if dev == event.Name {
					e.attach(dev)
				}
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Stop ends capture and waits for all readers.
func (e *EvdevSource) Stop() error {
	if !e.IsRunning() {
		return nil
	}

	if e.cancel != nil {
		e.cancel()
	}
	if e.done != nil {
		<-e.done
	}

	e.SetRunning(false)
	return nil
}
