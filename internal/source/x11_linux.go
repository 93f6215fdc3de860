//go:build linux

package source

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"keyscribe/internal/keycode"
	"keyscribe/internal/translate"
)

// X11Source polls the X server keymap and derives key transitions from
// snapshot differences. It needs no special permissions, only a
// DISPLAY, which makes it the fallback when /dev/input is off limits.
type X11Source struct {
	BaseSource
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	conn   *xgb.Conn
}

const defaultPollInterval = 10 * time.Millisecond

// NewX11 creates an X11 source polling at the given interval. Zero
// uses the default.
func NewX11(interval time.Duration) *X11Source {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &X11Source{interval: interval}
}

// Available checks for a reachable X server.
func (x *X11Source) Available() (bool, string) {
	display := os.Getenv("DISPLAY")
	if display == "" {
		return false, "DISPLAY is not set"
	}

	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return false, fmt.Sprintf("cannot connect to X server: %v", err)
	}
	conn.Close()

	return true, fmt.Sprintf("X server on %s", display)
}

// Start connects to the X server and begins polling.
func (x *X11Source) Start(ctx context.Context) error {
	if x.IsRunning() {
		return ErrAlreadyRunning
	}

	conn, err := xgb.NewConnDisplay(os.Getenv("DISPLAY"))
	if err != nil {
		return fmt.Errorf("connecting to X server: %w", err)
	}

	x.conn = conn
	x.ctx, x.cancel = context.WithCancel(ctx)
	x.done = make(chan struct{})
	x.ResetEvents(256)
	x.SetRunning(true)

	go x.pollLoop()

	return nil
}

// pollLoop snapshots the 256-bit keymap every tick and emits an event
// for each key whose bit flipped since the last snapshot.
func (x *X11Source) pollLoop() {
	defer close(x.done)
	defer x.CloseEvents()
	defer x.conn.Close()

	ticker := time.NewTicker(x.interval)
	defer ticker.Stop()

	var prev [32]byte
	primed := false

	for {
		select {
		case <-x.ctx.Done():
			return
		case <-ticker.C:
		}

		reply, err := xproto.QueryKeymap(x.conn).Reply()
		if err != nil {
			// Server gone; end capture.
			return
		}

		var cur [32]byte
		copy(cur[:], reply.Keys)

		if !primed {
			// Keys already held when capture starts are not typed
			// text, so the first snapshot is only a baseline.
			prev = cur
			primed = true
			continue
		}

		if cur == prev {
			continue
		}

		now := time.Now()
		for i := 0; i < len(cur); i++ {
			diff := cur[i] ^ prev[i]
			if diff == 0 {
				continue
			}
			for bit := uint(0); bit < 8; bit++ {
				mask := byte(1) << bit
				if diff&mask == 0 {
					continue
				}

				code, ok := keycode.FromX11(uint32(i)*8 + uint32(bit))
				if !ok {
					continue
				}

				dir := translate.Up
				if cur[i]&mask != 0 {
					dir = translate.Down
				}

				if !x.Emit(x.ctx, translate.KeyEvent{Code: code, Direction: dir, Time: now}) {
					return
				}
			}
		}

		prev = cur
	}
}

// Stop ends polling and closes the X connection.
func (x *X11Source) Stop() error {
	if !x.IsRunning() {
		return nil
	}

	if x.cancel != nil {
		x.cancel()
	}
	if x.done != nil {
		<-x.done
	}

	x.SetRunning(false)
	return nil
}
