package source

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"keyscribe/internal/keycode"
	"keyscribe/internal/translate"
)

// TerminalSource captures keys from the controlling terminal. The
// terminal hands over finished characters rather than raw transitions,
// so each input is reconstructed into the press/release sequence that
// would have produced it. Ctrl+C ends capture.
//
// This backend needs no permissions and works over SSH, which makes it
// the portable fallback and the default for trying keyscribe out.
type TerminalSource struct {
	BaseSource

	keymap *translate.Keymap

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	screen   tcell.Screen
	finiOnce *sync.Once
}

// NewTerminal creates a terminal source using the default keymap for
// character reconstruction.
func NewTerminal() *TerminalSource {
	return &TerminalSource{keymap: translate.DefaultKeymap()}
}

// SetKeymap points character reconstruction at a different keymap.
// Call before Start so overlaid layouts resolve consistently.
func (t *TerminalSource) SetKeymap(km *translate.Keymap) {
	t.keymap = km
}

// Available checks for an interactive terminal on stdin.
func (t *TerminalSource) Available() (bool, string) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, "stdin is not a terminal"
	}
	return true, "interactive terminal"
}

// Start puts the terminal into raw mode and begins reading keys.
func (t *TerminalSource) Start(ctx context.Context) error {
	if t.IsRunning() {
		return ErrAlreadyRunning
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}

	t.screen = screen
	t.finiOnce = new(sync.Once)
	t.ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})
	t.ResetEvents(256)
	t.SetRunning(true)

	t.drawHint()

	go func() {
		<-t.ctx.Done()
		t.fini()
	}()
	go t.pollLoop()

	return nil
}

func (t *TerminalSource) drawHint() {
	hint := "keyscribe terminal capture - press Ctrl+C to stop"
	style := tcell.StyleDefault
	for i, r := range hint {
		t.screen.SetContent(i, 0, r, nil, style)
	}
	t.screen.Show()
}

// fini restores the terminal. Fini also makes PollEvent return nil,
// which is how the poll loop learns to exit.
func (t *TerminalSource) fini() {
	t.finiOnce.Do(func() {
		t.screen.Fini()
	})
}

func (t *TerminalSource) pollLoop() {
	defer close(t.done)
	defer t.CloseEvents()
	defer t.fini()

	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}

		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC {
				return
			}
			for _, ke := range t.reconstruct(ev) {
				if !t.Emit(t.ctx, ke) {
					return
				}
			}
		case *tcell.EventResize:
			t.screen.Sync()
			t.drawHint()
		}
	}
}

// tcell special keys that correspond to fixed-label keys.
var tcellSpecial = map[tcell.Key]keycode.Code{
	tcell.KeyEnter:      keycode.Return,
	tcell.KeyTab:        keycode.Tab,
	tcell.KeyBackspace:  keycode.Backspace,
	tcell.KeyBackspace2: keycode.Backspace,
	tcell.KeyEscape:     keycode.Escape,
	tcell.KeyUp:         keycode.Up,
	tcell.KeyDown:       keycode.Down,
	tcell.KeyLeft:       keycode.Left,
	tcell.KeyRight:      keycode.Right,
	tcell.KeyHome:       keycode.Home,
	tcell.KeyEnd:        keycode.End,
	tcell.KeyPgUp:       keycode.PageUp,
	tcell.KeyPgDn:       keycode.PageDown,
	tcell.KeyInsert:     keycode.Insert,
	tcell.KeyDelete:     keycode.Delete,
}

// reconstruct turns one terminal key into the raw event sequence that
// would have produced it: modifiers down, key down, key up, modifiers
// up.
func (t *TerminalSource) reconstruct(ev *tcell.EventKey) []translate.KeyEvent {
	alt := ev.Modifiers()&tcell.ModAlt != 0

	if code, ok := tcellSpecial[ev.Key()]; ok {
		return tap(code, alt, false, false)
	}

	// Control characters 1..26 arrive in place of the letter itself.
	if k := ev.Key(); k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		code := keycode.A + keycode.Code(k-tcell.KeyCtrlA)
		return tap(code, alt, true, false)
	}

	if ev.Key() != tcell.KeyRune {
		return nil
	}

	r := ev.Rune()
	if r == ' ' {
		return tap(keycode.Space, alt, false, false)
	}

	code, shifted, ok := t.keymap.ResolveChar(r)
	if !ok {
		return nil
	}
	return tap(code, alt, false, shifted)
}

// tap builds the synthetic press/release sequence for one key with the
// given modifiers held.
func tap(code keycode.Code, alt, ctrl, shift bool) []translate.KeyEvent {
	now := time.Now()
	var seq []translate.KeyEvent

	press := func(c keycode.Code) {
		seq = append(seq, translate.KeyEvent{Code: c, Direction: translate.Down, Time: now})
	}
	release := func(c keycode.Code) {
		seq = append(seq, translate.KeyEvent{Code: c, Direction: translate.Up, Time: now})
	}

	if alt {
		press(keycode.LeftAlt)
	}
	if ctrl {
		press(keycode.LeftControl)
	}
	if shift {
		press(keycode.LeftShift)
	}

	press(code)
	release(code)

	if shift {
		release(keycode.LeftShift)
	}
	if ctrl {
		release(keycode.LeftControl)
	}
	if alt {
		release(keycode.LeftAlt)
	}

	return seq
}

// Stop restores the terminal and ends capture.
func (t *TerminalSource) Stop() error {
	if !t.IsRunning() {
		return nil
	}

	if t.cancel != nil {
		t.cancel()
	}
	t.fini()
	if t.done != nil {
		<-t.done
	}

	t.SetRunning(false)
	return nil
}
