package source

import (
	"context"
	"testing"
	"time"

	"keyscribe/internal/keycode"
	"keyscribe/internal/translate"
)

// =============================================================================
// Replay Source Tests
// =============================================================================

func TestReplayPlaysScript(t *testing.T) {
	script := []translate.KeyEvent{
		translate.Press(keycode.H),
		translate.Release(keycode.H),
		translate.Press(keycode.I),
		translate.Release(keycode.I),
	}

	r := NewReplay(script)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var got []translate.KeyEvent
	for ev := range r.Events() {
		got = append(got, ev)
	}

	if len(got) != len(script) {
		t.Fatalf("expected %d events, got %d", len(script), len(got))
	}
	for i, ev := range got {
		if ev.Code != script[i].Code || ev.Direction != script[i].Direction {
			t.Errorf("event %d: got %v %v, want %v %v",
				i, ev.Code, ev.Direction, script[i].Code, script[i].Direction)
		}
	}

	if err := r.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestReplayChannelCloses(t *testing.T) {
	r := NewReplay([]translate.KeyEvent{translate.Press(keycode.A)})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	<-r.Events()

	select {
	case _, open := <-r.Events():
		if open {
			t.Error("expected channel to close after script ends")
		}
	case <-time.After(time.Second):
		t.Error("channel did not close")
	}

	r.Stop()
}

func TestReplayDoubleStart(t *testing.T) {
	r := NewReplay(nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer r.Stop()

	if err := r.Start(context.Background()); err != ErrAlreadyRunning {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestReplayStopWithoutStart(t *testing.T) {
	r := NewReplay(nil)
	if err := r.Stop(); err != nil {
		t.Errorf("Stop before Start should be a no-op: %v", err)
	}
}

func TestReplayContextCancel(t *testing.T) {
	script := make([]translate.KeyEvent, 100)
	for i := range script {
		script[i] = translate.Press(keycode.A)
	}

	r := NewReplay(script)
	r.SetDelay(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	<-r.Events()
	cancel()

	// The channel must close promptly after cancellation.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-r.Events():
			if !open {
				r.Stop()
				return
			}
		case <-deadline:
			t.Fatal("channel did not close after context cancel")
		}
	}
}

func TestReplayAvailable(t *testing.T) {
	r := NewReplay(nil)
	ok, reason := r.Available()
	if !ok {
		t.Errorf("replay should always be available: %s", reason)
	}
}

// =============================================================================
// Factory Tests
// =============================================================================

func TestOpenReplay(t *testing.T) {
	src, err := Open("replay", Options{})
	if err != nil {
		t.Fatalf("Open(replay) failed: %v", err)
	}
	if _, ok := src.(*ReplaySource); !ok {
		t.Errorf("expected *ReplaySource, got %T", src)
	}
}

func TestOpenTerminal(t *testing.T) {
	src, err := Open("terminal", Options{})
	if err != nil {
		t.Fatalf("Open(terminal) failed: %v", err)
	}
	if _, ok := src.(*TerminalSource); !ok {
		t.Errorf("expected *TerminalSource, got %T", src)
	}
}

func TestOpenUnknown(t *testing.T) {
	if _, err := Open("telepathy", Options{}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) < 3 {
		t.Fatalf("expected at least 3 backends, got %v", names)
	}
	if names[0] != "auto" {
		t.Errorf("auto should come first, got %v", names)
	}

	want := map[string]bool{"terminal": false, "replay": false}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for n, found := range want {
		if !found {
			t.Errorf("backend %q missing from Names()", n)
		}
	}
}

// =============================================================================
// BaseSource Tests
// =============================================================================

func TestBaseSourceEmitWithoutChannel(t *testing.T) {
	var b BaseSource
	if b.Emit(context.Background(), translate.Press(keycode.A)) {
		t.Error("Emit without a channel should report false")
	}
	if b.TryEmit(translate.Press(keycode.A)) {
		t.Error("TryEmit without a channel should report false")
	}
}

func TestBaseSourceTryEmitFullChannel(t *testing.T) {
	var b BaseSource
	b.ResetEvents(1)

	if !b.TryEmit(translate.Press(keycode.A)) {
		t.Fatal("first TryEmit should succeed")
	}
	if b.TryEmit(translate.Press(keycode.B)) {
		t.Error("TryEmit into a full channel should drop")
	}

	b.CloseEvents()
}

func TestBaseSourceEmitCancelled(t *testing.T) {
	var b BaseSource
	b.ResetEvents(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if b.Emit(ctx, translate.Press(keycode.A)) {
		t.Error("Emit with cancelled context should report false")
	}

	b.CloseEvents()
}

func TestBaseSourceRunningState(t *testing.T) {
	var b BaseSource
	if b.IsRunning() {
		t.Error("zero value should not be running")
	}
	b.SetRunning(true)
	if !b.IsRunning() {
		t.Error("SetRunning(true) not observed")
	}
	b.SetRunning(false)
	if b.IsRunning() {
		t.Error("SetRunning(false) not observed")
	}
}
