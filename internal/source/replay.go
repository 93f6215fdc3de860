package source

import (
	"context"
	"time"

	"keyscribe/internal/translate"
)

// ReplaySource plays back a scripted event sequence. Tests and the
// capture tool use it in place of a real keyboard.
type ReplaySource struct {
	BaseSource
	script []translate.KeyEvent
	delay  time.Duration
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReplay creates a source that will play the given events in order.
func NewReplay(script []translate.KeyEvent) *ReplaySource {
	return &ReplaySource{script: script}
}

// SetDelay spaces playback out by d between events. Zero plays the
// script as fast as the consumer drains it.
func (r *ReplaySource) SetDelay(d time.Duration) {
	r.delay = d
}

// Available always succeeds.
func (r *ReplaySource) Available() (bool, string) {
	return true, "replay source (scripted events)"
}

// Start plays the script on a goroutine and closes the event channel
// when it runs out.
func (r *ReplaySource) Start(ctx context.Context) error {
	if r.IsRunning() {
		return ErrAlreadyRunning
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.ResetEvents(len(r.script) + 1)
	r.SetRunning(true)

	go r.play(ctx)

	return nil
}

func (r *ReplaySource) play(ctx context.Context) {
	defer close(r.done)
	defer r.CloseEvents()

	for _, ev := range r.script {
		if r.delay > 0 {
			select {
			case <-time.After(r.delay):
			case <-ctx.Done():
				return
			}
		}
		if !r.Emit(ctx, ev) {
			return
		}
	}
}

// Stop halts playback.
func (r *ReplaySource) Stop() error {
	if !r.IsRunning() {
		return nil
	}

	if r.cancel != nil {
		r.cancel()
	}
	if r.done != nil {
		<-r.done
	}

	r.SetRunning(false)
	return nil
}
