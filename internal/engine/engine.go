// Package engine runs the capture pipeline.
//
// An Engine ties one event source to the translation stack and fans the
// resulting text fragments out to the configured sinks. Events flow in
// capture order through a single goroutine: the modifier tracker folds
// each transition into the current state, key-downs are rendered by the
// translator, and every produced fragment is written to all sinks before
// the next event is taken.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"keyscribe/internal/keycode"
	"keyscribe/internal/logging"
	"keyscribe/internal/metrics"
	"keyscribe/internal/sink"
	"keyscribe/internal/source"
	"keyscribe/internal/translate"
)

// sessionSink is implemented by sinks that group fragments into
// sessions, like the SQLite transcript store.
type sessionSink interface {
	BeginSession(id, backend string) error
	EndSession() error
}

// Config configures an Engine.
type Config struct {
	// Backend names the source backend, recorded with the session.
	Backend string

	// Keymap overrides the default US layout when non-nil.
	Keymap *translate.Keymap

	// Logger for pipeline diagnostics. Nil uses the default logger.
	Logger *logging.Logger

	// Audit records session lifecycle events. Nil disables auditing.
	Audit *logging.AuditLogger

	// Metrics receives pipeline counters. Nil uses the global instance.
	Metrics *metrics.KeyscribeMetrics
}

// Engine drives one capture session.
type Engine struct {
	mu sync.RWMutex

	// Session identity
	ID        string
	StartedAt time.Time
	EndedAt   time.Time

	src        source.Source
	sinks      []sink.Sink
	out        *sink.Multi
	tracker    *translate.Tracker
	translator *translate.Translator

	log     *logging.Logger
	audit   *logging.AuditLogger
	metrics *metrics.KeyscribeMetrics

	backend string
	running bool

	events     uint64
	translated uint64
	ignored    uint64
	modifiers  uint64
	sinkErrors uint64
	lastDown   time.Time
}

// New creates an engine reading from src and writing to sinks.
func New(src source.Source, sinks []sink.Sink, cfg Config) *Engine {
	translator := translate.NewTranslator()
	if cfg.Keymap != nil {
		translator = translate.NewTranslatorWith(cfg.Keymap)
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.GetMetrics()
	}

	return &Engine{
		ID:         uuid.NewString(),
		src:        src,
		sinks:      sinks,
		out:        sink.NewMulti(sinks...),
		tracker:    translate.NewTracker(),
		translator: translator,
		log:        log.WithComponent("engine"),
		audit:      cfg.Audit,
		metrics:    m,
		backend:    cfg.Backend,
	}
}

// Run starts the source and processes events until ctx is cancelled or
// the source closes its channel. It blocks for the whole session.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("engine already running")
	}
	e.running = true
	e.StartedAt = time.Now()
	e.EndedAt = time.Time{}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.EndedAt = time.Now()
		e.mu.Unlock()
	}()

	if err := e.src.Start(ctx); err != nil {
		if e.audit != nil {
			e.audit.LogError("source start", err, map[string]interface{}{"backend": e.backend})
		}
		return fmt.Errorf("starting %s source: %w", e.backend, err)
	}

	if e.audit != nil {
		e.audit.LogSessionStart(e.ID, e.backend)
		e.audit.LogSourceAttach(e.backend, "")
	}
	e.metrics.SessionStarted()

	for _, s := range e.sinks {
		if ss, ok := s.(sessionSink); ok {
			if err := ss.BeginSession(e.ID, e.backend); err != nil {
				e.log.Error("beginning sink session", "error", err)
			}
		}
	}

	e.log.Info("capture started", "session_id", e.ID, "backend", e.backend)

	for ev := range e.src.Events() {
		e.process(ev)
	}

	// The event channel closed: ctx was cancelled or the source shut
	// itself down. Stop joins the source's goroutines either way.
	if err := e.src.Stop(); err != nil {
		e.log.Warn("stopping source", "error", err)
	}

	for _, s := range e.sinks {
		if ss, ok := s.(sessionSink); ok {
			if err := ss.EndSession(); err != nil {
				e.log.Error("ending sink session", "error", err)
			}
		}
	}

	status := e.Status()
	if e.audit != nil {
		e.audit.LogSessionEnd(map[string]interface{}{
			"events":      status.Events,
			"translated":  status.Translated,
			"ignored":     status.Ignored,
			"sink_errors": status.SinkErrors,
		})
	}
	e.metrics.SessionEnded()

	e.log.Info("capture finished",
		"session_id", e.ID,
		"events", status.Events,
		"translated", status.Translated,
		"ignored", status.Ignored,
		"sink_errors", status.SinkErrors,
	)
	return nil
}

// process handles one key transition.
func (e *Engine) process(ev translate.KeyEvent) {
	e.metrics.RecordEvent()

	e.mu.Lock()
	e.events++
	state := e.tracker.Apply(ev)

	if keycode.IsModifier(ev.Code) {
		e.modifiers++
		e.mu.Unlock()
		e.metrics.RecordModifier()
		return
	}

	if ev.Direction != translate.Down {
		e.mu.Unlock()
		return
	}

	now := ev.Time
	if now.IsZero() {
		now = time.Now()
	}
	var interval time.Duration
	if !e.lastDown.IsZero() && now.After(e.lastDown) {
		interval = now.Sub(e.lastDown)
	}
	e.lastDown = now
	e.mu.Unlock()

	if interval > 0 {
		e.metrics.RecordKeyInterval(interval)
	}

	fragment, ok := e.translator.Translate(ev.Code, state)
	if !ok {
		e.metrics.RecordIgnored()
		e.mu.Lock()
		e.ignored++
		e.mu.Unlock()
		e.log.Debug("unmapped key", "key_code", uint16(ev.Code), "key_name", ev.Code.String())
		return
	}

	e.metrics.RecordTranslation(len(fragment))
	e.mu.Lock()
	e.translated++
	e.mu.Unlock()

	timer := e.metrics.StartSinkWriteTimer()
	err := e.out.Write(fragment)
	timer.Stop()
	if err != nil {
		// A failed sink write never stops capture.
		e.metrics.RecordSinkError()
		e.mu.Lock()
		e.sinkErrors++
		e.mu.Unlock()
		e.log.Error("sink write failed", "error", err, "bytes", len(fragment))
	}
}

// Running reports whether the engine's event loop is active.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Status is a point-in-time view of a running or finished session.
type Status struct {
	ID           string        `json:"id"`
	Running      bool          `json:"running"`
	Backend      string        `json:"backend"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      time.Time     `json:"ended_at,omitempty"`
	Duration     time.Duration `json:"duration"`
	Events       uint64        `json:"events"`
	Translated   uint64        `json:"translated"`
	Ignored      uint64        `json:"ignored"`
	Modifiers    uint64        `json:"modifier_events"`
	SinkErrors   uint64        `json:"sink_errors"`
	EventsPerMin float64       `json:"events_per_minute"`
}

// Status returns the current session status.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	status := Status{
		ID:         e.ID,
		Running:    e.running,
		Backend:    e.backend,
		StartedAt:  e.StartedAt,
		EndedAt:    e.EndedAt,
		Events:     e.events,
		Translated: e.translated,
		Ignored:    e.ignored,
		Modifiers:  e.modifiers,
		SinkErrors: e.sinkErrors,
	}

	if !status.StartedAt.IsZero() {
		end := status.EndedAt
		if end.IsZero() {
			end = time.Now()
		}
		status.Duration = end.Sub(status.StartedAt)
	}

	if minutes := status.Duration.Minutes(); minutes > 0 {
		status.EventsPerMin = float64(status.Events) / minutes
	}

	return status
}

// ModifierState returns the tracker's current modifier snapshot.
func (e *Engine) ModifierState() translate.ModifierState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tracker.State()
}
