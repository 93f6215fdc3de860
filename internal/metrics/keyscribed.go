// Package metrics provides Prometheus-compatible metrics for keyscribe.
package metrics

import (
	"time"
)

// KeyscribeMetrics holds all capture-pipeline metrics.
type KeyscribeMetrics struct {
	registry *Registry

	// Counters
	EventsTotal         *Counter
	TranslatedTotal     *Counter
	IgnoredTotal        *Counter
	ModifierEventsTotal *Counter
	FragmentBytesTotal  *Counter
	SinkErrorsTotal     *Counter
	SessionsTotal       *Counter

	// Gauges
	ActiveSessions  *Gauge
	AttachedDevices *Gauge
	UptimeSeconds   *Gauge
	LastEventTs     *Gauge

	// Histograms
	KeyInterval       *Histogram
	SinkWriteDuration *Histogram
}

// startTime records when metrics were initialized.
var startTime = time.Now()

// NewKeyscribeMetrics creates and registers all capture metrics.
func NewKeyscribeMetrics(registry *Registry) *KeyscribeMetrics {
	if registry == nil {
		registry = Default()
	}

	m := &KeyscribeMetrics{
		registry: registry,

		// Counters
		EventsTotal: registry.RegisterCounter(
			"events_total",
			"Total number of key events received from sources",
			nil,
		),
		TranslatedTotal: registry.RegisterCounter(
			"translated_total",
			"Total number of key events translated into text fragments",
			nil,
		),
		IgnoredTotal: registry.RegisterCounter(
			"ignored_total",
			"Total number of key events with no mapping",
			nil,
		),
		ModifierEventsTotal: registry.RegisterCounter(
			"modifier_events_total",
			"Total number of modifier key events",
			nil,
		),
		FragmentBytesTotal: registry.RegisterCounter(
			"fragment_bytes_total",
			"Total bytes of transcript text written to sinks",
			nil,
		),
		SinkErrorsTotal: registry.RegisterCounter(
			"sink_errors_total",
			"Total number of failed sink writes",
			nil,
		),
		SessionsTotal: registry.RegisterCounter(
			"sessions_total",
			"Total number of capture sessions started",
			nil,
		),

		// Gauges
		ActiveSessions: registry.RegisterGauge(
			"active_sessions",
			"Number of currently active capture sessions",
			nil,
		),
		AttachedDevices: registry.RegisterGauge(
			"attached_devices",
			"Number of input devices currently attached",
			nil,
		),
		UptimeSeconds: registry.RegisterGauge(
			"uptime_seconds",
			"Number of seconds the daemon has been running",
			nil,
		),
		LastEventTs: registry.RegisterGauge(
			"last_event_timestamp",
			"Unix timestamp of the last key event",
			nil,
		),

		// Histograms
		KeyInterval: registry.RegisterHistogram(
			"key_interval_seconds",
			"Time between consecutive key-down events in seconds",
			nil,
			IntervalBuckets,
		),
		SinkWriteDuration: registry.RegisterHistogram(
			"sink_write_duration_seconds",
			"Duration of sink writes in seconds",
			nil,
			DurationBuckets,
		),
	}

	return m
}

// RecordEvent records a key event arriving from a source.
func (m *KeyscribeMetrics) RecordEvent() {
	m.EventsTotal.Inc()
	m.LastEventTs.Set(time.Now().Unix())
}

// RecordKeyInterval records the interval between key-down events.
func (m *KeyscribeMetrics) RecordKeyInterval(d time.Duration) {
	m.KeyInterval.ObserveDuration(d)
}

// RecordTranslation records a key event that produced a text fragment.
func (m *KeyscribeMetrics) RecordTranslation(fragmentBytes int) {
	m.TranslatedTotal.Inc()
	m.FragmentBytesTotal.Add(uint64(fragmentBytes))
}

// RecordIgnored records a key event with no mapping.
func (m *KeyscribeMetrics) RecordIgnored() {
	m.IgnoredTotal.Inc()
}

// RecordModifier records a modifier key event.
func (m *KeyscribeMetrics) RecordModifier() {
	m.ModifierEventsTotal.Inc()
}

// RecordSinkWrite records a sink write.
func (m *KeyscribeMetrics) RecordSinkWrite(duration time.Duration) {
	m.SinkWriteDuration.ObserveDuration(duration)
}

// StartSinkWriteTimer returns a timer for sink writes.
func (m *KeyscribeMetrics) StartSinkWriteTimer() *HistogramTimer {
	return m.SinkWriteDuration.Timer()
}

// RecordSinkError records a failed sink write.
func (m *KeyscribeMetrics) RecordSinkError() {
	m.SinkErrorsTotal.Inc()
}

// SessionStarted records a capture session start.
func (m *KeyscribeMetrics) SessionStarted() {
	m.SessionsTotal.Inc()
	m.ActiveSessions.Inc()
}

// SessionEnded records a capture session end.
func (m *KeyscribeMetrics) SessionEnded() {
	m.ActiveSessions.Dec()
}

// SetAttachedDevices sets the number of attached input devices.
func (m *KeyscribeMetrics) SetAttachedDevices(count int64) {
	m.AttachedDevices.Set(count)
}

// UpdateUptime updates the uptime metric.
func (m *KeyscribeMetrics) UpdateUptime() {
	m.UptimeSeconds.Set(int64(time.Since(startTime).Seconds()))
}

// Snapshot returns a snapshot of key metrics.
func (m *KeyscribeMetrics) Snapshot() map[string]interface{} {
	m.UpdateUptime()
	return map[string]interface{}{
		"events_total":          m.EventsTotal.Value(),
		"translated_total":      m.TranslatedTotal.Value(),
		"ignored_total":         m.IgnoredTotal.Value(),
		"modifier_events_total": m.ModifierEventsTotal.Value(),
		"fragment_bytes_total":  m.FragmentBytesTotal.Value(),
		"sink_errors_total":     m.SinkErrorsTotal.Value(),
		"sessions_total":        m.SessionsTotal.Value(),
		"active_sessions":       m.ActiveSessions.Value(),
		"attached_devices":      m.AttachedDevices.Value(),
		"uptime_seconds":        m.UptimeSeconds.Value(),
		"key_interval_avg":      m.KeyInterval.Mean(),
		"sink_write_avg":        m.SinkWriteDuration.Mean(),
	}
}

// Global capture metrics instance.
var defaultKeyscribeMetrics *KeyscribeMetrics

// GetMetrics returns the global capture metrics instance.
func GetMetrics() *KeyscribeMetrics {
	if defaultKeyscribeMetrics == nil {
		defaultKeyscribeMetrics = NewKeyscribeMetrics(Default())
	}
	return defaultKeyscribeMetrics
}

// InitMetrics initializes the global capture metrics with a custom registry.
func InitMetrics(registry *Registry) *KeyscribeMetrics {
	defaultKeyscribeMetrics = NewKeyscribeMetrics(registry)
	return defaultKeyscribeMetrics
}
