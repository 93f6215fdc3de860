// Package sink delivers translated text fragments to their destinations.
//
// A sink receives fragments in translation order and owns whatever
// buffering or storage sits behind it. The engine fans fragments out to
// every configured sink through Multi.
package sink

import "sync"

// Sink consumes text fragments in order. Write is called from the
// engine's event loop, one fragment at a time.
type Sink interface {
	Write(fragment string) error
	Close() error
}

// Multi fans every fragment out to all children. Each write attempts
// every sink; the first error is reported after all have been tried.
type Multi struct {
	sinks []Sink
}

// NewMulti wraps a set of sinks into one.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Write delivers the fragment to every sink.
func (m *Multi) Write(fragment string) error {
	var first error
	for _, s := range m.sinks {
		if err := s.Write(fragment); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every sink, reporting the first failure.
func (m *Multi) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Memory collects fragments in order. Tests and the capture tool read
// them back.
type Memory struct {
	mu        sync.Mutex
	fragments []string
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Write appends the fragment.
func (m *Memory) Write(fragment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fragments = append(m.fragments, fragment)
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}

// Fragments returns a copy of everything written so far.
func (m *Memory) Fragments() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.fragments))
	copy(out, m.fragments)
	return out
}

// String joins the fragments into the transcript they form.
func (m *Memory) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out string
	for _, f := range m.fragments {
		out += f
	}
	return out
}

// Len reports how many fragments have been written.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fragments)
}
