package tone

import "sync"

// MockEmitter records pulses for tests.
type MockEmitter struct {
	mu     sync.Mutex
	pulses int
	err    error
}

// NewMockEmitter creates a new MockEmitter.
func NewMockEmitter() *MockEmitter {
	return &MockEmitter{}
}

// SetError sets the error returned by subsequent pulses.
func (m *MockEmitter) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Pulse records one pulse.
func (m *MockEmitter) Pulse() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pulses++
	return m.err
}

// Pulses returns how many pulses were emitted.
func (m *MockEmitter) Pulses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pulses
}
