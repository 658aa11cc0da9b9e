package face

import (
	"sync"

	"github.com/ndntg/namepush/cfg"
	"github.com/ndntg/namepush/ndn"
)

func init() {
	RegisterTransport("mock", func(cfg.FaceConfiguration) (Face, error) {
		return NewMockFace(), nil
	})
}

// MockFace is an in-memory Face for testing. It records registrations and
// emissions for later inspection and lets tests trigger the asynchronous
// registration-failure path by hand.
type MockFace struct {
	mu            sync.Mutex
	registrations []string
	puts          []*ndn.Data
	withdrawn     []string
	failures      map[string]FailureCallback
	closed        int

	RegisterErr error // Returned by Register when set
	PutErr      error // Returned by Put when set
}

// NewMockFace creates an empty mock face
func NewMockFace() *MockFace {
	return &MockFace{
		failures: make(map[string]FailureCallback),
	}
}

// Register records the registration and keeps the failure callback
func (m *MockFace) Register(name string, onFailure FailureCallback) (RegisteredPrefix, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RegisterErr != nil {
		return nil, m.RegisterErr
	}

	m.registrations = append(m.registrations, name)
	m.failures[name] = onFailure
	return &mockPrefix{face: m, name: name}, nil
}

// Put records the emitted data object
func (m *MockFace) Put(d *ndn.Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PutErr != nil {
		return m.PutErr
	}

	m.puts = append(m.puts, d)
	return nil
}

// Close counts teardowns
func (m *MockFace) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// FailRegistration invokes the stored failure callback for a prefix
func (m *MockFace) FailRegistration(name string, reason error) bool {
	m.mu.Lock()
	cb, ok := m.failures[name]
	m.mu.Unlock()
	if !ok || cb == nil {
		return false
	}
	cb(reason)
	return true
}

// Registrations returns a copy of the recorded registrations
func (m *MockFace) Registrations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.registrations))
	copy(out, m.registrations)
	return out
}

// Puts returns a copy of the recorded emissions
func (m *MockFace) Puts() []*ndn.Data {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ndn.Data, len(m.puts))
	copy(out, m.puts)
	return out
}

// PutCount returns the number of recorded emissions
func (m *MockFace) PutCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.puts)
}

// Withdrawn returns prefixes withdrawn so far, one entry per Withdraw call
func (m *MockFace) Withdrawn() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.withdrawn))
	copy(out, m.withdrawn)
	return out
}

// CloseCount returns how many times Close was called
func (m *MockFace) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// mockPrefix records every Withdraw call so tests can assert that
// double release never happens through a single token.
type mockPrefix struct {
	face *MockFace
	name string
	once sync.Once
}

func (p *mockPrefix) Withdraw() {
	p.once.Do(func() {
		p.face.mu.Lock()
		defer p.face.mu.Unlock()
		p.face.withdrawn = append(p.face.withdrawn, p.name)
	})
}
