package test_test

import (
	"context"
	"io"
	"sync"
)

// MockPort is a scripted transport.Port for pipeline tests: Read serves
// the scripted byte blocks in order (then io.EOF), handing out a block
// larger than the caller's buffer across several reads, Write collects
// everything written, and the flush/close counters let tests assert the
// auto-flush and shutdown policies.
type MockPort struct {
	mu         sync.Mutex
	Reads      []ReadResult
	readIndex  int
	readOffset int
	Written    [][]byte
	FlushCount int
	CloseCount int
}

func (m *MockPort) Initialize(ctx context.Context) error { return nil }

func (m *MockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readIndex >= len(m.Reads) {
		return 0, io.EOF
	}
	r := m.Reads[m.readIndex]
	if r.Err != nil {
		m.readIndex++
		return 0, r.Err
	}
	n := copy(p, r.Read[m.readOffset:])
	m.readOffset += n
	if m.readOffset >= len(r.Read) {
		m.readIndex++
		m.readOffset = 0
	}
	return n, nil
}

func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(p))
	copy(cp, p)
	m.Written = append(m.Written, cp)
	return len(p), nil
}

func (m *MockPort) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FlushCount++
	return nil
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCount++
	return nil
}

// WrittenBytes returns everything written so far, concatenated.
func (m *MockPort) WrittenBytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []byte
	for _, w := range m.Written {
		out = append(out, w...)
	}
	return out
}
