package serial

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// ErrPortClosed is returned by TestablePort after Close.
var ErrPortClosed = errors.New("serial port closed")

// TestablePort is an in-memory Port for tests. Reads drain ReadBuffer and
// behave like a port with a read timeout when it is empty.
type TestablePort struct {
	mu sync.Mutex

	readBuf  bytes.Buffer
	writeBuf bytes.Buffer

	// ReadError is returned by the next Read call if set.
	ReadError error
	// WriteError is returned by the next Write call if set.
	WriteError error

	ReadTimeout time.Duration
	Closed      bool
	ReadCalls   int
	WriteCalls  int
}

func NewTestablePort() *TestablePort {
	return &TestablePort{}
}

func (t *TestablePort) Read(p []byte) (int, error) {
	t.mu.Lock()
	t.ReadCalls++
	if t.Closed {
		t.mu.Unlock()
		return 0, ErrPortClosed
	}
	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		t.mu.Unlock()
		return 0, err
	}
	if t.readBuf.Len() > 0 {
		n, _ := t.readBuf.Read(p)
		t.mu.Unlock()
		return n, nil
	}
	timeout := t.ReadTimeout
	t.mu.Unlock()

	// Nothing buffered: a real port returns (0, nil) once the timeout expires.
	if timeout > 0 {
		time.Sleep(min(timeout, 5*time.Millisecond))
	}
	return 0, nil
}

func (t *TestablePort) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.WriteCalls++
	if t.Closed {
		return 0, ErrPortClosed
	}
	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}
	return t.writeBuf.Write(p)
}

func (t *TestablePort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Closed = true
	return nil
}

func (t *TestablePort) SetReadTimeout(d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadTimeout = d
	return nil
}

// Feed queues data for subsequent reads.
func (t *TestablePort) Feed(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readBuf.WriteString(data)
}

// Written returns everything written so far.
func (t *TestablePort) Written() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeBuf.String()
}

// IsClosed reports whether Close was called.
func (t *TestablePort) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Closed
}

// OpenCall records one call to MockOpener.Open.
type OpenCall struct {
	Name    string
	Options PortOptions
}

// MockOpener hands out Port (or Error) and records every call.
type MockOpener struct {
	mu sync.Mutex

	Port  Port
	Error error
	Calls []OpenCall
}

func (m *MockOpener) Open(name string, opts PortOptions) (Port, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, OpenCall{Name: name, Options: opts})
	if m.Error != nil {
		return nil, m.Error
	}
	return m.Port, nil
}

// SetResult changes what the next Open returns.
func (m *MockOpener) SetResult(p Port, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Port = p
	m.Error = err
}

// CallCount returns the number of Open calls.
func (m *MockOpener) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
