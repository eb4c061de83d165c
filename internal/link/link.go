// Package link holds the connection settings shared between the serial
// worker and the UI.
package link

import (
	"errors"
	"sync"
	"time"
)

// State is the connection state of the serial link.
type State int

const (
	// Stopped means no connection is wanted. The worker drops any open handle.
	Stopped State = iota
	// Sleeping is the idle state reached after a stop has been handled.
	Sleeping
	// Active means the port is open and being read.
	Active
	// Reconfiguring means a (re)connect was requested and the port is not open yet.
	Reconfiguring
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Sleeping:
		return "sleeping"
	case Active:
		return "active"
	case Reconfiguring:
		return "connecting"
	}
	return "unknown"
}

const DefaultBaudRate = 9600

// lockWait bounds how long the worker waits for the lock before giving up
// on an iteration.
const lockWait = 50 * time.Millisecond

var (
	ErrLockTimeout = errors.New("link settings are busy")
	ErrInvalidBaud = errors.New("baud rate must be greater than zero")
)

// View is a copy of the settings taken under the lock.
type View struct {
	State      State
	PortName   string
	BaudRate   int
	Generation uint64
}

// Config is the lock-guarded link configuration. The zero value is not
// usable; call New.
type Config struct {
	mu       sync.Mutex
	state    State
	baudRate int
	portName string
	gen      uint64
}

// New returns a stopped link with the given port and baud rate. A
// non-positive baud rate falls back to DefaultBaudRate.
func New(portName string, baudRate int) *Config {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	return &Config{
		state:    Stopped,
		baudRate: baudRate,
		portName: portName,
	}
}

// Activate requests a (re)connect with the current port and baud rate and
// returns the generation of the new session.
func (c *Config) Activate() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state = Reconfiguring
	return c.gen
}

// Stop requests that the port be closed.
func (c *Config) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state = Stopped
}

// SetPort changes the port used by the next activation.
func (c *Config) SetPort(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.portName = name
}

// SetBaud changes the baud rate used by the next activation.
func (c *Config) SetBaud(rate int) error {
	if rate <= 0 {
		return ErrInvalidBaud
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baudRate = rate
	return nil
}

// State returns the current state.
func (c *Config) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the settings, waiting for the lock as long as
// needed. It is meant for the UI.
func (c *Config) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// View returns a copy of the settings. Unlike Snapshot it gives up with
// ErrLockTimeout when the lock cannot be taken within a short bound, so the
// worker loop never stalls on it.
func (c *Config) View() (View, error) {
	if !c.acquire() {
		return View{}, ErrLockTimeout
	}
	defer c.mu.Unlock()
	return c.viewLocked(), nil
}

// MarkSleeping moves Stopped to Sleeping if nothing changed since the view
// with generation gen was taken.
func (c *Config) MarkSleeping(gen uint64) (bool, error) {
	return c.commit(gen, Stopped, Sleeping)
}

// MarkActive moves Reconfiguring to Active if nothing changed since the
// view with generation gen was taken. A false result means the caller must
// discard the port it opened.
func (c *Config) MarkActive(gen uint64) (bool, error) {
	return c.commit(gen, Reconfiguring, Active)
}

func (c *Config) commit(gen uint64, from, to State) (bool, error) {
	if !c.acquire() {
		return false, ErrLockTimeout
	}
	defer c.mu.Unlock()
	if c.gen != gen || c.state != from {
		return false, nil
	}
	c.state = to
	return true, nil
}

func (c *Config) viewLocked() View {
	return View{
		State:      c.state,
		PortName:   c.portName,
		BaudRate:   c.baudRate,
		Generation: c.gen,
	}
}

func (c *Config) acquire() bool {
	if c.mu.TryLock() {
		return true
	}
	deadline := time.Now().Add(lockWait)
	for time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
		if c.mu.TryLock() {
			return true
		}
	}
	return false
}
