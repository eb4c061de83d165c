// Package serial opens and enumerates serial ports.
package serial

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is the subset of a serial port the worker needs.
// go.bug.st/serial.Port satisfies it.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Opener opens the named port with the given options.
type Opener func(name string, opts PortOptions) (Port, error)

// Open opens a real serial port. readTimeout bounds each Read so the
// worker can observe stop requests; zero leaves the driver default
// (block until data arrives).
func Open(name string, opts PortOptions, readTimeout time.Duration) (Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}

	if readTimeout > 0 {
		if err := port.SetReadTimeout(readTimeout); err != nil {
			port.Close()
			return nil, err
		}
	}
	return port, nil
}

// NewOpener returns an Opener for real ports using readTimeout.
func NewOpener(readTimeout time.Duration) Opener {
	return func(name string, opts PortOptions) (Port, error) {
		return Open(name, opts, readTimeout)
	}
}
