// Package worker runs the serial poll loop: it follows the link state,
// owns the open port, reads and parses lines and publishes messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/buckleypaul/serialplot/internal/link"
	"github.com/buckleypaul/serialplot/internal/logging"
	"github.com/buckleypaul/serialplot/internal/message"
	"github.com/buckleypaul/serialplot/internal/metrics"
	"github.com/buckleypaul/serialplot/internal/protocol"
	"github.com/buckleypaul/serialplot/internal/serial"
)

const (
	DefaultActiveDelay = time.Millisecond
	DefaultIdleDelay   = 100 * time.Millisecond
	readBufferSize     = 4096
	sendQueueSize      = 8
)

var (
	ErrConnection = errors.New("failed to open")
	ErrNoPort     = errors.New("no serial port selected")
	ErrRead       = errors.New("read failed")
	ErrWrite      = errors.New("write failed")
	ErrNotActive  = errors.New("not connected")
)

// Link is the view of the shared settings the worker needs.
// *link.Config implements it.
type Link interface {
	View() (link.View, error)
	State() link.State
	MarkSleeping(gen uint64) (bool, error)
	MarkActive(gen uint64) (bool, error)
}

// SessionRecorder is told about every successful open.
type SessionRecorder interface {
	RecordSession(port string, baudRate int) error
}

// Options tune a Worker. Zero values get defaults.
type Options struct {
	// Port carries data bits, stop bits and parity. The baud rate always
	// comes from the link.
	Port        serial.PortOptions
	ActiveDelay time.Duration
	IdleDelay   time.Duration
	Logger      *logrus.Logger
	Metrics     *metrics.Metrics
	Sessions    SessionRecorder
}

type sendRequest struct {
	data []byte
	done chan error
}

// Worker is driven by one goroutine calling Run (or Step in tests). Only
// that goroutine touches the port.
type Worker struct {
	link     Link
	open     serial.Opener
	out      *message.Queue
	portOpts serial.PortOptions
	active   time.Duration
	idle     time.Duration
	log      *logrus.Entry
	metrics  *metrics.Metrics
	sessions SessionRecorder
	sends    chan sendRequest

	port     serial.Port
	portName string
	gen      uint64
	pending  []byte
	buf      []byte

	openFailGen uint64
	openFailed  bool
	readFailing bool
	lockFailing bool
}

func New(l Link, open serial.Opener, out *message.Queue, opts Options) *Worker {
	if opts.ActiveDelay <= 0 {
		opts.ActiveDelay = DefaultActiveDelay
	}
	if opts.IdleDelay <= 0 {
		opts.IdleDelay = DefaultIdleDelay
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	return &Worker{
		link:     l,
		open:     open,
		out:      out,
		portOpts: opts.Port,
		active:   opts.ActiveDelay,
		idle:     opts.IdleDelay,
		log:      logging.Component(opts.Logger, "worker"),
		metrics:  opts.Metrics,
		sessions: opts.Sessions,
		sends:    make(chan sendRequest, sendQueueSize),
		buf:      make([]byte, readBufferSize),
	}
}

// Run steps the state machine until ctx is cancelled, then closes the port.
func (w *Worker) Run(ctx context.Context) error {
	defer w.closePort()

	t := time.NewTimer(w.Step())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.rejectSends()
			return ctx.Err()
		case <-t.C:
			t.Reset(w.Step())
		}
	}
}

// Step runs one iteration and returns how long to wait before the next.
func (w *Worker) Step() time.Duration {
	v, err := w.link.View()
	if err != nil {
		w.lockFailure(err)
		return w.idle
	}
	w.lockFailing = false
	w.metrics.State.Set(float64(v.State))

	switch v.State {
	case link.Stopped:
		w.rejectSends()
		if w.port != nil {
			name := w.portName
			w.closePort()
			w.notice("Disconnected from " + name)
		}
		if _, err := w.link.MarkSleeping(v.Generation); err != nil {
			w.lockFailure(err)
		}
		return w.idle

	case link.Sleeping:
		w.rejectSends()
		return w.idle

	case link.Reconfiguring:
		w.rejectSends()
		return w.connect(v)

	case link.Active:
		if w.port == nil {
			w.rejectSends()
			return w.idle
		}
		w.serviceSends()
		return w.readOnce()
	}
	return w.idle
}

// Send writes text through the worker's open port. It fails with
// ErrNotActive without writing when the link is not active. ctx bounds
// the wait for the worker.
func (w *Worker) Send(ctx context.Context, text string) error {
	if w.link.State() != link.Active {
		return ErrNotActive
	}

	req := sendRequest{data: []byte(text), done: make(chan error, 1)}
	select {
	case w.sends <- req:
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrWrite, ctx.Err())
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrWrite, ctx.Err())
	}
}

func (w *Worker) connect(v link.View) time.Duration {
	// A re-activation replaces any handle that is still open.
	w.closePort()

	port, err := w.openPort(v)
	if err != nil {
		w.metrics.OpenFailures.Inc()
		w.log.WithError(err).WithField("port", v.PortName).Debug("open failed")
		if !w.openFailed || w.openFailGen != v.Generation {
			w.openFailed = true
			w.openFailGen = v.Generation
			w.notice(err.Error())
		}
		return w.idle
	}

	ok, err := w.link.MarkActive(v.Generation)
	if err != nil || !ok {
		// Settings changed while opening; this handle is stale.
		port.Close()
		if err != nil {
			w.lockFailure(err)
		}
		return w.active
	}

	w.port = port
	w.portName = v.PortName
	w.gen = v.Generation
	w.pending = nil
	w.openFailed = false
	w.readFailing = false

	w.log.WithFields(logrus.Fields{"port": v.PortName, "baud": v.BaudRate}).Info("connected")
	w.notice(fmt.Sprintf("Connected to %s @ %d", v.PortName, v.BaudRate))
	if w.sessions != nil {
		if err := w.sessions.RecordSession(v.PortName, v.BaudRate); err != nil {
			w.log.WithError(err).Warn("record session")
		}
	}
	return w.active
}

func (w *Worker) openPort(v link.View) (serial.Port, error) {
	if v.PortName == "" {
		return nil, fmt.Errorf("%w: %w", ErrConnection, ErrNoPort)
	}
	opts := w.portOpts
	opts.BaudRate = v.BaudRate
	port, err := w.open(v.PortName, opts)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrConnection, v.PortName, err)
	}
	return port, nil
}

func (w *Worker) readOnce() time.Duration {
	n, err := w.port.Read(w.buf)
	if n > 0 {
		w.readFailing = false
		w.metrics.BytesRead.Add(float64(n))
		var lines []string
		lines, w.pending = protocol.SplitLines(w.pending, w.buf[:n])
		w.dispatch(lines)
	}
	if err != nil {
		w.metrics.ReadErrors.Inc()
		w.log.WithError(err).WithField("port", w.portName).Debug("read failed")
		if !w.readFailing {
			w.readFailing = true
			w.notice(fmt.Errorf("%w on %s: %w", ErrRead, w.portName, err).Error())
		}
		// Back off so a dead handle does not spin until the user stops it.
		return w.idle
	}
	return w.active
}

func (w *Worker) dispatch(lines []string) {
	for _, line := range lines {
		if line == "" {
			continue
		}
		res := protocol.Parse(line)
		w.metrics.Lines.WithLabelValues(res.Kind.String()).Inc()

		if res.Kind == protocol.KindLog {
			w.out.Send(message.Line{Text: line, Kind: protocol.KindLog})
			continue
		}

		w.metrics.Samples.Add(float64(len(res.Samples)))
		msgs := []message.Message{
			message.Batch{Samples: res.Samples, Generation: w.gen},
			message.Line{Text: line, Kind: protocol.KindPoint},
		}
		for _, perr := range res.Errors {
			w.metrics.ParseErrors.Inc()
			w.metrics.Notices.Inc()
			msgs = append(msgs, message.Notice{Text: "Dropped sample: " + perr.Error()})
		}
		w.out.Send(msgs...)
	}
}

func (w *Worker) serviceSends() {
	for {
		select {
		case req := <-w.sends:
			req.done <- w.write(req.data)
		default:
			return
		}
	}
}

func (w *Worker) write(data []byte) error {
	for len(data) > 0 {
		n, err := w.port.Write(data)
		w.metrics.BytesWritten.Add(float64(n))
		if err != nil {
			w.log.WithError(err).WithField("port", w.portName).Warn("write failed")
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: short write", ErrWrite)
		}
		data = data[n:]
	}
	return nil
}

func (w *Worker) rejectSends() {
	for {
		select {
		case req := <-w.sends:
			req.done <- ErrNotActive
		default:
			return
		}
	}
}

func (w *Worker) closePort() {
	if w.port == nil {
		return
	}
	if err := w.port.Close(); err != nil {
		w.log.WithError(err).WithField("port", w.portName).Warn("close failed")
	}
	w.log.WithField("port", w.portName).Info("closed")
	w.port = nil
	w.portName = ""
	w.pending = nil
}

func (w *Worker) lockFailure(err error) {
	w.log.WithError(err).Warn("link settings unavailable")
	if w.lockFailing {
		return
	}
	w.lockFailing = true
	w.notice("Failed to read link settings: " + err.Error())
}

func (w *Worker) notice(text string) {
	w.metrics.Notices.Inc()
	w.out.Send(message.Notice{Text: text})
}
