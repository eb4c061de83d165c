// Package message carries worker output to the UI.
package message

import (
	"sync"

	"github.com/buckleypaul/serialplot/internal/protocol"
)

// Message is one of Line, Batch or Notice.
type Message interface {
	isMessage()
}

// Line is a line to show in the log. Point lines are the raw data lines,
// shown only when the full log is enabled.
type Line struct {
	Text string
	Kind protocol.Kind
}

// Batch holds the samples parsed from one data line. It may be empty.
// Generation is the link generation the port was opened under.
type Batch struct {
	Samples    []protocol.Sample
	Generation uint64
}

// Notice is operator-facing status text.
type Notice struct {
	Text string
}

func (Line) isMessage()   {}
func (Batch) isMessage()  {}
func (Notice) isMessage() {}

// Queue is an unbounded FIFO with one producer and one consumer. Send
// never blocks; the consumer waits on Ready and then calls Drain.
type Queue struct {
	mu    sync.Mutex
	items []Message
	ready chan struct{}
}

func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Send appends msgs in order and wakes the consumer.
func (q *Queue) Send(msgs ...Message) {
	if len(msgs) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, msgs...)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Ready is signalled after Send. A signal may be stale, so Drain can
// return nothing.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Drain removes and returns all pending messages in emission order.
func (q *Queue) Drain() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of pending messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
