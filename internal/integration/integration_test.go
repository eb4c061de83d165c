//go:build integration

package integration

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/buckleypaul/serialplot/internal/link"
	"github.com/buckleypaul/serialplot/internal/message"
	"github.com/buckleypaul/serialplot/internal/serial"
	"github.com/buckleypaul/serialplot/internal/worker"
)

// devicePort returns the port of an attached device that prints lines,
// or skips the test if none is configured.
func devicePort(t *testing.T) (string, int) {
	t.Helper()
	port := os.Getenv("SERIALPLOT_TEST_PORT")
	if port == "" {
		t.Skip("SERIALPLOT_TEST_PORT not set; skipping integration tests")
	}
	baud := 9600
	if v, err := strconv.Atoi(os.Getenv("SERIALPLOT_TEST_BAUD")); err == nil && v > 0 {
		baud = v
	}
	return port, baud
}

// TestIntegrationReadsFromDevice opens a real port through the worker and
// waits for the connect notice and at least one line.
func TestIntegrationReadsFromDevice(t *testing.T) {
	port, baud := devicePort(t)

	l := link.New(port, baud)
	q := message.NewQueue()
	w := worker.New(l, serial.NewOpener(50*time.Millisecond), q, worker.Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	go w.Run(ctx)

	l.Activate()

	var connected, gotLine bool
	for !(connected && gotLine) {
		select {
		case <-ctx.Done():
			t.Fatalf("timed out: connected=%v gotLine=%v", connected, gotLine)
		case <-q.Ready():
		}
		for _, m := range q.Drain() {
			switch m := m.(type) {
			case message.Notice:
				t.Logf("notice: %s", m.Text)
			case message.Line:
				t.Logf("line (%s): %s", m.Kind, m.Text)
				gotLine = true
			}
		}
		connected = connected || l.State() == link.Active
	}

	if l.State() != link.Active {
		t.Fatalf("expected Active, got %s", l.State())
	}
}

// TestIntegrationStopReleasesPort stops the link and checks the port can be
// opened again by another handle.
func TestIntegrationStopReleasesPort(t *testing.T) {
	port, baud := devicePort(t)

	l := link.New(port, baud)
	q := message.NewQueue()
	w := worker.New(l, serial.NewOpener(50*time.Millisecond), q, worker.Options{})

	l.Activate()
	deadline := time.Now().Add(5 * time.Second)
	for l.State() != link.Active && time.Now().Before(deadline) {
		w.Step()
	}
	if l.State() != link.Active {
		t.Fatalf("port did not open: %v", q.Drain())
	}

	l.Stop()
	w.Step()
	if l.State() != link.Sleeping {
		t.Fatalf("expected Sleeping after stop, got %s", l.State())
	}

	p, err := serial.Open(port, serial.PortOptions{BaudRate: baud}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("expected port to be free after stop: %v", err)
	}
	p.Close()
}
