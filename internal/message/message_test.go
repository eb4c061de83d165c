package message

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buckleypaul/serialplot/internal/protocol"
)

func TestQueuePreservesOrder(t *testing.T) {
	q := NewQueue()
	q.Send(Line{Text: "a", Kind: protocol.KindLog})
	q.Send(Batch{Samples: []protocol.Sample{{Name: "x", Value: 1}}}, Notice{Text: "hi"})

	require.Equal(t, 3, q.Len())
	got := q.Drain()
	assert.Equal(t, []Message{
		Line{Text: "a", Kind: protocol.KindLog},
		Batch{Samples: []protocol.Sample{{Name: "x", Value: 1}}},
		Notice{Text: "hi"},
	}, got)
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Drain())
}

func TestQueueSignalsReady(t *testing.T) {
	q := NewQueue()
	select {
	case <-q.Ready():
		t.Fatal("ready before any send")
	default:
	}

	q.Send(Notice{Text: "one"})
	q.Send(Notice{Text: "two"})

	select {
	case <-q.Ready():
	case <-time.After(time.Second):
		t.Fatal("expected ready signal")
	}
	assert.Len(t, q.Drain(), 2)
}

func TestQueueSendNothingDoesNotSignal(t *testing.T) {
	q := NewQueue()
	q.Send()
	select {
	case <-q.Ready():
		t.Fatal("unexpected signal")
	default:
	}
}

func TestQueueConcurrentProducerKeepsOrder(t *testing.T) {
	q := NewQueue()
	const n = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.Send(Batch{Samples: []protocol.Sample{{Name: "i", Value: float64(i)}}})
		}
	}()

	var got []float64
	deadline := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case <-q.Ready():
			for _, m := range q.Drain() {
				got = append(got, m.(Batch).Samples[0].Value)
			}
		case <-deadline:
			t.Fatalf("only received %d of %d messages", len(got), n)
		}
	}
	wg.Wait()

	for i, v := range got {
		require.Equal(t, float64(i), v)
	}
}
