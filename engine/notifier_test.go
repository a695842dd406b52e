package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/chainforge/validator/engine/common/fifoqueue"
)

// TestNotifier_Coalesces checks that notifications sent while nobody reads are
// collapsed into one, and that copies of a Notifier share the same channel.
func TestNotifier_Coalesces(t *testing.T) {
	notifier := NewNotifier()

	select {
	case <-notifier.Channel():
		t.Fatal("fresh notifier must not carry a notification")
	default:
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n Notifier) {
			defer wg.Done()
			n.Notify()
		}(notifier)
	}
	wg.Wait()

	select {
	case <-notifier.Channel():
	default:
		t.Fatal("expected a pending notification")
	}
	select {
	case <-notifier.Channel():
		t.Fatal("expected notifications to be coalesced")
	default:
	}
}

// TestNotifier_SingleConsumerDrain runs the drain-on-notify loop used by the
// engines: many producers push into a fifo queue and notify, one consumer
// drains the queue on every notification. No item may be left behind.
func TestNotifier_SingleConsumerDrain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := NewNotifier()
	queue, err := fifoqueue.NewFifoQueue[int](fifoqueue.WithCapacity(1000))
	require.NoError(t, err)

	consumed := atomic.NewInt32(0)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-notifier.Channel():
				for {
					if _, ok := queue.Pop(); !ok {
						break
					}
					consumed.Inc()
				}
			}
		}
	}()

	const producers, items = 10, 50
	for p := 0; p < producers; p++ {
		go func() {
			for i := 0; i < items; i++ {
				queue.Push(i)
				notifier.Notify()
			}
		}()
	}

	require.Eventually(t, func() bool {
		return consumed.Load() == producers*items
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, queue.Len())
}
