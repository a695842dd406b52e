package queue

import (
	"fmt"

	"github.com/chainforge/validator/engine"
	"github.com/chainforge/validator/engine/common/fifoqueue"
	"github.com/chainforge/validator/model/ledger"
)

// HandoffQueue is an unbounded FIFO channel between any number of producers
// and a single consumer. Put never blocks; every Put notifies the consumer
// through a coalescing Notifier. The consumer drains the queue with Peek/Pop
// whenever the notifier channel fires.
type HandoffQueue[T any] struct {
	items    *fifoqueue.FifoQueue[T]
	notifier engine.Notifier
}

// BlockQueue carries received blocks to the chain controller.
type BlockQueue = HandoffQueue[*ledger.Block]

// BatchQueue carries received batches to the block publisher.
type BatchQueue = HandoffQueue[*ledger.Batch]

// NewHandoffQueue creates an unbounded handoff queue. The length observer is
// called with the new length on every change; pass nil to disable it.
func NewHandoffQueue[T any](lengthObserver fifoqueue.QueueLengthObserver) (*HandoffQueue[T], error) {
	var opts []fifoqueue.ConstructorOption
	if lengthObserver != nil {
		opts = append(opts, fifoqueue.WithLengthObserver(lengthObserver))
	}
	items, err := fifoqueue.NewFifoQueue[T](opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create fifo queue: %w", err)
	}
	return &HandoffQueue[T]{
		items:    items,
		notifier: engine.NewNotifier(),
	}, nil
}

// NewBlockQueue creates the queue feeding the chain controller.
func NewBlockQueue(lengthObserver fifoqueue.QueueLengthObserver) (*BlockQueue, error) {
	return NewHandoffQueue[*ledger.Block](lengthObserver)
}

// NewBatchQueue creates the queue feeding the block publisher.
func NewBatchQueue(lengthObserver fifoqueue.QueueLengthObserver) (*BatchQueue, error) {
	return NewHandoffQueue[*ledger.Batch](lengthObserver)
}

// Put appends the item to the tail of the queue and notifies the consumer.
// It only returns false if the queue is full, which cannot happen for an
// unbounded queue.
func (q *HandoffQueue[T]) Put(item T) bool {
	if !q.items.Push(item) {
		return false
	}
	q.notifier.Notify()
	return true
}

// Peek returns the head of the queue without removing it.
func (q *HandoffQueue[T]) Peek() (T, bool) {
	return q.items.Front()
}

// Pop removes and returns the head of the queue.
func (q *HandoffQueue[T]) Pop() (T, bool) {
	return q.items.Pop()
}

// Len returns the number of queued items.
func (q *HandoffQueue[T]) Len() int {
	return q.items.Len()
}

// Channel returns the notification channel of the consumer. A notification
// means that items may be pending; consumers must drain until Pop fails.
func (q *HandoffQueue[T]) Channel() <-chan struct{} {
	return q.notifier.Channel()
}

// Renotify re-arms the consumer notification. Consumers call it when they stop
// draining before the queue is empty, so the remaining items are not stranded.
func (q *HandoffQueue[T]) Renotify() {
	if q.items.Len() > 0 {
		q.notifier.Notify()
	}
}
