package executor

import (
	"errors"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"
)

// ErrExecutorShutdown is returned when a task is submitted to an executor that
// has been shut down or closed.
var ErrExecutorShutdown = errors.New("executor is shut down")

// SerialExecutor runs submitted tasks on a single worker, one at a time and in
// submission order. Tasks never run concurrently with each other.
//
// The executor is created once and survives restarts of the components using it:
// Shutdown drains it and rejects further submissions, Resume accepts submissions
// again. Close releases the worker for good.
type SerialExecutor struct {
	log  zerolog.Logger
	pool *workerpool.WorkerPool

	mu       sync.Mutex
	accepted sync.WaitGroup // tasks accepted and not yet completed
	shutdown bool
	closed   bool
}

// NewSerialExecutor creates a running executor.
func NewSerialExecutor(log zerolog.Logger) *SerialExecutor {
	return &SerialExecutor{
		log:  log.With().Str("component", "serial_executor").Logger(),
		pool: workerpool.New(1),
	}
}

// Submit enqueues the task. It never blocks on task execution.
// Expected errors:
//   - ErrExecutorShutdown if the executor does not accept tasks
func (e *SerialExecutor) Submit(task func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.shutdown || e.closed {
		return ErrExecutorShutdown
	}

	e.accepted.Add(1)
	e.pool.Submit(func() {
		defer e.accepted.Done()
		defer func() {
			if r := recover(); r != nil {
				e.log.Error().Interface("panic", r).Msg("executor task panicked")
			}
		}()
		task()
	})
	return nil
}

// Shutdown stops accepting tasks and blocks until every accepted task has
// completed. Calling Shutdown on an executor that is already shut down returns
// immediately.
func (e *SerialExecutor) Shutdown() {
	e.mu.Lock()
	e.shutdown = true
	e.mu.Unlock()

	e.accepted.Wait()
}

// Resume makes a shut down executor accept tasks again. It has no effect on a
// closed executor.
func (e *SerialExecutor) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.shutdown = false
}

// Close drains the executor and stops its worker. The executor cannot be
// resumed afterwards.
func (e *SerialExecutor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.accepted.Wait()
	e.pool.StopWait()
}

// Pending returns the number of tasks waiting for the worker.
func (e *SerialExecutor) Pending() int {
	return e.pool.WaitingQueueSize()
}
