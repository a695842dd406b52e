package executor_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/chainforge/validator/module/executor"
	"github.com/chainforge/validator/utils/unittest"
)

// TestSerialExecutor_Order checks that tasks run in submission order.
func TestSerialExecutor_Order(t *testing.T) {
	e := executor.NewSerialExecutor(unittest.Logger())
	defer e.Close()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		i := i
		wg.Add(1)
		require.NoError(t, e.Submit(func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	unittest.RequireReturnsBefore(t, wg.Wait, time.Second, "tasks did not complete")

	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

// TestSerialExecutor_MutualExclusion checks that no two tasks ever overlap.
func TestSerialExecutor_MutualExclusion(t *testing.T) {
	e := executor.NewSerialExecutor(unittest.Logger())
	defer e.Close()

	running := atomic.NewInt32(0)
	maxRunning := atomic.NewInt32(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		require.NoError(t, e.Submit(func() {
			defer wg.Done()
			n := running.Inc()
			if n > maxRunning.Load() {
				maxRunning.Store(n)
			}
			time.Sleep(time.Millisecond)
			running.Dec()
		}))
	}
	unittest.RequireReturnsBefore(t, wg.Wait, 5*time.Second, "tasks did not complete")
	assert.EqualValues(t, 1, maxRunning.Load())
}

// TestSerialExecutor_ShutdownWaitsForTasks checks that Shutdown blocks until the
// in-flight task completes and rejects later submissions.
func TestSerialExecutor_ShutdownWaitsForTasks(t *testing.T) {
	e := executor.NewSerialExecutor(unittest.Logger())
	defer e.Close()

	release := make(chan struct{})
	finished := atomic.NewBool(false)
	require.NoError(t, e.Submit(func() {
		<-release
		finished.Store(true)
	}))

	shutdownDone := make(chan struct{})
	go func() {
		e.Shutdown()
		close(shutdownDone)
	}()

	unittest.RequireNeverClosedWithin(t, shutdownDone, 50*time.Millisecond, "shutdown returned before task finished")
	close(release)
	unittest.RequireCloseBefore(t, shutdownDone, time.Second, "shutdown did not return")
	assert.True(t, finished.Load())

	assert.ErrorIs(t, e.Submit(func() {}), executor.ErrExecutorShutdown)

	// repeated shutdown is a no-op
	unittest.RequireReturnsBefore(t, e.Shutdown, time.Second, "second shutdown blocked")
}

// TestSerialExecutor_Resume checks that a shut down executor accepts tasks after Resume.
func TestSerialExecutor_Resume(t *testing.T) {
	e := executor.NewSerialExecutor(unittest.Logger())
	defer e.Close()

	e.Shutdown()
	require.ErrorIs(t, e.Submit(func() {}), executor.ErrExecutorShutdown)

	e.Resume()
	ran := make(chan struct{})
	require.NoError(t, e.Submit(func() { close(ran) }))
	unittest.RequireCloseBefore(t, ran, time.Second, "task did not run after resume")
}

// TestSerialExecutor_PanickingTask checks that a panicking task does not kill the worker.
func TestSerialExecutor_PanickingTask(t *testing.T) {
	e := executor.NewSerialExecutor(unittest.Logger())
	defer e.Close()

	require.NoError(t, e.Submit(func() { panic("boom") }))
	ran := make(chan struct{})
	require.NoError(t, e.Submit(func() { close(ran) }))
	unittest.RequireCloseBefore(t, ran, time.Second, "task after panic did not run")
}

func TestSerialExecutor_Close(t *testing.T) {
	e := executor.NewSerialExecutor(unittest.Logger())
	e.Close()
	e.Resume()
	assert.ErrorIs(t, e.Submit(func() {}), executor.ErrExecutorShutdown)
	unittest.RequireReturnsBefore(t, e.Close, time.Second, "second close blocked")
}
