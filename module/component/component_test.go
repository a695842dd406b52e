package component_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainforge/validator/module"
	"github.com/chainforge/validator/module/component"
	"github.com/chainforge/validator/module/irrecoverable"
	"github.com/chainforge/validator/utils/unittest"
)

// TestComponentManager_HappyPath starts two workers and shuts them down through the context.
func TestComponentManager_HappyPath(t *testing.T) {
	cm := component.NewComponentManagerBuilder().
		AddWorker(func(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
			ready()
			<-ctx.Done()
		}).
		AddWorker(func(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
			ready()
			<-ctx.Done()
		}).
		Build()

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	cm.Start(ctx)

	unittest.RequireCloseBefore(t, cm.Ready(), time.Second, "component manager did not become ready")
	unittest.RequireNotClosed(t, cm.Done(), "component manager must not be done before cancel")

	cancel()
	unittest.RequireCloseBefore(t, cm.ShutdownSignal(), time.Second, "shutdown signal was not closed")
	unittest.RequireCloseBefore(t, cm.Done(), time.Second, "component manager did not shut down")
}

// TestComponentManager_StartTwice checks the ErrMultipleStartup panic.
func TestComponentManager_StartTwice(t *testing.T) {
	cm := component.NewComponentManagerBuilder().Build()

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	defer cancel()
	cm.Start(ctx)

	assert.PanicsWithValue(t, module.ErrMultipleStartup, func() {
		cm.Start(ctx)
	})
}

// TestComponentManager_ThrowPropagates checks that a worker's irrecoverable error
// reaches the parent and stops all siblings.
func TestComponentManager_ThrowPropagates(t *testing.T) {
	expected := errors.New("fatal")
	sibling := make(chan struct{})

	cm := component.NewComponentManagerBuilder().
		AddWorker(func(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
			ready()
			ctx.Throw(expected)
		}).
		AddWorker(func(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
			ready()
			<-ctx.Done()
			close(sibling)
		}).
		Build()

	ctx, errChan := irrecoverable.WithSignaler(context.Background())
	cm.Start(ctx)

	select {
	case err := <-errChan:
		require.ErrorIs(t, err, expected)
	case <-time.After(time.Second):
		t.Fatal("error was not propagated")
	}
	unittest.RequireCloseBefore(t, sibling, time.Second, "sibling worker was not cancelled")
	unittest.RequireCloseBefore(t, cm.Done(), time.Second, "component manager did not shut down")
}
