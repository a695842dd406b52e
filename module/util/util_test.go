package util_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chainforge/validator/module/util"
)

func TestAllClosed(t *testing.T) {
	a := make(chan struct{})
	b := make(chan struct{})
	all := util.AllClosed(a, b)

	close(a)
	assert.False(t, util.CheckClosed(all))

	close(b)
	assert.Eventually(t, func() bool { return util.CheckClosed(all) }, time.Second, time.Millisecond)
}

func TestAllClosed_NoChannels(t *testing.T) {
	all := util.AllClosed()
	assert.Eventually(t, func() bool { return util.CheckClosed(all) }, time.Second, time.Millisecond)
}

// TestWaitError_PrefersError checks that an error is returned even when done is closed too.
func TestWaitError_PrefersError(t *testing.T) {
	errChan := make(chan error, 1)
	done := make(chan struct{})
	expected := errors.New("boom")

	errChan <- expected
	close(done)
	assert.ErrorIs(t, util.WaitError(errChan, done), expected)
}

func TestWaitError_Done(t *testing.T) {
	errChan := make(chan error)
	done := make(chan struct{})
	close(done)
	assert.NoError(t, util.WaitError(errChan, done))
}
