package ioengine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmissionAllowsUpToCapacityImmediately(t *testing.T) {
	a := newAdmission(2)
	release1, err := a.acquire(context.Background(), "a")
	require.NoError(t, err)
	release2, err := a.acquire(context.Background(), "b")
	require.NoError(t, err)
	defer release1()
	defer release2()

	done := make(chan struct{})
	go func() {
		release3, err := a.acquire(context.Background(), "c")
		assert.NoError(t, err)
		release3()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("third acquire should have blocked once capacity 2 was exhausted")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestAdmissionAcquireTimesOutWithContext(t *testing.T) {
	a := newAdmission(1)
	release, err := a.acquire(context.Background(), "busy")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = a.acquire(ctx, "waiting")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestAdmissionRoundRobinsAcrossPaths verifies property 3's fairness
// requirement directly against the waiter queue: once a path has a waiter
// admitted, the next freed slot goes to a different waiting path rather
// than draining the same path's queue first.
func TestAdmissionRoundRobinsAcrossPaths(t *testing.T) {
	a := newAdmission(1)
	a.inUse = 1 // simulate the one slot already held

	waiterA1 := make(chan struct{}, 1)
	waiterB1 := make(chan struct{}, 1)
	waiterA2 := make(chan struct{}, 1)
	a.enqueueLocked("a", waiterA1)
	a.enqueueLocked("b", waiterB1)
	a.enqueueLocked("a", waiterA2)

	a.inUse--
	a.admitNextLocked()
	assertClosedOrSent(t, waiterA1, "path a's first waiter must be admitted first")

	a.inUse--
	a.admitNextLocked()
	assertClosedOrSent(t, waiterB1, "path b must be admitted next, not path a again, to avoid starving b")

	a.inUse--
	a.admitNextLocked()
	assertClosedOrSent(t, waiterA2, "path a's remaining waiter is admitted once every other path is served")
}

func assertClosedOrSent(t *testing.T, ch chan struct{}, msg string) {
	t.Helper()
	select {
	case <-ch:
	default:
		t.Fatal(msg)
	}
}

func TestAdmissionCloseAllWakesWaiters(t *testing.T) {
	a := newAdmission(1)
	release, err := a.acquire(context.Background(), "busy")
	require.NoError(t, err)
	defer release()

	errs := make(chan error, 1)
	go func() {
		_, err := a.acquire(context.Background(), "waiting")
		errs <- err
	}()
	time.Sleep(10 * time.Millisecond)

	a.closeAll()
	assert.ErrorIs(t, <-errs, ErrTimeout)
}
