package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestScheduler_RunsImmediatelyAndRepeats(t *testing.T) {
	var runs atomic.Int32
	s := New("test", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, testLogger())

	require.True(t, s.Start(context.Background()))
	assert.False(t, s.Start(context.Background()), "second start must be a no-op")
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	assert.True(t, s.Stop())
	<-s.Done()
	assert.False(t, s.Stop(), "stop is idempotent")
	assert.False(t, s.Running())
}

func TestScheduler_KeepsGoingAfterFailure(t *testing.T) {
	var runs atomic.Int32
	s := New("flaky", 10*time.Millisecond, func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			return errors.New("dump failed")
		}
		return nil
	}, testLogger())

	s.Start(context.Background())
	defer s.Stop()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopDoesNotInterruptInFlightRun(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var cancelled atomic.Bool
	s := New("slow", time.Hour, func(ctx context.Context) error {
		close(started)
		<-release
		cancelled.Store(ctx.Err() != nil)
		return nil
	}, testLogger())

	s.Start(context.Background())
	<-started
	require.True(t, s.Stop())
	_, ok := s.NextRun()
	assert.False(t, ok)

	close(release)
	<-s.Done()
	assert.False(t, cancelled.Load(), "in-flight run must not see cancellation")
}

func TestScheduler_Restart(t *testing.T) {
	var runs atomic.Int32
	s := New("restart", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, testLogger())

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()
	<-s.Done()

	require.True(t, s.Start(context.Background()))
	defer s.Stop()
	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
	next, ok := s.NextRun()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), next, time.Minute)
}

func TestScheduler_ParentCancelEndsSchedule(t *testing.T) {
	var runs atomic.Int32
	s := New("parent", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, s.Start(ctx))
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-s.Done()

	assert.False(t, s.Running(), "a dead loop is not reported as running")
	_, ok := s.NextRun()
	assert.False(t, ok)

	require.True(t, s.Start(context.Background()), "start after the parent ended")
	defer s.Stop()
	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}
