package jobmgr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockUntilCancelled(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestStartAndStop(t *testing.T) {
	m := NewManager(nil)

	require.NoError(t, m.Start(context.Background(), "worker", blockUntilCancelled))
	assert.Equal(t, []string{"worker"}, m.Running())

	require.NoError(t, m.Stop("worker"))
	assert.Empty(t, m.Running())
}

func TestDuplicateNameRejected(t *testing.T) {
	m := NewManager(nil)

	require.NoError(t, m.Start(context.Background(), "worker", blockUntilCancelled))
	defer m.StopAll()

	assert.Error(t, m.Start(context.Background(), "worker", blockUntilCancelled))
}

func TestStopUnknownJob(t *testing.T) {
	m := NewManager(nil)
	assert.Error(t, m.Stop("nobody"))
}

func TestJobRemovedWhenItReturns(t *testing.T) {
	m := NewManager(nil)

	done := make(chan struct{})
	require.NoError(t, m.Start(context.Background(), "oneshot", func(context.Context) error {
		close(done)
		return nil
	}))

	<-done
	assert.Eventually(t, func() bool {
		return len(m.Running()) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestReporterSeesLifecycle(t *testing.T) {
	var mu sync.Mutex
	var events []string
	m := NewManager(func(msg string) {
		mu.Lock()
		events = append(events, msg)
		mu.Unlock()
	})

	require.NoError(t, m.Start(context.Background(), "failing", func(context.Context) error {
		return errors.New("boom")
	}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2 &&
			events[0] == "running:failing" &&
			events[1] == "error:failing:boom"
	}, time.Second, 10*time.Millisecond)
}

func TestStopAllWaitsForEveryJob(t *testing.T) {
	m := NewManager(nil)

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, m.Start(context.Background(), name, blockUntilCancelled))
	}

	m.StopAll()
	assert.Empty(t, m.Running())
}
