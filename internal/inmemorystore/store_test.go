package inmemorystore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/heatgrid/internal/nodestore"
)

func TestSetAndGetStatus(t *testing.T) {
	s := New()
	ctx := context.Background()

	// Get status of a worker that never reported
	status, err := s.GetStatus(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, nodestore.StatusPending, status)

	err = s.SetStatus(ctx, 3, nodestore.StatusRunning)
	require.NoError(t, err)

	status, err = s.GetStatus(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, nodestore.StatusRunning, status)
	assert.Equal(t, "running", status.String())
}

func TestSetAndGetProgress(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, ok, err := s.GetProgress(ctx, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	want := nodestore.Progress{Iteration: 41, Heat: 1.375}
	require.NoError(t, s.SetProgress(ctx, 0, want))

	got, ok, err := s.GetProgress(ctx, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestSetAndGetError(t *testing.T) {
	s := New()
	ctx := context.Background()

	retrievedErr, err := s.GetError(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, retrievedErr)

	expectedErr := errors.New("halo exchange failed")
	require.NoError(t, s.SetError(ctx, 1, expectedErr))

	retrievedErr, err = s.GetError(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, expectedErr, retrievedErr)
}

func TestRanks(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SetStatus(ctx, 2, nodestore.StatusRunning))
	require.NoError(t, s.SetProgress(ctx, 0, nodestore.Progress{}))
	require.NoError(t, s.SetError(ctx, 5, errors.New("x")))
	require.NoError(t, s.SetStatus(ctx, 0, nodestore.StatusCompleted))

	ranks, err := s.Ranks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 5}, ranks)
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	const workers = 16

	var wg sync.WaitGroup
	for r := 0; r < workers; r++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = s.SetStatus(ctx, rank, nodestore.StatusRunning)
				_ = s.SetProgress(ctx, rank, nodestore.Progress{Iteration: i})
				_, _, _ = s.GetProgress(ctx, (rank+1)%workers)
				_, _ = s.Ranks(ctx)
			}
			_ = s.SetStatus(ctx, rank, nodestore.StatusCompleted)
		}(r)
	}
	wg.Wait()

	ranks, err := s.Ranks(ctx)
	require.NoError(t, err)
	assert.Len(t, ranks, workers)
	for _, r := range ranks {
		p, ok, err := s.GetProgress(ctx, r)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 99, p.Iteration)
	}
}
