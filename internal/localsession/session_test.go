package localsession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/heatgrid/internal/decomp"
	"github.com/vk/heatgrid/internal/inmemorystore"
	"github.com/vk/heatgrid/internal/mesh"
	"github.com/vk/heatgrid/internal/nodestore"
	"github.com/vk/heatgrid/internal/session"
	"github.com/vk/heatgrid/internal/sources"
	"github.com/vk/heatgrid/internal/worker"
)

func job(n, px, py, workers int) *session.Job {
	return &session.Job{
		Params: worker.Params{
			N:           n,
			Energy:      1,
			Iterations:  1,
			Sources:     sources.Defaults(n),
			OutputEvery: 1000,
		},
		Shape:   mesh.Shape{PX: px, PY: py},
		Workers: workers,
	}
}

func TestSession_Run(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	j := job(8, 2, 2, 4)
	store := inmemorystore.New()
	j.Store = store

	var f session.Factory = &Factory{}
	s, err := f.NewSession(ctx, j)
	require.NoError(t, err)
	defer s.Close(ctx)

	report, err := s.Run(ctx)
	require.NoError(t, err)
	require.Len(t, report.Results, 4)
	assert.InDelta(t, 1.375, report.Total, 1e-12)
	assert.InDelta(t, 0.625, report.Results[3].Heat, 1e-12)

	ranks, err := store.Ranks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, ranks)
	for _, r := range ranks {
		status, err := store.GetStatus(ctx, r)
		require.NoError(t, err)
		assert.Equal(t, nodestore.StatusCompleted, status)
	}
}

func TestFactory_SetupErrors(t *testing.T) {
	testCases := []struct {
		name string
		job  *session.Job
		want error
	}{
		{"shape mismatch", job(8, 2, 2, 3), mesh.ErrShapeMismatch},
		{"x not divisible", job(9, 2, 3, 6), decomp.ErrNotDivisibleX},
		{"y not divisible", job(8, 2, 3, 6), decomp.ErrNotDivisibleY},
		{"mismatch reported first", job(9, 2, 3, 5), mesh.ErrShapeMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := (&Factory{}).NewSession(context.Background(), tc.job)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}
