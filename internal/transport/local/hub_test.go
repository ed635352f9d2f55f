package local

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/heatgrid/internal/transport"
)

func TestEndpoint_SendRecv(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(2)
	a, err := hub.Endpoint(0)
	require.NoError(t, err)
	b, err := hub.Endpoint(1)
	require.NoError(t, err)

	out := []float64{1, 2, 3}
	in := make([]float64, 3)

	recv := b.Irecv(ctx, in, 0, 7)
	send := a.Isend(ctx, out, 1, 7)
	out[0] = 42 // the sent copy must not change

	require.NoError(t, transport.WaitAll(ctx, recv, send))
	assert.Equal(t, []float64{1, 2, 3}, in)
}

func TestEndpoint_ProcNull(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(1)
	e, err := hub.Endpoint(0)
	require.NoError(t, err)

	buf := []float64{5}
	require.NoError(t, e.Irecv(ctx, buf, transport.ProcNull, 1).Wait(ctx))
	require.NoError(t, e.Isend(ctx, buf, transport.ProcNull, 1).Wait(ctx))
	assert.Equal(t, 5.0, buf[0])
}

func TestEndpoint_UnknownRank(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(2)
	e, err := hub.Endpoint(0)
	require.NoError(t, err)

	assert.Error(t, e.Isend(ctx, []float64{1}, 5, 1).Wait(ctx))
	assert.Error(t, e.Irecv(ctx, []float64{1}, -7, 1).Wait(ctx))

	_, err = hub.Endpoint(2)
	assert.Error(t, err)
}

func TestHub_AbortReachesEveryRank(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(3)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for r := 1; r < 3; r++ {
		e, err := hub.Endpoint(r)
		require.NoError(t, err)
		req := e.Irecv(ctx, make([]float64, 1), 0, 1)
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			errs[r] = req.Wait(ctx)
		}(r)
	}

	e0, err := hub.Endpoint(0)
	require.NoError(t, err)
	e0.Abort(errors.New("allocation failed"))
	wg.Wait()

	for r := 1; r < 3; r++ {
		assert.True(t, errors.Is(errs[r], transport.ErrAborted), "rank %d: %v", r, errs[r])
	}
	assert.True(t, errors.Is(e0.Isend(ctx, []float64{1}, 1, 1).Wait(ctx), transport.ErrAborted))
}
