package netsession

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/heatgrid/internal/mesh"
	"github.com/vk/heatgrid/internal/session"
	"github.com/vk/heatgrid/internal/sources"
	"github.com/vk/heatgrid/internal/worker"
	"golang.org/x/sync/errgroup"
)

func TestSession_FourRanksOverWebsocket(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	const size = 4
	listeners := make([]net.Listener, size)
	peers := make([]string, size)
	for i := range listeners {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		listeners[i] = ln
		peers[i] = ln.Addr().String()
	}

	sessions := make([]session.Session, size)
	for r := 0; r < size; r++ {
		f := &Factory{Rank: r, Peers: peers, Listener: listeners[r], DialTimeout: 10 * time.Second}
		s, err := f.NewSession(ctx, &session.Job{
			Params: worker.Params{
				N:           8,
				Energy:      1,
				Iterations:  3,
				Sources:     sources.Defaults(8),
				OutputEvery: 1000,
			},
			Shape:   mesh.Shape{PX: 2, PY: 2},
			Workers: size,
		})
		require.NoError(t, err)
		sessions[r] = s
	}
	t.Cleanup(func() {
		for _, s := range sessions {
			_ = s.Close(context.Background())
		}
	})

	totals := make([]float64, size)
	g, gctx := errgroup.WithContext(ctx)
	for r, s := range sessions {
		g.Go(func() error {
			rep, err := s.Run(gctx)
			if err != nil {
				return err
			}
			totals[r] = rep.Total
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for r := 1; r < size; r++ {
		assert.Equal(t, totals[0], totals[r], "rank %d disagrees on the total", r)
	}
	assert.Greater(t, totals[0], 0.0)
}

func TestFactory_ShapeMismatch(t *testing.T) {
	f := &Factory{Rank: 0, Peers: []string{"127.0.0.1:0", "127.0.0.1:0"}}
	_, err := f.NewSession(context.Background(), &session.Job{
		Params:  worker.Params{N: 4},
		Shape:   mesh.Shape{PX: 2, PY: 2},
		Workers: 2,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, mesh.ErrShapeMismatch))
}
