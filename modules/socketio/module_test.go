package socketio

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/heatgrid/internal/config"
	"github.com/vk/heatgrid/internal/registry"
)

func TestNewSink_RejectsRelativeURL(t *testing.T) {
	_, err := NewSink(context.Background(), config.Output{Sink: config.SinkSocketIO, URL: "/frames"}, nil)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestNewSink_ConnectFailure(t *testing.T) {
	// Reserve a port and release it so nothing is listening there.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	old := connectTimeout
	connectTimeout = 2 * time.Second
	defer func() { connectTimeout = old }()

	start := time.Now()
	_, err = NewSink(context.Background(), config.Output{
		Sink:      config.SinkSocketIO,
		URL:       "http://" + addr,
		Namespace: "/",
		Event:     "frame",
	}, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestModule_Register(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)
	assert.Equal(t, []string{config.SinkSocketIO}, r.Sinks())
}
