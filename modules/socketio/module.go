// Package socketio provides the "socketio" sink, which emits every frame as
// an event on a socket.io namespace.
package socketio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/vk/heatgrid/internal/config"
	"github.com/vk/heatgrid/internal/ctxlog"
	"github.com/vk/heatgrid/internal/registry"
	"github.com/vk/heatgrid/internal/snapshot"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// connectTimeout bounds the initial connection.
var connectTimeout = 15 * time.Second

// Sink emits frames on a connected socket.
type Sink struct {
	mu     sync.Mutex
	client *socket.Socket
	event  string
}

// NewSink is the factory registered for the "socketio" sink. It connects
// before returning so that a bad URL fails the run at startup.
func NewSink(ctx context.Context, cfg config.Output, _ io.Writer) (snapshot.Sink, error) {
	logger := ctxlog.FromContext(ctx).With("sink", "socketio", "url", cfg.URL)

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("%w: socketio sink needs an absolute url, got %q", config.ErrInvalid, cfg.URL)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	client := manager.Socket(cfg.Namespace, opts)

	client.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "sid", client.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	client.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	logger.Debug("Initiating connection...")
	client.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			client.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		client.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(connectTimeout):
		client.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", connectTimeout)
	}

	return &Sink{client: client, event: cfg.Event}, nil
}

// Publish emits one frame.
func (s *Sink) Publish(ctx context.Context, f snapshot.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.client.Connected() {
		return errors.New("socket.io client is not connected")
	}
	ctxlog.FromContext(ctx).Debug("Emitting frame", "event", s.event, "iteration", f.Iteration, "rank", f.Rank)
	s.client.Emit(s.event, f.Payload())
	return nil
}

// Close disconnects the client.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctxlog.FromContext(ctx).Debug("Disconnecting socket.io sink", "sid", s.client.Id())
	s.client.Disconnect()
	return nil
}

// Register registers the sink with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterSink(config.SinkSocketIO, NewSink)
}
