// Package wsnet is the multi-process transport. Every rank serves a
// websocket endpoint at its peer address; outbound connections are dialed
// lazily on first send and reused. Messages travel as msgpack frames.
package wsnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vk/heatgrid/internal/ctxlog"
	"github.com/vk/heatgrid/internal/transport"
	"github.com/vmihailenco/msgpack/v5"
)

// Path is the HTTP path every rank serves the mesh endpoint on.
const Path = "/mesh"

// Frame is one message on the wire.
type Frame struct {
	Src   int       `msgpack:"src"`
	Tag   int       `msgpack:"tag"`
	Data  []float64 `msgpack:"data"`
	Abort string    `msgpack:"abort,omitempty"`
}

// Config describes this rank's place in the group.
type Config struct {
	Rank  int
	Peers []string // host:port of every rank, indexed by rank
	// Listener, when set, is served instead of listening on Peers[Rank].
	Listener net.Listener
	// DialTimeout bounds how long a send keeps retrying to reach a peer that
	// is not up yet. Zero means 30s.
	DialTimeout time.Duration
	// RetryInterval is the pause between dial attempts. Zero means 100ms.
	RetryInterval time.Duration
}

// Node is one rank's websocket transport.
type Node struct {
	cfg    Config
	box    *transport.Mailbox
	srv    *http.Server
	ln     net.Listener
	dialer *websocket.Dialer
	log    func(msg string, args ...any)

	mu    sync.Mutex
	conns map[int]*peer
	inbox map[*websocket.Conn]struct{}

	abortOnce sync.Once
}

type peer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

var _ transport.Transport = (*Node)(nil)

// Listen starts serving this rank's endpoint and returns the transport.
func Listen(ctx context.Context, cfg Config) (*Node, error) {
	if cfg.Rank < 0 || cfg.Rank >= len(cfg.Peers) {
		return nil, fmt.Errorf("rank %d has no entry in a peer list of %d", cfg.Rank, len(cfg.Peers))
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 30 * time.Second
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = 100 * time.Millisecond
	}

	ln := cfg.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", cfg.Peers[cfg.Rank])
		if err != nil {
			return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Peers[cfg.Rank], err)
		}
	}

	logger := ctxlog.FromContext(ctx).With("transport", "wsnet")
	n := &Node{
		cfg:    cfg,
		box:    transport.NewMailbox(),
		ln:     ln,
		dialer: &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		log:    logger.Warn,
		conns:  make(map[int]*peer),
		inbox:  make(map[*websocket.Conn]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(Path, n.handle)
	n.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := n.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			n.box.Abort(fmt.Errorf("mesh endpoint stopped: %w", err))
		}
	}()

	logger.Debug("Mesh endpoint listening.", "rank", cfg.Rank, "addr", ln.Addr().String())
	return n, nil
}

// Addr returns the address the endpoint is served on.
func (n *Node) Addr() net.Addr {
	return n.ln.Addr()
}

func (n *Node) Rank() int { return n.cfg.Rank }

func (n *Node) Size() int { return len(n.cfg.Peers) }

func (n *Node) Irecv(_ context.Context, buf []float64, src, tag int) transport.Request {
	if src == transport.ProcNull {
		return transport.Completed(nil)
	}
	if src < 0 || src >= n.Size() {
		return transport.Completed(fmt.Errorf("receive from unknown rank %d", src))
	}
	return n.box.Post(buf, src, tag)
}

// Isend writes the frame before returning, so the returned request is
// already complete and sends to the same peer keep their order.
func (n *Node) Isend(ctx context.Context, data []float64, dst, tag int) transport.Request {
	if dst == transport.ProcNull {
		return transport.Completed(nil)
	}
	if dst < 0 || dst >= n.Size() {
		return transport.Completed(fmt.Errorf("send to unknown rank %d", dst))
	}
	if err := n.box.Err(); err != nil {
		return transport.Completed(err)
	}
	if dst == n.cfg.Rank {
		return transport.Completed(n.box.Deliver(dst, tag, append([]float64(nil), data...)))
	}

	err := n.write(ctx, dst, Frame{Src: n.cfg.Rank, Tag: tag, Data: data})
	if err != nil {
		err = fmt.Errorf("send to rank %d: %w", dst, err)
	}
	return transport.Completed(err)
}

// Abort fails local operations and tells every peer to do the same.
func (n *Node) Abort(err error) {
	n.abortOnce.Do(func() {
		cause := fmt.Errorf("rank %d: %w", n.cfg.Rank, err)
		n.box.Abort(cause)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		var wg sync.WaitGroup
		for dst := range n.cfg.Peers {
			if dst == n.cfg.Rank {
				continue
			}
			wg.Add(1)
			go func(dst int) {
				defer wg.Done()
				if werr := n.write(ctx, dst, Frame{Src: n.cfg.Rank, Abort: cause.Error()}); werr != nil {
					n.log("Failed to deliver abort.", "peer", dst, "error", werr)
				}
			}(dst)
		}
		wg.Wait()
	})
}

// Close shuts the endpoint down and closes every connection.
func (n *Node) Close() error {
	n.mu.Lock()
	for dst, p := range n.conns {
		p.mu.Lock()
		if p.conn != nil {
			_ = p.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = p.conn.Close()
		}
		p.mu.Unlock()
		delete(n.conns, dst)
	}
	for c := range n.inbox {
		_ = c.Close()
	}
	n.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return n.srv.Shutdown(ctx)
}

func (n *Node) handle(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		n.log("Mesh upgrade failed.", "remote", r.RemoteAddr, "error", err)
		return
	}
	n.mu.Lock()
	n.inbox[conn] = struct{}{}
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		delete(n.inbox, conn)
		n.mu.Unlock()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f Frame
		if err := msgpack.Unmarshal(msg, &f); err != nil {
			n.log("Dropping undecodable frame.", "remote", r.RemoteAddr, "error", err)
			continue
		}
		if f.Abort != "" {
			n.box.Abort(errors.New(f.Abort))
			continue
		}
		if err := n.box.Deliver(f.Src, f.Tag, f.Data); err != nil {
			return
		}
	}
}

func (n *Node) write(ctx context.Context, dst int, f Frame) error {
	p := n.peer(dst)
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		conn, err := n.dial(ctx, dst)
		if err != nil {
			return err
		}
		p.conn = conn
	}

	msg, err := msgpack.Marshal(&f)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := p.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
		_ = p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

func (n *Node) peer(dst int) *peer {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.conns[dst]
	if !ok {
		p = &peer{}
		n.conns[dst] = p
	}
	return p
}

// dial retries until the peer accepts or the dial timeout expires. Peers
// start independently, so the first attempts may be refused.
func (n *Node) dial(ctx context.Context, dst int) (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.DialTimeout)
	defer cancel()

	url := "ws://" + n.cfg.Peers[dst] + Path
	for {
		conn, _, err := n.dialer.DialContext(ctx, url, nil)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to reach %s: %w", url, err)
		case <-time.After(n.cfg.RetryInterval):
		}
	}
}
