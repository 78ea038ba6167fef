// ABOUTME: Websocket mesh client: dials bootstrap peers once, streams put
// ABOUTME: frames into collection handlers, broadcasts fire-and-forget writes.

package mesh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Agnuxo1/p2pclaw-mcp-server-sub002/internal/dedupe"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer bounds the per-peer outbound queue; frames beyond it are
	// dropped rather than blocking the caller.
	sendBuffer = 64

	frameTTL       = 5 * time.Minute
	frameCacheSize = 100_000
)

// Config carries the connection settings for a Client.
type Config struct {
	// Peers are bootstrap endpoint URLs, in http(s) or ws(s) form.
	Peers []string

	// HandshakeTimeout bounds each peer dial. Zero means 10 seconds.
	HandshakeTimeout time.Duration
}

// subscription is one registered collection handler. Delivery stops when
// its ctx is done.
type subscription struct {
	ctx context.Context
	fn  Handler
}

// peerConn is one live peer socket. writeLoop owns all writes to conn;
// anything to send goes through the send channel.
type peerConn struct {
	url  string
	conn *websocket.Conn
	send chan frame
}

// Client implements Store over websocket connections to bootstrap peers.
// Every configured peer is dialed exactly once at Connect; there is no
// redial, so a peer that drops mid-run stays dropped and frames keep
// flowing from the survivors.
type Client struct {
	cfg    Config
	logger *slog.Logger
	frames *dedupe.Cache
	done   chan struct{}

	mu     sync.Mutex
	peers  []*peerConn
	subs   map[string]*subscription
	closed bool
}

var _ Store = (*Client)(nil)

// NewClient creates a mesh client. Call Connect before Subscribe.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		frames: dedupe.New(frameTTL, frameCacheSize),
		done:   make(chan struct{}),
		subs:   make(map[string]*subscription),
	}
}

// Connect dials every configured peer once. Peers that fail to dial are
// logged and skipped; at least one live peer is required.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}

	var live int
	for _, raw := range c.cfg.Peers {
		endpoint, err := wsURL(raw)
		if err != nil {
			c.logger.Warn("skipping peer", "peer", raw, "error", err)
			continue
		}
		conn, _, err := dialer.DialContext(ctx, endpoint, nil)
		if err != nil {
			c.logger.Warn("peer dial failed", "peer", endpoint, "error", err)
			continue
		}
		p := &peerConn{url: endpoint, conn: conn, send: make(chan frame, sendBuffer)}
		c.mu.Lock()
		c.peers = append(c.peers, p)
		c.mu.Unlock()
		go c.writeLoop(p)
		go c.readLoop(p)
		live++
	}
	if live == 0 {
		return fmt.Errorf("%w: tried %d peer(s)", ErrNoPeers, len(c.cfg.Peers))
	}
	c.logger.Info("mesh connected", "live_peers", live, "configured_peers", len(c.cfg.Peers))
	return nil
}

// Subscribe registers fn for a collection and asks every live peer to
// stream it. Delivery happens on the peer reader goroutines and continues
// until ctx is done or the client closes.
func (c *Client) Subscribe(ctx context.Context, collection string, fn Handler) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if len(c.peers) == 0 {
		c.mu.Unlock()
		return fmt.Errorf("subscribing %q: %w", collection, ErrNoPeers)
	}
	if _, ok := c.subs[collection]; ok {
		c.mu.Unlock()
		return fmt.Errorf("subscribing %q: %w", collection, ErrAlreadySubscribed)
	}
	c.subs[collection] = &subscription{ctx: ctx, fn: fn}
	c.mu.Unlock()

	c.broadcast(newGetFrame(collection))
	c.logger.Info("subscribed", "collection", collection)
	return nil
}

// MergeWrite broadcasts a partial update for one entry to every live peer
// and replays it to local subscribers, matching the mesh's self-redelivery.
// Nothing is reported back; there is no acknowledgement to wait for.
func (c *Client) MergeWrite(collection, id string, fields map[string]any) {
	f := newPutFrame(collection, id, fields)
	c.dispatch(f)
	c.broadcast(f)
	c.logger.Debug("merge write sent", "collection", collection, "id", id)
}

// Close shuts down every peer socket and the frame cache. Safe to call
// more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)
	c.frames.Close()
}

// broadcast queues f to every live peer without blocking: a peer whose
// queue is full misses this frame and converges through the others.
func (c *Client) broadcast(f frame) {
	c.mu.Lock()
	peers := make([]*peerConn, len(c.peers))
	copy(peers, c.peers)
	c.mu.Unlock()

	for _, p := range peers {
		select {
		case p.send <- f:
		default:
			c.logger.Debug("peer queue full, dropping frame", "peer", p.url, "frame", f.ID)
		}
	}
}

// dispatch hands an inbound put frame to the subscribed handler. Frames
// are deduped by message id; entries arriving again under a fresh frame id
// flow through, so handlers still see redelivery.
func (c *Client) dispatch(f frame) {
	if f.Err != "" {
		c.logger.Debug("peer reported error", "error", f.Err)
	}
	if len(f.Put) == 0 {
		return
	}
	if f.ID != "" && c.frames.Duplicate(f.ID) {
		return
	}

	for collection, entries := range f.Put {
		c.mu.Lock()
		sub, ok := c.subs[collection]
		c.mu.Unlock()
		if !ok || sub.ctx.Err() != nil {
			continue
		}
		for id, fields := range entries {
			sub.fn(id, fields)
		}
	}
}

// readLoop pumps frames from one peer until the socket fails. Malformed
// JSON drops the frame, not the peer.
func (c *Client) readLoop(p *peerConn) {
	defer p.conn.Close()

	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f frame
		if err := p.conn.ReadJSON(&f); err != nil {
			if isMalformed(err) {
				c.logger.Debug("dropping malformed frame", "peer", p.url, "error", err)
				continue
			}
			c.logger.Debug("peer read loop ended", "peer", p.url, "error", err)
			c.removePeer(p)
			return
		}
		c.dispatch(f)
	}
}

// writeLoop owns all writes to one peer socket: queued frames plus
// keepalive pings.
func (c *Client) writeLoop(p *peerConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case f := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteJSON(f); err != nil {
				c.logger.Debug("peer write failed", "peer", p.url, "error", err)
				p.conn.Close()
				return
			}
		case <-ticker.C:
			if err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("peer ping failed", "peer", p.url, "error", err)
				p.conn.Close()
				return
			}
		case <-c.done:
			_ = p.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			p.conn.Close()
			return
		}
	}
}

func (c *Client) removePeer(p *peerConn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, q := range c.peers {
		if q == p {
			c.peers = append(c.peers[:i], c.peers[i+1:]...)
			return
		}
	}
}

// isMalformed reports whether err came from JSON decoding rather than the
// socket itself.
func isMalformed(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
