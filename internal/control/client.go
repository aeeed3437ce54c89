// Package control implements the machine's control channel: a websocket
// carrying setbutton/settouch requests.
package control

import (
	"context"
	"net"
	"sync"
	"time"

	"cagate/remote/internal/domain"
	"cagate/remote/internal/protocol"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "control")

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 5 * time.Second
	defaultQueueSize        = 64
	closeGrace              = time.Second
	readLimit               = 1 << 20
)

// Config configures a control channel client.
type Config struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// QueueSize bounds the number of encoded requests waiting for the writer.
	QueueSize int
}

// outgoing is one queued frame. A non-nil flushed marks a flush request
// and carries no data.
type outgoing struct {
	data    []byte
	flushed chan struct{}
}

// link is one established socket and the writer feeding it.
type link struct {
	conn *websocket.Conn
	out  chan outgoing
	done chan struct{}
	once sync.Once
}

func (l *link) shutdown() {
	l.once.Do(func() {
		close(l.done)
		_ = l.conn.Close()
	})
}

// Client owns a single control channel connection.
//
// Sends are best-effort: while the channel is not open they are dropped
// silently. Requests are written in call order by one writer goroutine.
// Connect must not be called concurrently with itself.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer

	scope  context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  domain.ConnectionState
	link   *link
	nextID int64
	closed bool

	wg sync.WaitGroup
}

// NewClient creates a disconnected client.
func NewClient(cfg Config) *Client {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	scope, cancel := context.WithCancel(context.Background())
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: cfg.HandshakeTimeout,
			NetDialContext: (&net.Dialer{
				Timeout:   cfg.HandshakeTimeout,
				KeepAlive: 15 * time.Second,
			}).DialContext,
		},
		scope:  scope,
		cancel: cancel,
	}
}

// Start connects in the background. Failures are logged and leave the
// client disconnected.
func (c *Client) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.Connect(ctx); err != nil {
			log.Warnf("connect: %v", err)
		}
	}()
}

// Connect dials the control endpoint and starts the receive and write loops.
// It blocks until the handshake completes or fails. There is no retry.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrClosed
	}
	if c.state == domain.Open {
		c.mu.Unlock()
		return nil
	}
	c.state = domain.Connecting
	c.mu.Unlock()

	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.scope, cancel)
	defer stop()

	log.Infof("connecting to %s", c.cfg.URL)
	conn, _, err := c.dialer.DialContext(dialCtx, c.cfg.URL, nil)
	if err != nil {
		c.setState(domain.Disconnected)
		return &domain.KindError{Kind: domain.ErrConnectionFailure, Err: errors.Wrapf(err, "dial %s", c.cfg.URL)}
	}
	conn.SetReadLimit(readLimit)

	l := &link{
		conn: conn,
		out:  make(chan outgoing, c.cfg.QueueSize),
		done: make(chan struct{}),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		l.shutdown()
		return domain.ErrClosed
	}
	c.link = l
	c.nextID = 0
	c.state = domain.Open
	c.wg.Add(2)
	c.mu.Unlock()

	go c.readLoop(l)
	go c.writeLoop(l)

	log.Infof("control channel open")
	return nil
}

// IsConnected reports whether the channel is open.
func (c *Client) IsConnected() bool {
	return c.State() == domain.Open
}

// State returns the current connection state.
func (c *Client) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SendButton submits a setbutton request.
func (c *Client) SendButton(key, state int) {
	c.submit(func(id int64) protocol.Request { return protocol.NewButton(id, key, state) })
}

// SendTouch submits a settouch request.
func (c *Client) SendTouch(x, y, state int) {
	c.submit(func(id int64) protocol.Request { return protocol.NewTouch(id, x, y, state) })
}

// Click presses key, holds it for hold, then releases it. The release is
// skipped if ctx or the client is cancelled while holding.
func (c *Client) Click(ctx context.Context, key int, hold time.Duration) error {
	if !c.IsConnected() {
		return nil
	}
	c.SendButton(key, protocol.StateDown)

	t := time.NewTimer(hold)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.scope.Done():
		return domain.ErrClosed
	}

	c.SendButton(key, protocol.StateUp)
	return nil
}

// submit assigns the next request id and enqueues the encoded request.
// Holding mu across id assignment and enqueue keeps ids in queue order.
func (c *Client) submit(build func(id int64) protocol.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.Open || c.link == nil {
		return
	}

	c.nextID++
	req := build(c.nextID)
	data, err := protocol.Encode(req)
	if err != nil {
		log.Warnf("%v", err)
		return
	}

	select {
	case c.link.out <- outgoing{data: data}:
		log.Debugf(">>> %s", data)
	default:
		log.Debugf("send queue full, dropping %s id=%d", req.Method, req.ID)
	}
}

// Flush blocks until every request submitted before the call has been
// written. It returns early if the channel drops or ctx ends.
func (c *Client) Flush(ctx context.Context) error {
	c.mu.Lock()
	l := c.link
	c.mu.Unlock()
	if l == nil {
		return nil
	}

	marker := outgoing{flushed: make(chan struct{})}
	select {
	case l.out <- marker:
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-marker.flushed:
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (c *Client) writeLoop(l *link) {
	defer c.wg.Done()

	for {
		select {
		case <-c.scope.Done():
			return
		case <-l.done:
			return
		case msg := <-l.out:
			if msg.flushed != nil {
				close(msg.flushed)
				continue
			}
			_ = l.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := l.conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
				if c.scope.Err() == nil {
					log.Warnf("write error: %v", err)
				}
				c.drop(l)
				return
			}
		}
	}
}

// readLoop drains incoming frames to observe close and liveness. Message
// bodies are not interpreted.
func (c *Client) readLoop(l *link) {
	defer c.wg.Done()

	for {
		_, data, err := l.conn.ReadMessage()
		if err != nil {
			var ce *websocket.CloseError
			switch {
			case c.scope.Err() != nil:
			case errors.As(err, &ce):
				log.Infof("server closed channel: code=%d %s", ce.Code, ce.Text)
			default:
				log.Warnf("read error: %v", err)
			}
			c.drop(l)
			return
		}
		log.Debugf("<<< %d bytes", len(data))
	}
}

// drop releases l and marks the client disconnected if l is still current.
func (c *Client) drop(l *link) {
	c.mu.Lock()
	if c.link == l {
		c.link = nil
		if !c.closed {
			c.state = domain.Disconnected
		}
	}
	c.mu.Unlock()
	l.shutdown()
}

// Close cancels pending operations, attempts a close handshake and releases
// the socket. It is safe to call more than once and never fails.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	l := c.link
	c.link = nil
	if l != nil {
		c.state = domain.Closing
	}
	c.mu.Unlock()

	c.cancel()

	if l != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := l.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace)); err != nil {
			log.Debugf("close handshake: %v", err)
		}
		l.shutdown()
	}

	c.wg.Wait()
	c.setState(domain.Disconnected)
	log.Infof("control channel closed")
}

func (c *Client) setState(s domain.ConnectionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
