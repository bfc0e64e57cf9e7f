package uplink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"TitaniumDesk/internal/domain/models"
	drepo "TitaniumDesk/internal/domain/repository"
	"TitaniumDesk/pkg/clock"
	"TitaniumDesk/pkg/eventbus"
	"TitaniumDesk/pkg/logger"
	"TitaniumDesk/pkg/metrics"

	"github.com/gorilla/websocket"
)

var ErrClosed = errors.New("uplink: client closed")

// Config controls reconnect pacing and socket keepalive.
type Config struct {
	URL              string
	BaseDelay        time.Duration
	MaxAttempts      int
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	PongWait         time.Duration
	WriteTimeout     time.Duration
}

// Option configures Client.
type Option func(*Client)

// WithDialer replaces the gorilla dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithClock replaces the wall clock used for reconnect scheduling.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithMetrics(m drepo.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client owns at most one connection to the backend event stream and
// republishes decoded events to its subscribers.
//
// State machine: DISCONNECTED -> CONNECTING -> OPEN -> DISCONNECTED ... with
// EXHAUSTED once MaxAttempts consecutive reconnects have failed and CLOSED
// after Close. Both are terminal.
type Client struct {
	cfg     Config
	dialer  Dialer
	clock   clock.Clock
	log     *logger.Logger
	metrics drepo.Metrics
	bus     *eventbus.Bus[models.Event]

	// spawn runs the dial step; tests replace it to dial inline.
	spawn func(func())

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    models.LinkState
	gen      uint64
	attempts int
	opens    int
	dropped  int
	lastErr  error
	conn     Conn
	connDone chan struct{}
	retry    clock.Timer

	writeMu sync.Mutex
}

// New builds a client for cfg.URL. Call Connect to start.
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 3 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:     cfg,
		clock:   clock.Real(),
		log:     logger.Nop(),
		metrics: metrics.Nop{},
		bus:     eventbus.New[models.Event](),
		spawn:   func(f func()) { go f() },
		ctx:     ctx,
		cancel:  cancel,
		state:   models.LinkDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dialer == nil {
		c.dialer = NewGorillaDialer(cfg.HandshakeTimeout)
	}
	c.log = c.log.With(logger.Component("uplink"))
	return c
}

// Connect starts a connection attempt. It is a no-op while a connection is
// in progress or open, and after the client has given up or been closed.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.state != models.LinkDisconnected {
		c.mu.Unlock()
		return
	}
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	c.gen++
	gen := c.gen
	c.setStateLocked(models.LinkConnecting)
	c.mu.Unlock()

	c.log.Info("connecting", logger.String("url", c.cfg.URL))
	c.spawn(func() { c.dial(gen) })
}

// Subscribe registers handler for every inbound event, in arrival order.
func (c *Client) Subscribe(handler func(models.Event)) func() {
	return c.bus.Subscribe(handler)
}

// Send writes {"type": msgType, ...payload} if the connection is open.
// Anything else drops the message silently.
func (c *Client) Send(msgType string, payload map[string]any) {
	c.mu.Lock()
	conn := c.conn
	open := c.state == models.LinkOpen
	c.mu.Unlock()
	if !open || conn == nil {
		c.log.Debug("send dropped, uplink not open", logger.String("type", msgType))
		return
	}

	b, err := models.EncodeOutbound(msgType, payload)
	if err != nil {
		c.log.Warn("encode outbound failed", logger.String("type", msgType), logger.Error(err))
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		c.log.Warn("send failed", logger.String("type", msgType), logger.Error(err))
	}
}

// Stats reports the current connection state.
func (c *Client) Stats() models.UplinkStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := models.UplinkStats{
		State:    c.state,
		URL:      c.cfg.URL,
		Attempts: c.attempts,
		Opens:    c.opens,
		Dropped:  c.dropped,
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

// Close tears the client down. Pending reconnects are cancelled and no
// further events are published.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == models.LinkClosed {
		c.mu.Unlock()
		return nil
	}
	c.gen++
	c.setStateLocked(models.LinkClosed)
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
	conn := c.conn
	c.conn = nil
	c.stopKeepaliveLocked()
	c.mu.Unlock()

	c.cancel()
	if conn == nil {
		return nil
	}
	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	if err := conn.Close(); err != nil {
		return fmt.Errorf("close uplink: %w", err)
	}
	return nil
}

func (c *Client) dial(gen uint64) {
	conn, err := c.dialer.Dial(c.ctx, c.cfg.URL)

	c.mu.Lock()
	if gen != c.gen || c.state != models.LinkConnecting {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.down(gen, err)
		return
	}

	c.conn = conn
	c.attempts = 0
	c.opens++
	c.lastErr = nil
	c.connDone = make(chan struct{})
	done := c.connDone
	c.setStateLocked(models.LinkOpen)
	c.mu.Unlock()

	c.log.Info("uplink established", logger.String("url", c.cfg.URL))
	c.bus.Publish(models.StatusEvent(true))

	if c.cfg.PingInterval > 0 {
		go c.keepalive(conn, done)
	}
	go c.readLoop(gen, conn)
}

func (c *Client) readLoop(gen uint64, conn Conn) {
	if c.cfg.PongWait > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		})
	}

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			c.down(gen, err)
			return
		}

		ev, err := models.DecodeEvent(frame)
		if err != nil {
			c.mu.Lock()
			c.dropped++
			c.mu.Unlock()
			c.metrics.RecordError("malformed_frame")
			c.log.Warn("dropping malformed frame", logger.Error(err), logger.Int("bytes", len(frame)))
			continue
		}

		if !c.current(gen) {
			return
		}
		c.bus.Publish(ev)
	}
}

func (c *Client) keepalive(conn Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.WriteTimeout))
			c.writeMu.Unlock()
			if err != nil {
				c.log.Debug("ping failed", logger.Error(err))
				return
			}
		}
	}
}

// down handles a dial failure or a lost connection for generation gen.
func (c *Client) down(gen uint64, cause error) {
	c.mu.Lock()
	if gen != c.gen || c.state.Terminal() {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.conn = nil
	c.lastErr = cause
	c.stopKeepaliveLocked()

	if c.attempts >= c.cfg.MaxAttempts {
		c.setStateLocked(models.LinkExhausted)
		attempts := c.attempts
		c.mu.Unlock()

		closeQuietly(conn)
		c.metrics.RecordError("uplink_exhausted")
		c.log.Error("uplink retries exhausted, giving up",
			logger.Int("attempts", attempts), logger.Error(cause))
		c.bus.Publish(models.StatusEvent(false))
		c.bus.Publish(models.StatusEvent(false))
		return
	}

	c.attempts++
	delay := ReconnectDelay(c.cfg.BaseDelay, c.attempts)
	attempt := c.attempts
	c.setStateLocked(models.LinkDisconnected)
	c.retry = c.clock.AfterFunc(delay, c.Connect)
	c.mu.Unlock()

	closeQuietly(conn)
	c.metrics.RecordReconnect(delay)
	c.log.Warn("uplink lost, reconnect scheduled",
		logger.Int("attempt", attempt),
		logger.Duration("delay_ms", delay),
		logger.Error(cause))
	c.bus.Publish(models.StatusEvent(false))
}

func (c *Client) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen && c.state == models.LinkOpen
}

func (c *Client) setStateLocked(s models.LinkState) {
	c.state = s
	c.metrics.RecordUplinkState(s)
}

func (c *Client) stopKeepaliveLocked() {
	if c.connDone != nil {
		close(c.connDone)
		c.connDone = nil
	}
}

func closeQuietly(conn Conn) {
	if conn != nil {
		_ = conn.Close()
	}
}
