package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"TitaniumDesk/internal/domain/models"
	drepo "TitaniumDesk/internal/domain/repository"
	"TitaniumDesk/internal/service/ratelimit"
	"TitaniumDesk/internal/service/simulator"
	"TitaniumDesk/pkg/clock"
	xhttp "TitaniumDesk/pkg/http"
	"TitaniumDesk/pkg/logger"
	"TitaniumDesk/pkg/metrics"

	"github.com/google/uuid"
)

const (
	SimInitID      = "sim-init"
	simInitMessage = "UPLINK SEVERED. ENGAGING OFFLINE SIMULATION PROTOCOL."
	apiUnreachable = "EXECUTION FAILED: API Unreachable"
)

var (
	ErrDeskStopped = errors.New("desk stopped")
	ErrInvalidSide = errors.New("side must be BUY or SELL")
)

type DeskConfig struct {
	Grace             time.Duration // watchdog window before simulation engages
	TickPeriod        time.Duration
	ForceTimeout      time.Duration
	ForceBurst        float64
	ForceRefillPerSec float64
}

func (c *DeskConfig) withDefaults() {
	if c.Grace <= 0 {
		c.Grace = 2 * time.Second
	}
	if c.TickPeriod <= 0 {
		c.TickPeriod = time.Second
	}
	if c.ForceTimeout <= 0 {
		c.ForceTimeout = 5 * time.Second
	}
	if c.ForceBurst <= 0 {
		c.ForceBurst = 3
	}
	if c.ForceRefillPerSec <= 0 {
		c.ForceRefillPerSec = 0.5
	}
}

type DeskOption func(*Desk)

func WithDeskClock(clk clock.Clock) DeskOption {
	return func(d *Desk) { d.clock = clk }
}

func WithDeskLogger(l *logger.Logger) DeskOption {
	return func(d *Desk) { d.log = l }
}

func WithDeskMetrics(m drepo.Metrics) DeskOption {
	return func(d *Desk) { d.metrics = m }
}

func WithLimiter(l *ratelimit.Limiter) DeskOption {
	return func(d *Desk) { d.limiter = l }
}

// Desk wires the uplink, the fallback simulator and the view-model store.
// Real and simulated data are mutually exclusive: a confirmed connection
// always stops the simulator.
type Desk struct {
	cfg     DeskConfig
	store   *Store
	uplink  drepo.Uplink
	engine  *simulator.Engine
	gateway drepo.OrderGateway
	limiter *ratelimit.Limiter
	clock   clock.Clock
	log     *logger.Logger
	metrics drepo.Metrics

	mu       sync.Mutex
	started  bool
	stopped  bool
	watchdog clock.Timer
	tick     clock.Timer
	unsub    func()
}

func NewDesk(
	cfg DeskConfig,
	store *Store,
	uplink drepo.Uplink,
	engine *simulator.Engine,
	gateway drepo.OrderGateway,
	opts ...DeskOption,
) *Desk {
	cfg.withDefaults()
	d := &Desk{
		cfg:     cfg,
		store:   store,
		uplink:  uplink,
		engine:  engine,
		gateway: gateway,
		clock:   clock.Real(),
		log:     logger.Nop(),
		metrics: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.limiter == nil {
		d.limiter = ratelimit.New(d.clock)
	}
	d.log = d.log.With(logger.Component("desk"))
	return d
}

// Start subscribes to the uplink, arms the watchdog and connects.
func (d *Desk) Start() {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.unsub = d.uplink.Subscribe(d.onUplinkEvent)
	d.armWatchdogLocked()
	d.mu.Unlock()

	d.log.Info("desk started", logger.Duration("grace_ms", d.cfg.Grace))
	d.uplink.Connect()
}

// Stop clears every timer, drops the uplink subscription and closes the uplink.
// No callback mutates the store afterwards.
func (d *Desk) Stop() error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	stopTimer(&d.watchdog)
	stopTimer(&d.tick)
	unsub := d.unsub
	d.unsub = nil
	d.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if err := d.uplink.Close(); err != nil {
		return fmt.Errorf("desk stop: %w", err)
	}
	d.log.Info("desk stopped")
	return nil
}

func (d *Desk) Store() *Store { return d.store }

func (d *Desk) Snapshot() Snapshot { return d.store.Snapshot() }

func (d *Desk) Simulated() bool { return d.store.Simulated() }

func (d *Desk) UplinkStats() models.UplinkStats { return d.uplink.Stats() }

// Send passes an outbound message to the uplink. Dropped unless connected.
func (d *Desk) Send(msgType string, payload map[string]any) {
	d.uplink.Send(msgType, payload)
}

// ForceTrade issues a manual override. While simulated the request is refused
// locally with a WARNING entry. Transport failures and non-2xx replies become
// distinct ERROR entries and are reported in the result, never as an error.
func (d *Desk) ForceTrade(ctx context.Context, side models.OrderSide) (models.ForceResult, error) {
	res := models.ForceResult{Side: side}
	if !side.Valid() {
		return res, ErrInvalidSide
	}

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return res, ErrDeskStopped
	}
	simulated := d.store.Simulated()
	d.mu.Unlock()

	if simulated {
		res.Simulated = true
		d.appendLog(models.LevelWarning, fmt.Sprintf("SIMULATION MODE: Cannot execute real %s order.", side))
		return res, nil
	}

	if !d.limiter.Allow("force:"+string(side), d.cfg.ForceBurst, d.cfg.ForceRefillPerSec) {
		res.Throttled = true
		d.appendLog(models.LevelWarning, fmt.Sprintf("THROTTLED: manual %s override rate limited.", side))
		return res, nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.ForceTimeout)
	defer cancel()
	start := d.clock.Now()
	err := d.gateway.Force(ctx, side)
	d.metrics.RecordLatency("force_trade", d.clock.Now().Sub(start).Seconds())
	if err != nil {
		d.metrics.RecordError("force_trade")
		d.log.Error("failed to execute trade", logger.String("side", string(side)), logger.Error(err))
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			d.appendLog(models.LevelError, fmt.Sprintf("EXECUTION REJECTED: backend returned %d", se.Code))
		} else {
			d.appendLog(models.LevelError, apiUnreachable)
		}
		res.Error = err.Error()
		return res, nil
	}

	res.Forwarded = true
	d.log.Info("manual override forwarded", logger.String("side", string(side)))
	return res, nil
}

func (d *Desk) onUplinkEvent(ev models.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if d.store.Apply(ev) {
		d.metrics.RecordEvent(string(ev.Type), "uplink")
	}
	if ev.Type == models.EventTicker && ev.Ticker != nil {
		d.metrics.RecordLastPrice(ev.Ticker.Symbol, ev.Ticker.Price)
	}
	if ev.Type != models.EventSystemStatus || ev.Status == nil || ev.Status.Connected == nil {
		return
	}

	if *ev.Status.Connected {
		stopTimer(&d.watchdog)
		d.deactivateLocked()
		return
	}
	if d.uplink.Stats().State == models.LinkExhausted {
		stopTimer(&d.watchdog)
		d.activateLocked()
		return
	}
	if !d.store.Simulated() && d.watchdog == nil {
		d.armWatchdogLocked()
	}
}

func (d *Desk) armWatchdogLocked() {
	d.watchdog = d.clock.AfterFunc(d.cfg.Grace, d.onWatchdog)
}

func (d *Desk) onWatchdog() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.watchdog = nil
	if d.stopped || d.store.Connected() {
		return
	}
	d.activateLocked()
}

func (d *Desk) activateLocked() {
	if !d.store.SetSimulated(true) {
		return
	}
	d.store.AppendLog(models.LogEntry{
		ID:        SimInitID,
		Timestamp: models.Stamp(d.clock.Now()),
		Level:     models.LevelWarning,
		Message:   simInitMessage,
	})
	d.metrics.RecordSimulation(true)
	d.log.Warn("uplink not confirmed, simulation engaged")
	d.tick = d.clock.AfterFunc(d.cfg.TickPeriod, d.onTick)
}

func (d *Desk) deactivateLocked() {
	stopTimer(&d.tick)
	if d.store.SetSimulated(false) {
		d.metrics.RecordSimulation(false)
		d.log.Info("uplink confirmed, simulation disengaged")
	}
}

func (d *Desk) onTick() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tick = nil
	if d.stopped || !d.store.Simulated() || d.store.Connected() {
		return
	}

	t := d.engine.Step(d.clock.Now())
	d.store.Apply(models.TickerEvent(t.Ticker))
	d.metrics.RecordEvent(string(models.EventTicker), "simulator")
	if t.Regime != nil {
		d.store.Apply(models.RegimeEvent(*t.Regime))
		d.metrics.RecordEvent(string(models.EventRegime), "simulator")
	}
	d.store.Apply(models.AccountEvent(t.Account))
	d.metrics.RecordEvent(string(models.EventAccount), "simulator")

	d.tick = d.clock.AfterFunc(d.cfg.TickPeriod, d.onTick)
}

func (d *Desk) appendLog(level models.LogLevel, msg string) {
	d.store.AppendLog(models.LogEntry{
		ID:        uuid.NewString(),
		Timestamp: models.Stamp(d.clock.Now()),
		Level:     level,
		Message:   msg,
	})
}

func stopTimer(t *clock.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
