package usecase

import (
	"sync"

	"TitaniumDesk/internal/domain/models"
	"TitaniumDesk/pkg/clock"
)

const (
	// LogCapacity bounds the system log ring buffer.
	LogCapacity = 100
	// ChartWindow is the number of ticker samples kept for charting.
	ChartWindow = 50
)

// Snapshot is a deep copy of the display state.
type Snapshot struct {
	System    models.ConnectionState `json:"system"`
	Simulated bool                   `json:"simulated"`
	Ticker    *models.Ticker         `json:"ticker"`
	Regime    *models.Regime         `json:"regime"`
	Account   *models.Account        `json:"account"`
	Logs      []models.LogEntry      `json:"logs"`
	Trades    []models.Trade         `json:"trades"`
	Chart     []models.ChartPoint    `json:"chart"`
	Version   uint64                 `json:"version"`
}

// Store folds inbound events into the current display state.
type Store struct {
	clock clock.Clock

	mu        sync.RWMutex
	system    models.ConnectionState
	simulated bool
	ticker    *models.Ticker
	regime    *models.Regime
	account   *models.Account
	logs      []models.LogEntry
	trades    []models.Trade
	chart     []models.ChartPoint
	version   uint64
}

func NewStore(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.Real()
	}
	return &Store{
		clock:  clk,
		logs:   make([]models.LogEntry, 0, LogCapacity),
		trades: []models.Trade{},
		chart:  make([]models.ChartPoint, 0, ChartWindow),
	}
}

// Apply folds one event. Unknown or empty events are ignored and reported false.
func (s *Store) Apply(ev models.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case models.EventSystemStatus:
		if ev.Status == nil {
			return false
		}
		patch := *ev.Status
		if patch.LastUpdate == nil {
			stamp := models.Stamp(s.clock.Now())
			patch.LastUpdate = &stamp
		}
		s.system = patch.Apply(s.system)
	case models.EventTicker:
		if ev.Ticker == nil {
			return false
		}
		t := *ev.Ticker
		s.ticker = &t
		s.appendChartLocked(t)
	case models.EventRegime:
		if ev.Regime == nil {
			return false
		}
		r := *ev.Regime
		s.regime = &r
	case models.EventAccount:
		if ev.Account == nil {
			return false
		}
		a := *ev.Account
		s.account = &a
	case models.EventLog:
		if ev.Log == nil {
			return false
		}
		s.appendLogLocked(*ev.Log)
	case models.EventTradeHistory:
		trades := make([]models.Trade, len(ev.Trades))
		copy(trades, ev.Trades)
		s.trades = trades
	default:
		return false
	}
	s.version++
	return true
}

// AppendLog adds a locally generated entry to the log console.
func (s *Store) AppendLog(e models.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLogLocked(e)
	s.version++
}

// SetSimulated flips the simulation flag and reports whether it changed.
func (s *Store) SetSimulated(on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.simulated == on {
		return false
	}
	s.simulated = on
	s.version++
	return true
}

func (s *Store) Simulated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.simulated
}

func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.system.Connected
}

// Version increases on every mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		System:    s.system,
		Simulated: s.simulated,
		Logs:      append([]models.LogEntry{}, s.logs...),
		Trades:    append([]models.Trade{}, s.trades...),
		Chart:     append([]models.ChartPoint{}, s.chart...),
		Version:   s.version,
	}
	if s.ticker != nil {
		t := *s.ticker
		snap.Ticker = &t
	}
	if s.regime != nil {
		r := *s.regime
		snap.Regime = &r
	}
	if s.account != nil {
		a := *s.account
		snap.Account = &a
	}
	return snap
}

func (s *Store) appendLogLocked(e models.LogEntry) {
	if len(s.logs) == LogCapacity {
		copy(s.logs, s.logs[1:])
		s.logs = s.logs[:LogCapacity-1]
	}
	s.logs = append(s.logs, e)
}

func (s *Store) appendChartLocked(t models.Ticker) {
	score := 0.0
	if s.regime != nil {
		score = s.regime.Score
	}
	if len(s.chart) == ChartWindow {
		copy(s.chart, s.chart[1:])
		s.chart = s.chart[:ChartWindow-1]
	}
	s.chart = append(s.chart, models.ChartPoint{Time: t.Timestamp, Price: t.Price, RegimeScore: score})
}
