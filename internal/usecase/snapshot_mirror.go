package usecase

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	drepo "TitaniumDesk/internal/domain/repository"
	"TitaniumDesk/pkg/clock"
	"TitaniumDesk/pkg/logger"
	"TitaniumDesk/pkg/metrics"
)

const DefaultSnapshotKey = "desk:snapshot"

type MirrorConfig struct {
	Key      string
	TTL      time.Duration
	Interval time.Duration
}

// SnapshotMirror writes the latest store snapshot to an external store
// whenever the store version moves.
type SnapshotMirror struct {
	cfg     MirrorConfig
	store   *Store
	sink    drepo.SnapshotStore
	clock   clock.Clock
	log     *logger.Logger
	metrics drepo.Metrics

	mu      sync.Mutex
	synced  uint64
	written bool
	timer   clock.Timer
	stopped bool
}

type MirrorOption func(*SnapshotMirror)

func WithMirrorClock(clk clock.Clock) MirrorOption {
	return func(m *SnapshotMirror) { m.clock = clk }
}

func WithMirrorLogger(l *logger.Logger) MirrorOption {
	return func(m *SnapshotMirror) { m.log = l }
}

func WithMirrorMetrics(mr drepo.Metrics) MirrorOption {
	return func(m *SnapshotMirror) { m.metrics = mr }
}

func NewSnapshotMirror(cfg MirrorConfig, store *Store, sink drepo.SnapshotStore, opts ...MirrorOption) *SnapshotMirror {
	if cfg.Key == "" {
		cfg.Key = DefaultSnapshotKey
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Minute
	}
	m := &SnapshotMirror{
		cfg:     cfg,
		store:   store,
		sink:    sink,
		clock:   clock.Real(),
		log:     logger.Nop(),
		metrics: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(logger.Component("snapshot_mirror"))
	return m
}

func (m *SnapshotMirror) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil || m.stopped {
		return
	}
	m.timer = m.clock.AfterFunc(m.cfg.Interval, m.onTick)
}

// Stop cancels the schedule and writes one final snapshot.
func (m *SnapshotMirror) Stop() error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	stopTimer(&m.timer)
	m.mu.Unlock()

	_, err := m.Sync()
	return err
}

func (m *SnapshotMirror) onTick() {
	if _, err := m.Sync(); err != nil {
		m.metrics.RecordError("snapshot_mirror")
		m.log.Warn("snapshot write failed", logger.Error(err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		m.timer = nil
		return
	}
	m.timer = m.clock.AfterFunc(m.cfg.Interval, m.onTick)
}

// Sync writes the snapshot if the store changed since the last write. The TTL
// is refreshed on every write, so a stale key means the desk stopped mirroring.
func (m *SnapshotMirror) Sync() (bool, error) {
	snap := m.store.Snapshot()

	m.mu.Lock()
	if m.written && snap.Version == m.synced {
		m.mu.Unlock()
		return false, nil
	}
	m.mu.Unlock()

	b, err := json.Marshal(snap)
	if err != nil {
		return false, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := m.sink.SetBytes(m.cfg.Key, b, m.cfg.TTL); err != nil {
		return false, fmt.Errorf("write snapshot: %w", err)
	}

	m.mu.Lock()
	m.synced = snap.Version
	m.written = true
	m.mu.Unlock()
	return true, nil
}

// Last returns the snapshot currently held by the sink.
func (m *SnapshotMirror) Last() (Snapshot, bool, error) {
	b, ok, err := m.sink.GetBytes(m.cfg.Key)
	if err != nil || !ok {
		return Snapshot{}, ok, err
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}
