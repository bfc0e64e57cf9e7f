package di

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"TitaniumDesk/internal/domain/repository"
	"TitaniumDesk/internal/handler/api"
	internalrepo "TitaniumDesk/internal/repository"
	"TitaniumDesk/internal/service/backend"
	icache "TitaniumDesk/internal/service/cache"
	"TitaniumDesk/internal/service/ratelimit"
	"TitaniumDesk/internal/service/simulator"
	"TitaniumDesk/internal/service/uplink"
	"TitaniumDesk/internal/usecase"
	"TitaniumDesk/pkg/clock"
	"TitaniumDesk/pkg/config"
	xhttp "TitaniumDesk/pkg/http"
	pkgkafka "TitaniumDesk/pkg/kafka"
	"TitaniumDesk/pkg/logger"
	"TitaniumDesk/pkg/metrics"
	"TitaniumDesk/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var _ logger.Publisher = (*pkgkafka.Producer)(nil)

func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the registry served on /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

func ProvideClock() clock.Clock {
	return clock.Real()
}

func ProvideUplinkClient(cfg *config.Config, l *logger.Logger, m repository.Metrics, clk clock.Clock) (*uplink.Client, error) {
	target, err := uplink.ResolveTarget(cfg.Uplink.URL, cfg.Uplink.PageOrigin, cfg.Uplink.Path)
	if err != nil {
		return nil, fmt.Errorf("uplink target: %w", err)
	}
	return uplink.New(uplink.Config{
		URL:              target,
		BaseDelay:        cfg.Uplink.BaseDelay,
		MaxAttempts:      cfg.Uplink.MaxAttempts,
		HandshakeTimeout: cfg.Uplink.HandshakeTimeout,
		PingInterval:     cfg.Uplink.PingInterval,
		PongWait:         cfg.Uplink.PongWait,
		WriteTimeout:     cfg.Uplink.WriteTimeout,
	},
		uplink.WithLogger(l),
		uplink.WithMetrics(m),
		uplink.WithClock(clk),
	), nil
}

func ProvideUplink(c *uplink.Client) repository.Uplink {
	return c
}

// ProvideOrderGateway points the gateway at backend.rest_url, or at the
// uplink's origin when unset.
func ProvideOrderGateway(cfg *config.Config, c *uplink.Client) (repository.OrderGateway, error) {
	base := cfg.Backend.RestURL
	if base == "" {
		origin, err := uplink.HTTPOrigin(c.Stats().URL)
		if err != nil {
			return nil, fmt.Errorf("backend origin: %w", err)
		}
		base = origin
	}
	gw, err := backend.NewGateway(base, cfg.Backend.Timeout)
	if err != nil {
		return nil, fmt.Errorf("backend gateway: %w", err)
	}
	return gw, nil
}

func ProvideSimulator(cfg *config.Config) *simulator.Engine {
	sc := simulator.DefaultConfig()
	sc.Symbol = cfg.Simulator.Symbol
	sc.StartPrice = cfg.Simulator.StartPrice
	seed := cfg.Simulator.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return simulator.New(sc, rand.New(rand.NewSource(seed)))
}

func ProvideStore(clk clock.Clock) *usecase.Store {
	return usecase.NewStore(clk)
}

func ProvideDesk(
	cfg *config.Config,
	store *usecase.Store,
	up repository.Uplink,
	engine *simulator.Engine,
	gw repository.OrderGateway,
	clk clock.Clock,
	l *logger.Logger,
	m repository.Metrics,
) *usecase.Desk {
	return usecase.NewDesk(usecase.DeskConfig{
		Grace:             cfg.Desk.Grace,
		TickPeriod:        cfg.Desk.TickPeriod,
		ForceTimeout:      cfg.Desk.ForceTimeout,
		ForceBurst:        cfg.Desk.ForceBurst,
		ForceRefillPerSec: cfg.Desk.ForceRefillPerSec,
	}, store, up, engine, gw,
		usecase.WithDeskClock(clk),
		usecase.WithDeskLogger(l),
		usecase.WithDeskMetrics(m),
		usecase.WithLimiter(ratelimit.New(clk)),
	)
}

// ProvideKafkaProducer returns nil when neither the tap nor the log digest needs Kafka.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Timeout),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

func ProvideEventTap(cfg *config.Config, producer *pkgkafka.Producer, l *logger.Logger, m repository.Metrics) *usecase.EventTap {
	if producer == nil {
		return nil
	}
	pub := internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
	return usecase.NewEventTap(pub, cfg.Kafka.Buffer, cfg.Kafka.Timeout,
		usecase.WithTapLogger(l),
		usecase.WithTapMetrics(m),
	)
}

// ProvideRedisCache returns nil unless Redis is enabled. An unreachable server
// is logged and retried by the mirror on every tick.
func ProvideRedisCache(cfg *config.Config, l *logger.Logger) *icache.RedisCache {
	if !cfg.Redis.Enabled {
		return nil
	}
	rc := icache.NewRedisCache(icache.RedisConfig{
		Addr:      cfg.Redis.Addr,
		Password:  cfg.Redis.Password,
		DB:        cfg.Redis.DB,
		KeyPrefix: cfg.Redis.KeyPrefix,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		l.Warn("redis not reachable yet", logger.String("addr", cfg.Redis.Addr), logger.Error(err))
	}
	return rc
}

func ProvideSnapshotMirror(
	cfg *config.Config,
	store *usecase.Store,
	rc *icache.RedisCache,
	clk clock.Clock,
	l *logger.Logger,
	m repository.Metrics,
) *usecase.SnapshotMirror {
	if rc == nil {
		return nil
	}
	return usecase.NewSnapshotMirror(usecase.MirrorConfig{
		Key:      cfg.Redis.Key,
		TTL:      cfg.Redis.TTL,
		Interval: cfg.Redis.Interval,
	}, store, rc,
		usecase.WithMirrorClock(clk),
		usecase.WithMirrorLogger(l),
		usecase.WithMirrorMetrics(m),
	)
}

func ProvideHandler(cfg *config.Config, l *logger.Logger, desk *usecase.Desk) (xhttp.Handler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return api.NewDeskHandler(l, desk, loc, cfg.Server.RefreshSeconds), nil
}

func ProvideHTTPServer(cfg *config.Config, l *logger.Logger, reg *prometheus.Registry, h xhttp.Handler) *xhttp.Server {
	return xhttp.NewServer(h,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithLogger(l),
		xhttp.WithRegistry(reg),
	)
}

// ProvideApp assembles the app and attaches the log digest when Kafka is available.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	desk *usecase.Desk,
	up repository.Uplink,
	tap *usecase.EventTap,
	mirror *usecase.SnapshotMirror,
	producer *pkgkafka.Producer,
	rc *icache.RedisCache,
	srv *xhttp.Server,
) *server.App {
	if cfg.Log.DigestEnabled && producer != nil {
		l.AttachDigest(logger.NewDigest(logger.DigestConfig{
			Interval:  cfg.Log.DigestInterval,
			Topic:     cfg.Log.DigestTopic,
			Publisher: producer,
		}))
	}

	app := server.New(l, desk, up, tap, mirror, srv, cfg.Server.ShutdownTimeout)
	if producer != nil && tap == nil {
		app.OnShutdown(producer.Close)
	}
	if rc != nil {
		app.OnShutdown(rc.Close)
	}
	return app
}
