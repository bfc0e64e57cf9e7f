package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"TitaniumDesk/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"500ms"`
		RefreshSeconds  int           `yaml:"refresh_seconds" default:"2" validate:"gte=0"`
		Timezone        string        `yaml:"timezone" default:"Local"`
	} `yaml:"server"`
	Log struct {
		Level          string        `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format         string        `yaml:"format" default:"console" validate:"oneof=json console"`
		Output         string        `yaml:"output" default:"stdout"`
		MaxSizeMB      int           `yaml:"max_size_mb" default:"100"`
		MaxBackups     int           `yaml:"max_backups" default:"3"`
		MaxAgeDays     int           `yaml:"max_age_days" default:"7"`
		Compress       bool          `yaml:"compress"`
		DigestEnabled  bool          `yaml:"digest_enabled"`
		DigestTopic    string        `yaml:"digest_topic" default:"titanium.log.digest"`
		DigestInterval time.Duration `yaml:"digest_interval" default:"1m"`
	} `yaml:"log"`
	Uplink struct {
		URL              string        `yaml:"url"`
		PageOrigin       string        `yaml:"page_origin" default:"http://localhost:8000"`
		Path             string        `yaml:"path" default:"/ws"`
		BaseDelay        time.Duration `yaml:"base_delay" default:"3s"`
		MaxAttempts      int           `yaml:"max_attempts" default:"10" validate:"gte=1"`
		HandshakeTimeout time.Duration `yaml:"handshake_timeout" default:"10s"`
		PingInterval     time.Duration `yaml:"ping_interval" default:"30s"`
		PongWait         time.Duration `yaml:"pong_wait" default:"60s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"uplink"`
	Backend struct {
		RestURL string        `yaml:"rest_url"`
		Timeout time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"backend"`
	Desk struct {
		Grace             time.Duration `yaml:"grace" default:"2s"`
		TickPeriod        time.Duration `yaml:"tick_period" default:"1s"`
		ForceTimeout      time.Duration `yaml:"force_timeout" default:"5s"`
		ForceBurst        float64       `yaml:"force_burst" default:"3" validate:"gte=1"`
		ForceRefillPerSec float64       `yaml:"force_refill_per_sec" default:"0.5" validate:"gt=0"`
	} `yaml:"desk"`
	Simulator struct {
		Symbol     string  `yaml:"symbol" default:"XAU/USD"`
		StartPrice float64 `yaml:"start_price" default:"2040.5" validate:"gt=0"`
		Seed       int64   `yaml:"seed"`
	} `yaml:"simulator"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers" validate:"required_if=Enabled true"`
		Topic        string        `yaml:"topic" default:"titanium.uplink.events"`
		RequiredAcks int           `yaml:"required_acks" default:"1"`
		Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=gzip snappy lz4 zstd"`
		Buffer       int           `yaml:"buffer" default:"256"`
		Timeout      time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled   bool          `yaml:"enabled"`
		Addr      string        `yaml:"addr" default:"localhost:6379"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		KeyPrefix string        `yaml:"key_prefix" default:"titanium:"`
		Key       string        `yaml:"key" default:"desk:snapshot"`
		TTL       time.Duration `yaml:"ttl" default:"1m"`
		Interval  time.Duration `yaml:"interval" default:"1s"`
	} `yaml:"redis"`
}

// Load reads .env files (missing ones are skipped), the YAML file at path
// (optional when empty), applies environment overrides, fills defaults and
// validates.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	c.applyEnv()

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("UPLINK_URL"); v != "" {
		c.Uplink.URL = v
	}
	if v := os.Getenv("PAGE_ORIGIN"); v != "" {
		c.Uplink.PageOrigin = v
	}
	if v := os.Getenv("BACKEND_REST_URL"); v != "" {
		c.Backend.RestURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves server.timezone, used for wall-clock labels.
func (c *Config) Location() (*time.Location, error) {
	switch c.Server.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return nil, fmt.Errorf("server.timezone: %w", err)
	}
	return loc, nil
}
