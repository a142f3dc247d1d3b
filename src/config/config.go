package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"auction-engine/src/engine"
)

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Engine     EngineConfig     `envPrefix:"ENGINE_"`
	Log        LogConfig        `envPrefix:"LOG_"`
	RateLimit  RateLimitConfig  `envPrefix:"RATE_LIMIT_"`
	OrderBook  OrderBookConfig  `envPrefix:"ORDERBOOK_"`
	Kafka      KafkaConfig      `envPrefix:"KAFKA_"`
	Simulation SimulationConfig `envPrefix:"SIMULATION_"`

	RequestLoggingDisabled bool  `env:"REQUEST_LOGGING_DISABLED" envDefault:"false"`
	MaintenanceMode        bool  `env:"MAINTENANCE_MODE" envDefault:"false"`
	MaxConcurrentRequests  int64 `env:"MAX_CONCURRENT_REQUESTS" envDefault:"0"`
	MetricsMaxLatencies    int   `env:"METRICS_MAX_LATENCIES" envDefault:"10000"`
}

type EngineConfig struct {
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	BroadcastInterval time.Duration `env:"BROADCAST_INTERVAL" envDefault:"1s"`
	QueueCapacity     int           `env:"QUEUE_CAPACITY" envDefault:"65536"`
}

func (c EngineConfig) Options() engine.Options {
	return engine.Options{
		ShutdownTimeout:   c.ShutdownTimeout,
		BroadcastInterval: c.BroadcastInterval,
		QueueCapacity:     c.QueueCapacity,
	}
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"` // json or pretty
	File   string `env:"FILE"`                     // empty, "none" or "disabled" means stdout only
}

type RateLimitConfig struct {
	Disabled bool          `env:"DISABLED" envDefault:"false"`
	Max      int           `env:"MAX" envDefault:"100"`
	Window   time.Duration `env:"WINDOW" envDefault:"1s"`
}

type OrderBookConfig struct {
	DefaultDepth int `env:"DEFAULT_DEPTH" envDefault:"10"`
	MaxDepth     int `env:"MAX_DEPTH" envDefault:"1000"`
}

// KafkaConfig enables event publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers         []string `env:"BROKERS" envSeparator:","`
	TradeTopic      string   `env:"TRADE_TOPIC" envDefault:"trades"`
	MarketDataTopic string   `env:"MARKET_DATA_TOPIC" envDefault:"market-data"`
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type SimulationConfig struct {
	Enabled  bool          `env:"ENABLED" envDefault:"false"`
	Traders  int           `env:"TRADERS" envDefault:"10"`
	Symbols  []string      `env:"SYMBOLS" envSeparator:"," envDefault:"AAPL,GOOGL,MSFT,TSLA,AMZN"`
	Duration time.Duration `env:"DURATION" envDefault:"0s"` // 0 runs until shutdown
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	env.Must(cfg, env.Parse(cfg))
	return cfg
}
