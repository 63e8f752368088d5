package config

import "time"

// Chat definition chat_service YAML structure
type Chat struct {
	Port         string        `mapstructure:"port"`
	GRPCPort     string        `mapstructure:"grpc_port"`
	StoreDriver  string        `mapstructure:"store_driver"` // mongo | postgres | memory
	StoreTimeout time.Duration `mapstructure:"store_timeout"`
	Pprof        bool          `mapstructure:"pprof"`

	MongoSQL   DatabaseConfig `mapstructure:"mongo"`
	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	Redis      RedisConfig    `mapstructure:"redis"`

	Notifier NotifierConfig  `mapstructure:"notifier"`
	Kafka    KafkaConfig     `mapstructure:"kafka"`
	RabbitMQ RabbitConfig    `mapstructure:"rabbitmq"`
	History  HistoryConfig   `mapstructure:"history"`
	WS       WebsocketConfig `mapstructure:"websocket"`
}

// RedisConfig definition redis setting, sentinels come from .env (see GetRedisSetting)
type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	RedisDB int    `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// NotifierConfig selects the external notification channel
type NotifierConfig struct {
	Driver       string        `mapstructure:"driver"` // kafka | rabbitmq | none
	QueueSize    int           `mapstructure:"queue_size"`
	Timeout      time.Duration `mapstructure:"timeout"`
	BreakerTrips uint32        `mapstructure:"breaker_trips"`
	BreakerReset time.Duration `mapstructure:"breaker_reset"`
}

// KafkaConfig definition kafka notification topic
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryCount    int      `mapstructure:"retry_count"`
	RetryInterval int      `mapstructure:"retry_interval"`
}

// RabbitConfig definition rabbitmq notification exchange
type RabbitConfig struct {
	URL           string `mapstructure:"url"`
	Exchange      string `mapstructure:"exchange"`
	RoutingKey    string `mapstructure:"routing_key"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryInterval int    `mapstructure:"retry_interval"`
}

// HistoryConfig paging defaults for the history api
type HistoryConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}

// WebsocketConfig connection tuning
type WebsocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	RatePerSecond  float64       `mapstructure:"rate_per_second"`
	RateBurst      int           `mapstructure:"rate_burst"`
}

// WithDefaults fills zero values so a sparse YAML still yields a usable service
func (c Chat) WithDefaults() Chat {
	if c.Port == "" {
		c.Port = "8083"
	}
	if c.StoreDriver == "" {
		c.StoreDriver = "mongo"
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = 5 * time.Second
	}
	if c.Notifier.Driver == "" {
		c.Notifier.Driver = "none"
	}
	if c.Notifier.QueueSize <= 0 {
		c.Notifier.QueueSize = 1024
	}
	if c.Notifier.Timeout <= 0 {
		c.Notifier.Timeout = 3 * time.Second
	}
	if c.Notifier.BreakerTrips == 0 {
		c.Notifier.BreakerTrips = 5
	}
	if c.Notifier.BreakerReset <= 0 {
		c.Notifier.BreakerReset = 30 * time.Second
	}
	c.History = c.History.WithDefaults()
	c.WS = c.WS.WithDefaults()
	return c
}

// WithDefaults page=1, limit=20 unless configured
func (h HistoryConfig) WithDefaults() HistoryConfig {
	if h.DefaultPageSize <= 0 {
		h.DefaultPageSize = 20
	}
	if h.MaxPageSize <= 0 {
		h.MaxPageSize = 100
	}
	if h.MaxPageSize < h.DefaultPageSize {
		h.MaxPageSize = h.DefaultPageSize
	}
	return h
}

// WithDefaults websocket keepalive and limits
func (w WebsocketConfig) WithDefaults() WebsocketConfig {
	if w.PongWait <= 0 {
		w.PongWait = 60 * time.Second
	}
	if w.PingInterval <= 0 || w.PingInterval >= w.PongWait {
		w.PingInterval = w.PongWait * 9 / 10
	}
	if w.WriteWait <= 0 {
		w.WriteWait = 10 * time.Second
	}
	if w.MaxMessageSize <= 0 {
		w.MaxMessageSize = 8 * 1024
	}
	if w.SendBuffer <= 0 {
		w.SendBuffer = 256
	}
	if w.RatePerSecond <= 0 {
		w.RatePerSecond = 20
	}
	if w.RateBurst <= 0 {
		w.RateBurst = 40
	}
	return w
}
