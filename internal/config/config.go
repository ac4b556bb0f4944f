package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Primary    Primary          `koanf:"primary"`
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	Queue      QueueConfig      `koanf:"queue"`
	Settlement SettlementConfig `koanf:"settlement"`
	Webhook    WebhookConfig    `koanf:"webhook"`
	Worker     WorkerConfig     `koanf:"worker"`
	Logger     LoggerConfig     `koanf:"logger"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// QueueConfig selects the job dispatcher transport. The redis driver is the
// production transport; memory runs everything in-process for local dev.
type QueueConfig struct {
	Driver            string        `koanf:"driver" validate:"required,oneof=redis memory"`
	VisibilityTimeout time.Duration `koanf:"visibility_timeout"`
}

// SettlementConfig drives the simulated payment outcome. In test mode the
// outcome is forced rather than drawn.
type SettlementConfig struct {
	TestMode        bool          `koanf:"test_mode"`
	TestSuccess     bool          `koanf:"test_success"`
	Delay           time.Duration `koanf:"delay"`
	UPISuccessRate  float64       `koanf:"upi_success_rate"`
	CardSuccessRate float64       `koanf:"card_success_rate"`
}

type WebhookConfig struct {
	TestRetrySchedule bool          `koanf:"test_retry_schedule"`
	DeliveryTimeout   time.Duration `koanf:"delivery_timeout"`
}

type WorkerConfig struct {
	Concurrency       int           `koanf:"concurrency" validate:"required"`
	SchedulerInterval time.Duration `koanf:"scheduler_interval" validate:"required"`
	SchedulerBatch    int           `koanf:"scheduler_batch" validate:"required"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

// NewLogger builds the process-wide structured logger.
func (c LoggerConfig) NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider("GATEWAY_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "GATEWAY_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	mainConfig.applyDefaults()

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

func (c *Config) applyDefaults() {
	if c.Settlement.UPISuccessRate == 0 {
		c.Settlement.UPISuccessRate = 0.90
	}
	if c.Settlement.CardSuccessRate == 0 {
		c.Settlement.CardSuccessRate = 0.95
	}
	if c.Webhook.DeliveryTimeout == 0 {
		c.Webhook.DeliveryTimeout = 5 * time.Second
	}
	if c.Queue.VisibilityTimeout == 0 {
		c.Queue.VisibilityTimeout = 2 * time.Minute
	}
}
