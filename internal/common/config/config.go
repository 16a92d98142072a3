package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Debug       bool   `env:"DEBUG" envDefault:"false"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"giveaway-raffle"`

	HTTP struct {
		Addr       string `env:"HTTP_ADDR" envDefault:":8080"`
		Origin     string `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`
		AdminToken string `env:"ADMIN_TOKEN"`
		// BotToken authenticates the front-end bot on the join route
		BotToken string `env:"BOT_API_TOKEN"`
	}

	Database struct {
		// sqlite keeps the bot's original single-file storage; postgres for shared deployments
		Driver      string `env:"DB_DRIVER" envDefault:"sqlite"`
		URL         string `env:"DATABASE_URL" envDefault:"giveaway.db"`
		AutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	}

	Redis struct {
		// Empty address disables the member cache and the bot event worker
		Addr           string        `env:"REDIS_ADDR"`
		Password       string        `env:"REDIS_PASSWORD" envDefault:""`
		DB             int           `env:"REDIS_DB" envDefault:"0"`
		EventsStream   string        `env:"REDIS_EVENTS_STREAM" envDefault:"bot:events"`
		ConsumerGroup  string        `env:"REDIS_CONSUMER_GROUP" envDefault:"giveaway_raffle_consumers"`
		ConsumerName   string        `env:"REDIS_CONSUMER_NAME" envDefault:"giveaway_raffle_1"`
		MemberCacheTTL time.Duration `env:"MEMBER_CACHE_TTL" envDefault:"5s"`
	}

	Discord struct {
		BotToken string `env:"DISCORD_BOT_TOKEN,required,notEmpty"`
		GuildID  string `env:"DISCORD_GUILD_ID,required,notEmpty"`
	}

	Raffle struct {
		DefaultRoles       []string      `env:"RAFFLE_DEFAULT_ROLES" envSeparator:","`
		MinTenureDays      int           `env:"RAFFLE_MIN_TENURE_DAYS" envDefault:"7"`
		QueueSize          int           `env:"RAFFLE_QUEUE_SIZE" envDefault:"256"`
		AutoFinishInterval time.Duration `env:"RAFFLE_AUTO_FINISH_INTERVAL" envDefault:"30s"`
	}
}

// Load reads .env (if present) and the process environment into Config.
func Load() (*Config, error) {
	// .env is optional; in production variables are set directly
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: want %s or %s", c.Database.Driver, DriverSQLite, DriverPostgres)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("empty DATABASE_URL")
	}
	if c.Raffle.MinTenureDays < 0 {
		return fmt.Errorf("invalid RAFFLE_MIN_TENURE_DAYS: %d", c.Raffle.MinTenureDays)
	}
	if c.Raffle.QueueSize <= 0 {
		return fmt.Errorf("invalid RAFFLE_QUEUE_SIZE: %d", c.Raffle.QueueSize)
	}
	if c.Raffle.AutoFinishInterval <= 0 {
		return fmt.Errorf("invalid RAFFLE_AUTO_FINISH_INTERVAL: %s", c.Raffle.AutoFinishInterval)
	}
	return nil
}

// RedisEnabled reports whether Redis-backed features should start.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
