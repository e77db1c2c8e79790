package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Telegram struct {
		BotToken   string `env:"BOT_TOKEN,required"`
		APIBaseURL string `env:"TELEGRAM_API_BASE_URL" envDefault:"https://api.telegram.org"`
		// Long-poll timeout for getUpdates, seconds.
		PollTimeoutSec int `env:"TELEGRAM_POLL_TIMEOUT_SEC" envDefault:"50"`
	}

	Database struct {
		Path string `env:"DATABASE_FILE" envDefault:"./data/birthdays.db"`
	}

	Enforcement struct {
		// How often the scanner+sweeper cycle runs.
		ScanInterval time.Duration `env:"SCAN_INTERVAL" envDefault:"24h"`
		// Birthdays within this window are due for enforcement.
		Lookahead time.Duration `env:"BIRTHDAY_LOOKAHEAD" envDefault:"336h"`
		// How long a birthday ban lasts past the birthday itself.
		BanDuration time.Duration `env:"BAN_DURATION" envDefault:"24h"`
		// Max worklist entries processed concurrently within one tick.
		MaxConcurrent int `env:"ENFORCEMENT_MAX_CONCURRENT" envDefault:"10"`
	}

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}
}

func Load() (*Config, error) {
	// .env is optional; in production the variables are set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
