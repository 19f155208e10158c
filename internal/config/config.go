package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// Engine tunables. ToleranceCents 0 means one cent per player.
	ToleranceCents     int64 `env:"TOLERANCE_CENTS" envDefault:"0"`
	LargePaymentCents  int64 `env:"LARGE_PAYMENT_CENTS" envDefault:"100000"`
	SearchNodeBudget   int   `env:"SEARCH_NODE_BUDGET" envDefault:"200000"`
	ProcessingBudgetMS int   `env:"PROCESSING_BUDGET_MS" envDefault:"2000"`

	// Comparator weights; only the ratios matter.
	WeightSimplicity   float64 `env:"COMPARE_WEIGHT_SIMPLICITY" envDefault:"0.35"`
	WeightFairness     float64 `env:"COMPARE_WEIGHT_FAIRNESS" envDefault:"0.20"`
	WeightEfficiency   float64 `env:"COMPARE_WEIGHT_EFFICIENCY" envDefault:"0.30"`
	WeightFriendliness float64 `env:"COMPARE_WEIGHT_FRIENDLINESS" envDefault:"0.15"`

	OrganizerTokenTTLHours int `env:"ORGANIZER_TOKEN_TTL_HOURS" envDefault:"72"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
