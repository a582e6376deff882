package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	AllowCrossSiteDev   bool
	CORSDevPassword     string
	HealthAdminKey      string

	// Rate limiting (per ip+path, process-local).
	RateLimitWindow time.Duration
	RateLimitMax    int

	// Reservation TTL and sweep cadence.
	ReservationTTL        time.Duration
	ReservationSweepEvery time.Duration

	// Credit cap applied per medicine line-item at verification.
	CreditCapPerItem int
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL")
	if env == "test" && viper.GetString("DATABASE_URL_TEST") != "" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}

	return &Config{
		Env:                 env,
		Port:                port,
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		CORSDevPassword:     viper.GetString("CORS_DEV_PASSWORD"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),

		RateLimitWindow:       durationMS("RATE_LIMIT_WINDOW_MS", 60*time.Second),
		RateLimitMax:          intOr("RATE_LIMIT_MAX", 20),
		ReservationTTL:        durationHours("RESERVATION_TTL_HOURS", 72*time.Hour),
		ReservationSweepEvery: durationMS("RESERVATION_SWEEP_INTERVAL_MS", 10*time.Minute),
		CreditCapPerItem:      intOr("CREDIT_CAP_PER_ITEM", 100),
	}, nil
}

func intOr(key string, def int) int {
	if v := viper.GetInt(key); v > 0 {
		return v
	}
	return def
}

func durationMS(key string, def time.Duration) time.Duration {
	if v := viper.GetInt64(key); v > 0 {
		return time.Duration(v) * time.Millisecond
	}
	return def
}

func durationHours(key string, def time.Duration) time.Duration {
	if v := viper.GetInt64(key); v > 0 {
		return time.Duration(v) * time.Hour
	}
	return def
}
