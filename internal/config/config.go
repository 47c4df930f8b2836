package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by MEDBAYES_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("MEDBAYES_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the environment may already be set.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DatabaseURL is optional. Without it consultation history is disabled.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

// NetworksDir is a directory of YAML network definitions served next to the
// built-in diagnosis network. Empty means none.
func NetworksDir() string {
	return os.Getenv("NETWORKS_DIR")
}

// APIKey guards the /v1 routes when set.
func APIKey() string {
	return os.Getenv("API_KEY")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// HighRiskThreshold is the posterior above which a disease is flagged high
// risk. Values outside (0, 1) fall back to 0.5.
func HighRiskThreshold() float64 {
	t, err := strconv.ParseFloat(os.Getenv("HIGH_RISK_THRESHOLD"), 64)
	if err != nil || t <= 0 || t >= 1 {
		return 0.5
	}
	return t
}

// ConsultationRetentionDays is how long consultation history is kept.
// Zero or unset keeps it forever.
func ConsultationRetentionDays() int {
	days, err := strconv.Atoi(os.Getenv("CONSULTATION_RETENTION_DAYS"))
	if err != nil || days < 0 {
		return 0
	}
	return days
}
