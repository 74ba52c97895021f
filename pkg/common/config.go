package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddress string
	DebugAddress  string
	DataDir       string
	Country       string
	RedisUrl      string
	RedisPassword string
	DatabaseUrl   string
	RabbitUrl     string
	JwtSecret     string
	LogLevel      string
	DraftTTL      time.Duration
	RefundWindow  time.Duration
	Timeouts      TimeoutConfig
}

// LoadConfig reads the environment, a .env file in the working directory is loaded
// first when present. It reports whether the file was found.
func LoadConfig() (*Config, bool) {
	found := godotenv.Load() == nil
	return &Config{
		ListenAddress: getEnv("LISTEN_ADDRESS", ":8080"),
		DebugAddress:  getEnv("DEBUG_ADDRESS", ":8081"),
		DataDir:       getEnv("DATA_DIR", "data"),
		Country:       getEnv("COUNTRY", "vn"),
		RedisUrl:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		DatabaseUrl:   getEnv("DATABASE_URL", ""),
		RabbitUrl:     getEnv("RABBIT_HOST", ""),
		JwtSecret:     getEnv("JWT_SECRET", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DraftTTL:      getDuration("DRAFT_TTL", 30*time.Minute),
		RefundWindow:  time.Duration(getInt("REFUND_WINDOW_DAYS", 60)) * 24 * time.Hour,
		Timeouts: LoadTimeoutConfig(TimeoutConfig{
			ReadHeader: 5 * time.Second,
			Read:       15 * time.Second,
			Write:      15 * time.Second,
			Idle:       60 * time.Second,
			Shutdown:   15 * time.Second,
			Hook:       5 * time.Second,
		}),
	}, found
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return fallback
}

// getDuration accepts a Go duration ("45m") or a number of seconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
