package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/taskflow/task-tracker-api/internal/constants"
)

type Config struct {
	Port          string
	JWTSecret     string
	TokenTTL      time.Duration
	DBDriver      string
	DatabaseURL   string
	Environment   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	OpenAIAPIKey  string
	StrictTenancy bool
	SeedOnStart   bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "3000"),
		JWTSecret:     getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-this-in-production"),
		TokenTTL:      getEnvDuration("JWT_TTL", constants.DefaultTokenTTL),
		DBDriver:      getEnv("DB_DRIVER", "sqlite"),
		DatabaseURL:   getEnv("DATABASE_URL", "./tasks.sqlite"),
		Environment:   getEnv("APP_ENV", "development"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		StrictTenancy: getEnvBool("STRICT_TENANCY", false),
		SeedOnStart:   getEnvBool("SEED_ON_START", true),
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GinMode maps the environment mode onto a gin mode.
func (c *Config) GinMode() string {
	switch c.Environment {
	case "production":
		return "release"
	case "test":
		return "test"
	default:
		return "debug"
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
