package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr  string
	GinMode  string
	AppEnv   string
	LogLevel string

	DBUser     string
	DBPassword string
	DBAddr     string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RateCacheTTL  time.Duration

	JWTSecret          string
	TaxWriteRoles      []string
	CORSAllowedOrigins []string
	TaxRulesFile       string
}

// LoadEnv reads the process environment. A .env file in the working
// directory is loaded first when present; real env vars win.
func LoadEnv() Env {
	_ = godotenv.Load()

	appAddr := getenv("APP_ADDR", ":8080")

	return Env{
		AppAddr:  appAddr,
		GinMode:  getenv("GIN_MODE", ""),
		AppEnv:   getenv("APP_ENV", "development"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBUser:     getenv("DB_USER", "root"),
		DBPassword: getenv("DB_PASSWORD", ""),
		DBAddr:     getenv("DB_ADDR", "127.0.0.1:3306"),
		DBName:     getenv("DB_NAME", "title_office"),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),
		RateCacheTTL:  getenvDuration("RATE_CACHE_TTL", 10*time.Minute),

		JWTSecret:          getenv("JWT_SECRET", ""),
		TaxWriteRoles:      splitList(getenv("TAX_WRITE_ROLES", "")),
		CORSAllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		TaxRulesFile:       getenv("TAX_RULES_FILE", ""),
	}
}

func getenv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getenv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getenv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	out := []string{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
