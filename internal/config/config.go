package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config agrupa todo lo configurable por entorno.
type Config struct {
	Port string

	// DSN de Postgres. Vacío => repos en memoria (dev/tests).
	DatabaseDSN string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// URL opcional para replicar eventos de dominio vía webhook.
	WebhookURL string

	// Retención por defecto del log de sistema, en días.
	RetentionDays int

	// DevMode deshabilita la verificación JWT: los requests se autentican
	// con el header X-Debug-User-ID. Jamás en producción.
	DevMode bool
}

// Load lee .env si existe y luego el entorno. El .env nunca pisa variables
// ya exportadas (comportamiento de godotenv.Load).
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:          getenv("PORT", "8080"),
		DatabaseDSN:   os.Getenv("DB_DSN"),
		JWTSecret:     getenv("JWT_SECRET", "dev-secret-change-me"),
		AccessTTL:     getduration("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:    getduration("JWT_REFRESH_TTL", 7*24*time.Hour),
		WebhookURL:    os.Getenv("EVENTS_WEBHOOK_URL"),
		RetentionDays: getint("AUDIT_RETENTION_DAYS", 90),
		DevMode:       os.Getenv("DEV_MODE") == "true",
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
