package config

import (
	"os"
	"time"
)

type Config struct {
	AppPort string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string

	JWTSecret  string
	AccessTTL  time.Duration
	SessionTTL time.Duration

	RequestTimeout time.Duration

	PrivateKeyPath string
	PublicKeyPath  string

	TFAIssuer string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

func Load() Config {

	cfg := Config{

		AppPort: getEnv("APP_PORT", "8080"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		AccessTTL:  getDuration("JWT_ACCESS_TTL", 15*time.Minute),
		SessionTTL: getDuration("JWT_SESSION_TTL", 24*time.Hour),

		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),

		PrivateKeyPath: os.Getenv("PRIVATE_KEY_PATH"),
		PublicKeyPath:  os.Getenv("PUBLIC_KEY_PATH"),

		TFAIssuer: getEnv("TFA_ISSUER", "InstaShare"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
	}

	return cfg

}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
