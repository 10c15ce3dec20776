package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port             string
	MongoURI         string
	MongoDatabase    string
	MongoTimeoutSecs int
	RedisURL         string

	UserJWTSecret  string
	AdminJWTSecret string
	AdminUser      string
	AdminPass      string
	AdminPassHash  string

	RateLimitPerMin     int
	AdminLoginPerWindow int

	UploadsDir string
	AppURL     string

	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPass         string
	SMTPSecure       bool
	ContactEmailTo   string
	ContactEmailFrom string
	ResetEmailFrom   string

	TMDBAPIKey  string
	TMDBBaseURL string

	ReadTimeoutSecs  int
	WriteTimeoutSecs int
	IdleTimeoutSecs  int
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	cfg := Config{
		Port:             getEnv("PORT", "5000"),
		MongoURI:         getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGODB_DATABASE", "moviehub"),
		MongoTimeoutSecs: getEnvInt("MONGODB_TIMEOUT_SECS", 10),
		RedisURL:         os.Getenv("REDIS_URL"),

		UserJWTSecret:  os.Getenv("USER_JWT_SECRET"),
		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
		AdminUser:      os.Getenv("ADMIN_USER"),
		AdminPass:      os.Getenv("ADMIN_PASS"),
		AdminPassHash:  os.Getenv("ADMIN_PASS_HASH"),

		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MIN", 120),
		AdminLoginPerWindow: getEnvInt("ADMIN_LOGIN_PER_WINDOW", 10),

		UploadsDir: getEnv("UPLOADS_DIR", "uploads"),
		AppURL:     getEnv("APP_URL", "http://localhost:5000"),

		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         getEnvInt("SMTP_PORT", 587),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPass:         os.Getenv("SMTP_PASS"),
		SMTPSecure:       os.Getenv("SMTP_SECURE") == "true",
		ContactEmailTo:   os.Getenv("CONTACT_EMAIL_TO"),
		ContactEmailFrom: os.Getenv("CONTACT_EMAIL_FROM"),
		ResetEmailFrom:   os.Getenv("RESET_EMAIL_FROM"),

		TMDBAPIKey:  os.Getenv("TMDB_API_KEY"),
		TMDBBaseURL: getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),

		ReadTimeoutSecs:  getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
	}

	if cfg.UserJWTSecret == "" {
		return Config{}, fmt.Errorf("USER_JWT_SECRET is required")
	}
	if cfg.AdminJWTSecret == "" {
		return Config{}, fmt.Errorf("ADMIN_JWT_SECRET is required")
	}
	if cfg.AdminUser == "" {
		return Config{}, fmt.Errorf("ADMIN_USER is required")
	}
	if cfg.AdminPass == "" && cfg.AdminPassHash == "" {
		return Config{}, fmt.Errorf("ADMIN_PASS or ADMIN_PASS_HASH is required")
	}
	if cfg.MongoTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("MONGODB_TIMEOUT_SECS must be positive")
	}
	if cfg.RateLimitPerMin <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_PER_MIN must be positive")
	}
	if cfg.AdminLoginPerWindow <= 0 {
		return Config{}, fmt.Errorf("ADMIN_LOGIN_PER_WINDOW must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
