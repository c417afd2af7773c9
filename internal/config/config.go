package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	devAccessSecret  = "oipet-dev-access-secret-change-me"
	devRefreshSecret = "oipet-dev-refresh-secret-change-me"
)

type Config struct {
	Port        string
	AppEnv      string
	FrontendURL string

	MongoURI     string
	MongoDB      string
	MongoTimeout time.Duration
	MongoMaxPool uint64
	StoreDriver  string

	JWTSecret        string
	JWTRefreshSecret string
	JWTExpiresIn     time.Duration
	JWTRefreshIn     time.Duration
	BcryptCost       int
	AdminEmails      []string

	RedisURL        string
	RateLimitAuth   int
	RateLimitWindow time.Duration

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	FirebaseServiceAccountPath string

	SchedulerEnabled         bool
	NotificationDispatchSpec string
	NotificationCleanupSpec  string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	accessTTL, err := ParseDuration(getEnv("JWT_EXPIRES_IN", "1h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	refreshTTL, err := ParseDuration(getEnv("JWT_REFRESH_EXPIRES_IN", "30d"))
	if err != nil {
		return nil, fmt.Errorf("JWT_REFRESH_EXPIRES_IN: %w", err)
	}
	mongoTimeout, err := ParseDuration(getEnv("MONGO_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("MONGO_TIMEOUT: %w", err)
	}
	window, err := ParseDuration(getEnv("RATE_LIMIT_WINDOW", "15m"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW: %w", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "development"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getEnv("MONGO_DB", "oipet_saude"),
		MongoTimeout: mongoTimeout,
		MongoMaxPool: uint64(getEnvInt("MONGO_MAX_POOL", 10)),
		StoreDriver:  strings.ToLower(getEnv("STORE_DRIVER", "mongo")),

		JWTSecret:        getEnv("JWT_SECRET", devAccessSecret),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", devRefreshSecret),
		JWTExpiresIn:     accessTTL,
		JWTRefreshIn:     refreshTTL,
		BcryptCost:       getEnvInt("BCRYPT_COST", 12),
		AdminEmails:      splitList(getEnv("ADMIN_EMAILS", "")),

		RedisURL:        getEnv("REDIS_URL", ""),
		RateLimitAuth:   getEnvInt("RATE_LIMIT_AUTH", 20),
		RateLimitWindow: window,

		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),

		FirebaseServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),

		SchedulerEnabled:         getEnv("SCHEDULER_ENABLED", "true") == "true",
		NotificationDispatchSpec: getEnv("NOTIFICATION_DISPATCH_SPEC", "@every 1m"),
		NotificationCleanupSpec:  getEnv("NOTIFICATION_CLEANUP_SPEC", "0 0 3 * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AllowedOrigins splits FRONTEND_URL, which may list several origins.
func (c *Config) AllowedOrigins() []string { return splitList(c.FrontendURL) }

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool { return c.AppEnv == "development" }

// UsesFallbackSecrets reports whether either signing secret is the built-in one.
func (c *Config) UsesFallbackSecrets() bool {
	return c.JWTSecret == devAccessSecret || c.JWTRefreshSecret == devRefreshSecret
}

// Validate rejects settings that are unsafe or unusable.
func (c *Config) Validate() error {
	if c.JWTExpiresIn <= 0 || c.JWTRefreshIn <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST %d out of range", c.BcryptCost)
	}
	if c.StoreDriver != "mongo" && c.StoreDriver != "memory" {
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if !c.IsProduction() {
		return nil
	}

	if c.UsesFallbackSecrets() {
		return errors.New("JWT_SECRET and JWT_REFRESH_SECRET must be set in production")
	}
	if c.JWTSecret == c.JWTRefreshSecret {
		return errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if len(c.JWTSecret) < 32 || len(c.JWTRefreshSecret) < 32 {
		return errors.New("JWT secrets must be at least 32 bytes")
	}
	if c.StoreDriver == "memory" {
		return errors.New("STORE_DRIVER=memory is not allowed in production")
	}
	return nil
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

// ParseDuration extends time.ParseDuration with a day unit ("30d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.ParseFloat(strings.TrimSuffix(s, "d"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(days * float64(24*time.Hour)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
