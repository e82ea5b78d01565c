package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string
	Env           string
	APIPrefix     string
	StorageDriver string
	DataFile      string
	DatabaseURL   string
	JWTSecret     string
	JWTIssuer     string
	BcryptCost    int
	CORSOrigins   []string
	OMDBBaseURL   string
	OMDBAPIKey    string
	OMDBTimeout   time.Duration
	LogLevel      slog.Level
	Admin         AdminSeed
}

// AdminSeed describes an administrator account created at startup.
type AdminSeed struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// Enabled reports whether enough fields are set to create the account.
func (a AdminSeed) Enabled() bool {
	return a.Username != "" && a.Email != "" && a.Password != ""
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "5000"),
		Env:         strings.ToLower(fallback(os.Getenv("APP_ENV"), "development")),
		APIPrefix:   normalizePrefix(fallback(os.Getenv("API_PREFIX"), "/api")),
		DataFile:    fallback(os.Getenv("DATA_FILE"), "data/users.json"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "cinevault-backend"),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "http://localhost:5173")),
		OMDBBaseURL: fallback(os.Getenv("OMDB_BASE_URL"), "https://www.omdbapi.com/"),
		OMDBAPIKey:  strings.TrimSpace(os.Getenv("OMDB_API_KEY")),
		Admin: AdminSeed{
			Username: strings.TrimSpace(os.Getenv("ADMIN_USERNAME")),
			Email:    strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
			Phone:    fallback(os.Getenv("ADMIN_PHONE"), "-"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}

	defaultDriver := DriverFile
	if cfg.DatabaseURL != "" {
		defaultDriver = DriverPostgres
	}
	cfg.StorageDriver = strings.ToLower(fallback(os.Getenv("STORAGE_DRIVER"), defaultDriver))

	cost, err := strconv.Atoi(fallback(os.Getenv("BCRYPT_COST"), "10"))
	if err != nil {
		return Config{}, fmt.Errorf("BCRYPT_COST: %w", err)
	}
	if cost < 4 || cost > 31 {
		return Config{}, errors.New("BCRYPT_COST must be between 4 and 31")
	}
	cfg.BcryptCost = cost

	seconds := fallback(os.Getenv("OMDB_TIMEOUT_SECONDS"), "10")
	if s, err := strconv.Atoi(seconds); err == nil && s > 0 {
		cfg.OMDBTimeout = time.Duration(s) * time.Second
	} else {
		cfg.OMDBTimeout = 10 * time.Second
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(fallback(os.Getenv("LOG_LEVEL"), "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	switch cfg.StorageDriver {
	case DriverFile:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required for the postgres storage driver")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// IsProduction reports whether cookies must be marked Secure.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
