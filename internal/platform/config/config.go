package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Hugozera/apontamento/internal/domain/tenant"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

type Config struct {
	Addr                  string
	Environment           string
	LogLevel              string
	StoreDriver           string
	DatabaseURL           string
	RunMigrations         bool
	MigrationsDir         string
	MongoURI              string
	MongoDatabase         string
	DataEncryptionKey     string
	SubmitTimeout         time.Duration
	StoreTimeout          time.Duration
	ResolveRequirePending bool
	TenantSuffixes        string
	MaxBodyBytes          int64
	RateLimitPerMinute    int
	ReconcileInterval     time.Duration
	ReconcileRepair       bool
	MetricsEnabled        bool
}

// Load reads the environment after applying an optional .env file. Variables
// already set in the environment win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("load .env failed", "err", err)
	}
	return Config{
		Addr:                  getEnv("APP_ADDR", ":8080"),
		Environment:           getEnv("APP_ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		StoreDriver:           strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RunMigrations:         getEnvBool("RUN_MIGRATIONS", true),
		MigrationsDir:         getEnv("MIGRATIONS_DIR", "migrations"),
		MongoURI:              getEnv("MONGO_URI", ""),
		MongoDatabase:         getEnv("MONGO_DATABASE", "apontamento"),
		DataEncryptionKey:     getEnv("DATA_ENCRYPTION_KEY", ""),
		SubmitTimeout:         getEnvDuration("SUBMIT_TIMEOUT", 5*time.Second),
		StoreTimeout:          getEnvDuration("STORE_TIMEOUT", 0),
		ResolveRequirePending: getEnvBool("RESOLVE_REQUIRE_PENDING", false),
		TenantSuffixes:        getEnv("TENANT_SUFFIXES", ""),
		MaxBodyBytes:          int64(getEnvInt("MAX_BODY_BYTES", 2*1048576)),
		RateLimitPerMinute:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		ReconcileInterval:     getEnvDuration("RECONCILE_INTERVAL", time.Hour),
		ReconcileRepair:       getEnvBool("RECONCILE_REPAIR", false),
		MetricsEnabled:        getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// Suffixes parses TENANT_SUFFIXES.
func (c Config) Suffixes() (map[string]string, error) {
	return tenant.ParseSuffixes(c.TenantSuffixes)
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
		if c.Environment == "production" {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in production")
		}
	case StorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case StoreMongo:
		if strings.TrimSpace(c.MongoURI) == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER=mongo")
		}
		if strings.TrimSpace(c.MongoDatabase) == "" {
			return fmt.Errorf("MONGO_DATABASE is required when STORE_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of memory, postgres, mongo")
	}
	if c.Environment == "production" && strings.TrimSpace(c.DataEncryptionKey) == "" {
		return fmt.Errorf("DATA_ENCRYPTION_KEY is required in production")
	}
	if c.SubmitTimeout <= 0 {
		return fmt.Errorf("SUBMIT_TIMEOUT must be positive")
	}
	if c.StoreTimeout < 0 {
		return fmt.Errorf("STORE_TIMEOUT must not be negative")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	suffixes, err := c.Suffixes()
	if err != nil {
		return fmt.Errorf("TENANT_SUFFIXES: %w", err)
	}
	router := tenant.NewRouter(suffixes)
	seen := map[string]string{}
	for _, tenantID := range router.Tenants() {
		suffix := router.Suffix(tenantID)
		if other, ok := seen[suffix]; ok {
			return fmt.Errorf("TENANT_SUFFIXES: tenants %q and %q share suffix %q", other, tenantID, suffix)
		}
		seen[suffix] = tenantID
	}
	return nil
}
