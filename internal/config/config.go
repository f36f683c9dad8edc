package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Storage  StorageConfig
	Log      LogConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	Port            string
	Mode            string // gin mode: debug, release or test
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver                 string // "sqlite" or "postgres"
	Path                   string // sqlite file
	Host                   string
	Port                   int
	Username               string
	Password               string
	Name                   string
	SSLMode                string
	MaxIdleConns           int
	MaxOpenConns           int
	MaxConnLifetimeSeconds int
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type StorageConfig struct {
	Type           string // "local" or "s3"
	LocalBaseDir   string
	LocalPublicURL string
	S3Endpoint     string
	S3Bucket       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3PublicURL    string
}

type LogConfig struct {
	Level string
	Dir   string
}

type CacheConfig struct {
	StatusTTL time.Duration
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Mode:            getEnv("GIN_MODE", "debug"),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:                 getEnv("DB_DRIVER", "sqlite"),
			Path:                   getEnv("DB_PATH", "./resale.db"),
			Host:                   getEnv("DB_HOST", "localhost"),
			Port:                   dbPort,
			Username:               getEnv("DB_USER", "postgres"),
			Password:               os.Getenv("DB_PASSWORD"),
			Name:                   getEnv("DB_NAME", "resale"),
			SSLMode:                getEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:           getInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:           getInt("DB_MAX_OPEN_CONNS", 100),
			MaxConnLifetimeSeconds: getInt("DB_MAX_CONN_LIFETIME_SECONDS", 3600),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
			AllowedMethods: splitList(getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS")),
			AllowedHeaders: splitList(getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Content-Length,Accept-Encoding,Authorization,Cache-Control,X-Requested-With")),
		},
		Storage: StorageConfig{
			Type:           getEnv("STORAGE_TYPE", "local"),
			LocalBaseDir:   getEnv("STORAGE_LOCAL_BASE_DIR", "./archives"),
			LocalPublicURL: getEnv("STORAGE_LOCAL_PUBLIC_URL", "/api/logs/archives"),
			S3Endpoint:     os.Getenv("STORAGE_S3_ENDPOINT"),
			S3Bucket:       getEnv("STORAGE_S3_BUCKET", "resale-logs"),
			S3Region:       getEnv("STORAGE_S3_REGION", "us-east-1"),
			S3AccessKey:    os.Getenv("STORAGE_S3_ACCESS_KEY"),
			S3SecretKey:    os.Getenv("STORAGE_S3_SECRET_KEY"),
			S3PublicURL:    os.Getenv("STORAGE_S3_PUBLIC_URL"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			Dir:   getEnv("LOG_DIR", "./logs"),
		},
		Cache: CacheConfig{
			StatusTTL: getDuration("STATUS_CACHE_TTL", 10*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Username == "" {
			return fmt.Errorf("DB_USER is required")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.Database.Driver)
	}

	switch c.Storage.Type {
	case "local", "s3":
	default:
		return fmt.Errorf("unsupported STORAGE_TYPE: %s", c.Storage.Type)
	}
	return nil
}

// DSN returns the postgres connection URL.
func (c *DatabaseConfig) DSN() string {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}
	query := dsn.Query()
	query.Add("sslmode", c.SSLMode)
	dsn.RawQuery = query.Encode()
	return dsn.String()
}

// SqliteDSN returns the sqlite file path with connection options. Write
// transactions take the database lock at BEGIN and wait up to the busy
// timeout for it, so concurrent writers queue instead of failing.
func (c *DatabaseConfig) SqliteDSN() string {
	sep := "?"
	if strings.Contains(c.Path, "?") {
		sep = "&"
	}
	return c.Path + sep + "_txlock=immediate&_busy_timeout=10000"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
