package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration. The client CLI reads the
// client, redis and log sections; the backend and the cron job read the rest.
type Config struct {
	Client    ClientConfig    `yaml:"client"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ClientConfig contains data client settings
type ClientConfig struct {
	BaseURL      string        `yaml:"base_url"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	CacheBackend string        `yaml:"cache_backend"` // "memory" or "redis"
	SessionPath  string        `yaml:"session_path"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Store          string   `yaml:"store"` // "postgres" or "memory"
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// StorageConfig contains image storage settings
type StorageConfig struct {
	Type         string   `yaml:"type"`       // "local" or "s3"
	UploadDir    string   `yaml:"upload_dir"` // For local storage
	BaseURL      string   `yaml:"base_url"`   // Public URL prefix for stored images
	MaxFileSize  int64    `yaml:"max_file_size_mb"`
	MaxDimension int      `yaml:"max_dimension"`
	AllowedTypes []string `yaml:"allowed_types"`
	S3           S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SendGridConfig enables the email mirror of notifications when APIKey is set.
type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
	AppURL    string `yaml:"app_url"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ExpirePendingRequests string        `yaml:"expire_pending_requests"`
	PendingExpiry         time.Duration `yaml:"pending_expiry"`
}

// Load reads configuration from a YAML file. An empty path yields the
// defaults plus environment overrides. A .env file in the working directory
// is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.overrideWithEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Client
	if val := os.Getenv("RENTSNAP_API_URL"); val != "" {
		c.Client.BaseURL = val
	}
	if val := os.Getenv("RENTSNAP_CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Client.CacheTTL = d
		}
	}
	if val := os.Getenv("RENTSNAP_CACHE_BACKEND"); val != "" {
		c.Client.CacheBackend = val
	}
	if val := os.Getenv("RENTSNAP_SESSION_PATH"); val != "" {
		c.Client.SessionPath = val
	}

	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("SERVER_STORE"); val != "" {
		c.Server.Store = val
	}
	if val := os.Getenv("CORS_ALLOWED_ORIGINS"); val != "" {
		c.Server.AllowedOrigins = strings.Split(val, ",")
	}

	// Storage
	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		c.Storage.Type = val
	}
	if val := os.Getenv("UPLOAD_DIR"); val != "" {
		c.Storage.UploadDir = val
	}
	if val := os.Getenv("S3_BUCKET"); val != "" {
		c.Storage.S3.Bucket = val
	}
	if val := os.Getenv("S3_ACCESS_KEY"); val != "" {
		c.Storage.S3.AccessKey = val
	}
	if val := os.Getenv("S3_SECRET_KEY"); val != "" {
		c.Storage.S3.SecretKey = val
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Client.BaseURL == "" {
		c.Client.BaseURL = "http://localhost:8000/api"
	}
	if c.Client.CacheTTL == 0 {
		c.Client.CacheTTL = 30 * time.Second
	}
	if c.Client.CacheBackend == "" {
		c.Client.CacheBackend = "memory"
	}
	if c.Client.PollInterval == 0 {
		c.Client.PollInterval = 10 * time.Second
	}
	if c.Client.Timeout == 0 {
		c.Client.Timeout = 15 * time.Second
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.Store == "" {
		c.Server.Store = "postgres"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 7 * 24 * 60
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.MaxFileSize == 0 {
		c.Storage.MaxFileSize = 10
	}
	if c.Storage.MaxDimension == 0 {
		c.Storage.MaxDimension = 1600
	}
	if len(c.Storage.AllowedTypes) == 0 {
		c.Storage.AllowedTypes = []string{"image/jpeg", "image/png"}
	}
	if c.Storage.S3.Region == "" {
		c.Storage.S3.Region = "us-east-1"
	}

	if c.SendGrid.FromName == "" {
		c.SendGrid.FromName = "RentSnap"
	}

	if c.Scheduler.ExpirePendingRequests == "" {
		c.Scheduler.ExpirePendingRequests = "0 0 * * * *" // hourly
	}
	if c.Scheduler.PendingExpiry == 0 {
		c.Scheduler.PendingExpiry = 24 * time.Hour
	}
}

// ValidateClient checks the settings the CLI needs.
func (c *Config) ValidateClient() error {
	if !strings.HasPrefix(c.Client.BaseURL, "http://") && !strings.HasPrefix(c.Client.BaseURL, "https://") {
		return fmt.Errorf("client base_url must be an http(s) URL: %q", c.Client.BaseURL)
	}
	if c.Client.CacheTTL < 0 {
		return fmt.Errorf("client cache_ttl must not be negative")
	}
	switch c.Client.CacheBackend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("unknown cache backend: %q", c.Client.CacheBackend)
	}
	if c.Client.PollInterval < time.Second {
		return fmt.Errorf("client poll_interval must be at least 1s")
	}
	return nil
}

// ValidateServer checks the settings the backend and the cron job need.
func (c *Config) ValidateServer() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
	switch c.Server.Store {
	case "memory":
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	default:
		return fmt.Errorf("unknown store: %q", c.Server.Store)
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	// Storage validation
	switch c.Storage.Type {
	case "local":
		if c.Storage.UploadDir == "" {
			return fmt.Errorf("upload directory is required")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
	default:
		return fmt.Errorf("unknown storage type: %q", c.Storage.Type)
	}

	if c.SendGrid.APIKey != "" && c.SendGrid.FromEmail == "" {
		return fmt.Errorf("sendgrid from_email is required when an api key is set")
	}
	if c.Scheduler.PendingExpiry <= 0 {
		return fmt.Errorf("scheduler pending_expiry must be positive")
	}
	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// TokenExpiry is the lifetime of issued access tokens.
func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.JWT.AccessTokenExpiry) * time.Minute
}
