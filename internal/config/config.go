package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort string `yaml:"server_port"`

	// StoreDriver selects the entity store: "postgres" or "memory".
	StoreDriver string `yaml:"store_driver"`
	DBHost      string `yaml:"db_host"`
	DBPort      string `yaml:"db_port"`
	DBUser      string `yaml:"db_user"`
	DBPassword  string `yaml:"db_password"`
	DBName      string `yaml:"db_name"`

	// RedisURL is optional; without it revoked tokens are tracked in memory.
	RedisURL  string        `yaml:"redis_url"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	// BlobDriver selects the image store: "s3" or "memory".
	BlobDriver     string `yaml:"blob_driver"`
	S3Endpoint     string `yaml:"s3_endpoint"`
	S3Region       string `yaml:"s3_region"`
	S3Bucket       string `yaml:"s3_bucket"`
	S3AccessKey    string `yaml:"s3_access_key"`
	S3SecretKey    string `yaml:"s3_secret_key"`
	S3PublicURL    string `yaml:"s3_public_url"`
	S3UsePathStyle bool   `yaml:"s3_use_path_style"`

	NATSURL    string `yaml:"nats_url"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
	CORSOrigin string `yaml:"cors_origin"`
}

func defaults() *Config {
	return &Config{
		ServerPort:  "8080",
		StoreDriver: "postgres",
		DBHost:      "localhost",
		DBPort:      "5432",
		DBUser:      "parentingo",
		DBPassword:  "parentingo_dev_password",
		DBName:      "parentingo",
		JWTSecret:   "dev-secret-change-me",
		TokenTTL:    24 * time.Hour,
		BlobDriver:  "memory",
		S3Region:    "us-east-1",
		S3Bucket:    "parentingo-images",
		LogLevel:    "info",
		LogFormat:   "json",
		CORSOrigin:  "*",
	}
}

// Load builds the configuration from, in increasing precedence: built-in
// defaults, the YAML file named by CONFIG_FILE, a .env file in the working
// directory, and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.StoreDriver = getEnv("STORE_DRIVER", cfg.StoreDriver)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.BlobDriver = getEnv("BLOB_DRIVER", cfg.BlobDriver)
	cfg.S3Endpoint = getEnv("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3Region = getEnv("S3_REGION", cfg.S3Region)
	cfg.S3Bucket = getEnv("S3_BUCKET", cfg.S3Bucket)
	cfg.S3AccessKey = getEnv("S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = getEnv("S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.S3PublicURL = getEnv("S3_PUBLIC_URL", cfg.S3PublicURL)
	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.CORSOrigin = getEnv("CORS_ORIGIN", cfg.CORSOrigin)

	var err error
	if cfg.TokenTTL, err = getEnvDuration("TOKEN_TTL", cfg.TokenTTL); err != nil {
		return nil, err
	}
	if cfg.S3UsePathStyle, err = getEnvBool("S3_USE_PATH_STYLE", cfg.S3UsePathStyle); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return errors.New("server port is required")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	switch c.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	switch c.BlobDriver {
	case "memory":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("s3 bucket is required for the s3 blob driver")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.BlobDriver)
	}
	return nil
}

// DatabaseURL is the pgx connection string for the postgres store.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
