package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Files    FilesConfig
	Approval ApprovalConfig
	Jobs     JobsConfig
	App      AppConfig
}

type ServerConfig struct {
	Port           string
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	DSN      string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type FilesConfig struct {
	Backend  string
	Dir      string
	S3Bucket string
	S3Region string
	S3Prefix string
}

type ApprovalConfig struct {
	Markers      []string
	OverrideMode string
}

type JobsConfig struct {
	OverdueReportCron string
}

type AppConfig struct {
	Environment  string
	LogLevel     string
	LogFile      string
	Version      string
	StoreBackend string
}

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"

	FilesLocal = "local"
	FilesS3    = "s3"
)

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 20),
			RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 40),
			CORSOrigins:    getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "docregister"),
			DSN:      getEnv("DB_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Files: FilesConfig{
			Backend:  getEnv("FILES_BACKEND", FilesLocal),
			Dir:      getEnv("FILES_DIR", "data/files"),
			S3Bucket: getEnv("S3_BUCKET", ""),
			S3Region: getEnv("S3_REGION", "eu-central-1"),
			S3Prefix: getEnv("S3_PREFIX", "revisions/"),
		},
		Approval: ApprovalConfig{
			Markers:      getEnvAsList("APPROVAL_MARKERS", []string{"APPROVED", "ONAYLANDI"}),
			OverrideMode: getEnv("APPROVAL_OVERRIDE_MODE", "retain"),
		},
		Jobs: JobsConfig{
			OverdueReportCron: getEnvOrEmpty("OVERDUE_REPORT_CRON", "0 0 6 * * *"),
		},
		App: AppConfig{
			Environment:  getEnv("APP_ENV", "development"),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			LogFile:      getEnv("LOG_FILE", ""),
			Version:      getEnv("APP_VERSION", "1.0.0"),
			StoreBackend: getEnv("STORE_BACKEND", StoreMemory),
		},
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = cfg.Database.URL()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.App.StoreBackend {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.App.StoreBackend)
	}

	switch c.Files.Backend {
	case FilesLocal:
		if c.Files.Dir == "" {
			return fmt.Errorf("FILES_DIR is required")
		}
	case FilesS3:
		if c.Files.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required")
		}
	default:
		return fmt.Errorf("unknown FILES_BACKEND %q", c.Files.Backend)
	}

	switch c.Approval.OverrideMode {
	case "retain", "recompute":
	default:
		return fmt.Errorf("unknown APPROVAL_OVERRIDE_MODE %q", c.Approval.OverrideMode)
	}

	if len(c.Approval.Markers) == 0 {
		return fmt.Errorf("APPROVAL_MARKERS must not be empty")
	}

	return nil
}

// URL builds a pgx connection URL from the discrete DB_* settings.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrEmpty lets an explicitly empty variable switch a feature off.
func getEnvOrEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
