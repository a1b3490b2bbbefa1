package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendS3       = "s3"
	BackendSupabase = "supabase"
)

type Config struct {
	Env      string
	Server   ServerConfig
	Storage  StorageConfig
	S3       S3Config
	Supabase SupabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Upload   UploadConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StorageConfig struct {
	Backend        string
	DownloadURLTTL time.Duration
}

type S3Config struct {
	Bucket        string
	AccessKey     string
	SecretKey     string
	Region        string
	Endpoint      string
	UseSSL        bool
	PublicBaseURL string
	PublicRead    bool
}

type SupabaseConfig struct {
	URL    string
	KEY    string
	BUCKET string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type UploadConfig struct {
	MaxFileSize int64
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	bucket := getEnv("AWS_S3_BUCKET", "amazon-fba-images")

	cfg := &Config{
		Env: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:         getEnv("PORT", "8000"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 60*time.Second),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(getEnv("STORAGE_BACKEND", BackendS3)),
			DownloadURLTTL: getDuration("DOWNLOAD_URL_TTL", time.Hour),
		},
		S3: S3Config{
			Bucket:        bucket,
			AccessKey:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Region:        getEnv("AWS_REGION", "us-east-1"),
			Endpoint:      getEnv("S3_ENDPOINT", "s3.amazonaws.com"),
			UseSSL:        getEnvAsBool("S3_USE_SSL", true),
			PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)),
			PublicRead:    getEnvAsBool("S3_PUBLIC_READ", false),
		},
		Supabase: SupabaseConfig{
			URL:    getEnv("SUPABASE_URL", ""),
			KEY:    getEnv("SUPABASE_KEY", ""),
			BUCKET: getEnv("SUPABASE_BUCKET", bucket),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getDuration("MANIFEST_CACHE_TTL", time.Hour),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "image_batches"),
		},
		Upload: UploadConfig{
			MaxFileSize: getEnvAsInt64("MAX_UPLOAD_SIZE", 50*1024*1024), // 50MB
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations that cannot reach a backing store.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendS3:
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are required")
		}
		if c.S3.Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET is required")
		}
	case BackendSupabase:
		if c.Supabase.URL == "" || c.Supabase.KEY == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required")
		}
		if c.Supabase.BUCKET == "" {
			return fmt.Errorf("SUPABASE_BUCKET is required")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
