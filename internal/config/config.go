// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	MoySklad MoySkladConfig
	SmartUp  SmartUpConfig
	Upstream UpstreamConfig
	Creds    CredsConfig
	RunLog   RunLogConfig
	App      AppConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type MoySkladConfig struct {
	BaseURL string
}

type SmartUpConfig struct {
	DefaultServerURL string
	DefaultAPIPath   string
}

// UpstreamConfig bounds every outbound HTTP call: per-request timeout,
// transport retry ceiling, the total time a single call may spend waiting
// out 429 responses, and inter-page delays for paginated collections.
type UpstreamConfig struct {
	RequestTimeout    time.Duration
	MaxRetries        int
	RateWaitBudget    time.Duration
	ProductPageDelay  time.Duration
	DocumentPageDelay time.Duration
	BatchSize         int
	BatchDelay        time.Duration
	ReportDeadline    time.Duration
}

type CredsConfig struct {
	UseRedis      bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

type RunLogConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AppConfig struct {
	UploadDir string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 30)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 300)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("MOYSKLAD_BASE_URL", "https://api.moysklad.ru/api/remap/1.2")
		viper.SetDefault("SMARTUP_SERVER_URL", "https://smartup.online")
		viper.SetDefault("SMARTUP_API_PATH", "/api/v1/products")
		viper.SetDefault("UPSTREAM_REQUEST_TIMEOUT_SECONDS", 30)
		viper.SetDefault("UPSTREAM_MAX_RETRIES", 3)
		viper.SetDefault("UPSTREAM_RATE_WAIT_BUDGET_SECONDS", 60)
		viper.SetDefault("UPSTREAM_PRODUCT_PAGE_DELAY_MS", 500)
		viper.SetDefault("UPSTREAM_DOCUMENT_PAGE_DELAY_MS", 300)
		viper.SetDefault("UPSTREAM_BATCH_SIZE", 5)
		viper.SetDefault("UPSTREAM_BATCH_DELAY_MS", 200)
		viper.SetDefault("UPSTREAM_REPORT_DEADLINE_SECONDS", 600)
		viper.SetDefault("CREDS_USE_REDIS", false)
		viper.SetDefault("CREDS_REDIS_URL", "")
		viper.SetDefault("CREDS_REDIS_HOST", "127.0.0.1")
		viper.SetDefault("CREDS_REDIS_PORT", "6379")
		viper.SetDefault("CREDS_REDIS_PASSWORD", "")
		viper.SetDefault("CREDS_REDIS_DB", 0)
		viper.SetDefault("CREDS_TTL_HOURS", 168)
		viper.SetDefault("RUNLOG_ENABLED", false)
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "toolbox")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("APP_UPLOAD_DIR", "./data/uploads")

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure the upload directory exists
		ensureDir(viper.GetString("APP_UPLOAD_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			MoySklad: MoySkladConfig{
				BaseURL: viper.GetString("MOYSKLAD_BASE_URL"),
			},
			SmartUp: SmartUpConfig{
				DefaultServerURL: viper.GetString("SMARTUP_SERVER_URL"),
				DefaultAPIPath:   viper.GetString("SMARTUP_API_PATH"),
			},
			Upstream: UpstreamConfig{
				RequestTimeout:    time.Duration(viper.GetInt("UPSTREAM_REQUEST_TIMEOUT_SECONDS")) * time.Second,
				MaxRetries:        viper.GetInt("UPSTREAM_MAX_RETRIES"),
				RateWaitBudget:    time.Duration(viper.GetInt("UPSTREAM_RATE_WAIT_BUDGET_SECONDS")) * time.Second,
				ProductPageDelay:  time.Duration(viper.GetInt("UPSTREAM_PRODUCT_PAGE_DELAY_MS")) * time.Millisecond,
				DocumentPageDelay: time.Duration(viper.GetInt("UPSTREAM_DOCUMENT_PAGE_DELAY_MS")) * time.Millisecond,
				BatchSize:         viper.GetInt("UPSTREAM_BATCH_SIZE"),
				BatchDelay:        time.Duration(viper.GetInt("UPSTREAM_BATCH_DELAY_MS")) * time.Millisecond,
				ReportDeadline:    time.Duration(viper.GetInt("UPSTREAM_REPORT_DEADLINE_SECONDS")) * time.Second,
			},
			Creds: CredsConfig{
				UseRedis:      viper.GetBool("CREDS_USE_REDIS"),
				RedisURL:      viper.GetString("CREDS_REDIS_URL"),
				RedisHost:     viper.GetString("CREDS_REDIS_HOST"),
				RedisPort:     viper.GetString("CREDS_REDIS_PORT"),
				RedisPassword: viper.GetString("CREDS_REDIS_PASSWORD"),
				RedisDB:       viper.GetInt("CREDS_REDIS_DB"),
				TTL:           time.Duration(viper.GetInt("CREDS_TTL_HOURS")) * time.Hour,
			},
			RunLog: RunLogConfig{
				Enabled:  viper.GetBool("RUNLOG_ENABLED"),
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			App: AppConfig{
				UploadDir: viper.GetString("APP_UPLOAD_DIR"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
