package config

import (
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Analysis AnalysisConfig
	Source   SourceConfig
	Square   SquareConfig
	Database DatabaseConfig
	File     FileConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Cache    CacheConfig
	Kafka    KafkaConfig
	Tracing  TracingConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type AnalysisConfig struct {
	WindowDays             int
	Workers                int
	RefreshIntervalSeconds int
	MaxAgeSeconds          int
	DegradedRetrySeconds   int
}

// RefreshInterval is zero when periodic refresh is disabled.
func (a AnalysisConfig) RefreshInterval() time.Duration {
	if a.RefreshIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RefreshIntervalSeconds) * time.Second
}

// MaxAge is how long a run is served before it is refreshed on read; zero
// disables expiry.
func (a AnalysisConfig) MaxAge() time.Duration {
	return time.Duration(max(a.MaxAgeSeconds, 0)) * time.Second
}

func (a AnalysisConfig) DegradedRetry() time.Duration {
	return time.Duration(max(a.DegradedRetrySeconds, 0)) * time.Second
}

type SourceConfig struct {
	Kind           string
	FallbackToDemo bool
	DemoSeed       int64
}

type SquareConfig struct {
	AccessToken           string
	BaseURL               string
	Version               string
	LocationIDs           []string
	TimeoutSeconds        int
	RetryAttempts         int
	DefaultCostRatio      float64
	DefaultMaxStockFactor int
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type FileConfig struct {
	InventoryPath string
	SalesPath     string
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	UseSSL       bool
	InventoryKey string
	SalesKey     string
}

type DriveConfig struct {
	CredentialsJSON string
	FolderID        string
	InventoryFile   string
	SalesFile       string
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTLSeconds    int
}

type KafkaConfig struct {
	Enabled    bool
	Brokers    []string
	AlertTopic string
}

type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	JaegerEndpoint string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.GetViper()
		setDefaults(v)

		// Read from environment variables
		v.AutomaticEnv()

		instance = fromViper(v)
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("ANALYSIS_WINDOW_DAYS", 30)
	v.SetDefault("ANALYSIS_WORKERS", 4)
	v.SetDefault("ANALYSIS_REFRESH_INTERVAL_SECONDS", 0)
	v.SetDefault("ANALYSIS_MAX_AGE_SECONDS", 300)
	v.SetDefault("ANALYSIS_DEGRADED_RETRY_SECONDS", 30)
	v.SetDefault("DATA_SOURCE", "demo")
	v.SetDefault("DATA_FALLBACK_TO_DEMO", true)
	v.SetDefault("DEMO_SEED", 0)
	v.SetDefault("SQUARE_ACCESS_TOKEN", "")
	v.SetDefault("SQUARE_BASE_URL", "https://connect.squareup.com")
	v.SetDefault("SQUARE_VERSION", "2024-01-18")
	v.SetDefault("SQUARE_LOCATION_IDS", []string{})
	v.SetDefault("SQUARE_TIMEOUT_SECONDS", 15)
	v.SetDefault("SQUARE_RETRY_ATTEMPTS", 3)
	v.SetDefault("SQUARE_DEFAULT_COST_RATIO", 0.5)
	v.SetDefault("SQUARE_DEFAULT_MAX_STOCK_FACTOR", 4)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "stockrisk")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("FILE_INVENTORY_PATH", "./data/inventory.csv")
	v.SetDefault("FILE_SALES_PATH", "./data/sales.csv")
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_BUCKET", "stockrisk")
	v.SetDefault("STORAGE_INVENTORY_KEY", "snapshots/inventory.csv")
	v.SetDefault("STORAGE_SALES_KEY", "snapshots/sales.csv")
	v.SetDefault("DRIVE_INVENTORY_FILE", "inventory.csv")
	v.SetDefault("DRIVE_SALES_FILE", "sales.csv")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_SECONDS", 300)
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_ALERT_TOPIC", "inventory-risk-alerts")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_SERVICE_NAME", "stockrisk")
	v.SetDefault("JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: splitList(v.GetStringSlice("SERVER_ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Analysis: AnalysisConfig{
			WindowDays:             v.GetInt("ANALYSIS_WINDOW_DAYS"),
			Workers:                v.GetInt("ANALYSIS_WORKERS"),
			RefreshIntervalSeconds: v.GetInt("ANALYSIS_REFRESH_INTERVAL_SECONDS"),
			MaxAgeSeconds:          v.GetInt("ANALYSIS_MAX_AGE_SECONDS"),
			DegradedRetrySeconds:   v.GetInt("ANALYSIS_DEGRADED_RETRY_SECONDS"),
		},
		Source: SourceConfig{
			Kind:           strings.ToLower(strings.TrimSpace(v.GetString("DATA_SOURCE"))),
			FallbackToDemo: v.GetBool("DATA_FALLBACK_TO_DEMO"),
			DemoSeed:       v.GetInt64("DEMO_SEED"),
		},
		Square: SquareConfig{
			AccessToken:           v.GetString("SQUARE_ACCESS_TOKEN"),
			BaseURL:               v.GetString("SQUARE_BASE_URL"),
			Version:               v.GetString("SQUARE_VERSION"),
			LocationIDs:           splitList(v.GetStringSlice("SQUARE_LOCATION_IDS")),
			TimeoutSeconds:        v.GetInt("SQUARE_TIMEOUT_SECONDS"),
			RetryAttempts:         v.GetInt("SQUARE_RETRY_ATTEMPTS"),
			DefaultCostRatio:      v.GetFloat64("SQUARE_DEFAULT_COST_RATIO"),
			DefaultMaxStockFactor: v.GetInt("SQUARE_DEFAULT_MAX_STOCK_FACTOR"),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("DB_DRIVER"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		File: FileConfig{
			InventoryPath: v.GetString("FILE_INVENTORY_PATH"),
			SalesPath:     v.GetString("FILE_SALES_PATH"),
		},
		Storage: StorageConfig{
			Endpoint:     v.GetString("STORAGE_ENDPOINT"),
			AccessKey:    v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:    v.GetString("STORAGE_SECRET_KEY"),
			Bucket:       v.GetString("STORAGE_BUCKET"),
			Region:       v.GetString("STORAGE_REGION"),
			UseSSL:       v.GetBool("STORAGE_USE_SSL"),
			InventoryKey: v.GetString("STORAGE_INVENTORY_KEY"),
			SalesKey:     v.GetString("STORAGE_SALES_KEY"),
		},
		Drive: DriveConfig{
			CredentialsJSON: v.GetString("DRIVE_CREDENTIALS_JSON"),
			FolderID:        v.GetString("DRIVE_FOLDER_ID"),
			InventoryFile:   v.GetString("DRIVE_INVENTORY_FILE"),
			SalesFile:       v.GetString("DRIVE_SALES_FILE"),
		},
		Cache: CacheConfig{
			Enabled:       v.GetBool("CACHE_ENABLED"),
			RedisURL:      v.GetString("REDIS_URL"),
			RedisHost:     v.GetString("REDIS_HOST"),
			RedisPort:     v.GetString("REDIS_PORT"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTLSeconds:    v.GetInt("CACHE_TTL_SECONDS"),
		},
		Kafka: KafkaConfig{
			Enabled:    v.GetBool("KAFKA_ENABLED"),
			Brokers:    splitList(v.GetStringSlice("KAFKA_BROKERS")),
			AlertTopic: v.GetString("KAFKA_ALERT_TOPIC"),
		},
		Tracing: TracingConfig{
			Enabled:        v.GetBool("TRACING_ENABLED"),
			ServiceName:    v.GetString("TRACING_SERVICE_NAME"),
			JaegerEndpoint: v.GetString("JAEGER_ENDPOINT"),
		},
	}
}

// splitList flattens comma-separated entries, since env values arrive as a
// single string while defaults may already be slices.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
