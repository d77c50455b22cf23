package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Content   ContentConfig   `mapstructure:"content"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

// ContentConfig selects where the content manifest comes from.
type ContentConfig struct {
	SourceType    string `mapstructure:"source_type"` // local | minio
	Dir           string `mapstructure:"dir"`
	WatchDir      bool   `mapstructure:"watch_dir"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioPrefix   string `mapstructure:"minio_prefix"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

// StorageConfig selects the persistent KV backend for progress data.
type StorageConfig struct {
	Backend    string `mapstructure:"backend"` // mysql | memory
	QuotaBytes int    `mapstructure:"quota_bytes"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("IHK_PREP")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Content source
	viper.BindEnv("content.source_type", "CONTENT_SOURCE_TYPE")
	viper.BindEnv("content.dir", "CONTENT_DIR")
	viper.BindEnv("content.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("content.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("content.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("content.minio_bucket", "MINIO_BUCKET")

	// Storage
	viper.BindEnv("storage.backend", "STORAGE_BACKEND")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Content.SourceType == "" {
		cfg.Content.SourceType = "local"
	}
	if cfg.Content.Dir == "" {
		cfg.Content.Dir = "content"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
	if cfg.Storage.QuotaBytes == 0 {
		cfg.Storage.QuotaBytes = 5 << 20 // localStorage-sized default
	}

	return &cfg, nil
}
