package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	HTTP       HTTPConfig
	JWT        JWTConfig
	Auth       AuthConfig
	Storage    StorageConfig
	Redis      RedisConfig
	Upload     UploadConfig
	Render     RenderConfig
	Extraction ExtractionConfig
	Telemetry  TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// AuthConfig holds the service accounts allowed to log in
type AuthConfig struct {
	// Users is a list of "username:bcrypt-hash" entries
	Users []string
}

// Storage drivers
const (
	StorageDriverS3         = "s3"
	StorageDriverFilesystem = "filesystem"
	StorageDriverMemory     = "memory"
)

// StorageConfig holds object storage settings
type StorageConfig struct {
	Driver            string // s3, filesystem, memory
	Bucket            string // default bucket
	Region            string
	Endpoint          string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
	BasePath          string // filesystem driver root
	PublicBaseURL     string // prefix of the URLs returned to callers
	CheckBucket       bool   // verify the bucket before dispatching uploads
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled   bool
	Host      string
	Port      int
	Password  string
	DB        int
	StatusTTL time.Duration
}

// Addr returns the host:port address
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// UploadConfig holds upload dispatcher settings
type UploadConfig struct {
	Workers        int
	QueueSize      int
	MaxAttempts    int
	RetryDelay     time.Duration
	AttemptTimeout time.Duration
}

// RenderConfig holds document rendering settings
type RenderConfig struct {
	DefaultPaper     string
	PageNumberFormat string
	VerifyOutput     bool
	Margin           float64
	Timeout          time.Duration
}

// ExtractionConfig holds settings for the registration document parser
type ExtractionConfig struct {
	FetchTimeout time.Duration
	MaxSize      int64
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool          // Export traces, metrics and logs
	CollectorEndpoint string        // OTEL Collector gRPC endpoint (e.g., "localhost:4317")
	SamplingRatio     float64       // 0.0-1.0
	ServiceName       string        // Defaults to app.name
	Insecure          bool          // Plain-text gRPC (development only)
	MetricsInterval   time.Duration // Metric export period
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with DOCGEN_ prefix (e.g., DOCGEN_STORAGE_BUCKET)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("DOCGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := fromViper(v)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fromViper builds a Config from the raw viper values
func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Auth: AuthConfig{
			Users: v.GetStringSlice("auth.users"),
		},
		Storage: StorageConfig{
			Driver:            v.GetString("storage.driver"),
			Bucket:            v.GetString("storage.bucket"),
			Region:            v.GetString("storage.region"),
			Endpoint:          v.GetString("storage.endpoint"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
			BasePath:          v.GetString("storage.base_path"),
			PublicBaseURL:     v.GetString("storage.public_base_url"),
			CheckBucket:       v.GetBool("storage.check_bucket"),
		},
		Redis: RedisConfig{
			Enabled:   v.GetBool("redis.enabled"),
			Host:      v.GetString("redis.host"),
			Port:      v.GetInt("redis.port"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			StatusTTL: v.GetDuration("redis.status_ttl"),
		},
		Upload: UploadConfig{
			Workers:        v.GetInt("upload.workers"),
			QueueSize:      v.GetInt("upload.queue_size"),
			MaxAttempts:    v.GetInt("upload.max_attempts"),
			RetryDelay:     v.GetDuration("upload.retry_delay"),
			AttemptTimeout: v.GetDuration("upload.attempt_timeout"),
		},
		Render: RenderConfig{
			DefaultPaper:     v.GetString("render.default_paper"),
			PageNumberFormat: v.GetString("render.page_number_format"),
			VerifyOutput:     v.GetBool("render.verify_output"),
			Margin:           v.GetFloat64("render.margin"),
			Timeout:          v.GetDuration("render.timeout"),
		},
		Extraction: ExtractionConfig{
			FetchTimeout: v.GetDuration("extraction.fetch_timeout"),
			MaxSize:      v.GetInt64("extraction.max_size"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
		},
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "docgen"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "docgen"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageDriverFilesystem
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./data/documents"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.StatusTTL == 0 {
		cfg.Redis.StatusTTL = 24 * time.Hour
	}
	if cfg.Upload.Workers == 0 {
		cfg.Upload.Workers = 4
	}
	if cfg.Upload.QueueSize == 0 {
		cfg.Upload.QueueSize = 100
	}
	if cfg.Upload.MaxAttempts == 0 {
		cfg.Upload.MaxAttempts = 3
	}
	if cfg.Upload.RetryDelay == 0 {
		cfg.Upload.RetryDelay = 2 * time.Second
	}
	if cfg.Upload.AttemptTimeout == 0 {
		cfg.Upload.AttemptTimeout = 30 * time.Second
	}
	if cfg.Render.DefaultPaper == "" {
		cfg.Render.DefaultPaper = "LETTER"
	}
	if cfg.Render.PageNumberFormat == "" {
		cfg.Render.PageNumberFormat = "Page %d of %d"
	}
	if cfg.Render.Margin == 0 {
		cfg.Render.Margin = 28
	}
	if cfg.Render.Timeout == 0 {
		cfg.Render.Timeout = 30 * time.Second
	}
	if cfg.Extraction.FetchTimeout == 0 {
		cfg.Extraction.FetchTimeout = 20 * time.Second
	}
	if cfg.Extraction.MaxSize == 0 {
		cfg.Extraction.MaxSize = 20 << 20 // 20MB
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = time.Minute
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageDriverS3, StorageDriverFilesystem, StorageDriverMemory:
	default:
		return fmt.Errorf("storage.driver must be one of s3, filesystem, memory, got %q", c.Storage.Driver)
	}
	if c.Storage.Driver == StorageDriverS3 && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required for the s3 driver")
	}
	if c.Upload.Workers < 1 {
		return fmt.Errorf("upload.workers must be positive")
	}
	if c.Upload.QueueSize < 1 {
		return fmt.Errorf("upload.queue_size must be positive")
	}
	if c.Upload.MaxAttempts < 1 {
		return fmt.Errorf("upload.max_attempts must be positive")
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1, got %v", c.Telemetry.SamplingRatio)
	}
	if c.Render.Margin < 0 {
		return fmt.Errorf("render.margin cannot be negative")
	}
	if strings.Count(c.Render.PageNumberFormat, "%d") != 2 {
		return fmt.Errorf("render.page_number_format must contain two %%d verbs, got %q", c.Render.PageNumberFormat)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if len(c.Auth.Users) == 0 {
			return fmt.Errorf("auth.users must list at least one account in production")
		}
		if c.Storage.Driver == StorageDriverMemory {
			return fmt.Errorf("storage.driver cannot be 'memory' in production")
		}
	}

	return nil
}
