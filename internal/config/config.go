package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	S3       S3Config
	Log      LogConfig
	Vision   VisionConfig
	Batch    BatchConfig
	Browser  BrowserConfig
	Run      RunConfig
	Export   ExportConfig
	Schedule ScheduleConfig
}

// VisionConfig holds the hosted vision model settings.
type VisionConfig struct {
	APIKey            string   `mapstructure:"api_key"`
	KeyPrefix         string   `mapstructure:"key_prefix"`
	BaseURL           string   `mapstructure:"base_url"`
	Models            []string `mapstructure:"models"`
	ResponseMode      string   `mapstructure:"response_mode"`
	AnchorKeywords    []string `mapstructure:"anchor_keywords"`
	TimeoutSecs       int      `mapstructure:"timeout_secs"`
	MaxTokens         int      `mapstructure:"max_tokens"`
	Temperature       float64  `mapstructure:"temperature"`
	RequestsPerMinute int      `mapstructure:"requests_per_minute"`
	Referer           string   `mapstructure:"referer"`
	Title             string   `mapstructure:"title"`
}

// Validate checks the settings a vision client cannot start without.
func (v *VisionConfig) Validate() error {
	if v.APIKey == "" {
		return &ConfigurationError{Key: "SPOTTER_VISION_API_KEY", Reason: "not set"}
	}
	if v.KeyPrefix != "" && !strings.HasPrefix(v.APIKey, v.KeyPrefix) {
		return &ConfigurationError{Key: "SPOTTER_VISION_API_KEY", Reason: fmt.Sprintf("must start with %q", v.KeyPrefix)}
	}
	if len(v.Models) == 0 {
		return &ConfigurationError{Key: "SPOTTER_VISION_MODELS", Reason: "at least one model is required"}
	}
	if v.ResponseMode != "pipe" && v.ResponseMode != "json" {
		return &ConfigurationError{Key: "SPOTTER_VISION_RESPONSE_MODE", Reason: fmt.Sprintf("unknown mode %q", v.ResponseMode)}
	}
	return nil
}

// BatchConfig holds image batch settings.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// BrowserConfig holds headless browser settings.
type BrowserConfig struct {
	Bin           string `mapstructure:"bin"`
	Headless      bool   `mapstructure:"headless"`
	ScreenshotDir string `mapstructure:"screenshot_dir"`
}

// RunConfig holds the defaults for a single pipeline run.
type RunConfig struct {
	Store     string        `mapstructure:"store"`
	FlyerURL  string        `mapstructure:"flyer_url"`
	FlyerDate string        `mapstructure:"flyer_date"`
	MaxAge    time.Duration `mapstructure:"max_age"`
}

// ExportConfig holds file export settings.
type ExportConfig struct {
	Dir  string `mapstructure:"dir"`
	XLSX bool   `mapstructure:"xlsx"`
}

// ScheduleConfig holds cron settings for recurring runs.
type ScheduleConfig struct {
	Cron   string   `mapstructure:"cron"`
	Stores []string `mapstructure:"stores"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds screenshot archive settings. An empty bucket disables archiving.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultModels is the fallback chain used when SPOTTER_VISION_MODELS is unset.
var DefaultModels = []string{
	"google/gemini-2.5-flash",
	"allenai/molmo-2-8b:free",
	"nvidia/nemotron-nano-12b-v2-vl:free",
	"mistralai/mistral-small-3.1-24b-instruct:free",
}

// Load reads configuration from environment variables with the SPOTTER_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SPOTTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// DB defaults
	v.SetDefault("db.enabled", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "spotter")
	v.SetDefault("db.password", "spotter_secret")
	v.SetDefault("db.name", "spotter_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// S3 defaults
	v.SetDefault("s3.region", "eu-south-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Vision defaults
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.key_prefix", "sk-or-")
	v.SetDefault("vision.base_url", "https://openrouter.ai/api/v1/chat/completions")
	v.SetDefault("vision.models", strings.Join(DefaultModels, ","))
	v.SetDefault("vision.response_mode", "pipe")
	v.SetDefault("vision.anchor_keywords", "")
	v.SetDefault("vision.timeout_secs", 60)
	v.SetDefault("vision.max_tokens", 2000)
	v.SetDefault("vision.temperature", 0.2)
	v.SetDefault("vision.requests_per_minute", 0)
	v.SetDefault("vision.referer", "https://github.com/giarox/spespe")
	v.SetDefault("vision.title", "Spespe Spotter")

	v.SetDefault("batch.concurrency", 1)

	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.screenshot_dir", "data/screenshots")

	v.SetDefault("run.store", "lidl")
	v.SetDefault("run.flyer_url", "")
	v.SetDefault("run.flyer_date", "")
	v.SetDefault("run.max_age", "168h")

	v.SetDefault("export.dir", "data/output")
	v.SetDefault("export.xlsx", false)

	// Mondays 07:00
	v.SetDefault("schedule.cron", "0 7 * * 1")
	v.SetDefault("schedule.stores", "lidl")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                "SPOTTER_SERVER_PORT",
		"server.read_timeout":        "SPOTTER_SERVER_READ_TIMEOUT",
		"server.write_timeout":       "SPOTTER_SERVER_WRITE_TIMEOUT",
		"server.environment":         "SPOTTER_SERVER_ENVIRONMENT",
		"server.cors_origins":        "SPOTTER_SERVER_CORS_ORIGINS",
		"db.enabled":                 "SPOTTER_DB_ENABLED",
		"db.host":                    "SPOTTER_DB_HOST",
		"db.port":                    "SPOTTER_DB_PORT",
		"db.user":                    "SPOTTER_DB_USER",
		"db.password":                "SPOTTER_DB_PASSWORD",
		"db.name":                    "SPOTTER_DB_NAME",
		"db.sslmode":                 "SPOTTER_DB_SSLMODE",
		"db.max_open":                "SPOTTER_DB_MAX_OPEN",
		"db.max_idle":                "SPOTTER_DB_MAX_IDLE",
		"s3.region":                  "SPOTTER_S3_REGION",
		"s3.bucket":                  "SPOTTER_S3_BUCKET",
		"s3.endpoint":                "SPOTTER_S3_ENDPOINT",
		"s3.access_key":              "SPOTTER_S3_ACCESS_KEY",
		"s3.secret_key":              "SPOTTER_S3_SECRET_KEY",
		"log.level":                  "SPOTTER_LOG_LEVEL",
		"log.format":                 "SPOTTER_LOG_FORMAT",
		"vision.api_key":             "SPOTTER_VISION_API_KEY",
		"vision.key_prefix":          "SPOTTER_VISION_KEY_PREFIX",
		"vision.base_url":            "SPOTTER_VISION_BASE_URL",
		"vision.models":              "SPOTTER_VISION_MODELS",
		"vision.response_mode":       "SPOTTER_VISION_RESPONSE_MODE",
		"vision.anchor_keywords":     "SPOTTER_VISION_ANCHOR_KEYWORDS",
		"vision.timeout_secs":        "SPOTTER_VISION_TIMEOUT_SECS",
		"vision.max_tokens":          "SPOTTER_VISION_MAX_TOKENS",
		"vision.temperature":         "SPOTTER_VISION_TEMPERATURE",
		"vision.requests_per_minute": "SPOTTER_VISION_REQUESTS_PER_MINUTE",
		"vision.referer":             "SPOTTER_VISION_REFERER",
		"vision.title":               "SPOTTER_VISION_TITLE",
		"batch.concurrency":          "SPOTTER_BATCH_CONCURRENCY",
		"browser.bin":                "SPOTTER_BROWSER_BIN",
		"browser.headless":           "SPOTTER_BROWSER_HEADLESS",
		"browser.screenshot_dir":     "SPOTTER_BROWSER_SCREENSHOT_DIR",
		"run.store":                  "SPOTTER_STORE",
		"run.flyer_url":              "SPOTTER_FLYER_URL",
		"run.flyer_date":             "SPOTTER_FLYER_DATE",
		"run.max_age":                "SPOTTER_RUN_MAX_AGE",
		"export.dir":                 "SPOTTER_EXPORT_DIR",
		"export.xlsx":                "SPOTTER_EXPORT_XLSX",
		"schedule.cron":              "SPOTTER_SCHEDULE_CRON",
		"schedule.stores":            "SPOTTER_SCHEDULE_STORES",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set PORT. Use it if SPOTTER_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SPOTTER_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		CORSOrigins:  splitList(v.GetString("server.cors_origins")),
	}
	cfg.DB = DBConfig{
		Enabled:  v.GetBool("db.enabled"),
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Vision = VisionConfig{
		APIKey:            v.GetString("vision.api_key"),
		KeyPrefix:         v.GetString("vision.key_prefix"),
		BaseURL:           v.GetString("vision.base_url"),
		Models:            splitList(v.GetString("vision.models")),
		ResponseMode:      strings.ToLower(strings.TrimSpace(v.GetString("vision.response_mode"))),
		AnchorKeywords:    splitList(v.GetString("vision.anchor_keywords")),
		TimeoutSecs:       v.GetInt("vision.timeout_secs"),
		MaxTokens:         v.GetInt("vision.max_tokens"),
		Temperature:       v.GetFloat64("vision.temperature"),
		RequestsPerMinute: v.GetInt("vision.requests_per_minute"),
		Referer:           v.GetString("vision.referer"),
		Title:             v.GetString("vision.title"),
	}
	cfg.Batch = BatchConfig{
		Concurrency: v.GetInt("batch.concurrency"),
	}
	cfg.Browser = BrowserConfig{
		Bin:           v.GetString("browser.bin"),
		Headless:      v.GetBool("browser.headless"),
		ScreenshotDir: v.GetString("browser.screenshot_dir"),
	}
	cfg.Run = RunConfig{
		Store:     v.GetString("run.store"),
		FlyerURL:  v.GetString("run.flyer_url"),
		FlyerDate: v.GetString("run.flyer_date"),
		MaxAge:    v.GetDuration("run.max_age"),
	}
	cfg.Export = ExportConfig{
		Dir:  v.GetString("export.dir"),
		XLSX: v.GetBool("export.xlsx"),
	}
	cfg.Schedule = ScheduleConfig{
		Cron:   v.GetString("schedule.cron"),
		Stores: splitList(v.GetString("schedule.stores")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings every command depends on. Vision credentials are
// checked separately by VisionConfig.Validate since the read API runs without them.
func (c *Config) Validate() error {
	if c.Batch.Concurrency < 1 {
		return &ConfigurationError{Key: "SPOTTER_BATCH_CONCURRENCY", Reason: "must be at least 1"}
	}
	if c.Vision.TimeoutSecs <= 0 {
		return &ConfigurationError{Key: "SPOTTER_VISION_TIMEOUT_SECS", Reason: "must be positive"}
	}
	if c.Vision.RequestsPerMinute < 0 {
		return &ConfigurationError{Key: "SPOTTER_VISION_REQUESTS_PER_MINUTE", Reason: "must not be negative"}
	}
	if c.Run.MaxAge < 0 {
		return &ConfigurationError{Key: "SPOTTER_RUN_MAX_AGE", Reason: "must not be negative"}
	}
	return nil
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
