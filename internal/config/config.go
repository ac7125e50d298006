package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	CORS      CORSConfig
	Storage   StorageConfig
	Auth      AuthConfig
	ContentU  ContentUConfig
	DocIntel  DocIntelConfig
	Mistral   MistralConfig
	LLM       LLMConfig
	Poll      PollConfig
	Benchmark BenchmarkConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorageConfig holds object storage settings for URL-based backend input.
type StorageConfig struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// AuthConfig holds the OAuth2 client-credentials settings used to obtain
// bearer tokens for the analysis backends.
type AuthConfig struct {
	TokenURL     string `mapstructure:"token_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	Scope        string `mapstructure:"scope"`
}

// ContentUConfig holds the structured-extraction backend settings.
type ContentUConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	APIVersion string `mapstructure:"api_version"`
}

// DocIntelConfig holds the OCR+LLM backend settings.
type DocIntelConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	APIKey       string `mapstructure:"api_key"`
	APIVersion   string `mapstructure:"api_version"`
	DefaultModel string `mapstructure:"default_model"`
}

// MistralConfig holds the OCR+chat backend settings.
type MistralConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

// LLMConfig holds the description-step settings shared by all backends.
type LLMConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	TimeoutSecs int     `mapstructure:"timeout_secs"`
}

// PollConfig holds settings for polling-based analyzers.
type PollConfig struct {
	TimeoutSecs  int `mapstructure:"timeout_secs"`
	IntervalSecs int `mapstructure:"interval_secs"`
}

// Timeout returns the poll budget as a duration.
func (p *PollConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// Interval returns the fixed poll interval as a duration.
func (p *PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSecs) * time.Second
}

// BenchmarkConfig holds run-level settings.
type BenchmarkConfig struct {
	DefaultAnalyzer string `mapstructure:"default_analyzer"`
	MaxFileSizeMB   int64  `mapstructure:"max_file_size_mb"`
}

// Load reads configuration from environment variables with the DOCBENCH_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15m")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Storage defaults
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "docbench-uploads")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.presign_expiry", 7200)

	// Auth defaults
	v.SetDefault("auth.token_url", "")
	v.SetDefault("auth.client_id", "")
	v.SetDefault("auth.client_secret", "")
	v.SetDefault("auth.scope", "https://cognitiveservices.azure.com/.default")

	// Backend defaults
	v.SetDefault("contentu.endpoint", "")
	v.SetDefault("contentu.api_version", "2025-11-01")
	v.SetDefault("docintel.endpoint", "")
	v.SetDefault("docintel.api_key", "")
	v.SetDefault("docintel.api_version", "2024-11-30")
	v.SetDefault("docintel.default_model", "prebuilt-invoice")
	v.SetDefault("mistral.endpoint", "")
	v.SetDefault("mistral.model", "mistral-document-ai-2505")

	// LLM description-step defaults
	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.max_tokens", 400)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.timeout_secs", 120)

	// Poll defaults
	v.SetDefault("poll.timeout_secs", 300)
	v.SetDefault("poll.interval_secs", 5)

	// Benchmark defaults
	v.SetDefault("benchmark.default_analyzer", "prebuilt-invoice")
	v.SetDefault("benchmark.max_file_size_mb", 50)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":               "DOCBENCH_SERVER_PORT",
		"server.read_timeout":       "DOCBENCH_SERVER_READ_TIMEOUT",
		"server.write_timeout":      "DOCBENCH_SERVER_WRITE_TIMEOUT",
		"server.environment":        "DOCBENCH_SERVER_ENVIRONMENT",
		"log.level":                 "DOCBENCH_LOG_LEVEL",
		"log.format":                "DOCBENCH_LOG_FORMAT",
		"cors.allowed_origins":      "DOCBENCH_CORS_ALLOWED_ORIGINS",
		"storage.region":            "DOCBENCH_STORAGE_REGION",
		"storage.bucket":            "DOCBENCH_STORAGE_BUCKET",
		"storage.endpoint":          "DOCBENCH_STORAGE_ENDPOINT",
		"storage.access_key":        "DOCBENCH_STORAGE_ACCESS_KEY",
		"storage.secret_key":        "DOCBENCH_STORAGE_SECRET_KEY",
		"storage.presign_expiry":    "DOCBENCH_STORAGE_PRESIGN_EXPIRY",
		"auth.token_url":            "DOCBENCH_AUTH_TOKEN_URL",
		"auth.client_id":            "DOCBENCH_AUTH_CLIENT_ID",
		"auth.client_secret":        "DOCBENCH_AUTH_CLIENT_SECRET",
		"auth.scope":                "DOCBENCH_AUTH_SCOPE",
		"contentu.endpoint":         "DOCBENCH_CONTENTU_ENDPOINT",
		"contentu.api_version":      "DOCBENCH_CONTENTU_API_VERSION",
		"docintel.endpoint":         "DOCBENCH_DOCINTEL_ENDPOINT",
		"docintel.api_key":          "DOCBENCH_DOCINTEL_API_KEY",
		"docintel.api_version":      "DOCBENCH_DOCINTEL_API_VERSION",
		"docintel.default_model":    "DOCBENCH_DOCINTEL_DEFAULT_MODEL",
		"mistral.endpoint":          "DOCBENCH_MISTRAL_ENDPOINT",
		"mistral.model":             "DOCBENCH_MISTRAL_MODEL",
		"llm.endpoint":              "DOCBENCH_LLM_ENDPOINT",
		"llm.max_tokens":            "DOCBENCH_LLM_MAX_TOKENS",
		"llm.temperature":           "DOCBENCH_LLM_TEMPERATURE",
		"llm.timeout_secs":          "DOCBENCH_LLM_TIMEOUT_SECS",
		"poll.timeout_secs":         "DOCBENCH_POLL_TIMEOUT_SECS",
		"poll.interval_secs":        "DOCBENCH_POLL_INTERVAL_SECS",
		"benchmark.default_analyzer": "DOCBENCH_BENCHMARK_DEFAULT_ANALYZER",
		"benchmark.max_file_size_mb": "DOCBENCH_BENCHMARK_MAX_FILE_SIZE_MB",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if DOCBENCH_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCBENCH_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Storage = StorageConfig{
		Region:        v.GetString("storage.region"),
		Bucket:        v.GetString("storage.bucket"),
		Endpoint:      v.GetString("storage.endpoint"),
		AccessKey:     v.GetString("storage.access_key"),
		SecretKey:     v.GetString("storage.secret_key"),
		PresignExpiry: v.GetInt64("storage.presign_expiry"),
	}
	cfg.Auth = AuthConfig{
		TokenURL:     v.GetString("auth.token_url"),
		ClientID:     v.GetString("auth.client_id"),
		ClientSecret: v.GetString("auth.client_secret"),
		Scope:        v.GetString("auth.scope"),
	}
	cfg.ContentU = ContentUConfig{
		Endpoint:   v.GetString("contentu.endpoint"),
		APIVersion: v.GetString("contentu.api_version"),
	}
	cfg.DocIntel = DocIntelConfig{
		Endpoint:     v.GetString("docintel.endpoint"),
		APIKey:       v.GetString("docintel.api_key"),
		APIVersion:   v.GetString("docintel.api_version"),
		DefaultModel: v.GetString("docintel.default_model"),
	}
	cfg.Mistral = MistralConfig{
		Endpoint: v.GetString("mistral.endpoint"),
		Model:    v.GetString("mistral.model"),
	}
	cfg.LLM = LLMConfig{
		Endpoint:    v.GetString("llm.endpoint"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
		Temperature: v.GetFloat64("llm.temperature"),
		TimeoutSecs: v.GetInt("llm.timeout_secs"),
	}
	cfg.Poll = PollConfig{
		TimeoutSecs:  v.GetInt("poll.timeout_secs"),
		IntervalSecs: v.GetInt("poll.interval_secs"),
	}
	cfg.Benchmark = BenchmarkConfig{
		DefaultAnalyzer: v.GetString("benchmark.default_analyzer"),
		MaxFileSizeMB:   v.GetInt64("benchmark.max_file_size_mb"),
	}

	return cfg, nil
}
