// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Version is the application version reported by the API and the CLI.
const Version = "2.0.0"

// Config represents the complete configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app" yaml:"app"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	LLM         LLMConfig         `mapstructure:"llm" yaml:"llm"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding" yaml:"embedding"`
	VectorStore VectorStoreConfig `mapstructure:"vectorstore" yaml:"vectorstore"`
	Session     SessionConfig     `mapstructure:"session" yaml:"session"`
	Chat        ChatConfig        `mapstructure:"chat" yaml:"chat"`
	Ingest      IngestConfig      `mapstructure:"ingest" yaml:"ingest"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// AppConfig contains application identity settings.
type AppConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Environment string `mapstructure:"environment" yaml:"environment"` // development, production
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LLMConfig contains LLM provider configuration.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider" yaml:"provider"` // openai
	Model       string  `mapstructure:"model" yaml:"model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	Temperature float32 `mapstructure:"temperature" yaml:"temperature"`
}

// EmbeddingConfig contains embedding provider configuration.
type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider" yaml:"provider"` // openai, ollama
	Model     string `mapstructure:"model" yaml:"model"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	BatchSize int    `mapstructure:"batch_size" yaml:"batch_size"`
}

// VectorStoreConfig contains vector store configuration.
type VectorStoreConfig struct {
	Provider   string `mapstructure:"provider" yaml:"provider"` // pgvector, chromem, sqlitevec
	URL        string `mapstructure:"url" yaml:"url"`           // Postgres connection string
	Path       string `mapstructure:"path" yaml:"path"`         // sqlitevec database path
	Table      string `mapstructure:"table" yaml:"table"`
	Dimensions int    `mapstructure:"dimensions" yaml:"dimensions"`
}

// SessionConfig contains session store configuration.
type SessionConfig struct {
	Driver   string        `mapstructure:"driver" yaml:"driver"` // memory, redis
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// ChatConfig contains conversational retrieval configuration.
type ChatConfig struct {
	TopK             int `mapstructure:"top_k" yaml:"top_k"`                           // retrieved documents per turn
	MemoryWindow     int `mapstructure:"memory_window" yaml:"memory_window"`           // remembered exchanges
	MaxMessageLength int `mapstructure:"max_message_length" yaml:"max_message_length"` // chars
}

// IngestConfig contains CV ingestion configuration.
type IngestConfig struct {
	Path         string `mapstructure:"path" yaml:"path"`                   // CV source file or directory
	ChunkSize    int    `mapstructure:"chunk_size" yaml:"chunk_size"`       // chars per chunk
	ChunkOverlap int    `mapstructure:"chunk_overlap" yaml:"chunk_overlap"` // chars of overlap
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "CV Chatbot API",
			Environment: "development",
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			AllowedOrigins: []string{"*"},
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-3.5-turbo",
			Temperature: 0.7,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-ada-002",
			BatchSize: 100,
		},
		VectorStore: VectorStoreConfig{
			Provider:   "pgvector",
			Table:      "cv_embeddings",
			Dimensions: 1536,
		},
		Session: SessionConfig{
			Driver: "memory",
			TTL:    24 * time.Hour,
		},
		Chat: ChatConfig{
			TopK:             4,
			MemoryWindow:     10,
			MaxMessageLength: 1000,
		},
		Ingest: IngestConfig{
			ChunkSize:    500,
			ChunkOverlap: 50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// envBindings maps config keys to the environment variables the original
// deployment surface uses.
var envBindings = map[string]string{
	"app.name":                "APP_NAME",
	"app.environment":         "ENVIRONMENT",
	"server.host":             "HOST",
	"server.port":             "PORT",
	"llm.model":               "OPENAI_MODEL",
	"llm.api_key":             "OPENAI_API_KEY",
	"llm.temperature":         "OPENAI_TEMPERATURE",
	"embedding.model":         "EMBEDDING_MODEL",
	"embedding.api_key":       "OPENAI_API_KEY",
	"vectorstore.url":         "DATABASE_URL",
	"session.redis_url":       "REDIS_URL",
	"ingest.chunk_size":       "EMBEDDING_CHUNK_SIZE",
	"ingest.chunk_overlap":    "EMBEDDING_CHUNK_OVERLAP",
	"chat.memory_window":      "MAX_CONVERSATION_MEMORY",
	"chat.max_message_length": "MAX_MESSAGE_LENGTH",
	"chat.top_k":              "RETRIEVAL_TOP_K",
	"logging.level":           "LOG_LEVEL",
}

// Load loads configuration from an optional yaml file plus environment
// variables, falling back to defaults.
func Load(path string) (*Config, []string, error) {
	cfg := DefaultConfig()
	warnings := []string{}

	v := viper.New()
	v.SetConfigType("yaml")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			warnings = append(warnings, fmt.Sprintf("no config file at %s, using defaults and environment", path))
		} else {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// ALLOWED_ORIGINS is comma-separated in the environment
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitAndTrim(origins)
	}

	applyDefaults(cfg, &warnings)

	return cfg, warnings, nil
}

// applyDefaults fills zero values left by a partial config file.
func applyDefaults(cfg *Config, warnings *[]string) {
	def := DefaultConfig()

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = def.LLM.Provider
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = def.LLM.Temperature
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = def.Embedding.Provider
		*warnings = append(*warnings, "using default embedding provider: openai")
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = def.Embedding.Model
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = def.Embedding.BatchSize
	}
	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = def.VectorStore.Provider
	}
	if cfg.VectorStore.Table == "" {
		cfg.VectorStore.Table = def.VectorStore.Table
	}
	if cfg.VectorStore.Dimensions == 0 {
		cfg.VectorStore.Dimensions = def.VectorStore.Dimensions
	}
	if cfg.Session.Driver == "" {
		cfg.Session.Driver = def.Session.Driver
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = def.Session.TTL
	}
	if cfg.Chat.TopK == 0 {
		cfg.Chat.TopK = def.Chat.TopK
	}
	if cfg.Chat.MemoryWindow == 0 {
		cfg.Chat.MemoryWindow = def.Chat.MemoryWindow
	}
	if cfg.Chat.MaxMessageLength == 0 {
		cfg.Chat.MaxMessageLength = def.Chat.MaxMessageLength
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = def.Ingest.ChunkSize
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = def.Ingest.ChunkOverlap
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = def.Server.AllowedOrigins
	}
	if cfg.App.Name == "" {
		cfg.App.Name = def.App.Name
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = def.App.Environment
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
}

// Save writes the configuration to a yaml file.
func Save(path string, cfg *Config) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("app", cfg.App)
	v.Set("server", cfg.Server)
	v.Set("llm", cfg.LLM)
	v.Set("embedding", cfg.Embedding)
	v.Set("vectorstore", cfg.VectorStore)
	v.Set("session", cfg.Session)
	v.Set("chat", cfg.Chat)
	v.Set("ingest", cfg.Ingest)
	v.Set("logging", cfg.Logging)

	return v.WriteConfig()
}

// Validate validates the configuration.
func Validate(cfg *Config) []error {
	var errs []error

	validEmbeddingProviders := map[string]bool{
		"openai": true, "ollama": true,
	}
	if !validEmbeddingProviders[cfg.Embedding.Provider] {
		errs = append(errs, fmt.Errorf("invalid embedding provider: %s", cfg.Embedding.Provider))
	}

	validLLMProviders := map[string]bool{
		"openai": true,
	}
	if !validLLMProviders[cfg.LLM.Provider] {
		errs = append(errs, fmt.Errorf("invalid llm provider: %s", cfg.LLM.Provider))
	}

	validStores := map[string]bool{
		"pgvector": true, "chromem": true, "sqlitevec": true,
	}
	// pgvector without a URL is not an error: the server falls back to the
	// in-memory store at startup.
	if !validStores[cfg.VectorStore.Provider] {
		errs = append(errs, fmt.Errorf("invalid vector store: %s", cfg.VectorStore.Provider))
	}

	validSessionDrivers := map[string]bool{
		"memory": true, "redis": true,
	}
	if !validSessionDrivers[cfg.Session.Driver] {
		errs = append(errs, fmt.Errorf("invalid session driver: %s", cfg.Session.Driver))
	}
	if cfg.Session.Driver == "redis" && cfg.Session.RedisURL == "" {
		errs = append(errs, fmt.Errorf("session.redis_url (REDIS_URL) is required for redis sessions"))
	}

	if cfg.Chat.TopK < 1 {
		errs = append(errs, fmt.Errorf("chat.top_k must be positive"))
	}
	if cfg.Chat.MemoryWindow < 1 {
		errs = append(errs, fmt.Errorf("chat.memory_window must be positive"))
	}
	if cfg.Ingest.ChunkOverlap >= cfg.Ingest.ChunkSize {
		errs = append(errs, fmt.Errorf("ingest.chunk_overlap must be smaller than chunk_size"))
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", cfg.Server.Port))
	}

	return errs
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
