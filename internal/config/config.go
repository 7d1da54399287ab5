// Package config loads Archon's YAML configuration file into a typed Config.
package config

import (
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pterm/pterm"
	"gopkg.in/yaml.v2"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig is the Postgres catalog connection.
type DatabaseConfig struct {
	ConnectionString string `yaml:"connection_string"`
}

// AuthConfig controls JWT issuance and the dev auth bypass.
type AuthConfig struct {
	SecretKey         string `yaml:"secret_key"`
	Algorithm         string `yaml:"algorithm"`
	AccessExpiryMin   int    `yaml:"access_expire_minutes"`
	RefreshExpiryHour int    `yaml:"refresh_expire_hours"`
	DisableAuth       bool   `yaml:"disable_auth"`
}

// IngestionConfig bounds the scan orchestrator and archive expander.
type IngestionConfig struct {
	ScanRootPath    string `yaml:"scan_root_path"`
	ArchiveMaxDepth int    `yaml:"archive_max_depth"`
	Workers         int    `yaml:"workers"`
	TaskTimeoutMin  int    `yaml:"task_timeout_minutes"`
	ChunkSize       int    `yaml:"chunk_size"`
	ChunkOverlap    int    `yaml:"chunk_overlap"`
}

// EmbeddingsConfig is the embedding host contract (C5).
type EmbeddingsConfig struct {
	Host       string `yaml:"host"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
}

// VectorIndexConfig is the vector engine adapter contract (C6).
type VectorIndexConfig struct {
	DSN        string `yaml:"dsn"`
	Collection string `yaml:"collection"`
	Metric     string `yaml:"metric"`
}

// LexicalIndexConfig is the lexical engine adapter contract (C7).
type LexicalIndexConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
	Index  string `yaml:"index"`
}

// BrokerConfig is the shared broker/result backend (progress, rate limit).
type BrokerConfig struct {
	RedisURL string `yaml:"redis_url"`
}

// LLMConfig is the generation host used by the chat engine.
type LLMConfig struct {
	GenerationHost string `yaml:"generation_host"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
}

// RerankConfig controls §4.12's optional reranker stage.
type RerankConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Model   string `yaml:"model"`
	TopN    int    `yaml:"top_n"`
	TopKOut int    `yaml:"top_k_out"`
}

// S3SSEConfig controls server-side encryption for archived evidence objects.
type S3SSEConfig struct {
	Mode     string `yaml:"mode"` // "", "AES256", or "aws:kms"
	KMSKeyID string `yaml:"kms_key_id,omitempty"`
}

// ObjectStoreConfig is optional durable archival of original ingested bytes
// (§2's "optional evidence archival"), backed by S3 or an S3-compatible
// service such as MinIO.
type ObjectStoreConfig struct {
	Enabled               bool        `yaml:"enabled"`
	Bucket                string      `yaml:"bucket"`
	Prefix                string      `yaml:"prefix,omitempty"`
	Region                string      `yaml:"region"`
	Endpoint              string      `yaml:"endpoint,omitempty"`
	AccessKey             string      `yaml:"access_key,omitempty"`
	SecretKey             string      `yaml:"secret_key,omitempty"`
	UsePathStyle          bool        `yaml:"use_path_style,omitempty"`
	TLSInsecureSkipVerify bool        `yaml:"tls_insecure_skip_verify,omitempty"`
	SSE                   S3SSEConfig `yaml:"sse,omitempty"`
}

// TelemetryConfig controls OpenTelemetry span export.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// RateLimitConfig controls the sliding-window limiter (C14).
type RateLimitConfig struct {
	WindowSeconds int `yaml:"window_seconds"`
	MaxRequests   int `yaml:"max_requests"`
}

// ChatConfig controls session TTL/eviction for the RAG chat engine (C12).
type ChatConfig struct {
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
	MaxSessions       int    `yaml:"max_sessions"`
	Locale            string `yaml:"locale"`
}

// Config is Archon's top-level configuration, loaded once at startup.
type Config struct {
	Server      ServerConfig        `yaml:"server"`
	DataPath    string              `yaml:"data_path"`
	Database    DatabaseConfig      `yaml:"database"`
	DBPool      *pgxpool.Pool       `yaml:"-"`
	Auth        AuthConfig          `yaml:"auth"`
	Ingestion   IngestionConfig     `yaml:"ingestion"`
	Embeddings  EmbeddingsConfig    `yaml:"embeddings"`
	VectorIndex VectorIndexConfig   `yaml:"vector_index"`
	LexicalIndex LexicalIndexConfig `yaml:"lexical_index"`
	Broker      BrokerConfig        `yaml:"broker"`
	LLM         LLMConfig           `yaml:"llm"`
	Rerank      RerankConfig        `yaml:"rerank"`
	ObjectStore ObjectStoreConfig   `yaml:"object_store"`
	OTel        TelemetryConfig     `yaml:"otel"`
	RateLimit   RateLimitConfig     `yaml:"rate_limit"`
	Chat        ChatConfig          `yaml:"chat"`
}

// Load reads filename, unmarshals it into a Config, applies defaults with
// pterm-logged warnings/info, and returns the result.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		pterm.Error.Printf("Error reading config file: %v\n", err)
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		pterm.Error.Printf("Error unmarshaling config: %v\n", err)
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)

	pterm.Success.Println("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = "your-secret-key"
		pterm.Warning.Println("No JWT secret key provided in config, using default (insecure).")
	}
	if cfg.Auth.Algorithm == "" {
		cfg.Auth.Algorithm = "HS256"
	}
	if cfg.Auth.AccessExpiryMin <= 0 {
		cfg.Auth.AccessExpiryMin = 30
		pterm.Info.Println("No access token expiry specified, using default (30 minutes).")
	}
	if cfg.Auth.RefreshExpiryHour <= 0 {
		cfg.Auth.RefreshExpiryHour = 168
	}
	if cfg.Ingestion.ArchiveMaxDepth <= 0 {
		cfg.Ingestion.ArchiveMaxDepth = 5
	}
	if cfg.Ingestion.Workers <= 0 {
		cfg.Ingestion.Workers = 4
		pterm.Info.Println("No ingestion workers specified, using default (4).")
	}
	if cfg.Ingestion.TaskTimeoutMin <= 0 {
		cfg.Ingestion.TaskTimeoutMin = 60
	}
	if cfg.Ingestion.ChunkSize <= 0 {
		cfg.Ingestion.ChunkSize = 500
	}
	if cfg.Ingestion.ChunkOverlap <= 0 {
		cfg.Ingestion.ChunkOverlap = 50
	}
	if cfg.Embeddings.BatchSize <= 0 {
		cfg.Embeddings.BatchSize = 16
	}
	if cfg.VectorIndex.Metric == "" {
		cfg.VectorIndex.Metric = "cosine"
	}
	if cfg.VectorIndex.Collection == "" {
		cfg.VectorIndex.Collection = "archon_documents"
	}
	if cfg.Rerank.TopN <= 0 {
		cfg.Rerank.TopN = 20
	}
	if cfg.Rerank.TopKOut <= 0 {
		cfg.Rerank.TopKOut = 8
	}
	if cfg.OTel.ServiceName == "" {
		cfg.OTel.ServiceName = "archon"
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.RateLimit.MaxRequests <= 0 {
		cfg.RateLimit.MaxRequests = 120
	}
	if cfg.Chat.SessionTTLMinutes <= 0 {
		cfg.Chat.SessionTTLMinutes = 30
	}
	if cfg.Chat.MaxSessions <= 0 {
		cfg.Chat.MaxSessions = 1000
	}
	if cfg.Chat.Locale == "" {
		cfg.Chat.Locale = "fr"
		pterm.Info.Println("No chat locale specified, defaulting system prompts to French.")
	}
}
