package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	JWTSecret     string           `json:"jwt_secret"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	Cache         CacheConfig      `json:"cache"`
	AI            AIConfig         `json:"ai"`
	Ingest        IngestConfig     `json:"ingest"`
	Retrieve      RetrieveConfig   `json:"retrieve"`
	Chat          ChatConfig       `json:"chat"`
	Retention     RetentionConfig  `json:"retention"`
	FileStore     FileStoreConfig  `json:"file_store"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type CacheConfig struct {
	Type             string      `json:"type"`
	Data             interface{} `json:"data"`
	ListTTLSeconds   int         `json:"list_ttl_seconds"`
	RecentTTLSeconds int         `json:"recent_ttl_seconds"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	Data           interface{} `json:"data"`
	Model          string      `json:"model"`
	EmbedModel     string      `json:"embed_model"`
	EmbedDim       int         `json:"embed_dim"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	EmbedLRUSize   int         `json:"embed_lru_size"`
	EmbedLRUTTLMin int         `json:"embed_lru_ttl_min"`
}

type IngestConfig struct {
	WindowChars   int   `json:"window_chars"`
	OverlapChars  int   `json:"overlap_chars"`
	MaxUploadSize int64 `json:"max_upload_size"`
	Workers       int   `json:"workers"`
}

type RetrieveConfig struct {
	TopK           int     `json:"top_k"`
	MinScore       float64 `json:"min_score"`
	PerDocCap      int     `json:"per_doc_cap"`
	TimeoutSeconds int     `json:"timeout_seconds"`
}

type ChatConfig struct {
	HistoryWindow    int `json:"history_window"`
	RateLimitSeconds int `json:"rate_limit_seconds"`
}

type RetentionConfig struct {
	Spec                   string `json:"spec"`
	ConversationMaxAgeDays int    `json:"conversation_max_age_days"`
	MessageMaxAgeDays      int    `json:"message_max_age_days"`
	SparseMaxAgeDays       int    `json:"sparse_max_age_days"`
	SparseMaxMessages      int    `json:"sparse_max_messages"`
	BatchSize              int    `json:"batch_size"`
	EmbedCacheMaxAgeDays   int    `json:"embed_cache_max_age_days"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" || cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.model and ai.embed_model are required")
	}
	if cfg.AI.EmbedDim == 0 {
		return nil, fmt.Errorf("ai.embed_dim is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.AI.TimeoutSeconds <= 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.AI.EmbedLRUSize <= 0 {
		cfg.AI.EmbedLRUSize = 10000
	}
	if cfg.AI.EmbedLRUTTLMin <= 0 {
		cfg.AI.EmbedLRUTTLMin = 120
	}
	if cfg.Cache.Type == "" {
		cfg.Cache.Type = "memory"
	}
	if cfg.Cache.ListTTLSeconds <= 0 {
		cfg.Cache.ListTTLSeconds = 300
	}
	if cfg.Cache.RecentTTLSeconds <= 0 {
		cfg.Cache.RecentTTLSeconds = 120
	}
	if cfg.Ingest.WindowChars <= 0 {
		cfg.Ingest.WindowChars = 3000
	}
	if cfg.Ingest.OverlapChars < 0 || cfg.Ingest.OverlapChars >= cfg.Ingest.WindowChars {
		cfg.Ingest.OverlapChars = cfg.Ingest.WindowChars / 10
	}
	if cfg.Ingest.MaxUploadSize <= 0 {
		cfg.Ingest.MaxUploadSize = 20 * 1024 * 1024
	}
	if cfg.Ingest.Workers <= 0 {
		cfg.Ingest.Workers = 4
	}
	if cfg.Retrieve.TopK <= 0 {
		cfg.Retrieve.TopK = 6
	}
	if cfg.Retrieve.MinScore <= 0 {
		cfg.Retrieve.MinScore = 0.55
	}
	if cfg.Retrieve.PerDocCap <= 0 {
		cfg.Retrieve.PerDocCap = 2
	}
	if cfg.Retrieve.TimeoutSeconds <= 0 {
		cfg.Retrieve.TimeoutSeconds = 5
	}
	if cfg.Chat.HistoryWindow <= 0 {
		cfg.Chat.HistoryWindow = 20
	}
	if cfg.Chat.RateLimitSeconds < 0 {
		cfg.Chat.RateLimitSeconds = 0
	}
	if cfg.Retention.Spec == "" {
		cfg.Retention.Spec = "30 3 * * *"
	}
	if cfg.Retention.ConversationMaxAgeDays <= 0 {
		cfg.Retention.ConversationMaxAgeDays = 90
	}
	if cfg.Retention.MessageMaxAgeDays <= 0 {
		cfg.Retention.MessageMaxAgeDays = 180
	}
	if cfg.Retention.SparseMaxAgeDays <= 0 {
		cfg.Retention.SparseMaxAgeDays = 30
	}
	if cfg.Retention.SparseMaxMessages <= 0 {
		cfg.Retention.SparseMaxMessages = 2
	}
	if cfg.Retention.BatchSize <= 0 {
		cfg.Retention.BatchSize = 500
	}
	if cfg.Retention.EmbedCacheMaxAgeDays <= 0 {
		cfg.Retention.EmbedCacheMaxAgeDays = 30
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
		cfg.FileStore.Data = map[string]interface{}{"dir": "./uploads"}
	}
}
