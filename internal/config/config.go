package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Database  DatabaseConfig   `json:"database"`
	LogConfig logger.LogConfig `json:"log_config"`
	FileStore FileStoreConfig  `json:"file_store"`
	AI        AIConfig         `json:"ai"`
	Ingest    IngestConfig     `json:"ingest"`
	Retrieval RetrievalConfig  `json:"retrieval"`
	Notes     NotesConfig      `json:"notes"`
	Jobs      JobsConfig       `json:"jobs"`
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

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	Model          string      `json:"model"`
	EmbedModel     string      `json:"embed_model"`
	EmbedCacheSize int         `json:"embed_cache_size"`
	EmbedCacheTTL  int         `json:"embed_cache_ttl_minutes"`
	Data           interface{} `json:"data"`
}

type IngestConfig struct {
	MaxFileSize       int64    `json:"max_file_size"`
	AllowedExtensions []string `json:"allowed_extensions"`
	ChunkSize         int      `json:"chunk_size"`
	ChunkOverlap      int      `json:"chunk_overlap"`
}

type RetrievalConfig struct {
	TopK                int     `json:"top_k_results"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

type NotesConfig struct {
	LockTTLMinutes int `json:"lock_ttl_minutes"`
	VersionMaxKeep int `json:"version_max_keep"`
}

type JobsConfig struct {
	StaleLockSpec         string `json:"stale_lock_spec"`
	VectorReconcileSpec   string `json:"vector_reconcile_spec"`
	EmbedCacheCleanupSpec string `json:"embed_cache_cleanup_spec"`
	EmbedCacheMaxAgeDays  int    `json:"embed_cache_max_age_days"`
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
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		return nil, fmt.Errorf("file_store.type is required")
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Ingest.MaxFileSize == 0 {
		cfg.Ingest.MaxFileSize = 10 * 1024 * 1024
	}
	if len(cfg.Ingest.AllowedExtensions) == 0 {
		cfg.Ingest.AllowedExtensions = []string{".pdf", ".md", ".docx", ".txt"}
	}
	for i, ext := range cfg.Ingest.AllowedExtensions {
		cfg.Ingest.AllowedExtensions[i] = strings.ToLower(ext)
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 200
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.SimilarityThreshold == 0 {
		cfg.Retrieval.SimilarityThreshold = 0.7
	}
	if cfg.Notes.LockTTLMinutes == 0 {
		cfg.Notes.LockTTLMinutes = 30
	}
	if cfg.Notes.VersionMaxKeep == 0 {
		cfg.Notes.VersionMaxKeep = 50
	}
	if cfg.AI.EmbedCacheSize == 0 {
		cfg.AI.EmbedCacheSize = 10000
	}
	if cfg.AI.EmbedCacheTTL == 0 {
		cfg.AI.EmbedCacheTTL = 120
	}
	if cfg.Jobs.StaleLockSpec == "" {
		cfg.Jobs.StaleLockSpec = "*/10 * * * *"
	}
	if cfg.Jobs.VectorReconcileSpec == "" {
		cfg.Jobs.VectorReconcileSpec = "0 4 * * *"
	}
	if cfg.Jobs.EmbedCacheCleanupSpec == "" {
		cfg.Jobs.EmbedCacheCleanupSpec = "30 4 * * *"
	}
	if cfg.Jobs.EmbedCacheMaxAgeDays == 0 {
		cfg.Jobs.EmbedCacheMaxAgeDays = 30
	}
}
