package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Storage  StorageConfig `yaml:"storage"`
	EmbedLLM LLMConfig     `yaml:"embed_llm"`
	ChatLLM  LLMConfig     `yaml:"chat_llm"`
	RAG      RAGConfig     `yaml:"rag"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects and configures the vector store backend.
type StorageConfig struct {
	// Backend is "chromem" (default) or "postgres".
	Backend string `yaml:"backend"`
	// Path is the on-disk location of the chromem database; empty means
	// in-memory.
	Path string `yaml:"path"`
	// DSN is the postgres connection string.
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// LLMConfig points at one model endpoint.
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" or "ollama"
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

// RAGConfig holds retrieval and ingestion tuning.
type RAGConfig struct {
	ScoreThreshold float32 `yaml:"score_threshold"`
	TopK           int     `yaml:"top_k"`
	// SettleDelaySeconds is the wait after a successful write so the
	// eventually-consistent index reflects new content before querying.
	SettleDelaySeconds int    `yaml:"settle_delay_seconds"`
	ChunkSize          int    `yaml:"chunk_size"`
	ChunkOverlap       int    `yaml:"chunk_overlap"`
	CuratedCollection  string `yaml:"curated_collection"`
	DocumentCollection string `yaml:"document_collection"`
	// Persona is the assistant name announced in the prompt template.
	Persona string `yaml:"persona"`
}

const (
	defaultScoreThreshold = 0.9
	defaultTopK           = 10
	defaultSettleSeconds  = 5
	defaultChunkSize      = 1000
	defaultChunkOverlap   = 500
)

// LoadConfig reads the yaml file at path, applies environment overrides and
// fills defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config with every default filled in, for callers that
// run without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("SCORE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			c.RAG.ScoreThreshold = float32(f)
		}
	}
	if v := os.Getenv("TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RAG.TopK = n
		}
	}
	if v := os.Getenv("SETTLE_DELAY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RAG.SettleDelaySeconds = n
		}
	}
	if v := os.Getenv("EMBED_LLM_BASE_URL"); v != "" {
		c.EmbedLLM.BaseURL = v
	}
	if v := os.Getenv("CHAT_LLM_BASE_URL"); v != "" {
		c.ChatLLM.BaseURL = v
	}
	if v := os.Getenv("CHAT_LLM_KEY"); v != "" {
		c.ChatLLM.Key = v
	}
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = "chromem"
	}
	if c.RAG.ScoreThreshold == 0 {
		c.RAG.ScoreThreshold = defaultScoreThreshold
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = defaultTopK
	}
	if c.RAG.SettleDelaySeconds == 0 {
		c.RAG.SettleDelaySeconds = defaultSettleSeconds
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = defaultChunkSize
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if c.RAG.CuratedCollection == "" {
		c.RAG.CuratedCollection = "trip_recommendation"
	}
	if c.RAG.DocumentCollection == "" {
		c.RAG.DocumentCollection = "document"
	}
	if c.RAG.Persona == "" {
		c.RAG.Persona = "a helpful travel assistant"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
}

// SettleDelay returns the configured settling delay as a duration.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.RAG.SettleDelaySeconds) * time.Second
}
