package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	PipelineText       = "text"
	PipelineMultimodal = "multimodal"

	StorePostgres = "postgres"
	StoreChromem  = "chromem"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// StoreConfig selects the chunk store backend. The chromem backend is an
// embedded file-based store for local use; it supports the text pipeline only.
type StoreConfig struct {
	Type       string `yaml:"type"`
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

// LLMConfig configures one model endpoint (embedding or completion).
type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

// VoyageConfig configures the multimodal embedding provider.
type VoyageConfig struct {
	BaseURL         string `yaml:"base_url"`
	Key             string `yaml:"key"`
	Model           string `yaml:"model"`
	OutputDimension int    `yaml:"output_dimension"`
}

// RAGConfig holds the retrieval and chunking policy knobs.
type RAGConfig struct {
	Pipeline            string  `yaml:"pipeline"`
	MaxTokensPerChunk   int     `yaml:"max_tokens_per_chunk"`
	ContentContainer    string  `yaml:"content_container"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	ResultLimit         int     `yaml:"result_limit"`
	MaxSteps            int     `yaml:"max_steps"`
	// LegacyNonAtomicIngest restores the original two-write text ingestion
	// (resource insert then chunk insert, no transaction). Off by default.
	LegacyNonAtomicIngest bool `yaml:"legacy_non_atomic_ingest"`
}

type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Database  DatabaseConfig `yaml:"database"`
	Store     StoreConfig    `yaml:"store"`
	EmbedLLM  LLMConfig      `yaml:"embed_llm"`
	VoyageLLM VoyageConfig   `yaml:"voyage_llm"`
	ChatLLM   LLMConfig      `yaml:"chat_llm"`
	RAG       RAGConfig      `yaml:"rag"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = StorePostgres
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./chromemdb"
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "guides"
	}
	if cfg.RAG.Pipeline == "" {
		cfg.RAG.Pipeline = PipelineText
	}
	if cfg.RAG.MaxTokensPerChunk == 0 {
		cfg.RAG.MaxTokensPerChunk = 1000
	}
	if cfg.RAG.ContentContainer == "" {
		cfg.RAG.ContentContainer = "page-content"
	}
	if cfg.RAG.SimilarityThreshold == 0 {
		cfg.RAG.SimilarityThreshold = 0.5
	}
	if cfg.RAG.ResultLimit == 0 {
		cfg.RAG.ResultLimit = 4
	}
	if cfg.RAG.MaxSteps == 0 {
		cfg.RAG.MaxSteps = 5
	}
	if cfg.VoyageLLM.BaseURL == "" {
		cfg.VoyageLLM.BaseURL = "https://api.voyageai.com/v1"
	}
	if cfg.VoyageLLM.Model == "" {
		cfg.VoyageLLM.Model = "voyage-multimodal-3"
	}
	if cfg.VoyageLLM.OutputDimension == 0 {
		cfg.VoyageLLM.OutputDimension = 1024
	}
}

func Validate(cfg *Config) error {
	if cfg.RAG.Pipeline != PipelineText && cfg.RAG.Pipeline != PipelineMultimodal {
		return fmt.Errorf("unknown rag pipeline: %s", cfg.RAG.Pipeline)
	}
	if cfg.Store.Type != StorePostgres && cfg.Store.Type != StoreChromem {
		return fmt.Errorf("unknown store type: %s", cfg.Store.Type)
	}
	// The multimodal pipeline needs the relational store: its ingestion is one
	// transaction across three tables and its retrieval joins image rows.
	if cfg.RAG.Pipeline == PipelineMultimodal && cfg.Store.Type != StorePostgres {
		return fmt.Errorf("multimodal pipeline requires the postgres store, got %s", cfg.Store.Type)
	}
	return nil
}
