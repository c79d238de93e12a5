// Package config provides configuration types and utilities for the AI agent framework.
// This file contains the typed configuration schema and its defaults/validation.
package config

import "fmt"

// ============================================================================
// TOP-LEVEL CONFIG
// ============================================================================

// Config is the root configuration document. Every field has a default;
// an absent config file yields a zero Config with SetDefaults applied.
type Config struct {
	Version         string                `yaml:"version"`
	LLM             LLMConfig             `yaml:"llm"`
	SystemPrompt    string                `yaml:"system_prompt"`
	RAG             RAGConfig             `yaml:"rag"`
	Storage         StorageConfig         `yaml:"storage"`
	Personalization PersonalizationConfig `yaml:"personalization"`
	Logging         LoggingConfig         `yaml:"logging"`
	Performance     PerformanceConfig     `yaml:"performance"`
}

// SetDefaults fills every zero-valued field with its documented default.
func (c *Config) SetDefaults() {
	c.LLM.SetDefaults()
	c.RAG.SetDefaults()
	c.Storage.SetDefaults()
	c.Personalization.SetDefaults()
	c.Logging.SetDefaults()
	c.Performance.SetDefaults()
}

// Validate checks every sub-config in turn, returning the first error found.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.RAG.Validate(); err != nil {
		return fmt.Errorf("rag: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Personalization.Validate(); err != nil {
		return fmt.Errorf("personalization: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Performance.Validate(); err != nil {
		return fmt.Errorf("performance: %w", err)
	}
	return nil
}

// ============================================================================
// LLM
// ============================================================================

// LLMConfig describes the chat/completion backend.
type LLMConfig struct {
	Model         string  `yaml:"model"`
	BaseURL       string  `yaml:"base_url"`
	Temperature   float64 `yaml:"temperature"`
	ContextLength int     `yaml:"context_length"`
}

func (c *LLMConfig) Validate() error {
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}
	if c.ContextLength < 0 {
		return fmt.Errorf("context_length must be non-negative")
	}
	return nil
}

func (c *LLMConfig) SetDefaults() {
	if c.Model == "" {
		c.Model = "llama3.2"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.ContextLength == 0 {
		c.ContextLength = 4096
	}
}

// ============================================================================
// RAG
// ============================================================================

// EmbeddingModelConfig names the embedding model, accepted either as a bare
// string (the model name) or as a full mapping in YAML — see UnmarshalYAML.
type EmbeddingModelConfig struct {
	Name          string `yaml:"name"`
	HFRepo        string `yaml:"hf_repo,omitempty"`
	Path          string `yaml:"path,omitempty"`
	EmbeddingDim  int    `yaml:"embedding_dim,omitempty"`
	ContextLength int    `yaml:"context_length,omitempty"`
}

// UnmarshalYAML accepts either a scalar string ("nomic-embed-text") or a
// mapping ({name: ..., hf_repo: ..., ...}), per SPEC_FULL.md §6.
func (c *EmbeddingModelConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err == nil {
		c.Name = name
		return nil
	}

	type plain EmbeddingModelConfig
	var p plain
	if err := unmarshal(&p); err != nil {
		return fmt.Errorf("embedding_model: expected string or mapping: %w", err)
	}
	*c = EmbeddingModelConfig(p)
	return nil
}

// IndexerConfig controls file discovery and filtering for directory indexing.
type IndexerConfig struct {
	Extensions      []string `yaml:"extensions"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

func (c *IndexerConfig) SetDefaults() {
	if c.ExcludePatterns == nil {
		c.ExcludePatterns = []string{
			".git", "node_modules", "vendor", "target", "dist", "build",
			".idea", ".vscode", "__pycache__", ".DS_Store",
		}
	}
}

func (c *IndexerConfig) Validate() error {
	return nil
}

// RAGConfig controls chunking, embedding, and indexing.
type RAGConfig struct {
	EmbeddingModel EmbeddingModelConfig `yaml:"embedding_model"`
	ChunkSize      int                  `yaml:"chunk_size"`
	ChunkOverlap   int                  `yaml:"chunk_overlap"`
	Indexer        IndexerConfig        `yaml:"indexer"`
}

func (c *RAGConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk_overlap must be non-negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be less than chunk_size (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	return c.Indexer.Validate()
}

func (c *RAGConfig) SetDefaults() {
	if c.EmbeddingModel.Name == "" {
		c.EmbeddingModel.Name = "nomic-embed-text"
	}
	if c.EmbeddingModel.EmbeddingDim == 0 {
		c.EmbeddingModel.EmbeddingDim = 768
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 512
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 50
	}
	c.Indexer.SetDefaults()
}

// ============================================================================
// STORAGE
// ============================================================================

// EmbeddedStoreConfig configures the embedded (chromem-go) vector store.
type EmbeddedStoreConfig struct {
	Path string `yaml:"path"`
}

// GRPCStoreConfig configures a remote vector store reached over a local RPC URL.
type GRPCStoreConfig struct {
	URL string `yaml:"url"`
}

// StorageModeConfig selects exactly one of the two recognized VectorStore
// backends. Exactly one of Embedded/GRPC should be set; Embedded is assumed
// if neither is.
type StorageModeConfig struct {
	Embedded *EmbeddedStoreConfig `yaml:"embedded,omitempty"`
	GRPC     *GRPCStoreConfig     `yaml:"grpc,omitempty"`
}

func (c *StorageModeConfig) SetDefaults() {
	if c.Embedded == nil && c.GRPC == nil {
		c.Embedded = &EmbeddedStoreConfig{}
	}
	if c.Embedded != nil && c.Embedded.Path == "" {
		c.Embedded.Path = "~/.assistant/vectordb"
	}
}

func (c *StorageModeConfig) Validate() error {
	if c.Embedded == nil && c.GRPC == nil {
		return fmt.Errorf("storage_mode requires either embedded or grpc")
	}
	if c.GRPC != nil && c.GRPC.URL == "" {
		return fmt.Errorf("storage_mode.grpc.url is required")
	}
	return nil
}

// VectorDBConfig names the collection used by whichever VectorStore backend
// is active.
type VectorDBConfig struct {
	CollectionName string `yaml:"collection_name"`
}

func (c *VectorDBConfig) SetDefaults() {
	if c.CollectionName == "" {
		c.CollectionName = "assistant_knowledge"
	}
}

// StorageConfig controls where conversation/tool state and the knowledge
// base persist.
type StorageConfig struct {
	ChatHistoryPath string             `yaml:"chat_history_path"`
	ToolStatePath   string             `yaml:"tool_state_path"`
	StorageMode     StorageModeConfig  `yaml:"storage_mode"`
	VectorDB        VectorDBConfig     `yaml:"vector_db"`
	TopK            int                `yaml:"top_k"`
}

func (c *StorageConfig) Validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be >= 1, got %d", c.TopK)
	}
	return c.StorageMode.Validate()
}

func (c *StorageConfig) SetDefaults() {
	if c.ChatHistoryPath == "" {
		c.ChatHistoryPath = "~/.assistant/history"
	}
	if c.ToolStatePath == "" {
		c.ToolStatePath = "~/.assistant/tools"
	}
	if c.TopK == 0 {
		c.TopK = 3
	}
	c.StorageMode.SetDefaults()
	c.VectorDB.SetDefaults()
}

// ============================================================================
// PERSONALIZATION
// ============================================================================

// PersonalizationConfig controls optional learning/persistence behavior.
type PersonalizationConfig struct {
	LearnFromInteractions bool   `yaml:"learn_from_interactions"`
	SaveConversations     bool   `yaml:"save_conversations"`
	UserPreferencesPath   string `yaml:"user_preferences_path"`
}

func (c *PersonalizationConfig) Validate() error {
	return nil
}

func (c *PersonalizationConfig) SetDefaults() {
	if c.UserPreferencesPath == "" {
		c.UserPreferencesPath = "~/.assistant/preferences.yaml"
	}
}

// ============================================================================
// AMBIENT: LOGGING / PERFORMANCE
// ============================================================================

// LoggingConfig controls the slog handler used across the engine.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s", c.Format)
	}
	validOutputs := map[string]bool{"stdout": true, "stderr": true, "file": true}
	if !validOutputs[c.Output] {
		return fmt.Errorf("invalid output destination: %s", c.Output)
	}
	return nil
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}

// PerformanceConfig holds batch-size and watchdog settings. They are
// defaulted and validated, but no component reads them: the RAG engine's
// embed batch size and the providers' watchdog timeouts use their own
// package defaults.
type PerformanceConfig struct {
	EmbedBatchSize       int `yaml:"embed_batch_size"`
	ChunkInactivityMS    int `yaml:"chunk_inactivity_ms"`
	StreamCreationTimeMS int `yaml:"stream_creation_time_ms"`
}

func (c *PerformanceConfig) Validate() error {
	if c.EmbedBatchSize <= 0 {
		return fmt.Errorf("embed_batch_size must be positive, got %d", c.EmbedBatchSize)
	}
	if c.ChunkInactivityMS <= 0 {
		return fmt.Errorf("chunk_inactivity_ms must be positive, got %d", c.ChunkInactivityMS)
	}
	if c.StreamCreationTimeMS <= 0 {
		return fmt.Errorf("stream_creation_time_ms must be positive, got %d", c.StreamCreationTimeMS)
	}
	return nil
}

func (c *PerformanceConfig) SetDefaults() {
	if c.EmbedBatchSize == 0 {
		c.EmbedBatchSize = 32
	}
	if c.ChunkInactivityMS == 0 {
		c.ChunkInactivityMS = 30_000
	}
	if c.StreamCreationTimeMS == 0 {
		c.StreamCreationTimeMS = 60_000
	}
}
