// Package config loads and validates polisearch configuration.
//
// Configuration is applied in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/polisearch/config.yaml)
//  3. Project config (polisearch.yaml in the working directory)
//  4. Environment variables (POLISEARCH_*)
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	polierrors "github.com/polisearch/polisearch/internal/errors"
)

// Config represents the complete polisearch configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Paths    PathsConfig    `yaml:"paths" json:"paths"`
	Chunk    ChunkConfig    `yaml:"chunk" json:"chunk"`
	Search   SearchConfig   `yaml:"search" json:"search"`
	Assemble AssembleConfig `yaml:"assemble" json:"assemble"`
	Vector   VectorConfig   `yaml:"vector" json:"vector"`
	Embed    EmbedConfig    `yaml:"embeddings" json:"embeddings"`
	Answer   AnswerConfig   `yaml:"answer" json:"answer"`
	Watch    WatchConfig    `yaml:"watch" json:"watch"`
	Server   ServerConfig   `yaml:"server" json:"server"`
}

// PathsConfig configures data locations.
type PathsConfig struct {
	// DataDir is the directory holding indexes, metadata, and locks.
	// Defaults to ~/.polisearch/data.
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// Pages is the path to the extracted pages JSON file.
	Pages string `yaml:"pages" json:"pages"`
	// PDF is the path to the source PDF, used when Pages is absent.
	PDF string `yaml:"pdf" json:"pdf"`
}

// ChunkConfig configures the sliding-window chunker.
type ChunkConfig struct {
	// TargetSize is the chunk window size in tokens.
	TargetSize int `yaml:"target_size" json:"target_size"`
	// Overlap is the number of tokens shared between consecutive windows.
	// Must be strictly less than TargetSize.
	Overlap int `yaml:"overlap" json:"overlap"`
	// Workers is the number of pages chunked concurrently.
	Workers int `yaml:"workers" json:"workers"`
}

// SearchConfig configures hybrid retrieval.
type SearchConfig struct {
	// TopK is the number of chunks returned per query.
	TopK int `yaml:"top_k" json:"top_k"`
	// VectorWeight is the weight of the vector leg in score fusion (0.0-1.0).
	// The lexical leg gets 1 - VectorWeight.
	VectorWeight float64 `yaml:"vector_weight" json:"vector_weight"`
	// CandidateMultiplier controls how many candidates each leg fetches
	// relative to TopK before fusion and dedup.
	CandidateMultiplier int `yaml:"candidate_multiplier" json:"candidate_multiplier"`
}

// AssembleConfig configures context assembly.
type AssembleConfig struct {
	// MaxContextTokens is the token budget for the assembled context.
	MaxContextTokens int `yaml:"max_context_tokens" json:"max_context_tokens"`
}

// VectorConfig configures the vector index backend.
type VectorConfig struct {
	// Backend selects the vector store: "hnsw" (default, embedded) or
	// "pgvector" (external PostgreSQL).
	Backend string `yaml:"backend" json:"backend"`
	// PostgresURL is the connection string for the pgvector backend.
	PostgresURL string `yaml:"postgres_url" json:"postgres_url"`
	// Table is the pgvector table name.
	Table string `yaml:"table" json:"table"`
}

// EmbedConfig configures the embedding provider.
type EmbedConfig struct {
	// Provider selects the embedder: "ollama" or "static".
	// Empty triggers auto-detection (Ollama if reachable, static otherwise).
	Provider string `yaml:"provider" json:"provider"`
	// Model is the embedding model name.
	Model string `yaml:"model" json:"model"`
	// Dimensions is the embedding dimension. 0 auto-detects from the embedder.
	Dimensions int `yaml:"dimensions" json:"dimensions"`
	// BatchSize is the number of texts embedded per batch.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// MaxConcurrent bounds in-flight Ollama embedding requests.
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`
	// OllamaHost is the Ollama API endpoint (default: http://localhost:11434).
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`
	// CacheSize is the number of embeddings kept in the LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// AnswerConfig configures answer generation.
type AnswerConfig struct {
	// Model is the Ollama generation model.
	Model string `yaml:"model" json:"model"`
	// Temperature controls generation randomness.
	Temperature float64 `yaml:"temperature" json:"temperature"`
}

// WatchConfig configures source file watching.
type WatchConfig struct {
	// Debounce is the quiet period before a rebuild (e.g. "500ms").
	Debounce string `yaml:"debounce" json:"debounce"`
}

// ServerConfig configures process-level behavior.
type ServerConfig struct {
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			DataDir: defaultDataDir(),
		},
		Chunk: ChunkConfig{
			TargetSize: 300,
			Overlap:    100,
			Workers:    runtime.NumCPU(),
		},
		Search: SearchConfig{
			TopK:                5,
			VectorWeight:        0.6,
			CandidateMultiplier: 3,
		},
		Assemble: AssembleConfig{
			MaxContextTokens: 6000,
		},
		Vector: VectorConfig{
			Backend: "hnsw",
			Table:   "policy_chunks",
		},
		Embed: EmbedConfig{
			Provider:      "", // auto-detect
			Model:         "nomic-embed-text",
			Dimensions:    0, // auto-detect from embedder
			BatchSize:     32,
			MaxConcurrent: 3,
			OllamaHost:    "",
			CacheSize:     2048,
		},
		Answer: AnswerConfig{
			Model:       "llama3.1",
			Temperature: 0.1,
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Server: ServerConfig{
			LogLevel: "info",
		},
	}
}

// defaultDataDir returns the default data directory.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".polisearch", "data")
	}
	return filepath.Join(home, ".polisearch", "data")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/polisearch/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/polisearch/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "polisearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "polisearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "polisearch", "config.yaml")
}

// Load loads configuration from the specified directory.
// Invalid configuration is rejected before any processing starts.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, polierrors.ConfigError("failed to load user config", err)
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, polierrors.ConfigError("failed to load project config", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from polisearch.yaml or polisearch.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, "polisearch.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, "polisearch.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// fileConfig mirrors Config for YAML parsing. Keys whose zero value is a
// valid setting (lexical-only vector_weight, zero chunk overlap, zero
// temperature) are pointers so an explicit 0 in the file is
// distinguishable from an absent key.
type fileConfig struct {
	Version int         `yaml:"version"`
	Paths   PathsConfig `yaml:"paths"`
	Chunk   struct {
		TargetSize int  `yaml:"target_size"`
		Overlap    *int `yaml:"overlap"`
		Workers    int  `yaml:"workers"`
	} `yaml:"chunk"`
	Search struct {
		TopK                int      `yaml:"top_k"`
		VectorWeight        *float64 `yaml:"vector_weight"`
		CandidateMultiplier int      `yaml:"candidate_multiplier"`
	} `yaml:"search"`
	Assemble AssembleConfig `yaml:"assemble"`
	Vector   VectorConfig   `yaml:"vector"`
	Embed    EmbedConfig    `yaml:"embeddings"`
	Answer   struct {
		Model       string   `yaml:"model"`
		Temperature *float64 `yaml:"temperature"`
	} `yaml:"answer"`
	Watch  WatchConfig  `yaml:"watch"`
	Server ServerConfig `yaml:"server"`
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed fileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges set values from a parsed file into c. Pointer fields
// merge on presence; everything else merges on non-zero.
func (c *Config) mergeWith(other *fileConfig) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Paths.DataDir != "" {
		c.Paths.DataDir = other.Paths.DataDir
	}
	if other.Paths.Pages != "" {
		c.Paths.Pages = other.Paths.Pages
	}
	if other.Paths.PDF != "" {
		c.Paths.PDF = other.Paths.PDF
	}

	if other.Chunk.TargetSize != 0 {
		c.Chunk.TargetSize = other.Chunk.TargetSize
	}
	if other.Chunk.Overlap != nil {
		c.Chunk.Overlap = *other.Chunk.Overlap
	}
	if other.Chunk.Workers != 0 {
		c.Chunk.Workers = other.Chunk.Workers
	}

	if other.Search.TopK != 0 {
		c.Search.TopK = other.Search.TopK
	}
	if other.Search.VectorWeight != nil {
		c.Search.VectorWeight = *other.Search.VectorWeight
	}
	if other.Search.CandidateMultiplier != 0 {
		c.Search.CandidateMultiplier = other.Search.CandidateMultiplier
	}

	if other.Assemble.MaxContextTokens != 0 {
		c.Assemble.MaxContextTokens = other.Assemble.MaxContextTokens
	}

	if other.Vector.Backend != "" {
		c.Vector.Backend = other.Vector.Backend
	}
	if other.Vector.PostgresURL != "" {
		c.Vector.PostgresURL = other.Vector.PostgresURL
	}
	if other.Vector.Table != "" {
		c.Vector.Table = other.Vector.Table
	}

	if other.Embed.Provider != "" {
		c.Embed.Provider = other.Embed.Provider
	}
	if other.Embed.Model != "" {
		c.Embed.Model = other.Embed.Model
	}
	if other.Embed.Dimensions != 0 {
		c.Embed.Dimensions = other.Embed.Dimensions
	}
	if other.Embed.BatchSize != 0 {
		c.Embed.BatchSize = other.Embed.BatchSize
	}
	if other.Embed.MaxConcurrent != 0 {
		c.Embed.MaxConcurrent = other.Embed.MaxConcurrent
	}
	if other.Embed.OllamaHost != "" {
		c.Embed.OllamaHost = other.Embed.OllamaHost
	}
	if other.Embed.CacheSize != 0 {
		c.Embed.CacheSize = other.Embed.CacheSize
	}

	if other.Answer.Model != "" {
		c.Answer.Model = other.Answer.Model
	}
	if other.Answer.Temperature != nil {
		c.Answer.Temperature = *other.Answer.Temperature
	}

	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}

	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies POLISEARCH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("POLISEARCH_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("POLISEARCH_PAGES"); v != "" {
		c.Paths.Pages = v
	}

	if v := os.Getenv("POLISEARCH_VECTOR_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && w >= 0 && w <= 1 {
			c.Search.VectorWeight = w
		}
	}
	if v := os.Getenv("POLISEARCH_TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.TopK = k
		}
	}
	if v := os.Getenv("POLISEARCH_MAX_CONTEXT_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Assemble.MaxContextTokens = n
		}
	}

	if v := os.Getenv("POLISEARCH_VECTOR_BACKEND"); v != "" {
		c.Vector.Backend = v
	}
	if v := os.Getenv("POLISEARCH_POSTGRES_URL"); v != "" {
		c.Vector.PostgresURL = v
	}

	if v := os.Getenv("POLISEARCH_EMBEDDER"); v != "" {
		c.Embed.Provider = v
	}
	if v := os.Getenv("POLISEARCH_EMBED_MODEL"); v != "" {
		c.Embed.Model = v
	}
	if v := os.Getenv("POLISEARCH_OLLAMA_HOST"); v != "" {
		c.Embed.OllamaHost = v
	}

	if v := os.Getenv("POLISEARCH_ANSWER_MODEL"); v != "" {
		c.Answer.Model = v
	}

	if v := os.Getenv("POLISEARCH_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// Validate validates the configuration and returns a fatal configuration
// error if any value is out of range.
func (c *Config) Validate() error {
	if c.Chunk.TargetSize <= 0 {
		return polierrors.ConfigError(
			fmt.Sprintf("chunk.target_size must be positive, got %d", c.Chunk.TargetSize), nil)
	}
	if c.Chunk.Overlap < 0 {
		return polierrors.ConfigError(
			fmt.Sprintf("chunk.overlap must be non-negative, got %d", c.Chunk.Overlap), nil)
	}
	if c.Chunk.Overlap >= c.Chunk.TargetSize {
		return polierrors.ConfigError(
			fmt.Sprintf("chunk.overlap (%d) must be less than chunk.target_size (%d)",
				c.Chunk.Overlap, c.Chunk.TargetSize), nil).
			WithSuggestion("reduce chunk.overlap or increase chunk.target_size")
	}

	if c.Search.TopK <= 0 {
		return polierrors.ConfigError(
			fmt.Sprintf("search.top_k must be positive, got %d", c.Search.TopK), nil)
	}
	if c.Search.VectorWeight < 0 || c.Search.VectorWeight > 1 ||
		math.IsNaN(c.Search.VectorWeight) {
		return polierrors.ConfigError(
			fmt.Sprintf("search.vector_weight must be between 0.0 and 1.0, got %f",
				c.Search.VectorWeight), nil)
	}
	if c.Search.CandidateMultiplier <= 0 {
		return polierrors.ConfigError(
			fmt.Sprintf("search.candidate_multiplier must be positive, got %d",
				c.Search.CandidateMultiplier), nil)
	}

	if c.Assemble.MaxContextTokens <= 0 {
		return polierrors.ConfigError(
			fmt.Sprintf("assemble.max_context_tokens must be positive, got %d",
				c.Assemble.MaxContextTokens), nil)
	}

	validBackends := map[string]bool{"hnsw": true, "pgvector": true}
	if !validBackends[strings.ToLower(c.Vector.Backend)] {
		return polierrors.ConfigError(
			fmt.Sprintf("vector.backend must be 'hnsw' or 'pgvector', got %s", c.Vector.Backend), nil)
	}
	if strings.ToLower(c.Vector.Backend) == "pgvector" && c.Vector.PostgresURL == "" {
		return polierrors.ConfigError(
			"vector.postgres_url is required for the pgvector backend", nil).
			WithSuggestion("set vector.postgres_url or POLISEARCH_POSTGRES_URL")
	}

	if c.Embed.Provider != "" { // empty triggers auto-detection
		validProviders := map[string]bool{"ollama": true, "static": true}
		if !validProviders[strings.ToLower(c.Embed.Provider)] {
			return polierrors.ConfigError(
				fmt.Sprintf("embeddings.provider must be 'ollama', 'static', or empty (auto-detect), got %s",
					c.Embed.Provider), nil)
		}
	}
	if c.Embed.Dimensions < 0 {
		return polierrors.ConfigError(
			fmt.Sprintf("embeddings.dimensions must be non-negative, got %d", c.Embed.Dimensions), nil)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return polierrors.ConfigError(
			fmt.Sprintf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s",
				c.Server.LogLevel), nil)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
