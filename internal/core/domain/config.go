package domain

import (
	"fmt"
	"time"
)

// VectorBackend selects the vector store implementation.
type VectorBackend string

// Available vector backends.
const (
	VectorBackendUpstash  VectorBackend = "upstash"
	VectorBackendPGVector VectorBackend = "pgvector"
	VectorBackendMemory   VectorBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendUpstash, VectorBackendPGVector, VectorBackendMemory:
		return true
	default:
		return false
	}
}

// Default configuration values.
const (
	DefaultParserBaseURL      = "https://api.cloud.llamaindex.ai/api/parsing"
	DefaultParserModel        = "openai-gpt-4-1"
	DefaultNumWorkers         = 4
	DefaultMaxWait            = 600 * time.Second
	DefaultCheckInterval      = 10 * time.Second
	DefaultParserTimeout      = 30 * time.Second
	DefaultResultTimeout      = 60 * time.Second
	DefaultEmbeddingBaseURL   = "https://api.voyageai.com/v1/multimodalembeddings"
	DefaultEmbeddingModel     = "voyage-multimodal-3"
	DefaultEmbeddingDims      = 1024
	DefaultEmbeddingTimeout   = 60 * time.Second
	DefaultVectorTimeout      = 30 * time.Second
	DefaultMaxInlineImageSize = 1 << 20
	DefaultRangeLimit         = 1000
	DefaultVectorBatchSize    = 100
	DefaultTopK               = 3
	DefaultLLMBaseURL         = "https://api.openai.com/v1"
	DefaultLLMModel           = "gpt-4o-mini"
	DefaultBatchSize          = 3
	DefaultBatchPause         = time.Second
	DefaultRequestsPerSecond  = 5.0
)

// ParserConfig configures the document-parsing service client.
type ParserConfig struct {
	BaseURL       string
	Token         string
	Multimodal    bool
	Model         string
	NumWorkers    int
	MaxWait       time.Duration
	CheckInterval time.Duration
	Timeout       time.Duration
	ResultTimeout time.Duration
	RatePerSecond float64
}

// EmbeddingConfig configures the embedding service client.
type EmbeddingConfig struct {
	BaseURL       string
	Token         string
	Model         string
	Dimensions    int
	Timeout       time.Duration
	RatePerSecond float64
}

// VectorConfig configures the vector store.
type VectorConfig struct {
	Backend            VectorBackend
	URL                string
	Token              string
	Namespace          string
	PostgresURL        string
	MaxInlineImageSize int
	RangeLimit         int
	BatchSize          int
	Timeout            time.Duration
	RatePerSecond      float64
}

// StorageConfig configures local checkpoint and history storage.
type StorageConfig struct {
	DataDir       string
	ImagesDir     string
	PayloadDir    string
	EmbeddingsDir string
}

// LLMConfig configures optional answer synthesis.
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// IsConfigured returns true if an API key is present.
func (c LLMConfig) IsConfigured() bool {
	return c.APIKey != ""
}

// BatchConfig configures concurrent multi-document runs.
type BatchConfig struct {
	Size  int
	Pause time.Duration
}

// Config is the explicit configuration passed to component constructors.
type Config struct {
	Verbose   bool
	Parser    ParserConfig
	Embedding EmbeddingConfig
	Vector    VectorConfig
	Storage   StorageConfig
	LLM       LLMConfig
	Batch     BatchConfig
}

// DefaultConfig returns the configuration used when nothing is set.
// Storage directories are left empty and resolved against DataDir.
func DefaultConfig() Config {
	return Config{
		Verbose: true,
		Parser: ParserConfig{
			BaseURL:       DefaultParserBaseURL,
			Multimodal:    true,
			Model:         DefaultParserModel,
			NumWorkers:    DefaultNumWorkers,
			MaxWait:       DefaultMaxWait,
			CheckInterval: DefaultCheckInterval,
			Timeout:       DefaultParserTimeout,
			ResultTimeout: DefaultResultTimeout,
			RatePerSecond: DefaultRequestsPerSecond,
		},
		Embedding: EmbeddingConfig{
			BaseURL:       DefaultEmbeddingBaseURL,
			Model:         DefaultEmbeddingModel,
			Dimensions:    DefaultEmbeddingDims,
			Timeout:       DefaultEmbeddingTimeout,
			RatePerSecond: DefaultRequestsPerSecond,
		},
		Vector: VectorConfig{
			Backend:            VectorBackendUpstash,
			MaxInlineImageSize: DefaultMaxInlineImageSize,
			RangeLimit:         DefaultRangeLimit,
			BatchSize:          DefaultVectorBatchSize,
			Timeout:            DefaultVectorTimeout,
			RatePerSecond:      DefaultRequestsPerSecond,
		},
		LLM: LLMConfig{
			BaseURL: DefaultLLMBaseURL,
			Model:   DefaultLLMModel,
		},
		Batch: BatchConfig{
			Size:  DefaultBatchSize,
			Pause: DefaultBatchPause,
		},
	}
}

// Validate checks values that would make the pipeline misbehave.
func (c Config) Validate() error {
	if c.Parser.CheckInterval <= 0 {
		return fmt.Errorf("%w: check interval must be positive", ErrInvalidInput)
	}
	if c.Parser.MaxWait <= 0 {
		return fmt.Errorf("%w: max wait must be positive", ErrInvalidInput)
	}
	if c.Parser.NumWorkers <= 0 {
		return fmt.Errorf("%w: worker count must be positive", ErrInvalidInput)
	}
	if !c.Vector.Backend.IsValid() {
		return fmt.Errorf("%w: unknown vector backend %q", ErrInvalidInput, c.Vector.Backend)
	}
	if c.Vector.RangeLimit <= 0 || c.Vector.BatchSize <= 0 {
		return fmt.Errorf("%w: vector range limit and batch size must be positive", ErrInvalidInput)
	}
	if c.Batch.Size <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidInput)
	}
	return nil
}
