// Command pagevec parses PDFs, embeds their pages and indexes the vectors.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/pagevec/internal/adapters/driven/artifacts/file"
	"github.com/custodia-labs/pagevec/internal/adapters/driven/config/env"
	configfile "github.com/custodia-labs/pagevec/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pagevec/internal/adapters/driven/embedding/voyage"
	"github.com/custodia-labs/pagevec/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/pagevec/internal/adapters/driven/parser/llamaparse"
	"github.com/custodia-labs/pagevec/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pagevec/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/pagevec/internal/adapters/driven/unconfigured"
	vectormemory "github.com/custodia-labs/pagevec/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/pagevec/internal/adapters/driven/vector/postgres"
	"github.com/custodia-labs/pagevec/internal/adapters/driven/vector/upstash"
	"github.com/custodia-labs/pagevec/internal/adapters/driving/cli"
	"github.com/custodia-labs/pagevec/internal/core/domain"
	"github.com/custodia-labs/pagevec/internal/core/ports/driven"
	"github.com/custodia-labs/pagevec/internal/core/services"
	"github.com/custodia-labs/pagevec/internal/logger"
)

func main() {
	if err := cli.Execute(buildServices); err != nil {
		if !cli.IsRunFailed(err) {
			logger.Error("%v", err)
		}
		os.Exit(1)
	}
}

// loadConfig layers defaults, the config file, .env and the environment.
func loadConfig(opts cli.Options) (domain.Config, *configfile.ConfigStore, error) {
	cfg := domain.DefaultConfig()

	store, err := configfile.NewConfigStore(opts.ConfigPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("config file: %w", err)
	}
	sources := []driven.ConfigSource{store, env.NewSource()}
	for _, src := range sources {
		if err := src.Apply(&cfg); err != nil {
			return cfg, nil, err
		}
	}
	if opts.VerboseSet {
		cfg.Verbose = opts.Verbose
	}
	return cfg, store, nil
}

func buildServices(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	cfg, configStore, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger.SetVerbose(cfg.Verbose)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	artifacts, err := file.NewStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("checkpoint directories: %w", err)
	}
	cfg.Storage = artifacts.Dirs()

	var closers []func() error

	runStore := openRunStore(cfg.Storage.DataDir)
	closers = append(closers, runStore.Close)

	vectors := openVectorStore(ctx, cfg.Vector)
	closers = append(closers, vectors.Close)

	parser := newParser(cfg.Parser)
	embedder := newEmbedder(cfg.Embedding)

	var llm driven.LLMService
	if cfg.LLM.IsConfigured() {
		svc, err := openai.NewLLMService(cfg.LLM)
		if err != nil {
			return nil, err
		}
		llm = svc
		closers = append(closers, svc.Close)
	}

	poller := services.NewJobPoller(parser, cfg.Parser, nil)
	extractor := services.NewArtifactExtractor(parser, artifacts, cfg.Embedding.Model, cfg.Vector.MaxInlineImageSize)
	requester := services.NewEmbeddingRequester(embedder, artifacts, cfg.Embedding.Dimensions)
	syncer := services.NewVectorSynchronizer(vectors, artifacts, cfg.Vector)
	pipeline := services.NewPipelineOrchestrator(poller, extractor, requester, syncer, runStore)

	query := services.NewQueryService(embedder, vectors, llm, cfg.Vector)
	promptDir := filepath.Join(filepath.Dir(configStore.Path()), "prompts")
	prompts, err := configfile.NewPromptStore(promptDir, map[string]string{
		driven.PromptAskSystem: services.DefaultAskSystemPrompt,
	})
	if err != nil {
		logger.Warn("Prompt directory unavailable, using built-in prompts: %v", err)
	} else {
		query.SetPromptStore(prompts)
	}

	return &cli.Services{
		Pipeline:    pipeline,
		Batch:       services.NewBatchRunner(pipeline, cfg.Batch, nil),
		Query:       query,
		Runs:        services.NewRunHistoryService(runStore),
		ConfigStore: configStore,
		Config:      cfg,
		Close: func() error {
			var errs []error
			for i := len(closers) - 1; i >= 0; i-- {
				errs = append(errs, closers[i]())
			}
			return errors.Join(errs...)
		},
	}, nil
}

func openRunStore(dataDir string) driven.RunStore {
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		logger.Warn("Run history unavailable, keeping it in memory: %v", err)
		return memory.NewRunStore()
	}
	return store.RunStore()
}

func openVectorStore(ctx context.Context, cfg domain.VectorConfig) driven.VectorStore {
	switch cfg.Backend {
	case domain.VectorBackendMemory:
		return vectormemory.NewStore()
	case domain.VectorBackendPGVector:
		store, err := postgres.NewStore(ctx, cfg)
		if err != nil {
			return unconfigured.VectorStore{Err: fmt.Errorf("%w: %w", domain.ErrVectorStore, err)}
		}
		return store
	default:
		store, err := upstash.NewStore(cfg)
		if err != nil {
			return unconfigured.VectorStore{Err: fmt.Errorf("%w: set UPSTASH_VECTOR_REST_URL and UPSTASH_VECTOR_REST_TOKEN", err)}
		}
		return store
	}
}

func newParser(cfg domain.ParserConfig) driven.DocumentParser {
	client, err := llamaparse.NewClient(cfg)
	if err != nil {
		return unconfigured.Parser{Err: fmt.Errorf("%w: set LLAMA_API_TOKEN", err)}
	}
	return client
}

func newEmbedder(cfg domain.EmbeddingConfig) driven.MultimodalEmbedder {
	svc, err := voyage.NewEmbeddingService(cfg)
	if err != nil {
		return unconfigured.Embedder{Err: fmt.Errorf("%w: set VOYAGE_API_KEY", err), Model: cfg.Model}
	}
	return svc
}
