// Command manualqa answers questions about product manuals.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/chromem"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/fsutil"
	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/manualqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/services"
	"github.com/custodia-labs/manualqa/internal/logger"
	"github.com/custodia-labs/manualqa/internal/normalisers"
	"github.com/custodia-labs/manualqa/internal/postprocessors"
)

// version is set at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads the configuration and wires the services a command needs.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	cfg, err := file.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	logger.SetVerbose(opts.Verbose || cfg.Verbose)

	if opts.Need == cli.NeedConfig {
		return &cli.Services{Health: ai.NewChecker(cfg)}, nil
	}

	aiServices, err := ai.Init(ctx, cfg, false)
	if err != nil {
		return nil, err
	}

	prompts, err := file.NewPromptStore(cfg.Paths.PromptDir)
	if err != nil {
		aiServices.Close()
		return nil, fmt.Errorf("prompts: %w", err)
	}

	loaders := normalisers.NewDefaultRegistry()
	segmenters := postprocessors.NewDefaultRegistry(cfg.Segmenter)
	corpus := services.NewCorpusBuilder(loaders, segmenters)

	backend, err := newBackend(cfg.Index)
	if err != nil {
		aiServices.Close()
		return nil, err
	}

	index := services.NewIndexService(backend, aiServices.EmbeddingService, corpus, services.IndexConfig{
		Dir:       cfg.Paths.IndexDir,
		Manifest:  cfg.Manifest(),
		Retrieval: cfg.Retrieval,
		Replace:   fsutil.ReplaceDir,
	})
	answer := services.NewAnswerEngine(index, aiServices.LLMService, prompts, cfg.Answer)

	logger.Debug("Using %s embeddings (%s), %s chat (%s), %s index at %s",
		cfg.Embedding.Provider, aiServices.EmbeddingService.ModelName(),
		cfg.LLM.Provider, aiServices.LLMService.ModelName(),
		backend.Name(), cfg.Paths.IndexDir)

	return &cli.Services{
		Answer:    answer,
		Index:     index,
		Health:    ai.NewChecker(cfg),
		SourceDir: cfg.Paths.SourceDir,
		Accept: func(path string) bool {
			_, ok := loaders.For(path)
			return ok
		},
		Close: func() error {
			err := index.Close()
			aiServices.Close()
			return err
		},
	}, nil
}

func newBackend(settings domain.IndexSettings) (driven.IndexBackend, error) {
	switch settings.Backend {
	case domain.IndexBackendSQLite, "":
		return sqlite.NewBackend(), nil
	case domain.IndexBackendChromem:
		return chromem.NewBackend(settings.Collection), nil
	default:
		return nil, errors.Join(domain.ErrInvalidConfig,
			fmt.Errorf("unknown index backend %q", settings.Backend))
	}
}
