// Command litreview assesses a catalogue of stylized facts against a corpus
// of scientific papers.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/litreview/internal/adapters/driven/ai"
	catcsv "github.com/custodia-labs/litreview/internal/adapters/driven/catalogue/csv"
	"github.com/custodia-labs/litreview/internal/adapters/driven/catalogue/latex"
	checkpointfile "github.com/custodia-labs/litreview/internal/adapters/driven/checkpoint/file"
	configfile "github.com/custodia-labs/litreview/internal/adapters/driven/config/file"
	"github.com/custodia-labs/litreview/internal/adapters/driven/embedding/ratelimit"
	"github.com/custodia-labs/litreview/internal/adapters/driven/extractor/pdf"
	"github.com/custodia-labs/litreview/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/litreview/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/litreview/internal/adapters/driven/storage/mongo"
	"github.com/custodia-labs/litreview/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/litreview/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/custodia-labs/litreview/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/litreview/internal/adapters/driving/cli"
	"github.com/custodia-labs/litreview/internal/connectors/filesystem"
	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
	"github.com/custodia-labs/litreview/internal/core/services"
	"github.com/custodia-labs/litreview/internal/logger"
	"github.com/custodia-labs/litreview/internal/postprocessors/chunker"
)

func main() {
	cli.SetSettingKeys(services.SettingKeys())
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// closers accumulates resources released when the command finishes.
type closers []func() error

func (c *closers) add(fn func() error) {
	*c = append(*c, fn)
}

// close runs the closers in reverse order and joins their errors.
func (c closers) close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// bootstrap wires the services a command needs. AI providers are only
// contacted when the command asks for them.
//
//nolint:gocyclo // Composition root with one branch per optional dependency.
func bootstrap(ctx context.Context, opts cli.Options) (svc *cli.Services, err error) {
	var cleanup closers
	defer func() {
		if err != nil {
			_ = cleanup.close()
		}
	}()

	configStore, err := configfile.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	configStore.ApplyEnv(os.Environ())

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	// --data-dir applies to this run only and is never saved.
	if opts.DataDir != "" {
		settings.Paths.DataDir = opts.DataDir
	}

	catalogue := catcsv.NewLoader(settings.Paths.CatalogueDir)
	svc = &cli.Services{
		Settings:  settingsService,
		Catalogue: services.NewCatalogueService(catalogue, latex.NewImporter(), settings.Paths.CatalogueDir),
		Close:     func() error { return cleanup.close() },
	}
	if !opts.Needs.Has(cli.NeedStore) {
		return svc, nil
	}

	store, err := openStore(ctx, settings)
	if err != nil {
		return nil, err
	}
	cleanup.add(store.Close)

	recorder := prometheus.NewRecorder(filepath.Join(settings.Paths.DataDir, "metrics", prometheus.DefaultFileName))
	cleanup.add(recorder.Flush)

	extractor := pdf.New()
	watcher := filesystem.New(extractor.SupportedExtensions()...)
	cleanup.add(watcher.Close)
	extraction := services.NewExtractionService(store, extractor)
	extraction.SetMetrics(recorder)
	extraction.SetWatcher(watcher)
	svc.Extraction = extraction

	checkpoints := services.NewCheckpoints(checkpointfile.NewCheckpointStore(filepath.Join(settings.Paths.DataDir, "checkpoints")))
	sink := services.NewResultSink(store, catcsv.NewReport(catalogue))

	var embedder driven.EmbeddingService
	if opts.Needs.Has(cli.NeedEmbedding) {
		embedder, err = ai.CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
		if err != nil {
			return nil, err
		}
		embedder = ratelimit.Wrap(embedder, settings.Rate.EmbedPerSecond)
		cleanup.add(embedder.Close)
		logger.Debug("Embedding: %s (%s)", settings.Embedding.Provider, settings.Embedding.Model)

		chunks := chunker.New(
			chunker.WithChunkSize(settings.Chunking.Size),
			chunker.WithOverlap(settings.Chunking.Overlap),
		)
		indexing := services.NewIndexingService(store, chunks, embedder, catalogue, settings.Embedding.BatchSize)
		indexing.SetMetrics(recorder)
		svc.Indexing = indexing
	}

	var assessor services.FactAssessor
	var retriever *services.Retriever
	if opts.Needs.Has(cli.NeedLLM) && embedder != nil {
		judge, err := ai.CreateAndValidateLLMService(ctx, &settings.LLM)
		if err != nil {
			return nil, err
		}
		cleanup.add(judge.Close)
		logger.Debug("Judge: %s (%s)", settings.LLM.Provider, settings.LLM.Model)

		prompts, err := configfile.NewPromptStore(promptDir(opts.ConfigDir))
		if err != nil {
			return nil, fmt.Errorf("open prompts: %w", err)
		}

		index := flat.New()
		cleanup.add(index.Close)
		retriever = services.NewRetriever(store, index, embedder)

		engine := services.NewAssessmentEngine(retriever, judge, prompts, services.EngineConfigFromSettings(settings))
		engine.SetTokenCounter(tiktoken.New(tiktoken.DefaultEncoding))
		assessor = engine
	}

	review := services.NewReviewService(catalogue, store, assessor, sink, checkpoints)
	if retriever != nil {
		review.SetIndexLoader(retriever)
	}
	review.SetMetrics(recorder)
	svc.Review = review

	return svc, nil
}

// openStore opens the document store named by storage.backend.
func openStore(ctx context.Context, settings *domain.AppSettings) (driven.Store, error) {
	switch settings.Storage.Backend {
	case domain.StorageSQLite:
		path := settings.Storage.SQLitePath
		if path == "" {
			path = filepath.Join(settings.Paths.DataDir, sqlite.DefaultFileName)
		}
		store, err := sqlite.NewStore(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		logger.Debug("Store: sqlite %s", path)
		return store, nil
	case domain.StorageMongo:
		store, err := mongo.NewStore(ctx, settings.Storage.MongoURI, settings.Storage.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		logger.Debug("Store: mongo %s/%s", settings.Storage.MongoURI, settings.Storage.MongoDatabase)
		return store, nil
	case domain.StorageMemory:
		logger.Warn("Using the in-memory store: nothing is kept after this command exits")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, settings.Storage.Backend)
	}
}

// promptDir places prompt files beside the config file.
func promptDir(configDir string) string {
	if configDir == "" {
		return ""
	}
	return filepath.Join(configDir, "prompts")
}
