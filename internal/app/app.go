// Package app wires the core services from configuration. Both binaries
// share this bootstrap so the daemon and the CLI run the same pipeline.
package app

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/joybratasarkar/financial-system-rag/internal/agent"
	"github.com/joybratasarkar/financial-system-rag/internal/config"
	"github.com/joybratasarkar/financial-system-rag/internal/embeddings"
	"github.com/joybratasarkar/financial-system-rag/internal/index"
	"github.com/joybratasarkar/financial-system-rag/internal/ingest"
	"github.com/joybratasarkar/financial-system-rag/internal/llm"
	"github.com/joybratasarkar/financial-system-rag/internal/retriever"
	"github.com/joybratasarkar/financial-system-rag/internal/segmenter"
)

// App holds the wired core services for one process.
type App struct {
	Config   *config.Config
	Index    *index.Index
	Pipeline *agent.Pipeline
	Ingestor *ingest.Service
	embedder embeddings.Provider
	logger   *zap.Logger
}

// New builds the embedding provider, completion client, index (loading a
// persisted snapshot when one exists) and the pipeline on top of them.
//
// A corrupt snapshot is logged and discarded: serving from an empty index
// beats serving inconsistent results.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	embedder, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider:  cfg.Embeddings.Provider,
		Model:     cfg.Embeddings.Model,
		BaseURL:   cfg.Embeddings.BaseURL,
		APIKey:    cfg.Embeddings.APIKey,
		CacheDir:  cfg.Embeddings.CacheDir,
		Dimension: cfg.Embeddings.Dimension,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding provider: %w", err)
	}

	completer, err := llm.NewOpenAIClient(llm.Config{
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("creating completion client: %w", err)
	}

	ix := loadOrCreateIndex(cfg.Index.Path, logger)

	ret := retriever.New(ix, embedder, logger.Named("retriever"))
	pipeline := agent.New(completer, ret, logger.Named("agent"))

	seg := segmenter.New(segmenter.Config{
		ChunkSize:    cfg.Segmenter.ChunkSize,
		ChunkOverlap: cfg.Segmenter.ChunkOverlap,
	})
	ingestor := ingest.New(seg, embedder, ix, cfg.Index.Path, logger.Named("ingest"))

	return &App{
		Config:   cfg,
		Index:    ix,
		Pipeline: pipeline,
		Ingestor: ingestor,
		embedder: embedder,
		logger:   logger,
	}, nil
}

// Close releases provider resources.
func (a *App) Close() error {
	return a.embedder.Close()
}

// loadOrCreateIndex loads the persisted snapshot at path, or returns an
// empty index on a cold start or a corrupt snapshot.
func loadOrCreateIndex(path string, logger *zap.Logger) *index.Index {
	if path == "" {
		return index.New()
	}

	ix, err := index.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no existing index found, starting cold",
				zap.String("path", path))
		} else {
			logger.Warn("refusing to load index snapshot, starting empty",
				zap.String("path", path), zap.Error(err))
		}
		return index.New()
	}

	logger.Info("loaded index snapshot",
		zap.String("path", path),
		zap.Int("chunks", ix.Len()),
		zap.Int("dimension", ix.Dimension()))
	return ix
}
