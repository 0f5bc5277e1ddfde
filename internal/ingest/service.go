// Package ingest wires segmentation, embedding and indexing into one
// document-ingestion operation.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joybratasarkar/financial-system-rag/internal/embeddings"
	"github.com/joybratasarkar/financial-system-rag/internal/index"
	"github.com/joybratasarkar/financial-system-rag/internal/segmenter"
)

// Result reports one completed ingestion.
type Result struct {
	JobID      string `json:"job_id"`
	ChunkCount int    `json:"chunk_count"`
}

// Service ingests documents into the embedding index.
type Service struct {
	segmenter *segmenter.Segmenter
	embedder  embeddings.Provider
	index     *index.Index
	indexPath string
	logger    *zap.Logger
}

// New creates an ingestion service. indexPath may be empty to disable
// persistence after each ingest.
func New(seg *segmenter.Segmenter, embedder embeddings.Provider, ix *index.Index, indexPath string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		segmenter: seg,
		embedder:  embedder,
		index:     ix,
		indexPath: indexPath,
		logger:    logger,
	}
}

// Ingest segments the document, embeds and normalizes every chunk, appends
// them to the index and persists the snapshot. Re-ingesting the same
// document appends again: chunk ids repeat deterministically, and the index
// does not deduplicate in place.
func (s *Service) Ingest(ctx context.Context, doc segmenter.Document) (Result, error) {
	chunks, err := s.segmenter.Segment(doc)
	if err != nil {
		return Result{}, fmt.Errorf("segmenting document: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return Result{}, fmt.Errorf("embedding chunks: %w", err)
	}
	embeddings.NormalizeAll(vectors)

	if err := s.index.Add(vectors, chunks); err != nil {
		return Result{}, fmt.Errorf("indexing chunks: %w", err)
	}

	if s.indexPath != "" {
		if err := s.index.Save(s.indexPath); err != nil {
			return Result{}, fmt.Errorf("persisting index: %w", err)
		}
	}

	result := Result{JobID: uuid.NewString(), ChunkCount: len(chunks)}
	s.logger.Info("document ingested",
		zap.String("job_id", result.JobID),
		zap.String("company", doc.Company),
		zap.String("year", doc.Year),
		zap.Int("chunks", result.ChunkCount),
		zap.Int("index_size", s.index.Len()))
	return result, nil
}
