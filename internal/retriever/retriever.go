// Package retriever wraps the embedding index with query embedding and
// metadata filtering.
package retriever

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/joybratasarkar/financial-system-rag/internal/domain"
	"github.com/joybratasarkar/financial-system-rag/internal/embeddings"
	"github.com/joybratasarkar/financial-system-rag/internal/index"
)

// overFetchFactor is how many candidates are requested from the index per
// accepted result slot, to absorb filter rejection.
const overFetchFactor = 3

// Filters restricts results by chunk metadata. Empty fields match anything.
type Filters struct {
	Company string
	Year    string
	Section string
}

func (f Filters) accept(c domain.Chunk) bool {
	if f.Company != "" && c.Metadata.Company != f.Company {
		return false
	}
	if f.Year != "" && c.Metadata.Year != f.Year {
		return false
	}
	if f.Section != "" && c.Section != f.Section {
		return false
	}
	return true
}

// Retriever embeds queries and runs filtered similarity search.
type Retriever struct {
	index    *index.Index
	embedder embeddings.Provider
	logger   *zap.Logger
}

// New creates a retriever over the given index and embedding provider. The
// provider must be the same one used when the index was built.
func New(ix *index.Index, embedder embeddings.Provider, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{index: ix, embedder: embedder, logger: logger}
}

// Search returns up to k chunks most similar to query that satisfy the
// filters. An empty index, or candidates all rejected by the filters, yields
// an empty result and no error. There is no guarantee all k slots fill when
// filtered candidates run out before the over-fetch window is exhausted.
func (r *Retriever) Search(ctx context.Context, query string, k int, f Filters) ([]domain.Scored, error) {
	if k <= 0 {
		k = 5
	}
	if r.index.Len() == 0 {
		r.logger.Debug("search against empty index", zap.String("query", query))
		return []domain.Scored{}, nil
	}

	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	embeddings.Normalize(vec)

	hits := r.index.Search(vec, k*overFetchFactor)

	results := make([]domain.Scored, 0, k)
	for _, hit := range hits {
		chunk, ok := r.index.Chunk(hit.Position)
		if !ok {
			continue
		}
		if !f.accept(chunk) {
			continue
		}
		results = append(results, domain.Scored{Chunk: chunk, Score: hit.Score})
		if len(results) == k {
			break
		}
	}

	r.logger.Debug("search complete",
		zap.String("query", query),
		zap.Int("candidates", len(hits)),
		zap.Int("results", len(results)))
	return results, nil
}
