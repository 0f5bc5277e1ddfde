// Package index implements the embedding index: a flat inner-product store
// over L2-normalized vectors with a parallel chunk-metadata array.
//
// Similarity is the inner product of normalized vectors, which is cosine
// similarity in [-1, 1]. Search is exact (brute force) and deterministic:
// results are ordered by descending score with insertion order breaking ties.
package index

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/joybratasarkar/financial-system-rag/internal/domain"
)

var (
	// ErrLengthMismatch is returned when vectors and chunks differ in length.
	ErrLengthMismatch = errors.New("vectors and chunks length mismatch")

	// ErrDimensionMismatch is returned when an added vector does not match
	// the index dimension. The add is rejected before any mutation.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCorruptIndex is returned when a persisted snapshot fails its
	// consistency checks on load.
	ErrCorruptIndex = errors.New("corrupt index snapshot")
)

// Hit is one search result: the position of a chunk in the index and its
// similarity to the query.
type Hit struct {
	Position int
	Score    float32
}

// Stats summarizes index contents for diagnostics.
type Stats struct {
	TotalChunks int      `json:"total_chunks"`
	Companies   []string `json:"companies"`
	Years       []string `json:"years"`
	Sections    []string `json:"sections"`
	Dimension   int      `json:"embedding_dimension"`
}

// Index is a shared, mutable resource. Adds are serialized and excluded
// against searches; searches run concurrently with each other.
type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	chunks    []domain.Chunk
}

// New creates an empty index. The dimension is frozen by the first Add.
func New() *Index {
	return &Index{}
}

// Add appends vectors and their chunks to the index. Vectors must already be
// L2-normalized. The first successful add fixes the index dimension; a later
// add with a mismatched width fails with ErrDimensionMismatch and leaves the
// index untouched.
func (ix *Index) Add(vectors [][]float32, chunks []domain.Chunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: %d vectors, %d chunks", ErrLengthMismatch, len(vectors), len(chunks))
	}
	if len(vectors) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	dim := ix.dimension
	if dim == 0 {
		dim = len(vectors[0])
	}
	// Validate every incoming vector before mutating anything so a failed
	// add cannot leave the vector and chunk arrays out of step.
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has width %d, index dimension is %d",
				ErrDimensionMismatch, i, len(v), dim)
		}
	}

	ix.dimension = dim
	ix.vectors = append(ix.vectors, vectors...)
	ix.chunks = append(ix.chunks, chunks...)
	chunksTotal.Set(float64(len(ix.chunks)))
	return nil
}

// Search returns up to limit hits ordered by descending inner-product
// similarity. Ties preserve insertion order. An empty index yields no hits.
func (ix *Index) Search(query []float32, limit int) []Hit {
	start := time.Now()
	defer func() {
		searchDuration.Observe(time.Since(start).Seconds())
		searchesTotal.Inc()
	}()

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.vectors) == 0 || limit <= 0 {
		return nil
	}

	hits := make([]Hit, len(ix.vectors))
	for i, v := range ix.vectors {
		hits[i] = Hit{Position: i, Score: dot(v, query)}
	}
	// Stable sort keeps earlier-added chunks first on equal scores.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if limit > len(hits) {
		limit = len(hits)
	}
	return hits[:limit]
}

// Chunk returns the chunk stored at position i.
func (ix *Index) Chunk(i int) (domain.Chunk, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if i < 0 || i >= len(ix.chunks) {
		return domain.Chunk{}, false
	}
	return ix.chunks[i], true
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// Dimension returns the frozen vector width, or 0 before the first add.
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dimension
}

// Stats aggregates the companies, years and sections present in the index.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	companies := map[string]struct{}{}
	years := map[string]struct{}{}
	sections := map[string]struct{}{}
	for _, c := range ix.chunks {
		companies[c.Metadata.Company] = struct{}{}
		years[c.Metadata.Year] = struct{}{}
		if c.Section != "" {
			sections[c.Section] = struct{}{}
		}
	}
	return Stats{
		TotalChunks: len(ix.chunks),
		Companies:   sortedKeys(companies),
		Years:       sortedKeys(years),
		Sections:    sortedKeys(sections),
		Dimension:   ix.dimension,
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
