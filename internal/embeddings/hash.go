package embeddings

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// defaultHashDimension is the vector width used when none is configured.
const defaultHashDimension = 256

// HashProvider is a deterministic, dependency-free embedding provider using
// bag-of-words feature hashing. Identical input always yields an identical
// vector, and texts sharing terms have positive cosine similarity.
//
// It exists for tests and offline operation; it captures no semantics beyond
// lexical overlap and is not a substitute for a real embedding model.
type HashProvider struct {
	dimension int
}

// NewHashProvider creates a hashing provider with the given vector width.
func NewHashProvider(dimension int) *HashProvider {
	if dimension <= 0 {
		dimension = defaultHashDimension
	}
	return &HashProvider{dimension: dimension}
}

// EmbedDocuments generates embeddings for multiple texts.
func (p *HashProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = p.embed(text)
	}
	return vectors, nil
}

// EmbedQuery generates an embedding for a single query.
func (p *HashProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	return p.embed(text), nil
}

// Dimension returns the configured vector width.
func (p *HashProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op.
func (p *HashProvider) Close() error {
	return nil
}

func (p *HashProvider) embed(text string) []float32 {
	vec := make([]float32, p.dimension)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,;:!?()[]{}\"'$%")
		if token == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%uint32(p.dimension)]++
	}
	return vec
}
