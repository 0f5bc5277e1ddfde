// Package domain defines the core data model for the filings Q&A engine.
package domain

import "unicode/utf8"

// ChunkMetadata describes the filing a chunk was cut from. It is attached
// once at segmentation time and never mutated afterwards.
type ChunkMetadata struct {
	Company    string   `json:"company"`
	Year       string   `json:"year"`
	FilingType string   `json:"filing_type"`
	TotalPages int      `json:"total_pages,omitempty"`
	Sections   []string `json:"sections,omitempty"`
}

// Chunk is the unit of retrieval: a bounded span of filing text plus the
// metadata needed to cite it.
type Chunk struct {
	ChunkID    string        `json:"chunk_id"`
	Content    string        `json:"content"`
	Metadata   ChunkMetadata `json:"metadata"`
	PageNumber int           `json:"page_number,omitempty"`
	Section    string        `json:"section,omitempty"`
	TokenCount int           `json:"token_count,omitempty"`
}

// Scored pairs a chunk with its similarity score for one query.
type Scored struct {
	Chunk Chunk
	Score float32
}

// Source is the citation-facing projection of a retrieved chunk. It is
// derived per query and never persisted.
type Source struct {
	Company         string  `json:"company"`
	Year            string  `json:"year"`
	Excerpt         string  `json:"excerpt"`
	Page            int     `json:"page,omitempty"`
	Section         string  `json:"section,omitempty"`
	ChunkID         string  `json:"chunk_id,omitempty"`
	SimilarityScore float32 `json:"similarity_score,omitempty"`
}

// excerptLimit bounds the excerpt carried in a Source.
const excerptLimit = 200

// SourceFromChunk projects a retrieved chunk and its score into a Source.
func SourceFromChunk(c Chunk, score float32) Source {
	excerpt := c.Content
	if len(excerpt) > excerptLimit {
		// Cut on a rune boundary so the excerpt stays valid UTF-8.
		cut := excerptLimit
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut] + "..."
	}
	return Source{
		Company:         c.Metadata.Company,
		Year:            c.Metadata.Year,
		Excerpt:         excerpt,
		Page:            c.PageNumber,
		Section:         c.Section,
		ChunkID:         c.ChunkID,
		SimilarityScore: score,
	}
}

// QueryResponse is the caller-facing result of one pipeline invocation.
type QueryResponse struct {
	Query      string   `json:"query"`
	Answer     string   `json:"answer"`
	Reasoning  string   `json:"reasoning"`
	SubQueries []string `json:"sub_queries"`
	Sources    []Source `json:"sources"`
}
