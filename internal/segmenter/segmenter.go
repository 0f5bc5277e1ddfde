// Package segmenter cuts extracted filing text into section-aware chunks.
//
// It operates on plain text that has already been extracted from the filing;
// format parsing is someone else's job. Chunking respects a word budget with
// overlap between consecutive chunks, assigns each chunk the 10-K section
// whose heading precedes it, and derives a deterministic chunk id so
// reprocessing the same document is idempotent.
package segmenter

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/joybratasarkar/financial-system-rag/internal/domain"
)

// ErrEmptyText indicates a document with no extractable text.
var ErrEmptyText = errors.New("document has no text")

// Document is one filing ready for segmentation.
type Document struct {
	Company    string
	Year       string
	FilingType string
	Text       string
	TotalPages int
}

// Config controls chunk sizing.
type Config struct {
	// ChunkSize is the word budget per chunk.
	ChunkSize int
	// ChunkOverlap is how many trailing words carry into the next chunk.
	ChunkOverlap int
}

// DefaultConfig mirrors the sizing used when the corpus was first built.
func DefaultConfig() Config {
	return Config{ChunkSize: 800, ChunkOverlap: 100}
}

// Segmenter produces chunks from documents.
type Segmenter struct {
	cfg Config
}

// New creates a segmenter. Zero config fields fall back to defaults.
func New(cfg Config) *Segmenter {
	def := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	return &Segmenter{cfg: cfg}
}

// sectionHeading is one known 10-K item heading.
type sectionHeading struct {
	item        string
	description string
}

// secSections lists the key 10-K sections in filing order.
var secSections = []sectionHeading{
	{"Item 1", "Business"},
	{"Item 1A", "Risk Factors"},
	{"Item 1B", "Unresolved Staff Comments"},
	{"Item 2", "Properties"},
	{"Item 3", "Legal Proceedings"},
	{"Item 4", "Mine Safety Disclosures"},
	{"Item 5", "Market for Registrant's Common Equity"},
	{"Item 6", "Selected Financial Data"},
	{"Item 7", "Management's Discussion and Analysis"},
	{"Item 7A", "Quantitative and Qualitative Disclosures"},
	{"Item 8", "Financial Statements and Supplementary Data"},
	{"Item 9", "Changes in and Disagreements"},
	{"Item 9A", "Controls and Procedures"},
	{"Item 9B", "Other Information"},
	{"Item 10", "Directors, Executive Officers and Corporate Governance"},
	{"Item 11", "Executive Compensation"},
	{"Item 12", "Security Ownership"},
	{"Item 13", "Certain Relationships and Related Party Transactions"},
	{"Item 14", "Principal Accounting Fees and Services"},
	{"Item 15", "Exhibits and Financial Statement Schedules"},
}

// Segment cuts a document into chunks with metadata attached.
func (s *Segmenter) Segment(doc Document) ([]domain.Chunk, error) {
	text := strings.TrimSpace(doc.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	filingType := doc.FilingType
	if filingType == "" {
		filingType = "10-K"
	}

	sections := IdentifySections(text)
	meta := domain.ChunkMetadata{
		Company:    doc.Company,
		Year:       doc.Year,
		FilingType: filingType,
		TotalPages: doc.TotalPages,
		Sections:   sectionNames(sections),
	}

	spans := s.chunkText(text)

	chunks := make([]domain.Chunk, 0, len(spans))
	for i, span := range spans {
		chunks = append(chunks, domain.Chunk{
			ChunkID:    chunkID(doc.Company, doc.Year, i, span.text),
			Content:    span.text,
			Metadata:   meta,
			PageNumber: estimatePage(span.offset, len(text), doc.TotalPages),
			Section:    sectionFor(span.offset, sections),
			TokenCount: len(strings.Fields(span.text)),
		})
	}
	return chunks, nil
}

// IdentifySections scans for known 10-K headings and returns each found
// item's earliest start offset.
func IdentifySections(text string) map[string]int {
	found := make(map[string]int)
	for _, h := range secSections {
		patterns := []string{
			regexp.QuoteMeta(h.item) + `\s*[\.\-]\s*` + regexp.QuoteMeta(h.description),
			regexp.QuoteMeta(h.item) + `\s*` + regexp.QuoteMeta(h.description),
		}
		for _, p := range patterns {
			re := regexp.MustCompile(`(?im)` + p)
			if loc := re.FindStringIndex(text); loc != nil {
				found[h.item] = loc[0]
				break
			}
		}
	}
	return found
}

// sectionFor returns the section whose declared start offset most recently
// precedes pos, or "" if none does.
func sectionFor(pos int, sections map[string]int) string {
	section := ""
	best := -1
	for item, start := range sections {
		if start <= pos && start > best {
			best = start
			section = item
		}
	}
	return section
}

func sectionNames(sections map[string]int) []string {
	if len(sections) == 0 {
		return nil
	}
	names := make([]string, 0, len(sections))
	for _, h := range secSections {
		if _, ok := sections[h.item]; ok {
			names = append(names, h.item)
		}
	}
	return names
}

// chunkID derives a stable id from the chunk's identity: company, year,
// sequence index and a text prefix. Reprocessing the same document yields
// the same ids.
func chunkID(company, year string, seq int, text string) string {
	prefix := text
	if len(prefix) > 50 {
		prefix = prefix[:50]
	}
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%s_%d_%s", company, year, seq, prefix)))
	return hex.EncodeToString(sum[:])
}

// estimatePage maps a character offset to a page by linear proportion.
// Best-effort only; real page boundaries are not consulted.
func estimatePage(offset, textLen, totalPages int) int {
	if totalPages <= 0 || textLen == 0 {
		return 0
	}
	page := offset*totalPages/textLen + 1
	if page > totalPages {
		page = totalPages
	}
	return page
}
