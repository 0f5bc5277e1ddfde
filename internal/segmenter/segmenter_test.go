package segmenter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleFiling builds a small filing-shaped text with recognizable headings.
func sampleFiling() string {
	var b strings.Builder
	b.WriteString("Item 1. Business\n")
	b.WriteString("The company develops software products. ")
	b.WriteString(strings.Repeat("It sells licenses and subscriptions worldwide. ", 20))
	b.WriteString("\nItem 1A. Risk Factors\n")
	b.WriteString(strings.Repeat("Competition could harm operating results. ", 20))
	b.WriteString("\nItem 7. Management's Discussion and Analysis\n")
	b.WriteString(strings.Repeat("Revenue increased compared with the prior year. ", 20))
	return b.String()
}

func TestSegment_EmptyText(t *testing.T) {
	s := New(Config{})
	_, err := s.Segment(Document{Company: "MSFT", Year: "2023", Text: "   \n  "})
	require.ErrorIs(t, err, ErrEmptyText)
}

func TestSegment_DefaultsApplied(t *testing.T) {
	s := New(Config{ChunkSize: -1, ChunkOverlap: -5})
	assert.Equal(t, 800, s.cfg.ChunkSize)
	assert.Equal(t, 100, s.cfg.ChunkOverlap)

	// Overlap at or above the chunk size would never make progress.
	s = New(Config{ChunkSize: 50, ChunkOverlap: 50})
	assert.Equal(t, 100, s.cfg.ChunkOverlap)
}

func TestSegment_MetadataOnEveryChunk(t *testing.T) {
	s := New(Config{ChunkSize: 60, ChunkOverlap: 10})
	chunks, err := s.Segment(Document{
		Company:    "MSFT",
		Year:       "2023",
		Text:       sampleFiling(),
		TotalPages: 90,
	})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, c := range chunks {
		assert.Equal(t, "MSFT", c.Metadata.Company)
		assert.Equal(t, "2023", c.Metadata.Year)
		assert.Equal(t, "10-K", c.Metadata.FilingType, "filing type defaults to 10-K")
		assert.Equal(t, 90, c.Metadata.TotalPages)
		assert.NotEmpty(t, c.ChunkID)
		assert.NotEmpty(t, c.Content)
		assert.Positive(t, c.TokenCount)
	}
}

func TestSegment_DeterministicIDs(t *testing.T) {
	s := New(Config{ChunkSize: 60, ChunkOverlap: 10})
	doc := Document{Company: "MSFT", Year: "2023", Text: sampleFiling()}

	first, err := s.Segment(doc)
	require.NoError(t, err)
	second, err := s.Segment(doc)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ChunkID, second[i].ChunkID)
	}

	// Ids are unique across the document.
	seen := map[string]bool{}
	for _, c := range first {
		assert.False(t, seen[c.ChunkID], "duplicate chunk id %s", c.ChunkID)
		seen[c.ChunkID] = true
	}
}

func TestSegment_IDsDifferAcrossDocuments(t *testing.T) {
	s := New(Config{ChunkSize: 60, ChunkOverlap: 10})
	text := sampleFiling()

	msft, err := s.Segment(Document{Company: "MSFT", Year: "2023", Text: text})
	require.NoError(t, err)
	aapl, err := s.Segment(Document{Company: "AAPL", Year: "2023", Text: text})
	require.NoError(t, err)

	assert.NotEqual(t, msft[0].ChunkID, aapl[0].ChunkID)
}

func TestSegment_SectionsAssigned(t *testing.T) {
	s := New(Config{ChunkSize: 60, ChunkOverlap: 10})
	chunks, err := s.Segment(Document{Company: "MSFT", Year: "2023", Text: sampleFiling()})
	require.NoError(t, err)

	sections := map[string]bool{}
	for _, c := range chunks {
		sections[c.Section] = true
	}
	assert.True(t, sections["Item 1"])
	assert.True(t, sections["Item 1A"])
	assert.True(t, sections["Item 7"])

	// First chunk starts inside Item 1, last inside Item 7.
	assert.Equal(t, "Item 1", chunks[0].Section)
	assert.Equal(t, "Item 7", chunks[len(chunks)-1].Section)
}

func TestSegment_PageEstimateBounds(t *testing.T) {
	s := New(Config{ChunkSize: 60, ChunkOverlap: 10})
	chunks, err := s.Segment(Document{
		Company:    "MSFT",
		Year:       "2023",
		Text:       sampleFiling(),
		TotalPages: 12,
	})
	require.NoError(t, err)

	prev := 0
	for _, c := range chunks {
		assert.GreaterOrEqual(t, c.PageNumber, 1)
		assert.LessOrEqual(t, c.PageNumber, 12)
		assert.GreaterOrEqual(t, c.PageNumber, prev, "page estimates are monotone in offset")
		prev = c.PageNumber
	}
}

func TestSegment_NoPageCount(t *testing.T) {
	s := New(Config{})
	chunks, err := s.Segment(Document{Company: "MSFT", Year: "2023", Text: "One short sentence."})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].PageNumber)
}

func TestIdentifySections(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "dot separated heading",
			text: "Item 1. Business\nsome text",
			want: []string{"Item 1"},
		},
		{
			name: "dash separated heading",
			text: "Item 1A - Risk Factors\nsome text",
			want: []string{"Item 1A"},
		},
		{
			name: "no separator",
			text: "ITEM 7 MANAGEMENT'S DISCUSSION AND ANALYSIS",
			want: []string{"Item 7"},
		},
		{
			name: "case insensitive",
			text: "item 1a. risk factors",
			want: []string{"Item 1A"},
		},
		{
			name: "no headings",
			text: "plain prose with no headings at all",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IdentifySections(tt.text)
			assert.Len(t, got, len(tt.want))
			for _, item := range tt.want {
				assert.Contains(t, got, item)
			}
		})
	}
}

func TestSectionFor(t *testing.T) {
	sections := map[string]int{"Item 1": 0, "Item 1A": 100, "Item 7": 500}

	assert.Equal(t, "Item 1", sectionFor(50, sections))
	assert.Equal(t, "Item 1A", sectionFor(100, sections))
	assert.Equal(t, "Item 1A", sectionFor(499, sections))
	assert.Equal(t, "Item 7", sectionFor(10000, sections))
	assert.Equal(t, "", sectionFor(5, map[string]int{"Item 7": 500}))
}

func TestChunkText_OverlapCarried(t *testing.T) {
	s := New(Config{ChunkSize: 20, ChunkOverlap: 5})
	var b strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "Sentence number %d has exactly six words. ", i)
	}
	spans := s.chunkText(b.String())
	require.Greater(t, len(spans), 1)

	for i := 1; i < len(spans); i++ {
		prevWords := strings.Fields(spans[i-1].text)
		tail := strings.Join(prevWords[len(prevWords)-5:], " ")
		assert.True(t, strings.HasPrefix(spans[i].text, tail),
			"chunk %d should start with the previous chunk's overlap tail", i)
	}
}

func TestChunkText_OffsetsPointIntoSource(t *testing.T) {
	s := New(Config{ChunkSize: 20, ChunkOverlap: 0})
	text := "First sentence here. Second sentence follows. Third sentence ends."
	spans := s.chunkText(text)
	require.NotEmpty(t, spans)

	for _, sp := range spans {
		require.Less(t, sp.offset, len(text))
		// The span's offset points at the first sentence it contains.
		first := strings.SplitN(sp.text, ".", 2)[0]
		assert.True(t, strings.HasPrefix(text[sp.offset:], first),
			"offset %d does not line up with %q", sp.offset, first)
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "basic",
			text: "One. Two! Three?",
			want: []string{"One.", "Two!", "Three?"},
		},
		{
			name: "decimal points are not boundaries",
			text: "Revenue was 211.9 billion. Growth continued.",
			want: []string{"Revenue was 211.9 billion.", "Growth continued."},
		},
		{
			name: "trailing text without punctuation",
			text: "Complete sentence. trailing fragment",
			want: []string{"Complete sentence.", "trailing fragment"},
		},
		{
			name: "empty",
			text: "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitSentences(tt.text)
			require.Len(t, got, len(tt.want))
			for i, w := range tt.want {
				assert.Equal(t, w, got[i].text)
			}
		})
	}
}

func TestEstimatePage(t *testing.T) {
	assert.Equal(t, 0, estimatePage(0, 1000, 0))
	assert.Equal(t, 0, estimatePage(0, 0, 10))
	assert.Equal(t, 1, estimatePage(0, 1000, 10))
	assert.Equal(t, 6, estimatePage(500, 1000, 10))
	assert.Equal(t, 10, estimatePage(999, 1000, 10))
	// Clamped to the last page even at the end offset.
	assert.Equal(t, 10, estimatePage(1000, 1000, 10))
}
