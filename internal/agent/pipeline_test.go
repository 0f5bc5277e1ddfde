package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joybratasarkar/financial-system-rag/internal/domain"
	"github.com/joybratasarkar/financial-system-rag/internal/retriever"
)

// scriptedCompleter answers each completion call from a queue of responses.
// A nil error entry with empty text still counts as one call.
type scriptedCompleter struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (c *scriptedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	i := c.calls
	c.calls++
	c.prompts = append(c.prompts, prompt)
	var err error
	if i < len(c.errs) {
		err = c.errs[i]
	}
	var resp string
	if i < len(c.responses) {
		resp = c.responses[i]
	}
	return resp, err
}

// stubSearcher returns canned results per query.
type stubSearcher struct {
	results map[string][]domain.Scored
	err     error
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, query string, _ int, _ retriever.Filters) ([]domain.Scored, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[query], nil
}

func scoredChunk(id, company, year, content string) domain.Scored {
	return domain.Scored{
		Chunk: domain.Chunk{
			ChunkID: id,
			Content: content,
			Metadata: domain.ChunkMetadata{
				Company:    company,
				Year:       year,
				FilingType: "10-K",
			},
		},
		Score: 0.9,
	}
}

func TestAnswer_SimplePath(t *testing.T) {
	completer := &scriptedCompleter{
		responses: []string{
			"simple",
			`{"answer": "Revenue was $211.9 billion", "reasoning": "Stated in the income statement"}`,
		},
	}
	searcher := &stubSearcher{
		results: map[string][]domain.Scored{
			"What was Microsoft's revenue in 2023?": {
				scoredChunk("c1", "MSFT", "2023", "Total revenue was $211.9 billion in fiscal 2023"),
			},
		},
	}
	p := New(completer, searcher, zap.NewNop())

	resp := p.Answer(context.Background(), "What was Microsoft's revenue in 2023?")

	assert.Equal(t, "Revenue was $211.9 billion", resp.Answer)
	assert.Equal(t, "Stated in the income statement", resp.Reasoning)
	assert.Equal(t, []string{"What was Microsoft's revenue in 2023?"}, resp.SubQueries)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "MSFT", resp.Sources[0].Company)
	// Simple path skips decomposition: classify + synthesize only.
	assert.Equal(t, 2, completer.calls)
}

func TestAnswer_ComplexPathDecomposes(t *testing.T) {
	completer := &scriptedCompleter{
		responses: []string{
			"complex",
			`["What was Apple's R&D spending?", "What was Microsoft's R&D spending?"]`,
			`{"answer": "Apple spent more", "reasoning": "Comparison of reported figures"}`,
		},
	}
	searcher := &stubSearcher{
		results: map[string][]domain.Scored{
			"What was Apple's R&D spending?":     {scoredChunk("a", "AAPL", "2023", "R&D expense was $29.9 billion")},
			"What was Microsoft's R&D spending?": {scoredChunk("m", "MSFT", "2023", "R&D expense was $27.2 billion")},
		},
	}
	p := New(completer, searcher, zap.NewNop())

	resp := p.Answer(context.Background(), "Compare Apple and Microsoft R&D spending")

	assert.Equal(t, "Apple spent more", resp.Answer)
	assert.Equal(t, []string{
		"What was Apple's R&D spending?",
		"What was Microsoft's R&D spending?",
	}, resp.SubQueries)
	assert.Equal(t, resp.SubQueries, searcher.queries, "sub-queries searched in list order")
	assert.Len(t, resp.Sources, 2)
	assert.Equal(t, 3, completer.calls)
}

func TestAnswer_DuplicateSourcesSurviveOverlappingSubQueries(t *testing.T) {
	shared := scoredChunk("shared", "MSFT", "2023", "Operating margin was 42 percent in fiscal 2023")
	completer := &scriptedCompleter{
		responses: []string{
			"complex",
			`["Microsoft operating margin 2023", "Microsoft profitability 2023"]`,
			`{"answer": "Margin was 42 percent", "reasoning": "Both searches surfaced the same passage"}`,
		},
	}
	searcher := &stubSearcher{
		results: map[string][]domain.Scored{
			"Microsoft operating margin 2023": {shared},
			"Microsoft profitability 2023":    {shared},
		},
	}
	p := New(completer, searcher, zap.NewNop())

	resp := p.Answer(context.Background(), "What was Microsoft's operating margin in 2023?")

	// One source per retrieved pair, so the chunk both sub-queries hit is
	// cited twice rather than deduplicated.
	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "shared", resp.Sources[0].ChunkID)
	assert.Equal(t, "shared", resp.Sources[1].ChunkID)
	assert.Equal(t, resp.Sources[0], resp.Sources[1])
}

func TestAnswer_ClassificationFailureDefaultsToComplex(t *testing.T) {
	completer := &scriptedCompleter{
		responses: []string{
			"",
			`["standalone question"]`,
			`{"answer": "ok", "reasoning": "r"}`,
		},
		errs: []error{errors.New("model unavailable")},
	}
	searcher := &stubSearcher{results: map[string][]domain.Scored{}}
	p := New(completer, searcher, zap.NewNop())

	resp := p.Answer(context.Background(), "any question")

	// Failure routes through the complex path, so decomposition runs.
	assert.Equal(t, 3, completer.calls)
	assert.Equal(t, []string{"standalone question"}, resp.SubQueries)
	assert.NotEmpty(t, resp.Answer)
}

func TestAnswer_UnrecognizedLabelDefaultsToComplex(t *testing.T) {
	completer := &scriptedCompleter{
		responses: []string{
			"moderately complicated",
			`["q1"]`,
			`{"answer": "ok", "reasoning": "r"}`,
		},
	}
	p := New(completer, &stubSearcher{}, zap.NewNop())

	p.Answer(context.Background(), "a question")
	assert.Equal(t, 3, completer.calls)
}

func TestAnswer_TotalUnderEverythingFailing(t *testing.T) {
	completer := &scriptedCompleter{
		errs: []error{
			errors.New("down"),
			errors.New("down"),
			errors.New("down"),
		},
	}
	searcher := &stubSearcher{err: errors.New("index offline")}
	p := New(completer, searcher, zap.NewNop())

	resp := p.Answer(context.Background(), "anything")

	assert.Equal(t, "Unable to synthesize answer due to processing error", resp.Answer)
	assert.NotEmpty(t, resp.Reasoning)
	assert.Equal(t, []string{"anything"}, resp.SubQueries)
	assert.NotNil(t, resp.Sources)
	assert.Empty(t, resp.Sources)
}

func TestAnswer_SearchFailureStillSynthesizes(t *testing.T) {
	completer := &scriptedCompleter{
		responses: []string{
			"simple",
			`{"answer": "no data found", "reasoning": "nothing retrieved"}`,
		},
	}
	searcher := &stubSearcher{err: errors.New("embedder offline")}
	p := New(completer, searcher, zap.NewNop())

	resp := p.Answer(context.Background(), "What was revenue?")

	assert.Equal(t, "no data found", resp.Answer)
	assert.Empty(t, resp.Sources)
}

func TestAnswer_SynthesisPromptContainsSnippets(t *testing.T) {
	completer := &scriptedCompleter{
		responses: []string{
			"simple",
			`{"answer": "a", "reasoning": "r"}`,
		},
	}
	searcher := &stubSearcher{
		results: map[string][]domain.Scored{
			"q": {scoredChunk("c1", "MSFT", "2023", "Total revenue was $211.9 billion")},
		},
	}
	p := New(completer, searcher, zap.NewNop())

	p.Answer(context.Background(), "q")

	require.Equal(t, 2, completer.calls)
	synthPrompt := completer.prompts[1]
	assert.True(t, strings.Contains(synthPrompt, "Total revenue was $211.9 billion"))
	assert.True(t, strings.Contains(synthPrompt, "Search: q"))
}
