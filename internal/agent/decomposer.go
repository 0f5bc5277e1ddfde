package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// decompose expands a complex query into independently searchable
// sub-queries. Any failure (call error, malformed JSON, empty list) falls
// back to the single-element list holding the original query; the pipeline
// never aborts here.
func (p *Pipeline) decompose(ctx context.Context, st State) State {
	raw, err := p.completer.Complete(ctx, decompositionPrompt(st.Query))
	if err != nil {
		p.logger.Warn("query decomposition failed", zap.Error(err))
		stagesTotal.WithLabelValues("decompose", "error").Inc()
		st.SubQueries = []string{st.Query}
		return st.withError(fmt.Sprintf("decomposition error: %v", err))
	}

	subQueries, err := parseSubQueries(raw)
	if err != nil {
		p.logger.Warn("unparsable decomposition response",
			zap.Error(err), zap.String("response", truncate(raw, 200)))
		stagesTotal.WithLabelValues("decompose", "parse_error").Inc()
		st.SubQueries = []string{st.Query}
		return st.withError(fmt.Sprintf("decomposition error: %v", err))
	}

	p.logger.Debug("query decomposed",
		zap.String("query", st.Query),
		zap.Strings("sub_queries", subQueries))
	stagesTotal.WithLabelValues("decompose", "ok").Inc()
	st.SubQueries = subQueries
	return st
}

// parseSubQueries expects a JSON array of strings, optionally wrapped in a
// Markdown code fence.
func parseSubQueries(raw string) ([]string, error) {
	content := stripCodeFence(raw)

	var parsed []string
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("parsing sub-query array: %w", err)
	}

	subQueries := make([]string, 0, len(parsed))
	for _, q := range parsed {
		if q = strings.TrimSpace(q); q != "" {
			subQueries = append(subQueries, q)
		}
	}
	if len(subQueries) == 0 {
		return nil, fmt.Errorf("decomposition produced no sub-queries")
	}
	return subQueries, nil
}

// stripCodeFence removes an optional Markdown code-fence wrapper
// (``` or ```json) around a model response.
func stripCodeFence(raw string) string {
	content := strings.TrimSpace(raw)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
