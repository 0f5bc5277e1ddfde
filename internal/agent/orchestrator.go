package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/joybratasarkar/financial-system-rag/internal/domain"
	"github.com/joybratasarkar/financial-system-rag/internal/retriever"
)

// resultsPerQuery is how many chunks each sub-query retrieves.
const resultsPerQuery = 5

// executeSearches runs retrieval for every sub-query, one at a time in list
// order. A failed search leaves that sub-query with an empty result list and
// the orchestrator moves on; no error propagates past this stage.
//
// Results are keyed by sub-query text, so a duplicated sub-query is searched
// twice and the later result overwrites the earlier one. Sources are kept
// for every retrieved pair, duplicates included; deduplication is
// deliberately not performed so citation counts match what was searched.
func (p *Pipeline) executeSearches(ctx context.Context, st State) State {
	queries := st.SubQueries
	if len(queries) == 0 {
		queries = []string{st.Query}
		st.SubQueries = queries
	}

	searchResults := make(map[string][]domain.Scored, len(queries))
	sources := make([]domain.Source, 0, len(queries)*resultsPerQuery)

	for _, query := range queries {
		results, err := p.searcher.Search(ctx, query, resultsPerQuery, retriever.Filters{})
		if err != nil {
			p.logger.Warn("sub-query search failed",
				zap.String("sub_query", query), zap.Error(err))
			stagesTotal.WithLabelValues("search", "error").Inc()
			searchResults[query] = []domain.Scored{}
			continue
		}

		for _, r := range results {
			sources = append(sources, domain.SourceFromChunk(r.Chunk, r.Score))
		}
		searchResults[query] = results

		p.logger.Debug("sub-query searched",
			zap.String("sub_query", query),
			zap.Int("results", len(results)))
	}

	stagesTotal.WithLabelValues("search", "ok").Inc()
	st.SearchResults = searchResults
	st.Sources = sources
	return st
}
