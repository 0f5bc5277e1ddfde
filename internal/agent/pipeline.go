package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/joybratasarkar/financial-system-rag/internal/domain"
	"github.com/joybratasarkar/financial-system-rag/internal/llm"
	"github.com/joybratasarkar/financial-system-rag/internal/retriever"
)

// Searcher is the retrieval dependency of the pipeline.
type Searcher interface {
	Search(ctx context.Context, query string, k int, f retriever.Filters) ([]domain.Scored, error)
}

// Pipeline answers questions over the indexed filings. It holds only
// immutable dependencies; per-query state lives in State values, so one
// Pipeline serves concurrent queries.
type Pipeline struct {
	completer llm.Completer
	searcher  Searcher
	logger    *zap.Logger
}

// New creates a pipeline from its collaborators.
func New(completer llm.Completer, searcher Searcher, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		completer: completer,
		searcher:  searcher,
		logger:    logger,
	}
}

// Answer runs the full state machine for one query:
//
//	classify → (simple: skip | complex: decompose) → execute_searches → synthesize
//
// It is total: every stage recovers from its own failures, so Answer always
// returns a response, degraded at worst to a generic failure answer with an
// empty source list.
func (p *Pipeline) Answer(ctx context.Context, query string) domain.QueryResponse {
	start := time.Now()
	defer func() {
		queryDuration.Observe(time.Since(start).Seconds())
	}()

	p.logger.Info("processing query", zap.String("query", query))

	st := p.classify(ctx, NewState(query))

	if st.QueryType == QueryComplex {
		st = p.decompose(ctx, st)
	} else {
		st.SubQueries = []string{query}
	}

	st = p.executeSearches(ctx, st)
	st = p.synthesize(ctx, st)

	if st.Err != "" {
		p.logger.Warn("query completed with degraded stages",
			zap.String("query", query), zap.String("error", st.Err))
	}
	return st.Response()
}
