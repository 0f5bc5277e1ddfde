package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// classify labels the query as simple or complex with a single completion
// call. Anything the model returns outside {"simple", "complex"}, including
// a failed call, defaults to complex: decomposing a trivially simple query
// just yields one sub-query, while the reverse loses information.
func (p *Pipeline) classify(ctx context.Context, st State) State {
	raw, err := p.completer.Complete(ctx, classificationPrompt(st.Query))
	if err != nil {
		p.logger.Warn("query classification failed", zap.Error(err))
		stagesTotal.WithLabelValues("classify", "error").Inc()
		st.QueryType = QueryComplex
		return st.withError(fmt.Sprintf("classification error: %v", err))
	}

	label := strings.ToLower(strings.TrimSpace(raw))
	switch QueryType(label) {
	case QuerySimple, QueryComplex:
		st.QueryType = QueryType(label)
	default:
		st.QueryType = QueryComplex
	}

	p.logger.Debug("query classified",
		zap.String("query", st.Query),
		zap.String("type", string(st.QueryType)))
	stagesTotal.WithLabelValues("classify", "ok").Inc()
	return st
}
