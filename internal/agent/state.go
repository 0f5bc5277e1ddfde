// Package agent implements the query-answering state machine: classify a
// question, decompose it into sub-queries when needed, run retrieval for
// each, and synthesize a cited answer.
//
// Every stage is a pure transformation from one State value to the next.
// Stages recover from their own failures and always produce a usable
// (possibly degraded) state, so the pipeline proceeds deterministically to
// completion and nothing escapes the Answer boundary.
package agent

import (
	"github.com/joybratasarkar/financial-system-rag/internal/domain"
)

// QueryType labels a question by how much handling it needs.
type QueryType string

const (
	// QuerySimple means a single retrieval suffices.
	QuerySimple QueryType = "simple"

	// QueryComplex means the question needs decomposition. It is also the
	// default when classification fails: complex handling is a strict
	// superset of simple handling.
	QueryComplex QueryType = "complex"
)

// State is the working record of one query's trip through the pipeline.
// It is a value: stages derive new states rather than mutating shared ones,
// and nothing is retained across queries.
type State struct {
	Query         string
	QueryType     QueryType
	SubQueries    []string
	SearchResults map[string][]domain.Scored
	FinalAnswer   string
	Reasoning     string
	Sources       []domain.Source
	Err           string
}

// NewState creates the initial state for a query.
func NewState(query string) State {
	return State{Query: query}
}

// withError records the first diagnostic error; later errors do not
// overwrite it.
func (s State) withError(msg string) State {
	if s.Err == "" {
		s.Err = msg
	}
	return s
}

// Response projects the final state into the caller-facing result.
func (s State) Response() domain.QueryResponse {
	subQueries := s.SubQueries
	if len(subQueries) == 0 {
		subQueries = []string{s.Query}
	}
	sources := s.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	return domain.QueryResponse{
		Query:      s.Query,
		Answer:     s.FinalAnswer,
		Reasoning:  s.Reasoning,
		SubQueries: subQueries,
		Sources:    sources,
	}
}
