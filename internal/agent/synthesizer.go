package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	// snippetsPerQuery bounds how many retrieved snippets per sub-query go
	// into the synthesis context.
	snippetsPerQuery = 3

	// snippetExcerptLimit bounds each snippet's excerpt in the context and
	// the raw-text fallback answer.
	snippetExcerptLimit = 500

	// minUsableResponse is the length below which a raw model response is
	// considered too short to serve as an answer.
	minUsableResponse = 10
)

// synthesized is the strict two-field object the synthesis prompt demands.
type synthesized struct {
	Answer    string `json:"answer"`
	Reasoning string `json:"reasoning"`
}

// recoveryStrategy attempts to turn a raw model response into an answer and
// reasoning pair. Strategies are pure: they inspect the raw text and the
// state, and report whether they apply.
type recoveryStrategy struct {
	name  string
	apply func(raw string, st State) (answer, reasoning string, ok bool)
}

// recoveryChain is the ordered fallback ladder for synthesis output. The
// first applicable strategy wins; the final rung always applies, so
// synthesis is total.
var recoveryChain = []recoveryStrategy{
	{name: "strict_json", apply: parseStrictJSON},
	{name: "embedded_json", apply: parseEmbeddedJSON},
	{name: "raw_text", apply: rawTextAnswer},
	{name: "first_snippet", apply: composeFromSnippets},
	{name: "no_results", apply: noResultsAnswer},
}

// synthesize merges the retrieved context into a final answer. A completion
// call failure short-circuits to a generic failure answer; an unparsable
// response walks the recovery chain. Either way the state leaves this stage
// with a non-empty answer and reasoning.
func (p *Pipeline) synthesize(ctx context.Context, st State) State {
	raw, err := p.completer.Complete(ctx, synthesisPrompt(st.Query, buildContext(st)))
	if err != nil {
		p.logger.Warn("answer synthesis failed", zap.Error(err))
		stagesTotal.WithLabelValues("synthesize", "error").Inc()
		st.FinalAnswer = "Unable to synthesize answer due to processing error"
		st.Reasoning = fmt.Sprintf("Synthesis error: %v", err)
		return st.withError(fmt.Sprintf("synthesis error: %v", err))
	}

	for _, strategy := range recoveryChain {
		answer, reasoning, ok := strategy.apply(raw, st)
		if !ok {
			continue
		}
		p.logger.Debug("synthesis response parsed",
			zap.String("strategy", strategy.name))
		fallbacksTotal.WithLabelValues(strategy.name).Inc()
		stagesTotal.WithLabelValues("synthesize", "ok").Inc()
		st.FinalAnswer = answer
		st.Reasoning = reasoning
		return st
	}

	// Unreachable: noResultsAnswer always applies. Kept as a hard floor.
	st.FinalAnswer = "Unable to find relevant information in the search results"
	st.Reasoning = "No search results available for analysis"
	return st
}

// buildContext labels each sub-query's top snippets for the prompt.
func buildContext(st State) string {
	var b strings.Builder
	for _, query := range st.SubQueries {
		results := st.SearchResults[query]
		fmt.Fprintf(&b, "Search: %s\n", query)
		for i, r := range results {
			if i == snippetsPerQuery {
				break
			}
			fmt.Fprintf(&b, "Result %d: %s\n", i+1, excerpt(r.Chunk.Content, snippetExcerptLimit))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// parseStrictJSON strips an optional code fence and parses the whole
// response as the two-field object.
func parseStrictJSON(raw string, _ State) (string, string, bool) {
	content := stripCodeFence(raw)

	var parsed synthesized
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return "", "", false
	}
	answer := parsed.Answer
	if answer == "" {
		answer = "Unable to determine answer from available data"
	}
	reasoning := parsed.Reasoning
	if reasoning == "" {
		reasoning = "Analysis based on search results"
	}
	return answer, reasoning, true
}

var (
	// answerReasoningPattern matches the smallest JSON-object-shaped
	// substring naming both expected fields.
	answerReasoningPattern = regexp.MustCompile(`(?s)\{[^{}]*"answer"[^{}]*"reasoning"[^{}]*\}`)

	// anyObjectPattern is the looser second chance: any braced substring.
	anyObjectPattern = regexp.MustCompile(`(?s)\{.*?\}`)
)

// parseEmbeddedJSON searches the raw text for a JSON-shaped substring and
// parses that. Covers models that wrap the object in prose.
func parseEmbeddedJSON(raw string, _ State) (string, string, bool) {
	match := answerReasoningPattern.FindString(raw)
	if match == "" {
		match = anyObjectPattern.FindString(raw)
	}
	if match == "" {
		return "", "", false
	}

	var parsed synthesized
	if err := json.Unmarshal([]byte(match), &parsed); err != nil {
		return "", "", false
	}
	answer := parsed.Answer
	if answer == "" {
		answer = "Unable to extract answer"
	}
	reasoning := parsed.Reasoning
	if reasoning == "" {
		reasoning = "Extracted from partial JSON"
	}
	return answer, reasoning, true
}

// rawTextAnswer uses the trimmed raw response directly when it is long
// enough to plausibly be an answer.
func rawTextAnswer(raw string, _ State) (string, string, bool) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) <= minUsableResponse {
		return "", "", false
	}
	return excerpt(trimmed, snippetExcerptLimit),
		"Direct LLM response (structured parse failed)", true
}

// composeFromSnippets builds an answer from the first retrieved snippet when
// the model produced nothing usable but retrieval found something.
func composeFromSnippets(_ string, st State) (string, string, bool) {
	for _, query := range st.SubQueries {
		results := st.SearchResults[query]
		if len(results) == 0 {
			continue
		}
		answer := fmt.Sprintf("Based on available data: From search '%s': %s...",
			query, excerpt(results[0].Chunk.Content, 200))
		return answer, "Generated from search results due to synthesis failure", true
	}
	return "", "", false
}

// noResultsAnswer is the terminal rung: nothing was retrieved at all.
func noResultsAnswer(_ string, _ State) (string, string, bool) {
	return "Unable to find relevant information in the search results",
		"No search results available for analysis", true
}

func excerpt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	// Cut on a rune boundary so the excerpt stays valid UTF-8.
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}
