package search

import (
	"log/slog"
	"strings"
)

// QueryExpander rewrites user queries before embedding. Conversational
// filler is stripped and very short queries get a legal-context phrase
// appended, which steers the embedding toward the legal portion of the
// vector space.
//
// Example:
//
//	Input:  "расскажи о налогах"
//	Output: "налогах юридические аспекты"
type QueryExpander struct {
	expansions    []string
	removePhrases []string
	minWords      int
}

// QueryExpanderOption configures the query expander.
type QueryExpanderOption func(*QueryExpander)

// WithExpansions replaces the default legal-context phrases.
func WithExpansions(expansions []string) QueryExpanderOption {
	return func(e *QueryExpander) {
		e.expansions = expansions
	}
}

// WithRemovePhrases replaces the default filler phrases.
func WithRemovePhrases(phrases []string) QueryExpanderOption {
	return func(e *QueryExpander) {
		e.removePhrases = phrases
	}
}

// WithMinWords sets the word count below which context is appended.
func WithMinWords(n int) QueryExpanderOption {
	return func(e *QueryExpander) {
		e.minWords = n
	}
}

// legalExpansions are the context phrases appended to short queries.
var legalExpansions = []string{
	"юридические аспекты",
	"правовые нормы",
	"законодательство",
	"федеральный закон",
	"права и обязанности",
	"правовой статус",
	"юридическое понятие",
	"согласно закону",
	"нормативно-правовой акт",
}

// fillerPhrases are conversational lead-ins that carry no retrieval signal.
var fillerPhrases = []string{
	"скажи мне",
	"расскажи о",
	"что такое",
	"как понять",
	"объясни",
	"можешь ли ты",
	"пожалуйста",
	"подскажи",
}

// NewQueryExpander creates an expander with the default legal phrase sets.
func NewQueryExpander(opts ...QueryExpanderOption) *QueryExpander {
	e := &QueryExpander{
		expansions:    legalExpansions,
		removePhrases: fillerPhrases,
		minWords:      3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand rewrites a query for embedding.
//
// The strategy:
//  1. Strip filler phrases so they do not dilute the embedding.
//  2. If the remainder is shorter than minWords, append the expansion
//     phrase sharing the most words with the original query.
//  3. Collapse whitespace.
func (e *QueryExpander) Expand(query string) string {
	expanded := query
	for _, phrase := range e.removePhrases {
		expanded = strings.ReplaceAll(expanded, phrase, "")
	}

	if len(strings.Fields(expanded)) < e.minWords {
		if best := e.bestExpansion(query); best != "" {
			expanded += " " + best
		}
	}

	expanded = strings.Join(strings.Fields(expanded), " ")

	if expanded != query {
		slog.Debug("query expanded",
			slog.String("original", query),
			slog.String("expanded", expanded))
	}
	return expanded
}

// bestExpansion picks the expansion phrase with the largest word overlap
// with the query. With no overlap anywhere, the first phrase wins; any
// legal context beats none for a short query.
func (e *QueryExpander) bestExpansion(query string) string {
	queryWords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		queryWords[w] = true
	}

	best := ""
	maxOverlap := -1
	for _, expansion := range e.expansions {
		overlap := 0
		for _, w := range strings.Fields(strings.ToLower(expansion)) {
			if queryWords[w] {
				overlap++
			}
		}
		if overlap > maxOverlap {
			maxOverlap = overlap
			best = expansion
		}
	}
	return best
}
