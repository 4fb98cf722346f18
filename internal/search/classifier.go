package search

import (
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultClassifierCacheSize is the LRU cache size for classification
// results. Chat traffic repeats queries often enough that caching the
// substring scan pays for its memory.
const DefaultClassifierCacheSize = 10000

// legalKeywords are domain stems matched as substrings, so one stem
// covers the full inflection family ("налог" matches "налоги",
// "налогах", "налоговый").
var legalKeywords = []string{
	"закон", "право", "юрид", "кодекс", "статья", "суд", "догов", "норм",
	"ответств", "регул", "легал", "законодат", "обязан", "регистрац",
	"защит", "патент", "лиценз", "штраф", "санкц", "иск", "налог",
	"имуществ", "наслед", "собствен", "возмещ", "компенс", "претенз",
	"нотари", "адвокат", "доверен", "учред", "устав", "акционер", "директор",
}

// legalPatterns are question formulations that signal a legal intent
// even without domain vocabulary.
var legalPatterns = []string{
	"имею ли я право", "можно ли", "законно ли", "правомерно ли",
	"как правильно", "какие права", "какие обязанности", "что делать если",
	"как оформить", "как получить", "как подать", "как заполнить",
	"как составить", "как зарегистрировать", "что говорит закон",
	"что сказано в законе", "по закону", "согласно закону",
}

// LegalClassifier decides whether a query is a legal question. Retrieval
// is gated on it: a non-legal query gets no chunks rather than the
// nearest legally flavored noise.
type LegalClassifier struct {
	keywords []string
	patterns []string
	cache    *lru.Cache[string, bool]
}

// NewLegalClassifier creates a classifier with the default keyword and
// pattern sets.
func NewLegalClassifier() *LegalClassifier {
	cache, _ := lru.New[string, bool](DefaultClassifierCacheSize)
	return &LegalClassifier{
		keywords: legalKeywords,
		patterns: legalPatterns,
		cache:    cache,
	}
}

// IsLegal reports whether the query looks like a legal question.
func (c *LegalClassifier) IsLegal(query string) bool {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return false
	}

	if result, ok := c.cache.Get(key); ok {
		return result
	}

	result := c.classify(key)
	c.cache.Add(key, result)
	return result
}

func (c *LegalClassifier) classify(query string) bool {
	for _, keyword := range c.keywords {
		if strings.Contains(query, keyword) {
			slog.Debug("query classified as legal",
				slog.String("keyword", keyword),
				slog.String("query", query))
			return true
		}
	}

	for _, pattern := range c.patterns {
		if strings.Contains(query, pattern) {
			slog.Debug("query classified as legal",
				slog.String("pattern", pattern),
				slog.String("query", query))
			return true
		}
	}

	slog.Debug("query classified as non-legal", slog.String("query", query))
	return false
}
