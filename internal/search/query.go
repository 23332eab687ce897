package search

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// buildQuery constructs the ranked query for a term.
func buildQuery(term string) query.Query {
	term = strings.TrimSpace(term)
	if term == "" {
		return bleve.NewMatchNoneQuery()
	}

	var queries []query.Query

	// Direct match with highest boost.
	match := bleve.NewMatchQuery(term)
	match.SetField("text")
	match.SetBoost(3.0)
	queries = append(queries, match)

	// Fuzzy matching for typo tolerance.
	fuzzy := bleve.NewFuzzyQuery(term)
	fuzzy.SetFuzziness(1)
	fuzzy.SetField("text")
	fuzzy.SetBoost(0.8)
	queries = append(queries, fuzzy)

	// Prefix query for partial terms (minimum 2 chars).
	if len(term) >= 2 {
		prefix := bleve.NewPrefixQuery(strings.ToLower(term))
		prefix.SetField("text")
		prefix.SetBoost(0.5)
		queries = append(queries, prefix)
	}

	return bleve.NewDisjunctionQuery(queries...)
}
