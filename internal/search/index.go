// Package search provides a per-session in-memory Bleve index for
// typo-tolerant ranked search over dataset records. It supplements the
// engine's deterministic partial/exact scans; the scans stay the source
// of truth for dataset-order results.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/basegroupapp/basegroup-server/internal/domain"
)

const indexBatchSize = 500

// Index wraps an in-memory Bleve index over one dataset. Rebuilt wholesale
// whenever the owning session loads a new dataset.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
}

// recordDoc is the indexed shape of a record: all field text in one
// searchable blob, plus the fields Bleve stores for hits.
type recordDoc struct {
	Row     int    `json:"row"`
	RawBase string `json:"raw_base"`
	Key     string `json:"key"`
	Text    string `json:"text"`
}

// NewIndex creates an empty in-memory index.
func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create memory index: %w", err)
	}
	return &Index{index: idx}, nil
}

// Rebuild replaces the index content with the given records.
func (s *Index) Rebuild(records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Recreate rather than delete-by-query; the dataset is replaced
	// wholesale anyway.
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("recreate memory index: %w", err)
	}

	batch := fresh.NewBatch()
	for _, rec := range records {
		doc := recordDoc{
			Row:     rec.Index,
			RawBase: rec.RawBase,
			Key:     rec.Key,
			Text:    flatten(rec),
		}
		if err := batch.Index(strconv.Itoa(rec.Index), doc); err != nil {
			return fmt.Errorf("index record %d: %w", rec.Index, err)
		}

		if batch.Size() >= indexBatchSize {
			if err := fresh.Batch(batch); err != nil {
				return fmt.Errorf("flush index batch: %w", err)
			}
			batch = fresh.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := fresh.Batch(batch); err != nil {
			return fmt.Errorf("flush index batch: %w", err)
		}
	}

	old := s.index
	s.index = fresh
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}

// flatten joins all field values of a record into one searchable string.
func flatten(rec domain.Record) string {
	parts := make([]string, 0, len(rec.Fields))
	for _, v := range rec.Fields {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// Hit is one ranked search result.
type Hit struct {
	Row      int     `json:"row"`
	RawBase  string  `json:"raw_base"`
	Key      string  `json:"key"`
	Score    float64 `json:"score"`
	Fragment string  `json:"fragment,omitempty"`
}

// Result is a ranked search response.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Search runs a ranked query: exact match boosted over fuzzy, with a
// prefix query for short terms. Results come back by descending score.
func (s *Index) Search(ctx context.Context, term string, limit int) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index == nil {
		return &Result{Query: term}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	searchRequest := bleve.NewSearchRequestOptions(buildQuery(term), limit, 0, false)
	searchRequest.Fields = []string{"row", "raw_base", "key"}
	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.AddField("text")

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  term,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		h := Hit{Score: hit.Score}
		if row, ok := hit.Fields["row"].(float64); ok {
			h.Row = int(row)
		}
		if raw, ok := hit.Fields["raw_base"].(string); ok {
			h.RawBase = raw
		}
		if key, ok := hit.Fields["key"].(string); ok {
			h.Key = key
		}
		if fragments, ok := hit.Fragments["text"]; ok && len(fragments) > 0 {
			h.Fragment = fragments[0]
		}
		result.Hits = append(result.Hits, h)
	}

	return result, nil
}
