package basegroup

import (
	"slices"
	"strings"

	"github.com/basegroupapp/basegroup-server/internal/domain"
	domainerrors "github.com/basegroupapp/basegroup-server/internal/errors"
)

// SearchMode selects how Search compares the term against field values.
type SearchMode string

// Search modes.
const (
	ModePartial SearchMode = "partial" // case-insensitive substring
	ModeExact   SearchMode = "exact"   // full-field equality, case-insensitive
)

// SearchQuery is a free-text term plus matching mode.
type SearchQuery struct {
	Term string
	Mode SearchMode
}

// Stats aggregates approval statuses for one group key.
type Stats struct {
	Key           string `json:"key"`
	Count         int    `json:"count"`
	ApprovedCount int    `json:"approved_count"`
	DeniedCount   int    `json:"denied_count"`
	OtherCount    int    `json:"other_count"`
}

// KeyStats is one row of the all-keys analytics view, with share of the
// whole dataset.
type KeyStats struct {
	Stats
	Percent float64 `json:"percent"`
}

// AllStats is the full analytics view: one row per key plus totals.
type AllStats struct {
	Keys   []KeyStats `json:"keys"`
	Totals Stats      `json:"totals"`
}

// GroupSummary describes one group: its key and member raw names.
type GroupSummary struct {
	Key      string   `json:"key"`
	RawNames []string `json:"raw_names"`
	Count    int      `json:"count"`
}

// Engine answers filter/combine/search/stats queries over one loaded
// dataset. It is not safe for concurrent mutation; each session owns its
// own instance and the service layer serializes access per session.
type Engine struct {
	normalizer *Normalizer
	dataset    *domain.Dataset
	index      *GroupIndex
}

// NewEngine creates an engine with no dataset loaded. Queries against it
// return empty results, never errors.
func NewEngine(marker string) *Engine {
	return &Engine{
		normalizer: NewNormalizer(marker),
		index:      BuildIndex(nil),
	}
}

// Rebuild replaces the engine's state from a freshly loaded dataset. It
// normalizes every record's base name, classifies statuses, and rebuilds
// the group index in a single pass.
//
// A missing base-name column is the one fatal condition and is surfaced
// here, exactly once; queries afterwards see the previous (or empty)
// state. An empty dataset is not an error.
func (e *Engine) Rebuild(ds *domain.Dataset) error {
	if ds == nil {
		e.dataset = nil
		e.index = BuildIndex(nil)
		return nil
	}

	if ds.BaseColumn == "" && len(ds.Records) > 0 {
		return domainerrors.MissingBaseColumn("dataset has no base name column (expected one of: base, bases, base name, basename)")
	}

	for i := range ds.Records {
		rec := &ds.Records[i]
		rec.Index = i
		rec.RawBase = rec.Fields[ds.BaseColumn]

		key, grouped := e.normalizer.Normalize(rec.RawBase)
		rec.Key = key
		rec.Ungrouped = !grouped

		if ds.StatusColumn != "" {
			rec.Status = ClassifyStatus(rec.Fields[ds.StatusColumn])
		} else {
			rec.Status = domain.StatusOther
		}
	}

	e.dataset = ds
	e.index = BuildIndex(ds.Records)
	return nil
}

// Dataset returns the currently loaded dataset, nil if none.
func (e *Engine) Dataset() *domain.Dataset {
	return e.dataset
}

// Index returns the current group index.
func (e *Engine) Index() *GroupIndex {
	return e.index
}

// FilterByBase returns all records under a canonical key, or under an
// exact raw base name when no key matches. Unknown inputs yield an empty
// slice, not an error.
func (e *Engine) FilterByBase(keyOrRaw string) []domain.Record {
	return e.collect(e.index.resolve(keyOrRaw))
}

// Combine returns the union of records across the given keys or raw
// names, deduplicated by record identity, in stable dataset order.
func (e *Engine) Combine(bases []string) []domain.Record {
	seen := make(map[int]bool)
	var rows []int
	for _, base := range bases {
		for _, row := range e.index.resolve(base) {
			if !seen[row] {
				seen[row] = true
				rows = append(rows, row)
			}
		}
	}
	slices.Sort(rows)
	return e.collect(rows)
}

// Search scans all records in dataset order. Partial mode matches when
// the term is a case-insensitive substring of any field; exact mode
// requires a whole field to equal the term (ignoring case). An empty term
// matches nothing.
func (e *Engine) Search(q SearchQuery) []domain.Record {
	if e.dataset == nil || strings.TrimSpace(q.Term) == "" {
		return nil
	}

	term := strings.ToLower(strings.TrimSpace(q.Term))
	var out []domain.Record
	for _, rec := range e.dataset.Records {
		if recordMatches(rec, term, q.Mode) {
			out = append(out, rec)
		}
	}
	return out
}

func recordMatches(rec domain.Record, lowerTerm string, mode SearchMode) bool {
	for _, v := range rec.Fields {
		lv := strings.ToLower(v)
		if mode == ModeExact {
			if lv == lowerTerm {
				return true
			}
		} else if strings.Contains(lv, lowerTerm) {
			return true
		}
	}
	return false
}

// Stats aggregates approval statuses for one key. Unknown keys yield
// zero counts. The counts always satisfy
// approved + denied + other == count.
func (e *Engine) Stats(key string) Stats {
	st := Stats{Key: CanonicalRaw(key)}
	for _, rec := range e.collect(e.index.resolve(key)) {
		tally(&st, rec.Status)
	}
	return st
}

// StatsAll computes per-key stats for every group plus dataset totals and
// each key's share of all rows.
func (e *Engine) StatsAll() AllStats {
	all := AllStats{Totals: Stats{Key: "total"}}

	total := 0
	if e.dataset != nil {
		total = len(e.dataset.Records)
	}

	for _, key := range e.index.Keys() {
		st := e.Stats(key)
		ks := KeyStats{Stats: st}
		if total > 0 {
			ks.Percent = 100 * float64(st.Count) / float64(total)
		}
		all.Keys = append(all.Keys, ks)

		all.Totals.Count += st.Count
		all.Totals.ApprovedCount += st.ApprovedCount
		all.Totals.DeniedCount += st.DeniedCount
		all.Totals.OtherCount += st.OtherCount
	}

	return all
}

// FilterByStatus returns records with the given classified status, in
// dataset order.
func (e *Engine) FilterByStatus(status domain.Status) []domain.Record {
	if e.dataset == nil {
		return nil
	}
	var out []domain.Record
	for _, rec := range e.dataset.Records {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out
}

// Groups lists every group with its member raw names and record count.
func (e *Engine) Groups() []GroupSummary {
	keys := e.index.Keys()
	out := make([]GroupSummary, 0, len(keys))
	for _, key := range keys {
		out = append(out, GroupSummary{
			Key:      key,
			RawNames: e.index.RawNames(key),
			Count:    len(e.index.rowsForKey(key)),
		})
	}
	return out
}

// Records returns a page of records in dataset order.
func (e *Engine) Records(offset, limit int) ([]domain.Record, int) {
	if e.dataset == nil {
		return nil, 0
	}
	total := len(e.dataset.Records)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return nil, total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	page := make([]domain.Record, end-offset)
	copy(page, e.dataset.Records[offset:end])
	return page, total
}

func (e *Engine) collect(rows []int) []domain.Record {
	if e.dataset == nil || len(rows) == 0 {
		return nil
	}
	out := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		if row >= 0 && row < len(e.dataset.Records) {
			out = append(out, e.dataset.Records[row])
		}
	}
	return out
}

func tally(st *Stats, status domain.Status) {
	st.Count++
	switch status {
	case domain.StatusApproved:
		st.ApprovedCount++
	case domain.StatusDenied:
		st.DeniedCount++
	default:
		st.OtherCount++
	}
}
