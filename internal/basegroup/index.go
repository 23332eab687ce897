package basegroup

import (
	"slices"

	"github.com/basegroupapp/basegroup-server/internal/domain"
)

// GroupIndex maps canonical keys to the raw base names observed under
// them, and each raw name to the dataset positions of its records. It is
// derived state: rebuilt wholesale from the record sequence, never
// mutated independently.
type GroupIndex struct {
	keys      []string            // first-appearance order
	rawsByKey map[string][]string // key -> raw names, first-appearance order
	rowsByRaw map[string][]int    // canonical raw -> record indices, dataset order
	keyByRaw  map[string]string   // canonical raw -> key
}

// BuildIndex makes a single pass over records and indexes them by key and
// raw name. Records must already carry RawBase and Key (set by the
// engine's rebuild). Building twice over the same sequence yields
// identical content.
func BuildIndex(records []domain.Record) *GroupIndex {
	idx := &GroupIndex{
		rawsByKey: make(map[string][]string),
		rowsByRaw: make(map[string][]int),
		keyByRaw:  make(map[string]string),
	}

	for i, rec := range records {
		raw := CanonicalRaw(rec.RawBase)
		if raw == "" {
			raw = UngroupedKey
		}

		if _, seen := idx.keyByRaw[raw]; !seen {
			idx.keyByRaw[raw] = rec.Key
			if _, keySeen := idx.rawsByKey[rec.Key]; !keySeen {
				idx.keys = append(idx.keys, rec.Key)
			}
			idx.rawsByKey[rec.Key] = append(idx.rawsByKey[rec.Key], raw)
		}

		idx.rowsByRaw[raw] = append(idx.rowsByRaw[raw], i)
	}

	return idx
}

// Keys returns all group keys in first-appearance order.
func (idx *GroupIndex) Keys() []string {
	out := make([]string, len(idx.keys))
	copy(out, idx.keys)
	return out
}

// RawNames returns the raw base names observed under a key, in
// first-appearance order. Unknown keys yield nil.
func (idx *GroupIndex) RawNames(key string) []string {
	raws := idx.rawsByKey[key]
	out := make([]string, len(raws))
	copy(out, raws)
	return out
}

// KeyFor returns the group key a raw base name maps to.
func (idx *GroupIndex) KeyFor(raw string) (string, bool) {
	key, ok := idx.keyByRaw[CanonicalRaw(raw)]
	return key, ok
}

// HasKey reports whether any record grouped under the key.
func (idx *GroupIndex) HasKey(key string) bool {
	_, ok := idx.rawsByKey[key]
	return ok
}

// rowsForKey returns record positions for all raw names under a key, in
// dataset order.
func (idx *GroupIndex) rowsForKey(key string) []int {
	var rows []int
	for _, raw := range idx.rawsByKey[key] {
		rows = append(rows, idx.rowsByRaw[raw]...)
	}
	// Raw names are visited in first-appearance order but their rows can
	// interleave in the dataset; restore dataset order.
	slices.Sort(rows)
	return rows
}

// rowsForRaw returns record positions for one raw base name.
func (idx *GroupIndex) rowsForRaw(raw string) []int {
	rows := idx.rowsByRaw[CanonicalRaw(raw)]
	out := make([]int, len(rows))
	copy(out, rows)
	return out
}

// resolve maps a key-or-raw query argument to record positions: canonical
// keys win, then exact raw names, then nothing.
func (idx *GroupIndex) resolve(keyOrRaw string) []int {
	canon := CanonicalRaw(keyOrRaw)
	if idx.HasKey(canon) {
		return idx.rowsForKey(canon)
	}
	if _, ok := idx.rowsByRaw[canon]; ok {
		return idx.rowsForRaw(canon)
	}
	return nil
}
