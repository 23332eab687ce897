// Package basegroup implements base-name normalization, grouping, and the
// query operations served over a loaded dataset.
package basegroup

import (
	"strings"

	"github.com/basegroupapp/basegroup-server/internal/domain"
)

// UngroupedKey is the reserved key for records whose base name is missing
// or does not fit the expected pattern. Such records stay queryable, they
// just cluster under one bucket instead of a real group.
const UngroupedKey = "UNGROUPED"

// DefaultMarker is the delimiter pattern observed in real base names,
// e.g. "20221-US-LY" groups under "LY".
const DefaultMarker = "-US-"

// Normalizer derives canonical group keys from raw base-name strings.
// It is a pure function of its input: same raw string, same key.
type Normalizer struct {
	marker string
}

// NewNormalizer creates a normalizer for the given marker pattern.
// An empty marker falls back to DefaultMarker.
func NewNormalizer(marker string) *Normalizer {
	if marker == "" {
		marker = DefaultMarker
	}
	return &Normalizer{marker: strings.ToUpper(marker)}
}

// Normalize returns the canonical key for a raw base name and whether the
// raw string actually matched the marker pattern. It never fails: inputs
// without the marker fall back to the whole string uppercased, and blank
// or placeholder values ("nan", "none") land under UngroupedKey.
func (n *Normalizer) Normalize(raw string) (key string, grouped bool) {
	u := strings.ToUpper(strings.TrimSpace(raw))
	if u == "" || u == "NAN" || u == "NONE" {
		return UngroupedKey, false
	}

	if i := strings.LastIndex(u, n.marker); i >= 0 {
		suffix := strings.TrimSpace(u[i+len(n.marker):])
		if suffix == "" {
			return UngroupedKey, false
		}
		return suffix, true
	}

	// No marker: the raw string is its own key, flagged ungrouped so
	// callers can tell precision degraded.
	return u, false
}

// CanonicalRaw returns the comparison form of a raw base name.
func CanonicalRaw(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ClassifyStatus maps a checker column value onto the approval vocabulary.
// Unknown values bucket to StatusOther; this never fails.
func ClassifyStatus(value string) domain.Status {
	l := strings.ToLower(strings.TrimSpace(value))
	switch {
	case l == "":
		return domain.StatusOther
	case strings.Contains(l, "not approved"):
		return domain.StatusDenied
	case strings.Contains(l, "approved"):
		return domain.StatusApproved
	default:
		return domain.StatusOther
	}
}
