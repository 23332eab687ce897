// Package loader parses CSV and Excel files into datasets the grouping
// engine can index. It detects the base-name and status columns by the
// header synonyms the source spreadsheets actually use.
package loader

import "strings"

// Header synonyms, matched on the trimmed lowercase header.
var (
	baseColumnNames   = []string{"base", "bases", "base name", "basename"}
	statusColumnNames = []string{"checker", "check", "status"}
)

// normalizeHeader returns the comparison form of a column header.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// detectColumn returns the first column whose normalized header is one of
// the candidates, preserving the original header spelling.
func detectColumn(columns []string, candidates []string) string {
	for _, cand := range candidates {
		for _, col := range columns {
			if normalizeHeader(col) == cand {
				return col
			}
		}
	}
	return ""
}

// DetectBaseColumn finds the base-name column, empty string if absent.
func DetectBaseColumn(columns []string) string {
	return detectColumn(columns, baseColumnNames)
}

// DetectStatusColumn finds the approval-status column, empty string if absent.
func DetectStatusColumn(columns []string) string {
	return detectColumn(columns, statusColumnNames)
}
