package domain

import "time"

// Dataset is one loaded table: ordered columns, ordered rows, and the
// detected base-name / status columns. A session owns at most one dataset
// at a time; loading a new file replaces it wholesale.
type Dataset struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Name         string    `json:"name"`
	Source       string    `json:"source"` // "upload" or "data_dir"
	Sheets       []string  `json:"sheets,omitempty"`
	Columns      []string  `json:"columns"`
	BaseColumn   string    `json:"base_column"`
	StatusColumn string    `json:"status_column,omitempty"`
	Records      []Record  `json:"records"`
	LoadedAt     time.Time `json:"loaded_at"`
}

// IsEmpty reports whether the dataset holds no rows.
func (d *Dataset) IsEmpty() bool {
	return d == nil || len(d.Records) == 0
}

// DatasetSummary is the lightweight view returned by the API.
type DatasetSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Source       string    `json:"source"`
	Sheets       []string  `json:"sheets,omitempty"`
	Columns      []string  `json:"columns"`
	BaseColumn   string    `json:"base_column"`
	StatusColumn string    `json:"status_column,omitempty"`
	RowCount     int       `json:"row_count"`
	KeyCount     int       `json:"key_count"`
	LoadedAt     time.Time `json:"loaded_at"`
}
