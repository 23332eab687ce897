package domain

// Status is the classified approval status of a record.
type Status string

// Approval statuses derived from the checker column.
const (
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusOther    Status = "other"
)

// Record is one row of a loaded dataset. Fields preserves every column
// value as text; Index is the row's stable position in dataset order and
// doubles as record identity within a dataset.
type Record struct {
	Index     int               `json:"index"`
	RawBase   string            `json:"raw_base"`
	Key       string            `json:"key"`
	Ungrouped bool              `json:"ungrouped,omitempty"`
	Status    Status            `json:"status"`
	Fields    map[string]string `json:"fields"`
}

// Field returns the value of a column, empty string if absent.
func (r *Record) Field(column string) string {
	return r.Fields[column]
}
