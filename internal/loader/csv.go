package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/basegroupapp/basegroup-server/internal/domain"
)

// LoadCSV parses CSV content into dataset columns and records. The first
// non-empty row is the header. A UTF-8 BOM on the first header cell is
// stripped; exported spreadsheets carry one more often than not.
func LoadCSV(r io.Reader) ([]string, []domain.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are padded below
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	var records []domain.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv row %d: %w", len(records)+2, err)
		}

		if isBlankRow(row) {
			continue
		}

		fields := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				fields[col] = strings.TrimSpace(row[i])
			} else {
				fields[col] = ""
			}
		}
		records = append(records, domain.Record{Fields: fields})
	}

	return columns, records, nil
}

// LoadCSVBytes is LoadCSV over an in-memory buffer.
func LoadCSVBytes(data []byte) ([]string, []domain.Record, error) {
	return LoadCSV(bytes.NewReader(data))
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
