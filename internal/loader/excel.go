package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/basegroupapp/basegroup-server/internal/domain"
)

// ListSheets returns the sheet names of an Excel workbook in order.
func ListSheets(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	return f.GetSheetList(), nil
}

// LoadExcel parses the named sheets of a workbook into one merged table.
// An empty sheets argument loads every sheet. Sheets are merged with a
// union of columns: column order follows first appearance across sheets,
// and rows keep workbook order (sheet by sheet, top to bottom).
func LoadExcel(data []byte, sheets []string) ([]string, []domain.Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if len(sheets) == 0 {
		sheets = f.GetSheetList()
	}

	var columns []string
	seen := make(map[string]bool)
	var records []domain.Record

	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		header := make([]string, len(rows[0]))
		for i, h := range rows[0] {
			header[i] = strings.TrimSpace(h)
		}

		for _, col := range header {
			if col != "" && !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}

		for _, row := range rows[1:] {
			if isBlankRow(row) {
				continue
			}
			fields := make(map[string]string, len(header))
			for i, col := range header {
				if col == "" {
					continue
				}
				if i < len(row) {
					fields[col] = strings.TrimSpace(row[i])
				} else {
					fields[col] = ""
				}
			}
			records = append(records, domain.Record{Fields: fields})
		}
	}

	return columns, records, nil
}
