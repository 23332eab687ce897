package loader

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/basegroupapp/basegroup-server/internal/domain"
	domainerrors "github.com/basegroupapp/basegroup-server/internal/errors"
	"github.com/basegroupapp/basegroup-server/internal/id"
)

// Loadable extensions, lowercase.
var loadableExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
}

// IsLoadable reports whether a file name has a supported extension.
func IsLoadable(name string) bool {
	return loadableExtensions[strings.ToLower(filepath.Ext(name))]
}

// Load parses file content into a dataset, dispatching on the file
// extension. The sheets argument only applies to Excel files; for CSV it
// is ignored. Column detection runs here so the engine sees a dataset
// with its base/status columns already resolved (or absent).
func Load(name string, data []byte, sheets []string) (*domain.Dataset, error) {
	ext := strings.ToLower(filepath.Ext(name))

	var (
		columns []string
		records []domain.Record
		err     error
	)

	switch ext {
	case ".csv":
		columns, records, err = LoadCSVBytes(data)
	case ".xlsx", ".xls":
		columns, records, err = LoadExcel(data, sheets)
	default:
		return nil, domainerrors.UnsupportedFormat("unsupported file format: " + ext)
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, "parse "+name)
	}

	dsID, err := id.Generate("ds")
	if err != nil {
		return nil, domainerrors.Wrap(err, "generate dataset id")
	}

	ds := &domain.Dataset{
		ID:           dsID,
		Name:         filepath.Base(name),
		Sheets:       sheets,
		Columns:      columns,
		BaseColumn:   DetectBaseColumn(columns),
		StatusColumn: DetectStatusColumn(columns),
		Records:      records,
		LoadedAt:     time.Now(),
	}
	return ds, nil
}
