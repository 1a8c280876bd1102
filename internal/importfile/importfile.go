// Package importfile reads uploaded lead files (CSV, XLSX) into tables and
// maps their rows onto leads.
package importfile

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-dedup/internal/fingerprint"
)

// ErrUnsupportedFormat is returned for file extensions with no reader.
var ErrUnsupportedFormat = eris.New("importfile: unsupported format")

// Table is a parsed file: a header row plus data records.
type Table struct {
	Columns []string
	Records [][]string
}

// Read parses the file at path, choosing the reader by extension.
func Read(path string) (Table, error) {
	var (
		t   Table
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, oerr := os.Open(path) //nolint:gosec // path is operator-supplied
		if oerr != nil {
			return Table{}, eris.Wrapf(oerr, "importfile: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		t, err = ReadCSV(f)
	case ".xlsx":
		t, err = ReadXLSX(path, "")
	default:
		return Table{}, eris.Wrapf(ErrUnsupportedFormat, "importfile: %q", ext)
	}
	if err != nil {
		return Table{}, err
	}

	zap.L().Debug("importfile: read",
		zap.String("path", path),
		zap.Int("columns", len(t.Columns)),
		zap.Int("records", len(t.Records)),
	)
	return t, nil
}

// newTable splits raw rows into header and records. Blank header cells are
// named column_N; fully blank records are dropped.
func newTable(raw [][]string) Table {
	if len(raw) == 0 {
		return Table{}
	}

	header := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = "column_" + strconv.Itoa(i+1)
		}
		header[i] = h
	}

	var records [][]string
	for _, r := range raw[1:] {
		if blank(r) {
			continue
		}
		records = append(records, r)
	}
	return Table{Columns: header, Records: records}
}

func blank(r []string) bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Rows keys each record by column name. Short records are padded with
// empty values; cells beyond the header are dropped.
func (t Table) Rows() []fingerprint.Row {
	rows := make([]fingerprint.Row, 0, len(t.Records))
	for _, rec := range t.Records {
		row := make(fingerprint.Row, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}
