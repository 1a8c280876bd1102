// Package fingerprint hashes parsed import files so that re-uploads of the
// same file can be detected before any row is imported. Comparisons are
// scoped per user: files owned by different users are never duplicates.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrEmptyInput is returned when a file has no data rows.
var ErrEmptyInput = eris.New("fingerprint: empty input")

const (
	anonymousUser    = "anonymous"
	sampleRowCount   = 3
	sampleValueCount = 5
)

// Row is one parsed record keyed by column name.
type Row map[string]string

// Metadata is the cheap-to-compare summary stored alongside the hashes.
type Metadata struct {
	RowCount    int      `json:"row_count" yaml:"row_count"`
	ColumnCount int      `json:"column_count" yaml:"column_count"`
	ColumnNames []string `json:"column_names" yaml:"column_names"`
	SampleRows  []string `json:"sample_rows" yaml:"sample_rows"`
	UserID      string   `json:"user_id,omitempty" yaml:"user_id,omitempty"`
}

// FileHashResult is the fingerprint of one uploaded file.
type FileHashResult struct {
	ContentHash    string    `json:"content_hash" yaml:"content_hash"`
	StructureHash  string    `json:"structure_hash" yaml:"structure_hash"`
	CombinedHash   string    `json:"combined_hash" yaml:"combined_hash"`
	UserScopedHash string    `json:"user_scoped_hash" yaml:"user_scoped_hash"`
	FileName       string    `json:"file_name" yaml:"file_name"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	Metadata       Metadata  `json:"metadata" yaml:"metadata"`
}

// Hash fingerprints rows. Cell values are trimmed and lower-cased so that
// cosmetic edits do not defeat detection; column order does not matter.
// An empty userID is scoped as "anonymous".
func Hash(rows []Row, fileName, userID string) (FileHashResult, error) {
	if len(rows) == 0 {
		return FileHashResult{}, eris.Wrapf(ErrEmptyInput, "fingerprint: %s has no rows", fileName)
	}

	normalized := normalizeRows(rows)
	content, err := json.Marshal(normalized)
	if err != nil {
		return FileHashResult{}, eris.Wrap(err, "fingerprint: encode rows")
	}

	columns := columnNames(normalized)
	contentHash := sum(string(content))
	structureHash := sum(strings.Join(columns, "|") + "|" + strconv.Itoa(len(rows)))

	scope := userID
	if scope == "" {
		scope = anonymousUser
	}

	return FileHashResult{
		ContentHash:    contentHash,
		StructureHash:  structureHash,
		CombinedHash:   sum(fileName + "|" + contentHash + "|" + structureHash),
		UserScopedHash: sum(scope + "|" + fileName + "|" + contentHash + "|" + structureHash),
		FileName:       fileName,
		CreatedAt:      time.Now().UTC(),
		Metadata: Metadata{
			RowCount:    len(rows),
			ColumnCount: len(columns),
			ColumnNames: columns,
			SampleRows:  sampleRows(normalized),
			UserID:      userID,
		},
	}, nil
}

func normalizeRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		n := make(Row, len(r))
		for k, v := range r {
			n[k] = strings.ToLower(strings.TrimSpace(v))
		}
		out[i] = n
	}
	return out
}

// columnNames is the sorted union of keys across rows.
func columnNames(rows []Row) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func sampleRows(rows []Row) []string {
	n := min(len(rows), sampleRowCount)
	samples := make([]string, 0, n)
	for _, r := range rows[:n] {
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		vals := make([]string, 0, sampleValueCount)
		for _, k := range keys {
			if len(vals) == sampleValueCount {
				break
			}
			vals = append(vals, r[k])
		}
		samples = append(samples, strings.Join(vals, "|"))
	}
	return samples
}

func sum(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
