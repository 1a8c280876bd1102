package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-dedup/internal/fingerprint"
	"github.com/sells-group/lead-dedup/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                 TEXT PRIMARY KEY,
	first_name         TEXT NOT NULL DEFAULT '',
	last_name          TEXT NOT NULL DEFAULT '',
	email              TEXT NOT NULL DEFAULT '',
	phone              TEXT NOT NULL DEFAULT '',
	company            TEXT NOT NULL DEFAULT '',
	title              TEXT NOT NULL DEFAULT '',
	linkedin_url       TEXT NOT NULL DEFAULT '',
	industry           TEXT NOT NULL DEFAULT '',
	location           TEXT NOT NULL DEFAULT '',
	website            TEXT NOT NULL DEFAULT '',
	source             TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'New',
	completeness_score INTEGER NOT NULL DEFAULT 0,
	emails_sent        INTEGER NOT NULL DEFAULT 0,
	last_contact_date  DATETIME,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS file_hashes (
	user_scoped_hash TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL DEFAULT '',
	file_name        TEXT NOT NULL,
	content_hash     TEXT NOT NULL,
	structure_hash   TEXT NOT NULL,
	combined_hash    TEXT NOT NULL,
	metadata         TEXT NOT NULL,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
CREATE INDEX IF NOT EXISTS idx_leads_phone ON leads(phone);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
CREATE INDEX IF NOT EXISTS idx_file_hashes_user_id ON file_hashes(user_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var sqliteUpsertLead = func() string {
	set := make([]string, 0, len(leadColumns)-1)
	for _, c := range leadColumns[1:] {
		set = append(set, c+" = excluded."+c)
	}
	return `INSERT INTO leads (` + strings.Join(leadColumns, ", ") + `) VALUES (` +
		placeholders(len(leadColumns)) + `) ON CONFLICT(id) DO UPDATE SET ` + strings.Join(set, ", ")
}()

const sqliteSelectLeads = `SELECT id, first_name, last_name, email, phone, company, title,
	linkedin_url, industry, location, website, source, status,
	completeness_score, emails_sent, last_contact_date, created_at
	FROM leads ORDER BY created_at, id`

func (s *SQLiteStore) ListLeads(ctx context.Context) ([]model.Lead, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectLeads)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.Lead
	for rows.Next() {
		l, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) SaveLead(ctx context.Context, l model.Lead) error {
	if l.ID == "" {
		return eris.New("sqlite: save lead: empty id")
	}
	_, err := s.db.ExecContext(ctx, sqliteUpsertLead, leadValues(l)...)
	return eris.Wrapf(err, "sqlite: save lead %s", l.ID)
}

func (s *SQLiteStore) SaveLeads(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: save leads: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteUpsertLead)
	if err != nil {
		return eris.Wrap(err, "sqlite: save leads: prepare")
	}
	defer stmt.Close() //nolint:errcheck

	for _, l := range leads {
		if l.ID == "" {
			return eris.New("sqlite: save leads: empty id")
		}
		if _, err := stmt.ExecContext(ctx, leadValues(l)...); err != nil {
			return eris.Wrapf(err, "sqlite: save lead %s", l.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: save leads: commit")
}

func (s *SQLiteStore) DeleteLeads(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM leads WHERE id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	return eris.Wrap(err, "sqlite: delete leads")
}

func (s *SQLiteStore) ListFileHashes(ctx context.Context, userID string) ([]fingerprint.FileHashResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_name, content_hash, structure_hash, combined_hash, user_scoped_hash, metadata, created_at
		 FROM file_hashes WHERE user_id = ? ORDER BY created_at, rowid`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list file hashes")
	}
	defer rows.Close() //nolint:errcheck

	var hashes []fingerprint.FileHashResult
	for rows.Next() {
		var h fingerprint.FileHashResult
		var metaJSON string
		if err := rows.Scan(&h.FileName, &h.ContentHash, &h.StructureHash, &h.CombinedHash,
			&h.UserScopedHash, &metaJSON, &h.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan file hash")
		}
		if err := json.Unmarshal([]byte(metaJSON), &h.Metadata); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal file hash metadata")
		}
		hashes = append(hashes, h)
	}
	return hashes, eris.Wrap(rows.Err(), "sqlite: list file hashes iterate")
}

func (s *SQLiteStore) SaveFileHash(ctx context.Context, h fingerprint.FileHashResult) error {
	metaJSON, err := json.Marshal(h.Metadata)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal file hash metadata")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO file_hashes (user_scoped_hash, user_id, file_name, content_hash, structure_hash, combined_hash, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_scoped_hash) DO NOTHING`,
		h.UserScopedHash, h.Metadata.UserID, h.FileName, h.ContentHash, h.StructureHash,
		h.CombinedHash, string(metaJSON), h.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: save file hash %s", h.FileName)
}

func scanSQLiteLead(row scannable) (model.Lead, error) {
	var l model.Lead
	var status string
	var lastContact sql.NullTime
	err := row.Scan(&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.Company, &l.Title,
		&l.LinkedInURL, &l.Industry, &l.Location, &l.Website, &l.Source, &status,
		&l.CompletenessScore, &l.EmailsSent, &lastContact, &l.CreatedAt)
	if err != nil {
		return model.Lead{}, eris.Wrap(err, "sqlite: scan lead")
	}
	l.Status = model.LeadStatus(status)
	if lastContact.Valid {
		t := lastContact.Time.UTC()
		l.LastContactDate = &t
	}
	l.CreatedAt = l.CreatedAt.UTC()
	return l, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
