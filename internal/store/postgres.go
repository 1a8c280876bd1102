package store

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-dedup/internal/db"
	"github.com/sells-group/lead-dedup/internal/fingerprint"
	"github.com/sells-group/lead-dedup/internal/model"
)

// leadBatchSize caps rows per COPY when saving leads in bulk.
const leadBatchSize = 1000

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
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
	last_contact_date  TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS file_hashes (
	user_scoped_hash TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL DEFAULT '',
	file_name        TEXT NOT NULL,
	content_hash     TEXT NOT NULL,
	structure_hash   TEXT NOT NULL,
	combined_hash    TEXT NOT NULL,
	metadata         JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_lower_email ON leads(lower(email));
CREATE INDEX IF NOT EXISTS idx_leads_phone ON leads(phone);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
CREATE INDEX IF NOT EXISTS idx_file_hashes_user_id ON file_hashes(user_id, created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

var postgresUpsertLead = func() string {
	params := make([]string, len(leadColumns))
	for i := range leadColumns {
		params[i] = "$" + strconv.Itoa(i+1)
	}
	set := make([]string, 0, len(leadColumns)-1)
	for _, c := range leadColumns[1:] {
		set = append(set, c+" = EXCLUDED."+c)
	}
	return `INSERT INTO leads (` + strings.Join(leadColumns, ", ") + `) VALUES (` +
		strings.Join(params, ", ") + `) ON CONFLICT (id) DO UPDATE SET ` + strings.Join(set, ", ")
}()

const postgresSelectLeads = `SELECT id, first_name, last_name, email, phone, company, title,
	linkedin_url, industry, location, website, source, status,
	completeness_score, emails_sent, last_contact_date, created_at
	FROM leads ORDER BY created_at, id`

func (s *PostgresStore) ListLeads(ctx context.Context) ([]model.Lead, error) {
	rows, err := s.pool.Query(ctx, postgresSelectLeads)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanPostgresLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) SaveLead(ctx context.Context, l model.Lead) error {
	if l.ID == "" {
		return eris.New("postgres: save lead: empty id")
	}
	_, err := s.pool.Exec(ctx, postgresUpsertLead, leadValues(l)...)
	return eris.Wrapf(err, "postgres: save lead %s", l.ID)
}

// SaveLeads stages leads with COPY and merges them in one statement. ON
// CONFLICT cannot touch a row twice, so repeated IDs are collapsed first.
func (s *PostgresStore) SaveLeads(ctx context.Context, leads []model.Lead) error {
	for _, l := range leads {
		if l.ID == "" {
			return eris.New("postgres: save leads: empty id")
		}
	}
	unique := lastByID(leads)
	rows := make([][]any, 0, len(unique))
	for _, l := range unique {
		rows = append(rows, leadValues(l))
	}
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "leads",
		Columns:      leadColumns,
		ConflictKeys: []string{"id"},
		BatchSize:    leadBatchSize,
	}, rows)
	return eris.Wrap(err, "postgres: save leads")
}

func (s *PostgresStore) DeleteLeads(ctx context.Context, ids []string) error {
	_, err := db.DeleteByKeys(ctx, s.pool, "leads", "id", ids)
	return eris.Wrap(err, "postgres: delete leads")
}

func (s *PostgresStore) ListFileHashes(ctx context.Context, userID string) ([]fingerprint.FileHashResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT file_name, content_hash, structure_hash, combined_hash, user_scoped_hash, metadata, created_at
		 FROM file_hashes WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list file hashes")
	}
	defer rows.Close()

	var hashes []fingerprint.FileHashResult
	for rows.Next() {
		var h fingerprint.FileHashResult
		var metaJSON []byte
		if err := rows.Scan(&h.FileName, &h.ContentHash, &h.StructureHash, &h.CombinedHash,
			&h.UserScopedHash, &metaJSON, &h.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan file hash")
		}
		if err := json.Unmarshal(metaJSON, &h.Metadata); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal file hash metadata")
		}
		hashes = append(hashes, h)
	}
	return hashes, eris.Wrap(rows.Err(), "postgres: list file hashes iterate")
}

func (s *PostgresStore) SaveFileHash(ctx context.Context, h fingerprint.FileHashResult) error {
	metaJSON, err := json.Marshal(h.Metadata)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal file hash metadata")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO file_hashes (user_scoped_hash, user_id, file_name, content_hash, structure_hash, combined_hash, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_scoped_hash) DO NOTHING`,
		h.UserScopedHash, h.Metadata.UserID, h.FileName, h.ContentHash, h.StructureHash,
		h.CombinedHash, metaJSON, h.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: save file hash %s", h.FileName)
}

func scanPostgresLead(row scannable) (model.Lead, error) {
	var l model.Lead
	var status string
	err := row.Scan(&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.Company, &l.Title,
		&l.LinkedInURL, &l.Industry, &l.Location, &l.Website, &l.Source, &status,
		&l.CompletenessScore, &l.EmailsSent, &l.LastContactDate, &l.CreatedAt)
	if err != nil {
		return model.Lead{}, eris.Wrap(err, "postgres: scan lead")
	}
	l.Status = model.LeadStatus(status)
	return l, nil
}
