package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-dedup/internal/fingerprint"
	"github.com/sells-group/lead-dedup/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS leads`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	contacted := t0.Add(time.Hour)

	rows := pgxmock.NewRows(leadColumns).
		AddRow("a", "Jane", "Doe", "jane@acme.com", "", "Acme", "", "", "", "", "", "", "New",
			40, 0, (*time.Time)(nil), t0).
		AddRow("b", "Bob", "", "", "4155550100", "", "", "", "", "", "", "", "Contacted",
			20, 3, &contacted, t0.Add(time.Minute))
	mock.ExpectQuery(`SELECT id, first_name, .* FROM leads ORDER BY created_at, id`).
		WillReturnRows(rows)

	leads, err := s.ListLeads(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "Jane Doe", leads[0].FullName())
	assert.Equal(t, model.StatusNew, leads[0].Status)
	assert.Nil(t, leads[0].LastContactDate)
	assert.Equal(t, model.StatusContacted, leads[1].Status)
	assert.Equal(t, 3, leads[1].EmailsSent)
	require.NotNil(t, leads[1].LastContactDate)
	assert.True(t, contacted.Equal(*leads[1].LastContactDate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListLeads_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`SELECT id`).WillReturnError(errors.New("connection refused"))

	_, err := s.ListLeads(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: list leads")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveLead(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	l := testLead("a", t0)

	mock.ExpectExec(`INSERT INTO leads \(id, first_name, .*\) VALUES \(\$1, .*\$17\) ON CONFLICT \(id\) DO UPDATE SET first_name = EXCLUDED.first_name`).
		WithArgs(leadValues(l)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveLead(context.Background(), l))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveLeads_BulkUpsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_stage_leads"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_leads"}, leadColumns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "leads"`).WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	err := s.SaveLeads(context.Background(), []model.Lead{testLead("a", t0), testLead("b", t0)})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveLeads_RepeatedIDs(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	first := testLead("a", t0)
	again := testLead("a", t0)
	again.Phone = "4155550100"

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_stage_leads"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_leads"}, leadColumns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "leads"`).WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	err := s.SaveLeads(context.Background(), []model.Lead{first, testLead("b", t0), again})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLastByID(t *testing.T) {
	first := testLead("a", t0)
	again := testLead("a", t0)
	again.Phone = "4155550100"

	got := lastByID([]model.Lead{first, testLead("b", t0), again, testLead("c", t0)})
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "4155550100", got[0].Phone)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "c", got[2].ID)

	assert.Empty(t, lastByID(nil))
}

func TestPostgresStore_SaveLeads_EmptyID(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	require.Error(t, s.SaveLeads(context.Background(), []model.Lead{{}}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`DELETE FROM "leads" WHERE "id" = ANY\(\$1\)`).
		WithArgs([]string{"b", "c"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	require.NoError(t, s.DeleteLeads(context.Background(), []string{"b", "c"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FileHashes(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	ctx := context.Background()

	h, err := fingerprint.Hash([]fingerprint.Row{{"email": "a@x.com"}}, "leads.csv", "u1")
	require.NoError(t, err)
	meta, err := json.Marshal(h.Metadata)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO file_hashes .* ON CONFLICT \(user_scoped_hash\) DO NOTHING`).
		WithArgs(h.UserScopedHash, "u1", "leads.csv", h.ContentHash, h.StructureHash, h.CombinedHash, meta, h.CreatedAt.UTC()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, s.SaveFileHash(ctx, h))

	mock.ExpectQuery(`SELECT file_name, .* FROM file_hashes WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"file_name", "content_hash", "structure_hash", "combined_hash", "user_scoped_hash", "metadata", "created_at"}).
			AddRow("leads.csv", h.ContentHash, h.StructureHash, h.CombinedHash, h.UserScopedHash, meta, h.CreatedAt))

	got, err := s.ListFileHashes(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, h.UserScopedHash, got[0].UserScopedHash)
	assert.Equal(t, h.Metadata, got[0].Metadata)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Close(t *testing.T) {
	called := false
	s := &PostgresStore{closeFn: func() { called = true }}
	require.NoError(t, s.Close())
	assert.True(t, called)

	assert.NoError(t, (&PostgresStore{}).Close())
}

func TestPostgresUpsertLeadSQL(t *testing.T) {
	assert.Contains(t, postgresUpsertLead, "VALUES ($1, $2, $3")
	assert.Contains(t, postgresUpsertLead, "created_at = EXCLUDED.created_at")
	assert.NotContains(t, postgresUpsertLead, "id = EXCLUDED.id,")
}
