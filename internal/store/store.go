// Package store persists leads and import history.
package store

import (
	"context"
	"time"

	"github.com/sells-group/lead-dedup/internal/fingerprint"
	"github.com/sells-group/lead-dedup/internal/model"
)

// LeadRepository lists, saves and deletes leads.
type LeadRepository interface {
	// ListLeads returns every lead, oldest first.
	ListLeads(ctx context.Context) ([]model.Lead, error)
	// SaveLead inserts or replaces one lead by ID.
	SaveLead(ctx context.Context, l model.Lead) error
	// SaveLeads inserts or replaces leads by ID in one transaction. When an
	// ID repeats, the last lead with that ID is stored.
	SaveLeads(ctx context.Context, leads []model.Lead) error
	// DeleteLeads removes leads by ID. Unknown IDs are ignored.
	DeleteLeads(ctx context.Context, ids []string) error
}

// ImportHistoryRepository records fingerprints of imported files.
type ImportHistoryRepository interface {
	// ListFileHashes returns the fingerprints recorded for userID, oldest first.
	ListFileHashes(ctx context.Context, userID string) ([]fingerprint.FileHashResult, error)
	// SaveFileHash records a fingerprint. Re-recording the same user-scoped
	// hash is a no-op.
	SaveFileHash(ctx context.Context, h fingerprint.FileHashResult) error
}

// Store is the full persistence interface used by the CLI.
type Store interface {
	LeadRepository
	ImportHistoryRepository

	Migrate(ctx context.Context) error
	Close() error
}

// leadColumns is the column order shared by both backends.
var leadColumns = []string{
	"id", "first_name", "last_name", "email", "phone", "company", "title",
	"linkedin_url", "industry", "location", "website", "source", "status",
	"completeness_score", "emails_sent", "last_contact_date", "created_at",
}

func leadValues(l model.Lead) []any {
	return []any{
		l.ID, l.FirstName, l.LastName, l.Email, l.Phone, l.Company, l.Title,
		l.LinkedInURL, l.Industry, l.Location, l.Website, l.Source, string(l.Status),
		l.CompletenessScore, l.EmailsSent, nullableTime(l.LastContactDate), l.CreatedAt.UTC(),
	}
}

// lastByID collapses leads sharing an ID into the last of them, kept at the
// position where the ID first appeared.
func lastByID(leads []model.Lead) []model.Lead {
	pos := make(map[string]int, len(leads))
	out := make([]model.Lead, 0, len(leads))
	for _, l := range leads {
		if i, ok := pos[l.ID]; ok {
			out[i] = l
			continue
		}
		pos[l.ID] = len(out)
		out = append(out, l)
	}
	return out
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

type scannable interface {
	Scan(dest ...any) error
}
