package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-dedup/internal/dedup"
	"github.com/sells-group/lead-dedup/internal/importfile"
	"github.com/sells-group/lead-dedup/internal/model"
	"github.com/sells-group/lead-dedup/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "lead-dedup.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore initializes the store and applies migrations.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func newService() (*dedup.Service, error) {
	svc, err := dedup.NewService(cfg.MatchOptions())
	if err != nil {
		return nil, eris.Wrap(err, "match options")
	}
	return svc, nil
}

// loadLeads reads leads from path, or from the store when path is empty.
func loadLeads(ctx context.Context, path string) ([]model.Lead, error) {
	if path != "" {
		return readLeadFile(path)
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	leads, err := st.ListLeads(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "list leads")
	}
	return leads, nil
}

func readLeadFile(path string) ([]model.Lead, error) {
	t, err := importfile.Read(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return importfile.MapLeads(t.Rows(), time.Now().UTC()), nil
}
