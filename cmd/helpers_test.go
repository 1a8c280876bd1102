//go:build !integration

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-dedup/internal/config"
	"github.com/sells-group/lead-dedup/internal/dedup"
)

const leadsCSV = `First Name,Last Name,Email,Phone,Company
Jane,Doe,jane@acme.com,(415) 555-0100,Acme
Jane,Doe,JANE@ACME.COM,,Acme
Bob,Smith,bob@other.com,212 555 0199,Other
Carl,Jones,carl@zeta.io,,Zeta
`

// setupTestConfig points cfg at a fresh SQLite database and returns its directory.
func setupTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	opts := dedup.DefaultMatchOptions()

	cfg = &config.Config{
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(dir, "test.db"),
		},
		Log: config.LogConfig{Level: "info", Format: "json"},
		Match: config.MatchConfig{
			EmailThreshold:     opts.EmailThreshold,
			NameThreshold:      opts.NameThreshold,
			PhoneThreshold:     opts.PhoneThreshold,
			CompanyThreshold:   opts.CompanyThreshold,
			IncludeNameCompany: true,
		},
		Phone:       config.PhoneConfig{DefaultCountryCode: "1"},
		Merge:       config.MergeConfig{Burst: 1},
		Fingerprint: config.FingerprintConfig{Concurrency: 2, DuplicateThreshold: 0.9},
	}
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// withValue sets *p to v for the duration of the test.
func withValue[T any](t *testing.T, p *T, v T) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

// runCommand invokes c.RunE directly and returns what it wrote.
func runCommand(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	c.SetOut(&buf)
	c.SetContext(context.Background())
	t.Cleanup(func() {
		c.SetOut(nil)
		c.SetContext(context.TODO())
	})
	err := c.RunE(c, args)
	return buf.String(), err
}
