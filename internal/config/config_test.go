package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/lead-dedup/internal/dedup"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "lead-dedup.db", cfg.Store.DatabaseURL)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.InDelta(t, 0.85, cfg.Match.EmailThreshold, 0.001)
	assert.InDelta(t, 0.8, cfg.Match.NameThreshold, 0.001)
	assert.InDelta(t, 0.9, cfg.Match.PhoneThreshold, 0.001)
	assert.InDelta(t, 0.9, cfg.Match.CompanyThreshold, 0.001)
	assert.True(t, cfg.Match.IncludeNameCompany)
	assert.Equal(t, "1", cfg.Phone.DefaultCountryCode)
	assert.Zero(t, cfg.Merge.WritesPerSecond)
	assert.Equal(t, 1, cfg.Merge.Burst)
	assert.Equal(t, 3, cfg.Merge.MaxAttempts)
	assert.Equal(t, 50, cfg.Merge.InitialBackoffMs)
	assert.Equal(t, 4, cfg.Fingerprint.Concurrency)
	assert.InDelta(t, 0.9, cfg.Fingerprint.DuplicateThreshold, 0.001)

	assert.Equal(t, dedup.DefaultMatchOptions(), cfg.MatchOptions())
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/leads
log:
  level: debug
  format: console
match:
  email_threshold: 0.9
  include_name_company: false
phone:
  default_country_code: "44"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/leads", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.InDelta(t, 0.9, cfg.Match.EmailThreshold, 0.001)
	assert.False(t, cfg.Match.IncludeNameCompany)
	assert.Equal(t, "44", cfg.MatchOptions().DefaultCountryCode)
	// Defaults still apply for unset values
	assert.InDelta(t, 0.8, cfg.Match.NameThreshold, 0.001)
	assert.Equal(t, 4, cfg.Fingerprint.Concurrency)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADDEDUP_STORE_DRIVER", "postgres")
	t.Setenv("LEADDEDUP_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("LEADDEDUP_FINGERPRINT_CONCURRENCY", "16")
	t.Setenv("LEADDEDUP_PHONE_DEFAULT_COUNTRY_CODE", "61")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Fingerprint.Concurrency)
	assert.Equal(t, "61", cfg.Phone.DefaultCountryCode)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	opts := dedup.DefaultMatchOptions()
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "lead-dedup.db"
	cfg.Match = MatchConfig{
		EmailThreshold:     opts.EmailThreshold,
		NameThreshold:      opts.NameThreshold,
		PhoneThreshold:     opts.PhoneThreshold,
		CompanyThreshold:   opts.CompanyThreshold,
		IncludeNameCompany: true,
	}
	cfg.Phone.DefaultCountryCode = "1"
	cfg.Merge.Burst = 1
	cfg.Fingerprint.Concurrency = 4
	cfg.Fingerprint.DuplicateThreshold = 0.9
	return cfg
}

func TestValidate_AllModes(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"scan", "check", "phones", "import", "merge", "migrate", "fingerprint"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidate_PostgresRequiresURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("import")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	assert.NoError(t, cfg.Validate("scan"))
}

func TestValidate_Thresholds(t *testing.T) {
	cfg := validDefaults()
	cfg.Match.EmailThreshold = 0
	err := cfg.Validate("scan")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "email_threshold")

	cfg = validDefaults()
	cfg.Fingerprint.DuplicateThreshold = 1.5
	err = cfg.Validate("scan")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate_threshold")
}

func TestValidate_ConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Fingerprint.Concurrency = 0
	err := cfg.Validate("fingerprint")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency must be between 1 and 64")

	cfg.Fingerprint.Concurrency = 64
	assert.NoError(t, cfg.Validate("fingerprint"))
}

func TestValidate_MergeRate(t *testing.T) {
	cfg := validDefaults()
	cfg.Merge.WritesPerSecond = -1
	err := cfg.Validate("merge")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "writes_per_second")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
