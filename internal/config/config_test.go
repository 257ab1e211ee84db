package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ISLAS CANARIAS", cfg.Target.Region)
	assert.Equal(t, 6, cfg.Detail.Concurrency)
	assert.Equal(t, 120, cfg.Detail.BatchSize)
	assert.Equal(t, 35*time.Second, cfg.Detail.Timeout.D())
	assert.Equal(t, 500, cfg.Listing.RequestedLength)
	assert.Equal(t, 10, cfg.Listing.FingerprintRows)
	assert.Equal(t, 0, cfg.Detail.Retries)
	assert.Equal(t, "emails_centros.csv", cfg.Output.CSV)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
target:
  region: GALICIA
detail:
  concurrency: 2
  timeout: 90s
listing:
  pageDelay: 250ms
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "GALICIA", cfg.Target.Region)
	assert.Equal(t, 2, cfg.Detail.Concurrency)
	assert.Equal(t, 90*time.Second, cfg.Detail.Timeout.D())
	assert.Equal(t, 250*time.Millisecond, cfg.Listing.PageDelay.D())
	assert.Equal(t, "debug", cfg.Log.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, 120, cfg.Detail.BatchSize)
	assert.Equal(t, "https://registrosfp.educacion.gob.es", cfg.Target.BaseURL)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "detail:\n  timeout: pronto\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid duration")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty region", "target:\n  region: \"\"\n"},
		{"non-url devtools address", "browser:\n  devToolsURL: not-a-url\n"},
		{"zero concurrency", "detail:\n  concurrency: 0\n"},
		{"excessive retries", "detail:\n  retries: 9\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			assert.ErrorContains(t, err, "validate config")
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestPath(t *testing.T) {
	assert.Equal(t, "/etc/x.yaml", Path("/etc/x.yaml"))

	t.Setenv("REGHARVEST_CONFIG", "/env/x.yaml")
	assert.Equal(t, "/env/x.yaml", Path(""))

	t.Setenv("REGHARVEST_CONFIG", "")
	assert.Equal(t, "", Path(""))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
