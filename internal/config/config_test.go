package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoFST/internal/testutil"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "byte1", cfg.InputType)
	assert.True(t, cfg.Builder.ShareSuffix)
	assert.False(t, cfg.Builder.Pruning())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
log_level: debug
db: /tmp/x.db
lock_timeout: 250ms
outputs: bytes
builder:
  min_suffix_count1: 2
  share_suffix: false
fuzzy:
  max_edits: 2
limit: 10
`))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/x.db", cfg.DB)
	assert.Equal(t, 250*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, "bytes", cfg.Outputs)
	assert.Equal(t, 2, cfg.Builder.MinSuffixCount1)
	assert.False(t, cfg.Builder.ShareSuffix)
	// Unset fields keep their defaults.
	assert.True(t, cfg.Builder.AllowArrayArcs)
	assert.True(t, cfg.Fuzzy.Transpositions)
	assert.Equal(t, 2, cfg.Fuzzy.MaxEdits)
	assert.Equal(t, 10, cfg.Limit)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default().DB, cfg.DB)
}

func TestParseRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown field": "colour: blue\n",
		"bad level":     "log_level: loud\n",
		"bad input":     "input_type: byte3\n",
		"bad outputs":   "outputs: floats\n",
		"negative":      "builder:\n  min_suffix_count2: -1\n",
		"edits":         "fuzzy:\n  max_edits: 3\n",
		"states":        "max_determinized_states: 0\n",
		"empty db":      "db: \"\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}

	_, err := Parse(strings.NewReader("outputs: floats\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	env := map[string]string{EnvLogLevel: "warn", EnvDB: "/var/lib/gofst.db"}
	cfg.ApplyEnv(func(k string) string { return env[k] })
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "/var/lib/gofst.db", cfg.DB)

	cfg = Default()
	cfg.ApplyEnv(func(string) string { return "" })
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	testutil.WithTempDir(t, func(dir string) {
		path := filepath.Join(dir, "gofst.yaml")
		require.NoError(t, os.WriteFile(path, []byte("limit: 5\n"), 0o644))
		t.Setenv(EnvDB, filepath.Join(dir, "env.db"))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Limit)
		assert.Equal(t, filepath.Join(dir, "env.db"), cfg.DB)

		_, err = Load(filepath.Join(dir, "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Limit = 7
	cfg.Builder.MinSuffixCount2 = 1
	data, err := cfg.Marshal()
	require.NoError(t, err)

	got, err := Parse(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug, "INFO": slog.LevelInfo, "": slog.LevelInfo,
		"warn": slog.LevelWarn, "error": slog.LevelError,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLogLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
