package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/derivable/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultPort, cfg.Inspector.Port)
	assert.Equal(t, DefaultHost, cfg.Inspector.Host)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Tracing.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "R100"), "missing config should be R100, got %v", err)

	configJSON := `{
  "inspector": {"port": 8080, "host": "0.0.0.0"},
  "runtime": {"debug": true},
  "metrics": {"enabled": false},
  "tracing": {"enabled": true}
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644))

	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Inspector.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.InspectorAddress())
	assert.True(t, cfg.Runtime.Debug)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, DefaultNamespace, cfg.Metrics.Namespace)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, DefaultTracerName, cfg.Tracing.TracerName)
	assert.Equal(t, ExporterStdout, cfg.Tracing.Exporter)
	assert.Equal(t, tmpDir, cfg.Dir())
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configYAML := `inspector:
  port: 9000
  seed: atoms.yaml
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, YAMLConfigFileName), []byte(configYAML), 0644))

	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Inspector.Port)
	assert.Equal(t, DefaultHost, cfg.Inspector.Host)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, filepath.Join(tmpDir, "atoms.yaml"), cfg.SeedPath())
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"inspector": `), 0644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "R101"))
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := New()
			cfg.Inspector.Port = 7171
			cfg.Metrics.Enabled = false
			require.NoError(t, cfg.SaveTo(path))
			assert.Equal(t, path, cfg.Path())

			loaded, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, 7171, loaded.Inspector.Port)
			assert.False(t, loaded.Metrics.Enabled)
		})
	}
}

func TestSaveWithoutPath(t *testing.T) {
	assert.Error(t, New().Save())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"port too high", func(c *Config) { c.Inspector.Port = 70000 }, false},
		{"negative port", func(c *Config) { c.Inspector.Port = -1 }, false},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, false},
		{"upper level", func(c *Config) { c.Log.Level = "WARN" }, true},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, false},
		{"global exporter", func(c *Config) { c.Tracing.Exporter = ExporterGlobal }, true},
		{"bad exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, "R102"), "expected R102, got %v", err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), "expected JSON output, got %q", out)
	assert.Contains(t, out, `"k":1`)
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, New().SaveTo(filepath.Join(root, ConfigFileName)))

	found, err := FindRoot(nested)
	require.NoError(t, err)
	want, _ := filepath.EvalSymlinks(root)
	got, _ := filepath.EvalSymlinks(found)
	assert.Equal(t, want, got)
}

func TestLoadSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atoms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("price: 12.5\nqty: 3\nname: apple\n"), 0644))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	assert.Equal(t, 12.5, seed["price"])
	assert.Equal(t, 3, seed["qty"])
	assert.Equal(t, "apple", seed["name"])

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- just\n- a list\n"), 0644))
	_, err = LoadSeed(bad)
	assert.True(t, errors.Is(err, "R104"))
}
