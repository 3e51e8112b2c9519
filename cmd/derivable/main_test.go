package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/derivable/internal/config"
	"github.com/vango-dev/derivable/internal/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	require.NoError(t, config.New().SaveTo(path))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Go version:")
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "config", "init", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, config.ConfigFileName)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPort, cfg.Inspector.Port)

	_, err = execute(t, "config", "init", "--dir", dir)
	assert.True(t, errors.Is(err, "R103"), "expected R103, got %v", err)

	_, err = execute(t, "config", "init", "--dir", dir, "--force")
	require.NoError(t, err)

	_, err = execute(t, "config", "init", "--dir", dir, "--yaml")
	require.NoError(t, err)
	cfg, err = config.LoadFile(filepath.Join(dir, config.YAMLConfigFileName))
	require.NoError(t, err)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestDemo(t *testing.T) {
	path := writeConfig(t)

	out, err := execute(t, "--config", path, "demo", "--metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "label: $10.00 (coupon: none)")
	assert.Contains(t, out, "label: $20.00 (coupon: SAVE5)")
	assert.Contains(t, out, "> metrics")
	assert.Contains(t, out, "derivable_transactions_total")
}

func TestInvalidLogLevel(t *testing.T) {
	path := writeConfig(t)
	_, err := execute(t, "--config", path, "--log-level", "loud", "demo")
	assert.True(t, errors.Is(err, "R200"), "expected R200, got %v", err)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.json"), "demo")
	assert.True(t, errors.Is(err, "R100"), "expected R100, got %v", err)
}

func TestServeApp(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "atoms.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte("greeting: hi\nlimit: 3\n"), 0644))

	cfg := config.New()
	cfg.Inspector.Seed = seedPath
	a, err := newApp(cfg, slog.New(slog.DiscardHandler), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 10, a.reg.Len())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, ln) }()

	get := func(path string) map[string]any {
		resp, err := http.Get(base + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	assert.Equal(t, "$10.00 (coupon: none)", get("/nodes/label")["value"])
	assert.Equal(t, "hi", get("/nodes/greeting")["value"])

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(data), "go_goroutines")
	assert.Contains(t, string(data), "derivable_active_reactors")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.Equal(t, 0, a.rt.ActiveReactors())
}

func TestServeAppSeedConflict(t *testing.T) {
	seedPath := filepath.Join(t.TempDir(), "atoms.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte("price: 1\n"), 0644))

	cfg := config.New()
	cfg.Inspector.Seed = seedPath
	_, err := newApp(cfg, slog.New(slog.DiscardHandler), io.Discard)
	assert.True(t, errors.Is(err, "R214"), "expected R214, got %v", err)
}

func TestServeAppExportsSpans(t *testing.T) {
	cfg := config.New()
	cfg.Metrics.Enabled = false
	cfg.Tracing.Enabled = true

	var spans bytes.Buffer
	a, err := newApp(cfg, slog.New(slog.DiscardHandler), &spans)
	require.NoError(t, err)
	require.NotNil(t, a.spans)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, ln) }()

	body := bytes.NewBufferString(`{"name":"restock","writes":[{"name":"qty","value":9}]}`)
	resp, err := http.Post(base+"/txn", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, spans.String(), "derivable.txn restock")
}
