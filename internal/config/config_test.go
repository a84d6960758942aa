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
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 8090, cfg.Server.WSPort)
	assert.Equal(t, 30*time.Second, cfg.GenerationTimeout())
	assert.Equal(t, 10*time.Second, cfg.SendTimeout())
	assert.Equal(t, int64(65536), cfg.WebSocket.MaxMessageBytes)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ALERTLINK_SERVER_HTTP_PORT", "9999")
	t.Setenv("ALERTLINK_DISPATCH_SEND_TIMEOUT_MS", "250")
	t.Setenv("ALERTLINK_TELEGRAM_TOKEN", "123:abc")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, 250*time.Millisecond, cfg.SendTimeout())
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alertlink.toml")
	content := "[llm]\nmodel = \"local-model\"\ntimeout_ms = 1500\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "local-model", cfg.LLM.Model)
	assert.Equal(t, 1500*time.Millisecond, cfg.GenerationTimeout())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

// chdirTemp changes the working directory to a fresh temp dir for the
// duration of the test (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
