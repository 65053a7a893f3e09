// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsSecrets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tavily-api-key"), []byte("tvly-abc123\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wechat-app-id"), []byte("  wx-id  "), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("skip"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty"), []byte("  \n"), 0o600))

	secrets, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "tvly-abc123", secrets["tavily-api-key"], "values are trimmed")
	assert.Equal(t, "wx-id", secrets["wechat-app-id"])
	assert.NotContains(t, secrets, ".hidden")
	assert.NotContains(t, secrets, "empty", "whitespace-only files are ignored")
}

func TestLoadMissingDir(t *testing.T) {
	secrets, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, secrets)
}

func TestGetEnvFallback(t *testing.T) {
	secrets := map[string]string{"tavily-api-key": "from-file"}

	assert.Equal(t, "from-file", Get(secrets, "tavily-api-key", "TAVILY_API_KEY"))

	t.Setenv("OPENAI_API_KEY", "from-env")
	assert.Equal(t, "from-env", Get(secrets, "openai-api-key", "OPENAI_API_KEY"))

	assert.Empty(t, Get(secrets, "wechat-app-id", "WECHAT_APP_ID_UNSET"))
}
