package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadWithoutEnvFile(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"DB_NAME", "ANNOUNCEMENT_CACHE_TTL", "ENABLE_ANNOUNCEMENT_CACHE"} {
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "hsms", cfg.Database.Name)
	assert.Equal(t, 5*time.Minute, cfg.Announcements.CacheTTL)
	assert.False(t, cfg.Announcements.CacheEnabled)
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_NAME=hsms_test\nANNOUNCEMENT_CACHE_TTL=90s\n"), 0o600))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "hsms_test", cfg.Database.Name)
	assert.Equal(t, 90*time.Second, cfg.Announcements.CacheTTL)
}
