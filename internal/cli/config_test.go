package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jobtracker/internal/model"
)

func TestInitConfigFile_WritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, initConfigFile(path, false))

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "imap.gmail.com", cfg.Mailbox.Host)
	assert.Equal(t, 7, cfg.Fetch.WindowDays)
	assert.Equal(t, 30, cfg.Fetch.MaxCount)
	assert.Equal(t, 5, cfg.AI.BatchSize)
}

func TestInitConfigFile_RefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mailbox:\n  host: imap.fastmail.com\n"), 0o644))

	err := initConfigFile(path, false)
	assert.ErrorContains(t, err, "already exists")

	// The existing file is untouched.
	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "imap.fastmail.com", cfg.Mailbox.Host)
}

func TestInitConfigFile_ForceKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch:\n  window_days: 14\n"), 0o644))

	require.NoError(t, initConfigFile(path, true))

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 14, cfg.Fetch.WindowDays, "existing value survives the rewrite")
	assert.Equal(t, "imap.gmail.com", cfg.Mailbox.Host, "missing keys gain defaults")
}
