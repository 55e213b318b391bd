package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheets/internal/config"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TIMESHEETS_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("TIMESHEETS_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("TIMESHEETS_TEST_VALUE"))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("TIMESHEETS_TEST_VALUE"))

	assert.Error(t, LoadEnvFile(filepath.Join(dir, "missing.env")))
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger("nonsense", &buf)
	logger.Info("ready")

	out := buf.String()
	assert.Contains(t, out, "Falling back to info level")
	assert.Contains(t, out, "msg=ready")
	assert.Contains(t, out, "component=app")
}

func TestInitJournalDisabled(t *testing.T) {
	j, err := InitJournal(SetupLogger("error", &bytes.Buffer{}), "")
	require.NoError(t, err)
	assert.Nil(t, j)
}

func TestLoadAndValidateConfig_Overrides(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_BACKEND", "sheets")
	t.Setenv("DATA_DIR", "/does/not/exist")
	for _, key := range []string{"GOOGLE_SPREADSHEET_ID", "AMQP_URL", "LOG_LEVEL", "GOTENBERG_URL", "GOTENBERG_TIMEOUT", "OUTPUT_DIR"} {
		t.Setenv(key, "")
	}

	logger := SetupLogger("error", &bytes.Buffer{})

	_, err := LoadAndValidateConfig(logger)
	require.Error(t, err)

	cfg, err := LoadAndValidateConfig(logger, func(c *config.Config) {
		c.DataBackend = config.BackendMemory
		c.DataDir = dataDir
	})
	require.NoError(t, err)
	assert.Equal(t, dataDir, cfg.DataDir)
}
