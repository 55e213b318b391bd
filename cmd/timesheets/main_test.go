package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheets/internal/core"
)

const declaredTime = `Projet,Collaborateur,Mois,Temps (jours),Work package
ABC,Alice,15/01/2023,1.5,WP1
ABC,Alice,20/01/2023,1.75,WP2
ABC,Bob,01/03/2023,2,WP1
XYZ,Carol,01/03/2023,4,WP9
`

func writeWorkbook(t *testing.T, acronym string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"Accueil.csv": "Année,2023\n" +
			"Nom du superviseur,Claire Martin\n" +
			"Date à indiquer dans la feuille de temps,31/12/2023\n" +
			"Project acronym," + acronym + "\n" +
			"Project number,101000\n",
		"Import temps déclarés.csv": declaredTime,
		"Template.csv":              "Feuille de temps\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func setupEnv(t *testing.T) (outputDir, dbPath string) {
	t.Helper()
	gotenberg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/forms/chromium/convert/html" {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4 fake"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gotenberg.Close)

	outputDir = t.TempDir()
	dbPath = filepath.Join(t.TempDir(), "journal.db")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("OUTPUT_DIR", outputDir)
	t.Setenv("GOTENBERG_URL", gotenberg.URL)
	t.Setenv("SQLITE_DB_PATH", dbPath)
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	return outputDir, dbPath
}

func TestGenerateAndHistory(t *testing.T) {
	outputDir, _ := setupEnv(t)
	dataDir := writeWorkbook(t, "ABC")

	var stdout, stderr bytes.Buffer
	code := execute([]string{"generate", "--data-dir", dataDir}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "Project ABC, 2023-2023: 2 exported, 0 deleted")
	assert.Contains(t, out, "Alice 2023")
	assert.Contains(t, out, "3.3 days")
	assert.FileExists(t, filepath.Join(outputDir, "timesheets", "ABC", "Alice 2023.pdf"))
	assert.FileExists(t, filepath.Join(outputDir, "timesheets", "ABC", "Bob 2023.pdf"))
	assert.NoDirExists(t, filepath.Join(outputDir, "timesheets", "XYZ"))

	stdout.Reset()
	code = execute([]string{"history"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "ABC")
	assert.Contains(t, stdout.String(), "succeeded")
}

func TestGenerateConfigurationError(t *testing.T) {
	setupEnv(t)
	dataDir := writeWorkbook(t, "")

	var stdout, stderr bytes.Buffer
	code := execute([]string{"generate", "--data-dir", dataDir}, &stdout, &stderr)

	assert.Equal(t, exitConfiguration, code)
	assert.Contains(t, stderr.String(), core.AlertMessage)
	assert.Empty(t, stdout.String())
}

func TestGenerateInvalidBackend(t *testing.T) {
	setupEnv(t)

	var stdout, stderr bytes.Buffer
	code := execute([]string{"generate", "--backend", "sqlite"}, &stdout, &stderr)

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), "invalid data backend")
}

func TestHistoryUnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitFailure, execute([]string{"history", "--nope"}, &stdout, &stderr))
}
