package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labops/internal/domain"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath, chromePath, timeoutSecs = "", "", 0

	root := newRoot()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestStylesListsEmbeddedSheets(t *testing.T) {
	out, err := runCommand(t, "styles")
	require.NoError(t, err)

	assert.Contains(t, out, "print-gids@v1")
	assert.Contains(t, out, "print-gids@v2")
	assert.Contains(t, out, "print-report@v1")
}

func TestExportRequiresInputFlag(t *testing.T) {
	_, err := runCommand(t, "export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "in")
}

func TestExportMissingInputFailsBeforeAnyWork(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "gids.pdf")

	_, err := runCommand(t, "export",
		"--in", filepath.Join(t.TempDir(), "missing.html"),
		"--out", outPath,
		"--chrome", "/definitely/missing/chrome")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err), "expected a not_found error, got %v", err)

	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr), "no output should exist after a failed export")
}

func TestExportRejectsUnknownStyleBeforeChrome(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "gids.html")
	require.NoError(t, os.WriteFile(in, []byte("<html><head></head><body>x</body></html>"), 0o644))

	_, err := runCommand(t, "export",
		"--in", in,
		"--style", "no-such-sheet",
		"--chrome", "/definitely/missing/chrome")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestExportSurfacesRenderFailure(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "gids.html")
	out := filepath.Join(dir, "gids.pdf")
	require.NoError(t, os.WriteFile(in, []byte("<html><head></head><body>x</body></html>"), 0o644))

	_, err := runCommand(t, "export",
		"--in", in,
		"--out", out,
		"--chrome", "/definitely/missing/chrome",
		"--timeout", "2")
	require.Error(t, err)
	assert.True(t, domain.IsRender(err), "expected a render error, got %v", err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
