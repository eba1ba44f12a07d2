package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenditure/internal/config"
	"expenditure/internal/shared/testutil"
)

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	base := t.TempDir()
	raw := filepath.Join(base, "sheets")
	require.NoError(t, os.MkdirAll(raw, 0755))
	testutil.WriteCSV(t, raw, "Education.csv", testutil.ExpenditureSheet())
	testutil.WriteCSV(t, raw, "Roads.csv", testutil.SheetWithoutAnchor())

	out, err := executeRoot(t, "run",
		"--base-dir", base,
		"--log-level", "error",
		"--raw", "sheets",
		"--out", "clean",
		"--no-transformed",
		"--workers", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Education")
	assert.Contains(t, out, "SKIPPED")
	assert.Contains(t, out, "Roads.csv")
	assert.FileExists(t, filepath.Join(base, "clean", "Education"+config.CleanedSuffix))
	assert.FileExists(t, filepath.Join(base, "clean", config.CombinedFileName))
	assert.NoFileExists(t, filepath.Join(base, config.DefaultTransformedDir, "Education"+config.TransformedSuffix))
}

func TestRunCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing raw directory", []string{"run", "--base-dir", t.TempDir(), "--log-level", "error"}},
		{"invalid workers", []string{"run", "--base-dir", t.TempDir(), "--log-level", "error", "--workers", "0"}},
		{"unexpected argument", []string{"run", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeRoot(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
