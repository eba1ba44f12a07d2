package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere")

	cfg := Default()
	cfg.Paths.BaseDir = base
	cfg.Paths.CleanedDir = abs

	paths, err := cfg.GetPaths()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "data", "raw"), paths.RawDir)
	assert.Equal(t, filepath.Join(base, "data", "transformed"), paths.TransformedDir)
	assert.Equal(t, abs, paths.CleanedDir)
	assert.Equal(t, filepath.Join(base, "logs", "run.log"), paths.GetLogPath("run.log"))
}

func TestOutputFileNames(t *testing.T) {
	paths := &Paths{TransformedDir: "/t", CleanedDir: "/c"}

	assert.Equal(t, filepath.Join("/t", "Education_transformed.csv"), paths.GetTransformedPath("Education"))
	assert.Equal(t, filepath.Join("/c", "Education_cleaned.csv"), paths.GetCleanedPath("Education"))
	assert.Equal(t, filepath.Join("/c", "expenditure_analysis.csv"), paths.GetCombinedPath())
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.BaseDir = base

	paths, err := cfg.GetPaths()
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	assert.DirExists(t, paths.TransformedDir)
	assert.DirExists(t, paths.CleanedDir)
	assert.DirExists(t, paths.LogsDir)
	_, err = os.Stat(paths.RawDir)
	assert.True(t, os.IsNotExist(err))
	assert.True(t, FileExists(paths.CleanedDir))
}
