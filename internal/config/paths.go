package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved directories the pipeline reads and writes
type Paths struct {
	BaseDir        string
	RawDir         string
	TransformedDir string
	CleanedDir     string
	LogsDir        string
}

// GetPaths resolves the configured directories. Relative entries are joined
// to BaseDir, or to the current working directory when BaseDir is empty.
func (c *Config) GetPaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}

	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(dir string) string {
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(base, dir)
	}

	return &Paths{
		BaseDir:        base,
		RawDir:         resolve(c.Paths.RawDir),
		TransformedDir: resolve(c.Paths.TransformedDir),
		CleanedDir:     resolve(c.Paths.CleanedDir),
		LogsDir:        resolve(c.Paths.LogsDir),
	}, nil
}

// EnsureDirectories creates the output directories if they don't exist.
// The raw directory is input and is never created.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.TransformedDir,
		p.CleanedDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetTransformedPath returns the melted output file for a category
func (p *Paths) GetTransformedPath(category string) string {
	return filepath.Join(p.TransformedDir, category+TransformedSuffix)
}

// GetCleanedPath returns the cleaned output file for a category
func (p *Paths) GetCleanedPath(category string) string {
	return filepath.Join(p.CleanedDir, category+CleanedSuffix)
}

// GetCombinedPath returns the all-categories output file
func (p *Paths) GetCombinedPath() string {
	return filepath.Join(p.CleanedDir, CombinedFileName)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
