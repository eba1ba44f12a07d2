package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into a fresh directory so no stray .env or config.yaml is picked up
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Minute, cfg.Server.RunTimeout)
				assert.Equal(t, "data/raw", cfg.Paths.RawDir)
				assert.Equal(t, []string{".csv", ".xlsx"}, cfg.Pipeline.Extensions)
				assert.Equal(t, 1, cfg.Pipeline.Workers)
				assert.True(t, cfg.Pipeline.WriteTransformed)
				assert.False(t, cfg.Database.Enabled)
				assert.Equal(t, "sqlite3", cfg.Database.Driver)
				assert.Equal(t, "info", cfg.Logging.Level)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"EXP_SERVER_PORT":         "9090",
				"EXP_PIPELINE_WORKERS":    "4",
				"EXP_PIPELINE_CATEGORIES": "Education,Health",
				"EXP_LOGGING_LEVEL":       "debug",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 4, cfg.Pipeline.Workers)
				assert.Equal(t, []string{"Education", "Health"}, cfg.Pipeline.Categories)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "file values under env",
			env:  map[string]string{"EXP_SERVER_PORT": "7070"},
			file: "server:\n  port: 6060\npipeline:\n  workers: 3\n  categories: [Roads]\npaths:\n  raw_dir: input\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, 3, cfg.Pipeline.Workers)
				assert.Equal(t, []string{"Roads"}, cfg.Pipeline.Categories)
				assert.Equal(t, "input", cfg.Paths.RawDir)
			},
		},
		{
			name:    "invalid workers",
			env:     map[string]string{"EXP_PIPELINE_WORKERS": "0"},
			wantErr: true,
		},
		{
			name:    "invalid driver",
			env:     map[string]string{"EXP_DATABASE_DRIVER": "oracle"},
			wantErr: true,
		},
		{
			name:    "malformed file",
			file:    "server: [unclosed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := chdir(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			configFile := ""
			if tt.file != "" {
				configFile = filepath.Join(dir, "custom.yaml")
				require.NoError(t, os.WriteFile(configFile, []byte(tt.file), 0644))
			}

			cfg, err := Load(configFile)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EXP_PIPELINE_ENCODING=windows1252\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("EXP_PIPELINE_ENCODING") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "windows1252", cfg.Pipeline.Encoding)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "Port"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "Level"},
		{"extension without dot", func(c *Config) { c.Pipeline.Extensions = []string{"csv"} }, "Extensions"},
		{"empty raw dir", func(c *Config) { c.Paths.RawDir = "" }, "RawDir"},
		{"database without dsn", func(c *Config) {
			c.Database.Enabled = true
			c.Database.DSN = ""
		}, "DSN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
