package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenditure/internal/config"
	"expenditure/internal/shared/testutil"
	"expenditure/pkg/contracts/domain"
)

func testConfig(t *testing.T, withDatabase bool) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Server.Port = 0
	cfg.Security.RateLimit.Enabled = false
	if withDatabase {
		cfg.Database.Enabled = true
		cfg.Database.DSN = filepath.Join(cfg.Paths.BaseDir, "expenditure.db")
	}
	return cfg
}

func newTestApp(t *testing.T, withDatabase bool) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	a, err := New(testConfig(t, withDatabase), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Stop(context.Background()) })
	require.NoError(t, os.MkdirAll(a.Paths.RawDir, 0755))
	return a
}

func serve(a *Application, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestNewCreatesOutputDirectories(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	a, err := New(testConfig(t, false), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Stop(context.Background()) })

	assert.NoDirExists(t, a.Paths.RawDir)
	assert.DirExists(t, a.Paths.TransformedDir)
	assert.DirExists(t, a.Paths.CleanedDir)
	assert.Nil(t, a.Store)
	assert.Equal(t, ":0", a.Server.Addr)
}

func TestRunLifecycleOverHTTP(t *testing.T) {
	for _, withDatabase := range []bool{false, true} {
		name := "files"
		if withDatabase {
			name = "database"
		}
		t.Run(name, func(t *testing.T) {
			a := newTestApp(t, withDatabase)
			testutil.WriteCSV(t, a.Paths.RawDir, "Education.csv", testutil.ExpenditureSheet())
			testutil.WriteCSV(t, a.Paths.RawDir, "Roads.csv", testutil.SheetWithoutAnchor())

			rec := serve(a, http.MethodPost, config.RunsEndpoint, `{}`)
			require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

			var run domain.Run
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
			a.Services.Runs.Wait()

			rec = serve(a, http.MethodGet, rec.Header().Get("Location"), "")
			require.Equal(t, http.StatusOK, rec.Code)
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
			assert.Equal(t, domain.RunStatusCompleted, run.Status)
			require.Len(t, run.Tables, 1)
			assert.Equal(t, "Education", run.Tables[0].Category)
			require.Len(t, run.Report.Skipped, 1)
			assert.Equal(t, domain.SkipAnchorNotFound, run.Report.Skipped[0].Kind)

			rec = serve(a, http.MethodGet, config.CategoriesEndpoint+"/Education", "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `"count":6`)

			rec = serve(a, http.MethodGet, config.CategoriesEndpoint+"/Roads", "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestRouting(t *testing.T) {
	a := newTestApp(t, false)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"health", http.MethodGet, config.HealthEndpoint, "", http.StatusOK},
		{"metrics", http.MethodGet, config.MetricsEndpoint, "", http.StatusOK},
		{"trailing slash", http.MethodGet, config.RunsEndpoint + "/", "", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/v1/nothing", "", http.StatusNotFound},
		{"wrong method", http.MethodDelete, config.RunsEndpoint, "", http.StatusMethodNotAllowed},
		{"invalid workers", http.MethodPost, config.RunsEndpoint, `{"workers":0.5}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(a, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	t.Run("form body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, config.RunsEndpoint, strings.NewReader("workers=2"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		a.Router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestRunBatch(t *testing.T) {
	a := newTestApp(t, false)
	testutil.WriteCSV(t, a.Paths.RawDir, "Education.csv", testutil.ExpenditureSheet())

	result, err := a.RunBatch(context.Background(), domain.RunRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Education"}, result.Order)
	assert.FileExists(t, a.Paths.GetCleanedPath("Education"))
	assert.FileExists(t, a.Paths.GetCombinedPath())
}
