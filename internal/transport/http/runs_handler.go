package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "expenditure/internal/errors"
	"expenditure/pkg/contracts/domain"
)

// RunManager starts and tracks batch runs
type RunManager interface {
	Start(ctx context.Context, req domain.RunRequest) (*domain.Run, error)
	Get(id string) (*domain.Run, error)
	List() []*domain.Run
}

// RunsHandler handles the /api/v1/runs resource
type RunsHandler struct {
	manager      RunManager
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(manager RunManager, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *RunsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunsHandler{
		manager:      manager,
		logger:       logger.With(slog.String("handler", "runs")),
		errorHandler: errorHandler,
	}
}

// Routes returns the runs routes
func (h *RunsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.StartRun)
	r.Get("/", h.ListRuns)
	r.Get("/{runID}", h.GetRun)
	return r
}

// StartRunRequest is the body of POST /api/v1/runs
type StartRunRequest struct {
	domain.RunRequest
}

// Bind implements render.Binder. Field validation is left to the manager.
func (req *StartRunRequest) Bind(r *http.Request) error {
	categories := req.Categories[:0]
	for _, c := range req.Categories {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	req.Categories = categories
	return nil
}

// StartRun handles POST /api/v1/runs. An empty body runs every category.
func (h *RunsHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	req := &StartRunRequest{}
	if r.ContentLength != 0 {
		if err := render.Bind(r, req); err != nil && !errors.Is(err, io.EOF) {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
	}

	run, err := h.manager.Start(r.Context(), req.RunRequest)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Run started",
		slog.String("run_id", run.ID),
		slog.Any("categories", run.Request.Categories))

	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+run.ID)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, run)
}

// GetRun handles GET /api/v1/runs/{runID}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.manager.Get(chi.URLParam(r, "runID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, run)
}

// ListRuns handles GET /api/v1/runs, newest first
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs := h.manager.List()
	render.JSON(w, r, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}
