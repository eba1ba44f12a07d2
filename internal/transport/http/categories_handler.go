package http

import (
	"context"
	"log/slog"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "expenditure/internal/errors"
	"expenditure/internal/services"
	"expenditure/pkg/contracts/domain"
)

// CategoryService reads cleaned categories
type CategoryService interface {
	ListCategories(ctx context.Context) ([]services.CategoryInfo, error)
	GetCategory(ctx context.Context, category string) ([]domain.CleanRecord, error)
}

// CategoriesHandler handles the /api/v1/categories resource
type CategoriesHandler struct {
	service      CategoryService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewCategoriesHandler creates a new categories handler
func NewCategoriesHandler(service CategoryService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *CategoriesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoriesHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "categories")),
		errorHandler: errorHandler,
	}
}

// Routes returns the categories routes
func (h *CategoriesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListCategories)
	r.Get("/{category}", h.GetCategory)
	return r
}

// RecordResponse is one cleaned observation. Value is null when it could
// not be imputed.
type RecordResponse struct {
	State   string   `json:"state"`
	Year    string   `json:"year"`
	Value   *float64 `json:"value"`
	Imputed bool     `json:"imputed,omitempty"`
}

// CategoryResponse is the body of GET /api/v1/categories/{category}
type CategoryResponse struct {
	Category string           `json:"category"`
	Count    int              `json:"count"`
	Records  []RecordResponse `json:"records"`
}

// NewCategoryResponse converts cleaned records, mapping non-finite values to null
func NewCategoryResponse(category string, records []domain.CleanRecord) *CategoryResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		resp := RecordResponse{State: rec.State, Year: rec.Year, Imputed: rec.Imputed}
		if !math.IsNaN(rec.Value) && !math.IsInf(rec.Value, 0) {
			v := rec.Value
			resp.Value = &v
		}
		out = append(out, resp)
	}
	return &CategoryResponse{Category: category, Count: len(out), Records: out}
}

// ListCategories handles GET /api/v1/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// GetCategory handles GET /api/v1/categories/{category}
func (h *CategoriesHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	records, err := h.service.GetCategory(r.Context(), category)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "Category served",
		slog.String("category", category),
		slog.Int("records", len(records)))
	render.JSON(w, r, NewCategoryResponse(category, records))
}
