package products

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hisab-pos/hisab/internal/platform/httpx"
	"github.com/hisab-pos/hisab/internal/shared"
)

// Handler serves the product catalog reads the billing UI needs.
type Handler struct {
	logger *slog.Logger
	repo   Repository
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers product routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	activeOnly := r.URL.Query().Get("all") != "true"
	list, err := h.repo.List(r.Context(), tenantID, activeOnly)
	if err != nil {
		h.logger.Error("list products", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if list == nil {
		list = []Product{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": list})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.repo.Get(r.Context(), tenantID, productID)
	if err != nil {
		h.logger.Error("get product", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if product == nil {
		httpx.Error(w, http.StatusNotFound, "product not found")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"product": product})
}
