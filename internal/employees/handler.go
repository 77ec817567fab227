package employees

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hisab-pos/hisab/internal/platform/httpx"
	"github.com/hisab-pos/hisab/internal/shared"
)

// Handler serves the employee list used when assigning a master to a bill.
type Handler struct {
	logger *slog.Logger
	repo   Repository
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers employee routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	list, err := h.repo.List(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("list employees", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if list == nil {
		list = []Employee{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"employees": list})
}
