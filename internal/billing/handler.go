package billing

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hisab-pos/hisab/internal/platform/httpx"
	"github.com/hisab-pos/hisab/internal/shared"
)

// Handler wires the billing HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers the bill routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
	r.Put("/{id}/payment", h.UpdatePayment)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateBillRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.CreateBill(r.Context(), tenantID, req)
	if err != nil {
		h.logger.Warn("create bill failed", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	billID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	bill, err := h.service.GetBill(r.Context(), tenantID, billID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"bill":  bill,
		"items": bill.Items,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	bills, err := h.service.ListBills(r.Context(), tenantID, r.URL.Query().Get("bill_number"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if bills == nil {
		bills = []Bill{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"bills": bills})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	billID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	if err := h.service.DeleteBill(r.Context(), tenantID, billID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	billID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	var req UpdatePaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid amount")
		return
	}

	bill, err := h.service.UpdatePayment(r.Context(), tenantID, billID, req.AmountPaid)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"bill": bill})
}

// NextNumber previews the next bill number without reserving it. Mounted at
// GET /next-bill-number.
func (h *Handler) NextNumber(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	number, err := h.service.NextBillNumber(r.Context(), tenantID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"next_number": number})
}
