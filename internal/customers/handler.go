package customers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hisab-pos/hisab/internal/loyalty"
	"github.com/hisab-pos/hisab/internal/platform/httpx"
	"github.com/hisab-pos/hisab/internal/shared"
)

// Handler wires the customer HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	loyalty  *loyalty.Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, loyaltySvc *loyalty.Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		loyalty:  loyaltySvc,
		validate: validator.New(),
	}
}

// MountRoutes registers customer routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/loyalty", h.Loyalty)
}

type createRequest struct {
	Name            string `json:"name"`
	Phone           string `json:"phone" validate:"required"`
	CountryCode     string `json:"country_code"`
	CustomerType    string `json:"customer_type" validate:"omitempty,oneof=Individual Business"`
	BusinessName    string `json:"business_name"`
	BusinessAddress string `json:"business_address"`
	TRN             string `json:"trn"`
	City            string `json:"city"`
	Area            string `json:"area"`
	Email           string `json:"email" validate:"omitempty,email"`
	Address         string `json:"address"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	customer, err := h.service.Create(r.Context(), ResolveInput{
		TenantID:        tenantID,
		Name:            req.Name,
		Phone:           req.Phone,
		CountryCode:     req.CountryCode,
		CustomerType:    CustomerType(req.CustomerType),
		BusinessName:    req.BusinessName,
		BusinessAddress: req.BusinessAddress,
		TRN:             req.TRN,
		City:            req.City,
		Area:            req.Area,
		Email:           req.Email,
		Address:         req.Address,
	})
	if err != nil {
		h.logger.Warn("create customer failed", slog.Int64("tenant_id", tenantID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customer": customer})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	customerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := h.service.Get(r.Context(), tenantID, customerID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customer": customer})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	list, err := h.service.List(r.Context(), tenantID, r.URL.Query().Get("search"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Customer{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customers": list})
}

func (h *Handler) Loyalty(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	customerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	summary, err := h.loyalty.CustomerSummary(r.Context(), tenantID, customerID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
