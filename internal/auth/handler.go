package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hisab-pos/hisab/internal/platform/httpx"
)

// Handler wires HTTP endpoints for tenant authentication.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *SessionManager
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *SessionManager) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		sessions: sessions,
		validate: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid credentials payload")
		return
	}

	tenant, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	token, err := h.sessions.Create(r.Context(), tenant.ID)
	if err != nil {
		h.logger.Error("create session", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, "session store unavailable")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"token":  token,
		"tenant": tenant,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), bearerToken(r)); err != nil {
		h.logger.Warn("destroy session", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}
