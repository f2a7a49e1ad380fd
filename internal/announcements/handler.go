package announcements

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/shared"
)

// GuardMiddleware gates routes by authenticated role.
type GuardMiddleware interface {
	RequireAuthenticated(next http.Handler) http.Handler
	RequireAdmin(next http.Handler) http.Handler
}

// Handler manages announcement endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	guard    GuardMiddleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard GuardMiddleware) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New(), guard: guard}
}

// MountRoutes registers announcement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated)
		r.Get("/", h.listActive)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAdmin)
		r.Post("/", h.publish)
		r.Delete("/{id}", h.remove)
	})
}

func (h *Handler) listActive(w http.ResponseWriter, r *http.Request) {
	audience := AudienceAdmins
	if shared.SessionFromContext(r.Context()).Role() == shared.RoleTenant {
		audience = AudienceTenants
	}
	list, err := h.service.Active(r.Context(), audience)
	if err != nil {
		h.fail(w, "list announcements", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

type publishRequest struct {
	Title     string `json:"title" validate:"required"`
	Body      string `json:"body" validate:"required"`
	Audience  string `json:"audience" validate:"omitempty,oneof=all tenants admins"`
	ExpiresAt string `json:"expires_at"`
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := AnnouncementInput{
		Title:     req.Title,
		Body:      req.Body,
		Audience:  Audience(req.Audience),
		CreatedBy: shared.SessionFromContext(r.Context()).UserID(),
	}
	if req.ExpiresAt != "" {
		expires, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expires_at must be RFC3339")
			return
		}
		input.ExpiresAt = expires
	}
	a, err := h.service.Publish(r.Context(), input)
	if err != nil {
		h.fail(w, "publish announcement", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid announcement id")
		return
	}
	if err := h.service.Remove(r.Context(), id); err != nil {
		h.fail(w, "remove announcement", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
