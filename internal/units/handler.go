package units

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

// GuardMiddleware gates routes by authenticated role.
type GuardMiddleware interface {
	RequireAuthenticated(next http.Handler) http.Handler
	RequireAdmin(next http.Handler) http.Handler
}

// Handler manages unit endpoints.
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

// MountRoutes registers unit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAdmin)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Post("/{id}/assign/{tenantID}", h.assign)
		r.Post("/{id}/release", h.release)
	})
}

type unitRequest struct {
	Code        string  `json:"code" validate:"required"`
	Type        string  `json:"type"`
	Floor       int     `json:"floor"`
	MonthlyRent float64 `json:"monthly_rent" validate:"gte=0"`
	Occupancy   string  `json:"occupancy" validate:"omitempty,oneof=vacant occupied maintenance"`
	TenantID    int64   `json:"tenant_id"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Occupancy: Occupancy(r.URL.Query().Get("occupancy")), Limit: 200}
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, "list units", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid unit id")
		return
	}
	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get unit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	u, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.fail(w, "create unit", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid unit id")
		return
	}
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	u, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.fail(w, "update unit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	id, err1 := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	tenantID, err2 := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err1 != nil || err2 != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid unit or tenant id")
		return
	}
	u, err := h.service.Assign(r.Context(), id, tenantID)
	if err != nil {
		h.fail(w, "assign unit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) release(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid unit id")
		return
	}
	if err := h.service.Release(r.Context(), id); err != nil {
		h.fail(w, "release unit", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "released"})
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (UnitInput, bool) {
	var req unitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return UnitInput{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return UnitInput{}, false
	}
	return UnitInput{
		Code:        req.Code,
		Type:        req.Type,
		Floor:       req.Floor,
		MonthlyRent: req.MonthlyRent,
		Occupancy:   Occupancy(req.Occupancy),
		TenantID:    req.TenantID,
	}, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
