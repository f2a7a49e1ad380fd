package tenants

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
)

// GuardMiddleware gates routes by authenticated role.
type GuardMiddleware interface {
	RequireAuthenticated(next http.Handler) http.Handler
	RequireAdmin(next http.Handler) http.Handler
}

// Handler manages tenant endpoints.
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

// MountRoutes registers tenant routes. All tenant management is
// administrative.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAdmin)
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Post("/{id}/terminate", h.terminate)
	})
}

type tenantRequest struct {
	Name        string  `json:"name" validate:"required"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Phone       string  `json:"phone"`
	UnitID      int64   `json:"unit_id"`
	MonthlyRent float64 `json:"monthly_rent" validate:"gte=0"`
	LeaseStart  string  `json:"lease_start"`
	LeaseEnd    string  `json:"lease_end"`
	Status      string  `json:"status" validate:"omitempty,oneof=active pending terminated expired inactive"`
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (TenantInput, bool) {
	var req tenantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return TenantInput{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return TenantInput{}, false
	}
	input := TenantInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		UnitID:      req.UnitID,
		MonthlyRent: req.MonthlyRent,
		Status:      Status(req.Status),
	}
	for _, field := range []struct {
		value  string
		target *time.Time
	}{
		{req.LeaseStart, &input.LeaseStart},
		{req.LeaseEnd, &input.LeaseEnd},
	} {
		if field.value == "" {
			continue
		}
		parsed, err := time.Parse("2006-01-02", field.value)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dates must be YYYY-MM-DD")
			return TenantInput{}, false
		}
		*field.target = parsed
	}
	return input, true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{Status: Status(q.Get("status")), Limit: 200}
	if v := q.Get("unit_id"); v != "" {
		filter.UnitID, _ = strconv.ParseInt(v, 10, 64)
	}
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, "list tenants", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid tenant id")
		return
	}
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get tenant", err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	t, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.fail(w, "create tenant", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid tenant id")
		return
	}
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	t, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.fail(w, "update tenant", err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) terminate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid tenant id")
		return
	}
	t, err := h.service.Terminate(r.Context(), id)
	if err != nil {
		h.fail(w, "terminate tenant", err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
