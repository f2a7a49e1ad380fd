package billing

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

// Handler manages billing endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	guard    GuardMiddleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard GuardMiddleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		guard:    guard,
	}
}

// MountRoutes registers billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAdmin)
		r.Get("/rates", h.getRates)
		r.Put("/rates", h.updateRates)
		r.Post("/bills", h.generateBill)
		r.Patch("/payments/{id}/status", h.setPaymentStatus)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated)
		r.Get("/bills/{id}", h.getBill)
		r.Get("/tenants/{tenantID}/bills/{month}", h.billForMonth)
		r.Get("/tenants/{tenantID}/rent/{month}", h.rentStatus)
		r.Get("/tenants/{tenantID}/period", h.currentPeriod)
		r.Get("/tenants/{tenantID}/due-date", h.nextDueDate)
		r.Post("/payments/rent", h.createRentPayment)
		r.Post("/payments/bill", h.createBillPayment)
		r.Get("/payments", h.listPayments)
		r.Get("/payments/{id}", h.getPayment)
	})
}

func (h *Handler) getRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.service.Rates(r.Context())
	if err != nil {
		h.fail(w, r, "get rates", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rates)
}

type updateRatesRequest struct {
	Electricity *float64 `json:"electricity"`
	Water       *float64 `json:"water"`
}

func (h *Handler) updateRates(w http.ResponseWriter, r *http.Request) {
	var req updateRatesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	rates, err := h.service.UpdateRates(r.Context(), RateUpdate{
		Electricity: req.Electricity,
		Water:       req.Water,
	})
	if err != nil {
		h.fail(w, r, "update rates", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rates)
}

type generateBillRequest struct {
	TenantID         int64   `json:"tenant_id" validate:"required,gt=0"`
	Month            string  `json:"month" validate:"required"`
	ElectricityUnits float64 `json:"electricity_units" validate:"gte=0"`
	WaterUnits       float64 `json:"water_units" validate:"gte=0"`
}

func (h *Handler) generateBill(w http.ResponseWriter, r *http.Request) {
	var req generateBillRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	bill, err := h.service.GenerateBill(r.Context(), req.TenantID, req.Month, req.ElectricityUnits, req.WaterUnits)
	if err != nil {
		h.fail(w, r, "generate bill", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) getBill(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid bill id")
		return
	}
	bill, err := h.service.Bill(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get bill", err)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess.Role() == shared.RoleTenant && bill.TenantID != sess.TenantID() {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "bill not found")
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) billForMonth(w http.ResponseWriter, r *http.Request) {
	tenantID, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid tenant id")
		return
	}
	if !h.authorizeTenant(w, r, tenantID) {
		return
	}
	bill, err := h.service.BillForMonth(r.Context(), tenantID, chi.URLParam(r, "month"))
	if err != nil {
		h.fail(w, r, "bill for month", err)
		return
	}
	if bill == nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no bill for month")
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) rentStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid tenant id")
		return
	}
	if !h.authorizeTenant(w, r, tenantID) {
		return
	}
	rs, err := h.service.RentStatusFor(r.Context(), tenantID, chi.URLParam(r, "month"))
	if err != nil {
		h.fail(w, r, "rent status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rs)
}

func (h *Handler) currentPeriod(w http.ResponseWriter, r *http.Request) {
	tenantID, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid tenant id")
		return
	}
	if !h.authorizeTenant(w, r, tenantID) {
		return
	}
	period, err := h.service.CurrentPeriodFor(r.Context(), tenantID)
	if err != nil {
		h.fail(w, r, "current period", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"period": period})
}

func (h *Handler) nextDueDate(w http.ResponseWriter, r *http.Request) {
	tenantID, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid tenant id")
		return
	}
	if !h.authorizeTenant(w, r, tenantID) {
		return
	}
	due, err := h.service.NextDueDateFor(r.Context(), tenantID)
	if err != nil {
		h.fail(w, r, "next due date", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]time.Time{"due_at": due})
}

type createRentPaymentRequest struct {
	TenantID int64   `json:"tenant_id"`
	Month    string  `json:"month"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Method   string  `json:"method" validate:"required"`
	Notes    string  `json:"notes"`
	Verified bool    `json:"verified"`
}

func (h *Handler) createRentPayment(w http.ResponseWriter, r *http.Request) {
	var req createRentPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	tenantID, verified, ok := h.resolveActor(w, r, req.TenantID, req.Verified)
	if !ok {
		return
	}
	payment, err := h.service.CreateRentPayment(r.Context(), CreateRentPaymentInput{
		TenantID: tenantID,
		Month:    req.Month,
		Amount:   req.Amount,
		Method:   req.Method,
		Notes:    req.Notes,
		Verified: verified,
	})
	if err != nil {
		h.fail(w, r, "create rent payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

type createBillPaymentRequest struct {
	TenantID int64   `json:"tenant_id"`
	BillID   int64   `json:"bill_id" validate:"required,gt=0"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Method   string  `json:"method" validate:"required"`
	Notes    string  `json:"notes"`
	Verified bool    `json:"verified"`
}

func (h *Handler) createBillPayment(w http.ResponseWriter, r *http.Request) {
	var req createBillPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	tenantID, verified, ok := h.resolveActor(w, r, req.TenantID, req.Verified)
	if !ok {
		return
	}
	payment, err := h.service.CreateBillPayment(r.Context(), CreateBillPaymentInput{
		TenantID: tenantID,
		BillID:   req.BillID,
		Amount:   req.Amount,
		Method:   req.Method,
		Notes:    req.Notes,
		Verified: verified,
	})
	if err != nil {
		h.fail(w, r, "create bill payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := PaymentFilter{
		Month:  q.Get("month"),
		Type:   PaymentType(q.Get("type")),
		Status: PaymentStatus(q.Get("status")),
		Limit:  100,
	}
	if v := q.Get("tenant_id"); v != "" {
		filter.TenantID, _ = strconv.ParseInt(v, 10, 64)
	}

	// Tenants only ever see their own payments.
	sess := shared.SessionFromContext(r.Context())
	if sess.Role() == shared.RoleTenant {
		filter.TenantID = sess.TenantID()
	}

	payments, err := h.service.ListPayments(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "list payments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, payments)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payment id")
		return
	}
	payment, err := h.service.Payment(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get payment", err)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess.Role() == shared.RoleTenant && payment.TenantID != sess.TenantID() {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "payment not found")
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

type setPaymentStatusRequest struct {
	Status     string `json:"status" validate:"required,oneof=pending verified completed rejected"`
	AdminNotes string `json:"admin_notes"`
}

func (h *Handler) setPaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid payment id")
		return
	}
	var req setPaymentStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	payment, err := h.service.SetPaymentStatus(r.Context(), id, PaymentStatus(req.Status), req.AdminNotes)
	if err != nil {
		h.fail(w, r, "set payment status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

// authorizeTenant refuses tenant sessions reaching into another tenancy.
func (h *Handler) authorizeTenant(w http.ResponseWriter, r *http.Request, tenantID int64) bool {
	sess := shared.SessionFromContext(r.Context())
	if sess.Role() == shared.RoleTenant && sess.TenantID() != tenantID {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "not your tenancy")
		return false
	}
	return true
}

// resolveActor defaults the tenant id from the session for tenant users and
// restricts the verified fast path to administrators.
func (h *Handler) resolveActor(w http.ResponseWriter, r *http.Request, requested int64, verified bool) (int64, bool, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess.Role() == shared.RoleTenant {
		return sess.TenantID(), false, true
	}
	if requested <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tenant_id is required")
		return 0, false, false
	}
	return requested, verified, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
	httpx.RespondError(w, err)
}
