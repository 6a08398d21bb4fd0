package reportshandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leaveledger/internal/domain/auth"
	"leaveledger/internal/domain/reports"
	"leaveledger/internal/transport/http/api"
	"leaveledger/internal/transport/http/middleware"
	"leaveledger/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *reports.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/balances.pdf", h.handleBalancePDF)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/entries.csv", h.handleEntriesCSV)
	})
}

func (h *Handler) handleBalancePDF(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	scopeID := r.URL.Query().Get("scopeId")
	if actor.Role != auth.RoleAdmin {
		scopeID = actor.ScopeID
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="leave-balances.pdf"`)
	if err := h.Service.BalancePDF(r.Context(), scopeID, w); err != nil {
		slog.Error("balance report failed", "err", err)
	}
}

func (h *Handler) handleEntriesCSV(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	v := shared.NewValidator()
	from, _ := v.Date("from", r.URL.Query().Get("from"))
	to, _ := v.Date("to", r.URL.Query().Get("to"))
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, reqID) {
		return
	}
	if to.IsZero() {
		to = from.AddDate(0, 1, 0)
	}

	scopeID := r.URL.Query().Get("scopeId")
	if actor.Role != auth.RoleAdmin {
		scopeID = actor.ScopeID
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leave-entries.csv"`)
	if err := h.Service.EntriesCSV(r.Context(), scopeID, from, to, w); err != nil {
		slog.Error("entries export failed", "err", err)
	}
}
