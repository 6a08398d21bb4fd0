package memberhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"leaveledger/internal/domain/audit"
	"leaveledger/internal/domain/auth"
	"leaveledger/internal/domain/category"
	"leaveledger/internal/domain/ledger"
	"leaveledger/internal/domain/member"
	"leaveledger/internal/transport/http/api"
	"leaveledger/internal/transport/http/middleware"
	"leaveledger/internal/transport/http/shared"
)

type Handler struct {
	Store *member.Store
	Gate  ledger.AccessGate
	Perms middleware.PermissionStore
	Audit *audit.Service
}

func NewHandler(store *member.Store, gate ledger.AccessGate, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Gate: gate, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/members", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermMembersWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermMembersRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermMembersRead, h.Perms)).Get("/{memberID}", h.handleGet)
	})
}

type createMemberRequest struct {
	Name        string             `json:"name"`
	Designation string             `json:"designation"`
	ScopeID     string             `json:"scopeId"`
	JoinedAt    string             `json:"joinedAt"`
	Granted     map[string]float64 `json:"granted"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	var payload createMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Required("scopeId", payload.ScopeID, "scope id is required")
	var joinedAt time.Time
	if payload.JoinedAt != "" {
		joinedAt, _ = v.Date("joinedAt", payload.JoinedAt)
	}
	if v.Reject(w, reqID) {
		return
	}

	granted := make(map[category.Category]float64, len(payload.Granted))
	for name, value := range payload.Granted {
		cat, err := category.Parse(name)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "unknown_category", "unknown leave category: "+name, reqID)
			return
		}
		if value < 0 {
			api.Fail(w, http.StatusBadRequest, "invalid_amount", "granted balance cannot be negative", reqID)
			return
		}
		granted[cat] = value
	}

	id, err := h.Store.Create(r.Context(), member.OnboardingInput{
		Name:        payload.Name,
		Designation: payload.Designation,
		ScopeID:     payload.ScopeID,
		JoinedAt:    joinedAt,
		Granted:     granted,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "member_create_failed", "failed to create member", reqID)
		return
	}

	if h.Audit != nil {
		if err := h.Audit.Record(r.Context(), actor.ID, "member.create", "member", id, payload); err != nil {
			slog.Warn("audit member.create failed", "err", err)
		}
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	scopeID := r.URL.Query().Get("scopeId")
	// non-admins only see their own scope
	if actor.Role != auth.RoleAdmin {
		scopeID = actor.ScopeID
	}

	page := shared.ParsePagination(r, 50, 200)
	members, err := h.Store.List(r.Context(), scopeID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "member_list_failed", "failed to list members", reqID)
		return
	}
	api.Success(w, members, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	memberID := chi.URLParam(r, "memberID")
	allowed, err := h.Gate.CanAccess(r.Context(), actor, memberID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "member_get_failed", "failed to load member", reqID)
		return
	}
	if !allowed {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed for this member", reqID)
		return
	}

	record, err := h.Store.Get(r.Context(), memberID)
	if err != nil {
		if errors.Is(err, ledger.ErrMemberNotFound) {
			api.Fail(w, http.StatusNotFound, "member_not_found", "member not found", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "member_get_failed", "failed to load member", reqID)
		return
	}
	api.Success(w, record, reqID)
}
