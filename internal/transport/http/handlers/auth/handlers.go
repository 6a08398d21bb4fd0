package authhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"leaveledger/internal/domain/audit"
	"leaveledger/internal/domain/auth"
	"leaveledger/internal/transport/http/api"
	"leaveledger/internal/transport/http/middleware"
)

type Handler struct {
	Store    *auth.Store
	Audit    *audit.Service
	Secret   string
	TokenTTL time.Duration
}

func NewHandler(store *auth.Store, auditSvc *audit.Service, secret string, ttl time.Duration) *Handler {
	return &Handler{Store: store, Audit: auditSvc, Secret: secret, TokenTTL: ttl}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	ScopeID  string `json:"scopeId,omitempty"`
	MemberID string `json:"memberId,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" || payload.Password == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "email and password are required", reqID)
		return
	}

	actor, err := h.Store.FindActorByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, auth.ErrActorNotFound) {
			slog.Warn("actor lookup failed", "err", err)
		}
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", reqID)
		return
	}

	if err := auth.CheckPassword(actor.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", reqID)
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		ActorID:  actor.ID,
		Role:     actor.Role,
		ScopeID:  actor.ScopeID,
		MemberID: actor.MemberID,
	}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_failed", "failed to issue token", reqID)
		return
	}

	if h.Audit != nil {
		if err := h.Audit.Record(r.Context(), actor.ID, "auth.login", "actor", actor.ID, nil); err != nil {
			slog.Warn("audit auth.login failed", "err", err)
		}
	}

	api.Success(w, loginResponse{
		Token:    token,
		Role:     actor.Role,
		ScopeID:  actor.ScopeID,
		MemberID: actor.MemberID,
	}, reqID)
}
