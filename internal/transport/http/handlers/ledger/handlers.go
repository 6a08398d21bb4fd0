package ledgerhandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"leaveledger/internal/domain/auth"
	"leaveledger/internal/domain/category"
	"leaveledger/internal/domain/ledger"
	"leaveledger/internal/platform/metrics"
	"leaveledger/internal/transport/http/api"
	"leaveledger/internal/transport/http/middleware"
	"leaveledger/internal/transport/http/shared"
)

type Handler struct {
	Service     *ledger.Service
	Perms       middleware.PermissionStore
	Idempotency *middleware.IdempotencyStore
	Metrics     *metrics.Collector
}

func NewHandler(service *ledger.Service, perms middleware.PermissionStore, idem *middleware.IdempotencyStore, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Perms: perms, Idempotency: idem, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/entries", h.handleCreateEntry)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Delete("/entries/{entryID}", h.handleDeleteEntry)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/entries", h.handleListEntries)
		r.With(middleware.RequirePermission(auth.PermLeaveAdjust, h.Perms)).Post("/balances/adjust", h.handleAdjustBalances)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/balances/{memberID}", h.handleBalanceSnapshot)
	})
}

type createEntryRequest struct {
	MemberID string  `json:"memberId"`
	Category string  `json:"category"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Slot     string  `json:"slot"`
	FromSec  int     `json:"fromSec"`
	ToSec    int     `json:"toSec"`
	Amount   float64 `json:"amount"`
}

type createEntryResponse struct {
	EntryIDs []string `json:"entryIds"`
	Units    int      `json:"units"`
}

func (h *Handler) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "unable to read request body", reqID)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	requestHash := middleware.RequestHash(raw)
	if idemKey != "" {
		stored, found, err := h.Idempotency.Check(r.Context(), actor.ID, "leave.entries.create", idemKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", reqID)
			return
		}
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "idempotency_failed", "idempotency check failed", reqID)
			return
		}
		if found {
			var replay createEntryResponse
			if err := json.Unmarshal(stored, &replay); err == nil {
				api.Created(w, replay, reqID)
				return
			}
		}
	}

	var payload createEntryRequest
	if err := json.Unmarshal(raw, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("memberId", payload.MemberID, "member id is required")
	v.Required("category", payload.Category, "category is required")
	from, _ := v.Date("from", payload.From)
	var to time.Time
	if payload.To != "" {
		to, _ = v.Date("to", payload.To)
		v.DateOrder("from", from, "to", to)
	}
	if payload.Slot != "" {
		v.Enum("slot", payload.Slot, []string{ledger.SlotBeforeNoon, ledger.SlotAfterNoon}, "must be before_noon or after_noon")
	}
	if v.Reject(w, reqID) {
		return
	}

	cat, err := category.Parse(payload.Category)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "unknown_category", "unknown leave category", reqID)
		return
	}

	ids, err := h.Service.CreateLeave(r.Context(), actor, payload.MemberID, cat,
		ledger.DateSpec{From: from, To: to},
		ledger.SubOption{Slot: payload.Slot, FromSec: payload.FromSec, ToSec: payload.ToSec, Amount: payload.Amount})
	if err != nil {
		failFromError(w, err, reqID)
		return
	}

	resp := createEntryResponse{EntryIDs: ids, Units: len(ids)}
	if idemKey != "" {
		encoded, err := json.Marshal(resp)
		if err == nil {
			if err := h.Idempotency.Save(r.Context(), actor.ID, "leave.entries.create", idemKey, requestHash, encoded); err != nil {
				slog.Warn("idempotency save failed", "err", err)
			}
		}
	}
	if h.Metrics != nil {
		h.Metrics.RecordMutation()
	}
	api.Created(w, resp, reqID)
}

func (h *Handler) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	entryID := chi.URLParam(r, "entryID")
	if err := h.Service.DeleteLeave(r.Context(), actor, entryID); err != nil {
		failFromError(w, err, reqID)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordMutation()
	}
	api.Success(w, map[string]string{"deleted": entryID}, reqID)
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	memberID := strings.TrimSpace(r.URL.Query().Get("memberId"))
	if memberID == "" {
		memberID = actor.MemberID
	}
	if memberID == "" {
		api.Fail(w, http.StatusBadRequest, "member_required", "memberId query parameter is required", reqID)
		return
	}

	v := shared.NewValidator()
	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, _ = v.Date("from", raw)
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, _ = v.Date("to", raw)
	}
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, reqID) {
		return
	}

	entries, err := h.Service.ListEntries(r.Context(), actor, memberID, from, to)
	if err != nil {
		failFromError(w, err, reqID)
		return
	}
	api.Success(w, entries, reqID)
}

type adjustRequest struct {
	MemberID string             `json:"memberId"`
	Granted  map[string]float64 `json:"granted"`
}

func (h *Handler) handleAdjustBalances(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	var payload adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("memberId", payload.MemberID, "member id is required")
	if len(payload.Granted) == 0 {
		v.Add("granted", "at least one category is required")
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
		granted[cat] = value
	}

	if err := h.Service.AdjustGrantedBalances(r.Context(), actor, payload.MemberID, granted); err != nil {
		failFromError(w, err, reqID)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordMutation()
	}
	api.Success(w, map[string]string{"memberId": payload.MemberID}, reqID)
}

func (h *Handler) handleBalanceSnapshot(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	snapshot, err := h.Service.BalanceSnapshot(r.Context(), actor, chi.URLParam(r, "memberID"))
	if err != nil {
		failFromError(w, err, reqID)
		return
	}
	api.Success(w, snapshot, reqID)
}

// failFromError maps service sentinels onto HTTP statuses. Occupancy
// conflicts are 409, balance violations 422, bad parameters 400.
func failFromError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, ledger.ErrFullDayExists):
		api.Fail(w, http.StatusConflict, "full_day_exists", "a full-day entry already occupies this date", reqID)
	case errors.Is(err, ledger.ErrDayOccupied):
		api.Fail(w, http.StatusConflict, "day_occupied", "the date already has leave booked", reqID)
	case errors.Is(err, ledger.ErrDuplicateHalfDay):
		api.Fail(w, http.StatusConflict, "duplicate_half_day", "this half-day slot is already booked", reqID)
	case errors.Is(err, ledger.ErrNoonBoundary):
		api.Fail(w, http.StatusConflict, "noon_boundary_conflict", "the time window conflicts with a half-day booking", reqID)
	case errors.Is(err, ledger.ErrShortOverlap):
		api.Fail(w, http.StatusConflict, "short_overlap", "the time window overlaps an existing short leave", reqID)
	case errors.Is(err, ledger.ErrInvalidTime):
		api.Fail(w, http.StatusBadRequest, "invalid_time_window", "the time window is invalid", reqID)
	case errors.Is(err, ledger.ErrInvalidSlot):
		api.Fail(w, http.StatusBadRequest, "invalid_slot", "the half-day slot is invalid", reqID)
	case errors.Is(err, ledger.ErrInvalidDateRange):
		api.Fail(w, http.StatusBadRequest, "invalid_date_range", "the date range is invalid for this category", reqID)
	case errors.Is(err, ledger.ErrInvalidAmount):
		api.Fail(w, http.StatusBadRequest, "invalid_amount", "the amount is invalid", reqID)
	case errors.Is(err, ledger.ErrInsufficientBalance):
		api.Fail(w, http.StatusUnprocessableEntity, "insufficient_balance", "remaining balance does not cover the request", reqID)
	case errors.Is(err, ledger.ErrNegativeRemaining):
		api.Fail(w, http.StatusUnprocessableEntity, "negative_remaining", "the adjustment would drive remaining below zero", reqID)
	case errors.Is(err, ledger.ErrMemberNotFound):
		api.Fail(w, http.StatusNotFound, "member_not_found", "member not found", reqID)
	case errors.Is(err, ledger.ErrEntryNotFound):
		api.Fail(w, http.StatusNotFound, "entry_not_found", "entry not found", reqID)
	case errors.Is(err, ledger.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed for this member", reqID)
	default:
		slog.Error("ledger operation failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "ledger_failed", "ledger operation failed", reqID)
	}
}
