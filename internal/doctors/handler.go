package doctors

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docbook-backend/internal/auth"
	"docbook-backend/internal/cache"
	"docbook-backend/internal/httpx"
	"docbook-backend/internal/middleware"
	"docbook-backend/internal/models"
	"docbook-backend/internal/transport"
	"docbook-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

const cachePrefix = "doctors:"

type Handler struct {
	service  *Service
	val      *validation.Validator
	cache    cache.Cache
	cacheTTL time.Duration
	log      *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, cacheStore cache.Cache, cacheTTL time.Duration, log *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		val:      val,
		cache:    cacheStore,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

func (h *Handler) PublicList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	key := cachePrefix + "approved"
	if h.cache != nil {
		if payload, ok, err := h.cache.Get(r.Context(), key); err == nil && ok {
			writeCachedJSON(w, http.StatusOK, payload)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := h.service.ListApproved(ctx)
	if err != nil {
		log.Error("doctors list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	body := map[string]interface{}{"doctors": items}
	if h.cache != nil {
		if payload, err := json.Marshal(body); err == nil {
			_ = h.cache.Set(r.Context(), key, payload, h.cacheTTL)
		}
	}

	log.Info("doctors list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, body)
}

func (h *Handler) PublicListBySpeciality(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	speciality := strings.TrimSpace(chi.URLParam(r, "speciality"))
	if speciality == "" {
		log.Warn("doctors speciality: missing speciality")
		transport.WriteError(w, http.StatusBadRequest, "missing speciality", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := h.service.SearchBySpeciality(ctx, speciality)
	if err != nil {
		log.Error("doctors speciality: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("doctors speciality: ok", slog.String("speciality", speciality), slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"doctors": items})
}

func (h *Handler) PublicGet(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("doctors get: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	doctor, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("doctors get: not found", slog.String("doctor_id", id))
			transport.WriteError(w, http.StatusNotFound, "doctor not found", nil)
			return
		}
		log.Error("doctors get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("doctors get: ok", slog.String("doctor_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"doctor": doctor})
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
		return
	}

	var req ApplyRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("doctors apply: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("doctors apply: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	doctor, err := h.service.Apply(ctx, actor, req)
	if err != nil {
		if errors.Is(err, ErrAlreadyApplied) {
			log.Warn("doctors apply: already applied", slog.String("user_id", actor.ID))
			transport.WriteError(w, http.StatusConflict, "you have already applied to become a doctor", nil)
			return
		}
		log.Error("doctors apply: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("doctors apply: ok", slog.String("doctor_id", doctor.ID), slog.String("user_id", actor.ID))
	transport.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "application submitted, awaiting admin approval",
		"doctor":  doctor,
	})
}

func (h *Handler) ApplicationStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, err := h.service.ApplicationStatus(ctx, actor)
	if err != nil {
		log.Error("doctors application status: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("doctors application status: ok", slog.Bool("has_applied", status.HasApplied))
	transport.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) OwnProfile(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	doctor, err := h.service.ProfileByOwner(ctx, actor)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("doctors profile: not found", slog.String("user_id", actor.ID))
			transport.WriteError(w, http.StatusNotFound, "doctor profile not found", nil)
			return
		}
		log.Error("doctors profile: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("doctors profile: ok", slog.String("doctor_id", doctor.ID))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"doctor": doctor})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
		return
	}

	var req UpdateProfileRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("doctors profile update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("doctors profile update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	doctor, err := h.service.UpdateProfile(ctx, actor, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("doctors profile update: not found", slog.String("user_id", actor.ID))
			transport.WriteError(w, http.StatusNotFound, "doctor profile not found", nil)
			return
		}
		log.Error("doctors profile update: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	h.invalidate(r.Context())
	log.Info("doctors profile update: ok", slog.String("doctor_id", doctor.ID))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"doctor": doctor})
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := h.service.AdminList(ctx, actor)
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			transport.WriteError(w, http.StatusForbidden, "admin only", nil)
			return
		}
		log.Error("admin doctors list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin doctors list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"doctors": items})
}

func (h *Handler) AdminApprove(w http.ResponseWriter, r *http.Request) {
	h.adminSetStatus(w, r, "admin doctors approve", h.service.Approve)
}

func (h *Handler) AdminBlock(w http.ResponseWriter, r *http.Request) {
	h.adminSetStatus(w, r, "admin doctors block", h.service.Block)
}

// AdminUnblock returns a blocked doctor to approved; the lifecycle has no
// separate unblocked state.
func (h *Handler) AdminUnblock(w http.ResponseWriter, r *http.Request) {
	h.adminSetStatus(w, r, "admin doctors unblock", h.service.Approve)
}

func (h *Handler) adminSetStatus(w http.ResponseWriter, r *http.Request, op string, apply func(context.Context, auth.Actor, string) (models.Doctor, error)) {
	log := h.logWithRequest(r)
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn(op + ": missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	doctor, err := apply(ctx, actor, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAuthorized):
			transport.WriteError(w, http.StatusForbidden, "admin only", nil)
		case errors.Is(err, ErrNotFound):
			log.Warn(op+": not found", slog.String("doctor_id", id))
			transport.WriteError(w, http.StatusNotFound, "doctor not found", nil)
		case errors.Is(err, ErrInvalidTransition):
			log.Warn(op+": invalid transition", slog.String("doctor_id", id))
			transport.WriteError(w, http.StatusBadRequest, "invalid status transition", nil)
		default:
			log.Error(op+": database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	h.invalidate(r.Context())
	log.Info(op+": ok", slog.String("doctor_id", id), slog.String("status", doctor.Status))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"doctor": doctor})
}

func (h *Handler) invalidate(ctx context.Context) {
	if h.cache != nil {
		_ = h.cache.DeletePrefix(ctx, cachePrefix)
	}
}

func writeCachedJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
