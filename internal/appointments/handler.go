package appointments

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docbook-backend/internal/httpx"
	"docbook-backend/internal/middleware"
	"docbook-backend/internal/transport"
	"docbook-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		val:     val,
		log:     log,
	}
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
		return
	}

	var req BookRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("appointments book: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("appointments book: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	appointment, err := h.service.Book(ctx, actor, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrDoctorUnavailable):
			log.Warn("appointments book: doctor unavailable", slog.String("doctor_id", req.DoctorID))
			transport.WriteError(w, http.StatusBadRequest, "doctor is not available for appointments", nil)
		case errors.Is(err, ErrSlotTaken):
			log.Warn("appointments book: slot taken",
				slog.String("doctor_id", req.DoctorID),
				slog.String("date", req.Date),
				slog.String("time", req.Time),
			)
			transport.WriteError(w, http.StatusConflict, "this time slot is already booked", nil)
		default:
			log.Error("appointments book: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	log.Info("appointments book: ok",
		slog.String("appointment_id", appointment.ID),
		slog.String("doctor_id", appointment.DoctorID),
		slog.String("date", appointment.Date),
		slog.String("time", appointment.Time),
	)
	transport.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"appointment": appointment,
	})
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := h.service.ListForUser(ctx, actor)
	if err != nil {
		log.Error("appointments list mine: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("appointments list mine: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"appointments": items})
}

func (h *Handler) ListForDoctor(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := h.service.ListForDoctor(ctx, actor)
	if err != nil {
		if errors.Is(err, ErrNoDoctorProfile) {
			log.Warn("appointments doctor list: no doctor profile", slog.String("user_id", actor.ID))
			transport.WriteError(w, http.StatusNotFound, "doctor profile not found", nil)
			return
		}
		log.Error("appointments doctor list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("appointments doctor list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"appointments": items})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("appointments status: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req StatusUpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("appointments status: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("appointments status: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appointment, err := h.service.UpdateStatus(ctx, actor, id, req.Status)
	if err != nil {
		h.writeTransitionError(w, log, "appointments status", id, err)
		return
	}

	log.Info("appointments status: ok", slog.String("appointment_id", id), slog.String("status", appointment.Status))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"appointment": appointment})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("appointments cancel: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appointment, err := h.service.Cancel(ctx, actor, id)
	if err != nil {
		h.writeTransitionError(w, log, "appointments cancel", id, err)
		return
	}

	log.Info("appointments cancel: ok", slog.String("appointment_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"appointment": appointment})
}

func (h *Handler) writeTransitionError(w http.ResponseWriter, log *slog.Logger, op, id string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		log.Warn(op+": not found", slog.String("appointment_id", id))
		transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
	case errors.Is(err, ErrNotAuthorized):
		log.Warn(op+": not authorized", slog.String("appointment_id", id))
		transport.WriteError(w, http.StatusForbidden, "not authorized", nil)
	case errors.Is(err, ErrInvalidTransition):
		log.Warn(op+": invalid transition", slog.String("appointment_id", id))
		transport.WriteError(w, http.StatusBadRequest, "invalid status transition", nil)
	case errors.Is(err, ErrInvalidStatus):
		transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"status": "oneof"})
	default:
		log.Error(op+": database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
	}
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
