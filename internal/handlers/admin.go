package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docbook-backend/internal/httpx"
	"docbook-backend/internal/middleware"
	"docbook-backend/internal/models"
	"docbook-backend/internal/transport"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DashboardStats struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalDoctors      int64 `json:"totalDoctors"`
	PendingDoctors    int64 `json:"pendingDoctors"`
	TotalAppointments int64 `json:"totalAppointments"`
}

func (s *Server) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 50, 200)
	if err != nil {
		log.Warn("admin users list: bad pagination", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, "invalid limit or offset", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)
	cursor, err := s.Cols.Users.Find(ctx, bson.M{}, opts)
	if err != nil {
		log.Error("admin users list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	items := make([]models.User, 0)
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			log.Error("admin users list: decode error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
			return
		}
		items = append(items, user)
	}
	if err := cursor.Err(); err != nil {
		log.Error("admin users list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin users list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": items})
}

// AdminDeleteUser removes a non-admin user together with their doctor record
// and appointments. The cascade is best effort in that order: dependents
// first, so an interrupted delete never strands a doctor record or
// appointments without an owner.
func (s *Server) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		log.Warn("admin users delete: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	var user models.User
	if err := s.Cols.Users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn("admin users delete: not found", slog.String("user_id", id))
			transport.WriteError(w, http.StatusNotFound, "user not found", nil)
			return
		}
		log.Error("admin users delete: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	if user.IsAdmin {
		log.Warn("admin users delete: refusing admin", slog.String("user_id", id))
		transport.WriteError(w, http.StatusForbidden, "cannot delete admin user", nil)
		return
	}

	if err := s.Doctors.PurgeByOwner(ctx, actor, user.ID); err != nil {
		log.Error("admin users delete: doctor cascade error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if err := s.Appointments.PurgeForUser(ctx, actor, user.ID); err != nil {
		log.Error("admin users delete: appointment cascade error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if _, err := s.Cols.Users.DeleteOne(ctx, bson.M{"_id": user.ID}); err != nil {
		log.Error("admin users delete: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin users delete: ok", slog.String("user_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) AdminStats(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	totalUsers, err := s.Cols.Users.CountDocuments(ctx, bson.M{})
	if err != nil {
		log.Error("admin stats: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	totalDoctors, err := s.Doctors.CountByStatus(ctx, models.DoctorStatusApproved)
	if err != nil {
		log.Error("admin stats: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	pendingDoctors, err := s.Doctors.CountByStatus(ctx, models.DoctorStatusPending)
	if err != nil {
		log.Error("admin stats: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	totalAppointments, err := s.Appointments.Count(ctx)
	if err != nil {
		log.Error("admin stats: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin stats: ok")
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"stats": DashboardStats{
			TotalUsers:        totalUsers,
			TotalDoctors:      totalDoctors,
			PendingDoctors:    pendingDoctors,
			TotalAppointments: totalAppointments,
		},
	})
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
