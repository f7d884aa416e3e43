package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docbook-backend/internal/middleware"
	"docbook-backend/internal/models"
	"docbook-backend/internal/transport"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpdateProfileRequest carries the user-editable identity fields only; the
// capability flags are never writable through this route.
type UpdateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" validate:"omitempty,email"`
	Image    string `json:"image"`
}

func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	if err := s.Cols.Users.FindOne(ctx, bson.M{"_id": actor.ID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			transport.WriteError(w, http.StatusNotFound, "user not found", nil)
			return
		}
		log.Error("profile get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("profile get: ok", slog.String("user_id", user.ID))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
		return
	}

	var req UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("profile update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.Val.Struct(req); err != nil {
		log.Warn("profile update: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if req.Email != "" && req.Email != actor.Email {
		err := s.Cols.Users.FindOne(ctx, bson.M{"email": req.Email, "_id": bson.M{"$ne": actor.ID}}).Err()
		if err == nil {
			log.Warn("profile update: email taken", slog.String("email", req.Email))
			transport.WriteError(w, http.StatusConflict, "email already in use", nil)
			return
		}
		if err != mongo.ErrNoDocuments {
			log.Error("profile update: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
			return
		}
	}

	set := bson.M{"updatedAt": time.Now().In(s.Cfg.Timezone)}
	if req.Username != "" {
		set["username"] = req.Username
	}
	if req.Email != "" {
		set["email"] = req.Email
	}
	if req.Image != "" {
		set["image"] = req.Image
	}

	var user models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.Cols.Users.FindOneAndUpdate(ctx, bson.M{"_id": actor.ID}, bson.M{"$set": set}, opts).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			transport.WriteError(w, http.StatusNotFound, "user not found", nil)
			return
		}
		if mongo.IsDuplicateKeyError(err) {
			log.Warn("profile update: email taken", slog.String("email", req.Email))
			transport.WriteError(w, http.StatusConflict, "email already in use", nil)
			return
		}
		log.Error("profile update: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("profile update: ok", slog.String("user_id", user.ID))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
