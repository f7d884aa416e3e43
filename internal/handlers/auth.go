package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docbook-backend/internal/auth"
	"docbook-backend/internal/middleware"
	"docbook-backend/internal/models"
	"docbook-backend/internal/transport"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Image    string `json:"image"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ActorResponse is the client-facing shape of the authenticated identity.
type ActorResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Image    string `json:"image,omitempty"`
	IsAdmin  bool   `json:"isAdmin"`
	IsDoctor bool   `json:"isDoctor"`
}

func actorResponse(a auth.Actor) ActorResponse {
	return ActorResponse{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Image:    a.Image,
		IsAdmin:  a.IsAdmin,
		IsDoctor: a.IsDoctor,
	}
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("auth register: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.Val.Struct(req); err != nil {
		log.Warn("auth register: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Error("auth register: hash error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "password error", nil)
		return
	}

	now := time.Now().In(s.Cfg.Timezone)
	user := models.User{
		ID:           primitive.NewObjectID().Hex(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Image:        req.Image,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := s.Cols.Users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Warn("auth register: email exists", slog.String("email", req.Email))
			transport.WriteError(w, http.StatusConflict, "user already exists with this email", nil)
			return
		}
		log.Error("auth register: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	if err := s.issueSession(w, user.ID); err != nil {
		log.Error("auth register: token error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return
	}

	log.Info("auth register: ok", slog.String("user_id", user.ID))
	transport.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"user": actorResponse(auth.Actor{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Image:    user.Image,
		}),
	})
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("auth login: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.Val.Struct(req); err != nil {
		log.Warn("auth login: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	if err := s.Cols.Users.FindOne(ctx, bson.M{"email": req.Email}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn("auth login: unknown email", slog.String("email", req.Email))
			transport.WriteError(w, http.StatusUnauthorized, "invalid email or password", nil)
			return
		}
		log.Error("auth login: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	if err := auth.ComparePassword(user.PasswordHash, req.Password); err != nil {
		log.Warn("auth login: bad password", slog.String("email", req.Email))
		transport.WriteError(w, http.StatusUnauthorized, "invalid email or password", nil)
		return
	}

	if err := s.issueSession(w, user.ID); err != nil {
		log.Error("auth login: token error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "token error", nil)
		return
	}

	log.Info("auth login: ok", slog.String("user_id", user.ID))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user": actorResponse(auth.Actor{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Image:    user.Image,
			IsAdmin:  user.IsAdmin,
			IsDoctor: user.IsDoctor,
		}),
	})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	clearSessionCookie(w, s.Cfg.CookieSecure)
	log.Info("auth logout: ok")
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
		return
	}
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": actorResponse(actor)})
}

func (s *Server) issueSession(w http.ResponseWriter, userID string) error {
	if s.JWT == nil {
		return errSessionNotConfigured
	}
	token, err := s.JWT.NewSessionToken(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.JWT.SessionTTL.Seconds()),
	})
	return nil
}

func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
		MaxAge:   -1,
	})
}
