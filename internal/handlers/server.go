package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"docbook-backend/internal/appointments"
	"docbook-backend/internal/auth"
	"docbook-backend/internal/config"
	"docbook-backend/internal/db"
	"docbook-backend/internal/doctors"
	"docbook-backend/internal/httpx"
	"docbook-backend/internal/middleware"
	"docbook-backend/internal/validation"

	"github.com/go-playground/validator/v10"
)

var errSessionNotConfigured = errors.New("session auth not configured")

type Server struct {
	Cfg          *config.Config
	Cols         *db.Collections
	Val          *validation.Validator
	Log          *slog.Logger
	JWT          *auth.Manager
	Doctors      *doctors.Service
	Appointments *appointments.Service
}

func (s *Server) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return s.Log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return s.Log.With(slog.String("request_id", id))
	}
	return s.Log
}

func decodeJSON(r *http.Request, v interface{}) error {
	return httpx.DecodeJSON(r.Body, v)
}

func validationDetails(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, err := range errs {
		details[err.Field()] = err.Tag()
	}
	return details
}
