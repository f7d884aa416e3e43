package config

import (
	"log/slog"
	"testing"
)

func TestLogLevel(t *testing.T) {
	cfg := &Config{Env: "development"}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level in development, got %v", cfg.LogLevel())
	}

	cfg.Env = "production"
	if cfg.LogLevel() != slog.LevelInfo {
		t.Fatalf("expected info level in production, got %v", cfg.LogLevel())
	}

	cfg.Env = ""
	if cfg.LogLevel() != slog.LevelInfo {
		t.Fatalf("expected info level for empty env, got %v", cfg.LogLevel())
	}
}

func TestMongoDBFromURI(t *testing.T) {
	if db := mongoDBFromURI("mongodb://localhost:27017/docbook"); db != "docbook" {
		t.Fatalf("expected docbook, got %q", db)
	}
	if db := mongoDBFromURI("mongodb://localhost:27017"); db != "" {
		t.Fatalf("expected empty db name, got %q", db)
	}
	if db := mongoDBFromURI("mongodb://localhost:27017/docbook/extra"); db != "docbook" {
		t.Fatalf("expected first path segment, got %q", db)
	}
}
