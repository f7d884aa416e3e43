package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docbook-backend/internal/appointments"
	"docbook-backend/internal/auth"
	"docbook-backend/internal/cache"
	"docbook-backend/internal/config"
	"docbook-backend/internal/db"
	"docbook-backend/internal/doctors"
	"docbook-backend/internal/handlers"
	"docbook-backend/internal/middleware"
	"docbook-backend/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected")
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		var err error
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected")
		cacheStore = redisCache
	}

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	jwtManager := &auth.Manager{
		Secret:     []byte(cfg.JWTSecret),
		SessionTTL: time.Duration(cfg.SessionTTLHours) * time.Hour,
		Issuer:     "docbook-backend",
	}

	val := validation.New()

	doctorsRepo := doctors.NewRepository(cols.Doctors)
	userFlags := doctors.NewUserFlags(cols.Users)
	doctorsService := doctors.NewService(doctorsRepo, userFlags, cfg.Timezone)
	doctorsHandler := doctors.NewHandler(doctorsService, val, cacheStore, time.Duration(cfg.CacheTTLSeconds)*time.Second, logger)

	appointmentsRepo := appointments.NewRepository(cols.Appointments)
	appointmentsService := appointments.NewService(appointmentsRepo, doctorsRepo, cfg.Timezone)
	appointmentsHandler := appointments.NewHandler(appointmentsService, val, logger)

	server := &handlers.Server{
		Cfg:          cfg,
		Cols:         cols,
		Val:          val,
		Log:          logger,
		JWT:          jwtManager,
		Doctors:      doctorsService,
		Appointments: appointmentsService,
	}

	sessionAuth := middleware.SessionAuth(jwtManager, cols.Users)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	authLimiter := middleware.NewRateLimiter(cfg.RateLimitAuth, time.Duration(cfg.RateLimitWindowSec)*time.Second)
	bookingLimiter := middleware.NewRateLimiter(cfg.RateLimitBooking, time.Duration(cfg.RateLimitWindowSec)*time.Second)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", server.Health)

		api.Route("/auth", func(ar chi.Router) {
			ar.With(authLimiter.Middleware).Post("/register", server.Register)
			ar.With(authLimiter.Middleware).Post("/login", server.Login)
			ar.Post("/logout", server.Logout)
			ar.With(sessionAuth).Get("/me", server.Me)
		})

		api.Route("/users", func(ur chi.Router) {
			ur.Use(sessionAuth)
			ur.Get("/profile", server.GetProfile)
			ur.Put("/profile", server.UpdateProfile)
		})

		api.Route("/doctors", func(dr chi.Router) {
			dr.Get("/", doctorsHandler.PublicList)
			dr.Get("/speciality/{speciality}", doctorsHandler.PublicListBySpeciality)

			dr.Group(func(protected chi.Router) {
				protected.Use(sessionAuth)
				protected.Post("/apply", doctorsHandler.Apply)
				protected.Get("/application/status", doctorsHandler.ApplicationStatus)
				protected.With(middleware.RequireDoctor).Get("/profile/me", doctorsHandler.OwnProfile)
				protected.With(middleware.RequireDoctor).Put("/profile", doctorsHandler.UpdateProfile)
			})

			// Keep the id route last so it cannot shadow the fixed paths.
			dr.Get("/{id}", doctorsHandler.PublicGet)
		})

		api.Route("/appointments", func(ar chi.Router) {
			ar.Use(sessionAuth)
			ar.With(bookingLimiter.Middleware).Post("/book", appointmentsHandler.Book)
			ar.Get("/my-appointments", appointmentsHandler.ListMine)
			ar.With(middleware.RequireDoctor).Get("/doctor-appointments", appointmentsHandler.ListForDoctor)
			ar.With(middleware.RequireDoctor).Put("/{id}/status", appointmentsHandler.UpdateStatus)
			ar.Put("/{id}/cancel", appointmentsHandler.Cancel)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(sessionAuth)
			admin.Use(middleware.RequireAdmin)
			admin.Get("/users", server.AdminListUsers)
			admin.Delete("/users/{id}", server.AdminDeleteUser)
			admin.Get("/doctors", doctorsHandler.AdminList)
			admin.Put("/doctors/{id}/approve", doctorsHandler.AdminApprove)
			admin.Put("/doctors/{id}/block", doctorsHandler.AdminBlock)
			admin.Put("/doctors/{id}/unblock", doctorsHandler.AdminUnblock)
			admin.Get("/stats", server.AdminStats)
		})
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
