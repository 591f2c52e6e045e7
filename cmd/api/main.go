package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/gramtop961/backend/internal/auth"
	"github.com/gramtop961/backend/internal/config"
	"github.com/gramtop961/backend/internal/db"
	"github.com/gramtop961/backend/internal/handlers"
	"github.com/gramtop961/backend/internal/logger"
	"github.com/gramtop961/backend/internal/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()
	zlog, cleanup := logger.New(cfg.LogLevel)
	defer cleanup()

	// The store is optional: with no DATABASE_URL, or an unreachable one,
	// the API still serves and store-backed endpoints report 500.
	database := connectDB(cfg, zlog)
	if database != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = database.Close(ctx)
		}()
	}

	issuer := &auth.Issuer{Secret: []byte(cfg.SecretKey), TTL: cfg.TokenTTL}
	h := handlers.NewHandler(database, db.NewUsers(database), issuer, zlog)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public
	r.Get("/", h.System.Root)
	r.Get("/api/hello", h.System.Hello)
	r.Get("/test", h.System.Test)
	r.Post("/auth/signup", h.Auth.SignUp)
	r.Post("/auth/login", h.Auth.Login)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(issuer))

		r.Get("/auth/me", h.Auth.Me)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zlog.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exited")
}

func connectDB(cfg config.Config, zlog *zap.Logger) *db.DB {
	if cfg.DatabaseURL == "" {
		zlog.Warn("DATABASE_URL not set, store-backed endpoints will be unavailable")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		zlog.Warn("db connect failed, continuing without store", zap.Error(err))
		return nil
	}

	if err := database.EnsureIndexes(ctx); err != nil {
		// Without the index, concurrent signups with the same email can
		// both pass the existence check.
		zlog.Warn("ensure indexes", zap.Error(err))
	}

	zlog.Info("database connected", zap.String("name", database.Name()))
	return database
}
