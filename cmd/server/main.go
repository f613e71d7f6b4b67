package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lodhran-gov/complaints/internal/activity"
	"github.com/lodhran-gov/complaints/internal/attachment"
	"github.com/lodhran-gov/complaints/internal/category"
	complaintapi "github.com/lodhran-gov/complaints/internal/complaint/api"
	complaintinfra "github.com/lodhran-gov/complaints/internal/complaint/infrastructure"
	complaintservice "github.com/lodhran-gov/complaints/internal/complaint/service"
	"github.com/lodhran-gov/complaints/internal/jurisdiction"
	"github.com/lodhran-gov/complaints/internal/notification"
	"github.com/lodhran-gov/complaints/internal/role"
	"github.com/lodhran-gov/complaints/internal/shared/auth"
	"github.com/lodhran-gov/complaints/internal/shared/config"
	"github.com/lodhran-gov/complaints/internal/shared/database"
	"github.com/lodhran-gov/complaints/internal/shared/events"
	"github.com/lodhran-gov/complaints/internal/shared/metrics"
	secmiddleware "github.com/lodhran-gov/complaints/internal/shared/middleware"
	"github.com/lodhran-gov/complaints/internal/stats"
	"github.com/lodhran-gov/complaints/internal/user"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	DB     *database.DB
	Bus    *events.Bus
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	app := &App{Config: cfg}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database not available: %v\n", err)
		os.Exit(1)
	}
	app.DB = db
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	// Realtime bus is optional, notifications are persisted either way
	bus, err := events.NewBus(ctx, cfg.Redis)
	if err != nil {
		fmt.Printf("Warning: Redis not available, realtime delivery disabled: %v\n", err)
	} else if bus != nil {
		app.Bus = bus
		defer bus.Close()
		fmt.Println("Realtime event bus initialized")
	}

	// Shared infrastructure
	policies := jurisdiction.NewPolicies()

	roleRepo := role.NewRepository(db.Pool)
	registry := role.NewRegistry(roleRepo, cfg.Roles.TTL)

	activityRepo := activity.NewRepository(db.Pool)
	recorder := activity.NewLogger(activityRepo)

	userRepo := user.NewRepository(db.Pool)

	notificationRepo := notification.NewRepository(db.Pool)
	var publisher notification.Publisher
	if app.Bus != nil {
		publisher = app.Bus
	}
	notifier := notification.NewService(notificationRepo, userRepo, registry, publisher)

	jurisdictionRepo := jurisdiction.NewRepository(db.Pool)

	complaintRepo := complaintinfra.NewPostgresRepository(db.Pool)
	complaintSvc := complaintservice.NewService(
		complaintRepo, policies, jurisdictionRepo, userRepo, notifier, recorder, cfg.Lifecycle,
	)

	// Handlers
	roleHandler := role.NewHandler(roleRepo, registry)
	userHandler := user.NewHandler(userRepo, registry, policies, cfg.Auth, recorder)
	jurisdictionHandler := jurisdiction.NewHandler(jurisdictionRepo)
	categoryHandler := category.NewHandler(category.NewRepository(db.Pool))
	complaintHandler := complaintapi.NewHandler(complaintSvc)
	notificationHandler := notification.NewHandler(notificationRepo)
	statsHandler := stats.NewHandler(stats.NewRepository(db.Pool), policies)
	activityHandler := activity.NewHandler(activityRepo)
	attachmentHandler := attachment.NewHandler(attachment.NewClient(cfg.Attachments))

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(secmiddleware.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.InputSanitizer)
	r.Use(secmiddleware.RateLimiter(50, 100))
	r.Use(metrics.Middleware)
	r.Use(secmiddleware.CORS(secmiddleware.DefaultCORSConfig()))

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Login and citizen registration
		r.Mount("/auth", userHandler.AuthRoutes())

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Auth))

			r.Mount("/users", userHandler.Routes())
			r.Mount("/complaints", complaintHandler.Routes())
			r.Mount("/categories", categoryHandler.Routes())
			r.Mount("/notifications", notificationHandler.Routes())
			r.Mount("/dashboard", statsHandler.Routes())
			r.Mount("/attachments", attachmentHandler.Routes())

			// Administrative surfaces
			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireRoles(role.DC))
				r.Mount("/roles", roleHandler.Routes())
				r.Mount("/activity", activityHandler.Routes())
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRoles(role.DC, role.AC))
				r.Mount("/jurisdictions", jurisdictionHandler.Routes())
			})
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		fmt.Println("\nShutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Server shutdown error: %v\n", err)
		}
		close(done)
	}()

	fmt.Println("============================================")
	fmt.Println("Lodhran Complaint Management Service")
	fmt.Println("============================================")
	fmt.Printf("Environment:  %s\n", cfg.Server.Env)
	fmt.Printf("Server:       http://localhost:%d\n", cfg.Server.Port)
	fmt.Printf("API:          http://localhost:%d/api/v1\n", cfg.Server.Port)
	fmt.Printf("Health:       http://localhost:%d/health\n", cfg.Server.Port)
	fmt.Printf("Realtime:     %v\n", app.Bus != nil)
	fmt.Println("============================================")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	fmt.Println("Server stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if err := app.DB.Health(r.Context()); err != nil {
			checks["database"] = "not ready: " + err.Error()
		} else {
			checks["database"] = "ready"
		}

		if app.Bus != nil {
			if err := app.Bus.Health(r.Context()); err != nil {
				checks["redis"] = "not ready: " + err.Error()
			} else {
				checks["redis"] = "ready"
			}
		} else {
			checks["redis"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}
