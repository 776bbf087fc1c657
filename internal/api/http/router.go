package http

import (
	"database/sql"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-examsim/internal/auth"
	authmw "github.com/mind-engage/mindengage-examsim/internal/auth/middleware"
	"github.com/mind-engage/mindengage-examsim/internal/bank"
	"github.com/mind-engage/mindengage-examsim/internal/bookmarks"
	"github.com/mind-engage/mindengage-examsim/internal/logging"
	"github.com/mind-engage/mindengage-examsim/internal/metrics"
	"github.com/mind-engage/mindengage-examsim/internal/rbac"
	"github.com/mind-engage/mindengage-examsim/internal/session"
	"github.com/mind-engage/mindengage-examsim/internal/storage"
)

// Deps is everything the HTTP surface needs.
type Deps struct {
	Log       *zap.Logger
	DB        *sql.DB
	Auth      *authmw.AuthService
	Admin     authmw.Admin
	Library   *bank.Library
	Blobs     storage.BlobStore
	Sessions  *session.Service
	Folders   *bookmarks.Service
	Limiter   *RateLimiter // nil disables rate limiting
	Gatherer  prometheus.Gatherer
	Origins   []string
	LocalAuth bool
	GuestAuth bool
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.Middleware(d.Log), middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", HealthzHandler)
	r.Get("/readyz", ReadyzHandler(d.DB, d.Library))
	if d.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(d.Gatherer))
	}

	r.Group(func(pr chi.Router) {
		if d.Limiter != nil {
			pr.Use(d.Limiter.Middleware)
		}

		if d.LocalAuth {
			pr.Post("/auth/login", authmw.LoginHandler(d.Auth, d.DB, d.Admin))
			pr.Post("/auth/register", authmw.RegisterHandler(d.Auth, d.DB))
		}
		pr.Post("/auth/guest", auth.GuestLoginHandler(d.Auth, d.DB, d.GuestAuth))

		// JWT → subject and stored role in context → RBAC
		pr.Group(func(pr chi.Router) {
			pr.Use(authmw.JWTMiddleware(d.Auth), authmw.AttachRoleFromDB(d.DB))

			pr.With(rbac.Require("bank:stats")).Get("/bank/stats", BankStatsHandler(d.Library))
			pr.With(rbac.Require("bank:upload")).Put("/bank/collections/{file}", UploadCollectionHandler(d.Library, d.Blobs, d.Log))
			pr.With(rbac.Require("bank:upload")).Post("/bank/reload", ReloadBankHandler(d.Library))

			pr.Route("/sessions", SessionHandlers{Sessions: d.Sessions}.Mount)
			pr.Route("/folders", FolderHandlers{Folders: d.Folders, Sessions: d.Sessions}.Mount)

			pr.Post("/users/me/password", ChangePasswordHandler(d.DB))
			pr.With(rbac.Require("users:list")).Get("/users", ListUsersHandler(d.DB))
			pr.With(rbac.Require("users:manage")).Patch("/users/{userID}/role", UpdateUserRoleHandler(d.DB))
			pr.With(rbac.Require("users:manage")).Post("/users/bulk", BulkUpsertUsersHandler(d.DB))
		})
	})
	return r
}
