package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hugh/boardstack/internal/api/handlers"
	"github.com/hugh/boardstack/internal/api/middleware"
	"github.com/hugh/boardstack/internal/auth"
	"github.com/hugh/boardstack/internal/identity"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	Identity       identity.Provider
	AllowedOrigins []string
	RateLimitReqs  int
	RateLimitSecs  int
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	meHandler := handlers.NewMeHandler()
	boardHandler := handlers.NewBoardHandler()
	cardHandler := handlers.NewCardHandler()
	memberHandler := handlers.NewMemberHandler()
	schemeHandler := handlers.NewSchemeHandler()

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes; everything below requires a valid identity assertion.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTService, cfg.DB, cfg.Identity, cfg.Logger))

		r.Get("/me", meHandler.Get)

		r.Route("/boards", func(r chi.Router) {
			r.Get("/", boardHandler.List)
			r.Post("/", boardHandler.Create)
			r.Get("/{id}", boardHandler.Get)
			r.Put("/{id}", boardHandler.Update)
			r.Delete("/{id}", boardHandler.Delete)

			r.Get("/{id}/lists", cardHandler.ListLists)
			r.Post("/{id}/lists", cardHandler.CreateList)
			r.Put("/{id}/lists/reorder", boardHandler.ReorderLists)

			r.Get("/{id}/cards", cardHandler.ListCards)
			r.Post("/{id}/cards", cardHandler.CreateCard)
			r.Put("/{id}/cards/reorder", boardHandler.ReorderCards)

			r.Get("/{id}/members", memberHandler.List)
			r.Post("/{id}/members", memberHandler.Add)
			r.Put("/{id}/members/{userID}", memberHandler.UpdateRole)
			r.Delete("/{id}/members/{userID}", memberHandler.Remove)
			r.Put("/{id}/members/{userID}/scheme", schemeHandler.AssignToMember)

			r.Put("/{id}/scheme", schemeHandler.AssignToBoard)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Put("/{id}", cardHandler.UpdateCard)
			r.Delete("/{id}", cardHandler.DeleteCard)
			r.Post("/{id}/comments", cardHandler.CreateComment)
			r.Put("/{id}/labels/{labelID}", cardHandler.AssignLabel)
			r.Delete("/{id}/labels/{labelID}", cardHandler.UnassignLabel)
		})

		r.Route("/schemes", func(r chi.Router) {
			r.Get("/", schemeHandler.List)
			r.Post("/", schemeHandler.Create)
			r.Get("/{id}", schemeHandler.Get)
			r.Delete("/{id}", schemeHandler.Delete)
			r.Put("/{id}/entries", schemeHandler.UpsertEntries)
			r.Post("/{id}/default", schemeHandler.SetDefault)
		})
	})

	return &Router{r}
}
