package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lric3/recipes/config"
	"github.com/lric3/recipes/internal/auth"
	"github.com/lric3/recipes/internal/db"
	"github.com/lric3/recipes/internal/events"
	"github.com/lric3/recipes/internal/handlers"
	"github.com/lric3/recipes/internal/mq"
	"github.com/lric3/recipes/internal/services"
	"github.com/lric3/recipes/internal/storage"
	"github.com/lric3/recipes/internal/store"
)

// Server wraps the HTTP server and its owned resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     mq.Backend
}

// New constructs a Server with the full dependency graph wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	imageStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		// Image endpoints degrade gracefully without a backend.
		log.Printf("server: image storage disabled: %v", err)
		imageStore = nil
	}
	if imageStore != nil {
		if err := imageStore.EnsureBucket(ctx); err != nil {
			log.Printf("server: image storage disabled: %v", err)
			imageStore = nil
		} else {
			log.Printf("server: storing recipe images in bucket %q", imageStore.Bucket())
		}
	}

	broker, err := mq.New(ctx, cfg.MQ)
	if err != nil {
		log.Printf("server: event publishing disabled: %v", err)
		broker = nil
	}
	publisher := events.NewPublisher(broker)
	events.NewListener(broker).Start(ctx)

	userRepo := store.NewUserRepository(dbConn)
	recipeRepo := store.NewRecipeRepository(dbConn)
	reviewRepo := store.NewReviewRepository(dbConn)

	codec := auth.NewCodec(cfg.JWT)

	userService := services.NewUserService(userRepo)
	userContext := services.NewUserContextService(userRepo)
	authService := services.NewAuthService(userRepo, codec)
	recipeService := services.NewRecipeService(recipeRepo, imageStore, publisher)
	reviewService := services.NewReviewService(reviewRepo, recipeRepo, publisher)

	authHandler := handlers.NewAuthHandler(authService, userService, userContext)
	recipeHandler := handlers.NewRecipeHandler(recipeService, userContext)
	reviewHandler := handlers.NewReviewHandler(reviewService, userContext)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		auth.Middleware(codec, userRepo),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	router.Route("/recipes", func(r chi.Router) {
		handlers.RecipeRouter(r, recipeHandler, reviewHandler)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
