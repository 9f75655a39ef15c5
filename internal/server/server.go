// Package server maps the HTTP surface onto the repository layer:
// routing, auth gating, input validation and response shaping.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ErkanEron/melonotes/internal/auth"
	"github.com/ErkanEron/melonotes/internal/notes"
	"github.com/ErkanEron/melonotes/internal/store"
)

// Server holds the request handlers and their collaborators.
type Server struct {
	store      store.Store
	repo       *notes.Repository
	auth       *auth.Authenticator
	uploadsDir string
	log        zerolog.Logger
}

// New wires a server over an open store.
func New(st store.Store, authn *auth.Authenticator, uploadsDir string, log zerolog.Logger) *Server {
	return &Server{
		store:      st,
		repo:       notes.New(st, log),
		auth:       authn,
		uploadsDir: uploadsDir,
		log:        log.With().Str("component", "http").Logger(),
	}
}

// Router builds the full route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleBanner)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/auth/verify", s.handleVerify)

			r.Get("/categories", s.handleListCategories)
			r.Post("/categories", s.handleCreateCategory)
			r.Put("/categories/{id}", s.handleUpdateCategory)
			r.Delete("/categories/{id}", s.handleDeleteCategory)

			r.Get("/tags", s.handleListTags)
			r.Post("/tags", s.handleCreateTag)
			r.Delete("/tags/{id}", s.handleDeleteTag)

			r.Get("/notes", s.handleListNotes)
			r.Post("/notes", s.handleCreateNote)
			r.Get("/notes/{id}", s.handleGetNote)
			r.Put("/notes/{id}", s.handleUpdateNote)
			r.Delete("/notes/{id}", s.handleDeleteNote)

			r.Put("/steps/{id}", s.handleUpdateStep)

			r.Post("/upload", s.handleUpload)
		})
	})

	fileServer := http.FileServer(http.Dir(s.uploadsDir))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))

	return r
}

func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to the MELONOTES API",
		"endpoints": []string{
			"POST /api/auth/login - Login",
			"GET /api/notes - Get all notes (protected)",
			"POST /api/notes - Create new note (protected)",
			"GET /api/categories - Get categories (protected)",
			"GET /api/tags - Get tags (protected)",
			"POST /api/upload - Upload images (protected)",
		},
	})
}

type ctxKey int

const claimsKey ctxKey = iota

// requireAuth rejects requests without a valid bearer token and makes
// the verified claims available to handlers.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.FromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Access denied. Invalid or missing token.")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
