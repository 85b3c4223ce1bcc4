package main

import (
	"net/http"

	"focusService/internal/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (app *Config) routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Use(middleware.Heartbeat("/ping"))

	sessionHandler := NewSessionHandler(app.Registry, app.Settings, app.Store)
	taskHandler := NewTaskHandler(app.Store)

	// Viewers may read the timer; only owners may drive it.
	readers, owners := app.guards()

	mux.With(readers).Get("/session", sessionHandler.GetState)
	mux.With(readers).Get("/session/stats", sessionHandler.GetStats)
	mux.With(readers).Get("/session/stream", sessionHandler.Stream)
	mux.With(owners).Post("/session/start", sessionHandler.Start)
	mux.With(owners).Post("/session/pause", sessionHandler.Pause)
	mux.With(owners).Post("/session/resume", sessionHandler.Resume)
	mux.With(owners).Post("/session/skip", sessionHandler.Skip)
	mux.With(owners).Post("/session/stop", sessionHandler.Stop)

	mux.With(readers).Get("/settings", sessionHandler.GetSettings)
	mux.With(owners).Put("/settings", sessionHandler.PutSettings)

	mux.With(readers).Get("/tasks", taskHandler.ListTasks)
	mux.With(readers).Get("/tasks/{id}", taskHandler.GetTask)
	mux.With(readers).Get("/tasks/{id}/focus", taskHandler.ListFocus)
	mux.With(owners).Post("/tasks", taskHandler.CreateTask)

	if app.AuthRepo != nil {
		authHandler := NewAuthHandler(app.AuthRepo)
		mux.Post("/auth/register", authHandler.RegisterUser)
		mux.Post("/auth/login", authHandler.LoginUser)
		// Owner registration (development/testing only)
		mux.Post("/auth/register-owner", authHandler.RegisterOwner)
		mux.With(auth.RequireAnyRole(app.AuthRepo)).Get("/auth/profile", authHandler.GetProfile)
	}

	return mux
}

// guards returns the read and command middlewares. Without an auth
// repository every route is open.
func (app *Config) guards() (readers, owners func(http.Handler) http.Handler) {
	if app.AuthRepo == nil {
		open := func(next http.Handler) http.Handler { return next }
		return open, open
	}
	return auth.RequireAnyRole(app.AuthRepo), auth.RequireOwner(app.AuthRepo)
}
