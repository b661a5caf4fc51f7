package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/attendance-cam/internal/web/handlers"
	"github.com/kozaktomas/attendance-cam/internal/web/middleware"
	"github.com/kozaktomas/attendance-cam/internal/web/static"
)

func (s *Server) setupRoutes() {
	// Create handlers
	controlHandler := handlers.NewControlHandler(s.deps.Loop)
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Attendance)
	galleryHandler := handlers.NewGalleryHandler(s.deps.Gallery)
	eventsHandler := handlers.NewEventsHandler(s.deps.Events, s.deps.Loop)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		// Request/response endpoints
		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(30 * time.Second))

			r.Get("/status", controlHandler.Status)
			r.Get("/feed", controlHandler.Feed)
			r.Get("/frame.jpg", controlHandler.Frame)
			r.Post("/stop", controlHandler.Stop)

			r.Get("/attendance", attendanceHandler.List)

			r.Get("/gallery", galleryHandler.List)
			r.Post("/gallery/reset", controlHandler.ResetGallery)
		})

		// Streams
		r.Get("/events", eventsHandler.Stream)
		if s.deps.Hub != nil {
			r.Get("/live", s.deps.Hub.ServeHTTP)
		}
	})

	// Dashboard
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.SecurityHeaders())
		r.Handle("/*", http.FileServer(static.FileSystem()))
	})
}
