// Package server exposes the HTTP API.
package server

import (
	"context"
	"net/http"

	"plextube/internal/channelsettings"
	"plextube/internal/jobs"
	"plextube/internal/videovalidation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// VideoDownloader runs one video download, reporting a summary for job
// output.
type VideoDownloader interface {
	DownloadVideo(ctx context.Context, jobID, url string) (string, error)
}

// Server wires the services into HTTP handlers.
type Server struct {
	settings   *channelsettings.Service
	validator  *videovalidation.Service
	jobs       *jobs.Registry
	downloader VideoDownloader
}

func New(settings *channelsettings.Service, validator *videovalidation.Service, registry *jobs.Registry, downloader VideoDownloader) *Server {
	return &Server{
		settings:   settings,
		validator:  validator,
		jobs:       registry,
		downloader: downloader,
	}
}

// Router returns the API http.Handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/channels/{channelID}/settings", func(r chi.Router) {
			r.Get("/", s.handleGetChannelSettings)
			r.Put("/", s.handleUpdateChannelSettings)
		})

		r.Get("/subfolders", s.handleListSubfolders)

		r.Post("/videos/validate", s.handleValidateVideo)
		r.Post("/videos/download", s.handleDownloadVideo)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", s.handleListJobs)
			r.Get("/{jobID}", s.handleGetJob)
		})
	})

	return r
}
