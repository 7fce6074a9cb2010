package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/camden-git/checkinkiosk/config"
	"github.com/camden-git/checkinkiosk/media"
	"github.com/camden-git/checkinkiosk/realtime"
	"github.com/camden-git/checkinkiosk/services"
)

// Server bundles what the HTTP surface needs.
type Server struct {
	Cfg          config.Config
	Participants *services.ParticipantService
	Analytics    *services.AnalyticsService
	Exports      *services.ExportService
	Photos       media.Store
	Hub          *realtime.Hub
}

// Health reports liveness and the number of websocket clients.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	clients := 0
	if s.Hub != nil {
		clients = s.Hub.ClientCount()
	}
	WriteOK(w, map[string]interface{}{"ws_clients": clients})
}

// NewRouter wires middleware and every route.
func NewRouter(s *Server) http.Handler {
	cfg := s.Cfg
	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler.Handler)

	participantHandler := &ParticipantHandler{Service: s.Participants}
	statsHandler := &StatsHandler{Analytics: s.Analytics}
	exportHandler := &ExportHandler{Exports: s.Exports}
	admin := AdminAuth(cfg.AdminPasswordHash)

	// the websocket must not sit behind the request timeout
	r.Get("/ws", s.Hub.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/healthz", s.Health)

		r.Route("/api", func(r chi.Router) {
			r.NotFound(func(w http.ResponseWriter, r *http.Request) {
				WriteAPIError(w, http.StatusNotFound, "Endpoint tidak ditemukan.")
			})
			r.With(httprate.LimitByIP(cfg.RegisterRateLimit, time.Minute)).Post("/register", participantHandler.Register)
			r.Get("/participants", participantHandler.ListParticipants)
			r.Route("/participant/{uid}", func(r chi.Router) {
				r.Get("/", participantHandler.GetParticipant)
				r.With(admin).Put("/", participantHandler.UpdateParticipant)
				r.With(admin).Delete("/", participantHandler.DeleteParticipant)
			})
			r.Get("/stats", statsHandler.GetStats)
			r.Route("/export", func(r chi.Router) {
				r.Use(admin)
				r.Get("/csv", exportHandler.ExportCSV)
				r.Get("/json", exportHandler.ExportJSON)
				r.Get("/zip", exportHandler.ExportZIP)
				r.Get("/xlsx", exportHandler.ExportXLSX)
			})
		})

		r.Get("/"+cfg.PhotoSubDir+"/*", PhotoServer(s.Photos, cfg.PhotoSubDir))
		log.Printf("Registered photo server at /%s/*", cfg.PhotoSubDir)

		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			r.Get("/*", StaticSPA(cfg.StaticDir))
		} else {
			log.Printf("UI bundle not found at %s, serving API only", cfg.StaticDir)
		}
	})

	return r
}
