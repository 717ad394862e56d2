// Package api is the HTTP surface the delivery screens talk to.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.temporal.io/sdk/log"

	"reuseit/delivery/sessions"
	"reuseit/internal/archive"
	"reuseit/internal/keepsakes"
	"reuseit/internal/logging"
	"reuseit/internal/metrics"
	"reuseit/internal/pickup"
	"reuseit/locationsearch/search"
)

// Server holds the gateway's collaborators
type Server struct {
	Sessions  sessions.Sessions
	Archive   archive.Store
	Keepsakes keepsakes.Store
	Pickup    pickup.Directory
	Geocoder  search.Geocoder

	// RegionMarkers and Debounce configure /suggest sessions
	RegionMarkers []string
	Debounce      time.Duration

	AllowedOrigins []string
	Metrics        *metrics.Recorder
	Gatherer       prometheus.Gatherer
	Logger         log.Logger

	upgrader websocket.Upgrader
}

// Routes builds the router wrapped in the middleware chain and CORS
func (s *Server) Routes() http.Handler {
	if s.Logger == nil {
		s.Logger = logging.Nop()
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin:     s.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	std := alice.New(s.recoverPanic, s.logRequest, s.instrument)
	r := mux.NewRouter()

	r.Handle("/health", std.ThenFunc(s.health)).Methods(http.MethodGet)
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// Sessions
	r.Handle("/sessions", std.ThenFunc(s.startSession)).Methods(http.MethodPost)
	r.Handle("/sessions/{id}", std.ThenFunc(s.getSession)).Methods(http.MethodGet)
	r.Handle("/sessions/{id}", std.ThenFunc(s.cancelSession)).Methods(http.MethodDelete)
	r.Handle("/sessions/{id}/option", std.ThenFunc(s.selectOption)).Methods(http.MethodPost)
	r.Handle("/sessions/{id}/field", std.ThenFunc(s.setField)).Methods(http.MethodPost)
	r.Handle("/sessions/{id}/picker/open", std.ThenFunc(s.openPicker)).Methods(http.MethodPost)
	r.Handle("/sessions/{id}/picker/result", std.ThenFunc(s.pickerResult)).Methods(http.MethodPost)
	r.Handle("/sessions/{id}/confirm", std.ThenFunc(s.confirm)).Methods(http.MethodPost)
	r.Handle("/sessions/{id}/qr.png", std.ThenFunc(s.sessionQR)).Methods(http.MethodGet)
	r.Handle("/sessions/{id}/keepsake", std.ThenFunc(s.keepFromDisposal)).Methods(http.MethodPost)

	// Pickup points
	r.Handle("/pickup-points", std.ThenFunc(s.nearbyPoints)).Methods(http.MethodGet)
	r.Handle("/pickup-points/{id}", std.ThenFunc(s.getPoint)).Methods(http.MethodGet)

	// QR archive
	r.Handle("/tickets", std.ThenFunc(s.listTickets)).Methods(http.MethodGet)
	r.Handle("/tickets/{id}", std.ThenFunc(s.getTicket)).Methods(http.MethodGet)
	r.Handle("/tickets/{id}/qr.png", std.ThenFunc(s.ticketQR)).Methods(http.MethodGet)

	// Item archive
	r.Handle("/keepsakes", std.ThenFunc(s.addKeepsake)).Methods(http.MethodPost)
	r.Handle("/keepsakes", std.ThenFunc(s.listKeepsakes)).Methods(http.MethodGet)
	r.Handle("/keepsakes/{id}", std.ThenFunc(s.getKeepsake)).Methods(http.MethodGet)
	r.Handle("/keepsakes/{id}", std.ThenFunc(s.deleteKeepsake)).Methods(http.MethodDelete)

	// Address suggestions
	r.Handle("/suggest", alice.New(s.recoverPanic, s.logRequest).ThenFunc(s.suggest)).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-QR-Fallback"},
	})
	return c.Handler(r)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
