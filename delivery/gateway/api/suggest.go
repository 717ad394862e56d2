package api

import (
	"net/http"

	"reuseit/locationsearch/search"
)

type suggestQuery struct {
	Query string `json:"query"`
}

type suggestResults struct {
	Results []string `json:"results"`
}

// suggest streams address suggestions over a websocket. The client sends
// {"query": "..."} on every keystroke; the server answers with complete
// replacement lists, dropping results of superseded queries.
func (s *Server) suggest(w http.ResponseWriter, r *http.Request) {
	if s.Geocoder == nil {
		clientError(w, http.StatusServiceUnavailable, "address suggestions are not configured")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess := search.NewSession(r.Context(), s.Geocoder, search.Options{
		Markers:  s.RegionMarkers,
		Debounce: s.Debounce,
		Logger:   s.Logger,
		Metrics:  s.Metrics,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for titles := range sess.Results() {
			if titles == nil {
				titles = []string{}
			}
			if err := conn.WriteJSON(suggestResults{Results: titles}); err != nil {
				s.Logger.Debug("Suggestion write failed", "error", err)
				return
			}
		}
	}()

	for {
		var q suggestQuery
		if err := conn.ReadJSON(&q); err != nil {
			break
		}
		sess.OnQueryChanged(q.Query)
	}
	sess.Close()
	<-done
}
