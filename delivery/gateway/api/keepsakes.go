package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"reuseit/delivery/types"
	"reuseit/internal/keepsakes"
)

type keepsakeRequest struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Photos      []string `json:"photos"`
}

func (s *Server) addKeepsake(w http.ResponseWriter, r *http.Request) {
	var req keepsakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		clientError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.storeKeepsake(w, r, &keepsakes.Keepsake{
		UserID:      req.UserID,
		Source:      keepsakes.SourceManual,
		Name:        req.Name,
		Description: req.Description,
		Photos:      req.Photos,
	})
}

// keepFromDisposal archives the item of a disposal session. Repeating the
// request returns the keepsake already created for the session.
func (s *Server) keepFromDisposal(w http.ResponseWriter, r *http.Request) {
	var req keepsakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		clientError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	if st.Flow != types.FlowDisposal {
		clientError(w, http.StatusUnprocessableEntity, "only disposal sessions can add to the archive")
		return
	}
	name := req.Name
	if name == "" {
		name = st.ItemTitle
	}
	s.storeKeepsake(w, r, &keepsakes.Keepsake{
		UserID:      st.UserID,
		SessionID:   st.SessionID,
		Source:      keepsakes.SourceDisposal,
		Name:        name,
		Description: req.Description,
		Photos:      req.Photos,
	})
}

func (s *Server) storeKeepsake(w http.ResponseWriter, r *http.Request, k *keepsakes.Keepsake) {
	if err := k.Validate(); err != nil {
		clientError(w, http.StatusBadRequest, err.Error())
		return
	}
	err := s.Keepsakes.Add(r.Context(), k)
	switch {
	case errors.Is(err, keepsakes.ErrDuplicate) && k.ID != "":
		writeJSON(w, http.StatusOK, k)
		return
	case err != nil:
		s.serverError(w, err)
		return
	}
	s.Logger.Info("Keepsake added", "keepsakeID", k.ID, "userID", k.UserID, "source", k.Source)
	writeJSON(w, http.StatusCreated, k)
}

func (s *Server) listKeepsakes(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		clientError(w, http.StatusBadRequest, "missing user_id")
		return
	}
	list, err := s.Keepsakes.List(r.Context(), userID)
	if err != nil {
		s.serverError(w, err)
		return
	}
	if list == nil {
		list = []keepsakes.Keepsake{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getKeepsake(w http.ResponseWriter, r *http.Request) {
	k, err := s.Keepsakes.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, keepsakes.ErrNotFound) {
		clientError(w, http.StatusNotFound, "keepsake not found")
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, k)
}

func (s *Server) deleteKeepsake(w http.ResponseWriter, r *http.Request) {
	err := s.Keepsakes.Delete(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, keepsakes.ErrNotFound) {
		clientError(w, http.StatusNotFound, "keepsake not found")
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
