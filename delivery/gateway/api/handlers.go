package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"reuseit/delivery/flows"
	"reuseit/delivery/sessions"
	"reuseit/delivery/types"
	"reuseit/internal/archive"
	"reuseit/internal/pickup"
	"reuseit/internal/qrcode"
)

const (
	defaultRadius = 2000
	defaultLimit  = 20
	minQRSize     = 64
	maxQRSize     = 1024
)

type startRequest struct {
	SessionID string `json:"session_id"`
	Flow      string `json:"flow"`
	UserID    string `json:"user_id"`
	ItemTitle string `json:"item_title"`
	Price     string `json:"price"`
}

type optionRequest struct {
	Option string `json:"option"`
}

type pickerResultRequest struct {
	PointID     string `json:"point_id"`
	Description string `json:"description"`
	Cancelled   bool   `json:"cancelled"`
}

type pointView struct {
	pickup.Point
	Description string `json:"description"`
}

var editableFields = map[types.Field]bool{
	types.FieldStreet:      true,
	types.FieldHouseNumber: true,
	types.FieldUnit:        true,
	types.FieldPostalCode:  true,
	types.FieldPrice:       true,
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// startSession opens a delivery screen
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		clientError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	flow := types.Flow(req.Flow)
	if _, err := flows.For(flow); err != nil {
		clientError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.Sessions.Start(r.Context(), types.WorkflowInput{
		SessionID: req.SessionID,
		Flow:      flow,
		UserID:    req.UserID,
		ItemTitle: req.ItemTitle,
		Price:     req.Price,
	})
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.Logger.Info("Session started", "sessionID", id, "flow", flow, "userID", req.UserID)
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// cancelSession tears the screen down
func (s *Server) cancelSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Cancel(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) selectOption(w http.ResponseWriter, r *http.Request) {
	var req optionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		clientError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	option, err := types.ParseDeliveryOption(req.Option)
	if err != nil {
		clientError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	cfg, err := flows.For(st.Flow)
	if err != nil {
		s.serverError(w, err)
		return
	}
	if !cfg.Offers(option) {
		clientError(w, http.StatusUnprocessableEntity, "option not offered by this flow")
		return
	}
	s.signal(w, r, st.SessionID, types.SignalSelectOption, option)
}

func (s *Server) setField(w http.ResponseWriter, r *http.Request) {
	var req types.FieldUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		clientError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Field == types.FieldLocation {
		clientError(w, http.StatusBadRequest, "the location is chosen with the picker")
		return
	}
	if !editableFields[req.Field] {
		clientError(w, http.StatusBadRequest, "unknown field")
		return
	}
	s.signal(w, r, mux.Vars(r)["id"], types.SignalSetField, req)
}

func (s *Server) openPicker(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	if !st.SelectedOption.NeedsLocation() {
		clientError(w, http.StatusConflict, "the selected option has no location picker")
		return
	}
	s.signal(w, r, st.SessionID, types.SignalOpenPicker, types.PickerRequest{})
}

// pickerResult delivers the picker's answer. A point ID is resolved into
// its description here so the workflow only ever sees text; the point must
// be of the kind the open picker was opened for.
func (s *Server) pickerResult(w http.ResponseWriter, r *http.Request) {
	var req pickerResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		clientError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res := types.LocationResult{Description: req.Description, Cancelled: req.Cancelled}
	if req.PointID != "" && !req.Cancelled {
		p, err := s.Pickup.Get(r.Context(), req.PointID)
		if errors.Is(err, pickup.ErrNotFound) {
			clientError(w, http.StatusNotFound, "pickup point not found")
			return
		}
		if err != nil {
			s.serverError(w, err)
			return
		}
		st, ok := s.loadState(w, r)
		if !ok {
			return
		}
		if st.Phase != types.PhaseAwaitingLocationPick {
			clientError(w, http.StatusConflict, "the location picker is not open")
			return
		}
		if string(p.Kind) != string(st.PickerOption) {
			clientError(w, http.StatusUnprocessableEntity, "pickup point is a "+string(p.Kind)+", the picker expects a "+string(st.PickerOption))
			return
		}
		res.Description = p.Description()
	}
	s.signal(w, r, mux.Vars(r)["id"], types.SignalLocationPicked, res)
}

func (s *Server) confirm(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	valid, err := s.Sessions.Valid(r.Context(), id)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	if !valid {
		st, ok := s.loadState(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":   "session is not ready to confirm",
			"phase":   st.Phase,
			"missing": st.Missing,
		})
		return
	}
	s.signal(w, r, id, types.SignalConfirm, types.ConfirmRequest{})
}

func (s *Server) sessionQR(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	if st.ConfirmationCode == "" {
		clientError(w, http.StatusNotFound, "session has no confirmation code yet")
		return
	}
	s.writeQR(w, r, st.ConfirmationCode)
}

func (s *Server) nearbyPoints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, err := pickup.ParseKind(q.Get("kind"))
	if err != nil {
		clientError(w, http.StatusBadRequest, err.Error())
		return
	}
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	if errLon != nil || errLat != nil {
		clientError(w, http.StatusBadRequest, "lon and lat are required")
		return
	}
	radius := floatParam(q.Get("radius"), defaultRadius)
	limit := int(floatParam(q.Get("limit"), defaultLimit))

	points, err := s.Pickup.Nearby(r.Context(), kind, lon, lat, radius, limit)
	if err != nil {
		s.serverError(w, err)
		return
	}
	out := make([]pointView, 0, len(points))
	for _, p := range points {
		out = append(out, pointView{Point: p, Description: p.Description()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getPoint(w http.ResponseWriter, r *http.Request) {
	p, err := s.Pickup.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, pickup.ErrNotFound) {
		clientError(w, http.StatusNotFound, "pickup point not found")
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pointView{Point: p, Description: p.Description()})
}

func (s *Server) listTickets(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		clientError(w, http.StatusBadRequest, "missing user_id")
		return
	}
	tickets, err := s.Archive.List(r.Context(), userID)
	if err != nil {
		s.serverError(w, err)
		return
	}
	if tickets == nil {
		tickets = []archive.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (s *Server) getTicket(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTicket(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) ticketQR(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTicket(w, r)
	if !ok {
		return
	}
	s.writeQR(w, r, t.QRData)
}

func (s *Server) loadTicket(w http.ResponseWriter, r *http.Request) (archive.Ticket, bool) {
	t, err := s.Archive.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, archive.ErrNotFound) {
		clientError(w, http.StatusNotFound, "ticket not found")
		return t, false
	}
	if err != nil {
		s.serverError(w, err)
		return t, false
	}
	return t, true
}

func (s *Server) loadState(w http.ResponseWriter, r *http.Request) (types.WorkflowState, bool) {
	st, err := s.Sessions.State(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.sessionError(w, err)
		return st, false
	}
	return st, true
}

// writeQR serves payload as a PNG. Encoding failures serve the fallback
// glyph and set X-QR-Fallback.
func (s *Server) writeQR(w http.ResponseWriter, r *http.Request, payload string) {
	size := int(floatParam(r.URL.Query().Get("size"), qrcode.DefaultSize))
	if size < minQRSize {
		size = minQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}
	img := qrcode.Render(payload, size)
	s.Metrics.ObserveQRRender(img.Fallback)
	if img.Fallback {
		s.Logger.Warn("QR encoding failed, serving fallback", "payloadLength", len(payload))
		w.Header().Set("X-QR-Fallback", "true")
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(img.PNG)
}

func (s *Server) signal(w http.ResponseWriter, r *http.Request, id, name string, arg interface{}) {
	if err := s.Sessions.Signal(r.Context(), id, name, arg); err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, sessions.ErrNotFound) {
		clientError(w, http.StatusNotFound, "session not found")
		return
	}
	s.serverError(w, err)
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.Logger.Error("Request failed", "error", err)
	clientError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func clientError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func floatParam(raw string, def float64) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
