package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reuseit/internal/keepsakes"
)

func decodeKeepsake(t *testing.T, body []byte) keepsakes.Keepsake {
	t.Helper()
	var k keepsakes.Keepsake
	require.NoError(t, json.Unmarshal(body, &k))
	return k
}

func TestKeepsakeLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/keepsakes", map[string]interface{}{
		"user_id":     "u1",
		"name":        "Nonna's radio",
		"description": "It played every Sunday",
		"photos":      []string{"photos/radio-front.jpg", "photos/radio-back.jpg"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	radio := decodeKeepsake(t, rec.Body.Bytes())
	assert.NotEmpty(t, radio.ID)
	assert.Equal(t, keepsakes.SourceManual, radio.Source)

	rec = f.do(t, http.MethodGet, "/keepsakes/"+radio.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "It played every Sunday", decodeKeepsake(t, rec.Body.Bytes()).Description)

	rec = f.do(t, http.MethodGet, "/keepsakes?user_id=u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []keepsakes.Keepsake
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = f.do(t, http.MethodDelete, "/keepsakes/"+radio.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodDelete, "/keepsakes/"+radio.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/keepsakes?user_id=u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestKeepsakeRejections(t *testing.T) {
	f := newFixture(t)
	eleven := make([]string, keepsakes.MaxPhotos+1)
	for i := range eleven {
		eleven[i] = "photos/p.jpg"
	}

	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"no photos", http.MethodPost, "/keepsakes", map[string]interface{}{"user_id": "u1", "name": "Bike"}, http.StatusBadRequest},
		{"no name", http.MethodPost, "/keepsakes", map[string]interface{}{"user_id": "u1", "photos": []string{"a.jpg"}}, http.StatusBadRequest},
		{"too many photos", http.MethodPost, "/keepsakes", map[string]interface{}{"user_id": "u1", "name": "Bike", "photos": eleven}, http.StatusBadRequest},
		{"list without user", http.MethodGet, "/keepsakes", nil, http.StatusBadRequest},
		{"unknown keepsake", http.MethodGet, "/keepsakes/nope", nil, http.StatusNotFound},
		{"unknown session", http.MethodPost, "/sessions/nope/keepsake", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestKeepFromDisposal(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/sessions", map[string]string{"flow": "disposal", "user_id": "u2", "item_title": "Old desk lamp"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var started map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	id := started["session_id"]

	rec = f.do(t, http.MethodPost, "/sessions/"+id+"/keepsake", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lamp := decodeKeepsake(t, rec.Body.Bytes())
	assert.Equal(t, "Old desk lamp", lamp.Name)
	assert.Equal(t, "u2", lamp.UserID)
	assert.Equal(t, keepsakes.SourceDisposal, lamp.Source)

	rec = f.do(t, http.MethodPost, "/sessions/"+id+"/keepsake", map[string]string{"description": "From my first flat"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, lamp.ID, decodeKeepsake(t, rec.Body.Bytes()).ID)

	sale := f.start(t, "sale", "450")
	rec = f.do(t, http.MethodPost, "/sessions/"+sale+"/keepsake", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
