// Package api provides HTTP API handlers for the Postura daemon.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/postura/internal/posture"
	"github.com/ayusman/postura/internal/store"
)

// SettingsHandler handles HTTP requests for the monitoring settings. Writes
// are applied to the live session and persisted to the store so they
// survive restarts.
type SettingsHandler struct {
	session *posture.Session
	store   *store.Store
}

// NewSettingsHandler creates a new SettingsHandler. The store may be nil,
// in which case settings only live for the current run.
func NewSettingsHandler(session *posture.Session, s *store.Store) *SettingsHandler {
	return &SettingsHandler{
		session: session,
		store:   s,
	}
}

// ServeHTTP implements the http.Handler interface.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type settingsResponse struct {
	Sensitivity       int `json:"sensitivity"`
	AlarmDelaySeconds int `json:"alarmDelaySeconds"`
}

type updateSettingsRequest struct {
	Sensitivity       *int `json:"sensitivity"`
	AlarmDelaySeconds *int `json:"alarmDelaySeconds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (h *SettingsHandler) current() settingsResponse {
	return settingsResponse{
		Sensitivity:       h.session.Sensitivity(),
		AlarmDelaySeconds: int(h.session.AlarmDelay() / time.Second),
	}
}

// get handles GET /api/settings.
func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.current())
}

// update handles PUT /api/settings. Fields left out of the request keep
// their current values.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Sensitivity != nil {
		if err := h.session.SetSensitivity(*req.Sensitivity); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.persist(store.KeySensitivity, *req.Sensitivity)
	}

	if req.AlarmDelaySeconds != nil {
		delay := time.Duration(*req.AlarmDelaySeconds) * time.Second
		if err := h.session.SetAlarmDelay(delay); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.persist(store.KeyAlarmDelay, *req.AlarmDelaySeconds)
	}

	writeJSON(w, http.StatusOK, h.current())
}

func (h *SettingsHandler) persist(key string, value int) {
	if h.store == nil {
		return
	}
	if err := h.store.SetSettingInt(key, value); err != nil {
		log.Printf("failed to persist setting %s: %v", key, err)
	}
}
