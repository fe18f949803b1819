package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/postura/internal/posture"
	"github.com/ayusman/postura/internal/store"
)

func newTestSession(t *testing.T) *posture.Session {
	t.Helper()

	session, err := posture.NewSession(posture.Config{})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return session
}

func TestSettingsHandler_Get(t *testing.T) {
	h := NewSettingsHandler(newTestSession(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got settingsResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if got.Sensitivity != posture.DefaultSensitivity {
		t.Errorf("sensitivity = %d, want default %d", got.Sensitivity, posture.DefaultSensitivity)
	}
	if got.AlarmDelaySeconds != 30 {
		t.Errorf("alarmDelaySeconds = %d, want 30", got.AlarmDelaySeconds)
	}
}

func TestSettingsHandler_UpdatePartial(t *testing.T) {
	session := newTestSession(t)
	h := NewSettingsHandler(session, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/settings",
		strings.NewReader(`{"sensitivity": 3}`))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if got := session.Sensitivity(); got != 3 {
		t.Errorf("session sensitivity = %d, want 3", got)
	}

	// Alarm delay untouched by a partial update.
	if got := session.AlarmDelay(); got != 30*time.Second {
		t.Errorf("session alarm delay = %v, want 30s", got)
	}
}

func TestSettingsHandler_UpdateInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"sensitivity too high", `{"sensitivity": 11}`},
		{"sensitivity too low", `{"sensitivity": 0}`},
		{"negative delay", `{"alarmDelaySeconds": -5}`},
		{"invalid JSON", `{"sensitivity": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSettingsHandler(newTestSession(t), nil)

			req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestSettingsHandler_PersistsToStore(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	h := NewSettingsHandler(newTestSession(t), s)

	req := httptest.NewRequest(http.MethodPut, "/api/settings",
		strings.NewReader(`{"sensitivity": 6, "alarmDelaySeconds": 45}`))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if got, err := s.GetSettingInt(store.KeySensitivity); err != nil || got != 6 {
		t.Errorf("persisted sensitivity = %d, %v; want 6", got, err)
	}
	if got, err := s.GetSettingInt(store.KeyAlarmDelay); err != nil || got != 45 {
		t.Errorf("persisted alarm delay = %d, %v; want 45", got, err)
	}
}

func TestSettingsHandler_MethodNotAllowed(t *testing.T) {
	h := NewSettingsHandler(newTestSession(t), nil)

	for _, method := range []string{http.MethodPost, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/settings", nil)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("method %s: status = %d, want %d", method, rec.Code, http.StatusMethodNotAllowed)
		}
	}
}
