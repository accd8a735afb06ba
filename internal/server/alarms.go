package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"luna-voice-backend/internal/types"
)

func (s *Server) handleCreateAlarm(w http.ResponseWriter, r *http.Request) {
	var req types.Alarm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.DeviceID) == "" {
		s.writeError(w, http.StatusBadRequest, "deviceId is required")
		return
	}
	if req.FireAt <= 0 {
		s.writeError(w, http.StatusBadRequest, "fireAt must be a future epoch time")
		return
	}
	a, err := s.alarms.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to create alarm")
		return
	}
	s.writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleListAlarms(w http.ResponseWriter, r *http.Request) {
	device := r.URL.Query().Get("device")
	alarms, err := s.alarms.List(r.Context(), device)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list alarms")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "alarms": alarms})
}

// handleDueAlarms returns unfired alarms whose time has passed; the
// client polls this and acknowledges with /fired.
func (s *Server) handleDueAlarms(w http.ResponseWriter, r *http.Request) {
	device := r.URL.Query().Get("device")
	alarms, err := s.alarms.Due(r.Context(), device, time.Now().Unix())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list due alarms")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "alarms": alarms})
}

func (s *Server) handleAlarmFired(w http.ResponseWriter, r *http.Request) {
	id, ok := alarmID(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid alarm id")
		return
	}
	if err := s.alarms.MarkFired(r.Context(), id); err != nil {
		s.writeError(w, http.StatusNotFound, "alarm not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDeleteAlarm(w http.ResponseWriter, r *http.Request) {
	id, ok := alarmID(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid alarm id")
		return
	}
	if err := s.alarms.Delete(r.Context(), id); err != nil {
		s.writeError(w, http.StatusNotFound, "alarm not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func alarmID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
