package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// ElevenLabs TTS proxy: JSON { text, voiceId? } -> audio/mpeg. The
// audio side is a collaborator; answer correctness never depends on it.
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	type reqBody struct {
		Text    string `json:"text"`
		VoiceID string `json:"voiceId,omitempty"`
	}
	var body reqBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "invalid text body")
		return
	}
	if s.cfg.ElevenAPIKey == "" {
		s.writeError(w, http.StatusBadRequest, "elevenlabs not configured")
		return
	}

	voiceID := s.cfg.ElevenVoiceID
	if strings.TrimSpace(body.VoiceID) != "" {
		voiceID = body.VoiceID
	}
	if strings.TrimSpace(voiceID) == "" {
		s.writeError(w, http.StatusBadRequest, "no elevenlabs voice configured or provided")
		return
	}
	url := fmt.Sprintf("https://api.elevenlabs.io/v1/text-to-speech/%s/stream", voiceID)
	payload := map[string]any{
		"text":     body.Text,
		"model_id": s.cfg.ElevenModel,
		"voice_settings": map[string]any{
			"stability":         0.5,
			"similarity_boost":  0.7,
			"use_speaker_boost": true,
		},
		"output_format": "mp3_44100_128",
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "tts request build failed")
		return
	}
	req.Header.Set("xi-api-key", s.cfg.ElevenAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "tts request failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bb, _ := io.ReadAll(resp.Body)
		log.Println("elevenlabs error:", string(bb))
		s.writeError(w, http.StatusBadGateway, "tts error")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, resp.Body)
}

// ElevenLabs Voices proxy: GET -> JSON { voices: [...] }
func (s *Server) handleTTSVoices(w http.ResponseWriter, r *http.Request) {
	if s.cfg.ElevenAPIKey == "" {
		s.writeError(w, http.StatusBadRequest, "elevenlabs not configured")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, "https://api.elevenlabs.io/v1/voices", nil)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "voices request build failed")
		return
	}
	req.Header.Set("xi-api-key", s.cfg.ElevenAPIKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "voices request failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bb, _ := io.ReadAll(resp.Body)
		log.Println("elevenlabs voices error:", string(bb))
		s.writeError(w, http.StatusBadGateway, "voices error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, resp.Body)
}
