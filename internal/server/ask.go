package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"luna-voice-backend/internal/intent"
	"luna-voice-backend/internal/llm"
	"luna-voice-backend/internal/mathexpr"
	"luna-voice-backend/internal/store"
	"luna-voice-backend/internal/types"
)

// errChatNotConfigured marks the one failure that must not degrade:
// a general query with no chat-completion credential.
var errChatNotConfigured = errors.New("OPENAI_API_KEY is not configured")

const (
	identityAnswer = "Une jam Luna, asistentja jote zanore ne shqip."
	jokeAnswer     = "Pse programuesit ngaterrojne Halloween me Krishtlindje? Sepse OCT 31 == DEC 25."
)

func (s *Server) handleAskGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := types.AskRequest{
		DeviceID: q.Get("device"),
		Question: q.Get("q"),
		Name:     q.Get("name"),
		City:     q.Get("city"),
		Family:   q.Get("family"),
		Style:    q.Get("style"),
		Timezone: q.Get("timezone"),
	}
	s.respondAsk(w, r, req)
}

func (s *Server) handleAskPost(w http.ResponseWriter, r *http.Request) {
	var req types.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.respondAsk(w, r, req)
}

func (s *Server) respondAsk(w http.ResponseWriter, r *http.Request, req types.AskRequest) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		s.writeError(w, http.StatusBadRequest, "pyetja eshte e zbrazet")
		return
	}
	device := s.deviceID(w, r, strings.TrimSpace(req.DeviceID))

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	answer, kind, err := s.answer(ctx, device, question, req.Profile())
	if err != nil {
		if errors.Is(err, errChatNotConfigured) {
			s.writeError(w, http.StatusInternalServerError, "Konfigurimi mungon: OPENAI_API_KEY.")
			return
		}
		log.Printf("[ask] device=%s: %v", device, err)
		s.writeError(w, http.StatusInternalServerError, "Ndodhi nje gabim i brendshem.")
		return
	}
	w.Header().Set("X-Device-Id", device)
	s.writeJSON(w, http.StatusOK, types.AskResponse{OK: true, Answer: answer, Intent: string(kind)})
}

// answer runs the pipeline: classify, answer exact intents locally,
// everything else goes through memory and the language model.
func (s *Server) answer(ctx context.Context, device, question string, profile types.UserProfile) (string, intent.Kind, error) {
	res := intent.Classify(question)

	switch res.Kind {
	case intent.KindIdentity:
		return identityAnswer, res.Kind, nil
	case intent.KindJoke:
		return jokeAnswer, res.Kind, nil
	case intent.KindTime:
		if res.WantDate {
			return s.asm.DateAnswer(), res.Kind, nil
		}
		if res.City == "" && profile.Timezone != "" {
			return s.asm.TimeAnswerInZone(profile.Timezone), res.Kind, nil
		}
		return s.asm.TimeAnswer(res.City), res.Kind, nil
	case intent.KindMath:
		if v, ok := mathexpr.Evaluate(question); ok {
			return v, res.Kind, nil
		}
		// Extraction failed the allow-list: not a math request after
		// all, hand it to the model.
	case intent.KindWeather:
		city := firstNonEmpty(res.City, profile.City)
		return s.asm.WeatherAnswer(ctx, city), res.Kind, nil
	case intent.KindTraffic:
		return s.asm.TrafficAnswer(ctx, res.From, res.To), res.Kind, nil
	}

	answer, err := s.generalAnswer(ctx, device, question, profile)
	return answer, intent.KindGeneral, err
}

func (s *Server) generalAnswer(ctx context.Context, device, question string, profile types.UserProfile) (string, error) {
	if s.gen == nil {
		return "", errChatNotConfigured
	}
	city := firstNonEmpty(profile.City, s.cfg.DefaultCity)

	// Refresh the system turn's embedded facts, then record the user
	// turn. Memory keeps the plain question; the context block rides
	// only on the outgoing request.
	weatherLine, _ := s.asm.WeatherLine(ctx, city)
	system := llm.BuildSystemPrompt(llm.PromptFacts{
		TimeLine:    s.asm.TimeLine(),
		WeatherLine: weatherLine,
		UserName:    profile.Name,
		Family:      profile.Family,
		City:        city,
		Style:       profile.Style,
	})
	s.conv.SetSystem(device, system)
	s.conv.Append(device, store.Turn{Role: store.RoleUser, Content: question})

	messages := convertTurns(s.conv.Get(device))
	if block := s.asm.ContextBlock(ctx, question, city); block != "" {
		last := len(messages) - 1
		messages[last].Content = question + "\n\nKonteksti:\n" + block
	}

	reply, err := s.gen.Complete(ctx, messages)
	if err != nil {
		// Degrade to the fixed apology; no corrupt assistant turn is
		// recorded.
		log.Printf("[chat] completion failed for device=%s: %v", device, err)
		return llm.Apology, nil
	}
	s.conv.Append(device, store.Turn{Role: store.RoleAssistant, Content: reply})
	return reply, nil
}

func convertTurns(turns []store.Turn) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, t := range turns {
		role := t.Role
		if role == "" {
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// handleVoice transcribes an uploaded audio clip and runs the same
// answer pipeline on the transcript.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if s.client == nil {
		s.writeError(w, http.StatusInternalServerError, "Konfigurimi mungon: OPENAI_API_KEY.")
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "audio file is required (field 'file')")
		return
	}
	defer file.Close()
	device := s.deviceID(w, r, r.FormValue("device"))

	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	tr, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.cfg.STTModel,
		Reader:   file,
		FilePath: header.Filename,
		Language: s.cfg.AnswerLanguage,
	})
	if err != nil {
		log.Println("transcription error:", err)
		s.writeError(w, http.StatusBadGateway, "transcription failed")
		return
	}
	transcript := strings.TrimSpace(tr.Text)
	if transcript == "" {
		s.writeError(w, http.StatusBadGateway, "empty transcription")
		return
	}

	profile := types.UserProfile{
		Name: r.FormValue("name"),
		City: r.FormValue("city"),
	}
	answer, kind, err := s.answer(ctx, device, transcript, profile)
	if err != nil {
		if errors.Is(err, errChatNotConfigured) {
			s.writeError(w, http.StatusInternalServerError, "Konfigurimi mungon: OPENAI_API_KEY.")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Ndodhi nje gabim i brendshem.")
		return
	}
	w.Header().Set("X-Device-Id", device)
	s.writeJSON(w, http.StatusOK, types.AskResponse{
		OK: true, Answer: answer, Intent: string(kind), Transcript: transcript,
	})
}
