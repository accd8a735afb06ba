package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luna-voice-backend/internal/assemble"
	"luna-voice-backend/internal/cities"
	"luna-voice-backend/internal/config"
	"luna-voice-backend/internal/llm"
	"luna-voice-backend/internal/providers"
	"luna-voice-backend/internal/store"
	"luna-voice-backend/internal/types"
)

type fakeWeather struct {
	calls int
	snap  *providers.WeatherSnapshot
	err   error
}

func (f *fakeWeather) CurrentWeather(context.Context, string) (*providers.WeatherSnapshot, error) {
	f.calls++
	return f.snap, f.err
}

type fakeTraffic struct {
	calls int
	sum   *providers.RouteSummary
	err   error
}

func (f *fakeTraffic) Route(context.Context, string, string) (*providers.RouteSummary, error) {
	f.calls++
	return f.sum, f.err
}

type fakeSearch struct {
	calls    int
	snippets []string
}

func (f *fakeSearch) Search(context.Context, string, int) ([]string, error) {
	f.calls++
	return f.snippets, nil
}

type testEnv struct {
	server  *Server
	weather *fakeWeather
	traffic *fakeTraffic
	search  *fakeSearch
	// chatRequests records the completion payloads the fake endpoint saw
	chatRequests []openai.ChatCompletionRequest
}

// newTestEnv wires a Server with fake providers, a pinned clock
// (14:05 UTC) and a default zone of UTC+1, plus a fake chat endpoint
// replying with chatReply (empty means no generator configured).
func newTestEnv(t *testing.T, chatReply string) *testEnv {
	t.Helper()
	env := &testEnv{
		weather: &fakeWeather{},
		traffic: &fakeTraffic{},
		search:  &fakeSearch{},
	}

	table, err := cities.Load("")
	require.NoError(t, err)
	asm := assemble.New(env.weather, env.traffic, env.search, table, "Tirana", time.FixedZone("UTC+1", 3600))
	asm.SetClock(func() time.Time {
		return time.Date(2026, time.September, 1, 14, 5, 0, 0, time.UTC)
	})

	var gen *llm.Generator
	if chatReply != "" {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req openai.ChatCompletionRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			env.chatRequests = append(env.chatRequests, req)
			w.Header().Set("Content-Type", "application/json")
			resp := fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%q}}]}`, "  "+chatReply+"  ")
			_, _ = w.Write([]byte(resp))
		}))
		t.Cleanup(srv.Close)
		cfg := openai.DefaultConfig("test-key")
		cfg.BaseURL = srv.URL + "/v1"
		gen = llm.New(openai.NewClientWithConfig(cfg), "gpt-4o-mini")
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg: config.Config{
			DefaultCity:     "Tirana",
			DefaultTimezone: "Etc/GMT-1",
			AnswerLanguage:  "sq",
			HistoryLimit:    10,
		},
		conv:   store.NewMemoryStore(10),
		alarms: store.NewMemoryAlarmStore(),
		asm:    asm,
		gen:    gen,
	}
	s.routes()
	env.server = s
	return env
}

func doJSON(t *testing.T, s *Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "")
	rec, out := doJSON(t, env.server, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
}

func TestAskMathExact(t *testing.T) {
	env := newTestEnv(t, "")
	rec, out := doJSON(t, env.server, http.MethodGet, "/api/ask?q=28*17&device=dev1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, "476", out["answer"])
	assert.Equal(t, "math", out["intent"])
	// Exact local answer, no provider touched.
	assert.Zero(t, env.weather.calls)
	assert.Zero(t, env.search.calls)
}

func TestAskTimeInDefaultZone(t *testing.T) {
	env := newTestEnv(t, "")
	rec, out := doJSON(t, env.server, http.MethodGet, "/api/ask?q=sa+eshte+ora&device=dev1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["ok"])
	// 14:05 UTC with configured default UTC+1.
	assert.Contains(t, out["answer"], "15:05")
}

func TestAskWeather(t *testing.T) {
	env := newTestEnv(t, "")
	env.weather.snap = &providers.WeatherSnapshot{
		City: "London", Description: "clear sky",
		Temperature: 10.0, FeelsLike: 8.0, Humidity: 70, WindSpeed: 3.0,
	}
	rec, out := doJSON(t, env.server, http.MethodPost, "/api/ask",
		types.AskRequest{DeviceID: "dev1", Question: "moti ne london"})
	require.Equal(t, http.StatusOK, rec.Code)
	answer, _ := out["answer"].(string)
	assert.Equal(t, true, out["ok"])
	assert.Contains(t, answer, "London")
	assert.Contains(t, answer, "10")
	assert.Contains(t, answer, "clear sky")
}

func TestAskEmptyQuestion(t *testing.T) {
	env := newTestEnv(t, "")
	rec, out := doJSON(t, env.server, http.MethodGet, "/api/ask?q=", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, out["ok"])
	assert.NotEmpty(t, out["error"])
	// Validation fails before any provider call.
	assert.Zero(t, env.weather.calls)
	assert.Zero(t, env.traffic.calls)
	assert.Zero(t, env.search.calls)
}

func TestAskWeatherProviderDown(t *testing.T) {
	env := newTestEnv(t, "")
	env.weather.err = errors.New("timeout")
	rec, out := doJSON(t, env.server, http.MethodGet, "/api/ask?q=moti&device=dev1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, assemble.WeatherUnavailable, out["answer"])
}

func TestAskTrafficMissingRouteAsksBack(t *testing.T) {
	env := newTestEnv(t, "")
	rec, out := doJSON(t, env.server, http.MethodGet, "/api/ask?q=si+eshte+trafiku&device=dev1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, assemble.TrafficNeedsRoute, out["answer"])
	assert.Zero(t, env.traffic.calls)
}

func TestAskGeneralGoesThroughModel(t *testing.T) {
	env := newTestEnv(t, "Argjentina e fitoi boten 2022.")
	env.weather.snap = &providers.WeatherSnapshot{City: "Tirana", Description: "vranet", Temperature: 14}
	env.search.snippets = []string{"Argentina won the 2022 World Cup."}

	rec, out := doJSON(t, env.server, http.MethodPost, "/api/ask",
		types.AskRequest{DeviceID: "dev1", Question: "kush e fitoi boten 2022"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, "Argjentina e fitoi boten 2022.", out["answer"])
	assert.Equal(t, "general", out["intent"])

	require.Len(t, env.chatRequests, 1)
	msgs := env.chatRequests[0].Messages
	require.NotEmpty(t, msgs)
	// System turn carries persona and refreshed facts.
	assert.Equal(t, "system", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Luna")
	assert.Contains(t, msgs[0].Content, "Ora tani: 15:05")
	assert.Contains(t, msgs[0].Content, "Moti: Tirana")
	// Context block rides on the outgoing user turn.
	last := msgs[len(msgs)-1]
	assert.Equal(t, "user", last.Role)
	assert.Contains(t, last.Content, "kush e fitoi boten 2022")
	assert.Contains(t, last.Content, "Argentina won the 2022 World Cup.")

	// Memory records the exchange without the context block.
	turns := env.server.conv.Get("dev1")
	require.Len(t, turns, 3)
	assert.Equal(t, "kush e fitoi boten 2022", turns[1].Content)
	assert.Equal(t, "Argjentina e fitoi boten 2022.", turns[2].Content)
}

func TestAskGeneralWithoutAPIKey(t *testing.T) {
	env := newTestEnv(t, "")
	rec, out := doJSON(t, env.server, http.MethodGet, "/api/ask?q=me+trego+dicka&device=dev1", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, out["ok"])
	assert.Contains(t, out["error"], "OPENAI_API_KEY")
}

func TestAlarmLifecycle(t *testing.T) {
	env := newTestEnv(t, "")
	past := time.Now().Unix() - 10

	rec, out := doJSON(t, env.server, http.MethodPost, "/api/alarms",
		types.Alarm{DeviceID: "dev1", FireAt: past, Message: "zgjohu"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := int64(out["id"].(float64))
	require.Positive(t, id)

	rec, out = doJSON(t, env.server, http.MethodGet, "/api/alarms/due?device=dev1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	due := out["alarms"].([]any)
	require.Len(t, due, 1)

	rec, _ = doJSON(t, env.server, http.MethodPost, fmt.Sprintf("/api/alarms/%d/fired", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out = doJSON(t, env.server, http.MethodGet, "/api/alarms/due?device=dev1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, out["alarms"])

	rec, _ = doJSON(t, env.server, http.MethodDelete, fmt.Sprintf("/api/alarms/%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = doJSON(t, env.server, http.MethodDelete, fmt.Sprintf("/api/alarms/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAlarmValidation(t *testing.T) {
	env := newTestEnv(t, "")
	rec, _ := doJSON(t, env.server, http.MethodPost, "/api/alarms", types.Alarm{FireAt: 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = doJSON(t, env.server, http.MethodPost, "/api/alarms", types.Alarm{DeviceID: "dev1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeviceCookieAssigned(t *testing.T) {
	env := newTestEnv(t, "")
	req := httptest.NewRequest(http.MethodGet, "/api/ask?q=sa+eshte+ora", nil)
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName && strings.HasPrefix(c.Value, "d_") {
			found = true
		}
	}
	assert.True(t, found, "expected a device cookie to be set")
}
