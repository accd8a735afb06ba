package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	openai "github.com/sashabaranov/go-openai"

	"luna-voice-backend/internal/assemble"
	"luna-voice-backend/internal/cities"
	"luna-voice-backend/internal/config"
	"luna-voice-backend/internal/db"
	"luna-voice-backend/internal/llm"
	"luna-voice-backend/internal/providers"
	"luna-voice-backend/internal/store"
	"luna-voice-backend/internal/types"
)

type Server struct {
	router   *chi.Mux
	cfg      config.Config
	conv     store.ConversationStore
	alarms   store.AlarmStore
	asm      *assemble.Assembler
	gen      *llm.Generator
	client   *openai.Client
	database *db.DB
}

func NewServer(cfg config.Config) (*Server, error) {
	table, err := cities.Load(cfg.CitiesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load cities table: %w", err)
	}
	defaultZone, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", cfg.DefaultTimezone, err)
	}

	asm := assemble.New(
		providers.NewOpenWeatherClient(cfg.OpenWeatherAPIKey, cfg.AnswerLanguage),
		providers.NewTomTomClient(cfg.TomTomAPIKey),
		providers.NewSerperClient(cfg.SerperAPIKey),
		table, cfg.DefaultCity, defaultZone,
	)

	// No OpenAI key is tolerated at startup; general queries surface a
	// configuration error instead.
	var client *openai.Client
	var gen *llm.Generator
	if cfg.OpenAIAPIKey != "" {
		client = openai.NewClient(cfg.OpenAIAPIKey)
		gen = llm.New(client, cfg.Model)
	}

	// Alarm storage: Postgres when configured, JSON file as a second
	// option, process memory otherwise.
	var database *db.DB
	var alarms store.AlarmStore
	switch {
	case cfg.DatabaseURL != "":
		database, err = db.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.RunMigrations(); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Println("database connection established")
		alarms = store.NewDatabaseAlarmStore(database)
	case cfg.AlarmsFile != "":
		alarms, err = store.NewFileAlarmStore(cfg.AlarmsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open alarms file: %w", err)
		}
	default:
		alarms = store.NewMemoryAlarmStore()
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Device-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:   r,
		cfg:      cfg,
		conv:     store.NewMemoryStore(cfg.HistoryLimit),
		alarms:   alarms,
		asm:      asm,
		gen:      gen,
		client:   client,
		database: database,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/ask", s.handleAskGet)
	s.router.Post("/api/ask", s.handleAskPost)
	s.router.Post("/api/voice", s.handleVoice)
	s.router.Post("/api/tts", s.handleTTS)
	s.router.Get("/api/tts/voices", s.handleTTSVoices)
	// Alarm CRUD; firing is pull-based via /due
	s.router.Get("/api/alarms", s.handleListAlarms)
	s.router.Post("/api/alarms", s.handleCreateAlarm)
	s.router.Get("/api/alarms/due", s.handleDueAlarms)
	s.router.Post("/api/alarms/{id}/fired", s.handleAlarmFired)
	s.router.Delete("/api/alarms/{id}", s.handleDeleteAlarm)
}

func (s *Server) Router() http.Handler { return s.router }

// Close releases held resources (database connection).
func (s *Server) Close() error {
	if s.database != nil {
		return s.database.Close()
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, types.ErrorResponse{OK: false, Error: msg})
}

func newDeviceID() string {
	return fmt.Sprintf("d_%d", time.Now().UnixNano())
}

// deviceID resolves the conversation key: explicit value first, then
// cookie, then a fresh ID persisted in a cookie.
func (s *Server) deviceID(w http.ResponseWriter, r *http.Request, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if c, err := GetDeviceCookie(r); err == nil && c != "" {
		return c
	}
	id := newDeviceID()
	SetDeviceCookie(w, id)
	return id
}
