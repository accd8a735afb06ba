package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// OpenAI (answer generation + speech-to-text)
	OpenAIAPIKey string
	Model        string
	STTModel     string
	// Weather / traffic / search providers
	OpenWeatherAPIKey string
	TomTomAPIKey      string
	SerperAPIKey      string
	// ElevenLabs TTS
	ElevenAPIKey  string
	ElevenVoiceID string
	ElevenModel   string
	// Locale defaults
	DefaultCity     string
	DefaultTimezone string
	AnswerLanguage  string
	// Conversation memory: non-system turns kept per device
	HistoryLimit int
	// Optional city -> timezone table (yaml); empty means built-in table
	CitiesFile string
	// Optional Postgres for alarm storage
	DatabaseURL string
	// Optional JSON file for alarm storage when no database is set
	AlarmsFile string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:              getEnvDefault("PORT", "8080"),
		AllowedOrigin:     getEnvDefault("ALLOWED_ORIGIN", "*"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		Model:             getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		STTModel:          getEnvDefault("OPENAI_STT_MODEL", "whisper-1"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		TomTomAPIKey:      os.Getenv("TOMTOM_API_KEY"),
		SerperAPIKey:      os.Getenv("SERPER_API_KEY"),
		ElevenAPIKey:      os.Getenv("ELEVEN_API_KEY"),
		ElevenVoiceID:     os.Getenv("ELEVEN_VOICE_ID"),
		ElevenModel:       getEnvDefault("ELEVEN_MODEL_ID", "eleven_multilingual_v2"),
		DefaultCity:       getEnvDefault("DEFAULT_CITY", "Tirana"),
		DefaultTimezone:   getEnvDefault("DEFAULT_TIMEZONE", "Europe/Tirane"),
		AnswerLanguage:    getEnvDefault("ANSWER_LANGUAGE", "sq"),
		HistoryLimit:      getEnvIntDefault("HISTORY_LIMIT", 10),
		CitiesFile:        os.Getenv("CITIES_FILE"),
		DatabaseURL:       os.Getenv("DB_URL"),
		AlarmsFile:        os.Getenv("ALARMS_FILE"),
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("warning: OPENAI_API_KEY is not set; general queries will fail until provided")
	}
	if cfg.OpenWeatherAPIKey == "" {
		log.Println("warning: OPENWEATHER_API_KEY is not set; weather answers will be unavailable")
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return def
}
