package main

import (
	"log"
	"net/http"

	"luna-voice-backend/internal/config"
	"luna-voice-backend/internal/server"
)

func main() {
	cfg := config.Load()
	s, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	defer s.Close()

	addr := ":" + cfg.Port
	log.Printf("LUNA server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, s.Router()))
}
