package main

import (
	log "github.com/sirupsen/logrus"

	"retroboard/internal/config"
	"retroboard/internal/server"
)

func main() {
	cfg := config.Load()

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
