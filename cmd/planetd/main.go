package main

import (
	"log"

	"github.com/aussiebroadwan/planet/internal/planetfake"
	"github.com/aussiebroadwan/planet/pkg/envx"
)

func main() {
	if err := envx.LoadDotEnv(); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}

	cfg := planetfake.LoadConfig()

	application, err := planetfake.NewApplication(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
