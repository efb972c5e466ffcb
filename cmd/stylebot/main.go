package main

import (
	"log"

	"github.com/joho/godotenv"

	corecmd "stylebot/core/cmd"
	"stylebot/internal/app"
)

func main() {
	// .env is optional; real deployments pass env through the supervisor.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("stylebot: %v", err)
	}
}
