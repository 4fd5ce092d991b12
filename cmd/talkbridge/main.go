package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/tillberg/autorestart"

	"github.com/impertio/talkbridge/internal/cli"
)

func main() {
	// Secrets referenced from the config as ${VAR} can live in a local
	// .env file during development.
	godotenv.Load()

	go autorestart.RestartOnChange()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
