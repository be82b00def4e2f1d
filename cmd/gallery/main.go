package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"github.com/oziev02/ImageGallery/internal/app"
)

func main() {
	// A local .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	application, err := app.New()
	if err != nil {
		log.Fatalf("failed to create app: %v", err)
	}

	if err := application.Start(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
