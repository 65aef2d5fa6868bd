package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"

	"github.com/golden-vcr/chatrelay/internal/youtube"
)

type Config struct {
	YouTubeClientId     string `env:"YOUTUBE_CLIENT_ID" required:"true"`
	YouTubeClientSecret string `env:"YOUTUBE_CLIENT_SECRET" required:"true"`
	AuthCallbackPort    uint16 `env:"AUTH_CALLBACK_PORT" default:"3033"`
}

func main() {
	// Initialize config from environment vars
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	// Send the user to Google to grant our app access to their YouTube account, and
	// wait for the redirect back to our local callback server
	fmt.Printf("Requesting YouTube access; the OAuth client must allow http://localhost:%d/auth as a redirect URI.\n", config.AuthCallbackPort)
	token, err := youtube.PromptForRefreshToken(context.Background(), &youtube.Config{
		ClientId:     config.YouTubeClientId,
		ClientSecret: config.YouTubeClientSecret,
	}, config.AuthCallbackPort)
	if err != nil {
		log.Fatalf("failed to get YouTube refresh token: %v", err)
	}

	fmt.Printf("\nAccess granted. Add the following to your .env file:\n\n")
	fmt.Printf("YOUTUBE_REFRESH_TOKEN=%s\n", token.RefreshToken)
}
