package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/codingconcepts/env"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/golden-vcr/chatrelay/internal/relay"
)

type Config struct {
	// Simulated traffic should only ever be sent to a local hub
	HubBaseUrl string `env:"HUB_BASE_URL" default:"ws://localhost:3000"`
}

const usage = `Usage:
  simulate youtube <author> <text...>   inject a YouTube chat message via /ingest
  simulate send <Twitch|YouTube|Both> <text...>   request a reply via /ws
  simulate watch   print chat events received via /ws`

func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	if len(os.Args) <= 1 {
		log.Fatal(usage)
	}
	switch os.Args[1] {
	case "youtube":
		if len(os.Args) < 4 {
			log.Fatal(usage)
		}
		msg := &relay.ScrapedMessage{
			ID:     uuid.NewString(),
			Author: os.Args[2],
			Text:   strings.Join(os.Args[3:], " "),
		}
		sendEnvelope(config.HubBaseUrl+"/ingest", relay.MessageTypeScrapeMessage, msg)

	case "send":
		if len(os.Args) < 4 {
			log.Fatal(usage)
		}
		req := &relay.SendRequest{
			Target: relay.SendTarget(os.Args[2]),
			Text:   strings.Join(os.Args[3:], " "),
		}
		if len(req.Target.Platforms()) == 0 {
			log.Fatalf("invalid target '%s'", req.Target)
		}
		sendEnvelope(config.HubBaseUrl+"/ws", relay.MessageTypeSend, req)

	case "watch":
		watch(config.HubBaseUrl + "/ws")

	default:
		log.Fatal(usage)
	}
}

// sendEnvelope connects to the hub, sends a single message, and disconnects
func sendEnvelope(url string, messageType relay.MessageType, data any) {
	payload, err := relay.Encode(messageType, data)
	if err != nil {
		log.Fatalf("failed to encode message: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", url, err)
	}
	defer conn.Close()

	fmt.Printf("> %s\n", payload)
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Fatalf("failed to send message: %v", err)
	}

	// Close cleanly so the hub processes the message before seeing us disconnect
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	conn.SetReadDeadline(time.Now().Add(time.Second))
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
}

// watch prints every chat event the hub broadcasts until interrupted
func watch(url string) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", url, err)
	}
	defer conn.Close()

	fmt.Printf("Watching chat at %s...\n", url)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("connection closed: %v", err)
		}
		fmt.Printf("< %s\n", message)
	}
}
