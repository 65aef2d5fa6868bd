package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/golden-vcr/chatrelay/internal/avatar"
	"github.com/golden-vcr/chatrelay/internal/chat"
	"github.com/golden-vcr/chatrelay/internal/health"
	"github.com/golden-vcr/chatrelay/internal/relay"
	"github.com/golden-vcr/chatrelay/internal/scrape"
	"github.com/golden-vcr/chatrelay/internal/server"
	"github.com/golden-vcr/chatrelay/internal/telemetry"
	"github.com/golden-vcr/chatrelay/internal/twitch"
	"github.com/golden-vcr/chatrelay/internal/youtube"
)

type Config struct {
	BindAddr   string `env:"BIND_ADDR"`
	ListenPort uint16 `env:"LISTEN_PORT" default:"3000"`
	Debug      bool   `env:"DEBUG"`

	IrcConnectTimeout  time.Duration `env:"IRC_CONNECT_TIMEOUT" default:"10s"`
	YouTubeVideoUrl    string        `env:"YOUTUBE_VIDEO_URL"`
	CorsAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" default:"*"`
}

func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		log.Fatalf("error loading config: %v", err)
	}
	twitchConfig := twitch.Config{}
	if err := env.Set(&twitchConfig); err != nil {
		log.Fatalf("error loading Twitch config: %v", err)
	}
	youtubeConfig := youtube.Config{}
	if err := env.Set(&youtubeConfig); err != nil {
		log.Fatalf("error loading YouTube config: %v", err)
	}

	level := slog.LevelInfo
	if config.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, close := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer close()

	telemetry.Init()

	// Resolve Twitch avatars via the Helix API if we have app credentials; otherwise
	// Twitch messages are relayed without avatars
	var lookup avatar.Lookup
	if twitchConfig.HasApiCredentials() {
		helixClient, err := twitch.NewAppClient(&twitchConfig)
		if err != nil {
			log.Fatalf("error initializing Twitch API client: %v", err)
		}
		lookup = avatar.NewHelixLookup(helixClient)
	} else {
		logger.Warn("Twitch API credentials not configured; Twitch avatars are disabled")
		lookup = avatar.NewNoopLookup()
	}
	resolver := avatar.NewResolver(lookup)
	resolver.OnLookup(telemetry.RecordAvatarLookup)

	// Connect to Twitch chat, feeding incoming messages into the events channel
	events := make(chan *chat.Event, 64)
	ingester := chat.NewIngester(ctx, logger, resolver, events)
	agent, err := chat.NewAgent(
		ctx,
		logger,
		ingester,
		twitchConfig.ChannelName,
		twitchConfig.BotUsername,
		twitchConfig.OAuthToken,
		config.IrcConnectTimeout,
	)
	if err != nil {
		log.Fatalf("error initializing Twitch chat agent: %v", err)
	}
	defer agent.Disconnect()

	// Prepare to post replies to YouTube: the target video may be configured up front,
	// or announced later by the scraper
	videoId := ""
	if config.YouTubeVideoUrl != "" {
		videoId, err = scrape.ParseVideoID(config.YouTubeVideoUrl)
		if err != nil {
			log.Fatalf("error parsing YOUTUBE_VIDEO_URL: %v", err)
		}
	}
	youtubeSender, err := youtube.NewSender(ctx, logger, &youtubeConfig, videoId)
	if err != nil {
		log.Fatalf("error initializing YouTube sender: %v", err)
	}

	hub := relay.NewHub(logger, map[chat.Platform]relay.Sender{
		chat.PlatformTwitch:  agent,
		chat.PlatformYouTube: youtubeSender,
	})
	status := health.NewServer(agent.GetStatus, youtubeSender.GetStatus, hub.NumSubscribers)

	srv := server.New(ctx, logger, hub, status, config.CorsAllowedOrigins)
	addr := fmt.Sprintf("%s:%d", config.BindAddr, config.ListenPort)
	httpServer := &http.Server{Addr: addr, Handler: srv}

	logger.Info("Listening", "addr", addr)
	var wg errgroup.Group
	wg.Go(func() error {
		return hub.Run(ctx, events)
	})
	wg.Go(httpServer.ListenAndServe)

	<-ctx.Done()
	logger.Info("Received signal; closing server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)

	err = wg.Wait()
	if err == http.ErrServerClosed {
		logger.Info("Server closed.")
	} else {
		log.Fatalf("error running server: %v", err)
	}
}
