package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/golden-vcr/chatrelay/internal/scrape"
)

type Config struct {
	HubUrl            string        `env:"HUB_URL" default:"ws://localhost:3000/ingest"`
	ChromePath        string        `env:"CHROME_PATH"`
	Headless          bool          `env:"HEADLESS" default:"true"`
	NavigationTimeout time.Duration `env:"NAVIGATION_TIMEOUT" default:"30s"`
	NoSandbox         bool          `env:"NO_SANDBOX"`
	MetricsAddr       string        `env:"METRICS_ADDR"`
	Debug             bool          `env:"DEBUG"`
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

	level := slog.LevelInfo
	if config.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Prompt for the stream to follow
	fmt.Print("Paste your YouTube live stream URL: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintf(os.Stderr, "failed to read URL: %v\n", err)
		os.Exit(1)
	}
	videoId, err := scrape.ParseVideoID(strings.TrimSpace(line))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	execPath, err := scrape.FindBrowser(config.ChromePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, close := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer close()

	forwarder := scrape.NewForwarder(logger, config.HubUrl, videoId)
	if err := forwarder.Connect(ctx); err != nil {
		logger.Warn("Hub is not reachable yet; will retry when messages arrive", "error", err)
	}

	bridge := scrape.NewBridge(logger, videoId, scrape.BrowserConfig{
		ExecPath:          execPath,
		Headless:          config.Headless,
		NoSandbox:         config.NoSandbox,
		NavigationTimeout: config.NavigationTimeout,
	}, forwarder)

	// Run the bridge until interrupted, then say goodbye to the hub
	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		return bridge.Run(ctx)
	})
	wg.Go(func() error {
		<-ctx.Done()
		forwarder.Close()
		return nil
	})
	if config.MetricsAddr != "" {
		metricsServer := &http.Server{Addr: config.MetricsAddr, Handler: promhttp.Handler()}
		logger.Info("Serving metrics", "addr", config.MetricsAddr)
		wg.Go(func() error {
			if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
				return fmt.Errorf("error serving metrics: %w", err)
			}
			return nil
		})
		wg.Go(func() error {
			<-ctx.Done()
			return metricsServer.Shutdown(context.Background())
		})
	}
	if err := wg.Wait(); err != nil {
		if errors.Is(err, scrape.ErrNavigationTimeout) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		log.Fatalf("error running scraper: %v", err)
	}
	logger.Info("Scraper stopped.")
}
