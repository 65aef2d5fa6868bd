// Package scrape follows a YouTube live chat by driving a headless browser to the
// stream's popout chat page and watching it for new messages.
//
// A small script injected into the page reports each chat message it finds through
// a runtime binding. The host side dedups those reports, since the page rescans
// every message on each change, and passes new messages along in the order they
// were found.
package scrape

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/golden-vcr/chatrelay/internal/dedup"
	"github.com/golden-vcr/chatrelay/internal/relay"
	"github.com/golden-vcr/chatrelay/internal/telemetry"
)

//go:embed observer.js
var observerScript string

// bindingName is the function exposed to the page for reporting back to us
const bindingName = "chatrelayEmit"

// messageTypeScrapeState is used by the page to report state changes; it never
// leaves this process
const messageTypeScrapeState relay.MessageType = "scrape-state"

// ChatDisabledNotice is the text of the system message emitted when the stream's
// chat is disabled
const ChatDisabledNotice = "Chat is disabled for this live stream."

// ErrNavigationTimeout is returned when the chat page fails to load in time
var ErrNavigationTimeout = errors.New("timed out loading YouTube chat page")

// ErrBrowserExited is returned when the browser goes away while we're still
// supposed to be observing
var ErrBrowserExited = errors.New("browser exited unexpectedly")

// State describes what the bridge is currently doing
type State string

const (
	StateNavigating        State = "navigating"
	StateAwaitingContainer State = "awaiting-container"
	StateObserving         State = "observing"
	StateChatDisabled      State = "chat-disabled"
)

// pageState is the data carried by a scrape-state report from the page
type pageState struct {
	State string `json:"state" validate:"required,oneof=observing disabled"`
}

// Emitter receives each new message found on the chat page
type Emitter interface {
	Emit(ctx context.Context, msg *relay.ScrapedMessage) error
}

// BrowserConfig controls how the browser is launched
type BrowserConfig struct {
	ExecPath          string
	Headless          bool
	NoSandbox         bool
	NavigationTimeout time.Duration

	// PageURL overrides the chat page to load; ChatURL(videoId) is used if empty
	PageURL string
}

// Bridge connects the chat page running in the browser to an Emitter
type Bridge struct {
	logger  *slog.Logger
	videoId string
	config  BrowserConfig
	emitter Emitter
	seen    *dedup.Store

	pending chan *relay.ScrapedMessage

	mu    sync.Mutex
	state State
}

func NewBridge(logger *slog.Logger, videoId string, config BrowserConfig, emitter Emitter) *Bridge {
	telemetry.Init()
	return &Bridge{
		logger:  logger,
		videoId: videoId,
		config:  config,
		emitter: emitter,
		seen:    dedup.NewStore(),
		pending: make(chan *relay.ScrapedMessage, 1024),
		state:   StateNavigating,
	}
}

// State returns the bridge's current state
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Run launches the browser, loads the chat page, and forwards messages until ctx is
// done. Failing to load the page within the navigation timeout is fatal.
func (b *Bridge) Run(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.config.Headless),
		chromedp.Flag("mute-audio", true),
	)
	if b.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.config.ExecPath))
	}
	if b.config.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		b.logger.Debug(fmt.Sprintf(format, args...))
	}))
	defer cancelBrowser()

	chromedp.ListenTarget(browserCtx, b.handleTargetEvent)

	// The first Run starts the browser, and must not be bound by a shorter-lived
	// context or the browser will be killed when that context ends
	if err := chromedp.Run(browserCtx, runtime.AddBinding(bindingName)); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	if err := b.navigate(browserCtx); err != nil {
		return err
	}
	b.setState(StateAwaitingContainer)
	b.logger.Info("Loaded YouTube chat page; waiting for messages", "videoId", b.videoId)

	if err := chromedp.Run(browserCtx, chromedp.Evaluate(observerScript, nil)); err != nil {
		return fmt.Errorf("failed to inject chat observer: %w", err)
	}

	return b.observe(ctx, browserCtx)
}

// observe forwards messages until the browser context ends. That's only expected
// when ctx is done; otherwise the browser went away on its own.
func (b *Bridge) observe(ctx context.Context, browserCtx context.Context) error {
	b.forward(browserCtx)
	if ctx.Err() == nil {
		return fmt.Errorf("%w: %v", ErrBrowserExited, context.Cause(browserCtx))
	}
	return nil
}

func (b *Bridge) navigate(ctx context.Context) error {
	b.setState(StateNavigating)
	navCtx, cancel := context.WithTimeout(ctx, b.config.NavigationTimeout)
	defer cancel()

	url := b.config.PageURL
	if url == "" {
		url = ChatURL(b.videoId)
	}
	b.logger.Info("Navigating to YouTube chat", "url", url)
	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return ErrNavigationTimeout
		}
		return fmt.Errorf("failed to load YouTube chat page: %w", err)
	}
	return nil
}

// forward passes pending messages to the emitter, one at a time and in order
func (b *Bridge) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.pending:
			if err := b.emitter.Emit(ctx, msg); err != nil {
				b.logger.Error("Failed to forward chat message", "id", msg.ID, "error", err)
			}
		}
	}
}

// handleTargetEvent is called by chromedp for each event from the page. It must not
// block.
func (b *Bridge) handleTargetEvent(ev any) {
	switch ev := ev.(type) {
	case *runtime.EventBindingCalled:
		if ev.Name == bindingName {
			b.handlePayload([]byte(ev.Payload))
		}
	case *runtime.EventConsoleAPICalled:
		for _, arg := range ev.Args {
			value := string(arg.Value)
			if value == "" {
				value = arg.Description
			}
			b.logger.Debug("[BrowserLog]", "type", ev.Type, "value", value)
		}
	}
}

// handlePayload processes a single report from the page
func (b *Bridge) handlePayload(payload []byte) {
	envelope, err := relay.Decode(payload)
	if err != nil {
		telemetry.RecordScraped("invalid")
		b.logger.Debug("Ignoring malformed report from page", "error", err)
		return
	}

	switch envelope.Type {
	case relay.MessageTypeScrapeMessage:
		msg, err := relay.DecodeData[relay.ScrapedMessage](envelope)
		if err != nil {
			telemetry.RecordScraped("invalid")
			b.logger.Debug("Skipping chat message", "error", err)
			return
		}
		if !b.seen.Admit(msg.ID) {
			telemetry.RecordScraped("duplicate")
			return
		}
		b.logger.Info("[YouTube]", "author", msg.Author, "text", msg.Text)
		b.enqueue(msg)

	case messageTypeScrapeState:
		state, err := relay.DecodeData[pageState](envelope)
		if err != nil {
			b.logger.Warn("Ignoring invalid state report from page", "error", err)
			return
		}
		switch state.State {
		case "observing":
			if b.transition(StateAwaitingContainer, StateObserving) {
				b.logger.Info("Observing YouTube chat", "videoId", b.videoId)
			}
		case "disabled":
			if b.transition(StateAwaitingContainer, StateChatDisabled) {
				b.logger.Warn("Chat is disabled for this stream", "videoId", b.videoId)
				b.enqueue(&relay.ScrapedMessage{
					ID:     "system-" + uuid.NewString(),
					Author: "YouTube",
					Text:   ChatDisabledNotice,
				})
			}
		}

	default:
		b.logger.Debug("Ignoring unexpected report from page", "type", envelope.Type)
	}
}

func (b *Bridge) enqueue(msg *relay.ScrapedMessage) {
	select {
	case b.pending <- msg:
		telemetry.RecordScraped("forwarded")
	default:
		telemetry.RecordScraped("dropped")
		b.logger.Error("Forwarding queue is full; dropping chat message", "id", msg.ID)
	}
}

func (b *Bridge) setState(state State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = state
}

// transition moves to the next state only if we're currently in the expected one
func (b *Bridge) transition(from State, to State) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != from {
		return false
	}
	b.state = to
	return true
}
