package scrape

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golden-vcr/chatrelay/internal/relay"
	"github.com/golden-vcr/chatrelay/internal/telemetry"
)

func Test_Bridge_handlePayload(t *testing.T) {
	t.Run("new messages are queued in order", func(t *testing.T) {
		b := newTestBridge(nil)
		b.handlePayload([]byte(`{"type":"scrape-message","data":{"id":"a","author":"Carol","text":"first"}}`))
		b.handlePayload([]byte(`{"type":"scrape-message","data":{"id":"b","author":"Dave","text":"second","avatar":"https://yt3.ggpht.com/d.jpg"}}`))

		assert.Equal(t, []*relay.ScrapedMessage{
			{ID: "a", Author: "Carol", Text: "first"},
			{ID: "b", Author: "Dave", Text: "second", Avatar: "https://yt3.ggpht.com/d.jpg"},
		}, drain(b))
	})
	t.Run("each message ID is forwarded only once", func(t *testing.T) {
		telemetry.Init()
		duplicates := telemetry.ScrapedMessages.WithLabelValues("duplicate")
		before := testutil.ToFloat64(duplicates)

		b := newTestBridge(nil)
		for i := 0; i < 3; i++ {
			b.handlePayload([]byte(`{"type":"scrape-message","data":{"id":"a","author":"Carol","text":"hello"}}`))
		}
		assert.Len(t, drain(b), 1)
		assert.Equal(t, before+2, testutil.ToFloat64(duplicates))
	})
	t.Run("malformed and incomplete messages are skipped", func(t *testing.T) {
		b := newTestBridge(nil)
		b.handlePayload([]byte(`not json`))
		b.handlePayload([]byte(`{"type":"scrape-message","data":{"id":"a","text":"no author"}}`))
		b.handlePayload([]byte(`{"type":"scrape-message","data":{"author":"Carol","text":"no id"}}`))
		b.handlePayload([]byte(`{"type":"scrape-message","data":{"id":"b","author":"Carol","text":"ok"}}`))

		msgs := drain(b)
		require.Len(t, msgs, 1)
		assert.Equal(t, "b", msgs[0].ID)
	})
	t.Run("observing state is reached from awaiting container", func(t *testing.T) {
		b := newTestBridge(nil)
		b.setState(StateAwaitingContainer)
		b.handlePayload([]byte(`{"type":"scrape-state","data":{"state":"observing"}}`))
		assert.Equal(t, StateObserving, b.State())
	})
	t.Run("disabled chat emits exactly one system notice", func(t *testing.T) {
		b := newTestBridge(nil)
		b.setState(StateAwaitingContainer)
		b.handlePayload([]byte(`{"type":"scrape-state","data":{"state":"disabled"}}`))
		b.handlePayload([]byte(`{"type":"scrape-state","data":{"state":"disabled"}}`))
		b.handlePayload([]byte(`{"type":"scrape-state","data":{"state":"observing"}}`))

		assert.Equal(t, StateChatDisabled, b.State())
		msgs := drain(b)
		require.Len(t, msgs, 1)
		assert.Equal(t, "YouTube", msgs[0].Author)
		assert.Equal(t, ChatDisabledNotice, msgs[0].Text)
		assert.True(t, strings.HasPrefix(msgs[0].ID, "system-"))
	})
	t.Run("unknown state is ignored", func(t *testing.T) {
		b := newTestBridge(nil)
		b.setState(StateAwaitingContainer)
		b.handlePayload([]byte(`{"type":"scrape-state","data":{"state":"exploded"}}`))
		assert.Equal(t, StateAwaitingContainer, b.State())
	})
}

func Test_Bridge_handleTargetEvent(t *testing.T) {
	b := newTestBridge(nil)
	b.handleTargetEvent(&runtime.EventBindingCalled{
		Name:    "someOtherBinding",
		Payload: `{"type":"scrape-message","data":{"id":"x","author":"Eve","text":"nope"}}`,
	})
	b.handleTargetEvent(&runtime.EventBindingCalled{
		Name:    bindingName,
		Payload: `{"type":"scrape-message","data":{"id":"y","author":"Carol","text":"yes"}}`,
	})

	msgs := drain(b)
	require.Len(t, msgs, 1)
	assert.Equal(t, "y", msgs[0].ID)
}

func Test_Bridge_forward(t *testing.T) {
	emitter := &fakeEmitter{failOn: "b"}
	b := newTestBridge(emitter)
	b.handlePayload([]byte(`{"type":"scrape-message","data":{"id":"a","author":"Carol","text":"1"}}`))
	b.handlePayload([]byte(`{"type":"scrape-message","data":{"id":"b","author":"Carol","text":"2"}}`))
	b.handlePayload([]byte(`{"type":"scrape-message","data":{"id":"c","author":"Carol","text":"3"}}`))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.forward(ctx)
		close(done)
	}()

	// A failure to emit one message doesn't hold up the rest
	assert.Eventually(t, func() bool { return len(emitter.emittedIds()) == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"a", "c"}, emitter.emittedIds())

	cancel()
	<-done
}

func Test_Bridge_observe(t *testing.T) {
	t.Run("browser going away on its own is an error", func(t *testing.T) {
		b := newTestBridge(&fakeEmitter{})
		browserCtx, cancelBrowser := context.WithCancel(context.Background())
		cancelBrowser()

		err := b.observe(context.Background(), browserCtx)
		assert.ErrorIs(t, err, ErrBrowserExited)
	})
	t.Run("shutting down on request is not an error", func(t *testing.T) {
		b := newTestBridge(&fakeEmitter{})
		ctx, cancel := context.WithCancel(context.Background())
		browserCtx, cancelBrowser := context.WithCancel(ctx)
		defer cancelBrowser()
		cancel()

		assert.NoError(t, b.observe(ctx, browserCtx))
	})
}

func Test_observerScript(t *testing.T) {
	assert.Contains(t, observerScript, bindingName)
	assert.Contains(t, observerScript, "#item-scroller")
	assert.Contains(t, observerScript, "yt-live-chat-text-message-renderer")
	assert.Contains(t, observerScript, string(messageTypeScrapeState))
	assert.Contains(t, observerScript, string(relay.MessageTypeScrapeMessage))
}

func newTestBridge(emitter Emitter) *Bridge {
	return NewBridge(discardLogger(), "dQw4w9WgXcQ", BrowserConfig{NavigationTimeout: time.Second}, emitter)
}

func drain(b *Bridge) []*relay.ScrapedMessage {
	var msgs []*relay.ScrapedMessage
	for {
		select {
		case msg := <-b.pending:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

type fakeEmitter struct {
	mu      sync.Mutex
	failOn  string
	emitted []string
	texts   []string
}

func (e *fakeEmitter) Emit(ctx context.Context, msg *relay.ScrapedMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if msg.ID == e.failOn {
		return errors.New("mock emit failure")
	}
	e.emitted = append(e.emitted, msg.ID)
	e.texts = append(e.texts, msg.Text)
	return nil
}

func (e *fakeEmitter) emittedIds() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.emitted...)
}

func (e *fakeEmitter) emittedTexts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.texts...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
