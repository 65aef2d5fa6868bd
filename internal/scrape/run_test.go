package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatPage has one complete message, one that's missing its author, and a third
// message that's appended after the observer has attached
const chatPage = `<!DOCTYPE html>
<html>
  <body>
    <div id="chat-messages">
      <div id="item-scroller">
        <yt-live-chat-text-message-renderer id="m1">
          <img id="img" src="https://yt3.ggpht.com/carol.jpg">
          <span id="author-name">Carol</span>
          <span id="message">first</span>
        </yt-live-chat-text-message-renderer>
        <yt-live-chat-text-message-renderer id="m2">
          <span id="message">nobody said this</span>
        </yt-live-chat-text-message-renderer>
      </div>
    </div>
    <script>
      setTimeout(() => {
        const node = document.createElement("yt-live-chat-text-message-renderer");
        node.id = "m3";
        node.innerHTML = '<span id="author-name">Dave</span><span id="message">later</span>';
        document.getElementById("item-scroller").appendChild(node);
      }, 500);
    </script>
  </body>
</html>
`

// lateContainerPage only renders the chat container after a delay
const lateContainerPage = `<!DOCTYPE html>
<html>
  <body>
    <script>
      setTimeout(() => {
        document.body.innerHTML = '<div id="chat-messages"><div id="item-scroller">' +
          '<yt-live-chat-text-message-renderer id="m1">' +
          '<span id="author-name">Carol</span><span id="message">finally</span>' +
          '</yt-live-chat-text-message-renderer></div></div>';
      }, 500);
    </script>
  </body>
</html>
`

const disabledPage = `<!DOCTYPE html>
<html>
  <body>
    <p>Chat is disabled for this live stream.</p>
  </body>
</html>
`

func Test_Bridge_Run(t *testing.T) {
	execPath, err := FindBrowser(os.Getenv("CHROME_PATH"))
	if err != nil {
		t.Skipf("no browser available: %v", err)
	}

	hang := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", servePage(chatPage))
	mux.HandleFunc("/late", servePage(lateContainerPage))
	mux.HandleFunc("/disabled", servePage(disabledPage))
	mux.HandleFunc("/hang", func(res http.ResponseWriter, req *http.Request) {
		select {
		case <-hang:
		case <-req.Context().Done():
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	defer close(hang)

	newBridge := func(path string, navigationTimeout time.Duration, emitter Emitter) *Bridge {
		return NewBridge(discardLogger(), "dQw4w9WgXcQ", BrowserConfig{
			ExecPath:          execPath,
			Headless:          true,
			NoSandbox:         true,
			NavigationTimeout: navigationTimeout,
			PageURL:           srv.URL + path,
		}, emitter)
	}
	run := func(b *Bridge) (context.CancelFunc, <-chan error) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- b.Run(ctx)
		}()
		return cancel, done
	}
	stop := func(t *testing.T, cancel context.CancelFunc, done <-chan error) {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			require.FailNow(t, "bridge did not stop")
		}
	}

	t.Run("messages are forwarded in order, skipping incomplete nodes", func(t *testing.T) {
		emitter := &fakeEmitter{}
		b := newBridge("/chat", 10*time.Second, emitter)
		cancel, done := run(b)
		defer stop(t, cancel, done)

		require.Eventually(t, func() bool { return len(emitter.emittedIds()) >= 2 }, 15*time.Second, 50*time.Millisecond)
		assert.Equal(t, []string{"m1", "m3"}, emitter.emittedIds())
		assert.Equal(t, StateObserving, b.State())
	})
	t.Run("observer waits for the container to appear", func(t *testing.T) {
		emitter := &fakeEmitter{}
		b := newBridge("/late", 10*time.Second, emitter)
		cancel, done := run(b)
		defer stop(t, cancel, done)

		require.Eventually(t, func() bool { return len(emitter.emittedIds()) == 1 }, 15*time.Second, 50*time.Millisecond)
		assert.Equal(t, []string{"m1"}, emitter.emittedIds())
	})
	t.Run("disabled chat yields a single notice and no observation", func(t *testing.T) {
		emitter := &fakeEmitter{}
		b := newBridge("/disabled", 10*time.Second, emitter)
		cancel, done := run(b)
		defer stop(t, cancel, done)

		require.Eventually(t, func() bool { return len(emitter.emittedTexts()) == 1 }, 15*time.Second, 50*time.Millisecond)
		assert.Equal(t, []string{ChatDisabledNotice}, emitter.emittedTexts())
		assert.Equal(t, StateChatDisabled, b.State())
	})
	t.Run("page that never loads times out", func(t *testing.T) {
		b := newBridge("/hang", 500*time.Millisecond, &fakeEmitter{})
		cancel, done := run(b)
		defer cancel()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, ErrNavigationTimeout)
		case <-time.After(30 * time.Second):
			require.FailNow(t, "navigation did not time out")
		}
	})
}

func servePage(page string) http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		res.Header().Set("Content-Type", "text/html; charset=utf-8")
		res.Write([]byte(page))
	}
}
