package relay

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golden-vcr/chatrelay/internal/chat"
)

func Test_ServeWS(t *testing.T) {
	youtube := &fakeSender{}
	h := NewHub(discardLogger(), map[chat.Platform]Sender{chat.PlatformYouTube: youtube})

	mux := http.NewServeMux()
	mux.Handle("/ws", ServeWS(h, discardLogger(), RoleViewer))
	mux.Handle("/ingest", ServeWS(h, discardLogger(), RoleIngest))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	viewer := dial(t, srv, "/ws")
	defer viewer.Close()
	ingest := dial(t, srv, "/ingest")
	defer ingest.Close()

	// Only the viewer is registered to receive events
	assert.Eventually(t, func() bool { return h.NumSubscribers() == 1 }, time.Second, 10*time.Millisecond)

	t.Run("scraped messages are broadcast to viewers", func(t *testing.T) {
		payload, err := Encode(MessageTypeScrapeMessage, &ScrapedMessage{ID: "m1", Author: "Carol", Text: "<3"})
		require.NoError(t, err)
		require.NoError(t, ingest.WriteMessage(websocket.TextMessage, payload))

		viewer.SetReadDeadline(time.Now().Add(time.Second))
		_, message, err := viewer.ReadMessage()
		require.NoError(t, err)

		envelope, err := Decode(message)
		require.NoError(t, err)
		assert.Equal(t, MessageTypeChat, envelope.Type)
		assert.JSONEq(t, `{"platform":"YouTube","user":"Carol","text":"&lt;3"}`, string(envelope.Data))
	})
	t.Run("viewer send requests reach the sender", func(t *testing.T) {
		payload, err := Encode(MessageTypeSend, &SendRequest{Target: SendTargetYouTube, Text: "thanks!"})
		require.NoError(t, err)
		require.NoError(t, viewer.WriteMessage(websocket.TextMessage, payload))

		assert.Eventually(t, func() bool {
			sent := youtube.sentMessages()
			return len(sent) == 1 && sent[0] == "thanks!"
		}, time.Second, 10*time.Millisecond)
	})
	t.Run("viewers may not inject scraped messages", func(t *testing.T) {
		payload, err := Encode(MessageTypeScrapeMessage, &ScrapedMessage{ID: "m2", Author: "Mallory", Text: "spoofed"})
		require.NoError(t, err)
		require.NoError(t, viewer.WriteMessage(websocket.TextMessage, payload))

		viewer.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		_, _, err = viewer.ReadMessage()
		assert.Error(t, err)
	})
	t.Run("closed viewer is unregistered", func(t *testing.T) {
		other := dial(t, srv, "/ws")
		assert.Eventually(t, func() bool { return h.NumSubscribers() == 2 }, time.Second, 10*time.Millisecond)
		other.Close()
		assert.Eventually(t, func() bool { return h.NumSubscribers() == 1 }, time.Second, 10*time.Millisecond)
	})
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}
