package youtube

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Sender(t *testing.T) {
	t.Run("unconfigured sender fails every send", func(t *testing.T) {
		s, err := NewSender(context.Background(), discardLogger(), &Config{}, "dQw4w9WgXcQ")
		assert.NoError(t, err)
		assert.ErrorIs(t, s.GetStatus(), ErrNotConfigured)
		assert.ErrorIs(t, s.Send(context.Background(), "hello"), ErrNotConfigured)
	})
	t.Run("send without a video fails", func(t *testing.T) {
		api := &fakeApi{}
		s := newSender(discardLogger(), api, "")
		assert.ErrorIs(t, s.GetStatus(), ErrNoVideo)
		assert.ErrorIs(t, s.Send(context.Background(), "hello"), ErrNoVideo)
		assert.Empty(t, api.inserted)
	})
	t.Run("live chat ID is resolved once and cached", func(t *testing.T) {
		api := &fakeApi{liveChatIds: map[string]string{"dQw4w9WgXcQ": "chat-1"}}
		s := newSender(discardLogger(), api, "dQw4w9WgXcQ")
		assert.NoError(t, s.GetStatus())

		assert.NoError(t, s.Send(context.Background(), "one"))
		assert.NoError(t, s.Send(context.Background(), "two"))
		assert.Equal(t, 1, api.lookups)
		assert.Equal(t, []string{"chat-1:one", "chat-1:two"}, api.inserted)
	})
	t.Run("changing the video resolves a new live chat ID", func(t *testing.T) {
		api := &fakeApi{liveChatIds: map[string]string{
			"dQw4w9WgXcQ": "chat-1",
			"9bZkp7q19f0": "chat-2",
		}}
		s := newSender(discardLogger(), api, "dQw4w9WgXcQ")
		assert.NoError(t, s.Send(context.Background(), "one"))

		s.SetVideoID("9bZkp7q19f0")
		assert.NoError(t, s.Send(context.Background(), "two"))
		assert.Equal(t, 2, api.lookups)
		assert.Equal(t, []string{"chat-1:one", "chat-2:two"}, api.inserted)
	})
	t.Run("video without live chat yields an error", func(t *testing.T) {
		api := &fakeApi{}
		s := newSender(discardLogger(), api, "dQw4w9WgXcQ")
		assert.ErrorIs(t, s.Send(context.Background(), "hello"), ErrNoLiveChat)
	})
	t.Run("failed insert discards the cached live chat ID", func(t *testing.T) {
		api := &fakeApi{
			liveChatIds: map[string]string{"dQw4w9WgXcQ": "chat-1"},
			insertErr:   errors.New("mock insert failure"),
		}
		s := newSender(discardLogger(), api, "dQw4w9WgXcQ")
		assert.Error(t, s.Send(context.Background(), "one"))

		api.setInsertErr(nil)
		assert.NoError(t, s.Send(context.Background(), "two"))
		assert.Equal(t, 2, api.lookups)
	})
}

type fakeApi struct {
	mu          sync.Mutex
	liveChatIds map[string]string
	insertErr   error
	lookups     int
	inserted    []string
}

func (f *fakeApi) GetActiveLiveChatId(ctx context.Context, videoId string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	id, ok := f.liveChatIds[videoId]
	if !ok {
		return "", ErrNoLiveChat
	}
	return id, nil
}

func (f *fakeApi) InsertMessage(ctx context.Context, liveChatId string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, liveChatId+":"+text)
	return nil
}

func (f *fakeApi) setInsertErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertErr = err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
