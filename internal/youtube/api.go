package youtube

import (
	"context"
	"fmt"

	yt "google.golang.org/api/youtube/v3"
)

type serviceApi struct {
	svc *yt.Service
}

// NewServiceApi adapts a YouTube Data API client to the LiveChatApi interface
func NewServiceApi(svc *yt.Service) LiveChatApi {
	return &serviceApi{svc: svc}
}

func (a *serviceApi) GetActiveLiveChatId(ctx context.Context, videoId string) (string, error) {
	res, err := a.svc.Videos.List([]string{"liveStreamingDetails"}).Id(videoId).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get video details: %w", err)
	}
	if len(res.Items) == 0 {
		return "", fmt.Errorf("video '%s' not found", videoId)
	}
	details := res.Items[0].LiveStreamingDetails
	if details == nil || details.ActiveLiveChatId == "" {
		return "", ErrNoLiveChat
	}
	return details.ActiveLiveChatId, nil
}

func (a *serviceApi) InsertMessage(ctx context.Context, liveChatId string, text string) error {
	message := &yt.LiveChatMessage{
		Snippet: &yt.LiveChatMessageSnippet{
			LiveChatId: liveChatId,
			Type:       "textMessageEvent",
			TextMessageDetails: &yt.LiveChatTextMessageDetails{
				MessageText: text,
			},
		},
	}
	_, err := a.svc.LiveChatMessages.Insert([]string{"snippet"}, message).Context(ctx).Do()
	return err
}
