package scrape

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidVideoURL is returned when no video ID can be found in a URL
var ErrInvalidVideoURL = errors.New("invalid YouTube URL: expected a link like https://www.youtube.com/watch?v=XXXXXXXXXXX")

var videoIdPattern = regexp.MustCompile(`(?:v=|/live/|\.be/)([a-zA-Z0-9_-]{11})`)

// ParseVideoID extracts the 11-character video ID from a YouTube watch URL, a
// youtube.com/live/ URL, or a youtu.be short link
func ParseVideoID(url string) (string, error) {
	m := videoIdPattern.FindStringSubmatch(url)
	if m == nil {
		return "", ErrInvalidVideoURL
	}
	return m[1], nil
}

// ChatURL returns the URL of the popout chat page for the given video
func ChatURL(videoId string) string {
	return fmt.Sprintf("https://www.youtube.com/live_chat?is_popout=1&v=%s", videoId)
}
