package health

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// Status is the JSON body served by the status endpoint
type Status struct {
	IsReady     bool   `json:"isReady"`
	Message     string `json:"message"`
	Subscribers int    `json:"subscribers"`
}

type GetChatStatusFunc func() error
type GetSenderStatusFunc func() error
type CountSubscribersFunc func() int

// Server reports whether the relay is able to do its job: reading Twitch chat is
// required, while a YouTube sender that isn't ready only degrades functionality
type Server struct {
	getChatStatus    GetChatStatusFunc
	getSenderStatus  GetSenderStatusFunc
	countSubscribers CountSubscribersFunc
}

func NewServer(getChatStatus GetChatStatusFunc, getSenderStatus GetSenderStatusFunc, countSubscribers CountSubscribersFunc) *Server {
	return &Server{
		getChatStatus:    getChatStatus,
		getSenderStatus:  getSenderStatus,
		countSubscribers: countSubscribers,
	}
}

func (s *Server) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	status := s.resolveStatus()
	res.Header().Set("content-type", "application/json")
	if err := json.NewEncoder(res).Encode(status); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) resolveStatus() Status {
	subscribers := s.countSubscribers()
	if err := s.getChatStatus(); err != nil {
		return Status{
			IsReady:     false,
			Message:     fmt.Sprintf("Not connected to Twitch chat. (Error: %s)", err),
			Subscribers: subscribers,
		}
	}

	if err := s.getSenderStatus(); err != nil {
		return Status{
			IsReady: true,
			Message: fmt.Sprintf(
				"Relaying chat to %s, but replies can't be sent to YouTube. (Error: %s)",
				pluralizeViewers(subscribers),
				err,
			),
			Subscribers: subscribers,
		}
	}

	return Status{
		IsReady:     true,
		Message:     fmt.Sprintf("Chat relay is fully operational, with %s connected.", pluralizeViewers(subscribers)),
		Subscribers: subscribers,
	}
}

func pluralizeViewers(n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d viewer", n)
	if n != 1 {
		b.WriteString("s")
	}
	return b.String()
}
