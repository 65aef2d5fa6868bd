// Package telemetry registers the Prometheus metrics exported by the relay and the
// scraper
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// EventsBroadcast counts chat events fanned out by the hub, by platform
	EventsBroadcast *prometheus.CounterVec
	// SubscribersDropped counts subscribers disconnected because they fell behind
	SubscribersDropped prometheus.Counter
	// Subscribers is the number of currently-registered subscribers
	Subscribers prometheus.Gauge
	// AvatarLookups counts external avatar lookups, by result (ok, empty, error)
	AvatarLookups *prometheus.CounterVec
	// SendAttempts counts outbound messages, by platform and result (ok, error)
	SendAttempts *prometheus.CounterVec
	// ScrapedMessages counts messages reported by the YouTube chat page, by result
	// (forwarded, duplicate, invalid, dropped)
	ScrapedMessages *prometheus.CounterVec
)

// Init registers metrics; it's safe to call more than once
func Init() {
	once.Do(func() {
		EventsBroadcast = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chatrelay_events_broadcast_total", Help: "Number of chat events broadcast to subscribers"}, []string{"platform"})
		SubscribersDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "chatrelay_subscribers_dropped_total", Help: "Number of subscribers dropped for falling behind"})
		Subscribers = promauto.NewGauge(prometheus.GaugeOpts{Name: "chatrelay_subscribers", Help: "Number of connected subscribers"})
		AvatarLookups = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chatrelay_avatar_lookups_total", Help: "Number of external avatar lookups"}, []string{"result"})
		SendAttempts = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chatrelay_send_attempts_total", Help: "Number of outbound chat messages attempted"}, []string{"platform", "result"})
		ScrapedMessages = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chatrelay_scraped_messages_total", Help: "Number of messages extracted from the YouTube chat page"}, []string{"result"})
	})
}

// RecordAvatarLookup is suitable for use with avatar.Resolver.OnLookup
func RecordAvatarLookup(result string) {
	Init()
	AvatarLookups.WithLabelValues(result).Inc()
}

// RecordSend counts an outbound message attempt
func RecordSend(platform string, err error) {
	Init()
	result := "ok"
	if err != nil {
		result = "error"
	}
	SendAttempts.WithLabelValues(platform, result).Inc()
}

// RecordScraped counts a message extracted from the YouTube chat page
func RecordScraped(result string) {
	Init()
	ScrapedMessages.WithLabelValues(result).Inc()
}
