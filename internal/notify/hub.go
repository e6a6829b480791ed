// Package notify implements the presence-notification hub: a process-wide
// registry of callback subscribers and a best-effort fan-out of presence
// snapshots.
package notify

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/worth-collab/worth-server/internal/api/metrics"
)

// Subscriber is an opaque remote-callback handle. Notify pushes one full
// presence snapshot; an error marks the subscriber as unreachable.
type Subscriber interface {
	Notify(snapshot string) error
}

// Hub holds the subscriber registry. Register and Unregister race from
// multiple client goroutines, so the registry is mutex-guarded.
type Hub struct {
	logger zerolog.Logger

	mu   sync.Mutex
	subs []Subscriber // registration order
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{logger: logger}
}

// Register adds the subscriber unless it is already present.
func (h *Hub) Register(s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, existing := range h.subs {
		if existing == s {
			return
		}
	}
	h.subs = append(h.subs, s)
	metrics.SubscribersConnected.Set(float64(len(h.subs)))
	h.logger.Debug().Int("subscribers", len(h.subs)).Msg("callback subscriber registered")
}

// Unregister removes the subscriber; absent handles are a no-op.
func (h *Hub) Unregister(s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

// Publish pushes the snapshot to every registered subscriber, fire and
// forget. At most one unreachable subscriber is pruned per publish: the
// last one whose delivery failed during this pass.
func (h *Hub) Publish(snapshot string) {
	h.mu.Lock()
	subs := make([]Subscriber, len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()

	var stale Subscriber
	for _, s := range subs {
		if err := s.Notify(snapshot); err != nil {
			h.logger.Warn().Err(err).Msg("callback delivery failed")
			stale = s
		}
	}
	metrics.NotificationsPublishedTotal.Add(float64(len(subs)))

	if stale != nil {
		h.mu.Lock()
		h.removeLocked(stale)
		h.mu.Unlock()
		metrics.StaleSubscribersPrunedTotal.Inc()
	}
}

// Subscribers reports the current registry size.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) removeLocked(s Subscriber) {
	for i, existing := range h.subs {
		if existing == s {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			metrics.SubscribersConnected.Set(float64(len(h.subs)))
			h.logger.Debug().Int("subscribers", len(h.subs)).Msg("callback subscriber removed")
			return
		}
	}
}
