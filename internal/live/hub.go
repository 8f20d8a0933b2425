// Package live pushes leaderboard changes to websocket subscribers.
package live

import (
	"context"

	"clicker/internal/domain"

	"go.uber.org/zap"
)

// Event is one message sent to subscribers
type Event struct {
	Type  string                   `json:"type"`
	Entry *domain.LeaderboardEntry `json:"entry,omitempty"`
}

const eventScore = "score"

// Hub maintains the set of subscribers and broadcasts events to them
type Hub struct {
	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan Event
	done       chan struct{}
	subs       map[*subscriber]struct{}
	logger     *zap.Logger
}

// NewHub creates a hub; call Run to start it
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan Event, 64),
		done:       make(chan struct{}),
		subs:       make(map[*subscriber]struct{}),
		logger:     logger,
	}
}

// Run serves the hub until ctx is done
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for s := range h.subs {
				delete(h.subs, s)
				close(s.send)
			}
			return nil
		case s := <-h.register:
			h.subs[s] = struct{}{}
		case s := <-h.unregister:
			if _, ok := h.subs[s]; ok {
				delete(h.subs, s)
				close(s.send)
			}
		case ev := <-h.broadcast:
			for s := range h.subs {
				select {
				case s.send <- ev:
				default:
					// Not responsive
					h.logger.Debug("Dropping slow live subscriber")
					delete(h.subs, s)
					close(s.send)
				}
			}
		}
	}
}

// Publish queues an entry change for broadcast without blocking the caller
func (h *Hub) Publish(entry domain.LeaderboardEntry) {
	select {
	case h.broadcast <- Event{Type: eventScore, Entry: &entry}:
	default:
		h.logger.Warn("Live broadcast queue full, dropping event", zap.String("player", entry.PlayerName))
	}
}
