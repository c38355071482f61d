// Package notifications provides real-time event delivery over websockets.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"mix/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

const (
	// Max connections per user.
	maxConnsPerUser = 12
	// Max total connections.
	maxTotalConns = 10000
)

// Event is the wire format for everything pushed down a websocket. Events
// carry the full data (push-as-data): a client that receives a new_message
// event needs no follow-up fetch, and the embedded message ID doubles as the
// sequence number for gap detection after a reconnect.
type Event struct {
	Type    string      `json:"type"` // "new_message", "message_read", "new_match", "unmatch", "user_status", "subscribed", "error"
	MatchID uint        `json:"match_id,omitempty"`
	UserID  uint        `json:"user_id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// MatchHub fans events out to websocket clients. Delivery is match-centric
// for chat events and user-centric for personal events (new match, unmatch).
type MatchHub struct {
	mu sync.RWMutex

	// matchID -> set of subscribed userIDs
	matches map[uint]map[uint]struct{}

	// userID -> set of matchIDs the user is subscribed to
	userMatches map[uint]map[uint]struct{}

	// userID -> set of active clients (multi-device)
	userConns map[uint]map[*Client]struct{}

	totalConns int
	presence   *ConnectionManager
}

// Name returns a human-readable identifier for this hub.
func (h *MatchHub) Name() string { return "match hub" }

// NewMatchHub creates a hub. Redis is optional; without it presence is
// process-local only.
func NewMatchHub(rdb *redis.Client) *MatchHub {
	return &MatchHub{
		matches:     make(map[uint]map[uint]struct{}),
		userMatches: make(map[uint]map[uint]struct{}),
		userConns:   make(map[uint]map[*Client]struct{}),
		presence:    NewConnectionManager(rdb, ConnectionManagerConfig{}),
	}
}

// SetPresenceCallbacks wires online/offline transitions to a consumer.
func (h *MatchHub) SetPresenceCallbacks(onOnline, onOffline func(userID uint)) {
	if h.presence != nil {
		h.presence.SetCallbacks(onOnline, onOffline)
	}
}

// Register creates a client for the connection, enforcing per-user and total
// connection limits.
func (h *MatchHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}

	if h.userConns[userID] == nil {
		h.userConns[userID] = make(map[*Client]struct{})
	}
	if len(h.userConns[userID]) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	client.OnActivity = func(uid uint) {
		if h.presence != nil {
			h.presence.Touch(context.Background(), uid)
		}
	}

	h.userConns[userID][client] = struct{}{}
	h.totalConns++
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()
	if h.presence != nil {
		h.presence.Register(context.Background(), userID)
	}
	return client, nil
}

// UnregisterClient removes one client. Subscriptions survive until the user's
// last client disconnects, so a second device keeps receiving events.
func (h *MatchHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if clients, ok := h.userConns[client.UserID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			h.totalConns--
			removed = true
		}
		if len(clients) > 0 {
			h.mu.Unlock()
			if removed {
				observability.WebSocketConnectionsTotal.Dec()
				if h.presence != nil {
					h.presence.Unregister(context.Background(), client.UserID)
				}
			}
			return
		}
		delete(h.userConns, client.UserID)
	} else {
		h.mu.Unlock()
		return
	}

	// Last connection gone: drop all match subscriptions.
	if subs, ok := h.userMatches[client.UserID]; ok {
		for matchID := range subs {
			if users, ok := h.matches[matchID]; ok {
				delete(users, client.UserID)
				if len(users) == 0 {
					delete(h.matches, matchID)
				}
			}
		}
		delete(h.userMatches, client.UserID)
	}
	h.mu.Unlock()

	if removed {
		observability.WebSocketConnectionsTotal.Dec()
		if h.presence != nil {
			h.presence.Unregister(context.Background(), client.UserID)
		}
	}
}

// Subscribe attaches the user to a match's event stream. Authorization is the
// caller's job; the hub only does delivery.
func (h *MatchHub) Subscribe(userID, matchID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, connected := h.userConns[userID]; !connected {
		return
	}

	if h.matches[matchID] == nil {
		h.matches[matchID] = make(map[uint]struct{})
	}
	h.matches[matchID][userID] = struct{}{}

	if h.userMatches[userID] == nil {
		h.userMatches[userID] = make(map[uint]struct{})
	}
	h.userMatches[userID][matchID] = struct{}{}
}

// Unsubscribe detaches the user from a match's event stream.
func (h *MatchHub) Unsubscribe(userID, matchID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if users, ok := h.matches[matchID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(h.matches, matchID)
		}
	}
	if subs, ok := h.userMatches[userID]; ok {
		delete(subs, matchID)
	}
}

// IsSubscribed reports whether the user currently receives a match's events.
func (h *MatchHub) IsSubscribed(userID, matchID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs, ok := h.userMatches[userID]
	if !ok {
		return false
	}
	_, subscribed := subs[matchID]
	return subscribed
}

// IsOnline reports whether the user has at least one active connection,
// consulting Redis presence when available.
func (h *MatchHub) IsOnline(userID uint) bool {
	if h.presence != nil {
		return h.presence.IsOnline(context.Background(), userID)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.userConns[userID]
	return ok && len(clients) > 0
}

// BroadcastToMatch delivers an event to every connected subscriber of a match.
func (h *MatchHub) BroadcastToMatch(matchID uint, event Event) {
	event.MatchID = matchID
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("MatchHub: marshal event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	users, ok := h.matches[matchID]
	if !ok {
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(event.Type).Inc()
	for userID := range users {
		for client := range h.userConns[userID] {
			client.TrySend(data)
		}
	}
}

// BroadcastToUser delivers an event to all of one user's connections.
func (h *MatchHub) BroadcastToUser(userID uint, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("MatchHub: marshal event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.userConns[userID]
	if !ok {
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(event.Type).Inc()
	for client := range clients {
		client.TrySend(data)
	}
}

// StartWiring subscribes the hub to the Redis channels the Notifier
// publishes on, so events reach clients on every server instance.
func (h *MatchHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartEventSubscriber(ctx, func(channel, payload string) {
		var event Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			log.Printf("MatchHub: bad payload on %s: %v", channel, err)
			return
		}

		switch {
		case strings.HasPrefix(channel, "chat:match:"):
			var matchID uint
			if _, err := fmt.Sscanf(channel, "chat:match:%d", &matchID); err != nil {
				log.Printf("MatchHub: bad channel %s", channel)
				return
			}
			h.BroadcastToMatch(matchID, event)
		case strings.HasPrefix(channel, "notify:user:"):
			var userID uint
			if _, err := fmt.Sscanf(channel, "notify:user:%d", &userID); err != nil {
				log.Printf("MatchHub: bad channel %s", channel)
				return
			}
			h.BroadcastToUser(userID, event)
		default:
			log.Printf("MatchHub: unexpected channel %s", channel)
		}
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *MatchHub) Shutdown(_ context.Context) error {
	if h.presence != nil {
		h.presence.Stop()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.userConns {
		for client := range clients {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				log.Printf("failed to write close message for user %d: %v", userID, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for user %d: %v", userID, err)
			}
		}
	}

	h.matches = make(map[uint]map[uint]struct{})
	h.userMatches = make(map[uint]map[uint]struct{})
	h.userConns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
