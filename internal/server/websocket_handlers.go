package server

import (
	"context"
	"encoding/json"
	"log"

	"mix/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// wsClientFrame is what clients send up the chat socket. Everything the
// server pushes down is a notifications.Event; the upstream direction only
// carries channel management, never chat content (messages go through the
// HTTP API so they are persisted before fan-out).
type wsClientFrame struct {
	Type    string `json:"type"` // "subscribe", "unsubscribe"
	MatchID uint   `json:"match_id"`
}

// WebSocketChatHandler handles WebSocket connections for real-time chat
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		// Get userID from context locals (set by WebSocketAuthRequired middleware)
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			log.Printf("WebSocket chat: unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"message":"unauthorized"}}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket chat: failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"message":"`+err.Error()+`"}}`))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(c *notifications.Client, frame []byte) {
			var msg wsClientFrame
			if err := json.Unmarshal(frame, &msg); err != nil {
				log.Printf("WebSocket chat: invalid frame from user %d", userID)
				return
			}

			switch msg.Type {
			case "subscribe":
				if msg.MatchID == 0 {
					return
				}
				// The hub only does delivery; participation is checked here.
				if !s.isMatchParticipant(ctx, userID, msg.MatchID) {
					s.wsReply(c, notifications.Event{
						Type:    "error",
						MatchID: msg.MatchID,
						Payload: map[string]string{"message": "not a participant"},
					})
					return
				}
				s.hub.Subscribe(userID, msg.MatchID)
				s.wsReply(c, notifications.Event{
					Type:    "subscribed",
					MatchID: msg.MatchID,
				})

			case "unsubscribe":
				if msg.MatchID == 0 {
					return
				}
				s.hub.Unsubscribe(userID, msg.MatchID)
			}
		}

		s.userService.TouchLastSeen(ctx, userID)

		go client.WritePump()
		client.ReadPump()
	})
}

// wsReply sends a control event back down one client's connection.
func (s *Server) wsReply(c *notifications.Client, event notifications.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	c.TrySend(payload)
}

// isMatchParticipant reports whether the user belongs to the match pair.
func (s *Server) isMatchParticipant(ctx context.Context, userID, matchID uint) bool {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil || match == nil {
		return false
	}
	return match.HasParticipant(userID)
}
