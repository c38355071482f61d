package notifications

import (
	"context"
	"encoding/json"
	"log"
	"runtime/debug"
	"strconv"

	"mix/internal/models"
	"mix/internal/service"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes realtime events into Redis channels. The MatchHub on
// every server instance subscribes to these channels, so an event published
// here reaches clients no matter which instance they are connected to.
//
// With a nil Redis client every publish is a no-op: the app keeps working,
// clients just fall back to fetching over REST.
type Notifier struct {
	rdb *redis.Client
}

var _ service.RealtimePublisher = (*Notifier)(nil)

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// MatchChannel derives the Redis channel name for a match's chat events.
func MatchChannel(matchID uint) string {
	return "chat:match:" + strconv.FormatUint(uint64(matchID), 10)
}

// UserChannel derives the Redis channel name for a user's personal events.
func UserChannel(userID uint) string {
	return "notify:user:" + strconv.FormatUint(uint64(userID), 10)
}

func (n *Notifier) publish(ctx context.Context, channel string, event Event) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, channel, string(payload)).Err()
}

// PublishNewMessage pushes a stored message to the match channel. The full
// message rides in the payload so clients need no follow-up fetch.
func (n *Notifier) PublishNewMessage(ctx context.Context, msg *models.Message) error {
	return n.publish(ctx, MatchChannel(msg.MatchID), Event{
		Type:    "new_message",
		MatchID: msg.MatchID,
		UserID:  msg.SenderID,
		Payload: msg,
	})
}

// PublishMessagesRead pushes read receipts to the match channel.
func (n *Notifier) PublishMessagesRead(ctx context.Context, matchID, readerID uint, messageIDs []uint) error {
	return n.publish(ctx, MatchChannel(matchID), Event{
		Type:    "message_read",
		MatchID: matchID,
		UserID:  readerID,
		Payload: map[string]interface{}{"reader_id": readerID, "message_ids": messageIDs},
	})
}

// PublishNewMatch tells both participants about their new match.
func (n *Notifier) PublishNewMatch(ctx context.Context, match *models.Match) error {
	event := Event{Type: "new_match", MatchID: match.ID, Payload: match}
	if err := n.publish(ctx, UserChannel(match.UserAID), event); err != nil {
		return err
	}
	return n.publish(ctx, UserChannel(match.UserBID), event)
}

// PublishUnmatch tells both participants the match is gone.
func (n *Notifier) PublishUnmatch(ctx context.Context, match *models.Match) error {
	event := Event{Type: "unmatch", MatchID: match.ID}
	if err := n.publish(ctx, UserChannel(match.UserAID), event); err != nil {
		return err
	}
	return n.publish(ctx, UserChannel(match.UserBID), event)
}

// StartEventSubscriber subscribes to the chat and personal event patterns and
// calls onMessage for each incoming message.
func (n *Notifier) StartEventSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "chat:match:*", "notify:user:*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in EventSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
