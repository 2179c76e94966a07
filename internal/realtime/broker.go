package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	EventMessageCreated = "message.created"
	EventTypingChanged  = "typing.changed"

	EventParticipantRemoved = "participant.removed"
	EventRoomDeleted        = "room.deleted"
)

// Event is the envelope carried on every room topic.
type Event struct {
	Type       string          `json:"type"`
	RoomID     string          `json:"room_id"`
	Data       json.RawMessage `json:"data"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewEvent encodes payload into an Event for roomID.
func NewEvent(eventType, roomID string, payload any, at time.Time) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s event: %w", eventType, err)
	}
	return Event{Type: eventType, RoomID: roomID, Data: data, OccurredAt: at}, nil
}

// MessagesTopic is the topic carrying inserted messages for a room.
func MessagesTopic(roomID string) string { return "rooms." + roomID + ".messages" }

// TypingTopic is the topic carrying typing changes for a room.
func TypingTopic(roomID string) string { return "rooms." + roomID + ".typing" }

// MembersTopic is the topic carrying removals and deletion for a room.
func MembersTopic(roomID string) string { return "rooms." + roomID + ".members" }

// Subscription is returned by Broker.Subscribe. Unsubscribe may be called
// any number of times.
type Subscription interface {
	Unsubscribe()
}

// Broker fans room events out to subscribers. Events on one topic are
// delivered in publish order; nothing is promised across topics.
type Broker interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(topic string, handler func(Event)) (Subscription, error)
	Close() error
}

func topicFor(event Event) (string, error) {
	switch event.Type {
	case EventMessageCreated:
		return MessagesTopic(event.RoomID), nil
	case EventTypingChanged:
		return TypingTopic(event.RoomID), nil
	case EventParticipantRemoved, EventRoomDeleted:
		return MembersTopic(event.RoomID), nil
	}
	return "", fmt.Errorf("unknown event type %q", event.Type)
}

// PublishEvent publishes event on the topic implied by its type.
func PublishEvent(ctx context.Context, b Broker, event Event) error {
	topic, err := topicFor(event)
	if err != nil {
		return err
	}
	return b.Publish(ctx, topic, event)
}
