package presence

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"nebulachat/infrastructure"
	"nebulachat/internal/realtime"
	"nebulachat/internal/sessions"
	"nebulachat/internal/storage"
)

const (
	// TypingWindow is how long a typing flag counts as live.
	TypingWindow = 10 * time.Second
	// RetentionWindow is how long typing rows are kept at all.
	RetentionWindow = 30 * time.Second
)

type typingChanged struct {
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

type Service struct {
	typing storage.TypingStore
	broker realtime.Broker
	clock  infrastructure.Clock
	logger *slog.Logger
}

func NewService(typing storage.TypingStore, broker realtime.Broker, clock infrastructure.Clock) *Service {
	return &Service{
		typing: typing,
		broker: broker,
		clock:  clock,
		logger: slog.With("component", "presence"),
	}
}

// SetTyping records the caller's typing flag for the room.
func (s *Service) SetTyping(ctx context.Context, caller *sessions.Session, roomID string, isTyping bool) error {
	now := s.clock.Now()
	err := s.typing.UpsertTyping(ctx, &storage.TypingStatus{
		RoomID:    roomID,
		UserID:    caller.UserID,
		Username:  caller.Username,
		IsTyping:  isTyping,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("set typing: %w", err)
	}

	event, err := realtime.NewEvent(realtime.EventTypingChanged, roomID, typingChanged{UserID: caller.UserID, IsTyping: isTyping}, now)
	if err == nil {
		err = realtime.PublishEvent(ctx, s.broker, event)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish typing change", "room_id", roomID, "error", err)
	}
	return nil
}

// GetTypingUsers lists who is typing in the room right now, sorted by
// username. Flags older than TypingWindow are ignored.
func (s *Service) GetTypingUsers(ctx context.Context, roomID, excludeUserID string) ([]string, error) {
	rows, err := s.typing.TypingByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("load typing status: %w", err)
	}

	cutoff := s.clock.Now().Add(-TypingWindow)
	usernames := make([]string, 0, len(rows))
	for _, row := range rows {
		if !row.IsTyping || row.UserID == excludeUserID || row.UpdatedAt.Before(cutoff) {
			continue
		}
		usernames = append(usernames, row.Username)
	}
	sort.Strings(usernames)
	return usernames, nil
}

// Cleanup deletes typing rows older than RetentionWindow.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	removed, err := s.typing.DeleteTypingBefore(ctx, s.clock.Now().Add(-RetentionWindow))
	if err != nil {
		return 0, fmt.Errorf("cleanup typing status: %w", err)
	}
	return removed, nil
}

// Stop drops the caller's typing row and announces the change, logging
// instead of failing. Used when a connection goes away.
func (s *Service) Stop(ctx context.Context, caller *sessions.Session, roomID string) {
	if err := s.typing.DeleteTyping(ctx, roomID, caller.UserID); err != nil {
		s.logger.DebugContext(ctx, "failed to clear typing flag", "room_id", roomID, "user_id", caller.UserID, "error", err)
		return
	}
	event, err := realtime.NewEvent(realtime.EventTypingChanged, roomID, typingChanged{UserID: caller.UserID}, s.clock.Now())
	if err == nil {
		err = realtime.PublishEvent(ctx, s.broker, event)
	}
	if err != nil {
		s.logger.DebugContext(ctx, "failed to publish typing stop", "room_id", roomID, "error", err)
	}
}

type subscription struct {
	inner   realtime.Subscription
	stopped atomic.Bool
}

func (s *subscription) Unsubscribe() {
	if s.stopped.CompareAndSwap(false, true) {
		s.inner.Unsubscribe()
	}
}

// Subscribe calls onChange with the full list of typing usernames, minus
// excludeUserID, whenever anyone's typing state in the room changes.
func (s *Service) Subscribe(roomID, excludeUserID string, onChange func([]string)) (realtime.Subscription, error) {
	sub := &subscription{}
	inner, err := s.broker.Subscribe(realtime.TypingTopic(roomID), func(event realtime.Event) {
		if sub.stopped.Load() || event.Type != realtime.EventTypingChanged {
			return
		}
		usernames, err := s.GetTypingUsers(context.Background(), roomID, excludeUserID)
		if err != nil {
			s.logger.Warn("failed to recompute typing users", "room_id", roomID, "error", err)
			return
		}
		onChange(usernames)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to typing in room %s: %w", roomID, err)
	}
	sub.inner = inner
	return sub, nil
}
