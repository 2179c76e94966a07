package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/google/uuid"

	"nebulachat/infrastructure"
	"nebulachat/internal/realtime"
	"nebulachat/internal/sessions"
	"nebulachat/internal/storage"
)

const maxContentLength = 2000

// Membership answers whether a user belongs to a room.
type Membership interface {
	IsParticipant(ctx context.Context, roomID, userID string) (bool, error)
}

type Service struct {
	store   storage.Store
	members Membership
	broker  realtime.Broker
	clock   infrastructure.Clock
	policy  AttachmentPolicy
	logger  *slog.Logger
}

func NewService(store storage.Store, members Membership, broker realtime.Broker, clock infrastructure.Clock, policy AttachmentPolicy) *Service {
	return &Service{
		store:   store,
		members: members,
		broker:  broker,
		clock:   clock,
		policy:  policy,
		logger:  slog.With("component", "chat"),
	}
}

// RequireMember fails with ErrNotFound unless userID participates in the room.
func (s *Service) RequireMember(ctx context.Context, roomID, userID string) error {
	ok, err := s.members.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("room %s: %w", roomID, infrastructure.ErrNotFound)
	}
	return nil
}

// Send stores a message from caller and announces it to room subscribers.
func (s *Service) Send(ctx context.Context, caller *sessions.Session, roomID string, in SendInput) (*MessageView, error) {
	if _, err := s.store.RoomByID(ctx, roomID); err != nil {
		return nil, fmt.Errorf("room %s: %w", roomID, err)
	}
	ok, err := s.members.IsParticipant(ctx, roomID, caller.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, infrastructure.ErrForbidden
	}

	content := strings.TrimSpace(in.Content)
	if content == "" && in.Attachment == nil {
		return nil, fmt.Errorf("%w: message is empty", infrastructure.ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", infrastructure.ErrInvalidInput, maxContentLength)
	}

	msg := &storage.Message{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		UserID:    caller.UserID,
		Username:  caller.Username,
		Content:   content,
		CreatedAt: s.clock.Now(),
	}

	if in.Attachment != nil {
		kind, err := s.policy.ValidateAttachment(*in.Attachment)
		if err != nil {
			return nil, err
		}
		ref := strings.TrimSpace(in.Attachment.Ref)
		if kind == AttachmentImage {
			msg.ImageRef = &ref
		} else {
			fileType := in.Attachment.ContentType
			msg.FileRef = &ref
			msg.FileType = &fileType
		}
	}

	var parent *storage.Message
	if in.ReplyToID != nil && *in.ReplyToID != "" {
		replyTo := *in.ReplyToID
		parent, err = s.store.MessageByID(ctx, replyTo)
		switch {
		case errors.Is(err, infrastructure.ErrNotFound):
			parent = nil
		case err != nil:
			return nil, fmt.Errorf("load reply target: %w", err)
		case parent.RoomID != roomID:
			return nil, fmt.Errorf("%w: cannot reply to a message from another room", infrastructure.ErrInvalidInput)
		}
		msg.ReplyToID = &replyTo
	}

	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	view := toMessageView(msg)
	if parent != nil {
		view.ReplyTo = toReplyPreview(parent)
	}
	s.publish(ctx, view)
	return view, nil
}

func (s *Service) publish(ctx context.Context, view *MessageView) {
	event, err := realtime.NewEvent(realtime.EventMessageCreated, view.RoomID, view, view.CreatedAt)
	if err == nil {
		err = realtime.PublishEvent(ctx, s.broker, event)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish message", "room_id", view.RoomID, "message_id", view.ID, "error", err)
	}
}

// FetchHistory returns the room's messages oldest first. Replies carry a
// preview of their parent when it still exists.
func (s *Service) FetchHistory(ctx context.Context, roomID string) ([]*MessageView, error) {
	messages, err := s.store.MessagesByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	byID := make(map[string]*storage.Message, len(messages))
	for _, m := range messages {
		byID[m.ID] = m
	}

	var missing []string
	for _, m := range messages {
		if m.ReplyToID == nil {
			continue
		}
		if _, ok := byID[*m.ReplyToID]; !ok {
			missing = append(missing, *m.ReplyToID)
		}
	}
	if len(missing) > 0 {
		parents, err := s.store.MessagesByIDs(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("load reply targets: %w", err)
		}
		for _, p := range parents {
			if p.RoomID != roomID {
				continue
			}
			byID[p.ID] = p
		}
	}

	views := make([]*MessageView, 0, len(messages))
	for _, m := range messages {
		view := toMessageView(m)
		if m.ReplyToID != nil {
			if parent, ok := byID[*m.ReplyToID]; ok {
				view.ReplyTo = toReplyPreview(parent)
			}
		}
		views = append(views, view)
	}
	return views, nil
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

// Subscribe calls onMessage for every message inserted into the room after
// the call. Redelivered messages are dropped by id.
func (s *Service) Subscribe(roomID string, onMessage func(*MessageView)) (realtime.Subscription, error) {
	sub := &subscription{}
	recent := newRecentIDs()

	inner, err := s.broker.Subscribe(realtime.MessagesTopic(roomID), func(event realtime.Event) {
		if sub.stopped.Load() || event.Type != realtime.EventMessageCreated {
			return
		}
		var view MessageView
		if err := json.Unmarshal(event.Data, &view); err != nil {
			s.logger.Warn("dropping undecodable message event", "room_id", roomID, "error", err)
			return
		}
		if !recent.firstSighting(view.ID) {
			return
		}
		onMessage(&view)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to room %s: %w", roomID, err)
	}
	sub.inner = inner
	return sub, nil
}
