package room

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"nebulachat/infrastructure"
	"nebulachat/internal/realtime"
	"nebulachat/internal/sessions"
	"nebulachat/internal/storage"
)

const (
	MaxParticipants = 10

	maxCodeAttempts      = 10
	maxNameLength        = 50
	maxDescriptionLength = 200
)

type Service struct {
	store  storage.Store
	typing storage.TypingStore
	codes  infrastructure.CodeGenerator
	clock  infrastructure.Clock
	broker realtime.Broker
	logger *slog.Logger
}

func NewService(store storage.Store, typing storage.TypingStore, codes infrastructure.CodeGenerator, clock infrastructure.Clock, broker realtime.Broker) *Service {
	return &Service{
		store:  store,
		typing: typing,
		codes:  codes,
		clock:  clock,
		broker: broker,
		logger: slog.With("component", "rooms"),
	}
}

// CreateRoom allocates a fresh id and secret and makes the caller the
// room's first admin.
func (s *Service) CreateRoom(ctx context.Context, caller *sessions.Session, in CreateRoomInput) (*CreatedRoom, error) {
	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)
	if name != "" {
		if err := validateName(name); err != nil {
			return nil, err
		}
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		id := s.codes.RoomID()
		if _, err := s.store.RoomByID(ctx, id); err == nil {
			s.logger.DebugContext(ctx, "room id collision", "room_id", id, "attempt", attempt)
			continue
		} else if !errors.Is(err, infrastructure.ErrNotFound) {
			return nil, fmt.Errorf("check room id: %w", err)
		}

		now := s.clock.Now()
		r := &storage.Room{
			ID:           id,
			AccessSecret: s.codes.RoomSecret(),
			Name:         name,
			Description:  description,
			CreatedBy:    caller.UserID,
			CreatedAt:    now,
		}
		if r.Name == "" {
			r.Name = "Room " + id
		}
		admin := &storage.Participant{RoomID: id, UserID: caller.UserID, JoinedAt: now, IsAdmin: true}

		err := s.store.CreateRoomWithAdmin(ctx, r, admin)
		if errors.Is(err, infrastructure.ErrConflict) {
			s.logger.DebugContext(ctx, "room code conflict on insert", "room_id", id, "attempt", attempt, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create room: %w", err)
		}

		s.enterRoom(ctx, caller, id)
		s.logger.InfoContext(ctx, "room created", "room_id", id, "user_id", caller.UserID)
		return &CreatedRoom{RoomID: id, AccessSecret: r.AccessSecret, Name: r.Name}, nil
	}

	return nil, fmt.Errorf("%w: no unique room code after %d attempts", infrastructure.ErrInternalServer, maxCodeAttempts)
}

// JoinRoom adds the caller to the room when the secret matches. Joining a
// room the caller is already in succeeds without changes.
func (s *Service) JoinRoom(ctx context.Context, caller *sessions.Session, roomID, secret string) error {
	r, err := s.store.RoomByID(ctx, roomID)
	if errors.Is(err, infrastructure.ErrNotFound) {
		s.logger.DebugContext(ctx, "join rejected: no such room", "room_id", roomID, "user_id", caller.UserID)
		return infrastructure.ErrJoinFailed
	}
	if err != nil {
		return fmt.Errorf("load room: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(r.AccessSecret)) != 1 {
		s.logger.DebugContext(ctx, "join rejected: wrong secret", "room_id", roomID, "user_id", caller.UserID)
		return infrastructure.ErrJoinFailed
	}

	added, err := s.store.AddParticipant(ctx, &storage.Participant{
		RoomID:   roomID,
		UserID:   caller.UserID,
		JoinedAt: s.clock.Now(),
	}, MaxParticipants)
	switch {
	case errors.Is(err, infrastructure.ErrNotFound):
		return infrastructure.ErrJoinFailed
	case errors.Is(err, infrastructure.ErrRoomFull):
		return infrastructure.ErrRoomFull
	case err != nil:
		return fmt.Errorf("add participant: %w", err)
	}

	s.enterRoom(ctx, caller, roomID)
	if added {
		s.logger.InfoContext(ctx, "participant joined", "room_id", roomID, "user_id", caller.UserID)
	}
	return nil
}

func (s *Service) enterRoom(ctx context.Context, caller *sessions.Session, roomID string) {
	caller.EnterRoom(roomID)
	if err := s.store.SetCurrentRoom(ctx, caller.UserID, &roomID); err != nil {
		s.logger.WarnContext(ctx, "failed to record current room", "room_id", roomID, "user_id", caller.UserID, "error", err)
	}
}

func (s *Service) participant(ctx context.Context, roomID, userID string) (*storage.Participant, error) {
	p, err := s.store.Participant(ctx, roomID, userID)
	if errors.Is(err, infrastructure.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (s *Service) IsRoomAdmin(ctx context.Context, roomID, userID string) (bool, error) {
	p, err := s.participant(ctx, roomID, userID)
	if err != nil {
		return false, err
	}
	return p != nil && p.IsAdmin, nil
}

func (s *Service) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	p, err := s.participant(ctx, roomID, userID)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}

func (s *Service) GetRoomDetails(ctx context.Context, roomID string) (*Details, error) {
	r, err := s.store.RoomByID(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", roomID, err)
	}
	return toDetails(r), nil
}

// requireAdmin loads the room and fails with ErrForbidden unless the
// caller administers it.
func (s *Service) requireAdmin(ctx context.Context, caller *sessions.Session, roomID string) error {
	if _, err := s.store.RoomByID(ctx, roomID); err != nil {
		return fmt.Errorf("room %s: %w", roomID, err)
	}
	isAdmin, err := s.IsRoomAdmin(ctx, roomID, caller.UserID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return infrastructure.ErrForbidden
	}
	return nil
}

// UpdateRoomSettings overwrites only the supplied fields.
func (s *Service) UpdateRoomSettings(ctx context.Context, caller *sessions.Session, roomID string, in UpdateRoomInput) (*Details, error) {
	if err := s.requireAdmin(ctx, caller, roomID); err != nil {
		return nil, err
	}

	var update storage.RoomUpdate
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		update.Name = &name
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		if err := validateDescription(description); err != nil {
			return nil, err
		}
		update.Description = &description
	}

	if update.Name != nil || update.Description != nil {
		if err := s.store.UpdateRoom(ctx, roomID, update); err != nil {
			return nil, fmt.Errorf("update room: %w", err)
		}
	}
	return s.GetRoomDetails(ctx, roomID)
}

func (s *Service) ListParticipants(ctx context.Context, roomID string) ([]*ParticipantView, error) {
	members, err := s.store.Members(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	views := make([]*ParticipantView, 0, len(members))
	for _, m := range members {
		views = append(views, toParticipantView(m))
	}
	return views, nil
}

// RemoveParticipant lets an admin remove a non-admin participant other
// than themselves.
func (s *Service) RemoveParticipant(ctx context.Context, caller *sessions.Session, roomID, targetID string) error {
	if err := s.requireAdmin(ctx, caller, roomID); err != nil {
		return err
	}
	if targetID == caller.UserID {
		return fmt.Errorf("%w: you cannot remove yourself", infrastructure.ErrInvalidInput)
	}

	target, err := s.participant(ctx, roomID, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("participant %s: %w", targetID, infrastructure.ErrNotFound)
	}
	if target.IsAdmin {
		return infrastructure.ErrForbidden
	}

	if err := s.store.RemoveParticipant(ctx, roomID, targetID); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	if err := s.typing.DeleteTyping(ctx, roomID, targetID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear typing state", "room_id", roomID, "user_id", targetID, "error", err)
	}
	s.announce(ctx, realtime.EventParticipantRemoved, roomID, participantRemoved{UserID: targetID})
	s.logger.InfoContext(ctx, "participant removed", "room_id", roomID, "user_id", targetID, "by", caller.UserID)
	return nil
}

// DeleteRoom removes the room and everything in it.
func (s *Service) DeleteRoom(ctx context.Context, caller *sessions.Session, roomID string) error {
	if err := s.requireAdmin(ctx, caller, roomID); err != nil {
		return err
	}

	err := infrastructure.TimeOperation(ctx, "delete room", func() error {
		return s.store.DeleteRoom(ctx, roomID)
	})
	if err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}
	if err := s.typing.ClearRoomTyping(ctx, roomID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear typing state", "room_id", roomID, "error", err)
	}
	if caller.CurrentRoomID != nil && *caller.CurrentRoomID == roomID {
		caller.CurrentRoomID = nil
	}
	s.announce(ctx, realtime.EventRoomDeleted, roomID, struct{}{})
	s.logger.InfoContext(ctx, "room deleted", "room_id", roomID, "user_id", caller.UserID)
	return nil
}

type participantRemoved struct {
	UserID string `json:"user_id"`
}

func (s *Service) announce(ctx context.Context, eventType, roomID string, payload any) {
	event, err := realtime.NewEvent(eventType, roomID, payload, s.clock.Now())
	if err == nil {
		err = realtime.PublishEvent(ctx, s.broker, event)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish membership change", "room_id", roomID, "event", eventType, "error", err)
	}
}

// WatchMembership calls onLeave once userID is removed from the room or the
// room is deleted.
func (s *Service) WatchMembership(roomID, userID string, onLeave func()) (realtime.Subscription, error) {
	var once sync.Once
	sub, err := s.broker.Subscribe(realtime.MembersTopic(roomID), func(event realtime.Event) {
		switch event.Type {
		case realtime.EventRoomDeleted:
		case realtime.EventParticipantRemoved:
			var removed participantRemoved
			if err := json.Unmarshal(event.Data, &removed); err != nil || removed.UserID != userID {
				return
			}
		default:
			return
		}
		once.Do(onLeave)
	})
	if err != nil {
		return nil, fmt.Errorf("watch membership of room %s: %w", roomID, err)
	}
	return sub, nil
}

func (s *Service) ListRoomsForUser(ctx context.Context, caller *sessions.Session) ([]*Summary, error) {
	rooms, err := s.store.RoomsForUser(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	summaries := make([]*Summary, 0, len(rooms))
	for _, r := range rooms {
		summaries = append(summaries, toSummary(r))
	}
	return summaries, nil
}

func validateName(name string) error {
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("%w: room name must be 1-%d characters", infrastructure.ErrInvalidInput, maxNameLength)
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return fmt.Errorf("%w: room description must be at most %d characters", infrastructure.ErrInvalidInput, maxDescriptionLength)
	}
	return nil
}
