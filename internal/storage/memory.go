package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"nebulachat/infrastructure"
)

type participantKey struct {
	roomID string
	userID string
}

// MemoryStorage keeps everything in process memory behind one lock.
// It backs local development and the service tests.
type MemoryStorage struct {
	mu sync.RWMutex

	users       map[string]*User
	usernames   map[string]string
	rooms       map[string]*Room
	secrets     map[string]string
	members     map[participantKey]*Participant
	messages    map[string]*Message
	roomHistory map[string][]string
	typing      map[participantKey]*TypingStatus
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:       make(map[string]*User),
		usernames:   make(map[string]string),
		rooms:       make(map[string]*Room),
		secrets:     make(map[string]string),
		members:     make(map[participantKey]*Participant),
		messages:    make(map[string]*Message),
		roomHistory: make(map[string][]string),
		typing:      make(map[participantKey]*TypingStatus),
	}
}

func (s *MemoryStorage) Close() error { return nil }

func (s *MemoryStorage) CreateUser(_ context.Context, user *User) error {
	if err := validateUser(user); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("%w: users_pkey", infrastructure.ErrConflict)
	}
	if _, ok := s.usernames[user.Username]; ok {
		return fmt.Errorf("%w: users_username_key", infrastructure.ErrConflict)
	}
	s.users[user.ID] = cloneUser(user)
	s.usernames[user.Username] = user.ID
	return nil
}

func (s *MemoryStorage) UserByID(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, infrastructure.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *MemoryStorage) UserByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.RLock()
	id, ok := s.usernames[username]
	s.mu.RUnlock()
	if !ok {
		return nil, infrastructure.ErrNotFound
	}
	return s.UserByID(ctx, id)
}

func (s *MemoryStorage) TouchLastSeen(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return infrastructure.ErrNotFound
	}
	u.LastSeenAt = &at
	return nil
}

func (s *MemoryStorage) SetCurrentRoom(_ context.Context, userID string, roomID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return infrastructure.ErrNotFound
	}
	u.CurrentRoomID = cloneString(roomID)
	return nil
}

func (s *MemoryStorage) CreateRoomWithAdmin(_ context.Context, room *Room, admin *Participant) error {
	if err := validateRoom(room); err != nil {
		return err
	}
	if err := validateParticipant(admin); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.ID]; ok {
		return fmt.Errorf("%w: rooms_pkey", infrastructure.ErrConflict)
	}
	if _, ok := s.secrets[room.AccessSecret]; ok {
		return fmt.Errorf("%w: rooms_access_secret_key", infrastructure.ErrConflict)
	}
	r := *room
	p := *admin
	s.rooms[r.ID] = &r
	s.secrets[r.AccessSecret] = r.ID
	s.members[participantKey{p.RoomID, p.UserID}] = &p
	return nil
}

func (s *MemoryStorage) RoomByID(_ context.Context, id string) (*Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[id]
	if !ok {
		return nil, infrastructure.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (s *MemoryStorage) UpdateRoom(_ context.Context, id string, update RoomUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return infrastructure.ErrNotFound
	}
	if update.Name != nil {
		r.Name = *update.Name
	}
	if update.Description != nil {
		r.Description = *update.Description
	}
	return nil
}

func (s *MemoryStorage) DeleteRoom(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return infrastructure.ErrNotFound
	}
	for _, msgID := range s.roomHistory[id] {
		delete(s.messages, msgID)
	}
	delete(s.roomHistory, id)
	for key := range s.typing {
		if key.roomID == id {
			delete(s.typing, key)
		}
	}
	for key := range s.members {
		if key.roomID == id {
			delete(s.members, key)
		}
	}
	for _, u := range s.users {
		if u.CurrentRoomID != nil && *u.CurrentRoomID == id {
			u.CurrentRoomID = nil
		}
	}
	delete(s.secrets, r.AccessSecret)
	delete(s.rooms, id)
	return nil
}

func (s *MemoryStorage) RoomsForUser(_ context.Context, userID string) ([]*RoomSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for key := range s.members {
		counts[key.roomID]++
	}

	var mine []*Participant
	for key, p := range s.members {
		if key.userID == userID {
			mine = append(mine, p)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].JoinedAt.Before(mine[j].JoinedAt) })

	summaries := make([]*RoomSummary, 0, len(mine))
	for _, p := range mine {
		r, ok := s.rooms[p.RoomID]
		if !ok {
			continue
		}
		summaries = append(summaries, &RoomSummary{Room: *r, IsAdmin: p.IsAdmin, ParticipantCount: counts[p.RoomID]})
	}
	return summaries, nil
}

func (s *MemoryStorage) AddParticipant(_ context.Context, p *Participant, capacity int) (bool, error) {
	if err := validateParticipant(p); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[p.RoomID]; !ok {
		return false, infrastructure.ErrNotFound
	}
	key := participantKey{p.RoomID, p.UserID}
	if _, ok := s.members[key]; ok {
		return false, nil
	}
	count := 0
	for k := range s.members {
		if k.roomID == p.RoomID {
			count++
		}
	}
	if count >= capacity {
		return false, infrastructure.ErrRoomFull
	}
	c := *p
	s.members[key] = &c
	return true, nil
}

func (s *MemoryStorage) Participant(_ context.Context, roomID, userID string) (*Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.members[participantKey{roomID, userID}]
	if !ok {
		return nil, infrastructure.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (s *MemoryStorage) Members(_ context.Context, roomID string) ([]*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members []*Member
	for key, p := range s.members {
		if key.roomID != roomID {
			continue
		}
		m := &Member{Participant: *p}
		if u, ok := s.users[p.UserID]; ok {
			m.Username = u.Username
		}
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].JoinedAt.Before(members[j].JoinedAt) })
	return members, nil
}

func (s *MemoryStorage) RemoveParticipant(_ context.Context, roomID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := participantKey{roomID, userID}
	if _, ok := s.members[key]; !ok {
		return infrastructure.ErrNotFound
	}
	delete(s.members, key)
	delete(s.typing, key)
	if u, ok := s.users[userID]; ok && u.CurrentRoomID != nil && *u.CurrentRoomID == roomID {
		u.CurrentRoomID = nil
	}
	return nil
}

func (s *MemoryStorage) CreateMessage(_ context.Context, msg *Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[msg.ID]; ok {
		return fmt.Errorf("%w: messages_pkey", infrastructure.ErrConflict)
	}
	s.messages[msg.ID] = cloneMessage(msg)
	s.roomHistory[msg.RoomID] = append(s.roomHistory[msg.RoomID], msg.ID)
	return nil
}

func (s *MemoryStorage) MessageByID(_ context.Context, id string) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[id]
	if !ok {
		return nil, infrastructure.ErrNotFound
	}
	return cloneMessage(m), nil
}

func (s *MemoryStorage) MessagesByIDs(_ context.Context, ids []string) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []*Message
	for _, id := range ids {
		if m, ok := s.messages[id]; ok {
			found = append(found, cloneMessage(m))
		}
	}
	return found, nil
}

func (s *MemoryStorage) MessagesByRoom(_ context.Context, roomID string) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.roomHistory[roomID]
	messages := make([]*Message, 0, len(history))
	for _, id := range history {
		messages = append(messages, cloneMessage(s.messages[id]))
	}
	// Stable keeps insertion order for equal timestamps.
	sort.SliceStable(messages, func(i, j int) bool { return messages[i].CreatedAt.Before(messages[j].CreatedAt) })
	return messages, nil
}

func (s *MemoryStorage) UpsertTyping(_ context.Context, status *TypingStatus) error {
	if err := validateTyping(status); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *status
	s.typing[participantKey{status.RoomID, status.UserID}] = &c
	return nil
}

func (s *MemoryStorage) TypingByRoom(_ context.Context, roomID string) ([]*TypingStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var statuses []*TypingStatus
	for key, t := range s.typing {
		if key.roomID == roomID {
			c := *t
			statuses = append(statuses, &c)
		}
	}
	return statuses, nil
}

func (s *MemoryStorage) DeleteTyping(_ context.Context, roomID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.typing, participantKey{roomID, userID})
	return nil
}

func (s *MemoryStorage) ClearRoomTyping(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.typing {
		if key.roomID == roomID {
			delete(s.typing, key)
		}
	}
	return nil
}

func (s *MemoryStorage) DeleteTypingBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key, t := range s.typing {
		if t.UpdatedAt.Before(cutoff) {
			delete(s.typing, key)
			removed++
		}
	}
	return removed, nil
}
