// internal/game/room_store.go
package game

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/spotdiff/internal/models"
)

// maxIDAttempts bounds how often Add asks the generator for a fresh id.
const maxIDAttempts = 16

// ErrNoRoomID is returned when the generator keeps yielding empty or used ids.
var ErrNoRoomID = errors.New("could not allocate a room id")

// RoomStore is the room table of one session manager. Rooms never leave the
// store by pointer; readers get deep copies.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*models.Room
	newID func() string
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*models.Room),
		newID: uuid.NewString,
	}
}

// Add assigns a fresh id to room and stores it. The generator is re-run while
// it yields an empty id or one already in use, up to maxIDAttempts times.
func (s *RoomStore) Add(room *models.Room) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if _, taken := s.rooms[id]; taken || id == "" {
			continue
		}
		room.ID = id
		s.rooms[id] = room
		return id, nil
	}
	return "", ErrNoRoomID
}

// Get returns a copy of the room.
func (s *RoomStore) Get(id string) (*models.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, exists := s.rooms[id]
	if !exists {
		return nil, false
	}
	return r.Clone(), true
}

// Update runs fn against the stored room while holding the table lock, so a
// read-modify-write cycle is atomic with respect to every other operation on
// the table. fn must not block.
func (s *RoomStore) Update(id string, fn func(r *models.Room)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, exists := s.rooms[id]
	if !exists {
		return false
	}
	fn(r)
	return true
}

// Delete removes the room and returns its last state.
func (s *RoomStore) Delete(id string) (*models.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, exists := s.rooms[id]
	if !exists {
		return nil, false
	}
	delete(s.rooms, id)
	return r, true
}

// IDs returns the ids of every stored room in a stable order.
func (s *RoomStore) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns copies of every room matching keep (all rooms if keep is nil).
func (s *RoomStore) List(keep func(r *models.Room) bool) []*models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		if keep == nil || keep(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindByMember returns the id of the room hosting or guesting playerID.
func (s *RoomStore) FindByMember(playerID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.rooms {
		if r.IsMember(playerID) {
			return id, true
		}
	}
	return "", false
}

func (s *RoomStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
