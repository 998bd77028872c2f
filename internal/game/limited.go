// internal/game/limited.go
package game

import (
	"context"
	"fmt"
	"sync"

	"github.com/jason-s-yu/spotdiff/internal/models"
)

// limitedState is the part of a limited-time room no client ever sees.
type limitedState struct {
	backlog []models.GameDefinition
	bonus   int
}

func (st *limitedState) pop() (models.GameDefinition, bool) {
	if len(st.backlog) == 0 {
		return models.GameDefinition{}, false
	}
	next := st.backlog[0]
	st.backlog = st.backlog[1:]
	return next, true
}

// LimitedManager runs countdown rooms that rotate through every game
// definition in a shuffled order.
type LimitedManager struct {
	*sessions

	mu    sync.Mutex
	state map[string]*limitedState
}

var _ Manager = (*LimitedManager)(nil)

func NewLimitedManager(store Store, pub Publisher, opts ...Option) *LimitedManager {
	m := &LimitedManager{
		sessions: newSessions("limited", store, pub, opts...),
		state:    make(map[string]*limitedState),
	}
	m.advance = m.AdvanceTimer
	m.release = m.dropState
	return m
}

// CreateRoom loads and shuffles every game definition. The first becomes the
// room's game; the rest wait in the room's backlog.
func (m *LimitedManager) CreateRoom(ctx context.Context, playerName string, mode models.GameMode) (*models.Room, error) {
	if !mode.IsLimited() {
		return nil, fmt.Errorf("%w: %q is not a limited-time mode", ErrInvalidMode, mode)
	}
	games, err := m.store.GetGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading games: %w", err)
	}
	if len(games) == 0 {
		return nil, ErrNoGames
	}
	m.shuffle(games)
	consts := m.constants(ctx)

	room := &models.Room{
		HostName:          playerName,
		HintPenalty:       consts.PenaltyTime,
		GameMode:          mode,
		Game:              games[0].Clone(),
		Timer:             consts.InitialTime,
		CurrentDifference: models.DifferenceGroup{},
	}
	if mode.IsMultiplayer() {
		room.Guest = &models.GuestInfo{}
	}

	id, err := m.rooms.Add(room)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.state[id] = &limitedState{backlog: games[1:], bonus: consts.BonusTime}
	m.mu.Unlock()

	m.actions.record(id, "", "room_created", map[string]interface{}{
		"mode":  string(mode),
		"games": len(games),
		"host":  playerName,
	})
	snapshot, _ := m.rooms.Get(id)
	return snapshot, nil
}

// shuffle is a Fisher-Yates shuffle over the manager's random source.
func (m *LimitedManager) shuffle(games []models.GameDefinition) {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	for i := len(games) - 1; i > 0; i-- {
		j := m.rng.Intn(i + 1)
		games[i], games[j] = games[j], games[i]
	}
}

// AdvanceTimer takes one second off the countdown and ends the room at zero.
func (m *LimitedManager) AdvanceTimer(roomID string) {
	m.shiftTimer(roomID, -1)
}

// ApplyHintPenalty takes the room's hint penalty off the countdown.
func (m *LimitedManager) ApplyHintPenalty(roomID string) {
	room, ok := m.rooms.Get(roomID)
	if !ok || !inPlay(room) {
		return
	}
	m.actions.record(roomID, "", "hint_penalty", nil)
	m.shiftTimer(roomID, -room.HintPenalty)
}

func (m *LimitedManager) shiftTimer(roomID string, delta int) {
	var (
		timer    int
		expired  bool
		snapshot *models.Room
	)
	var applied bool
	m.rooms.Update(roomID, func(r *models.Room) {
		if !inPlay(r) {
			return
		}
		applied = true
		r.Timer += delta
		if r.Timer <= 0 {
			r.Timer = 0
			r.EndGameMessage = "Time is up!"
			expired = true
			snapshot = r.Clone()
		}
		timer = r.Timer
	})
	if !applied {
		return
	}
	m.publishTimer(roomID, timer)
	if expired {
		m.pub.Publish(roomID, Event{
			Type:    EventTimeExpired,
			RoomID:  roomID,
			Room:    snapshot,
			Payload: map[string]interface{}{"message": snapshot.EndGameMessage, "found": snapshot.DifferencesFound},
		})
		m.closeRoom(roomID)
	}
}

// VerifyClick checks a click. A hit adds the bonus time, capped at the
// maximum, and swaps in the next game of the backlog. When the backlog is
// empty the players have won.
func (m *LimitedManager) VerifyClick(ctx context.Context, playerID, roomID string, c models.Coordinate) bool {
	var (
		found     bool
		active    bool
		exhausted bool
		snapshot  *models.Room
	)
	ok := m.rooms.Update(roomID, func(r *models.Room) {
		if !inPlay(r) {
			return
		}
		active = true
		if LocateDifference(r, playerID, c) == NotFound {
			r.CurrentDifference = nil
			return
		}
		found = true

		m.mu.Lock()
		st := m.state[r.ID]
		bonus := 0
		var next models.GameDefinition
		var more bool
		if st != nil {
			bonus = st.bonus
			next, more = st.pop()
		}
		m.mu.Unlock()

		r.Timer = min(r.Timer+bonus, m.maxTimer)
		if more {
			r.Game = next.Clone()
		} else {
			exhausted = true
			r.EndGameMessage = "No more games left, you win!"
		}
		snapshot = r.Clone()
	})
	if !ok || !active {
		m.log.WithField("room_id", roomID).Debug("click on a room that is not in play")
		return false
	}
	if !found {
		m.publishMiss(roomID, playerID, c)
		return false
	}

	m.pub.Publish(roomID, Event{
		Type:   EventDifferenceFound,
		RoomID: roomID,
		Room:   snapshot,
		Payload: map[string]interface{}{
			"playerId":   playerID,
			"difference": snapshot.CurrentDifference,
			"timer":      snapshot.Timer,
		},
	})
	m.actions.record(roomID, playerID, "difference_found", map[string]interface{}{"coords": c})

	if exhausted {
		m.pub.Publish(roomID, Event{
			Type:    EventNoMoreGames,
			RoomID:  roomID,
			Room:    snapshot,
			Payload: map[string]interface{}{"message": snapshot.EndGameMessage, "found": snapshot.DifferencesFound},
		})
		m.closeRoom(roomID)
	}
	return true
}

// Leave removes playerID from its room. In an active 1v1 room the other
// player keeps playing alone; a leaving host hands the room to the guest.
// Any other room is deleted.
func (m *LimitedManager) Leave(playerID, roomID string) {
	var (
		member   bool
		promoted bool
		remains  bool
		name     string
		snapshot *models.Room
	)
	if !m.rooms.Update(roomID, func(r *models.Room) {
		if !r.IsMember(playerID) {
			return
		}
		member = true
		name = r.PlayerName(playerID)
		if !r.GameMode.IsMultiplayer() || r.AwaitingGuest() || r.Finished() {
			return
		}
		if r.HostID == playerID {
			r.HostID, r.HostName = r.Guest.ID, r.Guest.Name
			promoted = true
		}
		r.Guest = nil
		r.GameMode = models.ModeLimitedSolo
		remains = true
		snapshot = r.Clone()
	}) || !member {
		return
	}

	m.pub.Publish(roomID, Event{
		Type:    EventPlayerAbandoned,
		RoomID:  roomID,
		Payload: map[string]interface{}{"playerId": playerID, "playerName": name},
	})
	m.actions.record(roomID, playerID, "leave", map[string]interface{}{"promoted": promoted})

	if !remains {
		m.closeRoom(roomID)
		return
	}
	if promoted {
		m.pub.Publish(roomID, Event{Type: EventHostPromoted, RoomID: roomID, Room: snapshot})
		return
	}
	m.pub.Publish(roomID, Event{Type: EventRoomUpdated, RoomID: roomID, Room: snapshot})
}

// NextAwaitingRoom returns the first 1v1 room still looking for a guest.
func (m *LimitedManager) NextAwaitingRoom() (string, bool) {
	rooms := m.rooms.List(func(r *models.Room) bool {
		return r.GameMode == models.ModeLimited1v1 && r.AwaitingGuest() && !r.RoomTaken && r.HostID != ""
	})
	if len(rooms) == 0 {
		return "", false
	}
	return rooms[0].ID, true
}

// JoinAwaiting seats p as the guest. The first caller wins; no approval from
// the host is needed.
func (m *LimitedManager) JoinAwaiting(roomID string, p models.Player) bool {
	joined := false
	m.rooms.Update(roomID, func(r *models.Room) {
		if r.RoomTaken || !r.AwaitingGuest() || r.HostID == p.ID {
			return
		}
		r.RoomTaken = true
		r.Guest = &models.GuestInfo{ID: p.ID, Name: p.Name}
		joined = true
	})
	if joined {
		m.actions.record(roomID, p.ID, "guest_joined", map[string]interface{}{"name": p.Name})
	}
	return joined
}

// Backlog returns how many games remain after the current one.
func (m *LimitedManager) Backlog(roomID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.state[roomID]; ok {
		return len(st.backlog)
	}
	return 0
}

// DropGame removes gameName from every room's backlog and returns how many
// queued entries went. A room already playing that game finishes it.
func (m *LimitedManager) DropGame(gameName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for _, st := range m.state {
		kept := st.backlog[:0:0]
		for _, g := range st.backlog {
			if g.Name == gameName {
				dropped++
				continue
			}
			kept = append(kept, g)
		}
		st.backlog = kept
	}
	return dropped
}

func (m *LimitedManager) dropState(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, roomID)
}
