// internal/game/manager.go
package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/jason-s-yu/spotdiff/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidMode is returned when a manager is asked to create a room of
	// a mode it does not run.
	ErrInvalidMode = errors.New("invalid game mode")
	// ErrNoGames is returned when no game definition is available.
	ErrNoGames = errors.New("no game definitions available")
)

// NotFound is the index LocateDifference returns on a miss.
const NotFound = -1

// DefaultMaxTimer caps the limited-time countdown, in seconds.
const DefaultMaxTimer = 120

// Manager is the behavior shared by the classic and limited-time managers.
// Each manager owns its rooms; callers only ever receive copies.
type Manager interface {
	Room(roomID string) (*models.Room, bool)
	Rooms() []*models.Room
	AvailableRooms() []models.RoomSummary
	FindRoomByMember(playerID string) (string, bool)
	AssignHost(roomID, hostID string) bool
	Announce(roomID string)
	AdvanceTimer(roomID string)
	ApplyHintPenalty(roomID string)
	VerifyClick(ctx context.Context, playerID, roomID string, c models.Coordinate) bool
	DeleteRoom(roomID string) bool
	Run(ctx context.Context)
}

// Option configures a manager.
type Option func(*sessions)

func WithClock(c clockwork.Clock) Option { return func(s *sessions) { s.clock = c } }

func WithTickInterval(d time.Duration) Option { return func(s *sessions) { s.tick = d } }

func WithLogger(l *logrus.Logger) Option {
	return func(s *sessions) { s.log = l.WithField("manager", s.kind) }
}

// WithDefaults sets the constants used when the store cannot be read.
func WithDefaults(c models.Constants) Option { return func(s *sessions) { s.defaults = c } }

func WithMaxTimer(sec int) Option { return func(s *sessions) { s.maxTimer = sec } }

// WithRoomIDs replaces the room id generator.
func WithRoomIDs(gen func() string) Option { return func(s *sessions) { s.rooms.newID = gen } }

func WithRand(r *rand.Rand) Option { return func(s *sessions) { s.rng = r } }

// OnRoomClosed registers a callback run after a room has been deleted.
func OnRoomClosed(fn func(roomID string)) Option { return func(s *sessions) { s.onClosed = fn } }

// sessions carries the room table and plumbing common to both managers.
type sessions struct {
	kind     string
	rooms    *RoomStore
	store    Store
	pub      Publisher
	clock    clockwork.Clock
	tick     time.Duration
	log      *logrus.Entry
	defaults models.Constants
	maxTimer int
	actions  *actionLog

	rngMu sync.Mutex
	rng   *rand.Rand

	onClosed func(roomID string)
	// release frees per-room state the concrete manager keeps outside the room.
	release func(roomID string)
	// advance is the per-tick timer step of the concrete manager.
	advance func(roomID string)
}

func newSessions(kind string, store Store, pub Publisher, opts ...Option) *sessions {
	s := &sessions{
		kind:     kind,
		rooms:    NewRoomStore(),
		store:    store,
		pub:      pub,
		clock:    clockwork.NewRealClock(),
		tick:     time.Second,
		log:      logrus.StandardLogger().WithField("manager", kind),
		defaults: models.DefaultConstants,
		maxTimer: DefaultMaxTimer,
		actions:  newActionLog(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(s.clock.Now().UnixNano()))
	}
	return s
}

// constants reads the current constants, falling back to the defaults.
func (s *sessions) constants(ctx context.Context) models.Constants {
	c, err := s.store.GetConstants(ctx)
	if err != nil {
		s.log.Warnf("reading constants, using defaults: %v", err)
		return s.defaults
	}
	return c
}

func (s *sessions) Room(roomID string) (*models.Room, bool) { return s.rooms.Get(roomID) }

func (s *sessions) Rooms() []*models.Room { return s.rooms.List(nil) }

func (s *sessions) FindRoomByMember(playerID string) (string, bool) {
	return s.rooms.FindByMember(playerID)
}

// AvailableRooms lists the 1v1 rooms a new player could still join.
func (s *sessions) AvailableRooms() []models.RoomSummary {
	rooms := s.rooms.List(func(r *models.Room) bool {
		return r.GameMode.IsMultiplayer() && r.AwaitingGuest() && !r.RoomTaken && r.HostID != ""
	})
	out := make([]models.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Summary())
	}
	return out
}

// AssignHost records the connection that owns the room.
func (s *sessions) AssignHost(roomID, hostID string) bool {
	return s.rooms.Update(roomID, func(r *models.Room) { r.HostID = hostID })
}

// Announce publishes the current room state to its channel.
func (s *sessions) Announce(roomID string) {
	if room, ok := s.rooms.Get(roomID); ok {
		s.pub.Publish(roomID, Event{Type: EventRoomUpdated, RoomID: roomID, Room: room})
	}
}

func (s *sessions) publishTimer(roomID string, timer int) {
	s.pub.Publish(roomID, Event{
		Type:    EventTimerUpdated,
		RoomID:  roomID,
		Payload: map[string]interface{}{"timer": timer},
	})
}

func (s *sessions) publishMiss(roomID, playerID string, c models.Coordinate) {
	s.pub.Publish(roomID, Event{
		Type:    EventDifferenceError,
		RoomID:  roomID,
		Payload: map[string]interface{}{"playerId": playerID, "coords": c},
	})
}

// DeleteRoom removes the room and disconnects its channel.
func (s *sessions) DeleteRoom(roomID string) bool {
	return s.closeRoom(roomID)
}

// closeRoom deletes the room, empties its channel and notifies the owner of
// the manager. Deleting an already deleted room only empties the channel.
func (s *sessions) closeRoom(roomID string) bool {
	_, existed := s.rooms.Delete(roomID)
	if s.release != nil {
		s.release(roomID)
	}
	s.pub.CloseRoom(roomID)
	if !existed {
		return false
	}
	s.actions.record(roomID, "", "room_closed", nil)
	s.actions.forget(roomID)
	s.log.WithField("room_id", roomID).Debug("room closed")
	if s.onClosed != nil {
		s.onClosed(roomID)
	}
	return true
}

// recordBestTime inserts entry into the game's leaderboard and persists it
// when it placed. A failed read counts as an empty leaderboard.
func (s *sessions) recordBestTime(ctx context.Context, gameName string, multiplayer bool, entry models.BestTime) {
	bt, err := s.store.GetBestTimes(ctx, gameName)
	if err != nil {
		s.log.Warnf("reading best times for %q: %v", gameName, err)
		bt = models.BestTimes{GameName: gameName}
	}
	board, rank := InsertBestTime(bt.ForMode(multiplayer), entry)
	if rank == 0 {
		return
	}
	if err := s.store.UpdateBestTimes(ctx, gameName, multiplayer, board); err != nil {
		s.log.Errorf("saving best times for %q: %v", gameName, err)
		return
	}
	mode := "solo"
	if multiplayer {
		mode = "1v1"
	}
	s.pub.Broadcast(Event{
		Type: EventNewBestTime,
		Payload: map[string]interface{}{
			"gameName":   gameName,
			"playerName": entry.Name,
			"time":       entry.Time,
			"rank":       rank,
			"mode":       mode,
		},
	})
}

// Run drives the manager's timer once per tick until ctx is done. Rooms still
// waiting for their guest are not advanced.
func (s *sessions) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			for _, r := range s.rooms.List(inPlay) {
				s.advance(r.ID)
			}
		}
	}
}

// inPlay reports whether clicks, penalties and ticks apply to the room: it has
// not finished and, in 1v1, its guest has been seated.
func inPlay(r *models.Room) bool {
	return !r.Finished() && !r.AwaitingGuest()
}

// LocateDifference looks for the group containing c. On a match the
// clicking player's count is incremented, CurrentDifference is set and the
// group index is returned; the group itself is left in place. A miss returns
// NotFound and leaves the room untouched.
func LocateDifference(room *models.Room, playerID string, c models.Coordinate) int {
	for i, grp := range room.Game.Differences {
		if !grp.Contains(c) {
			continue
		}
		if room.Guest != nil && playerID != "" && room.Guest.ID == playerID {
			room.Guest.DifferencesFound++
			room.Guest.GroupsFound = append(room.Guest.GroupsFound, grp.Clone())
		} else {
			room.DifferencesFound++
		}
		room.CurrentDifference = grp.Clone()
		return i
	}
	return NotFound
}

func removeGroup(groups []models.DifferenceGroup, idx int) []models.DifferenceGroup {
	return append(groups[:idx:idx], groups[idx+1:]...)
}
