// internal/game/classic.go
package game

import (
	"context"
	"fmt"

	"github.com/jason-s-yu/spotdiff/internal/models"
)

// ClassicManager runs rooms with a fixed set of differences and a timer
// counting up from zero.
type ClassicManager struct {
	*sessions
	candidates *CandidateQueues
}

var _ Manager = (*ClassicManager)(nil)

func NewClassicManager(store Store, pub Publisher, opts ...Option) *ClassicManager {
	m := &ClassicManager{
		sessions:   newSessions("classic", store, pub, opts...),
		candidates: NewCandidateQueues(),
	}
	m.advance = m.AdvanceTimer
	m.release = m.refuseAll
	return m
}

// CreateRoom opens a room for playerName. 1v1 rooms start with an empty
// guest slot and wait for a guest before their timer runs.
func (m *ClassicManager) CreateRoom(ctx context.Context, playerName string, mode models.GameMode, def models.GameDefinition) (*models.Room, error) {
	if !mode.IsClassic() {
		return nil, fmt.Errorf("%w: %q is not a classic mode", ErrInvalidMode, mode)
	}
	consts := m.constants(ctx)

	room := &models.Room{
		HostName:          playerName,
		HintPenalty:       consts.PenaltyTime,
		GameMode:          mode,
		Game:              def.Clone(),
		CurrentDifference: models.DifferenceGroup{},
	}
	if room.Game.DifferenceCount == 0 {
		room.Game.DifferenceCount = len(room.Game.Differences)
	}
	if mode.IsMultiplayer() {
		room.Guest = &models.GuestInfo{}
	}

	id, err := m.rooms.Add(room)
	if err != nil {
		return nil, err
	}
	m.actions.record(id, "", "room_created", map[string]interface{}{
		"mode": string(mode),
		"game": def.Name,
		"host": playerName,
	})
	m.log.WithField("room_id", id).Debugf("created %s room on %q", mode, def.Name)
	snapshot, _ := m.rooms.Get(id)
	return snapshot, nil
}

// AdvanceTimer adds one second. Classic rooms never end on time.
func (m *ClassicManager) AdvanceTimer(roomID string) {
	var timer int
	if !m.rooms.Update(roomID, func(r *models.Room) {
		r.Timer++
		timer = r.Timer
	}) {
		return
	}
	m.publishTimer(roomID, timer)
}

// ApplyHintPenalty adds the room's hint penalty to its timer. Rooms that are
// not in play are left alone.
func (m *ClassicManager) ApplyHintPenalty(roomID string) {
	var (
		timer   int
		applied bool
	)
	m.rooms.Update(roomID, func(r *models.Room) {
		if !inPlay(r) {
			return
		}
		r.Timer += r.HintPenalty
		timer = r.Timer
		applied = true
	})
	if !applied {
		return
	}
	m.actions.record(roomID, "", "hint_penalty", map[string]interface{}{"timer": timer})
	m.publishTimer(roomID, timer)
}

// VerifyClick checks a click and, on a hit, removes the found group so it can
// never be claimed twice. A hit is followed by an end-of-game check. Clicks
// in a room that is not in play are ignored.
func (m *ClassicManager) VerifyClick(ctx context.Context, playerID, roomID string, c models.Coordinate) bool {
	var (
		found    bool
		active   bool
		snapshot *models.Room
	)
	ok := m.rooms.Update(roomID, func(r *models.Room) {
		if !inPlay(r) {
			return
		}
		active = true
		idx := LocateDifference(r, playerID, c)
		if idx == NotFound {
			r.CurrentDifference = nil
			return
		}
		r.Game.Differences = removeGroup(r.Game.Differences, idx)
		found = true
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
		},
	})
	m.actions.record(roomID, playerID, "difference_found", map[string]interface{}{"coords": c})
	m.EndGameCheck(ctx, roomID)
	return true
}

// MinimumDifferencesToWin is half the groups rounded up in 1v1, all of them solo.
func MinimumDifferencesToWin(room *models.Room) int {
	total := room.Game.DifferenceCount
	if room.GameMode.IsMultiplayer() {
		return (total + 1) / 2
	}
	return total
}

// EndGameCheck finishes the room when a player reached the win threshold.
// In 1v1 the host is evaluated first, so the host wins simultaneous ties.
func (m *ClassicManager) EndGameCheck(ctx context.Context, roomID string) {
	var (
		done     bool
		winnerID string
		winner   string
		snapshot *models.Room
	)
	m.rooms.Update(roomID, func(r *models.Room) {
		if !inPlay(r) {
			return
		}
		if r.GameMode.IsMultiplayer() {
			need := MinimumDifferencesToWin(r)
			switch {
			case r.DifferencesFound >= need:
				winnerID, winner = r.HostID, r.HostName
			case r.Guest != nil && r.Guest.DifferencesFound >= need:
				winnerID, winner = r.Guest.ID, r.Guest.Name
			default:
				return
			}
			r.EndGameMessage = fmt.Sprintf("%s won the game in %s!", winner, formatSeconds(r.Timer))
		} else {
			if r.DifferencesFound < r.Game.DifferenceCount {
				return
			}
			winnerID, winner = r.HostID, r.HostName
			r.EndGameMessage = fmt.Sprintf("Congratulations %s, you found every difference in %s!", winner, formatSeconds(r.Timer))
		}
		done = true
		snapshot = r.Clone()
	})
	if done {
		m.recordScoreAndFinish(ctx, snapshot, winnerID, winner)
	}
}

// recordScoreAndFinish announces the result, updates the leaderboard and
// closes the room. The room may already be gone when persistence returns.
func (m *ClassicManager) recordScoreAndFinish(ctx context.Context, room *models.Room, winnerID, winner string) {
	m.pub.Publish(room.ID, Event{
		Type:   EventGameFinished,
		RoomID: room.ID,
		Room:   room,
		Payload: map[string]interface{}{
			"winnerId": winnerID,
			"winner":   winner,
			"message":  room.EndGameMessage,
			"time":     room.Timer,
		},
	})
	m.actions.record(room.ID, winnerID, "game_finished", map[string]interface{}{"time": room.Timer})

	m.recordBestTime(ctx, room.Game.Name, room.GameMode.IsMultiplayer(), models.BestTime{Name: winner, Time: room.Timer})
	m.closeRoom(room.ID)
}

// Abandon tells the remaining player who left and deletes the room. Classic
// rooms are never handed to the other player. Only members can abandon.
func (m *ClassicManager) Abandon(playerID, roomID string) {
	room, ok := m.rooms.Get(roomID)
	if !ok || !room.IsMember(playerID) {
		return
	}
	m.pub.Publish(roomID, Event{
		Type:   EventPlayerAbandoned,
		RoomID: roomID,
		Payload: map[string]interface{}{
			"playerId":   playerID,
			"playerName": room.PlayerName(playerID),
		},
	})
	m.actions.record(roomID, playerID, "abandon", nil)
	m.closeRoom(roomID)
}

// DeleteRoomsForGame closes every room playing gameName and returns their ids.
func (m *ClassicManager) DeleteRoomsForGame(gameName string) []string {
	rooms := m.rooms.List(func(r *models.Room) bool { return r.Game.Name == gameName })
	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		m.pub.Publish(r.ID, Event{
			Type:    EventRoomClosed,
			RoomID:  r.ID,
			Payload: map[string]interface{}{"reason": "game deleted"},
		})
		m.closeRoom(r.ID)
		ids = append(ids, r.ID)
	}
	return ids
}

func formatSeconds(sec int) string {
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
