// internal/game/matchmaking.go
package game

import (
	"github.com/jason-s-yu/spotdiff/internal/models"
)

// RequestJoin queues candidate on the first classic 1v1 room awaiting a guest
// on gameName. When there is none the candidate is told so.
func (m *ClassicManager) RequestJoin(gameName string, candidate models.Player) (string, bool) {
	rooms := m.rooms.List(func(r *models.Room) bool {
		return r.GameMode == models.ModeClassic1v1 &&
			r.Game.Name == gameName &&
			r.AwaitingGuest() &&
			!r.RoomTaken &&
			r.HostID != "" &&
			r.HostID != candidate.ID
	})
	if len(rooms) == 0 {
		m.pub.SendTo(candidate.ID, Event{
			Type:    EventRoomUnavailable,
			Payload: map[string]interface{}{"gameName": gameName},
		})
		return "", false
	}
	if prev, queued := m.candidates.FindPlayer(candidate.ID); queued && prev != rooms[0].ID {
		m.CancelJoin(candidate.ID)
	}

	roomID := rooms[0].ID
	m.candidates.Add(roomID, candidate)
	m.publishCandidates(roomID)
	return roomID, true
}

// AcceptGuest seats a queued candidate. Only the first accept on a room can
// succeed; later ones return false.
func (m *ClassicManager) AcceptGuest(roomID, candidateID string) bool {
	cand, queued := m.candidates.Remove(roomID, candidateID)
	if !queued {
		return false
	}

	accepted := false
	m.rooms.Update(roomID, func(r *models.Room) {
		if r.RoomTaken {
			return
		}
		r.RoomTaken = true
		r.Guest = &models.GuestInfo{ID: cand.ID, Name: cand.Name}
		accepted = true
	})
	if !accepted {
		m.pub.SendTo(cand.ID, Event{Type: EventRoomUnavailable, RoomID: roomID})
		return false
	}

	for _, other := range m.candidates.Drop(roomID) {
		m.pub.SendTo(other.ID, Event{Type: EventGuestRefused, RoomID: roomID})
	}
	room, _ := m.rooms.Get(roomID)
	m.pub.SendTo(cand.ID, Event{Type: EventGuestAccepted, RoomID: roomID, Room: room})
	m.actions.record(roomID, cand.ID, "guest_accepted", map[string]interface{}{"name": cand.Name})
	return true
}

// RefuseGuest removes a candidate from the queue and tells them. Refusing
// someone who is not queued does nothing.
func (m *ClassicManager) RefuseGuest(roomID, candidateID string) bool {
	cand, queued := m.candidates.Remove(roomID, candidateID)
	if !queued {
		return false
	}
	m.pub.SendTo(cand.ID, Event{Type: EventGuestRefused, RoomID: roomID})
	m.publishCandidates(roomID)
	return true
}

// CancelJoin withdraws a candidate from whichever queue holds them.
func (m *ClassicManager) CancelJoin(candidateID string) (string, bool) {
	roomID, queued := m.candidates.FindPlayer(candidateID)
	if !queued {
		return "", false
	}
	m.candidates.Remove(roomID, candidateID)
	m.publishCandidates(roomID)
	return roomID, true
}

// Candidates returns the queue of a room.
func (m *ClassicManager) Candidates(roomID string) []models.Player {
	return m.candidates.List(roomID)
}

func (m *ClassicManager) publishCandidates(roomID string) {
	room, ok := m.rooms.Get(roomID)
	if !ok || room.HostID == "" {
		return
	}
	m.pub.SendTo(room.HostID, Event{
		Type:    EventGuestCandidates,
		RoomID:  roomID,
		Payload: map[string]interface{}{"candidates": m.candidates.List(roomID)},
	})
}

// refuseAll empties the queue of a closing room.
func (m *ClassicManager) refuseAll(roomID string) {
	for _, c := range m.candidates.Drop(roomID) {
		m.pub.SendTo(c.ID, Event{Type: EventGuestRefused, RoomID: roomID})
	}
}
