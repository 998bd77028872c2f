// internal/game/events.go
package game

import (
	"encoding/json"

	"github.com/jason-s-yu/spotdiff/internal/models"
	log "github.com/sirupsen/logrus"
)

// EventType names an outbound message sent to clients.
type EventType string

const (
	EventConnected       EventType = "connected"
	EventRoomCreated     EventType = "room_created"
	EventRoomUpdated     EventType = "room_updated"
	EventTimerUpdated    EventType = "timer_updated"
	EventDifferenceFound EventType = "difference_found"
	EventDifferenceError EventType = "difference_error"
	EventGuestCandidates EventType = "guest_candidates" // host only
	EventGuestAccepted   EventType = "guest_accepted"
	EventGuestRefused    EventType = "guest_refused"
	EventRoomUnavailable EventType = "room_unavailable"
	EventPlayerAbandoned EventType = "player_abandoned"
	EventHostPromoted    EventType = "host_promoted"
	EventGameFinished    EventType = "game_finished"
	EventNewBestTime     EventType = "new_best_time" // sent to every client
	EventTimeExpired     EventType = "time_expired"
	EventNoMoreGames     EventType = "no_more_games"
	EventRoomClosed      EventType = "room_closed"
	EventAvailableRooms  EventType = "available_rooms"
	EventConnectivity    EventType = "connectivity"
	EventError           EventType = "error"
)

// Event is the envelope every outbound message uses.
type Event struct {
	Type    EventType              `json:"type"`
	RoomID  string                 `json:"roomId,omitempty"`
	Room    *models.Room           `json:"room,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Bytes marshals the event, falling back to "{}" on failure.
func (ev Event) Bytes() []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Warnf("failed to marshal event %s: %v", ev.Type, err)
		return []byte("{}")
	}
	return data
}

// Publisher delivers events to clients. Room-scoped events reach every
// member subscribed to the room channel; Broadcast reaches every client.
type Publisher interface {
	Publish(roomID string, ev Event)
	Broadcast(ev Event)
	SendTo(clientID string, ev Event)
	// CloseRoom removes every member from the room channel.
	CloseRoom(roomID string)
}
