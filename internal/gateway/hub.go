// internal/gateway/hub.go
package gateway

import (
	"sync"

	"github.com/jason-s-yu/spotdiff/internal/game"
	"github.com/sirupsen/logrus"
)

// DefaultOutBuffer is the outbound queue length of each client.
const DefaultOutBuffer = 64

// Mirror receives a copy of every event the hub sends, keyed by subject.
type Mirror interface {
	Mirror(subject string, data []byte)
}

// Client is one connected websocket as seen by the hub. The transport drains
// OutChan; the hub closes it on Unregister.
type Client struct {
	ID      string
	OutChan chan []byte
}

// Hub is the publish/subscribe layer between the session managers and the
// connections. Channels are keyed by room id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]struct{}
	mirror  Mirror
	log     *logrus.Entry
}

var _ game.Publisher = (*Hub)(nil)

func NewHub(logger *logrus.Logger, mirror Mirror) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
		mirror:  mirror,
		log:     logger.WithField("component", "hub"),
	}
}

// Register adds a client with an outbound buffer of size buf.
func (h *Hub) Register(clientID string, buf int) *Client {
	if buf <= 0 {
		buf = DefaultOutBuffer
	}
	c := &Client{ID: clientID, OutChan: make(chan []byte, buf)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[clientID]; ok {
		close(old.OutChan)
	}
	h.clients[clientID] = c
	return c
}

// Unregister drops the client from every room and closes its queue.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	for roomID, members := range h.rooms {
		delete(members, clientID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(h.clients, clientID)
	close(c.OutChan)
}

// Join subscribes a client to a room channel.
func (h *Hub) Join(roomID, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[clientID]; !ok {
		return
	}
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[roomID] = members
	}
	members[clientID] = struct{}{}
}

// Leave unsubscribes a client from a room channel.
func (h *Hub) Leave(roomID, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, clientID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Members returns the ids subscribed to a room.
func (h *Hub) Members(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.rooms[roomID]))
	for id := range h.rooms[roomID] {
		out = append(out, id)
	}
	return out
}

// Connected reports whether a client is registered.
func (h *Hub) Connected(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[clientID]
	return ok
}

func (h *Hub) Publish(roomID string, ev game.Event) {
	data := ev.Bytes()
	h.mu.RLock()
	for id := range h.rooms[roomID] {
		h.send(h.clients[id], data)
	}
	h.mu.RUnlock()
	h.mirrorEvent("rooms."+roomID+"."+string(ev.Type), data)
}

func (h *Hub) Broadcast(ev game.Event) {
	data := ev.Bytes()
	h.mu.RLock()
	for _, c := range h.clients {
		h.send(c, data)
	}
	h.mu.RUnlock()
	h.mirrorEvent("broadcast."+string(ev.Type), data)
}

func (h *Hub) SendTo(clientID string, ev game.Event) {
	data := ev.Bytes()
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.send(h.clients[clientID], data)
}

// CloseRoom tells every member the room is gone and empties its channel.
func (h *Hub) CloseRoom(roomID string) {
	data := game.Event{Type: game.EventRoomClosed, RoomID: roomID}.Bytes()
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.rooms[roomID] {
		h.send(h.clients[id], data)
	}
	delete(h.rooms, roomID)
}

// send never blocks; a full queue drops the message. Caller holds h.mu.
func (h *Hub) send(c *Client, data []byte) {
	if c == nil {
		return
	}
	select {
	case c.OutChan <- data:
	default:
		h.log.WithField("client_id", c.ID).Warn("outbound queue full, dropping message")
	}
}

func (h *Hub) mirrorEvent(subject string, data []byte) {
	if h.mirror != nil {
		h.mirror.Mirror(subject, data)
	}
}
