// internal/gateway/gateway.go
package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jason-s-yu/spotdiff/internal/game"
	"github.com/jason-s-yu/spotdiff/internal/models"
	"github.com/sirupsen/logrus"
)

// Inbound message types.
const (
	MsgCreateSoloRoom     = "create_solo_room"
	MsgCreateMultiRoom    = "create_multi_room"
	MsgRequestJoin        = "request_join"
	MsgCancelJoin         = "cancel_join"
	MsgAcceptGuest        = "accept_guest"
	MsgRefuseGuest        = "refuse_guest"
	MsgVerifyClick        = "verify_click"
	MsgAddHintPenalty     = "add_hint_penalty"
	MsgCheckEndState      = "check_end_state"
	MsgDeleteRoom         = "delete_room"
	MsgLeaveRoom          = "leave_room"
	MsgCreateLimitedSolo  = "create_limited_solo"
	MsgCreateLimitedMulti = "create_limited_multi"
	MsgConnectivityCheck  = "connectivity_check"
	MsgListRooms          = "list_rooms"
)

// Message is the envelope of every inbound client message.
type Message struct {
	Type        string             `json:"type"`
	RoomID      string             `json:"roomId,omitempty"`
	PlayerName  string             `json:"playerName,omitempty"`
	GameName    string             `json:"gameName,omitempty"`
	CandidateID string             `json:"candidateId,omitempty"`
	Coords      *models.Coordinate `json:"coords,omitempty"`
}

// Gateway routes client messages to the two session managers, drives their
// timers and cleans up after disconnects.
type Gateway struct {
	hub     *Hub
	store   game.Store
	classic *game.ClassicManager
	limited *game.LimitedManager
	log     *logrus.Entry
}

// New builds both managers on top of hub. opts apply to both.
func New(store game.Store, hub *Hub, logger *logrus.Logger, opts ...game.Option) *Gateway {
	g := &Gateway{
		hub:   hub,
		store: store,
		log:   logger.WithField("component", "gateway"),
	}
	managerOpts := make([]game.Option, 0, len(opts)+2)
	managerOpts = append(managerOpts, game.WithLogger(logger))
	managerOpts = append(managerOpts, opts...)
	managerOpts = append(managerOpts, game.OnRoomClosed(func(string) { g.PublishRoomList() }))

	g.classic = game.NewClassicManager(store, hub, managerOpts...)
	g.limited = game.NewLimitedManager(store, hub, managerOpts...)
	return g
}

func (g *Gateway) Classic() *game.ClassicManager { return g.classic }

func (g *Gateway) Limited() *game.LimitedManager { return g.limited }

func (g *Gateway) Hub() *Hub { return g.hub }

// Run starts one timer task per manager and blocks until ctx is done.
func (g *Gateway) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, m := range []game.Manager{g.classic, g.limited} {
		wg.Add(1)
		go func(m game.Manager) {
			defer wg.Done()
			m.Run(ctx)
		}(m)
	}
	wg.Wait()
}

// HandleMessage dispatches one inbound message from clientID.
func (g *Gateway) HandleMessage(ctx context.Context, clientID string, msg Message) {
	log := g.log.WithFields(logrus.Fields{"client_id": clientID, "type": msg.Type})
	log.Debug("message received")

	switch msg.Type {
	case MsgCreateSoloRoom:
		g.createClassic(ctx, clientID, msg, models.ModeClassicSolo)
	case MsgCreateMultiRoom:
		g.createClassic(ctx, clientID, msg, models.ModeClassic1v1)
	case MsgRequestJoin:
		if g.inRoom(clientID) {
			g.sendError(clientID, errAlreadyInRoom)
			return
		}
		g.classic.RequestJoin(msg.GameName, models.Player{ID: clientID, Name: msg.PlayerName})
	case MsgCancelJoin:
		g.classic.CancelJoin(clientID)
	case MsgAcceptGuest:
		if !g.isHost(g.classic, msg.RoomID, clientID) {
			g.sendError(clientID, "only the host can accept a guest")
			return
		}
		if g.classic.AcceptGuest(msg.RoomID, msg.CandidateID) {
			g.hub.Join(msg.RoomID, msg.CandidateID)
			g.classic.Announce(msg.RoomID)
			g.PublishRoomList()
		}
	case MsgRefuseGuest:
		if !g.isHost(g.classic, msg.RoomID, clientID) {
			g.sendError(clientID, "only the host can refuse a guest")
			return
		}
		g.classic.RefuseGuest(msg.RoomID, msg.CandidateID)
	case MsgVerifyClick:
		if msg.Coords == nil {
			g.sendError(clientID, "missing coords")
			return
		}
		if m, ok := g.memberManager(msg.RoomID, clientID); ok {
			m.VerifyClick(ctx, clientID, msg.RoomID, *msg.Coords)
		}
	case MsgAddHintPenalty:
		if m, ok := g.memberManager(msg.RoomID, clientID); ok {
			m.ApplyHintPenalty(msg.RoomID)
		}
	case MsgCheckEndState:
		m, ok := g.memberManager(msg.RoomID, clientID)
		if !ok {
			return
		}
		if m != game.Manager(g.classic) {
			g.sendError(clientID, "limited-time rooms end on their timer")
			return
		}
		g.classic.EndGameCheck(ctx, msg.RoomID)
	case MsgDeleteRoom:
		m, ok := g.managerFor(msg.RoomID)
		if !ok {
			return
		}
		if !g.isHost(m, msg.RoomID, clientID) {
			g.sendError(clientID, "only the host can delete the room")
			return
		}
		m.DeleteRoom(msg.RoomID)
	case MsgLeaveRoom:
		g.leave(clientID, msg.RoomID)
	case MsgCreateLimitedSolo:
		g.createLimited(ctx, clientID, msg, models.ModeLimitedSolo)
	case MsgCreateLimitedMulti:
		if g.inRoom(clientID) {
			g.sendError(clientID, errAlreadyInRoom)
			return
		}
		if g.joinLimited(clientID, msg.PlayerName) {
			return
		}
		g.createLimited(ctx, clientID, msg, models.ModeLimited1v1)
	case MsgConnectivityCheck:
		g.CheckConnectivity(ctx)
	case MsgListRooms:
		g.hub.SendTo(clientID, g.roomListEvent())
	default:
		log.Warn("unknown message type")
		g.sendError(clientID, fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

// errAlreadyInRoom is sent to a client that tries to open or join a second room.
const errAlreadyInRoom = "already playing in a room"

// inRoom reports whether clientID hosts or plays in a room of either manager.
func (g *Gateway) inRoom(clientID string) bool {
	if _, ok := g.classic.FindRoomByMember(clientID); ok {
		return true
	}
	_, ok := g.limited.FindRoomByMember(clientID)
	return ok
}

func (g *Gateway) createClassic(ctx context.Context, clientID string, msg Message, mode models.GameMode) {
	if g.inRoom(clientID) {
		g.sendError(clientID, errAlreadyInRoom)
		return
	}
	g.classic.CancelJoin(clientID)
	def, err := g.store.GetGame(ctx, msg.GameName)
	if err != nil {
		g.log.WithError(err).Warnf("loading game %q", msg.GameName)
		g.sendError(clientID, fmt.Sprintf("game %q is not available", msg.GameName))
		return
	}
	room, err := g.classic.CreateRoom(ctx, msg.PlayerName, mode, def)
	if err != nil {
		g.sendError(clientID, err.Error())
		return
	}
	g.seatHost(g.classic, room.ID, clientID)
}

func (g *Gateway) createLimited(ctx context.Context, clientID string, msg Message, mode models.GameMode) {
	if g.inRoom(clientID) {
		g.sendError(clientID, errAlreadyInRoom)
		return
	}
	g.classic.CancelJoin(clientID)
	room, err := g.limited.CreateRoom(ctx, msg.PlayerName, mode)
	if err != nil {
		g.log.WithError(err).Warn("creating limited-time room")
		g.sendError(clientID, err.Error())
		return
	}
	g.seatHost(g.limited, room.ID, clientID)
}

// seatHost binds the new room to its creator's connection.
func (g *Gateway) seatHost(m game.Manager, roomID, clientID string) {
	m.AssignHost(roomID, clientID)
	g.hub.Join(roomID, clientID)
	room, ok := m.Room(roomID)
	if !ok {
		return
	}
	g.hub.SendTo(clientID, game.Event{Type: game.EventRoomCreated, RoomID: roomID, Room: room})
	if room.GameMode.IsMultiplayer() {
		g.PublishRoomList()
	}
}

// joinLimited seats the player in the first awaiting limited-time room.
func (g *Gateway) joinLimited(clientID, name string) bool {
	roomID, ok := g.limited.NextAwaitingRoom()
	if !ok || !g.limited.JoinAwaiting(roomID, models.Player{ID: clientID, Name: name}) {
		return false
	}
	g.hub.Join(roomID, clientID)
	g.limited.Announce(roomID)
	g.PublishRoomList()
	return true
}

func (g *Gateway) leave(clientID, roomID string) {
	m, ok := g.memberManager(roomID, clientID)
	if !ok {
		return
	}
	switch m {
	case game.Manager(g.classic):
		g.classic.Abandon(clientID, roomID)
	case game.Manager(g.limited):
		g.limited.Leave(clientID, roomID)
	}
	g.hub.Leave(roomID, clientID)
}

// Disconnect cleans up everything a closed connection was part of.
func (g *Gateway) Disconnect(clientID string) {
	g.classic.CancelJoin(clientID)
	for {
		roomID, ok := g.classic.FindRoomByMember(clientID)
		if !ok {
			break
		}
		g.classic.Abandon(clientID, roomID)
	}
	for {
		roomID, ok := g.limited.FindRoomByMember(clientID)
		if !ok {
			break
		}
		g.limited.Leave(clientID, roomID)
	}
	g.hub.Unregister(clientID)
	g.PublishRoomList()
}

// PublishRoomList sends the joinable rooms to every client.
func (g *Gateway) PublishRoomList() {
	g.hub.Broadcast(g.roomListEvent())
}

func (g *Gateway) roomListEvent() game.Event {
	rooms := append(g.classic.AvailableRooms(), g.limited.AvailableRooms()...)
	return game.Event{
		Type:    game.EventAvailableRooms,
		Payload: map[string]interface{}{"rooms": rooms},
	}
}

// CheckConnectivity broadcasts whether the database answers.
func (g *Gateway) CheckConnectivity(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err := g.store.Ping(pingCtx)
	if err != nil {
		g.log.WithError(err).Warn("connectivity check failed")
	}
	g.hub.Broadcast(game.Event{
		Type:    game.EventConnectivity,
		Payload: map[string]interface{}{"connected": err == nil},
	})
	return err == nil
}

// Rooms returns every live room of both managers.
func (g *Gateway) Rooms() []*models.Room {
	return append(g.classic.Rooms(), g.limited.Rooms()...)
}

// DeleteRoom closes a room regardless of its owner.
func (g *Gateway) DeleteRoom(roomID string) bool {
	m, ok := g.managerFor(roomID)
	if !ok {
		return false
	}
	g.hub.Publish(roomID, game.Event{
		Type:    game.EventRoomClosed,
		RoomID:  roomID,
		Payload: map[string]interface{}{"reason": "deleted by an administrator"},
	})
	return m.DeleteRoom(roomID)
}

// DeleteGame closes every classic room playing gameName and removes it from
// the limited-time backlogs.
func (g *Gateway) DeleteGame(gameName string) []string {
	if n := g.limited.DropGame(gameName); n > 0 {
		g.log.Debugf("dropped %d queued rounds of %q", n, gameName)
	}
	return g.classic.DeleteRoomsForGame(gameName)
}

func (g *Gateway) managerFor(roomID string) (game.Manager, bool) {
	if _, ok := g.classic.Room(roomID); ok {
		return g.classic, true
	}
	if _, ok := g.limited.Room(roomID); ok {
		return g.limited, true
	}
	return nil, false
}

// memberManager returns the manager of roomID if clientID plays in it.
func (g *Gateway) memberManager(roomID, clientID string) (game.Manager, bool) {
	m, ok := g.managerFor(roomID)
	if !ok {
		return nil, false
	}
	room, _ := m.Room(roomID)
	if room == nil || !room.IsMember(clientID) {
		g.sendError(clientID, "not a member of this room")
		return nil, false
	}
	return m, true
}

func (g *Gateway) isHost(m game.Manager, roomID, clientID string) bool {
	room, ok := m.Room(roomID)
	return ok && room.HostID == clientID
}

func (g *Gateway) sendError(clientID, message string) {
	g.hub.SendTo(clientID, game.Event{
		Type:    game.EventError,
		Payload: map[string]interface{}{"message": message},
	})
}
