package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/jason-s-yu/spotdiff/internal/game"
	"github.com/jason-s-yu/spotdiff/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	games   []models.GameDefinition
	pingErr error
}

func (f *fakeStore) GetConstants(context.Context) (models.Constants, error) {
	return models.DefaultConstants, nil
}

func (f *fakeStore) GetBestTimes(_ context.Context, name string) (models.BestTimes, error) {
	return models.BestTimes{GameName: name}, nil
}

func (f *fakeStore) UpdateBestTimes(context.Context, string, bool, []models.BestTime) error {
	return nil
}

func (f *fakeStore) GetGame(_ context.Context, name string) (models.GameDefinition, error) {
	for _, g := range f.games {
		if g.Name == name {
			return g, nil
		}
	}
	return models.GameDefinition{}, errors.New("not found")
}

func (f *fakeStore) GetGames(context.Context) ([]models.GameDefinition, error) {
	out := make([]models.GameDefinition, len(f.games))
	copy(out, f.games)
	return out, nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func twoGroupGame(name string) models.GameDefinition {
	return models.GameDefinition{
		Name:            name,
		Differences:     []models.DifferenceGroup{{{X: 1, Y: 1}}, {{X: 50, Y: 50}}},
		DifferenceCount: 2,
	}
}

func setupGateway(t *testing.T, st *fakeStore) *Gateway {
	t.Helper()
	return New(st, NewHub(quietLogger(), nil), quietLogger())
}

func connect(g *Gateway, id string) *Client {
	return g.Hub().Register(id, DefaultOutBuffer)
}

func eventOf(evs []game.Event, tp game.EventType) *game.Event {
	for i := range evs {
		if evs[i].Type == tp {
			return &evs[i]
		}
	}
	return nil
}

func TestCreateSoloRoom(t *testing.T) {
	g := setupGateway(t, &fakeStore{games: []models.GameDefinition{twoGroupGame("g")}})
	alice := connect(g, "alice")
	ctx := context.Background()

	g.HandleMessage(ctx, "alice", Message{Type: MsgCreateSoloRoom, PlayerName: "Alice", GameName: "g"})
	created := eventOf(drain(t, alice), game.EventRoomCreated)
	require.NotNil(t, created)
	require.NotNil(t, created.Room)
	assert.Equal(t, "alice", created.Room.HostID)
	assert.Equal(t, []string{"alice"}, g.Hub().Members(created.RoomID))

	g.HandleMessage(ctx, "alice", Message{Type: MsgVerifyClick, RoomID: created.RoomID, Coords: &models.Coordinate{X: 1, Y: 1}})
	g.HandleMessage(ctx, "alice", Message{Type: MsgVerifyClick, RoomID: created.RoomID, Coords: &models.Coordinate{X: 50, Y: 50}})

	evs := types(drain(t, alice))
	assert.Contains(t, evs, game.EventDifferenceFound)
	assert.Contains(t, evs, game.EventGameFinished)
	assert.Contains(t, evs, game.EventRoomClosed)
	assert.Contains(t, evs, game.EventNewBestTime)
	assert.Empty(t, g.Rooms())
}

func TestCreateRoomForUnknownGame(t *testing.T) {
	g := setupGateway(t, &fakeStore{})
	alice := connect(g, "alice")

	g.HandleMessage(context.Background(), "alice", Message{Type: MsgCreateSoloRoom, PlayerName: "Alice", GameName: "nope"})
	assert.Equal(t, []game.EventType{game.EventError}, types(drain(t, alice)))
	assert.Empty(t, g.Rooms())
}

func TestUnknownMessageType(t *testing.T) {
	g := setupGateway(t, &fakeStore{})
	alice := connect(g, "alice")

	g.HandleMessage(context.Background(), "alice", Message{Type: "dance"})
	evs := drain(t, alice)
	require.Len(t, evs, 1)
	assert.Equal(t, game.EventError, evs[0].Type)
}

func TestClassicMatchmakingFlow(t *testing.T) {
	g := setupGateway(t, &fakeStore{games: []models.GameDefinition{twoGroupGame("g")}})
	host := connect(g, "host")
	guest := connect(g, "guest")
	ctx := context.Background()

	g.HandleMessage(ctx, "host", Message{Type: MsgCreateMultiRoom, PlayerName: "Alice", GameName: "g"})
	hostEvs := drain(t, host)
	created := eventOf(hostEvs, game.EventRoomCreated)
	require.NotNil(t, created)
	roomID := created.RoomID

	listed := eventOf(drain(t, guest), game.EventAvailableRooms)
	require.NotNil(t, listed)
	assert.Len(t, listed.Payload["rooms"], 1)

	g.HandleMessage(ctx, "guest", Message{Type: MsgRequestJoin, PlayerName: "Bob", GameName: "g"})
	assert.NotNil(t, eventOf(drain(t, host), game.EventGuestCandidates))

	g.HandleMessage(ctx, "guest", Message{Type: MsgAcceptGuest, RoomID: roomID, CandidateID: "guest"})
	assert.NotNil(t, eventOf(drain(t, guest), game.EventError), "only the host accepts")

	g.HandleMessage(ctx, "host", Message{Type: MsgAcceptGuest, RoomID: roomID, CandidateID: "guest"})
	guestEvs := drain(t, guest)
	assert.NotNil(t, eventOf(guestEvs, game.EventGuestAccepted))
	assert.NotNil(t, eventOf(guestEvs, game.EventRoomUpdated))
	assert.ElementsMatch(t, []string{"host", "guest"}, g.Hub().Members(roomID))
	drain(t, host)

	// classic rooms end when either player disconnects
	g.Disconnect("guest")
	hostEvs = drain(t, host)
	assert.NotNil(t, eventOf(hostEvs, game.EventPlayerAbandoned))
	assert.NotNil(t, eventOf(hostEvs, game.EventRoomClosed))
	_, ok := g.Classic().Room(roomID)
	assert.False(t, ok)
	assert.False(t, g.Hub().Connected("guest"))
}

func TestLimitedDisconnectPromotesGuest(t *testing.T) {
	g := setupGateway(t, &fakeStore{games: []models.GameDefinition{twoGroupGame("a"), twoGroupGame("b")}})
	host := connect(g, "host")
	guest := connect(g, "guest")
	ctx := context.Background()

	g.HandleMessage(ctx, "host", Message{Type: MsgCreateLimitedMulti, PlayerName: "Alice"})
	created := eventOf(drain(t, host), game.EventRoomCreated)
	require.NotNil(t, created)

	g.HandleMessage(ctx, "guest", Message{Type: MsgCreateLimitedMulti, PlayerName: "Bob"})
	assert.Nil(t, eventOf(drain(t, guest), game.EventRoomCreated), "joins the awaiting room instead")
	room, ok := g.Limited().Room(created.RoomID)
	require.True(t, ok)
	require.NotNil(t, room.Guest)
	assert.Equal(t, "guest", room.Guest.ID)

	g.Disconnect("host")
	promoted := eventOf(drain(t, guest), game.EventHostPromoted)
	require.NotNil(t, promoted)
	assert.Equal(t, "guest", promoted.Room.HostID)

	room, ok = g.Limited().Room(created.RoomID)
	require.True(t, ok)
	assert.Equal(t, models.ModeLimitedSolo, room.GameMode)
}

func TestNonMemberCannotClick(t *testing.T) {
	g := setupGateway(t, &fakeStore{games: []models.GameDefinition{twoGroupGame("g")}})
	alice := connect(g, "alice")
	mallory := connect(g, "mallory")
	ctx := context.Background()

	g.HandleMessage(ctx, "alice", Message{Type: MsgCreateSoloRoom, PlayerName: "Alice", GameName: "g"})
	created := eventOf(drain(t, alice), game.EventRoomCreated)
	require.NotNil(t, created)

	g.HandleMessage(ctx, "mallory", Message{Type: MsgVerifyClick, RoomID: created.RoomID, Coords: &models.Coordinate{X: 1, Y: 1}})
	assert.Equal(t, []game.EventType{game.EventError}, types(drain(t, mallory)))
	room, _ := g.Classic().Room(created.RoomID)
	assert.Equal(t, 0, room.DifferencesFound)

	g.HandleMessage(ctx, "mallory", Message{Type: MsgDeleteRoom, RoomID: created.RoomID})
	_, ok := g.Classic().Room(created.RoomID)
	assert.True(t, ok)
}

func TestCheckConnectivity(t *testing.T) {
	st := &fakeStore{}
	g := setupGateway(t, st)
	alice := connect(g, "alice")

	assert.True(t, g.CheckConnectivity(context.Background()))
	st.pingErr = errors.New("down")
	assert.False(t, g.CheckConnectivity(context.Background()))

	evs := drain(t, alice)
	require.Len(t, evs, 2)
	assert.Equal(t, true, evs[0].Payload["connected"])
	assert.Equal(t, false, evs[1].Payload["connected"])
}

func TestAdminDeleteRoom(t *testing.T) {
	g := setupGateway(t, &fakeStore{games: []models.GameDefinition{twoGroupGame("g")}})
	alice := connect(g, "alice")
	g.HandleMessage(context.Background(), "alice", Message{Type: MsgCreateSoloRoom, PlayerName: "Alice", GameName: "g"})
	created := eventOf(drain(t, alice), game.EventRoomCreated)
	require.NotNil(t, created)

	assert.True(t, g.DeleteRoom(created.RoomID))
	assert.False(t, g.DeleteRoom(created.RoomID))
	assert.NotNil(t, eventOf(drain(t, alice), game.EventRoomClosed))
}

func TestLeaveRoomRequiresMembership(t *testing.T) {
	g := setupGateway(t, &fakeStore{games: []models.GameDefinition{twoGroupGame("g")}})
	alice := connect(g, "alice")
	mallory := connect(g, "mallory")
	ctx := context.Background()

	g.HandleMessage(ctx, "alice", Message{Type: MsgCreateMultiRoom, PlayerName: "Alice", GameName: "g"})
	created := eventOf(drain(t, alice), game.EventRoomCreated)
	require.NotNil(t, created)
	drain(t, mallory)

	g.HandleMessage(ctx, "mallory", Message{Type: MsgLeaveRoom, RoomID: created.RoomID})

	assert.Equal(t, []game.EventType{game.EventError}, types(drain(t, mallory)))
	_, ok := g.Classic().Room(created.RoomID)
	assert.True(t, ok, "a stranger cannot end the room")
	assert.Empty(t, drain(t, alice))

	g.HandleMessage(ctx, "alice", Message{Type: MsgLeaveRoom, RoomID: created.RoomID})
	_, ok = g.Classic().Room(created.RoomID)
	assert.False(t, ok)
}

func TestLoneHostCannotWinMultiplayerRoom(t *testing.T) {
	g := setupGateway(t, &fakeStore{games: []models.GameDefinition{twoGroupGame("g")}})
	alice := connect(g, "alice")
	ctx := context.Background()

	g.HandleMessage(ctx, "alice", Message{Type: MsgCreateMultiRoom, PlayerName: "Alice", GameName: "g"})
	created := eventOf(drain(t, alice), game.EventRoomCreated)
	require.NotNil(t, created)

	g.HandleMessage(ctx, "alice", Message{Type: MsgVerifyClick, RoomID: created.RoomID, Coords: &models.Coordinate{X: 1, Y: 1}})
	g.HandleMessage(ctx, "alice", Message{Type: MsgVerifyClick, RoomID: created.RoomID, Coords: &models.Coordinate{X: 50, Y: 50}})
	g.HandleMessage(ctx, "alice", Message{Type: MsgCheckEndState, RoomID: created.RoomID})

	assert.Empty(t, drain(t, alice))
	room, ok := g.Classic().Room(created.RoomID)
	require.True(t, ok)
	assert.Equal(t, 0, room.DifferencesFound)
}

func TestOneRoomPerClient(t *testing.T) {
	g := setupGateway(t, &fakeStore{games: []models.GameDefinition{twoGroupGame("g"), twoGroupGame("h")}})
	alice := connect(g, "alice")
	ctx := context.Background()

	g.HandleMessage(ctx, "alice", Message{Type: MsgCreateSoloRoom, PlayerName: "Alice", GameName: "g"})
	require.NotNil(t, eventOf(drain(t, alice), game.EventRoomCreated))

	for _, msg := range []Message{
		{Type: MsgCreateSoloRoom, PlayerName: "Alice", GameName: "h"},
		{Type: MsgCreateMultiRoom, PlayerName: "Alice", GameName: "h"},
		{Type: MsgCreateLimitedSolo, PlayerName: "Alice"},
		{Type: MsgCreateLimitedMulti, PlayerName: "Alice"},
		{Type: MsgRequestJoin, PlayerName: "Alice", GameName: "h"},
	} {
		g.HandleMessage(ctx, "alice", msg)
		assert.Equal(t, []game.EventType{game.EventError}, types(drain(t, alice)), msg.Type)
	}
	assert.Len(t, g.Rooms(), 1)

	g.Disconnect("alice")
	assert.Empty(t, g.Rooms())
}

func TestDisconnectClosesEveryRoomOfTheClient(t *testing.T) {
	g := setupGateway(t, &fakeStore{games: []models.GameDefinition{twoGroupGame("g")}})
	def := twoGroupGame("g")
	for i := 0; i < 3; i++ {
		room, err := g.Classic().CreateRoom(context.Background(), "Alice", models.ModeClassicSolo, def)
		require.NoError(t, err)
		g.Classic().AssignHost(room.ID, "alice")
	}
	room, err := g.Limited().CreateRoom(context.Background(), "Alice", models.ModeLimitedSolo)
	require.NoError(t, err)
	g.Limited().AssignHost(room.ID, "alice")

	g.Disconnect("alice")
	assert.Empty(t, g.Rooms())
}

func TestCheckEndStateRoutesByMode(t *testing.T) {
	g := setupGateway(t, &fakeStore{games: []models.GameDefinition{twoGroupGame("g")}})
	alice := connect(g, "alice")
	bob := connect(g, "bob")
	ctx := context.Background()

	g.HandleMessage(ctx, "alice", Message{Type: MsgCreateLimitedSolo, PlayerName: "Alice"})
	limited := eventOf(drain(t, alice), game.EventRoomCreated)
	require.NotNil(t, limited)
	g.HandleMessage(ctx, "alice", Message{Type: MsgCheckEndState, RoomID: limited.RoomID})
	assert.Equal(t, []game.EventType{game.EventError}, types(drain(t, alice)))
	_, ok := g.Limited().Room(limited.RoomID)
	assert.True(t, ok)

	g.HandleMessage(ctx, "bob", Message{Type: MsgCreateSoloRoom, PlayerName: "Bob", GameName: "g"})
	classic := eventOf(drain(t, bob), game.EventRoomCreated)
	require.NotNil(t, classic)
	g.Classic().VerifyClick(ctx, "bob", classic.RoomID, models.Coordinate{X: 1, Y: 1})
	drain(t, bob)
	g.HandleMessage(ctx, "bob", Message{Type: MsgCheckEndState, RoomID: classic.RoomID})
	assert.Empty(t, drain(t, bob), "no error and no finish while differences remain")
	_, ok = g.Classic().Room(classic.RoomID)
	assert.True(t, ok)
}

func TestDeleteGameDropsLimitedBacklog(t *testing.T) {
	g := setupGateway(t, &fakeStore{games: []models.GameDefinition{twoGroupGame("a"), twoGroupGame("b")}})
	room, err := g.Limited().CreateRoom(context.Background(), "Alice", models.ModeLimitedSolo)
	require.NoError(t, err)
	require.Equal(t, 1, g.Limited().Backlog(room.ID))

	other := "a"
	if room.Game.Name == "a" {
		other = "b"
	}
	g.DeleteGame(other)
	assert.Equal(t, 0, g.Limited().Backlog(room.ID))
}
