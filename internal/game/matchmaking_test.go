package game

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jason-s-yu/spotdiff/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestJoinWithoutRoom(t *testing.T) {
	m, pub := setupClassic(t, newMockStore(testConstants))
	_ = createHosted(t, m, "host", "alice", models.ModeClassic1v1, testGame("other", 3))

	_, ok := m.RequestJoin("g", models.Player{ID: "bob", Name: "bob"})
	assert.False(t, ok)
	assert.Equal(t, []EventType{EventRoomUnavailable}, pub.directTypes("bob"))
}

func TestRequestJoinQueuesAndNotifiesHost(t *testing.T) {
	m, pub := setupClassic(t, newMockStore(testConstants))
	id := createHosted(t, m, "host", "alice", models.ModeClassic1v1, testGame("g", 3))

	got, ok := m.RequestJoin("g", models.Player{ID: "p1", Name: "bob"})
	require.True(t, ok)
	assert.Equal(t, id, got)
	_, ok = m.RequestJoin("g", models.Player{ID: "p2", Name: "carol"})
	require.True(t, ok)
	_, ok = m.RequestJoin("g", models.Player{ID: "p1", Name: "bob"})
	require.True(t, ok)

	assert.Equal(t, []models.Player{{ID: "p1", Name: "bob"}, {ID: "p2", Name: "carol"}}, m.Candidates(id))
	assert.Len(t, pub.directTypes("host"), 3)

	room, _ := m.Room(id)
	assert.True(t, room.AwaitingGuest(), "candidates are not members")
	assert.False(t, room.IsMember("p1"))
}

func TestHostCannotJoinOwnRoom(t *testing.T) {
	m, _ := setupClassic(t, newMockStore(testConstants))
	_ = createHosted(t, m, "host", "alice", models.ModeClassic1v1, testGame("g", 3))

	_, ok := m.RequestJoin("g", models.Player{ID: "host", Name: "alice"})
	assert.False(t, ok)
}

func TestAcceptGuestRefusesTheOthers(t *testing.T) {
	m, pub := setupClassic(t, newMockStore(testConstants))
	id := createHosted(t, m, "host", "alice", models.ModeClassic1v1, testGame("g", 3))
	m.RequestJoin("g", models.Player{ID: "p1", Name: "bob"})
	m.RequestJoin("g", models.Player{ID: "p2", Name: "carol"})

	require.True(t, m.AcceptGuest(id, "p2"))

	room, _ := m.Room(id)
	assert.True(t, room.RoomTaken)
	require.NotNil(t, room.Guest)
	assert.Equal(t, "carol", room.Guest.Name)
	assert.Empty(t, m.Candidates(id))
	assert.Contains(t, pub.directTypes("p2"), EventGuestAccepted)
	assert.Contains(t, pub.directTypes("p1"), EventGuestRefused)
	assert.Empty(t, m.AvailableRooms())
}

func TestAcceptUnknownCandidate(t *testing.T) {
	m, _ := setupClassic(t, newMockStore(testConstants))
	id := createHosted(t, m, "host", "alice", models.ModeClassic1v1, testGame("g", 3))

	assert.False(t, m.AcceptGuest(id, "ghost"))
	room, _ := m.Room(id)
	assert.False(t, room.RoomTaken)
}

func TestConcurrentAcceptSeatsOneGuest(t *testing.T) {
	m, _ := setupClassic(t, newMockStore(testConstants))
	id := createHosted(t, m, "host", "alice", models.ModeClassic1v1, testGame("g", 3))
	const n = 16
	for i := 0; i < n; i++ {
		p := fmt.Sprintf("p%d", i)
		m.RequestJoin("g", models.Player{ID: p, Name: p})
	}

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if m.AcceptGuest(id, fmt.Sprintf("p%d", i)) {
				atomic.AddInt32(&wins, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	room, _ := m.Room(id)
	require.NotNil(t, room.Guest)
	assert.NotEmpty(t, room.Guest.ID)
}

func TestRefuseGuest(t *testing.T) {
	m, pub := setupClassic(t, newMockStore(testConstants))
	id := createHosted(t, m, "host", "alice", models.ModeClassic1v1, testGame("g", 3))
	m.RequestJoin("g", models.Player{ID: "p1", Name: "bob"})

	assert.True(t, m.RefuseGuest(id, "p1"))
	assert.Equal(t, []EventType{EventGuestRefused}, pub.directTypes("p1"))
	assert.Empty(t, m.Candidates(id))

	before := len(pub.directTypes("host"))
	assert.False(t, m.RefuseGuest(id, "p1"))
	assert.Len(t, pub.directTypes("host"), before)
}

func TestCancelJoin(t *testing.T) {
	m, pub := setupClassic(t, newMockStore(testConstants))
	id := createHosted(t, m, "host", "alice", models.ModeClassic1v1, testGame("g", 3))
	m.RequestJoin("g", models.Player{ID: "p1", Name: "bob"})

	got, ok := m.CancelJoin("p1")
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.Empty(t, m.Candidates(id))
	assert.Len(t, pub.directTypes("host"), 2)

	_, ok = m.CancelJoin("p1")
	assert.False(t, ok)
}

func TestClosingRoomRefusesCandidates(t *testing.T) {
	m, pub := setupClassic(t, newMockStore(testConstants))
	id := createHosted(t, m, "host", "alice", models.ModeClassic1v1, testGame("g", 3))
	m.RequestJoin("g", models.Player{ID: "p1", Name: "bob"})

	m.Abandon("host", id)

	assert.Contains(t, pub.directTypes("p1"), EventGuestRefused)
	_, queued := m.candidates.FindPlayer("p1")
	assert.False(t, queued)
}
