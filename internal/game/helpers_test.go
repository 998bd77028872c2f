package game

import (
	"context"
	"fmt"
	"sync"

	"github.com/jason-s-yu/spotdiff/internal/models"
	"github.com/stretchr/testify/mock"
)

// mockPublisher collects events instead of sending them over a socket.
type mockPublisher struct {
	mu        sync.Mutex
	roomEvent map[string][]Event
	broadcast []Event
	direct    map[string][]Event
	closed    []string
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{
		roomEvent: make(map[string][]Event),
		direct:    make(map[string][]Event),
	}
}

func (p *mockPublisher) Publish(roomID string, ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roomEvent[roomID] = append(p.roomEvent[roomID], ev)
}

func (p *mockPublisher) Broadcast(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcast = append(p.broadcast, ev)
}

func (p *mockPublisher) SendTo(clientID string, ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.direct[clientID] = append(p.direct[clientID], ev)
}

func (p *mockPublisher) CloseRoom(roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, roomID)
}

func (p *mockPublisher) roomTypes(roomID string) []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []EventType
	for _, ev := range p.roomEvent[roomID] {
		out = append(out, ev.Type)
	}
	return out
}

func (p *mockPublisher) lastRoomEvent(roomID string, t EventType) *Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	evs := p.roomEvent[roomID]
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type == t {
			ev := evs[i]
			return &ev
		}
	}
	return nil
}

func (p *mockPublisher) directTypes(clientID string) []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []EventType
	for _, ev := range p.direct[clientID] {
		out = append(out, ev.Type)
	}
	return out
}

func (p *mockPublisher) broadcastTypes() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []EventType
	for _, ev := range p.broadcast {
		out = append(out, ev.Type)
	}
	return out
}

func (p *mockPublisher) wasClosed(roomID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range p.closed {
		if id == roomID {
			return true
		}
	}
	return false
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetConstants(ctx context.Context) (models.Constants, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Constants), args.Error(1)
}

func (m *mockStore) GetBestTimes(ctx context.Context, gameName string) (models.BestTimes, error) {
	args := m.Called(ctx, gameName)
	return args.Get(0).(models.BestTimes), args.Error(1)
}

func (m *mockStore) UpdateBestTimes(ctx context.Context, gameName string, multiplayer bool, times []models.BestTime) error {
	args := m.Called(ctx, gameName, multiplayer, times)
	return args.Error(0)
}

func (m *mockStore) GetGame(ctx context.Context, name string) (models.GameDefinition, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(models.GameDefinition), args.Error(1)
}

func (m *mockStore) GetGames(ctx context.Context) ([]models.GameDefinition, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.GameDefinition), args.Error(1)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var testConstants = models.Constants{InitialTime: 30, PenaltyTime: 5, BonusTime: 5}

// newMockStore answers GetConstants with c; other calls must be set up by the test.
func newMockStore(c models.Constants) *mockStore {
	st := &mockStore{}
	st.On("GetConstants", mock.Anything).Return(c, nil).Maybe()
	return st
}

// testGame builds a game with n single-pixel groups at (10i, 10i).
func testGame(name string, n int) models.GameDefinition {
	g := models.GameDefinition{Name: name, OriginalImage: name + "-a.bmp", ModifiedImage: name + "-b.bmp", DifferenceCount: n}
	for i := 0; i < n; i++ {
		g.Differences = append(g.Differences, models.DifferenceGroup{
			{X: 10 * i, Y: 10 * i},
			{X: 10*i + 1, Y: 10 * i},
		})
	}
	return g
}

func hit(i int) models.Coordinate { return models.Coordinate{X: 10 * i, Y: 10 * i} }

var miss = models.Coordinate{X: 999, Y: 999}

// sequentialIDs returns a generator yielding ids in order.
func sequentialIDs(ids ...string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if n < len(ids) {
			id := ids[n]
			n++
			return id
		}
		n++
		return fmt.Sprintf("room-%d", n)
	}
}
