package handlers

import (
	"context"
	"io"
	"sync"

	"github.com/jason-s-yu/spotdiff/internal/database"
	"github.com/jason-s-yu/spotdiff/internal/gateway"
	"github.com/jason-s-yu/spotdiff/internal/models"
	"github.com/sirupsen/logrus"
)

// memStore is an in-memory stand-in for the postgres store.
type memStore struct {
	mu        sync.Mutex
	constants models.Constants
	games     map[string]models.GameDefinition
	best      map[string]models.BestTimes
	pingErr   error
	resets    []string
}

func newMemStore() *memStore {
	return &memStore{
		constants: models.DefaultConstants,
		games:     make(map[string]models.GameDefinition),
		best:      make(map[string]models.BestTimes),
	}
}

func (s *memStore) GetConstants(context.Context) (models.Constants, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.constants, nil
}

func (s *memStore) UpdateConstants(_ context.Context, c models.Constants) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.constants = c
	return nil
}

func (s *memStore) GetBestTimes(_ context.Context, name string) (models.BestTimes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bt, ok := s.best[name]
	if !ok {
		bt = models.BestTimes{GameName: name}
	}
	return bt, nil
}

func (s *memStore) UpdateBestTimes(_ context.Context, name string, multi bool, times []models.BestTime) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bt := s.best[name]
	bt.GameName = name
	if multi {
		bt.Multi = times
	} else {
		bt.Solo = times
	}
	s.best[name] = bt
	return nil
}

func (s *memStore) ResetBestTimes(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets = append(s.resets, name)
	return nil
}

func (s *memStore) GetGame(_ context.Context, name string) (models.GameDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[name]
	if !ok {
		return models.GameDefinition{}, database.ErrGameNotFound
	}
	return g, nil
}

func (s *memStore) GetGames(context.Context) ([]models.GameDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.GameDefinition, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g)
	}
	return out, nil
}

func (s *memStore) InsertGame(_ context.Context, g models.GameDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.Name] = g
	return nil
}

func (s *memStore) DeleteGame(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[name]; !ok {
		return database.ErrGameNotFound
	}
	delete(s.games, name)
	return nil
}

func (s *memStore) Ping(context.Context) error { return s.pingErr }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestGateway(st *memStore) *gateway.Gateway {
	logger := quietLogger()
	return gateway.New(st, gateway.NewHub(logger, nil), logger)
}

func sampleGame(name string) models.GameDefinition {
	return models.GameDefinition{
		Name:            name,
		OriginalImage:   name + "-a.bmp",
		ModifiedImage:   name + "-b.bmp",
		Differences:     []models.DifferenceGroup{{{X: 3, Y: 4}, {X: 4, Y: 4}}},
		DifferenceCount: 1,
	}
}
