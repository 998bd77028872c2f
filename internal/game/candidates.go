package game

import (
	"sync"

	"github.com/jason-s-yu/spotdiff/internal/models"
)

// CandidateQueues holds, per awaiting 1v1 room, the ordered list of players
// asking to join. Candidates are not part of the room until accepted.
type CandidateQueues struct {
	mu     sync.Mutex
	queues map[string][]models.Player
}

func NewCandidateQueues() *CandidateQueues {
	return &CandidateQueues{queues: make(map[string][]models.Player)}
}

// Add appends p to the room's queue. A player already queued is not added twice.
func (q *CandidateQueues) Add(roomID string, p models.Player) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, c := range q.queues[roomID] {
		if c.ID == p.ID {
			return false
		}
	}
	q.queues[roomID] = append(q.queues[roomID], p)
	return true
}

// Remove drops playerID from the room's queue and reports whether it was there.
func (q *CandidateQueues) Remove(roomID, playerID string) (models.Player, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	list := q.queues[roomID]
	for i, c := range list {
		if c.ID == playerID {
			q.queues[roomID] = append(list[:i:i], list[i+1:]...)
			if len(q.queues[roomID]) == 0 {
				delete(q.queues, roomID)
			}
			return c, true
		}
	}
	return models.Player{}, false
}

// List returns a copy of the room's queue.
func (q *CandidateQueues) List(roomID string) []models.Player {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.Player, len(q.queues[roomID]))
	copy(out, q.queues[roomID])
	return out
}

// Drop discards the whole queue and returns who was in it.
func (q *CandidateQueues) Drop(roomID string) []models.Player {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.queues[roomID]
	delete(q.queues, roomID)
	return out
}

// FindPlayer returns the room a player is queued for.
func (q *CandidateQueues) FindPlayer(playerID string) (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for roomID, list := range q.queues {
		for _, c := range list {
			if c.ID == playerID {
				return roomID, true
			}
		}
	}
	return "", false
}
