package game

import (
	"context"
	"sync"
	"time"

	"github.com/jason-s-yu/spotdiff/internal/cache"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// actionLog numbers the actions of each room and ships them to the
// historian queue. A nil client disables shipping.
type actionLog struct {
	mu      sync.Mutex
	indices map[string]int
	rdb     func() *redis.Client
}

func newActionLog() *actionLog {
	return &actionLog{
		indices: make(map[string]int),
		rdb:     func() *redis.Client { return cache.Rdb },
	}
}

func (a *actionLog) next(roomID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.indices[roomID]++
	return a.indices[roomID]
}

func (a *actionLog) forget(roomID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.indices, roomID)
}

// record publishes asynchronously so the caller never waits on Redis.
func (a *actionLog) record(roomID, actorID, actionType string, payload map[string]interface{}) {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	rec := cache.RoomActionRecord{
		RoomID:        roomID,
		ActionIndex:   a.next(roomID),
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	rdb := a.rdb()
	if rdb == nil {
		return
	}
	go func(rec cache.RoomActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishRoomAction(ctx, rdb, rec); err != nil {
			log.Warnf("publish action %d for room %s: %v", rec.ActionIndex, rec.RoomID, err)
		}
	}(rec)
}
