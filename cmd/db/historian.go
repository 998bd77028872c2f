// cmd/db/historian.go drains the room action queue from Redis and persists
// it to PostgreSQL in batches.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/jason-s-yu/spotdiff/internal/cache"
	"github.com/jason-s-yu/spotdiff/internal/database"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// batchWriter is the part of the store the historian writes through.
type batchWriter interface {
	InsertRoomActions(ctx context.Context, records []cache.RoomActionRecord) error
	PruneRoomActions(ctx context.Context, cutoff time.Time) (int64, error)
}

// HistorianService batches room actions popped from Redis and prunes old
// history once a day.
type HistorianService struct {
	redisClient *redis.Client
	store       batchWriter
	queueName   string
	batchSize   int
	flushDelay  time.Duration
	retention   time.Duration

	batchMu sync.Mutex
	batch   []cache.RoomActionRecord
}

// NewHistorianService reads its settings from the environment.
func NewHistorianService(rdb *redis.Client, store batchWriter) *HistorianService {
	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	return &HistorianService{
		redisClient: rdb,
		store:       store,
		queueName:   cache.QueueName(),
		batchSize:   batchSize,
		flushDelay:  time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		retention:   time.Duration(getEnvInt("HISTORIAN_RETENTION_DAYS", 30)) * 24 * time.Hour,
		batch:       make([]cache.RoomActionRecord, 0, batchSize),
	}
}

// Run blocks until ctx is done, then flushes what is left.
func (hs *HistorianService) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); hs.readRedisLoop(ctx) }()
	go func() { defer wg.Done(); hs.flushLoop(ctx) }()
	go func() { defer wg.Done(); hs.pruneLoop(ctx) }()

	log.Info("spotdiff-historian service started.")
	wg.Wait()
	hs.flushBatchToDB(context.Background())
	log.Info("spotdiff-historian shutting down.")
}

// readRedisLoop pops records with a short BLPop timeout so cancellation is noticed.
func (hs *HistorianService) readRedisLoop(ctx context.Context) {
	for ctx.Err() == nil {
		res, err := hs.redisClient.BLPop(ctx, 3*time.Second, hs.queueName).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Errorf("BLPop: %v", err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(res) < 2 {
			continue
		}
		rec, err := cache.DecodeRoomAction(res[1])
		if err != nil {
			log.Warn(err)
			continue
		}
		if hs.appendToBatch(rec) {
			hs.flushBatchToDB(ctx)
		}
	}
}

func (hs *HistorianService) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(hs.flushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hs.flushBatchToDB(ctx)
		}
	}
}

func (hs *HistorianService) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := hs.store.PruneRoomActions(ctx, time.Now().Add(-hs.retention))
			if err != nil {
				log.Errorf("prune: %v", err)
				continue
			}
			log.Infof("Pruned %d room actions.", n)
		}
	}
}

// appendToBatch adds a record and reports whether the batch is full.
func (hs *HistorianService) appendToBatch(rec cache.RoomActionRecord) bool {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	hs.batch = append(hs.batch, rec)
	return len(hs.batch) >= hs.batchSize
}

// flushBatchToDB writes the current batch in one transaction. On failure the
// records are put back for the next flush.
func (hs *HistorianService) flushBatchToDB(ctx context.Context) {
	hs.batchMu.Lock()
	if len(hs.batch) == 0 {
		hs.batchMu.Unlock()
		return
	}
	pending := make([]cache.RoomActionRecord, len(hs.batch))
	copy(pending, hs.batch)
	hs.batch = hs.batch[:0]
	hs.batchMu.Unlock()

	if err := hs.store.InsertRoomActions(ctx, pending); err != nil {
		log.Errorf("flushBatchToDB: %v", err)
		hs.batchMu.Lock()
		hs.batch = append(pending, hs.batch...)
		hs.batchMu.Unlock()
		return
	}
	log.Debugf("Flushed %d actions to DB.", len(pending))
}

func main() {
	database.ConnectDB()
	defer database.DB.Close()

	if err := cache.ConnectRedis(); err != nil {
		log.Fatalf("%v", err)
	}
	defer cache.Rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	NewHistorianService(cache.Rdb, database.NewStore(database.DB)).Run(ctx)
	log.Info("Historian shutdown complete.")
}

// getEnvInt retrieves an integer value from an environment variable or returns a default value.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
