package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/spotdiff/internal/cache"
)

// InsertRoomActions persists a batch of history records in one transaction.
// Records already stored are skipped.
func (s *Store) InsertRoomActions(ctx context.Context, records []cache.RoomActionRecord) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := insertRoomActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertRoomActionTx: %w", err)
			}
		}
		return nil
	})
}

func insertRoomActionTx(ctx context.Context, tx pgx.Tx, rec cache.RoomActionRecord) error {
	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	q := `
		INSERT INTO room_actions (room_id, action_index, actor_id, action_type, action_payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (room_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, q,
		rec.RoomID, rec.ActionIndex, rec.ActorID, rec.ActionType, payload, time.UnixMilli(rec.Timestamp),
	)
	return err
}

// PruneRoomActions deletes history older than cutoff and returns how many
// rows went.
func (s *Store) PruneRoomActions(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM room_actions WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune room actions: %w", err)
	}
	return tag.RowsAffected(), nil
}
