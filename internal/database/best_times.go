package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/spotdiff/internal/models"
)

func modeKey(multiplayer bool) string {
	if multiplayer {
		return "multi"
	}
	return "solo"
}

// GetBestTimes returns both leaderboards of a game, each ascending by time.
func (s *Store) GetBestTimes(ctx context.Context, gameName string) (models.BestTimes, error) {
	bt := models.BestTimes{GameName: gameName}
	q := `
		SELECT mode, player_name, time_sec
		FROM best_times
		WHERE game_name = $1
		ORDER BY mode, rank
	`
	rows, err := s.pool.Query(ctx, q, gameName)
	if err != nil {
		return bt, fmt.Errorf("get best times for %q: %w", gameName, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			mode  string
			entry models.BestTime
		)
		if err := rows.Scan(&mode, &entry.Name, &entry.Time); err != nil {
			return bt, err
		}
		if mode == "multi" {
			bt.Multi = append(bt.Multi, entry)
		} else {
			bt.Solo = append(bt.Solo, entry)
		}
	}
	return bt, rows.Err()
}

// UpdateBestTimes replaces one leaderboard of a game in a single transaction.
func (s *Store) UpdateBestTimes(ctx context.Context, gameName string, multiplayer bool, times []models.BestTime) error {
	mode := modeKey(multiplayer)
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM best_times WHERE game_name = $1 AND mode = $2`, gameName, mode); err != nil {
			return err
		}
		q := `
			INSERT INTO best_times (game_name, mode, rank, player_name, time_sec)
			VALUES ($1, $2, $3, $4, $5)
		`
		for i, t := range times {
			if i >= models.MaxBestTimes {
				break
			}
			if _, err := tx.Exec(ctx, q, gameName, mode, i+1, t.Name, t.Time); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update best times for %q: %w", gameName, err)
	}
	return nil
}

// ResetBestTimes clears the leaderboards of one game, or of every game when
// gameName is empty.
func (s *Store) ResetBestTimes(ctx context.Context, gameName string) error {
	var err error
	if gameName == "" {
		_, err = s.pool.Exec(ctx, `DELETE FROM best_times`)
	} else {
		_, err = s.pool.Exec(ctx, `DELETE FROM best_times WHERE game_name = $1`, gameName)
	}
	if err != nil {
		return fmt.Errorf("reset best times: %w", err)
	}
	return nil
}
