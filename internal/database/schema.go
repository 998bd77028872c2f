package database

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	name             TEXT PRIMARY KEY,
	original_image   TEXT NOT NULL,
	modified_image   TEXT NOT NULL,
	differences      JSONB NOT NULL,
	difference_count INT NOT NULL,
	is_hard          BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS best_times (
	game_name   TEXT NOT NULL REFERENCES games(name) ON DELETE CASCADE,
	mode        TEXT NOT NULL CHECK (mode IN ('solo', 'multi')),
	rank        INT NOT NULL,
	player_name TEXT NOT NULL,
	time_sec    INT NOT NULL,
	PRIMARY KEY (game_name, mode, rank)
);

CREATE TABLE IF NOT EXISTS constants (
	id           INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	initial_time INT NOT NULL,
	penalty_time INT NOT NULL,
	bonus_time   INT NOT NULL
);

CREATE TABLE IF NOT EXISTS room_actions (
	room_id        TEXT NOT NULL,
	action_index   INT NOT NULL,
	actor_id       TEXT NOT NULL DEFAULT '',
	action_type    TEXT NOT NULL,
	action_payload JSONB NOT NULL DEFAULT '{}',
	recorded_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (room_id, action_index)
);
`

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
