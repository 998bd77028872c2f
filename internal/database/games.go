package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/spotdiff/internal/models"
)

// ErrGameNotFound is returned when no game has the requested name.
var ErrGameNotFound = errors.New("game not found")

const gameColumns = `name, original_image, modified_image, differences, difference_count, is_hard`

func scanGame(row pgx.Row) (models.GameDefinition, error) {
	var (
		g   models.GameDefinition
		raw []byte
	)
	if err := row.Scan(&g.Name, &g.OriginalImage, &g.ModifiedImage, &raw, &g.DifferenceCount, &g.IsHard); err != nil {
		return g, err
	}
	if err := json.Unmarshal(raw, &g.Differences); err != nil {
		return g, fmt.Errorf("decode differences of %q: %w", g.Name, err)
	}
	return g, nil
}

// GetGame loads one game definition by name.
func (s *Store) GetGame(ctx context.Context, name string) (models.GameDefinition, error) {
	q := `SELECT ` + gameColumns + ` FROM games WHERE name = $1`
	g, err := scanGame(s.pool.QueryRow(ctx, q, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return g, fmt.Errorf("%w: %s", ErrGameNotFound, name)
	}
	if err != nil {
		return g, fmt.Errorf("get game %q: %w", name, err)
	}
	return g, nil
}

// GetGames loads every game definition, oldest first.
func (s *Store) GetGames(ctx context.Context) ([]models.GameDefinition, error) {
	q := `SELECT ` + gameColumns + ` FROM games ORDER BY created_at, name`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []models.GameDefinition
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// InsertGame stores a new game definition.
func (s *Store) InsertGame(ctx context.Context, g models.GameDefinition) error {
	raw, err := json.Marshal(g.Differences)
	if err != nil {
		return fmt.Errorf("encode differences: %w", err)
	}
	if g.DifferenceCount == 0 {
		g.DifferenceCount = len(g.Differences)
	}
	q := `
		INSERT INTO games (name, original_image, modified_image, differences, difference_count, is_hard)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.pool.Exec(ctx, q, g.Name, g.OriginalImage, g.ModifiedImage, raw, g.DifferenceCount, g.IsHard); err != nil {
		return fmt.Errorf("insert game %q: %w", g.Name, err)
	}
	return nil
}

// DeleteGame removes a game and, through the foreign key, its best times.
func (s *Store) DeleteGame(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM games WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete game %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrGameNotFound, name)
	}
	return nil
}
