package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/spotdiff/internal/models"
)

// GetConstants returns the stored constants, or the defaults when none were
// ever saved.
func (s *Store) GetConstants(ctx context.Context) (models.Constants, error) {
	var c models.Constants
	q := `SELECT initial_time, penalty_time, bonus_time FROM constants WHERE id = 1`
	err := s.pool.QueryRow(ctx, q).Scan(&c.InitialTime, &c.PenaltyTime, &c.BonusTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultConstants, nil
	}
	if err != nil {
		return c, fmt.Errorf("get constants: %w", err)
	}
	return c, nil
}

// UpdateConstants upserts the single constants row.
func (s *Store) UpdateConstants(ctx context.Context, c models.Constants) error {
	q := `
		INSERT INTO constants (id, initial_time, penalty_time, bonus_time)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id)
		DO UPDATE SET initial_time = $1, penalty_time = $2, bonus_time = $3
	`
	if _, err := s.pool.Exec(ctx, q, c.InitialTime, c.PenaltyTime, c.BonusTime); err != nil {
		return fmt.Errorf("update constants: %w", err)
	}
	return nil
}

// SeedConstants stores c only if no constants exist yet.
func (s *Store) SeedConstants(ctx context.Context, c models.Constants) error {
	q := `
		INSERT INTO constants (id, initial_time, penalty_time, bonus_time)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, q, c.InitialTime, c.PenaltyTime, c.BonusTime); err != nil {
		return fmt.Errorf("seed constants: %w", err)
	}
	return nil
}
