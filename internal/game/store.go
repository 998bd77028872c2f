package game

import (
	"context"

	"github.com/jason-s-yu/spotdiff/internal/models"
)

// Store is the persistence surface the session managers depend on.
type Store interface {
	GetConstants(ctx context.Context) (models.Constants, error)
	GetBestTimes(ctx context.Context, gameName string) (models.BestTimes, error)
	UpdateBestTimes(ctx context.Context, gameName string, multiplayer bool, times []models.BestTime) error
	GetGame(ctx context.Context, name string) (models.GameDefinition, error)
	GetGames(ctx context.Context) ([]models.GameDefinition, error)
	Ping(ctx context.Context) error
}
