package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jason-s-yu/spotdiff/internal/gateway"
	"github.com/jason-s-yu/spotdiff/internal/models"
	"github.com/sirupsen/logrus"
)

// CatalogStore is what the public endpoints read.
type CatalogStore interface {
	GetGames(ctx context.Context) ([]models.GameDefinition, error)
	GetBestTimes(ctx context.Context, gameName string) (models.BestTimes, error)
	Ping(ctx context.Context) error
}

// gameCard is a game without its difference data.
type gameCard struct {
	Name            string `json:"name"`
	OriginalImage   string `json:"originalImage"`
	ModifiedImage   string `json:"modifiedImage"`
	DifferenceCount int    `json:"differenceCount"`
	IsHard          bool   `json:"isHard"`
}

// AvailableRoomsHandler lists the rooms a player can still join.
func AvailableRoomsHandler(gw *gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms := append(gw.Classic().AvailableRooms(), gw.Limited().AvailableRooms()...)
		writeJSON(w, http.StatusOK, rooms)
	}
}

// GamesHandler lists the game catalog. Difference locations are never sent.
func GamesHandler(logger *logrus.Logger, store CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, err := store.GetGames(r.Context())
		if err != nil {
			logger.Errorf("list games: %v", err)
			http.Error(w, "failed to list games", http.StatusInternalServerError)
			return
		}
		cards := make([]gameCard, 0, len(games))
		for _, g := range games {
			cards = append(cards, gameCard{
				Name:            g.Name,
				OriginalImage:   g.OriginalImage,
				ModifiedImage:   g.ModifiedImage,
				DifferenceCount: g.DifferenceCount,
				IsHard:          g.IsHard,
			})
		}
		writeJSON(w, http.StatusOK, cards)
	}
}

// BestTimesHandler returns both leaderboards of /best-times/{game}.
func BestTimesHandler(logger *logrus.Logger, store CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bt, err := store.GetBestTimes(r.Context(), r.PathValue("game"))
		if err != nil {
			logger.Errorf("get best times: %v", err)
			http.Error(w, "failed to read best times", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, bt)
	}
}

// HealthHandler reports database connectivity.
func HealthHandler(store CatalogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"connected": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"connected": true})
	}
}
