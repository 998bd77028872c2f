package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jason-s-yu/spotdiff/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGamesHandlerHidesDifferences(t *testing.T) {
	st := newMemStore()
	st.games["park"] = sampleGame("park")

	rec := httptest.NewRecorder()
	GamesHandler(quietLogger(), st)(rec, httptest.NewRequest(http.MethodGet, "/games", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var cards []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cards))
	require.Len(t, cards, 1)
	assert.Equal(t, "park", cards[0]["name"])
	assert.NotContains(t, cards[0], "differences")
}

func TestBestTimesHandler(t *testing.T) {
	st := newMemStore()
	st.best["park"] = models.BestTimes{GameName: "park", Solo: []models.BestTime{{Name: "alice", Time: 12}}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /best-times/{game}", BestTimesHandler(quietLogger(), st))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/best-times/park", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var bt models.BestTimes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bt))
	assert.Equal(t, "park", bt.GameName)
	assert.Equal(t, []models.BestTime{{Name: "alice", Time: 12}}, bt.Solo)
}

func TestHealthHandler(t *testing.T) {
	st := newMemStore()

	rec := httptest.NewRecorder()
	HealthHandler(st)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	st.pingErr = errors.New("down")
	rec = httptest.NewRecorder()
	HealthHandler(st)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"connected":false}`, rec.Body.String())
}

func TestAvailableRoomsHandler(t *testing.T) {
	st := newMemStore()
	gw := newTestGateway(st)
	room, err := gw.Classic().CreateRoom(t.Context(), "alice", models.ModeClassic1v1, sampleGame("park"))
	require.NoError(t, err)
	gw.Classic().AssignHost(room.ID, "host")

	rec := httptest.NewRecorder()
	AvailableRoomsHandler(gw)(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var rooms []models.RoomSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, room.ID, rooms[0].RoomID)
}

func TestExtractCookieToken(t *testing.T) {
	assert.Equal(t, "abc", extractCookieToken("theme=dark; auth_token=abc; lang=en", authCookie))
	assert.Equal(t, "abc", extractCookieToken("auth_token=abc", authCookie))
	assert.Empty(t, extractCookieToken("theme=dark", authCookie))
}
