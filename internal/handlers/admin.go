// internal/handlers/admin.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jason-s-yu/spotdiff/internal/auth"
	"github.com/jason-s-yu/spotdiff/internal/database"
	"github.com/jason-s-yu/spotdiff/internal/game"
	"github.com/jason-s-yu/spotdiff/internal/gateway"
	"github.com/jason-s-yu/spotdiff/internal/models"
	"github.com/sirupsen/logrus"
)

const authCookie = "auth_token"

// AdminStore is the persistence the admin API needs.
type AdminStore interface {
	GetConstants(ctx context.Context) (models.Constants, error)
	UpdateConstants(ctx context.Context, c models.Constants) error
	ResetBestTimes(ctx context.Context, gameName string) error
	InsertGame(ctx context.Context, g models.GameDefinition) error
	DeleteGame(ctx context.Context, name string) error
}

// AdminAPI serves the administration endpoints.
type AdminAPI struct {
	Store        AdminStore
	Gateway      *gateway.Gateway
	Signer       *auth.Signer
	PasswordHash string
	Logger       *logrus.Logger
}

type loginRequest struct {
	Password string `json:"password"`
}

// LoginHandler checks the admin password and hands out a token, both in the
// body and as a cookie.
func (a *AdminAPI) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid login payload", http.StatusBadRequest)
		return
	}
	if a.PasswordHash == "" {
		http.Error(w, "admin access is disabled", http.StatusForbidden)
		return
	}
	ok, err := auth.VerifyPassword(req.Password, a.PasswordHash)
	if err != nil {
		a.Logger.Errorf("admin password hash is unusable: %v", err)
		http.Error(w, "admin access is misconfigured", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "invalid password", http.StatusUnauthorized)
		return
	}
	token, err := a.Signer.CreateJWT(auth.AdminSubject)
	if err != nil {
		http.Error(w, "failed to create token", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// RequireAdmin rejects requests without a valid admin token.
func (a *AdminAPI) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.Signer.AuthenticateAdmin(requestToken(r)); err != nil {
			http.Error(w, "admin token required", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// ListRoomsHandler returns every live room, including finished-but-not-yet-closed ones.
func (a *AdminAPI) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.Gateway.Rooms())
}

// DeleteRoomHandler closes one room.
func (a *AdminAPI) DeleteRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	if !a.Gateway.DeleteRoom(roomID) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateGameHandler stores a new game definition.
func (a *AdminAPI) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	var def models.GameDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		http.Error(w, "invalid game payload", http.StatusBadRequest)
		return
	}
	if def.Name == "" || len(def.Differences) == 0 {
		http.Error(w, "a game needs a name and at least one difference", http.StatusBadRequest)
		return
	}
	if err := a.Store.InsertGame(r.Context(), def); err != nil {
		a.Logger.Errorf("insert game: %v", err)
		http.Error(w, "failed to store game", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// DeleteGameHandler removes a game and closes every room playing it.
func (a *AdminAPI) DeleteGameHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := a.Store.DeleteGame(r.Context(), name); err != nil {
		if errors.Is(err, database.ErrGameNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		a.Logger.Errorf("delete game: %v", err)
		http.Error(w, "failed to delete game", http.StatusInternalServerError)
		return
	}
	closed := a.Gateway.DeleteGame(name)
	writeJSON(w, http.StatusOK, map[string]interface{}{"closedRooms": closed})
}

// GetConstantsHandler returns the current constants.
func (a *AdminAPI) GetConstantsHandler(w http.ResponseWriter, r *http.Request) {
	c, err := a.Store.GetConstants(r.Context())
	if err != nil {
		a.Logger.Errorf("get constants: %v", err)
		http.Error(w, "failed to read constants", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateConstantsHandler applies a partial update. Rooms already running
// keep the values they were created with.
func (a *AdminAPI) UpdateConstantsHandler(w http.ResponseWriter, r *http.Request) {
	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "invalid constants payload", http.StatusBadRequest)
		return
	}
	current, err := a.Store.GetConstants(r.Context())
	if err != nil {
		a.Logger.Errorf("get constants: %v", err)
		http.Error(w, "failed to read constants", http.StatusInternalServerError)
		return
	}
	next, err := game.ApplyConstants(current, updates)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := a.Store.UpdateConstants(r.Context(), next); err != nil {
		a.Logger.Errorf("update constants: %v", err)
		http.Error(w, "failed to save constants", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

// ResetBestTimesHandler clears the leaderboard of ?game=, or all of them.
func (a *AdminAPI) ResetBestTimesHandler(w http.ResponseWriter, r *http.Request) {
	gameName := r.URL.Query().Get("game")
	if err := a.Store.ResetBestTimes(r.Context(), gameName); err != nil {
		a.Logger.Errorf("reset best times: %v", err)
		http.Error(w, "failed to reset best times", http.StatusInternalServerError)
		return
	}
	a.Gateway.Hub().Broadcast(game.Event{
		Type:    game.EventNewBestTime,
		Payload: map[string]interface{}{"gameName": gameName, "reset": true},
	})
	w.WriteHeader(http.StatusNoContent)
}

// Register mounts the admin routes on mux.
func (a *AdminAPI) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /admin/login", a.LoginHandler)
	mux.HandleFunc("GET /admin/rooms", a.RequireAdmin(a.ListRoomsHandler))
	mux.HandleFunc("DELETE /admin/rooms/{id}", a.RequireAdmin(a.DeleteRoomHandler))
	mux.HandleFunc("POST /admin/games", a.RequireAdmin(a.CreateGameHandler))
	mux.HandleFunc("DELETE /admin/games/{name}", a.RequireAdmin(a.DeleteGameHandler))
	mux.HandleFunc("GET /admin/constants", a.RequireAdmin(a.GetConstantsHandler))
	mux.HandleFunc("PUT /admin/constants", a.RequireAdmin(a.UpdateConstantsHandler))
	mux.HandleFunc("POST /admin/best-times/reset", a.RequireAdmin(a.ResetBestTimesHandler))
}
