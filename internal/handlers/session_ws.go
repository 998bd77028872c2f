// internal/handlers/session_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/spotdiff/internal/game"
	"github.com/jason-s-yu/spotdiff/internal/gateway"
	"github.com/jason-s-yu/spotdiff/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the websocket subprotocol clients must request.
const Subprotocol = "spotdiff"

// SessionWSHandler upgrades the connection, registers it with the hub under
// a fresh client id and feeds every inbound message to the gateway until the
// socket closes.
func SessionWSHandler(logger *logrus.Logger, gw *gateway.Gateway, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		// the request context is the server's base context, so this fires on shutdown
		stopShutdown := context.AfterFunc(r.Context(), func() {
			c.Close(ServerShutdownError, "server shutting down")
		})
		defer stopShutdown()

		if c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the spotdiff subprotocol")
			return
		}

		clientID := uuid.NewString()
		client := gw.Hub().Register(clientID, gateway.DefaultOutBuffer)
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go writePump(ctx, c, client, logger)

		gw.Hub().SendTo(clientID, game.Event{
			Type:    game.EventConnected,
			Payload: map[string]interface{}{"clientId": clientID},
		})

		readErr := readMessages(ctx, c, gw, clientID, logger)

		gw.Disconnect(clientID)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)
	}
}

// readMessages decodes client messages and hands them to the gateway. It
// returns the error that ended the loop, or nil on a normal close.
func readMessages(ctx context.Context, c *websocket.Conn, gw *gateway.Gateway, clientID string, logger *logrus.Logger) error {
	log := logger.WithField("client_id", clientID)
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			log.Warnf("ignoring non-text message type %d", msgType)
			continue
		}

		var msg gateway.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warnf("invalid JSON: %v", err)
			gw.Hub().SendTo(clientID, game.Event{
				Type:    game.EventError,
				Payload: map[string]interface{}{"message": "invalid JSON format"},
			})
			continue
		}
		if msg.Type == "ping" {
			gw.Hub().SendTo(clientID, game.Event{Type: "pong"})
			continue
		}
		gw.HandleMessage(ctx, clientID, msg)
	}
}

// writePump drains the client's queue onto the socket and pings it every
// 30 seconds.
func writePump(ctx context.Context, c *websocket.Conn, client *gateway.Client, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer c.Close(websocket.StatusGoingAway, "write pump stopping")

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-client.OutChan:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket for client %s: %v", client.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("ping failed for client %s: %v", client.ID, err)
				return
			}
		}
	}
}
