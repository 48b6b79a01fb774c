package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chiptrack/chiptrack/internal/engine"
	"github.com/chiptrack/chiptrack/internal/hub"
	"github.com/chiptrack/chiptrack/internal/table"
	"github.com/chiptrack/chiptrack/pkg/types"
)

// Handler upgrades a client connection and bridges it onto a table actor.
// Identity is the username query parameter; there is no account system.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if username == "" {
			http.Error(w, "missing username", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			code = hub.DefaultCode
		}

		reply := make(chan *table.Table, 1)
		h.Inbox() <- hub.EnsureTable{Code: code, Reply: reply}
		tbl := <-reply
		if tbl == nil {
			http.Error(w, "table unavailable", http.StatusInternalServerError)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// The tracker runs on a trusted LAN; same-origin rules would
			// block the usual phone-on-wifi clients.
			InsecureSkipVerify: true,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan types.ServerMessage, 16)
		clientID := uuid.NewString()
		log = log.With(zap.String("client", clientID), zap.String("username", username))
		log.Info("client connected")

		tbl.Inbox() <- table.Join{ClientID: clientID, Outbox: out}
		defer func() {
			// A dropped connection also removes the player from the shared
			// roster; the broadcast loop announces player_left.
			tbl.Inbox() <- table.FromClient{ClientID: clientID, Cmd: engine.Command{
				Type: engine.CmdLeaveGame, Username: username,
			}}
			tbl.Inbox() <- table.Leave{ClientID: clientID}
			log.Info("client disconnected")
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range out {
				payload, err := json.Marshal(msg)
				if err != nil {
					log.Warn("marshal push", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			cmd, ok := toCommand(cm, username)
			if !ok {
				writeError(r.Context(), conn, "unknown event type")
				continue
			}

			tbl.Inbox() <- table.FromClient{ClientID: clientID, Cmd: cmd}
		}
	}
}

// toCommand maps a wire intent onto an engine command. join_game carries no
// payload: the session identity is the player being added.
func toCommand(m types.ClientMessage, sessionUser string) (engine.Command, bool) {
	switch m.Type {
	case types.EvtJoinGame:
		return engine.Command{Type: engine.CmdAddPlayer, Username: sessionUser}, true
	case types.EvtLeaveGame:
		return engine.Command{Type: engine.CmdLeaveGame, Username: sessionUser}, true
	case types.EvtStartGame:
		return engine.Command{Type: engine.CmdStartGame, SmallBlind: m.SmallBlind, BigBlind: m.BigBlind}, true
	case types.EvtPlaceBet:
		return engine.Command{Type: engine.CmdPlaceBet, Username: m.Username, Amount: m.Amount}, true
	case types.EvtFold:
		return engine.Command{Type: engine.CmdFold, Username: m.Username}, true
	case types.EvtUnfold:
		return engine.Command{Type: engine.CmdUnfold, Username: m.Username}, true
	case types.EvtNextRound:
		return engine.Command{Type: engine.CmdNextRound}, true
	case types.EvtDistributePot:
		return engine.Command{Type: engine.CmdDistributePot, Username: m.Username, Amount: m.Amount}, true
	case types.EvtEndGame:
		return engine.Command{Type: engine.CmdEndGame}, true
	case types.EvtAdjustChips:
		return engine.Command{Type: engine.CmdAdjustChips, Username: m.Username, Amount: m.Amount}, true
	case types.EvtReorderPlayers:
		return engine.Command{Type: engine.CmdReorder, Order: m.PlayerOrder}, true
	default:
		return engine.Command{}, false
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: types.EvtError, Error: msg})
	wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}
