package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chiptrack/chiptrack/internal/engine"
	"github.com/chiptrack/chiptrack/internal/hub"
	"github.com/chiptrack/chiptrack/internal/table"
)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func getTable(h *hub.Hub, r *http.Request) *table.Table {
	code := r.URL.Query().Get("code")
	if code == "" {
		code = hub.DefaultCode
	}
	reply := make(chan *table.Table, 1)
	h.Inbox() <- hub.EnsureTable{Code: code, Reply: reply}
	return <-reply
}

func getView(tbl *table.Table) (table.View, bool) {
	reply := make(chan table.View, 1)
	tbl.Inbox() <- table.GetState{Reply: reply}
	select {
	case v := <-reply:
		return v, true
	case <-time.After(2 * time.Second):
		return table.View{}, false
	}
}

// GetGame returns the current snapshot, the same shape pushed over the
// event channel.
func GetGame(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tbl := getTable(h, r)
		if tbl == nil {
			http.Error(w, "table unavailable", http.StatusInternalServerError)
			return
		}
		view, ok := getView(tbl)
		if !ok {
			http.Error(w, "table busy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(view.State.Snapshot())
	}
}

func GetPlayers(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tbl := getTable(h, r)
		if tbl == nil {
			http.Error(w, "table unavailable", http.StatusInternalServerError)
			return
		}
		view, ok := getView(tbl)
		if !ok {
			http.Error(w, "table busy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(view.State.Snapshot().Players)
	}
}

// DeletePlayer removes a player by username, synchronously. Connected
// clients observe the removal through the next game_state_update push.
func DeletePlayer(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")
		if username == "" {
			http.Error(w, "missing username", http.StatusBadRequest)
			return
		}
		tbl := getTable(h, r)
		if tbl == nil {
			http.Error(w, "table unavailable", http.StatusInternalServerError)
			return
		}

		reply := make(chan error, 1)
		tbl.Inbox() <- table.FromClient{
			Cmd:   engine.Command{Type: engine.CmdRemovePlayer, Username: username},
			Reply: reply,
		}

		select {
		case err := <-reply:
			if err != nil {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
		case <-time.After(2 * time.Second):
			http.Error(w, "table busy", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Removed string `json:"removed"`
		}{Removed: username})
	}
}
