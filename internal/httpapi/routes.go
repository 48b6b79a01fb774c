package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chiptrack/chiptrack/internal/hub"
	"github.com/chiptrack/chiptrack/internal/ws"
)

func SetupRoutes(h *hub.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))
	r.Get("/api/game", GetGame(h))
	r.Get("/api/players", GetPlayers(h))
	r.Delete("/api/players/{username}", DeletePlayer(h))
	return r
}
