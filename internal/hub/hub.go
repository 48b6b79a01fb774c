package hub

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chiptrack/chiptrack/internal/engine"
	"github.com/chiptrack/chiptrack/internal/store"
	"github.com/chiptrack/chiptrack/internal/table"
)

// DefaultCode is the shared table every client without an explicit code
// joins. The wire-level join_game carries no payload, so one communal
// game is the common case.
const DefaultCode = "main"

type HubMsg interface{ isHubMsg() }

type GetTable struct {
	Code  string
	Reply chan *table.Table
}

type EnsureTable struct {
	Code  string
	Reply chan *table.Table
}

type RemoveTable struct {
	Code string
}

type ShutdownHub struct{}

func (GetTable) isHubMsg()    {}
func (EnsureTable) isHubMsg() {}
func (RemoveTable) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox  chan HubMsg
	tables map[string]*table.Table
	store  store.Store
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, st store.Store, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	if st == nil {
		st = store.NewMemory()
	}
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		tables: make(map[string]*table.Table),
		store:  st,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case GetTable:
				msg.Reply <- h.tables[msg.Code] // may be nil

			case EnsureTable:
				if tbl := h.tables[msg.Code]; tbl != nil {
					msg.Reply <- tbl
					break
				}
				tbl := table.New(h.ctx, h.initialState(), h.store, h.log.With(zap.String("table", msg.Code)))
				h.tables[msg.Code] = tbl
				msg.Reply <- tbl

			case RemoveTable:
				delete(h.tables, msg.Code)

			case ShutdownHub:
				for _, tbl := range h.tables {
					tbl.Inbox() <- table.Shutdown{}
				}
				clear(h.tables)
				h.cancel()
			}
		}
	}
}

// initialState seeds a fresh table from the persisted roster, so chip
// counts survive a server restart.
func (h *Hub) initialState() engine.State {
	ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
	defer cancel()

	players, err := h.store.LoadPlayers(ctx)
	if err != nil {
		h.log.Warn("load players", zap.Error(err))
		return engine.NewEmptyState()
	}
	return engine.NewStateFromPlayers(players)
}
