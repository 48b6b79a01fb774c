package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/chiptrack/chiptrack/pkg/types"
)

var ErrNotConnected = errors.New("not connected to the server")
var ErrInvalidIntent = errors.New("invalid intent payload")

// Config wires the connection manager. Hooks are optional; they exist so
// informational events can drive screen switches and logging without ever
// touching the snapshot.
type Config struct {
	ServerAddr string // host:port, or a full http(s)/ws(s) URL
	Username   string
	TableCode  string
	Log        *slog.Logger
	Notifier   *Notifier

	// Screen-level hooks, independent of the render pipeline.
	OnGameStarted func()
	OnGameEnded   func()
	// OnEvent observes every informational push (not game_state_update).
	OnEvent func(types.ServerMessage)
}

// Client owns the single duplex event channel to the server. Inbound
// game_state_update replaces the store snapshot and triggers one render;
// every other inbound event is informational only. Outbound intents are
// fire-and-forget: effects become visible with the next snapshot push.
type Client struct {
	cfg      Config
	store    *Store
	notifier *Notifier
	log      *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	render func()

	httpc *http.Client
}

// New builds the client in explicit dependency order: store and notifier
// first, render hook next, Connect last. No event is accepted before the
// whole pipeline exists.
func New(cfg Config, store *Store) *Client {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NewNotifier(0)
	}
	return &Client{
		cfg:      cfg,
		store:    store,
		notifier: cfg.Notifier,
		log:      cfg.Log,
		httpc:    &http.Client{Timeout: 5 * time.Second},
	}
}

// SetRenderHook registers the full-UI render pass invoked after each
// snapshot replacement. Must be set before Connect.
func (c *Client) SetRenderHook(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.render = fn
}

func (c *Client) wsURL() string {
	addr := c.cfg.ServerAddr
	if !strings.Contains(addr, "://") {
		addr = "ws://" + addr
	}
	addr = strings.Replace(addr, "http://", "ws://", 1)
	addr = strings.Replace(addr, "https://", "wss://", 1)
	return fmt.Sprintf("%s/ws?username=%s&code=%s",
		strings.TrimSuffix(addr, "/"),
		url.QueryEscape(c.cfg.Username),
		url.QueryEscape(c.cfg.TableCode))
}

func (c *Client) httpURL(path string) string {
	addr := c.cfg.ServerAddr
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	addr = strings.Replace(addr, "ws://", "http://", 1)
	addr = strings.Replace(addr, "wss://", "https://", 1)
	return fmt.Sprintf("%s%s?code=%s",
		strings.TrimSuffix(addr, "/"), path, url.QueryEscape(c.cfg.TableCode))
}

// Connect establishes the one logical connection for this session and
// announces the join. The caller then runs Listen.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.wsURL(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.ServerAddr, err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.log.Info("connected", "server", c.cfg.ServerAddr, "username", c.cfg.Username)

	return c.emit(types.ClientMessage{Type: types.EvtJoinGame})
}

// Listen consumes pushes until the connection or context ends. Handler
// faults never stop the loop.
func (c *Client) Listen(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			c.mu.Lock()
			c.conn = nil
			c.mu.Unlock()
			c.log.Info("disconnected", "err", err)
			return err
		}

		var msg types.ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn("bad push payload", "err", err)
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	}
}

func (c *Client) handle(msg types.ServerMessage) {
	switch msg.Type {
	case types.EvtGameStateUpdate:
		if msg.State == nil {
			c.log.Warn("game_state_update without state")
			return
		}
		c.store.ReplaceSnapshot(*msg.State)
		c.renderPass()

	case types.EvtError:
		c.notifier.Notify(msg.Error)

	case types.EvtGameStarted:
		c.log.Info("game started")
		if c.cfg.OnGameStarted != nil {
			c.cfg.OnGameStarted()
		}
		c.observe(msg)

	case types.EvtGameEnded:
		c.log.Info("game ended")
		if c.cfg.OnGameEnded != nil {
			c.cfg.OnGameEnded()
		}
		c.observe(msg)

	default:
		// player_joined, bet_placed, round_changed and friends carry no
		// state of their own; the data arrives in the next snapshot.
		c.log.Debug("event", "type", msg.Type, "username", msg.Username)
		c.observe(msg)
	}
}

func (c *Client) observe(msg types.ServerMessage) {
	if c.cfg.OnEvent != nil {
		c.cfg.OnEvent(msg)
	}
}

func (c *Client) renderPass() {
	c.mu.Lock()
	render := c.render
	c.mu.Unlock()
	if render != nil {
		render()
	}
}

func (c *Client) emit(msg types.ClientMessage) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		c.notifier.Notify("Not connected to the server")
		return ErrNotConnected
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		c.notifier.Notify("Connection lost; action not sent")
		return err
	}
	return nil
}

// Intent emitters. Each validates its payload and refuses to touch the
// network on bad input; the dispatcher has usually caught these earlier.

func (c *Client) StartGame(smallBlind, bigBlind int) error {
	if smallBlind <= 0 {
		smallBlind = 5
	}
	if bigBlind <= 0 {
		bigBlind = 10
	}
	return c.emit(types.ClientMessage{
		Type:       types.EvtStartGame,
		SmallBlind: smallBlind,
		BigBlind:   bigBlind,
	})
}

func (c *Client) PlaceBet(username string, amount int) error {
	if username == "" || amount <= 0 {
		return ErrInvalidIntent
	}
	return c.emit(types.ClientMessage{Type: types.EvtPlaceBet, Username: username, Amount: amount})
}

func (c *Client) Fold(username string) error {
	if username == "" {
		return ErrInvalidIntent
	}
	return c.emit(types.ClientMessage{Type: types.EvtFold, Username: username})
}

func (c *Client) Unfold(username string) error {
	if username == "" {
		return ErrInvalidIntent
	}
	return c.emit(types.ClientMessage{Type: types.EvtUnfold, Username: username})
}

func (c *Client) NextRound() error {
	return c.emit(types.ClientMessage{Type: types.EvtNextRound})
}

func (c *Client) DistributePot(username string, amount int) error {
	if username == "" || amount <= 0 {
		return ErrInvalidIntent
	}
	return c.emit(types.ClientMessage{Type: types.EvtDistributePot, Username: username, Amount: amount})
}

func (c *Client) EndGame() error {
	return c.emit(types.ClientMessage{Type: types.EvtEndGame})
}

func (c *Client) AdjustChips(username string, amount int) error {
	if username == "" || amount == 0 {
		return ErrInvalidIntent
	}
	return c.emit(types.ClientMessage{Type: types.EvtAdjustChips, Username: username, Amount: amount})
}

// RemovePlayer goes over the auxiliary HTTP surface, not the event
// channel. A synchronous failure becomes a notice; success shows up with
// the next snapshot push.
func (c *Client) RemovePlayer(username string) error {
	if username == "" {
		return ErrInvalidIntent
	}
	req, err := http.NewRequest(http.MethodDelete,
		c.httpURL("/api/players/"+url.PathEscape(username)), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.notifier.Notify("Could not reach the server")
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.notifier.Notify(fmt.Sprintf("Could not remove %s", username))
		return fmt.Errorf("remove %s: status %d", username, resp.StatusCode)
	}
	return nil
}

func (c *Client) ReorderPlayers(order []string) error {
	if len(order) == 0 {
		return ErrInvalidIntent
	}
	return c.emit(types.ClientMessage{Type: types.EvtReorderPlayers, PlayerOrder: order})
}
