// Package bridge connects a running game to browser clients over websockets.
// Clients receive the state after every tick and answer input requests for
// the role they joined as.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hegemony-sim/hegemony-server-go/internal/game"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/action"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

// Message types.
const (
	MsgJoin         = "join"
	MsgJoined       = "joined"
	MsgInput        = "input"
	MsgInputRequest = "input_request"
	MsgState        = "state"
	MsgTickFailed   = "tick_failed"
	MsgGameEnded    = "game_ended"
	MsgError        = "error"
)

// ErrRequestPending is returned when an input request is made while another
// one is still unanswered.
var ErrRequestPending = errors.New("an input request is already pending")

// Message is the envelope for both directions.
type Message struct {
	Type      string          `json:"type"`
	GameID    string          `json:"gameId,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Event     string          `json:"event,omitempty"`
	Role      string          `json:"role,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	sendBuffer = 256
	writeWait  = 10 * time.Second
)

// Client is one websocket connection.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	role string
}

type outbound struct {
	client *Client
	data   []byte
}

type pendingRequest struct {
	id    string
	event string
	role  string
	reply chan json.RawMessage
}

// Hub fans state out to clients and routes their answers back to the game.
// Only the run loop touches client send channels.
type Hub struct {
	logger     *zap.Logger
	timeout    time.Duration
	clients    map[*Client]bool
	broadcast  chan []byte
	direct     chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu       sync.Mutex
	pending  *pendingRequest
	gameID   string
	lastSeen []byte
}

// NewHub creates a hub. A positive timeout bounds how long Request waits.
func NewHub(timeout time.Duration, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:     logger,
		timeout:    timeout,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, sendBuffer),
		direct:     make(chan outbound, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is done. It must be called once.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("client registered", zap.Int("clients", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug("client unregistered", zap.Int("clients", len(h.clients)))
			}

		case out := <-h.direct:
			if h.clients[out.client] {
				h.deliver(out.client, out.data)
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				h.deliver(client, message)
			}
		}
	}
}

func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		close(client.send)
		delete(h.clients, client)
		h.logger.Warn("dropping slow client", zap.Int("clients", len(h.clients)))
	}
}

func (h *Hub) publish(msg Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encode message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- raw:
	default:
		h.logger.Warn("broadcast buffer full", zap.String("type", msg.Type))
	}
}

func (h *Hub) reply(client *Client, msg Message) {
	raw, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encode message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	select {
	case h.direct <- outbound{client: client, data: raw}:
	default:
		h.logger.Warn("reply buffer full", zap.String("type", msg.Type))
	}
}

// Attach broadcasts the state of g after every tick. The returned function
// detaches the hub.
func (h *Hub) Attach(g *game.Game) (func(), error) {
	snap, err := g.Snapshot()
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.gameID = g.ID()
	h.lastSeen = snap
	h.mu.Unlock()

	onTick := func(e rules.Event) {
		snap, err := g.Snapshot()
		if err != nil {
			h.logger.Error("snapshot for broadcast", zap.Error(err))
			return
		}
		h.mu.Lock()
		h.lastSeen = snap
		h.mu.Unlock()

		h.publish(Message{Type: MsgState, GameID: g.ID(), Data: snap})
		if e.Type == rules.EventTickFailed && e.Err != nil {
			h.publish(Message{Type: MsgTickFailed, GameID: g.ID(), Event: e.ActionType, Role: e.Role, Error: e.Err.Error()})
		}
	}
	handles := []int{
		g.Bus().SubscribeTyped(rules.EventTicked, onTick),
		g.Bus().SubscribeTyped(rules.EventTickFailed, onTick),
		g.Bus().SubscribeTyped(rules.EventGameEnded, func(rules.Event) {
			h.publish(Message{Type: MsgGameEnded, GameID: g.ID()})
		}),
	}
	return func() {
		for _, handle := range handles {
			g.Bus().Unsubscribe(handle)
		}
	}, nil
}

// InputProvider returns a game input provider that asks the client seated as
// the acting role of g.
func (h *Hub) InputProvider(g *game.Game) game.InputProvider {
	return func(ctx context.Context, eventType string) (any, error) {
		return h.Request(ctx, eventType, g.State().CurrentRoleName)
	}
}

// Request sends an input request for eventType to the clients and waits for
// the answer of a client joined as role. Clients that joined without a role
// may answer for anyone.
func (h *Hub) Request(ctx context.Context, eventType, role string) (action.Input, error) {
	req := &pendingRequest{
		id:    uuid.NewString(),
		event: eventType,
		role:  role,
		reply: make(chan json.RawMessage, 1),
	}
	h.mu.Lock()
	if h.pending != nil {
		h.mu.Unlock()
		return action.Input{}, ErrRequestPending
	}
	h.pending = req
	gameID := h.gameID
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.pending = nil
		h.mu.Unlock()
	}()

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	h.publish(Message{Type: MsgInputRequest, GameID: gameID, RequestID: req.id, Event: eventType, Role: role})
	h.logger.Debug("waiting for input", zap.String("event", eventType), zap.String("role", role), zap.String("request_id", req.id))

	select {
	case raw := <-req.reply:
		return action.ParseInput(raw)
	case <-ctx.Done():
		return action.Input{}, fmt.Errorf("input for %s: %w", eventType, ctx.Err())
	}
}

func (h *Hub) handleMessage(client *Client, msg Message) {
	switch msg.Type {
	case MsgJoin:
		client.role = msg.Role
		h.mu.Lock()
		joined := Message{Type: MsgJoined, GameID: h.gameID, Role: client.role, Data: h.lastSeen}
		var resend *Message
		if p := h.pending; p != nil {
			resend = &Message{Type: MsgInputRequest, GameID: h.gameID, RequestID: p.id, Event: p.event, Role: p.role}
		}
		h.mu.Unlock()
		h.reply(client, joined)
		if resend != nil {
			h.reply(client, *resend)
		}

	case MsgInput:
		if err := h.answer(client, msg); err != nil {
			h.logger.Debug("input refused", zap.String("role", client.role), zap.Error(err))
			h.reply(client, Message{Type: MsgError, RequestID: msg.RequestID, Error: err.Error()})
		}

	default:
		h.reply(client, Message{Type: MsgError, Error: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

func (h *Hub) answer(client *Client, msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := h.pending
	if p == nil || p.id != msg.RequestID {
		return fmt.Errorf("no pending request %q", msg.RequestID)
	}
	if client.role != "" && p.role != "" && client.role != p.role {
		return fmt.Errorf("%s cannot answer for %s", client.role, p.role)
	}
	if len(msg.Data) == 0 {
		return errors.New("input has no data")
	}
	select {
	case p.reply <- msg.Data:
		return nil
	default:
		return errors.New("request already answered")
	}
}

// ServeWS upgrades the connection and serves the client until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.reply(c, Message{Type: MsgError, Error: "malformed message"})
			continue
		}
		h.handleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
