package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hegemony-sim/hegemony-server-go/internal/game"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

func nextMessage(t *testing.T, ch <-chan []byte, want string) Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case raw := <-ch:
			var msg Message
			require.NoError(t, json.Unmarshal(raw, &msg))
			if msg.Type == want {
				return msg
			}
		case <-timeout:
			t.Fatalf("no %s message", want)
		}
	}
}

func nextDirect(t *testing.T, h *Hub) Message {
	t.Helper()
	select {
	case out := <-h.direct:
		var msg Message
		require.NoError(t, json.Unmarshal(out.data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no direct message")
	}
	return Message{}
}

type result struct {
	data string
	err  error
}

func request(h *Hub, ctx context.Context, event, role string) <-chan result {
	out := make(chan result, 1)
	go func() {
		in, err := h.Request(ctx, event, role)
		raw, _ := json.Marshal(in)
		out <- result{data: string(raw), err: err}
	}()
	return out
}

func TestRequestRoutesAnswerToRole(t *testing.T) {
	h := NewHub(0, zaptest.NewLogger(t))
	done := request(h, context.Background(), "workingClass:proposeBill", game.RoleWorkingClass)

	req := nextMessage(t, h.broadcast, MsgInputRequest)
	assert.Equal(t, "workingClass:proposeBill", req.Event)
	assert.Equal(t, game.RoleWorkingClass, req.Role)
	assert.NotEmpty(t, req.RequestID)

	bill := json.RawMessage(`{"policy":"education","value":2}`)
	h.handleMessage(&Client{role: game.RoleCapitalist}, Message{Type: MsgInput, RequestID: req.RequestID, Data: bill})
	refused := nextDirect(t, h)
	assert.Equal(t, MsgError, refused.Type)
	assert.Contains(t, refused.Error, "cannot answer")

	worker := &Client{role: game.RoleWorkingClass}
	h.handleMessage(worker, Message{Type: MsgInput, RequestID: "stale", Data: bill})
	assert.Contains(t, nextDirect(t, h).Error, "no pending request")

	h.handleMessage(worker, Message{Type: MsgInput, RequestID: req.RequestID})
	assert.Contains(t, nextDirect(t, h).Error, "no data")

	h.handleMessage(worker, Message{Type: MsgInput, RequestID: req.RequestID, Data: bill})
	res := <-done
	require.NoError(t, res.err)
	assert.JSONEq(t, string(bill), res.data)
}

func TestRequestIsExclusive(t *testing.T) {
	h := NewHub(0, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := request(h, ctx, "game:roleTurn", game.RoleState)
	nextMessage(t, h.broadcast, MsgInputRequest)

	_, err := h.Request(context.Background(), "game:roleTurn", game.RoleState)
	assert.ErrorIs(t, err, ErrRequestPending)

	cancel()
	assert.ErrorIs(t, (<-done).err, context.Canceled)

	// The slot is free again.
	done = request(h, context.Background(), "game:roleTurn", "")
	req := nextMessage(t, h.broadcast, MsgInputRequest)
	h.handleMessage(&Client{role: game.RoleState}, Message{Type: MsgInput, RequestID: req.RequestID, Data: json.RawMessage(`"state:skip"`)})
	assert.NoError(t, (<-done).err)
}

func TestRequestTimeout(t *testing.T) {
	h := NewHub(20*time.Millisecond, zaptest.NewLogger(t))
	_, err := h.Request(context.Background(), "game:roleTurn", game.RoleState)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJoinResendsPendingRequest(t *testing.T) {
	h := NewHub(0, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	request(h, ctx, "game:roleTurn", game.RoleMiddleClass)
	req := nextMessage(t, h.broadcast, MsgInputRequest)

	client := &Client{}
	h.handleMessage(client, Message{Type: MsgJoin, Role: game.RoleMiddleClass})
	assert.Equal(t, game.RoleMiddleClass, client.role)
	assert.Equal(t, MsgJoined, nextDirect(t, h).Type)
	resent := nextDirect(t, h)
	assert.Equal(t, MsgInputRequest, resent.Type)
	assert.Equal(t, req.RequestID, resent.RequestID)

	h.handleMessage(client, Message{Type: "dance"})
	assert.Contains(t, nextDirect(t, h).Error, "unknown message type")
}

func readUntil(t *testing.T, conn *websocket.Conn, want string) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == want {
			return msg
		}
	}
}

func TestWebsocketDrivesTurn(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(5*time.Second, logger)
	go h.Run(ctx)

	g, err := game.New(game.Config{
		Debug:   true,
		Players: []game.Player{{Name: "Alice", Role: game.RoleWorkingClass}},
		Logger:  logger,
	})
	require.NoError(t, err)
	g.SetInputProvider(h.InputProvider(g))
	detach, err := h.Attach(g)
	require.NoError(t, err)
	defer detach()

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Message{Type: MsgJoin, Role: game.RoleWorkingClass}))
	joined := readUntil(t, conn, MsgJoined)
	assert.Equal(t, g.ID(), joined.GameID)
	assert.NotEmpty(t, joined.Data)

	flushed := make(chan error, 1)
	go func() {
		g.Next(rules.FlowStart.Event())
		flushed <- g.Flush(ctx, game.FlushOptions{To: rules.FlowTurnEnd.Event()})
	}()

	for i := 0; i < rules.ActionsPerTurn; i++ {
		req := readUntil(t, conn, MsgInputRequest)
		assert.Equal(t, rules.FlowRoleTurn.Event(), req.Event)
		assert.Equal(t, game.RoleWorkingClass, req.Role)
		require.NoError(t, conn.WriteJSON(Message{
			Type:      MsgInput,
			RequestID: req.RequestID,
			Data:      json.RawMessage(`"workingClass:skip"`),
		}))
	}

	select {
	case err := <-flushed:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("flush did not finish")
	}

	state := readUntil(t, conn, MsgState)
	frame, err := game.DecodeFrame(state.Data)
	require.NoError(t, err)
	assert.Equal(t, 1, frame.Round)
	assert.Equal(t, 1, frame.Turn)
}
