package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"hanamikoji-server/config"
	"hanamikoji-server/loghandler"
	"hanamikoji-server/room"
	"hanamikoji-server/ws"
)

func integrationConfig() *config.Config {
	cfg := config.Defaults()
	cfg.OrderDecisionGraceMS = 10
	cfg.OrderDecisionRevealDelayMS = 10
	cfg.RoundAdvanceDelayMS = 10
	for name, tier := range cfg.AITiers {
		tier.ThinkDelayMS = 10
		cfg.AITiers[name] = tier
	}
	return cfg
}

func setupIntegrationServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := integrationConfig()
	log := slog.New(loghandler.NewCompactHandler(io.Discard, slog.LevelError))
	reg := room.NewRegistry(cfg, log, nil)
	hub := ws.NewHub(cfg, reg, log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

type frame struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func recv(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return f
}

// recvUntil reads frames until one of the given types is seen, failing the
// test if none arrives before the deadline. Returns the matching frame.
func recvUntil(t *testing.T, conn *websocket.Conn, types ...string) frame {
	t.Helper()
	want := make(map[string]bool, len(types))
	for _, ty := range types {
		want[ty] = true
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		f := recv(t, conn)
		if want[f.Type] {
			return f
		}
	}
	t.Fatalf("timed out waiting for one of %v", types)
	return frame{}
}

func TestIntegrationCreateJoinAndPlayFirstTurn(t *testing.T) {
	server := setupIntegrationServer(t)

	host := dial(t, server)
	defer host.Close()
	guest := dial(t, server)
	defer guest.Close()

	send(t, host, map[string]any{"type": "CREATE_ROOM", "playerId": "alice"})
	created := recv(t, host)
	if created.Type != "ROOM_CREATED" {
		t.Fatalf("expected ROOM_CREATED, got %v", created)
	}
	roomID, _ := created.Payload["roomId"].(string)
	if roomID == "" {
		t.Fatal("expected a non-empty roomId")
	}
	recvUntil(t, host, "PLAYER_JOINED")

	send(t, guest, map[string]any{"type": "JOIN_ROOM", "roomId": roomID, "playerId": "bob"})
	recvUntil(t, guest, "ORDER_DECISION_START")
	recvUntil(t, host, "ORDER_DECISION_RESULT")
	recvUntil(t, guest, "ORDER_DECISION_RESULT")

	send(t, host, map[string]any{"type": "CONFIRM_ORDER"})
	send(t, guest, map[string]any{"type": "CONFIRM_ORDER"})
	recvUntil(t, host, "READY_CHECK")
	recvUntil(t, guest, "READY_CHECK")

	send(t, host, map[string]any{"type": "READY_CONFIRM"})
	send(t, guest, map[string]any{"type": "READY_CONFIRM"})
	recvUntil(t, host, "GAME_STARTED")
	recvUntil(t, guest, "GAME_STARTED")

	stateHost := recvUntil(t, host, "GAME_STATE_UPDATED")
	stateGuest := recvUntil(t, guest, "GAME_STATE_UPDATED")

	currentTurn, _ := stateHost.Payload["currentTurn"].(string)
	if currentTurn == "" {
		t.Fatal("expected a currentTurn seat after dealing")
	}

	var actor *websocket.Conn
	var actorState frame
	if currentTurn == "alice" {
		actor, actorState = host, stateHost
	} else {
		actor, actorState = guest, stateGuest
	}

	players, _ := actorState.Payload["players"].(map[string]any)
	me, _ := players[currentTurn].(map[string]any)
	hand, _ := me["hand"].([]any)
	if len(hand) == 0 {
		t.Fatal("expected the current turn's own hand to be visible")
	}
	firstCard, _ := hand[0].(map[string]any)
	cardID, _ := firstCard["id"].(string)
	if cardID == "" {
		t.Fatal("expected a real card id in the current turn's own hand")
	}

	send(t, actor, map[string]any{
		"type":     "GAME_ACTION",
		"playerId": currentTurn,
		"action": map[string]any{
			"type":    "PLAY_SECRET",
			"payload": map[string]any{"cardId": cardID},
		},
	})
	executed := recvUntil(t, actor, "ACTION_EXECUTED")
	if executed.Payload["playerId"] != currentTurn {
		t.Errorf("expected ACTION_EXECUTED for %q, got %v", currentTurn, executed.Payload["playerId"])
	}
}

func TestIntegrationJoinUnknownRoomReturnsError(t *testing.T) {
	server := setupIntegrationServer(t)
	conn := dial(t, server)
	defer conn.Close()

	send(t, conn, map[string]any{"type": "JOIN_ROOM", "roomId": "ZZZZZZ", "playerId": "alice"})
	f := recv(t, conn)
	if f.Type != "ERROR" {
		t.Fatalf("expected ERROR for an unknown room, got %v", f)
	}
}

func TestIntegrationUnknownMessageTypeReturnsError(t *testing.T) {
	server := setupIntegrationServer(t)
	conn := dial(t, server)
	defer conn.Close()

	send(t, conn, map[string]any{"type": "not_a_real_message"})
	f := recv(t, conn)
	if f.Type != "ERROR" {
		t.Fatalf("expected ERROR for an unrecognized message type, got %v", f)
	}
}

func TestIntegrationGameActionBeforeJoiningReturnsError(t *testing.T) {
	server := setupIntegrationServer(t)
	conn := dial(t, server)
	defer conn.Close()

	send(t, conn, map[string]any{
		"type": "GAME_ACTION",
		"action": map[string]any{
			"type":    "PLAY_SECRET",
			"payload": map[string]any{"cardId": "whatever"},
		},
	})
	f := recv(t, conn)
	if f.Type != "ERROR" {
		t.Fatalf("expected ERROR for a game action sent outside any room, got %v", f)
	}
}

func TestIntegrationHealthEndpoint(t *testing.T) {
	cfg := integrationConfig()
	log := slog.New(loghandler.NewCompactHandler(io.Discard, slog.LevelError))
	reg := room.NewRegistry(cfg, log, nil)
	hub := ws.NewHub(cfg, reg, log)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/health", healthHandler(cfg))
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status=ok, got %v", body["status"])
	}
}
