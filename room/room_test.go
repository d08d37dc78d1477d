package room

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"hanamikoji-server/config"
	"hanamikoji-server/game"
	"hanamikoji-server/loghandler"
)

func testRoomConfig() *config.Config {
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

func testLogger() *slog.Logger {
	return slog.New(loghandler.NewCompactHandler(io.Discard, slog.LevelError))
}

func newTestRoom() (*Room, chan []byte, chan []byte) {
	cfg := testRoomConfig()
	r := NewRoom("ABC123", "alice", cfg, cfg.DefaultGeishaSet, testLogger(), nil)
	go r.Run()
	return r, make(chan []byte, 64), make(chan []byte, 64)
}

// drain reads every currently-available message off ch without blocking.
func drain(ch chan []byte) []map[string]any {
	var out []map[string]any
	for {
		select {
		case msg := <-ch:
			var env map[string]any
			_ = json.Unmarshal(msg, &env)
			out = append(out, env)
		default:
			return out
		}
	}
}

func waitFor(ch chan []byte, timeout time.Duration) []map[string]any {
	var out []map[string]any
	deadline := time.After(timeout)
	for {
		select {
		case msg := <-ch:
			var env map[string]any
			_ = json.Unmarshal(msg, &env)
			out = append(out, env)
		case <-deadline:
			return out
		}
	}
}

func containsType(msgs []map[string]any, eventType string) bool {
	for _, m := range msgs {
		if m["type"] == eventType {
			return true
		}
	}
	return false
}

func TestSeatAttachBroadcastsPlayerJoined(t *testing.T) {
	r, sendA, sendB := newTestRoom()
	defer r.Stop()

	r.Actions <- Event{Type: EventSeatAttach, PlayerID: "alice", Send: sendA}
	time.Sleep(20 * time.Millisecond)
	drain(sendA)

	r.Actions <- Event{Type: EventSeatAttach, PlayerID: "bob", Send: sendB}
	msgsA := waitFor(sendA, 100*time.Millisecond)

	if !containsType(msgsA, "PLAYER_JOINED") {
		t.Errorf("expected PLAYER_JOINED broadcast to seat alice, got %v", msgsA)
	}
	if !containsType(msgsA, "ORDER_DECISION_START") {
		t.Errorf("expected ORDER_DECISION_START once both seats are filled, got %v", msgsA)
	}
}

func TestOrderDecisionRevealsAfterGrace(t *testing.T) {
	r, sendA, sendB := newTestRoom()
	defer r.Stop()

	r.Actions <- Event{Type: EventSeatAttach, PlayerID: "alice", Send: sendA}
	r.Actions <- Event{Type: EventSeatAttach, PlayerID: "bob", Send: sendB}

	msgsA := waitFor(sendA, 150*time.Millisecond)
	if !containsType(msgsA, "ORDER_DECISION_RESULT") {
		t.Errorf("expected ORDER_DECISION_RESULT after the grace period, got %v", msgsA)
	}
}

func TestFullHandshakeStartsGame(t *testing.T) {
	r, sendA, sendB := newTestRoom()
	defer r.Stop()

	r.Actions <- Event{Type: EventSeatAttach, PlayerID: "alice", Send: sendA}
	r.Actions <- Event{Type: EventSeatAttach, PlayerID: "bob", Send: sendB}
	waitFor(sendA, 150*time.Millisecond)
	drain(sendA)
	drain(sendB)

	r.Actions <- Event{Type: EventConfirmOrder, PlayerID: "alice"}
	r.Actions <- Event{Type: EventConfirmOrder, PlayerID: "bob"}
	msgsA := waitFor(sendA, 100*time.Millisecond)
	if !containsType(msgsA, "READY_CHECK") {
		t.Fatalf("expected READY_CHECK once both seats confirm order, got %v", msgsA)
	}

	r.Actions <- Event{Type: EventReadyConfirm, PlayerID: "alice"}
	r.Actions <- Event{Type: EventReadyConfirm, PlayerID: "bob"}
	msgsA = waitFor(sendA, 150*time.Millisecond)
	if !containsType(msgsA, "GAME_STARTED") {
		t.Fatalf("expected GAME_STARTED once both seats ready up, got %v", msgsA)
	}
	if r.State.Phase != game.PhasePlaying {
		t.Errorf("expected phase playing after handshake, got %v", r.State.Phase)
	}
}

func TestUnknownActionSendsError(t *testing.T) {
	r, sendA, sendB := newTestRoom()
	defer r.Stop()

	r.Actions <- Event{Type: EventSeatAttach, PlayerID: "alice", Send: sendA}
	r.Actions <- Event{Type: EventSeatAttach, PlayerID: "bob", Send: sendB}
	waitFor(sendA, 150*time.Millisecond)
	drain(sendA)
	drain(sendB)

	r.Actions <- Event{Type: EventGameAction, PlayerID: "alice", Action: game.ActionInput{Type: "NOT_A_REAL_ACTION"}}
	msgsA := waitFor(sendA, 100*time.Millisecond)
	if !containsType(msgsA, "ERROR") {
		t.Errorf("expected ERROR for an unrecognized action type, got %v", msgsA)
	}
}

func TestIsEmptyReflectsConnectionState(t *testing.T) {
	r, sendA, _ := newTestRoom()
	defer r.Stop()

	if !r.IsEmpty() {
		t.Fatal("a room with no seated players should be empty")
	}

	r.Actions <- Event{Type: EventSeatAttach, PlayerID: "alice", Send: sendA}
	time.Sleep(20 * time.Millisecond)
	if r.IsEmpty() {
		t.Error("a room with a connected human seat should not be empty")
	}

	r.Actions <- Event{Type: EventDisconnect, PlayerID: "alice"}
	time.Sleep(20 * time.Millisecond)
	if !r.IsEmpty() {
		t.Error("a room whose only human seat disconnected should be empty")
	}
}

func TestReconnectReceivesCurrentState(t *testing.T) {
	r, sendA, sendB := newTestRoom()
	defer r.Stop()

	r.Actions <- Event{Type: EventSeatAttach, PlayerID: "alice", Send: sendA}
	r.Actions <- Event{Type: EventSeatAttach, PlayerID: "bob", Send: sendB}
	time.Sleep(20 * time.Millisecond)
	r.Actions <- Event{Type: EventDisconnect, PlayerID: "alice"}
	time.Sleep(20 * time.Millisecond)
	drain(sendA)

	newSend := make(chan []byte, 64)
	r.Actions <- Event{Type: EventSeatAttach, PlayerID: "alice", Send: newSend}
	msgs := waitFor(newSend, 100*time.Millisecond)
	if !containsType(msgs, "GAME_STATE_UPDATED") {
		t.Errorf("expected a reconnecting seat to receive GAME_STATE_UPDATED, got %v", msgs)
	}
}
