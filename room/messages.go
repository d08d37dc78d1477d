package room

import (
	"encoding/json"
	"log/slog"

	"hanamikoji-server/deck"
	"hanamikoji-server/game"
	"hanamikoji-server/wsutil"
)

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func encode(log *slog.Logger, eventType string, payload any) []byte {
	data, err := json.Marshal(envelope{Type: eventType, Payload: payload})
	if err != nil {
		log.Error("encode: marshal failed", "tag", "room", "eventType", eventType, "err", err)
		return nil
	}
	return data
}

type errorPayload struct {
	Message string `json:"message"`
}

type roomCreatedPayload struct {
	RoomID string `json:"roomId"`
	HostID string `json:"hostId"`
}

type playerJoinedPayload struct {
	PlayerID string `json:"playerId"`
}

type playerLeftPayload struct {
	PlayerID string `json:"playerId"`
}

type orderDecisionStartPayload struct{}

type orderDecisionResultPayload struct {
	Order []string `json:"order"`
}

type orderConfirmationUpdatePayload struct {
	Confirmed map[string]bool `json:"confirmed"`
}

type readyCheckPayload struct{}

type readyStatusPayload struct {
	Ready map[string]bool `json:"ready"`
}

type dealAnimationPayload struct {
	Steps []game.DealStep `json:"steps"`
}

type cardDrawnPayload struct {
	PlayerID string `json:"playerId"`
	Card     *deck.Card `json:"card,omitempty"`
}

type actionExecutedPayload struct {
	PlayerID string   `json:"playerId"`
	Type     string   `json:"actionType"`
	CardIDs  []string `json:"cardIds"`
}

type pendingInteractionPayload struct {
	*game.PendingInteractionView
}

type interactionResolvedPayload struct {
	Kind string `json:"kind"`
}

type roundCompletePayload struct {
	Round int `json:"round"`
}

type gameEndedPayload struct {
	Winner string `json:"winner"`
}

type rematchRequestedPayload struct {
	PlayerID string `json:"playerId"`
}

// sendTo delivers a pre-encoded frame to a single seat's connection, if
// attached, without blocking the room's serialized loop.
func (r *Room) sendTo(playerID string, data []byte) {
	if data == nil {
		return
	}
	p, ok := r.State.Players[playerID]
	if !ok || p.Send == nil {
		return
	}
	wsutil.SafeSend(p.Send, data)
}

// broadcastState sends every seated player (and any spectating observer
// slots, of which there are none in this design) their own sanitized
// GAME_STATE_UPDATED frame. Besides this, only the reconnect path in
// handleSeatAttach emits state, to the reconnecting seat alone; both build
// the frame with game.BuildViewForPlayer.
func (r *Room) broadcastState() {
	for id := range r.State.Players {
		view := game.BuildViewForPlayer(r.State, id)
		r.sendTo(id, encode(r.Log, "GAME_STATE_UPDATED", view))
	}
}

func (r *Room) broadcastAll(eventType string, payload any) {
	data := encode(r.Log, eventType, payload)
	for id := range r.State.Players {
		r.sendTo(id, data)
	}
}

func (r *Room) sendError(playerID, message string) {
	r.sendTo(playerID, encode(r.Log, "ERROR", errorPayload{Message: message}))
}
