package ws

import "encoding/json"

// envelope matches the {type, payload} shape every room-originated frame
// uses, so a client sees the same wire format whether a message came from
// its own connection handler or from the room it joined.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func encode(eventType string, payload any) []byte {
	data, _ := json.Marshal(envelope{Type: eventType, Payload: payload})
	return data
}

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload so the
// per-type handler can decode it into its own struct.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON captures the raw payload alongside the routing type.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// CreateRoomMsg starts a new room with the sender as host. Mode selects
// between a two-human room ("online") and one with an AI seat ("npc"), in
// which case AIDifficulty names one of config.AITiers' keys.
type CreateRoomMsg struct {
	Type         string `json:"type"`
	PlayerID     string `json:"playerId"`
	GeishaSet    string `json:"geishaSet"`
	Mode         string `json:"mode"`
	AIDifficulty string `json:"aiDifficulty"`
}

// JoinRoomMsg attaches the sender to an existing room, identified by its
// 6-character code. The same message also carries reconnection: sending it
// with a playerId already seated in the room re-attaches that seat.
type JoinRoomMsg struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// ConfirmOrderMsg acknowledges the revealed turn order.
type ConfirmOrderMsg struct {
	Type string `json:"type"`
}

// ReadyConfirmMsg signals the sender is ready for the round to begin.
type ReadyConfirmMsg struct {
	Type string `json:"type"`
}

// GameActionMsg carries one turn or interaction-resolution action. PlayerID
// is parsed but not trusted for authorization — the connection's own
// attached seat (set by CREATE_ROOM/JOIN_ROOM) decides whose turn this is.
type GameActionMsg struct {
	Type     string         `json:"type"`
	PlayerID string         `json:"playerId"`
	Action   actionEnvelope `json:"action"`
}

// actionEnvelope nests the actual rule-engine action, mirroring the wire
// shape: {type, payload} inside {type, playerId, action}.
type actionEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// actionPayload unions every action type's fields; only the ones relevant
// to actionEnvelope.Type need be set.
type actionPayload struct {
	CardID           string       `json:"cardId,omitempty"`
	CardIDs          []string     `json:"cardIds,omitempty"`
	ChosenCardID     string       `json:"chosenCardId,omitempty"`
	ChosenGroupIndex int          `json:"chosenGroupIndex,omitempty"`
	Groups           [2][2]string `json:"groups,omitempty"`
}

// RematchRequestMsg asks to play again with the same seating.
type RematchRequestMsg struct {
	Type string `json:"type"`
}

// LeaveRoomMsg is an explicit, voluntary departure (distinct from a dropped
// connection, which the hub turns into the same detach event on its own).
type LeaveRoomMsg struct {
	Type string `json:"type"`
}

// --- Server-to-Client payloads (wrapped in envelope by encode) ---

// errorPayload is sent when a client message or action is invalid.
type errorPayload struct {
	Message string `json:"message"`
}

// roomCreatedPayload confirms room creation and hands back the join code.
type roomCreatedPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}
