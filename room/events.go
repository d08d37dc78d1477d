package room

import "hanamikoji-server/game"

// EventType tags the kind of Event flowing through a Room's serialized mailbox.
type EventType string

const (
	EventSeatAttach     EventType = "seat_attach"
	EventConfirmOrder   EventType = "confirm_order"
	EventReadyConfirm   EventType = "ready_confirm"
	EventGameAction     EventType = "game_action"
	EventRematchRequest EventType = "rematch_request"
	EventLeaveRoom      EventType = "leave_room"
	EventDisconnect     EventType = "disconnect"

	// Internal, timer-driven re-entries into the mailbox.
	EventRevealOrder  EventType = "reveal_order"
	EventRoundAdvance EventType = "round_advance"
)

// Event is one inbound mutation request or timer callback for a Room.
type Event struct {
	Type     EventType
	PlayerID string

	// EventSeatAttach
	Send   chan []byte
	IsAI   bool
	AITier string
	IsHost bool

	// EventGameAction
	Action game.ActionInput
}
