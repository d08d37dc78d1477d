// Package roomerrors holds sentinel errors shared by the game and room
// packages, kept separate so callers can compare errors without importing
// the rule engine's internals.
package roomerrors

import "errors"

// Room errors.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrNotInRoom    = errors.New("player not in room")
)

// Turn errors.
var (
	ErrNotYourTurn     = errors.New("not your turn")
	ErrTokenUsed       = errors.New("action token already used")
	ErrPhaseDisallows  = errors.New("current phase disallows this action")
)

// Interaction errors.
var (
	ErrInteractionPending   = errors.New("a pending interaction blocks this action")
	ErrNotTarget            = errors.New("only the target may resolve this interaction")
	ErrNoPendingInteraction = errors.New("no interaction to resolve")
)

// Card errors.
var (
	ErrCardsNotOwned  = errors.New("one or more cards are not owned by the player")
	ErrDuplicateCards = errors.New("duplicate card ids in selection")
	ErrWrongCardCount = errors.New("wrong number of cards for this action")
	ErrBadGrouping    = errors.New("groups must be exactly two pairs of two distinct cards")
)

// Protocol errors.
var (
	ErrMalformedFrame  = errors.New("malformed frame")
	ErrMissingField    = errors.New("missing required payload field")
	ErrUnknownAction   = errors.New("unknown action type")
)
