// Package room implements the Room Controller: one goroutine per room
// owning its game.State as a single-writer domain, modeled on the teacher's
// game.Game.Run actor loop but driving Hanamikoji's turn/round/interaction
// machinery instead of a memory board.
package room

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"hanamikoji-server/ai"
	"hanamikoji-server/config"
	"hanamikoji-server/deck"
	"hanamikoji-server/game"
	"hanamikoji-server/roomerrors"
	"hanamikoji-server/snapshot"
)

// Room owns one game's mutable state and serializes all mutation through
// Actions. Every other package talks to a Room only by sending Events.
type Room struct {
	ID           string
	HostID       string
	GeishaSetKey string
	Cfg          *config.Config
	Log          *slog.Logger
	Store        snapshot.Store

	State *game.State

	Actions chan Event
	Done    chan struct{}
	stopOne sync.Once

	pendingNextRound int
	pendingNextOrder []string
}

// NewRoom allocates a room in the waiting phase with no seats filled.
func NewRoom(id, hostID string, cfg *config.Config, geishaSetKey string, log *slog.Logger, store snapshot.Store) *Room {
	return &Room{
		ID:           id,
		HostID:       hostID,
		GeishaSetKey: geishaSetKey,
		Cfg:          cfg,
		Log:          log,
		Store:        store,
		State:        game.NewState(geishaSetKey),
		Actions:      make(chan Event, 32),
		Done:         make(chan struct{}),
	}
}

// Stop closes the room's Done channel, causing Run and every timed
// goroutine selecting on it to exit. Idempotent.
func (r *Room) Stop() {
	r.stopOne.Do(func() {
		close(r.Done)
	})
}

// Run is the room's single-writer loop. It must be started as its own
// goroutine and is the only goroutine that may mutate r.State.
func (r *Room) Run() {
	for {
		select {
		case <-r.Done:
			return
		case ev, ok := <-r.Actions:
			if !ok {
				return
			}
			r.handle(ev)
		}
	}
}

func (r *Room) handle(ev Event) {
	switch ev.Type {
	case EventSeatAttach:
		r.handleSeatAttach(ev)
	case EventConfirmOrder:
		r.handleConfirmOrder(ev.PlayerID)
	case EventReadyConfirm:
		r.handleReadyConfirm(ev.PlayerID)
	case EventGameAction:
		r.handleGameAction(ev.PlayerID, ev.Action)
	case EventRematchRequest:
		r.handleRematchRequest(ev.PlayerID)
	case EventLeaveRoom, EventDisconnect:
		r.handleDetach(ev.PlayerID)
	case EventRevealOrder:
		r.handleRevealOrder()
	case EventRoundAdvance:
		r.handleRoundAdvance()
	}
}

// scheduleAfter sleeps delayMs off the room's goroutine, then re-enters the
// serialized mailbox with the given event — never holding the room's state
// while waiting, per the suspension-point rule.
func (r *Room) scheduleAfter(delayMs int, ev Event) {
	go func() {
		timer := time.NewTimer(time.Duration(delayMs) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-timer.C:
			select {
			case r.Actions <- ev:
			case <-r.Done:
			}
		case <-r.Done:
		}
	}()
}

func (r *Room) handleSeatAttach(ev Event) {
	p, existed := r.State.Players[ev.PlayerID]
	if !existed {
		p = game.NewPlayer(ev.PlayerID, ev.PlayerID, ev.IsAI, ev.AITier)
		r.State.Players[ev.PlayerID] = p
		r.State.Seating = append(r.State.Seating, ev.PlayerID)
	}
	p.Send = ev.Send
	p.Connected = true

	if !existed {
		r.broadcastAll("PLAYER_JOINED", playerJoinedPayload{PlayerID: ev.PlayerID})
	} else {
		// Reconnect: the seat's new connection gets the current sanitized
		// state immediately; pending interactions, if any, are unaffected.
		view := game.BuildViewForPlayer(r.State, ev.PlayerID)
		r.sendTo(ev.PlayerID, encode(r.Log, "GAME_STATE_UPDATED", view))
	}

	r.persist()

	if len(r.State.Seating) == 2 && r.State.Phase == game.PhaseWaiting {
		r.scheduleAfter(r.Cfg.OrderDecisionGraceMS, Event{Type: EventRevealOrder, PlayerID: ""})
		game.StartOrderDecision(r.State)
		r.broadcastAll("ORDER_DECISION_START", orderDecisionStartPayload{})
	}
}

func (r *Room) handleRevealOrder() {
	order, err := game.RevealOrder(r.State)
	if err != nil {
		r.Log.Error("revealOrder failed", "tag", "room", "room", r.ID, "err", err)
		return
	}
	r.broadcastAll("ORDER_DECISION_RESULT", orderDecisionResultPayload{Order: order})
	for _, id := range order {
		if p := r.State.Players[id]; p != nil && p.IsAI {
			r.scheduleAfter(r.Cfg.AITiers[p.AITier].ThinkDelayMS, Event{Type: EventConfirmOrder, PlayerID: id})
		}
	}
}

func (r *Room) handleConfirmOrder(playerID string) {
	bothConfirmed, err := game.ConfirmOrder(r.State, playerID)
	if err != nil {
		r.sendError(playerID, err.Error())
		return
	}
	r.broadcastAll("ORDER_CONFIRMATION_UPDATE", orderConfirmationUpdatePayload{Confirmed: r.State.OrderDecision.Confirmed})
	if bothConfirmed {
		game.StartReadyCheck(r.State)
		r.broadcastAll("READY_CHECK", readyCheckPayload{})
		for _, id := range r.State.Seating {
			if p := r.State.Players[id]; p.IsAI {
				r.scheduleAfter(r.Cfg.AITiers[p.AITier].ThinkDelayMS, Event{Type: EventReadyConfirm, PlayerID: id})
			}
		}
	}
}

func (r *Room) handleReadyConfirm(playerID string) {
	bothReady, err := game.ConfirmReady(r.State, playerID)
	if err != nil {
		r.sendError(playerID, err.Error())
		return
	}
	r.broadcastAll("READY_STATUS", readyStatusPayload{Ready: r.State.ReadyConfirmations})
	if bothReady {
		r.startGame(1, r.State.OrderDecision.Order)
	}
}

func (r *Room) startGame(roundNumber int, order []string) {
	base := deck.BuildBaseGeishas(r.Cfg, r.GeishaSetKey)
	game.PrepareRoundState(r.Log, r.GeishaSetKey, base, r.State, order, roundNumber)
	r.broadcastAll("GAME_STARTED", struct{}{})
	r.broadcastDealSequence()

	drawn := game.StartFirstTurn(r.State, order[0])
	r.broadcastDrawn(drawn)
	r.persist()
	r.broadcastState()
	r.maybeScheduleAIMove()
}

func (r *Room) broadcastDealSequence() {
	for id := range r.State.Players {
		steps := make([]game.DealStep, len(r.State.DealSequence))
		for i, step := range r.State.DealSequence {
			steps[i] = game.MaskDealStep(step, id)
		}
		r.sendTo(id, encode(r.Log, "DEAL_ANIMATION", dealAnimationPayload{Steps: steps}))
	}
}

func (r *Room) broadcastDrawn(step *game.DealStep) {
	if step == nil {
		return
	}
	for id := range r.State.Players {
		payload := cardDrawnPayload{PlayerID: step.PlayerID}
		if id == step.PlayerID {
			c := step.Card
			payload.Card = &c
		}
		r.sendTo(id, encode(r.Log, "CARD_DRAWN", payload))
	}
}

func (r *Room) handleGameAction(playerID string, action game.ActionInput) {
	var drawn *game.DealStep
	var err error

	switch action.Type {
	case game.ActionPlaySecret:
		drawn, err = game.PlaySecret(r.State, playerID, action.CardID)
	case game.ActionPlayTradeOff:
		if len(action.CardIDs) != 2 {
			err = roomerrors.ErrWrongCardCount
		} else {
			drawn, err = game.PlayTradeOff(r.State, playerID, [2]string{action.CardIDs[0], action.CardIDs[1]})
		}
	case game.ActionInitiateGift:
		if len(action.CardIDs) != 3 {
			err = roomerrors.ErrWrongCardCount
		} else {
			err = game.InitiateGift(r.State, playerID, [3]string{action.CardIDs[0], action.CardIDs[1], action.CardIDs[2]})
		}
	case game.ActionResolveGift:
		drawn, err = game.ResolveGift(r.State, playerID, action.ChosenCardID)
	case game.ActionInitiateCompetition:
		err = game.InitiateCompetition(r.State, playerID, action.Groups)
	case game.ActionResolveCompetition:
		drawn, err = game.ResolveCompetition(r.State, playerID, action.ChosenGroupIndex)
	default:
		err = roomerrors.ErrUnknownAction
	}

	if err != nil {
		r.sendError(playerID, err.Error())
		return
	}

	switch action.Type {
	case game.ActionPlaySecret:
		r.broadcastAll("ACTION_EXECUTED", actionExecutedPayload{PlayerID: playerID, Type: action.Type, CardIDs: []string{action.CardID}})
	case game.ActionPlayTradeOff:
		r.broadcastAll("ACTION_EXECUTED", actionExecutedPayload{PlayerID: playerID, Type: action.Type, CardIDs: action.CardIDs})
	case game.ActionInitiateGift, game.ActionInitiateCompetition:
		r.broadcastPendingInteraction()
	case game.ActionResolveGift, game.ActionResolveCompetition:
		r.broadcastAll("INTERACTION_RESOLVED", interactionResolvedPayload{Kind: action.Type})
	}

	r.broadcastDrawn(drawn)
	r.persist()
	r.broadcastState()

	switch r.State.Phase {
	case game.PhaseResolution:
		r.handleRoundResolved()
	case game.PhaseEnded:
		r.broadcastAll("GAME_ENDED", gameEndedPayload{Winner: r.State.Winner})
	default:
		r.maybeScheduleAIMove()
	}
}

func (r *Room) broadcastPendingInteraction() {
	pi := r.State.PendingInteraction
	if pi == nil {
		return
	}
	for id := range r.State.Players {
		view := game.BuildViewForPlayer(r.State, id)
		r.sendTo(id, encode(r.Log, "PENDING_INTERACTION", pendingInteractionPayload{PendingInteractionView: view.PendingInteraction}))
	}
	if target := r.State.Players[pi.TargetID]; target != nil && target.IsAI {
		r.scheduleAIResponse(target.ID, target.AITier)
	}
}

// scheduleAIResponse snapshots the AI's own masked view now (safe: we are
// inside the room goroutine), then off-loads the think delay and decision
// to a separate goroutine that re-enters the mailbox with a fully-formed
// action once it fires.
func (r *Room) scheduleAIResponse(aiID, tierName string) {
	tier := r.Cfg.AITiers[tierName]
	view := game.BuildViewForPlayer(r.State, aiID)
	go func() {
		timer := time.NewTimer(time.Duration(tier.ThinkDelayMS) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-r.Done:
			return
		}
		action := ai.DecideResponse(view, aiID, tier)
		select {
		case r.Actions <- Event{Type: EventGameAction, PlayerID: aiID, Action: action}:
		case <-r.Done:
		}
	}()
}

func (r *Room) scheduleAITurn(aiID, tierName string) {
	tier := r.Cfg.AITiers[tierName]
	view := game.BuildViewForPlayer(r.State, aiID)
	go func() {
		timer := time.NewTimer(time.Duration(tier.ThinkDelayMS) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-r.Done:
			return
		}
		action := ai.DecideTurn(view, aiID, tier)
		select {
		case r.Actions <- Event{Type: EventGameAction, PlayerID: aiID, Action: action}:
		case <-r.Done:
		}
	}()
}

func (r *Room) handleRoundResolved() {
	r.broadcastAll("ROUND_COMPLETE", roundCompletePayload{Round: r.State.Round})
	nextRound := r.State.Round + 1
	nextOrder := []string{r.State.Opponent(r.State.LastRoundStarterID), r.State.LastRoundStarterID}
	r.scheduleAfter(r.Cfg.RoundAdvanceDelayMS, Event{Type: EventRoundAdvance, PlayerID: ""})
	r.pendingNextRound = nextRound
	r.pendingNextOrder = nextOrder
}

func (r *Room) handleRoundAdvance() {
	if r.pendingNextOrder == nil {
		return
	}
	order := r.pendingNextOrder
	round := r.pendingNextRound
	r.pendingNextOrder = nil
	r.startGame(round, order)
}

func (r *Room) handleRematchRequest(playerID string) {
	bothAgreed, err := game.ConfirmRematch(r.State, playerID)
	if err != nil {
		r.sendError(playerID, err.Error())
		return
	}
	r.broadcastAll("REMATCH_REQUESTED", rematchRequestedPayload{PlayerID: playerID})
	if bothAgreed {
		r.State.RematchConfirmations = map[string]bool{}
		r.State.Winner = ""
		game.StartOrderDecision(r.State)
		r.broadcastAll("ORDER_DECISION_START", orderDecisionStartPayload{})
		r.scheduleAfter(r.Cfg.OrderDecisionRevealDelayMS, Event{Type: EventRevealOrder})
	}
}

func (r *Room) handleDetach(playerID string) {
	p, ok := r.State.Players[playerID]
	if !ok {
		return
	}
	p.Connected = false
	p.Send = nil
	r.broadcastAll("PLAYER_LEFT", playerLeftPayload{PlayerID: playerID})
}

// IsEmpty reports whether every human seat is detached, meaning only an AI
// (or nobody) remains — the registry's signal to garbage-collect this room.
func (r *Room) IsEmpty() bool {
	for _, p := range r.State.Players {
		if !p.IsAI && p.Connected {
			return false
		}
	}
	return true
}

func (r *Room) persist() {
	if r.Store == nil {
		return
	}
	// Encoding happens here, synchronously: State is only safe to touch from
	// this goroutine. Once it's bytes, the room's mailbox has no further
	// stake in it, so the network write goes on a spawned goroutine instead
	// of blocking the next event behind a Redis round-trip.
	data, err := snapshot.Encode(r.State)
	if err != nil {
		r.Log.Warn("snapshot encode failed", "tag", "snapshot", "room", r.ID, "err", err)
		return
	}
	roomID := r.ID
	ttl := time.Duration(r.Cfg.RoomTTLSeconds) * time.Second
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.Store.SaveRoom(ctx, roomID, data, ttl); err != nil {
			r.Log.Warn("snapshot save failed", "tag", "snapshot", "room", roomID, "err", err)
		}
	}()
}

func (r *Room) maybeScheduleAIMove() {
	if r.State.Phase != game.PhasePlaying || r.State.PendingInteraction != nil {
		return
	}
	p := r.State.Players[r.State.CurrentTurn]
	if p == nil || !p.IsAI {
		return
	}
	r.scheduleAITurn(p.ID, p.AITier)
}
