package game

import (
	"log/slog"

	"hanamikoji-server/deck"
)

func hasUnusedToken(p *Player) bool {
	for _, used := range p.Tokens {
		if !used {
			return true
		}
	}
	return false
}

func indexOf(seating []string, id string) int {
	for i, s := range seating {
		if s == id {
			return i
		}
	}
	return -1
}

// nextSeatWithToken walks the seating order starting after fromID and
// returns the first seat (possibly fromID itself, on wraparound) that still
// has an unused token. Returns "" if no seat qualifies.
func nextSeatWithToken(s *State, fromID string) string {
	idx := indexOf(s.Seating, fromID)
	n := len(s.Seating)
	if idx == -1 || n == 0 {
		return ""
	}
	for step := 1; step <= n; step++ {
		cand := s.Seating[(idx+step)%n]
		if hasUnusedToken(s.Players[cand]) {
			return cand
		}
	}
	return ""
}

// AdvanceTurn is called after any mutating action that is not a
// pending-open (a RESOLVE_*, PLAY_SECRET, or PLAY_TRADE_OFF). It hands the
// turn to the next seat with an unused token, or enters round resolution if
// none remain. It returns the card drawn for the new turn holder, if any, so
// the room controller can emit a masked CARD_DRAWN event.
func AdvanceTurn(s *State) *DealStep {
	next := nextSeatWithToken(s, s.CurrentTurn)
	if next == "" {
		ResolveRound(s)
		return nil
	}
	s.CurrentTurn = next
	return beginTurn(s)
}

// StartFirstTurn sets the current turn to starterID and begins it, used once
// per round right after PrepareRoundState (first round once the ready check
// completes, later rounds after the round-advance delay).
func StartFirstTurn(s *State, starterID string) *DealStep {
	s.CurrentTurn = starterID
	return beginTurn(s)
}

func beginTurn(s *State) *DealStep {
	p, ok := s.Players[s.CurrentTurn]
	if !ok || !hasUnusedToken(p) {
		return AdvanceTurn(s)
	}

	s.Phase = PhasePlaying
	s.PendingInteraction = nil

	if len(s.DrawPile) == 0 {
		return nil
	}
	card := s.DrawPile[0]
	s.DrawPile = s.DrawPile[1:]
	p.Hand = append(p.Hand, card)
	return &DealStep{PlayerID: s.CurrentTurn, Card: card}
}

func countByGeisha(p *Player, geishaID int) int {
	n := 0
	for _, c := range p.PlayedCards {
		if c.GeishaID == geishaID {
			n++
		}
	}
	return n
}

// decideByThreshold reports the winner of a single charm-or-token threshold
// check between two players. reached is true if at least one player met the
// threshold (even if the comparison itself produced no winner on a tie).
func decideByThreshold(aVal, bVal int, aID, bID string, threshold int) (winner string, reached bool) {
	aOK := aVal >= threshold
	bOK := bVal >= threshold
	if !aOK && !bOK {
		return "", false
	}
	if aOK && bOK {
		if aVal > bVal {
			return aID, true
		}
		if bVal > aVal {
			return bID, true
		}
		return "", true
	}
	if aOK {
		return aID, true
	}
	return bID, true
}

// ResolveRound runs round resolution: secret cards are revealed, geisha
// control is recomputed, scores are recomputed, and a winner is determined
// if either threshold is met. It reports whether the game ended.
func ResolveRound(s *State) (ended bool) {
	s.Phase = PhaseResolution

	for _, p := range s.Players {
		p.PlayedCards = append(p.PlayedCards, p.SecretCards...)
		p.SecretCards = []deck.Card{}
	}

	if len(s.Seating) != 2 {
		return false
	}
	a := s.Players[s.Seating[0]]
	b := s.Players[s.Seating[1]]

	for i := range s.Geishas {
		g := &s.Geishas[i]
		aCount := countByGeisha(a, g.ID)
		bCount := countByGeisha(b, g.ID)
		if aCount > bCount {
			g.ControlledBy = a.ID
		} else if bCount > aCount {
			g.ControlledBy = b.ID
		}
		// tie: controlledBy unchanged, it carries over from a prior round
	}

	computeScore := func(p *Player) Score {
		var sc Score
		for _, g := range s.Geishas {
			if g.ControlledBy == p.ID {
				sc.Tokens++
				sc.Charm += g.Charm
			}
		}
		return sc
	}
	a.Score = computeScore(a)
	b.Score = computeScore(b)

	winner, charmReached := decideByThreshold(a.Score.Charm, b.Score.Charm, a.ID, b.ID, 11)
	if winner == "" && !charmReached {
		winner, _ = decideByThreshold(a.Score.Tokens, b.Score.Tokens, a.ID, b.ID, 4)
	}

	if winner != "" {
		s.Phase = PhaseEnded
		s.Winner = winner
		return true
	}
	return false
}

// PrepareRoundState rebuilds geisha control carry-over, rebuilds the deck,
// resets both players, and deals 6 cards alternately to each seat in
// orderedPlayerIds, recording a DealStep per card. The remainder becomes the
// new draw pile. Invariant violations are logged (a server bug, not a player
// error) and play continues.
func PrepareRoundState(log *slog.Logger, geishaSetKey string, baseGeishas [7]deck.Geisha, s *State, orderedPlayerIds []string, roundNumber int) {
	merged := deck.CarryControl(baseGeishas, s.Geishas)

	drawPile, removed, err := deck.BuildDeck(merged)
	if err != nil {
		log.Error("prepareRoundState: build deck failed", "tag", "game", "err", err)
		return
	}

	for _, id := range orderedPlayerIds {
		if p, ok := s.Players[id]; ok {
			p.ResetForRound()
		}
	}

	s.DealSequence = s.DealSequence[:0]
	cursor := 0
	for dealt := 0; dealt < 6; dealt++ {
		for _, id := range orderedPlayerIds {
			p := s.Players[id]
			card := drawPile[cursor]
			cursor++
			p.Hand = append(p.Hand, card)
			s.DealSequence = append(s.DealSequence, DealStep{PlayerID: id, Card: card})
		}
	}

	s.Geishas = merged
	s.RemovedCard = &removed
	s.DrawPile = drawPile[cursor:]
	s.Round = roundNumber
	s.LastRoundStarterID = orderedPlayerIds[0]
	s.Seating = orderedPlayerIds
	s.Phase = PhasePlaying
	s.PendingInteraction = nil
	s.Winner = ""

	validateRoundSetup(log, s)
}

func validateRoundSetup(log *slog.Logger, s *State) {
	seen := make(map[string]bool)
	total := 0
	addAll := func(cards []deck.Card) {
		for _, c := range cards {
			total++
			if seen[c.ID] {
				log.Error("validateRoundSetup: duplicate card id", "tag", "game", "cardId", c.ID)
			}
			seen[c.ID] = true
		}
	}
	for _, id := range s.Seating {
		p := s.Players[id]
		if len(p.Hand) != 6 {
			log.Error("validateRoundSetup: wrong hand size", "tag", "game", "playerId", id, "size", len(p.Hand))
		}
		addAll(p.Hand)
		addAll(p.PlayedCards)
		addAll(p.SecretCards)
		addAll(p.DiscardedCards)
	}
	addAll(s.DrawPile)
	if len(s.DrawPile) != 8 {
		log.Error("validateRoundSetup: wrong draw pile size", "tag", "game", "size", len(s.DrawPile))
	}
	if s.RemovedCard == nil {
		log.Error("validateRoundSetup: removed card not set", "tag", "game")
	} else {
		total++
		if seen[s.RemovedCard.ID] {
			log.Error("validateRoundSetup: removed card id duplicated", "tag", "game", "cardId", s.RemovedCard.ID)
		}
	}
	if total != 21 {
		log.Error("validateRoundSetup: wrong total card count", "tag", "game", "total", total)
	}
}
