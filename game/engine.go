package game

import (
	"hanamikoji-server/deck"
	"hanamikoji-server/roomerrors"
)

// removeCards extracts the cards matching ids (in that order) from pile,
// returning the extracted cards, the remaining pile, and an error if any id
// is missing, duplicated in the request, or the count mismatches want.
func removeCards(pile []deck.Card, ids []string, want int) ([]deck.Card, []deck.Card, error) {
	if len(ids) != want {
		return nil, pile, roomerrors.ErrWrongCardCount
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, pile, roomerrors.ErrDuplicateCards
		}
		seen[id] = true
	}

	remaining := append([]deck.Card{}, pile...)
	extracted := make([]deck.Card, 0, len(ids))
	for _, id := range ids {
		idx := -1
		for i, c := range remaining {
			if c.ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, pile, roomerrors.ErrCardsNotOwned
		}
		extracted = append(extracted, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return extracted, remaining, nil
}

func canAct(s *State, playerID string, token TokenKind) error {
	if s.Phase != PhasePlaying {
		return roomerrors.ErrPhaseDisallows
	}
	if s.PendingInteraction != nil {
		return roomerrors.ErrInteractionPending
	}
	if s.CurrentTurn != playerID {
		return roomerrors.ErrNotYourTurn
	}
	p, ok := s.Players[playerID]
	if !ok {
		return roomerrors.ErrNotInRoom
	}
	if p.Tokens[token] {
		return roomerrors.ErrTokenUsed
	}
	return nil
}

// PlaySecret moves a card from the actor's hand to their secret pile
// face-down, marks the secret token used, and advances the turn. It returns
// the card drawn for the next turn holder, if any.
func PlaySecret(s *State, playerID, cardID string) (*DealStep, error) {
	if err := canAct(s, playerID, TokenSecret); err != nil {
		return nil, err
	}
	p := s.Players[playerID]

	extracted, remaining, err := removeCards(p.Hand, []string{cardID}, 1)
	if err != nil {
		return nil, err
	}
	p.Hand = remaining
	p.SecretCards = append(p.SecretCards, extracted...)
	p.Tokens[TokenSecret] = true

	return AdvanceTurn(s), nil
}

// PlayTradeOff moves two cards to the actor's discarded pile (excluded from
// scoring), marks the trade-off token used, and advances the turn. On any
// lookup failure, nothing is mutated.
func PlayTradeOff(s *State, playerID string, cardIDs [2]string) (*DealStep, error) {
	if err := canAct(s, playerID, TokenTradeOff); err != nil {
		return nil, err
	}
	p := s.Players[playerID]

	extracted, remaining, err := removeCards(p.Hand, cardIDs[:], 2)
	if err != nil {
		return nil, err
	}
	p.Hand = remaining
	p.DiscardedCards = append(p.DiscardedCards, extracted...)
	p.Tokens[TokenTradeOff] = true

	return AdvanceTurn(s), nil
}

// InitiateGift removes three cards from the actor's hand and opens a
// GiftSelection pending interaction addressed to the opponent. The turn does
// not advance until RESOLVE_GIFT runs.
func InitiateGift(s *State, playerID string, cardIDs [3]string) error {
	if err := canAct(s, playerID, TokenGift); err != nil {
		return err
	}
	target := s.Opponent(playerID)
	if target == "" {
		return roomerrors.ErrNotInRoom
	}
	p := s.Players[playerID]

	extracted, remaining, err := removeCards(p.Hand, cardIDs[:], 3)
	if err != nil {
		return err
	}
	p.Hand = remaining
	p.Tokens[TokenGift] = true
	s.PendingInteraction = &PendingInteraction{
		Kind:         InteractionGift,
		InitiatorID:  playerID,
		TargetID:     target,
		OfferedCards: extracted,
	}
	return nil
}

// ResolveGift assigns the chosen offered card to the target and the other
// two to the initiator, clears the pending interaction, and advances the
// turn.
func ResolveGift(s *State, playerID, chosenCardID string) (*DealStep, error) {
	pi := s.PendingInteraction
	if pi == nil {
		return nil, roomerrors.ErrNoPendingInteraction
	}
	if pi.Kind != InteractionGift {
		return nil, roomerrors.ErrNoPendingInteraction
	}
	if playerID != pi.TargetID {
		return nil, roomerrors.ErrNotTarget
	}

	var chosen *deck.Card
	var rest []deck.Card
	for i, c := range pi.OfferedCards {
		if c.ID == chosenCardID {
			chosen = &pi.OfferedCards[i]
			continue
		}
		rest = append(rest, c)
	}
	if chosen == nil {
		return nil, roomerrors.ErrCardsNotOwned
	}

	target := s.Players[pi.TargetID]
	initiator := s.Players[pi.InitiatorID]
	target.PlayedCards = append(target.PlayedCards, *chosen)
	initiator.PlayedCards = append(initiator.PlayedCards, rest...)

	s.PendingInteraction = nil
	return AdvanceTurn(s), nil
}

// InitiateCompetition removes four cards (two groups of two) from the
// actor's hand and opens a CompetitionSelection pending interaction.
func InitiateCompetition(s *State, playerID string, groups [2][2]string) error {
	if err := canAct(s, playerID, TokenCompetition); err != nil {
		return err
	}
	target := s.Opponent(playerID)
	if target == "" {
		return roomerrors.ErrNotInRoom
	}

	allIDs := []string{groups[0][0], groups[0][1], groups[1][0], groups[1][1]}
	if groups[0][0] == groups[0][1] || groups[1][0] == groups[1][1] {
		return roomerrors.ErrBadGrouping
	}

	p := s.Players[playerID]
	extracted, remaining, err := removeCards(p.Hand, allIDs, 4)
	if err != nil {
		return err
	}
	p.Hand = remaining
	p.Tokens[TokenCompetition] = true

	byID := make(map[string]deck.Card, 4)
	for _, c := range extracted {
		byID[c.ID] = c
	}
	var materialized [2][]deck.Card
	materialized[0] = []deck.Card{byID[groups[0][0]], byID[groups[0][1]]}
	materialized[1] = []deck.Card{byID[groups[1][0]], byID[groups[1][1]]}

	s.PendingInteraction = &PendingInteraction{
		Kind:        InteractionCompetition,
		InitiatorID: playerID,
		TargetID:    target,
		Groups:      materialized,
	}
	return nil
}

// ResolveCompetition assigns the chosen group to the target and the other
// group to the initiator, clears the pending interaction, and advances the
// turn.
func ResolveCompetition(s *State, playerID string, chosenGroupIndex int) (*DealStep, error) {
	pi := s.PendingInteraction
	if pi == nil {
		return nil, roomerrors.ErrNoPendingInteraction
	}
	if pi.Kind != InteractionCompetition {
		return nil, roomerrors.ErrNoPendingInteraction
	}
	if playerID != pi.TargetID {
		return nil, roomerrors.ErrNotTarget
	}
	if chosenGroupIndex != 0 && chosenGroupIndex != 1 {
		return nil, roomerrors.ErrBadGrouping
	}

	otherIndex := 1 - chosenGroupIndex
	target := s.Players[pi.TargetID]
	initiator := s.Players[pi.InitiatorID]
	target.PlayedCards = append(target.PlayedCards, pi.Groups[chosenGroupIndex]...)
	initiator.PlayedCards = append(initiator.PlayedCards, pi.Groups[otherIndex]...)

	s.PendingInteraction = nil
	return AdvanceTurn(s), nil
}
