package game

import "hanamikoji-server/deck"

// PlayerView is the projection of one seat as seen by a particular viewer.
// For the viewer's own seat every field is the real pile; for the opponent's
// seat, Hand and DiscardedCards are length-preserving placeholders and
// SecretCards is emptied entirely (not even its count is revealed).
type PlayerView struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Hand           []deck.Card `json:"hand"`
	PlayedCards    []deck.Card `json:"playedCards"`
	SecretCards    []deck.Card `json:"secretCards"`
	DiscardedCards []deck.Card `json:"discardedCards"`
	Tokens         Tokens      `json:"tokens"`
	Score          Score       `json:"score"`
	IsAI           bool        `json:"isAi"`
	Connected      bool        `json:"connected"`
}

// StateView is the sanitized, per-viewer projection of a State. It never
// carries DrawPile or RemovedCard, and is the only type the room may hand to
// the outbound encoder for a GAME_STATE_UPDATED frame.
type StateView struct {
	Phase                Phase                  `json:"phase"`
	Geishas              [7]deck.Geisha         `json:"geishas"`
	Seating              []string               `json:"seating"`
	Players              map[string]*PlayerView `json:"players"`
	CurrentTurn          string                 `json:"currentTurn,omitempty"`
	Round                int                    `json:"round"`
	PendingInteraction   *PendingInteractionView `json:"pendingInteraction,omitempty"`
	OrderDecision        OrderDecisionState     `json:"orderDecision"`
	ReadyConfirmations   map[string]bool        `json:"readyConfirmations,omitempty"`
	RematchConfirmations map[string]bool        `json:"rematchConfirmations,omitempty"`
	Winner               string                 `json:"winner,omitempty"`
}

// PendingInteractionView mirrors PendingInteraction but only reveals
// OfferedCards/Groups contents to the target; everyone else sees the shape
// (kind, who's involved) with the card payload stripped.
type PendingInteractionView struct {
	Kind         InteractionKind `json:"kind"`
	InitiatorID  string          `json:"initiatorId"`
	TargetID     string          `json:"targetId"`
	OfferedCards []deck.Card     `json:"offeredCards,omitempty"`
	Groups       [2][]deck.Card  `json:"groups,omitempty"`
}

func placeholders(n int) []deck.Card {
	out := make([]deck.Card, n)
	for i := range out {
		out[i] = deck.Card{}
	}
	return out
}

// BuildViewForPlayer projects the canonical State into the sanitized view a
// given viewer is permitted to see. viewerID may be "" (an observer with no
// seat; the returned players are fully masked).
func BuildViewForPlayer(s *State, viewerID string) *StateView {
	players := make(map[string]*PlayerView, len(s.Players))
	for id, p := range s.Players {
		if id == viewerID {
			players[id] = &PlayerView{
				ID:             p.ID,
				Name:           p.Name,
				Hand:           append([]deck.Card{}, p.Hand...),
				PlayedCards:    append([]deck.Card{}, p.PlayedCards...),
				SecretCards:    append([]deck.Card{}, p.SecretCards...),
				DiscardedCards: append([]deck.Card{}, p.DiscardedCards...),
				Tokens:         p.Tokens,
				Score:          p.Score,
				IsAI:           p.IsAI,
				Connected:      p.Connected,
			}
			continue
		}
		players[id] = &PlayerView{
			ID:             p.ID,
			Name:           p.Name,
			Hand:           placeholders(len(p.Hand)),
			PlayedCards:    append([]deck.Card{}, p.PlayedCards...),
			SecretCards:    []deck.Card{},
			DiscardedCards: placeholders(len(p.DiscardedCards)),
			Tokens:         p.Tokens,
			Score:          p.Score,
			IsAI:           p.IsAI,
			Connected:      p.Connected,
		}
	}

	view := &StateView{
		Phase:                s.Phase,
		Geishas:              s.Geishas,
		Seating:              s.Seating,
		Players:              players,
		CurrentTurn:          s.CurrentTurn,
		Round:                s.Round,
		OrderDecision:        s.OrderDecision,
		ReadyConfirmations:   s.ReadyConfirmations,
		RematchConfirmations: s.RematchConfirmations,
		Winner:               s.Winner,
	}

	if s.PendingInteraction != nil {
		pi := s.PendingInteraction
		piView := &PendingInteractionView{
			Kind:        pi.Kind,
			InitiatorID: pi.InitiatorID,
			TargetID:    pi.TargetID,
		}
		if viewerID == pi.TargetID {
			piView.OfferedCards = pi.OfferedCards
			piView.Groups = pi.Groups
		}
		view.PendingInteraction = piView
	}

	return view
}

// MaskDealStep projects a single deal step for a viewer: the real card if it
// was dealt to the viewer, an opaque placeholder otherwise.
func MaskDealStep(step DealStep, viewerID string) DealStep {
	if step.PlayerID == viewerID {
		return step
	}
	return DealStep{PlayerID: step.PlayerID, Card: deck.Card{}}
}
