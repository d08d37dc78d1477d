package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
	"hanamikoji-server/config"
	"hanamikoji-server/deck"
	"hanamikoji-server/game"
)

func testView(hand []deck.Card, tokens game.Tokens) *game.StateView {
	geishas := [7]deck.Geisha{}
	for i := range geishas {
		geishas[i] = deck.Geisha{ID: i + 1, Name: "g", Charm: i + 1}
	}
	return &game.StateView{
		Geishas: geishas,
		Players: map[string]*game.PlayerView{
			"ai": {ID: "ai", Hand: hand, Tokens: tokens},
		},
	}
}

func freshTokens() game.Tokens {
	return game.Tokens{
		game.TokenSecret:      false,
		game.TokenTradeOff:    false,
		game.TokenGift:        false,
		game.TokenCompetition: false,
	}
}

func TestDecideTurnRandomPolicyReturnsLegalAction(t *testing.T) {
	hand := []deck.Card{{ID: "c1", GeishaID: 1}, {ID: "c2", GeishaID: 2}}
	view := testView(hand, freshTokens())
	tier := config.AITier{ActionPolicy: "random"}

	action := DecideTurn(view, "ai", tier)
	require.NotEmpty(t, action.Type)
}

func TestDecideTurnHeuristicPrefersHighestCharmSecret(t *testing.T) {
	hand := []deck.Card{{ID: "low", GeishaID: 1}, {ID: "high", GeishaID: 7}}
	tokens := game.Tokens{
		game.TokenSecret:      false,
		game.TokenTradeOff:    true,
		game.TokenGift:        true,
		game.TokenCompetition: true,
	}
	view := testView(hand, tokens)
	tier := config.AITier{ActionPolicy: "heuristic"}

	action := DecideTurn(view, "ai", tier)
	require.Equal(t, game.ActionPlaySecret, action.Type)
	require.Equal(t, "high", action.CardID)
}

func TestDecideResponsePicksHigherCharmGiftCard(t *testing.T) {
	view := testView(nil, freshTokens())
	pi := &game.PendingInteractionView{
		Kind:     game.InteractionGift,
		TargetID: "ai",
		OfferedCards: []deck.Card{
			{ID: "weak", GeishaID: 1},
			{ID: "strong", GeishaID: 6},
		},
	}
	view.PendingInteraction = pi

	action := DecideResponse(view, "ai", config.AITier{ActionPolicy: "heuristic"})
	require.Equal(t, game.ActionResolveGift, action.Type)
	require.Equal(t, "strong", action.ChosenCardID)
}

func TestDecideResponsePicksHigherValueCompetitionGroup(t *testing.T) {
	view := testView(nil, freshTokens())
	pi := &game.PendingInteractionView{
		Kind:     game.InteractionCompetition,
		TargetID: "ai",
		Groups: [2][]deck.Card{
			{{ID: "a", GeishaID: 1}, {ID: "b", GeishaID: 1}},
			{{ID: "c", GeishaID: 6}, {ID: "d", GeishaID: 7}},
		},
	}
	view.PendingInteraction = pi

	action := DecideResponse(view, "ai", config.AITier{ActionPolicy: "heuristic"})
	require.Equal(t, game.ActionResolveCompetition, action.Type)
	require.Equal(t, 1, action.ChosenGroupIndex)
}

func TestDecideResponseIgnoresNonTarget(t *testing.T) {
	view := testView(nil, freshTokens())
	view.PendingInteraction = &game.PendingInteractionView{
		Kind:     game.InteractionGift,
		TargetID: "human",
	}
	action := DecideResponse(view, "ai", config.AITier{ActionPolicy: "heuristic"})
	require.Empty(t, action.Type)
}
