package game

import (
	"testing"

	"github.com/stretchr/testify/require"
	"hanamikoji-server/deck"
)

func TestBuildViewForPlayerHidesOpponentIdentity(t *testing.T) {
	s := newTestState(map[string][]deck.Card{
		"a": {card("c1", 1), card("c2", 2)},
		"b": {card("c3", 3)},
	})
	s.Players["a"].SecretCards = []deck.Card{card("sec1", 4)}
	s.Players["a"].DiscardedCards = []deck.Card{card("d1", 5)}

	view := BuildViewForPlayer(s, "b")

	opp := view.Players["a"]
	require.Len(t, opp.Hand, 2)
	for _, c := range opp.Hand {
		require.Empty(t, c.ID, "opponent hand cards must be opaque placeholders")
		require.Zero(t, c.GeishaID)
	}
	require.Empty(t, opp.SecretCards, "secret card count must not be revealed to the opponent")
	require.Len(t, opp.DiscardedCards, 1)
	require.Empty(t, opp.DiscardedCards[0].ID)

	self := view.Players["b"]
	require.Len(t, self.Hand, 1)
	require.Equal(t, "c3", self.Hand[0].ID)
}

func TestBuildViewForPlayerIsDeterministic(t *testing.T) {
	s := newTestState(map[string][]deck.Card{
		"a": {card("c1", 1)},
		"b": {card("c2", 2)},
	})

	first := BuildViewForPlayer(s, "a")
	second := BuildViewForPlayer(s, "a")

	require.Equal(t, first.Players["b"].Hand, second.Players["b"].Hand)
	require.Equal(t, first.Players["a"].Hand, second.Players["a"].Hand)
}

func TestPendingInteractionViewHidesCardsFromNonTarget(t *testing.T) {
	s := newTestState(map[string][]deck.Card{
		"a": {card("c1", 1), card("c2", 2), card("c3", 3)},
		"b": {},
	})
	require.NoError(t, InitiateGift(s, "a", [3]string{"c1", "c2", "c3"}))

	targetView := BuildViewForPlayer(s, "b")
	require.Len(t, targetView.PendingInteraction.OfferedCards, 3)

	initiatorView := BuildViewForPlayer(s, "a")
	require.Empty(t, initiatorView.PendingInteraction.OfferedCards, "initiator must not see the offered cards back")
}
