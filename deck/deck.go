// Package deck builds the geisha roster and the 21-card deck for a round,
// grounded on the board-building step of a memory game but reworked for
// Hanamikoji's fixed charm distribution and single removed card.
package deck

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"hanamikoji-server/config"
)

// Geisha is one of the seven favor-holders in a game.
type Geisha struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Charm        int    `json:"charm"`
	ControlledBy string `json:"controlledBy,omitempty"` // playerId, or "" for none
}

// Card is a single playing card tied to one geisha.
type Card struct {
	ID       string `json:"id"`
	GeishaID int    `json:"geishaId"`
}

// BuildBaseGeishas returns the seven geisha for the given set key in a
// deterministic order with controlledBy cleared. Falls back to the
// configured default set if setKey is unknown.
func BuildBaseGeishas(cfg *config.Config, setKey string) [7]Geisha {
	templates, ok := cfg.GeishaSets[setKey]
	if !ok {
		templates = cfg.GeishaSets[cfg.DefaultGeishaSet]
	}
	var out [7]Geisha
	for i, t := range templates {
		out[i] = Geisha{ID: i + 1, Name: t.Name, Charm: t.Charm}
	}
	return out
}

// CarryControl copies controlledBy from prior onto a freshly built geisha
// array of the same set, preserving control across round rebuilds.
func CarryControl(fresh [7]Geisha, prior [7]Geisha) [7]Geisha {
	for i := range fresh {
		fresh[i].ControlledBy = prior[i].ControlledBy
	}
	return fresh
}

// BuildDeck creates `charm` cards per geisha with unique ids, shuffles them
// with a cryptographically adequate Fisher-Yates, and pops the last card off
// as the removed card. The removed card is never surfaced to any client.
func BuildDeck(geishas [7]Geisha) (drawPile []Card, removedCard Card, err error) {
	cards := make([]Card, 0, 21)
	for _, g := range geishas {
		for i := 0; i < g.Charm; i++ {
			cards = append(cards, Card{ID: uuid.New().String(), GeishaID: g.ID})
		}
	}
	if len(cards) != 21 {
		return nil, Card{}, fmt.Errorf("deck: built %d cards, want 21", len(cards))
	}
	if err := shuffle(cards); err != nil {
		return nil, Card{}, fmt.Errorf("deck: shuffle: %w", err)
	}
	removedCard = cards[len(cards)-1]
	drawPile = cards[:len(cards)-1]
	return drawPile, removedCard, nil
}

// shuffle performs an in-place Fisher-Yates shuffle using crypto/rand, as
// the deal must be uniformly random and not predictable from a seed.
func shuffle(cards []Card) error {
	for i := len(cards) - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := int(jBig.Int64())
		cards[i], cards[j] = cards[j], cards[i]
	}
	return nil
}
