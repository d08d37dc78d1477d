package game

import (
	"crypto/rand"
	"math/big"

	"hanamikoji-server/roomerrors"
)

// StartOrderDecision moves the room into the deciding_order phase with a
// blank order decision state, run once both seats are occupied.
func StartOrderDecision(s *State) {
	s.Phase = PhaseDecidingOrder
	s.OrderDecision = OrderDecisionState{Confirmed: make(map[string]bool, 2)}
}

// RevealOrder picks the first player uniformly at random from the two
// seated ids and records the resulting seating order.
func RevealOrder(s *State) ([]string, error) {
	if len(s.Seating) != 2 {
		return nil, roomerrors.ErrNotInRoom
	}
	n, err := rand.Int(rand.Reader, big.NewInt(2))
	if err != nil {
		return nil, err
	}
	first, second := s.Seating[0], s.Seating[1]
	if n.Int64() == 1 {
		first, second = second, first
	}
	order := []string{first, second}
	s.OrderDecision.Order = order
	s.OrderDecision.Revealed = true
	return order, nil
}

// ConfirmOrder records one seat's confirmation of the revealed order.
// bothConfirmed is true once every seated player has confirmed.
func ConfirmOrder(s *State, playerID string) (bothConfirmed bool, err error) {
	if !s.OrderDecision.Revealed {
		return false, roomerrors.ErrPhaseDisallows
	}
	if _, ok := s.Players[playerID]; !ok {
		return false, roomerrors.ErrNotInRoom
	}
	if s.OrderDecision.Confirmed == nil {
		s.OrderDecision.Confirmed = make(map[string]bool, 2)
	}
	s.OrderDecision.Confirmed[playerID] = true
	return allSeatsConfirmed(s, s.OrderDecision.Confirmed), nil
}

// StartReadyCheck opens the final readiness gate before the first turn.
func StartReadyCheck(s *State) {
	s.ReadyConfirmations = make(map[string]bool, 2)
}

// ConfirmReady records one seat's readiness. bothReady is true once every
// seated player is ready.
func ConfirmReady(s *State, playerID string) (bothReady bool, err error) {
	if _, ok := s.Players[playerID]; !ok {
		return false, roomerrors.ErrNotInRoom
	}
	if s.ReadyConfirmations == nil {
		s.ReadyConfirmations = make(map[string]bool, 2)
	}
	s.ReadyConfirmations[playerID] = true
	return allSeatsConfirmed(s, s.ReadyConfirmations), nil
}

func allSeatsConfirmed(s *State, confirmed map[string]bool) bool {
	if len(s.Seating) != 2 {
		return false
	}
	for _, id := range s.Seating {
		if !confirmed[id] {
			return false
		}
	}
	return true
}

// ConfirmRematch records one seat's rematch vote. bothAgreed is true once
// every seated player has asked for a rematch.
func ConfirmRematch(s *State, playerID string) (bothAgreed bool, err error) {
	if _, ok := s.Players[playerID]; !ok {
		return false, roomerrors.ErrNotInRoom
	}
	if s.RematchConfirmations == nil {
		s.RematchConfirmations = make(map[string]bool, 2)
	}
	s.RematchConfirmations[playerID] = true
	return allSeatsConfirmed(s, s.RematchConfirmations), nil
}
