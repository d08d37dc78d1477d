// Package ai implements the computer opponent. It never touches a Room's
// live game.State directly: it is handed a sanitized game.StateView — the
// same projection a human client would receive — and returns the
// game.ActionInput it decides to submit, exactly as if a client had typed
// it in. Difficulty only changes how that decision gets made, grounded on
// the five-tier table this game ships with (easy..hell).
package ai

import (
	"math"
	"math/rand"

	"hanamikoji-server/config"
	"hanamikoji-server/deck"
	"hanamikoji-server/game"
)

// DecideTurn picks the action an AI seat takes on its own turn: which of
// the four tokens to spend, and on which cards.
func DecideTurn(view *game.StateView, aiID string, tier config.AITier) game.ActionInput {
	me := view.Players[aiID]
	if me == nil || len(me.Hand) == 0 {
		return game.ActionInput{Type: game.ActionPlaySecret}
	}

	available := unusedTokens(me.Tokens)
	if len(available) == 0 {
		// Should not happen (round resolves once all four are spent), but
		// fall back to whatever's legal rather than submitting garbage.
		available = []string{game.ActionPlaySecret}
	}

	switch tier.ActionPolicy {
	case "random":
		return randomTurn(me, available)
	case "minimax":
		return minimaxTurn(view, aiID, available)
	default: // "heuristic"
		return heuristicTurn(view, aiID, available)
	}
}

// DecideResponse picks the AI's resolution of a pending interaction it is
// the target of: which offered card to keep (gift) or which group to take
// (competition).
func DecideResponse(view *game.StateView, aiID string, tier config.AITier) game.ActionInput {
	pi := view.PendingInteraction
	if pi == nil || pi.TargetID != aiID {
		return game.ActionInput{}
	}
	snap := buildSnapshot(view, aiID)
	switch pi.Kind {
	case game.InteractionGift:
		return game.ActionInput{Type: game.ActionResolveGift, ChosenCardID: pickBestGiftCard(snap, pi)}
	case game.InteractionCompetition:
		return game.ActionInput{Type: game.ActionResolveCompetition, ChosenGroupIndex: pickBestGroup(snap, pi)}
	default:
		return game.ActionInput{}
	}
}

func unusedTokens(tokens game.Tokens) []string {
	var out []string
	if !tokens[game.TokenSecret] {
		out = append(out, game.ActionPlaySecret)
	}
	if !tokens[game.TokenTradeOff] {
		out = append(out, game.ActionPlayTradeOff)
	}
	if !tokens[game.TokenGift] {
		out = append(out, game.ActionInitiateGift)
	}
	if !tokens[game.TokenCompetition] {
		out = append(out, game.ActionInitiateCompetition)
	}
	return out
}

func randomTurn(me *game.PlayerView, available []string) game.ActionInput {
	choice := available[rand.Intn(len(available))]
	hand := me.Hand
	switch choice {
	case game.ActionPlaySecret:
		return game.ActionInput{Type: choice, CardID: hand[rand.Intn(len(hand))].ID}
	case game.ActionPlayTradeOff:
		if len(hand) < 2 {
			return game.ActionInput{Type: game.ActionPlaySecret, CardID: hand[0].ID}
		}
		ids := shuffledIDs(hand)
		return game.ActionInput{Type: choice, CardIDs: ids[:2]}
	case game.ActionInitiateGift:
		if len(hand) < 3 {
			return game.ActionInput{Type: game.ActionPlaySecret, CardID: hand[0].ID}
		}
		ids := shuffledIDs(hand)
		return game.ActionInput{Type: choice, CardIDs: ids[:3]}
	case game.ActionInitiateCompetition:
		if len(hand) < 4 {
			return game.ActionInput{Type: game.ActionPlaySecret, CardID: hand[0].ID}
		}
		ids := shuffledIDs(hand)
		return game.ActionInput{Type: choice, Groups: [2][2]string{{ids[0], ids[1]}, {ids[2], ids[3]}}}
	}
	return game.ActionInput{Type: game.ActionPlaySecret, CardID: hand[0].ID}
}

func shuffledIDs(hand []deck.Card) []string {
	ids := make([]string, len(hand))
	for i, c := range hand {
		ids[i] = c.ID
	}
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids
}

// --- snapshot-based utility (spec §4.6) ---

// snapshotEntry is one geisha's row in a control snapshot: its fixed charm
// value plus how many of its cards each side currently has committed
// (played face-up, or — for the snapshot owner only — held face-down as a
// secret they already know about). The opponent's secret cards are never
// counted: their content and count are both hidden from this viewer.
type snapshotEntry struct {
	Charm    int
	MyCount  int
	OppCount int
}

// snapshot maps geishaId to its control row, evaluated from one seat's
// point of view.
type snapshot map[int]snapshotEntry

func opponentID(view *game.StateView, selfID string) string {
	for id := range view.Players {
		if id != selfID {
			return id
		}
	}
	return ""
}

// buildSnapshot takes the control snapshot for selfID: myCount counts
// selfID's own played and secret cards per geisha (both visible to
// selfID), oppCount counts only the opponent's played cards (their secret
// pile isn't revealed, not even its size).
func buildSnapshot(view *game.StateView, selfID string) snapshot {
	snap := make(snapshot, len(view.Geishas))
	for _, g := range view.Geishas {
		snap[g.ID] = snapshotEntry{Charm: g.Charm}
	}
	if me := view.Players[selfID]; me != nil {
		for _, c := range me.PlayedCards {
			e := snap[c.GeishaID]
			e.MyCount++
			snap[c.GeishaID] = e
		}
		for _, c := range me.SecretCards {
			e := snap[c.GeishaID]
			e.MyCount++
			snap[c.GeishaID] = e
		}
	}
	if opp := view.Players[opponentID(view, selfID)]; opp != nil {
		for _, c := range opp.PlayedCards {
			e := snap[c.GeishaID]
			e.OppCount++
			snap[c.GeishaID] = e
		}
	}
	return snap
}

func (snap snapshot) clone() snapshot {
	out := make(snapshot, len(snap))
	for k, v := range snap {
		out[k] = v
	}
	return out
}

// withMineAdded projects the snapshot after one more card for geishaID is
// credited to this snapshot's own side.
func (snap snapshot) withMineAdded(geishaID int) snapshot {
	out := snap.clone()
	e := out[geishaID]
	e.MyCount++
	out[geishaID] = e
	return out
}

// withTheirsAdded projects the snapshot after one more card for geishaID is
// credited to the opponent's side.
func (snap snapshot) withTheirsAdded(geishaID int) snapshot {
	out := snap.clone()
	e := out[geishaID]
	e.OppCount++
	out[geishaID] = e
	return out
}

// cardUtility is the value to this snapshot's own side of adding one more
// card for geishaID: 4x charm if doing so overtakes or ties-to-overtake the
// opponent, 2x charm if it merely ties, else charm.
func (snap snapshot) cardUtility(geishaID int) int {
	e := snap[geishaID]
	switch {
	case e.MyCount+1 > e.OppCount && e.MyCount <= e.OppCount:
		return 4 * e.Charm
	case e.MyCount+1 == e.OppCount:
		return 2 * e.Charm
	default:
		return e.Charm
	}
}

// delta is Δ(me): the snapshot owner's total score minus the opponent's,
// summed geisha by geisha as 2*charm + 3*(myCount-oppCount). The charm term
// is signed by who would actually control that geisha (myCount>oppCount,
// oppCount>myCount, or tied) — charm fixed across every geisha regardless
// of ownership would make this sum a scenario-invariant constant and the
// momentum term alone distribution-blind, leaving nothing for worst-case
// gift/competition selection to discriminate on.
func (snap snapshot) delta() int {
	total := 0
	for _, e := range snap {
		control := 0
		switch {
		case e.MyCount > e.OppCount:
			control = 1
		case e.OppCount > e.MyCount:
			control = -1
		}
		total += 2*e.Charm*control + 3*(e.MyCount-e.OppCount)
	}
	return total
}

func highestUtilityCard(snap snapshot, hand []deck.Card) deck.Card {
	best := hand[0]
	bestUtil := snap.cardUtility(best.GeishaID)
	for _, c := range hand[1:] {
		if u := snap.cardUtility(c.GeishaID); u > bestUtil {
			best, bestUtil = c, u
		}
	}
	return best
}

// lowestUtilityCardIDs returns the n cards least valuable to keep, by
// cardUtility — what a trade-off should give up.
func lowestUtilityCardIDs(snap snapshot, hand []deck.Card, n int) []string {
	sorted := append([]deck.Card{}, hand...)
	sortCards(sorted, func(a, b deck.Card) bool {
		return snap.cardUtility(a.GeishaID) < snap.cardUtility(b.GeishaID)
	})
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = sorted[i].ID
	}
	return out
}

// topUtilityCards returns the n cards most valuable by cardUtility.
func topUtilityCards(snap snapshot, hand []deck.Card, n int) []deck.Card {
	sorted := append([]deck.Card{}, hand...)
	sortCards(sorted, func(a, b deck.Card) bool {
		return snap.cardUtility(a.GeishaID) > snap.cardUtility(b.GeishaID)
	})
	return sorted[:n]
}

// sortCards is a tiny insertion sort — hands top out at 7 cards, so a
// sort.Slice closure isn't worth the import for this package.
func sortCards(cards []deck.Card, less func(a, b deck.Card) bool) {
	for i := 1; i < len(cards); i++ {
		for j := i; j > 0 && less(cards[j], cards[j-1]); j-- {
			cards[j], cards[j-1] = cards[j-1], cards[j]
		}
	}
}

// combinations returns every size-k subset of items, order preserved.
func combinations(items []deck.Card, k int) [][]deck.Card {
	var out [][]deck.Card
	var combo []deck.Card
	var rec func(start int)
	rec = func(start int) {
		if len(combo) == k {
			out = append(out, append([]deck.Card{}, combo...))
			return
		}
		for i := start; i < len(items); i++ {
			combo = append(combo, items[i])
			rec(i + 1)
			combo = combo[:len(combo)-1]
		}
	}
	rec(0)
	return out
}

// bestGiftCombo chooses the 3-card offer whose worst-case resulting Δ — over
// the target's three possible picks — is maximal, per spec §4.6.
func bestGiftCombo(snap snapshot, hand []deck.Card) ([]string, int) {
	bestScore := math.MinInt
	var best []deck.Card
	for _, combo := range combinations(hand, 3) {
		worst := math.MaxInt
		for _, kept := range combo {
			s := snap
			for _, c := range combo {
				if c.ID == kept.ID {
					s = s.withTheirsAdded(c.GeishaID)
				} else {
					s = s.withMineAdded(c.GeishaID)
				}
			}
			if d := s.delta(); d < worst {
				worst = d
			}
		}
		if worst > bestScore {
			bestScore = worst
			best = combo
		}
	}
	ids := make([]string, len(best))
	for i, c := range best {
		ids[i] = c.ID
	}
	return ids, bestScore
}

// canonicalPairings are the three ways to split 4 indices into two pairs.
var canonicalPairings = [3][2][2]int{
	{{0, 1}, {2, 3}},
	{{0, 2}, {1, 3}},
	{{0, 3}, {1, 2}},
}

// bestCompetitionGrouping picks the 4 highest-utility cards in hand, then
// across the three canonical pairings picks the one whose worse group (the
// opponent's rational, Δ-minimizing-for-us choice) leaves the AI strongest.
func bestCompetitionGrouping(snap snapshot, hand []deck.Card) ([2][2]string, int) {
	top4 := topUtilityCards(snap, hand, 4)
	bestScore := math.MinInt
	var bestGroups [2][2]string
	for _, part := range canonicalPairings {
		g0 := []deck.Card{top4[part[0][0]], top4[part[0][1]]}
		g1 := []deck.Card{top4[part[1][0]], top4[part[1][1]]}

		// Scenario: the opponent takes g0, we keep g1.
		sA := snap
		for _, c := range g0 {
			sA = sA.withTheirsAdded(c.GeishaID)
		}
		for _, c := range g1 {
			sA = sA.withMineAdded(c.GeishaID)
		}
		// Scenario: the opponent takes g1, we keep g0.
		sB := snap
		for _, c := range g1 {
			sB = sB.withTheirsAdded(c.GeishaID)
		}
		for _, c := range g0 {
			sB = sB.withMineAdded(c.GeishaID)
		}

		worst := sA.delta()
		if d := sB.delta(); d < worst {
			worst = d
		}
		if worst > bestScore {
			bestScore = worst
			bestGroups = [2][2]string{{g0[0].ID, g0[1].ID}, {g1[0].ID, g1[1].ID}}
		}
	}
	return bestGroups, bestScore
}

// heuristicTurn enforces the medium/hard priority ordering — competition
// beats gift beats secret beats trade-off whenever legal — with no score
// allowed to override it; utility only ranks cards *within* whichever
// action the priority picks.
func heuristicTurn(view *game.StateView, aiID string, available []string) game.ActionInput {
	me := view.Players[aiID]
	snap := buildSnapshot(view, aiID)
	legal := toSet(available)

	if legal[game.ActionInitiateCompetition] && len(me.Hand) >= 4 {
		groups, _ := bestCompetitionGrouping(snap, me.Hand)
		return game.ActionInput{Type: game.ActionInitiateCompetition, Groups: groups}
	}
	if legal[game.ActionInitiateGift] && len(me.Hand) >= 3 {
		ids, _ := bestGiftCombo(snap, me.Hand)
		return game.ActionInput{Type: game.ActionInitiateGift, CardIDs: ids}
	}
	if legal[game.ActionPlaySecret] && len(me.Hand) >= 1 {
		return game.ActionInput{Type: game.ActionPlaySecret, CardID: highestUtilityCard(snap, me.Hand).ID}
	}
	if legal[game.ActionPlayTradeOff] && len(me.Hand) >= 2 {
		ids := lowestUtilityCardIDs(snap, me.Hand, 2)
		return game.ActionInput{Type: game.ActionPlayTradeOff, CardIDs: ids}
	}
	return game.ActionInput{Type: game.ActionPlaySecret, CardID: me.Hand[0].ID}
}

// minimaxTurn (expert/hell) scores every legal action by its one-ply,
// worst-case-maximizing Δ and submits whichever scores highest, breaking
// ties by the same competition>gift>secret>trade-off priority.
func minimaxTurn(view *game.StateView, aiID string, available []string) game.ActionInput {
	me := view.Players[aiID]
	snap := buildSnapshot(view, aiID)
	legal := toSet(available)

	type candidate struct {
		action   game.ActionInput
		score    int
		priority int
	}
	var best *candidate
	consider := func(c candidate) {
		if best == nil || c.score > best.score || (c.score == best.score && c.priority < best.priority) {
			cc := c
			best = &cc
		}
	}

	if legal[game.ActionInitiateCompetition] && len(me.Hand) >= 4 {
		groups, score := bestCompetitionGrouping(snap, me.Hand)
		consider(candidate{action: game.ActionInput{Type: game.ActionInitiateCompetition, Groups: groups}, score: score, priority: 0})
	}
	if legal[game.ActionInitiateGift] && len(me.Hand) >= 3 {
		ids, score := bestGiftCombo(snap, me.Hand)
		consider(candidate{action: game.ActionInput{Type: game.ActionInitiateGift, CardIDs: ids}, score: score, priority: 1})
	}
	if legal[game.ActionPlaySecret] && len(me.Hand) >= 1 {
		c := highestUtilityCard(snap, me.Hand)
		score := snap.withMineAdded(c.GeishaID).delta()
		consider(candidate{action: game.ActionInput{Type: game.ActionPlaySecret, CardID: c.ID}, score: score, priority: 2})
	}
	if legal[game.ActionPlayTradeOff] && len(me.Hand) >= 2 {
		ids := lowestUtilityCardIDs(snap, me.Hand, 2)
		// Trade-off discards without touching any geisha's count; its
		// direct contribution to Δ is whatever Δ already is.
		consider(candidate{action: game.ActionInput{Type: game.ActionPlayTradeOff, CardIDs: ids}, score: snap.delta(), priority: 3})
	}

	if best == nil {
		return game.ActionInput{Type: game.ActionPlaySecret, CardID: me.Hand[0].ID}
	}
	return best.action
}

func toSet(kinds []string) map[string]bool {
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return set
}

// pickBestGiftCard chooses the offered card whose utility to the AI is
// largest, per spec §4.6's gift-response rule.
func pickBestGiftCard(snap snapshot, pi *game.PendingInteractionView) string {
	if len(pi.OfferedCards) == 0 {
		return ""
	}
	best := pi.OfferedCards[0]
	bestUtil := snap.cardUtility(best.GeishaID)
	for _, c := range pi.OfferedCards[1:] {
		if u := snap.cardUtility(c.GeishaID); u > bestUtil {
			best, bestUtil = c, u
		}
	}
	return best.ID
}

// pickBestGroup chooses the competition group whose snapshot evaluation
// after the AI takes it is higher, per spec §4.6's competition-response rule.
func pickBestGroup(snap snapshot, pi *game.PendingInteractionView) int {
	scoreOf := func(cards []deck.Card) int {
		s := snap
		for _, c := range cards {
			s = s.withMineAdded(c.GeishaID)
		}
		return s.delta()
	}
	if scoreOf(pi.Groups[0]) >= scoreOf(pi.Groups[1]) {
		return 0
	}
	return 1
}
