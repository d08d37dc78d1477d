package game

// ActionInput is the decoded body of a turn or interaction-resolution
// request, whether it originated from a human client's GAME_ACTION frame or
// from an AI's own decision. Only the fields relevant to Type are populated.
type ActionInput struct {
	Type             string      `json:"type"`
	CardID           string      `json:"cardId,omitempty"`
	CardIDs          []string    `json:"cardIds,omitempty"`
	ChosenCardID     string      `json:"chosenCardId,omitempty"`
	ChosenGroupIndex int         `json:"chosenGroupIndex,omitempty"`
	Groups           [2][2]string `json:"groups,omitempty"`
}

const (
	ActionPlaySecret          = "PLAY_SECRET"
	ActionPlayTradeOff        = "PLAY_TRADE_OFF"
	ActionInitiateGift        = "INITIATE_GIFT"
	ActionResolveGift         = "RESOLVE_GIFT"
	ActionInitiateCompetition = "INITIATE_COMPETITION"
	ActionResolveCompetition  = "RESOLVE_COMPETITION"
)
