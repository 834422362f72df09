package poker

import "github.com/lazharichir/jpoker/cards"

// Player is the state of an occupied seat
type Player struct {
	ChipCount  int
	CurrentBet int
	Raise      int
	Hand       cards.Cards
	InHand     bool
	Action     Action

	// SessionID identifies the owning session without holding on to it.
	// Empty on the client side.
	SessionID string
}

// NewPlayer seats a player with the given stack
func NewPlayer(chips int, sessionID string) *Player {
	return &Player{
		ChipCount: chips,
		Hand:      cards.NewCards(HoleCardCount),
		SessionID: sessionID,
	}
}

// ResetForNewHand resets the player's state for a new hand
func (p *Player) ResetForNewHand() {
	p.Hand = cards.NewCards(HoleCardCount)
	p.CurrentBet = 0
	p.Raise = 0
	p.InHand = false
	p.Action = ActionNone
}

// Owes returns what the player must add to match bet
func (p *Player) Owes(bet int) int {
	if owed := bet - p.CurrentBet; owed > 0 {
		return owed
	}
	return 0
}

// Pay moves up to amount from the stack into the player's current bet
// and returns what was actually paid
func (p *Player) Pay(amount int) int {
	if amount <= 0 {
		return 0
	}
	if amount > p.ChipCount {
		amount = p.ChipCount
	}
	p.ChipCount -= amount
	p.CurrentBet += amount
	return amount
}
