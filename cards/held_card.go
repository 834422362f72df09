package cards

type CardVisibility string

const (
	FaceDown      CardVisibility = "down"  // Nobody can see
	FaceUpToOwner CardVisibility = "owner" // Only the owner can see
	FaceUpToAll   CardVisibility = "all"   // Everyone can see
)

// HeldCard is a dealt card together with who may see it
type HeldCard struct {
	Card
	Visibility CardVisibility
}

// Hole wraps a hole card, which only its owner sees
func Hole(c Card) HeldCard {
	return HeldCard{Card: c, Visibility: FaceUpToOwner}
}

// Reveal makes the card visible to everyone
func (c *HeldCard) Reveal() {
	c.Visibility = FaceUpToAll
}

// ViewFor returns the card as a viewer sees it. Hidden cards come back empty.
func (c HeldCard) ViewFor(isOwner bool) Card {
	switch c.Visibility {
	case FaceUpToAll:
		return c.Card
	case FaceUpToOwner:
		if isOwner {
			return c.Card
		}
	}
	return Card{}
}
