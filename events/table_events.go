package events

// HandStarted is emitted once blinds are posted and before hole cards are dealt
type HandStarted struct {
	TableID    int    `json:"tableId"`
	HandID     string `json:"handId"`
	Dealer     int    `json:"dealer"`
	SmallBlind int    `json:"smallBlind"`
	BigBlind   int    `json:"bigBlind"`
	Seats      []int  `json:"seats"`
}

func (e HandStarted) EventName() string { return "hand-started" }

// PlayerActed is emitted for every resolved action, including timeouts
type PlayerActed struct {
	TableID int    `json:"tableId"`
	HandID  string `json:"handId"`
	Seat    int    `json:"seat"`
	Action  string `json:"action"`
	Bet     int    `json:"bet"`
}

func (e PlayerActed) EventName() string { return "player-acted" }

type PotAwarded struct {
	TableID    int    `json:"tableId"`
	HandID     string `json:"handId"`
	Seat       int    `json:"seat"`
	Amount     int    `json:"amount"`
	Descriptor string `json:"descriptor,omitempty"`
}

func (e PotAwarded) EventName() string { return "pot-awarded" }

// HandEnded closes a hand. Aborted is set when the hand was cancelled and chips refunded.
type HandEnded struct {
	TableID int    `json:"tableId"`
	HandID  string `json:"handId"`
	Aborted bool   `json:"aborted,omitempty"`
}

func (e HandEnded) EventName() string { return "hand-ended" }

type SeatTaken struct {
	TableID int    `json:"tableId"`
	Seat    int    `json:"seat"`
	Session string `json:"session"`
	Chips   int    `json:"chips"`
}

func (e SeatTaken) EventName() string { return "seat-taken" }

type SeatVacated struct {
	TableID int `json:"tableId"`
	Seat    int `json:"seat"`
}

func (e SeatVacated) EventName() string { return "seat-vacated" }
