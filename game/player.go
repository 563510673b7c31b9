package game

import "huddle.com/server/poker"

// Player is a seat at the hold'em table. Position is the seat index and
// follows the order players were given to StartGame.
type Player struct {
	UserID     string       `json:"userId"`
	Chips      int          `json:"chips"`
	CurrentBet int          `json:"currentBet"`
	Hand       []poker.Card `json:"hand"`
	IsFolded   bool         `json:"isFolded"`
	Position   int          `json:"position"`
}

func newPlayer(userID string, position int) Player {
	return Player{
		UserID:   userID,
		Chips:    StartingChips,
		Hand:     []poker.Card{},
		Position: position,
	}
}

func (p Player) clone() Player {
	c := p
	c.Hand = append([]poker.Card{}, p.Hand...)
	return c
}

// commit moves chips from the stack into the pot. Callers validate first.
func (p *Player) commit(amount int) {
	p.Chips -= amount
	p.CurrentBet += amount
}
