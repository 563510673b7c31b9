package game

import (
	"fmt"

	"huddle.com/server/poker"
)

const (
	MinPlayers    = 2
	MaxPlayers    = 10
	StartingChips = 1000
)

// Phase is strictly ordered; a game only moves forward one step at a time.
type Phase int

const (
	PhasePreFlop Phase = iota
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
	PhaseEnded
)

var phaseNames = []string{"preFlop", "flop", "turn", "river", "showdown", "ended"}

func (p Phase) String() string {
	if p < PhasePreFlop || p > PhaseEnded {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	if p < PhasePreFlop || p > PhaseEnded {
		return nil, fmt.Errorf("Invalid phase %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("Invalid phase [%s]", string(text))
}

// bettingOpen reports whether bet/call/raise/fold are accepted in this phase.
func (p Phase) bettingOpen() bool {
	return p < PhaseShowdown
}

// communityCardsToDeal is the number of board cards dealt when entering the phase.
func (p Phase) communityCardsToDeal() int {
	switch p {
	case PhaseFlop:
		return 3
	case PhaseTurn, PhaseRiver:
		return 1
	}
	return 0
}

// TexasHoldemGame is the state of one hand. Values returned by the engine are
// copies; mutating them does not affect the engine.
type TexasHoldemGame struct {
	RoomID         string       `json:"roomId"`
	Players        []Player     `json:"players"`
	Pot            int          `json:"pot"`
	CurrentBet     int          `json:"currentBet"`
	CommunityCards []poker.Card `json:"communityCards"`
	Phase          Phase        `json:"phase"`
	Winners        []string     `json:"winners,omitempty"`
	HandsDealt     int          `json:"handsDealt"`
}

func (g *TexasHoldemGame) clone() TexasHoldemGame {
	c := *g
	c.Players = make([]Player, len(g.Players))
	for i, p := range g.Players {
		c.Players[i] = p.clone()
	}
	c.CommunityCards = append([]poker.Card{}, g.CommunityCards...)
	if g.Winners != nil {
		c.Winners = append([]string{}, g.Winners...)
	}
	return c
}

// Player looks up a seated player by user id.
func (g *TexasHoldemGame) Player(userID string) (Player, bool) {
	for _, p := range g.Players {
		if p.UserID == userID {
			return p, true
		}
	}
	return Player{}, false
}

func (g *TexasHoldemGame) playerIndex(userID string) int {
	for i := range g.Players {
		if g.Players[i].UserID == userID {
			return i
		}
	}
	return -1
}

func (g *TexasHoldemGame) cardsInPlay() []poker.Card {
	cards := append([]poker.Card{}, g.CommunityCards...)
	for _, p := range g.Players {
		cards = append(cards, p.Hand...)
	}
	return cards
}

// contenders counts the players still in the hand.
func (g *TexasHoldemGame) contenders() int {
	n := 0
	for _, p := range g.Players {
		if !p.IsFolded {
			n++
		}
	}
	return n
}
