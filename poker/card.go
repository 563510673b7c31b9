package poker

import (
	"fmt"
	"strings"
)

type Rank int8

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// Suit values double as bit flags in the byte form of a card.
type Suit int8

const (
	Spades   Suit = 1
	Hearts   Suit = 2
	Diamonds Suit = 4
	Clubs    Suit = 8
)

var (
	strRanks = "23456789TJQKA"
	allSuits = []Suit{Spades, Hearts, Diamonds, Clubs}
)

var (
	charSuitToSuit = map[uint8]Suit{
		's': Spades,
		'h': Hearts,
		'd': Diamonds,
		'c': Clubs,
	}
	suitToCharSuit = "xshxdxxxc"
)

var prettySuits = map[Suit]string{
	Spades:   "♠",
	Hearts:   "❤",
	Diamonds: "♦",
	Clubs:    "♣",
}

func (r Rank) Valid() bool {
	return r >= Two && r <= Ace
}

// Value is the scoring value of the rank: number cards count their pips,
// face cards count 10 and the ace counts 11.
func (r Rank) Value() int {
	switch {
	case r == Ace:
		return 11
	case r >= Jack:
		return 10
	}
	return int(r)
}

func (r Rank) String() string {
	if !r.Valid() {
		return "?"
	}
	return string(strRanks[r-Two])
}

func (s Suit) Valid() bool {
	return s == Spades || s == Hearts || s == Diamonds || s == Clubs
}

func (s Suit) String() string {
	if !s.Valid() {
		return "?"
	}
	return string(suitToCharSuit[s])
}

// Card is an immutable playing card.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard parses the two character ascii form ("Kh", "2c") and panics on bad input.
func NewCard(s string) Card {
	card, err := ParseCard(s)
	if err != nil {
		panic(err.Error())
	}
	return card
}

func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("Invalid card [%s]", s)
	}
	rankIdx := strings.IndexByte(strRanks, s[0])
	if rankIdx < 0 {
		return Card{}, fmt.Errorf("Invalid rank in card [%s]", s)
	}
	suit, ok := charSuitToSuit[s[1]]
	if !ok {
		return Card{}, fmt.Errorf("Invalid suit in card [%s]", s)
	}
	return Card{Rank: Two + Rank(rankIdx), Suit: suit}, nil
}

// NewCardFromByte decodes the byte form: high 4 bits rank index, low 4 bits suit.
func NewCardFromByte(cardByte uint8) (Card, error) {
	card := Card{
		Rank: Two + Rank(cardByte>>4),
		Suit: Suit(cardByte & 0xF),
	}
	if !card.Valid() {
		return Card{}, fmt.Errorf("Invalid card byte [0x%02x]", cardByte)
	}
	return card, nil
}

func (c Card) Valid() bool {
	return c.Rank.Valid() && c.Suit.Valid()
}

func (c Card) GetByte() uint8 {
	return uint8(c.Rank-Two)<<4 | uint8(c.Suit)
}

func (c Card) Value() int {
	return c.Rank.Value()
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

func (c Card) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("Cannot marshal invalid card %d/%d", c.Rank, c.Suit)
	}
	return []byte("\"" + c.String() + "\""), nil
}

func (c *Card) UnmarshalJSON(b []byte) error {
	if len(b) != 4 || b[0] != '"' || b[3] != '"' {
		return fmt.Errorf("Invalid card JSON %s", string(b))
	}
	card, err := ParseCard(string(b[1:3]))
	if err != nil {
		return err
	}
	*c = card
	return nil
}

func CardToString(c Card) string {
	return fmt.Sprintf("%s%s", c.Rank.String(), prettySuits[c.Suit])
}

func CardsToString(cards []Card) string {
	var b strings.Builder
	b.Grow(32)
	fmt.Fprintf(&b, "[")
	for _, c := range cards {
		fmt.Fprintf(&b, " %s ", CardToString(c))
	}
	fmt.Fprintf(&b, "]")
	return b.String()
}
