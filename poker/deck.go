package poker

import (
	crypto_rand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

const DeckSize = 52

var fullDeck []Card

func init() {
	fullDeck = initializeFullCards()
}

// Deck is not safe for concurrent use; the owner serializes access.
type Deck struct {
	cards   []Card
	randGen *rand.Rand
}

func NewSeed() rand.Source {
	var b [8]byte
	_, err := crypto_rand.Read(b[:])
	if err != nil {
		panic("cannot seed math/rand package with cryptographically secure random number generator")
	}
	return rand.NewSource(int64(binary.LittleEndian.Uint64(b[:])))
}

// NewDeck returns a shuffled 52 card deck. A nil source is replaced by a
// crypto seeded one.
func NewDeck(source rand.Source) *Deck {
	return NewDeckWithout(source, nil)
}

// NewDeckWithout returns a shuffled deck that does not contain the excluded cards.
func NewDeckWithout(source rand.Source, exclude []Card) *Deck {
	if source == nil {
		source = NewSeed()
	}
	deck := &Deck{randGen: rand.New(source)}
	deck.cards = make([]Card, 0, len(fullDeck))
	for _, card := range fullDeck {
		if !containsCard(exclude, card) {
			deck.cards = append(deck.cards, card)
		}
	}
	deck.shuffle()
	return deck
}

// shuffle is a Fisher-Yates shuffle; every permutation is equally likely.
func (deck *Deck) shuffle() {
	deck.randGen.Shuffle(len(deck.cards), func(i, j int) {
		deck.cards[i], deck.cards[j] = deck.cards[j], deck.cards[i]
	})
}

func (deck *Deck) Draw(n int) ([]Card, error) {
	if n < 0 || n > len(deck.cards) {
		return nil, fmt.Errorf("Cannot draw %d cards from a deck of %d", n, len(deck.cards))
	}
	cards := make([]Card, n)
	copy(cards, deck.cards[:n])
	deck.cards = deck.cards[n:]
	return cards, nil
}

func (deck *Deck) Remaining() int {
	return len(deck.cards)
}

// Without drops the given cards and keeps the order of the rest.
func (deck *Deck) Without(exclude []Card) *Deck {
	kept := make([]Card, 0, len(deck.cards))
	for _, card := range deck.cards {
		if !containsCard(exclude, card) {
			kept = append(kept, card)
		}
	}
	deck.cards = kept
	return deck
}

func initializeFullCards() []Card {
	cards := make([]Card, 0, DeckSize)
	for rank := Two; rank <= Ace; rank++ {
		for _, suit := range allSuits {
			cards = append(cards, Card{Rank: rank, Suit: suit})
		}
	}
	return cards
}

func containsCard(cards []Card, card Card) bool {
	for _, c := range cards {
		if c == card {
			return true
		}
	}
	return false
}

// DeckFromBytes builds an unshuffled deck in the given order.
// High 4 bits: rank index (0000 = 2 ... 1100 = A).
// Low 4 bits: suit (0001 spade, 0010 heart, 0100 diamond, 1000 club).
func DeckFromBytes(cardsInByte []byte) (*Deck, error) {
	cards := make([]Card, len(cardsInByte))
	for i, cardInByte := range cardsInByte {
		card, err := NewCardFromByte(cardInByte)
		if err != nil {
			return nil, err
		}
		cards[i] = card
	}
	return &Deck{cards: cards}, nil
}
