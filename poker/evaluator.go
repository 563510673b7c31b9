package poker

import (
	"fmt"

	phpoker "github.com/paulhankin/poker"
)

// toEvalCard converts to the evaluator's card model (clubs, diamonds, hearts,
// spades as 0..3; ace low as 1).
func toEvalCard(c Card) (phpoker.Card, error) {
	var suit uint8
	switch c.Suit {
	case Clubs:
		suit = 0
	case Diamonds:
		suit = 1
	case Hearts:
		suit = 2
	case Spades:
		suit = 3
	default:
		var invalid phpoker.Card
		return invalid, fmt.Errorf("Invalid suit in card %d/%d", c.Rank, c.Suit)
	}
	rank := uint8(c.Rank)
	if c.Rank == Ace {
		rank = 1
	}
	return phpoker.MakeCard(phpoker.Suit(suit), phpoker.Rank(rank))
}

// ScoreHoldem scores the best five card hand out of two hole cards and a full
// five card board. A higher score is a better hand.
func ScoreHoldem(hole []Card, board []Card) (int16, error) {
	if len(hole) != 2 {
		return 0, fmt.Errorf("Expected 2 hole cards, got %d", len(hole))
	}
	if len(board) != 5 {
		return 0, fmt.Errorf("Expected 5 board cards, got %d", len(board))
	}

	var hand [7]phpoker.Card
	for i, c := range append(append([]Card{}, board...), hole...) {
		ec, err := toEvalCard(c)
		if err != nil {
			return 0, err
		}
		hand[i] = ec
	}
	return phpoker.Eval7(&hand), nil
}
