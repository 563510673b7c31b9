package game

import (
	"github.com/pkg/errors"

	"huddle.com/server/poker"
)

// showdownWinners returns the seat indexes that win the pot. A lone player
// still in the hand wins without a showdown. Hands are only compared when
// every contender holds two cards and the board is complete; otherwise the
// contenders share the pot.
func showdownWinners(g *TexasHoldemGame) ([]int, error) {
	contenders := make([]int, 0, len(g.Players))
	for i, p := range g.Players {
		if !p.IsFolded {
			contenders = append(contenders, i)
		}
	}
	if len(contenders) <= 1 || !canEvaluate(g, contenders) {
		return contenders, nil
	}

	var best int16
	winners := make([]int, 0, 1)
	for _, idx := range contenders {
		score, err := poker.ScoreHoldem(g.Players[idx].Hand, g.CommunityCards)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluating hand of %s", g.Players[idx].UserID)
		}
		switch {
		case len(winners) == 0 || score > best:
			best = score
			winners = append(winners[:0], idx)
		case score == best:
			winners = append(winners, idx)
		}
	}
	return winners, nil
}

func canEvaluate(g *TexasHoldemGame, contenders []int) bool {
	if len(g.CommunityCards) != 5 {
		return false
	}
	for _, idx := range contenders {
		if len(g.Players[idx].Hand) != 2 {
			return false
		}
	}
	return true
}
