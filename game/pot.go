package game

type payout struct {
	index  int
	amount int
}

// settlePot computes the pot distribution without mutating the game.
func settlePot(g *TexasHoldemGame) ([]payout, error) {
	winners, err := showdownWinners(g)
	if err != nil {
		return nil, err
	}
	return splitPot(g.Pot, winners), nil
}

// splitPot divides the pot evenly. Odd chips go one at a time to the winners
// in seat order.
func splitPot(pot int, winners []int) []payout {
	if len(winners) == 0 {
		return nil
	}
	share := pot / len(winners)
	remainder := pot % len(winners)
	payouts := make([]payout, len(winners))
	for i, idx := range winners {
		payouts[i] = payout{index: idx, amount: share}
		if i < remainder {
			payouts[i].amount++
		}
	}
	return payouts
}
