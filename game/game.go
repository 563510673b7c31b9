package game

import (
	"math/rand"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"huddle.com/server/logging"
	"huddle.com/server/poker"
	"huddle.com/server/util"
)

var engineLogger = log.With().Str("logger_name", "game::engine").Logger()

// Engine owns at most one active hold'em game. All mutations are serialized
// by the engine lock and a rejected call never changes the game.
type Engine struct {
	lock     sync.Mutex
	active   *TexasHoldemGame
	deck     *poker.Deck
	deckFunc DeckFunc
	logger   zerolog.Logger
}

// DeckFunc builds the deck for a deal. Cards in exclude are already in play
// and must not be in the returned deck.
type DeckFunc func(exclude []poker.Card) (*poker.Deck, error)

type EngineOption func(*Engine)

// WithRandSource makes dealing reproducible. The source is only used under
// the engine lock, so it must belong to a single engine. Use
// WithSourceFactory for options shared by an Arena.
func WithRandSource(source rand.Source) EngineOption {
	return func(e *Engine) {
		e.deckFunc = shuffledDecks(source)
	}
}

// WithSourceFactory gives every engine built with the option its own source.
func WithSourceFactory(newSource func() rand.Source) EngineOption {
	return func(e *Engine) {
		e.deckFunc = shuffledDecks(newSource())
	}
}

// WithStackedDeck deals from a fixed card order given in byte form. Cards in
// play are skipped and the order of the rest is kept.
func WithStackedDeck(cardsInByte []byte) EngineOption {
	return func(e *Engine) {
		e.deckFunc = func(exclude []poker.Card) (*poker.Deck, error) {
			deck, err := poker.DeckFromBytes(cardsInByte)
			if err != nil {
				return nil, errors.Wrap(err, "stacked deck")
			}
			return deck.Without(exclude), nil
		}
	}
}

func shuffledDecks(source rand.Source) DeckFunc {
	return func(exclude []poker.Card) (*poker.Deck, error) {
		return poker.NewDeckWithout(source, exclude), nil
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:   engineLogger,
		deckFunc: shuffledDecks(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) StartGame(roomID string, playerIDs []string) (TexasHoldemGame, error) {
	if len(playerIDs) < MinPlayers {
		return TexasHoldemGame{}, errors.Wrapf(ErrInsufficientPlayers, "room %s has %d players", roomID, len(playerIDs))
	}
	if len(playerIDs) > MaxPlayers {
		return TexasHoldemGame{}, errors.Wrapf(ErrTooManyPlayers, "room %s has %d players", roomID, len(playerIDs))
	}
	seen := make(map[string]bool, len(playerIDs))
	players := make([]Player, 0, len(playerIDs))
	for i, id := range playerIDs {
		if id == "" {
			return TexasHoldemGame{}, errors.Wrapf(ErrInvalidPlayer, "seat %d", i)
		}
		if seen[id] {
			return TexasHoldemGame{}, errors.Wrapf(ErrDuplicatePlayer, "player %s", id)
		}
		seen[id] = true
		players = append(players, newPlayer(id, i))
	}

	g := &TexasHoldemGame{
		RoomID:         roomID,
		Players:        players,
		CommunityCards: []poker.Card{},
		Phase:          PhasePreFlop,
	}

	e.lock.Lock()
	defer e.lock.Unlock()
	if e.active != nil {
		e.logger.Info().Str(logging.RoomIDKey, e.active.RoomID).Msg("Replacing active game")
	}
	e.active = g
	e.deck = nil
	e.logger = logging.ForRoom(engineLogger, roomID)
	e.logger.Info().Int("players", len(players)).Msg("Game started")
	util.Metrics.GameStarted()
	return g.clone(), nil
}

// DealCards deals two hole cards to every player from a freshly shuffled
// deck. Cards already on the board are kept out of the new deck, so no card
// repeats within the game.
func (e *Engine) DealCards() (TexasHoldemGame, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	g, err := e.activeGame()
	if err != nil {
		return TexasHoldemGame{}, err
	}
	if !g.Phase.bettingOpen() {
		return TexasHoldemGame{}, errors.Wrapf(ErrBettingClosed, "cannot deal in %s", g.Phase)
	}

	deck, err := e.deckFunc(g.CommunityCards)
	if err != nil {
		return TexasHoldemGame{}, err
	}
	hands := make([][]poker.Card, len(g.Players))
	for i := range g.Players {
		cards, err := deck.Draw(2)
		if err != nil {
			return TexasHoldemGame{}, errors.Wrap(err, "dealing hole cards")
		}
		hands[i] = cards
	}
	for i := range g.Players {
		g.Players[i].Hand = hands[i]
	}
	e.deck = deck
	g.HandsDealt++
	e.logger.Debug().Int("handsDealt", g.HandsDealt).Msg("Hole cards dealt")
	return g.clone(), nil
}

func (e *Engine) Bet(playerID string, amount int) (TexasHoldemGame, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	g, p, err := e.bettingPlayer(playerID)
	if err != nil {
		return TexasHoldemGame{}, err
	}
	if amount <= 0 {
		return TexasHoldemGame{}, errors.Wrapf(ErrInvalidAmount, "bet %d by %s", amount, playerID)
	}
	if amount > p.Chips {
		return TexasHoldemGame{}, errors.Wrapf(ErrInsufficientChips, "bet %d by %s with %d chips", amount, playerID, p.Chips)
	}
	e.commit(g, p, amount)
	e.logger.Debug().Str(logging.PlayerIDKey, playerID).Int("amount", amount).Msg("Bet")
	return g.clone(), nil
}

// Call matches the table bet. A player who already matched it gets a no-op.
func (e *Engine) Call(playerID string) (TexasHoldemGame, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	g, p, err := e.bettingPlayer(playerID)
	if err != nil {
		return TexasHoldemGame{}, err
	}
	toCall := g.CurrentBet - p.CurrentBet
	if toCall <= 0 {
		return g.clone(), nil
	}
	if toCall > p.Chips {
		return TexasHoldemGame{}, errors.Wrapf(ErrInsufficientChips, "call %d by %s with %d chips", toCall, playerID, p.Chips)
	}
	e.commit(g, p, toCall)
	e.logger.Debug().Str(logging.PlayerIDKey, playerID).Int("amount", toCall).Msg("Call")
	return g.clone(), nil
}

// Raise puts in the amount needed to call plus amount on top of it.
func (e *Engine) Raise(playerID string, amount int) (TexasHoldemGame, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	g, p, err := e.bettingPlayer(playerID)
	if err != nil {
		return TexasHoldemGame{}, err
	}
	if amount <= 0 {
		return TexasHoldemGame{}, errors.Wrapf(ErrInvalidAmount, "raise %d by %s", amount, playerID)
	}
	toCall := g.CurrentBet - p.CurrentBet
	if toCall < 0 {
		toCall = 0
	}
	// compared by subtraction so a huge amount cannot wrap the sum
	if toCall > p.Chips || amount > p.Chips-toCall {
		return TexasHoldemGame{}, errors.Wrapf(ErrInsufficientChips, "raise %d over %d by %s with %d chips", amount, toCall, playerID, p.Chips)
	}
	total := toCall + amount
	e.commit(g, p, total)
	g.CurrentBet = p.CurrentBet
	e.logger.Debug().Str(logging.PlayerIDKey, playerID).Int("amount", total).Msg("Raise")
	return g.clone(), nil
}

func (e *Engine) Fold(playerID string) (TexasHoldemGame, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	g, p, err := e.bettingPlayer(playerID)
	if err != nil {
		return TexasHoldemGame{}, err
	}
	if g.contenders() == 1 {
		return TexasHoldemGame{}, errors.Wrapf(ErrLastPlayer, "player %s", playerID)
	}
	p.IsFolded = true
	e.logger.Debug().Str(logging.PlayerIDKey, playerID).Msg("Fold")
	return g.clone(), nil
}

// NextPhase advances exactly one phase. Entering flop, turn and river deals
// 3, 1 and 1 community cards and opens a new betting round. Entering
// showdown settles the pot.
func (e *Engine) NextPhase() (TexasHoldemGame, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	g, err := e.activeGame()
	if err != nil {
		return TexasHoldemGame{}, err
	}
	if g.Phase == PhaseEnded {
		return TexasHoldemGame{}, errors.Wrapf(ErrGameEnded, "room %s", g.RoomID)
	}
	next := g.Phase + 1

	var board []poker.Card
	if n := next.communityCardsToDeal(); n > 0 {
		if e.deck == nil {
			deck, err := e.deckFunc(g.cardsInPlay())
			if err != nil {
				return TexasHoldemGame{}, err
			}
			e.deck = deck
		}
		board, err = e.deck.Draw(n)
		if err != nil {
			return TexasHoldemGame{}, errors.Wrapf(err, "dealing %s", next)
		}
	}

	var payouts []payout
	if next == PhaseShowdown {
		payouts, err = settlePot(g)
		if err != nil {
			return TexasHoldemGame{}, err
		}
	}

	g.CommunityCards = append(g.CommunityCards, board...)
	if next.bettingOpen() {
		g.CurrentBet = 0
		for i := range g.Players {
			g.Players[i].CurrentBet = 0
		}
	}
	if next == PhaseShowdown {
		g.Winners = make([]string, 0, len(payouts))
		for _, po := range payouts {
			g.Players[po.index].Chips += po.amount
			g.Winners = append(g.Winners, g.Players[po.index].UserID)
		}
		if len(payouts) > 0 {
			g.Pot = 0
		}
	}
	g.Phase = next

	e.logger.Info().Str(logging.PhaseKey, next.String()).Str("board", poker.CardsToString(g.CommunityCards)).Msg("Phase advanced")
	util.Metrics.PhaseAdvanced(next.String())
	return g.clone(), nil
}

// EndGame clears the active game. Calling it without a game is not an error.
func (e *Engine) EndGame() {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.active != nil {
		e.logger.Info().Msg("Game ended")
	}
	e.active = nil
	e.deck = nil
}

func (e *Engine) ActiveGame() (TexasHoldemGame, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	g, err := e.activeGame()
	if err != nil {
		return TexasHoldemGame{}, err
	}
	return g.clone(), nil
}

func (e *Engine) HasActiveGame() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.active != nil
}

func (e *Engine) activeGame() (*TexasHoldemGame, error) {
	if e.active == nil {
		return nil, ErrNoActiveGame
	}
	return e.active, nil
}

// bettingPlayer resolves the acting player and checks the hand still accepts actions.
func (e *Engine) bettingPlayer(playerID string) (*TexasHoldemGame, *Player, error) {
	g, err := e.activeGame()
	if err != nil {
		return nil, nil, err
	}
	if !g.Phase.bettingOpen() {
		return nil, nil, errors.Wrapf(ErrBettingClosed, "phase %s", g.Phase)
	}
	idx := g.playerIndex(playerID)
	if idx < 0 {
		return nil, nil, errors.Wrapf(ErrPlayerNotFound, "player %s", playerID)
	}
	p := &g.Players[idx]
	if p.IsFolded {
		return nil, nil, errors.Wrapf(ErrPlayerFolded, "player %s", playerID)
	}
	return g, p, nil
}

func (e *Engine) commit(g *TexasHoldemGame, p *Player, amount int) {
	p.commit(amount)
	g.Pot += amount
	if p.CurrentBet > g.CurrentBet {
		g.CurrentBet = p.CurrentBet
	}
}
