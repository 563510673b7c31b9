package game

import "huddle.com/server/util"

var (
	ErrInsufficientPlayers = util.NewKindError(util.KindCapacityExceeded, "InsufficientPlayers", "at least 2 players are required")
	ErrTooManyPlayers      = util.NewKindError(util.KindCapacityExceeded, "TooManyPlayers", "at most 10 players are allowed")
	ErrDuplicatePlayer     = util.NewKindError(util.KindInvalidInput, "DuplicatePlayer", "player is listed more than once")
	ErrInvalidPlayer       = util.NewKindError(util.KindInvalidInput, "InvalidPlayer", "player id is empty")
	ErrInvalidAmount       = util.NewKindError(util.KindInvalidInput, "InvalidAmount", "amount must be positive")
	ErrPlayerNotFound      = util.NewKindError(util.KindNotFound, "PlayerNotFound", "player is not seated in the game")
	ErrInsufficientChips   = util.NewKindError(util.KindInsufficientResource, "InsufficientChips", "player does not have enough chips")
	ErrPlayerFolded        = util.NewKindError(util.KindIllegalState, "PlayerFolded", "player has folded")
	ErrLastPlayer          = util.NewKindError(util.KindIllegalState, "LastPlayerInHand", "the last player in the hand cannot fold")
	ErrNoActiveGame        = util.NewKindError(util.KindIllegalState, "NoActiveGame", "no game is active")
	ErrBettingClosed       = util.NewKindError(util.KindIllegalState, "BettingClosed", "betting is closed for this hand")
	ErrGameEnded           = util.NewKindError(util.KindIllegalState, "GameEnded", "game has already ended")
)
