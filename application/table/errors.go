package table

import "errors"

// Rejections returned by Machine.Apply. The game is left untouched whenever one is returned.
var (
	ErrInvalidPhase    = errors.New("invalid phase")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrTableFull       = errors.New("table full")
	ErrAlreadySeated   = errors.New("already seated")
	ErrStakeOutOfRange = errors.New("stake out of range")
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrInvalidBet      = errors.New("invalid bet")
	ErrWrongGame       = errors.New("wrong game")
	ErrInvalidReveal   = errors.New("invalid reveal")
	ErrForbidden       = errors.New("forbidden")
)
