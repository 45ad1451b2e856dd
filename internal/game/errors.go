package game

import "errors"

var (
	ErrUnknownCard        = errors.New("unknown card")
	ErrUnknownAbility     = errors.New("unknown ability")
	ErrUnknownClan        = errors.New("unknown clan")
	ErrMalformedModifier  = errors.New("malformed modifier")
	ErrMalformedSelection = errors.New("malformed selection")
	ErrIllegalSelection   = errors.New("illegal selection")
	ErrMatchOver          = errors.New("match is over")
	ErrInvalidHand        = errors.New("invalid hand")
	ErrEmptyClan          = errors.New("not enough cards in clan")
)
