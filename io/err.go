package io

import (
	"errors"

	"github.com/ezrec/iasim/translate"
)

var f = translate.From

var (
	// Channel errors
	ErrChannelFull = errors.New(f("channel full"))
	ErrFeedShort   = errors.New(f("feed short"))
)

// ErrFeedSyntax is a feed token that is not a decimal word.
type ErrFeedSyntax struct {
	Index int
	Text  string
}

func (err *ErrFeedSyntax) Error() string {
	return f("word %d '%v' is not a decimal word", err.Index, err.Text)
}

// ErrFeedCount is a feed with fewer words than needed.
type ErrFeedCount struct {
	Want int
	Got  int
}

func (err *ErrFeedCount) Error() string {
	return f("feed has %d of %d words", err.Got, err.Want)
}

func (err *ErrFeedCount) Unwrap() error {
	return ErrFeedShort
}
