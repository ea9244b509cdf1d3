package io

import (
	"iter"
	"slices"

	"github.com/ezrec/iasim/memory"
)

// Rom is a read-only, in-memory word feed.
type Rom struct {
	Data []memory.Word
}

var _ Channel = (*Rom)(nil)

// Rewind is a no-op; every Receive starts from the first word.
func (rc *Rom) Rewind() {
}

func (rc *Rom) Receive() iter.Seq[memory.Word] {
	return slices.Values(rc.Data)
}

func (rc *Rom) Send(value memory.Word) error {
	return ErrChannelFull
}

func (rc *Rom) Err() error {
	return nil
}
