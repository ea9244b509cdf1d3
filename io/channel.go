// Package io provides the word feeds of the IAS emulator: decimal text
// streams for the initial memory image, the program and the memory dump,
// and in-memory word sources.
package io

import (
	"iter"

	"github.com/ezrec/iasim/memory"
)

// Channel defines the interface for all word feeds.
type Channel interface {
	// Rewind resets the channel to its initial state.
	Rewind()
	// Receive returns an iterator that yields words from the channel.
	Receive() iter.Seq[memory.Word]
	// Send writes a single word to the channel.
	Send(value memory.Word) error
	// Err returns the error, if any, that stopped the last Receive.
	Err() error
}
