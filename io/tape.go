package io

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"

	"github.com/ezrec/iasim/memory"
)

// Tape provides sequential I/O of decimal words.
// Input words are separated by any whitespace; output words are written
// one per line.
type Tape struct {
	Input  io.Reader
	Output io.Writer

	scanner   *bufio.Scanner
	readIndex int
	err       error
}

var _ Channel = (*Tape)(nil)

// Rewind seeks the input back to the start, if it can seek.
func (tc *Tape) Rewind() {
	tc.scanner = nil
	tc.readIndex = 0
	tc.err = nil

	seeker, ok := tc.Input.(io.Seeker)
	if ok {
		_, tc.err = seeker.Seek(0, io.SeekStart)
	}
}

// Receive returns an iterator that yields words from the input stream.
// Iteration stops at end of input or at the first malformed word; Err
// reports which.
func (tc *Tape) Receive() iter.Seq[memory.Word] {
	return func(yield func(value memory.Word) bool) {
		if tc.Input == nil || tc.err != nil {
			return
		}
		if tc.scanner == nil {
			tc.scanner = bufio.NewScanner(tc.Input)
			tc.scanner.Split(bufio.ScanWords)
		}

		for tc.scanner.Scan() {
			text := tc.scanner.Text()
			value, err := strconv.ParseInt(text, 10, 32)
			if err != nil {
				tc.err = &ErrFeedSyntax{Index: tc.readIndex, Text: text}
				return
			}
			tc.readIndex++
			if !yield(memory.Word(value)) {
				return
			}
		}

		tc.err = tc.scanner.Err()
	}
}

// Send writes a word to the output stream as a decimal line.
func (tc *Tape) Send(value memory.Word) (err error) {
	if tc.Output == nil {
		err = ErrChannelFull
		return
	}

	_, err = fmt.Fprintln(tc.Output, int32(value))
	return
}

// Err returns the error that stopped the last Receive.
func (tc *Tape) Err() error {
	return tc.err
}

// ReadWords reads every decimal word from input.
func ReadWords(input io.Reader) (words []memory.Word, err error) {
	tape := &Tape{Input: input}
	for word := range tape.Receive() {
		words = append(words, word)
	}

	err = tape.Err()
	return
}

// LoadMemory fills mem from the channel, starting at address 0.
// A channel with fewer words than mem holds is an error unless partial is
// set, in which case the remaining cells keep their contents.
func LoadMemory(mem *memory.Memory, ch Channel, partial bool) (err error) {
	count := mem.Import(ch.Receive())

	err = ch.Err()
	if err != nil {
		return
	}

	if count < mem.Size() && !partial {
		err = &ErrFeedCount{Want: mem.Size(), Got: count}
		return
	}

	return
}

// SaveMemory writes the memory dump, addresses 1 onward, to the channel.
func SaveMemory(mem *memory.Memory, ch Channel) (err error) {
	for _, value := range mem.Dump() {
		err = ch.Send(value)
		if err != nil {
			return
		}
	}

	return
}
