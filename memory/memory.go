// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package memory implements the flat word store of the IAS machine.
package memory

import (
	"iter"
	"log"
	"math/rand"
)

const (
	MEMORY_SIZE = 1 << 19 // Default number of words.
)

// Word is a single machine word.
type Word int32

// Individual memory cell
type Cell struct {
	Content Word
}

// Memory is a fixed capacity table of words, indexed by address.
//
// Read and Write do not range check the address beyond what the Go runtime
// does for slices; callers that want a reported error check Contains first.
type Memory struct {
	Cell    []Cell
	Verbose bool
}

// NewMemory creates a new zeroed memory of size words.
func NewMemory(size int) (mem *Memory) {
	mem = &Memory{
		Cell: make([]Cell, size),
	}

	return
}

// Size is the number of words in the memory.
func (mem *Memory) Size() int {
	return len(mem.Cell)
}

// Contains reports whether address names a cell of the memory.
func (mem *Memory) Contains(address int) bool {
	return address >= 0 && address < len(mem.Cell)
}

// Read the content of a cell.
func (mem *Memory) Read(address int) Word {
	return mem.Cell[address].Content
}

// Write the content of a cell.
func (mem *Memory) Write(address int, value Word) {
	if mem.Verbose {
		log.Printf("memory: [0x%06x] %d -> %d", address, mem.Cell[address].Content, value)
	}
	mem.Cell[address].Content = value
}

// Reset zeros all cells.
func (mem *Memory) Reset() {
	clear(mem.Cell)
}

// Import fills cells in address order from words, starting at address 0,
// until either the memory is full or words is exhausted.
func (mem *Memory) Import(words iter.Seq[Word]) (count int) {
	if len(mem.Cell) == 0 {
		return
	}

	for word := range words {
		mem.Cell[count].Content = word
		count++
		if count == len(mem.Cell) {
			break
		}
	}

	return
}

// Dump returns an iterator over address and content of every cell
// except address 0.
func (mem *Memory) Dump() iter.Seq2[int, Word] {
	return func(yield func(address int, value Word) bool) {
		for address := 1; address < len(mem.Cell); address++ {
			if !yield(address, mem.Cell[address].Content) {
				return
			}
		}
	}
}

// Randomize the contents.
func (mem *Memory) Randomize(seed int) {
	rands := rand.New(rand.NewSource(int64(seed)))
	for n := range mem.Cell {
		mem.Cell[n].Content = Word(rands.Uint32())
	}
}
