// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"strconv"

	"github.com/ezrec/iasim/cache"
	"github.com/ezrec/iasim/cpu"
	"github.com/ezrec/iasim/internal"
	"github.com/ezrec/iasim/memory"

	iasio "github.com/ezrec/iasim/io"
)

// Config selects the machine geometry and the checking policy.
type Config struct {
	MemorySize    int  // Words of main memory.
	CacheSize     int  // Lines of cache.
	BoundsCheck   bool // If set, out of range operands are runtime errors.
	PartialMemory bool // If set, a short memory feed leaves the rest zeroed.
	Verbose       bool // If set, enables verbose logging.
}

// DefaultConfig returns the standard machine: 2^19 words of memory behind
// a ten line cache, with bounds checking on.
func DefaultConfig() Config {
	return Config{
		MemorySize:  memory.MEMORY_SIZE,
		CacheSize:   cache.CACHE_SIZE,
		BoundsCheck: true,
	}
}

// Emulator state. CPU + cache + memory + program feed.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently loaded program listing.

	Rom iasio.Rom // Program words, as loaded.

	config Config
}

// NewEmulator creates a new emulator.
func NewEmulator(config Config) (emu *Emulator) {
	emu = &Emulator{
		Verbose: config.Verbose,
		Cpu:     cpu.NewCpu(config.MemorySize, config.CacheSize),
		Program: &cpu.Program{},
		config:  config,
	}

	emu.Cpu.BoundsCheck = config.BoundsCheck

	return
}

// Config returns the configuration the emulator was created with.
func (emu *Emulator) Config() Config {
	return emu.config
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	bounds := "0"
	if emu.config.BoundsCheck {
		bounds = "1"
	}

	defines := map[string]string{
		"BOUNDS_CHECK": bounds,
	}

	return internal.IterSeq2Concat(maps.All(defines),
		emu.Cpu.Defines(),
	)
}

// LoadMemory zeros main memory, then fills it from a decimal word feed.
func (emu *Emulator) LoadMemory(input io.Reader) (err error) {
	emu.Cpu.Memory.Reset()

	tape := &iasio.Tape{Input: input}
	err = iasio.LoadMemory(emu.Cpu.Memory, tape, emu.config.PartialMemory)
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: memory loaded, %d words", emu.Cpu.Memory.Size())
	}

	return
}

// LoadProgram reads a program as a decimal word feed, one instruction
// word per entry.
func (emu *Emulator) LoadProgram(input io.Reader) (err error) {
	words, err := iasio.ReadWords(input)
	if err != nil {
		return
	}

	prog := &cpu.Program{}
	for n, word := range words {
		code := cpu.Code(word)
		prog.Opcodes = append(prog.Opcodes, cpu.Opcode{
			LineNo: n + 1,
			Words:  []string{".word", strconv.Itoa(int(word))},
			Code:   code,
		})
	}

	emu.SetProgram(prog)

	return
}

// Assemble compiles assembly source into the program.
// The emulator defines are available to the source as equates.
func (emu *Emulator) Assemble(input io.Reader) (err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	emu.SetProgram(prog)

	return
}

// SetProgram replaces the program, and rewinds to its first instruction.
func (emu *Emulator) SetProgram(prog *cpu.Program) {
	emu.Program = prog

	emu.Rom.Data = emu.Rom.Data[:0]
	for _, code := range prog.Binary() {
		emu.Rom.Data = append(emu.Rom.Data, memory.Word(code))
	}

	emu.Cpu.Program = prog.Binary()
	emu.Cpu.PC = 0
}

// SaveProgram writes the program words as a decimal word feed.
func (emu *Emulator) SaveProgram(output io.Writer) (err error) {
	tape := &iasio.Tape{Output: output}
	for word := range emu.Rom.Receive() {
		err = tape.Send(word)
		if err != nil {
			return
		}
	}

	return
}

// Reset the CPU and cache state. Memory and program are kept.
func (emu *Emulator) Reset() {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Ip returns current instruction pointer.
func (emu *Emulator) Ip() int {
	return emu.Cpu.PC
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	op := emu.Program.Debug(emu.Cpu.PC)
	if op == nil {
		return 0
	}

	return op.LineNo
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	ip := emu.Ip()
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Ip: ip, LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	if errors.Is(err, cpu.ErrIpEmpty) {
		err = nil
		done = true
		return
	}

	return
}

// Run ticks the emulator until the program ends or fails.
func (emu *Emulator) Run() (err error) {
	for done := false; !done; {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	if emu.Verbose {
		log.Printf("emulator: halted after %d ticks", emu.Ticks())
	}

	return
}

// Report writes the cache hit and miss counts.
func (emu *Emulator) Report(output io.Writer) (err error) {
	stats := emu.Cpu.Cache.Stats()
	_, err = fmt.Fprintf(output, "Cache hits: %d\nCache misses: %d\n", stats.Hits, stats.Misses)
	return
}

// Dump writes memory addresses 1 onward, one decimal word per line.
func (emu *Emulator) Dump(output io.Writer) (err error) {
	tape := &iasio.Tape{Output: output}
	err = iasio.SaveMemory(emu.Cpu.Memory, tape)
	return
}
