package emulator

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/iasim/cache"
	"github.com/ezrec/iasim/cpu"
	"github.com/ezrec/iasim/memory"

	iasio "github.com/ezrec/iasim/io"
)

const testMemorySize = 32

// memoryFeed returns a full memory feed, zero except for words.
func memoryFeed(words map[int]int) string {
	cells := make([]string, testMemorySize)
	for address := range cells {
		cells[address] = fmt.Sprintf("%d", words[address])
	}
	return strings.Join(cells, "\n")
}

// programFeed returns a program feed of instruction words.
func programFeed(codes ...cpu.Code) string {
	var text []string
	for _, code := range codes {
		text = append(text, fmt.Sprintf("%d", int32(code)))
	}
	return strings.Join(text, " ")
}

func newTestEmulator() (emu *Emulator, output *bytes.Buffer) {
	config := DefaultConfig()
	config.MemorySize = testMemorySize
	emu = NewEmulator(config)
	output = &bytes.Buffer{}
	emu.Cpu.Output = output
	return
}

func doRun(t *testing.T, words map[int]int, codes ...cpu.Code) (emu *Emulator, output *bytes.Buffer, err error) {
	assert := assert.New(t)

	emu, output = newTestEmulator()
	assert.NoError(emu.LoadMemory(strings.NewReader(memoryFeed(words))))
	assert.NoError(emu.LoadProgram(strings.NewReader(programFeed(codes...))))

	emu.Reset()
	err = emu.Run()
	return
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(DefaultConfig())

	assert.False(emu.Verbose)
	assert.True(emu.Cpu.BoundsCheck)
	assert.Equal(memory.MEMORY_SIZE, emu.Cpu.Memory.Size())
	assert.Equal(cache.CACHE_SIZE, emu.Cpu.Cache.Size())
	assert.Equal(DefaultConfig(), emu.Config())

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
}

func TestEmulator_Defines(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator()

	defines := map[string]string{}
	for key, value := range emu.Defines() {
		defines[key] = value
	}

	assert.Equal("1", defines["BOUNDS_CHECK"])
	assert.Equal("32", defines["MEMORY_SIZE"])
	assert.Equal("10", defines["CACHE_SIZE"])
	assert.Equal("33", defines["OP_STORE"])
}

func TestEmulator_LoadZero(t *testing.T) {
	assert := assert.New(t)

	emu, output, err := doRun(t, nil, cpu.Code(0x01000005))
	assert.NoError(err)

	assert.Equal(memory.Word(0), emu.Cpu.AC)
	assert.Equal(memory.Word(0), emu.Cpu.MQ)
	assert.Empty(output.String())

	report := &bytes.Buffer{}
	assert.NoError(emu.Report(report))
	assert.Equal("Cache hits: 0\nCache misses: 1\n", report.String())
}

func TestEmulator_StoreMiss(t *testing.T) {
	assert := assert.New(t)

	emu, _, err := doRun(t, map[int]int{5: 42},
		cpu.MakeCode(cpu.OP_LOAD, 5),
		cpu.MakeCode(cpu.OP_STORE, 6),
	)
	assert.NoError(err)

	dump := &bytes.Buffer{}
	assert.NoError(emu.Dump(dump))
	lines := strings.Split(strings.TrimSuffix(dump.String(), "\n"), "\n")
	assert.Len(lines, testMemorySize-1)
	// Dump line n is address n+1.
	assert.Equal("42", lines[4])
	assert.Equal("42", lines[5])
}

func TestEmulator_StoreHit(t *testing.T) {
	assert := assert.New(t)

	emu, _, err := doRun(t, map[int]int{5: 42, 6: 7},
		cpu.MakeCode(cpu.OP_LOAD, 6),
		cpu.MakeCode(cpu.OP_LOAD, 5),
		cpu.MakeCode(cpu.OP_STORE, 6),
	)
	assert.NoError(err)

	// The line holds the store, memory does not.
	assert.Equal(memory.Word(7), emu.Cpu.Memory.Read(6))
	assert.Equal(memory.Word(42), emu.Cpu.Cache.Line(6).Content)

	dump := &bytes.Buffer{}
	assert.NoError(emu.Dump(dump))
	assert.True(strings.HasPrefix(dump.String(), "0\n0\n0\n0\n42\n7\n"))
}

func TestEmulator_HitAfterMiss(t *testing.T) {
	assert := assert.New(t)

	emu, _, err := doRun(t, nil,
		cpu.MakeCode(cpu.OP_LOAD, 5),
		cpu.MakeCode(cpu.OP_LOAD, 5),
	)
	assert.NoError(err)

	report := &bytes.Buffer{}
	assert.NoError(emu.Report(report))
	assert.Equal("Cache hits: 1\nCache misses: 1\n", report.String())
}

func TestEmulator_DivideByZero(t *testing.T) {
	assert := assert.New(t)

	emu, output, err := doRun(t, map[int]int{1: 10},
		cpu.MakeCode(cpu.OP_LOAD, 1),
		cpu.MakeCode(cpu.OP_DIVIDE, 3),
		cpu.MakeCode(cpu.OP_PRINT, 1),
	)
	assert.ErrorIs(err, cpu.ErrDivideByZero)

	var errRuntime *ErrRuntime
	if assert.ErrorAs(err, &errRuntime) {
		assert.Equal(1, errRuntime.Ip)
		assert.Equal(2, errRuntime.LineNo)
	}

	// Halted before PRINT.
	assert.Empty(output.String())
	assert.Equal(1, emu.Ip())
	assert.Equal(1, emu.Ticks())
}

func TestEmulator_OutOfRange(t *testing.T) {
	assert := assert.New(t)

	_, _, err := doRun(t, nil, cpu.MakeCode(cpu.OP_LOAD, testMemorySize))
	assert.ErrorIs(err, cpu.ErrAddressRange)
}

func TestEmulator_Replay(t *testing.T) {
	assert := assert.New(t)

	emu, output, err := doRun(t, map[int]int{3: 3, 13: 13},
		cpu.MakeCode(cpu.OP_LOAD, 3),
		cpu.MakeCode(cpu.OP_ADD, 13),
		cpu.MakeCode(cpu.OP_STORE, 23),
		cpu.MakeCode(cpu.OP_PRINT, 3),
		cpu.MakeCode(cpu.OP_PRINT, 23),
	)
	assert.NoError(err)
	first := emu.Cpu.Cache.Stats()
	assert.Equal("3\n16\n", output.String())

	emu.Reset()
	output.Reset()
	assert.NoError(emu.Run())
	assert.Equal(first, emu.Cpu.Cache.Stats())
	assert.Equal("3\n16\n", output.String())
}

func TestEmulator_IO(t *testing.T) {
	assert := assert.New(t)

	emu, output, err := doRun(t, map[int]int{4: 9},
		cpu.MakeCode(cpu.OP_LOAD, 4),
		cpu.MakeCode(cpu.OP_STORE_IO, 0),
		cpu.MakeCode(cpu.OP_LOAD_IO, 0),
	)
	assert.NoError(err)

	assert.Equal("IORegister = 9\nIORegister = 9\n", output.String())
	assert.Equal(memory.Word(9), emu.Cpu.AC)
}

func TestEmulator_LoadMemory(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator()

	err := emu.LoadMemory(strings.NewReader("1 2 3"))
	assert.ErrorIs(err, iasio.ErrFeedShort)

	err = emu.LoadMemory(strings.NewReader("1 2 x"))
	var errSyntax *iasio.ErrFeedSyntax
	assert.ErrorAs(err, &errSyntax)

	config := emu.Config()
	config.PartialMemory = true
	emu = NewEmulator(config)
	emu.Cpu.Memory.Write(7, 99)
	assert.NoError(emu.LoadMemory(strings.NewReader("1 2 3")))
	assert.Equal(memory.Word(3), emu.Cpu.Memory.Read(2))
	assert.Equal(memory.Word(0), emu.Cpu.Memory.Read(7))
}

func TestEmulator_LoadProgram(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator()

	assert.NoError(emu.LoadProgram(strings.NewReader("16777221\n553648134\n")))
	assert.Equal([]cpu.Code{0x01000005, 0x21000006}, emu.Cpu.Program)
	assert.Len(emu.Program.Opcodes, 2)
	assert.Equal(2, emu.Program.Opcodes[1].LineNo)

	assert.Error(emu.LoadProgram(strings.NewReader("1 load")))
}

func TestEmulator_Assemble(t *testing.T) {
	assert := assert.New(t)

	emu, output := newTestEmulator()
	assert.NoError(emu.LoadMemory(strings.NewReader(memoryFeed(map[int]int{5: 42, 31: 8}))))

	source := strings.Join([]string{
		".equ VALUE 5",
		"load M(VALUE)  ; AC = 42",
		"add $(MEMORY_SIZE-1)",
		"store 6",
		"print 6",
	}, "\n")
	assert.NoError(emu.Assemble(strings.NewReader(source)))
	assert.Equal([]cpu.Code{
		cpu.MakeCode(cpu.OP_LOAD, 5),
		cpu.MakeCode(cpu.OP_ADD, 31),
		cpu.MakeCode(cpu.OP_STORE, 6),
		cpu.MakeCode(cpu.OP_PRINT, 6),
	}, emu.Cpu.Program)

	emu.Reset()
	assert.NoError(emu.Run())
	assert.Equal("50\n", output.String())

	saved := &bytes.Buffer{}
	assert.NoError(emu.SaveProgram(saved))
	assert.Equal("16777221\n83886111\n553648134\n67108870\n", saved.String())

	var errSyntax *cpu.ErrSyntax
	assert.ErrorAs(emu.Assemble(strings.NewReader("bogus 1")), &errSyntax)
}
