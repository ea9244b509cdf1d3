package cpu

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/iasim/cache"
	"github.com/ezrec/iasim/codec"
	"github.com/ezrec/iasim/memory"
)

// Cpu is the simulation context for the IAS processor, its cache and
// its memory.
type Cpu struct {
	Verbose     bool      // Set to enable verbose logging.
	BoundsCheck bool      // Set to report operands outside of memory as errors.
	Output      io.Writer // Destination of PRINT, float and I/O register output.

	Memory  *memory.Memory // Main memory.
	Cache   *cache.Cache   // Cache in front of Memory.
	Program []Code         // Instruction stream, indexed by PC.

	PC         int         // Index of the next instruction.
	AC         memory.Word // Accumulator.
	MQ         memory.Word // Multiplier-quotient.
	IORegister memory.Word // I/O register.
	IOTemp     memory.Word // Accumulator saved across LOAD_IO.
	FloatAC    float32     // Float result of the last float opcode.
	FloatMQ    float32     // Float MQ of the last MULF or DIVF.

	Ticks int // Instructions executed.
}

// NewCpu creates a new CPU with memorySize words of memory behind a
// cacheSize line cache.
func NewCpu(memorySize int, cacheSize int) (cpu *Cpu) {
	mem := memory.NewMemory(memorySize)

	cpu = &Cpu{
		Memory: mem,
		Cache:  cache.NewCache(cacheSize, mem),
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	defines := map[string]string{
		"MEMORY_SIZE": fmt.Sprintf("%d", cpu.Memory.Size()),
		"CACHE_SIZE":  fmt.Sprintf("%d", cpu.Cache.Size()),
	}
	for op := range _codeop_name {
		defines[op.Define()] = fmt.Sprintf("%d", int(op))
	}

	return maps.All(defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{"pc", "ac", "mq", "io", "iotmp", "fac", "fmq"}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("%d", cpu.PC)
		case "ac":
			strval = fmt.Sprintf("%08X (%d)", uint32(cpu.AC), cpu.AC)
		case "mq":
			strval = fmt.Sprintf("%08X (%d)", uint32(cpu.MQ), cpu.MQ)
		case "io":
			strval = fmt.Sprintf("%08X (%d)", uint32(cpu.IORegister), cpu.IORegister)
		case "iotmp":
			strval = fmt.Sprintf("%08X (%d)", uint32(cpu.IOTemp), cpu.IOTemp)
		case "fac":
			strval = codec.Format(cpu.FloatAC)
		case "fmq":
			strval = codec.Format(cpu.FloatMQ)
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

// Reset the CPU state.
// - Clears the registers and program counter.
// - Empties the cache and zeros its statistics.
// - Zeros the tick counter.
//
// Memory and Program are left as loaded.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.PC = 0
	cpu.AC = 0
	cpu.MQ = 0
	cpu.IORegister = 0
	cpu.IOTemp = 0
	cpu.FloatAC = 0
	cpu.FloatMQ = 0
	cpu.Ticks = 0

	cpu.Cache.Reset()
}

// FetchCode fetches the instruction at PC.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	if cpu.PC < 0 || cpu.PC >= len(cpu.Program) {
		err = ErrIpEmpty
		return
	}

	code = cpu.Program[cpu.PC]
	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	cpu.Cache.Verbose = cpu.Verbose

	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	err = cpu.Execute(code)
	return
}

// emit writes one line of output.
func (cpu *Cpu) emit(value any) (err error) {
	if cpu.Output == nil {
		return
	}

	_, err = fmt.Fprintln(cpu.Output, value)
	return
}

// Execute executes a single instruction word.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()
	if cpu.Verbose {
		log.Printf("%06d: %v", cpu.PC, code)
	}

	op := code.Op()
	operand := code.Operand()

	if cpu.BoundsCheck && !cpu.Memory.Contains(operand) {
		err = ErrAddress(operand)
		return
	}

	// Every opcode resolves its operand, even those that do not use it.
	cell := cpu.Cache.Access(operand)

	switch op {
	case OP_LOAD:
		cpu.AC = cell.Value()
		cpu.MQ = cell.Value()
	case OP_LOAD_MQ:
		cpu.MQ = cell.Value()
	case OP_MQ_TO_AC:
		cpu.AC = cpu.MQ
	case OP_STORE:
		cell.Store(cpu.AC)
	case OP_ADD:
		cpu.AC += cell.Value()
	case OP_SUBTRACT:
		cpu.AC -= cell.Value()
	case OP_MULTIPLY:
		cpu.MQ *= cell.Value()
		cpu.AC = cpu.MQ & RESULT_MASK
	case OP_DIVIDE:
		divisor := cell.Value()
		if divisor == 0 {
			err = ErrDivideByZero
			return
		}
		cpu.MQ = cpu.AC / divisor
		cpu.AC = cpu.MQ & RESULT_MASK
	case OP_ADD_FLOAT:
		cpu.FloatAC = codec.Decode(cpu.AC) + codec.Decode(cell.Value())
		err = cpu.emit(codec.Format(cpu.FloatAC))
	case OP_SUBTRACT_FLOAT:
		cpu.FloatAC = codec.Decode(cpu.AC) - codec.Decode(cell.Value())
		err = cpu.emit(codec.Format(cpu.FloatAC))
	case OP_MULTIPLY_FLOAT:
		cpu.FloatMQ = codec.Decode(cpu.MQ)
		cpu.FloatAC = codec.Decode(cpu.AC)
		cpu.FloatMQ *= codec.Decode(cell.Value())
		cpu.FloatAC = cpu.FloatMQ
		err = cpu.emit(codec.Format(cpu.FloatAC))
	case OP_DIVIDE_FLOAT:
		divisor := codec.Decode(cell.Value())
		if divisor == 0 {
			err = ErrDivideByZero
			return
		}
		cpu.FloatMQ = codec.Decode(cpu.MQ)
		cpu.FloatAC = codec.Decode(cpu.AC)
		cpu.FloatMQ = cpu.FloatAC / divisor
		cpu.FloatAC = cpu.FloatMQ
		err = cpu.emit(codec.Format(cpu.FloatAC))
	case OP_PRINT:
		err = cpu.emit(cell.Value())
	case OP_LOAD_IO, OP_STORE_IO:
		err = cpu.transfer(op)
	default:
		if cpu.Verbose {
			log.Printf("%06d: %v", cpu.PC, ErrOpcodeUnknown)
		}
	}
	if err != nil {
		return
	}

	cpu.PC++
	cpu.Ticks++

	return
}

// transfer exchanges the accumulator with the I/O register.
func (cpu *Cpu) transfer(op CodeOp) (err error) {
	switch op {
	case OP_STORE_IO:
		cpu.IORegister = cpu.AC
		cpu.AC = cpu.IOTemp
	case OP_LOAD_IO:
		cpu.IOTemp = cpu.AC
		cpu.AC = cpu.IORegister
	}

	err = cpu.emit(fmt.Sprintf("IORegister = %d", cpu.IORegister))
	return
}
