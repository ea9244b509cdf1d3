package cpu

import (
	"iter"
)

// Opcode is a line of assembled code with its source location.
type Opcode struct {
	LineNo int
	Words  []string
	Code   Code
}

// Program is an assembled instruction stream. Instruction n is Opcodes[n].
type Program struct {
	Opcodes []Opcode
}

// Debug returns the opcode assembled for the instruction at pc, or nil.
func (prog *Program) Debug(pc int) (op *Opcode) {
	if prog == nil || pc < 0 || pc >= len(prog.Opcodes) {
		return
	}

	op = &prog.Opcodes[pc]
	return
}

// Binary returns the instruction words of the program.
func (prog *Program) Binary() (bins []Code) {
	for _, code := range prog.Codes() {
		bins = append(bins, code)
	}

	return
}

// Codes iterates over the program counter and word of each instruction.
func (prog *Program) Codes() iter.Seq2[int, Code] {
	return func(yield func(pc int, code Code) bool) {
		for pc, op := range prog.Opcodes {
			if !yield(pc, op.Code) {
				return
			}
		}
	}
}
