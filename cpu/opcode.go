package cpu

import (
	"fmt"
	"strings"

	"github.com/ezrec/iasim/memory"
)

// Instruction word layout.
const (
	OPCODE_SHIFT = 24         // Opcode is bits 31..24.
	OPERAND_MASK = 0x00ffffff // Operand is bits 23..0.
	RESULT_MASK  = 0x000fff   // Bits of MQ copied to AC by MUL and DIV.
)

// CodeOp is an instruction opcode.
type CodeOp int

const (
	OP_LOAD           = CodeOp(1)  // load
	OP_LOAD_IO        = CodeOp(2)  // load_io
	OP_STORE_IO       = CodeOp(3)  // store_io
	OP_PRINT          = CodeOp(4)  // print
	OP_ADD            = CodeOp(5)  // add
	OP_SUBTRACT       = CodeOp(6)  // sub
	OP_ADD_FLOAT      = CodeOp(7)  // addf
	OP_SUBTRACT_FLOAT = CodeOp(8)  // subf
	OP_LOAD_MQ        = CodeOp(9)  // load_mq
	OP_MQ_TO_AC       = CodeOp(10) // mq_to_ac
	OP_MULTIPLY       = CodeOp(11) // mul
	OP_DIVIDE         = CodeOp(12) // div
	OP_MULTIPLY_FLOAT = CodeOp(13) // mulf
	OP_DIVIDE_FLOAT   = CodeOp(14) // divf
	OP_STORE          = CodeOp(33) // store
)

// _codeop_name maps opcodes to their mnemonic.
var _codeop_name = map[CodeOp]string{
	OP_LOAD:           "load",
	OP_LOAD_IO:        "load_io",
	OP_STORE_IO:       "store_io",
	OP_PRINT:          "print",
	OP_ADD:            "add",
	OP_SUBTRACT:       "sub",
	OP_ADD_FLOAT:      "addf",
	OP_SUBTRACT_FLOAT: "subf",
	OP_LOAD_MQ:        "load_mq",
	OP_MQ_TO_AC:       "mq_to_ac",
	OP_MULTIPLY:       "mul",
	OP_DIVIDE:         "div",
	OP_MULTIPLY_FLOAT: "mulf",
	OP_DIVIDE_FLOAT:   "divf",
	OP_STORE:          "store",
}

// String returns the mnemonic of the opcode.
func (op CodeOp) String() string {
	name, ok := _codeop_name[op]
	if !ok {
		return fmt.Sprintf("CodeOp(%d)", int(op))
	}
	return name
}

// Valid is true if the opcode has defined semantics.
func (op CodeOp) Valid() bool {
	_, ok := _codeop_name[op]
	return ok
}

// Define returns the assembler equate name of the opcode.
func (op CodeOp) Define() string {
	return "OP_" + strings.ToUpper(op.String())
}

// Code is a single instruction word.
type Code memory.Word

// MakeCode creates an instruction word from an opcode and operand.
func MakeCode(op CodeOp, operand int) Code {
	return Code((int32(op) << OPCODE_SHIFT) | int32(operand&OPERAND_MASK))
}

// Op returns the opcode, the top 8 bits of the word.
// Words with bit 31 set have a negative opcode.
func (code Code) Op() CodeOp {
	return CodeOp(int32(code) >> OPCODE_SHIFT)
}

// Operand returns the operand address, the low 24 bits of the word.
func (code Code) Operand() int {
	return int(int32(code) & OPERAND_MASK)
}

// String returns the assembly language representation of this instruction.
func (code Code) String() string {
	return fmt.Sprintf("%v M(0x%06x)", code.Op(), code.Operand())
}
