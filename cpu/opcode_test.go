package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_Decode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		word    Code
		op      CodeOp
		operand int
	}){
		{0x01000005, OP_LOAD, 5},
		{0x21000006, OP_STORE, 6},
		{0x0cffffff, OP_DIVIDE, 0xffffff},
		{0x0a000000, OP_MQ_TO_AC, 0},
		{16777225, OP_LOAD, 9},
		{-1, CodeOp(-1), 0xffffff},
	}

	for _, entry := range table {
		assert.Equal(entry.op, entry.word.Op(), "%v", entry.word)
		assert.Equal(entry.operand, entry.word.Operand(), "%v", entry.word)
		assert.GreaterOrEqual(entry.word.Operand(), 0)
	}
}

func TestMakeCode(t *testing.T) {
	assert := assert.New(t)

	for op := range _codeop_name {
		for _, operand := range []int{0, 1, 0x7fffff, 0xffffff} {
			code := MakeCode(op, operand)
			assert.Equal(op, code.Op())
			assert.Equal(operand, code.Operand())
		}
	}

	// Operands are truncated to 24 bits.
	assert.Equal(0x234567, MakeCode(OP_ADD, 0x1234567).Operand())
	assert.Equal(OP_ADD, MakeCode(OP_ADD, 0x1234567).Op())
}

func TestCodeOp_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("load", OP_LOAD.String())
	assert.Equal("store", OP_STORE.String())
	assert.Equal("mq_to_ac", OP_MQ_TO_AC.String())
	assert.Equal("CodeOp(99)", CodeOp(99).String())
	assert.Equal("OP_MUL", OP_MULTIPLY.Define())

	assert.True(OP_PRINT.Valid())
	assert.False(CodeOp(0).Valid())
	assert.False(CodeOp(32).Valid())
}

func TestCode_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("load M(0x000005)", MakeCode(OP_LOAD, 5).String())
	assert.Equal("CodeOp(0) M(0x000000)", Code(0).String())
}
