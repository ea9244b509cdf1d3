// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":       "0",
	"OPERAND_MASK": fmt.Sprintf("%#x", OPERAND_MASK),
	"RESULT_MASK":  fmt.Sprintf("%#x", RESULT_MASK),
}

// Assembler is a single pass macro assembler for the IAS machine.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// opMap maps mnemonics, long and short, to opcodes.
var opMap = map[string]CodeOp{
	"load":           OP_LOAD,
	"load_mq":        OP_LOAD_MQ,
	"mq_to_ac":       OP_MQ_TO_AC,
	"store":          OP_STORE,
	"stor":           OP_STORE,
	"add":            OP_ADD,
	"sub":            OP_SUBTRACT,
	"subtract":       OP_SUBTRACT,
	"mul":            OP_MULTIPLY,
	"multiply":       OP_MULTIPLY,
	"div":            OP_DIVIDE,
	"divide":         OP_DIVIDE,
	"addf":           OP_ADD_FLOAT,
	"add_float":      OP_ADD_FLOAT,
	"subf":           OP_SUBTRACT_FLOAT,
	"subtract_float": OP_SUBTRACT_FLOAT,
	"mulf":           OP_MULTIPLY_FLOAT,
	"multiply_float": OP_MULTIPLY_FLOAT,
	"divf":           OP_DIVIDE_FLOAT,
	"divide_float":   OP_DIVIDE_FLOAT,
	"load_io":        OP_LOAD_IO,
	"store_io":       OP_STORE_IO,
	"print":          OP_PRINT,
}

// noOperand opcodes default their operand to 0.
var noOperand = map[CodeOp]bool{
	OP_MQ_TO_AC: true,
	OP_LOAD_IO:  true,
	OP_STORE_IO: true,
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	value, err = strconv.ParseInt(strings.ReplaceAll(word, "_", ""), 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	return
}

// memoryRef matches the M(X) operand form.
var memoryRef = regexp.MustCompile(`(?i)^m\((.*)\)$`)

// operandOf returns the 24-bit operand address of a word.
func (asm *Assembler) operandOf(word string) (operand int, err error) {
	match := memoryRef.FindStringSubmatch(word)
	if match != nil {
		word = match[1]
	}

	equate, ok := asm.Equate[word]
	if ok {
		word = equate
	}

	value, err := asm.valueOf(word)
	if err != nil {
		return
	}

	if value < 0 || value > OPERAND_MASK {
		err = ErrOperandRange
		return
	}

	operand = int(value)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value64 int64
		value64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(value64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseLine parses a single line into words, expanding equates,
// expressions and macros.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	re := regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(strings.ReplaceAll(text_comment[0], "\t", " "))
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := slices.Clone(words)

	var code Code
	defer func() {
		if err != nil {
			return
		}
		opcode := Opcode{LineNo: lineno, Words: initial_words, Code: code}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	mnemonic := strings.ToLower(words[0])

	// Alternate syntax substitutions
	switch {
	case len(words) == 2 && mnemonic == "load" && strings.EqualFold(words[1], "mq"):
		// LOAD MQ => mq_to_ac
		words = []string{"mq_to_ac"}
	case len(words) == 2 && mnemonic == "load" && len(words[1]) > 3 && strings.EqualFold(words[1][:3], "mq,"):
		// LOAD MQ,M(X) => load_mq M(X)
		words = []string{"load_mq", words[1][3:]}
	default:
		// unchanged
	}
	mnemonic = strings.ToLower(words[0])

	if mnemonic == ".word" {
		if len(words) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(words) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		var value int64
		value, err = asm.valueOf(words[1])
		if err != nil {
			return
		}
		if value < -(1<<31) || value > (1<<32)-1 {
			err = ErrParseNumber(words[1])
			return
		}
		code = Code(int32(uint32(value)))
		return
	}

	op, ok := opMap[mnemonic]
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	var operand int
	switch len(words) {
	case 1:
		if !noOperand[op] {
			err = ErrOpcodeValueMissing
			return
		}
	case 2:
		operand, err = asm.operandOf(words[1])
		if err != nil {
			return
		}
	default:
		err = ErrOpcodeExtraArgs
		return
	}

	code = MakeCode(op, operand)

	return
}
