// Package cpu implements the processor and assembler for the IAS machine.
//
// The CPU is a single accumulator machine with an accumulator (AC), a
// multiplier-quotient register (MQ), a program counter (PC) and an I/O
// register pair. Every instruction names one memory address, which is
// resolved through a direct-mapped cache before the opcode executes.
//
// The assembler translates IAS mnemonics into instruction words, supporting
// macros, equates, and compile-time expression evaluation.
package cpu
