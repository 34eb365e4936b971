package asm

import (
	"fmt"
	"io"
)

// InstructionOrError contains either an assembled instruction word or
// the error that occurred assembling it, the way the teacher's
// InstructionOrError lets AssemblerAsync stream results without the
// caller needing to unwrap a Result type.
type InstructionOrError struct {
	Instruction uint32
	Error       error
	Lineno      int
}

// Encode renders the result as a disassembly-style line, or returns the
// error if assembly failed for this instruction.
func (ioe InstructionOrError) Encode() (string, error) {
	if ioe.Error != nil {
		return "", ioe.Error
	}
	return fmt.Sprintf("0x%08x\t# 0b%032b - line: %d\n", ioe.Instruction, ioe.Instruction, ioe.Lineno), nil
}

// StartAssembler starts the assembler in a background goroutine and
// returns a channel of InstructionOrError, one per assembled instruction
// (label-only, blank and comment lines produce none). A parse error is
// sent as a single result and ends the stream.
func StartAssembler(r io.Reader) <-chan InstructionOrError {
	out := make(chan InstructionOrError)
	go AssemblerAsync(r, out)
	return out
}

// AssemblerAsync runs the two-pass assembler: the first pass collects
// every label's offset, the second encodes each instruction now that
// forward references resolve.
func AssemblerAsync(r io.Reader, out chan<- InstructionOrError) {
	defer close(out)

	var idx int64
	labels := make(map[string]int64)
	var instructions []Instruction
	for instr := range StartParsing(r) {
		if instr.Err() != nil {
			out <- InstructionOrError{Error: instr.Err(), Lineno: instr.Line()}
			return
		}
		if instr.Label() != nil {
			labels[*instr.Label()] = idx
		}
		if isBareLabel(instr) {
			continue
		}
		instructions = append(instructions, instr)
		idx++
	}

	for pc, instr := range instructions {
		encoded, err := instr.Encode(labels, uint32(pc))
		if err != nil {
			out <- InstructionOrError{Error: err, Lineno: instr.Line()}
			continue
		}
		out <- InstructionOrError{Instruction: encoded, Lineno: instr.Line()}
	}
}

// isBareLabel reports whether instr is a label-only line with no
// instruction to emit (e.g. "loop:" on its own line).
func isBareLabel(instr Instruction) bool {
	p, ok := instr.(parsedLine)
	return ok && p.label != nil && p.spec.op == 0 && p.spec.format == formatSystem && p.symbol == "" && p.rd == 0 && p.rs1 == 0 && p.rs2 == 0 && p.imm == 0
}

// Assemble assembles the full program in r and returns the instruction
// words in program order, or the first error encountered.
func Assemble(r io.Reader) ([]uint32, error) {
	var words []uint32
	for ioe := range StartAssembler(r) {
		if ioe.Error != nil {
			return nil, fmt.Errorf("asm: line %d: %w", ioe.Lineno, ioe.Error)
		}
		words = append(words, ioe.Instruction)
	}
	return words, nil
}
