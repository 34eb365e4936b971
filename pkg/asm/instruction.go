// Package asm assembles RV32IMC textual assembly into the canonical
// 32-bit instruction words pkg/vm executes. It backs the cmd/riscvasm
// developer tool; pkg/vm's own tests do not use it (they encode their
// programs with pkg/vm's build*Type helpers). It is not a
// general-purpose toolchain component.
package asm

import (
	"fmt"

	"github.com/broot5/riscv32emu/pkg/vm"
)

// format identifies which operand layout a mnemonic takes, mirroring how
// the teacher gives every RiSC-32 opcode its own Instruction struct --
// generalized here to one struct per RISC-V instruction *format* rather
// than per mnemonic, since RV32IMC has many more mnemonics than formats.
type format int

const (
	formatR format = iota
	formatI
	formatILoad
	formatIShift
	formatS
	formatB
	formatU
	formatJ
	formatSystem
)

type opSpec struct {
	format  format
	op      vm.Op
	opcode  uint32
	funct3  uint32
	funct7  uint32
	sysImm  int32
}

// mnemonics maps lower-cased assembly mnemonics to their encoding spec.
var mnemonics = map[string]opSpec{
	"add":  {format: formatR, op: vm.OpADD, opcode: 0b0110011, funct3: 0b000, funct7: 0b0000000},
	"sub":  {format: formatR, op: vm.OpSUB, opcode: 0b0110011, funct3: 0b000, funct7: 0b0100000},
	"sll":  {format: formatR, op: vm.OpSLL, opcode: 0b0110011, funct3: 0b001, funct7: 0b0000000},
	"slt":  {format: formatR, op: vm.OpSLT, opcode: 0b0110011, funct3: 0b010, funct7: 0b0000000},
	"sltu": {format: formatR, op: vm.OpSLTU, opcode: 0b0110011, funct3: 0b011, funct7: 0b0000000},
	"xor":  {format: formatR, op: vm.OpXOR, opcode: 0b0110011, funct3: 0b100, funct7: 0b0000000},
	"srl":  {format: formatR, op: vm.OpSRL, opcode: 0b0110011, funct3: 0b101, funct7: 0b0000000},
	"sra":  {format: formatR, op: vm.OpSRA, opcode: 0b0110011, funct3: 0b101, funct7: 0b0100000},
	"or":   {format: formatR, op: vm.OpOR, opcode: 0b0110011, funct3: 0b110, funct7: 0b0000000},
	"and":  {format: formatR, op: vm.OpAND, opcode: 0b0110011, funct3: 0b111, funct7: 0b0000000},

	"mul":    {format: formatR, op: vm.OpMUL, opcode: 0b0110011, funct3: 0b000, funct7: 0b0000001},
	"mulh":   {format: formatR, op: vm.OpMULH, opcode: 0b0110011, funct3: 0b001, funct7: 0b0000001},
	"mulhsu": {format: formatR, op: vm.OpMULHSU, opcode: 0b0110011, funct3: 0b010, funct7: 0b0000001},
	"mulhu":  {format: formatR, op: vm.OpMULHU, opcode: 0b0110011, funct3: 0b011, funct7: 0b0000001},
	"div":    {format: formatR, op: vm.OpDIV, opcode: 0b0110011, funct3: 0b100, funct7: 0b0000001},
	"divu":   {format: formatR, op: vm.OpDIVU, opcode: 0b0110011, funct3: 0b101, funct7: 0b0000001},
	"rem":    {format: formatR, op: vm.OpREM, opcode: 0b0110011, funct3: 0b110, funct7: 0b0000001},
	"remu":   {format: formatR, op: vm.OpREMU, opcode: 0b0110011, funct3: 0b111, funct7: 0b0000001},

	"addi":  {format: formatI, op: vm.OpADDI, opcode: 0b0010011, funct3: 0b000},
	"slti":  {format: formatI, op: vm.OpSLTI, opcode: 0b0010011, funct3: 0b010},
	"sltiu": {format: formatI, op: vm.OpSLTIU, opcode: 0b0010011, funct3: 0b011},
	"xori":  {format: formatI, op: vm.OpXORI, opcode: 0b0010011, funct3: 0b100},
	"ori":   {format: formatI, op: vm.OpORI, opcode: 0b0010011, funct3: 0b110},
	"andi":  {format: formatI, op: vm.OpANDI, opcode: 0b0010011, funct3: 0b111},
	"slli":  {format: formatIShift, op: vm.OpSLLI, opcode: 0b0010011, funct3: 0b001, funct7: 0b0000000},
	"srli":  {format: formatIShift, op: vm.OpSRLI, opcode: 0b0010011, funct3: 0b101, funct7: 0b0000000},
	"srai":  {format: formatIShift, op: vm.OpSRAI, opcode: 0b0010011, funct3: 0b101, funct7: 0b0100000},

	"jalr": {format: formatILoad, op: vm.OpJALR, opcode: 0b1100111, funct3: 0b000},

	"lb":  {format: formatILoad, op: vm.OpLB, opcode: 0b0000011, funct3: 0b000},
	"lh":  {format: formatILoad, op: vm.OpLH, opcode: 0b0000011, funct3: 0b001},
	"lw":  {format: formatILoad, op: vm.OpLW, opcode: 0b0000011, funct3: 0b010},
	"lbu": {format: formatILoad, op: vm.OpLBU, opcode: 0b0000011, funct3: 0b100},
	"lhu": {format: formatILoad, op: vm.OpLHU, opcode: 0b0000011, funct3: 0b101},

	"sb": {format: formatS, op: vm.OpSB, opcode: 0b0100011, funct3: 0b000},
	"sh": {format: formatS, op: vm.OpSH, opcode: 0b0100011, funct3: 0b001},
	"sw": {format: formatS, op: vm.OpSW, opcode: 0b0100011, funct3: 0b010},

	"beq":  {format: formatB, op: vm.OpBEQ, opcode: 0b1100011, funct3: 0b000},
	"bne":  {format: formatB, op: vm.OpBNE, opcode: 0b1100011, funct3: 0b001},
	"blt":  {format: formatB, op: vm.OpBLT, opcode: 0b1100011, funct3: 0b100},
	"bge":  {format: formatB, op: vm.OpBGE, opcode: 0b1100011, funct3: 0b101},
	"bltu": {format: formatB, op: vm.OpBLTU, opcode: 0b1100011, funct3: 0b110},
	"bgeu": {format: formatB, op: vm.OpBGEU, opcode: 0b1100011, funct3: 0b111},

	"lui":   {format: formatU, op: vm.OpLUI, opcode: 0b0110111},
	"auipc": {format: formatU, op: vm.OpAUIPC, opcode: 0b0010111},

	"jal": {format: formatJ, op: vm.OpJAL, opcode: 0b1101111},

	"ecall":  {format: formatSystem, op: vm.OpECALL, sysImm: 0},
	"ebreak": {format: formatSystem, op: vm.OpEBREAK, sysImm: 1},
}

// Instruction is a parsed line of assembly, following the teacher's
// Err/Label/Line/Encode contract so callers never need to type-switch on
// a concrete instruction kind.
type Instruction interface {
	Err() error
	Label() *string
	Line() int
	Encode(labels map[string]int64, pc uint32) (uint32, error)
}

// parsedLine implements Instruction for every non-error line. The zero
// vm.Op value appears only on a label-only line (see isBareLabel): the
// parser rejects unknown mnemonics before constructing one.
type parsedLine struct {
	spec     opSpec
	rd       uint32
	rs1      uint32
	rs2      uint32
	imm      int32
	symbol   string // unresolved label operand, for branches/jumps
	label    *string
	lineno   int
}

func (p parsedLine) Err() error    { return nil }
func (p parsedLine) Label() *string { return p.label }
func (p parsedLine) Line() int     { return p.lineno }

func (p parsedLine) Encode(labels map[string]int64, pc uint32) (uint32, error) {
	imm := p.imm
	if p.symbol != "" {
		target, ok := labels[p.symbol]
		if !ok {
			return 0, fmt.Errorf("asm: undefined label %q at line %d", p.symbol, p.lineno)
		}
		imm = int32((target - int64(pc)) * 4)
	}

	switch p.spec.format {
	case formatR:
		return buildR(p.spec.funct7, p.rs2, p.rs1, p.spec.funct3, p.rd, p.spec.opcode), nil
	case formatI, formatILoad:
		return buildI(imm, p.rs1, p.spec.funct3, p.rd, p.spec.opcode), nil
	case formatIShift:
		return buildR(p.spec.funct7, uint32(imm)&0x1f, p.rs1, p.spec.funct3, p.rd, p.spec.opcode), nil
	case formatS:
		return buildS(imm, p.rs2, p.rs1, p.spec.funct3, p.spec.opcode), nil
	case formatB:
		return buildB(imm, p.rs2, p.rs1, p.spec.funct3, p.spec.opcode), nil
	case formatU:
		return buildU(imm, p.rd, p.spec.opcode), nil
	case formatJ:
		return buildJ(imm, p.rd, p.spec.opcode), nil
	case formatSystem:
		return buildI(p.spec.sysImm, 0, 0b000, 0, 0b1110011), nil
	default:
		return 0, fmt.Errorf("asm: unhandled instruction format at line %d", p.lineno)
	}
}

// parseError implements Instruction for a line the parser rejected.
type parseError struct {
	err    error
	lineno int
}

func (p parseError) Err() error                                        { return p.err }
func (p parseError) Label() *string                                    { return nil }
func (p parseError) Line() int                                         { return p.lineno }
func (p parseError) Encode(map[string]int64, uint32) (uint32, error) { return 0, p.err }

// The bit-packing helpers below mirror pkg/vm's unexported build*Type
// functions; they are duplicated rather than imported because pkg/vm
// does not export its encoder (the emulator only ever decodes).
func buildR(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func buildI(imm int32, rs1, funct3, rd, opcode uint32) uint32 {
	return uint32(imm)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func buildS(imm int32, rs2, rs1, funct3, opcode uint32) uint32 {
	u := uint32(imm)
	hi := (u >> 5) & 0x7f
	lo := u & 0x1f
	return hi<<25 | rs2<<20 | rs1<<15 | funct3<<12 | lo<<7 | opcode
}

func buildB(imm int32, rs2, rs1, funct3, opcode uint32) uint32 {
	u := uint32(imm)
	bit12 := (u >> 12) & 1
	bit11 := (u >> 11) & 1
	bits10_5 := (u >> 5) & 0x3f
	bits4_1 := (u >> 1) & 0xf
	return bit12<<31 | bits10_5<<25 | rs2<<20 | rs1<<15 | funct3<<12 | bits4_1<<8 | bit11<<7 | opcode
}

func buildU(imm int32, rd, opcode uint32) uint32 {
	return uint32(imm) | rd<<7 | opcode
}

func buildJ(imm int32, rd, opcode uint32) uint32 {
	u := uint32(imm)
	bit20 := (u >> 20) & 1
	bits10_1 := (u >> 1) & 0x3ff
	bit11 := (u >> 11) & 1
	bits19_12 := (u >> 12) & 0xff
	return bit20<<31 | bits10_1<<21 | bit11<<20 | bits19_12<<12 | rd<<7 | opcode
}
