package vm

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// loadProgram writes a little-endian instruction stream at memory address
// zero and returns a freshly constructed machine ready to run it.
func loadProgram(words ...uint32) *Machine {
	m := NewMachine()
	m.Stderr = &bytes.Buffer{}
	off := uint32(0)
	for _, w := range words {
		binary.LittleEndian.PutUint32(m.Mem[off:off+4], w)
		off += 4
	}
	return m
}

func encodeI(imm int32, rs1, funct3, rd, opcode uint32) uint32 {
	return buildIType(imm, rs1, funct3, rd, opcode)
}

func encodeR(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return buildRType(funct7, rs2, rs1, funct3, rd, opcode)
}

func encodeU(imm int32, rd, opcode uint32) uint32 {
	return buildUType(imm, rd, opcode)
}

func encodeB(imm int32, rs2, rs1, funct3, opcode uint32) uint32 {
	return buildBType(imm, rs2, rs1, funct3, opcode)
}

func TestAddiPositive(t *testing.T) {
	// addi x1, x0, 5
	m := loadProgram(encodeI(5, 0, 0b000, 1, opcodeOPIMM))
	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if m.Regs[1] != 5 {
		t.Errorf("x1 = %d, want 5", m.Regs[1])
	}
	if m.PC != 4 {
		t.Errorf("PC = %d, want 4", m.PC)
	}
}

func TestAddiNegativeSignExtends(t *testing.T) {
	// addi x1, x0, -1
	m := loadProgram(encodeI(-1, 0, 0b000, 1, opcodeOPIMM))
	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if m.Regs[1] != 0xFFFFFFFF {
		t.Errorf("x1 = 0x%x, want 0xffffffff", m.Regs[1])
	}
}

func TestLui(t *testing.T) {
	// lui x1, 0x12345
	m := loadProgram(encodeU(0x12345000, 1, opcodeLUI))
	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if m.Regs[1] != 0x12345000 {
		t.Errorf("x1 = 0x%x, want 0x12345000", m.Regs[1])
	}
}

func TestBranchTaken(t *testing.T) {
	// beq x0, x0, +8 ; addi x4,x0,1 (skipped) ; addi x3,x0,1 (landed on)
	m := loadProgram(
		encodeB(8, 0, 0, 0b000, opcodeBRANCH),
		encodeI(1, 0, 0b000, 4, opcodeOPIMM),
		encodeI(1, 0, 0b000, 3, opcodeOPIMM),
	)
	for i := 0; i < 2; i++ {
		if err := m.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if m.Regs[4] != 0 {
		t.Errorf("x4 = %d, want 0 (branch target skipped it)", m.Regs[4])
	}
	if m.Regs[3] != 1 {
		t.Errorf("x3 = %d, want 1", m.Regs[3])
	}
}

func TestBranchNotTaken(t *testing.T) {
	// bne x0, x0, +8 (never taken) ; addi x2,x0,1
	m := loadProgram(
		encodeB(8, 0, 0, 0b001, opcodeBRANCH),
		encodeI(1, 0, 0b000, 2, opcodeOPIMM),
	)
	for i := 0; i < 2; i++ {
		if err := m.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if m.Regs[2] != 1 {
		t.Errorf("x2 = %d, want 1 (branch fell through)", m.Regs[2])
	}
}

func TestLoadStoreRoundTrip(t *testing.T) {
	// addi x1, x0, -5 ; sw x1, 64(x0) ; lw x2, 64(x0) ; lbu x3, 64(x0)
	m := loadProgram(
		encodeI(-5, 0, 0b000, 1, opcodeOPIMM),
		buildSType(64, 1, 0, 0b010, opcodeSTORE),
		encodeI(64, 0, 0b010, 2, opcodeLOAD),
		encodeI(64, 0, 0b100, 3, opcodeLOAD),
	)
	for i := 0; i < 4; i++ {
		if err := m.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if m.Regs[2] != 0xFFFFFFFB {
		t.Errorf("x2 = 0x%x, want 0xfffffffb", m.Regs[2])
	}
	if m.Regs[3] != 0xFB {
		t.Errorf("x3 = 0x%x, want 0xfb (zero-extended byte)", m.Regs[3])
	}
}

func TestSignedVsUnsignedCompare(t *testing.T) {
	// addi x1, x0, -1 ; slt x2, x1, x0 ; sltu x3, x1, x0
	m := loadProgram(
		encodeI(-1, 0, 0b000, 1, opcodeOPIMM),
		encodeR(0, 0, 1, 0b010, 2, opcodeOP),
		encodeR(0, 0, 1, 0b011, 3, opcodeOP),
	)
	for i := 0; i < 3; i++ {
		if err := m.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if m.Regs[2] != 1 {
		t.Errorf("slt: x2 = %d, want 1 (-1 < 0 signed)", m.Regs[2])
	}
	if m.Regs[3] != 0 {
		t.Errorf("sltu: x3 = %d, want 0 (0xffffffff >= 0 unsigned)", m.Regs[3])
	}
}

func TestCompressedExpansionCLi(t *testing.T) {
	word, ok := ExpandCompressed(0x4505)
	if !ok {
		t.Fatal("ExpandCompressed(0x4505) returned ok=false")
	}
	in, ok := Decode(word)
	if !ok {
		t.Fatalf("Decode(0x%08x) returned ok=false", word)
	}
	if in.Op != OpADDI || in.Rd != 10 || in.Imm != 1 {
		t.Errorf("decoded %+v, want addi x10, x0, 1", in)
	}
}

func TestStepRunsCompressedInstruction(t *testing.T) {
	m := NewMachine()
	m.Stderr = &bytes.Buffer{}
	binary.LittleEndian.PutUint16(m.Mem[0:2], 0x4505) // c.li x10, 1
	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if m.Regs[10] != 1 {
		t.Errorf("x10 = %d, want 1", m.Regs[10])
	}
	if m.PC != 2 {
		t.Errorf("PC = %d, want 2 (compressed instructions advance by 2)", m.PC)
	}
}

func TestMisalignedWordLoadFaults(t *testing.T) {
	// lw x1, 1(x0) -- address 1 is not 4-byte aligned
	m := loadProgram(encodeI(1, 0, 0b010, 1, opcodeLOAD))
	err := m.Step()
	if err == nil {
		t.Fatal("expected a misalignment fault, got nil")
	}
	if !m.Halt {
		t.Error("machine should halt on a misaligned load fault")
	}
}

func TestDivByZero(t *testing.T) {
	// addi x1, x0, 7 ; div x2, x1, x0
	m := loadProgram(
		encodeI(7, 0, 0b000, 1, opcodeOPIMM),
		encodeR(0b0000001, 0, 1, 0b100, 2, opcodeOP),
	)
	for i := 0; i < 2; i++ {
		if err := m.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if m.Regs[2] != 0xFFFFFFFF {
		t.Errorf("div by zero: x2 = 0x%x, want 0xffffffff", m.Regs[2])
	}
}

func TestDivOverflow(t *testing.T) {
	// lui x1, 0x80000 ; addi x2, x0, -1 ; div x3, x1, x2 ; rem x4, x1, x2
	m := loadProgram(
		encodeU(-1<<31, 1, opcodeLUI), // x1 = INT32_MIN
		encodeI(-1, 0, 0b000, 2, opcodeOPIMM),             // x2 = -1
		encodeR(0b0000001, 2, 1, 0b100, 3, opcodeOP),      // div x3, x1, x2
		encodeR(0b0000001, 2, 1, 0b110, 4, opcodeOP),      // rem x4, x1, x2
	)
	for i := 0; i < 4; i++ {
		if err := m.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if m.Regs[3] != 0x80000000 {
		t.Errorf("div overflow: x3 = 0x%x, want 0x80000000", m.Regs[3])
	}
	if m.Regs[4] != 0 {
		t.Errorf("rem overflow: x4 = %d, want 0", m.Regs[4])
	}
}

func TestSyscallWrite(t *testing.T) {
	// a0=1 (stdout fd), a1=256 (scratch buffer, clear of the code at
	// 0-19), a2=3 (count), a7=64 (sys_write), ecall.
	m := loadProgram(
		encodeI(1, 0, 0b000, 10, opcodeOPIMM),    // addi a0, x0, 1
		encodeI(256, 0, 0b000, 11, opcodeOPIMM),  // addi a1, x0, 256
		encodeI(3, 0, 0b000, 12, opcodeOPIMM),    // addi a2, x0, 3
		encodeI(64, 0, 0b000, 17, opcodeOPIMM),   // addi a7, x0, 64 (sys_write)
		buildIType(0, 0, 0b000, 0, opcodeSYSTEM), // ecall
	)
	copy(m.Mem[256:259], []byte("hi\n"))

	for i := 0; i < 5; i++ {
		if err := m.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if got := int32(m.Regs[10]); got != 3 {
		t.Errorf("write returned %d, want 3", got)
	}
}

func TestSyscallExit(t *testing.T) {
	m := loadProgram(
		encodeI(7, 0, 0b000, 10, opcodeOPIMM),    // addi a0, x0, 7
		encodeI(93, 0, 0b000, 17, opcodeOPIMM),   // addi a7, x0, 93 (sys_exit)
		buildIType(0, 0, 0b000, 0, opcodeSYSTEM), // ecall
	)
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !m.Halt {
		t.Error("machine should have halted after exit syscall")
	}
	if m.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", m.ExitCode)
	}
}
