package asm

import (
	"strings"
	"testing"

	"github.com/broot5/riscv32emu/pkg/vm"
)

func TestAssembleAddi(t *testing.T) {
	words, err := Assemble(strings.NewReader("addi a0, zero, 5\n"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(words) != 1 {
		t.Fatalf("got %d words, want 1", len(words))
	}
	in, ok := vm.Decode(words[0])
	if !ok {
		t.Fatalf("Decode(0x%08x) failed", words[0])
	}
	if in.Op != vm.OpADDI || in.Rd != 10 || in.Rs1 != 0 || in.Imm != 5 {
		t.Errorf("decoded %+v, want addi x10, x0, 5", in)
	}
}

func TestAssembleLabelBranch(t *testing.T) {
	src := `
		addi t0, zero, 1
	loop:
		beq  t0, zero, done
		addi t0, t0, -1
		jal  zero, loop
	done:
		ecall
	`
	words, err := Assemble(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(words) != 5 {
		t.Fatalf("got %d words, want 5", len(words))
	}

	jal, ok := vm.Decode(words[3])
	if !ok {
		t.Fatalf("Decode(jal) failed")
	}
	if jal.Op != vm.OpJAL || jal.Imm != -8 {
		t.Errorf("jal loop decoded as %+v, want imm=-8 (back to instruction index 1)", jal)
	}

	beq, ok := vm.Decode(words[1])
	if !ok {
		t.Fatalf("Decode(beq) failed")
	}
	if beq.Op != vm.OpBEQ || beq.Imm != 12 {
		t.Errorf("beq done decoded as %+v, want imm=12 (forward to instruction index 4)", beq)
	}
}

func TestAssembleLoadStore(t *testing.T) {
	words, err := Assemble(strings.NewReader("sw a0, 64(sp)\nlw a1, 64(sp)\n"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	sw, ok := vm.Decode(words[0])
	if !ok || sw.Op != vm.OpSW || sw.Rs1 != 2 || sw.Rs2 != 10 || sw.Imm != 64 {
		t.Errorf("sw decoded as %+v, ok=%v", sw, ok)
	}
	lw, ok := vm.Decode(words[1])
	if !ok || lw.Op != vm.OpLW || lw.Rs1 != 2 || lw.Rd != 11 || lw.Imm != 64 {
		t.Errorf("lw decoded as %+v, ok=%v", lw, ok)
	}
}

func TestAssembleUnknownMnemonicErrors(t *testing.T) {
	_, err := Assemble(strings.NewReader("frobnicate x1, x2, x3\n"))
	if err == nil {
		t.Fatal("expected an error for an unknown mnemonic")
	}
}
