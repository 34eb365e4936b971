package vm

import "testing"

func TestBit(t *testing.T) {
	if got := bit(0xF0F0F0F0, 7, 0); got != 0xF0 {
		t.Errorf("bit(0xF0F0F0F0, 7, 0) = 0x%x, want 0xf0", got)
	}
	if got := bit(0x80000000, 31, 31); got != 1 {
		t.Errorf("bit(0x80000000, 31, 31) = %d, want 1", got)
	}
}

func TestSignExtend(t *testing.T) {
	cases := []struct {
		value   uint32
		numBits uint
		want    int32
	}{
		{0x7FF, 12, 0x7FF},
		{0x800, 12, -2048},
		{0xFFF, 12, -1},
		{0, 12, 0},
	}
	for _, c := range cases {
		if got := signExtend(c.value, c.numBits); got != c.want {
			t.Errorf("signExtend(0x%x, %d) = %d, want %d", c.value, c.numBits, got, c.want)
		}
	}
}

func TestImmI(t *testing.T) {
	// addi x1, x0, -1 : imm field all ones
	inst := uint32(0xFFF00093)
	if got := immI(inst); got != -1 {
		t.Errorf("immI = %d, want -1", got)
	}
}

func TestImmJCJAL(t *testing.T) {
	// jal x1, 0 encodes to a zero immediate regardless of rd.
	var inst uint32 = 0<<12 | 1<<7 | opcodeJAL
	if got := immJ(inst); got != 0 {
		t.Errorf("immJ(jal x1,0) = %d, want 0", got)
	}
}

func TestCImmCI(t *testing.T) {
	// c.li x10, 1 = 0x4505: rd=10 at [11:7], imm bit [12]=0, imm[6:2]=1
	inst := uint16(0x4505)
	if got := cImmCI(inst); got != 1 {
		t.Errorf("cImmCI(0x4505) = %d, want 1", got)
	}
}
