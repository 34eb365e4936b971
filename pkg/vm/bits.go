package vm

// bit extracts the inclusive [lsb, msb] field of target as an unsigned value.
func bit(target uint32, msb, lsb uint) uint32 {
	mask := uint32(1)<<(msb-lsb+1) - 1
	return (target >> lsb) & mask
}

// signExtend reinterprets the low numBits bits of value as a two's-complement
// signed integer and widens it to 32 bits, preserving sign.
func signExtend(value uint32, numBits uint) int32 {
	shift := 32 - numBits
	return int32(value<<shift) >> shift
}

// The following extract the five 32-bit instruction immediate encodings
// (I/S/B/U/J) per the base RISC-V ISA.

func immI(inst uint32) int32 {
	return signExtend(bit(inst, 31, 20), 12)
}

func immS(inst uint32) int32 {
	v := bit(inst, 31, 25)<<5 | bit(inst, 11, 7)
	return signExtend(v, 12)
}

func immB(inst uint32) int32 {
	v := bit(inst, 31, 31)<<12 | bit(inst, 7, 7)<<11 |
		bit(inst, 30, 25)<<5 | bit(inst, 11, 8)<<1
	return signExtend(v, 13)
}

func immU(inst uint32) int32 {
	return int32(bit(inst, 31, 12) << 12)
}

func immJ(inst uint32) int32 {
	v := bit(inst, 31, 31)<<20 | bit(inst, 19, 12)<<12 |
		bit(inst, 20, 20)<<11 | bit(inst, 30, 21)<<1
	return signExtend(v, 21)
}

// The following decode the compressed-instruction (RVC) immediate
// encodings, per the exact bit permutations in spec.md §4.1. Each takes
// the raw 16-bit code unit (widened to uint32 for bit()) and returns the
// extracted, sign-or-zero-extended, already-scaled immediate.

// cImmCI decodes the CI-format immediate: {inst[12], inst[6:2]} -> 6-bit signed.
func cImmCI(inst uint16) int32 {
	u := uint32(inst)
	v := bit(u, 12, 12)<<5 | bit(u, 6, 2)
	return signExtend(v, 6)
}

// cImmCJ decodes the CJ-format immediate:
// {inst[12], inst[8], inst[10:9], inst[6], inst[7], inst[2], inst[11], inst[5:3]}
// -> 12-bit signed (x2 scaling).
func cImmCJ(inst uint16) int32 {
	u := uint32(inst)
	v := bit(u, 12, 12)<<10 | bit(u, 8, 8)<<9 | bit(u, 10, 9)<<7 |
		bit(u, 6, 6)<<6 | bit(u, 7, 7)<<5 | bit(u, 2, 2)<<4 |
		bit(u, 11, 11)<<3 | bit(u, 5, 3)
	return signExtend(v, 11) * 2
}

// cImmCB decodes the CB-format (branch) immediate:
// {inst[12], inst[6:5], inst[2], inst[11:10], inst[4:3]} -> 9-bit signed (x2 scaling).
func cImmCB(inst uint16) int32 {
	u := uint32(inst)
	v := bit(u, 12, 12)<<7 | bit(u, 6, 5)<<5 | bit(u, 2, 2)<<4 |
		bit(u, 11, 10)<<2 | bit(u, 4, 3)
	return signExtend(v, 8) * 2
}

// cImmCLS decodes the CL/CS (lw/sw) immediate: {inst[5], inst[12:10], inst[6]}
// -> 7-bit unsigned (x4 scaling).
func cImmCLS(inst uint16) uint32 {
	u := uint32(inst)
	v := bit(u, 5, 5)<<4 | bit(u, 12, 10)<<1 | bit(u, 6, 6)
	return v << 2
}

// cImmCIW decodes the CIW (addi4spn) immediate:
// {inst[10:7], inst[12:11], inst[5], inst[6]} -> 10-bit unsigned (x4 scaling).
func cImmCIW(inst uint16) uint32 {
	u := uint32(inst)
	v := bit(u, 10, 7)<<4 | bit(u, 12, 11)<<2 | bit(u, 5, 5)<<1 | bit(u, 6, 6)
	return v << 2
}

// cImmAddi16sp decodes the c.addi16sp immediate:
// {inst[12], inst[4:3], inst[5], inst[2], inst[6]} -> 10-bit signed (x16 scaling).
func cImmAddi16sp(inst uint16) int32 {
	u := uint32(inst)
	v := bit(u, 12, 12)<<5 | bit(u, 4, 3)<<3 | bit(u, 5, 5)<<2 |
		bit(u, 2, 2)<<1 | bit(u, 6, 6)
	return signExtend(v, 6) * 16
}

// cImmLwsp decodes the c.lwsp immediate: {inst[3:2], inst[12], inst[6:4]}
// -> 8-bit unsigned (x4 scaling).
func cImmLwsp(inst uint16) uint32 {
	u := uint32(inst)
	v := bit(u, 3, 2)<<4 | bit(u, 12, 12)<<3 | bit(u, 6, 4)
	return v << 2
}

// cImmSwsp decodes the c.swsp immediate: {inst[8:7], inst[12:9]}
// -> 8-bit unsigned (x4 scaling).
func cImmSwsp(inst uint16) uint32 {
	u := uint32(inst)
	v := bit(u, 8, 7)<<4 | bit(u, 12, 9)
	return v << 2
}
