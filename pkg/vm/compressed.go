package vm

// ExpandCompressed rewrites a 16-bit compressed instruction into its
// canonical 32-bit equivalent, the way the original interpreter's
// expand_compressed dispatches on (quadrant, funct3). It returns
// ok=false for any reserved encoding, for the c.li, c.lui and c.slli
// HINT forms with rd==0, and for every floating-point compressed form
// (c.fld/c.flw/c.fsd/c.fsw and their stack-pointer-relative
// counterparts), since F/D are out of scope. The other HINT forms,
// c.nop among them, expand to their literal base instruction.
func ExpandCompressed(inst uint16) (uint32, bool) {
	op := inst & 0b11
	funct3 := (inst >> 13) & 0b111

	switch op {
	case 0b00:
		switch funct3 {
		case 0b000:
			return expandCIWAddi4spn(inst)
		case 0b010:
			return expandCLLw(inst)
		case 0b110:
			return expandCSSw(inst)
		default:
			return 0, false
		}
	case 0b01:
		switch funct3 {
		case 0b000:
			return expandCIAddi(inst)
		case 0b001:
			return expandCJJal(inst)
		case 0b010:
			return expandCILi(inst)
		case 0b011:
			return expandCILuiAddi16sp(inst)
		case 0b100:
			return expandCBMiscAlu(inst)
		case 0b101:
			return expandCJJ(inst)
		case 0b110:
			return expandCBBeqz(inst)
		case 0b111:
			return expandCBBnez(inst)
		default:
			return 0, false
		}
	case 0b10:
		switch funct3 {
		case 0b000:
			return expandCISlli(inst)
		case 0b010:
			return expandCILwsp(inst)
		case 0b100:
			return expandCRJrMvAdd(inst)
		case 0b110:
			return expandCSSSwsp(inst)
		default:
			return 0, false
		}
	default:
		// op == 0b11 marks a full-width (uncompressed) instruction and
		// never reaches this function -- Step only calls it when the
		// low two bits are not both set.
		return 0, false
	}
}

// Register-field helpers. The "prime" forms used by the RVC quadrant-00
// and quadrant-01 ALU forms address only x8-x15 via a 3-bit field offset
// by 8, per spec.md §4.4.
func cRd(inst uint16) uint32       { return uint32(bit(uint32(inst), 11, 7)) }
func cRs1(inst uint16) uint32      { return uint32(bit(uint32(inst), 11, 7)) }
func cRs2(inst uint16) uint32      { return uint32(bit(uint32(inst), 6, 2)) }
func cRdPrime(inst uint16) uint32  { return uint32(bit(uint32(inst), 4, 2)) + 8 }
func cRs1Prime(inst uint16) uint32 { return uint32(bit(uint32(inst), 9, 7)) + 8 }
func cRs2Prime(inst uint16) uint32 { return uint32(bit(uint32(inst), 4, 2)) + 8 }

func buildRType(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func buildIType(imm int32, rs1, funct3, rd, opcode uint32) uint32 {
	return uint32(imm)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func buildSType(imm int32, rs2, rs1, funct3, opcode uint32) uint32 {
	u := uint32(imm)
	return bit(u, 11, 5)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | bit(u, 4, 0)<<7 | opcode
}

func buildBType(imm int32, rs2, rs1, funct3, opcode uint32) uint32 {
	u := uint32(imm)
	return bit(u, 12, 12)<<31 | bit(u, 10, 5)<<25 | rs2<<20 | rs1<<15 |
		funct3<<12 | bit(u, 4, 1)<<8 | bit(u, 11, 11)<<7 | opcode
}

func buildUType(imm int32, rd, opcode uint32) uint32 {
	return uint32(imm) | rd<<7 | opcode
}

func buildJType(imm int32, rd, opcode uint32) uint32 {
	u := uint32(imm)
	return bit(u, 20, 20)<<31 | bit(u, 10, 1)<<21 | bit(u, 11, 11)<<20 |
		bit(u, 19, 12)<<12 | rd<<7 | opcode
}

// expandCIWAddi4spn decodes c.addi4spn (quadrant 00, funct3 000): a
// zero-extended scaled immediate reserved (illegal) when zero.
func expandCIWAddi4spn(inst uint16) (uint32, bool) {
	imm := cImmCIW(inst)
	if imm == 0 {
		return 0, false
	}
	rd := cRdPrime(inst)
	return buildIType(int32(imm), 2, 0b000, rd, opcodeOPIMM), true
}

// expandCLLw decodes c.lw (quadrant 00, funct3 010).
func expandCLLw(inst uint16) (uint32, bool) {
	imm := cImmCLS(inst)
	rs1 := cRs1Prime(inst)
	rd := cRdPrime(inst)
	return buildIType(int32(imm), rs1, 0b010, rd, opcodeLOAD), true
}

// expandCSSw decodes c.sw (quadrant 00, funct3 110).
func expandCSSw(inst uint16) (uint32, bool) {
	imm := cImmCLS(inst)
	rs1 := cRs1Prime(inst)
	rs2 := cRs2Prime(inst)
	return buildSType(int32(imm), rs2, rs1, 0b010, opcodeSTORE), true
}

// expandCIAddi decodes c.addi / c.nop (quadrant 01, funct3 000). rd==0
// with any immediate is c.nop, which still expands to a literal
// addi x0, x0, imm -- a genuine no-op, not a reserved encoding.
func expandCIAddi(inst uint16) (uint32, bool) {
	rd := cRd(inst)
	imm := cImmCI(inst)
	return buildIType(imm, rd, 0b000, rd, opcodeOPIMM), true
}

// expandCJJal decodes c.jal (RV32-only quadrant 01, funct3 001): an
// unconditional jump that always links to x1.
func expandCJJal(inst uint16) (uint32, bool) {
	imm := cImmCJ(inst)
	return buildJType(imm, 1, opcodeJAL), true
}

// expandCILi decodes c.li (quadrant 01, funct3 010): addi rd, x0, imm.
func expandCILi(inst uint16) (uint32, bool) {
	rd := cRd(inst)
	if rd == 0 {
		return 0, false
	}
	imm := cImmCI(inst)
	return buildIType(imm, 0, 0b000, rd, opcodeOPIMM), true
}

// expandCILuiAddi16sp decodes quadrant 01, funct3 011: c.addi16sp when
// rd==2 (x2/sp), c.lui otherwise. Both forms reserve imm==0.
func expandCILuiAddi16sp(inst uint16) (uint32, bool) {
	rd := cRd(inst)
	if rd == 2 {
		imm := cImmAddi16sp(inst)
		if imm == 0 {
			return 0, false
		}
		return buildIType(imm, 2, 0b000, 2, opcodeOPIMM), true
	}
	if rd == 0 {
		return 0, false
	}
	imm := cImmCI(inst)
	if imm == 0 {
		return 0, false
	}
	return buildUType(imm<<12, rd, opcodeLUI), true
}

// expandCBMiscAlu decodes quadrant 01, funct3 100: c.srli/c.srai/c.andi
// (immediate forms, selected by bits [11:10]) and c.sub/c.xor/c.or/c.and
// (register forms, selected by bits [11:10]==11 and [6:5], with bit 12
// clear).
func expandCBMiscAlu(inst uint16) (uint32, bool) {
	rd := cRs1Prime(inst)
	subFunct := bit(uint32(inst), 11, 10)

	if subFunct != 0b11 {
		shamt := int32(bit(uint32(inst), 6, 2))
		switch subFunct {
		case 0b00: // c.srli
			return buildIType(shamt, rd, 0b101, rd, opcodeOPIMM), true
		case 0b01: // c.srai
			imm := shamt | 0b0100000<<5
			return buildIType(imm, rd, 0b101, rd, opcodeOPIMM), true
		case 0b10: // c.andi
			imm := cImmCI(inst)
			return buildIType(imm, rd, 0b111, rd, opcodeOPIMM), true
		}
	}

	// With bit 12 set, the register forms are c.subw/c.addw and two
	// reserved slots, none of which exist on RV32.
	if bit(uint32(inst), 12, 12) != 0 {
		return 0, false
	}
	rs2 := cRs2Prime(inst)
	opFunct := bit(uint32(inst), 6, 5)
	switch opFunct {
	case 0b00:
		return buildRType(0b0100000, rs2, rd, 0b000, rd, opcodeOP), true // c.sub
	case 0b01:
		return buildRType(0b0000000, rs2, rd, 0b100, rd, opcodeOP), true // c.xor
	case 0b10:
		return buildRType(0b0000000, rs2, rd, 0b110, rd, opcodeOP), true // c.or
	case 0b11:
		return buildRType(0b0000000, rs2, rd, 0b111, rd, opcodeOP), true // c.and
	}
	return 0, false
}

// expandCJJ decodes c.j (quadrant 01, funct3 101): an unconditional jump
// that discards the link value, per the original jal x0, imm encoding.
func expandCJJ(inst uint16) (uint32, bool) {
	imm := cImmCJ(inst)
	return buildJType(imm, 0, opcodeJAL), true
}

// expandCBBeqz decodes c.beqz (quadrant 01, funct3 110).
func expandCBBeqz(inst uint16) (uint32, bool) {
	rs1 := cRs1Prime(inst)
	imm := cImmCB(inst)
	return buildBType(imm, 0, rs1, 0b000, opcodeBRANCH), true
}

// expandCBBnez decodes c.bnez (quadrant 01, funct3 111).
func expandCBBnez(inst uint16) (uint32, bool) {
	rs1 := cRs1Prime(inst)
	imm := cImmCB(inst)
	return buildBType(imm, 0, rs1, 0b001, opcodeBRANCH), true
}

// expandCISlli decodes c.slli (quadrant 10, funct3 000).
func expandCISlli(inst uint16) (uint32, bool) {
	rd := cRd(inst)
	if rd == 0 {
		return 0, false
	}
	shamt := int32(bit(uint32(inst), 6, 2))
	return buildIType(shamt, rd, 0b001, rd, opcodeOPIMM), true
}

// expandCILwsp decodes c.lwsp (quadrant 10, funct3 010): rd==0 is
// reserved.
func expandCILwsp(inst uint16) (uint32, bool) {
	rd := cRd(inst)
	if rd == 0 {
		return 0, false
	}
	imm := cImmLwsp(inst)
	return buildIType(int32(imm), 2, 0b010, rd, opcodeLOAD), true
}

// expandCRJrMvAdd decodes quadrant 10, funct3 100: c.jr/c.mv when
// bit12==0, c.ebreak/c.jalr/c.add when bit12==1, keyed further by rs2.
func expandCRJrMvAdd(inst uint16) (uint32, bool) {
	bit12 := bit(uint32(inst), 12, 12)
	rd := cRs1(inst)
	rs2 := cRs2(inst)

	if bit12 == 0 {
		if rs2 == 0 {
			if rd == 0 {
				return 0, false
			}
			return buildIType(0, rd, 0b000, 0, opcodeJALR), true // c.jr
		}
		// rd==0 is the legal HINT form (add x0, x0, rs2), not reserved.
		return buildRType(0, rs2, 0, 0b000, rd, opcodeOP), true // c.mv
	}

	if rs2 == 0 {
		if rd == 0 {
			return buildIType(1, 0, 0b000, 0, opcodeSYSTEM), true // c.ebreak
		}
		return buildIType(0, rd, 0b000, 1, opcodeJALR), true // c.jalr
	}
	// rd==0 is the legal HINT form, not reserved.
	return buildRType(0, rs2, rd, 0b000, rd, opcodeOP), true // c.add
}

// expandCSSSwsp decodes c.swsp (quadrant 10, funct3 110).
func expandCSSSwsp(inst uint16) (uint32, bool) {
	imm := cImmSwsp(inst)
	rs2 := cRs2(inst)
	return buildSType(int32(imm), rs2, 2, 0b010, opcodeSTORE), true
}
