package vm

// Op identifies the semantic operation of a decoded instruction, the way
// the teacher's Opcode* constants identify a RiSC-32 opcode -- except
// here dispatch has already resolved opcode/funct3/funct7 down to a
// single value, so Execute never re-inspects the raw word.
type Op int

const (
	opInvalid Op = iota

	OpLUI
	OpAUIPC
	OpJAL
	OpJALR

	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU

	OpSB
	OpSH
	OpSW

	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI

	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND

	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU

	OpFENCE
	OpECALL
	OpEBREAK
)

// The base-opcode field values from spec.md §4.5.
const (
	opcodeLUI     = 0b0110111
	opcodeAUIPC   = 0b0010111
	opcodeJAL     = 0b1101111
	opcodeJALR    = 0b1100111
	opcodeBRANCH  = 0b1100011
	opcodeLOAD    = 0b0000011
	opcodeSTORE   = 0b0100011
	opcodeOPIMM   = 0b0010011
	opcodeOP      = 0b0110011
	opcodeMiscMem = 0b0001111
	opcodeSYSTEM  = 0b1110011
)

// Instruction is a decoded 32-bit RISC-V instruction, canonical form.
type Instruction struct {
	Op  Op
	Rd  uint32
	Rs1 uint32
	Rs2 uint32
	Imm int32
}

// Decode resolves a canonical 32-bit instruction word into an Instruction.
// It returns ok=false for any opcode/funct3/funct7 combination with no
// entry in spec.md §4.5's dispatch table -- an illegal instruction.
func Decode(word uint32) (Instruction, bool) {
	opcode := bit(word, 6, 0)
	funct3 := bit(word, 14, 12)
	funct7 := bit(word, 31, 25)
	rd := bit(word, 11, 7)
	rs1 := bit(word, 19, 15)
	rs2 := bit(word, 24, 20)

	in := Instruction{Rd: rd, Rs1: rs1, Rs2: rs2}

	switch opcode {
	case opcodeLUI:
		in.Op = OpLUI
		in.Imm = immU(word)
	case opcodeAUIPC:
		in.Op = OpAUIPC
		in.Imm = immU(word)
	case opcodeJAL:
		in.Op = OpJAL
		in.Imm = immJ(word)
	case opcodeJALR:
		if funct3 != 0b000 {
			return Instruction{}, false
		}
		in.Op = OpJALR
		in.Imm = immI(word)
	case opcodeBRANCH:
		in.Imm = immB(word)
		switch funct3 {
		case 0b000:
			in.Op = OpBEQ
		case 0b001:
			in.Op = OpBNE
		case 0b100:
			in.Op = OpBLT
		case 0b101:
			in.Op = OpBGE
		case 0b110:
			in.Op = OpBLTU
		case 0b111:
			in.Op = OpBGEU
		default:
			return Instruction{}, false
		}
	case opcodeLOAD:
		in.Imm = immI(word)
		switch funct3 {
		case 0b000:
			in.Op = OpLB
		case 0b001:
			in.Op = OpLH
		case 0b010:
			in.Op = OpLW
		case 0b100:
			in.Op = OpLBU
		case 0b101:
			in.Op = OpLHU
		default:
			return Instruction{}, false
		}
	case opcodeSTORE:
		in.Imm = immS(word)
		switch funct3 {
		case 0b000:
			in.Op = OpSB
		case 0b001:
			in.Op = OpSH
		case 0b010:
			in.Op = OpSW
		default:
			return Instruction{}, false
		}
	case opcodeOPIMM:
		in.Imm = immI(word)
		switch funct3 {
		case 0b000:
			in.Op = OpADDI
		case 0b010:
			in.Op = OpSLTI
		case 0b011:
			in.Op = OpSLTIU
		case 0b100:
			in.Op = OpXORI
		case 0b110:
			in.Op = OpORI
		case 0b111:
			in.Op = OpANDI
		case 0b001:
			if funct7 != 0b0000000 {
				return Instruction{}, false
			}
			in.Op = OpSLLI
			in.Imm = int32(bit(word, 24, 20))
		case 0b101:
			switch funct7 {
			case 0b0000000:
				in.Op = OpSRLI
			case 0b0100000:
				in.Op = OpSRAI
			default:
				return Instruction{}, false
			}
			in.Imm = int32(bit(word, 24, 20))
		default:
			return Instruction{}, false
		}
	case opcodeOP:
		switch {
		case funct3 == 0b000 && funct7 == 0b0000000:
			in.Op = OpADD
		case funct3 == 0b000 && funct7 == 0b0100000:
			in.Op = OpSUB
		case funct3 == 0b000 && funct7 == 0b0000001:
			in.Op = OpMUL
		case funct3 == 0b001 && funct7 == 0b0000000:
			in.Op = OpSLL
		case funct3 == 0b001 && funct7 == 0b0000001:
			in.Op = OpMULH
		case funct3 == 0b010 && funct7 == 0b0000000:
			in.Op = OpSLT
		case funct3 == 0b010 && funct7 == 0b0000001:
			in.Op = OpMULHSU
		case funct3 == 0b011 && funct7 == 0b0000000:
			in.Op = OpSLTU
		case funct3 == 0b011 && funct7 == 0b0000001:
			in.Op = OpMULHU
		case funct3 == 0b100 && funct7 == 0b0000000:
			in.Op = OpXOR
		case funct3 == 0b100 && funct7 == 0b0000001:
			in.Op = OpDIV
		case funct3 == 0b101 && funct7 == 0b0000000:
			in.Op = OpSRL
		case funct3 == 0b101 && funct7 == 0b0100000:
			in.Op = OpSRA
		case funct3 == 0b101 && funct7 == 0b0000001:
			in.Op = OpDIVU
		case funct3 == 0b110 && funct7 == 0b0000000:
			in.Op = OpOR
		case funct3 == 0b110 && funct7 == 0b0000001:
			in.Op = OpREM
		case funct3 == 0b111 && funct7 == 0b0000000:
			in.Op = OpAND
		case funct3 == 0b111 && funct7 == 0b0000001:
			in.Op = OpREMU
		default:
			return Instruction{}, false
		}
	case opcodeMiscMem:
		if funct3 != 0b000 {
			return Instruction{}, false
		}
		in.Op = OpFENCE
	case opcodeSYSTEM:
		if funct3 != 0b000 || rd != 0 || rs1 != 0 {
			return Instruction{}, false
		}
		imm := immI(word)
		switch imm {
		case 0:
			in.Op = OpECALL
		case 1:
			in.Op = OpEBREAK
		default:
			return Instruction{}, false
		}
	default:
		return Instruction{}, false
	}

	return in, true
}
