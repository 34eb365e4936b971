package vm

// execute carries out a decoded instruction against the machine's
// register file and memory, staging NextPC for control-flow instructions
// and leaving it untouched (PC+length, already staged by Step) for
// everything else. It mirrors the original interpreter's per-opcode
// handle_* functions, one case per Op.
func (m *Machine) execute(in Instruction) error {
	switch in.Op {
	case OpLUI:
		m.WriteReg(in.Rd, uint32(in.Imm))
	case OpAUIPC:
		m.WriteReg(in.Rd, m.PC+uint32(in.Imm))

	case OpJAL:
		// Step has already staged NextPC = PC + instruction length; that
		// is exactly the link value before we overwrite it with the jump
		// target.
		link := m.NextPC
		m.WriteReg(in.Rd, link)
		m.NextPC = uint32(int32(m.PC) + in.Imm)
	case OpJALR:
		link := m.NextPC
		target := (uint32(int32(m.ReadReg(in.Rs1))+in.Imm)) &^ 1
		m.WriteReg(in.Rd, link)
		m.NextPC = target

	case OpBEQ:
		if m.ReadReg(in.Rs1) == m.ReadReg(in.Rs2) {
			m.NextPC = uint32(int32(m.PC) + in.Imm)
		}
	case OpBNE:
		if m.ReadReg(in.Rs1) != m.ReadReg(in.Rs2) {
			m.NextPC = uint32(int32(m.PC) + in.Imm)
		}
	case OpBLT:
		if int32(m.ReadReg(in.Rs1)) < int32(m.ReadReg(in.Rs2)) {
			m.NextPC = uint32(int32(m.PC) + in.Imm)
		}
	case OpBGE:
		if int32(m.ReadReg(in.Rs1)) >= int32(m.ReadReg(in.Rs2)) {
			m.NextPC = uint32(int32(m.PC) + in.Imm)
		}
	case OpBLTU:
		if m.ReadReg(in.Rs1) < m.ReadReg(in.Rs2) {
			m.NextPC = uint32(int32(m.PC) + in.Imm)
		}
	case OpBGEU:
		if m.ReadReg(in.Rs1) >= m.ReadReg(in.Rs2) {
			m.NextPC = uint32(int32(m.PC) + in.Imm)
		}

	case OpLB:
		addr := uint32(int32(m.ReadReg(in.Rs1)) + in.Imm)
		v, err := m.ReadU8(addr)
		if err != nil {
			return err
		}
		m.WriteReg(in.Rd, uint32(int32(int8(v))))
	case OpLH:
		addr := uint32(int32(m.ReadReg(in.Rs1)) + in.Imm)
		v, err := m.ReadU16(addr)
		if err != nil {
			return err
		}
		m.WriteReg(in.Rd, uint32(int32(int16(v))))
	case OpLW:
		addr := uint32(int32(m.ReadReg(in.Rs1)) + in.Imm)
		v, err := m.ReadU32(addr)
		if err != nil {
			return err
		}
		m.WriteReg(in.Rd, v)
	case OpLBU:
		addr := uint32(int32(m.ReadReg(in.Rs1)) + in.Imm)
		v, err := m.ReadU8(addr)
		if err != nil {
			return err
		}
		m.WriteReg(in.Rd, uint32(v))
	case OpLHU:
		addr := uint32(int32(m.ReadReg(in.Rs1)) + in.Imm)
		v, err := m.ReadU16(addr)
		if err != nil {
			return err
		}
		m.WriteReg(in.Rd, uint32(v))

	case OpSB:
		addr := uint32(int32(m.ReadReg(in.Rs1)) + in.Imm)
		if err := m.WriteU8(addr, uint8(m.ReadReg(in.Rs2))); err != nil {
			return err
		}
	case OpSH:
		addr := uint32(int32(m.ReadReg(in.Rs1)) + in.Imm)
		if err := m.WriteU16(addr, uint16(m.ReadReg(in.Rs2))); err != nil {
			return err
		}
	case OpSW:
		addr := uint32(int32(m.ReadReg(in.Rs1)) + in.Imm)
		if err := m.WriteU32(addr, m.ReadReg(in.Rs2)); err != nil {
			return err
		}

	case OpADDI:
		m.WriteReg(in.Rd, m.ReadReg(in.Rs1)+uint32(in.Imm))
	case OpSLTI:
		if int32(m.ReadReg(in.Rs1)) < in.Imm {
			m.WriteReg(in.Rd, 1)
		} else {
			m.WriteReg(in.Rd, 0)
		}
	case OpSLTIU:
		if m.ReadReg(in.Rs1) < uint32(in.Imm) {
			m.WriteReg(in.Rd, 1)
		} else {
			m.WriteReg(in.Rd, 0)
		}
	case OpXORI:
		m.WriteReg(in.Rd, m.ReadReg(in.Rs1)^uint32(in.Imm))
	case OpORI:
		m.WriteReg(in.Rd, m.ReadReg(in.Rs1)|uint32(in.Imm))
	case OpANDI:
		m.WriteReg(in.Rd, m.ReadReg(in.Rs1)&uint32(in.Imm))
	case OpSLLI:
		m.WriteReg(in.Rd, m.ReadReg(in.Rs1)<<(uint32(in.Imm)&0x1f))
	case OpSRLI:
		m.WriteReg(in.Rd, m.ReadReg(in.Rs1)>>(uint32(in.Imm)&0x1f))
	case OpSRAI:
		m.WriteReg(in.Rd, uint32(int32(m.ReadReg(in.Rs1))>>(uint32(in.Imm)&0x1f)))

	case OpADD:
		m.WriteReg(in.Rd, m.ReadReg(in.Rs1)+m.ReadReg(in.Rs2))
	case OpSUB:
		m.WriteReg(in.Rd, m.ReadReg(in.Rs1)-m.ReadReg(in.Rs2))
	case OpSLL:
		m.WriteReg(in.Rd, m.ReadReg(in.Rs1)<<(m.ReadReg(in.Rs2)&0x1f))
	case OpSLT:
		if int32(m.ReadReg(in.Rs1)) < int32(m.ReadReg(in.Rs2)) {
			m.WriteReg(in.Rd, 1)
		} else {
			m.WriteReg(in.Rd, 0)
		}
	case OpSLTU:
		if m.ReadReg(in.Rs1) < m.ReadReg(in.Rs2) {
			m.WriteReg(in.Rd, 1)
		} else {
			m.WriteReg(in.Rd, 0)
		}
	case OpXOR:
		m.WriteReg(in.Rd, m.ReadReg(in.Rs1)^m.ReadReg(in.Rs2))
	case OpSRL:
		m.WriteReg(in.Rd, m.ReadReg(in.Rs1)>>(m.ReadReg(in.Rs2)&0x1f))
	case OpSRA:
		m.WriteReg(in.Rd, uint32(int32(m.ReadReg(in.Rs1))>>(m.ReadReg(in.Rs2)&0x1f)))
	case OpOR:
		m.WriteReg(in.Rd, m.ReadReg(in.Rs1)|m.ReadReg(in.Rs2))
	case OpAND:
		m.WriteReg(in.Rd, m.ReadReg(in.Rs1)&m.ReadReg(in.Rs2))

	case OpMUL:
		m.WriteReg(in.Rd, m.ReadReg(in.Rs1)*m.ReadReg(in.Rs2))
	case OpMULH:
		a := int64(int32(m.ReadReg(in.Rs1)))
		b := int64(int32(m.ReadReg(in.Rs2)))
		m.WriteReg(in.Rd, uint32((a*b)>>32))
	case OpMULHSU:
		a := int64(int32(m.ReadReg(in.Rs1)))
		b := int64(uint64(m.ReadReg(in.Rs2)))
		m.WriteReg(in.Rd, uint32((a*b)>>32))
	case OpMULHU:
		a := uint64(m.ReadReg(in.Rs1))
		b := uint64(m.ReadReg(in.Rs2))
		m.WriteReg(in.Rd, uint32((a*b)>>32))
	case OpDIV:
		a := int32(m.ReadReg(in.Rs1))
		b := int32(m.ReadReg(in.Rs2))
		switch {
		case b == 0:
			m.WriteReg(in.Rd, 0xFFFFFFFF)
		case a == minInt32 && b == -1:
			m.WriteReg(in.Rd, uint32(a))
		default:
			m.WriteReg(in.Rd, uint32(a/b))
		}
	case OpDIVU:
		a := m.ReadReg(in.Rs1)
		b := m.ReadReg(in.Rs2)
		if b == 0 {
			m.WriteReg(in.Rd, 0xFFFFFFFF)
		} else {
			m.WriteReg(in.Rd, a/b)
		}
	case OpREM:
		a := int32(m.ReadReg(in.Rs1))
		b := int32(m.ReadReg(in.Rs2))
		switch {
		case b == 0:
			m.WriteReg(in.Rd, uint32(a))
		case a == minInt32 && b == -1:
			m.WriteReg(in.Rd, 0)
		default:
			m.WriteReg(in.Rd, uint32(a%b))
		}
	case OpREMU:
		a := m.ReadReg(in.Rs1)
		b := m.ReadReg(in.Rs2)
		if b == 0 {
			m.WriteReg(in.Rd, a)
		} else {
			m.WriteReg(in.Rd, a%b)
		}

	case OpFENCE:
		// Single-hart, no-op: there is no other agent memory ordering
		// could matter against.

	case OpECALL:
		return m.handleSyscall()
	case OpEBREAK:
		// Run dumps registers for any nonzero exit code, including this
		// fault, so there's no separate dump call here.
		return m.fault(ErrBreakpoint, "EBREAK executed at pc=0x%08x", m.PC)

	default:
		return m.fault(ErrIllegalInstruction, "unhandled op %d at pc=0x%08x", in.Op, m.PC)
	}
	return nil
}

const minInt32 = -1 << 31
