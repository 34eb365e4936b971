package vm

import "encoding/binary"

// checkRange validates addr >= MemBase and addr-MemBase+size <= MemSize,
// per spec.md §4.2. It does not fault and mutate Halt itself so that
// syscall handlers can use it to validate a guest buffer without
// terminating the machine on failure.
func (m *Machine) checkRange(addr, size uint32) error {
	if addr < m.MemBase {
		return ErrOutOfRange
	}
	offset := addr - m.MemBase
	if offset > m.MemSize {
		return ErrOutOfRange
	}
	// Subtract rather than add size: a large guest-controlled size (the
	// a2 count of a read/write syscall) would otherwise overflow
	// offset+size and wrap past MemSize, letting an out-of-range buffer
	// through validation.
	if size > m.MemSize-offset {
		return ErrOutOfRange
	}
	return nil
}

// ReadU8 reads a single byte at addr. Out-of-range access is a fatal
// fault: it halts the machine, sets ExitCode to 1, and returns zero.
func (m *Machine) ReadU8(addr uint32) (uint8, error) {
	if err := m.checkRange(addr, 1); err != nil {
		return 0, m.fault(ErrOutOfRange, "read out of range at 0x%08x", addr)
	}
	return m.Mem[addr-m.MemBase], nil
}

// ReadU16 reads a little-endian halfword at addr. addr must be 2-byte
// aligned; misalignment and out-of-range access are both fatal faults.
func (m *Machine) ReadU16(addr uint32) (uint16, error) {
	if addr%2 != 0 {
		return 0, m.fault(ErrMisaligned, "misaligned 16-bit read at 0x%08x", addr)
	}
	if err := m.checkRange(addr, 2); err != nil {
		return 0, m.fault(ErrOutOfRange, "read out of range at 0x%08x", addr)
	}
	off := addr - m.MemBase
	return binary.LittleEndian.Uint16(m.Mem[off : off+2]), nil
}

// ReadU32 reads a little-endian word at addr. addr must be 4-byte
// aligned; misalignment and out-of-range access are both fatal faults.
func (m *Machine) ReadU32(addr uint32) (uint32, error) {
	if addr%4 != 0 {
		return 0, m.fault(ErrMisaligned, "misaligned 32-bit read at 0x%08x", addr)
	}
	if err := m.checkRange(addr, 4); err != nil {
		return 0, m.fault(ErrOutOfRange, "read out of range at 0x%08x", addr)
	}
	off := addr - m.MemBase
	return binary.LittleEndian.Uint32(m.Mem[off : off+4]), nil
}

// WriteU8 writes a single byte at addr. Out-of-range access is a fatal fault.
func (m *Machine) WriteU8(addr uint32, v uint8) error {
	if err := m.checkRange(addr, 1); err != nil {
		return m.fault(ErrOutOfRange, "write out of range at 0x%08x", addr)
	}
	m.Mem[addr-m.MemBase] = v
	return nil
}

// WriteU16 writes a little-endian halfword at addr. addr must be 2-byte
// aligned; misalignment and out-of-range access are both fatal faults.
func (m *Machine) WriteU16(addr uint32, v uint16) error {
	if addr%2 != 0 {
		return m.fault(ErrMisaligned, "misaligned 16-bit write at 0x%08x", addr)
	}
	if err := m.checkRange(addr, 2); err != nil {
		return m.fault(ErrOutOfRange, "write out of range at 0x%08x", addr)
	}
	off := addr - m.MemBase
	binary.LittleEndian.PutUint16(m.Mem[off:off+2], v)
	return nil
}

// WriteU32 writes a little-endian word at addr. addr must be 4-byte
// aligned; misalignment and out-of-range access are both fatal faults.
func (m *Machine) WriteU32(addr uint32, v uint32) error {
	if addr%4 != 0 {
		return m.fault(ErrMisaligned, "misaligned 32-bit write at 0x%08x", addr)
	}
	if err := m.checkRange(addr, 4); err != nil {
		return m.fault(ErrOutOfRange, "write out of range at 0x%08x", addr)
	}
	off := addr - m.MemBase
	binary.LittleEndian.PutUint32(m.Mem[off:off+4], v)
	return nil
}
