package vm

import (
	"os"
	"syscall"
)

// Linux RISC-V syscall numbers this emulator recognizes, per spec.md §4.7.
const (
	sysRead  = 63
	sysWrite = 64
	sysExit  = 93
)

// handleSyscall dispatches an ECALL using the standard a7/a0-a2 argument
// convention (x17, x10-x12). Every syscall here either halts the machine
// (exit) or always advances PC by the instruction length Step already
// staged in NextPC (read, write) -- the buffer-validation failure inside
// read/write is the one fault in this package that does not halt.
func (m *Machine) handleSyscall() error {
	num := m.ReadReg(17)
	a0 := m.ReadReg(10)
	a1 := m.ReadReg(11)
	a2 := m.ReadReg(12)

	switch num {
	case sysExit:
		m.Halt = true
		m.ExitCode = int32(a0)
		return nil

	case sysRead:
		n, ok := m.syscallTransfer(a1, a2)
		if !ok {
			m.WriteReg(10, ^uint32(0)) // -1
			return nil
		}
		got, err := readFd(int(a0), m.Mem[n.off:n.off+n.size])
		if err != nil {
			m.WriteReg(10, ^uint32(0)) // -1
			return nil
		}
		m.WriteReg(10, uint32(got))
		return nil

	case sysWrite:
		n, ok := m.syscallTransfer(a1, a2)
		if !ok {
			m.WriteReg(10, ^uint32(0)) // -1
			return nil
		}
		wrote, err := writeFd(int(a0), m.Mem[n.off:n.off+n.size])
		if err != nil {
			m.WriteReg(10, ^uint32(0)) // -1
			return nil
		}
		m.WriteReg(10, uint32(wrote))
		return nil

	default:
		return m.fault(ErrUnknownSyscall, "unknown syscall number %d at pc=0x%08x", num, m.PC)
	}
}

type bufSpan struct {
	off  uint32
	size uint32
}

// syscallTransfer validates that [addr, addr+count) lies entirely within
// guest memory without faulting the machine, per spec.md §4.7's rule that
// a bad read/write buffer is reported to the guest in-band as -1.
func (m *Machine) syscallTransfer(addr, count uint32) (bufSpan, bool) {
	if err := m.checkRange(addr, count); err != nil {
		return bufSpan{}, false
	}
	return bufSpan{off: addr - m.MemBase, size: count}, true
}

// readFd and writeFd forward guest I/O to the host file descriptor
// unchanged, the way the original interpreter's syscall handlers call
// directly into read(2)/write(2).
func readFd(fd int, buf []byte) (int, error) {
	switch fd {
	case 0:
		return os.Stdin.Read(buf)
	default:
		return syscall.Read(fd, buf)
	}
}

func writeFd(fd int, buf []byte) (int, error) {
	switch fd {
	case 1:
		return os.Stdout.Write(buf)
	case 2:
		return os.Stderr.Write(buf)
	default:
		return syscall.Write(fd, buf)
	}
}
