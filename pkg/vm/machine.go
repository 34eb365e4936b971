// Package vm implements a user-mode emulator for 32-bit RISC-V programs
// (the base integer set I, the M multiply/divide extension, and the C
// compressed-instruction extension).
//
// Architecture
//
// The emulator is a single-threaded fetch-decode-execute interpreter over
// a shared Machine value: 32 general-purpose registers with x0 hardwired
// to zero, a program counter, and a bounded flat byte-addressable memory.
// Every guest address the machine touches is validated against the
// memory's base and size before any load or store is performed.
//
// Fault model
//
// Nearly every fault this package can surface (illegal instruction,
// misaligned or out-of-range memory access, unknown syscall) is fatal: it
// sets Machine.Halt and a non-zero Machine.ExitCode and is reported to the
// caller as a sentinel error from the errors.go table. The single
// recoverable fault is a buffer-validation failure in the read/write
// syscalls, which is reported in-band to the guest as -1 without halting,
// per spec.md §4.7.
//
// Out of scope: privileged/supervisor instructions (CSRs, mret, traps,
// interrupts), the F/D floating-point extensions, the A atomics
// extension, multi-hart concurrency, and virtual memory.
package vm

import (
	"fmt"
	"io"
	"os"
)

const (
	// MemSize is the size, in bytes, of the emulated flat memory.
	MemSize = 16 * 1024 * 1024

	// NumRegisters is the number of general-purpose registers. x0 is
	// hardwired to zero; writes to it are discarded.
	NumRegisters = 32
)

// Machine is the sole mutable aggregate the interpreter threads through
// fetch, decode, and execute. It is not goroutine-safe; exactly one
// goroutine should drive it, mirroring the single-hart model of spec.md §5.
type Machine struct {
	Regs [NumRegisters]uint32
	PC   uint32
	// NextPC is interpreter-loop scratch: executors stage the
	// post-instruction PC here, and the loop commits it to PC unless the
	// executor has halted the machine.
	NextPC uint32

	Mem     []byte
	MemBase uint32
	MemSize uint32

	Halt     bool
	ExitCode int32

	// Stderr receives fault diagnostics and the register dump on
	// abnormal exit. Defaults to os.Stderr; tests substitute a buffer.
	Stderr io.Writer
}

// NewMachine constructs a Machine with all registers zero, PC at zero, a
// zeroed MemSize-byte memory region based at address zero, and the stack
// pointer (x2) initialized to the top of that region, per spec.md §3.
func NewMachine() *Machine {
	m := &Machine{
		Mem:     make([]byte, MemSize),
		MemBase: 0,
		MemSize: MemSize,
		Stderr:  os.Stderr,
	}
	m.Regs[2] = m.MemBase + m.MemSize
	return m
}

// fault records a fatal error: it sets Halt, derives ExitCode, wraps sentinel
// so errors.Is(err, sentinel) holds for callers, and prints a one-line
// diagnostic to Stderr the way the teacher's handler functions print to
// stderr before halting.
func (m *Machine) fault(sentinel error, format string, args ...any) error {
	m.Halt = true
	m.ExitCode = 1
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(m.Stderr, "vm: %s\n", msg)
	return fmt.Errorf("%s: %w", msg, sentinel)
}

// Run drives the fetch-decode-execute loop until the machine halts. It
// returns the first fatal error encountered, or nil if the guest exited
// cleanly via the exit syscall or ran off the end of a step without
// faulting (which cannot happen: every step either advances PC or halts).
//
// Whenever the machine stops with a nonzero ExitCode -- a fault or a
// guest exit(nonzero) alike -- Run dumps registers to Stderr exactly
// once, the way the original interpreter's main loop dumps unconditionally
// whenever cpu.exit_code != 0 after the loop exits, rather than only on
// EBREAK.
func (m *Machine) Run() error {
	for !m.Halt {
		if err := m.Step(); err != nil {
			if m.ExitCode != 0 {
				m.dumpRegisters()
			}
			return err
		}
	}
	if m.ExitCode != 0 {
		m.dumpRegisters()
	}
	return nil
}

// Step performs one fetch-decode-execute cycle: it fetches a 16- or
// 32-bit code unit at PC, expanding a compressed unit to its canonical
// 32-bit form, dispatches it to an executor, and commits NextPC to PC
// unless the executor halted the machine.
func (m *Machine) Step() error {
	if m.PC%2 != 0 {
		return m.fault(ErrMisaligned, "instruction-address-misaligned at pc=0x%08x", m.PC)
	}

	lo, err := m.fetchHalfword(m.PC)
	if err != nil {
		return err
	}

	var word uint32
	var length uint32
	if lo&0x3 == 0x3 {
		hi, err := m.fetchHalfword(m.PC + 2)
		if err != nil {
			return err
		}
		word = uint32(lo) | uint32(hi)<<16
		length = 4
	} else {
		expanded, ok := ExpandCompressed(lo)
		if !ok {
			return m.fault(ErrIllegalInstruction, "illegal compressed instruction 0x%04x at pc=0x%08x", lo, m.PC)
		}
		word = expanded
		length = 2
	}

	inst, ok := Decode(word)
	if !ok {
		return m.fault(ErrIllegalInstruction, "illegal instruction 0x%08x at pc=0x%08x", word, m.PC)
	}

	m.NextPC = m.PC + length
	if err := m.execute(inst); err != nil {
		return err
	}
	if !m.Halt {
		m.PC = m.NextPC
	}
	return nil
}

// fetchHalfword reads a naturally aligned 16-bit code unit at addr
// without requiring 4-byte alignment (compressed instructions only need
// 2-byte alignment), per spec.md §4.5.
func (m *Machine) fetchHalfword(addr uint32) (uint16, error) {
	if addr%2 != 0 {
		return 0, m.fault(ErrMisaligned, "misaligned instruction fetch at 0x%08x", addr)
	}
	if err := m.checkRange(addr, 2); err != nil {
		return 0, m.fault(ErrOutOfRange, "instruction fetch out of range at 0x%08x", addr)
	}
	off := addr - m.MemBase
	return uint16(m.Mem[off]) | uint16(m.Mem[off+1])<<8, nil
}
