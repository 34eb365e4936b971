package vm

import "errors"

// The following sentinel errors classify the fault taxonomy of spec.md §7.
// Machine.fault pairs each of them with Machine.Halt = true and
// ExitCode 1, the way the teacher's loop turns ErrHalted/ErrSIGSEGV/
// ErrNotPermitted into a non-zero process exit. ErrInvalidRegister is the
// exception: ReadReg and WriteReg panic with it instead.
var (
	// ErrOutOfRange indicates a guest memory access fell outside
	// [MemBase, MemBase+MemSize).
	ErrOutOfRange = errors.New("vm: memory access out of range")

	// ErrMisaligned indicates a 16- or 32-bit memory access, or a jump
	// target, was not naturally aligned.
	ErrMisaligned = errors.New("vm: misaligned memory access")

	// ErrIllegalInstruction indicates the decoder found no dispatch
	// entry for the fetched (or expanded) 32-bit instruction word.
	ErrIllegalInstruction = errors.New("vm: illegal instruction")

	// ErrUnknownSyscall indicates an ECALL requested an a7 value this
	// kernel-emulation surface does not implement.
	ErrUnknownSyscall = errors.New("vm: unknown syscall")

	// ErrBreakpoint indicates an EBREAK was executed; the interpreter
	// halts and dumps registers, as spec.md §4.6 requires.
	ErrBreakpoint = errors.New("vm: breakpoint")

	// ErrInvalidRegister indicates a decoder or host bug produced a
	// register index outside [0, 32) -- spec.md §3 calls this an
	// internal-error condition, never reachable from well-formed decode.
	ErrInvalidRegister = errors.New("vm: invalid register index")
)
