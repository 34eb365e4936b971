package vm

import "fmt"

// dumpRegisters prints a diagnostic register dump to Stderr, matching the
// original interpreter's banner-PC-then-four-per-line layout, so that a
// guest crash or EBREAK produces output an existing user would recognize.
func (m *Machine) dumpRegisters() {
	const rule = "================================================================"
	fmt.Fprintln(m.Stderr, rule)
	fmt.Fprintln(m.Stderr, "Register Dump:")
	fmt.Fprintf(m.Stderr, "PC : 0x%08x\n", m.PC)
	for i := 0; i < NumRegisters; i++ {
		fmt.Fprintf(m.Stderr, "x%-2d: 0x%08x ", i, m.Regs[i])
		if (i+1)%4 == 0 {
			fmt.Fprintln(m.Stderr)
		}
	}
	fmt.Fprintln(m.Stderr, rule)
}
