// Command riscv32 loads an ELF32 RISC-V executable and runs it under the
// pkg/vm interpreter.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/broot5/riscv32emu/pkg/vm"
)

func main() {
	log.SetFlags(0)
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "riscv32 <elf-file>",
		Short: "Run a 32-bit RISC-V ELF executable under a user-mode interpreter",
		Args:  cobra.ExactArgs(1),
		RunE:  runGuest,
	}
	return cmd
}

func runGuest(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("riscv32: %w", err)
	}

	machine := vm.NewMachine()
	if err := machine.LoadELF(data); err != nil {
		return fmt.Errorf("riscv32: %w", err)
	}

	// Run's error, if any, is non-nil exactly when the machine faulted;
	// Run itself has already dumped registers to Stderr for any nonzero
	// exit code, so there's nothing left to report here beyond the
	// guest's own exit code.
	_ = machine.Run()
	os.Exit(int(machine.ExitCode))
	return nil
}
