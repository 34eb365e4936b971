// Command riscvasm assembles RV32IMC textual assembly into a raw binary
// stream of little-endian instruction words, four bytes per word, written
// to stdout or to the file named by -o.
package main

import (
	"bufio"
	"encoding/binary"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/broot5/riscv32emu/pkg/asm"
)

func main() {
	log.SetFlags(0)
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "riscvasm <asm-file>",
		Short: "Assemble RV32IMC assembly into a raw little-endian instruction stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return assemble(args[0], out)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func assemble(path, out string) error {
	fp, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fp.Close()

	words, err := asm.Assemble(fp)
	if err != nil {
		return err
	}

	w := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	bw := bufio.NewWriter(w)
	defer bw.Flush()
	buf := make([]byte, 4)
	for _, word := range words {
		binary.LittleEndian.PutUint32(buf, word)
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
