package asm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// regNames maps the RISC-V calling-convention register aliases to their
// numeric index, on top of the plain x0-x31 forms.
var regNames = map[string]uint32{
	"zero": 0, "ra": 1, "sp": 2, "gp": 3, "tp": 4,
	"t0": 5, "t1": 6, "t2": 7,
	"s0": 8, "fp": 8, "s1": 9,
	"a0": 10, "a1": 11, "a2": 12, "a3": 13, "a4": 14, "a5": 15, "a6": 16, "a7": 17,
	"s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23, "s8": 24, "s9": 25, "s10": 26, "s11": 27,
	"t3": 28, "t4": 29, "t5": 30, "t6": 31,
}

func parseReg(tok string) (uint32, error) {
	tok = strings.TrimSuffix(strings.TrimSpace(tok), ",")
	if r, ok := regNames[tok]; ok {
		return r, nil
	}
	if strings.HasPrefix(tok, "x") {
		n, err := strconv.Atoi(tok[1:])
		if err == nil && n >= 0 && n < 32 {
			return uint32(n), nil
		}
	}
	return 0, fmt.Errorf("unknown register %q", tok)
}

func parseImmOrLabel(tok string) (int32, string, error) {
	tok = strings.TrimSpace(tok)
	if v, err := strconv.ParseInt(tok, 0, 32); err == nil {
		return int32(v), "", nil
	}
	return 0, tok, nil
}

// StartParsing reads assembly lines from r and emits one Instruction per
// non-blank, non-comment line, the way the teacher's StartParsing turns a
// token stream into Instruction values -- simplified here to a
// line-oriented parser since RV32IMC's operand order is regular enough
// not to need the teacher's separate lexer stage.
func StartParsing(r io.Reader) <-chan Instruction {
	out := make(chan Instruction)
	go parseAsync(r, out)
	return out
}

func parseAsync(r io.Reader, out chan<- Instruction) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var label *string
		if idx := strings.IndexByte(line, ':'); idx >= 0 {
			name := strings.TrimSpace(line[:idx])
			label = &name
			line = strings.TrimSpace(line[idx+1:])
			if line == "" {
				out <- parsedLine{label: label, lineno: lineno, spec: opSpec{format: formatSystem, op: 0, sysImm: 0}}
				continue
			}
		}

		instr, err := parseInstruction(line, lineno, label)
		if err != nil {
			out <- parseError{err: err, lineno: lineno}
			continue
		}
		out <- instr
	}
}

func parseInstruction(line string, lineno int, label *string) (Instruction, error) {
	fields := strings.Fields(line)
	mnemonic := strings.ToLower(fields[0])
	spec, ok := mnemonics[mnemonic]
	if !ok {
		return nil, fmt.Errorf("unknown mnemonic %q at line %d", mnemonic, lineno)
	}
	operands := strings.Join(fields[1:], " ")
	parts := splitOperands(operands)

	p := parsedLine{spec: spec, label: label, lineno: lineno}

	switch spec.format {
	case formatR, formatIShift:
		if len(parts) != 3 {
			return nil, fmt.Errorf("%s expects 3 operands at line %d", mnemonic, lineno)
		}
		rd, err := parseReg(parts[0])
		if err != nil {
			return nil, err
		}
		rs1, err := parseReg(parts[1])
		if err != nil {
			return nil, err
		}
		p.rd, p.rs1 = rd, rs1
		if spec.format == formatIShift {
			imm, _, err := parseImmOrLabel(parts[2])
			if err != nil {
				return nil, err
			}
			p.imm = imm
		} else {
			rs2, err := parseReg(parts[2])
			if err != nil {
				return nil, err
			}
			p.rs2 = rs2
		}
	case formatI:
		// addi rd, rs1, imm
		if len(parts) != 3 {
			return nil, fmt.Errorf("%s expects 3 operands at line %d", mnemonic, lineno)
		}
		rd, err := parseReg(parts[0])
		if err != nil {
			return nil, err
		}
		rs1, err := parseReg(parts[1])
		if err != nil {
			return nil, err
		}
		imm, sym, err := parseImmOrLabel(parts[2])
		if err != nil {
			return nil, err
		}
		p.rd, p.rs1, p.imm, p.symbol = rd, rs1, imm, sym
	case formatILoad:
		// lw rd, imm(rs1)
		if len(parts) != 3 {
			return nil, fmt.Errorf("%s expects 3 operands at line %d", mnemonic, lineno)
		}
		rd, err := parseReg(parts[0])
		if err != nil {
			return nil, err
		}
		imm, sym, err := parseImmOrLabel(parts[1])
		if err != nil {
			return nil, err
		}
		rs1, err := parseReg(parts[2])
		if err != nil {
			return nil, err
		}
		p.rd, p.imm, p.symbol, p.rs1 = rd, imm, sym, rs1
	case formatS:
		// sw rs2, imm(rs1)
		if len(parts) != 3 {
			return nil, fmt.Errorf("%s expects 3 operands at line %d", mnemonic, lineno)
		}
		rs2, err := parseReg(parts[0])
		if err != nil {
			return nil, err
		}
		imm, sym, err := parseImmOrLabel(parts[1])
		if err != nil {
			return nil, err
		}
		rs1, err := parseReg(parts[2])
		if err != nil {
			return nil, err
		}
		p.rs2, p.imm, p.symbol, p.rs1 = rs2, imm, sym, rs1
	case formatB:
		// beq rs1, rs2, target
		if len(parts) != 3 {
			return nil, fmt.Errorf("%s expects 3 operands at line %d", mnemonic, lineno)
		}
		rs1, err := parseReg(parts[0])
		if err != nil {
			return nil, err
		}
		rs2, err := parseReg(parts[1])
		if err != nil {
			return nil, err
		}
		imm, sym, err := parseImmOrLabel(parts[2])
		if err != nil {
			return nil, err
		}
		p.rs1, p.rs2, p.imm, p.symbol = rs1, rs2, imm, sym
	case formatU:
		if len(parts) != 2 {
			return nil, fmt.Errorf("%s expects 2 operands at line %d", mnemonic, lineno)
		}
		rd, err := parseReg(parts[0])
		if err != nil {
			return nil, err
		}
		imm, _, err := parseImmOrLabel(parts[1])
		if err != nil {
			return nil, err
		}
		p.rd, p.imm = rd, imm<<12
	case formatJ:
		if len(parts) != 2 {
			return nil, fmt.Errorf("%s expects 2 operands at line %d", mnemonic, lineno)
		}
		rd, err := parseReg(parts[0])
		if err != nil {
			return nil, err
		}
		imm, sym, err := parseImmOrLabel(parts[1])
		if err != nil {
			return nil, err
		}
		p.rd, p.imm, p.symbol = rd, imm, sym
	case formatSystem:
		// ecall/ebreak take no operands.
	}

	return p, nil
}

// splitOperands splits a comma- or paren-joined operand list like
// "x1, 64(x2)" into its logical tokens "x1", "64", "x2".
func splitOperands(s string) []string {
	s = strings.NewReplacer("(", ",", ")", "").Replace(s)
	raw := strings.Split(s, ",")
	var out []string
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}
