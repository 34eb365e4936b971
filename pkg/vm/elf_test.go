package vm

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildTestELF constructs a minimal, valid ET_EXEC RISC-V ELF32 image
// with a single PT_LOAD segment carrying code plus a BSS tail.
func buildTestELF(t *testing.T, vaddr uint32, code []byte, bssExtra uint32, entry uint32) []byte {
	t.Helper()

	const ehsize = 52
	const phoff = ehsize
	const phentsize = 32

	buf := make([]byte, phoff+phentsize)

	ident := []byte{0x7f, 'E', 'L', 'F', elfClass32, elfDataLSB, elfVersionCur}
	copy(buf[0:16], ident)

	binary.LittleEndian.PutUint16(buf[16:18], elfTypeExec)
	binary.LittleEndian.PutUint16(buf[18:20], elfMachineRV)
	binary.LittleEndian.PutUint32(buf[20:24], elfVersionCur)
	binary.LittleEndian.PutUint32(buf[24:28], entry)
	binary.LittleEndian.PutUint32(buf[28:32], phoff)
	binary.LittleEndian.PutUint32(buf[32:36], 0)
	binary.LittleEndian.PutUint32(buf[36:40], 0)
	binary.LittleEndian.PutUint16(buf[40:42], ehsize)
	binary.LittleEndian.PutUint16(buf[42:44], phentsize)
	binary.LittleEndian.PutUint16(buf[44:46], 1)
	binary.LittleEndian.PutUint16(buf[46:48], 0)
	binary.LittleEndian.PutUint16(buf[48:50], 0)
	binary.LittleEndian.PutUint16(buf[50:52], 0)

	ph := buf[phoff : phoff+phentsize]
	binary.LittleEndian.PutUint32(ph[0:4], ptLoad)
	binary.LittleEndian.PutUint32(ph[4:8], uint32(len(buf))) // file offset of code, appended below
	binary.LittleEndian.PutUint32(ph[8:12], vaddr)
	binary.LittleEndian.PutUint32(ph[12:16], vaddr)
	binary.LittleEndian.PutUint32(ph[16:20], uint32(len(code)))
	binary.LittleEndian.PutUint32(ph[20:24], uint32(len(code))+bssExtra)
	binary.LittleEndian.PutUint32(ph[24:28], 5)
	binary.LittleEndian.PutUint32(ph[28:32], 4)

	buf = append(buf, code...)
	return buf
}

func TestLoadELFBasic(t *testing.T) {
	code := make([]byte, 8)
	binary.LittleEndian.PutUint32(code[0:4], encodeI(5, 0, 0b000, 1, opcodeOPIMM))
	binary.LittleEndian.PutUint32(code[4:8], buildIType(0, 0, 0b000, 0, opcodeSYSTEM))

	data := buildTestELF(t, 0x1000, code, 16, 0x1000)

	m := NewMachine()
	m.Stderr = &bytes.Buffer{}
	if err := m.LoadELF(data); err != nil {
		t.Fatalf("LoadELF: %v", err)
	}
	if m.MemBase != 0x1000 {
		t.Errorf("MemBase = 0x%x, want 0x1000", m.MemBase)
	}
	if m.PC != 0x1000 {
		t.Errorf("PC = 0x%x, want 0x1000", m.PC)
	}

	word, err := m.ReadU32(0x1000)
	if err != nil || word != binary.LittleEndian.Uint32(code[0:4]) {
		t.Errorf("loaded code mismatch at entry: got 0x%08x, err=%v", word, err)
	}

	bssWord, err := m.ReadU32(0x1000 + uint32(len(code)))
	if err != nil || bssWord != 0 {
		t.Errorf("BSS tail not zeroed: got 0x%08x, err=%v", bssWord, err)
	}

	if m.Regs[2] != m.MemBase+m.MemSize {
		t.Errorf("sp = 0x%x, want top of memory 0x%x", m.Regs[2], m.MemBase+m.MemSize)
	}
}

func TestLoadELFRejectsBadMagic(t *testing.T) {
	m := NewMachine()
	m.Stderr = &bytes.Buffer{}
	err := m.LoadELF([]byte("not an elf file at all, padded to be long enough"))
	if err == nil {
		t.Fatal("expected an error for a non-ELF file")
	}
}

func TestLoadELFRunsToExit(t *testing.T) {
	code := make([]byte, 12)
	binary.LittleEndian.PutUint32(code[0:4], encodeI(42, 0, 0b000, 10, opcodeOPIMM))  // addi a0, x0, 42
	binary.LittleEndian.PutUint32(code[4:8], encodeI(93, 0, 0b000, 17, opcodeOPIMM))  // addi a7, x0, 93
	binary.LittleEndian.PutUint32(code[8:12], buildIType(0, 0, 0b000, 0, opcodeSYSTEM)) // ecall

	data := buildTestELF(t, 0x1000, code, 0, 0x1000)
	m := NewMachine()
	m.Stderr = &bytes.Buffer{}
	if err := m.LoadELF(data); err != nil {
		t.Fatalf("LoadELF: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.ExitCode != 42 {
		t.Errorf("ExitCode = %d, want 42", m.ExitCode)
	}
}
