package disasm

import (
	"bytes"
	"testing"
)

func TestDisassembleEmpty(t *testing.T) {
	instrs, err := Disassemble("0x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instrs) != 0 {
		t.Fatalf("expected no instructions, got %d", len(instrs))
	}
}

func TestDisassembleSimple(t *testing.T) {
	// PUSH1 0x01, STOP, STOP
	instrs, err := Disassemble("0x60010000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instrs) != 3 {
		t.Fatalf("expected 3 instructions, got %d", len(instrs))
	}
	if instrs[0].Name != "PUSH1" || !bytes.Equal(instrs[0].Operand, []byte{0x01}) {
		t.Errorf("instr0 = %+v", instrs[0])
	}
	if instrs[0].Offset != 0 || instrs[1].Offset != 2 || instrs[2].Offset != 3 {
		t.Errorf("unexpected offsets: %d %d %d", instrs[0].Offset, instrs[1].Offset, instrs[2].Offset)
	}
	if instrs[1].Name != "STOP" {
		t.Errorf("instr1 = %+v", instrs[1])
	}
}

func TestDisassembleTruncatedPush(t *testing.T) {
	// PUSH4 but only 2 bytes follow
	instrs, err := Disassemble("0x63aabb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instrs) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(instrs))
	}
	if instrs[0].Name != "PUSH4" {
		t.Errorf("expected PUSH4, got %s", instrs[0].Name)
	}
	if !bytes.Equal(instrs[0].Operand, []byte{0xaa, 0xbb}) {
		t.Errorf("expected truncated operand [aa bb], got %x", instrs[0].Operand)
	}
}

func TestDisassembleUnknownOpcode(t *testing.T) {
	instrs, err := Disassemble("0x0c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instrs) != 1 || instrs[0].Name != "UNKNOWN_0C" {
		t.Errorf("expected UNKNOWN_0C, got %+v", instrs)
	}
}

func TestDisassembleOddLength(t *testing.T) {
	_, err := Disassemble("0xabc")
	if err != ErrOddHexLength {
		t.Errorf("expected ErrOddHexLength, got %v", err)
	}
}

func TestBytecodeSize(t *testing.T) {
	if got := BytecodeSize("0x600100"); got != 3 {
		t.Errorf("expected size 3, got %d", got)
	}
	if got := BytecodeSize("0x"); got != 0 {
		t.Errorf("expected size 0, got %d", got)
	}
}
