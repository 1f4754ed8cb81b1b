package opcodes

import "testing"

func TestLookupKnown(t *testing.T) {
	cases := []struct {
		op           byte
		wantName     string
		wantOperand  int
	}{
		{0x00, "STOP", 0},
		{0x01, "ADD", 0},
		{0x54, "SLOAD", 0},
		{0x55, "SSTORE", 0},
		{0xF1, "CALL", 0},
		{0xF4, "DELEGATECALL", 0},
		{0xFF, "SELFDESTRUCT", 0},
		{0x5F, "PUSH0", 0},
		{0x60, "PUSH1", 1},
		{0x63, "PUSH4", 4},
		{0x7F, "PUSH32", 32},
		{0x80, "DUP1", 0},
		{0x8F, "DUP16", 0},
		{0x90, "SWAP1", 0},
		{0x9F, "SWAP16", 0},
		{0xA0, "LOG0", 0},
	}
	for _, c := range cases {
		got := Lookup(c.op)
		if got.Name != c.wantName || got.OperandSize != c.wantOperand {
			t.Errorf("Lookup(0x%02X) = (%s, %d), want (%s, %d)",
				c.op, got.Name, got.OperandSize, c.wantName, c.wantOperand)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	got := Lookup(0x0C)
	if got.Name != "UNKNOWN_0C" || got.OperandSize != 0 {
		t.Errorf("Lookup(0x0C) = (%s, %d), want (UNKNOWN_0C, 0)", got.Name, got.OperandSize)
	}
}

func TestTableSize(t *testing.T) {
	// 12 + 14 + 1 + 16 + 11 + 16 + 32 + 16 + 16 + 5 + 10 = 149
	if len(Table) < 140 {
		t.Errorf("Table has %d entries, expected at least 140", len(Table))
	}
}
