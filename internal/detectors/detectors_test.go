package detectors

import (
	"encoding/hex"
	"testing"

	"github.com/rawblock/evm-risk-engine/internal/disasm"
)

func mustDisasm(t *testing.T, h string) []disasm.Instruction {
	t.Helper()
	instrs, err := disasm.Disassemble(h)
	if err != nil {
		t.Fatalf("disassemble %q: %v", h, err)
	}
	return instrs
}

func TestDetectSelfdestruct(t *testing.T) {
	instrs := mustDisasm(t, "0x6000ff")
	findings := DetectSelfdestruct(instrs)
	if len(findings) != 1 || findings[0].Detector != "selfdestruct" {
		t.Fatalf("expected one selfdestruct finding, got %+v", findings)
	}
	if findings[0].Severity != "critical" || findings[0].Points != 30 {
		t.Errorf("unexpected severity/points: %+v", findings[0])
	}
}

func TestDetectSelfdestructNone(t *testing.T) {
	instrs := mustDisasm(t, "0x600100")
	if findings := DetectSelfdestruct(instrs); len(findings) != 0 {
		t.Fatalf("expected no findings, got %+v", findings)
	}
}

func TestDetectDelegatecallRaw(t *testing.T) {
	instrs := mustDisasm(t, "0x60006000f4")
	findings := DetectDelegatecall(instrs)
	if len(findings) != 1 || findings[0].Severity != "high" {
		t.Fatalf("expected high-severity raw delegatecall finding, got %+v", findings)
	}
}

func TestDetectDelegatecallProxyContext(t *testing.T) {
	// PUSH32 <EIP-1967 impl slot> followed by DELEGATECALL.
	slotPush := "7f" + hexOf(EIP1967ImplSlot)
	instrs := mustDisasm(t, "0x"+slotPush+"f4")
	findings := DetectDelegatecall(instrs)
	if len(findings) != 1 || findings[0].Severity != "info" {
		t.Fatalf("expected info-severity proxy delegatecall finding, got %+v", findings)
	}
}

func hexOf(b [32]byte) string {
	return hex.EncodeToString(b[:])
}

func TestDetectReentrancyRisk(t *testing.T) {
	// CALL then SSTORE within lookahead window.
	instrs := mustDisasm(t, "0xf155")
	findings := DetectReentrancyRisk(instrs)
	if len(findings) != 1 {
		t.Fatalf("expected one reentrancy finding, got %+v", findings)
	}
}

func TestDetectReentrancyRiskContinuesPastNonMatchingCall(t *testing.T) {
	// First CALL has no SSTORE within its window (21 STOPs follow it); a
	// second CALL immediately followed by SSTORE must still be found.
	code := "0xf1"
	for i := 0; i < 21; i++ {
		code += "00"
	}
	code += "f155"
	instrs := mustDisasm(t, code)
	findings := DetectReentrancyRisk(instrs)
	if len(findings) != 1 {
		t.Fatalf("expected one reentrancy finding from the second CALL, got %+v", findings)
	}
}

func TestDetectReentrancyRiskOutsideWindow(t *testing.T) {
	// CALL, then 21 STOPs, then SSTORE — outside the 20-instruction lookahead.
	code := "0xf1"
	for i := 0; i < 21; i++ {
		code += "00"
	}
	code += "55"
	instrs := mustDisasm(t, code)
	if findings := DetectReentrancyRisk(instrs); len(findings) != 0 {
		t.Fatalf("expected no reentrancy finding outside window, got %+v", findings)
	}
}

func TestDetectProxyPatterns(t *testing.T) {
	slotPush := "7f" + hexOf(EIP1967ImplSlot)
	instrs := mustDisasm(t, "0x"+slotPush)
	findings := DetectProxyPatterns(instrs)
	if len(findings) != 1 || findings[0].Detector != "proxy" {
		t.Fatalf("expected proxy finding, got %+v", findings)
	}
}

func TestDetectHiddenMint(t *testing.T) {
	// PUSH4 mint(address,uint256) selector.
	instrs := mustDisasm(t, "0x6340c10f19")
	findings := DetectHiddenMint(instrs)
	if len(findings) != 1 || findings[0].Detector != "hidden_mint" {
		t.Fatalf("expected hidden_mint finding, got %+v", findings)
	}
}

func TestDetectFeeManipulation(t *testing.T) {
	// PUSH4 setTaxFee(uint256) selector.
	instrs := mustDisasm(t, "0x63c0b0fda2")
	findings := DetectFeeManipulation(instrs)
	if len(findings) != 1 || findings[0].Detector != "fee_manipulation" {
		t.Fatalf("expected fee_manipulation finding, got %+v", findings)
	}
}

func TestRunAllOrder(t *testing.T) {
	instrs := mustDisasm(t, "0x6000ff")
	findings := RunAll(instrs)
	if len(findings) == 0 || findings[0].Detector != "selfdestruct" {
		t.Fatalf("expected selfdestruct finding first, got %+v", findings)
	}
}
