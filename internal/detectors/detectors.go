// Package detectors implements the seven independent bytecode pattern
// detectors that feed the scorer.
package detectors

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rawblock/evm-risk-engine/internal/disasm"
	"github.com/rawblock/evm-risk-engine/internal/selectors"
	"github.com/rawblock/evm-risk-engine/pkg/riskmodel"
)

const (
	opCall         = 0xF1
	opSSTORE       = 0x55
	opJUMPI        = 0x57
	opREVERT       = 0xFD
	opDELEGATECALL = 0xF4
	opSELFDESTRUCT = 0xFF
)

var comparisonOps = map[byte]struct{}{
	0x10: {}, // LT
	0x11: {}, // GT
	0x12: {}, // SLT
	0x13: {}, // SGT
	0x14: {}, // EQ
}

// Canonical proxy storage slots. Each is keccak256 of a well-known label
// minus one (EIP-1967) or not (EIP-1822/OpenZeppelin) — the exact 32-byte
// constants below are the standardized values every compliant proxy uses,
// so they are kept as literals rather than rederived via keccak256 on every
// detector run.
var (
	EIP1967ImplSlot = mustSlot("360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc")
	EIP1967AdminSlot = mustSlot("b53127684a568b3173ae13b9f8a6016e243e63b6e8ee1178d6a717850b5d6103")
	EIP1822Slot      = mustSlot("c5f16f0fcc639fa48a6947836d9850f504798523bf8c9a3a87d5876cf622bcf7")
	OZImplSlot       = mustSlot("7050c9e0f4ca769c69bd3a8ef740bc37934f8e2c036e5a723fd8ee048ed3f8c3")
	OZAdminSlot      = mustSlot("10d6a54a4754c8869d6886b5f5d7fbfa5b4522237ea5c60d11bc4e7a1ff9390b")
)

func mustSlot(hexStr string) [32]byte {
	b, err := hex.DecodeString(hexStr)
	if err != nil || len(b) != 32 {
		panic(fmt.Sprintf("detectors: invalid proxy slot constant %q: %v", hexStr, err))
	}
	var out [32]byte
	copy(out[:], b)
	return out
}

func proxySlots() map[[32]byte]struct{} {
	return map[[32]byte]struct{}{
		EIP1967ImplSlot:  {},
		EIP1967AdminSlot: {},
		EIP1822Slot:      {},
		OZImplSlot:       {},
		OZAdminSlot:      {},
	}
}

func hasProxySlots(instructions []disasm.Instruction) bool {
	slots := proxySlots()
	for _, instr := range instructions {
		if instr.Name == "PUSH32" && len(instr.Operand) == 32 {
			var key [32]byte
			copy(key[:], instr.Operand)
			if _, ok := slots[key]; ok {
				return true
			}
		}
	}
	return false
}

func intPtr(i int) *int { return &i }

// DetectSelfdestruct reports the first SELFDESTRUCT opcode found.
func DetectSelfdestruct(instructions []disasm.Instruction) []riskmodel.Finding {
	for _, instr := range instructions {
		if instr.Opcode == opSELFDESTRUCT {
			return []riskmodel.Finding{{
				Detector: "selfdestruct",
				Severity: riskmodel.SeverityCritical,
				Title:    "SELFDESTRUCT opcode found",
				Description: "Contract contains SELFDESTRUCT which allows the owner " +
					"to destroy the contract and drain all funds.",
				Points: 30,
				Offset: intPtr(instr.Offset),
			}}
		}
	}
	return nil
}

// DetectDelegatecall reports the first DELEGATECALL, with severity
// downgraded to info when the bytecode also carries a recognized proxy
// storage slot.
func DetectDelegatecall(instructions []disasm.Instruction) []riskmodel.Finding {
	isProxy := hasProxySlots(instructions)
	for _, instr := range instructions {
		if instr.Opcode != opDELEGATECALL {
			continue
		}
		if isProxy {
			return []riskmodel.Finding{{
				Detector: "delegatecall",
				Severity: riskmodel.SeverityInfo,
				Title:    "DELEGATECALL in proxy pattern",
				Description: "Contract uses DELEGATECALL with standard proxy storage " +
					"slots (EIP-1967/1822). This is expected proxy behavior.",
				Points: 10,
				Offset: intPtr(instr.Offset),
			}}
		}
		return []riskmodel.Finding{{
			Detector: "delegatecall",
			Severity: riskmodel.SeverityHigh,
			Title:    "Raw DELEGATECALL without proxy pattern",
			Description: "Contract uses DELEGATECALL without recognized proxy " +
				"storage slots. This could allow arbitrary code execution.",
			Points: 15,
			Offset: intPtr(instr.Offset),
		}}
	}
	return nil
}

// DetectReentrancyRisk reports a CALL followed within 20 instructions by an
// SSTORE — state written after an external call, the classic reentrancy
// shape.
func DetectReentrancyRisk(instructions []disasm.Instruction) []riskmodel.Finding {
	for i, instr := range instructions {
		if instr.Opcode != opCall {
			continue
		}
		limit := i + 21
		if limit > len(instructions) {
			limit = len(instructions)
		}
		for j := i + 1; j < limit; j++ {
			if instructions[j].Opcode == opSSTORE {
				return []riskmodel.Finding{{
					Detector: "reentrancy",
					Severity: riskmodel.SeverityMedium,
					Title:    "Potential reentrancy: CALL before SSTORE",
					Description: fmt.Sprintf(
						"External CALL at offset %d is followed by SSTORE at offset %d. "+
							"State changes after external calls can enable reentrancy attacks.",
						instr.Offset, instructions[j].Offset),
					Points: 10,
					Offset: intPtr(instr.Offset),
				}}
			}
		}
	}
	return nil
}

// DetectProxyPatterns reports the presence of any canonical proxy storage
// slot.
func DetectProxyPatterns(instructions []disasm.Instruction) []riskmodel.Finding {
	if !hasProxySlots(instructions) {
		return nil
	}
	return []riskmodel.Finding{{
		Detector: "proxy",
		Severity: riskmodel.SeverityInfo,
		Title:    "Proxy contract detected",
		Description: "Contract uses standard proxy storage slots (EIP-1967 or " +
			"EIP-1822). The implementation contract should also be analyzed.",
		Points: 10,
	}}
}

// DetectHoneypotPatterns reports a comparison → JUMPI → REVERT shape in
// bytecode that carries a transfer/transferFrom selector, a classic
// selectively-blocked-transfer honeypot. The shape is searched anywhere in
// the instruction stream, not only next to the selector.
func DetectHoneypotPatterns(instructions []disasm.Instruction) []riskmodel.Finding {
	present := selectors.Extract(instructions)
	_, hasTransfer := present[selectors.TransferSelector]
	_, hasTransferFrom := present[selectors.TransferFromSelector]
	if !hasTransfer && !hasTransferFrom {
		return nil
	}

	for i, instr := range instructions {
		if _, ok := comparisonOps[instr.Opcode]; !ok {
			continue
		}
		if i+2 >= len(instructions) {
			continue
		}
		if instructions[i+1].Opcode != opJUMPI {
			continue
		}
		limit := i + 6
		if limit > len(instructions) {
			limit = len(instructions)
		}
		for j := i + 2; j < limit; j++ {
			if instructions[j].Opcode == opREVERT {
				return []riskmodel.Finding{{
					Detector: "honeypot",
					Severity: riskmodel.SeverityHigh,
					Title:    "Potential honeypot: conditional REVERT in transfer path",
					Description: "Contract has transfer functions with conditional " +
						"REVERT patterns that could selectively block token " +
						"transfers for certain addresses.",
					Points: 25,
					Offset: intPtr(instr.Offset),
				}}
			}
		}
	}
	return nil
}

// DetectHiddenMint reports any malicious selector whose signature names a
// mint function.
func DetectHiddenMint(instructions []disasm.Instruction) []riskmodel.Finding {
	present := selectors.Extract(instructions)
	malicious := selectors.FindMalicious(present)

	var sigs []string
	for _, sig := range malicious {
		if containsFold(sig, "mint") {
			sigs = append(sigs, sig)
		}
	}
	if len(sigs) == 0 {
		return nil
	}
	return []riskmodel.Finding{{
		Detector: "hidden_mint",
		Severity: riskmodel.SeverityCritical,
		Title:    "Hidden mint capability detected",
		Description: fmt.Sprintf(
			"Contract contains mint function selectors (%s) that could allow "+
				"unlimited token minting.", joinComma(sigs)),
		Points: 25,
	}}
}

// DetectFeeManipulation reports any malicious selector whose signature
// names a fee, tax, or transaction-limit control.
func DetectFeeManipulation(instructions []disasm.Instruction) []riskmodel.Finding {
	present := selectors.Extract(instructions)
	malicious := selectors.FindMalicious(present)

	terms := []string{"fee", "tax", "maxtx", "maxwallet"}
	var sigs []string
	for _, sig := range malicious {
		for _, term := range terms {
			if containsFold(sig, term) {
				sigs = append(sigs, sig)
				break
			}
		}
	}
	if len(sigs) == 0 {
		return nil
	}
	return []riskmodel.Finding{{
		Detector: "fee_manipulation",
		Severity: riskmodel.SeverityHigh,
		Title:    "Fee/limit manipulation functions detected",
		Description: fmt.Sprintf(
			"Contract contains functions (%s) that allow the owner to change "+
				"fees, taxes, or transaction limits.", joinComma(sigs)),
		Points: 15,
	}}
}

// RunAll runs all seven detectors in a fixed order, so the combined
// findings always come back in the same sequence.
func RunAll(instructions []disasm.Instruction) []riskmodel.Finding {
	var findings []riskmodel.Finding
	for _, d := range []func([]disasm.Instruction) []riskmodel.Finding{
		DetectSelfdestruct,
		DetectDelegatecall,
		DetectReentrancyRisk,
		DetectProxyPatterns,
		DetectHoneypotPatterns,
		DetectHiddenMint,
		DetectFeeManipulation,
	} {
		findings = append(findings, d(instructions)...)
	}
	return findings
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func joinComma(items []string) string {
	return strings.Join(items, ", ")
}
