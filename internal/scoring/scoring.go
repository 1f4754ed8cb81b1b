// Package scoring computes a weighted composite risk score from a
// detector's findings and maps it to a final RiskLevel.
package scoring

import (
	"github.com/rawblock/evm-risk-engine/internal/disasm"
	"github.com/rawblock/evm-risk-engine/internal/selectors"
	"github.com/rawblock/evm-risk-engine/pkg/riskmodel"
)

// CategoryCaps bounds how many points a single finding category may
// contribute to the composite score, so one detector can't dominate the
// total on its own.
var CategoryCaps = map[string]int{
	"selfdestruct":        30,
	"hidden_mint":         25,
	"honeypot":            25,
	"fee_manipulation":    15,
	"delegatecall":        15,
	"proxy":               10,
	"reentrancy":          10,
	"suspicious_selector": 15,
	"tiny_bytecode":       10,
	"deployer_reputation": 10,
}

// SuspiciousSelectorPoints is awarded per distinct suspicious selector
// found, subject to CategoryCaps["suspicious_selector"].
const SuspiciousSelectorPoints = 5

// TinyBytecodeThreshold is the byte size below which a non-proxy contract
// is flagged as suspiciously small.
const TinyBytecodeThreshold = 200

func capFor(category string) int {
	if cap, ok := CategoryCaps[category]; ok {
		return cap
	}
	return 100
}

// Compute derives a ScoreResult from a finding set, the disassembled
// instruction stream (for the suspicious-selector heuristic), and the raw
// bytecode hex (for its size, used by the tiny-bytecode heuristic).
func Compute(findings []riskmodel.Finding, instructions []disasm.Instruction, bytecodeHex string) riskmodel.ScoreResult {
	categoryPoints := make(map[string]int)

	for _, f := range findings {
		current := categoryPoints[f.Detector]
		cap := capFor(f.Detector)
		next := current + f.Points
		if next > cap {
			next = cap
		}
		categoryPoints[f.Detector] = next
	}

	present := selectors.Extract(instructions)
	suspicious := selectors.FindSuspicious(present)
	if len(suspicious) > 0 {
		points := len(suspicious) * SuspiciousSelectorPoints
		if cap := CategoryCaps["suspicious_selector"]; points > cap {
			points = cap
		}
		categoryPoints["suspicious_selector"] = points
	}

	bytecodeLen := disasm.BytecodeSize(bytecodeHex)
	_, isProxy := categoryPoints["proxy"]
	if bytecodeLen > 0 && bytecodeLen < TinyBytecodeThreshold && !isProxy {
		categoryPoints["tiny_bytecode"] = CategoryCaps["tiny_bytecode"]
	}

	total := 0
	for _, p := range categoryPoints {
		total += p
	}
	if total > 100 {
		total = 100
	}

	return riskmodel.ScoreResult{
		Score:          total,
		Level:          ScoreToLevel(total),
		CategoryScores: categoryPoints,
	}
}

// ScoreToLevel applies the fixed piecewise score→level mapping.
func ScoreToLevel(score int) riskmodel.RiskLevel {
	switch {
	case score <= 15:
		return riskmodel.RiskSafe
	case score <= 35:
		return riskmodel.RiskLow
	case score <= 55:
		return riskmodel.RiskMedium
	case score <= 75:
		return riskmodel.RiskHigh
	default:
		return riskmodel.RiskCritical
	}
}
