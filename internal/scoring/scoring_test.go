package scoring

import (
	"testing"

	"github.com/rawblock/evm-risk-engine/internal/detectors"
	"github.com/rawblock/evm-risk-engine/internal/disasm"
	"github.com/rawblock/evm-risk-engine/pkg/riskmodel"
)

func TestScoreToLevelBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, "safe"}, {15, "safe"}, {16, "low"}, {35, "low"},
		{36, "medium"}, {55, "medium"}, {56, "high"}, {75, "high"},
		{76, "critical"}, {100, "critical"},
	}
	for _, c := range cases {
		if got := ScoreToLevel(c.score); string(got) != c.want {
			t.Errorf("ScoreToLevel(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestComputeSelfdestructPlusTinyBytecode(t *testing.T) {
	instrs, _ := disasm.Disassemble("0x6000ff")
	findings := detectors.RunAll(instrs)
	result := Compute(findings, instrs, "0x6000ff")
	if result.CategoryScores["selfdestruct"] != 30 {
		t.Errorf("expected selfdestruct=30, got %+v", result.CategoryScores)
	}
	if result.CategoryScores["tiny_bytecode"] != CategoryCaps["tiny_bytecode"] {
		t.Errorf("expected tiny_bytecode for 3-byte contract, got %+v", result.CategoryScores)
	}
	if result.Score > 100 {
		t.Fatalf("score %d exceeds 100", result.Score)
	}
}

func TestComputeTinyBytecodeHeuristic(t *testing.T) {
	instrs, _ := disasm.Disassemble("0x00")
	result := Compute(nil, instrs, "0x00")
	if result.CategoryScores["tiny_bytecode"] != CategoryCaps["tiny_bytecode"] {
		t.Errorf("expected tiny_bytecode finding for 1-byte contract, got %+v", result.CategoryScores)
	}
}

func TestComputeNoTinyBytecodeForProxy(t *testing.T) {
	instrs, _ := disasm.Disassemble("0x00")
	result := Compute([]riskmodel.Finding{{Detector: "proxy", Points: 10}}, instrs, "0x00")
	if _, ok := result.CategoryScores["tiny_bytecode"]; ok {
		t.Errorf("tiny_bytecode should not fire alongside proxy, got %+v", result.CategoryScores)
	}
}

func TestComputeCategoryCapApplied(t *testing.T) {
	findings := []riskmodel.Finding{
		{Detector: "selfdestruct", Points: 30},
		{Detector: "selfdestruct", Points: 30},
	}
	instrs, _ := disasm.Disassemble("0x00")
	result := Compute(findings, instrs, "0x00")
	if result.CategoryScores["selfdestruct"] != CategoryCaps["selfdestruct"] {
		t.Errorf("expected selfdestruct capped at %d, got %d",
			CategoryCaps["selfdestruct"], result.CategoryScores["selfdestruct"])
	}
}
