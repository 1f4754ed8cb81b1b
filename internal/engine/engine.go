// Package engine orchestrates the full analysis pipeline: fetch bytecode,
// disassemble, run detectors (+ deployer reputation), score, and — for
// proxies — resolve and fold in the implementation contract's analysis.
package engine

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rawblock/evm-risk-engine/internal/detectors"
	"github.com/rawblock/evm-risk-engine/internal/disasm"
	"github.com/rawblock/evm-risk-engine/internal/reputation"
	"github.com/rawblock/evm-risk-engine/internal/rpcclient"
	"github.com/rawblock/evm-risk-engine/internal/scoring"
	"github.com/rawblock/evm-risk-engine/pkg/riskmodel"
)

const resultCacheSize = 256

// implSlot names a canonical proxy storage slot in priority order.
type implSlot struct {
	name string
	slot [32]byte
}

// slots are tried in popularity order: EIP-1967 first (vast majority of
// deployed proxies), then EIP-1822, then the pre-1967 OpenZeppelin slot.
// Admin slots are never read here — only implementation slots.
var slots = []implSlot{
	{"EIP-1967", detectors.EIP1967ImplSlot},
	{"EIP-1822", detectors.EIP1822Slot},
	{"OpenZeppelin", detectors.OZImplSlot},
}

var zeroWord = strings.Repeat("0", 64)

type resultCacheKey struct {
	address     string
	rpcURL      string
	explorerKey string
}

// Engine ties together the RPC client, reputation detector, and a cache of
// whole-analysis results keyed by (address, rpc_url, explorer_key).
type Engine struct {
	rpc        *rpcclient.Client
	reputation *reputation.Detector
	results    *lru.Cache[resultCacheKey, riskmodel.AnalysisResult]
}

// New builds an Engine around the given RPC client and reputation detector,
// with its own 256-entry whole-analysis result cache.
func New(rpc *rpcclient.Client, rep *reputation.Detector) *Engine {
	cache, err := lru.New[resultCacheKey, riskmodel.AnalysisResult](resultCacheSize)
	if err != nil {
		panic(err)
	}
	return &Engine{rpc: rpc, reputation: rep, results: cache}
}

// ClearCache drops every cached whole-analysis result. Exposed for test
// isolation; does not touch the RPC or reputation caches.
func (e *Engine) ClearCache() {
	e.results.Purge()
}

// Analyze runs the full pipeline for one address. Only a failure to fetch
// or decode the target's own bytecode is surfaced as an error — every other
// collaborator failure (reputation lookup, proxy resolution, implementation
// fetch) degrades silently per the engine's resilience contract.
//
// address is normalized to lowercase before it is used as a cache key or
// passed to any collaborator, so that "0xAB…" and "0xab…" analyses of the
// same contract share one cache entry; the result still echoes the
// caller's original casing in its Address field.
func (e *Engine) Analyze(ctx context.Context, address, rpcURL, explorerKey string) (riskmodel.AnalysisResult, error) {
	normalizedAddress := strings.ToLower(address)

	cacheKey := resultCacheKey{address: normalizedAddress, rpcURL: rpcURL, explorerKey: explorerKey}
	if cached, ok := e.results.Get(cacheKey); ok {
		cached.Cached = true
		cached.Address = address
		return cached, nil
	}

	bytecodeHex, err := e.rpc.GetCode(ctx, normalizedAddress, rpcURL)
	if err != nil {
		return riskmodel.AnalysisResult{}, err
	}

	instructions, err := disasm.Disassemble(bytecodeHex)
	if err != nil {
		return riskmodel.AnalysisResult{}, err
	}
	bytecodeSize := disasm.BytecodeSize(bytecodeHex)

	findings := detectors.RunAll(instructions)
	findings = append(findings, e.reputation.Detect(ctx, normalizedAddress, explorerKey)...)
	scoreResult := scoring.Compute(findings, instructions, bytecodeHex)

	var impl *riskmodel.ImplementationResult
	if isProxy(findings) {
		if implAddr, ok := e.resolveImplementation(ctx, normalizedAddress, rpcURL); ok {
			impl = e.analyzeImplementation(ctx, implAddr, rpcURL)
		}
	}

	finalScore := scoreResult.Score
	finalCategoryScores := make(map[string]int, len(scoreResult.CategoryScores))
	for k, v := range scoreResult.CategoryScores {
		finalCategoryScores[k] = v
	}
	allFindings := findings

	if impl != nil {
		implTotal := 0
		for _, v := range impl.CategoryScores {
			implTotal += v
		}
		finalScore += implTotal
		if finalScore > 100 {
			finalScore = 100
		}
		for cat, points := range impl.CategoryScores {
			finalCategoryScores["impl_"+cat] = points
		}
		allFindings = append(allFindings, impl.Findings...)
	}

	result := riskmodel.AnalysisResult{
		Address:        address,
		Score:          finalScore,
		Level:          scoring.ScoreToLevel(finalScore),
		Findings:       allFindings,
		CategoryScores: finalCategoryScores,
		BytecodeSize:   bytecodeSize,
		Implementation: impl,
		Cached:         false,
	}

	e.results.Add(cacheKey, result)
	return result, nil
}

func isProxy(findings []riskmodel.Finding) bool {
	for _, f := range findings {
		if f.Detector == "proxy" {
			return true
		}
	}
	return false
}

// resolveImplementation tries each canonical proxy slot in priority order
// and returns the first non-zero implementation address found. Graceful:
// any RPC failure on a slot is treated as "try the next slot", and
// exhausting all slots returns ok=false rather than an error.
func (e *Engine) resolveImplementation(ctx context.Context, address, rpcURL string) (string, bool) {
	for _, s := range slots {
		slotHex := "0x" + hexOf(s.slot)
		raw, err := e.rpc.GetStorageAt(ctx, address, slotHex, rpcURL)
		if err != nil {
			continue
		}

		value := raw
		if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
			value = value[2:]
		}
		if value == "" || value == zeroWord || allZero(value) {
			continue
		}

		if len(value) < 40 {
			continue
		}
		addrHex := value[len(value)-40:]
		if allZero(addrHex) {
			continue
		}

		return "0x" + addrHex, true
	}
	return "", false
}

func allZero(s string) bool {
	for _, c := range s {
		if c != '0' {
			return false
		}
	}
	return true
}

// analyzeImplementation fetches and analyzes the proxy's resolved
// implementation contract. Returns nil if the bytecode fetch fails or the
// implementation has no code — a proxy pointing at an unfetchable or empty
// implementation still returns the proxy's own analysis untouched.
func (e *Engine) analyzeImplementation(ctx context.Context, implAddress, rpcURL string) *riskmodel.ImplementationResult {
	bytecodeHex, err := e.rpc.GetCode(ctx, implAddress, rpcURL)
	if err != nil {
		return nil
	}

	size := disasm.BytecodeSize(bytecodeHex)
	if size == 0 {
		return nil
	}

	instructions, err := disasm.Disassemble(bytecodeHex)
	if err != nil {
		return nil
	}

	rawFindings := detectors.RunAll(instructions)

	// The implementation's own "proxy" finding (if the impl is itself a
	// proxy-shaped contract) is dropped to avoid double-counting with the
	// outer proxy's finding.
	var findings []riskmodel.Finding
	categoryPoints := make(map[string]int)
	for _, f := range rawFindings {
		if f.Detector == "proxy" {
			continue
		}
		current := categoryPoints[f.Detector]
		cap := scoring.CategoryCaps[f.Detector]
		if cap == 0 {
			cap = 100
		}
		next := current + f.Points
		if next > cap {
			next = cap
		}
		categoryPoints[f.Detector] = next

		prefixed := f
		prefixed.Detector = "impl_" + f.Detector
		findings = append(findings, prefixed)
	}

	return &riskmodel.ImplementationResult{
		Address:        implAddress,
		BytecodeSize:   size,
		Findings:       findings,
		CategoryScores: categoryPoints,
	}
}

func hexOf(b [32]byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 64)
	for i, c := range b {
		out[i*2] = digits[c>>4]
		out[i*2+1] = digits[c&0xF]
	}
	return string(out)
}
