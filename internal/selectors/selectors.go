// Package selectors holds known 4-byte function-selector tables and the
// logic to pull PUSH4 selectors out of a disassembled dispatcher.
package selectors

import "github.com/rawblock/evm-risk-engine/internal/disasm"

// Selector is the 4-byte keccak256(signature) prefix that routes a call in
// the Solidity dispatcher. Values are hardcoded rather than computed via
// keccak256 on every lookup.
type Selector [4]byte

func sel(hexBytes [4]byte) Selector { return Selector(hexBytes) }

// Malicious selectors — presence is a strong negative signal.
var Malicious = map[Selector]string{
	sel([4]byte{0x40, 0xc1, 0x0f, 0x19}): "mint(address,uint256)",
	sel([4]byte{0xa0, 0x71, 0x2d, 0x68}): "mint(uint256)",
	sel([4]byte{0x44, 0x33, 0x7e, 0xa1}): "blacklist(address)",
	sel([4]byte{0x44, 0xd7, 0x5f, 0xa5}): "addToBlacklist(address)",
	sel([4]byte{0x69, 0xfe, 0x0e, 0x2d}): "setFee(uint256)",
	sel([4]byte{0xc0, 0xb0, 0xfd, 0xa2}): "setTaxFee(uint256)",
	sel([4]byte{0xec, 0x28, 0x43, 0x8a}): "setMaxTxAmount(uint256)",
	sel([4]byte{0xb6, 0xc5, 0x23, 0x24}): "setMaxWalletSize(uint256)",
	sel([4]byte{0x84, 0x56, 0xcb, 0x59}): "pause()",
}

// Suspicious selectors — risky but context-dependent.
var Suspicious = map[Selector]string{
	sel([4]byte{0xa2, 0x2c, 0xb4, 0x65}): "setApprovalForAll(address,bool)",
	sel([4]byte{0x71, 0x50, 0x18, 0xa6}): "renounceOwnership()",
	sel([4]byte{0xf2, 0xfd, 0xe3, 0x8b}): "transferOwnership(address)",
	sel([4]byte{0x3c, 0xcf, 0xd6, 0x0b}): "withdraw()",
	sel([4]byte{0xe0, 0x1a, 0xf9, 0x2c}): "setSwapEnabled(bool)",
	sel([4]byte{0x43, 0x78, 0x23, 0xec}): "excludeFromFee(address)",
}

// Standard ERC-20 selectors, kept for reference / false-positive filtering.
var ERC20 = map[Selector]string{
	sel([4]byte{0x18, 0x16, 0x0d, 0xdd}): "totalSupply()",
	sel([4]byte{0x70, 0xa0, 0x82, 0x31}): "balanceOf(address)",
	sel([4]byte{0xa9, 0x05, 0x9c, 0xbb}): "transfer(address,uint256)",
	sel([4]byte{0xdd, 0x62, 0xed, 0x3e}): "allowance(address,address)",
	sel([4]byte{0x09, 0x5e, 0xa7, 0xb3}): "approve(address,uint256)",
	sel([4]byte{0x23, 0xb8, 0x72, 0xdd}): "transferFrom(address,address,uint256)",
}

// TransferSelector and TransferFromSelector are the two ERC-20 entry points
// the honeypot detector watches for conditional-revert behavior around.
var TransferSelector = sel([4]byte{0xa9, 0x05, 0x9c, 0xbb})
var TransferFromSelector = sel([4]byte{0x23, 0xb8, 0x72, 0xdd})

// Extract pulls all 4-byte function selectors out of a disassembled
// instruction stream — any PUSH4 with a full (non-truncated) operand,
// which is how Solidity's dispatcher encodes each branch's selector.
func Extract(instructions []disasm.Instruction) map[Selector]struct{} {
	out := make(map[Selector]struct{})
	for _, instr := range instructions {
		if instr.Name == "PUSH4" && len(instr.Operand) == 4 {
			var s Selector
			copy(s[:], instr.Operand)
			out[s] = struct{}{}
		}
	}
	return out
}

// FindMalicious returns the subset of present selectors found in Malicious.
func FindMalicious(present map[Selector]struct{}) map[Selector]string {
	found := make(map[Selector]string)
	for s := range present {
		if sig, ok := Malicious[s]; ok {
			found[s] = sig
		}
	}
	return found
}

// FindSuspicious returns the subset of present selectors found in Suspicious.
func FindSuspicious(present map[Selector]struct{}) map[Selector]string {
	found := make(map[Selector]string)
	for s := range present {
		if sig, ok := Suspicious[s]; ok {
			found[s] = sig
		}
	}
	return found
}
