// Package disasm turns raw EVM bytecode into a linear instruction stream.
package disasm

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rawblock/evm-risk-engine/internal/opcodes"
)

// Instruction is one decoded opcode at a given byte offset. Operand is
// empty for every non-PUSH instruction.
type Instruction struct {
	Offset  int
	Opcode  byte
	Name    string
	Operand []byte
}

// ErrOddHexLength is returned when the bytecode hex string (after stripping
// an optional 0x/0X prefix) has an odd number of characters.
var ErrOddHexLength = fmt.Errorf("disasm: bytecode hex has an odd length")

// Disassemble decodes a 0x-prefixed (or bare) hex bytecode string into its
// instruction stream. A PUSH opcode whose operand runs past the end of the
// bytecode is decoded with a truncated operand, but the cursor still
// advances by the opcode's full nominal size — matching how the EVM itself
// treats a truncated PUSH as implicitly zero-padded.
func Disassemble(bytecodeHex string) ([]Instruction, error) {
	h := strings.TrimSpace(bytecodeHex)
	if strings.HasPrefix(h, "0x") || strings.HasPrefix(h, "0X") {
		h = h[2:]
	}
	if h == "" {
		return nil, nil
	}
	if len(h)%2 != 0 {
		return nil, ErrOddHexLength
	}

	raw, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("disasm: invalid hex: %w", err)
	}

	var instructions []Instruction
	i := 0
	for i < len(raw) {
		op := raw[i]
		entry := opcodes.Lookup(op)

		if entry.OperandSize > 0 {
			available := entry.OperandSize
			if rem := len(raw) - i - 1; rem < available {
				available = rem
			}
			operand := append([]byte(nil), raw[i+1:i+1+available]...)
			instructions = append(instructions, Instruction{
				Offset:  i,
				Opcode:  op,
				Name:    entry.Name,
				Operand: operand,
			})
			i += 1 + entry.OperandSize
		} else {
			instructions = append(instructions, Instruction{
				Offset:  i,
				Opcode:  op,
				Name:    entry.Name,
				Operand: nil,
			})
			i++
		}
	}
	return instructions, nil
}

// BytecodeSize returns the byte length of a 0x-prefixed (or bare) hex
// bytecode string, without allocating an instruction stream.
func BytecodeSize(bytecodeHex string) int {
	h := strings.TrimSpace(bytecodeHex)
	if strings.HasPrefix(h, "0x") || strings.HasPrefix(h, "0X") {
		h = h[2:]
	}
	return len(h) / 2
}
