package xtensa

import (
	"fmt"
	"strings"
	"unicode"
)

// Instruction is a decoded Xtensa instruction. len(Operands) always equals
// len(Schema(Opcode)) and each operand matches its slot kind.
type Instruction struct {
	Opcode   Opcode
	Operands []Operand
}

func (ins Instruction) String() string {
	if len(ins.Operands) == 0 {
		return ins.Opcode.String()
	}
	parts := make([]string, len(ins.Operands))
	for n, op := range ins.Operands {
		parts[n] = op.String()
	}
	return ins.Opcode.String() + " " + strings.Join(parts, ", ")
}

// Register returns operand n as a register index.
func (ins Instruction) Register(n int) (uint8, error) {
	if n >= len(ins.Operands) {
		return 0, fmt.Errorf("%s: no operand %d", ins.Opcode, n)
	}
	return ins.Operands[n].Register()
}

// Immediate returns operand n as an immediate.
func (ins Instruction) Immediate(n int) (int32, error) {
	if n >= len(ins.Operands) {
		return 0, fmt.Errorf("%s: no operand %d", ins.Opcode, n)
	}
	return ins.Operands[n].Immediate()
}

// Tokenize splits instruction text on whitespace and commas.
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(c rune) bool {
		return c == ',' || unicode.IsSpace(c)
	})
}

// Decode parses a mnemonic-plus-operands string such as "l32i a2, a1, 8".
func Decode(text string) (Instruction, error) {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return Instruction{}, &UnsupportedOpcodeError{Name: ""}
	}

	mnemonic := tokens[0]
	def, ok := Lookup(strings.ToLower(mnemonic))
	if !ok {
		return Instruction{}, &UnsupportedOpcodeError{Name: mnemonic}
	}

	args := tokens[1:]
	switch {
	case len(args) < len(def.Schema):
		return Instruction{}, &OperandParseError{
			Mnemonic: mnemonic,
			Expected: def.Schema[len(args)],
			Err:      fmt.Errorf("want %d operands, got %d", len(def.Schema), len(args)),
		}
	case len(args) > len(def.Schema):
		return Instruction{}, &OperandParseError{
			Mnemonic: mnemonic,
			Token:    args[len(def.Schema)],
			Expected: KindNone,
			Err:      fmt.Errorf("want %d operands, got %d", len(def.Schema), len(args)),
		}
	}

	operands := make([]Operand, len(def.Schema))
	for n, kind := range def.Schema {
		op, err := ParseOperand(kind, args[n])
		if err != nil {
			if pe, ok := err.(*OperandParseError); ok {
				pe.Mnemonic = mnemonic
			}
			return Instruction{}, err
		}
		operands[n] = op
	}

	return Instruction{Opcode: def.Opcode, Operands: operands}, nil
}
