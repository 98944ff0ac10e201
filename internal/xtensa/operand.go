// Package xtensa decodes radare2 Xtensa disassembly text into structured
// instructions.
package xtensa

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NumRegisters is the number of address registers (a0..a14) the decoder accepts.
const NumRegisters = 15

// ErrWrongOperandKind is returned when a register is read from an immediate
// operand or the other way round.
var ErrWrongOperandKind = errors.New("wrong operand kind")

// OperandKind is a slot type in an opcode's operand schema.
type OperandKind int

const (
	KindNone OperandKind = iota // only used in error reports
	KindRegister
	KindImmediate
)

func (k OperandKind) String() string {
	switch k {
	case KindRegister:
		return "register"
	case KindImmediate:
		return "immediate"
	default:
		return "none"
	}
}

// Operand is either a register index or a 32-bit immediate.
type Operand struct {
	kind  OperandKind
	value int32
}

// Reg returns a register operand.
func Reg(index uint8) Operand { return Operand{kind: KindRegister, value: int32(index)} }

// Imm returns an immediate operand.
func Imm(value int32) Operand { return Operand{kind: KindImmediate, value: value} }

// Kind reports which variant o holds.
func (o Operand) Kind() OperandKind { return o.kind }

// Register returns the register index.
func (o Operand) Register() (uint8, error) {
	if o.kind != KindRegister {
		return 0, fmt.Errorf("%w: %s operand read as register", ErrWrongOperandKind, o.kind)
	}
	return uint8(o.value), nil
}

// Immediate returns the immediate value. Sign is interpreted by the caller.
func (o Operand) Immediate() (int32, error) {
	if o.kind != KindImmediate {
		return 0, fmt.Errorf("%w: %s operand read as immediate", ErrWrongOperandKind, o.kind)
	}
	return o.value, nil
}

func (o Operand) String() string {
	switch o.kind {
	case KindRegister:
		return fmt.Sprintf("a%d", o.value)
	case KindImmediate:
		return fmt.Sprintf("%#x", uint32(o.value))
	default:
		return "<none>"
	}
}

// ParseOperand parses token as an operand of the given kind.
func ParseOperand(kind OperandKind, token string) (Operand, error) {
	switch kind {
	case KindRegister:
		n, err := parseRegister(token)
		if err != nil {
			return Operand{}, &OperandParseError{Token: token, Expected: kind, Err: err}
		}
		return Reg(n), nil
	case KindImmediate:
		v, err := parseImmediate(token)
		if err != nil {
			return Operand{}, &OperandParseError{Token: token, Expected: kind, Err: err}
		}
		return Imm(v), nil
	default:
		return Operand{}, &OperandParseError{Token: token, Expected: kind, Err: errors.New("unknown operand kind")}
	}
}

func parseRegister(token string) (uint8, error) {
	if len(token) < 2 || (token[0] != 'a' && token[0] != 'A') {
		return 0, errors.New("register must be a<N>")
	}
	digits := token[1:]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, errors.New("register index is not decimal")
		}
	}
	n, err := strconv.ParseUint(digits, 10, 8)
	if err != nil {
		return 0, err
	}
	if n >= NumRegisters {
		return 0, fmt.Errorf("register index %d out of range", n)
	}
	return uint8(n), nil
}

// parseImmediate accepts 0x-prefixed hex (optionally negated) or signed
// decimal. Values above MaxInt32 keep their 32-bit pattern.
func parseImmediate(token string) (int32, error) {
	s := token
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if s == "" {
		return 0, errors.New("empty immediate")
	}

	var v int64
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		u, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return 0, err
		}
		v = int64(u)
	} else {
		u, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, err
		}
		v = int64(u)
	}

	if neg {
		v = -v
		if v < math.MinInt32 {
			return 0, fmt.Errorf("immediate %s out of range", token)
		}
	}
	return int32(uint32(v)), nil
}
