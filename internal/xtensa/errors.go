package xtensa

import "fmt"

// UnsupportedOpcodeError reports a mnemonic with no decode or translation rule.
type UnsupportedOpcodeError struct {
	Name string
}

func (e *UnsupportedOpcodeError) Error() string {
	return fmt.Sprintf("unsupported opcode %q", e.Name)
}

// OperandParseError reports a malformed operand token or a wrong operand count.
type OperandParseError struct {
	Mnemonic string
	Token    string
	Expected OperandKind
	Err      error
}

func (e *OperandParseError) Error() string {
	prefix := ""
	if e.Mnemonic != "" {
		prefix = e.Mnemonic + ": "
	}
	if e.Token == "" {
		return fmt.Sprintf("%smissing %s operand: %v", prefix, e.Expected, e.Err)
	}
	return fmt.Sprintf("%sbad %s operand %q: %v", prefix, e.Expected, e.Token, e.Err)
}

func (e *OperandParseError) Unwrap() error { return e.Err }
