package translate

import (
	"fmt"

	"xtensa2arm/internal/symbols"
)

// UnresolvedCallTargetError reports a direct call to an address with no symbol.
type UnresolvedCallTargetError struct {
	Address uint32
}

func (e *UnresolvedCallTargetError) Error() string {
	return fmt.Sprintf("call target %#x has no symbol", e.Address)
}

// WrongObjectKindError reports a call or tail jump to a symbol that is not a function.
type WrongObjectKindError struct {
	Address uint32
	Name    string
	Kind    symbols.Kind
}

func (e *WrongObjectKindError) Error() string {
	return fmt.Sprintf("target %#x (%s) is %s, not a function", e.Address, e.Name, e.Kind)
}

// UnresolvedBranchTargetError reports a branch that leaves the function
// without landing on a known function.
type UnresolvedBranchTargetError struct {
	Address uint32
}

func (e *UnresolvedBranchTargetError) Error() string {
	return fmt.Sprintf("branch target %#x is outside the function and has no symbol", e.Address)
}

// MemoryReadError reports a failed literal pool read.
type MemoryReadError struct {
	Address uint32
	Err     error
}

func (e *MemoryReadError) Error() string {
	return fmt.Sprintf("read literal at %#x: %v", e.Address, e.Err)
}

func (e *MemoryReadError) Unwrap() error { return e.Err }

// InstructionError locates a failure inside a function.
type InstructionError struct {
	Function string
	Offset   uint32
	Text     string
	Err      error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("%s at %#x (%s): %v", e.Function, e.Offset, e.Text, e.Err)
}

func (e *InstructionError) Unwrap() error { return e.Err }
