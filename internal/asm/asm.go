// Package asm defines the instruction and function records shared by the
// Xtensa listing decoder and the ARM translator.
package asm

import (
	"fmt"
	"strings"
)

// Arch tags which instruction set an Instruction belongs to.
type Arch int

const (
	ArchUnknown Arch = iota
	ArchXtensa
	ArchARM
)

func (a Arch) String() string {
	switch a {
	case ArchXtensa:
		return "xtensa"
	case ArchARM:
		return "arm"
	default:
		return "unknown"
	}
}

// Kind is the semantic class of an instruction.
type Kind int

const (
	KindOther Kind = iota
	KindLoad
	KindStore
	KindBranch // conditional or unconditional branch with a known target
)

func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "load"
	case KindStore:
		return "store"
	case KindBranch:
		return "branch"
	default:
		return "other"
	}
}

// Instruction is a single listing entry.
type Instruction struct {
	Offset     uint32 // address of the source instruction
	Opcode     string // rendered text, one line per emitted instruction
	Kind       Kind
	Target     uint32 // branch destination, valid when Kind == KindBranch
	Arch       Arch
	Referenced bool // some branch in the same function lands on Offset
}

// Lines splits the rendered opcode text into individual instructions.
func (i Instruction) Lines() []string {
	if i.Opcode == "" {
		return nil
	}
	return strings.Split(i.Opcode, "\n")
}

// Function is a named, ordered instruction sequence.
type Function struct {
	Name         string
	Address      uint32
	Instructions []Instruction
}

// Len returns the number of instructions.
func (f *Function) Len() int { return len(f.Instructions) }

// Offsets returns the set of instruction offsets in f.
func (f *Function) Offsets() map[uint32]struct{} {
	set := make(map[uint32]struct{}, len(f.Instructions))
	for _, ins := range f.Instructions {
		set[ins.Offset] = struct{}{}
	}
	return set
}

// Validate checks that offsets are unique and appear in non-decreasing order.
func (f *Function) Validate() error {
	for i := 1; i < len(f.Instructions); i++ {
		prev, cur := f.Instructions[i-1].Offset, f.Instructions[i].Offset
		if cur <= prev {
			return fmt.Errorf("function %s: offset %#x at index %d does not follow %#x", f.Name, cur, i, prev)
		}
	}
	return nil
}

// DefaultLabelPrefix starts every synthetic branch label.
const DefaultLabelPrefix = "loc_"

// Label returns the synthetic label for an instruction offset.
func Label(prefix string, offset uint32) string {
	return fmt.Sprintf("%s%x", prefix, offset)
}
