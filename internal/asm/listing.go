package asm

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ListingOp is one entry of a radare2 `pdfj` function listing.
type ListingOp struct {
	Offset uint64 `json:"offset"`
	Opcode string `json:"opcode"`
	Disasm string `json:"disasm"`
	Type   string `json:"type,omitempty"`
}

// Listing is the radare2 `pdfj` function listing.
type Listing struct {
	Name string      `json:"name"`
	Addr uint64      `json:"addr"`
	Ops  []ListingOp `json:"ops"`
}

// ParseListing decodes a `pdfj` JSON document.
func ParseListing(data []byte) (Listing, error) {
	var l Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return Listing{}, fmt.Errorf("decode listing: %w", err)
	}
	return l, nil
}

// Function converts the listing into a source Function tagged ArchXtensa.
// The opcode text is left undecoded; the translator decodes it.
func (l Listing) Function() (Function, error) {
	if l.Addr > math.MaxUint32 {
		return Function{}, fmt.Errorf("function %s: address %#x exceeds 32 bits", l.Name, l.Addr)
	}

	fn := Function{
		Name:         l.Name,
		Address:      uint32(l.Addr),
		Instructions: make([]Instruction, 0, len(l.Ops)),
	}
	for _, op := range l.Ops {
		if op.Offset > math.MaxUint32 {
			return Function{}, fmt.Errorf("function %s: offset %#x exceeds 32 bits", l.Name, op.Offset)
		}
		text := strings.TrimSpace(op.Opcode)
		if text == "" {
			text = strings.TrimSpace(op.Disasm)
		}
		if text == "" {
			return Function{}, fmt.Errorf("function %s: empty opcode at %#x", l.Name, op.Offset)
		}
		fn.Instructions = append(fn.Instructions, Instruction{
			Offset: uint32(op.Offset),
			Opcode: text,
			Arch:   ArchXtensa,
		})
	}

	if fn.Address == 0 && len(fn.Instructions) > 0 {
		fn.Address = fn.Instructions[0].Offset
	}
	if err := fn.Validate(); err != nil {
		return Function{}, err
	}
	return fn, nil
}
