// Package symbols holds the address-keyed directory of named objects
// (functions and data) found in a binary.
package symbols

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind classifies an Object.
type Kind int

const (
	KindUnknown Kind = iota
	KindData
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// ParseKind maps a radare2/ELF symbol type name onto a Kind.
func ParseKind(typ string) (Kind, bool) {
	switch typ {
	case "OBJECT":
		return KindData, true
	case "FUNC":
		return KindFunction, true
	case "NOTYPE":
		return KindUnknown, true
	}
	return KindUnknown, false
}

// Record is one entry of a radare2 "isj" symbol listing.
type Record struct {
	Name  string `json:"name"`
	Size  uint32 `json:"size"`
	Vaddr uint64 `json:"vaddr"`
	Type  string `json:"type"`
}

// ParseRecords decodes the JSON array printed by radare2's isj command.
func ParseRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse symbol records: %w", err)
	}
	return records, nil
}

// Object is a named entity located at an address.
type Object struct {
	Address uint32
	Size    uint32
	Name    string
	Kind    Kind
}

// DisplayName returns the demangled name.
func (o Object) DisplayName() string {
	return Demangle(o.Name)
}

// UnknownSymbolTypeError reports a record whose type has no Kind.
type UnknownSymbolTypeError struct {
	Name string
	Type string
}

func (e *UnknownSymbolTypeError) Error() string {
	return fmt.Sprintf("symbol %s: unknown type %q", e.Name, e.Type)
}

// Table maps addresses to Objects. It is built once and read-only afterwards.
type Table struct {
	objects map[uint32]Object
	byName  map[string]uint32
}

// FromRecords builds a Table. When two records share an address the first
// one wins. An unrecognized type fails the whole build.
func FromRecords(records []Record) (*Table, error) {
	t := &Table{
		objects: make(map[uint32]Object, len(records)),
		byName:  make(map[string]uint32, len(records)),
	}
	for _, r := range records {
		kind, ok := ParseKind(r.Type)
		if !ok {
			return nil, &UnknownSymbolTypeError{Name: r.Name, Type: r.Type}
		}
		if r.Vaddr > 0xffffffff {
			return nil, fmt.Errorf("symbol %s: address %#x exceeds 32 bits", r.Name, r.Vaddr)
		}
		addr := uint32(r.Vaddr)
		if _, dup := t.objects[addr]; dup {
			continue
		}
		t.objects[addr] = Object{Address: addr, Size: r.Size, Name: r.Name, Kind: kind}
		if _, dup := t.byName[r.Name]; !dup {
			t.byName[r.Name] = addr
		}
	}
	return t, nil
}

// Lookup returns the Object starting exactly at addr.
func (t *Table) Lookup(addr uint32) (Object, bool) {
	o, ok := t.objects[addr]
	return o, ok
}

// ByName returns the Object registered under name.
func (t *Table) ByName(name string) (Object, bool) {
	addr, ok := t.byName[name]
	if !ok {
		return Object{}, false
	}
	return t.objects[addr], true
}

// Len returns the number of Objects.
func (t *Table) Len() int { return len(t.objects) }

// Objects returns every Object ordered by address.
func (t *Table) Objects() []Object {
	out := make([]Object, 0, len(t.objects))
	for _, o := range t.objects {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Functions returns the function Objects ordered by address.
func (t *Table) Functions() []Object {
	var out []Object
	for _, o := range t.Objects() {
		if o.Kind == KindFunction {
			out = append(out, o)
		}
	}
	return out
}
