package xtensa

import (
	"fmt"
	"sort"
)

// Opcode identifies an Xtensa operation. Narrow (.n) encodings share the
// opcode of their wide form.
type Opcode int

const (
	Invalid Opcode = iota
	And
	Or
	Xor
	Add
	Sub
	Addx2
	Addx4
	Addx8
	Subx2
	Subx4
	Subx8
	Slli
	Srli
	Srai
	Addi
	L32i
	L16ui
	L16si
	L8ui
	S32i
	S16i
	S8i
	L32r
	Bbsi
	Bbci
	Beqz
	Bnez
	Beq
	Bne
	J
	Mov
	Movi
	Call0
	Callx0
	Ret
	Memw
	Nop
)

var opcodeNames = [...]string{
	Invalid: "invalid",
	And:     "and",
	Or:      "or",
	Xor:     "xor",
	Add:     "add",
	Sub:     "sub",
	Addx2:   "addx2",
	Addx4:   "addx4",
	Addx8:   "addx8",
	Subx2:   "subx2",
	Subx4:   "subx4",
	Subx8:   "subx8",
	Slli:    "slli",
	Srli:    "srli",
	Srai:    "srai",
	Addi:    "addi",
	L32i:    "l32i",
	L16ui:   "l16ui",
	L16si:   "l16si",
	L8ui:    "l8ui",
	S32i:    "s32i",
	S16i:    "s16i",
	S8i:     "s8i",
	L32r:    "l32r",
	Bbsi:    "bbsi",
	Bbci:    "bbci",
	Beqz:    "beqz",
	Bnez:    "bnez",
	Beq:     "beq",
	Bne:     "bne",
	J:       "j",
	Mov:     "mov",
	Movi:    "movi",
	Call0:   "call0",
	Callx0:  "callx0",
	Ret:     "ret",
	Memw:    "memw",
	Nop:     "nop",
}

func (op Opcode) String() string {
	if op >= 0 && int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// Definition pairs an opcode with its operand schema.
type Definition struct {
	Opcode Opcode
	Schema []OperandKind
}

const (
	reg = KindRegister
	imm = KindImmediate
)

var (
	schemaNone = []OperandKind{}
	schemaR    = []OperandKind{reg}
	schemaI    = []OperandKind{imm}
	schemaRR   = []OperandKind{reg, reg}
	schemaRI   = []OperandKind{reg, imm}
	schemaRRR  = []OperandKind{reg, reg, reg}
	schemaRRI  = []OperandKind{reg, reg, imm}
	schemaRII  = []OperandKind{reg, imm, imm}
)

// definitions is the single source of truth for decoding: every accepted
// spelling, the opcode it selects and the operands it takes.
var definitions = []struct {
	names []string
	def   Definition
}{
	{[]string{"and", "and.n"}, Definition{And, schemaRRR}},
	{[]string{"or", "or.n"}, Definition{Or, schemaRRR}},
	{[]string{"xor"}, Definition{Xor, schemaRRR}},
	{[]string{"add", "add.n"}, Definition{Add, schemaRRR}},
	{[]string{"sub"}, Definition{Sub, schemaRRR}},
	{[]string{"addx2"}, Definition{Addx2, schemaRRR}},
	{[]string{"addx4"}, Definition{Addx4, schemaRRR}},
	{[]string{"addx8"}, Definition{Addx8, schemaRRR}},
	{[]string{"subx2"}, Definition{Subx2, schemaRRR}},
	{[]string{"subx4"}, Definition{Subx4, schemaRRR}},
	{[]string{"subx8"}, Definition{Subx8, schemaRRR}},
	{[]string{"slli"}, Definition{Slli, schemaRRI}},
	{[]string{"srli", "slri"}, Definition{Srli, schemaRRI}},
	{[]string{"srai"}, Definition{Srai, schemaRRI}},
	{[]string{"addi", "addi.n"}, Definition{Addi, schemaRRI}},
	{[]string{"l32i", "l32i.n"}, Definition{L32i, schemaRRI}},
	{[]string{"l16ui"}, Definition{L16ui, schemaRRI}},
	{[]string{"l16si"}, Definition{L16si, schemaRRI}},
	{[]string{"l8ui"}, Definition{L8ui, schemaRRI}},
	{[]string{"s32i", "s32i.n"}, Definition{S32i, schemaRRI}},
	{[]string{"s16i"}, Definition{S16i, schemaRRI}},
	{[]string{"s8i"}, Definition{S8i, schemaRRI}},
	{[]string{"l32r"}, Definition{L32r, schemaRI}},
	{[]string{"bbsi"}, Definition{Bbsi, schemaRII}},
	{[]string{"bbci"}, Definition{Bbci, schemaRII}},
	{[]string{"beqz", "beqz.n"}, Definition{Beqz, schemaRI}},
	{[]string{"bnez", "bnez.n"}, Definition{Bnez, schemaRI}},
	{[]string{"beq"}, Definition{Beq, schemaRRI}},
	{[]string{"bne"}, Definition{Bne, schemaRRI}},
	{[]string{"j"}, Definition{J, schemaI}},
	{[]string{"mov", "mov.n"}, Definition{Mov, schemaRR}},
	{[]string{"movi", "movi.n"}, Definition{Movi, schemaRI}},
	{[]string{"call0"}, Definition{Call0, schemaI}},
	{[]string{"callx0"}, Definition{Callx0, schemaR}},
	{[]string{"ret", "ret.n"}, Definition{Ret, schemaNone}},
	{[]string{"memw"}, Definition{Memw, schemaNone}},
	{[]string{"nop", "nop.n"}, Definition{Nop, schemaNone}},
}

var (
	byMnemonic = make(map[string]Definition)
	byOpcode   = make(map[Opcode][]OperandKind)
)

func init() {
	for _, d := range definitions {
		for _, name := range d.names {
			if _, dup := byMnemonic[name]; dup {
				panic("xtensa: duplicate mnemonic " + name)
			}
			byMnemonic[name] = d.def
		}
		byOpcode[d.def.Opcode] = d.def.Schema
	}
}

// Lookup returns the definition for a lower-case mnemonic.
func Lookup(mnemonic string) (Definition, bool) {
	d, ok := byMnemonic[mnemonic]
	return d, ok
}

// Schema returns the operand schema of op, or nil for unknown opcodes.
func Schema(op Opcode) []OperandKind {
	return byOpcode[op]
}

// Mnemonics returns every accepted spelling in sorted order.
func Mnemonics() []string {
	names := make([]string, 0, len(byMnemonic))
	for name := range byMnemonic {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
