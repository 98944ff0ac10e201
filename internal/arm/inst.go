package arm

import (
	"fmt"
	"math/bits"
	"strings"

	"golang.org/x/arch/arm/armasm"
)

// Inst is one emitted ARM instruction. Op and Args use the armasm model;
// a symbolic branch destination is carried alongside.
type Inst struct {
	Op     armasm.Op
	Args   []armasm.Arg
	Symbol string // branch label or callee, printed after Args
}

// hexImmediates are the ops whose wide immediates read as bit patterns.
var hexImmediates = map[armasm.Op]bool{
	armasm.MOV:  true,
	armasm.MOVW: true,
	armasm.MOVT: true,
	armasm.TST:  true,
}

// String renders i in GNU assembler syntax.
func (i Inst) String() string {
	var in armasm.Inst
	in.Op = i.Op
	copy(in.Args[:], i.Args)
	text := armasm.GNUSyntax(in)

	if n := len(i.Args); n > 0 && hexImmediates[i.Op] {
		if imm, ok := i.Args[n-1].(armasm.Imm); ok && uint32(imm) > 0xff {
			text = strings.TrimSuffix(text, fmt.Sprintf("#%d", int32(imm))) + fmt.Sprintf("#%#x", uint32(imm))
		}
	}
	if i.Symbol != "" {
		return text + " " + i.Symbol
	}
	return text
}

// Render joins the rendering of insts, one instruction per line.
func Render(insts []Inst) string {
	lines := make([]string, len(insts))
	for n, in := range insts {
		lines[n] = in.String()
	}
	return strings.Join(lines, "\n")
}

// ImmediateRangeError reports a constant that the chosen ARM encoding cannot hold.
type ImmediateRangeError struct {
	Op    armasm.Op
	Value int64
}

func (e *ImmediateRangeError) Error() string {
	return fmt.Sprintf("immediate %d does not fit %s", e.Value, strings.ToLower(e.Op.String()))
}

// Encodable reports whether v is an A32 modified immediate: an 8-bit value
// rotated right by an even amount.
func Encodable(v uint32) bool {
	for rot := 0; rot < 32; rot += 2 {
		if bits.RotateLeft32(v, rot) <= 0xff {
			return true
		}
	}
	return false
}

// Data builds a three-operand data-processing instruction "op rd, rn, operand".
func Data(op armasm.Op, rd, rn armasm.Reg, operand armasm.Arg) Inst {
	return Inst{Op: op, Args: []armasm.Arg{rd, rn, operand}}
}

// Scaled builds "op rd, rn, rm, lsl #shift".
func Scaled(op armasm.Op, rd, rn, rm armasm.Reg, shift uint8) Inst {
	return Data(op, rd, rn, armasm.RegShift{Reg: rm, Shift: armasm.ShiftLeft, Count: shift})
}

// AddImm adds a signed constant, using sub for negative values.
func AddImm(rd, rn armasm.Reg, v int32) (Inst, error) {
	op, mag := armasm.ADD, int64(v)
	if v < 0 {
		op, mag = armasm.SUB, -int64(v)
	}
	if mag > 0xffffffff || !Encodable(uint32(mag)) {
		return Inst{}, &ImmediateRangeError{Op: op, Value: int64(v)}
	}
	return Data(op, rd, rn, armasm.Imm(uint32(mag))), nil
}

// Shift builds an immediate shift. A zero count is a plain move.
func Shift(op armasm.Op, rd, rm armasm.Reg, count int32) (Inst, error) {
	limit := int32(31)
	if op == armasm.LSR || op == armasm.ASR {
		limit = 32
	}
	if count < 0 || count > limit {
		return Inst{}, &ImmediateRangeError{Op: op, Value: int64(count)}
	}
	if count == 0 {
		return Move(rd, rm), nil
	}
	return Data(op, rd, rm, armasm.Imm(uint32(count))), nil
}

// Move builds "mov rd, rm".
func Move(rd, rm armasm.Reg) Inst {
	return Inst{Op: armasm.MOV, Args: []armasm.Arg{rd, rm}}
}

// MoveImm materializes a constant without a literal pool: "mov rd, #v" when
// v is a modified immediate, otherwise movw for the low half and movt for a
// non-zero high half.
func MoveImm(rd armasm.Reg, v uint32) []Inst {
	if Encodable(v) {
		return []Inst{{Op: armasm.MOV, Args: []armasm.Arg{rd, armasm.Imm(v)}}}
	}
	out := []Inst{{Op: armasm.MOVW, Args: []armasm.Arg{rd, armasm.Imm(v & 0xffff)}}}
	if hi := v >> 16; hi != 0 {
		out = append(out, Inst{Op: armasm.MOVT, Args: []armasm.Arg{rd, armasm.Imm(hi)}})
	}
	return out
}

// offsetLimit is the largest immediate offset of each load/store form.
var offsetLimit = map[armasm.Op]int32{
	armasm.LDR:   4095,
	armasm.LDRB:  4095,
	armasm.STR:   4095,
	armasm.STRB:  4095,
	armasm.LDRH:  255,
	armasm.LDRSH: 255,
	armasm.LDRSB: 255,
	armasm.STRH:  255,
}

// Memory builds "op rt, [base, #offset]".
func Memory(op armasm.Op, rt, base armasm.Reg, offset int32) (Inst, error) {
	limit, ok := offsetLimit[op]
	if !ok {
		return Inst{}, fmt.Errorf("%s is not a load or store", strings.ToLower(op.String()))
	}
	if offset < -limit || offset > limit {
		return Inst{}, &ImmediateRangeError{Op: op, Value: int64(offset)}
	}
	mem := armasm.Mem{Base: base, Mode: armasm.AddrOffset, Offset: int16(offset)}
	return Inst{Op: op, Args: []armasm.Arg{rt, mem}}, nil
}

// Compare builds a flag-setting test such as "cmp rn, #0" or "tst rn, #4".
func Compare(op armasm.Op, rn armasm.Reg, operand armasm.Arg) Inst {
	return Inst{Op: op, Args: []armasm.Arg{rn, operand}}
}

// Branch builds a branch or call to a symbolic destination.
func Branch(op armasm.Op, symbol string) Inst {
	return Inst{Op: op, Symbol: symbol}
}

// BranchReg builds a register-indirect branch such as "bx lr".
func BranchReg(op armasm.Op, rm armasm.Reg) Inst {
	return Inst{Op: op, Args: []armasm.Arg{rm}}
}
