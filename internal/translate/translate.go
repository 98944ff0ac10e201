// Package translate retargets Xtensa functions to ARM assembly.
package translate

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/arch/arm/armasm"

	"xtensa2arm/internal/arm"
	"xtensa2arm/internal/asm"
	"xtensa2arm/internal/symbols"
	"xtensa2arm/internal/xtensa"
)

// MemoryReader reads little-endian values from the analysed image.
type MemoryReader interface {
	ReadMemory(ctx context.Context, addr, size uint32) (uint32, error)
}

// SymbolTable resolves an exact address to the object starting there.
type SymbolTable interface {
	Lookup(addr uint32) (symbols.Object, bool)
}

// Translator converts one function at a time. It holds no per-function
// state, so a single Translator may serve many Translate calls.
type Translator struct {
	symbols     SymbolTable
	memory      MemoryReader
	logger      *log.Logger
	labelPrefix string
}

// Option configures a Translator.
type Option func(*Translator)

// WithLogger sets the logger used for per-function debug events.
func WithLogger(l *log.Logger) Option {
	return func(t *Translator) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithLabelPrefix changes the prefix of synthetic branch labels.
func WithLabelPrefix(prefix string) Option {
	return func(t *Translator) {
		if prefix != "" {
			t.labelPrefix = prefix
		}
	}
}

// New returns a Translator resolving calls through syms and literal pool
// entries through memory.
func New(syms SymbolTable, memory MemoryReader, opts ...Option) *Translator {
	t := &Translator{
		symbols:     syms,
		memory:      memory,
		logger:      log.New(io.Discard),
		labelPrefix: asm.DefaultLabelPrefix,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// LabelPrefix returns the prefix used for branch labels.
func (t *Translator) LabelPrefix() string { return t.labelPrefix }

// Translate decodes every instruction of fn and emits its ARM equivalent.
// The result has one record per source instruction, at the same offset.
// The first failure aborts the function and no partial result is returned.
func (t *Translator) Translate(ctx context.Context, fn asm.Function) (asm.Function, error) {
	if err := fn.Validate(); err != nil {
		return asm.Function{}, err
	}

	within := fn.Offsets()
	targets := make(map[uint32]struct{})
	out := asm.Function{
		Name:         fn.Name,
		Address:      fn.Address,
		Instructions: make([]asm.Instruction, 0, len(fn.Instructions)),
	}

	for _, src := range fn.Instructions {
		if err := ctx.Err(); err != nil {
			return asm.Function{}, err
		}
		ins, err := xtensa.Decode(src.Opcode)
		if err == nil {
			var step Step
			step, err = t.Step(ctx, ins, within)
			if err == nil {
				if step.Kind == asm.KindBranch {
					targets[step.Target] = struct{}{}
				}
				out.Instructions = append(out.Instructions, step.Record())
				continue
			}
		}
		t.logger.Debug("translation failed", "function", fn.Name, "offset", src.Offset, "err", err)
		return asm.Function{}, &InstructionError{Function: fn.Name, Offset: src.Offset, Text: src.Opcode, Err: err}
	}

	finalize(&out, fn, targets)
	t.logger.Debug("translated", "function", fn.Name, "instructions", out.Len(), "labels", len(targets))
	return out, nil
}

// finalize copies source offsets onto the translated records by position
// and marks every record some branch lands on.
func finalize(dst *asm.Function, src asm.Function, targets map[uint32]struct{}) {
	for i := range dst.Instructions {
		off := src.Instructions[i].Offset
		dst.Instructions[i].Offset = off
		_, dst.Instructions[i].Referenced = targets[off]
	}
}

// Step is the ARM code emitted for one source instruction.
type Step struct {
	Insts  []arm.Inst
	Kind   asm.Kind
	Target uint32 // in-function destination when Kind is asm.KindBranch
}

// Record renders s as an unplaced ARM instruction record.
func (s Step) Record() asm.Instruction {
	return asm.Instruction{
		Opcode: arm.Render(s.Insts),
		Kind:   s.Kind,
		Target: s.Target,
		Arch:   asm.ArchARM,
	}
}

var (
	aluOps = map[xtensa.Opcode]armasm.Op{
		xtensa.And: armasm.AND,
		xtensa.Or:  armasm.ORR,
		xtensa.Xor: armasm.EOR,
		xtensa.Add: armasm.ADD,
		xtensa.Sub: armasm.SUB,
	}
	scaledOps = map[xtensa.Opcode]struct {
		op    armasm.Op
		shift uint8
	}{
		xtensa.Addx2: {armasm.ADD, 1},
		xtensa.Addx4: {armasm.ADD, 2},
		xtensa.Addx8: {armasm.ADD, 3},
		xtensa.Subx2: {armasm.RSB, 1},
		xtensa.Subx4: {armasm.RSB, 2},
		xtensa.Subx8: {armasm.RSB, 3},
	}
	shiftOps = map[xtensa.Opcode]armasm.Op{
		xtensa.Slli: armasm.LSL,
		xtensa.Srli: armasm.LSR,
		xtensa.Srai: armasm.ASR,
	}
	loadOps = map[xtensa.Opcode]armasm.Op{
		xtensa.L32i:  armasm.LDR,
		xtensa.L16ui: armasm.LDRH,
		xtensa.L16si: armasm.LDRSH,
		xtensa.L8ui:  armasm.LDRB,
	}
	storeOps = map[xtensa.Opcode]armasm.Op{
		xtensa.S32i: armasm.STR,
		xtensa.S16i: armasm.STRH,
		xtensa.S8i:  armasm.STRB,
	}
)

// Step translates a single decoded instruction. within holds the offsets of
// the enclosing function; branches landing elsewhere become tail calls.
func (t *Translator) Step(ctx context.Context, ins xtensa.Instruction, within map[uint32]struct{}) (Step, error) {
	ops := operands{ins: ins}

	if op, ok := aluOps[ins.Opcode]; ok {
		rd, rn, rm := ops.reg(0), ops.reg(1), ops.reg(2)
		return single(arm.Data(op, rd, rn, rm), asm.KindOther, ops.err)
	}
	if sc, ok := scaledOps[ins.Opcode]; ok {
		// addx2 ar, as, at computes (as << 1) + at.
		rd, rs, rt := ops.reg(0), ops.reg(1), ops.reg(2)
		return single(arm.Scaled(sc.op, rd, rt, rs, sc.shift), asm.KindOther, ops.err)
	}
	if op, ok := shiftOps[ins.Opcode]; ok {
		rd, rm, n := ops.reg(0), ops.reg(1), ops.imm(2)
		if ops.err != nil {
			return Step{}, ops.err
		}
		in, err := arm.Shift(op, rd, rm, n)
		return single(in, asm.KindOther, err)
	}
	if op, ok := loadOps[ins.Opcode]; ok {
		return loadStore(op, &ops, asm.KindLoad)
	}
	if op, ok := storeOps[ins.Opcode]; ok {
		return loadStore(op, &ops, asm.KindStore)
	}

	switch ins.Opcode {
	case xtensa.Addi:
		rd, rn, v := ops.reg(0), ops.reg(1), ops.imm(2)
		if ops.err != nil {
			return Step{}, ops.err
		}
		in, err := arm.AddImm(rd, rn, v)
		return single(in, asm.KindOther, err)

	case xtensa.L32r:
		rd, addr := ops.reg(0), uint32(ops.imm(1))
		if ops.err != nil {
			return Step{}, ops.err
		}
		v, err := t.readLiteral(ctx, addr)
		if err != nil {
			return Step{}, err
		}
		return Step{Insts: arm.MoveImm(rd, v), Kind: asm.KindOther}, nil

	case xtensa.Bbsi, xtensa.Bbci:
		rs, bit, dest := ops.reg(0), ops.imm(1), uint32(ops.imm(2))
		if ops.err != nil {
			return Step{}, ops.err
		}
		if bit < 0 || bit > 31 {
			return Step{}, &arm.ImmediateRangeError{Op: armasm.TST, Value: int64(bit)}
		}
		op := armasm.B_NE
		if ins.Opcode == xtensa.Bbci {
			op = armasm.B_EQ
		}
		return t.branch(op, dest, within, arm.Compare(armasm.TST, rs, armasm.Imm(uint32(1)<<uint(bit))))

	case xtensa.Beqz, xtensa.Bnez:
		rs, dest := ops.reg(0), uint32(ops.imm(1))
		if ops.err != nil {
			return Step{}, ops.err
		}
		return t.branch(condition(ins.Opcode), dest, within, arm.Compare(armasm.CMP, rs, armasm.Imm(0)))

	case xtensa.Beq, xtensa.Bne:
		rs, rt, dest := ops.reg(0), ops.reg(1), uint32(ops.imm(2))
		if ops.err != nil {
			return Step{}, ops.err
		}
		return t.branch(condition(ins.Opcode), dest, within, arm.Compare(armasm.CMP, rs, rt))

	case xtensa.J:
		dest := uint32(ops.imm(0))
		if ops.err != nil {
			return Step{}, ops.err
		}
		return t.branch(armasm.B, dest, within)

	case xtensa.Mov:
		rd, rm := ops.reg(0), ops.reg(1)
		return single(arm.Move(rd, rm), asm.KindOther, ops.err)

	case xtensa.Movi:
		rd, v := ops.reg(0), ops.imm(1)
		if ops.err != nil {
			return Step{}, ops.err
		}
		return Step{Insts: arm.MoveImm(rd, uint32(v)), Kind: asm.KindOther}, nil

	case xtensa.Callx0:
		rm := ops.reg(0)
		return single(arm.BranchReg(armasm.BLX, rm), asm.KindOther, ops.err)

	case xtensa.Call0:
		dest := uint32(ops.imm(0))
		if ops.err != nil {
			return Step{}, ops.err
		}
		obj, err := t.function(dest, func(addr uint32) error { return &UnresolvedCallTargetError{Address: addr} })
		if err != nil {
			return Step{}, err
		}
		return single(arm.Branch(armasm.BL, obj.Name), asm.KindOther, nil)

	case xtensa.Ret:
		return single(arm.BranchReg(armasm.BX, armasm.LR), asm.KindOther, nil)

	case xtensa.Memw, xtensa.Nop:
		return Step{Kind: asm.KindOther}, nil
	}

	return Step{}, &xtensa.UnsupportedOpcodeError{Name: ins.Opcode.String()}
}

func condition(op xtensa.Opcode) armasm.Op {
	if op == xtensa.Beqz || op == xtensa.Beq {
		return armasm.B_EQ
	}
	return armasm.B_NE
}

// branch emits prefix followed by a branch to dest. Destinations inside the
// function become labels; anything else must be a known function and is
// reached as a tail call.
func (t *Translator) branch(op armasm.Op, dest uint32, within map[uint32]struct{}, prefix ...arm.Inst) (Step, error) {
	if _, ok := within[dest]; ok {
		insts := append(prefix, arm.Branch(op, asm.Label(t.labelPrefix, dest)))
		return Step{Insts: insts, Kind: asm.KindBranch, Target: dest}, nil
	}

	obj, err := t.function(dest, func(addr uint32) error { return &UnresolvedBranchTargetError{Address: addr} })
	if err != nil {
		return Step{}, err
	}
	t.logger.Debug("branch leaves function", "target", dest, "symbol", obj.Name)
	return Step{Insts: append(prefix, arm.Branch(op, obj.Name)), Kind: asm.KindOther}, nil
}

// function resolves addr to a function object. missing builds the error
// returned when no object starts at addr.
func (t *Translator) function(addr uint32, missing func(uint32) error) (symbols.Object, error) {
	if t.symbols == nil {
		return symbols.Object{}, missing(addr)
	}
	obj, ok := t.symbols.Lookup(addr)
	if !ok {
		return symbols.Object{}, missing(addr)
	}
	if obj.Kind != symbols.KindFunction {
		return symbols.Object{}, &WrongObjectKindError{Address: addr, Name: obj.Name, Kind: obj.Kind}
	}
	return obj, nil
}

var errNoMemory = errors.New("no memory reader")

func (t *Translator) readLiteral(ctx context.Context, addr uint32) (uint32, error) {
	if t.memory == nil {
		return 0, &MemoryReadError{Address: addr, Err: errNoMemory}
	}
	v, err := t.memory.ReadMemory(ctx, addr, 4)
	if err != nil {
		return 0, &MemoryReadError{Address: addr, Err: err}
	}
	return v, nil
}

func loadStore(op armasm.Op, ops *operands, kind asm.Kind) (Step, error) {
	rt, base, off := ops.reg(0), ops.reg(1), ops.imm(2)
	if ops.err != nil {
		return Step{}, ops.err
	}
	in, err := arm.Memory(op, rt, base, off)
	return single(in, kind, err)
}

func single(in arm.Inst, kind asm.Kind, err error) (Step, error) {
	if err != nil {
		return Step{}, err
	}
	return Step{Insts: []arm.Inst{in}, Kind: kind}, nil
}

// operands reads mapped registers and immediates, keeping the first error.
type operands struct {
	ins xtensa.Instruction
	err error
}

func (o *operands) reg(n int) armasm.Reg {
	if o.err != nil {
		return 0
	}
	index, err := o.ins.Register(n)
	if err != nil {
		o.err = err
		return 0
	}
	r, err := arm.Register(index)
	if err != nil {
		o.err = err
		return 0
	}
	return r
}

func (o *operands) imm(n int) int32 {
	if o.err != nil {
		return 0
	}
	v, err := o.ins.Immediate(n)
	if err != nil {
		o.err = err
	}
	return v
}
