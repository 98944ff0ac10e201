package translate

import (
	"context"
	"errors"

	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"xtensa2arm/internal/arm"
	"xtensa2arm/internal/asm"
	"xtensa2arm/internal/symbols"
	"xtensa2arm/internal/xtensa"
)

func listing(name string, base uint32, lines ...string) asm.Function {
	fn := asm.Function{Name: name, Address: base}
	for n, text := range lines {
		fn.Instructions = append(fn.Instructions, asm.Instruction{
			Offset: base + uint32(3*n),
			Opcode: text,
			Arch:   asm.ArchXtensa,
		})
	}
	return fn
}

var _ = Describe("Translator", func() {
	var (
		mockCtrl    *gomock.Controller
		mockMemory  *MockMemoryReader
		mockSymbols *MockSymbolTable
		translator  *Translator
		ctx         context.Context
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		mockMemory = NewMockMemoryReader(mockCtrl)
		mockSymbols = NewMockSymbolTable(mockCtrl)
		translator = New(mockSymbols, mockMemory)
		ctx = context.Background()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should rename registers of a three-register op", func() {
		out, err := translator.Translate(ctx, listing("f", 0x100, "and a1, a2, a3"))

		Expect(err).NotTo(HaveOccurred())
		Expect(out.Instructions).To(HaveLen(1))
		Expect(out.Instructions[0].Opcode).To(Equal("and sp, r0, r1"))
		Expect(out.Instructions[0].Arch).To(Equal(asm.ArchARM))
		Expect(out.Instructions[0].Offset).To(Equal(uint32(0x100)))
	})

	It("should replace a literal pool load by the literal value", func() {
		mockMemory.EXPECT().
			ReadMemory(gomock.Any(), uint32(0xaabbccdd), uint32(4)).
			Return(uint32(0x12345678), nil)

		out, err := translator.Translate(ctx, listing("f", 0x100, "l32r a14, 0xaabbccdd"))

		Expect(err).NotTo(HaveOccurred())
		Expect(out.Instructions[0].Opcode).To(Equal("movw ip, #0x5678\nmovt ip, #0x1234"))
		Expect(out.Instructions[0].Opcode).NotTo(ContainSubstring("aabbccdd"))
		Expect(out.Instructions[0].Opcode).NotTo(ContainSubstring("="))
		Expect(out.Instructions[0].Kind).To(Equal(asm.KindOther))
	})

	It("should materialize 0xdeadbeef without referencing the pool", func() {
		mockMemory.EXPECT().
			ReadMemory(gomock.Any(), uint32(0x400d0010), uint32(4)).
			Return(uint32(0xdeadbeef), nil)

		out, err := translator.Translate(ctx, listing("f", 0x400d0100, "l32r a2, 0x400d0010"))

		Expect(err).NotTo(HaveOccurred())
		Expect(out.Instructions[0].Opcode).To(Equal("movw r0, #0xbeef\nmovt r0, #0xdead"))
	})

	It("should fail the function when the literal read fails", func() {
		readErr := errors.New("pipe closed")
		mockMemory.EXPECT().
			ReadMemory(gomock.Any(), uint32(0x10), uint32(4)).
			Return(uint32(0), readErr)

		out, err := translator.Translate(ctx, listing("f", 0x100, "movi a2, 1", "l32r a2, 0x10", "ret"))

		var readFailure *MemoryReadError
		Expect(errors.As(err, &readFailure)).To(BeTrue())
		Expect(readFailure.Address).To(Equal(uint32(0x10)))
		Expect(errors.Is(err, readErr)).To(BeTrue())
		Expect(out.Instructions).To(BeEmpty())
	})

	It("should call a resolved function by name", func() {
		mockSymbols.EXPECT().
			Lookup(uint32(0x1000)).
			Return(symbols.Object{Address: 0x1000, Name: "foo", Kind: symbols.KindFunction}, true)

		out, err := translator.Translate(ctx, listing("f", 0x100, "call0 0x1000"))

		Expect(err).NotTo(HaveOccurred())
		Expect(out.Instructions[0].Opcode).To(Equal("bl foo"))
	})

	It("should reject calls without a symbol", func() {
		mockSymbols.EXPECT().Lookup(uint32(0x1000)).Return(symbols.Object{}, false)

		_, err := translator.Translate(ctx, listing("f", 0x100, "call0 0x1000"))

		var unresolved *UnresolvedCallTargetError
		Expect(errors.As(err, &unresolved)).To(BeTrue())
		Expect(unresolved.Address).To(Equal(uint32(0x1000)))
	})

	It("should reject calls into data", func() {
		mockSymbols.EXPECT().
			Lookup(uint32(0x2000)).
			Return(symbols.Object{Address: 0x2000, Name: "buf", Kind: symbols.KindData}, true)

		_, err := translator.Translate(ctx, listing("f", 0x100, "call0 0x2000"))

		var wrongKind *WrongObjectKindError
		Expect(errors.As(err, &wrongKind)).To(BeTrue())
		Expect(wrongKind.Kind).To(Equal(symbols.KindData))
	})

	It("should reject unsupported opcodes with the offending name", func() {
		_, err := translator.Translate(ctx, listing("f", 0x100, "movi a2, 1", "xyz a1"))

		var unsupported *xtensa.UnsupportedOpcodeError
		Expect(errors.As(err, &unsupported)).To(BeTrue())
		Expect(unsupported.Name).To(Equal("xyz"))

		var located *InstructionError
		Expect(errors.As(err, &located)).To(BeTrue())
		Expect(located.Offset).To(Equal(uint32(0x103)))
		Expect(located.Function).To(Equal("f"))
	})

	It("should reject registers outside the map", func() {
		bad := xtensa.Instruction{Opcode: xtensa.Mov, Operands: []xtensa.Operand{xtensa.Reg(15), xtensa.Reg(2)}}

		_, err := translator.Step(ctx, bad, nil)

		var invalid *arm.InvalidRegisterError
		Expect(errors.As(err, &invalid)).To(BeTrue())
		Expect(invalid.Index).To(Equal(uint8(15)))
	})

	Context("with branches", func() {
		var fn asm.Function

		BeforeEach(func() {
			fn = listing("loop", 0x100,
				"movi a2, 0",     // 0x100
				"beqz a3, 0x10c", // 0x103
				"addi a2, a2, 1", // 0x106
				"j 0x103",        // 0x109
				"ret.n",          // 0x10c
			)
		})

		It("should label every branch destination", func() {
			out, err := translator.Translate(ctx, fn)

			Expect(err).NotTo(HaveOccurred())
			Expect(out.Instructions).To(HaveLen(5))
			Expect(out.Instructions[1].Opcode).To(Equal("cmp r1, #0\nbeq loc_10c"))
			Expect(out.Instructions[3].Opcode).To(Equal("b loc_103"))

			var referenced []uint32
			for _, ins := range out.Instructions {
				if ins.Referenced {
					referenced = append(referenced, ins.Offset)
				}
			}
			Expect(referenced).To(Equal([]uint32{0x103, 0x10c}))
		})

		It("should keep the branch target set closed", func() {
			out, err := translator.Translate(ctx, fn)
			Expect(err).NotTo(HaveOccurred())

			targets := map[uint32]int{}
			for _, ins := range out.Instructions {
				if ins.Kind == asm.KindBranch {
					targets[ins.Target]++
				}
			}
			for _, ins := range out.Instructions {
				if ins.Referenced {
					Expect(targets).To(HaveKey(ins.Offset))
				}
			}
			for target := range targets {
				hits := 0
				for _, ins := range out.Instructions {
					if ins.Referenced && ins.Offset == target {
						hits++
					}
				}
				Expect(hits).To(Equal(1))
			}
		})

		It("should not modify the source function", func() {
			before := listing("loop", 0x100, "movi a2, 0", "beqz a3, 0x10c", "addi a2, a2, 1", "j 0x103", "ret.n")

			_, err := translator.Translate(ctx, fn)

			Expect(err).NotTo(HaveOccurred())
			Expect(fn).To(Equal(before))
		})

		It("should tail call functions outside the body", func() {
			mockSymbols.EXPECT().
				Lookup(uint32(0x2000)).
				Return(symbols.Object{Address: 0x2000, Name: "bar", Kind: symbols.KindFunction}, true)

			out, err := translator.Translate(ctx, listing("f", 0x100, "bnez a2, 0x2000", "ret"))

			Expect(err).NotTo(HaveOccurred())
			Expect(out.Instructions[0].Opcode).To(Equal("cmp r0, #0\nbne bar"))
			Expect(out.Instructions[0].Kind).To(Equal(asm.KindOther))
			Expect(out.Instructions[1].Referenced).To(BeFalse())
		})

		It("should fail on branches to unknown addresses", func() {
			mockSymbols.EXPECT().Lookup(uint32(0x2000)).Return(symbols.Object{}, false)

			_, err := translator.Translate(ctx, listing("f", 0x100, "j 0x2000"))

			var unresolved *UnresolvedBranchTargetError
			Expect(errors.As(err, &unresolved)).To(BeTrue())
		})
	})
})
