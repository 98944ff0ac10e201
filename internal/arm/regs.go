// Package arm models the ARM (A32) instructions the translator emits and the
// fixed mapping from Xtensa address registers onto ARM core registers.
package arm

import (
	"fmt"

	"golang.org/x/arch/arm/armasm"
)

// registers maps Xtensa a0..a14 onto ARM. a0 holds the return address and a1
// the stack pointer under the call0 ABI.
var registers = [...]armasm.Reg{
	armasm.LR,
	armasm.SP,
	armasm.R0,
	armasm.R1,
	armasm.R2,
	armasm.R3,
	armasm.R4,
	armasm.R5,
	armasm.R6,
	armasm.R7,
	armasm.R8,
	armasm.R9,
	armasm.R10,
	armasm.R11,
	armasm.R12,
}

// NumRegisters is the number of Xtensa registers with an ARM counterpart.
const NumRegisters = len(registers)

// InvalidRegisterError reports an Xtensa register index with no ARM mapping.
type InvalidRegisterError struct {
	Index uint8
}

func (e *InvalidRegisterError) Error() string {
	return fmt.Sprintf("xtensa register a%d has no arm mapping", e.Index)
}

// Register returns the ARM register for Xtensa register a<index>.
func Register(index uint8) (armasm.Reg, error) {
	if int(index) >= len(registers) {
		return 0, &InvalidRegisterError{Index: index}
	}
	return registers[index], nil
}

