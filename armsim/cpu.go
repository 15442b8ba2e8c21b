// Package armsim is a scoped software interpreter for the integer ARM2
// subset this module's generator emits for its end-to-end scenarios: data
// processing, multiply, branch, and single/multiple word load-store. It
// exists purely to let tests assert on the actual value a generated
// procedure computes without requiring real ARM hardware to execute on.
// VFP, syscalls, and debugger/GUI-facing machinery are out of scope here --
// see DESIGN.md.
package armsim

// CPU holds the interpreter's register file and flags, restricted to what
// the integer subset touches.
type CPU struct {
	R      [15]uint32 // R0-R14; R13=SP, R14=LR by convention, not enforced
	PC     uint32
	CPSR   CPSR
	Cycles uint64
}

// CPSR is the condition-flag subset of the status register.
type CPSR struct {
	N, Z, C, V bool
}

// Register name constants, matching ARM's own numbering.
const (
	SP = 13
	LR = 14
)

// NewCPU returns a zeroed CPU.
func NewCPU() *CPU { return &CPU{} }

// GetRegister reads R0-R14 directly, or PC+8 for R15, simulating the ARM
// pipeline's read-ahead.
func (c *CPU) GetRegister(r int) uint32 {
	if r == 15 {
		return c.PC + 8
	}
	return c.R[r]
}

// SetRegister writes R0-R14, or branches via PC for R15.
func (c *CPU) SetRegister(r int, v uint32) {
	if r == 15 {
		c.PC = v
		return
	}
	c.R[r] = v
}

func (c *CPU) flagsFromResult(result uint32) {
	c.CPSR.N = result&0x80000000 != 0
	c.CPSR.Z = result == 0
}
