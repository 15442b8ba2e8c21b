package armsim

import "fmt"

// ErrStepLimit is returned by Run if maxSteps instructions executed without
// reaching haltPC -- almost always a sign the generated code never
// returned (e.g. a missing RET), not a limitation of the interpreter.
var ErrStepLimit = fmt.Errorf("armsim: step limit exceeded without reaching halt address")

// Run executes instructions starting at entry until the CPU's PC equals
// haltPC (the convention this module's tests use: LR is primed with a
// sentinel return address before calling in, so RET's LDMFD naturally
// halts the simulation) or maxSteps is exceeded.
func Run(mem *Memory, cpu *CPU, entry, haltPC uint32, maxSteps int) error {
	cpu.PC = entry
	for steps := 0; steps < maxSteps; steps++ {
		if cpu.PC == haltPC {
			return nil
		}
		word, err := mem.ReadWord(cpu.PC)
		if err != nil {
			return err
		}
		if err := step(mem, cpu, word); err != nil {
			return err
		}
	}
	return ErrStepLimit
}

// step decodes and executes one instruction word, advancing PC by 4 unless
// the instruction itself branched.
func step(mem *Memory, cpu *CPU, word uint32) error {
	cond := (word >> 28) & 0xf
	pc := cpu.PC
	nextPC := pc + 4

	if !passes(cond, cpu.CPSR) {
		cpu.PC = nextPC
		cpu.Cycles++
		return nil
	}

	var err error
	branched := false

	switch {
	case word&0x0fffffd0 == 0x012fff10: // BX/BLX Rm
		rm := int(word & 0xf)
		target := cpu.GetRegister(rm)
		if word&0x20 != 0 { // BLX
			cpu.SetRegister(LR, nextPC)
		}
		cpu.PC = target
		branched = true

	case word&0x0e000000 == 0x0a000000: // B/BL
		link := word&0x01000000 != 0
		disp := int32(word&0xffffff) << 8 >> 8 // sign-extend 24 bits
		target := uint32(int32(cpu.PC) + 8 + disp*4)
		if link {
			cpu.SetRegister(LR, nextPC)
		}
		cpu.PC = target
		branched = true

	case word&0x0fc000f0 == 0x00000090: // MUL
		err = execMultiply(cpu, word)

	case word&0x0e000000 == 0x08000000: // LDM/STM
		err = execBlockTransfer(mem, cpu, word)

	case word&0x0c000000 == 0x04000000: // LDR/STR word or unsigned byte
		err = execSingleTransfer(mem, cpu, word)

	case word&0x0e000090 == 0x00000090: // halfword / signed byte transfer
		err = execHalfwordTransfer(mem, cpu, word)

	case word&0x0c000000 == 0x00000000: // data processing
		err = execDataProcessing(cpu, word)

	default:
		err = fmt.Errorf("armsim: unimplemented instruction %#08x at %#x", word, cpu.PC)
	}

	if err != nil {
		return err
	}
	// An LDM, LDR or data-processing op with R15 as destination has
	// already moved PC through SetRegister.
	if !branched && cpu.PC == pc {
		cpu.PC = nextPC
	}
	cpu.Cycles++
	return nil
}
