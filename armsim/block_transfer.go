package armsim

// execBlockTransfer executes LDM/STM with the full register bitmap,
// handling all four P/U addressing-mode combinations this module's
// generator uses for its prologue (STMFD, P=1,U=0) and epilogue
// (LDMFD, P=0,U=1 from the frame pointer -- see vmasm.Gen0's RET case).
// Register order always runs low-to-high through memory, per the ARM
// multiple-register convention, regardless of P/U.
func execBlockTransfer(mem *Memory, cpu *CPU, word uint32) error {
	p := (word>>24)&0x1 != 0
	u := (word>>23)&0x1 != 0
	w := (word>>21)&0x1 != 0
	l := (word>>20)&0x1 != 0
	rn := int((word >> 16) & 0xf)
	regList := word & 0xffff

	var regs []int
	for r := 0; r < 16; r++ {
		if regList&(1<<uint(r)) != 0 {
			regs = append(regs, r)
		}
	}

	base := cpu.GetRegister(rn)
	addr := base
	if !u {
		addr = base - uint32(len(regs)*4)
		if !p {
			addr += 4
		}
	} else if p {
		addr += 4
	}

	for _, r := range regs {
		if l {
			val, err := mem.ReadWord(addr)
			if err != nil {
				return err
			}
			cpu.SetRegister(r, val)
		} else {
			if err := mem.WriteWord(addr, cpu.GetRegister(r)); err != nil {
				return err
			}
		}
		addr += 4
	}

	if w {
		if u {
			cpu.SetRegister(rn, base+uint32(len(regs)*4))
		} else {
			cpu.SetRegister(rn, base-uint32(len(regs)*4))
		}
	}
	return nil
}
