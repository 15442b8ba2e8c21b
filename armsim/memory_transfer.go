package armsim

import "fmt"

// execSingleTransfer executes LDR/STR/LDRB/STRB with an immediate or
// register offset, pre- or post-indexed, with optional writeback.
func execSingleTransfer(mem *Memory, cpu *CPU, word uint32) error {
	p := (word>>24)&0x1 != 0 // pre-indexed
	u := (word>>23)&0x1 != 0 // add (vs subtract) offset
	b := (word>>22)&0x1 != 0 // byte (vs word)
	w := (word>>21)&0x1 != 0 // writeback
	l := (word>>20)&0x1 != 0 // load (vs store)
	rn := int((word >> 16) & 0xf)
	rd := int((word >> 12) & 0xf)

	var offset uint32
	if (word>>25)&0x1 != 0 {
		rm := int(word & 0xf)
		shiftType := (word >> 5) & 0x3
		amount := (word >> 7) & 0x1f
		offset, _ = shift(cpu.GetRegister(rm), amount, shiftType, false, cpu.CPSR.C)
	} else {
		offset = word & 0xfff
	}

	base := cpu.GetRegister(rn)
	addr := base
	if p {
		if u {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	if l {
		var val uint32
		var err error
		if b {
			var by byte
			by, err = mem.ReadByte(addr)
			val = uint32(by)
		} else {
			val, err = mem.ReadWord(addr)
		}
		if err != nil {
			return err
		}
		cpu.SetRegister(rd, val)
	} else {
		val := cpu.GetRegister(rd)
		var err error
		if b {
			err = mem.WriteByte(addr, byte(val))
		} else {
			err = mem.WriteWord(addr, val)
		}
		if err != nil {
			return err
		}
	}

	if !p {
		if u {
			addr = base + offset
		} else {
			addr = base - offset
		}
		cpu.SetRegister(rn, addr)
	} else if w {
		cpu.SetRegister(rn, addr)
	}
	return nil
}

// execHalfwordTransfer executes LDRH/STRH/LDRSB/LDRSH with the indexed
// (split immediate or register) addressing mode.
func execHalfwordTransfer(mem *Memory, cpu *CPU, word uint32) error {
	p := (word>>24)&0x1 != 0
	u := (word>>23)&0x1 != 0
	i := (word>>22)&0x1 != 0 // immediate (vs register) offset
	w := (word>>21)&0x1 != 0
	l := (word>>20)&0x1 != 0
	rn := int((word >> 16) & 0xf)
	rd := int((word >> 12) & 0xf)
	sh := (word >> 5) & 0x3 // 01=halfword, 10=signed byte, 11=signed halfword

	var offset uint32
	if i {
		offset = ((word >> 4) & 0xf0) | (word & 0xf)
	} else {
		offset = cpu.GetRegister(int(word & 0xf))
	}

	base := cpu.GetRegister(rn)
	addr := base
	if p {
		if u {
			addr = base + offset
		} else {
			addr = base - offset
		}
	}

	if l {
		var val uint32
		switch sh {
		case 1: // unsigned halfword
			h, err := mem.ReadHalf(addr)
			if err != nil {
				return err
			}
			val = uint32(h)
		case 2: // signed byte
			b, err := mem.ReadByte(addr)
			if err != nil {
				return err
			}
			val = uint32(int32(int8(b)))
		case 3: // signed halfword
			h, err := mem.ReadHalf(addr)
			if err != nil {
				return err
			}
			val = uint32(int32(int16(h)))
		default:
			return fmt.Errorf("armsim: unsupported halfword-class sh=%d", sh)
		}
		cpu.SetRegister(rd, val)
	} else {
		if sh != 1 {
			return fmt.Errorf("armsim: unsupported halfword-class store sh=%d", sh)
		}
		if err := mem.WriteHalf(addr, uint16(cpu.GetRegister(rd))); err != nil {
			return err
		}
	}

	if !p {
		if u {
			addr = base + offset
		} else {
			addr = base - offset
		}
		cpu.SetRegister(rn, addr)
	} else if w {
		cpu.SetRegister(rn, addr)
	}
	return nil
}
