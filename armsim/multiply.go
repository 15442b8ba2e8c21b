package armsim

// execMultiply executes MUL Rd, Rm, Rs (the only multiply form this
// module's generator emits -- no MLA, no long multiply).
func execMultiply(cpu *CPU, word uint32) error {
	rd := int((word >> 16) & 0xf)
	rs := int((word >> 8) & 0xf)
	rm := int(word & 0xf)
	result := cpu.GetRegister(rm) * cpu.GetRegister(rs)
	if (word>>20)&0x1 != 0 {
		cpu.flagsFromResult(result)
	}
	cpu.SetRegister(rd, result)
	return nil
}
