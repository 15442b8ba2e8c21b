package vmasm

import "github.com/Spivoxity/thunder/armenc"

// These helpers cover immediate materialization, addressing-mode lowering,
// and boolean-from-comparison codegen, each kept under ARM's own
// immediate-range thresholds.

// moveImmediate loads an arbitrary 32-bit constant into r, picking between
// a single MOV, a single MVN of the bitwise complement, or a literal-pool
// load, in that preference order.
func (a *Assembler) moveImmediate(r int, imm int32) error {
	u := uint32(imm)
	switch {
	case imm >= 0 && imm < 256:
		return a.write(armenc.RI(armenc.OpMOV, r, u))
	case ^imm >= 0 && ^imm < 256:
		return a.write(armenc.RI(armenc.OpMVN, r, uint32(^imm)))
	default:
		return a.loadReg(r, false, u)
	}
}

// materializeConst loads imm into the scratch register IP and returns it,
// the Go equivalent of const_reg -- used wherever an immediate falls
// outside every direct-encoding range.
func (a *Assembler) materializeConst(imm int32) (int, error) {
	if err := a.moveImmediate(regIP, imm); err != nil {
		return 0, err
	}
	return regIP, nil
}

// loadReg loads val into reg via the literal pool, as either an integer
// word load or (for a float-class register) a scaled FLDS.
func (a *Assembler) loadReg(reg int, isFloat bool, val uint32) error {
	off, err := a.pool.Intern(val)
	if err != nil {
		return err
	}
	if isFloat {
		return a.write(armenc.LdstF(armenc.WithUp(armenc.OpFLDS), reg, regLP, uint32(off/4)))
	}
	return a.write(armenc.LdstRI(armenc.WithUp(armenc.OpLDR), reg, regLP, uint32(off)))
}

// compareImmediate compares rn against imm, picking a direct CMP, a CMN of
// the negated immediate, or a materialized-constant CMP.
func (a *Assembler) compareImmediate(rn int, imm int32) error {
	switch {
	case imm >= 0 && imm < 256:
		return a.write(armenc.CmpI(armenc.OpCMP, rn, uint32(imm)))
	case imm < 0 && imm > -256:
		return a.write(armenc.CmpI(armenc.OpCMN, rn, uint32(-imm)))
	default:
		rm, err := a.materializeConst(imm)
		if err != nil {
			return err
		}
		return a.write(armenc.CmpR(armenc.OpCMP, rn, rm))
	}
}

// armSigned encodes "rd := rn opPos imm", substituting opNeg on the negated
// immediate when opPos's immediate range doesn't fit and opNeg is supplied
// (the zero Opcode means "no such fallback", matching arith_immed's NULLOP).
func (a *Assembler) armSigned(opPos, opNeg armenc.Opcode, rd, rn int, imm int32) error {
	switch {
	case imm >= 0 && imm < 256:
		return a.write(armenc.RRI(opPos, rd, rn, uint32(imm)))
	case opNeg.Mnemonic != "" && imm < 0 && imm > -256:
		return a.write(armenc.RRI(opNeg, rd, rn, uint32(-imm)))
	default:
		rm, err := a.materializeConst(imm)
		if err != nil {
			return err
		}
		return a.write(armenc.RRR(opPos, rd, rn, rm))
	}
}

// armImmed is armSigned with no negated-immediate fallback, for opcodes
// with no natural complementary form (AND/ORR/EOR).
func (a *Assembler) armImmed(op armenc.Opcode, rd, rn int, imm int32) error {
	return a.armSigned(op, armenc.Opcode{}, rd, rn, imm)
}

// addImmediate is add_immed: ADD with a SUB fallback on small negatives.
func (a *Assembler) addImmediate(rd, rn int, imm int32) error {
	return a.armSigned(armenc.OpADD, armenc.OpSUB, rd, rn, imm)
}

// booleanFromCondition materializes a 0/1 boolean into rd: unconditional
// MOV rd,#0 followed by a conditional MOV rd,#1 under condOp. Kept as two
// instructions rather than collapsed into a conditional select, since this
// ARM subset has no integer select instruction (faithful to boolcond).
func (a *Assembler) booleanFromCondition(condOp armenc.Opcode, rd int) error {
	if err := a.write(armenc.RI(armenc.OpMOV, rd, 0)); err != nil {
		return err
	}
	return a.write(armenc.RI(condOp, rd, 1))
}

// loadStoreWord is load_store: LDR/STR and LDRB/STRB addressing, 12-bit
// immediate range, falling back to a register-offset form for anything
// wider.
func (a *Assembler) loadStoreWord(op armenc.Opcode, ra, rb int, c int32) error {
	if rb == noReg {
		rc, err := a.materializeConst(c)
		if err != nil {
			return err
		}
		return a.write(armenc.LdstRI(armenc.WithUp(op), ra, rc, 0))
	}
	switch {
	case c >= 0 && c < 4096:
		return a.write(armenc.LdstRI(armenc.WithUp(op), ra, rb, uint32(c)))
	case c < 0 && c > -4096:
		return a.write(armenc.LdstRI(op, ra, rb, uint32(-c)))
	default:
		rc, err := a.materializeConst(c)
		if err != nil {
			return err
		}
		return a.write(armenc.LdstRR(op, ra, rb, rc))
	}
}

// loadStoreSub is load_store_x: the indexed addressing used by halfword
// and signed-byte loads/stores, 8-bit immediate range.
func (a *Assembler) loadStoreSub(op armenc.Opcode, ra, rb int, c int32) error {
	if rb == noReg {
		rc, err := a.materializeConst(c)
		if err != nil {
			return err
		}
		return a.write(armenc.LdstxRI(armenc.WithUp(op), ra, rc, 0))
	}
	switch {
	case c >= 0 && c < 255:
		return a.write(armenc.LdstxRI(armenc.WithUp(op), ra, rb, uint32(c)))
	case c < 0 && c > -255:
		return a.write(armenc.LdstxRI(op, ra, rb, uint32(-c)))
	default:
		rc, err := a.materializeConst(c)
		if err != nil {
			return err
		}
		return a.write(armenc.LdstxRR(op, ra, rb, rc))
	}
}

// loadStoreFloat is load_store_f: a single-precision VFP load/store with a
// *4-scaled 8-bit immediate range (1024 bytes), falling back through IP
// when the offset doesn't fit. c must be a multiple of 4.
func (a *Assembler) loadStoreFloat(op armenc.Opcode, ra, rb int, c int32) error {
	if rb == noReg {
		rc, err := a.materializeConst(c)
		if err != nil {
			return err
		}
		return a.write(armenc.LdstF(armenc.WithUp(op), ra, rc, 0))
	}
	switch {
	case c >= 0 && c < 1024:
		return a.write(armenc.LdstF(armenc.WithUp(op), ra, rb, uint32(c/4)))
	case c < 0 && c > -1024:
		return a.write(armenc.LdstF(op, ra, rb, uint32(-c/4)))
	default:
		if err := a.addImmediate(regIP, rb, c); err != nil {
			return err
		}
		return a.write(armenc.LdstF(armenc.WithUp(op), ra, regIP, 0))
	}
}

// loadStoreDouble is load_store_d: two word-sized VFP accesses, avoiding
// any assumption of 8-byte alignment on the target.
func (a *Assembler) loadStoreDouble(op armenc.Opcode, ra, rb int, c int32) error {
	if rb == noReg {
		rc, err := a.materializeConst(c)
		if err != nil {
			return err
		}
		if err := a.write(armenc.LdstF(armenc.WithUp(op), ra, rc, 0)); err != nil {
			return err
		}
		return a.write(armenc.LdstF(armenc.WithOddHalf(armenc.WithUp(op)), ra, rc, 1))
	}
	if err := a.loadStoreFloat(op, ra, rb, c); err != nil {
		return err
	}
	return a.loadStoreFloat(armenc.WithOddHalf(op), ra, rb, c+4)
}

func moveReg(a *Assembler, ra, rb int) error {
	if ra == rb {
		return nil
	}
	return a.write(armenc.RR(armenc.OpMOV, ra, rb))
}
