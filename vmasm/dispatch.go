package vmasm

import (
	"fmt"

	"github.com/Spivoxity/thunder/armenc"
	"github.com/Spivoxity/thunder/label"
	"github.com/Spivoxity/thunder/vmop"
	"github.com/Spivoxity/thunder/vreg"
)

// Each Gen* method below is an exhaustive switch over one vmop.Arity
// family. An opcode that doesn't belong to the arity it was dispatched
// through returns *ErrUnknownOp rather than exiting the process.

// Gen0 emits a zero-operand virtual instruction (RET).
func (a *Assembler) Gen0(op vmop.Op) error {
	if !a.open {
		return ErrNoProcedure
	}
	switch op {
	case vmop.RET:
		pushSet := armenc.RangeBits(4, 10) | armenc.Bit(regFP) | armenc.Bit(regSP) | armenc.Bit(regPC)
		return genErr(op, a.write(armenc.Ldstm(armenc.OpLDMFD, regFP, pushSet)))
	default:
		return &ErrUnknownOp{op, vmop.Arity0}
	}
}

// Gen1Reg emits a one-register virtual instruction (JUMP reg, CALL reg,
// ARG reg, ZEROF/ZEROD reg).
func (a *Assembler) Gen1Reg(op vmop.Op, ra vreg.Register) error {
	if !a.open {
		return ErrNoProcedure
	}
	r := phys(ra)
	switch op {
	case vmop.JUMPReg:
		return genErr(op, a.write(armenc.JumpReg(armenc.OpBX, r)), ra.Name)
	case vmop.CALL:
		if a.argp != 0 {
			return genErr(op, ErrPendingArgs, ra.Name)
		}
		return genErr(op, a.write(armenc.JumpReg(armenc.OpBLX, r)), ra.Name)
	case vmop.ARG:
		a.argp--
		return genErr(op, moveReg(a, a.argp, r), ra.Name)
	case vmop.ZEROF:
		return genErr(op, a.loadReg(r, true, 0), ra.Name)
	case vmop.ZEROD:
		if err := a.loadReg(r, true, 0); err != nil {
			return genErr(op, err, ra.Name)
		}
		return genErr(op, a.write(armenc.RR(armenc.OpFCVTDS, r, r)), ra.Name)
	default:
		return &ErrUnknownOp{op, vmop.Arity1Reg}
	}
}

// Gen1Imm emits a one-immediate virtual instruction (PREP imm, CALL imm as
// an entry-address literal).
func (a *Assembler) Gen1Imm(op vmop.Op, val int32) error {
	if !a.open {
		return ErrNoProcedure
	}
	switch op {
	case vmop.CALLImm:
		if a.argp != 0 {
			return genErr(op, ErrPendingArgs)
		}
		rc, err := a.materializeConst(val)
		if err != nil {
			return genErr(op, err)
		}
		return genErr(op, a.write(armenc.JumpReg(armenc.OpBLX, rc)))
	case vmop.PREP:
		if val < 0 || val > 3 {
			return genErr(op, ErrTooManyArgs, fmt.Sprint(val))
		}
		a.argp = int(val)
		return nil
	default:
		return &ErrUnknownOp{op, vmop.Arity1Imm}
	}
}

// Gen1Label emits JUMP label, an unconditional branch to lab.
func (a *Assembler) Gen1Label(op vmop.Op, lab *label.Label) error {
	if !a.open {
		return ErrNoProcedure
	}
	switch op {
	case vmop.JUMP:
		return genErr(op, a.emitBranch(armenc.OpB, lab))
	default:
		return &ErrUnknownOp{op, vmop.Arity1Label}
	}
}

// Gen2RegReg emits a two-register virtual instruction (MOV, NEG, NOT,
// NEGF/NEGD, the CONV family).
func (a *Assembler) Gen2RegReg(op vmop.Op, ra, rb vreg.Register) error {
	if !a.open {
		return ErrNoProcedure
	}
	dst, src := phys(ra), phys(rb)
	switch op {
	case vmop.MOV:
		switch {
		case ra.IsFloat() && rb.IsFloat():
			return genErr(op, a.write(armenc.RR(armenc.OpFMOVD, dst, src)))
		case ra.IsFloat():
			return genErr(op, a.write(armenc.Fmsr(src, dst)))
		case rb.IsFloat():
			return genErr(op, a.write(armenc.Fmrs(dst, src)))
		default:
			return genErr(op, moveReg(a, dst, src))
		}
	case vmop.NEG:
		return genErr(op, a.armImmed(armenc.OpRSB, dst, src, 0))
	case vmop.NOT:
		return genErr(op, a.write(armenc.RR(armenc.OpMVN, dst, src)))
	case vmop.NEGF:
		return genErr(op, a.write(armenc.RR(armenc.OpFNEGS, dst, src)))
	case vmop.NEGD:
		return genErr(op, a.write(armenc.RR(armenc.OpFNEGD, dst, src)))
	case vmop.CONVIF:
		if err := a.write(armenc.Fmsr(src, dst)); err != nil {
			return genErr(op, err)
		}
		return genErr(op, a.write(armenc.RR(armenc.OpFSITOS, dst, dst)))
	case vmop.CONVID:
		if err := a.write(armenc.Fmsr(src, dst)); err != nil {
			return genErr(op, err)
		}
		return genErr(op, a.write(armenc.RR(armenc.OpFSITOD, dst, dst)))
	case vmop.CONVIC:
		return genErr(op, a.write(armenc.RR(armenc.OpUXTB, dst, src)))
	case vmop.CONVIS:
		return genErr(op, a.write(armenc.RR(armenc.OpSXTH, dst, src)))
	case vmop.CONVFD:
		return genErr(op, a.write(armenc.RR(armenc.OpFCVTDS, dst, src)))
	case vmop.CONVDF:
		return genErr(op, a.write(armenc.RR(armenc.OpFCVTSD, dst, src)))
	default:
		return &ErrUnknownOp{op, vmop.Arity2RegReg}
	}
}

// Gen2RegImm emits a register/immediate virtual instruction (MOV, GETARG,
// LDKW).
func (a *Assembler) Gen2RegImm(op vmop.Op, ra vreg.Register, b int32) error {
	if !a.open {
		return ErrNoProcedure
	}
	dst := phys(ra)
	switch op {
	case vmop.MOV:
		return genErr(op, a.moveImmediate(dst, b))
	case vmop.GETARG:
		return genErr(op, moveReg(a, dst, int(b)))
	case vmop.LDKW:
		if ra.IsFloat() {
			return genErr(op, a.loadReg(dst, true, uint32(b)))
		}
		return genErr(op, a.moveImmediate(dst, b))
	default:
		return &ErrUnknownOp{op, vmop.Arity2RegImm}
	}
}

// boolCondInt/boolCondFloat map a comparison mnemonic to the conditional
// MOV opcode used to materialize its boolean result (float/double share
// the unsigned condition codes since VFP sets flags unsigned-style).
var boolCondInt = map[string]armenc.Opcode{
	"EQ": armenc.OpMOVEQ, "NEQ": armenc.OpMOVNE,
	"LT": armenc.OpMOVLT, "LEQ": armenc.OpMOVLE,
	"GT": armenc.OpMOVGT, "GEQ": armenc.OpMOVGE,
	"LTU": armenc.OpMOVLO, "GEQU": armenc.OpMOVHS,
	"GTU": armenc.OpMOVHI, "LEQU": armenc.OpMOVLS,
}

var boolCondFloat = map[string]armenc.Opcode{
	"EQF": armenc.OpMOVEQ, "NEQF": armenc.OpMOVNE,
	"LTF": armenc.OpMOVLO, "LEQF": armenc.OpMOVLS,
	"GTF": armenc.OpMOVHI, "GEQF": armenc.OpMOVHS,
	"EQD": armenc.OpMOVEQ, "NEQD": armenc.OpMOVNE,
	"LTD": armenc.OpMOVLO, "LEQD": armenc.OpMOVLS,
	"GTD": armenc.OpMOVHI, "GEQD": armenc.OpMOVHS,
}

// branchCondInt/branchCondFloat map a branch mnemonic to the branch
// opcode used for the comparison's condition (int and float/double forms).
var branchCondInt = map[string]armenc.Opcode{
	"BEQ": armenc.OpBEQ, "BNEQ": armenc.OpBNE,
	"BLT": armenc.OpBLT, "BLEQ": armenc.OpBLE,
	"BGT": armenc.OpBGT, "BGEQ": armenc.OpBGE,
	"BLTU": armenc.OpBLO, "BGEQU": armenc.OpBHS,
	"BGTU": armenc.OpBHI, "BLEQU": armenc.OpBLS,
}

var branchCondFloat = map[string]armenc.Opcode{
	"BEQF": armenc.OpBEQ, "BNEQF": armenc.OpBNE,
	"BLTF": armenc.OpBLO, "BLEQF": armenc.OpBLS,
	"BGTF": armenc.OpBHI, "BGEQF": armenc.OpBHS,
	"BEQD": armenc.OpBEQ, "BNEQD": armenc.OpBNE,
	"BLTD": armenc.OpBLO, "BLEQD": armenc.OpBLS,
	"BGTD": armenc.OpBHI, "BGEQD": armenc.OpBHS,
}

// encodeIntArith3 covers the Gen3RegRegReg ops that lower to one fixed
// instruction sequence each (ALU, shift, multiply, and the float/double
// arithmetic ops); it reports false for any other op.
func encodeIntArith3(a *Assembler, op vmop.Op, dst, rb, rc int) (bool, error) {
	switch op {
	case vmop.ADD:
		return true, a.write(armenc.RRR(armenc.OpADD, dst, rb, rc))
	case vmop.AND:
		return true, a.write(armenc.RRR(armenc.OpAND, dst, rb, rc))
	case vmop.XOR:
		return true, a.write(armenc.RRR(armenc.OpEOR, dst, rb, rc))
	case vmop.OR:
		return true, a.write(armenc.RRR(armenc.OpORR, dst, rb, rc))
	case vmop.SUB:
		return true, a.write(armenc.RRR(armenc.OpSUB, dst, rb, rc))
	case vmop.MUL:
		return true, a.write(armenc.Mul(dst, rb, rc))
	case vmop.LSH:
		return true, a.write(armenc.ShiftReg(armenc.OpLSL, dst, rb, rc))
	case vmop.RSH:
		return true, a.write(armenc.ShiftReg(armenc.OpASR, dst, rb, rc))
	case vmop.RSHU:
		return true, a.write(armenc.ShiftReg(armenc.OpLSR, dst, rb, rc))
	case vmop.ROR:
		return true, a.write(armenc.ShiftReg(armenc.OpROR, dst, rb, rc))
	case vmop.ADDF:
		return true, a.write(armenc.RRR(armenc.OpFADDS, dst, rb, rc))
	case vmop.SUBF:
		return true, a.write(armenc.RRR(armenc.OpFSUBS, dst, rb, rc))
	case vmop.MULF:
		return true, a.write(armenc.RRR(armenc.OpFMULS, dst, rb, rc))
	case vmop.DIVF:
		return true, a.write(armenc.RRR(armenc.OpFDIVS, dst, rb, rc))
	case vmop.ADDD:
		return true, a.write(armenc.RRR(armenc.OpFADDD, dst, rb, rc))
	case vmop.SUBD:
		return true, a.write(armenc.RRR(armenc.OpFSUBD, dst, rb, rc))
	case vmop.MULD:
		return true, a.write(armenc.RRR(armenc.OpFMULD, dst, rb, rc))
	case vmop.DIVD:
		return true, a.write(armenc.RRR(armenc.OpFDIVD, dst, rb, rc))
	}
	return false, nil
}

// Gen3RegRegReg emits a three-register virtual instruction: integer and
// float/double arithmetic, shifts, and register-register comparisons
// materialized as a boolean.
func (a *Assembler) Gen3RegRegReg(op vmop.Op, ra, rb, rc vreg.Register) error {
	if !a.open {
		return ErrNoProcedure
	}
	dst, b, c := phys(ra), phys(rb), phys(rc)

	if ok, err := encodeIntArith3(a, op, dst, b, c); ok {
		return genErr(op, err)
	}

	if cond, ok := boolCondInt[op.Mnemonic]; ok {
		if err := a.write(armenc.CmpR(armenc.OpCMP, b, c)); err != nil {
			return genErr(op, err)
		}
		return genErr(op, a.booleanFromCondition(cond, dst))
	}
	if cond, ok := boolCondFloat[op.Mnemonic]; ok {
		cmp := armenc.OpFCMPS
		if op.Mnemonic[len(op.Mnemonic)-1] == 'D' {
			cmp = armenc.OpFCMPD
		}
		if err := a.write(armenc.RR(cmp, b, c)); err != nil {
			return genErr(op, err)
		}
		if err := a.write(armenc.Fmstat()); err != nil {
			return genErr(op, err)
		}
		return genErr(op, a.booleanFromCondition(cond, dst))
	}
	return &ErrUnknownOp{op, vmop.Arity3RegRegReg}
}

// Gen3RegRegImm emits a register/register/immediate virtual instruction:
// integer arithmetic-with-immediate, shifts-by-constant, loads and stores,
// and register/immediate comparisons materialized as a boolean.
func (a *Assembler) Gen3RegRegImm(op vmop.Op, ra, rb vreg.Register, c int32) error {
	if !a.open {
		return ErrNoProcedure
	}
	dst, b := phys(ra), phys(rb)

	switch op {
	case vmop.ADDImm:
		return genErr(op, a.addImmediate(dst, b, c))
	case vmop.SUBImm:
		return genErr(op, a.armSigned(armenc.OpSUB, armenc.OpADD, dst, b, c))
	case vmop.ANDImm:
		return genErr(op, a.armImmed(armenc.OpAND, dst, b, c))
	case vmop.ORImm:
		return genErr(op, a.armImmed(armenc.OpORR, dst, b, c))
	case vmop.XORImm:
		return genErr(op, a.armImmed(armenc.OpEOR, dst, b, c))
	case vmop.MULImm:
		rc, err := a.materializeConst(c)
		if err != nil {
			return genErr(op, err)
		}
		return genErr(op, a.write(armenc.Mul(dst, b, rc)))
	case vmop.LSHImm:
		return genErr(op, a.write(armenc.ShiftImm(armenc.OpLSL, dst, b, uint32(c))))
	case vmop.RSHImm:
		return genErr(op, a.write(armenc.ShiftImm(armenc.OpASR, dst, b, uint32(c))))
	case vmop.RSHUImm:
		return genErr(op, a.write(armenc.ShiftImm(armenc.OpLSR, dst, b, uint32(c))))
	case vmop.RORImm:
		return genErr(op, a.write(armenc.ShiftImm(armenc.OpROR, dst, b, uint32(c))))

	case vmop.LDW:
		if !ra.IsFloat() {
			return genErr(op, a.loadStoreWord(armenc.OpLDR, dst, b, c))
		}
		return genErr(op, a.loadStoreFloat(armenc.OpFLDS, dst, b, c))
	case vmop.STW:
		if !ra.IsFloat() {
			return genErr(op, a.loadStoreWord(armenc.OpSTR, dst, b, c))
		}
		return genErr(op, a.loadStoreFloat(armenc.OpFSTS, dst, b, c))
	case vmop.LDS:
		return genErr(op, a.loadStoreSub(armenc.OpLDSH, dst, b, c))
	case vmop.LDSU:
		return genErr(op, a.loadStoreSub(armenc.OpLDRH, dst, b, c))
	case vmop.STS:
		return genErr(op, a.loadStoreSub(armenc.OpSTRH, dst, b, c))
	case vmop.LDC:
		return genErr(op, a.loadStoreSub(armenc.OpLDSB, dst, b, c))
	case vmop.LDCU:
		return genErr(op, a.loadStoreWord(armenc.OpLDRB, dst, b, c))
	case vmop.STC:
		return genErr(op, a.loadStoreWord(armenc.OpSTRB, dst, b, c))
	case vmop.LDD:
		return genErr(op, a.loadStoreDouble(armenc.OpFLDS, dst, b, c))
	case vmop.STD:
		return genErr(op, a.loadStoreDouble(armenc.OpFSTS, dst, b, c))
	}

	if cond, ok := boolCondInt[op.Mnemonic]; ok {
		if err := a.compareImmediate(b, c); err != nil {
			return genErr(op, err)
		}
		return genErr(op, a.booleanFromCondition(cond, dst))
	}

	return &ErrUnknownOp{op, vmop.Arity3RegRegImm}
}

// Gen3RegRegLabel emits a register/register/label conditional branch.
func (a *Assembler) Gen3RegRegLabel(op vmop.Op, ra, rb vreg.Register, lab *label.Label) error {
	if !a.open {
		return ErrNoProcedure
	}
	ra0, rb0 := phys(ra), phys(rb)

	if cond, ok := branchCondInt[op.Mnemonic]; ok {
		if err := a.write(armenc.CmpR(armenc.OpCMP, ra0, rb0)); err != nil {
			return genErr(op, err)
		}
		return genErr(op, a.emitBranch(cond, lab))
	}
	if cond, ok := branchCondFloat[op.Mnemonic]; ok {
		cmp := armenc.OpFCMPS
		if op.Mnemonic[len(op.Mnemonic)-1] == 'D' {
			cmp = armenc.OpFCMPD
		}
		if err := a.write(armenc.RR(cmp, ra0, rb0)); err != nil {
			return genErr(op, err)
		}
		if err := a.write(armenc.Fmstat()); err != nil {
			return genErr(op, err)
		}
		return genErr(op, a.emitBranch(cond, lab))
	}
	return &ErrUnknownOp{op, vmop.Arity3RegRegLabel}
}

// Gen3RegImmLabel emits a register/immediate/label conditional branch
// (integer only).
func (a *Assembler) Gen3RegImmLabel(op vmop.Op, ra vreg.Register, b int32, lab *label.Label) error {
	if !a.open {
		return ErrNoProcedure
	}
	ra0 := phys(ra)

	if cond, ok := branchCondInt[op.Mnemonic]; ok {
		if err := a.compareImmediate(ra0, b); err != nil {
			return genErr(op, err)
		}
		return genErr(op, a.emitBranch(cond, lab))
	}
	return &ErrUnknownOp{op, vmop.Arity3RegImmLabel}
}
