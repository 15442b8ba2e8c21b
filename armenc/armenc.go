// Package armenc emits raw ARMv7-A (+VFP) instruction words for the fixed
// set of shapes the virtual-op dispatcher needs: register-register-register
// and register-register-immediate ALU forms, shifts, compares, loads and
// stores (word/byte/halfword/float/double, each with immediate or register
// offset), branches, multiply, multi-register push/pop, and the VFP integer
// conversions and flag transfer.
//
// Every primitive takes already-validated physical register numbers,
// immediates and shift amounts -- it does not re-range-check them, that is
// the dispatcher's job (see vmasm). Each returns the raw instruction word
// together with its mnemonic, bundled in an Instr, so the mnemonic is
// unconditionally available to any caller that wants to print a
// disassembly.
package armenc

// Instr is one emitted instruction: its encoded word and the mnemonic that
// produced it. Go has no separate debug/release build, so the mnemonic is
// always present (Design Notes #9) -- whether anything is done with it is
// entirely up to the caller.
type Instr struct {
	Word    uint32
	Mnemonic string
}

// Opcode is a tagged ARM opcode: a fixed set of condition/operation bits
// plus the mnemonic they decode to.
type Opcode struct {
	Mnemonic string
	Bits     uint32
}

// Condition codes (ARM condition field, bits 31-28).
const (
	CondEQ = 0
	CondNE = 1
	CondHS = 2
	CondLO = 3
	CondMI = 4
	CondPL = 5
	CondVS = 6
	CondVC = 7
	CondHI = 8
	CondLS = 9
	CondGE = 10
	CondLT = 11
	CondGT = 12
	CondLE = 13
	CondAL = 14
)

// ALU opcode field values (bits 24-21 once shifted).
const (
	aluAND = 0
	aluEOR = 2
	aluSUB = 4
	aluRSB = 6
	aluADD = 8
	aluADC = 10
	aluSBC = 12
	aluRSC = 14
	aluTST = 16
	aluTEQ = 18
	aluCMP = 21
	aluCMN = 23
	aluORR = 24
	aluMOV = 26
	aluBIC = 28
	aluMVN = 30
)

// Coprocessor numbers selecting VFP single vs double precision.
const (
	cpSGL = 10
	cpDBL = 11
)

// opcode builds the common cond|op|op2|op3|cp instruction skeleton shared
// by the data-processing-style encoders below.
func opcode(cond, op, op2, op3, cp uint32) uint32 {
	return cond<<28 | op<<20 | op2<<4 | op3<<16 | cp<<8
}

func opn(op uint32) uint32             { return opcode(CondAL, op, 0, 0, 0) }
func opn2(op, op2 uint32) uint32       { return opcode(CondAL, op, op2, 0, 0) }
func opn3(op, op2, op3 uint32) uint32  { return opcode(CondAL, op, op2, op3, 0) }
func opnc(cond, op uint32) uint32      { return opcode(cond, op, 0, 0, 0) }
func opf(op, cp uint32) uint32         { return opcode(CondAL, op, 0, 0, cp) }
func opf2(op, op2, cp uint32) uint32   { return opcode(CondAL, op, op2, 0, cp) }
func opf3(op, op2, op3, cp uint32) uint32 { return opcode(CondAL, op, op2, op3, cp) }

// Arithmetic/logical opcodes (condition always AL; conditional execution in
// this instruction set is only used for compares, branches, and the
// conditional MOV that materializes a boolean -- see OpMOVEQ and friends
// below).
var (
	OpADD = Opcode{"add", opn(aluADD)}
	OpADC = Opcode{"adc", opn(aluADC)}
	OpSUB = Opcode{"sub", opn(aluSUB)}
	OpSBC = Opcode{"sbc", opn(aluSBC)}
	OpRSB = Opcode{"rsb", opn(aluRSB)}
	OpAND = Opcode{"and", opn(aluAND)}
	OpORR = Opcode{"orr", opn(aluORR)}
	OpEOR = Opcode{"eor", opn(aluEOR)}
	OpBIC = Opcode{"bic", opn(aluBIC)}
	OpMOV = Opcode{"mov", opn(aluMOV)}
	OpMVN = Opcode{"mvn", opn(aluMVN)}
	OpCMP = Opcode{"cmp", opn(aluCMP)}
	OpCMN = Opcode{"cmn", opn(aluCMN)}

	// Shifts are encoded as MOV with a shift-type tag in bits 6-5.
	OpLSL = Opcode{"lsl", opn2(aluMOV, 0x0)}
	OpLSR = Opcode{"lsr", opn2(aluMOV, 0x2)}
	OpASR = Opcode{"asr", opn2(aluMOV, 0x4)}
	OpROR = Opcode{"ror", opn2(aluMOV, 0x6)}
)

// Conditional MOV opcodes, used by vmasm's booleanFromCondition (after an
// unconditional MOV #0) to materialize a 0/1 boolean result.
var (
	OpMOVEQ = Opcode{"moveq", opnc(CondEQ, aluMOV)}
	OpMOVNE = Opcode{"movne", opnc(CondNE, aluMOV)}
	OpMOVHS = Opcode{"movhs", opnc(CondHS, aluMOV)}
	OpMOVLO = Opcode{"movlo", opnc(CondLO, aluMOV)}
	OpMOVGE = Opcode{"movge", opnc(CondGE, aluMOV)}
	OpMOVLT = Opcode{"movlt", opnc(CondLT, aluMOV)}
	OpMOVGT = Opcode{"movgt", opnc(CondGT, aluMOV)}
	OpMOVLE = Opcode{"movle", opnc(CondLE, aluMOV)}
	OpMOVHI = Opcode{"movhi", opnc(CondHI, aluMOV)}
	OpMOVLS = Opcode{"movls", opnc(CondLS, aluMOV)}
)

// Branch opcodes, one per condition.
var (
	OpB    = Opcode{"b", opnc(CondAL, 0xa0)}
	OpBEQ  = Opcode{"beq", opnc(CondEQ, 0xa0)}
	OpBNE  = Opcode{"bne", opnc(CondNE, 0xa0)}
	OpBHS  = Opcode{"bhs", opnc(CondHS, 0xa0)}
	OpBLO  = Opcode{"blo", opnc(CondLO, 0xa0)}
	OpBGE  = Opcode{"bge", opnc(CondGE, 0xa0)}
	OpBLT  = Opcode{"blt", opnc(CondLT, 0xa0)}
	OpBGT  = Opcode{"bgt", opnc(CondGT, 0xa0)}
	OpBLE  = Opcode{"ble", opnc(CondLE, 0xa0)}
	OpBHI  = Opcode{"bhi", opnc(CondHI, 0xa0)}
	OpBLS  = Opcode{"bls", opnc(CondLS, 0xa0)}
	OpBX   = Opcode{"bx", opn2(0x12, 0x1)}
	OpBLX  = Opcode{"blx", opn2(0x12, 0x3)}
)

// Load/store opcodes (word and unsigned byte use the immediate/register
// "LDR-family" encoding; halfword/signed-byte use the indexed encoding).
var (
	OpLDR  = Opcode{"ldr", opn(0x51)}
	OpSTR  = Opcode{"str", opn(0x50)}
	OpLDRB = Opcode{"ldrb", opn(0x55)}
	OpSTRB = Opcode{"strb", opn(0x54)}
	OpLDRH = Opcode{"ldrh", opn2(0x11, 0xb)}
	OpSTRH = Opcode{"strh", opn2(0x10, 0xb)}
	OpLDSB = Opcode{"ldsb", opn2(0x11, 0xd)}
	OpLDSH = Opcode{"ldsh", opn2(0x11, 0xf)}
)

// Multi-register transfer opcodes used by the prologue/epilogue.
var (
	OpSTMFDw = Opcode{"stmfd!", opn(0x92)}
	OpLDMFD  = Opcode{"ldmfd", opn(0x89)}
)

// Multiply opcode.
var OpMUL = Opcode{"mul", opn2(0x00, 0x9)}

// VFP opcodes (single and double precision).
var (
	OpFADDS = Opcode{"fadds", opf2(0xe3, 0x0, cpSGL)}
	OpFADDD = Opcode{"faddd", opf2(0xe3, 0x0, cpDBL)}
	OpFSUBS = Opcode{"fsubs", opf2(0xe3, 0x4, cpSGL)}
	OpFSUBD = Opcode{"fsubd", opf2(0xe3, 0x4, cpDBL)}
	OpFMULS = Opcode{"fmuls", opf(0xe2, cpSGL)}
	OpFMULD = Opcode{"fmuld", opf(0xe2, cpDBL)}
	OpFDIVS = Opcode{"fdivs", opf(0xe8, cpSGL)}
	OpFDIVD = Opcode{"fdivd", opf(0xe8, cpDBL)}
	OpFNEGS = Opcode{"fnegs", opf3(0xeb, 0x4, 0x1, cpSGL)}
	OpFNEGD = Opcode{"fnegd", opf3(0xeb, 0x4, 0x1, cpDBL)}
	OpFMOVD = Opcode{"fmovd", opf3(0xeb, 0x4, 0, cpDBL)}
	OpFCMPS = Opcode{"fcmps", opf3(0xeb, 0x4, 0x4, cpSGL)}
	OpFCMPD = Opcode{"fcmpd", opf3(0xeb, 0x4, 0x4, cpDBL)}
	OpFMSTAT = Opcode{"fmstat", opf3(0xef, 0x1, 0x1, cpSGL)}
	OpFCVTDS = Opcode{"fcvtds", opf3(0xeb, 0xc, 0x7, cpSGL)}
	OpFCVTSD = Opcode{"fcvtsd", opf3(0xeb, 0xc, 0x7, cpDBL)}
	OpFSITOS = Opcode{"fsitos", opf3(0xeb, 0xc, 0x8, cpSGL)}
	OpFSITOD = Opcode{"fsitod", opf3(0xeb, 0xc, 0x8, cpDBL)}
	OpFLDS   = Opcode{"flds", opf(0xd1, cpSGL)}
	OpFLDD   = Opcode{"fldd", opf(0xd1, cpDBL)}
	OpFSTS   = Opcode{"fsts", opf(0xd0, cpSGL)}
	OpFSTD   = Opcode{"fstd", opf(0xd0, cpDBL)}
	OpFMSR   = Opcode{"fmsr", opf2(0xe0, 0x1, cpSGL)}
	OpFMRS   = Opcode{"fmrs", opf2(0xe1, 0x1, cpSGL)}
)

// Byte/halfword sign/zero-extend opcodes (ARMv6+), used for CONVIC/CONVIS.
var (
	OpUXTB = Opcode{"uxtb", opn3(0x6e, 0x7, 0xf)}
	OpSXTH = Opcode{"sxth", opn3(0x6b, 0x7, 0xf)}
)

func reg(r int) uint32 { return uint32(r) & 0xf }

// instr assembles the common "op | rn<<16 | rd<<12 | imm" word shape used
// by almost every fixed-format ARM instruction.
func instr(op uint32, rd, rn, imm uint32) uint32 {
	return op | rn<<16 | rd<<12 | imm
}

func instr4(op uint32, rd, rn, rm, rs uint32) uint32 {
	return instr(op, rd, rn, rm|rs<<8)
}

const immedBit = 0x20 << 20 // I bit: operand2 is an 8-bit rotated immediate
const rshiftBit = 1 << 4    // bit 4: shift amount taken from a register

func immed8(imm uint32) uint32    { return imm & 0xff }
func shiftImm5(c uint32) uint32   { return (c & 0x1f) << 7 }
func imm12(imm uint32) uint32     { return imm & 0xfff }

// RRR encodes "rd := rn op rm".
func RRR(op Opcode, rd, rn, rm int) Instr {
	return Instr{instr(op.Bits, reg(rd), reg(rn), reg(rm)), op.Mnemonic}
}

// Mul encodes "rd := rm * rs" (MUL puts its destination in the Rn field).
func Mul(rd, rm, rs int) Instr {
	return Instr{instr4(OpMUL.Bits, 0, reg(rd), reg(rm), reg(rs)), OpMUL.Mnemonic}
}

// RRI encodes "rd := rn op imm" with an 8-bit immediate (0..255).
func RRI(op Opcode, rd, rn int, imm uint32) Instr {
	return Instr{instr(op.Bits|immedBit, reg(rd), reg(rn), immed8(imm)), op.Mnemonic}
}

// ShiftReg encodes "rd := rm shiftOp rs" (shift amount in a register).
func ShiftReg(shiftOp Opcode, rd, rm, rs int) Instr {
	return Instr{instr4(shiftOp.Bits|rshiftBit, reg(rd), 0, reg(rm), reg(rs)), shiftOp.Mnemonic}
}

// ShiftImm encodes "rd := rm shiftOp #c" (shift amount is a 5-bit constant).
func ShiftImm(shiftOp Opcode, rd, rm int, c uint32) Instr {
	return Instr{instr(shiftOp.Bits, reg(rd), 0, reg(rm)|shiftImm5(c)), shiftOp.Mnemonic}
}

// RR encodes "rd := op rm" (MOV/MVN with no further shift, or NEG via RSB#0).
func RR(op Opcode, rd, rm int) Instr {
	return Instr{instr(op.Bits, reg(rd), 0, reg(rm)), op.Mnemonic}
}

// CmpR encodes "op rn, rm" (CMP/CMN with a register operand).
func CmpR(op Opcode, rn, rm int) Instr {
	return Instr{instr(op.Bits, 0, reg(rn), reg(rm)), op.Mnemonic}
}

// CmpI encodes "op rn, #imm" (CMP/CMN with an 8-bit immediate).
func CmpI(op Opcode, rn int, imm uint32) Instr {
	return Instr{instr(op.Bits|immedBit, 0, reg(rn), immed8(imm)), op.Mnemonic}
}

// RI encodes "rd := op #imm" (MOV/MVN with an 8-bit immediate).
func RI(op Opcode, rd int, imm uint32) Instr {
	return Instr{instr(op.Bits|immedBit, reg(rd), 0, immed8(imm)), op.Mnemonic}
}

// ubitShift is the bit that selects "add the offset" (vs. subtract) in
// load/store addressing.
const ubitShift = 0x08 << 20

// dbitShift selects the odd-numbered half of a double-register VFP access.
const dbitShift = 0x04 << 20

// WithUp ORs in the "add offset" bit for a load/store opcode's bits.
func WithUp(op Opcode) Opcode { return Opcode{op.Mnemonic, op.Bits | ubitShift} }

// WithOddHalf ORs in the bit selecting the odd half of a double register.
func WithOddHalf(op Opcode) Opcode { return Opcode{op.Mnemonic, op.Bits | dbitShift} }

// LdstRI encodes "rd :=: mem[rn +/- #off]" for word/byte loads and stores;
// the direction is already baked into op via WithUp.
func LdstRI(op Opcode, rd, rn int, off uint32) Instr {
	return Instr{instr(op.Bits, reg(rd), reg(rn), imm12(off)), op.Mnemonic}
}

const rrBit = 0x20 << 20 // register (not immediate) offset

// LdstRR encodes "rd :=: mem[rn + rm]" (word/byte, register offset, always add).
func LdstRR(op Opcode, rd, rn, rm int) Instr {
	return Instr{instr(op.Bits|rrBit|ubitShift, reg(rd), reg(rn), reg(rm)), op.Mnemonic}
}

const iBit = 0x04 << 20 // indexed (halfword/signed-byte) addressing selector

func offx(n uint32) uint32 { return ((n & 0xf0) << 4) | (n & 0xf) }

// LdstxRI encodes the indexed addressing form used by halfword and
// signed-byte loads/stores, immediate offset (direction baked into op).
func LdstxRI(op Opcode, rd, rn int, off uint32) Instr {
	return Instr{instr(op.Bits|iBit, reg(rd), reg(rn), offx(off)), op.Mnemonic}
}

// LdstxRR encodes the indexed addressing form, register offset, always add.
func LdstxRR(op Opcode, rd, rn, rm int) Instr {
	return Instr{instr(op.Bits|ubitShift, reg(rd), reg(rn), reg(rm)), op.Mnemonic}
}

// Ldstm encodes a multi-register load/store with the given opcode (already
// carrying P/U/W bits), base register, and 16-bit register bitmap.
func Ldstm(op Opcode, rn int, bits uint32) Instr {
	return Instr{instr(op.Bits, 0, reg(rn), bits&0xffff), op.Mnemonic}
}

// Bit returns the bitmap bit for physical register r, for building Ldstm's
// register-set argument.
func Bit(r int) uint32 { return 1 << uint(r) }

// RangeBits returns the bitmap for the inclusive physical register range
// [a,b], e.g. for the callee-saved V0..V5 span.
func RangeBits(a, b int) uint32 {
	return (uint32(1)<<uint(b+1) - 1) &^ (uint32(1)<<uint(a) - 1)
}

// BranchImm encodes a branch with a 24-bit word-granularity displacement
// already computed by the caller (see label.Patch for how it's derived).
// The placeholder value 0 is used when the target isn't known yet.
func BranchImm(op Opcode, wordOffset int32) Instr {
	return Instr{instr(op.Bits, 0, 0, uint32(wordOffset)&0xffffff), op.Mnemonic}
}

// JumpReg encodes BX/BLX rm.
func JumpReg(op Opcode, rm int) Instr {
	return Instr{instr4(op.Bits, 0xf, 0xf, reg(rm), 0xf), op.Mnemonic}
}

// Fmstat encodes FMSTAT, copying VFP comparison flags into the integer CPSR.
func Fmstat() Instr {
	return Instr{instr(OpFMSTAT.Bits, 0xf, 0, 0), OpFMSTAT.Mnemonic}
}

// Fmsr encodes a move from integer register rd into single-precision VFP
// register rn (int -> float bit pattern, no conversion).
func Fmsr(rn, rd int) Instr {
	return Instr{instr(OpFMSR.Bits, reg(rd), reg(rn), 0), OpFMSR.Mnemonic}
}

// Fmrs encodes a move from single-precision VFP register rn into integer
// register rd (float -> int bit pattern, no conversion).
func Fmrs(rd, rn int) Instr {
	return Instr{instr(OpFMRS.Bits, reg(rd), reg(rn), 0), OpFMRS.Mnemonic}
}

// LdstF encodes a VFP single/double load or store with a scaled (*4)
// immediate offset; op already carries up/down and odd-half bits.
func LdstF(op Opcode, rd, rn int, off uint32) Instr {
	return Instr{instr(op.Bits, reg(rd), reg(rn), immed8(off)), op.Mnemonic}
}
