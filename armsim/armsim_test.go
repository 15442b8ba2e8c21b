package armsim

import (
	"encoding/binary"
	"testing"

	"github.com/Spivoxity/thunder/armenc"
)

// asm assembles a sequence of armenc instructions into a little-endian byte
// image starting at base, for Memory to serve as code.
func asm(base uint32, instrs ...armenc.Instr) *Memory {
	buf := make([]byte, len(instrs)*4)
	for i, ins := range instrs {
		binary.LittleEndian.PutUint32(buf[i*4:], ins.Word)
	}
	return NewMemory(base, buf)
}

func TestDataProcessingAddImmediate(t *testing.T) {
	// ADD R0, R0, #5
	word := armenc.RRI(armenc.OpADD, 0, 0, 5).Word
	cpu := NewCPU()
	cpu.R[0] = 10
	if err := execDataProcessing(cpu, word); err != nil {
		t.Fatal(err)
	}
	if cpu.R[0] != 15 {
		t.Errorf("R0 = %d, want 15", cpu.R[0])
	}
}

func TestDataProcessingSubSetsCarryAsNoBorrow(t *testing.T) {
	// CMP R0, #5 with R0=3: SUB borrows, so carry (no-borrow) flag clears.
	word := armenc.CmpI(armenc.OpCMP, 0, 5).Word
	cpu := NewCPU()
	cpu.R[0] = 3
	if err := execDataProcessing(cpu, word); err != nil {
		t.Fatal(err)
	}
	if cpu.CPSR.C {
		t.Error("CPSR.C = true after a borrowing SUB-based CMP, want false")
	}
	if !cpu.CPSR.N {
		t.Error("CPSR.N = false, want true (3-5 is negative)")
	}
}

func TestDataProcessingMovRegister(t *testing.T) {
	word := armenc.RR(armenc.OpMOV, 1, 2).Word
	cpu := NewCPU()
	cpu.R[2] = 0xabcd
	if err := execDataProcessing(cpu, word); err != nil {
		t.Fatal(err)
	}
	if cpu.R[1] != 0xabcd {
		t.Errorf("R1 = %#x, want 0xabcd", cpu.R[1])
	}
}

func TestConditionalMoveSkippedWhenFlagsDontMatch(t *testing.T) {
	cpu := NewCPU()
	cpu.R[5] = 99
	cpu.CPSR.Z = false // MOVEQ should not fire
	word := armenc.RR(armenc.OpMOVEQ, 1, 5).Word
	if err := step(NewMemory(0, []byte{0, 0, 0, 0}), cpu, word); err != nil {
		t.Fatal(err)
	}
	if cpu.R[1] != 0 {
		t.Errorf("R1 = %d, want 0 (MOVEQ should not execute when Z clear)", cpu.R[1])
	}
	if cpu.PC != 4 {
		t.Errorf("PC = %d, want 4 (a skipped instruction still advances PC)", cpu.PC)
	}
}

func TestMultiply(t *testing.T) {
	word := armenc.Mul(0, 4, 5).Word
	cpu := NewCPU()
	cpu.R[4], cpu.R[5] = 6, 7
	if err := execMultiply(cpu, word); err != nil {
		t.Fatal(err)
	}
	if cpu.R[0] != 42 {
		t.Errorf("R0 = %d, want 42", cpu.R[0])
	}
}

func TestBranchUnconditionalAdjustsPC(t *testing.T) {
	// B with word offset 1 at PC=0 lands at 0+8+4=12, the usual ARM "+8"
	// pipeline rule baked into BranchImm's displacement math.
	mem := asm(0, armenc.BranchImm(armenc.OpB, 1))
	cpu := NewCPU()
	cpu.R[14] = 0xdeadbeef
	if err := Run(mem, cpu, 0, 12, 10); err != nil {
		t.Fatal(err)
	}
	if cpu.PC != 12 {
		t.Errorf("PC = %#x, want 0xc", cpu.PC)
	}
}

func TestBranchAndLinkSetsLR(t *testing.T) {
	// step decodes the B/BL class straight off bit 24 (the link bit); no
	// named armenc opcode exposes BL, so set the bit directly on OpB's word.
	word := armenc.BranchImm(armenc.OpB, 0).Word | 1<<24
	cpu := NewCPU()
	cpu.PC = 0x1000
	if err := step(NewMemory(0x1000, make([]byte, 4)), cpu, word); err != nil {
		t.Fatal(err)
	}
	if cpu.R[LR] != 0x1004 {
		t.Errorf("LR = %#x, want 0x1004", cpu.R[LR])
	}
}

func TestBlockTransferPrologueAndEpilogueRoundTrip(t *testing.T) {
	// STMFD SP!,{R4-R6} pushes through descending addresses below the
	// original SP; the frame-pointer epilogue form LDMFD FP,{R4-R6} (P=0,
	// U=1, increment-after, no writeback -- see vmasm's Gen0 RET case)
	// reads the same block back when FP holds the lowered SP, as a real
	// prologue's "MOV FP, SP" after the push arranges.
	const origSP = 0x2000 + 32
	mem := NewMemory(0x2000, make([]byte, 64))
	cpu := NewCPU()
	cpu.R[13] = origSP
	cpu.R[4], cpu.R[5], cpu.R[6] = 11, 22, 33

	bits := armenc.RangeBits(4, 6)
	push := armenc.Ldstm(armenc.OpSTMFDw, 13, bits).Word
	if err := execBlockTransfer(mem, cpu, push); err != nil {
		t.Fatal(err)
	}
	if cpu.R[13] != origSP-12 {
		t.Fatalf("SP after push = %#x, want %#x", cpu.R[13], origSP-12)
	}
	cpu.R[4], cpu.R[5], cpu.R[6] = 0, 0, 0
	cpu.R[11] = cpu.R[13] // FP := SP, as the prologue does after the push

	pop := armenc.Ldstm(armenc.OpLDMFD, 11, bits).Word
	if err := execBlockTransfer(mem, cpu, pop); err != nil {
		t.Fatal(err)
	}
	if cpu.R[4] != 11 || cpu.R[5] != 22 || cpu.R[6] != 33 {
		t.Errorf("after round trip R4-R6 = %d,%d,%d, want 11,22,33", cpu.R[4], cpu.R[5], cpu.R[6])
	}
}

func TestSingleTransferStoreThenLoad(t *testing.T) {
	const base = 0x3000
	mem := NewMemory(base, make([]byte, 32))
	cpu := NewCPU()
	cpu.R[0] = 0x11223344
	cpu.R[1] = base + 16

	store := armenc.LdstRI(armenc.OpSTR, 0, 1, 0).Word
	if err := execSingleTransfer(mem, cpu, store); err != nil {
		t.Fatal(err)
	}
	cpu.R[0] = 0
	load := armenc.LdstRI(armenc.OpLDR, 0, 1, 0).Word
	if err := execSingleTransfer(mem, cpu, load); err != nil {
		t.Fatal(err)
	}
	if cpu.R[0] != 0x11223344 {
		t.Errorf("R0 = %#x, want 0x11223344", cpu.R[0])
	}
}

func TestSingleTransferByteTruncates(t *testing.T) {
	const base = 0x4000
	mem := NewMemory(base, make([]byte, 16))
	cpu := NewCPU()
	cpu.R[0] = 0x11223344
	cpu.R[1] = base

	store := armenc.LdstRI(armenc.OpSTRB, 0, 1, 0).Word
	if err := execSingleTransfer(mem, cpu, store); err != nil {
		t.Fatal(err)
	}
	cpu.R[0] = 0
	load := armenc.LdstRI(armenc.OpLDRB, 0, 1, 0).Word
	if err := execSingleTransfer(mem, cpu, load); err != nil {
		t.Fatal(err)
	}
	if cpu.R[0] != 0x44 {
		t.Errorf("R0 = %#x, want 0x44", cpu.R[0])
	}
}

func TestShiftLogicalLeft(t *testing.T) {
	got, carry := shift(0x1, 4, shiftLSL, false, false)
	if got != 0x10 {
		t.Errorf("shift LSL #4 of 1 = %#x, want 0x10", got)
	}
	if carry {
		t.Error("carry = true, want false (no bit shifted out)")
	}
}

func TestShiftArithmeticRightSignExtends(t *testing.T) {
	got, _ := shift(0x80000000, 4, shiftASR, false, false)
	if got != 0xf8000000 {
		t.Errorf("shift ASR #4 of 0x80000000 = %#x, want 0xf8000000", got)
	}
}

func TestRunHaltsAtSentinelReturnAddress(t *testing.T) {
	// A single RET-shaped epilogue: LDMFD FP,{PC} is overkill here, so just
	// use BX LR with LR primed to the sentinel the harness watches for.
	mem := asm(0, armenc.JumpReg(armenc.OpBX, LR))
	cpu := NewCPU()
	cpu.R[LR] = 0xdeadbeef
	if err := Run(mem, cpu, 0, 0xdeadbeef, 10); err != nil {
		t.Fatal(err)
	}
	if cpu.PC != 0xdeadbeef {
		t.Errorf("PC = %#x, want 0xdeadbeef", cpu.PC)
	}
}

func TestRunReportsStepLimit(t *testing.T) {
	// An infinite loop: B #0 branches to itself forever.
	mem := asm(0x8000, armenc.BranchImm(armenc.OpB, -2))
	cpu := NewCPU()
	cpu.R[LR] = 0xffffffff
	err := Run(mem, cpu, 0x8000, 0xffffffff, 5)
	if err != ErrStepLimit {
		t.Errorf("Run() err = %v, want ErrStepLimit", err)
	}
}
