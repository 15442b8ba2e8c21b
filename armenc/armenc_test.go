package armenc

import "testing"

// TestRRIMove checks RI against the textbook encoding of
// "MOV R4, #1" (condition AL, I=1, opcode=MOV, S=0, Rd=4, imm=1):
// 0xE3A04001.
func TestRRIMove(t *testing.T) {
	got := RI(OpMOV, 4, 1).Word
	want := uint32(0xE3A04001)
	if got != want {
		t.Errorf("RI(OpMOV, 4, 1) = %#08x, want %#08x", got, want)
	}
}

// TestRRRAdd checks RRR against "ADD R0, R4, R5": 0xE0840005.
func TestRRRAdd(t *testing.T) {
	got := RRR(OpADD, 0, 4, 5).Word
	want := uint32(0xE0840005)
	if got != want {
		t.Errorf("RRR(OpADD, 0, 4, 5) = %#08x, want %#08x", got, want)
	}
}

// TestMul checks Mul against "MUL R5, R4, R5" (Rd in the Rn field,
// Rm in bits 3-0, Rs in bits 11-8): 0xE0050594.
func TestMul(t *testing.T) {
	got := Mul(5, 4, 5).Word
	want := uint32(0xE0050594)
	if got != want {
		t.Errorf("Mul(5, 4, 5) = %#08x, want %#08x", got, want)
	}
}

// TestCmpI checks CmpI against "CMP R4, #0": 0xE3540000.
func TestCmpI(t *testing.T) {
	got := CmpI(OpCMP, 4, 0).Word
	want := uint32(0xE3540000)
	if got != want {
		t.Errorf("CmpI(OpCMP, 4, 0) = %#08x, want %#08x", got, want)
	}
}

// TestConditionalMove checks RR against "MOVEQ R4, R5": 0x01A04005.
func TestConditionalMove(t *testing.T) {
	got := RR(OpMOVEQ, 4, 5).Word
	want := uint32(0x01A04005)
	if got != want {
		t.Errorf("RR(OpMOVEQ, 4, 5) = %#08x, want %#08x", got, want)
	}
}

// TestBranchEncodesDisplacementAndCondition checks that BranchImm places a
// 24-bit word displacement in the low bits without disturbing the
// condition/opcode bits, against "BEQ #-4" -> 0x0AFFFFFF.
func TestBranchEncodesDisplacementAndCondition(t *testing.T) {
	got := BranchImm(OpBEQ, -1).Word
	want := uint32(0x0AFFFFFF)
	if got != want {
		t.Errorf("BranchImm(OpBEQ, -1) = %#08x, want %#08x", got, want)
	}
}

func TestBranchUnconditionalPositiveDisplacement(t *testing.T) {
	got := BranchImm(OpB, 2).Word
	want := uint32(0xEA000002)
	if got != want {
		t.Errorf("BranchImm(OpB, 2) = %#08x, want %#08x", got, want)
	}
}

// TestJumpReg checks JumpReg against "BX LR" (Rm=14): 0xE12FFF1E.
func TestJumpReg(t *testing.T) {
	got := JumpReg(OpBX, 14).Word
	want := uint32(0xE12FFF1E)
	if got != want {
		t.Errorf("JumpReg(OpBX, 14) = %#08x, want %#08x", got, want)
	}
}

// TestLdstmProloguePushSet checks the prologue's push-list encoding:
// STMFD SP!, {R4-R10, FP, IP, LR}: bitmap bits 4-11,12,14 set, opcode
// STMFDw, Rn=SP(13), against the well-known GCC prologue word
// "stmfd sp!, {r4-r10, fp, ip, lr}" = 0xe92d5ff0.
func TestLdstmProloguePushSet(t *testing.T) {
	bits := RangeBits(4, 10) | Bit(11) | Bit(12) | Bit(14)
	got := Ldstm(OpSTMFDw, 13, bits).Word
	wantBits := uint32(0x5FF0) // R4..R10 (0x7F0) | FP(0x800) | IP(0x1000) | LR(0x4000)
	if bits != wantBits {
		t.Fatalf("pushSet bitmap = %#04x, want %#04x", bits, wantBits)
	}
	want := uint32(0xE92D5FF0)
	if got != want {
		t.Errorf("Ldstm(OpSTMFDw, 13, pushSet) = %#08x, want %#08x", got, want)
	}
}

// TestLdstmEpiloguePopSet checks against the well-known GCC epilogue word
// "ldmfd fp, {r4-r10, fp, sp, pc}" = 0xe89baff0.
func TestLdstmEpiloguePopSet(t *testing.T) {
	bits := RangeBits(4, 10) | Bit(11) | Bit(13) | Bit(15)
	got := Ldstm(OpLDMFD, 11, bits).Word
	wantBits := uint32(0xAFF0) // R4..R10 | FP(0x800) | SP(0x2000) | PC(0x8000)
	if bits != wantBits {
		t.Fatalf("popSet bitmap = %#04x, want %#04x", bits, wantBits)
	}
	want := uint32(0xE89BAFF0)
	if got != want {
		t.Errorf("Ldstm(OpLDMFD, 11, popSet) = %#08x, want %#08x", got, want)
	}
}

func TestRangeBits(t *testing.T) {
	cases := []struct {
		a, b int
		want uint32
	}{
		{0, 0, 0x1},
		{4, 10, 0x7F0},
		{0, 15, 0xFFFF},
	}
	for _, c := range cases {
		if got := RangeBits(c.a, c.b); got != c.want {
			t.Errorf("RangeBits(%d,%d) = %#04x, want %#04x", c.a, c.b, got, c.want)
		}
	}
}

// TestLdstRIWithUp checks "LDR R0, [PC, #8]": 0xE59F0008.
func TestLdstRIWithUp(t *testing.T) {
	got := LdstRI(WithUp(OpLDR), 0, 15, 8).Word
	want := uint32(0xE59F0008)
	if got != want {
		t.Errorf("LdstRI(WithUp(OpLDR), 0, 15, 8) = %#08x, want %#08x", got, want)
	}
}

func TestLdstRIWithoutUp(t *testing.T) {
	got := LdstRI(OpLDR, 0, 15, 8).Word
	want := uint32(0xE51F0008)
	if got != want {
		t.Errorf("LdstRI(OpLDR, 0, 15, 8) = %#08x, want %#08x", got, want)
	}
}

// TestShiftImm checks "LSL R0, R4, #2" -- MOV R0, R4, LSL #2: 0xE1A00104.
func TestShiftImm(t *testing.T) {
	got := ShiftImm(OpLSL, 0, 4, 2).Word
	want := uint32(0xE1A00104)
	if got != want {
		t.Errorf("ShiftImm(OpLSL, 0, 4, 2) = %#08x, want %#08x", got, want)
	}
}

func TestMnemonicAlwaysPresent(t *testing.T) {
	i := RRR(OpADD, 0, 1, 2)
	if i.Mnemonic == "" {
		t.Error("RRR result has empty Mnemonic")
	}
}
