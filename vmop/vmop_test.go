package vmop

import "testing"

// TestRegImmVariantsShareMnemonic checks that each reg/immediate opcode pair
// (e.g. ADD vs ADDImm) shares a mnemonic but carries a distinct arity, since
// the dispatcher disambiguates purely on which Gen method was called.
func TestRegImmVariantsShareMnemonic(t *testing.T) {
	pairs := []struct{ reg, imm Op }{
		{ADD, ADDImm}, {SUB, SUBImm}, {MUL, MULImm},
		{AND, ANDImm}, {OR, ORImm}, {XOR, XORImm},
		{LSH, LSHImm}, {RSH, RSHImm}, {RSHU, RSHUImm}, {ROR, RORImm},
		{CALL, CALLImm},
	}
	for _, p := range pairs {
		if p.reg.Mnemonic != p.imm.Mnemonic {
			t.Errorf("mnemonics differ: %q vs %q", p.reg.Mnemonic, p.imm.Mnemonic)
		}
		if p.reg.Arity == p.imm.Arity {
			t.Errorf("%s: reg and imm variants share arity %v", p.reg.Mnemonic, p.reg.Arity)
		}
	}
}

// TestBranchMnemonicsMatchComparisons checks that every reg/reg comparison
// op has a same-named Bxx branch counterpart, since the dispatcher's
// branchCondInt/branchCondFloat maps are keyed by this correspondence.
func TestBranchMnemonicsMatchComparisons(t *testing.T) {
	cmpToBranch := map[Op]Op{
		EQ: BEQ, NEQ: BNEQ, LT: BLT, LEQ: BLEQ, GT: BGT, GEQ: BGEQ,
		LTU: BLTU, GEQU: BGEQU, GTU: BGTU, LEQU: BLEQU,
		EQF: BEQF, NEQF: BNEQF, LTF: BLTF, LEQF: BLEQF, GTF: BGTF, GEQF: BGEQF,
		EQD: BEQD, NEQD: BNEQD, LTD: BLTD, LEQD: BLEQD, GTD: BGTD, GEQD: BGEQD,
	}
	for cmp, branch := range cmpToBranch {
		if branch.Arity != Arity3RegRegLabel {
			t.Errorf("%s: arity = %v, want Arity3RegRegLabel", branch.Mnemonic, branch.Arity)
		}
		if cmp.Mnemonic == "" || branch.Mnemonic != "B"+cmp.Mnemonic {
			t.Errorf("mnemonic pair (%q, %q): want branch named \"B\" + comparison", cmp.Mnemonic, branch.Mnemonic)
		}
	}
}

// TestImmBranchesAreIntOnly checks that each of the ten integer
// compare-with-immediate branches carries Arity3RegImmLabel. There are no
// float/double immediate branches -- float/double branches always compare
// two registers -- and this test does not enumerate the package to prove
// that.
func TestImmBranchesAreIntOnly(t *testing.T) {
	immBranches := []Op{
		BEQImm, BNEQImm, BLTImm, BLEQImm, BGTImm, BGEQImm,
		BLTUImm, BGEQUImm, BGTUImm, BLEQUImm,
	}
	for _, op := range immBranches {
		if op.Arity != Arity3RegImmLabel {
			t.Errorf("%s: arity = %v, want Arity3RegImmLabel", op.Mnemonic, op.Arity)
		}
	}
}

func TestProcedureOpArities(t *testing.T) {
	cases := []struct {
		op   Op
		want Arity
	}{
		{RET, Arity0},
		{PREP, Arity1Imm},
		{ARG, Arity1Reg},
		{CALL, Arity1Reg},
		{CALLImm, Arity1Imm},
		{JUMP, Arity1Label},
		{JUMPReg, Arity1Reg},
	}
	for _, c := range cases {
		if c.op.Arity != c.want {
			t.Errorf("%s: arity = %v, want %v", c.op.Mnemonic, c.op.Arity, c.want)
		}
	}
}
