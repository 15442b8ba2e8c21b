// Package vmasm is the virtual-instruction dispatcher and procedure framer,
// built on armenc, litpool, label and codebuf. All mutable generator state
// lives on one *Assembler value; there are no package-level globals holding
// the current pc/codebuf/limit as file-scope statics.
package vmasm

import (
	"github.com/Spivoxity/thunder/armenc"
	"github.com/Spivoxity/thunder/codebuf"
	"github.com/Spivoxity/thunder/label"
	"github.com/Spivoxity/thunder/litpool"
	"github.com/Spivoxity/thunder/page"
	"github.com/Spivoxity/thunder/vreg"
)

// Physical register numbers not exposed through vreg because no virtual
// register ever names them directly -- they are reserved for procedure
// framing and constant materialization.
const (
	regLP = 10 // dedicated literal-pool base, never allocated to a vreg
	regFP = 11
	regIP = 12
	regSP = 13
	regLR = 14
	regPC = 15

	noReg = -1
)

// Assembler is the single aggregate carrying all generator state: the
// active code buffer, the current procedure's literal pool and label
// table, and argument-marshaling state. The client owns its lifetime and
// passes it explicitly to every call (no singleton).
type Assembler struct {
	buf    *codebuf.Chain
	pool   *litpool.Pool
	labels *label.Table

	debug int

	open     bool
	name     string
	nargs    int
	nlocals  int
	entry    uintptr
	poolHdr  uintptr
	argp     int
}

// New returns an Assembler with no procedure open, backed by a fresh code
// buffer in the given protection mode. maxLiterals caps how many distinct
// constants any one procedure's literal pool may hold; <= 0 selects
// litpool.DefaultMaxLiterals.
func New(mode codebuf.Mode, maxLiterals int) *Assembler {
	a := &Assembler{pool: litpool.New(maxLiterals)}
	a.buf = codebuf.New(mode, a.chainEmit)
	a.labels = label.NewTable(a.buf.ReadWordAt, a.buf.WordAt)
	return a
}

// chainEmit is codebuf's callback for linking one sealed buffer to the
// next, the Go equivalent of vm_chain: an unconditional branch when the
// displacement fits B's 24-bit word field, otherwise LDR PC, [PC, #-4]
// followed by the absolute target address. It runs
// from inside Space/grow while the chain's write pointer still refers to
// the old, nearly-full buffer -- precisely the state that triggered this
// buffer switch -- so it writes the branch directly rather than going
// through a.write, which would call Space again and recurse into grow
// without ever making progress. Margin exists to guarantee the 4 or 8
// bytes this needs are there without a second Space call.
func (a *Assembler) chainEmit(buf *codebuf.Chain, from, to uintptr) error {
	disp := (int64(to) - int64(from) - 8) / 4
	if disp < -(1<<23) || disp >= 1<<23 {
		buf.Word(armenc.LdstRI(armenc.OpLDR, regPC, regPC, 4).Word)
		buf.Word(uint32(to))
		return nil
	}
	buf.Word(armenc.BranchImm(armenc.OpB, int32(disp)).Word)
	return nil
}

// SetDebug sets the diagnostic verbosity. The only level with an effect is
// 5 and above, which dumps the raw procedure bytes to <name>.vmdump at End;
// nothing is ever written to stderr, at any level. Errors carry the
// mnemonic and operands in a *GenError regardless of the level.
func (a *Assembler) SetDebug(level int) { a.debug = level }

// Alloc hands the client size bytes of memory from the same allocator the
// assembler itself uses, so auxiliary data (e.g. a jump table) lives in
// pages compatible with generated code.
func (a *Assembler) Alloc(size int) (uintptr, error) {
	if err := a.buf.Space(size); err != nil {
		return 0, err
	}
	addr := a.buf.Write()
	for i := 0; i < size; i++ {
		a.buf.Byte(0)
	}
	return addr, nil
}

// Begin opens a new procedure named name, taking nargs arguments. nlocals
// is accepted and stored for API parity with a begin(name, nargs, nlocals)
// call shape but is not yet consumed by this ARM backend -- see DESIGN.md
// Open Question 1.
func (a *Assembler) Begin(name string, nargs, nlocals int) (uintptr, error) {
	if a.open {
		return 0, ErrProcedureOpen
	}
	if err := a.buf.Space(codebuf.MinHeadroom); err != nil {
		return 0, err
	}

	a.pool.Reset()
	a.labels.Reset()
	a.buf.ResetFragments()
	a.argp = 0
	a.name = name
	a.nargs = nargs
	a.nlocals = nlocals

	a.poolHdr = a.buf.Write()
	a.buf.Word(0)

	entry := a.buf.Write()
	a.entry = entry

	if err := a.write(armenc.RR(armenc.OpMOV, regIP, regSP)); err != nil {
		return 0, err
	}
	pushSet := armenc.RangeBits(4, 10) | armenc.Bit(regFP) | armenc.Bit(regIP) | armenc.Bit(regLR)
	if err := a.write(armenc.Ldstm(armenc.OpSTMFDw, regSP, pushSet)); err != nil {
		return 0, err
	}
	if err := a.write(armenc.RR(armenc.OpMOV, regFP, regSP)); err != nil {
		return 0, err
	}

	disp := int64(a.poolHdr) - (int64(a.buf.Write()) + 8)
	if err := a.write(pcRelativeLoad(regLP, disp)); err != nil {
		return 0, err
	}

	a.open = true
	return entry, nil
}

// End closes the open procedure: emits the literal pool, back-patches the
// pool-header slot, and transitions the procedure's pages to their execute
// protection (read-execute or RWX, per the buffer's protection mode) and
// flushes the instruction cache. Per-procedure state (literal pool, labels,
// fragments, argument pointer) is reset by the next Begin, not here.
func (a *Assembler) End() error {
	if !a.open {
		return ErrNoProcedure
	}
	if ok, _ := a.labels.AllBound(); !ok {
		return ErrUnboundLabel
	}

	values := a.pool.Values()
	if len(values) > 0 {
		if err := a.buf.Space(len(values) * 4); err != nil {
			return err
		}
	}
	litAddr := a.buf.Write()
	for _, v := range values {
		a.buf.Word(v)
	}
	if err := a.buf.WordAt(a.poolHdr, uint32(litAddr)); err != nil {
		return err
	}

	a.open = false

	if a.debug >= 5 {
		// Dumping raw bytes here is unreliable if the procedure's code
		// crossed a buffer-chain boundary partway through.
		if err := a.dumpVMFile(a.entry, a.buf.Write()); err != nil {
			return err
		}
	}

	return a.buf.SealAndFlush()
}

// CurrentWrite reports the assembler's current write pointer, letting a
// caller capture the end address of a just-finished procedure body before
// End appends the literal pool after it.
func (a *Assembler) CurrentWrite() uintptr {
	return a.buf.Write()
}

// ReadCode copies out n bytes of already-written code starting at addr.
// The whole range must lie within one buffer -- for callers that need a
// procedure spanning more than one buffer, use Regions instead.
func (a *Assembler) ReadCode(addr uintptr, n int) ([]byte, error) {
	return a.buf.ReadRange(addr, n)
}

// Regions returns every buffer this assembler's chain has allocated, in
// allocation order, as real (address, bytes) pairs. A procedure longer
// than one page spans more than one of these, each a separate allocation
// and not necessarily adjacent in address space -- a caller driving a
// simulator over such a procedure (see armsim) must address each region
// independently rather than treat the whole procedure as one flat slice.
func (a *Assembler) Regions() []page.Region {
	return a.buf.Regions()
}

// NewLabel allocates an unbound label, valid only until the next End.
func (a *Assembler) NewLabel() *label.Label {
	return a.labels.NewLabel()
}

// BindLabel fixes l's address to the assembler's current write pointer and
// patches every branch already recorded against it.
func (a *Assembler) BindLabel(l *label.Label) error {
	return a.labels.Bind(l, a.buf.Write())
}

// write reserves room for one instruction and emits it.
func (a *Assembler) write(i armenc.Instr) error {
	if err := a.buf.Space(4); err != nil {
		return err
	}
	a.buf.Word(i.Word)
	return nil
}

// emitBranch writes a placeholder branch to op's condition and queues (or
// immediately patches, if already bound) resolution against lab.
func (a *Assembler) emitBranch(op armenc.Opcode, lab *label.Label) error {
	if err := a.buf.Space(4); err != nil {
		return err
	}
	site := a.buf.Write()
	a.buf.Word(armenc.BranchImm(op, 0).Word)
	return a.labels.Branch(lab, site, func(wordDisp int32) (uint32, error) {
		return op.Bits | (uint32(wordDisp) & 0xffffff), nil
	})
}

func pcRelativeLoad(rd int, disp int64) armenc.Instr {
	if disp >= 0 {
		return armenc.LdstRI(armenc.WithUp(armenc.OpLDR), rd, regPC, uint32(disp))
	}
	return armenc.LdstRI(armenc.OpLDR, rd, regPC, uint32(-disp))
}

func phys(r vreg.Register) int { return r.Phys }
