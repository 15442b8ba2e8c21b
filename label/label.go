// Package label resolves forward and backward branches within a procedure.
// A Label starts unbound, accumulates the addresses of branch instructions
// that target it, and is patched in one pass once Bind fixes its address.
// Each label owns its own pending-site list instead of sharing one
// name-keyed symbol table (Design Notes #9).
package label

import (
	"errors"
	"fmt"
)

// ErrAlreadyBound is returned by Bind when called a second time on the same
// label.
var ErrAlreadyBound = errors.New("label: already bound")

// ErrBranchRange is returned by Patch when a displacement does not fit in
// the signed 24-bit, word-granular ARM branch field.
var ErrBranchRange = errors.New("label: branch displacement out of range")

// maxDisp and minDisp bound the signed word offset a 24-bit field can hold.
const (
	maxDisp = 1<<23 - 1
	minDisp = -(1 << 23)
)

// site is one branch instruction waiting for its target to be bound.
type site struct {
	addr uintptr
	// patch writes the final instruction word given the resolved word
	// displacement; supplied by the caller (vmasm) so this package stays
	// encoding-agnostic, matching codebuf's split with the assembler.
	patch func(wordDisp int32) (uint32, error)
}

// Label is a single branch target within one procedure's code.
type Label struct {
	bound bool
	addr  uintptr
	sites []site
}

// New returns an unbound label.
func New() *Label { return &Label{} }

// Bound reports whether the label has been fixed to an address yet.
func (l *Label) Bound() bool { return l.bound }

// Addr returns the label's address; valid only once Bound is true.
func (l *Label) Addr() uintptr { return l.addr }

// Table owns the set of labels live within one procedure, and the single
// read/write/patch callback used to resolve them, mirroring how vmasm.End
// asserts every label was eventually bound.
type Table struct {
	labels []*Label
	read   func(addr uintptr) (uint32, error)
	write  func(addr uintptr, word uint32) error
}

// NewTable returns an empty table bound to the given buffer accessors.
func NewTable(read func(uintptr) (uint32, error), write func(uintptr, uint32) error) *Table {
	return &Table{read: read, write: write}
}

// NewLabel creates and registers a new, unbound label in this table.
func (t *Table) NewLabel() *Label {
	l := New()
	t.labels = append(t.labels, l)
	return l
}

// Bind fixes l's address to addr and immediately patches every branch site
// already recorded against it; any Branch call after this point patches
// its site in place rather than queuing it.
func (t *Table) Bind(l *Label, addr uintptr) error {
	if l.bound {
		return fmt.Errorf("%w at address %#x", ErrAlreadyBound, addr)
	}
	l.bound = true
	l.addr = addr
	for _, s := range l.sites {
		if err := t.patchSite(s, addr); err != nil {
			return err
		}
	}
	l.sites = nil
	return nil
}

// Branch records a branch instruction at siteAddr targeting l, patching it
// immediately if l is already bound (a backward branch) or queuing it for
// Bind to patch later (a forward branch). patch computes the final
// instruction word from a resolved word displacement.
func (t *Table) Branch(l *Label, siteAddr uintptr, patch func(wordDisp int32) (uint32, error)) error {
	s := site{siteAddr, patch}
	if l.bound {
		return t.patchSite(s, l.addr)
	}
	l.sites = append(l.sites, s)
	return nil
}

// patchSite computes the (target-site-8)/4 displacement per the ARM
// pipeline's PC-relative convention, range-checks it, and writes the
// resulting instruction word.
func (t *Table) patchSite(s site, target uintptr) error {
	disp := int64(target) - int64(s.addr) - 8
	if disp%4 != 0 {
		return fmt.Errorf("label: displacement %d not word-aligned", disp)
	}
	wordDisp := disp / 4
	if wordDisp > maxDisp || wordDisp < minDisp {
		return fmt.Errorf("%w: %d words from %#x to %#x", ErrBranchRange, wordDisp, s.addr, target)
	}
	word, err := s.patch(int32(wordDisp))
	if err != nil {
		return err
	}
	return t.write(s.addr, word)
}

// AllBound reports whether every label registered in the table has been
// bound, and the first unbound label found if not -- used by vmasm.End to
// refuse to close a procedure with a dangling forward reference.
func (t *Table) AllBound() (ok bool, unbound *Label) {
	for _, l := range t.labels {
		if !l.bound {
			return false, l
		}
	}
	return true, nil
}

// Reset clears the table for the next procedure.
func (t *Table) Reset() {
	t.labels = t.labels[:0]
}
