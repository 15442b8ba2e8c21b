// Package codebuf manages the chain of executable-memory pages that a
// procedure's instructions are written into: the current emission pointer,
// headroom checks, buffer chaining, protection transitions, and
// instruction-cache fragment tracking.
package codebuf

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Spivoxity/thunder/page"
)

// Margin is the safety margin kept free before switching to a new buffer,
// so that the last instruction written never needs more than Margin bytes
// of trailing space (e.g. for a chaining branch).
const Margin = 32

// MinHeadroom is the minimum space guaranteed to be available before a
// procedure's prologue is emitted, so a whole prologue never itself
// triggers a mid-prologue buffer switch.
const MinHeadroom = 128

var (
	ErrChainRange = errors.New("codebuf: inter-buffer branch out of range, and no long-jump fallback supplied")
)

// Mode selects the memory-protection discipline used for code pages.
type Mode int

const (
	// AlwaysRWX maps pages read-write and raises them to
	// read-write-execute in SealAndFlush; they are never made
	// non-writable -- the simplest, least secure mode. Pages are not
	// executable before that SealAndFlush call.
	AlwaysRWX Mode = iota

	// WriteXorExecute keeps pages writable during emission and flips
	// them to execute-only in Seal/Flush, so a page is never
	// simultaneously writable and executable.
	WriteXorExecute
)

// fragment is a (start, end) span of bytes written to a page, recorded so
// the instruction cache can be flushed over exactly what changed.
type fragment struct{ start, end uintptr }

// Chain is the linked sequence of pages backing one or more procedures.
// Buffers outlive the procedures written into them: once sealed (filled,
// or handed back after End), a buffer is never revisited for writing, but
// it stays reachable for patching and reading -- a literal-pool header or
// a label's pending branch site can sit in an earlier buffer than the one
// a later Word/WordAt call is writing into, per the pool's "lives anywhere
// in memory, including across buffer boundaries" contract.
type Chain struct {
	alloc *page.Allocator
	mode  Mode

	regions   []page.Region // every buffer ever allocated into this chain, in order
	protected int          // regions[:protected] have already had protect() applied

	cur   page.Region
	write uintptr // next byte to write, within cur
	limit uintptr // cur.Addr + page.Size

	frags []fragment
	fragStart uintptr

	// chainEmit, when non-nil, is called by Space to seal a full buffer
	// with a branch to the newly allocated one. It is supplied by the
	// assembler (which alone knows how to encode a branch or a
	// PC-relative long jump) so this package stays
	// encoding-agnostic, matching the E/F/G layering in the design.
	chainEmit func(buf *Chain, from, to uintptr) error
}

// New creates an empty Chain. chainEmit encodes the unconditional branch
// (or indirect long jump, if the displacement would not fit) used to link
// one sealed buffer to the next.
func New(mode Mode, chainEmit func(buf *Chain, from, to uintptr) error) *Chain {
	return &Chain{alloc: page.New(constrain32), mode: mode, chainEmit: chainEmit}
}

// constrain32 is true on hosts wider than the 32-bit target, so that every
// code address remains representable in the 32-bit fields the generator
// writes (branch displacements, literal-pool base pointers).
const constrain32 = true

// Write returns the current emission address.
func (c *Chain) Write() uintptr { return c.write }

// Space ensures at least n+Margin bytes remain in the current buffer,
// allocating and chaining a new one if not.
func (c *Chain) Space(n int) error {
	if c.cur.Bytes == nil || c.write+uintptr(n) > c.limit-Margin {
		return c.grow()
	}
	return nil
}

func (c *Chain) grow() error {
	next, err := c.alloc.Allocate()
	if err != nil {
		return err
	}

	if c.cur.Bytes != nil {
		// Protection stays deferred until SealAndFlush: a literal-pool
		// header or a forward-branch site recorded in this buffer may
		// still need WordAt to patch it later, and under
		// WriteXorExecute that requires the buffer to still be
		// writable. Nothing executes any of this code before End
		// completes, so deferring the RW-to-RX transition to the end
		// of the procedure is safe.
		if err := c.chainEmit(c, c.write, next.Addr); err != nil {
			return fmt.Errorf("codebuf: chaining buffers: %w", err)
		}
		// Sealed after chainEmit so the chaining branch is inside the
		// fragment that gets flushed.
		c.sealFragment()
	}

	c.regions = append(c.regions, next)
	c.cur = next
	c.write = next.Addr
	c.limit = next.Addr + uintptr(page.Size)
	c.fragStart = next.Addr
	return nil
}

// protExec picks the protection flags instructions execute under, per mode.
func protExec(m Mode) int {
	if m == AlwaysRWX {
		return page.ProtRead | page.ProtWrite | page.ProtExec
	}
	return page.ProtRead | page.ProtExec
}

func (c *Chain) protect(r page.Region, prot int) error {
	if c.mode == AlwaysRWX {
		// Pages are allocated read-write; this raises them to RWX, once
		// per buffer, from SealAndFlush.
		return page.Protect(r, page.ProtRead|page.ProtWrite|page.ProtExec)
	}
	return page.Protect(r, prot)
}

func (c *Chain) sealFragment() {
	if c.fragStart != c.write {
		c.frags = append(c.frags, fragment{c.fragStart, c.write})
	}
}

// offsetInCurrent returns the byte offset of addr within the current
// buffer, and false if addr lies outside it.
func (c *Chain) offsetInCurrent(addr uintptr) (int, bool) {
	if addr < c.cur.Addr || addr >= c.limit {
		return 0, false
	}
	return int(addr - c.cur.Addr), true
}

// regionFor locates the page owning addr among every buffer ever allocated
// into the chain, not just the current one. Searched newest-first since a
// patch or read almost always targets a buffer near the end of the chain.
func (c *Chain) regionFor(addr uintptr) (page.Region, bool) {
	for i := len(c.regions) - 1; i >= 0; i-- {
		r := c.regions[i]
		if addr >= r.Addr && addr < r.Addr+uintptr(page.Size) {
			return r, true
		}
	}
	return page.Region{}, false
}

// Byte emits one byte.
func (c *Chain) Byte(b byte) {
	off, ok := c.offsetInCurrent(c.write)
	if !ok {
		panic("codebuf: write pointer outside current buffer -- missing Space call")
	}
	c.cur.Bytes[off] = b
	c.write++
}

// Word emits a little-endian 32-bit word, as the target ISA is little-endian.
func (c *Chain) Word(x uint32) {
	off, ok := c.offsetInCurrent(c.write)
	if !ok || off+4 > len(c.cur.Bytes) {
		panic("codebuf: write pointer outside current buffer -- missing Space call")
	}
	binary.LittleEndian.PutUint32(c.cur.Bytes[off:off+4], x)
	c.write += 4
}

// QWord emits a little-endian 64-bit quantity. Unaligned stores are assumed
// safe.
func (c *Chain) QWord(x uint64) {
	off, ok := c.offsetInCurrent(c.write)
	if !ok || off+8 > len(c.cur.Bytes) {
		panic("codebuf: write pointer outside current buffer -- missing Space call")
	}
	binary.LittleEndian.PutUint64(c.cur.Bytes[off:off+8], x)
	c.write += 8
}

// WordAt patches a previously emitted word in place, used by the literal
// pool and label resolver to back-patch placeholders. The target may be in
// any buffer the chain has ever allocated, not just the current one.
// Buffers stay writable until SealAndFlush, so patching an earlier buffer
// of the open procedure is valid in both modes; once SealAndFlush has run
// under WriteXorExecute, a write into one of its buffers faults.
func (c *Chain) WordAt(addr uintptr, x uint32) error {
	r, ok := c.regionFor(addr)
	if !ok {
		return fmt.Errorf("codebuf: patch address %#x outside any buffer in this chain", addr)
	}
	off := int(addr - r.Addr)
	if off+4 > len(r.Bytes) {
		return fmt.Errorf("codebuf: patch address %#x outside any buffer in this chain", addr)
	}
	binary.LittleEndian.PutUint32(r.Bytes[off:off+4], x)
	return nil
}

// ReadWordAt reads a word already written; the label table receives it as
// its read callback, and vmasm's debug dump reads through it. Like WordAt,
// this searches
// every buffer the chain has allocated, not just the current one.
func (c *Chain) ReadWordAt(addr uintptr) (uint32, error) {
	r, ok := c.regionFor(addr)
	if !ok {
		return 0, fmt.Errorf("codebuf: read address %#x outside any buffer in this chain", addr)
	}
	off := int(addr - r.Addr)
	if off+4 > len(r.Bytes) {
		return 0, fmt.Errorf("codebuf: read address %#x outside any buffer in this chain", addr)
	}
	return binary.LittleEndian.Uint32(r.Bytes[off : off+4]), nil
}

// Align reserves n bytes at the top of the remaining window in the current
// buffer, for data (e.g. a literal pool) that must sit above the write
// pointer rather than in line with it. a is the required alignment.
func (c *Chain) Align(n, a int) (uintptr, error) {
	if err := c.Space(n + a); err != nil {
		return 0, err
	}
	top := uintptr((int(c.limit) - n) &^ (a - 1))
	if top < c.write {
		return 0, fmt.Errorf("codebuf: no room to align %d bytes at alignment %d", n, a)
	}
	c.limit = top
	return top, nil
}

// SealAndFlush finishes the chain's buffers: every buffer allocated since
// the previous call switches to its execute protection (read-execute under
// WriteXorExecute, read-write-execute under AlwaysRWX), the instruction
// cache is flushed over every fragment recorded since the last
// ResetFragments, and the current buffer is retired so the next Space
// starts on a fresh page. Called once, from the assembler's End, after the
// literal pool has been emitted.
func (c *Chain) SealAndFlush() error {
	if c.cur.Bytes == nil {
		return nil
	}
	c.sealFragment()
	c.fragStart = c.write

	// Every buffer allocated since the last SealAndFlush -- not just
	// cur -- is now done accepting patches and can transition to its
	// execute protection, including buffers already superseded by a
	// chained branch mid-procedure.
	for ; c.protected < len(c.regions); c.protected++ {
		if err := c.protect(c.regions[c.protected], protExec(c.mode)); err != nil {
			return err
		}
	}

	// The current buffer is sealed too: the next procedure must not
	// write into it, so drop it and let Space allocate a fresh page.
	c.cur = page.Region{}
	return flushFragments(c.frags)
}

// Fragments exposes the (start,end) spans recorded since the last
// ResetFragments, for tests and for diagnostics; it does not reset them
// (only ResetFragments does).
func (c *Chain) Fragments() []struct{ Start, End uintptr } {
	out := make([]struct{ Start, End uintptr }, len(c.frags))
	for i, f := range c.frags {
		out[i] = struct{ Start, End uintptr }{f.start, f.end}
	}
	return out
}

// ResetFragments clears fragment tracking for the next procedure.
func (c *Chain) ResetFragments() { c.frags = c.frags[:0] }

// ReadRange copies out the n bytes starting at addr. The range must lie
// entirely within one buffer in the chain -- not necessarily the current
// one -- since a procedure's entry and its tail may sit in different
// buffers once it has grown past one page. It exists for tests and tooling
// that need to inspect generated code without executing it in place -- in
// particular, armsim's software interpreter works from a copy of the bytes
// rather than the live mmap'd page.
func (c *Chain) ReadRange(addr uintptr, n int) ([]byte, error) {
	r, ok := c.regionFor(addr)
	if !ok {
		return nil, fmt.Errorf("codebuf: range [%#x,%#x) outside any buffer in this chain", addr, addr+uintptr(n))
	}
	off := int(addr - r.Addr)
	if off+n > len(r.Bytes) {
		return nil, fmt.Errorf("codebuf: range [%#x,%#x) outside any buffer in this chain", addr, addr+uintptr(n))
	}
	out := make([]byte, n)
	copy(out, r.Bytes[off:off+n])
	return out, nil
}

// Regions returns every buffer the chain has allocated, in order, each as
// its real (addr, bytes) pair. A multi-page procedure's bytes are not
// necessarily contiguous across buffers -- each was a separate allocation
// -- so a caller that needs to execute or inspect the whole procedure
// (armsim, in particular) must address each region independently rather
// than assume one flat copy covers it.
func (c *Chain) Regions() []page.Region {
	out := make([]page.Region, len(c.regions))
	copy(out, c.regions)
	return out
}
