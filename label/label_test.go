package label

import (
	"errors"
	"testing"
)

// fakeBuf is a minimal addr -> word store standing in for codebuf.Chain,
// enough to drive Table's read/write callbacks in isolation.
type fakeBuf struct {
	words map[uintptr]uint32
}

func newFakeBuf() *fakeBuf { return &fakeBuf{words: make(map[uintptr]uint32)} }

func (b *fakeBuf) read(addr uintptr) (uint32, error) {
	return b.words[addr], nil
}

func (b *fakeBuf) write(addr uintptr, word uint32) error {
	b.words[addr] = word
	return nil
}

// identityPatch returns the word displacement itself as the "instruction",
// so tests can assert on the patched value directly without needing a real
// branch encoding.
func identityPatch(wordDisp int32) (uint32, error) {
	return uint32(wordDisp) & 0xffffff, nil
}

func TestBackwardBranchPatchesImmediately(t *testing.T) {
	buf := newFakeBuf()
	table := NewTable(buf.read, buf.write)

	lab := table.NewLabel()
	if err := table.Bind(lab, 100); err != nil {
		t.Fatal(err)
	}

	siteAddr := uintptr(200)
	if err := table.Branch(lab, siteAddr, identityPatch); err != nil {
		t.Fatal(err)
	}

	wantDisp := (int64(100) - int64(200) - 8) / 4
	got := int32(buf.words[siteAddr])
	// sign-extend the 24-bit field back out for comparison
	got = got << 8 >> 8
	if int64(got) != wantDisp {
		t.Errorf("patched displacement = %d, want %d", got, wantDisp)
	}
}

func TestForwardBranchQueuesUntilBind(t *testing.T) {
	buf := newFakeBuf()
	table := NewTable(buf.read, buf.write)

	lab := table.NewLabel()
	siteAddr := uintptr(100)
	if err := table.Branch(lab, siteAddr, identityPatch); err != nil {
		t.Fatal(err)
	}
	if _, wrote := buf.words[siteAddr]; wrote {
		t.Fatal("forward branch site was patched before Bind")
	}

	if err := table.Bind(lab, 200); err != nil {
		t.Fatal(err)
	}
	wantDisp := (int64(200) - int64(100) - 8) / 4
	got := int32(buf.words[siteAddr]) << 8 >> 8
	if int64(got) != wantDisp {
		t.Errorf("patched displacement = %d, want %d", got, wantDisp)
	}
}

func TestMultipleSitesAllPatchedOnBind(t *testing.T) {
	buf := newFakeBuf()
	table := NewTable(buf.read, buf.write)

	lab := table.NewLabel()
	sites := []uintptr{40, 80, 120}
	for _, s := range sites {
		if err := table.Branch(lab, s, identityPatch); err != nil {
			t.Fatal(err)
		}
	}
	if err := table.Bind(lab, 200); err != nil {
		t.Fatal(err)
	}
	for _, s := range sites {
		if _, wrote := buf.words[s]; !wrote {
			t.Errorf("site %#x was never patched", s)
		}
	}
}

func TestDoubleBindFails(t *testing.T) {
	buf := newFakeBuf()
	table := NewTable(buf.read, buf.write)
	lab := table.NewLabel()
	if err := table.Bind(lab, 10); err != nil {
		t.Fatal(err)
	}
	if err := table.Bind(lab, 20); !errors.Is(err, ErrAlreadyBound) {
		t.Errorf("second Bind: err = %v, want ErrAlreadyBound", err)
	}
}

func TestBranchOutOfRange(t *testing.T) {
	buf := newFakeBuf()
	table := NewTable(buf.read, buf.write)
	lab := table.NewLabel()
	if err := table.Bind(lab, 0); err != nil {
		t.Fatal(err)
	}
	// A site far enough away that the word displacement overflows 24 bits.
	siteAddr := uintptr(1 << 26)
	if err := table.Branch(lab, siteAddr, identityPatch); !errors.Is(err, ErrBranchRange) {
		t.Errorf("out-of-range branch: err = %v, want ErrBranchRange", err)
	}
}

func TestUnalignedDisplacementFails(t *testing.T) {
	buf := newFakeBuf()
	table := NewTable(buf.read, buf.write)
	lab := table.NewLabel()
	if err := table.Bind(lab, 3); err != nil {
		t.Fatal(err)
	}
	if err := table.Branch(lab, 0, identityPatch); err == nil {
		t.Error("expected an error for a non-word-aligned displacement")
	}
}

func TestAllBound(t *testing.T) {
	table := NewTable(newFakeBuf().read, newFakeBuf().write)
	a := table.NewLabel()
	b := table.NewLabel()

	if ok, unbound := table.AllBound(); ok || unbound != a {
		t.Errorf("AllBound() = (%v, %p), want (false, %p)", ok, unbound, a)
	}

	if err := table.Bind(a, 0); err != nil {
		t.Fatal(err)
	}
	if ok, unbound := table.AllBound(); ok || unbound != b {
		t.Errorf("AllBound() = (%v, %p), want (false, %p)", ok, unbound, b)
	}

	if err := table.Bind(b, 4); err != nil {
		t.Fatal(err)
	}
	if ok, unbound := table.AllBound(); !ok || unbound != nil {
		t.Errorf("AllBound() = (%v, %v), want (true, nil)", ok, unbound)
	}
}

func TestResetClearsLabels(t *testing.T) {
	table := NewTable(newFakeBuf().read, newFakeBuf().write)
	table.NewLabel()
	table.Reset()
	if ok, unbound := table.AllBound(); !ok || unbound != nil {
		t.Errorf("AllBound() after Reset = (%v, %v), want (true, nil)", ok, unbound)
	}
}
