package vmasm

import (
	"encoding/binary"
	"fmt"
	"os"
)

// dumpVMFile writes the raw instruction words from start (inclusive) to end
// (exclusive) to <name>.vmdump, word by word. Each word is read back with
// ReadWordAt, which finds it in whichever buffer holds it, but the walk is
// linear in address, so the dump is unreliable if the procedure's code
// straddled a buffer-chain boundary: it stops at the first address that
// lies in no buffer, or, where the next buffer happens to be adjacent,
// includes the unused tail of the earlier one.
func (a *Assembler) dumpVMFile(start, end uintptr) error {
	f, err := os.Create(a.name + ".vmdump")
	if err != nil {
		return fmt.Errorf("vmasm: vmdump: %w", err)
	}
	defer f.Close()

	for addr := start; addr+4 <= end; addr += 4 {
		word, err := a.buf.ReadWordAt(addr)
		if err != nil {
			// Buffer boundary crossed; stop rather than fail the whole
			// procedure over a best-effort diagnostic dump.
			break
		}
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], word)
		if _, err := f.Write(b[:]); err != nil {
			return fmt.Errorf("vmasm: vmdump: %w", err)
		}
	}
	return nil
}
