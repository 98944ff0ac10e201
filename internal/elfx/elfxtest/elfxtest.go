// Package elfxtest writes minimal ELF32 images for tests.
package elfxtest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WriteImage writes a section-less little-endian Xtensa executable with one
// PT_LOAD segment holding words at vaddr, and returns its path.
func WriteImage(t testing.TB, vaddr uint32, words ...uint32) string {
	t.Helper()

	const ehsize, phsize = 52, 32
	payload := new(bytes.Buffer)
	for _, w := range words {
		binary.Write(payload, binary.LittleEndian, w)
	}

	hdr := elf.Header32{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_XTENSA),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     vaddr,
		Phoff:     ehsize,
		Ehsize:    ehsize,
		Phentsize: phsize,
		Phnum:     1,
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	prog := elf.Prog32{
		Type:   uint32(elf.PT_LOAD),
		Off:    ehsize + phsize,
		Vaddr:  vaddr,
		Paddr:  vaddr,
		Filesz: uint32(payload.Len()),
		Memsz:  uint32(payload.Len()),
		Flags:  uint32(elf.PF_R | elf.PF_X),
		Align:  4,
	}

	out := new(bytes.Buffer)
	binary.Write(out, binary.LittleEndian, hdr)
	binary.Write(out, binary.LittleEndian, prog)
	out.Write(payload.Bytes())

	path := filepath.Join(t.TempDir(), "image.elf")
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}
