// Package elfx opens 32-bit ELF images, maps virtual addresses to file offsets and reads
// literal words and symbols out of the mapped file.
package elfx

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"os"
	"syscall"
)

type Image struct {
	Path  string
	File  *elf.File
	All   []byte
	Loads []Seg
	Syms  []Sym
	f     *os.File
}

type Seg struct {
	Vaddr, Off, Filesz uint64
	Flags              elf.ProgFlag
}

// Sym is a defined symbol with its type spelled the way radare2 prints it.
type Sym struct {
	Name string
	Addr uint64
	Size uint64
	Type string
}

func Open(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf: %w", err)
	}
	if f.Class != elf.ELFCLASS32 {
		f.Close()
		return nil, fmt.Errorf("open elf: %s is %v, want ELFCLASS32", path, f.Class)
	}

	of, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open file: %w", err)
	}

	fi, err := of.Stat()
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	all, err := syscall.Mmap(int(of.Fd()), 0, int(fi.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		of.Close()
		f.Close()
		return nil, fmt.Errorf("mmap file: %w", err)
	}

	im := &Image{Path: path, File: f, All: all, f: of}
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		im.Loads = append(im.Loads, Seg{
			Vaddr:  p.Vaddr,
			Off:    p.Off,
			Filesz: p.Filesz,
			Flags:  p.Flags,
		})
	}

	im.loadSymbols()
	return im, nil
}

// Close unmaps the memory and closes the underlying files.
func (im *Image) Close() error {
	var err1, err2 error
	if im.All != nil {
		err1 = syscall.Munmap(im.All)
		im.All = nil
	}
	if im.f != nil {
		err2 = im.f.Close()
		im.f = nil
	}
	if im.File != nil {
		err3 := im.File.Close()
		if err3 != nil && err2 == nil {
			err2 = err3
		}
		im.File = nil
	}
	if err1 != nil {
		return err1
	}
	return err2
}

// VA2Off translates a virtual address into a file offset
// using PT_LOAD segments. It returns false if VA is unmapped.
func (im *Image) VA2Off(va uint64) (uint64, bool) {
	for _, l := range im.Loads {
		if va >= l.Vaddr && va < l.Vaddr+l.Filesz {
			return l.Off + (va - l.Vaddr), true
		}
	}
	return 0, false
}

// SliceVA returns a subslice of the mapped file corresponding to the virtual address range [va, va+size).
// It returns (nil, false) if the VA is unmapped or the range is out of bounds.
func (im *Image) SliceVA(va uint64, size uint64) ([]byte, bool) {
	off, ok := im.VA2Off(va)
	if !ok {
		return nil, false
	}
	if size == 0 {
		return []byte{}, true
	}
	end := off + size
	if end > uint64(len(im.All)) {
		return nil, false
	}
	return im.All[off:end], true
}

// ReadBytesVA reads exactly size bytes from a virtual address.
// Returns false if VA is unmapped or size extends beyond file bounds.
func (im *Image) ReadBytesVA(va uint64, size int) ([]byte, bool) {
	if size <= 0 {
		return []byte{}, true
	}
	return im.SliceVA(va, uint64(size))
}

// ReadUint32 reads a little-endian word, as stored in Xtensa literal pools.
func (im *Image) ReadUint32(va uint64) (uint32, bool) {
	b, ok := im.SliceVA(va, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// symbolType spells an ELF symbol type the way radare2's isj does.
func symbolType(t elf.SymType) string {
	switch t {
	case elf.STT_NOTYPE:
		return "NOTYPE"
	case elf.STT_OBJECT:
		return "OBJECT"
	case elf.STT_FUNC:
		return "FUNC"
	case elf.STT_SECTION:
		return "SECT"
	case elf.STT_FILE:
		return "FILE"
	default:
		return t.String()
	}
}

// loadSymbols loads defined symbols from .symtab.
func (im *Image) loadSymbols() {
	if im.File == nil {
		return
	}

	syms, err := im.File.Symbols()
	if err != nil {
		return // .symtab not available or stripped
	}

	for _, sym := range syms {
		// Skip undefined symbols
		if sym.Section == elf.SHN_UNDEF || sym.Value == 0 {
			continue
		}
		im.Syms = append(im.Syms, Sym{
			Name: sym.Name,
			Addr: sym.Value,
			Size: sym.Size,
			Type: symbolType(elf.ST_TYPE(sym.Info)),
		})
	}
}

