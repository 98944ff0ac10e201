package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"xtensa2arm/internal/asm"
	"xtensa2arm/internal/elfx"
	"xtensa2arm/internal/symbols"
)

// DumpFile is the on-disk form of an offline session. Memory keys are
// addresses in any base strconv.ParseUint accepts ("0x400d0004").
type DumpFile struct {
	Image     string            `json:"image,omitempty"`
	Symbols   []symbols.Record  `json:"symbols,omitempty"`
	Functions []asm.Listing     `json:"functions"`
	Memory    map[string]uint32 `json:"memory,omitempty"`
}

// Dump serves a session from a DumpFile. Memory words missing from the dump
// are read from the ELF image when one is named.
type Dump struct {
	functions map[string]asm.Listing
	memory    map[uint32]uint32
	records   []symbols.Record
	image     *elfx.Image
}

// OpenDump loads a JSON dump. A relative image path is resolved against the
// dump's directory.
func OpenDump(path string) (*Dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}
	var file DumpFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode dump %s: %w", path, err)
	}
	if file.Image != "" && !filepath.IsAbs(file.Image) {
		file.Image = filepath.Join(filepath.Dir(path), file.Image)
	}
	return NewDump(file)
}

// NewDump builds a session from an in-memory DumpFile.
func NewDump(file DumpFile) (*Dump, error) {
	d := &Dump{
		functions: make(map[string]asm.Listing, len(file.Functions)),
		memory:    make(map[uint32]uint32, len(file.Memory)),
		records:   file.Symbols,
	}
	for _, l := range file.Functions {
		if l.Name == "" {
			return nil, fmt.Errorf("dump function at %#x has no name", l.Addr)
		}
		if _, dup := d.functions[l.Name]; dup {
			return nil, fmt.Errorf("dump function %s listed twice", l.Name)
		}
		d.functions[l.Name] = l
	}
	for key, word := range file.Memory {
		addr, err := strconv.ParseUint(key, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("dump memory key %q: %w", key, err)
		}
		d.memory[uint32(addr)] = word
	}

	if file.Image != "" {
		im, err := elfx.Open(file.Image)
		if err != nil {
			return nil, err
		}
		d.image = im
		if d.records == nil {
			for _, s := range im.Syms {
				d.records = append(d.records, symbols.Record{
					Name:  s.Name,
					Size:  uint32(s.Size),
					Vaddr: s.Addr,
					Type:  s.Type,
				})
			}
		}
	}
	return d, nil
}

func (d *Dump) Symbols(ctx context.Context) ([]symbols.Record, error) {
	return d.records, ctx.Err()
}

func (d *Dump) FunctionListing(ctx context.Context, name string) (asm.Function, error) {
	if err := ctx.Err(); err != nil {
		return asm.Function{}, err
	}
	l, ok := d.functions[name]
	if !ok {
		return asm.Function{}, fmt.Errorf("function %s: not in dump", name)
	}
	return l.Function()
}

// ReadMemory prefers words recorded in the dump over the image.
func (d *Dump) ReadMemory(ctx context.Context, addr, size uint32) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if size == 0 || size > 4 {
		return 0, &SizeError{Size: size}
	}
	if word, ok := d.memory[addr]; ok {
		var b [4]byte
		b[0], b[1], b[2], b[3] = byte(word), byte(word>>8), byte(word>>16), byte(word>>24)
		return littleEndian(b[:], size)
	}
	if d.image != nil && size == 4 {
		if word, ok := d.image.ReadUint32(uint64(addr)); ok {
			return word, nil
		}
	} else if d.image != nil {
		if b, ok := d.image.ReadBytesVA(uint64(addr), int(size)); ok {
			return littleEndian(b, size)
		}
	}
	return 0, fmt.Errorf("address %#x not in dump", addr)
}

// Close releases the ELF image, if any.
func (d *Dump) Close() error {
	if d.image == nil {
		return nil
	}
	err := d.image.Close()
	d.image = nil
	return err
}
