// Package session provides the analysis backends the translator reads from:
// a live radare2 pipe and an offline JSON dump.
package session

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"

	"xtensa2arm/internal/asm"
	"xtensa2arm/internal/symbols"
)

// Session is an opened analysis of one firmware image.
type Session interface {
	Symbols(ctx context.Context) ([]symbols.Record, error)
	FunctionListing(ctx context.Context, name string) (asm.Function, error)
	ReadMemory(ctx context.Context, addr, size uint32) (uint32, error)
	Close() error
}

// ignoredTypes are record types that describe the file layout rather than
// code or data; they never take part in call resolution.
var ignoredTypes = map[string]bool{
	"SECT":    true,
	"SECTION": true,
	"FILE":    true,
}

// Table builds the symbol table of s.
func Table(ctx context.Context, s Session) (*symbols.Table, error) {
	records, err := s.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("read symbols: %w", err)
	}
	kept := records[:0:0]
	for _, r := range records {
		if ignoredTypes[r.Type] {
			continue
		}
		kept = append(kept, r)
	}
	if dropped := len(records) - len(kept); dropped > 0 {
		slog.Debug("Skipped layout symbols", "count", dropped)
	}
	return symbols.FromRecords(kept)
}

// SizeError reports a memory read of an unsupported width.
type SizeError struct {
	Size uint32
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("unsupported read size %d", e.Size)
}

// littleEndian widens the first size bytes of b.
func littleEndian(b []byte, size uint32) (uint32, error) {
	if size == 0 || size > 4 {
		return 0, &SizeError{Size: size}
	}
	if uint32(len(b)) < size {
		return 0, fmt.Errorf("short read: got %d bytes, want %d", len(b), size)
	}
	var word [4]byte
	copy(word[:], b[:size])
	return binary.LittleEndian.Uint32(word[:]), nil
}
