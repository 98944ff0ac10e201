// Package render turns translated functions into GNU assembler source.
package render

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"xtensa2arm/internal/asm"
)

// Options controls the emitted text.
type Options struct {
	LabelPrefix string
	// Source, when set, holds the listing fn was translated from; each
	// record is then preceded by its original instruction as a comment.
	Source *asm.Function
}

func (o Options) prefix() string {
	if o.LabelPrefix == "" {
		return asm.DefaultLabelPrefix
	}
	return o.LabelPrefix
}

// Function writes fn as a self-contained assembly unit.
func Function(w io.Writer, fn asm.Function, opts Options) error {
	if opts.Source != nil && opts.Source.Len() != fn.Len() {
		return fmt.Errorf("function %s: %d source records for %d translated", fn.Name, opts.Source.Len(), fn.Len())
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "\t.syntax unified\n\t.arm\n\t.text\n")
	fmt.Fprintf(bw, "\t.global %s\n", fn.Name)
	fmt.Fprintf(bw, "\t.type %s, %%function\n", fn.Name)
	fmt.Fprintf(bw, "%s:\n", fn.Name)

	for i, ins := range fn.Instructions {
		if ins.Referenced {
			fmt.Fprintf(bw, "%s:\n", asm.Label(opts.prefix(), ins.Offset))
		}
		if opts.Source != nil {
			fmt.Fprintf(bw, "\t@ %#x: %s\n", ins.Offset, opts.Source.Instructions[i].Opcode)
		}
		for _, line := range ins.Lines() {
			fmt.Fprintf(bw, "\t%s\n", line)
		}
	}

	fmt.Fprintf(bw, "\t.size %s, .-%s\n", fn.Name, fn.Name)
	return bw.Flush()
}

// Text returns Function's output as a string.
func Text(fn asm.Function, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := Function(&buf, fn, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FileName maps a function name onto a portable file name.
func FileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '.' || r == '-' || r == '$':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	base := strings.TrimLeft(b.String(), ".")
	if base == "" {
		base = "_"
	}
	return base + ".s"
}

// WriteFile writes fn to dir/<name>.s, creating dir if needed, and returns
// the path written.
func WriteFile(dir string, fn asm.Function, opts Options) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	text, err := Text(fn, opts)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(fn.Name))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
