package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/radareorg/r2pipe-go"
	"github.com/tebeka/atexit"

	"xtensa2arm/internal/asm"
	"xtensa2arm/internal/symbols"
)

// ErrClosed is returned by commands issued after Close.
var ErrClosed = errors.New("radare2 session closed")

// pipe is the part of *r2pipe.Pipe the session drives.
type pipe interface {
	Cmd(cmd string) (string, error)
	Close() error
}

// R2 is a radare2 session over r2pipe. Commands are serialized, so one
// session can be shared by concurrent callers.
type R2 struct {
	mu     sync.Mutex
	pipe   pipe
	exitID atexit.HandlerID
	closed bool
}

// R2Options configures OpenR2.
type R2Options struct {
	Analysis string // command run once after loading, e.g. "aa"
}

// setup turns off everything that would decorate command output.
var setup = []string{"e scr.color=0", "e scr.interactive=false"}

// OpenR2 starts radare2 on file and runs the analysis command.
func OpenR2(ctx context.Context, file string, opts R2Options) (*R2, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := r2pipe.NewPipe(file)
	if err != nil {
		return nil, fmt.Errorf("start radare2: %w", err)
	}
	slog.Debug("radare2 started", "file", file)

	r := newR2(p)
	if err := r.prepare(ctx, opts.Analysis); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

// prepare applies the output settings and runs the analysis command.
func (r *R2) prepare(ctx context.Context, analysis string) error {
	commands := append([]string{}, setup...)
	if analysis != "" {
		commands = append(commands, analysis)
	}
	for _, c := range commands {
		if _, err := r.Cmd(ctx, c); err != nil {
			return fmt.Errorf("radare2 setup: %w", err)
		}
	}
	return nil
}

func newR2(p pipe) *R2 {
	r := &R2{pipe: p}
	// Handlers run under the atexit lock, so the exit path must not cancel.
	r.exitID = atexit.Register(func() { _ = r.shutdown(false) })
	return r
}

// Cmd runs one radare2 command and returns its output.
func (r *R2) Cmd(ctx context.Context, command string) (string, error) {
	if strings.ContainsAny(command, "\n\x00") {
		return "", fmt.Errorf("radare2 command %q: embedded line break", command)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := r.pipe.Cmd(command)
	if err != nil {
		return "", fmt.Errorf("radare2 %q: %w", command, err)
	}
	return strings.TrimRight(out, "\x00"), nil
}

// CmdJSON runs command and decodes its JSON output into v.
func (r *R2) CmdJSON(ctx context.Context, command string, v any) error {
	out, err := r.Cmd(ctx, command)
	if err != nil {
		return err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return fmt.Errorf("radare2 %q: empty reply", command)
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		return fmt.Errorf("radare2 %q: %w", command, err)
	}
	return nil
}

// Symbols returns the `isj` symbol records.
func (r *R2) Symbols(ctx context.Context) ([]symbols.Record, error) {
	out, err := r.Cmd(ctx, "isj")
	if err != nil {
		return nil, err
	}
	return symbols.ParseRecords([]byte(strings.TrimSpace(out)))
}

// FunctionListing returns the `pdfj` listing of the named function.
func (r *R2) FunctionListing(ctx context.Context, name string) (asm.Function, error) {
	if name == "" || strings.ContainsAny(name, " ;@|>`\"'") {
		return asm.Function{}, fmt.Errorf("function name %q: not a radare2 flag", name)
	}
	out, err := r.Cmd(ctx, "pdfj @ "+name)
	if err != nil {
		return asm.Function{}, err
	}
	if strings.TrimSpace(out) == "" {
		return asm.Function{}, fmt.Errorf("function %s: no listing", name)
	}
	l, err := asm.ParseListing([]byte(out))
	if err != nil {
		return asm.Function{}, fmt.Errorf("function %s: %w", name, err)
	}
	if l.Name == "" {
		l.Name = name
	}
	return l.Function()
}

// ReadMemory reads size little-endian bytes at addr with `pxj`.
func (r *R2) ReadMemory(ctx context.Context, addr, size uint32) (uint32, error) {
	if size == 0 || size > 4 {
		return 0, &SizeError{Size: size}
	}
	var raw []byte
	var values []int
	if err := r.CmdJSON(ctx, fmt.Sprintf("pxj %d @ %#x", size, addr), &values); err != nil {
		return 0, err
	}
	for _, v := range values {
		if v < 0 || v > 0xff {
			return 0, fmt.Errorf("pxj @ %#x: byte value %d out of range", addr, v)
		}
		raw = append(raw, byte(v))
	}
	return littleEndian(raw, size)
}

// Close quits radare2 and waits for it to exit. It is safe to call twice.
func (r *R2) Close() error {
	return r.shutdown(true)
}

func (r *R2) shutdown(cancel bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if cancel {
		_ = r.exitID.Cancel()
	}
	return r.pipe.Close()
}
