package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"xtensa2arm/internal/asm"
	"xtensa2arm/internal/elfx/elfxtest"
	"xtensa2arm/internal/symbols"
)

// fakeR2 answers commands the way radare2 does behind r2pipe.
type fakeR2 struct {
	mu       sync.Mutex
	replies  map[string]string
	commands []string
	closed   int
}

func (f *fakeR2) Cmd(cmd string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	reply, ok := f.replies[cmd]
	if !ok {
		return "", nil
	}
	return reply + "\n", nil
}

func (f *fakeR2) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeR2) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func startFake(t *testing.T, replies map[string]string) (*R2, *fakeR2) {
	t.Helper()
	fake := &fakeR2{replies: replies}
	r := newR2(fake)
	t.Cleanup(func() { r.Close() })
	return r, fake
}

var fakeReplies = map[string]string{
	"isj": `[{"name":"app_main","size":12,"vaddr":1074597888,"type":"FUNC"},` +
		`{"name":".flash.text","size":4096,"vaddr":1074597888,"type":"SECT"},` +
		`{"name":"main.c","size":0,"vaddr":0,"type":"FILE"},` +
		`{"name":"counter","size":4,"vaddr":1073414144,"type":"OBJECT"}]`,
	"pdfj @ app_main": `{"name":"app_main","addr":1074597888,"ops":[` +
		`{"offset":1074597888,"opcode":"movi a2, 0"},` +
		`{"offset":1074597891,"opcode":"ret.n"}]}`,
	"pxj 4 @ 0x400d0004": `[13,240,254,202]`,
	"pxj 2 @ 0x400d0004": `[13,240]`,
	"pxj 4 @ 0x10":       `[]`,
}

func TestR2Prepare(t *testing.T) {
	tests := []struct {
		analysis string
		want     []string
	}{
		{"aa", []string{"e scr.color=0", "e scr.interactive=false", "aa"}},
		{"", []string{"e scr.color=0", "e scr.interactive=false"}},
	}
	for _, tt := range tests {
		r, fake := startFake(t, fakeReplies)
		if err := r.prepare(context.Background(), tt.analysis); err != nil {
			t.Fatalf("prepare(%q) failed: %v", tt.analysis, err)
		}
		if got := fake.seen(); strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("prepare(%q) sent %q, want %q", tt.analysis, got, tt.want)
		}
	}

	r, _ := startFake(t, fakeReplies)
	if err := r.prepare(context.Background(), "aa\nq!"); err == nil {
		t.Error("multi-line analysis command accepted")
	}
}

func TestR2Symbols(t *testing.T) {
	r, _ := startFake(t, fakeReplies)

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	records, err := r.Symbols(context.Background())
	if err != nil {
		t.Fatalf("Symbols failed: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}

	table, err := Table(context.Background(), r)
	if err != nil {
		t.Fatalf("Table failed: %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("table has %d objects, want 2", table.Len())
	}
	if !strings.Contains(logs.String(), "Skipped layout symbols") || !strings.Contains(logs.String(), "count=2") {
		t.Errorf("skipped records not logged:\n%s", logs.String())
	}
	obj, ok := table.Lookup(0x400d1000)
	if !ok || obj.Name != "app_main" || obj.Kind != symbols.KindFunction {
		t.Errorf("Lookup(0x400d1000) = %+v, %v", obj, ok)
	}
}

func TestR2FunctionListing(t *testing.T) {
	r, fake := startFake(t, fakeReplies)

	fn, err := r.FunctionListing(context.Background(), "app_main")
	if err != nil {
		t.Fatalf("FunctionListing failed: %v", err)
	}
	if fn.Name != "app_main" || fn.Address != 0x400d1000 || fn.Len() != 2 {
		t.Errorf("fn = %+v", fn)
	}
	if fn.Instructions[1].Offset != 0x400d1003 || fn.Instructions[1].Opcode != "ret.n" {
		t.Errorf("second instruction = %+v", fn.Instructions[1])
	}

	if _, err := r.FunctionListing(context.Background(), "missing"); err == nil {
		t.Error("empty pdfj reply accepted")
	}
	if _, err := r.FunctionListing(context.Background(), "a; rm -rf /"); err == nil {
		t.Error("command injection accepted")
	}

	want := []string{"pdfj @ app_main", "pdfj @ missing"}
	got := fake.seen()
	if len(got) != len(want) {
		t.Fatalf("commands = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestR2ReadMemory(t *testing.T) {
	r, _ := startFake(t, fakeReplies)
	ctx := context.Background()

	word, err := r.ReadMemory(ctx, 0x400d0004, 4)
	if err != nil || word != 0xcafef00d {
		t.Errorf("ReadMemory(4) = %#x, %v", word, err)
	}
	half, err := r.ReadMemory(ctx, 0x400d0004, 2)
	if err != nil || half != 0xf00d {
		t.Errorf("ReadMemory(2) = %#x, %v", half, err)
	}
	if _, err := r.ReadMemory(ctx, 0x10, 4); err == nil {
		t.Error("short pxj reply accepted")
	}
	var sizeErr *SizeError
	if _, err := r.ReadMemory(ctx, 0x10, 8); !errors.As(err, &sizeErr) {
		t.Errorf("ReadMemory(8) error = %v", err)
	}
}

func TestR2Close(t *testing.T) {
	r, fake := startFake(t, fakeReplies)

	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, err := r.Cmd(context.Background(), "isj"); !errors.Is(err, ErrClosed) {
		t.Errorf("Cmd after Close = %v", err)
	}
	if len(fake.seen()) != 0 || fake.closed != 1 {
		t.Errorf("commands = %q, closed %d times", fake.seen(), fake.closed)
	}
}

func TestR2CanceledContext(t *testing.T) {
	r, fake := startFake(t, fakeReplies)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.ReadMemory(ctx, 0x400d0004, 4); !errors.Is(err, context.Canceled) {
		t.Errorf("ReadMemory = %v, want context.Canceled", err)
	}
	if len(fake.seen()) != 0 {
		t.Error("command sent on a canceled context")
	}
}

func TestDumpSession(t *testing.T) {
	image := elfxtest.WriteImage(t, 0x400d0000, 0x11223344, 0xdeadbeef)
	dump := DumpFile{
		Image: image,
		Symbols: []symbols.Record{
			{Name: "app_main", Size: 6, Vaddr: 0x400d1000, Type: "FUNC"},
			{Name: ".text", Vaddr: 0x400d1000, Type: "SECT"},
		},
		Memory: map[string]uint32{"0x400d0004": 0xcafef00d},
	}
	dump.Functions = append(dump.Functions, fakeListing())

	d, err := NewDump(dump)
	if err != nil {
		t.Fatalf("NewDump failed: %v", err)
	}
	defer d.Close()
	ctx := context.Background()

	if word, err := d.ReadMemory(ctx, 0x400d0004, 4); err != nil || word != 0xcafef00d {
		t.Errorf("dump word = %#x, %v", word, err)
	}
	if word, err := d.ReadMemory(ctx, 0x400d0000, 4); err != nil || word != 0x11223344 {
		t.Errorf("image word = %#x, %v", word, err)
	}
	if b, err := d.ReadMemory(ctx, 0x400d0004, 1); err != nil || b != 0x0d {
		t.Errorf("dump byte = %#x, %v", b, err)
	}
	if _, err := d.ReadMemory(ctx, 0x500, 4); err == nil {
		t.Error("unmapped read succeeded")
	}

	table, err := Table(ctx, d)
	if err != nil {
		t.Fatalf("Table failed: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("table has %d objects, want 1", table.Len())
	}

	fn, err := d.FunctionListing(ctx, "app_main")
	if err != nil || fn.Len() != 2 {
		t.Errorf("FunctionListing = %+v, %v", fn, err)
	}
	if _, err := d.FunctionListing(ctx, "other"); err == nil {
		t.Error("unknown function found")
	}

	if err := d.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestOpenDump(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fw.json")
	doc := `{
  "symbols": [{"name": "app_main", "size": 6, "vaddr": 1074597888, "type": "FUNC"}],
  "functions": [{"name": "app_main", "addr": 1074597888, "ops": [
    {"offset": 1074597888, "opcode": "l32r a2, 0x400d0004"},
    {"offset": 1074597891, "opcode": "ret.n"}]}],
  "memory": {"0x400d0004": 3405705229}
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := OpenDump(path)
	if err != nil {
		t.Fatalf("OpenDump failed: %v", err)
	}
	defer d.Close()
	if word, err := d.ReadMemory(context.Background(), 0x400d0004, 4); err != nil || word != 0xcafef00d {
		t.Errorf("ReadMemory = %#x, %v", word, err)
	}
}

func TestDumpErrors(t *testing.T) {
	tests := []struct {
		name string
		dump DumpFile
	}{
		{"bad memory key", DumpFile{Memory: map[string]uint32{"nowhere": 1}}},
		{"wide memory key", DumpFile{Memory: map[string]uint32{"0x100000000": 1}}},
		{"missing image", DumpFile{Image: filepath.Join(t.TempDir(), "none.elf")}},
		{"duplicate function", DumpFile{Functions: []asm.Listing{fakeListing(), fakeListing()}}},
		{"anonymous function", DumpFile{Functions: []asm.Listing{{Addr: 0x10}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDump(tt.dump); err == nil {
				t.Error("NewDump succeeded")
			}
		})
	}
}

func fakeListing() asm.Listing {
	return asm.Listing{
		Name: "app_main",
		Addr: 0x400d1000,
		Ops: []asm.ListingOp{
			{Offset: 0x400d1000, Opcode: "movi a2, 0"},
			{Offset: 0x400d1003, Opcode: "ret.n"},
		},
	}
}
