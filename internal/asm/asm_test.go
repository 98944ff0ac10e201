package asm

import (
	"strings"
	"testing"
)

func TestParseListing(t *testing.T) {
	data := []byte(`{
		"name": "sym.blink",
		"addr": 1074593792,
		"ops": [
			{"offset": 1074593792, "opcode": "entry a1, 32", "type": "upush"},
			{"offset": 1074593795, "opcode": "", "disasm": "l32r a2, 0x40080004"},
			{"offset": 1074593798, "opcode": "ret.n"}
		]
	}`)

	l, err := ParseListing(data)
	if err != nil {
		t.Fatalf("ParseListing failed: %v", err)
	}
	fn, err := l.Function()
	if err != nil {
		t.Fatalf("Function failed: %v", err)
	}

	if fn.Name != "sym.blink" {
		t.Errorf("name = %q, want %q", fn.Name, "sym.blink")
	}
	if fn.Address != 0x400d0000 {
		t.Errorf("address = %#x, want %#x", fn.Address, 0x400d0000)
	}
	if fn.Len() != 3 {
		t.Fatalf("len = %d, want 3", fn.Len())
	}
	if got := fn.Instructions[1].Opcode; got != "l32r a2, 0x40080004" {
		t.Errorf("disasm fallback = %q", got)
	}
	for _, ins := range fn.Instructions {
		if ins.Arch != ArchXtensa {
			t.Errorf("arch = %v, want xtensa", ins.Arch)
		}
		if ins.Referenced {
			t.Errorf("instruction at %#x starts referenced", ins.Offset)
		}
	}
}

func TestListingErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "empty opcode",
			data: `{"name":"f","ops":[{"offset":16,"opcode":""}]}`,
			want: "empty opcode",
		},
		{
			name: "duplicate offset",
			data: `{"name":"f","ops":[{"offset":16,"opcode":"nop"},{"offset":16,"opcode":"nop"}]}`,
			want: "does not follow",
		},
		{
			name: "wide offset",
			data: `{"name":"f","ops":[{"offset":4294967296,"opcode":"nop"}]}`,
			want: "exceeds 32 bits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := ParseListing([]byte(tt.data))
			if err != nil {
				t.Fatalf("ParseListing failed: %v", err)
			}
			_, err = l.Function()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestInstructionLines(t *testing.T) {
	if lines := (Instruction{}).Lines(); lines != nil {
		t.Errorf("empty opcode lines = %v, want nil", lines)
	}
	ins := Instruction{Opcode: "tst r0, #4\nbne loc_10"}
	lines := ins.Lines()
	if len(lines) != 2 || lines[1] != "bne loc_10" {
		t.Errorf("lines = %q", lines)
	}
}

func TestFunctionOffsets(t *testing.T) {
	fn := Function{Instructions: []Instruction{{Offset: 4}, {Offset: 8}}}
	set := fn.Offsets()
	if _, ok := set[8]; !ok || len(set) != 2 {
		t.Errorf("offsets = %v", set)
	}
}

func TestLabel(t *testing.T) {
	if got := Label(DefaultLabelPrefix, 0x400d1010); got != "loc_400d1010" {
		t.Errorf("Label = %q", got)
	}
	if got := Label(".L", 0); got != ".L0" {
		t.Errorf("Label = %q", got)
	}
}
