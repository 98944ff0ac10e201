// Package colorize highlights ARM assembly for terminal output.
package colorize

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// NoColorEnv disables highlighting when set to any value.
const NoColorEnv = "XTENSA2ARM_NO_COLOR"

// Enabled reports whether output should be highlighted.
func Enabled() bool {
	return os.Getenv(NoColorEnv) == "" && os.Getenv("NO_COLOR") == ""
}

// getAssemblyLexer prefers the ARM lexer and falls back to GNU as.
func getAssemblyLexer() chroma.Lexer {
	for _, name := range []string{"armasm", "gas", "nasm"} {
		if lexer := lexers.Get(name); lexer != nil {
			return chroma.Coalesce(lexer)
		}
	}
	return nil
}

func getDisasmStyle() *chroma.Style {
	for _, name := range []string{"xtensa2arm-dark", "dracula", "monokai"} {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

func getTerminalFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Assembly highlights a block of assembly. On any failure, or when colour is
// disabled, the input is returned unchanged.
func Assembly(code string) string {
	if !Enabled() {
		return code
	}
	lexer := getAssemblyLexer()
	if lexer == nil {
		return code
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	tokens := iterator.Tokens()
	// Lexers may append a newline the input did not have.
	if n := len(tokens); n > 0 && !strings.HasSuffix(code, "\n") {
		tokens[n-1].Value = strings.TrimSuffix(tokens[n-1].Value, "\n")
	}
	var buf strings.Builder
	if err := getTerminalFormatter().Format(&buf, getDisasmStyle(), chroma.Literator(tokens...)); err != nil {
		return code
	}
	return buf.String()
}

// Lines highlights each line separately, keeping the line count intact.
func Lines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = Assembly(line)
	}
	return out
}

// StripANSI removes SGR escape sequences.
func StripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
