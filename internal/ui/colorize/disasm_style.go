package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// DisasmDark is the palette used for translated listings.
var DisasmDark = styles.Register(chroma.MustNewStyle("xtensa2arm-dark", chroma.StyleEntries{
	chroma.Text:           "#FFFFFF",
	chroma.Background:     "bg:#1e1e1e",
	chroma.Comment:        "#858585", // source instruction comments
	chroma.CommentPreproc: "#858585",

	chroma.Keyword:       "#FFFFFF",
	chroma.KeywordPseudo: "#C586C0", // directives
	chroma.NameFunction:  "#FFFFFF", // mnemonics
	chroma.Name:          "#7C9C9D", // registers
	chroma.NameBuiltin:   "#7C9C9D",
	chroma.NameVariable:  "#7C9C9D",
	chroma.NameAttribute: "#C586C0",

	chroma.LiteralNumber:        "#FF5F87",
	chroma.LiteralNumberHex:     "#FF5F87",
	chroma.LiteralNumberInteger: "#FF5F87",

	chroma.NameLabel: "#FFD700",

	chroma.Operator:    "#FFFFFF",
	chroma.Punctuation: "#FFFFFF",
	chroma.String:      "#EACD53",
}))
