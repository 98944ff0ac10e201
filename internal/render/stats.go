package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"xtensa2arm/internal/asm"
)

// Result summarizes the translation of one function.
type Result struct {
	Name    string
	Address uint32
	Source  int // source instructions
	Emitted int // target instructions, counting multi-line records
	Labels  int
	Path    string
	Err     error
}

// Summarize counts what Translate produced for fn.
func Summarize(fn asm.Function) Result {
	r := Result{Name: fn.Name, Address: fn.Address, Source: fn.Len()}
	for _, ins := range fn.Instructions {
		r.Emitted += len(ins.Lines())
		if ins.Referenced {
			r.Labels++
		}
	}
	return r
}

// Stats writes a table of results followed by a totals footer.
func Stats(w io.Writer, results []Result) error {
	t := table.NewWriter()
	style := table.StyleLight
	style.Format.Footer = text.FormatDefault
	t.SetStyle(style)
	t.SetTitle("Translation")
	t.AppendHeader(table.Row{"Function", "Address", "Xtensa", "ARM", "Labels", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	var src, emitted, labels, failed int
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
			failed++
		} else {
			src += r.Source
			emitted += r.Emitted
			labels += r.Labels
		}
		t.AppendRow(table.Row{r.Name, fmt.Sprintf("%#08x", r.Address), r.Source, r.Emitted, r.Labels, status})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d functions", len(results)), "", src, emitted, labels,
		fmt.Sprintf("%d failed", failed),
	})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
