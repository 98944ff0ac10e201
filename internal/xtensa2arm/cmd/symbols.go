package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"xtensa2arm/internal/session"
	"xtensa2arm/internal/symbols"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols <input>",
	Short: "List the symbol table used to resolve calls",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sess, err := openSession(cmd.Context(), cmd, cfg, args[0])
		if err != nil {
			return err
		}
		defer sess.Close()

		tbl, err := session.Table(cmd.Context(), sess)
		if err != nil {
			return err
		}
		onlyFuncs, _ := cmd.Flags().GetBool("functions")
		return writeSymbols(cmd.OutOrStdout(), tbl, onlyFuncs)
	},
}

func init() {
	symbolsCmd.Flags().Bool("functions", false, "Only list function symbols")
}

func writeSymbols(w io.Writer, tbl *symbols.Table, onlyFuncs bool) error {
	objects := tbl.Objects()
	if onlyFuncs {
		objects = tbl.Functions()
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Symbols (%d)", len(objects)))
	t.AppendHeader(table.Row{"Address", "Size", "Kind", "Name"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	for _, o := range objects {
		t.AppendRow(table.Row{fmt.Sprintf("%#08x", o.Address), o.Size, o.Kind.String(), o.DisplayName()})
	}
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	total, hits, top := symbols.CacheStats()
	slog.Debug("Demangle cache", "names", total, "hits", hits, "top", top)
	return nil
}
