package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/pprof"

	charmlog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"xtensa2arm/internal/asm"
	"xtensa2arm/internal/config"
	"xtensa2arm/internal/render"
	"xtensa2arm/internal/session"
	"xtensa2arm/internal/symbols"
	"xtensa2arm/internal/translate"
	"xtensa2arm/internal/ui/colorize"
)

var translateCmd = &cobra.Command{
	Use:   "translate <input>",
	Short: "Translate functions and write one .s file per function",
	Long: `Translate opens the input with radare2 (or as an offline dump), translates
the selected functions and writes <output>/<function>.s for each of them.
A summary table is printed when the run is done.`,
	Example: `
# Translate everything into ./out
xtensa2arm translate firmware.elf

# Only app_main, keeping the Xtensa source as comments
xtensa2arm translate firmware.elf -f app_main --comments --print
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cpuprofile, _ := cmd.Flags().GetString("cpuprofile"); cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %v", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %v", err)
			}
			defer pprof.StopCPUProfile()
		}

		ctx := cmd.Context()
		sess, err := openSession(ctx, cmd, cfg, args[0])
		if err != nil {
			return err
		}
		defer sess.Close()

		lg := newLogger(cfg)
		defer lg.Close()

		printAsm, _ := cmd.Flags().GetBool("print")
		comments, _ := cmd.Flags().GetBool("comments")
		out := cmd.OutOrStdout()
		opts := runOptions{
			Print:    printAsm,
			Color:    printAsm && term.IsTerminal(os.Stdout.Fd()) && colorize.Enabled(),
			Comments: comments,
			Out:      out,
			Logger:   lg.Logger,
		}

		results, runErr := translateSession(ctx, sess, cfg, opts)
		if len(results) > 0 {
			if err := render.Stats(out, results); err != nil {
				return err
			}
		}
		return runErr
	},
}

func init() {
	addTranslateFlags(translateCmd.Flags())
}

func addTranslateFlags(fs *pflag.FlagSet) {
	fs.StringP("output", "o", "", "Output directory (default \"out\")")
	fs.StringSliceP("function", "f", nil, "Function to translate (repeatable; default all)")
	fs.Bool("fail-fast", false, "Stop at the first function that fails")
	fs.String("label-prefix", "", "Prefix of branch labels (default \"loc_\")")
	fs.BoolP("print", "p", false, "Also print the assembly to stdout")
	fs.Bool("comments", false, "Keep each Xtensa instruction as a comment")
	fs.String("cpuprofile", "", "Write CPU profile to file")
}

type runOptions struct {
	Print    bool
	Color    bool
	Comments bool
	Out      io.Writer
	Logger   *charmlog.Logger
}

// FailedError reports how many functions of a run could not be translated.
type FailedError struct {
	Failed, Total int
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("%d of %d functions failed to translate", e.Failed, e.Total)
}

// translateSession runs the whole pipeline over sess and returns one result
// per attempted function.
func translateSession(ctx context.Context, sess session.Session, cfg config.Config, opts runOptions) ([]render.Result, error) {
	table, err := session.Table(ctx, sess)
	if err != nil {
		return nil, err
	}
	targets, err := selectFunctions(table, cfg)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, errors.New("no function symbols to translate")
	}

	tr := translate.New(table, sess,
		translate.WithLogger(opts.Logger),
		translate.WithLabelPrefix(cfg.LabelPrefix),
	)

	results := make([]render.Result, 0, len(targets))
	failed := 0
	for _, obj := range targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := translateOne(ctx, sess, tr, obj, cfg, opts)
		results = append(results, res)
		if res.Err == nil {
			slog.Debug("Translated function", "name", res.Name, "path", res.Path, "records", res.Source)
			continue
		}
		failed++
		if opts.Logger != nil {
			opts.Logger.Error("translation failed", "function", obj.Name, "err", res.Err)
		}
		if cfg.FailFast {
			return results, res.Err
		}
	}
	if failed > 0 {
		return results, &FailedError{Failed: failed, Total: len(targets)}
	}
	return results, nil
}

// selectFunctions returns the configured functions, or every function symbol,
// in address order. Every configured name must be a function symbol.
func selectFunctions(table *symbols.Table, cfg config.Config) ([]symbols.Object, error) {
	for _, name := range cfg.Functions {
		obj, ok := table.ByName(name)
		if !ok {
			return nil, fmt.Errorf("no symbol named %s", name)
		}
		if obj.Kind != symbols.KindFunction {
			return nil, fmt.Errorf("symbol %s is %s, not a function", name, obj.Kind)
		}
	}
	var out []symbols.Object
	for _, obj := range table.Functions() {
		if cfg.Selected(obj.Name) {
			out = append(out, obj)
		}
	}
	return out, nil
}

func translateOne(ctx context.Context, sess session.Session, tr *translate.Translator, obj symbols.Object, cfg config.Config, opts runOptions) render.Result {
	fail := func(err error) render.Result {
		return render.Result{Name: obj.Name, Address: obj.Address, Err: err}
	}

	src, err := sess.FunctionListing(ctx, obj.Name)
	if err != nil {
		return fail(err)
	}
	out, err := tr.Translate(ctx, src)
	if err != nil {
		return fail(err)
	}

	ropts := render.Options{LabelPrefix: tr.LabelPrefix()}
	if opts.Comments {
		ropts.Source = &src
	}
	path, err := render.WriteFile(cfg.OutputDir, out, ropts)
	if err != nil {
		return fail(err)
	}
	if opts.Print && opts.Out != nil {
		if err := printFunction(opts.Out, out, ropts, opts.Color); err != nil {
			return fail(err)
		}
	}

	res := render.Summarize(out)
	res.Path = path
	return res
}

func printFunction(w io.Writer, fn asm.Function, opts render.Options, color bool) error {
	text, err := render.Text(fn, opts)
	if err != nil {
		return err
	}
	if color {
		text = colorize.Assembly(text)
	}
	_, err = fmt.Fprintln(w, text)
	return err
}
