package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/fang"
	charmlog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"

	"xtensa2arm/internal/config"
	"xtensa2arm/internal/logging"
	"xtensa2arm/internal/session"
	"xtensa2arm/internal/xtensa2arm/log"
)

var rootCmd = &cobra.Command{
	Use:   "xtensa2arm",
	Short: "Statically translate Xtensa firmware functions to ARM assembly",
	Long: `xtensa2arm reads Xtensa functions from a radare2 analysis of a firmware image,
or from an offline JSON dump, and rewrites them as ARM assembly that can be
reassembled with GNU as.`,
	Example: `
# Translate every function of an ESP32 image
xtensa2arm translate firmware.elf

# Translate two functions from an offline dump and print the result
xtensa2arm translate --dump fw.json -f app_main -f uart_write --print

# Browse the functions of an image interactively
xtensa2arm browse firmware.elf
  `,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := ResolveCwd(cmd); err != nil {
			return err
		}
		debug, _ := cmd.Flags().GetBool("debug")
		logFile, _ := cmd.Flags().GetString("log-file")
		log.Setup(logFile, debug || logging.IsDebug())
		return nil
	},
}

func init() {
	addGlobalFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(translateCmd, symbolsCmd, browseCmd, schemaCmd)
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.StringP("cwd", "c", "", "Current working directory")
	fs.String("config", "", "YAML configuration file")
	fs.BoolP("debug", "d", false, "Debug")
	fs.String("log-file", "", "Write diagnostics to this file instead of stderr")
	fs.String("analysis", "", "radare2 analysis command")
	fs.Bool("dump", false, "Treat the input as an offline JSON dump")
}

// Execute runs the root command and exits through atexit so that sessions
// registered for cleanup are closed.
func Execute() {
	ctx := context.Background()

	var err error
	if term.IsTerminal(os.Stdout.Fd()) {
		err = fang.Execute(ctx, rootCmd, fang.WithNotifySignal(os.Interrupt))
	} else {
		// Plain cobra keeps piped output free of fang's styling.
		err = rootCmd.ExecuteContext(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	if err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// loadConfig reads --config and applies the flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("analysis") {
		cfg.Analysis, _ = flags.GetString("analysis")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if f := flags.Lookup("output"); f != nil && f.Changed {
		cfg.OutputDir = f.Value.String()
	}
	if f := flags.Lookup("function"); f != nil && f.Changed {
		cfg.Functions, _ = flags.GetStringSlice("function")
	}
	if f := flags.Lookup("fail-fast"); f != nil && f.Changed {
		cfg.FailFast, _ = flags.GetBool("fail-fast")
	}
	if f := flags.Lookup("label-prefix"); f != nil && f.Changed {
		cfg.LabelPrefix = f.Value.String()
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger returns the charm logger handed to the translator.
func newLogger(cfg config.Config) *logging.LoggerCloser {
	lg := logging.NewLogger()
	if cfg.Debug {
		lg.SetLevel(charmlog.DebugLevel)
	}
	return lg
}

// openSession opens input as a dump when asked to, or when it looks like one,
// and as a radare2 session otherwise.
func openSession(ctx context.Context, cmd *cobra.Command, cfg config.Config, input string) (session.Session, error) {
	dump, _ := cmd.Flags().GetBool("dump")
	if dump || strings.EqualFold(filepath.Ext(input), ".json") {
		d, err := session.OpenDump(input)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	if _, err := os.Stat(input); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", input)
		}
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	r2, err := session.OpenR2(ctx, input, session.R2Options{Analysis: cfg.Analysis})
	if err != nil {
		return nil, err
	}
	return r2, nil
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}
