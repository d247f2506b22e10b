package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nappgui/nrc/pkg/nrc/logging"
	"github.com/nappgui/nrc/pkg/nrc/types"
	"github.com/spf13/cobra"
)

var logger = logging.Get("cli")

// subcommands are first words that select the cobra command tree instead of
// the legacy flag syntax.
var subcommands = map[string]bool{
	"version":    true,
	"config":     true,
	"history":    true,
	"inspect":    true,
	"watch":      true,
	"help":       true,
	"completion": true,
}

// run executes one nrc invocation and returns its exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) types.ExitCode {
	a := newApp(ctx, stdout, stderr)
	if len(args) > 0 && subcommands[args[0]] {
		return a.runCommand(args)
	}
	return a.runLegacy(args)
}

func (a *app) newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nrc",
		Short: "Compile a resource directory into C source or a packed file",
		Long: `nrc embeds every file of a resource directory into a build artifact.

Legacy usage:
  nrc -v                                     # version and copyright
  nrc -dc input_resource_dir output_c_file   # C source with byte arrays
  nrc -dp input_resource_dir output_packed   # packed binary container

The artifact is only rewritten when the resource contents change.

Exit codes:
  0 success, 1 up to date, 2 warnings, 3 errors, 4 command line, 5 asserts`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ~/.config/nrc/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&a.verbose, "verbose", a.verbose, "debug output on stderr (env NRC_VERBOSE)")

	rootCmd.AddCommand(
		a.newVersionCmd(),
		a.newConfigCmd(),
		a.newHistoryCmd(),
		a.newInspectCmd(),
		a.newWatchCmd(),
	)
	return rootCmd
}

// runCommand executes a subcommand. Argument errors map to
// ErrorCommandLine; the command's own outcome is left in a.code.
func (a *app) runCommand(args []string) types.ExitCode {
	rootCmd := a.newRootCmd()
	rootCmd.SetArgs(args)

	a.code = types.Success
	if err := rootCmd.ExecuteContext(a.ctx); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		fmt.Fprintf(a.stderr, "Run 'nrc help' for usage.\n")
		return types.ErrorCommandLine
	}
	return a.code
}

// bracket runs fn inside the core lifecycle and records its exit code.
// An error from fn is printed and becomes WithErrors.
func (a *app) bracket(withHistory bool, fn func() (types.ExitCode, error)) {
	a.code = a.within(withHistory, func() types.ExitCode {
		code, err := fn()
		if err != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
			if code < types.WithErrors {
				code = types.WithErrors
			}
		}
		return code
	})
}
