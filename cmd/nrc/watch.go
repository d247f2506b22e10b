package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nappgui/nrc/pkg/nrc/compiler"
	"github.com/nappgui/nrc/pkg/nrc/types"
	"github.com/nappgui/nrc/pkg/nrc/watcher"
	"github.com/spf13/cobra"
)

func (a *app) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <-dc|-dp> <input_resource_dir> <output_file>",
		Short: "Rebuild an artifact whenever its resources change",
		Long: `Compile once, then watch the resource directory and rebuild after
every burst of changes. Stops on Ctrl-C.

The flag and operands are those of the legacy command line.`,
		// -dc and -dp are operands, not cobra shorthand flags.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
				return cmd.Help()
			}
			inv := parseLegacy(args)
			if inv.action != actionDirToCFile && inv.action != actionDirToPackedFile {
				return fmt.Errorf("%w: watch needs -dc or -dp with a directory and an output file", types.ErrCommandLine)
			}
			a.bracket(true, func() (types.ExitCode, error) {
				return a.runWatch(inv)
			})
			return nil
		},
	}
}

func (a *app) runWatch(inv invocation) (types.ExitCode, error) {
	c := compiler.New(a.compilerOptions())
	req := compiler.Request{Src: inv.src, Dest: inv.dest, Mode: inv.mode()}

	code := a.compile(c, req, true)
	if code == types.WithErrors && a.ctx.Err() != nil {
		return code, nil
	}

	w, err := watcher.New(inv.src, watcher.Options{
		Debounce: a.cfg.Watch.Debounce,
		Ignore:   []string{inv.dest},
	})
	if err != nil {
		return types.WithErrors, fmt.Errorf("failed to watch %s: %w", inv.src, err)
	}
	defer w.Close()

	logger.Info("watching", "src", w.Root(), "dest", inv.dest, "mode", req.Mode)
	fmt.Fprintf(a.stdout, "Watching %s (Ctrl-C to stop)\n", w.Root())

	err = w.Run(a.ctx, func(ctx context.Context, changed []string) {
		logger.Debug("rebuilding", "changed", len(changed))
		code = a.compile(c, req, true)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return types.WithErrors, err
	}
	return code, nil
}
