package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nappgui/nrc/pkg/core"
	"github.com/nappgui/nrc/pkg/nrc/compiler"
	"github.com/nappgui/nrc/pkg/nrc/config"
	"github.com/nappgui/nrc/pkg/nrc/logging"
	"github.com/nappgui/nrc/pkg/nrc/report"
	"github.com/nappgui/nrc/pkg/nrc/scanner"
	"github.com/nappgui/nrc/pkg/nrc/state"
	"github.com/nappgui/nrc/pkg/nrc/types"
	"github.com/spf13/viper"
)

// app holds the per-invocation state shared by the legacy driver and the
// subcommands.
type app struct {
	ctx    context.Context
	stdout io.Writer
	stderr io.Writer

	cfgFile string
	verbose bool

	cfg     *config.Config
	history *state.History
	core    *core.Core

	// code is the exit code of the last subcommand.
	code types.ExitCode
}

func newApp(ctx context.Context, stdout, stderr io.Writer) *app {
	return &app{
		ctx:     ctx,
		stdout:  stdout,
		stderr:  stderr,
		verbose: envBool("NRC_VERBOSE"),
	}
}

// within brackets fn with the core lifecycle. The logging subsystem is
// always started; the history store only when withHistory is set. A core
// still holding users at exit turns the result into WithAsserts.
func (a *app) within(withHistory bool, fn func() types.ExitCode) types.ExitCode {
	a.loadConfig()

	subsystems := []core.Subsystem{{
		Name:     "logging",
		Init:     a.initLogging,
		Teardown: logging.Close,
	}}
	if withHistory && a.cfg.State.Enabled {
		subsystems = append(subsystems, core.Subsystem{
			Name:     "state",
			Init:     a.openHistory,
			Teardown: a.closeHistory,
		})
	}
	a.core = core.New(subsystems...)

	if err := a.core.Start(); err != nil {
		fmt.Fprintf(a.stderr, "nrc: %v\n", err)
		return types.WithErrors
	}

	code := fn()

	if err := a.core.Finish(); err != nil {
		fmt.Fprintf(a.stderr, "nrc: %v\n", err)
	}
	if err := a.core.Close(); err != nil {
		fmt.Fprintf(a.stderr, "nrc: %v\n", err)
		if errors.Is(err, core.ErrLeak) {
			return types.WithAsserts
		}
	}
	return code
}

// loadConfig reads the configuration. A broken file is reported and the
// defaults are used, so the legacy contract never depends on it.
func (a *app) loadConfig() {
	if a.cfg != nil {
		return
	}

	var (
		cfg *config.Config
		err error
	)
	if a.cfgFile != "" {
		cfg, err = config.LoadFile(a.cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(a.stderr, "nrc: %v (using defaults)\n", err)
		cfg = defaultConfig()
	}
	a.cfg = cfg
}

func defaultConfig() *config.Config {
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.Decode(v)
	if err != nil {
		return &config.Config{
			Exclude:        config.DefaultExclusions,
			SkipHidden:     config.DefaultSkipHidden,
			FollowSymlinks: config.DefaultFollowSymlinks,
		}
	}
	return cfg
}

func (a *app) initLogging() error {
	cfg, err := logging.FromSettings(a.cfg.Logging)
	if err != nil {
		fmt.Fprintf(a.stderr, "nrc: logging: %v (using defaults)\n", err)
		cfg = logging.DefaultConfig()
	}
	if a.verbose {
		cfg.ConsoleLevel = "debug"
		cfg.Console = a.stderr
	}
	if err := logging.Init(cfg); err != nil {
		// An unwritable log file does not fail the build.
		fmt.Fprintf(a.stderr, "nrc: %v\n", err)
	}
	return nil
}

// openHistory opens the history store. It is best effort: another nrc
// process may hold the store lock during a parallel build.
func (a *app) openHistory() error {
	path, err := config.ExpandPath(a.cfg.StatePath())
	if err != nil {
		logging.Get("state").Warn("history disabled", "error", err)
		return nil
	}
	h, err := state.Open(path)
	if err != nil {
		logging.Get("state").Warn("history disabled", "path", path, "error", err)
		return nil
	}
	a.history = h

	if days := a.cfg.State.RetentionDays; days > 0 {
		if n, err := h.Prune(days); err != nil {
			logging.Get("state").Warn("pruning history", "error", err)
		} else if n > 0 {
			logging.Get("state").Debug("pruned history", "removed", n)
		}
	}
	return nil
}

func (a *app) closeHistory() error {
	if a.history == nil {
		return nil
	}
	err := a.history.Close()
	a.history = nil
	return err
}

func (a *app) compilerOptions() compiler.Options {
	opts := compiler.DefaultOptions()
	opts.Scan = scanner.Options{
		Exclude:        a.cfg.Exclude,
		SkipHidden:     a.cfg.SkipHidden,
		FollowSymlinks: a.cfg.FollowSymlinks,
	}
	if a.history != nil {
		opts.History = a.history
	}
	return opts
}

// compile runs one request and prints its diagnostics.
func (a *app) compile(c *compiler.Compiler, req compiler.Request, summary bool) types.ExitCode {
	res := c.Compile(a.ctx, req)

	p := a.printer()
	p.Diagnostics(res)
	if summary || a.verbose {
		p.Summary(req.Dest, res)
	}
	return res.ExitCode()
}

func (a *app) printer() *report.Printer {
	styled := false
	if f, ok := a.stdout.(*os.File); ok {
		styled = report.IsTerminal(f)
	}
	return report.NewPrinter(a.stdout, styled)
}

func envBool(name string) bool {
	switch os.Getenv(name) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	}
	return false
}
