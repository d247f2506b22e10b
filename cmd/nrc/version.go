package main

import (
	"fmt"
	"runtime"

	"github.com/nappgui/nrc/pkg/nrc/types"
	"github.com/spf13/cobra"
)

// Build-time variables set by go build -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const copyright = "Copyright (c) 2015-2024 Francisco Garcia Collado. MIT Licence."

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Display the version, commit hash, and build date of nrc.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a.bracket(false, func() (types.ExitCode, error) {
				code := printBanner(a.stdout)
				fmt.Fprintf(a.stdout, "  commit:  %s\n", commit)
				fmt.Fprintf(a.stdout, "  built:   %s\n", date)
				fmt.Fprintf(a.stdout, "  go:      %s\n", runtime.Version())
				fmt.Fprintf(a.stdout, "  os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
				return code, nil
			})
		},
	}
}
