package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/nappgui/nrc/pkg/nrc/report"
	"github.com/nappgui/nrc/pkg/nrc/types"
	"github.com/spf13/cobra"
)

func (a *app) newInspectCmd() *cobra.Command {
	var (
		format  string
		extract string
	)

	inspectCmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "List the resources stored in a generated artifact",
		Long: fmt.Sprintf(`List the resources of a C source or packed file written by nrc.

The artifact kind is detected from its content. With --extract the raw
bytes of one resource are written to stdout instead.

Formats: %s`, strings.Join(report.Available(), ", ")),
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a.bracket(false, func() (types.ExitCode, error) {
				return a.runInspect(args[0], format, extract)
			})
		},
	}
	inspectCmd.Flags().StringVarP(&format, "format", "f", "plain", "output format")
	inspectCmd.Flags().StringVarP(&extract, "extract", "x", "", "write the named resource to stdout")
	return inspectCmd
}

func (a *app) runInspect(path, format, extract string) (types.ExitCode, error) {
	inv, err := report.Load(path)
	if err != nil {
		return types.WithErrors, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if extract != "" {
		data, err := inv.Extract(extract)
		if err != nil {
			return types.WithErrors, err
		}
		if _, err := a.stdout.Write(data); err != nil {
			return types.WithErrors, err
		}
		return types.Success, nil
	}

	formatter, err := report.Get(format)
	if err != nil {
		return types.ErrorCommandLine, err
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, inv); err != nil {
		return types.WithErrors, err
	}
	if buf.Len() > 0 && buf.Bytes()[buf.Len()-1] != '\n' {
		buf.WriteByte('\n')
	}
	if _, err := a.stdout.Write(buf.Bytes()); err != nil {
		return types.WithErrors, err
	}
	return types.Success, nil
}
