package main

import (
	"fmt"
	"io"

	"github.com/nappgui/nrc/pkg/nrc/compiler"
	"github.com/nappgui/nrc/pkg/nrc/types"
)

// action is the terminal state of the legacy command line.
type action int

const (
	actionNoArgs action = iota
	actionVersion
	actionDirToCFile
	actionDirToPackedFile
	actionUnknown
)

func (a action) String() string {
	switch a {
	case actionNoArgs:
		return "NoArgs"
	case actionVersion:
		return "Version"
	case actionDirToCFile:
		return "DirToCFile"
	case actionDirToPackedFile:
		return "DirToPackedFile"
	default:
		return "Unknown"
	}
}

// invocation is a parsed legacy command line.
type invocation struct {
	action action
	src    string
	dest   string
}

// mode returns the artifact kind of a compile invocation.
func (inv invocation) mode() types.Mode {
	if inv.action == actionDirToPackedFile {
		return types.ModePacked
	}
	return types.ModeSource
}

// parseLegacy maps the argument list onto exactly one action. A known flag
// with the wrong argument count is Unknown.
func parseLegacy(args []string) invocation {
	if len(args) == 0 {
		return invocation{action: actionNoArgs}
	}

	switch args[0] {
	case "-v":
		if len(args) == 1 {
			return invocation{action: actionVersion}
		}
	case "-dc":
		if len(args) == 3 {
			return invocation{action: actionDirToCFile, src: args[1], dest: args[2]}
		}
	case "-dp":
		if len(args) == 3 {
			return invocation{action: actionDirToPackedFile, src: args[1], dest: args[2]}
		}
	}
	return invocation{action: actionUnknown}
}

func printUsage(w io.Writer) types.ExitCode {
	fmt.Fprintln(w, "usage: nrc -v")
	fmt.Fprintln(w, "       nrc -dc input_resource_dir output_c_file")
	fmt.Fprintln(w, "       nrc -dp input_resource_dir output_packed_file")
	return types.ErrorCommandLine
}

func printBanner(w io.Writer) types.ExitCode {
	fmt.Fprintf(w, "nrc (NAppGUI Resource Compiler) %s\n", version)
	fmt.Fprintln(w, copyright)
	return types.Success
}

// runLegacy executes the legacy command line.
func (a *app) runLegacy(args []string) types.ExitCode {
	inv := parseLegacy(args)

	compiles := inv.action == actionDirToCFile || inv.action == actionDirToPackedFile
	return a.within(compiles, func() types.ExitCode {
		switch inv.action {
		case actionVersion:
			return printBanner(a.stdout)
		case actionDirToCFile, actionDirToPackedFile:
			c := compiler.New(a.compilerOptions())
			return a.compile(c, compiler.Request{Src: inv.src, Dest: inv.dest, Mode: inv.mode()}, false)
		default:
			return printUsage(a.stdout)
		}
	})
}
