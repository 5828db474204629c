// Command byteflow compiles ByteFlow source to a tape-machine instruction
// stream.
//
// Usage: byteflow compile <input> [-o|--optimize] [-v|--verbose] [-h|--help]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"byteflow/internal/compiler"
	"byteflow/internal/diag"

	"github.com/charmbracelet/lipgloss"
)

const (
	exitOK       = 0
	exitUserErr  = 1
	exitCompile  = 2
	exitInternal = 3
)

var (
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	phaseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] != "compile" {
		printUsage()
		return exitUserErr
	}

	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	optimize := fs.Bool("optimize", false, "run the peephole optimizer before minifying")
	fs.BoolVar(optimize, "o", false, "alias for -optimize")
	verbose := fs.Bool("verbose", false, "print pipeline progress and diagnostics with styling")
	fs.BoolVar(verbose, "v", false, "alias for -verbose")
	help := fs.Bool("help", false, "show usage")
	fs.BoolVar(help, "h", false, "alias for -help")
	fs.SetOutput(os.Stderr)

	if err := fs.Parse(args[1:]); err != nil {
		return exitUserErr
	}
	if *help {
		printUsage()
		return exitOK
	}
	if fs.NArg() != 1 {
		printUsage()
		return exitUserErr
	}

	input := fs.Arg(0)
	data, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "byteflow: %s\n", err)
		return exitUserErr
	}

	if *verbose {
		fullPath, err := filepath.Abs(input)
		if err != nil {
			fullPath = input
		}
		fmt.Fprintln(os.Stderr, phaseStyle.Render("compiling "+fullPath))
	}

	result, diags := compiler.Compile(string(data), compiler.Options{Optimize: *optimize})
	if len(diags) > 0 {
		for _, d := range diags {
			printDiag(d, *verbose)
		}
		if hasInternal(diags) {
			return exitInternal
		}
		return exitCompile
	}

	if *verbose {
		fmt.Fprintln(os.Stderr, okStyle.Render(fmt.Sprintf("ok: %d tokens, %d instructions", result.Tokens, len(result.Program))))
	}
	fmt.Println(result.Program)
	return exitOK
}

func printDiag(d diag.Diagnostic, styled bool) {
	if !styled {
		fmt.Fprintln(os.Stderr, d.Error())
		return
	}
	fmt.Fprintln(os.Stderr, errStyle.Render(d.Error()))
}

func hasInternal(diags []diag.Diagnostic) bool {
	for _, d := range diags {
		if d.Kind == diag.Internal {
			return true
		}
	}
	return false
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: byteflow compile <input> [-o|--optimize] [-v|--verbose] [-h|--help]")
}
