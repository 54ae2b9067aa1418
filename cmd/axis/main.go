// Command axis inspects and scaffolds convention-driven plugins.
//
//	axis discover [--namespace NS] [--components a,b] [--extensions .go] [--json] ROOT
//	axis parse [--json] NAME...
//	axis scaffold [--slug SLUG] [--namespace NS] [--module PATH] DIR
//	axis version
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], afero.NewOsFs(), os.Stdout, os.Stderr))
}

type command struct {
	name    string
	summary string
	run     func(args []string, fs afero.Fs, stdout io.Writer) error
}

var commands = []command{
	{"discover", "list the component types found below a source root", discoverCmd},
	{"parse", "show how hook declaration names are registered", parseCmd},
	{"scaffold", "write a plugin skeleton", scaffoldCmd},
}

func run(args []string, fs afero.Fs, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "axis %s (%s)\n", version, commit)
		return 0
	case "help", "--help", "-h":
		usage(stdout)
		return 0
	}

	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		if err := c.run(args[1:], fs, stdout); err != nil {
			fmt.Fprintf(stderr, "axis %s: %v\n", c.name, err)
			return 1
		}
		return 0
	}

	fmt.Fprintf(stderr, "axis: unknown command %q\n", args[0])
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: axis <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "  %-10s %s\n", "version", "print the version")
}
