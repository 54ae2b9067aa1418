package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/kochabx/axis/hook"
)

type parsed struct {
	Name  string      `json:"name"`
	Hook  bool        `json:"hook"`
	Match *hook.Match `json:"match,omitempty"`
}

func parseCmd(args []string, _ afero.Fs, stdout io.Writer) error {
	flags := pflag.NewFlagSet("parse", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	asJSON := flags.Bool("json", false, "print JSON")
	if err := flags.Parse(args); err != nil {
		return errUsage.WithCause(err)
	}
	if flags.NArg() == 0 {
		return errUsage.With("reason", "expected at least one name")
	}

	results := make([]parsed, 0, flags.NArg())
	for _, name := range flags.Args() {
		p := parsed{Name: name}
		if m, ok := hook.Parse(hook.Normalize(name)); ok {
			p.Hook, p.Match = true, &m
		}
		results = append(results, p)
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tOPERATION\tTAG\tPRIORITY\tARGS\tDIRECTIVE\tVIRTUAL")
	for _, p := range results {
		if !p.Hook {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t-\n", p.Name)
			continue
		}
		m := p.Match
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			p.Name, m.Operation, dash(m.Tag),
			optional(m.Priority, m.HasPriority), optional(m.AcceptedArgs, m.HasAcceptedArgs),
			dash(m.Directive), m.Virtual)
	}
	return w.Flush()
}

// optional renders a number the declaration left to the default as "default".
func optional(n int, set bool) string {
	if !set {
		return "default"
	}
	return strconv.Itoa(n)
}
