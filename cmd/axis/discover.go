package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/kochabx/axis/errors"
	"github.com/kochabx/axis/finder"
	"github.com/kochabx/axis/starter"
)

var errUsage = errors.Configuration("invalid arguments")

func discoverCmd(args []string, fs afero.Fs, stdout io.Writer) error {
	flags := pflag.NewFlagSet("discover", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	namespace := flags.StringP("namespace", "n", "", "namespace of the source root")
	components := flags.StringSliceP("components", "c", starter.DefaultComponents, "component role directories")
	extensions := flags.StringSliceP("extensions", "e", []string{".go"}, "source file extensions")
	asJSON := flags.Bool("json", false, "print JSON")
	if err := flags.Parse(args); err != nil {
		return errUsage.WithCause(err)
	}
	if flags.NArg() != 1 {
		return errUsage.With("reason", "expected one source root")
	}

	f := finder.NewAutoDiscover(*components, *namespace, flags.Arg(0),
		finder.WithFs(fs),
		finder.WithExtensions(*extensions...),
	)
	types, err := f.Find()
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(types)
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REGION\tCOMPONENT\tCONTEXT\tNAME")
	for _, t := range types {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", dash(t.Region), dash(t.Component), dash(t.Context), t.Name)
	}
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
