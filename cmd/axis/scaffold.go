package main

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/kochabx/axis/errors"
)

var errExists = errors.Configuration("file already exists")

type skeleton struct {
	Slug      string
	Namespace string
	Module    string
}

var skeletonFiles = []struct {
	path string
	tmpl *template.Template
}{
	{"main.go", template.Must(template.New("main").Parse(mainTemplate))},
	{"axis.yaml", template.Must(template.New("config").Parse(configTemplate))},
	{"src/Initiator/Front/Greeting.go", template.Must(template.New("initiator").Parse(initiatorTemplate))},
	{"src/Model/Settings.go", template.Must(template.New("model").Parse(modelTemplate))},
}

func scaffoldCmd(args []string, fs afero.Fs, stdout io.Writer) error {
	flags := pflag.NewFlagSet("scaffold", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	slug := flags.StringP("slug", "s", "", "plugin slug, defaults to the directory name")
	namespace := flags.StringP("namespace", "n", "", "type namespace, defaults to the title-cased slug")
	module := flags.StringP("module", "m", "", "Go module path, defaults to example.com/<slug>")
	force := flags.BoolP("force", "f", false, "overwrite existing files")
	if err := flags.Parse(args); err != nil {
		return errUsage.WithCause(err)
	}
	if flags.NArg() != 1 {
		return errUsage.With("reason", "expected one target directory")
	}

	dir := flags.Arg(0)
	sk := skeleton{Slug: *slug, Namespace: *namespace, Module: *module}
	if sk.Slug == "" {
		sk.Slug = filepath.Base(filepath.Clean(dir))
	}
	if sk.Namespace == "" {
		sk.Namespace = namespaceOf(sk.Slug)
	}
	if sk.Module == "" {
		sk.Module = path.Join("example.com", sk.Slug)
	}

	for _, f := range skeletonFiles {
		target := filepath.Join(dir, filepath.FromSlash(f.path))
		if exists, err := afero.Exists(fs, target); err != nil {
			return err
		} else if exists && !*force {
			return errExists.With("path", target)
		}

		var buf bytes.Buffer
		if err := f.tmpl.Execute(&buf, sk); err != nil {
			return err
		}
		if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := afero.WriteFile(fs, target, buf.Bytes(), 0o644); err != nil {
			return err
		}
		fmt.Fprintln(stdout, target)
	}
	return nil
}

// namespaceOf turns my-plugin into MyPlugin.
func namespaceOf(slug string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	}) {
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

const mainTemplate = `package main

import (
	"os"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/axis/app"
	"github.com/kochabx/axis/log"
	"github.com/kochabx/axis/starter"
	"github.com/kochabx/axis/transport/http"

	_ "{{.Module}}/src/Initiator/Front"
	_ "{{.Module}}/src/Model"
)

func main() {
	cfg, err := starter.LoadConfig("axis.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	pool := starter.NewPool()
	if _, err := starter.Factory(cfg, starter.WithPool(pool)); err != nil {
		log.Fatal().Err(err).Msg("create starter")
	}

	server := http.NewServer(os.Getenv("ADDR"), http.NewEngine(),
		http.WithHealthOptions(http.HealthOption{Enabled: true}),
		http.WithMetricsOptions(http.MetricsOption{Enabled: true}),
		http.WithInspection(pool),
	)
	gin.SetMode(gin.ReleaseMode)

	if err := app.New(app.WithPool(pool), app.WithServer(server)).Start(); err != nil {
		log.Fatal().Err(err).Msg("run")
	}
}
`

const configTemplate = `main_entry: main.go
slug: {{.Slug}}
version: 0.1.0
namespace: {{.Namespace}}
source_root: src
default_priority: 10
`

const initiatorTemplate = `package front

import (
	"github.com/kochabx/axis/hook"
	"github.com/kochabx/axis/ioc"
)

type Greeting struct {
	hook.AutoHook
}

func NewGreeting() *Greeting { return &Greeting{} }

func (g *Greeting) InitHooks(h hook.Host) error { return g.Init(h, g) }

func (g *Greeting) Filter_the_content(content string) string {
	return content + "\n<p>Hello from {{.Slug}}</p>"
}

func init() {
	ioc.Register(` + "`{{.Namespace}}\\Initiator\\Front\\Greeting`" + `, NewGreeting)
}
`

const modelTemplate = `package model

import (
	"github.com/kochabx/axis/ioc"
	axismodel "github.com/kochabx/axis/model"
	"github.com/kochabx/axis/schema"
)

type Settings struct {
	axismodel.OptionBase
}

func NewSettings() *Settings {
	return &Settings{OptionBase: axismodel.OptionBase{
		Group: "{{.Slug}}",
		Fields: []schema.Field{
			{Key: "greeting", Type: schema.TypeString, Default: "Hello"},
		},
	}}
}

func init() {
	ioc.Register(` + "`{{.Namespace}}\\Model\\Settings`" + `, NewSettings)
}
`
