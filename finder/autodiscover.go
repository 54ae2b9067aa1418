package finder

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/kochabx/axis/errors"
	"github.com/kochabx/axis/log"
)

// ErrSourceRoot is returned when a registered root cannot be walked.
var ErrSourceRoot = errors.Configuration("source root is not walkable")

type target struct {
	namespace string
	root      string
}

// AutoDiscover walks registered roots and maps matching files to types.
// The result of the first successful Find is memoized.
type AutoDiscover struct {
	options

	components []string
	pattern    *regexp.Regexp

	mu      sync.Mutex
	targets []target
	found   []Type
	done    bool
}

// NewAutoDiscover creates a finder for the given component role names and a
// first (namespace, root) pair.
func NewAutoDiscover(components []string, namespace, root string, opts ...Option) *AutoDiscover {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	a := &AutoDiscover{
		options:    o,
		components: slices.Clone(components),
	}
	a.pattern = a.compile()
	a.AddRootPair(namespace, root)
	return a
}

func (a *AutoDiscover) compile() *regexp.Regexp {
	comps := make([]string, len(a.components))
	for i, c := range a.components {
		comps[i] = regexp.QuoteMeta(c)
	}
	exts := make([]string, len(a.extensions))
	for i, e := range a.extensions {
		exts[i] = regexp.QuoteMeta(e)
	}

	// {region}/{component}/{context}/.../file.ext or {component}/{context}/.../file.ext
	return regexp.MustCompile(`(?:^|/)(?:[^/]+/)?(` + strings.Join(comps, "|") + `)/.+(` + strings.Join(exts, "|") + `)$`)
}

// AddRootPair registers another (namespace, root) pair. Registering the same
// namespace again replaces its root. Any memoized result is dropped.
func (a *AutoDiscover) AddRootPair(namespace, root string) *AutoDiscover {
	namespace = strings.Trim(namespace, `\`)
	if namespace != "" {
		namespace += `\`
	}
	root = strings.TrimRight(root, string(filepath.Separator))
	if root == "" {
		root = string(filepath.Separator)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.done = false
	a.found = nil
	for i, t := range a.targets {
		if t.namespace == namespace {
			a.targets[i].root = root
			return a
		}
	}
	a.targets = append(a.targets, target{namespace: namespace, root: root})
	return a
}

// Components returns the configured role names.
func (a *AutoDiscover) Components() []string {
	return slices.Clone(a.components)
}

// Find walks every root once and returns the discovered types in walk order.
func (a *AutoDiscover) Find() ([]Type, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done {
		return slices.Clone(a.found), nil
	}

	var found []Type
	for _, t := range a.targets {
		types, err := a.walk(t)
		if err != nil {
			return nil, err
		}
		found = append(found, types...)
	}

	a.found = found
	a.done = true

	log.Debug().
		Str("component", "finder").
		Int("types", len(found)).
		Msg("discovery finished")

	return slices.Clone(found), nil
}

func (a *AutoDiscover) walk(t target) ([]Type, error) {
	if a.pattern == nil || len(a.components) == 0 {
		return nil, nil
	}

	var types []Type
	err := afero.Walk(a.fs, t.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		rel, err := filepath.Rel(t.root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !a.pattern.MatchString(rel) {
			return nil
		}

		types = append(types, a.extract(t, path, rel))
		return nil
	})
	if err != nil {
		return nil, ErrSourceRoot.With("root", t.root).WithCause(err)
	}

	return types, nil
}

// extract derives the region, component, context and fully-qualified name
// from a path relative to its root.
func (a *AutoDiscover) extract(t target, path, rel string) Type {
	dir, file := "", rel
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		dir, file = rel[:i+1], rel[i+1:]
	}
	name := strings.TrimSuffix(file, a.extensionOf(file))

	tailNs := strings.ReplaceAll(dir, "/", `\`)
	// tailNs carries a trailing separator, so parts always ends with "".
	parts := strings.Split(tailNs, `\`)

	typ := Type{
		Path: path,
		Name: t.namespace + tailNs + name,
	}

	switch {
	case len(parts) > 2 && slices.Contains(a.components, parts[1]):
		typ.Region, typ.Component, typ.Context = parts[0], parts[1], parts[2]
	case len(parts) > 1 && slices.Contains(a.components, parts[0]):
		typ.Component, typ.Context = parts[0], parts[1]
	}

	if a.classifier != nil {
		typ.Caps = a.classifier.Classify(typ.Name)
	}
	return typ
}

func (a *AutoDiscover) extensionOf(file string) string {
	for _, ext := range a.extensions {
		if strings.HasSuffix(file, ext) {
			return ext
		}
	}
	return filepath.Ext(file)
}
