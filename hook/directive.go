package hook

import (
	"sort"
	"strings"
	"sync"

	"github.com/kochabx/axis/event"
)

// DirectiveFunc post-processes a registered descriptor.
type DirectiveFunc func(bus event.Bus, op Operation, d Descriptor) error

// AllowNopriv is the name of the built-in directive that mirrors
// authenticated ajax and admin-post actions to their unauthenticated tags.
const AllowNopriv = "allow_nopriv"

var directives = struct {
	sync.RWMutex
	m map[string]DirectiveFunc
}{
	m: map[string]DirectiveFunc{
		AllowNopriv: allowNopriv,
	},
}

// SanitizeDirective lower-cases name, keeps [a-z0-9_-] and turns '-' into '_'.
func SanitizeDirective(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '-':
			b.WriteByte('_')
		}
	}
	return b.String()
}

// AddDirective registers fn under the sanitized name, process wide. The last
// registration for a name wins. It reports false for an empty name or nil fn.
func AddDirective(name string, fn DirectiveFunc) bool {
	name = SanitizeDirective(name)
	if name == "" || fn == nil {
		return false
	}

	directives.Lock()
	defer directives.Unlock()
	directives.m[name] = fn
	return true
}

// RemoveDirective unregisters name.
func RemoveDirective(name string) {
	directives.Lock()
	defer directives.Unlock()
	delete(directives.m, SanitizeDirective(name))
}

// LookupDirective returns the directive registered under name.
func LookupDirective(name string) (DirectiveFunc, bool) {
	if name == "" {
		return nil, false
	}

	directives.RLock()
	defer directives.RUnlock()
	fn, ok := directives.m[name]
	return fn, ok
}

// Directives returns the registered directive names, sorted.
func Directives() []string {
	directives.RLock()
	defer directives.RUnlock()

	names := make([]string, 0, len(directives.m))
	for name := range directives.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func allowNopriv(bus event.Bus, op Operation, d Descriptor) error {
	if op != OpAction {
		return nil
	}

	var tag string
	switch {
	case strings.HasPrefix(d.Tag, "wp_ajax_"):
		tag = strings.ReplaceAll(d.Tag, "wp_ajax_", "wp_ajax_nopriv_")
	case strings.HasPrefix(d.Tag, "admin_post_"):
		tag = strings.ReplaceAll(d.Tag, "admin_post_", "admin_post_nopriv_")
	default:
		return nil
	}

	bus.AddAction(tag, d.Callback, d.Priority, d.AcceptedArgs)
	return nil
}
