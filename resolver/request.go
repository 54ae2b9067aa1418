package resolver

import (
	"strings"

	"github.com/kochabx/axis/event"
	"github.com/kochabx/axis/log"
)

// IsRequestFilter is applied for context names without a built-in
// predicate. Subscribers receive the current answer and the context name.
const IsRequestFilter = "axis_is_request"

// Context folder names with a built-in predicate.
const (
	ContextAdminAjax   = "AdminAjax"
	ContextAdminPost   = "AdminPost"
	ContextAdmin       = "Admin"
	ContextAutosave    = "Autosave"
	ContextCli         = "Cli"
	ContextCron        = "Cron"
	ContextFront       = "Front"
	ContextFrontNoAjax = "FrontNoAjax"
	ContextRepairing   = "Repairing"
	ContextRestRequest = "RestRequest"
)

// Request describes the current execution.
type Request struct {
	Admin     bool   `json:"admin" mapstructure:"admin"`
	Ajax      bool   `json:"ajax" mapstructure:"ajax"`
	Cron      bool   `json:"cron" mapstructure:"cron"`
	Cli       bool   `json:"cli" mapstructure:"cli"`
	Rest      bool   `json:"rest" mapstructure:"rest"`
	Autosave  bool   `json:"autosave" mapstructure:"autosave"`
	Repairing bool   `json:"repairing" mapstructure:"repairing"`
	URI       string `json:"uri,omitempty" mapstructure:"uri"`
}

// Is reports whether the request matches context. Unknown contexts are
// answered by the IsRequestFilter filters on bus, true by default.
func (r *Request) Is(context string, bus event.Bus) bool {
	if r == nil {
		r = &Request{}
	}

	switch context {
	case ContextAdminAjax:
		return r.Ajax
	case ContextAdminPost:
		return r.Admin && strings.HasSuffix(r.URI, "/wp-admin/admin-post.php")
	case ContextAdmin:
		return r.Admin
	case ContextAutosave:
		return r.Autosave
	case ContextCli:
		return r.Cli
	case ContextCron:
		return r.Cron
	case ContextFront:
		return !r.Admin
	case ContextFrontNoAjax:
		return !r.Admin && !r.Ajax && !r.Cron
	case ContextRepairing:
		return r.Repairing
	case ContextRestRequest:
		return r.Rest
	}

	if bus == nil {
		return true
	}
	v, err := bus.ApplyFilters(IsRequestFilter, true, context)
	if err != nil {
		log.Warn().Err(err).Str("component", "resolver").Str("context", context).Msg("request filter failed")
		return false
	}
	ok, isBool := v.(bool)
	return isBool && ok
}
