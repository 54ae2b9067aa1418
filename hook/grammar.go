package hook

import (
	"regexp"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Operation is the bus operation a descriptor is registered with.
type Operation int

const (
	OpAction Operation = iota
	OpFilter
	OpCommand
	OpActivation
	OpDeactivation
)

func (o Operation) String() string {
	switch o {
	case OpAction:
		return "action"
	case OpFilter:
		return "filter"
	case OpCommand:
		return "command"
	case OpActivation:
		return "activation"
	case OpDeactivation:
		return "deactivation"
	default:
		return "unknown"
	}
}

// MarshalText renders the operation name.
func (o Operation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// MinNameLength is the shortest name considered a hook declaration.
const MinNameLength = 8

var (
	// v_ marker, action|filter, priority, accepted args, tag, directive.
	actionFilterPattern = regexp.MustCompile(`^(v_)?(action|filter)(?:_(\d+))?(?:_(\d+))?_(.+?)(?:__(.+))?$`)
	// v_ marker, command name, directive.
	commandPattern = regexp.MustCompile(`^(v_)?(?:shortcode|command)_(.+?)(?:__(.+))?$`)
	// v_ marker, activation|deactivation, priority, directive.
	lifecyclePattern = regexp.MustCompile(`^(v_)?(activation|deactivation)(?:_(\d+))?(?:__(.+))?$`)
)

// Match is the result of parsing one declaration name.
type Match struct {
	Operation       Operation `json:"operation"`
	Virtual         bool      `json:"virtual"`
	Tag             string    `json:"tag,omitempty"`
	Priority        int       `json:"priority,omitempty"`
	HasPriority     bool      `json:"has_priority"`
	AcceptedArgs    int       `json:"accepted_args,omitempty"`
	HasAcceptedArgs bool      `json:"has_accepted_args"`
	Directive       string    `json:"directive,omitempty"`
}

// Eligible reports whether name is long enough and does not start with an
// underscore.
func Eligible(name string) bool {
	return len(name) >= MinNameLength && name[0] != '_'
}

// Normalize lower-cases the first letter of an exported Go method name, so
// Action_init and action_init are the same declaration.
func Normalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToLower(r)) + name[size:]
}

// Parse matches name against the action/filter, command and lifecycle
// grammars, in that order.
func Parse(name string) (Match, bool) {
	if !Eligible(name) {
		return Match{}, false
	}

	if m := actionFilterPattern.FindStringSubmatch(name); m != nil {
		match := Match{
			Operation: OpAction,
			Virtual:   m[1] != "",
			Tag:       m[5],
			Directive: m[6],
		}
		if m[2] == "filter" {
			match.Operation = OpFilter
		}
		match.Priority, match.HasPriority = number(m[3])
		match.AcceptedArgs, match.HasAcceptedArgs = number(m[4])
		return match, true
	}

	if m := commandPattern.FindStringSubmatch(name); m != nil {
		return Match{
			Operation: OpCommand,
			Virtual:   m[1] != "",
			Tag:       m[2],
			Directive: m[3],
		}, true
	}

	if m := lifecyclePattern.FindStringSubmatch(name); m != nil {
		match := Match{
			Operation: OpActivation,
			Virtual:   m[1] != "",
			Directive: m[4],
		}
		if m[2] == "deactivation" {
			match.Operation = OpDeactivation
		}
		match.Priority, match.HasPriority = number(m[3])
		return match, true
	}

	return Match{}, false
}

func number(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
