package hook

import (
	"github.com/kochabx/axis/event"
)

// Descriptor is a fully resolved bus registration.
type Descriptor struct {
	Operation    Operation      `json:"operation"`
	Tag          string         `json:"tag"`
	Callback     event.Callback `json:"-"`
	Priority     int            `json:"priority"`
	AcceptedArgs int            `json:"accepted_args"`
	Directive    string         `json:"directive,omitempty"`
	Method       string         `json:"method"`
	Virtual      bool           `json:"virtual"`
	ID           string         `json:"id,omitempty"`
}

// ActivateTag returns the activation event of a plugin basename.
func ActivateTag(basename string) string {
	return "activate_" + basename
}

// DeactivateTag returns the deactivation event of a plugin basename.
func DeactivateTag(basename string) string {
	return "deactivate_" + basename
}

// register subscribes d on bus and returns it with the subscription id set.
func register(bus event.Bus, d Descriptor) Descriptor {
	switch d.Operation {
	case OpAction, OpActivation, OpDeactivation:
		d.ID = bus.AddAction(d.Tag, d.Callback, d.Priority, d.AcceptedArgs)
	case OpFilter:
		d.ID = bus.AddFilter(d.Tag, d.Callback, d.Priority, d.AcceptedArgs)
	case OpCommand:
		bus.AddCommand(d.Tag, d.Callback)
	}
	return d
}
