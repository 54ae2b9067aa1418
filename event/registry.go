package event

import (
	"sort"
	"sync"
)

// Kind is the subscription flavour.
type Kind int

const (
	KindAction Kind = iota
	KindFilter
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindFilter:
		return "filter"
	case KindCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Subscription is one callback attached to a tag.
type Subscription struct {
	ID           string   `json:"id"`
	Kind         Kind     `json:"kind"`
	Tag          string   `json:"tag"`
	Priority     int      `json:"priority"`
	AcceptedArgs int      `json:"accepted_args"`
	Callback     Callback `json:"-"`
}

// registry keeps subscriptions per tag in ascending priority order.
// Actions and filters share one registry, so a filter tag can be fired as
// an action and vice versa.
type registry struct {
	mu   sync.RWMutex
	subs map[string][]*Subscription
	byID map[string]*Subscription
}

func newRegistry() *registry {
	return &registry{
		subs: make(map[string][]*Subscription),
		byID: make(map[string]*Subscription),
	}
}

func (r *registry) add(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := append(r.subs[sub.Tag], sub)
	// Stable sort keeps registration order among equal priorities.
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].Priority < subs[j].Priority
	})

	r.subs[sub.Tag] = subs
	r.byID[sub.ID] = sub
}

func (r *registry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.byID[id]
	if !ok {
		return false
	}

	subs := r.subs[sub.Tag]
	for i, s := range subs {
		if s.ID == id {
			r.subs[sub.Tag] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(r.subs[sub.Tag]) == 0 {
		delete(r.subs, sub.Tag)
	}

	delete(r.byID, id)
	return true
}

func (r *registry) removeAll(tag string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.subs[tag]
	for _, s := range subs {
		delete(r.byID, s.ID)
	}
	delete(r.subs, tag)
	return len(subs)
}

func (r *registry) has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[tag]) > 0
}

func (r *registry) get(id string) (*Subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.byID[id]
	return sub, ok
}

// snapshot returns a copy so callbacks may subscribe while being invoked.
func (r *registry) snapshot(tag string) []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.subs[tag]
	if len(subs) == 0 {
		return nil
	}
	result := make([]*Subscription, len(subs))
	copy(result, subs)
	return result
}

func (r *registry) tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.subs))
	for tag := range r.subs {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
