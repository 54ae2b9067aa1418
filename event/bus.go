package event

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Bus is the publish/subscribe surface components register against.
type Bus interface {
	// AddAction subscribes cb to tag and returns the subscription id.
	AddAction(tag string, cb Callback, priority, acceptedArgs int) string
	// AddFilter subscribes cb to tag as a value filter and returns the subscription id.
	AddFilter(tag string, cb Callback, priority, acceptedArgs int) string
	// AddCommand binds cb to command tag. A later call for the same tag wins.
	AddCommand(tag string, cb Callback)

	HasAction(tag string) bool
	HasFilter(tag string) bool
	HasCommand(tag string) bool
	Has(id string) bool

	// Remove drops one subscription by id.
	Remove(id string) bool
	// RemoveAll drops every action and filter subscribed to tag.
	RemoveAll(tag string) int
	RemoveCommand(tag string) bool

	// DoAction invokes every subscriber of tag in priority order and stops at
	// the first error.
	DoAction(tag string, args ...any) error
	// ApplyFilters passes value through every subscriber of tag in priority
	// order; each result becomes the next value.
	ApplyFilters(tag string, value any, args ...any) (any, error)
	// DoCommand runs the command bound to tag with (attrs, content, tag).
	DoCommand(tag string, attrs map[string]string, content string) (string, error)
	// DidAction returns how many times tag was fired with DoAction.
	DidAction(tag string) int

	// Subscriptions returns a snapshot of the subscribers of tag.
	Subscriptions(tag string) []Subscription
	Tags() []string
	Commands() []string
	Count() int
}

type bus struct {
	registry *registry

	mu       sync.RWMutex
	commands map[string]*Subscription
	fired    map[string]int
}

// New creates an empty bus.
func New() Bus {
	return &bus{
		registry: newRegistry(),
		commands: make(map[string]*Subscription),
		fired:    make(map[string]int),
	}
}

func (b *bus) subscribe(kind Kind, tag string, cb Callback, priority, acceptedArgs int) string {
	sub := &Subscription{
		ID:           uuid.NewString(),
		Kind:         kind,
		Tag:          tag,
		Priority:     priority,
		AcceptedArgs: acceptedArgs,
		Callback:     cb,
	}
	b.registry.add(sub)
	return sub.ID
}

func (b *bus) AddAction(tag string, cb Callback, priority, acceptedArgs int) string {
	return b.subscribe(KindAction, tag, cb, priority, acceptedArgs)
}

func (b *bus) AddFilter(tag string, cb Callback, priority, acceptedArgs int) string {
	return b.subscribe(KindFilter, tag, cb, priority, acceptedArgs)
}

func (b *bus) AddCommand(tag string, cb Callback) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.commands[tag] = &Subscription{
		ID:       uuid.NewString(),
		Kind:     KindCommand,
		Tag:      tag,
		Callback: cb,
	}
}

func (b *bus) HasAction(tag string) bool {
	return b.registry.has(tag)
}

func (b *bus) HasFilter(tag string) bool {
	return b.registry.has(tag)
}

func (b *bus) HasCommand(tag string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.commands[tag]
	return ok
}

func (b *bus) Has(id string) bool {
	_, ok := b.registry.get(id)
	return ok
}

func (b *bus) Remove(id string) bool {
	return b.registry.remove(id)
}

func (b *bus) RemoveAll(tag string) int {
	return b.registry.removeAll(tag)
}

func (b *bus) RemoveCommand(tag string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.commands[tag]; !ok {
		return false
	}
	delete(b.commands, tag)
	return true
}

func (b *bus) DoAction(tag string, args ...any) error {
	b.mu.Lock()
	b.fired[tag]++
	b.mu.Unlock()

	for _, sub := range b.registry.snapshot(tag) {
		if _, err := sub.Callback(truncate(args, sub.AcceptedArgs)...); err != nil {
			return fmt.Errorf("event: action %s: %w", tag, err)
		}
	}
	return nil
}

func (b *bus) ApplyFilters(tag string, value any, args ...any) (any, error) {
	subs := b.registry.snapshot(tag)
	if len(subs) == 0 {
		return value, nil
	}

	full := make([]any, 0, len(args)+1)
	full = append(full, value)
	full = append(full, args...)

	for _, sub := range subs {
		out, err := sub.Callback(truncate(full, sub.AcceptedArgs)...)
		if err != nil {
			return nil, fmt.Errorf("event: filter %s: %w", tag, err)
		}
		full[0] = out
	}
	return full[0], nil
}

func (b *bus) DoCommand(tag string, attrs map[string]string, content string) (string, error) {
	b.mu.RLock()
	sub, ok := b.commands[tag]
	b.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("event: command %s not registered", tag)
	}

	out, err := sub.Callback(attrs, content, tag)
	if err != nil {
		return "", fmt.Errorf("event: command %s: %w", tag, err)
	}

	switch v := out.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return fmt.Sprint(v), nil
	}
}

func (b *bus) DidAction(tag string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fired[tag]
}

func (b *bus) Subscriptions(tag string) []Subscription {
	subs := b.registry.snapshot(tag)
	result := make([]Subscription, len(subs))
	for i, s := range subs {
		result[i] = *s
	}
	return result
}

func (b *bus) Tags() []string {
	return b.registry.tags()
}

func (b *bus) Commands() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	tags := make([]string, 0, len(b.commands))
	for tag := range b.commands {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func (b *bus) Count() int {
	b.mu.RLock()
	commands := len(b.commands)
	b.mu.RUnlock()
	return b.registry.count() + commands
}

func truncate(args []any, n int) []any {
	if n < 0 || n >= len(args) {
		return args
	}
	return args[:n]
}
