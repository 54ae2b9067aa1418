package ioc

import (
	"github.com/kochabx/axis/errors"
)

var (
	// ErrBindingResolution is returned when a key is neither bound nor
	// constructible, or a constructor dependency cannot be resolved.
	ErrBindingResolution = errors.BindingResolution("binding resolution failed")

	// ErrCircularDependency is returned when a key is requested while it is
	// still being built.
	ErrCircularDependency = errors.BindingResolution("circular dependency detected")
)
