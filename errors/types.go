package errors

// Code classifies failures of the wiring runtime.
type Code int

const (
	CodeUnknown Code = iota
	// CodeConfiguration marks a missing or invalid starter argument. Fatal at startup.
	CodeConfiguration
	// CodeBindingResolution marks a container key that could not be resolved.
	CodeBindingResolution
	// CodeHookDeclaration marks an invalid hook declaration.
	CodeHookDeclaration
	// CodeVerification marks a value that failed validation. Always recovered locally.
	CodeVerification
)

func (c Code) String() string {
	switch c {
	case CodeConfiguration:
		return "configuration"
	case CodeBindingResolution:
		return "binding_resolution"
	case CodeHookDeclaration:
		return "hook_declaration"
	case CodeVerification:
		return "verification"
	default:
		return "unknown"
	}
}

func Configuration(format string, args ...any) *Error {
	return New(CodeConfiguration, format, args...)
}

func BindingResolution(format string, args ...any) *Error {
	return New(CodeBindingResolution, format, args...)
}

func HookDeclaration(format string, args ...any) *Error {
	return New(CodeHookDeclaration, format, args...)
}

func Verification(format string, args ...any) *Error {
	return New(CodeVerification, format, args...)
}

// IsRecoverable reports whether err may be degraded to a default value
// instead of aborting startup.
func IsRecoverable(err error) bool {
	return CodeOf(err) == CodeVerification
}
