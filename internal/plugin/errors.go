package plugin

import "fmt"

// Error kinds a LoadError can carry. These map onto the host's own
// documented failure taxonomy for the load pipeline; every one of them is
// fatal for the plugin being loaded but never for the host.
const (
	KindConfigMissing      = "ConfigMissing"
	KindRequirementError   = "RequirementError"
	KindMissingSecretError = "MissingSecretError"
	KindInvalidPluginType  = "InvalidPluginType"
	KindLaunchTimeout      = "LaunchTimeout"
)

// LoadError is returned by any stage of the load pipeline. Kind lets
// callers branch without string-matching Msg.
type LoadError struct {
	Kind string
	Msg  string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *LoadError) Unwrap() error { return e.Err }

// NewLoadError builds a LoadError with a formatted message.
func NewLoadError(kind, format string, args ...interface{}) *LoadError {
	return &LoadError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapLoadError is NewLoadError for the case where an underlying error
// should remain inspectable via errors.Unwrap.
func WrapLoadError(kind string, err error, format string, args ...interface{}) *LoadError {
	return &LoadError{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}
