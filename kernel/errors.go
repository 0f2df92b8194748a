package kernel

import "fmt"

// ErrorKind tags the structural failures the core surfaces to callers, per
// spec §7. Agent-local failures (OrphanTarget, OutOfTopology clamp,
// ConversionUnderflow) are recovered in place by reactors and reported
// through the Observer probe instead of as errors.
type ErrorKind string

const (
	// UnknownLevel: an influence or operation targets an unregistered level.
	UnknownLevel ErrorKind = "UnknownLevel"
	// NotInLevel: state access for an agent not present in that level.
	NotInLevel ErrorKind = "NotInLevel"
	// InvalidTransition: transition_agent from a level the agent is not in,
	// or to a level with incompatible state types.
	InvalidTransition ErrorKind = "InvalidTransition"
	// HybridizerInconsistent: macro update requested with no grid, or micro
	// update with a stale vehicle list. Fatal; surfaces to caller.
	HybridizerInconsistent ErrorKind = "HybridizerInconsistent"
)

// Error is the structural error type returned by core operations. Use
// errors.As to recover the Kind.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
