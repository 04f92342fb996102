package event

import (
	"fmt"
	"net/http"
)

type statusKind int

const (
	statusCode statusKind = iota
	statusHalt
	statusFault
	statusFlag
)

// DefaultErrorStatus is substituted when a descriptor carries no usable code.
const DefaultErrorStatus = http.StatusInternalServerError

// UnavailableStatus is the resolution of the unavailability flag.
const UnavailableStatus = http.StatusServiceUnavailable

// StatusDescriptor is the tagged variant handed over by the decision engine:
// either a plain numeric code or a halt/error wrapper carrying an inner
// reason. Every descriptor resolves to exactly one canonical status.
type StatusDescriptor struct {
	kind   statusKind
	code   int
	reason string
	fault  *Fault
}

// Status wraps a plain numeric code. Codes outside [100,599] still resolve,
// to 500, with the original value preserved as a diagnostic note.
func Status(code int) StatusDescriptor {
	return StatusDescriptor{kind: statusCode, code: code}
}

// Halt wraps an explicit halt with the given code and reason. A zero code
// defaults to 500. The reason may be empty.
func Halt(code int, reason string) StatusDescriptor {
	return StatusDescriptor{kind: statusHalt, code: code, reason: reason}
}

// Faulted wraps a caught fault from a decision-path callback.
func Faulted(f Fault) StatusDescriptor {
	fault := f
	return StatusDescriptor{kind: statusFault, fault: &fault}
}

// Unavailable wraps the service-unavailability flag.
func Unavailable() StatusDescriptor {
	return StatusDescriptor{kind: statusFlag}
}

// Resolve maps a descriptor to its canonical numeric status and reason
// phrase. It is pure and total: the same descriptor always yields the same
// result and no input fails observably.
func Resolve(d StatusDescriptor) (int, string) {
	code, _, _ := resolve(d)
	return code, http.StatusText(code)
}

// ResolveChecked resolves the descriptor and additionally returns the
// diagnostic note produced when the descriptor was malformed, so the caller
// can preserve the original value on the event.
func ResolveChecked(d StatusDescriptor) (int, string, *Note) {
	code, _, diag := resolve(d)
	return code, http.StatusText(code), diag
}

func resolve(d StatusDescriptor) (int, statusKind, *Note) {
	switch d.kind {
	case statusHalt:
		if d.code == 0 {
			return DefaultErrorStatus, d.kind, nil
		}
		return clampCode(d.code, d.kind)
	case statusFault:
		return DefaultErrorStatus, d.kind, nil
	case statusFlag:
		return UnavailableStatus, d.kind, nil
	default:
		return clampCode(d.code, d.kind)
	}
}

func clampCode(code int, kind statusKind) (int, statusKind, *Note) {
	if code < 100 || code > 599 {
		diag := ErrorNote(fmt.Sprintf("unresolvable status code %d", code))
		return DefaultErrorStatus, kind, &diag
	}
	return code, kind, nil
}

// ErrorNote returns the error note implied by a halt, fault, or flag
// descriptor. Plain numeric descriptors imply no note.
func (d StatusDescriptor) ErrorNote() (Note, bool) {
	switch d.kind {
	case statusHalt:
		return HaltNote(d.reason), true
	case statusFault:
		return FaultNote(*d.fault), true
	case statusFlag:
		return FlagNote("false"), true
	default:
		return Note{}, false
	}
}

// IsError reports whether the descriptor is a halt/error wrapper rather than
// a plain numeric code.
func (d StatusDescriptor) IsError() bool {
	return d.kind != statusCode
}

func (d StatusDescriptor) String() string {
	switch d.kind {
	case statusHalt:
		return fmt.Sprintf("halt(%d, %q)", d.code, d.reason)
	case statusFault:
		return fmt.Sprintf("fault(%s: %s)", d.fault.Kind, d.fault.Value)
	case statusFlag:
		return "unavailable"
	default:
		return fmt.Sprintf("status(%d)", d.code)
	}
}
