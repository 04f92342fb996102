// Package event defines the data model shared by the logtap pipeline and its
// sinks: request identifiers, notes, status descriptors, outcomes, and the
// finalized log events delivered to registered sinks.
package event

import "time"

// RequestID correlates every note and the final event of one request. IDs are
// ULIDs created when request processing begins and retired once the request's
// grace window has closed.
type RequestID string

// Category classifies a finalized event.
type Category string

const (
	// CategoryAccess is the single primary event produced per request.
	CategoryAccess Category = "access"
	// CategoryInfo carries informational events outside the request flow.
	CategoryInfo Category = "info"
	// CategoryError carries supplementary events for late or post-hoc notes.
	CategoryError Category = "error"
)

// NoteKind distinguishes informational notes from error notes.
type NoteKind string

const (
	NoteInfo  NoteKind = "info"
	NoteError NoteKind = "error"
)

// DetailKind names the variant carried by an error note's detail.
type DetailKind string

const (
	// DetailReason is plain reason text.
	DetailReason DetailKind = "reason"
	// DetailFault describes a caught fault (kind + value + origin).
	DetailFault DetailKind = "fault"
	// DetailHalt is an explicit halt reason, possibly empty.
	DetailHalt DetailKind = "halt"
	// DetailStream is a response-body streaming failure.
	DetailStream DetailKind = "stream"
	// DetailFlag is a boolean condition such as service unavailability.
	DetailFlag DetailKind = "flag"
)

// Fault describes a caught fault from a decision-path callback.
type Fault struct {
	Kind   string `json:"kind"`
	Value  string `json:"value"`
	Origin string `json:"origin,omitempty"`
}

// Detail is the structured payload of an error note.
type Detail struct {
	Kind   DetailKind `json:"kind"`
	Reason string     `json:"reason"`
	Fault  *Fault     `json:"fault,omitempty"`
}

// Note is one structured fact about the processing of a single request.
// Notes are immutable once created.
type Note struct {
	Kind    NoteKind `json:"kind"`
	Payload string   `json:"payload,omitempty"`
	Detail  *Detail  `json:"detail,omitempty"`
	// PostHoc marks a note that arrived after the request's grace window
	// closed and was emitted as a standalone supplementary event.
	PostHoc bool `json:"post_hoc,omitempty"`
}

// InfoNote returns an informational note carrying the given payload.
// An empty payload is valid and is not an error note.
func InfoNote(payload string) Note {
	return Note{Kind: NoteInfo, Payload: payload}
}

// ErrorNote returns an error note with plain reason text.
func ErrorNote(reason string) Note {
	return Note{Kind: NoteError, Detail: &Detail{Kind: DetailReason, Reason: reason}}
}

// FaultNote returns an error note describing a caught fault.
func FaultNote(f Fault) Note {
	fault := f
	return Note{Kind: NoteError, Detail: &Detail{Kind: DetailFault, Reason: f.Value, Fault: &fault}}
}

// HaltNote returns an error note carrying a halt reason, which may be empty.
func HaltNote(reason string) Note {
	return Note{Kind: NoteError, Detail: &Detail{Kind: DetailHalt, Reason: reason}}
}

// StreamNote returns an error note describing a body-streaming failure.
func StreamNote(reason string) Note {
	return Note{Kind: NoteError, Detail: &Detail{Kind: DetailStream, Reason: reason}}
}

// FlagNote returns an error note carrying a boolean condition.
func FlagNote(reason string) Note {
	return Note{Kind: NoteError, Detail: &Detail{Kind: DetailFlag, Reason: reason}}
}

// IsError reports whether the note is an error note.
func (n Note) IsError() bool {
	return n.Kind == NoteError
}

// Outcome is the resolved result of one request: the canonical status plus
// every note observed for it. Producer order is preserved within one
// execution context; no order is guaranteed across contexts.
type Outcome struct {
	Status int    `json:"status"`
	Phrase string `json:"phrase,omitempty"`
	Notes  []Note `json:"notes"`
}

// ErrorNotes returns the error notes of the outcome, in observed order.
func (o Outcome) ErrorNotes() []Note {
	var errs []Note
	for _, n := range o.Notes {
		if n.IsError() {
			errs = append(errs, n)
		}
	}
	return errs
}

// Standard metadata keys attached to events.
const (
	MetaRequestID     = "request_id"
	MetaSupplementary = "supplementary"
	MetaPostHoc       = "post_hoc"
)

// Event is one immutable log event handed to every registered sink. At most
// one access event is produced per RequestID; supplementary error events may
// follow for late or post-hoc notes, correlated by RequestID.
type Event struct {
	ID        string            `json:"id"`
	Category  Category          `json:"category"`
	RequestID RequestID         `json:"request_id,omitempty"`
	Outcome   Outcome           `json:"outcome"`
	Meta      map[string]string `json:"meta,omitempty"`
	EmittedAt time.Time         `json:"emitted_at"`
}

// Supplementary reports whether the event supplements an already dispatched
// access event.
func (e Event) Supplementary() bool {
	return e.Meta[MetaSupplementary] == "true"
}
