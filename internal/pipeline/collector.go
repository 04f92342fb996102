package pipeline

import (
	"sync"
	"time"

	"github.com/tapward/logtap/event"
)

// appendResult tells the caller which path a note took into the collector.
type appendResult int

const (
	// appendAccepted: the request is still open, the note will be part of
	// the primary access event.
	appendAccepted appendResult = iota
	// appendLate: the primary event already dispatched, the note joins the
	// grace-window batch for a supplementary event.
	appendLate
	// appendPostHoc: the request is unknown or already retired, the note
	// must be emitted as its own supplementary event.
	appendPostHoc
)

type recordState int

const (
	stateOpen recordState = iota
	stateGrace
)

type requestRecord struct {
	state  recordState
	notes  []event.Note
	late   []event.Note
	status int
	phrase string
	timer  *time.Timer
}

// collector accumulates notes per request. It supports concurrent appends
// from independent producer contexts for the same RequestID; each record is
// drained exactly once when the outcome is reported, then held in the grace
// window until retired.
type collector struct {
	mu      sync.Mutex
	records map[event.RequestID]*requestRecord
}

func newCollector() *collector {
	return &collector{records: make(map[event.RequestID]*requestRecord)}
}

// Track starts accumulating notes for the given request.
func (c *collector) Track(id event.RequestID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[id]; !ok {
		c.records[id] = &requestRecord{}
	}
}

// Append records a note for the request. It never rejects a note: appends
// after finalize join the late batch, appends for unknown or retired
// requests are reported as post-hoc.
func (c *collector) Append(id event.RequestID, n event.Note) appendResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[id]
	if !ok {
		return appendPostHoc
	}
	switch rec.state {
	case stateGrace:
		rec.late = append(rec.late, n)
		return appendLate
	default:
		rec.notes = append(rec.notes, n)
		return appendAccepted
	}
}

// Finalize drains the accumulated notes exactly once and moves the record
// into the grace window, remembering the resolved status for supplementary
// events. The second and later calls for the same request report ok=false
// and drain nothing.
func (c *collector) Finalize(id event.RequestID, status int, phrase string) ([]event.Note, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[id]
	if !ok || rec.state != stateOpen {
		return nil, false
	}
	notes := rec.notes
	rec.notes = nil
	rec.state = stateGrace
	rec.status = status
	rec.phrase = phrase
	return notes, true
}

// SetTimer attaches the grace-window timer so it can be stopped at shutdown.
func (c *collector) SetTimer(id event.RequestID, t *time.Timer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.records[id]; ok {
		rec.timer = t
	}
}

// Retire removes the request and returns any late notes batched during the
// grace window together with the status resolved at finalize.
func (c *collector) Retire(id event.RequestID) ([]event.Note, int, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[id]
	if !ok {
		return nil, 0, "", false
	}
	delete(c.records, id)
	return rec.late, rec.status, rec.phrase, true
}

// flushed captures one request's leftover notes at shutdown.
type flushed struct {
	id        event.RequestID
	notes     []event.Note
	status    int
	phrase    string
	finalized bool
}

// FlushAll stops every grace timer and retires every record. Open records
// (outcome never reported) are returned with finalized=false so the caller
// can still emit their notes instead of losing them.
func (c *collector) FlushAll() []flushed {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []flushed
	for id, rec := range c.records {
		if rec.timer != nil {
			rec.timer.Stop()
		}
		switch rec.state {
		case stateGrace:
			if len(rec.late) > 0 {
				out = append(out, flushed{id: id, notes: rec.late, status: rec.status, phrase: rec.phrase, finalized: true})
			}
		default:
			if len(rec.notes) > 0 {
				out = append(out, flushed{id: id, notes: rec.notes})
			}
		}
		delete(c.records, id)
	}
	return out
}
