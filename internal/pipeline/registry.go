package pipeline

import (
	"sync"

	"github.com/tapward/logtap/event"
	idspkg "github.com/tapward/logtap/internal/pipeline/ids"
	"github.com/tapward/logtap/sink"
)

// HandlerID identifies one live sink registration.
type HandlerID string

// Registration is one live sink registration. It is owned exclusively by the
// registry; the dispatch bus runs one worker per registration that drains the
// bounded delivery queue.
type Registration struct {
	ID   HandlerID
	Name string

	sink  sink.Sink
	queue chan event.Event
	stop  chan struct{}
	done  chan struct{}
}

// HandlerInfo is the introspection view of one registration.
type HandlerInfo struct {
	ID   HandlerID `json:"id"`
	Name string    `json:"name"`
}

func newRegistration(name string, s sink.Sink, queueCap int) *Registration {
	return &Registration{
		ID:    HandlerID(idspkg.CreateULID()),
		Name:  name,
		sink:  s,
		queue: make(chan event.Event, queueCap),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// handlerRegistry is the live set of registered sinks. Registration is
// idempotent per name: re-registering a name replaces the prior registration
// in place, so future events are delivered exactly once per live name.
type handlerRegistry struct {
	mu   sync.RWMutex
	regs []*Registration
}

func newHandlerRegistry() *handlerRegistry {
	return &handlerRegistry{}
}

// Register adds the registration, replacing any prior registration with the
// same name. The replaced registration is returned so the caller can stop
// its worker and close its sink.
func (r *handlerRegistry) Register(reg *Registration) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.regs {
		if existing.Name == reg.Name {
			r.regs[i] = reg
			return existing
		}
	}
	r.regs = append(r.regs, reg)
	return nil
}

// Unregister removes the registration with the given id and returns it, or
// nil if unknown.
func (r *handlerRegistry) Unregister(id HandlerID) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.regs {
		if existing.ID == id {
			r.regs = append(r.regs[:i], r.regs[i+1:]...)
			return existing
		}
	}
	return nil
}

// Snapshot returns the live registrations in registration order. The bus
// takes a fresh snapshot at the moment of each dispatch.
func (r *handlerRegistry) Snapshot() []*Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Registration, len(r.regs))
	copy(out, r.regs)
	return out
}

// Drain removes and returns every registration. Used at shutdown.
func (r *handlerRegistry) Drain() []*Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.regs
	r.regs = nil
	return out
}

// Infos returns the introspection view of the live registrations.
func (r *handlerRegistry) Infos() []HandlerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]HandlerInfo, 0, len(r.regs))
	for _, reg := range r.regs {
		infos = append(infos, HandlerInfo{ID: reg.ID, Name: reg.Name})
	}
	return infos
}
