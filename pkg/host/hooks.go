package host

import (
	"context"
	"sync"
)

// Event names dispatched by the host when submissions change.
const (
	EventMetadataChanged    = "submission:metadata_changed"
	EventFileChanged        = "submission:file_changed"
	EventFileDeleted        = "submission:file_deleted"
	EventSubmissionDeleted  = "submission:deleted"
	EventPublicationRetired = "publication:unpublished"
)

// Event is the payload delivered to hook handlers. Fields beyond
// SubmissionID are set only where the event carries them.
type Event struct {
	Name         string
	SubmissionID int64
	FileID       int64
	FileType     string
}

// Handler reacts to one event. Handlers must be idempotent; the host may
// redeliver events.
type Handler func(ctx context.Context, ev Event)

// HookRegistry is the subscription half of the host's event system.
type HookRegistry interface {
	Register(event string, h Handler)
}

// Hooks is an in-process HookRegistry with synchronous dispatch. The real
// host provides its own registry; this one backs the standalone server and
// tests.
type Hooks struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewHooks() *Hooks {
	return &Hooks{handlers: make(map[string][]Handler)}
}

func (h *Hooks) Register(event string, handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[event] = append(h.handlers[event], handler)
}

// Dispatch invokes every handler registered for ev.Name, in registration
// order, on the calling goroutine.
func (h *Hooks) Dispatch(ctx context.Context, ev Event) {
	h.mu.RLock()
	handlers := h.handlers[ev.Name]
	h.mu.RUnlock()

	for _, handler := range handlers {
		handler(ctx, ev)
	}
}
