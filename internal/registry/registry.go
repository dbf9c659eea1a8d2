// Package registry holds the endpoint table consulted by every connection
// worker. Entries are registered once during startup; the table is sealed when
// the listener starts and only read afterwards.
package registry

import (
	"sync"

	"kvhttpd/internal/cache"
	"kvhttpd/internal/errors"
	"kvhttpd/internal/protocol"
)

// StandardMethods is the verb set of a handler registered without one.
var StandardMethods = []string{
	"GET", "HEAD", "POST", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE", "PATCH",
}

// HandlerFunc is the callback invoked for a matched request. The returned
// message is logged; it is not sent to the client.
type HandlerFunc func(req *protocol.Request, c *cache.Cache) (string, error)

// Handler is a registered endpoint.
type Handler struct {
	Key         string
	Methods     []string // empty accepts StandardMethods
	Description string
	Properties  []string
	Func        HandlerFunc
}

// AllowedMethods returns the effective verb set.
func (h *Handler) AllowedMethods() []string {
	if len(h.Methods) == 0 {
		return StandardMethods
	}
	return h.Methods
}

// Allows reports whether method is in the effective verb set. Verbs are
// case-sensitive.
func (h *Handler) Allows(method string) bool {
	for _, m := range h.AllowedMethods() {
		if m == method {
			return true
		}
	}
	return false
}

// Registry maps endpoint keys to handlers.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Handler
	order   []string
	sealed  bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*Handler)}
}

// Register adds h under h.Key.
func (r *Registry) Register(h Handler) error {
	if h.Func == nil {
		return errors.Newf(errors.InvalidHandler, "handler %q has no callback", h.Key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return errors.Newf(errors.RegistrySealed, "cannot register %q after the listener started", h.Key)
	}
	if _, exists := r.entries[h.Key]; exists {
		return errors.Newf(errors.DuplicateEndpoint, "endpoint %q already registered", h.Key)
	}

	entry := h
	if len(entry.Methods) == 0 {
		entry.Methods = nil
	}
	r.entries[h.Key] = &entry
	r.order = append(r.order, h.Key)
	return nil
}

// MustRegister is Register for static registration lists; it panics on error.
func (r *Registry) MustRegister(h Handler) {
	if err := r.Register(h); err != nil {
		panic(err)
	}
}

// Seal stops further registration.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Lookup returns the handler registered under exactly path.
func (r *Registry) Lookup(path string) (*Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.entries[path]
	return h, ok
}

// Handlers returns all handlers in registration order.
func (r *Registry) Handlers() []*Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Handler, len(r.order))
	for i, key := range r.order {
		out[i] = r.entries[key]
	}
	return out
}

// Len returns the number of registered endpoints.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
