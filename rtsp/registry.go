package rtsp

import (
	"sort"
	"strings"
	"sync"
)

// BodyFunc consumes a request body of a registered content type.
type BodyFunc func(body []byte)

// Registry maps content types to body consumers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]BodyFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]BodyFunc)}
}

// Register sets the consumer for contentType, replacing any previous one.
func (r *Registry) Register(contentType string, fn BodyFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[strings.ToLower(contentType)] = fn
}

// Lookup returns the consumer for contentType.
func (r *Registry) Lookup(contentType string) (BodyFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[strings.ToLower(contentType)]
	return fn, ok
}

// ContentTypes lists the registered types in sorted order.
func (r *Registry) ContentTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
