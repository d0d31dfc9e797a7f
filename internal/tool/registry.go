package tool

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Registry holds the tools available to one session. It is explicitly
// constructed and passed by reference: created at session start, closed at
// session end, never process-global.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
	closed bool
	logger *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger is replaced with
// zap.NewNop().
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger.Named("tools"),
	}
}

// Register adds a tool. Tags must be unique and non-empty.
func (r *Registry) Register(t Tool) error {
	if t == nil || t.Tag() == "" {
		return fmt.Errorf("tool must have a non-empty tag")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("registry is closed")
	}
	if _, exists := r.tools[t.Tag()]; exists {
		return fmt.Errorf("tool %q already registered", t.Tag())
	}

	r.tools[t.Tag()] = t
	r.order = append(r.order, t.Tag())
	r.logger.Debug("registered tool",
		zap.String("tag", t.Tag()),
		zap.Bool("sequential", t.Sequential()))
	return nil
}

// Get returns the tool with the given tag, or nil.
func (r *Registry) Get(tag string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[tag]
}

// All returns every registered tool in registration order.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.order))
	for _, tag := range r.order {
		out = append(out, r.tools[tag])
	}
	return out
}

// Names returns the registered tags in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Close empties the registry; further registrations fail.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.tools = make(map[string]Tool)
	r.order = nil
}
