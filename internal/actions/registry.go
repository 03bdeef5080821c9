package actions

import (
	"context"
	"fmt"
)

// Result is what a handler reports back for the run log.
type Result struct {
	Output map[string]any
}

// Handler executes one action type. The metadata template is the step's raw
// JSON template, each handler applies its own placeholder syntax against the
// run's decoded trigger payload before dispatching.
type Handler interface {
	Execute(ctx context.Context, metadataTemplate string, payload map[string]any) (*Result, error)
}

// Registry maps an action type identifier to its handler. Dispatch is by
// lookup so new action types register without touching a central switch.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(actionType string, h Handler) {
	r.handlers[actionType] = h
}

// Handler returns the handler for actionType, or an error for unknown types.
func (r *Registry) Handler(actionType string) (Handler, error) {
	h, ok := r.handlers[actionType]
	if !ok {
		return nil, fmt.Errorf("unsupported action type: %s", actionType)
	}
	return h, nil
}

// Types lists the registered action type identifiers.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}
