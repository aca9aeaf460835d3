package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/erp/backoffice/internal/domain/shared"
)

// ErrUnknownCommand is returned by Decode for names without a handler
var ErrUnknownCommand = &shared.DomainError{
	Kind:    shared.KindNotFound,
	Code:    "UNKNOWN_COMMAND",
	Message: "Unknown command",
}

// DecoderFunc builds a command from its JSON payload
type DecoderFunc func(data []byte) (Command, error)

// Dispatcher routes commands to their handlers through the middleware chain.
// It is safe for concurrent use once registration is complete.
type Dispatcher struct {
	mu          sync.RWMutex
	handlers    map[string]HandlerFunc
	decoders    map[string]DecoderFunc
	middlewares []Middleware
}

// NewDispatcher creates a dispatcher. Middlewares run in the given order,
// the first one outermost.
func NewDispatcher(middlewares ...Middleware) *Dispatcher {
	return &Dispatcher{
		handlers:    make(map[string]HandlerFunc),
		decoders:    make(map[string]DecoderFunc),
		middlewares: middlewares,
	}
}

// Register binds handler to the command type C. Registering the same command
// name twice panics.
func Register[C Command, R any](d *Dispatcher, handler func(ctx context.Context, cmd C) (R, error)) {
	var zero C
	name := zero.CommandName()

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[name]; exists {
		panic(fmt.Sprintf("command: handler for %q registered twice", name))
	}
	d.handlers[name] = func(ctx context.Context, cmd Command) (any, error) {
		c, ok := cmd.(C)
		if !ok {
			return nil, fmt.Errorf("command %q: unexpected type %T", name, cmd)
		}
		return handler(ctx, c)
	}
	d.decoders[name] = func(data []byte) (Command, error) {
		var c C
		if len(bytes.TrimSpace(data)) == 0 {
			return c, nil
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, shared.NewValidationError("INVALID_PAYLOAD",
				fmt.Sprintf("Invalid payload for %s: %v", name, err))
		}
		return c, nil
	}
}

// Decode builds the command registered under name from a JSON payload. An
// empty payload yields the zero command.
func (d *Dispatcher) Decode(name string, data []byte) (Command, error) {
	d.mu.RLock()
	decode, ok := d.decoders[name]
	d.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownCommand
	}
	return decode(data)
}

// Dispatch runs cmd through the middleware chain and its handler
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (any, error) {
	if cmd == nil {
		return nil, fmt.Errorf("dispatch: nil command")
	}
	d.mu.RLock()
	handler, ok := d.handlers[cmd.CommandName()]
	middlewares := d.middlewares
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("dispatch: no handler registered for command %q", cmd.CommandName())
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler(ctx, cmd)
}

// Commands returns the registered command names in sorted order
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a handler is registered for name
func (d *Dispatcher) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[name]
	return ok
}

// DispatchAs dispatches cmd and asserts the handler's result type
func DispatchAs[R any](ctx context.Context, d *Dispatcher, cmd Command) (R, error) {
	var zero R
	out, err := d.Dispatch(ctx, cmd)
	if err != nil {
		return zero, err
	}
	r, ok := out.(R)
	if !ok {
		return zero, fmt.Errorf("command %q: result is %T, not %T", cmd.CommandName(), out, zero)
	}
	return r, nil
}
