// Package command is the single entry point for every write and read the back
// office accepts. A command is a plain struct naming its operation; the
// Dispatcher routes it to one registered handler through a fixed middleware
// chain (correlation and logging, validation, idempotency, transaction), and
// Execute turns the outcome into a Result for the transport layer.
//
// Handlers may dispatch further commands with the ctx they were given. The
// nested command passes the same chain and joins the open transaction.
package command

import "context"

// Command is a request understood by the dispatcher. Commands are value
// types; CommandName must not depend on field values.
type Command interface {
	CommandName() string
}

// Transactional is implemented by commands that must run inside one unit of
// work. Commands that do not implement it run without a transaction.
type Transactional interface {
	Transactional() bool
}

// Idempotent is implemented by commands carrying a client supplied key.
// An empty key disables the duplicate check for that call.
type Idempotent interface {
	IdempotencyKey() string
}

// HandlerFunc is a type-erased command handler
type HandlerFunc func(ctx context.Context, cmd Command) (any, error)

// Middleware wraps a HandlerFunc
type Middleware func(next HandlerFunc) HandlerFunc

// IsTransactional reports whether cmd asks for a unit of work
func IsTransactional(cmd Command) bool {
	t, ok := cmd.(Transactional)
	return ok && t.Transactional()
}

// TxRequired can be embedded in a command to mark it transactional.
type TxRequired struct{}

// Transactional implements Transactional
func (TxRequired) Transactional() bool { return true }

// Keyed can be embedded in a command to accept an idempotency key.
type Keyed struct {
	Key string `json:"idempotency_key,omitempty" validate:"omitempty,max=128"`
}

// IdempotencyKey implements Idempotent
func (k Keyed) IdempotencyKey() string { return k.Key }
