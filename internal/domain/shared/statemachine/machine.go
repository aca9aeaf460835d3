// Package statemachine holds the transition-table shape shared by every
// document lifecycle. A document declares its table once; handlers ask the
// machine for the next status instead of branching on the current one.
package statemachine

import (
	"fmt"
	"slices"

	"github.com/erp/backoffice/internal/domain/shared"
)

// Transition moves a document from any of From to To when On is requested.
type Transition[S ~string, A ~string] struct {
	From []S
	On   A
	To   S
}

// Machine is an immutable transition table.
type Machine[S ~string, A ~string] struct {
	document string
	table    map[S]map[A]S
	terminal map[S]struct{}
}

// New builds a machine for the named document type. Terminal states accept
// no action at all, regardless of the table.
func New[S ~string, A ~string](document string, transitions []Transition[S, A], terminal ...S) *Machine[S, A] {
	m := &Machine[S, A]{
		document: document,
		table:    make(map[S]map[A]S),
		terminal: make(map[S]struct{}, len(terminal)),
	}
	for _, t := range transitions {
		for _, from := range t.From {
			if m.table[from] == nil {
				m.table[from] = make(map[A]S)
			}
			m.table[from][t.On] = t.To
		}
	}
	for _, s := range terminal {
		m.terminal[s] = struct{}{}
	}
	return m
}

// Fire returns the status reached by applying action to current, or a
// business rule violation when the pair is not in the table.
func (m *Machine[S, A]) Fire(current S, action A) (S, error) {
	if m.IsTerminal(current) {
		return current, shared.NewDomainError(shared.ErrInvalidTransition.Code,
			fmt.Sprintf("%s is %s and cannot be changed", m.document, current))
	}
	next, ok := m.table[current][action]
	if !ok {
		return current, shared.NewDomainError(shared.ErrInvalidTransition.Code,
			fmt.Sprintf("cannot %s %s in %s status", action, m.document, current))
	}
	return next, nil
}

// Can reports whether action is allowed from current.
func (m *Machine[S, A]) Can(current S, action A) bool {
	_, err := m.Fire(current, action)
	return err == nil
}

// IsTerminal reports whether s accepts no further transitions.
func (m *Machine[S, A]) IsTerminal(s S) bool {
	_, ok := m.terminal[s]
	return ok
}

// Allowed lists the actions accepted from s in a stable order.
func (m *Machine[S, A]) Allowed(s S) []A {
	if m.IsTerminal(s) {
		return nil
	}
	actions := make([]A, 0, len(m.table[s]))
	for a := range m.table[s] {
		actions = append(actions, a)
	}
	slices.Sort(actions)
	return actions
}
