// Package symbol interns descriptor and field names.
//
// Names are compared on every pairwise step of the caps algebra, so they are
// reduced to small integer handles once and compared by identity afterwards.
// Interned strings are NFC normalized so that visually identical names with
// different Unicode compositions map to the same Symbol.
package symbol

import (
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Symbol is an interned name. The zero Symbol is reserved and never returned
// by Intern.
type Symbol uint32

// Table maps strings to Symbols. The zero value is not usable; use NewTable.
type Table struct {
	mu    sync.RWMutex
	ids   map[string]Symbol
	names []string
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		ids:   make(map[string]Symbol),
		names: []string{""},
	}
}

// Intern returns the Symbol for name, allocating one on first use.
// Safe for concurrent use.
func (t *Table) Intern(name string) Symbol {
	name = norm.NFC.String(name)

	t.mu.RLock()
	s, ok := t.ids[name]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Another goroutine may have won the race between the two locks.
	if s, ok := t.ids[name]; ok {
		return s
	}
	s = Symbol(len(t.names))
	t.names = append(t.names, name)
	t.ids[name] = s
	return s
}

// Lookup returns the Symbol for name without allocating.
func (t *Table) Lookup(name string) (Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.ids[norm.NFC.String(name)]
	return s, ok
}

// Name returns the string for s, or "" for an unknown Symbol.
func (t *Table) Name(s Symbol) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(s) >= len(t.names) {
		return ""
	}
	return t.names[s]
}

// Len reports the number of interned names.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.names) - 1
}

var global = NewTable()

// Intern interns name in the process-wide table.
func Intern(name string) Symbol {
	return global.Intern(name)
}

// Lookup looks name up in the process-wide table.
func Lookup(name string) (Symbol, bool) {
	return global.Lookup(name)
}

// String returns the interned name.
func (s Symbol) String() string {
	return global.Name(s)
}
