// Package ident issues item identifiers from one counter shared by tasks,
// epics and subtasks.
package ident

// Allocator hands out strictly increasing ids starting at 1. The zero value
// is ready to use. It is not safe for concurrent use; the repository
// serializes access.
type Allocator struct {
	last int
}

// Next returns a new id greater than every id issued or observed so far.
func (a *Allocator) Next() int {
	a.last++
	return a.last
}

// Peek returns the id the next call to Next will issue, without issuing it.
func (a *Allocator) Peek() int {
	return a.last + 1
}

// Observe raises the counter so that Next never returns id or anything below
// it. Used when ids come from outside the allocator: restored snapshots and
// caller-chosen epic ids.
func (a *Allocator) Observe(id int) {
	if id > a.last {
		a.last = id
	}
}

// Last returns the most recently issued or observed id, 0 if none.
func (a *Allocator) Last() int {
	return a.last
}

// Reset puts the allocator back to its initial state.
func (a *Allocator) Reset() {
	a.last = 0
}
