// Package history remembers which items were viewed, most recent last.
//
// The tracker is a doubly linked list of ids plus an id→node index, so adding
// an id that is already present moves it to the end and removal of any id is
// O(1) without shifting the other entries.
package history

import "github.com/byronguina/tasktracker/internal/model"

type node struct {
	id   int
	prev *node
	next *node
}

// Tracker records item accesses with at most one entry per id. It is not
// safe for concurrent use.
type Tracker struct {
	head  *node
	tail  *node
	index map[int]*node
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{index: make(map[int]*node)}
}

// Record notes an access to item. A nil item means there was nothing to
// record and is ignored.
func (t *Tracker) Record(item *model.Item) {
	if item == nil {
		return
	}
	t.Add(item.ID)
}

// Add makes id the most recent entry, dropping its earlier position.
func (t *Tracker) Add(id int) {
	if n, ok := t.index[id]; ok {
		t.unlink(n)
	}
	n := &node{id: id, prev: t.tail}
	if t.tail == nil {
		t.head = n
	} else {
		t.tail.next = n
	}
	t.tail = n
	t.index[id] = n
}

// Remove drops id from the history. Unknown ids are ignored.
func (t *Tracker) Remove(id int) {
	if n, ok := t.index[id]; ok {
		t.unlink(n)
	}
}

func (t *Tracker) unlink(n *node) {
	if n.prev == nil {
		t.head = n.next
	} else {
		n.prev.next = n.next
	}
	if n.next == nil {
		t.tail = n.prev
	} else {
		n.next.prev = n.prev
	}
	n.prev, n.next = nil, nil
	delete(t.index, n.id)
}

// IDs returns the recorded ids, oldest first.
func (t *Tracker) IDs() []int {
	ids := make([]int, 0, len(t.index))
	for n := t.head; n != nil; n = n.next {
		ids = append(ids, n.id)
	}
	return ids
}

// Contains reports whether id is in the history.
func (t *Tracker) Contains(id int) bool {
	_, ok := t.index[id]
	return ok
}

// Len returns the number of entries.
func (t *Tracker) Len() int {
	return len(t.index)
}

// Clear removes every entry.
func (t *Tracker) Clear() {
	t.head, t.tail = nil, nil
	t.index = make(map[int]*node)
}
