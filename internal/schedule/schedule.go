// Package schedule keeps time-bearing items ordered by start time and
// rejects items whose intervals would overlap.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/byronguina/tasktracker/internal/model"
)

// ErrConflict matches every *ConflictError.
var ErrConflict = errors.New("scheduling conflict")

// ConflictError names the item being added or updated and the stored item
// whose interval it overlaps.
type ConflictError struct {
	Candidate *model.Item
	Existing  *model.Item
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("scheduling conflict: %s [%s, %s) overlaps %s [%s, %s)",
		e.Candidate, formatTime(e.Candidate.StartTime), formatTime(e.Candidate.EndTime()),
		e.Existing, formatTime(e.Existing.StartTime), formatTime(e.Existing.EndTime()))
}

// Is reports whether target is ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Index holds scheduled tasks and subtasks in ascending start order, ties
// broken by ascending id. Items without a start time are never indexed.
// It is not safe for concurrent use.
type Index struct {
	items []*model.Item
	byID  map[int]*model.Item
}

// New returns an empty index.
func New() *Index {
	return &Index{byID: make(map[int]*model.Item)}
}

func less(a, b *model.Item) bool {
	if !a.StartTime.Equal(*b.StartTime) {
		return a.StartTime.Before(*b.StartTime)
	}
	return a.ID < b.ID
}

// search returns the position of the first indexed item not less than it.
func (x *Index) search(it *model.Item) int {
	return sort.Search(len(x.items), func(i int) bool {
		return !less(x.items[i], it)
	})
}

// Insert adds item, replacing any entry with the same id. Unscheduled items
// only remove a previous entry for that id.
func (x *Index) Insert(item *model.Item) {
	x.Remove(item.ID)
	if !item.Scheduled() {
		return
	}
	i := x.search(item)
	x.items = append(x.items, nil)
	copy(x.items[i+1:], x.items[i:])
	x.items[i] = item
	x.byID[item.ID] = item
}

// Remove drops the entry for id, if any.
func (x *Index) Remove(id int) {
	stored, ok := x.byID[id]
	if !ok {
		return
	}
	i := x.search(stored)
	for ; i < len(x.items); i++ {
		if x.items[i].ID == id {
			x.items = append(x.items[:i], x.items[i+1:]...)
			break
		}
	}
	delete(x.byID, id)
}

// Validate checks candidate against every indexed item with a different id.
// Two intervals [s1,e1) and [s2,e2) conflict unless one ends at or before the
// other starts. An item without a start time never conflicts.
func (x *Index) Validate(candidate *model.Item) error {
	if candidate.StartTime == nil {
		return nil
	}
	start, end := *candidate.StartTime, *candidate.EndTime()
	for _, existing := range x.items {
		if existing.ID == candidate.ID {
			continue
		}
		// Sorted by start: nothing further along can begin before end.
		if !existing.StartTime.Before(end) {
			break
		}
		if existing.EndTime().After(start) {
			return &ConflictError{Candidate: candidate, Existing: existing}
		}
	}
	return nil
}

// Items returns the indexed items in ascending order.
func (x *Index) Items() []*model.Item {
	return append([]*model.Item(nil), x.items...)
}

// Contains reports whether an item with id is indexed.
func (x *Index) Contains(id int) bool {
	_, ok := x.byID[id]
	return ok
}

// Len returns the number of indexed items.
func (x *Index) Len() int {
	return len(x.items)
}

// Clear removes every entry.
func (x *Index) Clear() {
	x.items = nil
	x.byID = make(map[int]*model.Item)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(model.TimeLayout)
}
