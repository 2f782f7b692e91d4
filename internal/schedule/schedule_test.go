package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/byronguina/tasktracker/internal/model"
)

var day = time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) *time.Time {
	t := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	return &t
}

func task(id int, start *time.Time, duration int) *model.Item {
	it := model.NewTask("task", "", model.StatusNew, start, duration)
	it.ID = id
	return it
}

func ids(items []*model.Item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestInsert_OrdersByStartThenID(t *testing.T) {
	x := New()
	x.Insert(task(3, at(12, 0), 10))
	x.Insert(task(1, at(9, 0), 10))
	x.Insert(task(5, at(12, 0), 10))
	x.Insert(task(2, at(12, 0), 10))

	if got, want := ids(x.Items()), []int{1, 2, 3, 5}; !equalInts(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestInsert_SkipsUnscheduled(t *testing.T) {
	x := New()
	x.Insert(task(1, nil, 30))
	epic := model.NewEpic(2, "epic", "")
	epic.SetSpan(at(9, 0), at(10, 0), 60)
	x.Insert(epic)

	if x.Len() != 0 {
		t.Errorf("Len() = %d, want 0", x.Len())
	}
}

func TestInsert_ReplacesSameID(t *testing.T) {
	x := New()
	x.Insert(task(1, at(9, 0), 10))
	x.Insert(task(2, at(10, 0), 10))
	x.Insert(task(1, at(11, 0), 10))

	if got, want := ids(x.Items()), []int{2, 1}; !equalInts(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	// Moving an item to unscheduled drops it.
	x.Insert(task(2, nil, 10))
	if got, want := ids(x.Items()), []int{1}; !equalInts(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestRemove(t *testing.T) {
	x := New()
	x.Insert(task(1, at(9, 0), 10))
	x.Insert(task(2, at(9, 0), 10))
	x.Insert(task(3, at(9, 0), 10))

	x.Remove(2)
	x.Remove(42)

	if got, want := ids(x.Items()), []int{1, 3}; !equalInts(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if x.Contains(2) {
		t.Error("removed item still indexed")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		candidate *model.Item
		conflict  bool
	}{
		{"overlaps start", task(10, at(8, 50), 20), true},
		{"inside", task(10, at(9, 20), 10), true},
		{"covers", task(10, at(8, 0), 180), true},
		{"overlaps end", task(10, at(9, 30), 30), true},
		{"same start", task(10, at(9, 0), 5), true},
		{"abuts end", task(10, at(9, 40), 10), false},
		{"abuts start", task(10, at(8, 30), 30), false},
		{"well before", task(10, at(6, 0), 30), false},
		{"well after", task(10, at(18, 0), 30), false},
		{"no start", task(10, nil, 600), false},
		{"same id", task(1, at(9, 10), 10), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := New()
			x.Insert(task(1, at(9, 0), 40))

			err := x.Validate(tt.candidate)
			if tt.conflict && err == nil {
				t.Fatal("expected conflict")
			}
			if !tt.conflict && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.conflict && !errors.Is(err, ErrConflict) {
				t.Errorf("error %v does not match ErrConflict", err)
			}
		})
	}
}

func TestValidate_NamesBothItems(t *testing.T) {
	x := New()
	existing := task(1, at(9, 0), 40)
	x.Insert(existing)

	candidate := task(2, at(9, 20), 10)
	err := x.Validate(candidate)

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
	if conflict.Candidate.ID != 2 || conflict.Existing.ID != 1 {
		t.Errorf("conflict names %d and %d, want 2 and 1", conflict.Candidate.ID, conflict.Existing.ID)
	}
	if conflict.Error() == "" {
		t.Error("empty error message")
	}
}

func TestValidate_ChecksLaterItems(t *testing.T) {
	// A finished earlier item must not stop the scan before the long item
	// that actually overlaps.
	x := New()
	x.Insert(task(2, at(7, 0), 10))
	x.Insert(task(1, at(8, 0), 240))

	if err := x.Validate(task(3, at(11, 0), 10)); !errors.Is(err, ErrConflict) {
		t.Errorf("expected conflict with long item, got %v", err)
	}
}

func TestClear(t *testing.T) {
	x := New()
	x.Insert(task(1, at(9, 0), 10))
	x.Clear()
	if x.Len() != 0 || x.Contains(1) {
		t.Error("index not empty after Clear")
	}
}
