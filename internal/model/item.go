package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind tags which of the three item shapes an Item carries.
type Kind string

const (
	KindTask    Kind = "TASK"
	KindEpic    Kind = "EPIC"
	KindSubtask Kind = "SUBTASK"
)

// IsValid returns true if the kind is one of the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindTask, KindEpic, KindSubtask:
		return true
	}
	return false
}

// Status is the progress state of an item.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// IsValid returns true if the status is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// TimeLayout is the wire layout for start and end times in the line-oriented
// file format and on the command line.
const TimeLayout = "15:04 - 02.01.2006"

// Item is a task, an epic or a subtask. Kind decides which of the
// kind-specific fields are meaningful: EpicID for subtasks, SubtaskIDs for
// epics. Epics carry a derived time span instead of a caller-set one.
type Item struct {
	ID          int        `json:"id"`
	Kind        Kind       `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	Duration    int        `json:"duration"`
	EpicID      int        `json:"epicId,omitempty"`
	SubtaskIDs  []int      `json:"subtaskIds,omitempty"`

	// spanEnd is only set on epics, where the end is the latest subtask end
	// rather than StartTime + Duration.
	spanEnd *time.Time
}

// NewTask creates a standalone task. A nil start leaves the task unscheduled.
func NewTask(name, description string, status Status, start *time.Time, duration int) *Item {
	return &Item{
		Kind:        KindTask,
		Name:        name,
		Description: description,
		Status:      status,
		StartTime:   copyTime(start),
		Duration:    duration,
	}
}

// NewEpic creates an epic with a caller-chosen id and no subtasks.
func NewEpic(id int, name, description string) *Item {
	return &Item{
		ID:          id,
		Kind:        KindEpic,
		Name:        name,
		Description: description,
		Status:      StatusNew,
	}
}

// NewSubtask creates a subtask owned by the epic with the given id.
func NewSubtask(epicID int, name, description string, status Status, start *time.Time, duration int) *Item {
	return &Item{
		Kind:        KindSubtask,
		Name:        name,
		Description: description,
		Status:      status,
		StartTime:   copyTime(start),
		Duration:    duration,
		EpicID:      epicID,
	}
}

// EndTime returns the end of the item's interval, or nil if it has no start.
func (it *Item) EndTime() *time.Time {
	if it.Kind == KindEpic {
		return copyTime(it.spanEnd)
	}
	if it.StartTime == nil {
		return nil
	}
	end := it.StartTime.Add(time.Duration(it.Duration) * time.Minute)
	return &end
}

// SetSpan sets an epic's derived time span.
func (it *Item) SetSpan(start, end *time.Time, duration int) {
	it.StartTime = copyTime(start)
	it.spanEnd = copyTime(end)
	it.Duration = duration
}

// Scheduled returns true if the item takes part in time ordering.
func (it *Item) Scheduled() bool {
	return it.Kind != KindEpic && it.StartTime != nil
}

// Validate checks the fields a caller controls.
func (it *Item) Validate() error {
	if !it.Kind.IsValid() {
		return fmt.Errorf("invalid item type: %s", it.Kind)
	}
	if !it.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", it.Status)
	}
	if it.Duration < 0 {
		return fmt.Errorf("invalid duration: %d", it.Duration)
	}
	return nil
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	c := *it
	c.StartTime = copyTime(it.StartTime)
	c.spanEnd = copyTime(it.spanEnd)
	if it.SubtaskIDs != nil {
		c.SubtaskIDs = append([]int(nil), it.SubtaskIDs...)
	}
	return &c
}

func (it *Item) String() string {
	return fmt.Sprintf("%s %d %q", it.Kind, it.ID, it.Name)
}

// MarshalJSON adds the derived endTime to the encoded item.
func (it Item) MarshalJSON() ([]byte, error) {
	type plain Item
	return json.Marshal(struct {
		plain
		EndTime *time.Time `json:"endTime,omitempty"`
	}{plain(it), it.EndTime()})
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Snapshot is the full exportable state of a repository.
type Snapshot struct {
	Tasks    []*Item
	Epics    []*Item
	Subtasks []*Item
	History  []int
}

// MaxID returns the largest id across all items in the snapshot.
func (s *Snapshot) MaxID() int {
	highest := 0
	for _, group := range [][]*Item{s.Tasks, s.Epics, s.Subtasks} {
		for _, it := range group {
			if it.ID > highest {
				highest = it.ID
			}
		}
	}
	return highest
}
