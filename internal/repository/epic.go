package repository

import (
	"time"

	"github.com/byronguina/tasktracker/internal/model"
)

// DeriveEpicStatus computes an epic's status from its subtasks.
//
// Rules:
//   - No subtasks: NEW.
//   - All subtasks DONE: DONE.
//   - All subtasks NEW: NEW.
//   - Any other mix: IN_PROGRESS.
func DeriveEpicStatus(subtasks []*model.Item) model.Status {
	if len(subtasks) == 0 {
		return model.StatusNew
	}

	var done, fresh int
	for _, s := range subtasks {
		switch s.Status {
		case model.StatusDone:
			done++
		case model.StatusNew:
			fresh++
		}
	}

	switch len(subtasks) {
	case done:
		return model.StatusDone
	case fresh:
		return model.StatusNew
	}
	return model.StatusInProgress
}

// deriveEpicSpan returns the earliest subtask start, the latest subtask end
// and the sum of all subtask durations. Start and end are nil when no
// subtask has a start time.
func deriveEpicSpan(subtasks []*model.Item) (start, end *time.Time, duration int) {
	for _, s := range subtasks {
		if s.StartTime != nil && (start == nil || s.StartTime.Before(*start)) {
			start = s.StartTime
		}
		if e := s.EndTime(); e != nil && (end == nil || e.After(*end)) {
			end = e
		}
		duration += s.Duration
	}
	return start, end, duration
}

// refreshEpic recomputes the derived status and span of epic from the
// subtasks it currently owns. Caller must hold r.mu.
func (r *Repository) refreshEpic(epic *model.Item) {
	subs := r.ownedSubtasks(epic)
	epic.Status = DeriveEpicStatus(subs)
	start, end, duration := deriveEpicSpan(subs)
	epic.SetSpan(start, end, duration)
}

// ownedSubtasks resolves epic's subtask ids in sequence order.
func (r *Repository) ownedSubtasks(epic *model.Item) []*model.Item {
	subs := make([]*model.Item, 0, len(epic.SubtaskIDs))
	for _, id := range epic.SubtaskIDs {
		if s, ok := r.subtasks[id]; ok {
			subs = append(subs, s)
		}
	}
	return subs
}

func removeID(ids []int, id int) []int {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
