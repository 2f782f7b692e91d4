package repository

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/byronguina/tasktracker/internal/model"
)

// Restore replaces the repository's contents with the store's last saved
// snapshot. The id allocator resumes above the largest restored id. Loading
// does not save anything back to the store.
func (r *Repository) Restore() error {
	const op = "repository.Restore"
	if r.store == nil {
		return nil
	}

	snap, err := r.store.LoadSnapshot()
	if err != nil {
		r.log.WithField("operation", op).WithError(err).Error("failed to load snapshot")
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(snap)
	return nil
}

// Load replaces the repository's contents with snap without touching the
// store.
func (r *Repository) Load(snap *model.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(snap)
}

func (r *Repository) load(snap *model.Snapshot) {
	log := r.log.WithField("operation", "repository.load")

	r.tasks = make(map[int]*model.Item)
	r.epics = make(map[int]*model.Item)
	r.subtasks = make(map[int]*model.Item)
	r.index.Clear()
	r.history.Clear()
	r.ids.Reset()
	r.ids.Observe(snap.MaxID())

	for _, t := range snap.Tasks {
		c := t.Clone()
		c.Kind = model.KindTask
		r.tasks[c.ID] = c
		r.index.Insert(c)
	}
	for _, e := range snap.Epics {
		c := e.Clone()
		c.Kind = model.KindEpic
		r.epics[c.ID] = c
	}
	for _, s := range snap.Subtasks {
		c := s.Clone()
		c.Kind = model.KindSubtask
		if _, ok := r.epics[c.EpicID]; !ok {
			log.WithFields(logrus.Fields{"id": c.ID, "epic_id": c.EpicID}).Warn("epic not found, subtask dropped")
			continue
		}
		r.subtasks[c.ID] = c
		r.index.Insert(c)
	}

	// Keep each epic's stored sequence where it names real subtasks of that
	// epic, then append subtasks the sequence did not list in id order.
	listed := make(map[int]bool)
	for _, e := range r.epics {
		var seq []int
		for _, id := range e.SubtaskIDs {
			if s, ok := r.subtasks[id]; ok && s.EpicID == e.ID && !listed[id] {
				seq = append(seq, id)
				listed[id] = true
			}
		}
		e.SubtaskIDs = seq
	}
	orphans := make([]int, 0)
	for id := range r.subtasks {
		if !listed[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Ints(orphans)
	for _, id := range orphans {
		e := r.epics[r.subtasks[id].EpicID]
		e.SubtaskIDs = append(e.SubtaskIDs, id)
	}

	for _, e := range r.epics {
		r.refreshEpic(e)
	}

	for _, id := range snap.History {
		if r.lookup(id) != nil {
			r.history.Add(id)
		}
	}

	log.WithField("items", len(r.tasks)+len(r.epics)+len(r.subtasks)).Debug("snapshot loaded")
}
