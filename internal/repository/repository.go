// Package repository owns tasks, epics and subtasks and keeps the schedule
// index, the view history and the backing store in step with every change.
package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/byronguina/tasktracker/internal/history"
	"github.com/byronguina/tasktracker/internal/ident"
	"github.com/byronguina/tasktracker/internal/logging"
	"github.com/byronguina/tasktracker/internal/model"
	"github.com/byronguina/tasktracker/internal/schedule"
)

// Repository is safe for concurrent use. Every operation holds one lock
// for its whole duration, including the snapshot push to the store.
type Repository struct {
	mu sync.Mutex

	ids      ident.Allocator
	tasks    map[int]*model.Item
	epics    map[int]*model.Item
	subtasks map[int]*model.Item
	index    *schedule.Index
	history  *history.Tracker

	store Store
	log   *logrus.Entry
}

// New creates an empty repository. A nil tracker gets a fresh one, a nil
// store keeps everything in memory and a nil log discards output.
func New(tracker *history.Tracker, store Store, log *logrus.Entry) *Repository {
	if tracker == nil {
		tracker = history.New()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Repository{
		tasks:    make(map[int]*model.Item),
		epics:    make(map[int]*model.Item),
		subtasks: make(map[int]*model.Item),
		index:    schedule.New(),
		history:  tracker,
		store:    store,
		log:      log,
	}
}

// AddTask stores a new task under a freshly allocated id and returns it.
func (r *Repository) AddTask(task *model.Item) (*model.Item, error) {
	const op = "repository.AddTask"
	log := r.log.WithField("operation", op)

	t, err := prepare(task, model.KindTask)
	if err != nil {
		return nil, err
	}
	t.EpicID = 0

	r.mu.Lock()
	defer r.mu.Unlock()

	t.ID = r.ids.Peek()
	if err := r.index.Validate(t); err != nil {
		log.WithError(err).Warn("task rejected")
		return nil, err
	}
	t.ID = r.ids.Next()

	r.tasks[t.ID] = t
	r.index.Insert(t)
	log.WithField("id", t.ID).Debug("task added")

	return t.Clone(), r.persist(op)
}

// AddEpic stores an epic under the id the caller chose. The id must be
// positive and not used by any other item.
func (r *Repository) AddEpic(epic *model.Item) (*model.Item, error) {
	const op = "repository.AddEpic"
	log := r.log.WithField("operation", op)

	if epic == nil {
		return nil, fmt.Errorf("%w: nil epic", ErrInvalidItem)
	}
	if epic.ID <= 0 {
		return nil, fmt.Errorf("%w: epic id must be positive, got %d", ErrInvalidID, epic.ID)
	}
	if epic.Kind != "" && epic.Kind != model.KindEpic {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrInvalidItem, model.KindEpic, epic.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lookup(epic.ID) != nil {
		return nil, fmt.Errorf("%w: id %d already in use", ErrInvalidID, epic.ID)
	}

	// The caller's id is kept, not reallocated, so subtasks can name it.
	e := model.NewEpic(epic.ID, epic.Name, epic.Description)
	r.ids.Observe(e.ID)
	r.epics[e.ID] = e
	r.refreshEpic(e)
	log.WithField("id", e.ID).Debug("epic added")

	return e.Clone(), r.persist(op)
}

// AddSubtask stores a new subtask and attaches it to its epic. An unknown
// epic yields ErrEpicNotFound and nothing is created.
func (r *Repository) AddSubtask(subtask *model.Item) (*model.Item, error) {
	const op = "repository.AddSubtask"
	log := r.log.WithField("operation", op)

	s, err := prepare(subtask, model.KindSubtask)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	epic, ok := r.epics[s.EpicID]
	if !ok {
		log.WithField("epic_id", s.EpicID).Warn("epic not found, subtask not created")
		return nil, fmt.Errorf("%w: %d", ErrEpicNotFound, s.EpicID)
	}

	s.ID = r.ids.Peek()
	if err := r.index.Validate(s); err != nil {
		log.WithError(err).Warn("subtask rejected")
		return nil, err
	}
	s.ID = r.ids.Next()

	r.subtasks[s.ID] = s
	epic.SubtaskIDs = append(epic.SubtaskIDs, s.ID)
	r.refreshEpic(epic)
	r.index.Insert(s)
	log.WithFields(logrus.Fields{"id": s.ID, "epic_id": epic.ID}).Debug("subtask added")

	return s.Clone(), r.persist(op)
}

// GetTask returns the task with id and records the access in the history.
func (r *Repository) GetTask(id int) (*model.Item, error) {
	return r.get("repository.GetTask", model.KindTask, id)
}

// GetEpic returns the epic with id and records the access in the history.
func (r *Repository) GetEpic(id int) (*model.Item, error) {
	return r.get("repository.GetEpic", model.KindEpic, id)
}

// GetSubtask returns the subtask with id and records the access in the history.
func (r *Repository) GetSubtask(id int) (*model.Item, error) {
	return r.get("repository.GetSubtask", model.KindSubtask, id)
}

func (r *Repository) get(op string, kind model.Kind, id int) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.collection(kind)[id]
	if !ok {
		return nil, notFound(kind, id)
	}
	r.history.Record(it)
	return it.Clone(), r.persist(op)
}

// Tasks returns every task ordered by id.
func (r *Repository) Tasks() []*model.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedClones(r.tasks)
}

// Epics returns every epic ordered by id.
func (r *Repository) Epics() []*model.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedClones(r.epics)
}

// Subtasks returns every subtask ordered by id.
func (r *Repository) Subtasks() []*model.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedClones(r.subtasks)
}

// SubtasksForEpic returns the epic's subtasks in the order they were added.
// An unknown epic has none.
func (r *Repository) SubtasksForEpic(epicID int) []*model.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	epic, ok := r.epics[epicID]
	if !ok {
		return []*model.Item{}
	}
	subs := r.ownedSubtasks(epic)
	out := make([]*model.Item, len(subs))
	for i, s := range subs {
		out[i] = s.Clone()
	}
	return out
}

// UpdateTask replaces the stored task with the same id.
func (r *Repository) UpdateTask(task *model.Item) error {
	const op = "repository.UpdateTask"

	t, err := prepare(task, model.KindTask)
	if err != nil {
		return err
	}
	t.EpicID = 0

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; !ok {
		return notFound(model.KindTask, t.ID)
	}
	if err := r.index.Validate(t); err != nil {
		r.log.WithField("operation", op).WithError(err).Warn("update rejected")
		return err
	}

	r.tasks[t.ID] = t
	r.index.Insert(t)
	return r.persist(op)
}

// UpdateSubtask replaces the stored subtask with the same id. A subtask
// stays with the epic it was created under.
func (r *Repository) UpdateSubtask(subtask *model.Item) error {
	const op = "repository.UpdateSubtask"

	s, err := prepare(subtask, model.KindSubtask)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.subtasks[s.ID]
	if !ok {
		return notFound(model.KindSubtask, s.ID)
	}
	if s.EpicID != 0 && s.EpicID != old.EpicID {
		return fmt.Errorf("%w: subtask %d belongs to epic %d", ErrInvalidItem, s.ID, old.EpicID)
	}
	s.EpicID = old.EpicID

	if err := r.index.Validate(s); err != nil {
		r.log.WithField("operation", op).WithError(err).Warn("update rejected")
		return err
	}

	r.subtasks[s.ID] = s
	r.index.Insert(s)
	if epic, ok := r.epics[s.EpicID]; ok {
		r.refreshEpic(epic)
	}
	return r.persist(op)
}

// UpdateEpic changes an epic's name and description. Status and time span
// are derived from the subtasks, so any values on the input are ignored.
func (r *Repository) UpdateEpic(epic *model.Item) error {
	const op = "repository.UpdateEpic"
	if epic == nil {
		return fmt.Errorf("%w: nil epic", ErrInvalidItem)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.epics[epic.ID]
	if !ok {
		return notFound(model.KindEpic, epic.ID)
	}
	stored.Name = epic.Name
	stored.Description = epic.Description
	return r.persist(op)
}

// RemoveTask deletes the task with id from the repository, the schedule and
// the history.
func (r *Repository) RemoveTask(id int) error {
	const op = "repository.RemoveTask"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return notFound(model.KindTask, id)
	}
	r.removeTask(id)
	r.log.WithFields(logrus.Fields{"operation": op, "id": id}).Debug("task removed")
	return r.persist(op)
}

// RemoveSubtask deletes the subtask with id and detaches it from its epic.
func (r *Repository) RemoveSubtask(id int) error {
	const op = "repository.RemoveSubtask"

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.subtasks[id]
	if !ok {
		return notFound(model.KindSubtask, id)
	}
	r.removeSubtask(id)
	if epic, ok := r.epics[s.EpicID]; ok {
		r.refreshEpic(epic)
	}
	r.log.WithFields(logrus.Fields{"operation": op, "id": id}).Debug("subtask removed")
	return r.persist(op)
}

// RemoveEpic deletes the epic with id together with all of its subtasks.
func (r *Repository) RemoveEpic(id int) error {
	const op = "repository.RemoveEpic"

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.epics[id]; !ok {
		return notFound(model.KindEpic, id)
	}
	r.removeEpic(id)
	r.log.WithFields(logrus.Fields{"operation": op, "id": id}).Debug("epic removed")
	return r.persist(op)
}

// RemoveAllTasks deletes every task.
func (r *Repository) RemoveAllTasks() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.tasks {
		r.removeTask(id)
	}
	return r.persist("repository.RemoveAllTasks")
}

// RemoveAllSubtasks deletes every subtask. Epics stay, with no subtasks.
func (r *Repository) RemoveAllSubtasks() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.subtasks {
		r.removeSubtask(id)
	}
	for _, epic := range r.epics {
		r.refreshEpic(epic)
	}
	return r.persist("repository.RemoveAllSubtasks")
}

// RemoveAllEpics deletes every epic and, with them, every subtask.
func (r *Repository) RemoveAllEpics() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.epics {
		r.removeEpic(id)
	}
	return r.persist("repository.RemoveAllEpics")
}

// Prioritized returns scheduled tasks and subtasks ordered by start time.
func (r *Repository) Prioritized() []*model.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.index.Items()
	out := make([]*model.Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// History returns the viewed items, least recently viewed first.
func (r *Repository) History() []*model.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.history.IDs()
	out := make([]*model.Item, 0, len(ids))
	for _, id := range ids {
		if it := r.lookup(id); it != nil {
			out = append(out, it.Clone())
		}
	}
	return out
}

// Snapshot returns a copy of the full repository state.
func (r *Repository) Snapshot() *model.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// Len returns the number of stored items of all kinds.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks) + len(r.epics) + len(r.subtasks)
}

// removeTask, removeSubtask and removeEpic drop an item from every
// structure. They do not persist or refresh epics. Caller must hold r.mu.
func (r *Repository) removeTask(id int) {
	delete(r.tasks, id)
	r.index.Remove(id)
	r.history.Remove(id)
}

func (r *Repository) removeSubtask(id int) {
	s, ok := r.subtasks[id]
	if !ok {
		return
	}
	if epic, ok := r.epics[s.EpicID]; ok {
		epic.SubtaskIDs = removeID(epic.SubtaskIDs, id)
	}
	delete(r.subtasks, id)
	r.index.Remove(id)
	r.history.Remove(id)
}

func (r *Repository) removeEpic(id int) {
	epic, ok := r.epics[id]
	if !ok {
		return
	}
	for _, sid := range append([]int(nil), epic.SubtaskIDs...) {
		r.removeSubtask(sid)
	}
	delete(r.epics, id)
	r.history.Remove(id)
}

func (r *Repository) collection(kind model.Kind) map[int]*model.Item {
	switch kind {
	case model.KindEpic:
		return r.epics
	case model.KindSubtask:
		return r.subtasks
	}
	return r.tasks
}

// lookup finds an item of any kind by id.
func (r *Repository) lookup(id int) *model.Item {
	if it, ok := r.tasks[id]; ok {
		return it
	}
	if it, ok := r.epics[id]; ok {
		return it
	}
	if it, ok := r.subtasks[id]; ok {
		return it
	}
	return nil
}

func (r *Repository) snapshot() *model.Snapshot {
	return &model.Snapshot{
		Tasks:    sortedClones(r.tasks),
		Epics:    sortedClones(r.epics),
		Subtasks: sortedClones(r.subtasks),
		History:  r.history.IDs(),
	}
}

// persist pushes the current state to the store. Caller must hold r.mu.
func (r *Repository) persist(op string) error {
	if r.store == nil {
		return nil
	}
	if err := r.store.SaveSnapshot(r.snapshot()); err != nil {
		r.log.WithField("operation", op).WithError(err).Error("failed to save snapshot")
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// prepare copies a caller's task or subtask, drops seconds from its start
// time and checks its fields. An empty kind is taken to mean want.
func prepare(item *model.Item, want model.Kind) (*model.Item, error) {
	if item == nil {
		return nil, fmt.Errorf("%w: nil %s", ErrInvalidItem, want)
	}
	it := item.Clone()
	if it.Kind == "" {
		it.Kind = want
	}
	if it.Kind != want {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrInvalidItem, want, it.Kind)
	}
	it.SubtaskIDs = nil
	if it.StartTime != nil {
		// Stores keep start times to the minute.
		start := it.StartTime.Truncate(time.Minute)
		it.StartTime = &start
	}
	if err := it.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	return it, nil
}

func notFound(kind model.Kind, id int) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
}

func sortedClones(m map[int]*model.Item) []*model.Item {
	out := make([]*model.Item, 0, len(m))
	for _, it := range m {
		out = append(out, it.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
