package repository

import (
	"sync"

	"github.com/byronguina/tasktracker/internal/model"
)

// Store persists repository snapshots. SaveSnapshot fully overwrites the
// backing store; LoadSnapshot returns an empty snapshot if nothing was saved.
type Store interface {
	SaveSnapshot(snap *model.Snapshot) error
	LoadSnapshot() (*model.Snapshot, error)
}

// MemoryStore keeps the last saved snapshot in memory. It backs the
// "memory" storage backend and lets tests reload a repository without disk.
type MemoryStore struct {
	mu    sync.Mutex
	snap  *model.Snapshot
	saves int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveSnapshot stores a copy of snap.
func (m *MemoryStore) SaveSnapshot(snap *model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = cloneSnapshot(snap)
	m.saves++
	return nil
}

// LoadSnapshot returns a copy of the last saved snapshot.
func (m *MemoryStore) LoadSnapshot() (*model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return &model.Snapshot{}, nil
	}
	return cloneSnapshot(m.snap), nil
}

// Saves returns how many snapshots have been saved.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func cloneSnapshot(snap *model.Snapshot) *model.Snapshot {
	return &model.Snapshot{
		Tasks:    cloneItems(snap.Tasks),
		Epics:    cloneItems(snap.Epics),
		Subtasks: cloneItems(snap.Subtasks),
		History:  append([]int(nil), snap.History...),
	}
}

func cloneItems(items []*model.Item) []*model.Item {
	out := make([]*model.Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
