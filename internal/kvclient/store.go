package kvclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/byronguina/tasktracker/internal/model"
)

// Keys under which a snapshot is stored, one JSON array each.
const (
	KeyTasks    = "tasks"
	KeySubtasks = "subtasks"
	KeyEpics    = "epics"
	KeyHistory  = "history"
)

// Store keeps repository snapshots on the key-value server.
type Store struct {
	client *Client
}

// NewStore returns a Store that talks through client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// SaveSnapshot writes each partition of snap under its own key.
func (s *Store) SaveSnapshot(snap *model.Snapshot) error {
	ctx := context.Background()

	parts := []struct {
		key   string
		value any
	}{
		{KeyTasks, nonNil(snap.Tasks)},
		{KeySubtasks, nonNil(snap.Subtasks)},
		{KeyEpics, nonNil(snap.Epics)},
		{KeyHistory, nonNilIDs(snap.History)},
	}
	for _, p := range parts {
		data, err := json.Marshal(p.value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", p.key, err)
		}
		if err := s.client.Put(ctx, p.key, data); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot reads all four keys. Keys that were never saved load as empty.
func (s *Store) LoadSnapshot() (*model.Snapshot, error) {
	ctx := context.Background()
	snap := &model.Snapshot{}

	parts := []struct {
		key  string
		into any
	}{
		{KeyTasks, &snap.Tasks},
		{KeySubtasks, &snap.Subtasks},
		{KeyEpics, &snap.Epics},
		{KeyHistory, &snap.History},
	}
	for _, p := range parts {
		data, err := s.client.Load(ctx, p.key)
		if errors.Is(err, ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, p.into); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", p.key, err)
		}
	}
	return snap, nil
}

// Empty partitions are sent as [] so every key always holds a JSON array.
func nonNil(items []*model.Item) []*model.Item {
	if items == nil {
		return []*model.Item{}
	}
	return items
}

func nonNilIDs(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
