package db

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/byronguina/tasktracker/internal/model"
)

// SaveSnapshot replaces everything stored with snap in one transaction.
func (db *DB) SaveSnapshot(snap *model.Snapshot) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM items`); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}

	// A subtask's position is its place in the epic's sequence.
	positions := make(map[int]int)
	for _, e := range snap.Epics {
		for i, id := range e.SubtaskIDs {
			positions[id] = i
		}
	}

	insert := db.rebind(`
		INSERT INTO items (id, type, name, description, status, start_unix, duration, epic_id, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, group := range [][]*model.Item{snap.Tasks, snap.Epics, snap.Subtasks} {
		for _, it := range group {
			var start sql.NullInt64
			if it.StartTime != nil && it.Kind != model.KindEpic {
				start = sql.NullInt64{Int64: it.StartTime.Unix(), Valid: true}
			}
			var epicID sql.NullInt64
			if it.Kind == model.KindSubtask {
				epicID = sql.NullInt64{Int64: int64(it.EpicID), Valid: true}
			}
			duration := it.Duration
			if it.Kind == model.KindEpic {
				duration = 0
			}
			if _, err := tx.Exec(insert,
				it.ID, string(it.Kind), it.Name, it.Description, string(it.Status),
				start, duration, epicID, positions[it.ID],
			); err != nil {
				return fmt.Errorf("failed to save %s: %w", it, err)
			}
		}
	}

	insertHistory := db.rebind(`INSERT INTO history (position, item_id) VALUES (?, ?)`)
	for i, id := range snap.History {
		if _, err := tx.Exec(insertHistory, i, id); err != nil {
			return fmt.Errorf("failed to save history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the stored snapshot. An empty database yields an
// empty snapshot.
func (db *DB) LoadSnapshot() (*model.Snapshot, error) {
	rows, err := db.Query(`
		SELECT id, type, name, description, status, start_unix, duration, epic_id, position
		FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	snap := &model.Snapshot{}
	epics := make(map[int]*model.Item)
	position := make(map[int]int)

	for rows.Next() {
		it, pos, err := db.scanItem(rows)
		if err != nil {
			return nil, err
		}
		switch it.Kind {
		case model.KindTask:
			snap.Tasks = append(snap.Tasks, it)
		case model.KindEpic:
			snap.Epics = append(snap.Epics, it)
			epics[it.ID] = it
		case model.KindSubtask:
			snap.Subtasks = append(snap.Subtasks, it)
			position[it.ID] = pos
		default:
			return nil, fmt.Errorf("invalid item type: %s", it.Kind)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}

	byPosition := append([]*model.Item(nil), snap.Subtasks...)
	sort.SliceStable(byPosition, func(i, j int) bool {
		return position[byPosition[i].ID] < position[byPosition[j].ID]
	})
	for _, s := range byPosition {
		if e, ok := epics[s.EpicID]; ok {
			e.SubtaskIDs = append(e.SubtaskIDs, s.ID)
		}
	}

	history, err := db.loadHistory()
	if err != nil {
		return nil, err
	}
	snap.History = history
	return snap, nil
}

func (db *DB) scanItem(rows *sql.Rows) (*model.Item, int, error) {
	var (
		id, duration, pos  int
		kind, name, status string
		description        string
		startUnix, epicID  sql.NullInt64
	)
	if err := rows.Scan(&id, &kind, &name, &description, &status, &startUnix, &duration, &epicID, &pos); err != nil {
		return nil, 0, fmt.Errorf("failed to scan item: %w", err)
	}

	var start *time.Time
	if startUnix.Valid {
		t := time.Unix(startUnix.Int64, 0).In(db.loc)
		start = &t
	}

	var it *model.Item
	switch model.Kind(kind) {
	case model.KindEpic:
		it = model.NewEpic(id, name, description)
	case model.KindSubtask:
		it = model.NewSubtask(int(epicID.Int64), name, description, model.Status(status), start, duration)
	default:
		it = model.NewTask(name, description, model.Status(status), start, duration)
		it.Kind = model.Kind(kind)
	}
	it.ID = id
	return it, pos, nil
}

func (db *DB) loadHistory() ([]int, error) {
	rows, err := db.Query(`SELECT item_id FROM history ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return ids, nil
}
