package db

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/byronguina/tasktracker/internal/history"
	"github.com/byronguina/tasktracker/internal/model"
	"github.com/byronguina/tasktracker/internal/repository"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	db, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}

	if err := db.Init(); err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	db.SetLocation(time.UTC)

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func at(month time.Month, day, hour, minute int) *time.Time {
	t := time.Date(2022, month, day, hour, minute, 0, 0, time.UTC)
	return &t
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "test.db")

	db, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Should create parent directories
	if _, err := os.Stat(filepath.Dir(path)); os.IsNotExist(err) {
		t.Error("expected directory to be created")
	}
	if db.Driver() != DriverSQLite {
		t.Errorf("Driver() = %q, want %q", db.Driver(), DriverSQLite)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("failed to get default path: %v", err)
	}

	if !filepath.IsAbs(path) {
		t.Errorf("expected absolute path, got %q", path)
	}

	if !strings.HasSuffix(path, filepath.Join(".tasks", "tasks.db")) {
		t.Errorf("expected path to end with .tasks/tasks.db, got %q", path)
	}
}

func TestInit_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Init(); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		driver string
		query  string
		want   string
	}{
		{DriverSQLite, "SELECT * FROM items WHERE id = ? AND type = ?", "SELECT * FROM items WHERE id = ? AND type = ?"},
		{DriverPostgres, "SELECT * FROM items WHERE id = ? AND type = ?", "SELECT * FROM items WHERE id = $1 AND type = $2"},
		{DriverPostgres, "DELETE FROM history", "DELETE FROM history"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			db := &DB{driver: tt.driver}
			if got := db.rebind(tt.query); got != tt.want {
				t.Errorf("rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadSnapshot_Empty(t *testing.T) {
	db := setupTestDB(t)

	snap, err := db.LoadSnapshot()
	if err != nil {
		t.Fatalf("failed to load snapshot: %v", err)
	}
	if len(snap.Tasks)+len(snap.Epics)+len(snap.Subtasks)+len(snap.History) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestSaveSnapshot_Overwrites(t *testing.T) {
	db := setupTestDB(t)

	first := model.NewTask("first", "", model.StatusNew, nil, 0)
	first.ID = 1
	if err := db.SaveSnapshot(&model.Snapshot{Tasks: []*model.Item{first}, History: []int{1}}); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	second := model.NewTask("second", "", model.StatusDone, at(time.June, 1, 9, 0), 15)
	second.ID = 2
	if err := db.SaveSnapshot(&model.Snapshot{Tasks: []*model.Item{second}}); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	snap, err := db.LoadSnapshot()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if len(snap.Tasks) != 1 || snap.Tasks[0].Name != "second" {
		t.Fatalf("tasks = %+v, want only second", snap.Tasks)
	}
	if got := snap.Tasks[0]; !got.StartTime.Equal(*at(time.June, 1, 9, 0)) || got.Duration != 15 || got.Status != model.StatusDone {
		t.Errorf("task = %+v", got)
	}
	if len(snap.History) != 0 {
		t.Errorf("history = %v, want empty", snap.History)
	}
}

func TestLoadSnapshot_EpicSequence(t *testing.T) {
	db := setupTestDB(t)

	epic := model.NewEpic(1, "e", "")
	epic.SubtaskIDs = []int{5, 3}
	s3 := model.NewSubtask(1, "three", "", model.StatusNew, nil, 0)
	s3.ID = 3
	s5 := model.NewSubtask(1, "five", "", model.StatusNew, nil, 0)
	s5.ID = 5

	if err := db.SaveSnapshot(&model.Snapshot{
		Epics:    []*model.Item{epic},
		Subtasks: []*model.Item{s3, s5},
		History:  []int{5, 1},
	}); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	snap, err := db.LoadSnapshot()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if got, want := snap.Epics[0].SubtaskIDs, []int{5, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("SubtaskIDs = %v, want %v", got, want)
	}
	if snap.Subtasks[0].ID != 3 || snap.Subtasks[1].ID != 5 {
		t.Errorf("subtasks not ordered by id: %d, %d", snap.Subtasks[0].ID, snap.Subtasks[1].ID)
	}
	if snap.Subtasks[0].EpicID != 1 {
		t.Errorf("EpicID = %d, want 1", snap.Subtasks[0].EpicID)
	}
	if got, want := snap.History, []int{5, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("History = %v, want %v", got, want)
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.New(history.New(), db, nil)

	task, err := repo.AddTask(model.NewTask("Task1", "it's quoted", model.StatusInProgress, at(time.June, 1, 9, 0), 40))
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if _, err := repo.AddEpic(model.NewEpic(10, "Epic1", "")); err != nil {
		t.Fatalf("AddEpic failed: %v", err)
	}
	s1, err := repo.AddSubtask(model.NewSubtask(10, "Sub1", "", model.StatusNew, at(time.June, 1, 11, 30), 30))
	if err != nil {
		t.Fatalf("AddSubtask failed: %v", err)
	}
	if _, err := repo.AddSubtask(model.NewSubtask(10, "Sub2", "", model.StatusNew, at(time.August, 10, 12, 0), 30)); err != nil {
		t.Fatalf("AddSubtask failed: %v", err)
	}
	repo.GetSubtask(s1.ID)
	repo.GetTask(task.ID)

	fresh := repository.New(history.New(), db, nil)
	if err := fresh.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if got, want := fresh.Snapshot(), repo.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("restored snapshot differs\n got: %+v\nwant: %+v", got, want)
	}

	epic, err := fresh.GetEpic(10)
	if err != nil {
		t.Fatalf("GetEpic failed: %v", err)
	}
	if epic.Duration != 60 || !epic.EndTime().Equal(*at(time.August, 10, 12, 30)) {
		t.Errorf("epic span = %d ending %v", epic.Duration, epic.EndTime())
	}
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("TASKS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TASKS_TEST_POSTGRES_DSN not set")
	}

	db, err := Open(DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Init(); err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	db.SetLocation(time.UTC)

	task := model.NewTask("pg", "", model.StatusNew, at(time.June, 1, 9, 0), 10)
	task.ID = 1
	if err := db.SaveSnapshot(&model.Snapshot{Tasks: []*model.Item{task}, History: []int{1}}); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	snap, err := db.LoadSnapshot()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if len(snap.Tasks) != 1 || !reflect.DeepEqual(snap.History, []int{1}) {
		t.Errorf("snapshot = %+v", snap)
	}
}
