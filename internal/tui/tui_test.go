package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/byronguina/tasktracker/internal/model"
	"github.com/byronguina/tasktracker/internal/repository"
)

func setupModel(t *testing.T) (Model, *repository.Repository) {
	t.Helper()
	repo := repository.New(nil, nil, nil)

	start := time.Date(2022, time.June, 1, 9, 0, 0, 0, time.UTC)
	if _, err := repo.AddTask(model.NewTask("Write report", "", model.StatusNew, &start, 40)); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if _, err := repo.AddEpic(model.NewEpic(10, "Move", "")); err != nil {
		t.Fatalf("AddEpic failed: %v", err)
	}
	if _, err := repo.AddSubtask(model.NewSubtask(10, "Pack", "", model.StatusInProgress, nil, 15)); err != nil {
		t.Fatalf("AddSubtask failed: %v", err)
	}

	m := New(repo)
	m = run(t, m, m.Init())
	return m, repo
}

// run feeds the message produced by cmd back into the model, following
// command chains until none is left.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		next, c := m.Update(msg)
		m = next.(Model)
		cmd = c
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, cmd := m.Update(msg)
		m = run(t, next.(Model), cmd)
	}
	return m
}

func names(items []*model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestInit_LoadsAllItems(t *testing.T) {
	m, _ := setupModel(t)

	got := strings.Join(names(m.filtered), ",")
	if got != "Write report,Move,Pack" {
		t.Errorf("filtered = %s, want Write report,Move,Pack", got)
	}
}

func TestStatusFilter(t *testing.T) {
	m, _ := setupModel(t)

	m = press(t, m, "1")
	if got := strings.Join(names(m.filtered), ","); got != "Move,Pack" {
		t.Errorf("after hiding NEW: %s, want Move,Pack", got)
	}
	m = press(t, m, "0")
	if len(m.filtered) != 3 {
		t.Errorf("after showing all: %d items, want 3", len(m.filtered))
	}
}

func TestSearch(t *testing.T) {
	m, _ := setupModel(t)

	m = press(t, m, "/", "p", "a", "c")
	if got := strings.Join(names(m.filtered), ","); got != "Pack" {
		t.Errorf("live search = %s, want Pack", got)
	}
	m = press(t, m, "enter")
	if m.inputMode != InputNone || m.filterSearch != "pac" {
		t.Errorf("inputMode = %d, filterSearch = %q", m.inputMode, m.filterSearch)
	}
	m = press(t, m, "esc")
	if len(m.filtered) != 3 {
		t.Errorf("after clearing search: %d items, want 3", len(m.filtered))
	}
}

func TestOpen_RecordsHistory(t *testing.T) {
	m, repo := setupModel(t)
	m.width = 60

	m = press(t, m, "down", "enter")
	if m.viewMode != ViewDetail {
		t.Fatalf("viewMode = %d, want ViewDetail", m.viewMode)
	}
	if m.opened == nil || m.opened.ID != 10 {
		t.Fatalf("opened = %v, want epic 10", m.opened)
	}
	if len(m.subtasks) != 1 || m.subtasks[0].Name != "Pack" {
		t.Errorf("subtasks = %v", names(m.subtasks))
	}
	if hist := repo.History(); len(hist) != 1 || hist[0].ID != 10 {
		t.Errorf("history = %v, want [Move]", names(hist))
	}
	if view := m.View(); !strings.Contains(view, "Subtasks:") {
		t.Errorf("detail view missing subtasks:\n%s", view)
	}
}

func TestHistorySource(t *testing.T) {
	m, repo := setupModel(t)
	if _, err := repo.GetTask(1); err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}

	m = press(t, m, "v")
	if m.source != SourcePrioritized {
		t.Fatalf("source = %s, want prioritized", m.source)
	}
	if got := strings.Join(names(m.filtered), ","); got != "Write report" {
		t.Errorf("prioritized = %s, want Write report", got)
	}

	m = press(t, m, "v")
	if got := strings.Join(names(m.filtered), ","); got != "Write report" {
		t.Errorf("history = %s, want Write report", got)
	}
}

func TestStartAndDone(t *testing.T) {
	m, repo := setupModel(t)

	m = press(t, m, "s")
	task, err := repo.GetTask(1)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if task.Status != model.StatusInProgress {
		t.Errorf("status after start = %s, want IN_PROGRESS", task.Status)
	}

	m = press(t, m, "d")
	task, _ = repo.GetTask(1)
	if task.Status != model.StatusDone {
		t.Errorf("status after done = %s, want DONE", task.Status)
	}
	// Done items are hidden by default.
	if len(m.filtered) != 2 {
		t.Errorf("filtered = %v", names(m.filtered))
	}
}

func TestStart_EpicRefused(t *testing.T) {
	m, repo := setupModel(t)

	m = press(t, m, "down", "s")
	if !strings.Contains(m.message, "Epic status") {
		t.Errorf("message = %q", m.message)
	}
	epic, _ := repo.GetEpic(10)
	if epic.Status != model.StatusInProgress {
		t.Errorf("epic status = %s, want IN_PROGRESS", epic.Status)
	}
}

func TestCreateAndDelete(t *testing.T) {
	m, repo := setupModel(t)

	m = press(t, m, "n")
	m = press(t, m, strings.Split("Buy milk", "")...)
	m = press(t, m, "enter")
	if !strings.Contains(m.message, "Created task 12") {
		t.Errorf("message = %q", m.message)
	}
	if len(repo.Tasks()) != 2 {
		t.Fatalf("tasks = %d, want 2", len(repo.Tasks()))
	}

	m = press(t, m, "down", "down", "D")
	if repo.Len() != 2 {
		t.Errorf("Len() = %d after deleting the epic, want 2", repo.Len())
	}
	if strings.Contains(strings.Join(names(m.filtered), ","), "Pack") {
		t.Errorf("subtask still listed: %v", names(m.filtered))
	}
}

func TestSplitView_Renders(t *testing.T) {
	m, _ := setupModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m = next.(Model)

	view := m.View()
	for _, want := range []string{"tasks", "Write report", "╭", "Duration:"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
