package kvclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/byronguina/tasktracker/internal/history"
	"github.com/byronguina/tasktracker/internal/kvserver"
	"github.com/byronguina/tasktracker/internal/model"
	"github.com/byronguina/tasktracker/internal/repository"
)

func setupClient(t *testing.T) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(kvserver.New([]byte("secret"), nil).Handler())
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), srv.URL+"/", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c, srv
}

func TestNew_Registers(t *testing.T) {
	c, _ := setupClient(t)
	if c.token == "" {
		t.Error("expected token after registration")
	}
}

func TestNew_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	if _, err := New(context.Background(), srv.URL, nil); err == nil {
		t.Error("expected error when server is unreachable")
	}
}

func TestNew_RegisterRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	if _, err := New(context.Background(), srv.URL, nil); err == nil {
		t.Error("expected error for rejected registration")
	}
}

func TestPutLoad(t *testing.T) {
	c, _ := setupClient(t)
	ctx := context.Background()

	if err := c.Put(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := c.Load(ctx, "k")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("Load() = %q", got)
	}

	if _, err := c.Load(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Load(missing) err = %v, want ErrKeyNotFound", err)
	}
}

func TestPut_BadToken(t *testing.T) {
	c, _ := setupClient(t)
	c.token = "tampered"

	if err := c.Put(context.Background(), "k", []byte("1")); err == nil {
		t.Error("expected error with invalid token")
	}
}

func TestStore_EmptyServer(t *testing.T) {
	c, _ := setupClient(t)

	snap, err := NewStore(c).LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if snap.MaxID() != 0 || len(snap.History) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

func TestStore_WritesJSONArrays(t *testing.T) {
	c, _ := setupClient(t)
	s := NewStore(c)

	if err := s.SaveSnapshot(&model.Snapshot{History: []int{3, 1}}); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	ctx := context.Background()
	for key, want := range map[string]string{
		KeyTasks:    "[]",
		KeySubtasks: "[]",
		KeyEpics:    "[]",
		KeyHistory:  "[3,1]",
	} {
		got, err := c.Load(ctx, key)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", key, err)
		}
		if string(got) != want {
			t.Errorf("%s = %s, want %s", key, got, want)
		}
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	c, srv := setupClient(t)
	repo := repository.New(history.New(), NewStore(c), nil)

	start := time.Date(2022, time.June, 1, 11, 30, 0, 0, time.UTC)
	task, err := repo.AddTask(model.NewTask("Task1", "d", model.StatusNew, nil, 0))
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if _, err := repo.AddEpic(model.NewEpic(10, "Epic1", "")); err != nil {
		t.Fatalf("AddEpic failed: %v", err)
	}
	sub, err := repo.AddSubtask(model.NewSubtask(10, "Sub1", "", model.StatusDone, &start, 30))
	if err != nil {
		t.Fatalf("AddSubtask failed: %v", err)
	}
	repo.GetSubtask(sub.ID)
	repo.GetTask(task.ID)

	// A second process registers its own token against the same server.
	c2, err := New(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	fresh := repository.New(history.New(), NewStore(c2), nil)
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
	if epic.Status != model.StatusDone {
		t.Errorf("Status = %q, want %q", epic.Status, model.StatusDone)
	}
	next, err := fresh.AddTask(model.NewTask("next", "", model.StatusNew, nil, 0))
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if next.ID != 12 {
		t.Errorf("next id = %d, want 12", next.ID)
	}
}
