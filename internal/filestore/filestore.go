// Package filestore saves repository snapshots to a single text file: a CSV
// header, one row per item, a blank line and a line of history ids.
package filestore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/byronguina/tasktracker/internal/model"
)

var header = []string{"id", "type", "name", "status", "description", "startTime", "endTime", "duration", "epicId"}

// Store reads and writes snapshots at a fixed path.
type Store struct {
	path string
	loc  *time.Location
}

// New returns a store for path. Times are written and read in loc; nil
// means the local time zone.
func New(path string, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{path: path, loc: loc}
}

// Path returns the file the store writes to.
func (s *Store) Path() string {
	return s.path
}

// SaveSnapshot replaces the file's contents with snap. Readers never see a
// partially written file.
func (s *Store) SaveSnapshot(snap *model.Snapshot) error {
	data, err := Encode(snap, s.loc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}

// LoadSnapshot reads the file. A missing or empty file is an empty snapshot.
func (s *Store) LoadSnapshot() (*model.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &model.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return Decode(data, s.loc)
}

// Encode renders snap in the file format. Tasks come first, then epics,
// then subtasks, each in the order given.
func Encode(snap *model.Snapshot, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for _, group := range [][]*model.Item{snap.Tasks, snap.Epics, snap.Subtasks} {
		for _, it := range group {
			if err := w.Write(encodeRow(it, loc)); err != nil {
				return nil, fmt.Errorf("failed to write %s: %w", it, err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write rows: %w", err)
	}

	ids := make([]string, len(snap.History))
	for i, id := range snap.History {
		ids[i] = strconv.Itoa(id)
	}
	buf.WriteString("\n")
	buf.WriteString(strings.Join(ids, ","))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func encodeRow(it *model.Item, loc *time.Location) []string {
	epic := ""
	if it.Kind == model.KindSubtask {
		epic = strconv.Itoa(it.EpicID)
	}
	return []string{
		strconv.Itoa(it.ID),
		string(it.Kind),
		it.Name,
		string(it.Status),
		it.Description,
		formatTime(it.StartTime, loc),
		formatTime(it.EndTime(), loc),
		strconv.Itoa(it.Duration),
		epic,
	}
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(model.TimeLayout)
}

// Decode parses data produced by Encode. Epic status and time columns are
// ignored; they are recomputed from the subtasks on restore.
func Decode(data []byte, loc *time.Location) (*model.Snapshot, error) {
	snap := &model.Snapshot{}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return snap, nil
	}

	rows, hist := text, ""
	if i := strings.LastIndex(text, "\n\n"); i >= 0 {
		rows, hist = text[:i+1], text[i+2:]
	}

	r := csv.NewReader(strings.NewReader(rows))
	r.FieldsPerRecord = len(header)

	first, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if strings.Join(first, ",") != strings.Join(header, ",") {
		return nil, fmt.Errorf("unexpected header: %q", strings.Join(first, ","))
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		it, err := decodeRow(rec, loc)
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		switch it.Kind {
		case model.KindTask:
			snap.Tasks = append(snap.Tasks, it)
		case model.KindEpic:
			snap.Epics = append(snap.Epics, it)
		case model.KindSubtask:
			snap.Subtasks = append(snap.Subtasks, it)
		}
	}

	hist = strings.TrimSpace(hist)
	if hist == "" {
		return snap, nil
	}
	for _, field := range strings.Split(hist, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("invalid history id %q: %w", field, err)
		}
		snap.History = append(snap.History, id)
	}
	return snap, nil
}

func decodeRow(rec []string, loc *time.Location) (*model.Item, error) {
	id, err := strconv.Atoi(rec[0])
	if err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", rec[0], err)
	}
	kind := model.Kind(rec[1])
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid type: %s", rec[1])
	}
	status := model.Status(rec[3])
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid status: %s", rec[3])
	}
	start, err := parseTime(rec[5], loc)
	if err != nil {
		return nil, err
	}
	duration, err := strconv.Atoi(rec[7])
	if err != nil {
		return nil, fmt.Errorf("invalid duration %q: %w", rec[7], err)
	}

	var it *model.Item
	switch kind {
	case model.KindTask:
		it = model.NewTask(rec[2], rec[4], status, start, duration)
	case model.KindEpic:
		it = model.NewEpic(id, rec[2], rec[4])
	case model.KindSubtask:
		epicID, err := strconv.Atoi(rec[8])
		if err != nil {
			return nil, fmt.Errorf("invalid epic id %q: %w", rec[8], err)
		}
		it = model.NewSubtask(epicID, rec[2], rec[4], status, start, duration)
	}
	it.ID = id
	return it, nil
}

func parseTime(v string, loc *time.Location) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(model.TimeLayout, v, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: %w", v, err)
	}
	return &t, nil
}
