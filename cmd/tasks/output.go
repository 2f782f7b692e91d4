package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/byronguina/tasktracker/internal/model"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(b))
	return nil
}

// printItems writes one line per item, or a JSON array.
func (a *app) printItems(w io.Writer, items []*model.Item) error {
	if a.flagJSON {
		if items == nil {
			items = []*model.Item{}
		}
		return printJSON(w, items)
	}
	if len(items) == 0 {
		fmt.Fprintln(w, "No items")
		return nil
	}
	for _, it := range items {
		fmt.Fprintln(w, formatLine(it))
	}
	return nil
}

// printItem writes the full detail of one item. Epics list their subtasks.
func (a *app) printItem(w io.Writer, it *model.Item, subtasks []*model.Item) error {
	if a.flagJSON {
		return printJSON(w, it)
	}

	fmt.Fprintf(w, "%s %d: %s\n", it.Kind, it.ID, it.Name)
	fmt.Fprintf(w, "Status:   %s\n", it.Status)
	if it.Kind == model.KindSubtask {
		fmt.Fprintf(w, "Epic:     %d\n", it.EpicID)
	}
	if it.StartTime != nil {
		fmt.Fprintf(w, "Start:    %s\n", it.StartTime.Format(model.TimeLayout))
		fmt.Fprintf(w, "End:      %s\n", it.EndTime().Format(model.TimeLayout))
	}
	fmt.Fprintf(w, "Duration: %d min\n", it.Duration)
	if it.Description != "" {
		fmt.Fprintf(w, "\n%s\n", it.Description)
	}
	if it.Kind == model.KindEpic && len(subtasks) > 0 {
		fmt.Fprintln(w, "\nSubtasks:")
		for _, s := range subtasks {
			fmt.Fprintf(w, "  %s\n", formatLine(s))
		}
	}
	return nil
}

func formatLine(it *model.Item) string {
	when := "-"
	if it.StartTime != nil {
		when = it.StartTime.Format(model.TimeLayout) + " +" + strconv.Itoa(it.Duration) + "m"
	}
	return fmt.Sprintf("%4d  %-7s  %-11s  %-28s  %s", it.ID, it.Kind, it.Status, truncate(it.Name, 28), when)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// parseStart accepts the file format's "15:04 - 02.01.2006" in local time
// or RFC 3339. An empty string means unscheduled.
func parseStart(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(model.TimeLayout, s, time.Local); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid start time %q (want %q or RFC 3339)", s, model.TimeLayout)
	}
	return &t, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %q", s)
	}
	return id, nil
}

func parseStatus(s string) (model.Status, error) {
	st := model.Status(strings.ToUpper(s))
	if !st.IsValid() {
		return "", fmt.Errorf("invalid status: %q (want NEW, IN_PROGRESS or DONE)", s)
	}
	return st, nil
}
