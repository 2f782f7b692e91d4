package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/byronguina/tasktracker/internal/model"
	"github.com/byronguina/tasktracker/internal/repository"
)

// itemFlags are the fields shared by tasks and subtasks.
type itemFlags struct {
	name     string
	desc     string
	status   string
	start    string
	duration int
}

func (f *itemFlags) register(cmd *cobra.Command, withName bool) {
	if withName {
		cmd.Flags().StringVar(&f.name, "name", "", "Name")
	}
	cmd.Flags().StringVarP(&f.desc, "desc", "d", "", "Description")
	cmd.Flags().StringVarP(&f.status, "status", "s", "NEW", "Status: NEW, IN_PROGRESS or DONE")
	cmd.Flags().StringVar(&f.start, "start", "", `Start time, "15:04 - 02.01.2006" or RFC 3339`)
	cmd.Flags().IntVar(&f.duration, "duration", 0, "Duration in minutes")
}

// apply overwrites the fields of it whose flags were set on the command line.
func (f *itemFlags) apply(cmd *cobra.Command, it *model.Item) error {
	flags := cmd.Flags()
	if flags.Changed("name") {
		it.Name = f.name
	}
	if flags.Changed("desc") {
		it.Description = f.desc
	}
	if flags.Changed("status") {
		st, err := parseStatus(f.status)
		if err != nil {
			return err
		}
		it.Status = st
	}
	if flags.Changed("start") {
		start, err := parseStart(f.start)
		if err != nil {
			return err
		}
		it.StartTime = start
	}
	if flags.Changed("duration") {
		it.Duration = f.duration
	}
	return nil
}

func parseKind(s string) (model.Kind, error) {
	switch strings.TrimSuffix(strings.ToLower(s), "s") {
	case "task":
		return model.KindTask, nil
	case "epic":
		return model.KindEpic, nil
	case "subtask":
		return model.KindSubtask, nil
	}
	return "", fmt.Errorf("unknown item type: %q (want task, epic or subtask)", s)
}

func find(items []*model.Item, kind model.Kind, id int) (*model.Item, error) {
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %d", repository.ErrNotFound, kind, id)
}

func newAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task, epic or subtask",
	}

	var task itemFlags
	addTask := &cobra.Command{
		Use:   "task <name>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := parseStatus(task.status)
			if err != nil {
				return err
			}
			start, err := parseStart(task.start)
			if err != nil {
				return err
			}
			added, err := a.repo.AddTask(model.NewTask(strings.Join(args, " "), task.desc, status, start, task.duration))
			if err != nil {
				return err
			}
			return a.printAdded(cmd, added)
		},
	}
	task.register(addTask, false)

	var epicDesc string
	addEpic := &cobra.Command{
		Use:   "epic <id> <name>",
		Short: "Add an epic under an id of your choice",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			added, err := a.repo.AddEpic(model.NewEpic(id, strings.Join(args[1:], " "), epicDesc))
			if err != nil {
				return err
			}
			return a.printAdded(cmd, added)
		},
	}
	addEpic.Flags().StringVarP(&epicDesc, "desc", "d", "", "Description")

	var sub itemFlags
	addSubtask := &cobra.Command{
		Use:   "subtask <epic-id> <name>",
		Short: "Add a subtask to an epic",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			epicID, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := parseStatus(sub.status)
			if err != nil {
				return err
			}
			start, err := parseStart(sub.start)
			if err != nil {
				return err
			}
			added, err := a.repo.AddSubtask(model.NewSubtask(epicID, strings.Join(args[1:], " "), sub.desc, status, start, sub.duration))
			if err != nil {
				return err
			}
			return a.printAdded(cmd, added)
		},
	}
	sub.register(addSubtask, false)

	cmd.AddCommand(addTask, addEpic, addSubtask)
	return cmd
}

func (a *app) printAdded(cmd *cobra.Command, it *model.Item) error {
	if a.flagJSON {
		return printJSON(cmd.OutOrStdout(), it)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s %d: %s\n", it.Kind, it.ID, it.Name)
	return nil
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task|epic|subtask> <id>",
		Short: "Show an item and record it in the view history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			var it *model.Item
			switch kind {
			case model.KindTask:
				it, err = a.repo.GetTask(id)
			case model.KindEpic:
				it, err = a.repo.GetEpic(id)
			default:
				it, err = a.repo.GetSubtask(id)
			}
			if err != nil {
				return err
			}

			var subtasks []*model.Item
			if kind == model.KindEpic {
				subtasks = a.repo.SubtasksForEpic(id)
			}
			return a.printItem(cmd.OutOrStdout(), it, subtasks)
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var epicID int
	cmd := &cobra.Command{
		Use:   "list [tasks|epics|subtasks]",
		Short: "List items by id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if epicID != 0 {
				return a.printItems(cmd.OutOrStdout(), a.repo.SubtasksForEpic(epicID))
			}
			if len(args) == 0 {
				var items []*model.Item
				items = append(items, a.repo.Tasks()...)
				items = append(items, a.repo.Epics()...)
				items = append(items, a.repo.Subtasks()...)
				return a.printItems(cmd.OutOrStdout(), items)
			}

			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			switch kind {
			case model.KindTask:
				return a.printItems(cmd.OutOrStdout(), a.repo.Tasks())
			case model.KindEpic:
				return a.printItems(cmd.OutOrStdout(), a.repo.Epics())
			default:
				return a.printItems(cmd.OutOrStdout(), a.repo.Subtasks())
			}
		},
	}
	cmd.Flags().IntVar(&epicID, "epic", 0, "List the subtasks of this epic in order")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a task, epic or subtask",
		Long: `Update an item. Only the flags given are changed.

Epics take --name and --desc only; their status and span follow the subtasks.`,
	}

	var task itemFlags
	updateTask := &cobra.Command{
		Use:   "task <id>",
		Short: "Update a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			it, err := find(a.repo.Tasks(), model.KindTask, id)
			if err != nil {
				return err
			}
			if err := task.apply(cmd, it); err != nil {
				return err
			}
			if err := a.repo.UpdateTask(it); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d\n", id)
			return nil
		},
	}
	task.register(updateTask, true)

	var epic itemFlags
	updateEpic := &cobra.Command{
		Use:   "epic <id>",
		Short: "Rename or redescribe an epic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			it, err := find(a.repo.Epics(), model.KindEpic, id)
			if err != nil {
				return err
			}
			if err := epic.apply(cmd, it); err != nil {
				return err
			}
			if err := a.repo.UpdateEpic(it); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated epic %d\n", id)
			return nil
		},
	}
	updateEpic.Flags().StringVar(&epic.name, "name", "", "Name")
	updateEpic.Flags().StringVarP(&epic.desc, "desc", "d", "", "Description")

	var sub itemFlags
	updateSubtask := &cobra.Command{
		Use:   "subtask <id>",
		Short: "Update a subtask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			it, err := find(a.repo.Subtasks(), model.KindSubtask, id)
			if err != nil {
				return err
			}
			if err := sub.apply(cmd, it); err != nil {
				return err
			}
			if err := a.repo.UpdateSubtask(it); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated subtask %d\n", id)
			return nil
		},
	}
	sub.register(updateSubtask, true)

	cmd.AddCommand(updateTask, updateEpic, updateSubtask)
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "rm <task|epic|subtask> [id]",
		Short: "Remove an item, or every item of a type with --all",
		Long: `Remove an item. Removing an epic removes its subtasks too.

  tasks rm task 3
  tasks rm epic --all`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}

			if all {
				if len(args) > 1 {
					return fmt.Errorf("--all takes no id")
				}
				switch kind {
				case model.KindTask:
					err = a.repo.RemoveAllTasks()
				case model.KindEpic:
					err = a.repo.RemoveAllEpics()
				default:
					err = a.repo.RemoveAllSubtasks()
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed every %s\n", strings.ToLower(string(kind)))
				return nil
			}

			if len(args) < 2 {
				return fmt.Errorf("an id or --all is required")
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			switch kind {
			case model.KindTask:
				err = a.repo.RemoveTask(id)
			case model.KindEpic:
				err = a.repo.RemoveEpic(id)
			default:
				err = a.repo.RemoveSubtask(id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s %d\n", strings.ToLower(string(kind)), id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Remove every item of the type")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List viewed items, least recently viewed first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printItems(cmd.OutOrStdout(), a.repo.History())
		},
	}
}

func newPrioritizedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prioritized",
		Short: "List scheduled tasks and subtasks by start time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printItems(cmd.OutOrStdout(), a.repo.Prioritized())
		},
	}
}
