package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/RealZimboGuy/taskflow/internal/engine"
	"github.com/RealZimboGuy/taskflow/pkg/taskflow"
	"github.com/RealZimboGuy/taskflow/pkg/taskflow/domain"
	"github.com/spf13/cobra"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Inspect and move tasks",
	}

	tasksCmd.AddCommand(newTasksListCommand(ctx))
	tasksCmd.AddCommand(newTasksAddCommand(ctx))
	tasksCmd.AddCommand(newTasksMoveCommand(ctx))
	tasksCmd.AddCommand(newTasksAdvanceCommand(ctx))
	tasksCmd.AddCommand(newSubtasksCommand(ctx))
	tasksCmd.AddCommand(newTasksStatsCommand(ctx))

	return tasksCmd
}

func newTasksListCommand(ctx *commandContext) *cobra.Command {
	var filter engine.TaskFilter
	var sortBy string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *taskflow.App) error {
				filter.SortBy = engine.SortOrder(sortBy)
				tasks := app.Tasks.ListTasks(filter)
				if asJSON {
					return writeJSON(cmd, tasks)
				}
				if len(tasks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tasks")
					return nil
				}
				rows := make([][]string, 0, len(tasks))
				for i := range tasks {
					view := app.Binder.DescribeStage(cmd.Context(), &tasks[i])
					label := view.Label
					if view.Orphaned {
						label += " (orphaned)"
					}
					progress := ""
					if n := len(tasks[i].Subtasks); n > 0 {
						progress = fmt.Sprintf("%d%% of %d", tasks[i].Progress(), n)
					}
					rows = append(rows, []string{tasks[i].ID, tasks[i].Title, label, string(tasks[i].Priority), tasks[i].DueDate, progress})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"ID", "Title", "Stage", "Priority", "Due", "Subtasks"}, rows))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&filter.WorkflowID, "workflow", "", "Only tasks bound to this workflow")
	cmd.Flags().StringVar(&filter.Stage, "stage", "", "Only tasks in this stage")
	cmd.Flags().StringVar(&filter.ProjectID, "project", "", "Only tasks in this project")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort by dueDate, priority or created")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newTasksAddCommand(ctx *commandContext) *cobra.Command {
	var draft engine.TaskDraft
	var priority string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task in the active workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *taskflow.App) error {
				draft.Title = args[0]
				draft.Priority = domain.Priority(priority)
				task, err := app.Tasks.CreateTask(cmd.Context(), draft)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created task %s in %s/%s\n", task.ID, task.WorkflowID, task.Stage)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&draft.Description, "description", "", "Task description")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium, high or urgent")
	cmd.Flags().StringVar(&draft.DueDate, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&draft.ProjectID, "project", "", "Project id")
	cmd.Flags().StringVar(&draft.Stage, "stage", "", "Initial stage (defaults to the first stage)")
	cmd.Flags().StringArrayVar(&draft.Subtasks, "subtask", nil, "Subtask title (repeatable)")
	return cmd
}

func newTasksMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <stage>",
		Short: "Move a task along a workflow transition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *taskflow.App) error {
				task, err := app.Tasks.MoveTask(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now in %s\n", task.ID, task.Stage)
				return nil
			})
		},
	}
}

func newTasksAdvanceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <id>",
		Short: "Move a task to its suggested next stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *taskflow.App) error {
				task, err := app.Tasks.AdvanceTask(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now in %s\n", task.ID, task.Stage)
				return nil
			})
		},
	}
}

func newSubtasksCommand(ctx *commandContext) *cobra.Command {
	subtasksCmd := &cobra.Command{
		Use:     "subtasks",
		Aliases: []string{"subtask"},
		Short:   "Edit the checklist of a task",
	}

	subtasksCmd.AddCommand(&cobra.Command{
		Use:   "add <task-id> <title>",
		Short: "Append a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *taskflow.App) error {
				task, err := app.Tasks.AddSubtask(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				st := task.Subtasks[len(task.Subtasks)-1]
				fmt.Fprintf(cmd.OutOrStdout(), "Added subtask %s (%d%% done)\n", st.ID, task.Progress())
				return nil
			})
		},
	})
	subtasksCmd.AddCommand(&cobra.Command{
		Use:   "toggle <task-id> <subtask-id>",
		Short: "Mark a subtask done or not done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *taskflow.App) error {
				task, err := app.Tasks.ToggleSubtask(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s is %d%% done\n", task.ID, task.Progress())
				return nil
			})
		},
	})
	subtasksCmd.AddCommand(&cobra.Command{
		Use:   "delete <task-id> <subtask-id>",
		Short: "Remove a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *taskflow.App) error {
				task, err := app.Tasks.DeleteSubtask(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s has %d subtasks\n", task.ID, len(task.Subtasks))
				return nil
			})
		},
	})

	return subtasksCmd
}

func newTasksStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count tasks by state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *taskflow.App) error {
				stats := app.Tasks.Stats(time.Now())
				if asJSON {
					return writeJSON(cmd, stats)
				}
				rows := [][]string{
					{"Total", strconv.Itoa(stats.Total)},
					{"Completed", strconv.Itoa(stats.Completed)},
					{"In progress", strconv.Itoa(stats.InProgress)},
					{"Overdue", strconv.Itoa(stats.Overdue)},
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"", "Tasks"}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
