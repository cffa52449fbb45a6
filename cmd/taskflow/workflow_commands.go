package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RealZimboGuy/taskflow/internal/engine"
	"github.com/RealZimboGuy/taskflow/pkg/taskflow"
	"github.com/spf13/cobra"
)

func newWorkflowsCommand(ctx *commandContext) *cobra.Command {
	workflowsCmd := &cobra.Command{
		Use:     "workflows",
		Aliases: []string{"workflow", "wf"},
		Short:   "Inspect and manage workflows",
	}

	workflowsCmd.AddCommand(newWorkflowsListCommand(ctx))
	workflowsCmd.AddCommand(newWorkflowsShowCommand(ctx))
	workflowsCmd.AddCommand(newWorkflowsActivateCommand(ctx))
	workflowsCmd.AddCommand(newWorkflowsDeleteCommand(ctx))

	return workflowsCmd
}

func newWorkflowsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *taskflow.App) error {
				list := app.Workflows.List()
				if asJSON {
					return writeJSON(cmd, list)
				}
				active := app.Workflows.ActiveID()
				rows := make([][]string, 0, len(list))
				for _, wf := range list {
					marker := ""
					if wf.ID == active {
						marker = "*"
					}
					rows = append(rows, []string{
						marker,
						wf.ID,
						wf.Name,
						strconv.Itoa(len(wf.Stages)),
						strconv.Itoa(app.Tasks.CountBound(wf.ID)),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Active", "ID", "Name", "Stages", "Tasks"}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newWorkflowsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON, asMermaid bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the stages and transitions of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *taskflow.App) error {
				wf, ok := app.Workflows.Get(args[0])
				if !ok {
					return fmt.Errorf("workflow %s: %w", args[0], engine.ErrWorkflowNotFound)
				}
				if asJSON {
					return writeJSON(cmd, wf)
				}
				out := cmd.OutOrStdout()
				if asMermaid {
					fmt.Fprint(out, engine.BuildFlowChart(wf))
					return nil
				}
				fmt.Fprintf(out, "%s (%s)\n", wf.Name, wf.ID)
				if wf.Description != "" {
					fmt.Fprintln(out, wf.Description)
				}
				rows := make([][]string, 0, len(wf.Stages))
				for _, st := range wf.Stages {
					rows = append(rows, []string{st.ID, st.Name, strings.Join(wf.TargetsFrom(st.ID), ", ")})
				}
				fmt.Fprint(out, renderTable([]string{"Stage", "Name", "Moves to"}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVar(&asMermaid, "mermaid", false, "Print the stage graph as a Mermaid flowchart")
	return cmd
}

func newWorkflowsActivateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <id>",
		Short: "Bind new tasks to this workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *taskflow.App) error {
				if _, ok := app.Workflows.Get(args[0]); !ok {
					return fmt.Errorf("workflow %s: %w", args[0], engine.ErrWorkflowNotFound)
				}
				if err := app.Workflows.SetActive(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Active workflow: %s\n", app.Workflows.ActiveID())
				return nil
			})
		},
	}
}

func newWorkflowsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a workflow; its tasks keep rendering with default stages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *taskflow.App) error {
				bound := app.Tasks.CountBound(args[0])
				if err := app.Workflows.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted workflow %s (%d tasks orphaned)\n", args[0], bound)
				return nil
			})
		},
	}
}
