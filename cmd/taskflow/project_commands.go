package main

import (
	"fmt"
	"strconv"

	"github.com/RealZimboGuy/taskflow/internal/engine"
	"github.com/RealZimboGuy/taskflow/pkg/taskflow"
	"github.com/spf13/cobra"
)

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	projectsCmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Inspect and manage projects",
	}

	projectsCmd.AddCommand(newProjectsListCommand(ctx))
	projectsCmd.AddCommand(newProjectsAddCommand(ctx))
	projectsCmd.AddCommand(newProjectsDeleteCommand(ctx))

	return projectsCmd
}

func newProjectsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects with their task counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *taskflow.App) error {
				projects := app.Tasks.ListProjects()
				rows := make([][]string, 0, len(projects))
				for _, p := range projects {
					rows = append(rows, []string{p.ID, p.Name, strconv.Itoa(app.Tasks.ProjectTaskCount(p.ID))})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Tasks"}, rows))
				return nil
			})
		},
	}
}

func newProjectsAddCommand(ctx *commandContext) *cobra.Command {
	var draft engine.ProjectDraft
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *taskflow.App) error {
				draft.Name = args[0]
				p, err := app.Tasks.CreateProject(cmd.Context(), draft)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created project %s\n", p.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&draft.Description, "description", "", "Project description")
	cmd.Flags().StringVar(&draft.Color, "color", "", "Hex color")
	return cmd
}

func newProjectsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project; its tasks move to the default project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *taskflow.App) error {
				moved := app.Tasks.ProjectTaskCount(args[0])
				if err := app.Tasks.DeleteProject(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s; %d tasks moved to default\n", args[0], moved)
				return nil
			})
		},
	}
}
