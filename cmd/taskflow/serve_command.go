package main

import (
	"github.com/RealZimboGuy/taskflow/pkg/taskflow"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return taskflow.Start(cmd.Context(), nil)
		},
	}
}
