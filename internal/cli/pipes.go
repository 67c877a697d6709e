package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPipeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipe",
		Short: "Inspect and clear pipes",
	}
	cmd.AddCommand(newPipeGetCmd(app), newPipeClearCmd(app))
	return cmd
}

func newPipeGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <pipe_id>",
		Short: "Print a pipe's id and name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.manager(cmd)
			if err != nil {
				return err
			}
			pipe, err := m.GetPipeInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if pipe == nil {
				return fmt.Errorf("pipe %q not found", args[0])
			}
			if app.asJSON {
				return app.printJSON(pipe)
			}
			app.ok("%s  %s", pipe.ID, pipe.Name)
			return nil
		},
	}
}

func newPipeClearCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear <pipe_id>",
		Short: "Delete every card of a pipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireYes(cmd, "clear pipe "+args[0]); err != nil {
				return err
			}
			m, err := app.manager(cmd)
			if err != nil {
				return err
			}
			result, err := m.ClearPipe(cmd.Context(), args[0])
			return app.printBulk("cards", result, err)
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm the delete")
	return cmd
}
