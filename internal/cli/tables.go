package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTableCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Search and clear database tables",
	}
	cmd.AddCommand(newTableFindCmd(app), newTableClearCmd(app))
	return cmd
}

func newTableFindCmd(app *App) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "find <table_id> <field_id> <value>",
		Short: "Find the first record whose field equals value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.manager(cmd)
			if err != nil {
				return err
			}
			if full {
				record, err := m.FindRecordInTableFull(cmd.Context(), args[0], args[1], args[2])
				if err != nil {
					return err
				}
				if record == nil {
					app.warn("not found")
					return nil
				}
				return app.printJSON(record)
			}
			id, found, err := m.FindRecordInTable(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			if !found {
				app.warn("not found")
				return nil
			}
			fmt.Fprintln(app.Out, id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Print the record with its fields")
	return cmd
}

func newTableClearCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear <table_id>",
		Short: "Delete the first page of records of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireYes(cmd, "clear table "+args[0]); err != nil {
				return err
			}
			m, err := app.manager(cmd)
			if err != nil {
				return err
			}
			result, err := m.ClearTable(cmd.Context(), args[0])
			return app.printBulk("records", result, err)
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm the delete")
	return cmd
}
