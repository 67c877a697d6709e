package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesprial/pipefy-mcp/internal/pipefy"
)

func newCardCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Read and change cards",
	}
	cmd.AddCommand(
		newCardGetCmd(app),
		newCardFindCmd(app),
		newCardMoveCmd(app),
		newCardCommentCmd(app),
		newCardDeleteCmd(app),
	)
	return cmd
}

func newCardGetCmd(app *App) *cobra.Command {
	var opts pipefy.CardInfoOptions
	cmd := &cobra.Command{
		Use:   "get <card_id>",
		Short: "Print a card with its fields and relations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.manager(cmd)
			if err != nil {
				return err
			}
			card, err := m.GetCardInfo(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			if card == nil {
				return fmt.Errorf("card %q not found", args[0])
			}
			if app.asJSON {
				return app.printJSON(card)
			}
			phase := ""
			if card.CurrentPhase != nil {
				phase = card.CurrentPhase.Name
			}
			app.ok("%s  %s  [%s]", card.ID, card.Title, phase)
			for _, f := range card.Fields {
				fmt.Fprintf(app.Out, "  %s: %s\n", f.Name, f.ReportValue)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.Children, "children", false, "Include fields of child cards")
	cmd.Flags().BoolVar(&opts.Parents, "parents", false, "Include fields of parent cards")
	cmd.Flags().BoolVar(&opts.SecondLevel, "second-level", false, "Nest one more level of relations")
	return cmd
}

func newCardFindCmd(app *App) *cobra.Command {
	var pipeID, fieldID string
	var serverSearch bool
	cmd := &cobra.Command{
		Use:   "find <title_or_value>",
		Short: "Find a card id by title, or by field value with --field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.manager(cmd)
			if err != nil {
				return err
			}
			var (
				id    string
				found bool
			)
			switch {
			case fieldID != "":
				id, found, err = m.FindCardIDFromField(cmd.Context(), fieldID, args[0], pipeID)
			case serverSearch:
				id, found, err = m.FindCardFromTitle(cmd.Context(), args[0], pipeID)
			default:
				id, found, err = m.FindCard(cmd.Context(), args[0], pipeID)
			}
			if err != nil {
				return err
			}
			if app.asJSON {
				return app.printJSON(map[string]any{"id": id, "found": found})
			}
			if !found {
				app.warn("not found")
				return nil
			}
			fmt.Fprintln(app.Out, id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&pipeID, "pipe", "p", "", "Pipe ID (required)")
	cmd.Flags().StringVarP(&fieldID, "field", "f", "", "Match this field instead of the title")
	cmd.Flags().BoolVar(&serverSearch, "server-search", false, "Search titles on the server instead of scanning the first page")
	_ = cmd.MarkFlagRequired("pipe")
	return cmd
}

func newCardMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <card_id> <phase_id>",
		Short: "Move a card to another phase",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.manager(cmd)
			if err != nil {
				return err
			}
			if err := m.MoveCardToPhase(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			app.ok("card %s moved to phase %s", args[0], args[1])
			return nil
		},
	}
}

func newCardCommentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <card_id> <text>...",
		Short: "Comment on a card",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.manager(cmd)
			if err != nil {
				return err
			}
			if err := m.MakeComment(cmd.Context(), args[0], strings.Join(args[1:], " ")); err != nil {
				return err
			}
			app.ok("comment added to card %s", args[0])
			return nil
		},
	}
}

func newCardDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <card_id>",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireYes(cmd, "delete card "+args[0]); err != nil {
				return err
			}
			m, err := app.manager(cmd)
			if err != nil {
				return err
			}
			if err := m.DeleteCard(cmd.Context(), args[0]); err != nil {
				return err
			}
			app.ok("card %s deleted", args[0])
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm the delete")
	return cmd
}
