package commands

import (
	"context"
	"fmt"

	"github.com/denchenko/gmm/internal/core/app"
	"github.com/denchenko/gmm/internal/format/ascii"
	"github.com/spf13/cobra"
)

func Roster(appInstance *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Local roster of known members",
	}

	cmd.AddCommand(
		newRosterListCommand(appInstance),
		newRosterDeleteCommand(appInstance),
	)

	return cmd
}

func newRosterListCommand(appInstance *app.App) *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "list [QUERY]",
		Short: "List roster members, filtered by username or name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePaging(page, perPage); err != nil {
				return err
			}

			var query string
			if len(args) > 0 {
				query = args[0]
			}

			result, err := appInstance.ListLocalMembers(context.Background(), query, page, perPage)
			if err != nil {
				return err
			}

			out, err := ascii.FormatLocalMembers(result)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), out)

			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", defaultPerPage, "items per page")

	return cmd
}

func newRosterDeleteCommand(appInstance *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete USER_ID...",
		Short: "Delete members from the roster and from all local groups",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userIDs, err := parseUserIDs(args)
			if err != nil {
				return err
			}

			if err := appInstance.DeleteLocalMembers(context.Background(), userIDs); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d member(s)\n", len(userIDs))

			return nil
		},
	}
}
