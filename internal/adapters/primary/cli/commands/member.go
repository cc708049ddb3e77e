package commands

import (
	"context"
	"fmt"

	"github.com/denchenko/gmm/internal/core/app"
	"github.com/denchenko/gmm/internal/core/domain"
	"github.com/denchenko/gmm/internal/format/ascii"
	"github.com/denchenko/gmm/internal/log"
	"github.com/spf13/cobra"
)

func Member(appInstance *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Members of GitLab projects",
	}

	cmd.AddCommand(
		newMemberListCommand(appInstance),
		newMemberAddCommand(appInstance),
		newMemberRemoveCommand(appInstance),
		newMemberImportCommand(appInstance),
	)

	return cmd
}

func newMemberListCommand(appInstance *app.App) *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "list PROJECT",
		Short: "List project members, inherited ones included",
		Long:  `List project members. PROJECT is either a numeric id or a path such as group/project.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePaging(page, perPage); err != nil {
				return err
			}

			ref, err := domain.ParseProjectRef(args[0])
			if err != nil {
				return err
			}

			result, err := log.Spin("Fetching members...", func() (*domain.Page[domain.ProjectMember], error) {
				return appInstance.ListProjectMembers(context.Background(), ref, page, perPage)
			})
			if err != nil {
				return err
			}

			out, err := ascii.FormatProjectMembers(ref, result)
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

func newMemberAddCommand(appInstance *app.App) *cobra.Command {
	var (
		level     string
		expiresAt string
		groupID   int64
	)

	cmd := &cobra.Command{
		Use:   "add PROJECT [USER_ID...]",
		Short: "Add users to a project",
		Long: `Add users to a project. Users that already are members count as added.
User ids may be separated by spaces or commas. With --group every member of
the local group is added instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := domain.ParseProjectRef(args[0])
			if err != nil {
				return err
			}

			accessLevel, err := domain.ParseAccessLevel(level)
			if err != nil {
				return err
			}

			ctx := context.Background()

			var run func() (*domain.BatchResult, error)
			switch {
			case groupID > 0 && len(args) > 1:
				return domain.NewValidationError("pass either user ids or --group, not both")
			case groupID > 0:
				run = func() (*domain.BatchResult, error) {
					return appInstance.BatchAddGroupToProject(ctx, ref, groupID, accessLevel, expiresAt)
				}
			default:
				userIDs, err := parseUserIDs(args[1:])
				if err != nil {
					return err
				}
				run = func() (*domain.BatchResult, error) {
					return appInstance.BatchAddMembers(ctx, ref, userIDs, accessLevel, expiresAt)
				}
			}

			result, err := log.Spin("Adding members...", run)
			if err != nil {
				return err
			}

			return printBatchResult(cmd, "add to", ref, result)
		},
	}

	cmd.Flags().StringVar(&level, "access-level", "developer", "guest, reporter, developer, maintainer, owner or a number")
	cmd.Flags().StringVar(&expiresAt, "expires-at", "", "membership expiry date, YYYY-MM-DD")
	cmd.Flags().Int64Var(&groupID, "group", 0, "add every member of this local group")

	return cmd
}

func newMemberRemoveCommand(appInstance *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove PROJECT USER_ID...",
		Short: "Remove users from a project",
		Long:  `Remove users from a project. Users that are not members count as removed.`,
		Args:  cobra.MinimumNArgs(2), //nolint:mnd // project and at least one user
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := domain.ParseProjectRef(args[0])
			if err != nil {
				return err
			}

			userIDs, err := parseUserIDs(args[1:])
			if err != nil {
				return err
			}

			result, err := log.Spin("Removing members...", func() (*domain.BatchResult, error) {
				return appInstance.BatchRemoveMembers(context.Background(), ref, userIDs)
			})
			if err != nil {
				return err
			}

			return printBatchResult(cmd, "remove from", ref, result)
		},
	}
}

func newMemberImportCommand(appInstance *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "import PROJECT",
		Short: "Copy all members of a project into the local roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := domain.ParseProjectRef(args[0])
			if err != nil {
				return err
			}

			count, err := log.Spin("Importing members...", func() (int, error) {
				return appInstance.ImportProjectMembers(context.Background(), ref)
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d member(s) of %s into the local roster\n", count, ref)

			return nil
		},
	}
}

func printBatchResult(cmd *cobra.Command, action string, ref domain.ProjectRef, result *domain.BatchResult) error {
	out, err := ascii.FormatBatchResult(action, ref, result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), out)

	if len(result.Failed) > 0 {
		return fmt.Errorf("%d of %d user(s) failed", len(result.Failed), len(result.Failed)+len(result.SuccessUserIDs))
	}

	return nil
}
