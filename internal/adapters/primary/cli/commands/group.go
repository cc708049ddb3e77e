package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/denchenko/gmm/internal/core/app"
	"github.com/denchenko/gmm/internal/format/ascii"
	"github.com/spf13/cobra"
)

func Group(appInstance *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Local groups of roster members",
	}

	cmd.AddCommand(
		newGroupListCommand(appInstance),
		newGroupCreateCommand(appInstance),
		newGroupRenameCommand(appInstance),
		newGroupDeleteCommand(appInstance),
		newGroupMembersCommand(appInstance),
		newGroupAddCommand(appInstance),
		newGroupRemoveCommand(appInstance),
	)

	return cmd
}

func newGroupListCommand(appInstance *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List local groups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			groups, err := appInstance.ListGroups(context.Background())
			if err != nil {
				return err
			}

			out, err := ascii.FormatGroups(groups)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), out)

			return nil
		},
	}
}

func newGroupCreateCommand(appInstance *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create an empty group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			group, err := appInstance.CreateGroup(context.Background(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created group %d %q\n", group.ID, group.Name)

			return nil
		},
	}
}

func newGroupRenameCommand(appInstance *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename GROUP_ID NAME",
		Short: "Rename a group",
		Args:  cobra.MinimumNArgs(2), //nolint:mnd // id and name
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := parseGroupID(args[0])
			if err != nil {
				return err
			}

			name := strings.Join(args[1:], " ")
			if err := appInstance.RenameGroup(context.Background(), groupID, name); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Renamed group %d to %q\n", groupID, strings.TrimSpace(name))

			return nil
		},
	}
}

func newGroupDeleteCommand(appInstance *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete GROUP_ID",
		Short: "Delete a group, its members stay in the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := parseGroupID(args[0])
			if err != nil {
				return err
			}

			if err := appInstance.DeleteGroup(context.Background(), groupID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted group %d\n", groupID)

			return nil
		},
	}
}

func newGroupMembersCommand(appInstance *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "members GROUP_ID",
		Short: "List the members of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := parseGroupID(args[0])
			if err != nil {
				return err
			}

			members, err := appInstance.ListGroupMembers(context.Background(), groupID)
			if err != nil {
				return err
			}

			out, err := ascii.FormatGroupMembers(groupID, members)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), out)

			return nil
		},
	}
}

func newGroupAddCommand(appInstance *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "add GROUP_ID USER_ID...",
		Short: "Add roster members to a group",
		Args:  cobra.MinimumNArgs(2), //nolint:mnd // group and at least one user
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, userIDs, err := parseGroupArgs(args)
			if err != nil {
				return err
			}

			if err := appInstance.AddMembersToGroup(context.Background(), groupID, userIDs); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %d member(s) to group %d\n", len(userIDs), groupID)

			return nil
		},
	}
}

func newGroupRemoveCommand(appInstance *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove GROUP_ID USER_ID...",
		Short: "Remove members from a group",
		Args:  cobra.MinimumNArgs(2), //nolint:mnd // group and at least one user
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, userIDs, err := parseGroupArgs(args)
			if err != nil {
				return err
			}

			if err := appInstance.RemoveMembersFromGroup(context.Background(), groupID, userIDs); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d member(s) from group %d\n", len(userIDs), groupID)

			return nil
		},
	}
}

func parseGroupArgs(args []string) (int64, []int, error) {
	groupID, err := parseGroupID(args[0])
	if err != nil {
		return 0, nil, err
	}

	userIDs, err := parseUserIDs(args[1:])
	if err != nil {
		return 0, nil, err
	}

	return groupID, userIDs, nil
}
